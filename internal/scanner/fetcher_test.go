package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Klingon-tech/aleo-netclient/internal/apierr"
	"github.com/Klingon-tech/aleo-netclient/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Pages(t *testing.T) {
	f := NewFetcher(nil, 50, 4)

	tests := []struct {
		start, end int64
		want       []page
	}{
		{0, 1, []page{{0, 1}}},
		{1, 3, []page{{1, 3}}},
		{0, 50, []page{{0, 50}}},
		{0, 51, []page{{0, 50}, {50, 51}}},
		{10, 204, []page{{10, 60}, {60, 110}, {110, 160}, {160, 204}}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.pages(tt.start, tt.end), "pages(%d, %d)", tt.start, tt.end)
	}
}

func TestFetcher_Defaults(t *testing.T) {
	f := NewFetcher(nil, 0, -1)
	assert.Equal(t, int64(DefaultPageSize), f.pageSize)
	assert.Equal(t, DefaultConcurrency, f.concurrency)
}

func TestFetcher_FetchRangeHalfOpen(t *testing.T) {
	node := newFakeNode(10)
	blocks, err := NewFetcher(node, 0, 0).FetchRange(context.Background(), 1, 3)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, uint64(1), blocks[0].Height())
	assert.Equal(t, uint64(2), blocks[1].Height())
}

func TestFetcher_OrderedDespiteOutOfOrderPages(t *testing.T) {
	node := newFakeNode(1000)
	// Later pages answer first.
	node.pageDelay = func(start int64) time.Duration {
		return time.Duration(1000-start) * 20 * time.Microsecond
	}

	var heights []uint64
	err := NewFetcher(node, 10, 8).Each(context.Background(), 0, 1000, func(b *types.Block) error {
		heights = append(heights, b.Height())
		return nil
	})
	require.NoError(t, err)
	require.Len(t, heights, 1000)
	for i, h := range heights {
		if h != uint64(i) {
			t.Fatalf("heights[%d] = %d, want %d", i, h, i)
		}
	}

	calls, fetched := node.fetchCounts()
	assert.Equal(t, 100, calls)
	assert.Len(t, fetched, 1000)
	for h, c := range fetched {
		if c != 1 {
			t.Errorf("height %d fetched %d times, want 1", h, c)
		}
	}
}

func TestFetcher_InvalidRange(t *testing.T) {
	node := newFakeNode(10)
	_, err := NewFetcher(node, 0, 0).FetchRange(context.Background(), 3, 3)
	assert.True(t, errors.Is(err, apierr.ErrInvalidRange))

	calls, _ := node.fetchCounts()
	assert.Zero(t, calls)
}

func TestFetcher_PartialPage(t *testing.T) {
	node := newFakeNode(100)
	node.mangle = func(start, end int64, blocks []types.Block) []types.Block {
		if start == 50 {
			return blocks[:len(blocks)-1]
		}
		return blocks
	}

	_, err := NewFetcher(node, 50, 2).FetchRange(context.Background(), 0, 100)
	require.Error(t, err)

	var fe *apierr.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, err.Error(), "Error fetching blocks between 50 and 100.")
	assert.Contains(t, err.Error(), "partial page")
}

func TestFetcher_MalformedPage(t *testing.T) {
	node := newFakeNode(10)
	node.mangle = func(start, end int64, blocks []types.Block) []types.Block {
		blocks[0], blocks[1] = blocks[1], blocks[0]
		return blocks
	}

	_, err := NewFetcher(node, 0, 0).FetchRange(context.Background(), 0, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierr.ErrFetch))
	assert.Contains(t, err.Error(), "malformed page")
}

func TestFetcher_BeyondTip(t *testing.T) {
	node := newFakeNode(120)
	_, err := NewFetcher(node, 50, 4).FetchRange(context.Background(), 0, 130)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierr.ErrFetch))
	assert.True(t, apierr.IsNotFound(err))
	assert.Contains(t, err.Error(), "Error fetching blocks between 100 and 130.")
}

func TestFetcher_CallbackErrorStops(t *testing.T) {
	node := newFakeNode(500)
	stop := errors.New("stop")

	var seen int
	err := NewFetcher(node, 10, 2).Each(context.Background(), 0, 500, func(b *types.Block) error {
		seen++
		if b.Height() == 15 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 16, seen)

	// Look-ahead is bounded, so far fewer than all pages were requested.
	calls, _ := node.fetchCounts()
	assert.Less(t, calls, 50)
}

func TestFetcher_CallbackErrorWinsOverInFlightPages(t *testing.T) {
	node := newFakeNode(500)
	node.pageDelay = func(start int64) time.Duration {
		if start == 0 {
			return 0
		}
		return 200 * time.Millisecond
	}
	stop := errors.New("stop")

	err := NewFetcher(node, 10, 4).Each(context.Background(), 0, 500, func(b *types.Block) error {
		if b.Height() == 5 {
			return stop
		}
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, stop)
	assert.NotErrorIs(t, err, context.Canceled)
	assert.NotContains(t, err.Error(), "Error fetching blocks")
}

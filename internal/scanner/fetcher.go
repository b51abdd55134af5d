package scanner

import (
	"context"
	"errors"
	"fmt"

	"github.com/Klingon-tech/aleo-netclient/internal/apierr"
	"github.com/Klingon-tech/aleo-netclient/pkg/types"
	"golang.org/x/sync/errgroup"
)

// Fetch defaults.
const (
	// DefaultPageSize is the largest range the node serves from /blocks.
	DefaultPageSize = 50
	// DefaultConcurrency bounds the number of pages in flight.
	DefaultConcurrency = 4
)

// RangeSource serves half-open block ranges.
type RangeSource interface {
	GetBlockRange(ctx context.Context, start, end int64) ([]types.Block, error)
}

// Fetcher retrieves a height range page by page and hands blocks to the
// caller in ascending height order.
type Fetcher struct {
	src         RangeSource
	pageSize    int64
	concurrency int
}

// NewFetcher creates a fetcher. Non-positive sizes fall back to the defaults.
func NewFetcher(src RangeSource, pageSize, concurrency int) *Fetcher {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Fetcher{src: src, pageSize: int64(pageSize), concurrency: concurrency}
}

type page struct {
	start, end int64
}

// pages splits [start, end) into consecutive pages of at most pageSize.
func (f *Fetcher) pages(start, end int64) []page {
	out := make([]page, 0, (end-start+f.pageSize-1)/f.pageSize)
	for s := start; s < end; s += f.pageSize {
		e := s + f.pageSize
		if e > end {
			e = end
		}
		out = append(out, page{start: s, end: e})
	}
	return out
}

// FetchRange returns every block in [start, end) in ascending height order.
func (f *Fetcher) FetchRange(ctx context.Context, start, end int64) ([]types.Block, error) {
	var blocks []types.Block
	err := f.Each(ctx, start, end, func(b *types.Block) error {
		blocks = append(blocks, *b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// Each calls fn for every block in [start, end) in ascending height order.
// Pages are fetched concurrently, at most concurrency at a time and at most
// twice that many ahead of fn. Every height is requested exactly once.
// The first fetch error or fn error stops the walk and is returned.
func (f *Fetcher) Each(ctx context.Context, start, end int64, fn func(*types.Block) error) error {
	if err := ValidateRange(start, end); err != nil {
		return err
	}
	pages := f.pages(start, end)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	slots := make([]chan []types.Block, len(pages))
	for i := range slots {
		slots[i] = make(chan []types.Block, 1)
	}
	ahead := make(chan struct{}, 2*f.concurrency)

	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for i, p := range pages {
			select {
			case ahead <- struct{}{}:
			case <-gctx.Done():
				return
			}
			g.Go(func() error {
				blocks, err := f.fetchPage(gctx, p)
				if err != nil {
					return err
				}
				slots[i] <- blocks
				return nil
			})
		}
	}()

	fnErr, ctxErr := deliver(gctx, slots, ahead, fn)
	if fnErr != nil {
		cancel()
	}
	<-launched
	waitErr := g.Wait()
	// Pages still in flight when fn fails only see the cancellation.
	if fnErr != nil {
		return fnErr
	}
	if waitErr != nil {
		return waitErr
	}
	return ctxErr
}

// deliver hands blocks to fn in page order. It returns fn's error, or the
// context error when the walk was cancelled before fn saw every block.
func deliver(ctx context.Context, slots []chan []types.Block, ahead <-chan struct{}, fn func(*types.Block) error) (fnErr, ctxErr error) {
	for _, slot := range slots {
		select {
		case blocks := <-slot:
			<-ahead
			for i := range blocks {
				if err := fn(&blocks[i]); err != nil {
					return err, nil
				}
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, p page) ([]types.Block, error) {
	blocks, err := f.src.GetBlockRange(ctx, p.start, p.end)
	if err != nil {
		var fe *apierr.FetchError
		if errors.As(err, &fe) {
			return nil, err
		}
		return nil, apierr.Fetchf(err, "Error fetching blocks between %d and %d.", p.start, p.end)
	}
	if err := checkPage(p, blocks); err != nil {
		return nil, apierr.Fetchf(err, "Error fetching blocks between %d and %d.", p.start, p.end)
	}
	return blocks, nil
}

// checkPage verifies that a page holds exactly the requested heights in order.
func checkPage(p page, blocks []types.Block) error {
	if want := p.end - p.start; int64(len(blocks)) != want {
		return fmt.Errorf("partial page: got %d blocks, want %d", len(blocks), want)
	}
	for i := range blocks {
		want := uint64(p.start) + uint64(i)
		if h := blocks[i].Height(); h != want {
			return fmt.Errorf("malformed page: block %d has height %d, want %d", i, h, want)
		}
	}
	return nil
}

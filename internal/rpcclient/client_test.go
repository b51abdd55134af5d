package rpcclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Klingon-tech/aleo-netclient/internal/apierr"
	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "http://node.localhost:3030/testnet3"

func TestClient_Get(t *testing.T) {
	t.Run("DecodesJSON", func(t *testing.T) {
		defer gock.Off()

		gock.New("http://node.localhost:3030").
			Get("/testnet3/latest/height").
			Reply(200).
			BodyString("1234")

		var height int64
		err := New(testBase).Get(context.Background(), "/latest/height", &height)
		require.NoError(t, err)
		assert.Equal(t, int64(1234), height)
		assert.True(t, gock.IsDone())
	})

	t.Run("NilResultDiscardsBody", func(t *testing.T) {
		defer gock.Off()

		gock.New("http://node.localhost:3030").
			Get("/testnet3/latest/hash").
			Reply(200).
			JSON("ab1xyz")

		assert.NoError(t, New(testBase).Get(context.Background(), "latest/hash", nil))
	})

	t.Run("NotFound", func(t *testing.T) {
		defer gock.Off()

		gock.New("http://node.localhost:3030").
			Get("/testnet3/find/transitionID/abc").
			Reply(404).
			BodyString("not found")

		err := New(testBase).Get(context.Background(), "/find/transitionID/abc", nil)
		require.Error(t, err)

		var se *apierr.StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, 404, se.Code)
		assert.Equal(t, "not found", se.Body)
		assert.True(t, apierr.IsNotFound(err))
	})

	t.Run("MalformedBody", func(t *testing.T) {
		defer gock.Off()

		gock.New("http://node.localhost:3030").
			Get("/testnet3/latest/height").
			Reply(200).
			BodyString("{not json")

		var height int64
		err := New(testBase).Get(context.Background(), "/latest/height", &height)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode response")
	})

	t.Run("NoRetryByDefault", func(t *testing.T) {
		defer gock.Off()

		gock.New("http://node.localhost:3030").
			Get("/testnet3/latest/height").
			Reply(503)
		gock.New("http://node.localhost:3030").
			Get("/testnet3/latest/height").
			Reply(200).
			BodyString("7")

		err := New(testBase).Get(context.Background(), "/latest/height", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
		assert.True(t, gock.IsPending())
	})

	t.Run("RetriesServerErrors", func(t *testing.T) {
		defer gock.Off()

		gock.New("http://node.localhost:3030").
			Get("/testnet3/latest/height").
			Reply(503)
		gock.New("http://node.localhost:3030").
			Get("/testnet3/latest/height").
			Reply(200).
			BodyString("7")

		c := NewWithOptions(testBase, Options{Retries: 2, RetryDelay: time.Millisecond})
		var height int64
		require.NoError(t, c.Get(context.Background(), "/latest/height", &height))
		assert.Equal(t, int64(7), height)
		assert.True(t, gock.IsDone())
	})

	t.Run("DoesNotRetryClientErrors", func(t *testing.T) {
		defer gock.Off()

		gock.New("http://node.localhost:3030").
			Get("/testnet3/block/5").
			Reply(400)
		gock.New("http://node.localhost:3030").
			Get("/testnet3/block/5").
			Reply(200).
			JSON(map[string]any{})

		c := NewWithOptions(testBase, Options{Retries: 3, RetryDelay: time.Millisecond})
		err := c.Get(context.Background(), "/block/5", nil)
		require.Error(t, err)
		assert.True(t, gock.IsPending())
	})
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewWithTimeout(srv.URL, 50*time.Millisecond)
	start := time.Now()
	err := c.Get(context.Background(), "/latest/height", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierr.ErrTimeout), "got %v", err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClient_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := New(srv.URL).Get(ctx, "/latest/height", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierr.ErrTimeout), "got %v", err)
}

func TestEndpointLabel(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/block/12", "block"},
		{"/block/12/transactions", "block/transactions"},
		{"/blocks?start=1&end=3", "blocks"},
		{"/latest/height", "latest/height"},
		{"/find/transitionID/xyz", "find/transitionID"},
		{"/program/credits.aleo", "program"},
		{"/program/credits.aleo/mappings", "program/mappings"},
		{"/program/credits.aleo/mapping/account/aleo1x", "program/mapping"},
		{"transaction/at1", "transaction"},
	}
	for _, tt := range tests {
		if got := endpointLabel(tt.path); got != tt.want {
			t.Errorf("endpointLabel(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

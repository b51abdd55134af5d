package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidRangeError(t *testing.T) {
	err := error(&InvalidRangeError{Start: 5, End: 0})
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.Contains(t, err.Error(), "end must be greater than start")

	err = &InvalidRangeError{Start: -5, End: 5}
	assert.Contains(t, err.Error(), "non-negative")
	assert.NotErrorIs(t, err, ErrInvalidKey)
}

func TestInvalidKeyError(t *testing.T) {
	cause := errors.New("bad encoding")
	err := error(&InvalidKeyError{Err: cause})
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "bad encoding")
}

func TestFetchError(t *testing.T) {
	err := Fetchf(&StatusError{Code: http.StatusNotFound, Body: "missing"}, "Error fetching blocks between %d and %d.", 999999999, 1000000000)

	assert.ErrorIs(t, err, ErrFetch)
	assert.Contains(t, err.Error(), "Error fetching blocks between 999999999 and 1000000000.")
	assert.Equal(t, http.StatusNotFound, err.StatusCode())
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", err)))

	transport := Fetchf(errors.New("connection refused"), "Error fetching block.")
	assert.Equal(t, 0, transport.StatusCode())
	assert.False(t, IsNotFound(transport))
}

func TestAsTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()

	err := AsTimeout(ctx, "scan", Fetchf(ctx.Err(), "Error fetching block."))
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "scan", te.Op)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, ErrFetch)

	plain := errors.New("boom")
	assert.Same(t, plain, AsTimeout(context.Background(), "scan", plain))
	assert.NoError(t, AsTimeout(ctx, "scan", nil))

	again := AsTimeout(ctx, "outer", err)
	require.ErrorAs(t, again, &te)
	assert.Equal(t, "scan", te.Op)
}

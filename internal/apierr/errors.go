// Package apierr defines the error taxonomy shared by the node client and the
// record scanner.
//
// Validation failures (InvalidRangeError, InvalidKeyError) are produced before
// any request is issued. FetchError wraps every remote or transport failure
// and names the entity that could not be fetched. TimeoutError is returned
// when a deadline expires while a request is in flight.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for errors.Is matching.
var (
	ErrInvalidRange = errors.New("invalid height range")
	ErrInvalidKey   = errors.New("invalid private key")
	ErrFetch        = errors.New("fetch failed")
	ErrTimeout      = errors.New("timed out")
)

// InvalidRangeError reports a half-open height range that is empty, inverted
// or negative.
type InvalidRangeError struct {
	Start int64
	End   int64
}

func (e *InvalidRangeError) Error() string {
	switch {
	case e.Start < 0:
		return fmt.Sprintf("invalid height range [%d, %d): start must be non-negative", e.Start, e.End)
	default:
		return fmt.Sprintf("invalid height range [%d, %d): end must be greater than start", e.Start, e.End)
	}
}

func (e *InvalidRangeError) Is(target error) bool { return target == ErrInvalidRange }

// InvalidKeyError reports private key material that does not parse.
type InvalidKeyError struct {
	Err error
}

func (e *InvalidKeyError) Error() string {
	if e.Err == nil {
		return ErrInvalidKey.Error()
	}
	return fmt.Sprintf("%s: %v", ErrInvalidKey, e.Err)
}

func (e *InvalidKeyError) Is(target error) bool { return target == ErrInvalidKey }

func (e *InvalidKeyError) Unwrap() error { return e.Err }

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http status %d", e.Code)
	}
	return fmt.Sprintf("http status %d: %s", e.Code, e.Body)
}

// FetchError wraps a failed request. Msg names the entity and the identifiers
// that were requested, e.g. "Error fetching blocks between 1 and 3.".
type FetchError struct {
	Msg string
	Err error
}

// Fetchf builds a FetchError with a formatted message.
func Fetchf(err error, format string, args ...any) *FetchError {
	return &FetchError{Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + " " + e.Err.Error()
}

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

func (e *FetchError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status the node answered with, or 0 when the
// failure happened before a response was read.
func (e *FetchError) StatusCode() int {
	var se *StatusError
	if errors.As(e.Err, &se) {
		return se.Code
	}
	return 0
}

// IsNotFound reports whether err is a fetch that the node answered with 404.
func IsNotFound(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode() == http.StatusNotFound
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// TimeoutError reports an operation abandoned because its deadline expired.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, ErrTimeout)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrTimeout, e.Err)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

func (e *TimeoutError) Unwrap() error { return e.Err }

// AsTimeout converts err into a TimeoutError when it was caused by an expired
// deadline, either the caller's or one derived from it. Other errors are
// returned unchanged.
func AsTimeout(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Op: op, Err: err}
	}
	return err
}

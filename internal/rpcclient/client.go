// Package rpcclient is the HTTP transport for the node's REST API.
//
// Requests are plain GETs returning JSON. Per-request timeouts and optional
// retries are applied with failsafe-go policies; retries are off unless
// configured, so callers see transport failures unchanged by default.
package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Klingon-tech/aleo-netclient/internal/apierr"
	klog "github.com/Klingon-tech/aleo-netclient/internal/log"
	"github.com/Klingon-tech/aleo-netclient/internal/metrics"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/failsafe-go/failsafe-go/timeout"
)

// DefaultTimeout bounds a single request attempt.
const DefaultTimeout = 30 * time.Second

// maxBodySize caps how much of a response is read.
const maxBodySize = 64 << 20

// Options tunes the transport.
type Options struct {
	// Timeout bounds each attempt. Zero means DefaultTimeout.
	Timeout time.Duration
	// Retries is the number of extra attempts after a failed one. Zero
	// disables retrying.
	Retries    int
	RetryDelay time.Duration
	// HTTPClient overrides the underlying client. Its Timeout should be zero;
	// the timeout policy owns deadlines.
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
}

// Client issues GET requests against a base URL.
type Client struct {
	base     string
	http     *http.Client
	executor failsafe.Executor[[]byte]
	metrics  *metrics.Metrics
}

// New creates a client for base (e.g. "https://api.example.org/testnet3").
func New(base string) *Client {
	return NewWithOptions(base, Options{})
}

// NewWithTimeout creates a client with a custom per-request timeout.
func NewWithTimeout(base string, timeout time.Duration) *Client {
	return NewWithOptions(base, Options{Timeout: timeout})
}

// NewWithOptions creates a client with explicit transport options.
func NewWithOptions(base string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	var policies []failsafe.Policy[[]byte]
	if opts.Retries > 0 {
		builder := retrypolicy.Builder[[]byte]().
			HandleIf(func(_ []byte, err error) bool { return retryable(err) }).
			WithMaxAttempts(opts.Retries + 1).
			ReturnLastFailure()
		if opts.RetryDelay > 0 {
			builder = builder.WithDelay(opts.RetryDelay)
		}
		policies = append(policies, builder.Build())
	}
	policies = append(policies, timeout.Builder[[]byte](opts.Timeout).Build())

	return &Client{
		base:     strings.TrimRight(base, "/"),
		http:     httpClient,
		executor: failsafe.NewExecutor[[]byte](policies...),
		metrics:  opts.Metrics,
	}
}

// Base returns the base URL requests are resolved against.
func (c *Client) Base() string {
	return c.base
}

// Get fetches base+path and decodes the JSON body into result.
// If result is nil, the body is discarded.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	url := c.base + "/" + strings.TrimLeft(path, "/")
	start := time.Now()

	data, err := c.executor.WithContext(ctx).GetWithExecution(func(exec failsafe.Execution[[]byte]) ([]byte, error) {
		return c.do(exec.Context(), url)
	})
	if errors.Is(err, timeout.ErrExceeded) {
		err = &apierr.TimeoutError{Op: "GET " + path, Err: err}
	}
	err = apierr.AsTimeout(ctx, "GET "+path, err)
	c.metrics.ObserveRequest(endpointLabel(path), time.Since(start), err)

	if err != nil {
		klog.Client.Debug().Str("url", url).Err(err).Msg("request failed")
		return err
	}
	klog.Client.Debug().Str("url", url).Int("bytes", len(data)).Dur("took", time.Since(start)).Msg("request")

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apierr.StatusError{Code: resp.StatusCode, Body: truncate(strings.TrimSpace(string(data)), 256)}
	}
	return data, nil
}

// retryable reports whether a failed attempt may succeed on retry: transport
// errors and 5xx/429 responses are, client errors and cancellations are not.
func retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var se *apierr.StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	return true
}

// endpointLabel keeps metric cardinality bounded: "/block/12/transactions"
// becomes "block/transactions".
func endpointLabel(path string) string {
	parts := strings.Split(strings.Trim(strings.SplitN(path, "?", 2)[0], "/"), "/")
	if len(parts) == 0 {
		return ""
	}
	label := parts[0]
	switch label {
	case "latest", "find":
		if len(parts) > 1 {
			label += "/" + parts[1]
		}
	case "block", "program":
		if len(parts) > 2 {
			label += "/" + parts[2]
		}
	}
	return label
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

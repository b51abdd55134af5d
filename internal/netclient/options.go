package netclient

import (
	"net/http"
	"time"

	"github.com/Klingon-tech/aleo-netclient/internal/metrics"
	"github.com/Klingon-tech/aleo-netclient/internal/scanner"
)

// DefaultNetwork is the path segment appended to the host.
const DefaultNetwork = "testnet3"

type settings struct {
	network    string
	timeout    time.Duration
	retries    int
	retryDelay time.Duration
	httpClient *http.Client
	metrics    *metrics.Metrics
	scan       scanner.Options
}

// Option configures a Client.
type Option func(*settings)

// WithNetwork sets the network path segment, e.g. "mainnet".
func WithNetwork(network string) Option {
	return func(s *settings) {
		s.network = network
	}
}

// WithTimeout bounds each HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

// WithRetries retries failed transport attempts n extra times, delay apart.
func WithRetries(n int, delay time.Duration) Option {
	return func(s *settings) {
		s.retries = n
		s.retryDelay = delay
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		s.httpClient = c
	}
}

// WithMetrics records request and scan metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

// WithScanOptions configures FindUnspentRecords. Its Metrics field is
// overridden by WithMetrics.
func WithScanOptions(o scanner.Options) Option {
	return func(s *settings) {
		s.scan = o
	}
}

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// MaxPageSize is the largest range the node serves from /blocks.
const MaxPageSize = 50

// Validate checks client config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network == "" || strings.ContainsAny(cfg.Network, "/?# ") {
		return fmt.Errorf("network must be a single path segment, got %q", cfg.Network)
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint must be an http or https URL, got %q", cfg.Endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint has no host: %q", cfg.Endpoint)
	}

	if cfg.Transport.Timeout <= 0 {
		return fmt.Errorf("transport.timeout must be positive")
	}
	if cfg.Transport.Retries < 0 {
		return fmt.Errorf("transport.retries must not be negative")
	}
	if cfg.Transport.RetryDelay < 0 {
		return fmt.Errorf("transport.retrydelay must not be negative")
	}

	if cfg.Scan.PageSize < 1 || cfg.Scan.PageSize > MaxPageSize {
		return fmt.Errorf("scan.pagesize must be in range [1, %d]", MaxPageSize)
	}
	if cfg.Scan.Concurrency < 1 {
		return fmt.Errorf("scan.concurrency must be at least 1")
	}
	if cfg.Scan.Timeout < 0 {
		return fmt.Errorf("scan.timeout must not be negative")
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "", "trace", "debug", "info", "warn", "error", "off", "disabled":
	default:
		return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
	}
	return nil
}

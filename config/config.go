// Package config handles client configuration.
//
// Values come from, in increasing precedence: built-in defaults, the
// key = value config file in the data directory, and command-line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Well-known network path segments.
const (
	Mainnet  = "mainnet"
	Testnet3 = "testnet3"
	Canary   = "canary"
)

// Config holds client runtime configuration.
type Config struct {
	// Core
	Network  string `conf:"network"`
	Endpoint string `conf:"endpoint"`
	DataDir  string `conf:"datadir"`

	// HTTP transport
	Transport TransportConfig

	// Record scanning
	Scan ScanConfig

	// Logging
	Log LogConfig
}

// TransportConfig holds HTTP request settings.
type TransportConfig struct {
	Timeout    time.Duration `conf:"transport.timeout"`
	Retries    int           `conf:"transport.retries"`    // Extra attempts; 0 disables retrying.
	RetryDelay time.Duration `conf:"transport.retrydelay"` // Pause between attempts.
}

// ScanConfig holds unspent-record scan settings.
type ScanConfig struct {
	PageSize    int           `conf:"scan.pagesize"`    // Heights per /blocks request (node max 50).
	Concurrency int           `conf:"scan.concurrency"` // Pages in flight.
	Timeout     time.Duration `conf:"scan.timeout"`     // Whole-scan deadline; 0 means none.
	Program     string        `conf:"scan.program"`     // Empty scans every program.
	SpentCheck  bool          `conf:"scan.spentcheck"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.aleo-netclient
//	macOS:   ~/Library/Application Support/AleoNetclient
//	Windows: %APPDATA%\AleoNetclient
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".aleo-netclient"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "AleoNetclient")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "AleoNetclient")
		}
		return filepath.Join(home, "AppData", "Roaming", "AleoNetclient")
	default:
		return filepath.Join(home, ".aleo-netclient")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, c.Network)
}

// RecordsDir returns the record index database directory.
func (c *Config) RecordsDir() string {
	return filepath.Join(c.NetworkDataDir(), "records")
}

// AccountFile returns the default encrypted account file.
func (c *Config) AccountFile() string {
	return filepath.Join(c.DataDir, "account.json")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "aleo-cli.conf")
}

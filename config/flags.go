package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
)

// Flags holds the global command-line flags. Only flags the user set
// explicitly override file values.
type Flags struct {
	fs *pflag.FlagSet

	// Core
	Network  string
	Endpoint string
	DataDir  string
	Config   string

	// Transport
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration

	// Scan
	PageSize     int
	Concurrency  int
	ScanTimeout  time.Duration
	Program      string
	NoSpentCheck bool

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool
}

// BindFlags registers the global flags on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}

	// Core
	fs.StringVar(&f.Network, "network", "", "Network path segment (mainnet, testnet3, canary)")
	fs.StringVar(&f.Endpoint, "endpoint", "", "Node API host (default "+DefaultEndpoint+")")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVarP(&f.Config, "config", "c", "", "Config file path (default <datadir>/aleo-cli.conf)")

	// Transport
	fs.DurationVar(&f.Timeout, "timeout", 0, "Per-request timeout")
	fs.IntVar(&f.Retries, "retries", 0, "Extra attempts after a failed request")
	fs.DurationVar(&f.RetryDelay, "retry-delay", 0, "Pause between request attempts")

	// Scan
	fs.IntVar(&f.PageSize, "page-size", 0, "Heights per /blocks request (max 50)")
	fs.IntVar(&f.Concurrency, "concurrency", 0, "Block pages fetched in parallel")
	fs.DurationVar(&f.ScanTimeout, "scan-timeout", 0, "Deadline for a whole scan")
	fs.StringVar(&f.Program, "program", "", "Only scan records of this program (\"all\" for every program)")
	fs.BoolVar(&f.NoSpentCheck, "no-spent-check", false, "Return records without checking whether they were spent")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error, off)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	return f
}

func (f *Flags) changed(name string) bool {
	return f.fs != nil && f.fs.Changed(name)
}

// ApplyFlags applies explicitly set command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	// Core
	if f.changed("network") {
		cfg.Network = f.Network
	}
	if f.changed("endpoint") {
		cfg.Endpoint = f.Endpoint
	}
	if f.changed("datadir") {
		cfg.DataDir = f.DataDir
	}

	// Transport
	if f.changed("timeout") {
		cfg.Transport.Timeout = f.Timeout
	}
	if f.changed("retries") {
		cfg.Transport.Retries = f.Retries
	}
	if f.changed("retry-delay") {
		cfg.Transport.RetryDelay = f.RetryDelay
	}

	// Scan
	if f.changed("page-size") {
		cfg.Scan.PageSize = f.PageSize
	}
	if f.changed("concurrency") {
		cfg.Scan.Concurrency = f.Concurrency
	}
	if f.changed("scan-timeout") {
		cfg.Scan.Timeout = f.ScanTimeout
	}
	if f.changed("program") {
		cfg.Scan.Program = f.Program
		if f.Program == "all" {
			cfg.Scan.Program = ""
		}
	}
	if f.changed("no-spent-check") {
		cfg.Scan.SpentCheck = !f.NoSpentCheck
	}

	// Logging
	if f.changed("log-level") {
		cfg.Log.Level = f.LogLevel
	}
	if f.changed("log-file") {
		cfg.Log.File = f.LogFile
	}
	if f.changed("log-json") {
		cfg.Log.JSON = f.LogJSON
	}
}

// Load loads configuration with the following precedence:
// 1. Default values
// 2. Config file (created with defaults on first use)
// 3. Command-line flags
func Load(f *Flags) (*Config, error) {
	// Network and datadir decide which defaults and which file apply.
	network := ""
	if f.changed("network") {
		network = f.Network
	}
	cfg := Default(network)
	if f.changed("datadir") {
		cfg.DataDir = f.DataDir
	}

	if err := EnsureDataDirs(cfg); err != nil {
		return nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	configPath := f.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}
	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, fmt.Errorf("applying config file: %w", err)
	}

	ApplyFlags(cfg, f)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// EnsureDataDirs creates the data directory and a default config file if
// they don't already exist. It is safe to call on every start.
func EnsureDataDirs(cfg *Config) error {
	for _, dir := range []string{cfg.DataDir, cfg.LogsDir()} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath, cfg.Network); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}
	return nil
}

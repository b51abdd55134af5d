package config

import "time"

// DefaultEndpoint is the public API host; local nodes listen on
// http://localhost:3030.
const DefaultEndpoint = "https://vm.aleo.org/api"

// Default returns the default configuration for a network.
func Default(network string) *Config {
	if network == "" {
		network = Testnet3
	}
	return &Config{
		Network:  network,
		Endpoint: DefaultEndpoint,
		DataDir:  DefaultDataDir(),
		Transport: TransportConfig{
			Timeout:    30 * time.Second,
			Retries:    0,
			RetryDelay: 500 * time.Millisecond,
		},
		Scan: ScanConfig{
			PageSize:    50,
			Concurrency: 4,
			Timeout:     0,
			Program:     "credits.aleo",
			SpentCheck:  true,
		},
		Log: LogConfig{
			Level: "warn",
			JSON:  false,
		},
	}
}

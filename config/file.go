package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads client configuration from a .conf file.
// Format: key = value (one per line, # for comments). A missing file yields
// no values.
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key. Unknown keys are ignored.
func setConfigValue(cfg *Config, key, value string) error {
	var err error
	switch key {
	// Core
	case "network":
		cfg.Network = value
	case "endpoint", "host":
		cfg.Endpoint = value
	case "datadir":
		cfg.DataDir = value

	// Transport
	case "transport.timeout":
		cfg.Transport.Timeout, err = time.ParseDuration(value)
	case "transport.retries":
		cfg.Transport.Retries, err = strconv.Atoi(value)
	case "transport.retrydelay":
		cfg.Transport.RetryDelay, err = time.ParseDuration(value)

	// Scan
	case "scan.pagesize":
		cfg.Scan.PageSize, err = strconv.Atoi(value)
	case "scan.concurrency":
		cfg.Scan.Concurrency, err = strconv.Atoi(value)
	case "scan.timeout":
		cfg.Scan.Timeout, err = time.ParseDuration(value)
	case "scan.program":
		cfg.Scan.Program = value
	case "scan.spentcheck":
		cfg.Scan.SpentCheck = parseBool(value)

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)
	}
	return err
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// WriteDefaultConfig writes a default client configuration file.
func WriteDefaultConfig(path string, network string) error {
	d := Default(network)
	content := `# Aleo network client configuration

# Network path segment appended to the endpoint: mainnet, testnet3, canary
network = ` + d.Network + `

# Node API host
endpoint = ` + d.Endpoint + `

# Data directory (default: ~/.aleo-netclient)
# datadir = ~/.aleo-netclient

# ============================================================================
# HTTP transport
# ============================================================================

transport.timeout = ` + d.Transport.Timeout.String() + `
# Extra attempts after a failed request (0 = no retries)
transport.retries = 0
transport.retrydelay = ` + d.Transport.RetryDelay.String() + `

# ============================================================================
# Record scanning
# ============================================================================

# Heights per /blocks request (max 50)
scan.pagesize = ` + strconv.Itoa(d.Scan.PageSize) + `
# Pages fetched in parallel
scan.concurrency = ` + strconv.Itoa(d.Scan.Concurrency) + `
# Deadline for a whole scan (0s = none)
scan.timeout = 0s
# Only records of this program (empty = all programs)
scan.program = ` + d.Scan.Program + `
# Drop records whose serial number was already revealed
scan.spentcheck = true

# ============================================================================
# Logging
# ============================================================================

log.level = ` + d.Log.Level + `
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}

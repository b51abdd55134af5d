package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":    zerolog.DebugLevel,
		"info":     zerolog.InfoLevel,
		"warn":     zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"off":      zerolog.Disabled,
		"unknown":  zerolog.InfoLevel,
		"TRACE":    zerolog.TraceLevel,
		" Warn ":   zerolog.WarnLevel,
		"disabled": zerolog.Disabled,
		"":         zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSONLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, "info")
	sl := l.With().Str("component", "scanner").Logger()
	sl.Info().Uint64("height", 7).Msg("scanned")
	l.Debug().Msg("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1 (debug should be filtered)", len(lines))
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["component"] != "scanner" {
		t.Errorf("component = %v, want scanner", entry["component"])
	}
	if entry["height"] != float64(7) {
		t.Errorf("height = %v, want 7", entry["height"])
	}
}

func TestInit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")
	if err := Init("info", true, path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { Init("warn", false, "") })

	Scanner.Info().Msg("to file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"component":"scanner"`) {
		t.Errorf("log file missing component field: %s", data)
	}
}

func TestWithNetworkAndBenchmark(t *testing.T) {
	saved := Logger
	defer func() {
		Logger = saved
		initComponentLoggers()
	}()

	var buf bytes.Buffer
	Logger = NewJSONLogger(&buf, "debug")

	nl := WithNetwork("testnet3")
	nl.Info().Msg("hello")
	done := Benchmark("scan")
	done()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	var first, second map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if first["network"] != "testnet3" {
		t.Errorf("network = %v, want testnet3", first["network"])
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}
	if second["operation"] != "scan" {
		t.Errorf("operation = %v, want scan", second["operation"])
	}
	if _, ok := second["duration"]; !ok {
		t.Error("benchmark entry has no duration")
	}
}

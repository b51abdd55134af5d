package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Klingon-tech/aleo-netclient/internal/account"
	"github.com/Klingon-tech/aleo-netclient/internal/apierr"
	"github.com/Klingon-tech/aleo-netclient/internal/recordindex"
	"github.com/Klingon-tech/aleo-netclient/internal/scanner"
	"github.com/Klingon-tech/aleo-netclient/internal/storage"
	"github.com/Klingon-tech/aleo-netclient/pkg/types"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCredits(t *testing.T) {
	tests := []struct {
		micro uint64
		want  string
	}{
		{0, "0.000000"},
		{1, "0.000001"},
		{1_500_000, "1.500000"},
		{42_000_000, "42.000000"},
		{18446744073709551615, "18446744073709.551615"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatCredits(tt.micro), "formatCredits(%d)", tt.micro)
	}
}

func TestParseCredits(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    uint64
		wantErr bool
	}{
		{"whole", "42", 42_000_000, false},
		{"fraction", "1.5", 1_500_000, false},
		{"smallest unit", "0.000001", 1, false},
		{"max", "18446744073709.551615", 18446744073709551615, false},
		{"empty", "", 0, true},
		{"negative", "-1", 0, true},
		{"garbage", "abc", 0, true},
		{"too many decimals", "1.0000001", 0, true},
		{"overflow", "18446744073709.551616", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCredits(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCredits_RoundTrip(t *testing.T) {
	for _, micro := range []uint64{0, 7, 999_999, 1_000_000, 123_456_789} {
		got, err := parseCredits(formatCredits(micro))
		require.NoError(t, err)
		assert.Equal(t, micro, got)
	}
}

func TestAccountFile_RoundTrip(t *testing.T) {
	acct, err := account.New()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "nested", "account.json")

	require.NoError(t, writeAccountFile(path, acct, []byte("hunter2")))

	af, err := readAccountFile(path)
	require.NoError(t, err)
	assert.Equal(t, acct.String(), af.Address)

	restored, err := account.FromCiphertext(af.Ciphertext, []byte("hunter2"))
	require.NoError(t, err)
	assert.Equal(t, acct.Address(), restored.Address())

	_, err = account.FromCiphertext(af.Ciphertext, []byte("wrong"))
	assert.Error(t, err)
}

func TestReadAccountFile_Missing(t *testing.T) {
	_, err := readAccountFile(filepath.Join(t.TempDir(), "account.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account new --save")
}

func TestPrintRecords(t *testing.T) {
	var buf bytes.Buffer
	printRecords(&buf, nil)
	assert.Contains(t, buf.String(), "No unspent records found.")

	buf.Reset()
	printRecords(&buf, []scanner.Record{
		{Plaintext: types.RecordPlaintext{Microcredits: 1_500_000}, Height: 10, Program: "credits.aleo", Function: "transfer_private", TransactionID: "at1a"},
		{Plaintext: types.RecordPlaintext{Microcredits: 250_000}, Height: 12, Program: "credits.aleo", Function: "fee_private", TransactionID: "at1b"},
	})
	out := buf.String()
	assert.Contains(t, out, "1.500000")
	assert.Contains(t, out, "transfer_private")
	assert.Contains(t, out, "2 record(s), 1.750000 credits")
}

// runCLI executes the root command against a fake node and returns stdout.
func runCLI(t *testing.T, handler http.Handler, args ...string) (string, error) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	full := append([]string{"--datadir", t.TempDir(), "--endpoint", srv.URL}, args...)
	rootCmd.SetArgs(full)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		resetFlags()
	})
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags clears values cobra keeps between Execute calls.
func resetFlags() {
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}

func TestCLI_LatestHeight(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /testnet3/latest/height", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("1234"))
	})

	out, err := runCLI(t, mux, "latest", "height")
	require.NoError(t, err)
	assert.Equal(t, "1234", strings.TrimSpace(out))
}

func TestCLI_MappingValue(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /mainnet/program/{id}/mapping/{name}/{key}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "credits.aleo" || r.PathValue("name") != "account" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`"5000000u64"`))
	})

	out, err := runCLI(t, mux, "--network", "mainnet", "mapping", "credits.aleo", "account", "aleo1xyz")
	require.NoError(t, err)
	assert.Equal(t, "5000000u64", strings.TrimSpace(out))
}

func TestCLI_BlocksInvalidRange(t *testing.T) {
	var hits int
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) { hits++ })

	_, err := runCLI(t, mux, "blocks", "5", "0")
	require.Error(t, err)
	assert.Zero(t, hits)
}

func TestCLI_ScanRequiresEnd(t *testing.T) {
	acct, err := account.New()
	require.NoError(t, err)

	_, err = runCLI(t, http.NotFoundHandler(), "scan", "--key", acct.PrivateKey().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--end or --to-tip")
}

func TestCLI_AccountDerive(t *testing.T) {
	acct, err := account.New()
	require.NoError(t, err)
	keyFile := filepath.Join(t.TempDir(), "key.txt")
	require.NoError(t, os.WriteFile(keyFile, []byte(acct.PrivateKey().String()+"\n"), 0600))

	out, err := runCLI(t, http.NotFoundHandler(), "account", "derive", keyFile)
	require.NoError(t, err)
	assert.Contains(t, out, "address="+acct.Address().String())
	assert.Contains(t, out, "viewkey="+acct.ViewKey().String())
}

// emptyChain serves blocks [0, tip] with no transactions and counts requests.
func emptyChain(tip int, hits *atomic.Int32) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /testnet3/latest/height", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, tip)
	})
	mux.HandleFunc("GET /testnet3/blocks", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		end, _ := strconv.Atoi(r.URL.Query().Get("end"))
		if end > tip+1 {
			http.Error(w, "Missing block", http.StatusNotFound)
			return
		}
		blocks := make([]types.Block, 0, end-start)
		for h := start; h < end; h++ {
			blocks = append(blocks, types.Block{Header: types.Header{Metadata: types.Metadata{Height: uint64(h)}}})
		}
		json.NewEncoder(w).Encode(blocks)
	})
	return mux
}

func TestCLI_ScanToTipSavesCheckpoint(t *testing.T) {
	acct, err := account.New()
	require.NoError(t, err)
	var hits atomic.Int32

	out, err := runCLI(t, emptyChain(120, &hits), "scan", "--start", "0", "--to-tip", "--save", "--key", acct.PrivateKey().String())
	require.NoError(t, err)
	assert.Contains(t, out, "No unspent records found.")

	db, err := storage.NewBadger(cfg.RecordsDir())
	require.NoError(t, err)
	defer db.Close()
	meta, err := recordindex.New(db, cfg.Network).Meta(acct.Address())
	require.NoError(t, err)
	assert.Equal(t, int64(121), meta.NextHeight)
}

func TestCLI_ScanToTipRejectsKeyFirst(t *testing.T) {
	var hits atomic.Int32
	_, err := runCLI(t, emptyChain(120, &hits), "scan", "--to-tip", "--key", "definitelynotaprivatekey")
	require.Error(t, err)
	assert.ErrorIs(t, err, apierr.ErrInvalidKey)
	assert.Zero(t, hits.Load())
}

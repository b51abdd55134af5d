// aleo-cli is a command-line client for the Aleo node REST API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Klingon-tech/aleo-netclient/config"
	"github.com/Klingon-tech/aleo-netclient/internal/log"
	"github.com/Klingon-tech/aleo-netclient/internal/metrics"
	"github.com/Klingon-tech/aleo-netclient/internal/netclient"
	"github.com/Klingon-tech/aleo-netclient/internal/scanner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	flags    *config.Flags
	cfg      *config.Config
	client   *netclient.Client
	registry *prometheus.Registry
)

var rootCmd = &cobra.Command{
	Use:   "aleo-cli",
	Short: "Query an Aleo node and discover unspent records",
	Long: `aleo-cli talks to an Aleo node over its REST API.

It reads blocks, transactions, programs and mappings, manages an encrypted
local account, and scans block ranges for the account's unspent records.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	flags = config.BindFlags(rootCmd.PersistentFlags())
}

// setup loads configuration and builds the node client shared by every
// subcommand.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(flags)
	if err != nil {
		return err
	}
	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	registry = prometheus.NewRegistry()
	m := metrics.New(registry)

	opts := scanner.DefaultOptions()
	opts.Program = cfg.Scan.Program
	opts.PageSize = cfg.Scan.PageSize
	opts.Concurrency = cfg.Scan.Concurrency
	opts.Timeout = cfg.Scan.Timeout
	opts.SkipSpentCheck = !cfg.Scan.SpentCheck

	client = netclient.New(cfg.Endpoint,
		netclient.WithNetwork(cfg.Network),
		netclient.WithTimeout(cfg.Transport.Timeout),
		netclient.WithRetries(cfg.Transport.Retries, cfg.Transport.RetryDelay),
		netclient.WithMetrics(m),
		netclient.WithScanOptions(opts),
	)
	log.CLI.Debug().
		Str("endpoint", cfg.Endpoint).
		Str("network", cfg.Network).
		Str("command", cmd.CommandPath()).
		Msg("Client ready")
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

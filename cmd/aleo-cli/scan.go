package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/Klingon-tech/aleo-netclient/internal/account"
	"github.com/Klingon-tech/aleo-netclient/internal/log"
	"github.com/Klingon-tech/aleo-netclient/internal/recordindex"
	"github.com/Klingon-tech/aleo-netclient/internal/scanner"
	"github.com/Klingon-tech/aleo-netclient/internal/storage"
	"github.com/Klingon-tech/aleo-netclient/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find the account's unspent records in a block range",
	Long: `Scan fetches every block in [start, end), decrypts the record outputs
owned by the account and drops records whose serial number the node reports
as spent.

The key comes from --key, or else from the account file (password prompted).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fl := cmd.Flags()
		start, _ := fl.GetInt64("start")
		end, _ := fl.GetInt64("end")
		toTip, _ := fl.GetBool("to-tip")
		save, _ := fl.GetBool("save")
		asJSON, _ := fl.GetBool("json")
		metricsFile, _ := fl.GetString("metrics-file")

		amounts, maxAmount, err := amountFilters(cmd)
		if err != nil {
			return err
		}
		if !toTip && !fl.Changed("end") {
			return fmt.Errorf("either --end or --to-tip is required")
		}

		acct, err := scanAccount(cmd)
		if err != nil {
			return err
		}
		defer acct.Zero()
		client.SetAccount(acct)

		defer log.Benchmark("scan")()

		ctx := cmd.Context()
		var recs []scanner.Record
		if toTip {
			if save {
				// The scan reads its own tip later, never below this one.
				tip, err := client.GetLatestHeight(ctx)
				if err != nil {
					return err
				}
				end = tip + 1
			}
			recs, err = client.FindUnspentRecordsToTip(ctx, start, "", amounts, maxAmount)
		} else {
			recs, err = client.FindUnspentRecords(ctx, start, end, "", amounts, maxAmount)
		}
		if metricsFile != "" {
			if werr := prometheus.WriteToTextfile(metricsFile, registry); werr != nil {
				log.CLI.Warn().Err(werr).Str("file", metricsFile).Msg("Failed to write metrics")
			}
		}
		if err != nil {
			return err
		}

		if save {
			if err := saveRecords(acct.Address(), start, end, recs); err != nil {
				return err
			}
		}

		if asJSON {
			return printJSON(cmd, recs)
		}
		printRecords(cmd.OutOrStdout(), recs)
		return nil
	},
}

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List records saved in the local record index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fl := cmd.Flags()
		limit, _ := fl.GetInt("limit")
		offset, _ := fl.GetInt("offset")
		prune, _ := fl.GetBool("prune")
		sync, _ := fl.GetBool("sync")
		asJSON, _ := fl.GetBool("json")
		selectAmount, _ := fl.GetString("select")

		addr, err := recordsAddress(cmd)
		if err != nil {
			return err
		}

		return withIndex(func(idx *recordindex.Index) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if sync {
				acct, err := unlockAccount(accountPath(cmd))
				if err != nil {
					return err
				}
				defer acct.Zero()
				if acct.Address() != addr {
					return fmt.Errorf("account file holds %s, not %s", acct.Address(), addr)
				}
				added, next, err := idx.Sync(ctx, client, client.Scanner(), acct)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Synced through height %d, %d new record(s)\n", next-1, added)
			}
			if prune {
				removed, err := idx.Prune(ctx, client, addr)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Pruned %d spent record(s)\n", removed)
			}

			recs, total, err := idx.Records(addr, limit, offset)
			if err != nil {
				return err
			}
			if selectAmount != "" {
				target, err := parseCredits(selectAmount)
				if err != nil {
					return fmt.Errorf("--select: %w", err)
				}
				sel, err := recordindex.Select(recs, target)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd, sel)
				}
				printRecords(out, sel.Records)
				fmt.Fprintf(out, "Excess: %s credits\n", formatCredits(sel.Excess))
				return nil
			}
			if asJSON {
				return printJSON(cmd, recs)
			}
			meta, err := idx.Meta(addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Address: %s (scanned below height %d, %d record(s) stored)\n", addr, meta.NextHeight, total)
			printRecords(out, recs)
			return nil
		})
	},
}

func init() {
	fl := scanCmd.Flags()
	fl.Int64("start", 0, "First height to scan")
	fl.Int64("end", 0, "Height to stop before (exclusive)")
	fl.Bool("to-tip", false, "Scan from --start through the latest block")
	fl.String("key", "", "Private key (default: unlock the account file)")
	fl.String("account-file", "", "Encrypted account file (default <datadir>/account.json)")
	fl.StringSlice("amount", nil, "Keep only records of exactly this many microcredits (repeatable)")
	fl.String("max-amount", "", "Keep only records of at most this many microcredits")
	fl.Bool("credits", false, "Read --amount and --max-amount in credits instead of microcredits")
	fl.Bool("save", false, "Store found records in the local record index")
	fl.Bool("json", false, "Print records as JSON")
	fl.String("metrics-file", "", "Write scan metrics in Prometheus text format to this file")
	scanCmd.MarkFlagsMutuallyExclusive("end", "to-tip")
	scanCmd.MarkFlagsMutuallyExclusive("key", "account-file")

	rfl := recordsCmd.Flags()
	rfl.String("address", "", "Address to list (default: the account file's address)")
	rfl.String("account-file", "", "Encrypted account file (default <datadir>/account.json)")
	rfl.Int("limit", 0, "Maximum records to list (0 = all)")
	rfl.Int("offset", 0, "Records to skip")
	rfl.Bool("prune", false, "Drop stored records the node now reports as spent")
	rfl.Bool("sync", false, "Scan from the stored checkpoint to the tip first (unlocks the account)")
	rfl.String("select", "", "Pick stored records covering this many credits")
	rfl.Bool("json", false, "Print records as JSON")

	rootCmd.AddCommand(scanCmd, recordsCmd)
}

// amountFilters parses --amount and --max-amount.
func amountFilters(cmd *cobra.Command) ([]uint64, *uint64, error) {
	fl := cmd.Flags()
	inCredits, _ := fl.GetBool("credits")
	parse := func(s string) (uint64, error) {
		if inCredits {
			return parseCredits(s)
		}
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid microcredits %q", s)
		}
		return v, nil
	}

	raw, _ := fl.GetStringSlice("amount")
	amounts := make([]uint64, 0, len(raw))
	for _, s := range raw {
		v, err := parse(s)
		if err != nil {
			return nil, nil, fmt.Errorf("--amount: %w", err)
		}
		amounts = append(amounts, v)
	}

	var maxAmount *uint64
	if s, _ := fl.GetString("max-amount"); s != "" {
		v, err := parse(s)
		if err != nil {
			return nil, nil, fmt.Errorf("--max-amount: %w", err)
		}
		maxAmount = &v
	}
	return amounts, maxAmount, nil
}

func scanAccount(cmd *cobra.Command) (*account.Account, error) {
	if key, _ := cmd.Flags().GetString("key"); key != "" {
		return account.FromPrivateKey(key)
	}
	return unlockAccount(accountPath(cmd))
}

func recordsAddress(cmd *cobra.Command) (types.Address, error) {
	if s, _ := cmd.Flags().GetString("address"); s != "" {
		return types.ParseAddress(s)
	}
	af, err := readAccountFile(accountPath(cmd))
	if err != nil {
		return types.Address{}, err
	}
	return types.ParseAddress(af.Address)
}

// withIndex opens the network's record index for the duration of fn.
func withIndex(fn func(*recordindex.Index) error) error {
	db, err := storage.NewBadger(cfg.RecordsDir())
	if err != nil {
		return fmt.Errorf("open record index: %w", err)
	}
	defer db.Close()
	return fn(recordindex.New(db, cfg.Network))
}

func saveRecords(addr types.Address, start, end int64, recs []scanner.Record) error {
	return withIndex(func(idx *recordindex.Index) error {
		added, err := idx.Put(addr, start, end, recs)
		if err != nil {
			return fmt.Errorf("save records: %w", err)
		}
		log.CLI.Info().Int("added", added).Int("found", len(recs)).Msg("Records saved")
		return nil
	})
}

func printRecords(w io.Writer, recs []scanner.Record) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No unspent records found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HEIGHT\tCREDITS\tPROGRAM\tFUNCTION\tTRANSACTION")
	total := decimal.Zero
	for _, r := range recs {
		total = total.Add(credits(r.Amount()))
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.Height, formatCredits(r.Amount()), r.Program, r.Function, r.TransactionID)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d record(s), %s credits\n", len(recs), total.StringFixed(CreditDecimals))
}

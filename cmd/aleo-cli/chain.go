package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var blockCmd = &cobra.Command{
	Use:   "block <height>",
	Short: "Print the block at a height",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		height, err := parseHeight(args[0])
		if err != nil {
			return err
		}
		blk, err := client.GetBlock(cmd.Context(), height)
		if err != nil {
			return err
		}
		return printJSON(cmd, blk)
	},
}

var blocksCmd = &cobra.Command{
	Use:   "blocks <start> <end>",
	Short: "Print the blocks in [start, end)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := parseHeight(args[0])
		if err != nil {
			return err
		}
		end, err := parseHeight(args[1])
		if err != nil {
			return err
		}
		blocks, err := client.GetBlockRange(cmd.Context(), start, end)
		if err != nil {
			return err
		}
		return printJSON(cmd, blocks)
	},
}

var latestCmd = &cobra.Command{
	Use:       "latest [block|hash|height|stateroot]",
	Short:     "Print the chain tip",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"block", "hash", "height", "stateroot"},
	RunE: func(cmd *cobra.Command, args []string) error {
		what := "height"
		if len(args) == 1 {
			what = args[0]
		}
		ctx := cmd.Context()
		switch what {
		case "block":
			blk, err := client.GetLatestBlock(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, blk)
		case "hash":
			hash, err := client.GetLatestHash(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
		case "stateroot":
			root, err := client.GetStateRoot(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), root)
		default:
			height, err := client.GetLatestHeight(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), height)
		}
		return nil
	},
}

var txCmd = &cobra.Command{
	Use:   "tx <id>",
	Short: "Print a transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tx, err := client.GetTransaction(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, tx)
	},
}

var txsCmd = &cobra.Command{
	Use:   "txs <height>",
	Short: "Print the confirmed transactions of a block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		height, err := parseHeight(args[0])
		if err != nil {
			return err
		}
		txs, err := client.GetTransactions(cmd.Context(), height)
		if err != nil {
			return err
		}
		return printJSON(cmd, txs)
	},
}

var transitionCmd = &cobra.Command{
	Use:   "transition <input-id>",
	Short: "Print the transition that consumed an input or serial number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := client.GetTransitionID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var programCmd = &cobra.Command{
	Use:   "program <id>",
	Short: "Print a deployed program's source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := client.GetProgram(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), src)
		return nil
	},
}

var mappingsCmd = &cobra.Command{
	Use:   "mappings <program>",
	Short: "List a program's mapping names",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := client.GetProgramMappingNames(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var mappingCmd = &cobra.Command{
	Use:   "mapping <program> <mapping> <key>",
	Short: "Print one mapping value",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := client.GetMappingValue(cmd.Context(), args[0], args[1], args[2])
		if err != nil {
			return err
		}
		if value == "" {
			return fmt.Errorf("no value for key %q in %s/%s", args[2], args[0], args[1])
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(blockCmd, blocksCmd, latestCmd, txCmd, txsCmd,
		transitionCmd, programCmd, mappingsCmd, mappingCmd)
}

func parseHeight(s string) (int64, error) {
	h, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid height %q: %w", s, err)
	}
	return h, nil
}

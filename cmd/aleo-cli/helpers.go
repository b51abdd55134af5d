package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"syscall"

	"github.com/Klingon-tech/aleo-netclient/internal/account"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// CreditDecimals is the number of microcredit digits in one credit.
const CreditDecimals = 6

// credits converts microcredits to credits.
func credits(micro uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(micro), -CreditDecimals)
}

// formatCredits converts microcredits to a credit string, e.g. 1500000 -> "1.500000".
func formatCredits(micro uint64) string {
	return credits(micro).StringFixed(CreditDecimals)
}

// parseCredits converts a credit string to microcredits.
func parseCredits(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount")
	}
	micro := d.Shift(CreditDecimals)
	if !micro.IsInteger() {
		return 0, fmt.Errorf("too many decimal places (max %d)", CreditDecimals)
	}
	if micro.BigInt().BitLen() > 64 {
		return 0, fmt.Errorf("amount too large")
	}
	return micro.BigInt().Uint64(), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ── Password helper ─────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

// readNewPassword prompts twice and requires both entries to match.
func readNewPassword() ([]byte, error) {
	password, err := readPassword("Password: ")
	if err != nil {
		return nil, err
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return nil, err
	}
	if string(password) != string(confirm) {
		return nil, fmt.Errorf("passwords do not match")
	}
	if len(password) == 0 {
		return nil, fmt.Errorf("empty password")
	}
	return password, nil
}

// ── Account file ────────────────────────────────────────────────────────

// accountFile is the on-disk form of an encrypted account.
type accountFile struct {
	Address    string `json:"address"`
	Ciphertext string `json:"ciphertext"`
}

func readAccountFile(path string) (*accountFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no account at %s (create one with 'aleo-cli account new --save')", path)
		}
		return nil, err
	}
	var af accountFile
	if err := json.Unmarshal(data, &af); err != nil {
		return nil, fmt.Errorf("parse account file %s: %w", path, err)
	}
	return &af, nil
}

func writeAccountFile(path string, acct *account.Account, password []byte) error {
	ct, err := acct.Encrypt(password, account.DefaultParams())
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(accountFile{Address: acct.String(), Ciphertext: ct}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// unlockAccount decrypts the account file after prompting for its password.
func unlockAccount(path string) (*account.Account, error) {
	af, err := readAccountFile(path)
	if err != nil {
		return nil, err
	}
	password, err := readPassword("Password: ")
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	acct, err := account.FromCiphertext(af.Ciphertext, password)
	if err != nil {
		return nil, fmt.Errorf("unlock account: %w", err)
	}
	return acct, nil
}

// accountPath returns the --account-file value or the data-dir default.
func accountPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("account-file"); p != "" {
		return p
	}
	return cfg.AccountFile()
}

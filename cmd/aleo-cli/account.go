package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/aleo-netclient/internal/account"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Create and manage the local account",
}

var accountNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a new account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		withMnemonic, _ := cmd.Flags().GetBool("mnemonic")
		save, _ := cmd.Flags().GetBool("save")
		out := cmd.OutOrStdout()

		var (
			acct     *account.Account
			mnemonic string
			err      error
		)
		if withMnemonic {
			mnemonic, err = account.GenerateMnemonic()
			if err != nil {
				return fmt.Errorf("generate mnemonic: %w", err)
			}
			acct, err = account.FromMnemonic(mnemonic, "", 0)
		} else {
			acct, err = account.New()
		}
		if err != nil {
			return fmt.Errorf("generate account: %w", err)
		}
		defer acct.Zero()

		if mnemonic != "" {
			fmt.Fprintln(out, "Mnemonic (write this down and keep it safe):")
			fmt.Fprintf(out, "  %s\n\n", mnemonic)
		}
		fmt.Fprintf(out, "Private key: %s\n", acct.PrivateKey())
		fmt.Fprintf(out, "View key:    %s\n", acct.ViewKey())
		fmt.Fprintf(out, "Address:     %s\n", acct.Address())

		if !save {
			return nil
		}
		path := accountPath(cmd)
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("account file %s already exists", path)
		}
		password, err := readNewPassword()
		if err != nil {
			return err
		}
		if err := writeAccountFile(path, acct, password); err != nil {
			return fmt.Errorf("save account: %w", err)
		}
		fmt.Fprintf(out, "\nSaved to %s\n", path)
		return nil
	},
}

var accountImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Encrypt a private key or mnemonic into the account file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		acct, err := accountFromFlags(cmd)
		if err != nil {
			return err
		}
		defer acct.Zero()

		path := accountPath(cmd)
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("account file %s already exists", path)
		}
		password, err := readNewPassword()
		if err != nil {
			return err
		}
		if err := writeAccountFile(path, acct, password); err != nil {
			return fmt.Errorf("save account: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %s to %s\n", acct.Address(), path)
		return nil
	},
}

var accountShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved account's address",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := accountPath(cmd)
		af, err := readAccountFile(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Address: %s\n", af.Address)
		fmt.Fprintf(out, "File:    %s\n", path)
		return nil
	},
}

var accountEncryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Encrypt a private key with a password and print the ciphertext",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		acct, err := accountFromFlags(cmd)
		if err != nil {
			return err
		}
		defer acct.Zero()

		password, err := readNewPassword()
		if err != nil {
			return err
		}
		ct, err := acct.Encrypt(password, account.DefaultParams())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ct)
		return nil
	},
}

var accountDecryptCmd = &cobra.Command{
	Use:   "decrypt [ciphertext]",
	Short: "Decrypt a ciphertext (or the account file) and print the private key",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			acct *account.Account
			err  error
		)
		if len(args) == 1 {
			password, perr := readPassword("Password: ")
			if perr != nil {
				return fmt.Errorf("read password: %w", perr)
			}
			acct, err = account.FromCiphertext(args[0], password)
		} else {
			acct, err = unlockAccount(accountPath(cmd))
		}
		if err != nil {
			return err
		}
		defer acct.Zero()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Private key: %s\n", acct.PrivateKey())
		fmt.Fprintf(out, "View key:    %s\n", acct.ViewKey())
		fmt.Fprintf(out, "Address:     %s\n", acct.Address())
		return nil
	},
}

var accountDeriveCmd = &cobra.Command{
	Use:   "derive <keyfile>",
	Short: "Print the view key and address for a private key stored in a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		acct, err := account.FromPrivateKey(strings.TrimSpace(string(data)))
		if err != nil {
			return err
		}
		defer acct.Zero()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "viewkey=%s\n", acct.ViewKey())
		fmt.Fprintf(out, "address=%s\n", acct.Address())
		return nil
	},
}

func init() {
	accountCmd.PersistentFlags().String("account-file", "", "Encrypted account file (default <datadir>/account.json)")

	accountNewCmd.Flags().Bool("mnemonic", false, "Derive the account from a new 24-word mnemonic")
	accountNewCmd.Flags().Bool("save", false, "Encrypt and save the account to the account file")

	for _, c := range []*cobra.Command{accountImportCmd, accountEncryptCmd} {
		c.Flags().String("key", "", "Private key (prompted when neither --key nor --mnemonic is set)")
		c.Flags().String("mnemonic", "", "BIP-39 mnemonic to derive the key from")
		c.MarkFlagsMutuallyExclusive("key", "mnemonic")
	}

	accountCmd.AddCommand(accountNewCmd, accountImportCmd, accountShowCmd, accountEncryptCmd, accountDecryptCmd, accountDeriveCmd)
	rootCmd.AddCommand(accountCmd)
}

// accountFromFlags builds an account from --key or --mnemonic, prompting for
// the private key when neither is given.
func accountFromFlags(cmd *cobra.Command) (*account.Account, error) {
	key, _ := cmd.Flags().GetString("key")
	mnemonic, _ := cmd.Flags().GetString("mnemonic")

	if mnemonic != "" {
		mnemonic = strings.Join(strings.Fields(mnemonic), " ")
		if !account.ValidateMnemonic(mnemonic) {
			return nil, fmt.Errorf("invalid mnemonic")
		}
		return account.FromMnemonic(mnemonic, "", 0)
	}
	if key == "" {
		secret, err := readPassword("Private key: ")
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		key = strings.TrimSpace(string(secret))
	}
	return account.FromPrivateKey(key)
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/satsend/internal/wallet"
)

var (
	walletWords         int
	walletDoubleEncrypt bool
)

// walletCmd groups wallet lifecycle commands.
var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Create, restore, and list wallets",
}

var walletCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new HD wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mnemonic, err := wallet.NewMnemonic(walletWords)
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stderr, "Write down your recovery phrase and store it safely:")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintf(os.Stderr, "  %s\n\n", mnemonic)

		return createWallet(cmd, args[0], mnemonic)
	},
}

var walletRestoreCmd = &cobra.Command{
	Use:   "restore <name>",
	Short: "Restore a wallet from a recovery phrase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mnemonic, err := promptMnemonic()
		if err != nil {
			return err
		}
		if err := wallet.ValidateMnemonic(mnemonic); err != nil {
			return err
		}
		return createWallet(cmd, args[0], mnemonic)
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List wallets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		storage := wallet.NewFileStorage(Config().WalletsDir())
		names, err := storage.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			cmd.Println("No wallets found.")
			return nil
		}
		for _, name := range names {
			cmd.Println(name)
		}
		return nil
	},
}

// createWallet derives, encrypts, and persists a wallet from a mnemonic.
func createWallet(cmd *cobra.Command, name, mnemonic string) error {
	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return err
	}
	defer wallet.ZeroBytes(seed)

	params := chainParams(Config().Network)
	w, err := wallet.NewWallet(name, seed, params)
	if err != nil {
		return err
	}

	password, err := promptNewPassword()
	if err != nil {
		return err
	}
	defer wallet.ZeroBytes(password)

	seedPayload := seed
	if walletDoubleEncrypt {
		second, err := promptSecondPassword()
		if err != nil {
			return err
		}
		seedPayload, err = wallet.EncryptSecondLayer(seed, second)
		if err != nil {
			return err
		}
		w.DoubleEncrypted = true
	}

	storage := wallet.NewFileStorage(Config().WalletsDir())
	if err := storage.Save(w, seedPayload, password); err != nil {
		return err
	}

	cmd.Printf("Wallet %q created with account %q.\n", name, w.DefaultAccount().Label)
	return nil
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	walletCreateCmd.Flags().IntVar(&walletWords, "words", 12, "mnemonic length: 12 or 24 words")
	walletCreateCmd.Flags().BoolVar(&walletDoubleEncrypt, "double-encrypt", false,
		"add a second password layer over the seed")
	walletRestoreCmd.Flags().BoolVar(&walletDoubleEncrypt, "double-encrypt", false,
		"add a second password layer over the seed")

	walletCmd.AddCommand(walletCreateCmd, walletRestoreCmd, walletListCmd)
	rootCmd.AddCommand(walletCmd)
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/satsend/internal/chain"
	"github.com/mrz1836/satsend/internal/chain/btc"
	"github.com/mrz1836/satsend/internal/wallet"
	satserr "github.com/mrz1836/satsend/pkg/errors"
)

var (
	historyWallet  string
	historyAccount uint32
)

// historyCmd shows an account's merged transaction history.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show account transaction history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openSession(historyWallet)
		if err != nil {
			return err
		}
		defer s.close()

		acct := s.wallet.DefaultAccount()
		if cmd.Flags().Changed("account") {
			acct = s.wallet.Account(historyAccount)
		}
		if acct == nil {
			return satserr.ErrAccountNotFound
		}

		ctx, cancel := commandContext()
		defer cancel()

		items, err := wallet.MergedActivity(ctx, acct,
			&btc.ActivityFeed{Client: s.client})
		if err != nil && len(items) == 0 {
			return err
		}
		if err != nil {
			logger.Error("history fetch degraded: %v", err)
			cmd.PrintErrf("Warning: some activity could not be fetched: %v\n", err)
		}

		if len(items) == 0 {
			cmd.Println("No activity.")
			return nil
		}

		for _, item := range items {
			cmd.Printf("%s  %-8s  %14s BTC  %s (%d conf)\n",
				item.Timestamp.Format("2006-01-02 15:04"),
				item.Direction.String(),
				chain.FormatAmount(item.Amount),
				item.TxID,
				item.Confirmations)
		}
		return nil
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	historyCmd.Flags().StringVar(&historyWallet, "wallet", "", "wallet name")
	historyCmd.Flags().Uint32Var(&historyAccount, "account", 0, "account index (default: the default account)")
	_ = historyCmd.MarkFlagRequired("wallet")
	rootCmd.AddCommand(historyCmd)
}

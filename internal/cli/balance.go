package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/satsend/internal/chain"
)

var balanceWallet string

// balanceCmd shows per-account balances for a wallet.
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show account balances",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openSession(balanceWallet)
		if err != nil {
			return err
		}
		defer s.close()

		ctx, cancel := commandContext()
		defer cancel()

		var total chain.Balance
		for _, acct := range s.wallet.ActiveAccounts() {
			key := acct.XPubAddress()

			balance, ok, _ := s.balances.Get(key)
			if !ok || s.balances.IsStale(key) {
				addresses, err := acct.WatchAddresses(s.params)
				if err != nil {
					return err
				}
				balance, err = s.client.Balance(ctx, addresses)
				if err != nil {
					return err
				}
				s.balances.Set(key, balance)
			}

			marker := " "
			if s.wallet.IsDefault(acct) {
				marker = "*"
			}
			cmd.Printf("%s %-24s %s BTC", marker, acct.Label, chain.FormatAmount(balance.Total))
			if balance.Pending != 0 {
				cmd.Printf(" (%s pending)", chain.FormatAmount(balance.Pending))
			}
			cmd.Println()

			total.Total += balance.Total
			total.Pending += balance.Pending
		}

		cmd.Printf("\nTotal: %s BTC\n", chain.FormatAmount(total.Total))
		return nil
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	balanceCmd.Flags().StringVar(&balanceWallet, "wallet", "", "wallet name")
	_ = balanceCmd.MarkFlagRequired("wallet")
	rootCmd.AddCommand(balanceCmd)
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/satsend/internal/chain"
	"github.com/mrz1836/satsend/internal/engine"
	satserr "github.com/mrz1836/satsend/pkg/errors"
)

var (
	sendWallet   string
	sendAccount  uint32
	sendTo       string
	sendAmount   string
	sendFeeLevel string
	sendFeeRate  int64
	sendMemo     string
	sendYes      bool
)

// sendCmd runs the full send pipeline: initialise, amount update,
// fee-level selection, confirmations, full validation, and execution.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send bitcoin on-chain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		amount, err := chain.ParseAmount(sendAmount)
		if err != nil {
			return err
		}

		s, err := openSession(sendWallet)
		if err != nil {
			return err
		}
		defer s.close()

		acct := s.wallet.Account(sendAccount)
		if acct == nil {
			return satserr.ErrAccountNotFound
		}

		eng, err := engine.New(acct, s.manager, s.params,
			engine.Providers{
				Balance:   s.client,
				Unspent:   s.client,
				Fees:      s.client,
				Rates:     s.client,
				Quotes:    s.client,
				Broadcast: s.client,
			},
			s.client, Store(), s.balances, s.spent, logger, remote)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()

		ptx, err := eng.InitialiseTx(ctx, sendTo)
		if err != nil {
			return err
		}
		ptx.Memo = sendMemo

		ptx, err = eng.UpdateAmount(ctx, ptx, amount)
		if err != nil {
			return err
		}

		if sendFeeLevel != "" {
			level, err := engine.ParseFeeLevel(sendFeeLevel)
			if err != nil {
				return err
			}
			ptx, err = eng.UpdateFeeLevel(ptx, level, sendFeeRate)
			if err != nil {
				return err
			}
		}

		ptx, err = eng.BuildConfirmations(ctx, ptx)
		if err != nil {
			return err
		}

		cmd.Println()
		for _, item := range ptx.Confirmations {
			if item.RequiresAck {
				continue
			}
			cmd.Printf("%-22s %s\n", item.Label+":", item.Value)
		}
		cmd.Println()

		if ptx.LargeTx && !ptx.LargeTxAcknowledged {
			if !promptConfirm("This transaction carries an unusually high fee. Proceed?") {
				return satserr.WithSuggestion(satserr.ErrInvalidInput,
					"large transaction not acknowledged")
			}
			ptx = ptx.AcknowledgeLargeTx()
		}

		ptx = eng.ValidateAll(ptx)
		if ptx.State != engine.StateCanExecute {
			return validationError(ptx.State)
		}

		if !sendYes && !promptConfirm("Broadcast this transaction?") {
			cmd.Println("Aborted.")
			return nil
		}

		keys, err := s.keyring()
		if err != nil {
			return err
		}
		defer keys.Close()

		txid, err := eng.Execute(ctx, ptx, keys)
		if err != nil {
			return err
		}

		cmd.Printf("Broadcast: %s\n", txid)
		return nil
	},
}

// validationError maps a failed validation state to a user-facing error.
func validationError(state engine.ValidationState) error {
	switch state {
	case engine.StateInvalidAddress:
		return satserr.ErrInvalidAddress
	case engine.StateInvalidAmount:
		return satserr.ErrInvalidAmount
	case engine.StateInsufficientFunds:
		return satserr.ErrInsufficientFunds
	case engine.StateUnderMinLimit:
		return satserr.WithSuggestion(satserr.ErrInvalidAmount,
			"custom fee rate is below the minimum")
	case engine.StateOptionInvalid:
		return satserr.WithSuggestion(satserr.ErrInvalidInput,
			"acknowledge the large-transaction warning to continue")
	case engine.StatePendingOrdersLimit:
		return satserr.ErrPendingOrdersLimit
	default:
		return satserr.WithDetails(satserr.ErrExecutionFailed,
			map[string]string{"state": state.String()})
	}
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	sendCmd.Flags().StringVar(&sendWallet, "wallet", "", "wallet name")
	sendCmd.Flags().Uint32Var(&sendAccount, "account", 0, "source account index")
	sendCmd.Flags().StringVar(&sendTo, "to", "", "recipient address")
	sendCmd.Flags().StringVar(&sendAmount, "amount", "", "amount in BTC")
	sendCmd.Flags().StringVar(&sendFeeLevel, "fee-level", "", "fee level: regular, priority, custom")
	sendCmd.Flags().Int64Var(&sendFeeRate, "fee-rate", engine.CustomRateUnset,
		"custom fee rate in sat/vB (with --fee-level custom)")
	sendCmd.Flags().StringVar(&sendMemo, "memo", "", "optional memo shown on the confirmation")
	sendCmd.Flags().BoolVarP(&sendYes, "yes", "y", false, "skip the broadcast confirmation")
	_ = sendCmd.MarkFlagRequired("wallet")
	_ = sendCmd.MarkFlagRequired("to")
	_ = sendCmd.MarkFlagRequired("amount")
	rootCmd.AddCommand(sendCmd)
}

package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	satserr "github.com/mrz1836/satsend/pkg/errors"
)

var accountsWallet string

// accountsCmd groups account lifecycle commands.
var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage wallet accounts",
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openSession(accountsWallet)
		if err != nil {
			return err
		}
		defer s.close()

		for _, a := range s.wallet.Accounts {
			marker := " "
			if s.wallet.IsDefault(a) {
				marker = "*"
			}
			status := ""
			if a.Archived {
				status = " (archived)"
			}
			if a.Imported {
				cmd.Printf("%s imported  %-24s %s%s\n", marker, a.Label, a.Address, status)
				continue
			}
			cmd.Printf("%s account %d %-24s%s\n", marker, a.Index, a.Label, status)
		}
		return nil
	},
}

var accountsNewCmd = &cobra.Command{
	Use:   "new <label>",
	Short: "Create the next HD account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(accountsWallet)
		if err != nil {
			return err
		}
		defer s.close()

		if s.wallet.DoubleEncrypted {
			return satserr.WithSuggestion(satserr.ErrSecondPasswordRequired,
				"account derivation needs the decrypted seed; unlock with the second password")
		}

		ctx, cancel := commandContext()
		defer cancel()

		acct, err := s.manager.CreateAccount(ctx, s.seed, args[0])
		if err != nil {
			return err
		}
		cmd.Printf("Created account %d %q.\n", acct.Index, acct.Label)
		return nil
	},
}

var accountsArchiveCmd = &cobra.Command{
	Use:   "archive <index>",
	Short: "Archive an account",
	Args:  cobra.ExactArgs(1),
	RunE:  accountOp(func(s *session, cmd *cobra.Command, index uint32) error { return archiveAccount(s, cmd, index, true) }),
}

var accountsUnarchiveCmd = &cobra.Command{
	Use:   "unarchive <index>",
	Short: "Restore an archived account",
	Args:  cobra.ExactArgs(1),
	RunE:  accountOp(func(s *session, cmd *cobra.Command, index uint32) error { return archiveAccount(s, cmd, index, false) }),
}

var accountsSetDefaultCmd = &cobra.Command{
	Use:   "set-default <index>",
	Short: "Make an account the wallet default",
	Args:  cobra.ExactArgs(1),
	RunE: accountOp(func(s *session, cmd *cobra.Command, index uint32) error {
		acct := s.wallet.Account(index)
		if acct == nil {
			return satserr.ErrAccountNotFound
		}

		ctx, cancel := commandContext()
		defer cancel()

		if err := s.manager.SetDefaultAccount(ctx, acct); err != nil {
			return err
		}
		cmd.Printf("Account %d %q is now the default.\n", acct.Index, acct.Label)
		return nil
	}),
}

// accountOp parses the index argument and opens a session around an
// account operation.
func accountOp(op func(*session, *cobra.Command, uint32) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		index, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return satserr.WithSuggestion(satserr.ErrInvalidInput, "account index must be a number")
		}

		s, err := openSession(accountsWallet)
		if err != nil {
			return err
		}
		defer s.close()

		return op(s, cmd, uint32(index))
	}
}

func archiveAccount(s *session, cmd *cobra.Command, index uint32, archive bool) error {
	acct := s.wallet.Account(index)
	if acct == nil {
		return satserr.ErrAccountNotFound
	}

	ctx, cancel := commandContext()
	defer cancel()

	if archive {
		if err := s.manager.ArchiveAccount(ctx, acct); err != nil {
			return err
		}
		cmd.Printf("Archived account %d %q.\n", acct.Index, acct.Label)
		return nil
	}

	if err := s.manager.UnarchiveAccount(ctx, acct); err != nil {
		return err
	}
	cmd.Printf("Restored account %d %q.\n", acct.Index, acct.Label)
	return nil
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	accountsCmd.PersistentFlags().StringVar(&accountsWallet, "wallet", "", "wallet name")
	_ = accountsCmd.MarkPersistentFlagRequired("wallet")

	accountsCmd.AddCommand(accountsListCmd, accountsNewCmd,
		accountsArchiveCmd, accountsUnarchiveCmd, accountsSetDefaultCmd)
	rootCmd.AddCommand(accountsCmd)
}

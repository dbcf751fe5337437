package cli

import (
	"github.com/spf13/cobra"
)

// feesCmd shows the current network fee schedule.
var feesCmd = &cobra.Command{
	Use:   "fees",
	Short: "Show the current network fee rates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		params := chainParams(Config().Network)
		client := newClient(params)

		ctx, cancel := commandContext()
		defer cancel()

		schedule, err := client.FeeSchedule(ctx)
		if err != nil {
			return err
		}

		cmd.Printf("Regular:  %d sat/vB\n", int64(schedule.RegularPerKB)/1000)
		cmd.Printf("Priority: %d sat/vB\n", int64(schedule.PriorityPerKB)/1000)

		minRate, maxRate := Store().CustomFeeBounds()
		cmd.Printf("Custom:   %d-%d sat/vB\n", minRate, maxRate)
		cmd.Printf("Fetched:  %s\n", schedule.FetchedAt.Format("15:04:05 MST"))
		return nil
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(feesCmd)
}

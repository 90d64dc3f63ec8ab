package cli

import (
	"github.com/spf13/cobra"
)

func newStatsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the item count and average price",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := opts.client().Stats(cmd.Context())
			if err != nil {
				return err
			}

			if opts.useTable() {
				return renderStats(opts.stdout, stats)
			}
			return writeJSON(opts.stdout, stats)
		},
	}
}

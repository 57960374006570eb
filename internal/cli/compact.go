package cli

import (
	"github.com/spf13/cobra"
)

func newCompactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Run one compaction pass",
		Long:  `Move aged events into daily and monthly aggregates and prune expired months.`,
		RunE:  runCompact,
	}
}

func runCompact(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	rep, err := a.recorder().Compact(cmd.Context())
	if err != nil {
		return err
	}
	a.reporter(cmd).PrintCompaction(rep)
	return nil
}

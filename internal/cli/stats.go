package cli

import (
	"github.com/spf13/cobra"

	"github.com/aevon-lab/tokenledger/internal/projection"
	"github.com/aevon-lab/tokenledger/internal/report"
)

func newStatsCmd() *cobra.Command {
	var (
		params projection.Params
		days   int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show token savings for a time range",
		Long: `Summarise savings across all tiers. The range is chosen by --days, else
--start/--end, else --period. Dates accept "now", "today", relative offsets
such as -7d or -2w, and ISO dates.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("days") {
				params.RelativeDays = &days
			}
			if asJSON {
				outputFormat = report.FormatJSON
			}
			return runStats(cmd, params)
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 0, "Last N days (1-365)")
	cmd.Flags().StringVar(&params.StartDate, "start", "", "Range start")
	cmd.Flags().StringVar(&params.EndDate, "end", "", "Range end (clamped to now)")
	cmd.Flags().StringVar(&params.Period, "period", projection.PeriodAll, "Preset: all, today, week or month")
	cmd.Flags().BoolVar(&params.IncludeDetails, "details", false, "List recent events in the range")
	cmd.Flags().IntVar(&params.Limit, "limit", projection.DefaultDetailLimit, "Maximum events listed with --details (max 100)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Shorthand for --output json")

	return cmd
}

func runStats(cmd *cobra.Command, params projection.Params) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.queries().Query(cmd.Context(), params)
	if err != nil {
		return err
	}
	a.reporter(cmd).PrintStats(res)
	return nil
}

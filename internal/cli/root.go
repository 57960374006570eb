// Package cli provides the command-line interface for tokenledger.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/aevon-lab/tokenledger/internal/report"
)

var (
	// Global flags
	cfgFile      string
	dataDir      string
	outputFormat string

	// Version info (set at build time)
	Version   = "dev"
	BuildDate = "unknown"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tokenledger",
		Short: "Token savings ledger for compression tooling",
		Long: `tokenledger records the token savings of compression operations, keeps
them in bounded tiers (recent events, daily and monthly aggregates) and answers
time-range queries with cost breakdowns per model.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default: ~/.tokenledger)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", report.FormatTable, "Output format: table, markdown or json")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRecordCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newCompactCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

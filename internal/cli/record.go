package cli

import (
	"github.com/spf13/cobra"

	"github.com/aevon-lab/tokenledger/internal/ingestion"
)

func newRecordCmd() *cobra.Command {
	var (
		res      ingestion.OperationResult
		original int64
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record one compression operation",
		Long: `Append one event to the store and compact it. When --original is omitted
the original size is estimated from the compression level.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("original") {
				res.OriginalSize = &original
			}
			return runRecord(cmd, res)
		},
	}

	cmd.Flags().StringVar(&res.Path, "path", "", "Path of the compressed item")
	cmd.Flags().Int64Var(&res.CompressedSize, "compressed", 0, "Compressed size in tokens")
	cmd.Flags().Int64Var(&original, "original", 0, "Original size in tokens (estimated when omitted)")
	cmd.Flags().StringVar(&res.Level, "level", "full", "Compression level: minimal, signatures or full")
	cmd.Flags().StringVar(&res.Format, "format", "text", "Output format of the compression step")
	cmd.Flags().StringVar(&res.Model, "model", "", "Model to price against (detected when omitted)")
	_ = cmd.MarkFlagRequired("path")
	_ = cmd.MarkFlagRequired("compressed")

	return cmd
}

func runRecord(cmd *cobra.Command, res ingestion.OperationResult) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	e, err := a.recorder().RecordEvent(cmd.Context(), res)
	if err != nil {
		return err
	}
	a.reporter(cmd).PrintEvent(e)
	return nil
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"paperdeck/internal/bootstrap"
)

var enqueueOnly bool

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process every unprocessed PDF in the download folder",
	Long: `batch lists the download folder and runs each PDF that has no summary
record yet through the stage pipeline, one document at a time. With --enqueue
it publishes one job per pending document for the worker instead.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().BoolVar(&enqueueOnly, "enqueue", false, "publish process jobs instead of processing inline")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	app, err := bootstrap.New(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			app.Logger.Warn().Err(err).Msg("close resources failed")
		}
	}()

	if enqueueOnly {
		queued, err := app.Batch.Enqueue(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "queued %d document(s)\n", queued)
		return nil
	}

	report, err := app.Batch.Run(ctx)
	if report != nil {
		for _, o := range report.Outcomes {
			line := fmt.Sprintf("%-16s %s", o.State, o.Document.Title)
			if o.URL != "" {
				line += " " + o.URL
			}
			if o.Err != nil {
				line += fmt.Sprintf(" (at %s: %v)", o.FailedAt, o.Err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "processed=%d skipped=%d failed=%d\n", report.Processed(), report.Skipped(), report.Failed())
	}
	return err
}

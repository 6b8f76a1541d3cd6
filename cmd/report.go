package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/joescharf/revstat/internal/report"
)

var (
	reportPeriod   periodFlags
	reportReviewer string
	reportDataset  string
	reportOpts     analyzeOptions
)

var reportCmd = &cobra.Command{
	Use:   "report [owner/repo]",
	Short: "Collect, analyze and report in one step",
	Long: `Collect a dataset for the repository (default: the origin remote of the
current directory) and period, then analyze it and
write the report. Equivalent to 'revstat collect' followed by
'revstat analyze' on the written dataset.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reportRun(cmd.Context(), args)
	},
}

func init() {
	reportPeriod.bind(reportCmd)
	reportCmd.Flags().StringVar(&reportReviewer, "reviewer", "", "AI reviewer login (default from config)")
	reportCmd.Flags().StringVar(&reportDataset, "dataset", "", "Dataset file to write (default under data_dir)")
	reportOpts.bind(reportCmd, false)
	rootCmd.AddCommand(reportCmd)
}

// reportRun validates the report options before anything is fetched or
// written, then collects and analyzes.
func reportRun(ctx context.Context, args []string) error {
	if _, err := report.ParseFormat(reportOpts.format); err != nil {
		return err
	}
	if reportOpts.narrative {
		if _, err := newNarrator(); err != nil {
			return err
		}
	}

	repo, err := repositoryArg(args)
	if err != nil {
		return err
	}
	path, ds, err := collectRun(ctx, repo, reportPeriod, reportReviewer, reportDataset)
	if err != nil {
		return err
	}
	_, err = analyzeRun(ctx, ds, path, reportOpts)
	return err
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/revstat/internal/analysis"
	"github.com/joescharf/revstat/internal/dataset"
	"github.com/joescharf/revstat/internal/models"
	"github.com/joescharf/revstat/internal/report"
)

// analyzeOptions are the flags shared by analyze and report.
type analyzeOptions struct {
	format    string
	output    string
	reviewer  string
	narrative bool
	noRecord  bool
}

func (o *analyzeOptions) bind(cmd *cobra.Command, withReviewer bool) {
	cmd.Flags().StringVarP(&o.format, "format", "f", "markdown", "Report format: json, markdown")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "Report file, or - for stdout (default <output_dir>/<dataset>-report.<ext>)")
	if withReviewer {
		cmd.Flags().StringVar(&o.reviewer, "reviewer", "", "Override the reviewer login recorded in the dataset")
	}
	cmd.Flags().BoolVar(&o.narrative, "narrative", false, "Add an LLM-written narrative to the report")
	cmd.Flags().BoolVar(&o.noRecord, "no-record", false, "Do not store the run in history")
}

var analyzeOpts analyzeOptions

var analyzeCmd = &cobra.Command{
	Use:   "analyze <dataset.json>",
	Short: "Compute effectiveness metrics from a dataset and write a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := dataset.Load(args[0])
		if err != nil {
			return err
		}
		_, err = analyzeRun(cmd.Context(), ds, args[0], analyzeOpts)
		return err
	},
}

func init() {
	analyzeOpts.bind(analyzeCmd, true)
	rootCmd.AddCommand(analyzeCmd)
}

// analyzeRun analyzes ds, writes the report and records the run.
func analyzeRun(ctx context.Context, ds *models.Dataset, path string, opts analyzeOptions) (*analysis.Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return nil, err
	}

	record := !opts.noRecord && !dryRun
	aopts := analysis.Options{Reviewer: opts.reviewer}
	if opts.narrative {
		n, err := newNarrator()
		if err != nil {
			return nil, err
		}
		aopts.Narrator = n
	}

	svc := analysis.NewService(nil, log)
	if record {
		s, err := getStore()
		if err != nil {
			return nil, err
		}
		svc = analysis.NewService(s, log)
	}

	out, err := svc.Analyze(ctx, ds, path, aopts)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	outPath := opts.output
	if outPath == "" {
		outPath = reportPath(path, format)
	}
	if outPath != "-" {
		printSummary(out.Report)
		fmt.Fprintln(ui.Out)
	}
	if err := writeReport(outPath, format, out.Report); err != nil {
		return nil, err
	}

	// History only holds runs whose report was produced.
	if record {
		run, err := svc.Record(ctx, out.Report, path)
		if err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
		out.Run = run
		ui.VerboseLog("Recorded run %s", run.ID)
	}
	return out, nil
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/revstat/internal/analysis"
	"github.com/joescharf/revstat/internal/output"
	"github.com/joescharf/revstat/internal/report"
	"github.com/joescharf/revstat/internal/store"
)

var (
	historyRepository string
	historyReviewer   string
	historyLimit      int
	historyFormat     string
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"runs"},
	Short:   "Browse recorded analysis runs",
}

var historyListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recorded runs, newest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyListRun(cmd.Context())
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the report of a recorded run (id or unique prefix)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyShowRun(cmd.Context(), args[0])
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a recorded run (id or unique prefix)",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyDeleteRun(cmd.Context(), args[0])
	},
}

func init() {
	historyListCmd.Flags().StringVar(&historyRepository, "repository", "", "Only runs for this owner/repo")
	historyListCmd.Flags().StringVar(&historyReviewer, "reviewer", "", "Only runs for this reviewer")
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to list (0 for all)")
	historyShowCmd.Flags().StringVarP(&historyFormat, "format", "f", "markdown", "Report format: json, markdown")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

func historyListRun(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := getStore()
	if err != nil {
		return err
	}

	runs, err := s.ListRuns(ctx, store.RunFilter{
		Repository: historyRepository,
		Reviewer:   historyReviewer,
		Limit:      historyLimit,
	})
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		ui.Info("No recorded runs. Run 'revstat analyze' to record one.")
		return nil
	}

	table := ui.Table([]string{"ID", "Repository", "Period", "Comments", "Resolved", "Score", "Recorded"})
	for _, r := range runs {
		table.Append([]string{
			r.ID,
			r.Repository,
			r.PeriodStart.Format(dateLayout) + " to " + r.PeriodEnd.Format(dateLayout),
			fmt.Sprintf("%d", r.TotalComments),
			output.Percent(r.ResolvedPercentage),
			output.ScoreColor(r.EffectivenessScore) + " " + output.TierColor(r.Tier),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	_ = table.Render()
	return nil
}

func historyShowRun(ctx context.Context, id string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	format, err := report.ParseFormat(historyFormat)
	if err != nil {
		return err
	}
	s, err := getStore()
	if err != nil {
		return err
	}

	run, err := s.GetRun(ctx, id)
	if err != nil {
		return err
	}
	data, err := analysis.RenderRun(run, format)
	if err != nil {
		return err
	}
	_, err = ui.Out.Write(data)
	return err
}

func historyDeleteRun(ctx context.Context, id string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := getStore()
	if err != nil {
		return err
	}

	run, err := s.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if dryRun {
		ui.DryRunMsg("Would delete run %s (%s)", run.ID, run.Repository)
		return nil
	}
	if err := s.DeleteRun(ctx, run.ID); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	ui.Success("Deleted run %s", run.ID)
	return nil
}

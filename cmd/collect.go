package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/revstat/internal/dataset"
	"github.com/joescharf/revstat/internal/github"
	"github.com/joescharf/revstat/internal/models"
)

var (
	collectPeriod   periodFlags
	collectReviewer string
	collectOutput   string
)

var collectCmd = &cobra.Command{
	Use:   "collect [owner/repo]",
	Short: "Fetch pull requests and review comments into a dataset file",
	Long: `Fetch every pull request created in the period, with all review and
conversation comments and their reactions, and write them as a dataset
JSON file under data_dir.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := repositoryArg(args)
		if err != nil {
			return err
		}
		_, _, err = collectRun(cmd.Context(), repo, collectPeriod, collectReviewer, collectOutput)
		return err
	},
}

func init() {
	collectPeriod.bind(collectCmd)
	collectCmd.Flags().StringVar(&collectReviewer, "reviewer", "", "AI reviewer login (default from config)")
	collectCmd.Flags().StringVarP(&collectOutput, "output", "o", "", "Dataset file (default <data_dir>/<owner>-<repo>_<start>_<end>.json)")
	rootCmd.AddCommand(collectCmd)
}

// collectRun fetches a dataset and saves it, returning the path written.
func collectRun(ctx context.Context, repo string, period periodFlags, reviewer, outPath string) (string, *models.Dataset, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, _, err := github.ParseRepository(repo); err != nil {
		return "", nil, err
	}
	window, err := period.resolve(time.Now())
	if err != nil {
		return "", nil, err
	}
	if reviewer == "" {
		reviewer = viper.GetString("reviewer")
	}

	c, err := newCollector()
	if err != nil {
		return "", nil, err
	}

	ui.Info("Collecting %s from %s to %s", repo, window.Start.Format(dateLayout), window.End.Format(dateLayout))
	ds, err := c.Collect(ctx, repo, reviewer, window)
	if err != nil {
		return "", nil, fmt.Errorf("collect %s: %w", repo, err)
	}
	ui.VerboseLog("%d pull requests, %d comments (%d by %s)", ds.Metadata.TotalPRs, len(ds.Comments), ds.Metadata.TotalComments, reviewer)

	if outPath == "" {
		outPath = datasetPath(ds.Metadata.Repository, window)
	}
	if dryRun {
		ui.DryRunMsg("Would write dataset: %s", outPath)
		return outPath, ds, nil
	}
	if err := dataset.Save(outPath, ds); err != nil {
		return "", nil, fmt.Errorf("save dataset: %w", err)
	}
	ui.Success("Dataset written: %s (%d PRs, %d reviewer comments)", outPath, ds.Metadata.TotalPRs, ds.Metadata.TotalComments)
	return outPath, ds, nil
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/revstat/internal/analysis"
	"github.com/joescharf/revstat/internal/dataset"
	"github.com/joescharf/revstat/internal/git"
	"github.com/joescharf/revstat/internal/github"
	"github.com/joescharf/revstat/internal/llm"
	"github.com/joescharf/revstat/internal/models"
	"github.com/joescharf/revstat/internal/output"
	"github.com/joescharf/revstat/internal/report"
	"github.com/joescharf/revstat/internal/retry"
)

const dateLayout = "2006-01-02"

// periodFlags are the date-window flags shared by collect and report.
type periodFlags struct {
	days      int
	startDate string
	endDate   string
}

func (p *periodFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.days, "days", 30, "Number of days to look back")
	cmd.Flags().StringVar(&p.startDate, "start-date", "", "Start date (YYYY-MM-DD); overrides --days")
	cmd.Flags().StringVar(&p.endDate, "end-date", "", "End date (YYYY-MM-DD, inclusive; default today)")
}

// resolve turns the flags into a range. Explicit dates win over --days; an
// end date covers the whole day.
func (p periodFlags) resolve(now time.Time) (models.DateRange, error) {
	now = now.UTC()
	if p.startDate == "" && p.endDate == "" {
		return models.LastDays(now, p.days)
	}

	end := now
	if p.endDate != "" {
		d, err := time.Parse(dateLayout, p.endDate)
		if err != nil {
			return models.DateRange{}, fmt.Errorf("%w: invalid end date %q (use YYYY-MM-DD)", models.ErrInvalidRange, p.endDate)
		}
		end = d.Add(24*time.Hour - time.Nanosecond)
	}

	if p.startDate == "" {
		if p.days <= 0 {
			return models.DateRange{}, fmt.Errorf("%w: days must be positive (got %d)", models.ErrInvalidRange, p.days)
		}
		return models.NewDateRange(end.AddDate(0, 0, -p.days), end)
	}

	start, err := time.Parse(dateLayout, p.startDate)
	if err != nil {
		return models.DateRange{}, fmt.Errorf("%w: invalid start date %q (use YYYY-MM-DD)", models.ErrInvalidRange, p.startDate)
	}
	return models.NewDateRange(start, end)
}

// gitClient is swapped in tests.
var gitClient git.Client = git.NewClient()

// repositoryArg returns the owner/repo argument, or detects it from the
// origin remote of the current directory.
func repositoryArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	repo, err := git.DetectRepository(gitClient, wd)
	if err != nil {
		return "", fmt.Errorf("no repository given and none detected: %w", err)
	}
	ui.VerboseLog("Detected repository %s", repo)
	return repo, nil
}

// newCollector builds a GitHub collector from config.
func newCollector() (*github.Collector, error) {
	token := viper.GetString("github.token")
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		ui.Warning("No GitHub token configured; unauthenticated requests are heavily rate limited")
	}

	rc := retry.DefaultConfig()
	if n := viper.GetInt("collector.max_retries"); n > 0 {
		rc.MaxAttempts = n
	}

	return github.NewCollector(github.Options{
		Token:             token,
		BaseURL:           viper.GetString("github.base_url"),
		RequestsPerSecond: viper.GetFloat64("collector.requests_per_second"),
		Retry:             rc,
		Logger:            log,
	})
}

// newNarrator returns an LLM narrator, or an error when no API key is set.
func newNarrator() (analysis.Narrator, error) {
	apiKey := viper.GetString("anthropic.api_key")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("--narrative needs an Anthropic API key (set anthropic.api_key or ANTHROPIC_API_KEY)")
	}
	return llm.NewClient(apiKey, viper.GetString("anthropic.model")), nil
}

// datasetPath returns where a dataset for repo and period is written.
func datasetPath(repo string, period models.DateRange) string {
	return filepath.Join(viper.GetString("data_dir"), dataset.FileName(repo, period))
}

// reportPath derives the report file for a dataset file.
func reportPath(datasetFile string, format report.Format) string {
	base := strings.TrimSuffix(filepath.Base(datasetFile), filepath.Ext(datasetFile))
	return filepath.Join(viper.GetString("output_dir"), base+"-report"+format.Extension())
}

// writeReport renders rep to path, or to stdout when path is "-".
func writeReport(path string, format report.Format, rep report.Report) error {
	data, err := report.Render(format, rep)
	if err != nil {
		return err
	}
	if path == "-" {
		_, err := ui.Out.Write(data)
		return err
	}
	if dryRun {
		ui.DryRunMsg("Would write %s report: %s", format, path)
		return nil
	}
	if err := dataset.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	ui.Success("Report written: %s", path)
	return nil
}

// printSummary shows the headline metrics as a table.
func printSummary(rep report.Report) {
	s := rep.Summary
	ui.Info("%s reviewed by %s, %s to %s",
		output.Cyan(rep.Metadata.Repository), rep.Metadata.Reviewer,
		rep.Metadata.Period.Start.Format(dateLayout), rep.Metadata.Period.End.Format(dateLayout))
	fmt.Fprintln(ui.Out)

	table := ui.Table([]string{"Metric", "Value"})
	table.Append([]string{"Pull requests", fmt.Sprintf("%d", s.TotalPRs)})
	table.Append([]string{"Reviewer comments", fmt.Sprintf("%d", s.TotalComments)})
	table.Append([]string{"Comments per PR", fmt.Sprintf("%g", s.AverageCommentsPerPR)})
	table.Append([]string{"Resolved", fmt.Sprintf("%d (%s)", s.ResolvedComments, output.Percent(s.ResolvedPercentage))})
	table.Append([]string{"Replied", fmt.Sprintf("%d (%s)", s.RepliedComments, output.Percent(s.ReplyPercentage))})
	table.Append([]string{"Positive reactions", fmt.Sprintf("%d (%s)", s.PositiveReactions, output.Percent(s.PositivePercentage))})
	table.Append([]string{"Negative reactions", fmt.Sprintf("%d (%s)", s.NegativeReactions, output.Percent(s.NegativePercentage))})
	table.Append([]string{"Effectiveness", fmt.Sprintf("%s %s", output.ScoreColor(s.EffectivenessScore), output.TierColor(string(s.EffectivenessTier)))})
	_ = table.Render()

	if n := len(rep.Detailed.NeedsFollowUp); n > 0 {
		fmt.Fprintln(ui.Out)
		ui.Warning("%d comment(s) received no reply and were not resolved", n)
	}
}

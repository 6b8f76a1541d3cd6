// Package analysis runs the metrics pipeline over a dataset and keeps the
// run history consistent with what was rendered.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/joescharf/revstat/internal/llm"
	"github.com/joescharf/revstat/internal/metrics"
	"github.com/joescharf/revstat/internal/models"
	"github.com/joescharf/revstat/internal/report"
	"github.com/joescharf/revstat/internal/store"
)

// Narrator writes a narrative for computed metrics.
type Narrator interface {
	Narrate(ctx context.Context, repository, reviewer string, summary metrics.Summary, detailed metrics.Detailed) (*llm.Narrative, error)
}

// Options tune a single analysis.
type Options struct {
	// Reviewer overrides the dataset's reviewer login.
	Reviewer string
	// Narrator, when set, adds a narrative to the report.
	Narrator Narrator
	// Record stores the run in history.
	Record bool
}

// Outcome is everything one analysis produced.
type Outcome struct {
	Result metrics.Result
	Report report.Report
	// Run is set when the analysis was recorded.
	Run *models.Run
}

// Service analyzes datasets. The store may be nil when history is not used.
type Service struct {
	store store.Store
	log   *zap.SugaredLogger
	now   func() time.Time
}

// NewService creates a Service.
func NewService(s store.Store, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{store: s, log: log, now: time.Now}
}

// Analyze runs the pipeline over ds. datasetPath is recorded with the run.
func (s *Service) Analyze(ctx context.Context, ds *models.Dataset, datasetPath string, opts Options) (*Outcome, error) {
	reviewer := ds.Metadata.Reviewer
	if opts.Reviewer != "" {
		reviewer = opts.Reviewer
	}

	res := metrics.Analyze(metrics.Input{
		PRs:      ds.PRs,
		Comments: ds.Comments,
		Reviewer: reviewer,
	})
	s.log.Infow("analysis complete",
		"repository", ds.Metadata.Repository,
		"reviewer", reviewer,
		"comments", res.Summary.TotalComments,
		"score", res.Summary.EffectivenessScore,
	)

	rep := report.Report{
		Metadata: report.Metadata{
			Repository:  ds.Metadata.Repository,
			Reviewer:    reviewer,
			Period:      ds.Metadata.Period,
			GeneratedAt: s.now().UTC(),
		},
		Summary:  res.Summary,
		Detailed: res.Detailed,
	}

	if opts.Narrator != nil {
		n, err := opts.Narrator.Narrate(ctx, rep.Metadata.Repository, reviewer, res.Summary, res.Detailed)
		if err != nil {
			s.log.Warnw("narrative unavailable", "error", err)
		} else {
			rep.Metadata.Narrative = n.Markdown()
		}
	}

	out := &Outcome{Result: res, Report: rep}
	if !opts.Record {
		return out, nil
	}

	run, err := s.Record(ctx, rep, datasetPath)
	if err != nil {
		return nil, err
	}
	out.Run = run
	return out, nil
}

// Record stores rep in history. Callers that write the report themselves
// record only after the write succeeded.
func (s *Service) Record(ctx context.Context, rep report.Report, datasetPath string) (*models.Run, error) {
	if s.store == nil {
		return nil, fmt.Errorf("record run: no history store configured")
	}
	run, err := RunFromReport(rep, datasetPath)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		return nil, err
	}
	s.log.Debugw("run recorded", "id", run.ID, "repository", run.Repository)
	return run, nil
}

// RunFromReport builds the history record of a rendered report.
func RunFromReport(r report.Report, datasetPath string) (*models.Run, error) {
	summary, err := json.Marshal(r.Summary)
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	detailed, err := json.Marshal(r.Detailed)
	if err != nil {
		return nil, fmt.Errorf("encode detailed metrics: %w", err)
	}
	return &models.Run{
		Repository:         r.Metadata.Repository,
		Reviewer:           r.Metadata.Reviewer,
		PeriodStart:        r.Metadata.Period.Start,
		PeriodEnd:          r.Metadata.Period.End,
		DatasetPath:        datasetPath,
		TotalPRs:           r.Summary.TotalPRs,
		TotalComments:      r.Summary.TotalComments,
		ResolvedPercentage: r.Summary.ResolvedPercentage,
		ReplyPercentage:    r.Summary.ReplyPercentage,
		EffectivenessScore: r.Summary.EffectivenessScore,
		Tier:               string(r.Summary.EffectivenessTier),
		Summary:            summary,
		Detailed:           detailed,
		Narrative:          r.Metadata.Narrative,
		CreatedAt:          r.Metadata.GeneratedAt,
	}, nil
}

// ReportFromRun rebuilds the report a run was recorded from.
func ReportFromRun(run *models.Run) (report.Report, error) {
	var rep report.Report
	if err := json.Unmarshal(run.Summary, &rep.Summary); err != nil {
		return report.Report{}, fmt.Errorf("decode run %s summary: %w", run.ID, err)
	}
	if err := json.Unmarshal(run.Detailed, &rep.Detailed); err != nil {
		return report.Report{}, fmt.Errorf("decode run %s detailed metrics: %w", run.ID, err)
	}
	if rep.Detailed.NeedsFollowUp == nil {
		rep.Detailed.NeedsFollowUp = []metrics.FollowUp{}
	}
	rep.Metadata = report.Metadata{
		Repository:  run.Repository,
		Reviewer:    run.Reviewer,
		Period:      models.DateRange{Start: run.PeriodStart, End: run.PeriodEnd},
		GeneratedAt: run.CreatedAt,
		Narrative:   run.Narrative,
	}
	return rep, nil
}

// RenderRun re-renders a recorded run.
func RenderRun(run *models.Run, format report.Format) ([]byte, error) {
	rep, err := ReportFromRun(run)
	if err != nil {
		return nil, err
	}
	return report.Render(format, rep)
}

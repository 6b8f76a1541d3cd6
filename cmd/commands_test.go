package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/revstat/internal/models"
	"github.com/joescharf/revstat/internal/report"
	"github.com/joescharf/revstat/internal/store"
)

func TestPeriodFlagsResolve(t *testing.T) {
	now := time.Date(2026, 3, 31, 15, 0, 0, 0, time.UTC)
	endOfDay := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	}

	tests := []struct {
		name      string
		flags     periodFlags
		wantStart time.Time
		wantEnd   time.Time
		wantErr   bool
	}{
		{
			name:      "days only",
			flags:     periodFlags{days: 30},
			wantStart: time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC),
			wantEnd:   now,
		},
		{
			name:      "explicit range covers whole end day",
			flags:     periodFlags{days: 30, startDate: "2026-02-01", endDate: "2026-02-28"},
			wantStart: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   endOfDay(2026, 2, 28),
		},
		{
			name:      "start only runs to now",
			flags:     periodFlags{days: 30, startDate: "2026-03-15"},
			wantStart: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			wantEnd:   now,
		},
		{
			name:      "end only looks back days",
			flags:     periodFlags{days: 7, endDate: "2026-03-10"},
			wantStart: endOfDay(2026, 3, 3),
			wantEnd:   endOfDay(2026, 3, 10),
		},
		{name: "zero days", flags: periodFlags{days: 0}, wantErr: true},
		{name: "negative days with end", flags: periodFlags{days: -1, endDate: "2026-03-10"}, wantErr: true},
		{name: "bad start", flags: periodFlags{days: 30, startDate: "03/01/2026"}, wantErr: true},
		{name: "bad end", flags: periodFlags{days: 30, endDate: "yesterday"}, wantErr: true},
		{name: "start after end", flags: periodFlags{startDate: "2026-03-20", endDate: "2026-03-10"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.flags.resolve(now)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrInvalidRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, got.Start)
			assert.Equal(t, tt.wantEnd, got.End)
		})
	}
}

// githubFixture serves one in-period pull request with two reviewer
// comments and a human reply.
func githubFixture(t *testing.T) string {
	t.Helper()
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
	mux.HandleFunc("/repos/acme/widgets/pulls", func(w http.ResponseWriter, r *http.Request) {
		write(w, `[
			{"number": 2, "state": "closed", "title": "add cache", "created_at": "2026-03-10T00:00:00Z", "user": {"login": "alice", "type": "User"}},
			{"number": 1, "state": "open", "title": "too old", "created_at": "2026-02-01T00:00:00Z", "user": {"login": "bob", "type": "User"}}
		]`)
	})
	mux.HandleFunc("/repos/acme/widgets/pulls/2/comments", func(w http.ResponseWriter, r *http.Request) {
		write(w, `[
			{"id": 100, "body": "Consider caching this lookup.", "user": {"login": "coderabbitai[bot]", "type": "Bot"},
			 "created_at": "2026-03-10T01:00:00Z", "updated_at": "2026-03-10T01:00:00Z", "reactions": {"total_count": 2}},
			{"id": 101, "in_reply_to_id": 100, "body": "Done, thanks!", "user": {"login": "alice", "type": "User"},
			 "created_at": "2026-03-10T02:00:00Z", "updated_at": "2026-03-10T02:00:00Z", "reactions": {"total_count": 0}}
		]`)
	})
	mux.HandleFunc("/repos/acme/widgets/issues/2/comments", func(w http.ResponseWriter, r *http.Request) {
		write(w, `[
			{"id": 200, "body": "Why is this exported?", "user": {"login": "coderabbitai[bot]", "type": "Bot"},
			 "created_at": "2026-03-10T00:30:00Z", "updated_at": "2026-03-10T00:30:00Z", "reactions": {"total_count": 0}}
		]`)
	})
	mux.HandleFunc("/repos/acme/widgets/pulls/comments/100/reactions", func(w http.ResponseWriter, r *http.Request) {
		write(w, `[
			{"id": 1, "content": "+1", "user": {"login": "alice", "type": "User"}},
			{"id": 2, "content": "heart", "user": {"login": "carol", "type": "User"}}
		]`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

// pipelineEnv wires config at a temp dir, a fake GitHub and a captured UI.
func pipelineEnv(t *testing.T) (string, *bytes.Buffer) {
	t.Helper()
	dir := testEnv(t)
	viper.Set("github.base_url", githubFixture(t))
	viper.Set("github.token", "test-token")
	viper.Set("collector.requests_per_second", 0)
	viper.Set("collector.max_retries", 1)

	var buf bytes.Buffer
	ui.Out = &buf
	ui.ErrOut = &buf
	return dir, &buf
}

var fixturePeriod = periodFlags{startDate: "2026-03-01", endDate: "2026-03-31"}

func TestCollectRun_WritesDataset(t *testing.T) {
	dir, _ := pipelineEnv(t)

	path, ds, err := collectRun(context.Background(), "acme/widgets", fixturePeriod, "", "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "datasets", "acme-widgets_2026-03-01_2026-03-31.json"), path)
	assert.FileExists(t, path)
	assert.Equal(t, "coderabbitai[bot]", ds.Metadata.Reviewer, "reviewer comes from config")
	assert.Equal(t, 1, ds.Metadata.TotalPRs)
	assert.Equal(t, 2, ds.Metadata.TotalComments)
	assert.Len(t, ds.Comments, 3)
}

func TestCollectRun_InvalidRepository(t *testing.T) {
	pipelineEnv(t)

	_, _, err := collectRun(context.Background(), "not-a-repo", fixturePeriod, "", "")
	assert.Error(t, err)
}

func TestCollectRun_DryRun(t *testing.T) {
	dir, _ := pipelineEnv(t)
	dryRun = true
	ui.DryRun = true
	t.Cleanup(func() { dryRun = false })

	path, _, err := collectRun(context.Background(), "acme/widgets", fixturePeriod, "", "")
	require.NoError(t, err)
	assert.NoFileExists(t, path)
	assert.NoDirExists(t, filepath.Join(dir, "datasets"))
}

func TestAnalyzeRun_WritesReportAndRecords(t *testing.T) {
	dir, buf := pipelineEnv(t)

	path, ds, err := collectRun(context.Background(), "acme/widgets", fixturePeriod, "", "")
	require.NoError(t, err)

	out, err := analyzeRun(context.Background(), ds, path, analyzeOptions{format: "json"})
	require.NoError(t, err)
	require.NotNil(t, out.Run, "runs are recorded by default")

	reportFile := filepath.Join(dir, "reports", "acme-widgets_2026-03-01_2026-03-31-report.json")
	data, err := os.ReadFile(reportFile)
	require.NoError(t, err)

	var doc struct {
		Summary struct {
			TotalPRs           int     `json:"totalPRs"`
			TotalComments      int     `json:"totalComments"`
			ResolvedComments   int     `json:"resolvedComments"`
			RepliedComments    int     `json:"repliedComments"`
			ResolvedPercentage float64 `json:"resolvedPercentage"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 1, doc.Summary.TotalPRs)
	assert.Equal(t, 2, doc.Summary.TotalComments)
	assert.Equal(t, 1, doc.Summary.ResolvedComments)
	assert.Equal(t, 1, doc.Summary.RepliedComments, "an explicit reply to one comment is not linked to another")
	assert.Equal(t, 50.0, doc.Summary.ResolvedPercentage)

	assert.Contains(t, buf.String(), "Report written")

	s, err := getStore()
	require.NoError(t, err)
	runs, err := s.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "acme/widgets", runs[0].Repository)
	assert.Equal(t, path, runs[0].DatasetPath)
}

func TestAnalyzeRun_StdoutNoRecord(t *testing.T) {
	dir, buf := pipelineEnv(t)

	path, ds, err := collectRun(context.Background(), "acme/widgets", fixturePeriod, "", "")
	require.NoError(t, err)
	buf.Reset()

	out, err := analyzeRun(context.Background(), ds, path, analyzeOptions{format: "markdown", output: "-", noRecord: true})
	require.NoError(t, err)
	assert.Nil(t, out.Run)

	assert.Contains(t, buf.String(), "# AI Review Effectiveness Report")
	assert.Contains(t, buf.String(), "| Resolved comments | 1 (50%) |")
	assert.NoDirExists(t, filepath.Join(dir, "reports"))
	assert.NoFileExists(t, filepath.Join(dir, "revstat.db"))
}

func TestAnalyzeRun_ReportWriteFailureRecordsNothing(t *testing.T) {
	pipelineEnv(t)

	path, ds, err := collectRun(context.Background(), "acme/widgets", fixturePeriod, "", "")
	require.NoError(t, err)

	_, err = analyzeRun(context.Background(), ds, path, analyzeOptions{format: "json", output: "/dev/null/x/report.json"})
	require.Error(t, err)

	s, err := getStore()
	require.NoError(t, err)
	runs, err := s.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs, "no run without a written report")
}

func TestAnalyzeRun_BadFormat(t *testing.T) {
	pipelineEnv(t)

	_, err := analyzeRun(context.Background(), &models.Dataset{}, "x.json", analyzeOptions{format: "csv"})
	assert.Error(t, err)
}

func TestAnalyzeRun_NarrativeNeedsKey(t *testing.T) {
	pipelineEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := analyzeRun(context.Background(), &models.Dataset{}, "x.json", analyzeOptions{format: "json", narrative: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestHistory_ListShowDelete(t *testing.T) {
	_, buf := pipelineEnv(t)

	path, ds, err := collectRun(context.Background(), "acme/widgets", fixturePeriod, "", "")
	require.NoError(t, err)
	out, err := analyzeRun(context.Background(), ds, path, analyzeOptions{format: "json"})
	require.NoError(t, err)
	id := out.Run.ID

	buf.Reset()
	require.NoError(t, historyListRun(context.Background()))
	assert.Contains(t, buf.String(), id)
	assert.Contains(t, buf.String(), "acme/widgets")

	buf.Reset()
	historyFormat = "markdown"
	require.NoError(t, historyShowRun(context.Background(), id[:10]))
	assert.Contains(t, buf.String(), "**Repository:** acme/widgets")

	require.NoError(t, historyDeleteRun(context.Background(), id))
	err = historyShowRun(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHistoryList_Empty(t *testing.T) {
	_, buf := pipelineEnv(t)

	require.NoError(t, historyListRun(context.Background()))
	assert.Contains(t, buf.String(), "No recorded runs")
}

type stubGit struct{ remote string }

func (s stubGit) RepoRoot(path string) (string, error) { return path, nil }
func (s stubGit) RemoteURL(string) (string, error)     { return s.remote, nil }

func TestRepositoryArg(t *testing.T) {
	testEnv(t)
	orig := gitClient
	t.Cleanup(func() { gitClient = orig })
	gitClient = stubGit{remote: "git@github.com:acme/widgets.git"}

	got, err := repositoryArg([]string{"other/repo"})
	require.NoError(t, err)
	assert.Equal(t, "other/repo", got, "explicit argument wins")

	got, err = repositoryArg(nil)
	require.NoError(t, err)
	assert.Equal(t, "acme/widgets", got)
}

// setReportFlags swaps the report command's flag values for one test.
func setReportFlags(t *testing.T, opts analyzeOptions) {
	t.Helper()
	origOpts, origPeriod, origDataset, origReviewer := reportOpts, reportPeriod, reportDataset, reportReviewer
	t.Cleanup(func() {
		reportOpts, reportPeriod, reportDataset, reportReviewer = origOpts, origPeriod, origDataset, origReviewer
	})
	reportOpts = opts
	reportPeriod = fixturePeriod
	reportDataset = ""
	reportReviewer = ""
}

func TestReportRun_CollectsAndAnalyzes(t *testing.T) {
	dir, _ := pipelineEnv(t)
	setReportFlags(t, analyzeOptions{format: "markdown", noRecord: true})

	require.NoError(t, reportRun(context.Background(), []string{"acme/widgets"}))

	assert.FileExists(t, filepath.Join(dir, "datasets", "acme-widgets_2026-03-01_2026-03-31.json"))
	assert.FileExists(t, filepath.Join(dir, "reports", "acme-widgets_2026-03-01_2026-03-31-report.md"))
}

func TestReportRun_BadFormatWritesNothing(t *testing.T) {
	dir, _ := pipelineEnv(t)
	setReportFlags(t, analyzeOptions{format: "pdf"})

	err := reportRun(context.Background(), []string{"acme/widgets"})
	assert.ErrorIs(t, err, report.ErrUnsupportedFormat)

	assert.NoFileExists(t, filepath.Join(dir, "datasets", "acme-widgets_2026-03-01_2026-03-31.json"))
	assert.NoDirExists(t, filepath.Join(dir, "datasets"))
	assert.NoDirExists(t, filepath.Join(dir, "reports"))
}

func TestReportRun_NarrativeKeyCheckedFirst(t *testing.T) {
	dir, _ := pipelineEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "")
	setReportFlags(t, analyzeOptions{format: "json", narrative: true})

	err := reportRun(context.Background(), []string{"acme/widgets"})
	require.Error(t, err)
	assert.NoDirExists(t, filepath.Join(dir, "datasets"))
}

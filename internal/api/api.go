package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/joescharf/revstat/internal/analysis"
	"github.com/joescharf/revstat/internal/models"
	"github.com/joescharf/revstat/internal/report"
	"github.com/joescharf/revstat/internal/store"
)

const defaultListLimit = 50

// Server provides the read-only REST API over recorded runs.
type Server struct {
	store store.Store
	log   *zap.SugaredLogger
}

// NewServer creates a new API server.
func NewServer(s store.Store, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{store: s, log: log}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/runs", s.listRuns)
	mux.HandleFunc("GET /api/v1/runs/{id}", s.getRun)
	mux.HandleFunc("GET /api/v1/runs/{id}/report", s.getRunReport)

	return s.logMiddleware(corsMiddleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debugw("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// runSummary is the list view of a run; the metric sections are omitted.
type runSummary struct {
	ID                 string    `json:"id"`
	Repository         string    `json:"repository"`
	Reviewer           string    `json:"reviewer"`
	PeriodStart        time.Time `json:"periodStart"`
	PeriodEnd          time.Time `json:"periodEnd"`
	TotalPRs           int       `json:"totalPRs"`
	TotalComments      int       `json:"totalComments"`
	ResolvedPercentage float64   `json:"resolvedPercentage"`
	ReplyPercentage    float64   `json:"replyPercentage"`
	EffectivenessScore float64   `json:"effectivenessScore"`
	Tier               string    `json:"effectivenessTier"`
	CreatedAt          time.Time `json:"createdAt"`
}

func toSummary(r *models.Run) runSummary {
	return runSummary{
		ID:                 r.ID,
		Repository:         r.Repository,
		Reviewer:           r.Reviewer,
		PeriodStart:        r.PeriodStart.UTC(),
		PeriodEnd:          r.PeriodEnd.UTC(),
		TotalPRs:           r.TotalPRs,
		TotalComments:      r.TotalComments,
		ResolvedPercentage: r.ResolvedPercentage,
		ReplyPercentage:    r.ReplyPercentage,
		EffectivenessScore: r.EffectivenessScore,
		Tier:               r.Tier,
		CreatedAt:          r.CreatedAt.UTC(),
	}
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := defaultListLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), store.RunFilter{
		Repository: q.Get("repository"),
		Reviewer:   q.Get("reviewer"),
		Limit:      limit,
	})
	if err != nil {
		s.log.Errorw("list runs failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]runSummary, len(runs))
	for i, run := range runs {
		out[i] = toSummary(run)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*models.Run, bool) {
	run, err := s.store.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return nil, false
		}
		s.log.Errorw("get run failed", "id", r.PathValue("id"), "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return run, true
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) getRunReport(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(report.FormatJSON)
	}
	format, err := report.ParseFormat(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	data, err := analysis.RenderRun(run, format)
	if err != nil {
		s.log.Errorw("render run failed", "id", run.ID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	contentType := "application/json"
	if format == report.FormatMarkdown {
		contentType = "text/markdown; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

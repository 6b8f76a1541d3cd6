package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/joescharf/revstat/internal/analysis"
	"github.com/joescharf/revstat/internal/dataset"
	"github.com/joescharf/revstat/internal/report"
	"github.com/joescharf/revstat/internal/store"
)

// Server exposes dataset analysis and run history as MCP tools.
type Server struct {
	store    store.Store
	analysis *analysis.Service
	log      *zap.SugaredLogger
	version  string
}

// NewServer creates the MCP server wrapper.
func NewServer(s store.Store, log *zap.SugaredLogger, version string) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{
		store:    s,
		analysis: analysis.NewService(s, log),
		log:      log,
		version:  version,
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("revstat", s.version, server.WithToolCapabilities(true))

	srv.AddTool(s.analyzeDatasetTool())
	srv.AddTool(s.listRunsTool())
	srv.AddTool(s.getRunTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// revstat_analyze_dataset
func (s *Server) analyzeDatasetTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("revstat_analyze_dataset",
		mcp.WithDescription("Analyze a collected review dataset (JSON file) and return the effectiveness report."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the dataset JSON file")),
		mcp.WithString("format", mcp.Description("Report format: json or markdown (default markdown)")),
		mcp.WithString("reviewer", mcp.Description("Override the reviewer login recorded in the dataset")),
		mcp.WithBoolean("record", mcp.Description("Store the run in history (default false)")),
	)
	return tool, s.handleAnalyzeDataset
}

func (s *Server) handleAnalyzeDataset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: path"), nil
	}
	format, err := report.ParseFormat(request.GetString("format", string(report.FormatMarkdown)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ds, err := dataset.Load(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load dataset: %v", err)), nil
	}

	out, err := s.analysis.Analyze(ctx, ds, path, analysis.Options{
		Reviewer: request.GetString("reviewer", ""),
		Record:   request.GetBool("record", false),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	data, err := report.Render(format, out.Report)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to render report: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// revstat_list_runs
func (s *Server) listRunsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("revstat_list_runs",
		mcp.WithDescription("List recorded analysis runs, newest first. Returns a JSON array with id, repository, reviewer, period and headline metrics."),
		mcp.WithString("repository", mcp.Description("Filter by repository (owner/repo)")),
		mcp.WithString("reviewer", mcp.Description("Filter by reviewer login")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs (default 20)")),
	)
	return tool, s.handleListRuns
}

func (s *Server) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs, err := s.store.ListRuns(ctx, store.RunFilter{
		Repository: request.GetString("repository", ""),
		Reviewer:   request.GetString("reviewer", ""),
		Limit:      request.GetInt("limit", 20),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list runs: %v", err)), nil
	}

	type runOut struct {
		ID                 string  `json:"id"`
		Repository         string  `json:"repository"`
		Reviewer           string  `json:"reviewer"`
		PeriodStart        string  `json:"periodStart"`
		PeriodEnd          string  `json:"periodEnd"`
		TotalComments      int     `json:"totalComments"`
		ResolvedPercentage float64 `json:"resolvedPercentage"`
		ReplyPercentage    float64 `json:"replyPercentage"`
		EffectivenessScore float64 `json:"effectivenessScore"`
		Tier               string  `json:"effectivenessTier"`
		CreatedAt          string  `json:"createdAt"`
	}

	out := make([]runOut, len(runs))
	for i, r := range runs {
		out[i] = runOut{
			ID:                 r.ID,
			Repository:         r.Repository,
			Reviewer:           r.Reviewer,
			PeriodStart:        r.PeriodStart.UTC().Format("2006-01-02"),
			PeriodEnd:          r.PeriodEnd.UTC().Format("2006-01-02"),
			TotalComments:      r.TotalComments,
			ResolvedPercentage: r.ResolvedPercentage,
			ReplyPercentage:    r.ReplyPercentage,
			EffectivenessScore: r.EffectivenessScore,
			Tier:               r.Tier,
			CreatedAt:          r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal runs: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// revstat_get_run
func (s *Server) getRunTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("revstat_get_run",
		mcp.WithDescription("Re-render a recorded analysis run as a report. Accepts a full run id or a unique prefix."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Run id or unique id prefix")),
		mcp.WithString("format", mcp.Description("Report format: json or markdown (default json)")),
	)
	return tool, s.handleGetRun
}

func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}
	format, err := report.ParseFormat(request.GetString("format", string(report.FormatJSON)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	run, err := s.store.GetRun(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("run not found: %s", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get run: %v", err)), nil
	}

	data, err := analysis.RenderRun(run, format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to render run: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

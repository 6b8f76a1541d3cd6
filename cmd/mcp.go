package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joescharf/revstat/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for assistant integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets an assistant analyze datasets and browse recorded runs.
Configure it with:

  {
    "mcpServers": {
      "revstat": { "command": "revstat", "args": ["mcp"] }
    }
  }

Available tools: revstat_analyze_dataset, revstat_list_runs, revstat_get_run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// stdout carries the protocol; logs go to stderr only.
		return mcp.NewServer(s, log, buildVersion).ServeStdio(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

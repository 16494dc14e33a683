// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Lets LLM agents ask the content library questions over stdio
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harper/content-assistant/internal/logging"
	"github.com/harper/content-assistant/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs the content assistant as an MCP (Model Context Protocol) server so
agents can ask questions, inspect retrieved passages, and look up sources
via stdio. Logs go to stderr; stdout carries the protocol.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an MCP client)
  assistant mcp

  # Configure in the client's config file:
  # {
  #   "mcpServers": {
  #     "content-assistant": {
  #       "command": "assistant",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	server := mcpserver.NewMCPServer(
		"Content Assistant",
		versionInfo.Version,
	)

	mcp.RegisterTools(server, mcp.NewHandlers(mcp.Deps{
		Asker:     a.pipeline,
		Describer: a.resolver,
		Embedder:  a.embedder,
		Searcher:  a.engine,
		Links:     a.links,
		Threshold: cfg.SimilarityThreshold,
		Logger:    logging.New("mcp"),
	}))

	log := logging.New("mcp")
	log.Info("MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		return nil
	case err := <-serverErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}

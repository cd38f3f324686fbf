package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recap-cli/internal/adapters/driving/mcp"
	"github.com/custodia-labs/recap-cli/internal/logger"
)

// promptWatcher is implemented by prompt stores that can reload on edit.
type promptWatcher interface {
	Watch(ctx context.Context, log *slog.Logger) error
}

// mcpServer is the part of *mcp.Server the serve command drives.
type mcpServer interface {
	Run(ctx context.Context) error
	RunHTTP(ctx context.Context, addr string) error
}

var newMCPServer = func(ports *mcp.Ports) (mcpServer, error) {
	return mcp.NewServer(ports, mcp.WithLogger(logger.Default()))
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can describe
channels and summarise videos.

Tools:
  describe_channel  - fetch, summarise and save a channel description
  summarize_items   - summarise caller-supplied subtitled videos

Resources:
  recap://prompts         - prompt names
  recap://prompts/{name}  - prompt text

By default the server communicates over stdio. Use --port to serve
streamable HTTP instead.

Examples:
  # Stdio mode (default)
  recap mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  recap mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	pipeline, err := buildPipeline(*settings)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	ports := &mcp.Ports{
		Describer:  pipeline.Describer,
		Summarizer: pipeline.Summarizer,
	}
	if promptStore != nil {
		ports.Prompts = promptStore
		// A long-running server picks up prompt edits without a restart.
		if w, ok := promptStore.(promptWatcher); ok {
			if err := w.Watch(cmd.Context(), logger.Default()); err != nil {
				logger.Default().Warn("prompts.watch_unavailable", "err", err)
			}
		}
	}

	server, err := newMCPServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}

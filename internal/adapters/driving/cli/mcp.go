package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frods/trufflepig/internal/adapters/driving/mcp"
	"github.com/frods/trufflepig/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Watch the configured directories and expose artifact lookups as MCP
tools and resources.

By default the server speaks JSON-RPC over stdio, which suits desktop
assistants. Use --port to serve streamable HTTP instead, e.g. for the
MCP Inspector.

Examples:
  # Stdio mode
  trufflepig mcp serve --path ./build/contracts

  # HTTP mode
  trufflepig mcp serve --path ./build/contracts --port 8081

Assistant configuration:
  {
    "mcpServers": {
      "trufflepig": {
        "command": "/path/to/trufflepig",
        "args": ["mcp", "serve", "--path", "/path/to/build/contracts"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	addCacheFlags(mcpServeCmd)
	mcpServeCmd.Flags().Int("port", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	cache, err := startCache(cmd.Context(), settings, true, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Error("Shutdown: %v", err)
		}
	}()

	server, err := mcp.NewServer(&mcp.Ports{Cache: cache, History: cache})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf("%s:%d", settings.Server.Host, port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}

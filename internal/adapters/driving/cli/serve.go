package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/frods/trufflepig/internal/adapters/driving/httpapi"
	"github.com/frods/trufflepig/internal/adapters/driving/mcp"
	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/core/ports/driving"
	"github.com/frods/trufflepig/internal/core/services"
	"github.com/frods/trufflepig/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Watch artifact directories and serve lookups over HTTP",
	Long: `Scan the configured directories, keep the index up to date as files
change, and answer lookups over HTTP until interrupted.

Examples:
  # Serve ./build/contracts on http://127.0.0.1:3030/contracts
  trufflepig serve --path ./build/contracts

  # Watch two directories, serve on another port, and log cache activity
  trufflepig serve -p ./a -p ./b --port 8080 --verbose

  # Also expose the MCP tools over HTTP
  trufflepig serve --path ./build/contracts --mcp-port 8081`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	addCacheFlags(serveCmd)
	addServerFlags(serveCmd)
	serveCmd.Flags().Int("mcp-port", 0, "also serve MCP over HTTP on this port (0 = off)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := settings.Server.Validate(); err != nil {
		return err
	}
	mcpPort, err := cmd.Flags().GetInt("mcp-port")
	if err != nil {
		return fmt.Errorf("getting mcp-port flag: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Subscribe before the scan so startup parse errors are logged too.
	notifier := services.NewNotifier(settings.Cache.NotifyBuffer)
	observer := notifier.Subscribe(0)
	go logNotifications(observer)
	defer observer.Close()

	cache, err := startCache(ctx, settings, true, notifier)
	if err != nil {
		notifier.Close()
		return err
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Error("Shutdown: %v", err)
		}
	}()

	server, err := httpapi.NewServer(&httpapi.Ports{Cache: cache, History: cache}, settings.Server)
	if err != nil {
		return err
	}
	if err := server.Listen(); err != nil {
		return err
	}
	cmd.Printf("Server listening on %s\n", server.URL())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(gctx)
	})

	if mcpPort > 0 {
		mcpServer, err := mcp.NewServer(&mcp.Ports{Cache: cache, History: cache})
		if err != nil {
			return err
		}
		addr := fmt.Sprintf("%s:%d", settings.Server.Host, mcpPort)
		cmd.Printf("MCP server listening on http://%s\n", addr)
		g.Go(func() error {
			return mcpServer.RunHTTP(gctx, addr)
		})
	}

	err = g.Wait()
	if err == nil || ctx.Err() != nil {
		return nil
	}
	return err
}

// logNotifications prints cache activity until the subscription closes.
func logNotifications(sub driving.Subscription) {
	for n := range sub.C() {
		logNotification(n)
	}
}

func logNotification(n domain.Notification) {
	switch n.Kind {
	case domain.NotifyAdded:
		logger.Info("Cache added: %s", n.Path)
	case domain.NotifyChanged:
		logger.Info("Cache changed: %s", n.Path)
	case domain.NotifyRemoved:
		logger.Info("Cache removed: %s", n.Path)
	case domain.NotifyError:
		logger.Warn("Error from cache: %s: %s", n.Path, n.Reason)
	}
}

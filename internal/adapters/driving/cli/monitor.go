package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/frods/trufflepig/internal/adapters/driving/tui"
	"github.com/frods/trufflepig/internal/logger"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch the cache live in the terminal",
	Long: `Start the cache and open a terminal monitor showing root states, the
indexed artifacts and a live feed of cache notifications.

Keys: tab switches between artifacts and events, r rescans, q quits.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	addCacheFlags(monitorCmd)
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in monitor: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	// Log lines would tear the alternate screen.
	logger.SetVerbose(false)

	cache, err := startCache(cmd.Context(), settings, true, nil)
	if err != nil {
		return err
	}
	defer cache.Close()

	app, err := tui.NewApp(&tui.Ports{Cache: cache, History: cache})
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}
	defer app.Close()
	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("monitor error: %w", err)
	}
	return nil
}

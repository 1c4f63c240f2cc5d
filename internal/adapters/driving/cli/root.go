// Package cli provides the trufflepig command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frods/trufflepig/internal/adapters/driven/config/file"
	"github.com/frods/trufflepig/internal/core/ports/driving"
	"github.com/frods/trufflepig/internal/core/services"
	"github.com/frods/trufflepig/internal/logger"
)

var (
	// version is set at build time.
	version = "dev"

	verbose   bool
	configDir string

	// settingsService is opened from the config directory on first use
	// unless set with SetSettingsService.
	settingsService driving.SettingsService
)

var rootCmd = &cobra.Command{
	Use:   "trufflepig",
	Short: "Serve build artifacts from a live cache",
	Long: `trufflepig watches directories of contract build artifacts, keeps an
in-memory index of them up to date, and answers lookups over HTTP, MCP
and the command line.

Start a server on the default port:
  trufflepig serve --path ./build/contracts

Then query it:
  curl 'http://127.0.0.1:3030/contracts?contractName=Registry'`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print cache activity to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.trufflepig)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetSettingsService replaces the settings service, e.g. for tests.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if settingsService != nil {
		return nil
	}

	dir := configDir
	if dir == "" {
		var err error
		if dir, err = file.DefaultConfigDir(); err != nil {
			return err
		}
	}
	store, err := file.NewConfigStore(dir)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	logger.Debug("Config: %s", store.Path())
	settingsService = services.NewSettingsService(store)
	return nil
}

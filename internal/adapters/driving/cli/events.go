package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frods/trufflepig/internal/adapters/driven/storage/sqlite"
	"github.com/frods/trufflepig/internal/core/domain"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent cache notifications",
	Long: `Show the most recent cache notifications, newest first.

Without --remote the notifications are read from the sqlite journal,
so the journal setting must be "sqlite".`,
	Args: cobra.NoArgs,
	RunE: runEvents,
}

func init() {
	addRemoteFlag(eventsCmd)
	eventsCmd.Flags().IntP("limit", "n", 20, "number of notifications to show")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("getting limit flag: %w", err)
	}
	if limit < 1 {
		return fmt.Errorf("%w: --limit must be positive", domain.ErrInvalidInput)
	}

	client, err := remoteClient(cmd)
	if err != nil {
		return err
	}
	if client != nil {
		notes, err := client.Recent(cmd.Context(), limit)
		if err != nil {
			return err
		}
		writeNotifications(cmd.OutOrStdout(), notes)
		return nil
	}

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if settings.Journal.Backend != domain.JournalSQLite {
		return fmt.Errorf("the %s journal is not kept between runs: use --remote or set journal to sqlite",
			settings.Journal.Backend)
	}

	store, err := sqlite.NewStore(settings.Journal.Dir, settings.Journal.Size)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	notes, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	writeNotifications(cmd.OutOrStdout(), notes)
	return nil
}

package cli

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show root states and cache statistics",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	addCacheFlags(statusCmd)
	addRemoteFlag(statusCmd)
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	client, err := remoteClient(cmd)
	if err != nil {
		return err
	}
	if client != nil {
		st, err := client.Status(cmd.Context())
		if err != nil {
			return err
		}
		writeStatus(cmd.OutOrStdout(), st.Roots, st.Stats)
		return nil
	}

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	cache, err := startCache(cmd.Context(), settings, false, nil)
	if err != nil {
		return err
	}
	defer cache.Close()

	writeStatus(cmd.OutOrStdout(), cache.Roots(), cache.Stats())
	return nil
}

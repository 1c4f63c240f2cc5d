package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List artifact identities",
	Long: `Scan the configured directories once and print every artifact identity,
or ask a running server with --remote.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	addCacheFlags(listCmd)
	addRemoteFlag(listCmd)
	listCmd.Flags().BoolP("long", "l", false, "show source file and networks")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	client, err := remoteClient(cmd)
	if err != nil {
		return err
	}
	if client != nil {
		ids, err := client.ListIdentities(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
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

	ids := cache.ListIdentities()
	long, _ := cmd.Flags().GetBool("long")
	if !long {
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil
	}

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		rec, ok := cache.Artifact(id)
		if !ok {
			continue
		}
		rows = append(rows, []string{id, rec.SourcePath, strings.Join(rec.Deployments.Networks(), ",")})
	}
	fmt.Fprintln(out, renderTable([]string{"IDENTITY", "FILE", "NETWORKS"}, rows))
	return nil
}

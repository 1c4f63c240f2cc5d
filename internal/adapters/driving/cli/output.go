package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/frods/trufflepig/internal/adapters/driven/remote"
	"github.com/frods/trufflepig/internal/core/domain"
)

var tableBorder = lipgloss.NewStyle().Foreground(lipgloss.Color("#45475A"))

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorder).
		Headers(headers...).
		Rows(rows...).
		Render()
}

// writeDocument prints a JSON document indented.
func writeDocument(w io.Writer, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("format document: %w", err)
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

func writeStatus(w io.Writer, roots []domain.RootStatus, stats domain.CacheStats) {
	rows := make([][]string, 0, len(roots))
	for _, r := range roots {
		rows = append(rows, []string{r.Path, string(r.State), fmt.Sprint(r.Files), r.Error})
	}
	fmt.Fprintln(w, renderTable([]string{"ROOT", "STATE", "FILES", "ERROR"}, rows))
	fmt.Fprintf(w, "%d records, %d identities, %d subscribers, %d dropped\n",
		stats.Records, stats.Identities, stats.Subscribers, stats.Dropped)
}

func writeNotifications(w io.Writer, notes []domain.Notification) {
	if len(notes) == 0 {
		fmt.Fprintln(w, "No events recorded.")
		return
	}
	rows := make([][]string, 0, len(notes))
	for _, n := range notes {
		rows = append(rows, []string{
			n.Time.Local().Format(time.DateTime),
			string(n.Kind),
			n.Identity,
			n.Path,
			n.Reason,
		})
	}
	fmt.Fprintln(w, renderTable([]string{"TIME", "KIND", "IDENTITY", "PATH", "REASON"}, rows))
}

// addRemoteFlag registers --remote on commands that can ask a running server.
func addRemoteFlag(cmd *cobra.Command) {
	cmd.Flags().String("remote", "", "ask a running server at this endpoint URL instead of scanning")
}

// remoteClient returns a client when --remote is set, or nil.
func remoteClient(cmd *cobra.Command) (*remote.Client, error) {
	endpoint, err := cmd.Flags().GetString("remote")
	if err != nil {
		return nil, fmt.Errorf("getting remote flag: %w", err)
	}
	if endpoint == "" {
		return nil, nil
	}
	return remote.NewClient(endpoint, remote.DefaultRetries)
}

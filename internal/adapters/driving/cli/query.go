package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/frods/trufflepig/internal/core/domain"
)

var queryCmd = &cobra.Command{
	Use:   "query field=value...",
	Short: "Print the first artifact matching every criterion",
	Long: `Print the document of the first artifact whose top-level field, or any
network entry's field, equals the given value. Every criterion must match.

Examples:
  trufflepig query contractName=Registry --path ./build/contracts
  trufflepig query address=0xabc... --remote http://127.0.0.1:3030/contracts`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	addCacheFlags(queryCmd)
	addRemoteFlag(queryCmd)
	rootCmd.AddCommand(queryCmd)
}

// parseCriteria turns field=value arguments into criteria.
func parseCriteria(args []string) (map[string]string, error) {
	criteria := make(map[string]string, len(args))
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, &domain.QueryError{Reason: fmt.Sprintf("%q is not field=value", arg)}
		}
		if _, dup := criteria[field]; dup {
			return nil, &domain.QueryError{Field: field, Reason: "given more than once"}
		}
		criteria[field] = value
	}
	return criteria, nil
}

func describeCriteria(criteria map[string]string) string {
	parts := make([]string, 0, len(criteria))
	for field, value := range criteria {
		parts = append(parts, field+"="+value)
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

func runQuery(cmd *cobra.Command, args []string) error {
	criteria, err := parseCriteria(args)
	if err != nil {
		return err
	}

	client, err := remoteClient(cmd)
	if err != nil {
		return err
	}

	var doc []byte
	if client != nil {
		raw, found, err := client.Query(cmd.Context(), criteria)
		if err != nil {
			return err
		}
		if found {
			doc = raw
		}
	} else {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		cache, err := startCache(cmd.Context(), settings, false, nil)
		if err != nil {
			return err
		}
		defer cache.Close()

		rec, err := cache.Query(criteria)
		if err != nil {
			return err
		}
		if rec != nil {
			if doc, err = json.Marshal(rec.Raw); err != nil {
				return fmt.Errorf("encode document: %w", err)
			}
		}
	}

	if doc == nil {
		return fmt.Errorf("%w: unable to find artifact matching query %s", domain.ErrNotFound, describeCriteria(criteria))
	}
	return writeDocument(cmd.OutOrStdout(), doc)
}

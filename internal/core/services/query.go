package services

import (
	"strings"

	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/core/ports/driven"
)

// QueryEngine answers criteria queries against the index.
type QueryEngine struct {
	index driven.ArtifactIndexReader
}

// NewQueryEngine creates a query engine over an index.
func NewQueryEngine(index driven.ArtifactIndexReader) *QueryEngine {
	return &QueryEngine{index: index}
}

// Find returns the first visible record satisfying every criterion, or nil.
//
// A criterion matches when the record's top-level field, or the same
// field of any one of its network entries, has the given textual value.
// The address field of a network entry also matches against the
// lower-cased address. Which record is returned when several match is
// unspecified; currently the first in identity order.
func (q *QueryEngine) Find(criteria map[string]string) (*domain.ArtifactRecord, error) {
	if len(criteria) == 0 {
		return nil, nil
	}
	for field := range criteria {
		if strings.TrimSpace(field) == "" {
			return nil, &domain.QueryError{Reason: "empty field name"}
		}
	}

	for _, rec := range q.index.Records() {
		if Matches(rec, criteria) {
			return rec, nil
		}
	}
	return nil, nil
}

// ListIdentities returns every visible identity, sorted.
func (q *QueryEngine) ListIdentities() []string {
	return q.index.Identities()
}

// Matches reports whether rec satisfies every criterion.
func Matches(rec *domain.ArtifactRecord, criteria map[string]string) bool {
	for field, want := range criteria {
		if !matchField(rec, field, want) {
			return false
		}
	}
	return true
}

func matchField(rec *domain.ArtifactRecord, field, want string) bool {
	if got, ok := domain.ScalarText(rec.Raw[field]); ok && got == want {
		return true
	}

	found := false
	rec.Deployments.Each(func(_ string, info domain.DeploymentInfo) bool {
		if field == domain.AddressField && info.Address == want {
			found = true
			return false
		}
		if got, ok := domain.ScalarText(info.Fields[field]); ok && got == want {
			found = true
			return false
		}
		return true
	})
	return found
}

// ParseCriteria converts loosely typed criteria into field/value pairs.
// Every value must be a string.
func ParseCriteria(in map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for field, v := range in {
		if strings.TrimSpace(field) == "" {
			return nil, &domain.QueryError{Reason: "empty field name"}
		}
		s, ok := v.(string)
		if !ok {
			return nil, &domain.QueryError{Field: field, Reason: "value must be a string"}
		}
		out[field] = s
	}
	return out, nil
}

package driven

import "github.com/frods/trufflepig/internal/core/domain"

// ArtifactIndexReader is the read side of the index.
type ArtifactIndexReader interface {
	// Get returns the visible record for identity.
	Get(identity string) (*domain.ArtifactRecord, bool)

	// ByPath returns the record owned by path, visible or shadowed.
	ByPath(path string) (*domain.ArtifactRecord, bool)

	// Identities returns all visible identities sorted lexicographically.
	Identities() []string

	// Records returns the visible records in identity order.
	Records() []*domain.ArtifactRecord

	// Len returns the number of paths holding a record.
	Len() int
}

// ArtifactIndex is the concurrency-safe store of artifact records.
// One visible record exists per identity; the most recent upsert wins.
type ArtifactIndex interface {
	ArtifactIndexReader

	// Upsert inserts or replaces the record owned by path.
	Upsert(path string, record *domain.ArtifactRecord)

	// Remove deletes the record owned by path and returns it.
	// If it was visible, the most recently written record of another
	// path with the same identity becomes visible.
	Remove(path string) (*domain.ArtifactRecord, bool)
}

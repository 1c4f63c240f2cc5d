package memory

import (
	"sort"
	"sync"

	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/core/ports/driven"
)

// Ensure ArtifactStore implements the interface.
var _ driven.ArtifactIndex = (*ArtifactStore)(nil)

// ArtifactStore is an in-memory implementation of driven.ArtifactIndex.
//
// Every path owns at most one record. Several paths may claim the same
// identity; the visible one is the path written most recently. Records
// are immutable, so readers holding a pointer never see a partial update.
type ArtifactStore struct {
	mu      sync.RWMutex
	seq     uint64
	byPath  map[string]pathEntry
	visible map[string]string            // identity -> owning path
	claims  map[string]map[string]uint64 // identity -> path -> write seq
}

type pathEntry struct {
	record *domain.ArtifactRecord
	seq    uint64
}

// NewArtifactStore creates a new in-memory artifact store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{
		byPath:  make(map[string]pathEntry),
		visible: make(map[string]string),
		claims:  make(map[string]map[string]uint64),
	}
}

// Upsert inserts or replaces the record owned by path and makes it the
// visible record for its identity.
func (s *ArtifactStore) Upsert(path string, record *domain.ArtifactRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	if prev, ok := s.byPath[path]; ok && prev.record.Identity != record.Identity {
		s.dropClaim(prev.record.Identity, path)
	}

	s.byPath[path] = pathEntry{record: record, seq: s.seq}
	claims := s.claims[record.Identity]
	if claims == nil {
		claims = make(map[string]uint64)
		s.claims[record.Identity] = claims
	}
	claims[path] = s.seq
	s.visible[record.Identity] = path
}

// Remove deletes the record owned by path.
func (s *ArtifactStore) Remove(path string) (*domain.ArtifactRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.byPath[path]
	if !ok {
		return nil, false
	}
	delete(s.byPath, path)
	s.dropClaim(entry.record.Identity, path)
	return entry.record, true
}

// dropClaim removes path's claim on identity and, if path was visible,
// promotes the most recently written remaining claim (caller must hold lock).
func (s *ArtifactStore) dropClaim(identity, path string) {
	claims := s.claims[identity]
	delete(claims, path)

	if s.visible[identity] != path {
		return
	}
	if len(claims) == 0 {
		delete(s.claims, identity)
		delete(s.visible, identity)
		return
	}

	var best string
	var bestSeq uint64
	for p, seq := range claims {
		if seq > bestSeq {
			best, bestSeq = p, seq
		}
	}
	s.visible[identity] = best
}

// Get returns the visible record for identity.
func (s *ArtifactStore) Get(identity string) (*domain.ArtifactRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	path, ok := s.visible[identity]
	if !ok {
		return nil, false
	}
	return s.byPath[path].record, true
}

// ByPath returns the record owned by path, whether visible or shadowed.
func (s *ArtifactStore) ByPath(path string) (*domain.ArtifactRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.byPath[path]
	if !ok {
		return nil, false
	}
	return entry.record, true
}

// Identities returns all visible identities in sorted order.
func (s *ArtifactStore) Identities() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.visible))
	for id := range s.visible {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Records returns the visible records in identity order.
func (s *ArtifactStore) Records() []*domain.ArtifactRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.visible))
	for id := range s.visible {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	records := make([]*domain.ArtifactRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, s.byPath[s.visible[id]].record)
	}
	return records
}

// Len returns the number of paths holding a record.
func (s *ArtifactStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byPath)
}

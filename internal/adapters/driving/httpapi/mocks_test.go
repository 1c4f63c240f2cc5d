package httpapi

import (
	"context"

	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/core/ports/driving"
)

// mockCacheService is a mock implementation of driving.CacheService.
type mockCacheService struct {
	record     *domain.ArtifactRecord
	err        error
	identities []string
	roots      []domain.RootStatus
	stats      domain.CacheStats

	lastCriteria map[string]string
}

func (m *mockCacheService) Query(criteria map[string]string) (*domain.ArtifactRecord, error) {
	m.lastCriteria = criteria
	return m.record, m.err
}

func (m *mockCacheService) ListIdentities() []string            { return m.identities }
func (m *mockCacheService) Artifact(_ string) (*domain.ArtifactRecord, bool) {
	return m.record, m.record != nil
}
func (m *mockCacheService) Subscribe(_ int) driving.Subscription { return nil }
func (m *mockCacheService) Roots() []domain.RootStatus           { return m.roots }
func (m *mockCacheService) Stats() domain.CacheStats             { return m.stats }
func (m *mockCacheService) Reconcile(_ context.Context) error    { return nil }
func (m *mockCacheService) Shutdown() error                      { return nil }

// mockHistory is a mock implementation of driving.EventHistory.
type mockHistory struct {
	notes     []domain.Notification
	err       error
	lastLimit int
}

func (m *mockHistory) Recent(_ context.Context, limit int) ([]domain.Notification, error) {
	m.lastLimit = limit
	return m.notes, m.err
}

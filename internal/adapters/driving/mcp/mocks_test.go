package mcp

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

func (m *mockCacheService) Artifact(identity string) (*domain.ArtifactRecord, bool) {
	if m.record == nil || m.record.Identity != identity {
		return nil, false
	}
	return m.record, true
}

func (m *mockCacheService) ListIdentities() []string            { return m.identities }
func (m *mockCacheService) Subscribe(_ int) driving.Subscription { return nil }
func (m *mockCacheService) Roots() []domain.RootStatus           { return m.roots }
func (m *mockCacheService) Stats() domain.CacheStats             { return m.stats }
func (m *mockCacheService) Reconcile(_ context.Context) error    { return nil }
func (m *mockCacheService) Shutdown() error                      { return nil }

// mockHistory is a mock implementation of driving.EventHistory.
type mockHistory struct {
	notes []domain.Notification
	err   error
}

func (m *mockHistory) Recent(_ context.Context, _ int) ([]domain.Notification, error) {
	return m.notes, m.err
}

func tokenRecord() *domain.ArtifactRecord {
	return &domain.ArtifactRecord{
		Identity: "Token",
		Deployments: domain.NewDeployments(map[string]domain.DeploymentInfo{
			"1": {Address: "0xabc", Fields: map[string]any{"address": "0xABC"}},
		}),
		SourcePath: "/contracts/Token.json",
		Raw: map[string]any{
			"contractName": "Token",
			"networks":     map[string]any{"1": map[string]any{"address": "0xABC"}},
		},
	}
}

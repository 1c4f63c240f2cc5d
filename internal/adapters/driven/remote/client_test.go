package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frods/trufflepig/internal/adapters/driven/storage/memory"
	"github.com/frods/trufflepig/internal/adapters/driving/httpapi"
	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/core/ports/driving"
	"github.com/frods/trufflepig/internal/core/services"
)

// stubCache answers from a memory index.
type stubCache struct {
	index *memory.ArtifactStore
	query *services.QueryEngine
}

func newStubCache(records ...*domain.ArtifactRecord) *stubCache {
	index := memory.NewArtifactStore()
	for _, rec := range records {
		index.Upsert("/contracts/"+rec.Identity+".json", rec)
	}
	return &stubCache{index: index, query: services.NewQueryEngine(index)}
}

func (s *stubCache) Query(criteria map[string]string) (*domain.ArtifactRecord, error) {
	return s.query.Find(criteria)
}

func (s *stubCache) Artifact(identity string) (*domain.ArtifactRecord, bool) {
	return s.index.Get(identity)
}

func (s *stubCache) ListIdentities() []string { return s.query.ListIdentities() }

func (s *stubCache) Subscribe(_ int) driving.Subscription { return nil }

func (s *stubCache) Roots() []domain.RootStatus {
	return []domain.RootStatus{{Path: "/contracts", State: domain.RootWatching, Files: s.index.Len()}}
}

func (s *stubCache) Stats() domain.CacheStats {
	return domain.CacheStats{Records: s.index.Len(), Identities: len(s.index.Identities())}
}

func (s *stubCache) Reconcile(_ context.Context) error { return nil }
func (s *stubCache) Shutdown() error                   { return nil }

type stubHistory struct {
	notes []domain.Notification
}

func (h *stubHistory) Recent(_ context.Context, limit int) ([]domain.Notification, error) {
	if limit < len(h.notes) {
		return h.notes[:limit], nil
	}
	return h.notes, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cache := newStubCache(
		&domain.ArtifactRecord{Identity: "Registry", Raw: map[string]any{"contractName": "Registry", "abi": []any{}}},
		&domain.ArtifactRecord{Identity: "Token", Raw: map[string]any{"contractName": "Token"}},
	)
	history := &stubHistory{notes: []domain.Notification{
		{ID: "n2", Kind: domain.NotifyChanged, Path: "/contracts/Token.json", Identity: "Token", Time: time.Unix(200, 0)},
		{ID: "n1", Kind: domain.NotifyAdded, Path: "/contracts/Token.json", Identity: "Token", Time: time.Unix(100, 0)},
	}}

	srv, err := httpapi.NewServer(&httpapi.Ports{Cache: cache, History: history}, domain.DefaultServerConfig())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newTestClient(t *testing.T, base string) *Client {
	t.Helper()
	c, err := NewClient(base+"/contracts", 0)
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidEndpoint(t *testing.T) {
	for _, endpoint := range []string{"", "localhost:3030", "ftp://host/contracts", "http://"} {
		_, err := NewClient(endpoint, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, endpoint)
	}
}

func TestNewClient_TrimsEndpoint(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:3030/contracts/?x=1", 0)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:3030/contracts", c.Endpoint())
}

func TestClient_ListIdentities(t *testing.T) {
	c := newTestClient(t, newTestServer(t).URL)

	ids, err := c.ListIdentities(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Registry", "Token"}, ids)
}

func TestClient_Query(t *testing.T) {
	c := newTestClient(t, newTestServer(t).URL)

	doc, found, err := c.Query(context.Background(), map[string]string{"contractName": "Registry"})

	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"contractName":"Registry","abi":[]}`, string(doc))
}

func TestClient_Query_NotFound(t *testing.T) {
	c := newTestClient(t, newTestServer(t).URL)

	doc, found, err := c.Query(context.Background(), map[string]string{"contractName": "Missing"})

	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, doc)
}

func TestClient_Query_NoCriteria(t *testing.T) {
	c := newTestClient(t, newTestServer(t).URL)

	_, _, err := c.Query(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrQuery)
}

func TestClient_Query_ServerRejects(t *testing.T) {
	c := newTestClient(t, newTestServer(t).URL)

	_, _, err := c.Query(context.Background(), map[string]string{"": "x"})

	assert.ErrorIs(t, err, domain.ErrQuery)
}

func TestClient_Status(t *testing.T) {
	c := newTestClient(t, newTestServer(t).URL)

	st, err := c.Status(context.Background())

	require.NoError(t, err)
	require.Len(t, st.Roots, 1)
	assert.Equal(t, domain.RootWatching, st.Roots[0].State)
	assert.Equal(t, 2, st.Stats.Records)
}

func TestClient_Recent(t *testing.T) {
	c := newTestClient(t, newTestServer(t).URL)

	notes, err := c.Recent(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "n2", notes[0].ID)
	assert.Equal(t, domain.NotifyChanged, notes[0].Kind)
	assert.True(t, notes[0].Time.Equal(time.Unix(200, 0)))
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`["A"]`))
	}))
	defer ts.Close()

	c, err := NewClient(ts.URL+"/contracts", 2)
	require.NoError(t, err)

	ids, err := c.ListIdentities(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, ids)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer ts.Close()

	c, err := NewClient(ts.URL+"/contracts", 0)
	require.NoError(t, err)

	_, err = c.ListIdentities(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/logger"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 1000
)

type errorResponse struct {
	Error string `json:"error"`
}

type statusResponse struct {
	Roots []domain.RootStatus `json:"roots"`
	Stats domain.CacheStats   `json:"stats"`
}

type eventResponse struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Path     string `json:"path"`
	Identity string `json:"identity,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Time     string `json:"time"`
}

// handleArtifacts answers a query, or lists identities when there is none.
func (s *Server) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	if len(params) == 0 {
		writeJSON(w, http.StatusOK, s.ports.Cache.ListIdentities())
		return
	}

	criteria := make(map[string]string, len(params))
	for field, values := range params {
		if len(values) != 1 {
			err := &domain.QueryError{Field: field, Reason: "given more than once"}
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		criteria[field] = values[0]
	}

	rec, err := s.ports.Cache.Query(criteria)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrQuery) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	if rec == nil {
		logger.Debug("Unable to find artifact matching query %s", r.URL.RawQuery)
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, rec.Raw)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Roots: s.ports.Cache.Roots(),
		Stats: s.ports.Cache.Stats(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid limit %q", raw)})
			return
		}
		limit = min(n, maxEventLimit)
	}

	out := []eventResponse{}
	if s.ports.History != nil {
		notes, err := s.ports.History.Recent(r.Context(), limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		for _, n := range notes {
			out = append(out, eventResponse{
				ID:       n.ID,
				Kind:     string(n.Kind),
				Path:     n.Path,
				Identity: n.Identity,
				Reason:   n.Reason,
				Time:     n.Time.UTC().Format(time.RFC3339Nano),
			})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Failed to write response: %v", err)
	}
}

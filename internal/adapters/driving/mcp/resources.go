package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for trufflepig resources.
const uriScheme = "trufflepig://"

// recentEventLimit bounds the events resource.
const recentEventLimit = 100

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "status",
		Name:        "status",
		Description: "Watched root directories and cache statistics",
		MIMEType:    "application/json",
	}, s.handleStatusResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "events",
		Name:        "events",
		Description: "Recent cache notifications, newest first",
		MIMEType:    "application/json",
	}, s.handleEventsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "artifacts/{identity}",
		Name:        "artifact",
		Description: "The full artifact document for an identity",
		MIMEType:    "application/json",
	}, s.handleArtifactResource)
}

func (s *Server) handleStatusResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	status := struct {
		Roots any `json:"roots"`
		Stats any `json:"stats"`
	}{
		Roots: s.ports.Cache.Roots(),
		Stats: s.ports.Cache.Stats(),
	}
	return jsonResource(req.Params.URI, status)
}

func (s *Server) handleEventsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type eventInfo struct {
		Kind     string `json:"kind"`
		Path     string `json:"path"`
		Identity string `json:"identity,omitempty"`
		Reason   string `json:"reason,omitempty"`
		Time     string `json:"time"`
	}

	infos := []eventInfo{}
	if s.ports.History != nil {
		notes, err := s.ports.History.Recent(ctx, recentEventLimit)
		if err != nil {
			return nil, fmt.Errorf("reading events: %w", err)
		}
		for _, n := range notes {
			infos = append(infos, eventInfo{
				Kind:     string(n.Kind),
				Path:     n.Path,
				Identity: n.Identity,
				Reason:   n.Reason,
				Time:     n.Time.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			})
		}
	}
	return jsonResource(req.Params.URI, infos)
}

func (s *Server) handleArtifactResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	identity := extractIdentity(req.Params.URI)
	if identity == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	rec, ok := s.ports.Cache.Artifact(identity)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(req.Params.URI, rec.Raw)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractIdentity extracts the identity from a URI like trufflepig://artifacts/{identity}.
func extractIdentity(uri string) string {
	const prefix = uriScheme + "artifacts/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	return strings.TrimPrefix(uri, prefix)
}

package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/core/services"
)

// FindArtifactInput is the input schema for the find_artifact tool.
type FindArtifactInput struct {
	Criteria map[string]any `json:"criteria" jsonschema:"field/value pairs that must all match, e.g. {\"address\": \"0xabc\"} or {\"contractName\": \"Token\"}"`
}

// FindArtifactOutput is the output schema for the find_artifact tool.
type FindArtifactOutput struct {
	Found       bool                        `json:"found"`
	Identity    string                      `json:"identity,omitempty"`
	SourcePath  string                      `json:"source_path,omitempty"`
	Deployments map[string]DeploymentOutput `json:"deployments,omitempty"`
	Document    map[string]any              `json:"document,omitempty"`
}

// DeploymentOutput is one network deployment of an artifact.
type DeploymentOutput struct {
	Address string `json:"address"`
}

// ListIdentitiesInput is the (empty) input schema for the list_identities tool.
type ListIdentitiesInput struct{}

// ListIdentitiesOutput is the output schema for the list_identities tool.
type ListIdentitiesOutput struct {
	Identities []string `json:"identities"`
	Count      int      `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_artifact",
		Description: "Find the deployed artifact whose top-level or per-network fields match every criterion",
	}, s.handleFindArtifact)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_identities",
		Description: "List the names of every artifact in the cache",
	}, s.handleListIdentities)
}

func (s *Server) handleFindArtifact(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input FindArtifactInput,
) (*mcp.CallToolResult, FindArtifactOutput, error) {
	criteria, err := services.ParseCriteria(input.Criteria)
	if err != nil {
		return nil, FindArtifactOutput{}, err
	}

	rec, err := s.ports.Cache.Query(criteria)
	if err != nil {
		return nil, FindArtifactOutput{}, err
	}
	if rec == nil {
		return nil, FindArtifactOutput{Found: false}, nil
	}

	return nil, artifactOutput(rec), nil
}

func artifactOutput(rec *domain.ArtifactRecord) FindArtifactOutput {
	out := FindArtifactOutput{
		Found:      true,
		Identity:   rec.Identity,
		SourcePath: rec.SourcePath,
		Document:   rec.Raw,
	}
	if rec.Deployments.Declared() {
		out.Deployments = make(map[string]DeploymentOutput, rec.Deployments.Len())
		rec.Deployments.Each(func(network string, info domain.DeploymentInfo) bool {
			out.Deployments[network] = DeploymentOutput{Address: info.Address}
			return true
		})
	}
	return out
}

func (s *Server) handleListIdentities(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListIdentitiesInput,
) (*mcp.CallToolResult, ListIdentitiesOutput, error) {
	ids := s.ports.Cache.ListIdentities()
	if ids == nil {
		ids = []string{}
	}
	return nil, ListIdentitiesOutput{Identities: ids, Count: len(ids)}, nil
}

// Package artifact builds artifact records from decoded documents.
package artifact

import (
	"fmt"
	"strings"

	"github.com/frods/trufflepig/internal/core/domain"
)

// AddressField is the network entry key holding the deployment address.
const AddressField = domain.AddressField

// FromDocument extracts identity and deployments from a decoded document.
// doc must be the top-level value produced by a decoder.
func FromDocument(doc any, cfg domain.ParserConfig, format string) (*domain.ArtifactRecord, error) {
	raw, ok := doc.(map[string]any)
	if !ok {
		return nil, &domain.ParseError{
			Reason: domain.ReasonMalformedDocument,
			Detail: fmt.Sprintf("top-level value is %s, want object", kindOf(doc)),
		}
	}

	identity, ok := raw[cfg.IdentityField].(string)
	if !ok || strings.TrimSpace(identity) == "" {
		return nil, &domain.ParseError{
			Reason: domain.ReasonMissingIdentity,
			Detail: fmt.Sprintf("field %q", cfg.IdentityField),
		}
	}

	deployments, err := deploymentsOf(raw[cfg.DeploymentsField], cfg.DeploymentsField)
	if err != nil {
		return nil, err
	}

	return &domain.ArtifactRecord{
		Identity:    identity,
		Deployments: deployments,
		Raw:         raw,
		Format:      format,
	}, nil
}

func deploymentsOf(v any, field string) (domain.Deployments, error) {
	if v == nil {
		return domain.NoDeployments(), nil
	}
	networks, ok := v.(map[string]any)
	if !ok {
		return domain.NoDeployments(), &domain.ParseError{
			Reason: domain.ReasonMalformedDocument,
			Detail: fmt.Sprintf("field %q is %s, want object", field, kindOf(v)),
		}
	}

	byNetwork := make(map[string]domain.DeploymentInfo, len(networks))
	for network, entry := range networks {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		address, ok := fields[AddressField].(string)
		if !ok || address == "" {
			continue
		}
		byNetwork[network] = domain.DeploymentInfo{
			Address: NormalizeAddress(address),
			Fields:  fields,
		}
	}
	return domain.NewDeployments(byNetwork), nil
}

// NormalizeAddress lower-cases and trims an address.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		return "number"
	}
}

// Package yamlartifact parses YAML build artifacts.
package yamlartifact

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/core/ports/driven"
	"github.com/frods/trufflepig/internal/parsers/artifact"
)

// Ensure Parser implements the interface.
var _ driven.ArtifactParser = (*Parser)(nil)

// Format is the parser identifier.
const Format = "yaml"

// Parser handles YAML artifacts.
type Parser struct {
	cfg domain.ParserConfig
}

// New creates a YAML parser reading the given fields.
func New(cfg domain.ParserConfig) *Parser {
	return &Parser{cfg: cfg}
}

// Format returns the parser identifier.
func (p *Parser) Format() string {
	return Format
}

// Extensions returns the file extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{".yaml", ".yml"}
}

// Parse decodes data and extracts the artifact record.
// Mapping keys are stringified so the record matches the JSON shape.
func (p *Parser) Parse(data []byte) (*domain.ArtifactRecord, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &domain.ParseError{Reason: domain.ReasonMalformedDocument, Detail: err.Error()}
	}
	return artifact.FromDocument(normalize(doc), p.cfg, Format)
}

func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	default:
		return val
	}
}

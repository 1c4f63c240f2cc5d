package parsers

import (
	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/parsers/jsonartifact"
	"github.com/frods/trufflepig/internal/parsers/yamlartifact"
)

// NewDefaultRegistry returns a registry with the JSON and YAML parsers.
// JSON is the fallback for unknown extensions.
func NewDefaultRegistry(cfg domain.ParserConfig) *Registry {
	jsonParser := jsonartifact.New(cfg)
	r := NewRegistry(jsonParser)
	r.Register(jsonParser)
	r.Register(yamlartifact.New(cfg))
	return r
}

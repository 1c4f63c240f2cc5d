package parsers

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ParserRegistry = (*Registry)(nil)

// Registry maps file extensions to artifact parsers.
// Files with an unregistered extension go to the fallback parser.
type Registry struct {
	mu       sync.RWMutex
	byExt    map[string]driven.ArtifactParser
	fallback driven.ArtifactParser
}

// NewRegistry creates a registry that uses fallback for unknown extensions.
// fallback may be nil, in which case unknown extensions are malformed.
func NewRegistry(fallback driven.ArtifactParser) *Registry {
	return &Registry{
		byExt:    make(map[string]driven.ArtifactParser),
		fallback: fallback,
	}
}

// Register adds a parser for each of its extensions.
// A later registration for the same extension replaces the earlier one.
func (r *Registry) Register(parser driven.ArtifactParser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range parser.Extensions() {
		r.byExt[strings.ToLower(ext)] = parser
	}
}

// Parse parses data with the parser for path's extension.
func (r *Registry) Parse(path string, data []byte) (*domain.ArtifactRecord, error) {
	parser := r.lookup(path)
	if parser == nil {
		return nil, &domain.ParseError{
			Reason: domain.ReasonMalformedDocument,
			Detail: "no parser for " + filepath.Ext(path),
		}
	}
	return parser.Parse(data)
}

// Extensions returns all registered extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func (r *Registry) lookup(path string) driven.ArtifactParser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.byExt[strings.ToLower(filepath.Ext(path))]; ok {
		return p
	}
	return r.fallback
}

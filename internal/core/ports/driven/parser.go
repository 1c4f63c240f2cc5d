package driven

import "github.com/frods/trufflepig/internal/core/domain"

// ArtifactParser turns raw file bytes into an artifact record.
// Implementations are pure: the same bytes always yield the same result.
type ArtifactParser interface {
	// Format returns the parser identifier (e.g., "json").
	Format() string

	// Extensions returns the file extensions this parser handles, with dot.
	Extensions() []string

	// Parse extracts identity and deployments from data.
	// SourcePath and Digest of the returned record are left empty.
	// Failures are *domain.ParseError.
	Parse(data []byte) (*domain.ArtifactRecord, error)
}

// ParserRegistry selects the parser for a file.
type ParserRegistry interface {
	// Parse parses data using the parser registered for path's extension.
	Parse(path string, data []byte) (*domain.ArtifactRecord, error)

	// Register adds a parser to the registry.
	Register(parser ArtifactParser)
}

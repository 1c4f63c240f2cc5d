// Package jsonartifact parses JSON build artifacts.
package jsonartifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/core/ports/driven"
	"github.com/frods/trufflepig/internal/parsers/artifact"
)

// Ensure Parser implements the interface.
var _ driven.ArtifactParser = (*Parser)(nil)

// Format is the parser identifier.
const Format = "json"

// Parser handles JSON artifacts such as Truffle build output.
type Parser struct {
	cfg domain.ParserConfig
}

// New creates a JSON parser reading the given fields.
func New(cfg domain.ParserConfig) *Parser {
	return &Parser{cfg: cfg}
}

// Format returns the parser identifier.
func (p *Parser) Format() string {
	return Format
}

// Extensions returns the file extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{".json"}
}

// Parse decodes data and extracts the artifact record.
// Numbers are kept as json.Number so their text survives unchanged.
func (p *Parser) Parse(data []byte) (*domain.ArtifactRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &domain.ParseError{Reason: domain.ReasonMalformedDocument, Detail: err.Error()}
	}
	// Trailing content after the document (e.g. two concatenated writes).
	if err := dec.Decode(new(json.RawMessage)); !errors.Is(err, io.EOF) {
		return nil, &domain.ParseError{Reason: domain.ReasonMalformedDocument, Detail: "trailing data after document"}
	}

	return artifact.FromDocument(doc, p.cfg, Format)
}

// Package parsers selects the artifact parser for a file.
//
// Each supported document format lives in its own subpackage and
// implements driven.ArtifactParser. All of them share the record
// extraction rules in the artifact subpackage, so a JSON and a YAML
// rendering of the same artifact produce equal records.
package parsers

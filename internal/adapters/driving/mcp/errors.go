// Package mcp provides an MCP (Model Context Protocol) server adapter for trufflepig.
// It lets AI assistants look up deployed artifacts in the cache.
package mcp

import "errors"

// ErrMissingCacheService is returned when the cache service is not provided.
var ErrMissingCacheService = errors.New("mcp: cache service is required")

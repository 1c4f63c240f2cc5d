package mcp

import (
	"github.com/frods/trufflepig/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Cache answers artifact queries.
	Cache driving.CacheService

	// History exposes recent notifications. Optional.
	History driving.EventHistory
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Cache == nil {
		return ErrMissingCacheService
	}
	return nil
}

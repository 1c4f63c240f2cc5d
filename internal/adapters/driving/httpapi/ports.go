package httpapi

import "github.com/frods/trufflepig/internal/core/ports/driving"

// Ports aggregates the driving ports the HTTP server calls.
type Ports struct {
	// Cache answers queries.
	Cache driving.CacheService

	// History backs the events route. Optional.
	History driving.EventHistory
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Cache == nil {
		return ErrMissingCacheService
	}
	return nil
}

// Package tui provides the live terminal monitor for trufflepig.
package tui

import (
	"github.com/frods/trufflepig/internal/core/ports/driving"
)

// Ports aggregates the driving ports the monitor needs.
type Ports struct {
	// Cache provides identities, artifacts, root states and notifications.
	Cache driving.CacheService

	// History seeds the feed with notifications from before the monitor
	// started. Optional.
	History driving.EventHistory
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Cache == nil {
		return ErrMissingCacheService
	}
	return nil
}

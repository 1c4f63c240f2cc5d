// Package httpapi serves the artifact cache over HTTP.
//
// Routes, relative to the configured endpoint (default /contracts):
//
//	GET /contracts?field=value...  first matching artifact document, or {}
//	GET /contracts                 sorted identity list
//	GET /contracts/_status         root states and cache statistics
//	GET /contracts/_events?limit=N recent notifications, newest first
package httpapi

import "errors"

// ErrMissingCacheService is returned when the cache service is not provided.
var ErrMissingCacheService = errors.New("httpapi: cache service is required")

package tui

import "errors"

// ErrMissingCacheService is returned when the cache service is not provided.
var ErrMissingCacheService = errors.New("tui: cache service is required")

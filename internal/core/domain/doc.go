// Package domain defines the core entities for trufflepig.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ArtifactRecord: One indexed artifact file
//   - Deployments: The per-network deployment records of an artifact
//   - FileEvent: A debounced filesystem change from the watch source
//   - Notification: A lifecycle event published by the cache
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

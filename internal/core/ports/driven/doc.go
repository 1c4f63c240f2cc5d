// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the cache to function:
//
//   - ArtifactParser: Extracts identity and deployments from file bytes
//   - ParserRegistry: Selects the parser for a file
//   - WatchSource: Scans and watches directory trees
//   - ArtifactIndex: Concurrency-safe record storage
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EventJournal: Notification history. Without it, /_events is empty.
//   - ConfigStore: Persistent settings. Without it, flags and defaults apply.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or parser package
package driven

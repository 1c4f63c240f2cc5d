// Package driving defines what the CLI, HTTP, MCP and TUI adapters may
// ask of the core: cache lookups and subscriptions, notification
// history, and settings.
//
// Implementations live in internal/core/services.
package driving

// Package services holds the artifact cache and the use cases built on it.
//
// ArtifactCache owns the root lifecycle and applies file events to the
// index. QueryEngine answers criteria lookups, Notifier fans lifecycle
// events out to subscribers, JournalRecorder copies them into an event
// journal, and SettingsService resolves stored settings over defaults.
//
// Services depend only on domain and the port interfaces; adapters are
// injected by the CLI.
package services

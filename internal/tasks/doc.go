// Package tasks orchestrates bulk journal operations with real-time progress reporting.
//
// # Core Operations
//
// [ExportEngine.BulkExport] writes saved readings to disk:
//   - Loads each requested entry from the journal (or all entries)
//   - Fans entries out to a bounded worker pool
//   - Writes per-entry files in the chosen format (json, markdown, txt)
//     or a single CSV index for the csv format
//   - Generates a manifest summarizing successes and failures
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Implementation
//
// [ExportEngine] depends on:
//   - [EntrySource] : the journal repository, abstracted for testing
//   - formatter : file writers for each export format
package tasks

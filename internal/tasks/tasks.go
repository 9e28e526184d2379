// package tasks implements long-running journal operations.
//
// The core abstraction is ExportEngine, which writes saved readings out to
// disk in bulk. Operations emit progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"github.com/arcanaworks/arcana/internal/journal"
)

// EntryExportJob is one journal entry queued for export.
type EntryExportJob struct {
	EntryID string
	Entry   *journal.Entry
}

// EntryExportResult represents the outcome of exporting a single entry.
type EntryExportResult struct {
	EntryID  string   // Journal entry ID
	Sequence int      // Entry sequence number (0 if the entry never loaded)
	Success  bool     // Whether the export succeeded
	Files    []string // Files written for this entry
	Error    error    // Error if the export failed
}

// BulkExportResult contains all data from a bulk export operation.
type BulkExportResult struct {
	TotalEntries      int                 // Entries requested
	SuccessfulExports int                 // Entries written without error
	FailedExports     int                 // Entries that failed
	OutputDirectory   string              // Base directory files were written under
	ManifestPath      string              // Path of the manifest file
	Results           []EntryExportResult // Individual entry results
}

// EntrySource supplies journal entries to the export engine. Satisfied by
// journal.Repository; tests substitute an in-memory source.
type EntrySource interface {
	Get(id string) (*journal.Entry, error)
	List(limit int) ([]journal.Entry, error)
}

// ExportEngine writes saved readings to disk in bulk.
type ExportEngine struct {
	source EntrySource
}

// NewExportEngine creates an ExportEngine over the provided entry source.
func NewExportEngine(source EntrySource) *ExportEngine {
	return &ExportEngine{source: source}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *ExportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

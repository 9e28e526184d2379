package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchEntries Phase = iota
	ExportEntry
)

func (p Phase) String() string {
	switch p {
	case FetchEntries:
		return "fetch_entries"
	case ExportEntry:
		return "export_entry"
	default:
		return ""
	}
}

func fetchEntriesUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchEntries,
		Step:    step,
		Total:   total,
		Message: "Loading journal entries...",
	}
}

func exportingEntryUpdate(step, total, sequence int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportEntry,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting reading #%d...", step, total, sequence),
	}
}

func exportCompletedUpdate(step, total, sequence, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportEntry,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ reading #%d (%d files)", step, total, sequence, filesCount),
	}
}

func exportFailedUpdate(step, total int, entryID string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportEntry,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, entryID, err),
	}
}

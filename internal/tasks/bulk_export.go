package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/arcanaworks/arcana/internal/formatter"
	"github.com/arcanaworks/arcana/internal/journal"
	"github.com/arcanaworks/arcana/internal/shared"
)

// BulkExportOpts contains configuration for bulk journal exports.
type BulkExportOpts struct {
	Format     string // Export format: json, csv, markdown, txt
	OutputDir  string // Base output directory (default: journal_export_{epoch})
	NumWorkers int    // Concurrent workers (default: 4)
}

// BulkExport exports journal entries concurrently with progress tracking.
//
// This method implements a worker pool pattern to export many readings at
// once. It handles partial failures gracefully and generates a manifest file
// summarizing the export results. An empty ids slice exports every entry.
func (e *ExportEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	ids []string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: journal not initialized", shared.ErrStorageUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("journal_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}

	if len(ids) == 0 {
		entries, err := e.source.List(0)
		if err != nil {
			return nil, fmt.Errorf("failed to list journal entries: %w", err)
		}
		for _, entry := range entries {
			ids = append(ids, entry.ID)
		}
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalEntries:    len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]EntryExportResult, 0, len(ids)),
	}

	// The CSV format is a single index file, not per-entry files.
	if opts.Format == "csv" {
		return e.exportCSVIndex(prog, ids, opts, result)
	}

	jobs := make(chan EntryExportJob, len(ids))
	results := make(chan EntryExportResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		e.sendProgress(prog, fetchEntriesUpdate(1, len(ids)))
		for i, entryID := range ids {
			select {
			case <-ctx.Done():
				close(jobs)
				return
			default:
			}

			entry, err := e.source.Get(entryID)
			if err != nil {
				results <- EntryExportResult{
					EntryID: entryID,
					Success: false,
					Error:   fmt.Errorf("failed to load entry: %w", err),
				}
				continue
			}

			jobs <- EntryExportJob{
				EntryID: entryID,
				Entry:   entry,
			}

			e.sendProgress(prog, exportingEntryUpdate(i+1, len(ids), entry.Sequence))
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(
				completed,
				len(ids),
				res.Sequence,
				len(res.Files),
			))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(
				completed,
				len(ids),
				res.EntryID,
				res.Error,
			))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteExportManifest(buildManifest(result, opts.Format), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportCSVIndex writes all requested entries into one CSV index file.
func (e *ExportEngine) exportCSVIndex(
	prog chan<- ProgressUpdate,
	ids []string,
	opts BulkExportOpts,
	result *BulkExportResult,
) (*BulkExportResult, error) {
	var failed []EntryExportResult
	var entries []journal.Entry

	for i, entryID := range ids {
		entry, err := e.source.Get(entryID)
		if err != nil {
			failed = append(failed, EntryExportResult{EntryID: entryID, Error: fmt.Errorf("failed to load entry: %w", err)})
			continue
		}
		entries = append(entries, *entry)
		e.sendProgress(prog, exportingEntryUpdate(i+1, len(ids), entry.Sequence))
	}

	indexPath := filepath.Join(opts.OutputDir, "journal_index.csv")
	written, err := formatter.WriteCSVIndex(entries, indexPath)
	if err != nil {
		return result, fmt.Errorf("CSV export failed: %w", err)
	}

	for _, entry := range entries {
		result.Results = append(result.Results, EntryExportResult{
			EntryID:  entry.ID,
			Sequence: entry.Sequence,
			Success:  true,
			Files:    []string{written},
		})
		result.SuccessfulExports++
	}
	for _, fail := range failed {
		result.Results = append(result.Results, fail)
		result.FailedExports++
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteExportManifest(buildManifest(result, opts.Format), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that exports entries from the jobs channel.
func (e *ExportEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan EntryExportJob,
	results chan<- EntryExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res := e.exportSingleEntry(job, opts)
		results <- res
	}
}

// exportSingleEntry exports a single journal entry to the appropriate format.
func (e *ExportEngine) exportSingleEntry(
	j EntryExportJob,
	opts BulkExportOpts,
) EntryExportResult {
	result := EntryExportResult{
		EntryID:  j.EntryID,
		Sequence: j.Entry.Sequence,
		Success:  false,
		Files:    []string{},
	}

	switch opts.Format {
	case "markdown":
		outputDir := filepath.Join(opts.OutputDir, j.Entry.ID)
		mdRes, err := formatter.WriteMarkdownExport(j.Entry, outputDir)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = mdRes.Files
		result.Success = true

	case "txt":
		txtPath := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_reading.txt", j.Entry.ID))
		written, err := formatter.WriteTextExport(j.Entry, txtPath)
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{written}
		result.Success = true

	case "json":
		fallthrough
	default:
		jsonPath := filepath.Join(opts.OutputDir, fmt.Sprintf("%s.json", j.Entry.ID))
		data, err := shared.MarshalJSON(j.Entry, true)
		if err != nil {
			result.Error = fmt.Errorf("JSON marshal failed: %w", err)
			return result
		}
		if err := os.WriteFile(jsonPath, data, 0644); err != nil {
			result.Error = fmt.Errorf("JSON write failed: %w", err)
			return result
		}
		result.Files = []string{jsonPath}
		result.Success = true
	}
	return result
}

// buildManifest converts a bulk result into the formatter's manifest shape.
func buildManifest(result *BulkExportResult, format string) *formatter.ExportManifest {
	manifest := &formatter.ExportManifest{
		Format:          format,
		GeneratedAt:     time.Now().UTC(),
		TotalEntries:    result.TotalEntries,
		Successful:      result.SuccessfulExports,
		Failed:          result.FailedExports,
		OutputDirectory: result.OutputDirectory,
	}
	for _, res := range result.Results {
		item := formatter.ManifestEntry{
			ID:       res.EntryID,
			Sequence: res.Sequence,
			Success:  res.Success,
			Files:    res.Files,
		}
		if res.Error != nil {
			item.Error = res.Error.Error()
		}
		manifest.Entries = append(manifest.Entries, item)
	}
	return manifest
}

package tasks_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arcanaworks/arcana/internal/formatter"
	"github.com/arcanaworks/arcana/internal/journal"
	"github.com/arcanaworks/arcana/internal/models"
	"github.com/arcanaworks/arcana/internal/tasks"
)

// memorySource is an in-memory tasks.EntrySource.
type memorySource struct {
	entries map[string]journal.Entry
	order   []string
}

func newMemorySource(count int) *memorySource {
	src := &memorySource{entries: map[string]journal.Entry{}}
	for i := 1; i <= count; i++ {
		id := fmt.Sprintf("entry-%d", i)
		src.entries[id] = journal.Entry{
			ID:        id,
			Sequence:  i,
			SpreadKey: "threeCard",
			Question:  "What awaits me?",
			Cards: []models.DrawnCard{
				{Card: models.Card{Key: "major_00_fool", Name: "The Fool"}, Position: 1, Orientation: models.Upright},
			},
			Narrative: fmt.Sprintf("Narrative for reading %d.", i),
			CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
		}
		src.order = append(src.order, id)
	}
	return src
}

func (s *memorySource) Get(id string) (*journal.Entry, error) {
	entry, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("entry %s not found", id)
	}
	return &entry, nil
}

func (s *memorySource) List(int) ([]journal.Entry, error) {
	var out []journal.Entry
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	return out, nil
}

func readManifest(t *testing.T, path string) *formatter.ExportManifest {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var manifest formatter.ExportManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	return &manifest
}

func TestBulkExport(t *testing.T) {
	ctx := context.Background()

	t.Run("JSONFormat", func(t *testing.T) {
		src := newMemorySource(5)
		engine := tasks.NewExportEngine(src)
		dir := filepath.Join(t.TempDir(), "export")

		result, err := engine.BulkExport(ctx, nil, nil, tasks.BulkExportOpts{
			Format:    "json",
			OutputDir: dir,
		})
		if err != nil {
			t.Fatalf("BulkExport: %v", err)
		}
		if result.TotalEntries != 5 || result.SuccessfulExports != 5 || result.FailedExports != 0 {
			t.Errorf("result = %+v", result)
		}

		for i := 1; i <= 5; i++ {
			path := filepath.Join(dir, fmt.Sprintf("entry-%d.json", i))
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("missing export: %v", err)
			}
			var entry journal.Entry
			if err := json.Unmarshal(data, &entry); err != nil {
				t.Errorf("entry-%d.json does not parse: %v", i, err)
			}
		}

		manifest := readManifest(t, result.ManifestPath)
		if manifest.Format != "json" || manifest.Successful != 5 || len(manifest.Entries) != 5 {
			t.Errorf("manifest = %+v", manifest)
		}
	})

	t.Run("MarkdownFormat", func(t *testing.T) {
		src := newMemorySource(2)
		engine := tasks.NewExportEngine(src)
		dir := filepath.Join(t.TempDir(), "export")

		result, err := engine.BulkExport(ctx, nil, []string{"entry-1", "entry-2"}, tasks.BulkExportOpts{
			Format:    "markdown",
			OutputDir: dir,
		})
		if err != nil {
			t.Fatalf("BulkExport: %v", err)
		}
		if result.SuccessfulExports != 2 {
			t.Errorf("result = %+v", result)
		}
		for _, id := range []string{"entry-1", "entry-2"} {
			for _, name := range []string{"README.md", "metadata.json"} {
				if _, err := os.Stat(filepath.Join(dir, id, name)); err != nil {
					t.Errorf("missing %s/%s: %v", id, name, err)
				}
			}
		}
	})

	t.Run("TxtFormat", func(t *testing.T) {
		src := newMemorySource(1)
		engine := tasks.NewExportEngine(src)
		dir := filepath.Join(t.TempDir(), "export")

		if _, err := engine.BulkExport(ctx, nil, []string{"entry-1"}, tasks.BulkExportOpts{
			Format:    "txt",
			OutputDir: dir,
		}); err != nil {
			t.Fatalf("BulkExport: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "entry-1_reading.txt")); err != nil {
			t.Errorf("missing text export: %v", err)
		}
	})

	t.Run("CSVFormatIsOneIndex", func(t *testing.T) {
		src := newMemorySource(3)
		engine := tasks.NewExportEngine(src)
		dir := filepath.Join(t.TempDir(), "export")

		result, err := engine.BulkExport(ctx, nil, nil, tasks.BulkExportOpts{
			Format:    "csv",
			OutputDir: dir,
		})
		if err != nil {
			t.Fatalf("BulkExport: %v", err)
		}
		if result.SuccessfulExports != 3 {
			t.Errorf("result = %+v", result)
		}
		if _, err := os.Stat(filepath.Join(dir, "journal_index.csv")); err != nil {
			t.Errorf("missing CSV index: %v", err)
		}
		if _, err := os.Stat(result.ManifestPath); err != nil {
			t.Errorf("missing manifest: %v", err)
		}
	})

	t.Run("MissingEntriesAreReported", func(t *testing.T) {
		src := newMemorySource(2)
		engine := tasks.NewExportEngine(src)
		dir := filepath.Join(t.TempDir(), "export")

		result, err := engine.BulkExport(ctx, nil, []string{"entry-1", "entry-404", "entry-2"}, tasks.BulkExportOpts{
			Format:    "json",
			OutputDir: dir,
		})
		if err != nil {
			t.Fatalf("BulkExport: %v", err)
		}
		if result.TotalEntries != 3 || result.SuccessfulExports != 2 || result.FailedExports != 1 {
			t.Errorf("result = %+v", result)
		}

		manifest := readManifest(t, result.ManifestPath)
		var failedEntry *formatter.ManifestEntry
		for i := range manifest.Entries {
			if !manifest.Entries[i].Success {
				failedEntry = &manifest.Entries[i]
			}
		}
		if failedEntry == nil || failedEntry.ID != "entry-404" || failedEntry.Error == "" {
			t.Errorf("failed manifest entry = %+v", failedEntry)
		}
	})

	t.Run("ProgressNeverBlocks", func(t *testing.T) {
		src := newMemorySource(10)
		engine := tasks.NewExportEngine(src)
		dir := filepath.Join(t.TempDir(), "export")

		// An unbuffered channel nobody reads: every send must be dropped
		// rather than stalling the export.
		progress := make(chan tasks.ProgressUpdate)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if _, err := engine.BulkExport(ctx, progress, nil, tasks.BulkExportOpts{
				Format:    "json",
				OutputDir: dir,
			}); err != nil {
				t.Errorf("BulkExport: %v", err)
			}
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("export blocked on an unread progress channel")
		}
	})

	t.Run("ProgressUpdatesArrive", func(t *testing.T) {
		src := newMemorySource(3)
		engine := tasks.NewExportEngine(src)
		dir := filepath.Join(t.TempDir(), "export")

		progress := make(chan tasks.ProgressUpdate, 64)
		if _, err := engine.BulkExport(ctx, progress, nil, tasks.BulkExportOpts{
			Format:    "json",
			OutputDir: dir,
		}); err != nil {
			t.Fatalf("BulkExport: %v", err)
		}
		close(progress)

		var sawExport bool
		for update := range progress {
			if update.Phase == tasks.ExportEntry && update.Message != "" {
				sawExport = true
			}
		}
		if !sawExport {
			t.Error("no export progress updates arrived")
		}
	})

	t.Run("WorkerCountClamped", func(t *testing.T) {
		src := newMemorySource(2)
		engine := tasks.NewExportEngine(src)
		dir := filepath.Join(t.TempDir(), "export")

		// 0 and 100 both fall back to sane pool sizes; the export still
		// completes correctly either way.
		for _, workers := range []int{0, 100} {
			result, err := engine.BulkExport(ctx, nil, nil, tasks.BulkExportOpts{
				Format:     "json",
				OutputDir:  filepath.Join(dir, fmt.Sprintf("w%d", workers)),
				NumWorkers: workers,
			})
			if err != nil {
				t.Fatalf("BulkExport(workers=%d): %v", workers, err)
			}
			if result.SuccessfulExports != 2 {
				t.Errorf("workers=%d: result = %+v", workers, result)
			}
		}
	})

	t.Run("NilSource", func(t *testing.T) {
		engine := tasks.NewExportEngine(nil)
		if _, err := engine.BulkExport(ctx, nil, nil, tasks.BulkExportOpts{}); err == nil {
			t.Error("expected an error without a journal source")
		}
	})
}

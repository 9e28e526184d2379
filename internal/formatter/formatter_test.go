package formatter_test

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/arcanaworks/arcana/internal/formatter"
	"github.com/arcanaworks/arcana/internal/journal"
	"github.com/arcanaworks/arcana/internal/models"
)

func sampleEntry() *journal.Entry {
	return &journal.Entry{
		ID:        "entry-1",
		Sequence:  3,
		SpreadKey: "threeCard",
		Question:  "What awaits me?",
		Cards: []models.DrawnCard{
			{Card: models.Card{Key: "major_00_fool", Name: "The Fool"}, Position: 1, Orientation: models.Upright},
			{Card: models.Card{Key: "major_13_death", Name: "Death"}, Position: 2, Orientation: models.Reversed},
			{Card: models.Card{Key: "major_17_star", Name: "The Star"}, Position: 3, Orientation: models.Upright},
		},
		Narrative: "The cards speak of endings and beginnings.",
		Provider:  "aurora",
		RequestID: "req-1",
		CreatedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestExportToCSV(t *testing.T) {
	entry := sampleEntry()
	data, err := formatter.ExportToCSV([]journal.Entry{*entry})
	if err != nil {
		t.Fatalf("ExportToCSV: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("parse CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d rows, want header + 1", len(records))
	}
	if records[0][0] != "ID" || records[0][6] != "Words" {
		t.Errorf("header = %v", records[0])
	}
	row := records[1]
	if row[0] != "entry-1" || row[1] != "3" || row[2] != "2026-03-14" || row[3] != "threeCard" {
		t.Errorf("row = %v", row)
	}
	if !strings.Contains(row[5], "Death (rev)") {
		t.Errorf("cards cell = %q, want reversed marker", row[5])
	}
	if row[6] != "7" {
		t.Errorf("word count = %q, want 7", row[6])
	}
}

func TestExportToMarkdown(t *testing.T) {
	data, err := formatter.ExportToMarkdown(sampleEntry())
	if err != nil {
		t.Fatalf("ExportToMarkdown: %v", err)
	}
	text := string(data)

	for _, want := range []string{
		"# Reading 3: Past, Present, Future",
		"**Drawn**: March 14, 2026",
		"**Question**: What awaits me?",
		"## Cards",
		"1. **Past**: The Fool",
		"2. **Present**: Death (reversed)",
		"## Narrative",
		"The cards speak of endings and beginnings.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestExportToMarkdownUnknownSpread(t *testing.T) {
	entry := sampleEntry()
	entry.SpreadKey = "bespoke"
	data, err := formatter.ExportToMarkdown(entry)
	if err != nil {
		t.Fatalf("ExportToMarkdown: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "# Reading 3: bespoke") {
		t.Error("unknown spread should fall back to its key as the title")
	}
	if !strings.Contains(text, "**Position 1**") {
		t.Error("unknown spread should fall back to numbered position labels")
	}
}

func TestExportToText(t *testing.T) {
	data, err := formatter.ExportToText(sampleEntry())
	if err != nil {
		t.Fatalf("ExportToText: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"Reading 3 (2026-03-14)",
		"Spread: Past, Present, Future",
		"Question: What awaits me?",
		"2. Death (reversed)",
		"The cards speak of endings and beginnings.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q", want)
		}
	}
}

func TestToMetadataJSON(t *testing.T) {
	data, err := formatter.ToMetadataJSON(sampleEntry())
	if err != nil {
		t.Fatalf("ToMetadataJSON: %v", err)
	}
	var decoded journal.Entry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("parse metadata: %v", err)
	}
	if decoded.Narrative != "" {
		t.Error("metadata must not carry the narrative text")
	}
	if decoded.ID != "entry-1" || len(decoded.Cards) != 3 {
		t.Errorf("metadata = %+v", decoded)
	}
}

func TestWriteMarkdownExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "entry-1")
	result, err := formatter.WriteMarkdownExport(sampleEntry(), dir)
	if err != nil {
		t.Fatalf("WriteMarkdownExport: %v", err)
	}
	if result.Directory != dir || len(result.Files) != 2 {
		t.Errorf("result = %+v", result)
	}
	for _, name := range []string{"README.md", "metadata.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestWriteTextExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reading.txt")
	got, err := formatter.WriteTextExport(sampleEntry(), path)
	if err != nil {
		t.Fatalf("WriteTextExport: %v", err)
	}
	if got != path {
		t.Errorf("returned path = %q", got)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "Reading 3") {
		t.Errorf("export contents = %q", data)
	}
}

func TestWriteCSVIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.csv")
	if _, err := formatter.WriteCSVIndex([]journal.Entry{*sampleEntry()}, path); err != nil {
		t.Fatalf("WriteCSVIndex: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if !strings.HasPrefix(string(data), "ID,Sequence,Date") {
		t.Errorf("index contents = %q", data)
	}
}

func TestWriteExportManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export_manifest.json")
	manifest := &formatter.ExportManifest{
		Format:       "markdown",
		GeneratedAt:  time.Now().UTC(),
		TotalEntries: 2,
		Successful:   1,
		Failed:       1,
		Entries: []formatter.ManifestEntry{
			{ID: "entry-1", Sequence: 3, Success: true, Files: []string{"entry-1/README.md"}},
			{ID: "entry-2", Success: false, Error: "journal entry not found"},
		},
	}
	if err := formatter.WriteExportManifest(manifest, path); err != nil {
		t.Fatalf("WriteExportManifest: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var decoded formatter.ExportManifest
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	if decoded.TotalEntries != 2 || decoded.Failed != 1 || len(decoded.Entries) != 2 {
		t.Errorf("manifest = %+v", decoded)
	}
}

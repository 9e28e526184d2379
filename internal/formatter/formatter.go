// package formatter provides functions to export journal entries to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arcanaworks/arcana/internal/journal"
	"github.com/arcanaworks/arcana/internal/models"
	"github.com/arcanaworks/arcana/internal/shared"
)

// ExportToCSV converts journal entries to a CSV index with columns: ID, Sequence, Date, Spread, Question, Cards, Words
func ExportToCSV(entries []journal.Entry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Sequence", "Date", "Spread", "Question", "Cards", "Words"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range entries {
		record := []string{
			entry.ID,
			strconv.Itoa(entry.Sequence),
			entry.CreatedAt.Format("2006-01-02"),
			entry.SpreadKey,
			entry.Question,
			cardSummary(entry.Cards),
			strconv.Itoa(len(strings.Fields(entry.Narrative))),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a journal entry to Markdown format
func ExportToMarkdown(entry *journal.Entry) ([]byte, error) {
	var buf bytes.Buffer

	spread, _ := models.SpreadByKey(entry.SpreadKey)
	title := spread.Name
	if title == "" {
		title = entry.SpreadKey
	}

	buf.WriteString(fmt.Sprintf("# Reading %d: %s\n\n", entry.Sequence, title))
	buf.WriteString(fmt.Sprintf("**Drawn**: %s\n", entry.CreatedAt.Format("January 2, 2006")))
	if entry.Question != "" {
		buf.WriteString(fmt.Sprintf("**Question**: %s\n", entry.Question))
	}
	buf.WriteString("\n## Cards\n\n")

	for _, card := range entry.Cards {
		label := spread.PositionLabel(card.Position)
		if label == "" {
			label = fmt.Sprintf("Position %d", card.Position)
		}
		orientation := ""
		if card.Orientation == models.Reversed {
			orientation = " (reversed)"
		}
		buf.WriteString(fmt.Sprintf("%d. **%s**: %s%s\n", card.Position, label, card.Name, orientation))
	}

	buf.WriteString("\n## Narrative\n\n")
	buf.WriteString(entry.Narrative)
	buf.WriteString("\n")

	return buf.Bytes(), nil
}

// ExportToText converts a journal entry to plain text format
func ExportToText(entry *journal.Entry) ([]byte, error) {
	var buf bytes.Buffer

	spread, _ := models.SpreadByKey(entry.SpreadKey)
	buf.WriteString(fmt.Sprintf("Reading %d (%s)\n", entry.Sequence, entry.CreatedAt.Format("2006-01-02")))
	if spread.Name != "" {
		buf.WriteString(fmt.Sprintf("Spread: %s\n", spread.Name))
	}
	if entry.Question != "" {
		buf.WriteString(fmt.Sprintf("Question: %s\n", entry.Question))
	}
	buf.WriteString("\n")

	for _, card := range entry.Cards {
		orientation := ""
		if card.Orientation == models.Reversed {
			orientation = " (reversed)"
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s\n", card.Position, card.Name, orientation))
	}

	buf.WriteString("\n")
	buf.WriteString(entry.Narrative)
	buf.WriteString("\n")

	return buf.Bytes(), nil
}

// cardSummary joins card names into a single cell value.
func cardSummary(cards []models.DrawnCard) string {
	names := make([]string, len(cards))
	for i, card := range cards {
		names[i] = card.Name
		if card.Orientation == models.Reversed {
			names[i] += " (rev)"
		}
	}
	return strings.Join(names, "; ")
}

// ToMetadataJSON generates a JSON representation of an entry without its narrative
func ToMetadataJSON(entry *journal.Entry) ([]byte, error) {
	metadata := *entry
	metadata.Narrative = ""
	return shared.MarshalJSON(metadata, true)
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
}

// WriteMarkdownExport exports a journal entry to Markdown format in a dedicated directory.
//
// Directory name defaults to the entry ID.
// Creates a directory structure: {dir}/README.md and {dir}/metadata.json
func WriteMarkdownExport(entry *journal.Entry, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = entry.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	mdData, err := ExportToMarkdown(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := fmt.Sprintf("%s/README.md", outputDir)
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)

	metadataJSON, err := ToMetadataJSON(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := fmt.Sprintf("%s/metadata.json", outputDir)
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}
	result.Files = append(result.Files, metadataFile)

	return result, nil
}

// WriteTextExport exports a journal entry to plain text format.
//
// Defaults to {entry.ID}_reading.txt as the filename.
func WriteTextExport(entry *journal.Entry, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_reading.txt", entry.ID)
	}

	textData, err := ExportToText(entry)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}

// ExportManifest summarizes a bulk export for the manifest file written
// alongside the exported entries.
type ExportManifest struct {
	Format          string          `json:"format"`
	GeneratedAt     time.Time       `json:"generated_at"`
	TotalEntries    int             `json:"total_entries"`
	Successful      int             `json:"successful"`
	Failed          int             `json:"failed"`
	OutputDirectory string          `json:"output_directory"`
	Entries         []ManifestEntry `json:"entries"`
}

// ManifestEntry records the outcome for one exported entry.
type ManifestEntry struct {
	ID       string   `json:"id"`
	Sequence int      `json:"sequence,omitempty"`
	Success  bool     `json:"success"`
	Files    []string `json:"files,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// WriteExportManifest writes the bulk export manifest as pretty JSON.
func WriteExportManifest(manifest *ExportManifest, filepath string) error {
	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	return nil
}

// WriteCSVIndex exports a CSV index of journal entries.
//
// Defaults to journal_index.csv as the filename.
func WriteCSVIndex(entries []journal.Entry, filepath string) (string, error) {
	if filepath == "" {
		filepath = "journal_index.csv"
	}

	csvData, err := ExportToCSV(entries)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(filepath, csvData, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return filepath, nil
}

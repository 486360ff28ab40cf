// package formatter writes the intermediate export artifacts (JSON snapshot,
// missing-tracks report) and renders run summaries for the terminal.
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/shared"
)

// SnapshotTimeLayout names snapshot files by their UTC parse time.
const SnapshotTimeLayout = "2006-01-02_15-04-05Z"

// SnapshotFilename returns the snapshot name for the given timestamp,
// e.g. playlist_export_2026-08-31_12-00-00Z.json.
func SnapshotFilename(at time.Time) string {
	return fmt.Sprintf("playlist_export_%s.json", at.UTC().Format(SnapshotTimeLayout))
}

// WriteSnapshot persists the parsed batch as a timestamped JSON file in dir
// and returns the written path. The snapshot is a faithful record of what was
// parsed, independent of whether the upload succeeds.
func WriteSnapshot(batch *models.ExportBatch, dir string) (string, error) {
	if batch == nil {
		return "", fmt.Errorf("%w: nil batch", shared.ErrInvalidInput)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	at := batch.Meta.ParsedAt
	if at.IsZero() {
		at = time.Now()
	}
	path := filepath.Join(dir, SnapshotFilename(at))

	data, err := shared.MarshalJSON(batch, true)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot previously written by WriteSnapshot.
func LoadSnapshot(path string) (*models.ExportBatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var batch models.ExportBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	return &batch, nil
}

// WriteMissingTracks writes one CSV row per unresolved track across the run,
// with columns playlist, title, artist, reason. Returns false when there was
// nothing to report and no file was written.
func WriteMissingTracks(results []models.UploadResult, path string) (bool, error) {
	var rows [][]string
	for _, result := range results {
		for _, failure := range result.TrackFailures {
			rows = append(rows, []string{result.PlaylistName, failure.Title, failure.Artist, failure.Reason})
		}
	}
	if len(rows) == 0 {
		return false, nil
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{"playlist", "title", "artist", "reason"}); err != nil {
		return false, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return false, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return false, fmt.Errorf("CSV writer error: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return false, fmt.Errorf("failed to create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return false, fmt.Errorf("failed to write missing tracks report: %w", err)
	}
	return true, nil
}

// styles holds the [lipgloss.Style] set shared by the render functions.
var styles = struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}{
	title: fgStyle("#7D56F4").Bold(true).MarginBottom(1),
	ok:    fgStyle("#04B575").Bold(true),
	err:   fgStyle("#FF0000").Bold(true),
	warn:  fgStyle("#FFA500"),
	help:  fgStyle("#626262").Italic(true),
}

func fgStyle(hex string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
}

// RenderParseSummary describes a parsed batch before upload.
func RenderParseSummary(batch *models.ExportBatch) string {
	var buf bytes.Buffer
	buf.WriteString(styles.title.Render(fmt.Sprintf("Parsed %s", batch.Meta.SourceFile)))
	buf.WriteString("\n")
	buf.WriteString(fmt.Sprintf("Encoding:  %s", batch.Meta.Encoding))
	if batch.Meta.Replaced {
		buf.WriteString(styles.warn.Render(" (invalid bytes replaced)"))
	}
	buf.WriteString("\n")
	buf.WriteString(fmt.Sprintf("Playlists: %d\n", len(batch.Playlists)))
	buf.WriteString(fmt.Sprintf("Tracks:    %d\n", batch.TrackCount()))
	if batch.Meta.SkippedRows > 0 {
		buf.WriteString(styles.warn.Render(fmt.Sprintf("Skipped:   %d rows", batch.Meta.SkippedRows)))
		buf.WriteString("\n")
	}
	for _, playlist := range batch.Playlists {
		buf.WriteString(fmt.Sprintf("  %s (%d tracks)\n", playlist.Name, len(playlist.Tracks)))
	}
	return buf.String()
}

// RenderUploadSummary renders per-playlist outcomes and run totals.
func RenderUploadSummary(results []models.UploadResult, summary models.UploadSummary) string {
	var buf bytes.Buffer
	buf.WriteString(styles.title.Render("Upload summary"))
	buf.WriteString("\n")

	for _, result := range results {
		line := fmt.Sprintf("%s: %s", result.PlaylistName, result.Status)
		switch result.Status {
		case models.StatusUploaded:
			buf.WriteString(styles.ok.Render(line))
		case models.StatusPartiallyUploaded:
			buf.WriteString(styles.warn.Render(fmt.Sprintf("%s (%d added, %d missing)", line, result.TracksAdded, len(result.TrackFailures))))
		case models.StatusSkipped:
			buf.WriteString(styles.help.Render(line))
		default:
			reason := result.Reason
			if reason == "" {
				reason = "unknown"
			}
			buf.WriteString(styles.err.Render(fmt.Sprintf("%s (%s)", line, reason)))
		}
		buf.WriteString("\n")
	}

	buf.WriteString("\n")
	buf.WriteString(fmt.Sprintf("Uploaded: %d  Partial: %d  Skipped: %d  Failed: %d\n",
		summary.Uploaded, summary.Partial, summary.Skipped, summary.Failed))
	if summary.RateEvents > 0 {
		buf.WriteString(styles.warn.Render(fmt.Sprintf("Rate limit events: %d", summary.RateEvents)))
		buf.WriteString("\n")
	}
	if summary.StopReason != "" {
		buf.WriteString(styles.err.Render(summary.StopReason))
		buf.WriteString("\n")
	}
	if summary.Elapsed > 0 {
		buf.WriteString(styles.help.Render(fmt.Sprintf("Elapsed: %s", summary.Elapsed.Round(time.Millisecond))))
		buf.WriteString("\n")
	}
	return buf.String()
}

package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/shared"
)

// DefaultDelimiter is used when neither an override nor a configured
// delimiter is supplied. The parser never sniffs delimiters.
const DefaultDelimiter = ";"

// ColumnLabels maps logical track fields to header labels in the export file.
// Matching is case-insensitive; unknown columns are ignored.
type ColumnLabels struct {
	Playlist string
	Title    string
	Artist   string
	Album    string
	Duration string
}

// DefaultColumns returns the header labels the original export tool writes.
func DefaultColumns() ColumnLabels {
	return ColumnLabels{
		Playlist: "playlist",
		Title:    "title",
		Artist:   "artist",
		Album:    "album",
		Duration: "duration",
	}
}

// Options configures a parse run.
type Options struct {
	Delimiter string       // override; empty means DefaultDelimiter
	Columns   ColumnLabels // zero value means DefaultColumns
}

// schema holds the resolved column index for each field, -1 when absent.
type schema struct {
	playlist int
	title    int
	artist   int
	album    int
	duration int
}

// Parse reads the export file at path into a fully materialized ExportBatch.
//
// Fails with an error wrapping [shared.ErrIngestion] when the file cannot be
// read, the header lacks the playlist or title column, or no usable rows
// remain after skipping malformed ones.
func Parse(path string, opts Options) (*models.ExportBatch, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrIngestion, err)
	}

	delimiter := opts.Delimiter
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	if utf8.RuneCountInString(delimiter) != 1 {
		return nil, fmt.Errorf("%w: delimiter must be a single character, got %q", shared.ErrInvalidFlag, delimiter)
	}

	columns := opts.Columns
	if columns == (ColumnLabels{}) {
		columns = DefaultColumns()
	}

	decoded := decodeBytes(buf)

	reader := csv.NewReader(strings.NewReader(decoded.Text))
	comma, _ := utf8.DecodeRuneInString(delimiter)
	reader.Comma = comma
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrIngestion, shared.ErrEmptyExport)
	}

	sch, err := resolveSchema(header, columns)
	if err != nil {
		return nil, err
	}

	batch := &models.ExportBatch{
		Meta: models.BatchMeta{
			SourceFile: path,
			Encoding:   decoded.Encoding,
			Replaced:   decoded.Replaced,
			Delimiter:  delimiter,
			ParsedAt:   time.Now().UTC(),
		},
	}

	index := make(map[string]int) // playlist name -> position in batch.Playlists

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// csv errors at row granularity fall under the skipped-row policy
			batch.Meta.RowCount++
			batch.Meta.SkippedRows++
			continue
		}

		batch.Meta.RowCount++

		name := cell(record, sch.playlist)
		title := cell(record, sch.title)
		if name == "" || title == "" {
			batch.Meta.SkippedRows++
			continue
		}

		track := models.Track{
			Title:  title,
			Artist: cell(record, sch.artist),
			Album:  cell(record, sch.album),
		}
		if raw := cell(record, sch.duration); raw != "" {
			if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
				track.Duration = secs
			}
		}

		pos, ok := index[name]
		if !ok {
			pos = len(batch.Playlists)
			index[name] = pos
			batch.Playlists = append(batch.Playlists, models.Playlist{Name: name})
		}
		batch.Playlists[pos].Tracks = append(batch.Playlists[pos].Tracks, track)
	}

	if len(batch.Playlists) == 0 {
		return nil, fmt.Errorf("%w: %w (%d rows skipped)", shared.ErrIngestion, shared.ErrEmptyExport, batch.Meta.SkippedRows)
	}

	return batch, nil
}

// resolveSchema maps configured header labels to column indices in a single
// pass. Playlist and title columns are required; the rest are optional.
func resolveSchema(header []string, columns ColumnLabels) (schema, error) {
	sch := schema{playlist: -1, title: -1, artist: -1, album: -1, duration: -1}

	for i, label := range header {
		label = normalizeHeader(label)
		switch label {
		case strings.ToLower(columns.Playlist):
			sch.playlist = i
		case strings.ToLower(columns.Title):
			sch.title = i
		case strings.ToLower(columns.Artist):
			sch.artist = i
		case strings.ToLower(columns.Album):
			sch.album = i
		case strings.ToLower(columns.Duration):
			sch.duration = i
		}
	}

	if sch.playlist == -1 || sch.title == -1 {
		return sch, fmt.Errorf("%w: header is missing the %q or %q column", shared.ErrIngestion, columns.Playlist, columns.Title)
	}
	return sch, nil
}

// normalizeHeader strips the UTF-8 BOM and whitespace and lowercases a header cell.
func normalizeHeader(label string) string {
	label = strings.TrimPrefix(label, "\uFEFF")
	return strings.ToLower(strings.TrimSpace(label))
}

// cell returns the trimmed value at index i, or "" when the row is too short
// or the column is absent from the schema.
func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

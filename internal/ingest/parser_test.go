package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/plx/internal/shared"
)

func writeExport(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write export file: %v", err)
	}
	return path
}

func TestParse(t *testing.T) {
	t.Run("semicolon delimited with quotes", func(t *testing.T) {
		path := writeExport(t, []byte(`playlist;title;artist;album;duration
"My Mix";"Song A";"Artist X";"Album 1";215
"My Mix";"Song B";"Artist Y";;180
"Road Trip";"Song C";"Artist Z";;
`))

		batch, err := Parse(path, Options{})
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}

		if len(batch.Playlists) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(batch.Playlists))
		}
		if batch.Playlists[0].Name != "My Mix" || batch.Playlists[1].Name != "Road Trip" {
			t.Errorf("expected first-appearance order, got %s then %s",
				batch.Playlists[0].Name, batch.Playlists[1].Name)
		}

		first := batch.Playlists[0].Tracks
		if len(first) != 2 {
			t.Fatalf("expected 2 tracks in My Mix, got %d", len(first))
		}
		if first[0].Title != "Song A" || first[0].Artist != "Artist X" {
			t.Errorf("unexpected first track: %+v", first[0])
		}
		if first[0].Album != "Album 1" || first[0].Duration != 215 {
			t.Errorf("unexpected album/duration: %+v", first[0])
		}
		if first[1].Album != "" || first[1].Duration != 180 {
			t.Errorf("unexpected second track: %+v", first[1])
		}
		if batch.Playlists[1].Tracks[0].Duration != 0 {
			t.Errorf("empty duration should stay 0, got %d", batch.Playlists[1].Tracks[0].Duration)
		}

		if batch.Meta.Encoding != "utf-8" {
			t.Errorf("expected utf-8, got %s", batch.Meta.Encoding)
		}
		if batch.Meta.Delimiter != ";" {
			t.Errorf("expected ; delimiter, got %q", batch.Meta.Delimiter)
		}
		if batch.Meta.RowCount != 3 || batch.Meta.SkippedRows != 0 {
			t.Errorf("unexpected row accounting: %+v", batch.Meta)
		}
		if batch.TrackCount() != 3 {
			t.Errorf("expected 3 tracks total, got %d", batch.TrackCount())
		}
	})

	t.Run("delimiter override", func(t *testing.T) {
		path := writeExport(t, []byte("playlist,title,artist\nMix,Song A,Artist X\n"))

		batch, err := Parse(path, Options{Delimiter: ","})
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if len(batch.Playlists) != 1 || batch.Playlists[0].Tracks[0].Title != "Song A" {
			t.Errorf("unexpected batch: %+v", batch.Playlists)
		}
	})

	t.Run("no delimiter sniffing", func(t *testing.T) {
		// Comma-separated content parsed with the default semicolon delimiter
		// yields rows without a usable title column.
		path := writeExport(t, []byte("playlist,title,artist\nMix,Song A,Artist X\n"))

		_, err := Parse(path, Options{})
		if !errors.Is(err, shared.ErrIngestion) {
			t.Errorf("expected ErrIngestion, got %v", err)
		}
	})

	t.Run("multi-character delimiter rejected", func(t *testing.T) {
		path := writeExport(t, []byte("playlist;title\nMix;Song A\n"))

		_, err := Parse(path, Options{Delimiter: ";;"})
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("case-insensitive headers with BOM", func(t *testing.T) {
		content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Playlist;TITLE;Artist\nMix;Song A;Artist X\n")...)
		path := writeExport(t, content)

		batch, err := Parse(path, Options{})
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if batch.Playlists[0].Tracks[0].Title != "Song A" {
			t.Errorf("unexpected track: %+v", batch.Playlists[0].Tracks[0])
		}
	})

	t.Run("custom column labels", func(t *testing.T) {
		path := writeExport(t, []byte("liste;titre;artiste\nMix;Chanson;Artiste\n"))

		batch, err := Parse(path, Options{Columns: ColumnLabels{
			Playlist: "liste",
			Title:    "titre",
			Artist:   "artiste",
		}})
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		track := batch.Playlists[0].Tracks[0]
		if track.Title != "Chanson" || track.Artist != "Artiste" {
			t.Errorf("unexpected track: %+v", track)
		}
	})

	t.Run("rows missing playlist or title are skipped", func(t *testing.T) {
		path := writeExport(t, []byte(`playlist;title;artist
Mix;Song A;Artist X
;Song B;Artist Y
Mix;;Artist Z
Mix;Song D;
`))

		batch, err := Parse(path, Options{})
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if batch.Meta.SkippedRows != 2 {
			t.Errorf("expected 2 skipped rows, got %d", batch.Meta.SkippedRows)
		}
		if len(batch.Playlists[0].Tracks) != 2 {
			t.Errorf("expected 2 surviving tracks, got %d", len(batch.Playlists[0].Tracks))
		}
		// A missing artist is fine; only playlist and title are required.
		if batch.Playlists[0].Tracks[1].Title != "Song D" {
			t.Errorf("expected Song D to survive, got %+v", batch.Playlists[0].Tracks[1])
		}
	})

	t.Run("short rows", func(t *testing.T) {
		path := writeExport(t, []byte("playlist;title;artist;album;duration\nMix;Song A\n"))

		batch, err := Parse(path, Options{})
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		track := batch.Playlists[0].Tracks[0]
		if track.Title != "Song A" || track.Artist != "" {
			t.Errorf("unexpected track from short row: %+v", track)
		}
	})

	t.Run("missing required column", func(t *testing.T) {
		path := writeExport(t, []byte("name;song;singer\nMix;Song A;Artist X\n"))

		_, err := Parse(path, Options{})
		if !errors.Is(err, shared.ErrIngestion) {
			t.Errorf("expected ErrIngestion, got %v", err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeExport(t, []byte(""))

		_, err := Parse(path, Options{})
		if !errors.Is(err, shared.ErrEmptyExport) {
			t.Errorf("expected ErrEmptyExport, got %v", err)
		}
	})

	t.Run("header only", func(t *testing.T) {
		path := writeExport(t, []byte("playlist;title;artist\n"))

		_, err := Parse(path, Options{})
		if !errors.Is(err, shared.ErrEmptyExport) {
			t.Errorf("expected ErrEmptyExport, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Parse(filepath.Join(t.TempDir(), "nope.csv"), Options{})
		if !errors.Is(err, shared.ErrIngestion) {
			t.Errorf("expected ErrIngestion, got %v", err)
		}
	})

	t.Run("negative duration ignored", func(t *testing.T) {
		path := writeExport(t, []byte("playlist;title;duration\nMix;Song A;-5\n"))

		batch, err := Parse(path, Options{})
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if batch.Playlists[0].Tracks[0].Duration != 0 {
			t.Errorf("expected negative duration to be dropped, got %d", batch.Playlists[0].Tracks[0].Duration)
		}
	})
}

func TestParseEncodings(t *testing.T) {
	t.Run("cp1252 smart quotes", func(t *testing.T) {
		// “Song” with cp1252 curly quotes (0x93, 0x94) and an é (0xE9).
		content := []byte("playlist;title;artist\nMix;\x93Song\x94;Beyonc\xE9\n")
		path := writeExport(t, content)

		batch, err := Parse(path, Options{})
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if batch.Meta.Encoding != "cp1252" {
			t.Errorf("expected cp1252, got %s", batch.Meta.Encoding)
		}
		track := batch.Playlists[0].Tracks[0]
		if track.Title != "“Song”" {
			t.Errorf("unexpected title: %q", track.Title)
		}
		if track.Artist != "Beyoncé" {
			t.Errorf("unexpected artist: %q", track.Artist)
		}
		if batch.Meta.Replaced {
			t.Error("cp1252 decode should not report replacements")
		}
	})

	t.Run("latin-1 when cp1252 rejects", func(t *testing.T) {
		// 0x81 is undefined in cp1252 but maps to a control char in latin-1.
		content := []byte("playlist;title;artist\nMix;Song\x81;Artist \xE9\n")
		path := writeExport(t, content)

		batch, err := Parse(path, Options{})
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if batch.Meta.Encoding != "latin-1" {
			t.Errorf("expected latin-1, got %s", batch.Meta.Encoding)
		}
		if batch.Meta.Replaced {
			t.Error("latin-1 decode should not report replacements")
		}
	})

	t.Run("valid utf-8 stays utf-8", func(t *testing.T) {
		path := writeExport(t, []byte("playlist;title;artist\nMix;Café del Mar;Señor Coconut\n"))

		batch, err := Parse(path, Options{})
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if batch.Meta.Encoding != "utf-8" {
			t.Errorf("expected utf-8, got %s", batch.Meta.Encoding)
		}
		if batch.Playlists[0].Tracks[0].Title != "Café del Mar" {
			t.Errorf("unexpected title: %q", batch.Playlists[0].Tracks[0].Title)
		}
	})
}

func TestDecodeBytes(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		encoding string
		replaced bool
	}{
		{"ascii", []byte("plain text"), "utf-8", false},
		{"utf-8 multibyte", []byte("naïve — déjà vu"), "utf-8", false},
		{"cp1252 em dash", []byte("a\x97b"), "cp1252", false},
		{"cp1252 euro", []byte("\x80 100"), "cp1252", false},
		{"latin-1 fallback", []byte("a\x8Db"), "latin-1", false},
		{"empty", []byte{}, "utf-8", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeBytes(tt.input)
			if got.Encoding != tt.encoding {
				t.Errorf("expected %s, got %s", tt.encoding, got.Encoding)
			}
			if got.Replaced != tt.replaced {
				t.Errorf("expected replaced=%v, got %v", tt.replaced, got.Replaced)
			}
		})
	}

	t.Run("cp1252 maps punctuation", func(t *testing.T) {
		got := decodeBytes([]byte("a\x97b"))
		if got.Text != "a—b" {
			t.Errorf("expected em dash, got %q", got.Text)
		}
	})
}

package repositories

import (
	"database/sql"
	"testing"

	"github.com/desertthunder/plx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestMatchRepository(t *testing.T) {
	t.Run("GetMiss", func(t *testing.T) {
		repo := NewMatchRepository(setupTestDB(t))

		uri, ok, err := repo.Get("song a|artist x")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if ok || uri != "" {
			t.Errorf("expected a miss, got %q ok=%v", uri, ok)
		}
	})

	t.Run("PutThenGet", func(t *testing.T) {
		repo := NewMatchRepository(setupTestDB(t))
		key := shared.NormalizeTrackKey("Song A", "Artist X")

		if err := repo.Put(key, "Song A", "Artist X", "spotify:track:a"); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		uri, ok, err := repo.Get(key)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !ok || uri != "spotify:track:a" {
			t.Errorf("expected hit with spotify:track:a, got %q ok=%v", uri, ok)
		}
	})

	t.Run("DuplicateKeyKeepsFirst", func(t *testing.T) {
		repo := NewMatchRepository(setupTestDB(t))
		key := shared.NormalizeTrackKey("Song A", "Artist X")

		if err := repo.Put(key, "Song A", "Artist X", "spotify:track:first"); err != nil {
			t.Fatalf("first Put failed: %v", err)
		}
		if err := repo.Put(key, "Song A", "Artist X", "spotify:track:second"); err != nil {
			t.Fatalf("duplicate Put should be silent: %v", err)
		}

		uri, ok, err := repo.Get(key)
		if err != nil || !ok {
			t.Fatalf("Get failed: %v ok=%v", err, ok)
		}
		if uri != "spotify:track:first" {
			t.Errorf("expected first entry to win, got %s", uri)
		}
	})

	t.Run("Lookup", func(t *testing.T) {
		repo := NewMatchRepository(setupTestDB(t))
		key := shared.NormalizeTrackKey("Song B", "Artist Y")

		if err := repo.Put(key, "Song B", "Artist Y", "spotify:track:b"); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		match, err := repo.Lookup(key)
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if match == nil {
			t.Fatal("expected a match")
		}
		if match.Title != "Song B" || match.Artist != "Artist Y" || match.URI != "spotify:track:b" {
			t.Errorf("unexpected match: %+v", match)
		}
		if match.ID == "" {
			t.Error("match ID should be set")
		}
		if match.CreatedAt.IsZero() {
			t.Error("match CreatedAt should be set")
		}

		missing, err := repo.Lookup("nope|nobody")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if missing != nil {
			t.Errorf("expected nil for a missing key, got %+v", missing)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		repo := NewMatchRepository(setupTestDB(t))

		stats, err := repo.Stats()
		if err != nil {
			t.Fatalf("Stats failed: %v", err)
		}
		if stats.Matches != 0 {
			t.Errorf("expected empty cache, got %d", stats.Matches)
		}

		for _, entry := range []struct{ title, artist, uri string }{
			{"Song A", "Artist X", "spotify:track:a"},
			{"Song B", "Artist Y", "spotify:track:b"},
		} {
			key := shared.NormalizeTrackKey(entry.title, entry.artist)
			if err := repo.Put(key, entry.title, entry.artist, entry.uri); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
		}

		stats, err = repo.Stats()
		if err != nil {
			t.Fatalf("Stats failed: %v", err)
		}
		if stats.Matches != 2 {
			t.Errorf("expected 2 matches, got %d", stats.Matches)
		}
		if stats.Oldest.IsZero() || stats.Newest.IsZero() {
			t.Error("expected age range to be populated")
		}
		if stats.Newest.Before(stats.Oldest) {
			t.Errorf("newest %v before oldest %v", stats.Newest, stats.Oldest)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		repo := NewMatchRepository(setupTestDB(t))

		key := shared.NormalizeTrackKey("Song A", "Artist X")
		if err := repo.Put(key, "Song A", "Artist X", "spotify:track:a"); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		cleared, err := repo.Clear()
		if err != nil {
			t.Fatalf("Clear failed: %v", err)
		}
		if cleared != 1 {
			t.Errorf("expected 1 cleared, got %d", cleared)
		}

		_, ok, err := repo.Get(key)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if ok {
			t.Error("expected cache to be empty after Clear")
		}
	})
}

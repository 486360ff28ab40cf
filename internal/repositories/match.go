package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/plx/internal/shared"
)

// Match is a cached search resolution.
type Match struct {
	ID        string
	Key       string
	Title     string
	Artist    string
	URI       string
	CreatedAt time.Time
}

// CacheStats summarizes the contents of the match cache.
type CacheStats struct {
	Matches int       `json:"matches"`
	Oldest  time.Time `json:"oldest,omitzero"`
	Newest  time.Time `json:"newest,omitzero"`
}

// MatchRepository stores search matches in sqlite, keyed by the normalized
// title+artist string. Duplicate keys are silently ignored on insert.
type MatchRepository struct {
	db *sql.DB
}

// NewMatchRepository creates a new MatchRepository with the given database connection
func NewMatchRepository(db *sql.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Get implements the cache lookup side of tasks.MatchCache. A miss returns
// ("", false, nil).
func (r *MatchRepository) Get(key string) (string, bool, error) {
	var uri string
	err := r.db.QueryRow(`SELECT uri FROM matches WHERE match_key = ?`, key).Scan(&uri)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query match: %w", err)
	}
	return uri, true, nil
}

// Put stores a resolution. An existing entry for the same key wins; the
// UNIQUE constraint violation is not an error.
func (r *MatchRepository) Put(key, title, artist, uri string) error {
	query := `
		INSERT INTO matches (id, match_key, title, artist, uri, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, shared.GenerateID(), key, title, artist, uri, time.Now().UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to insert match: %w", err)
	}
	return nil
}

// Lookup retrieves the full match row for a key.
func (r *MatchRepository) Lookup(key string) (*Match, error) {
	query := `
		SELECT id, match_key, title, artist, uri, created_at
		FROM matches
		WHERE match_key = ?
	`
	var match Match
	err := r.db.QueryRow(query, key).Scan(&match.ID, &match.Key, &match.Title, &match.Artist, &match.URI, &match.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query match: %w", err)
	}
	return &match, nil
}

// Stats reports the number of cached matches and their age range.
func (r *MatchRepository) Stats() (*CacheStats, error) {
	stats := &CacheStats{}
	err := r.db.QueryRow(`SELECT COUNT(*) FROM matches`).Scan(&stats.Matches)
	if err != nil {
		return nil, fmt.Errorf("failed to count matches: %w", err)
	}
	if stats.Matches == 0 {
		return stats, nil
	}
	// Aggregate expressions lose the declared column type, which breaks the
	// driver's time parsing, so read the range with ordered single-row queries.
	err = r.db.QueryRow(`SELECT created_at FROM matches ORDER BY created_at ASC LIMIT 1`).Scan(&stats.Oldest)
	if err != nil {
		return nil, fmt.Errorf("failed to read oldest match: %w", err)
	}
	err = r.db.QueryRow(`SELECT created_at FROM matches ORDER BY created_at DESC LIMIT 1`).Scan(&stats.Newest)
	if err != nil {
		return nil, fmt.Errorf("failed to read newest match: %w", err)
	}
	return stats, nil
}

// Clear deletes all cached matches and returns how many were removed.
func (r *MatchRepository) Clear() (int, error) {
	result, err := r.db.Exec(`DELETE FROM matches`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear matches: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared matches: %w", err)
	}
	return int(affected), nil
}

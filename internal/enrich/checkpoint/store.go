package checkpoint

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"streamlens/internal/enrich"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; stale databases report a mismatch and must be removed.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store persists key resolutions backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the checkpoint database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("checkpoint path must not be empty")
	}
	dsn := fmt.Sprintf("file:%s?%s", path, url.Values{
		"_pragma": []string{"busy_timeout(5000)", "journal_mode(WAL)"},
	}.Encode())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint db: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to rebuild)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// Save upserts the resolution for its key, stamping the run identifier.
func (s *Store) Save(ctx context.Context, res enrich.Resolution, runID string) error {
	if res.Key == "" {
		return errors.New("resolution key must not be empty")
	}
	match := res.Match
	if match == nil {
		match = &enrich.CatalogMatch{}
	}
	return s.execWithRetry(ctx, `
		INSERT INTO resolutions (
			search_key, status, tmdb_id, media_type, title, genres,
			popularity, vote_average, vote_count, release_date,
			runtime_minutes, poster_path, failure, run_id, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(search_key) DO UPDATE SET
			status = excluded.status,
			tmdb_id = excluded.tmdb_id,
			media_type = excluded.media_type,
			title = excluded.title,
			genres = excluded.genres,
			popularity = excluded.popularity,
			vote_average = excluded.vote_average,
			vote_count = excluded.vote_count,
			release_date = excluded.release_date,
			runtime_minutes = excluded.runtime_minutes,
			poster_path = excluded.poster_path,
			failure = excluded.failure,
			run_id = excluded.run_id,
			updated_at = excluded.updated_at`,
		res.Key, string(res.Status), match.TMDBID, match.MediaType, match.Title,
		match.GenresJoined(), match.Popularity, match.VoteAverage, match.VoteCount,
		match.ReleaseDate, match.RuntimeMinutes, match.PosterPath, res.Failure,
		runID, time.Now().UTC().Format(time.RFC3339))
}

// Lookup returns the stored resolution for key, if any.
func (s *Store) Lookup(ctx context.Context, key string) (*enrich.Resolution, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT status, tmdb_id, media_type, title, genres, popularity,
		       vote_average, vote_count, release_date, runtime_minutes,
		       poster_path, failure
		FROM resolutions WHERE search_key = ?`, key)

	var (
		status  string
		match   enrich.CatalogMatch
		genres  string
		failure string
	)
	err := row.Scan(&status, &match.TMDBID, &match.MediaType, &match.Title,
		&genres, &match.Popularity, &match.VoteAverage, &match.VoteCount,
		&match.ReleaseDate, &match.RuntimeMinutes, &match.PosterPath, &failure)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup resolution: %w", err)
	}

	res := &enrich.Resolution{Key: key, Status: enrich.Status(status), Failure: failure}
	if res.Status == enrich.StatusMatched {
		match.Genres = splitGenres(genres)
		res.Match = &match
	}
	return res, true, nil
}

// FailedKeys lists keys whose last resolution exhausted its retries, in key
// order for deterministic output.
func (s *Store) FailedKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT search_key FROM resolutions WHERE status = ? ORDER BY search_key",
		string(enrich.StatusFailed))
	if err != nil {
		return nil, fmt.Errorf("list failed keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan failed key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Counts reports how many stored keys sit in each status.
func (s *Store) Counts(ctx context.Context) (map[enrich.Status]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(1) FROM resolutions GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count resolutions: %w", err)
	}
	defer rows.Close()

	counts := make(map[enrich.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[enrich.Status(status)] = count
	}
	return counts, rows.Err()
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		_, lastErr = s.db.ExecContext(ctx, query, args...)
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func splitGenres(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	genres := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			genres = append(genres, trimmed)
		}
	}
	return genres
}

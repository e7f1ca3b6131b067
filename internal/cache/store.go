package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/politewalk/internal/model"
)

// Store is a SQLite-backed response cache.
// It implements the fetch.Cache interface.
//
// Design decision: We use SQLite rather than flat files because:
//  1. Expiry pruning is a single DELETE instead of directory walking
//  2. The URL+User-Agent key maps directly onto a UNIQUE constraint
//  3. The pure Go driver (modernc.org/sqlite) keeps the build cgo-free
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// ttl is how long entries stay valid, measured from fetch time.
	ttl time.Duration

	// logger records degraded operations; cache errors never propagate.
	logger *slog.Logger
}

// Options configures Store behavior.
type Options struct {
	// TTL is the entry lifetime. Non-positive values fall back to one hour.
	TTL time.Duration

	// Logger records cache warnings. Nil uses slog.Default().
	Logger *slog.Logger
}

// Open opens or creates the cache database in dir.
// The directory is created if needed. Errors here mean the cache is
// unusable; callers should log a warning and continue without caching.
func Open(dir string, opts Options) (*Store, error) {
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, "responses.db")
	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite only supports one writer; the crawl is sequential anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		ttl:    opts.TTL,
		logger: opts.Logger,
	}

	if err := s.createTable(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTable creates the cache schema if it doesn't exist.
func (s *Store) createTable() error {
	schema := `
	-- Cached GET responses, one row per (url, user_agent) pair
	CREATE TABLE IF NOT EXISTS responses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		user_agent TEXT NOT NULL,
		status_code INTEGER NOT NULL,
		headers TEXT NOT NULL,
		body BLOB NOT NULL,
		fetched_at INTEGER NOT NULL,
		UNIQUE(url, user_agent)
	);

	CREATE INDEX IF NOT EXISTS idx_responses_fetched_at ON responses(fetched_at);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Get returns the cached page for the key if present and fresh.
// Any database error degrades to a cache miss.
func (s *Store) Get(ctx context.Context, url, userAgent string) (*model.Page, bool) {
	query := `
	SELECT status_code, headers, body, fetched_at
	FROM responses
	WHERE url = ? AND user_agent = ? AND fetched_at > ?
	`

	cutoff := time.Now().Add(-s.ttl).Unix()

	var (
		statusCode  int
		headersJSON string
		body        []byte
		fetchedAt   int64
	)
	err := s.db.QueryRowContext(ctx, query, url, userAgent, cutoff).Scan(
		&statusCode, &headersJSON, &body, &fetchedAt,
	)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("cache read failed, treating as miss", "url", url, "error", err)
		return nil, false
	}

	var headers http.Header
	if err := json.Unmarshal([]byte(headersJSON), &headers); err != nil {
		s.logger.Warn("cache entry corrupt, treating as miss", "url", url, "error", err)
		return nil, false
	}

	return &model.Page{
		URL:        url,
		StatusCode: statusCode,
		Headers:    headers,
		Body:       body,
		FetchedAt:  time.Unix(fetchedAt, 0),
	}, true
}

// Put stores a successful response, replacing any older entry for the
// same key. Errors are logged and swallowed; caching never breaks a fetch.
func (s *Store) Put(ctx context.Context, url, userAgent string, page *model.Page) {
	headersJSON, err := json.Marshal(page.Headers)
	if err != nil {
		s.logger.Warn("cache write failed", "url", url, "error", err)
		return
	}

	query := `
	INSERT INTO responses (url, user_agent, status_code, headers, body, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(url, user_agent) DO UPDATE SET
		status_code = excluded.status_code,
		headers = excluded.headers,
		body = excluded.body,
		fetched_at = excluded.fetched_at
	`

	fetchedAt := page.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, query,
		url, userAgent, page.StatusCode, string(headersJSON), page.Body, fetchedAt.Unix(),
	)
	if err != nil {
		s.logger.Warn("cache write failed", "url", url, "error", err)
	}
}

// Prune removes expired entries. Meant to be called once at run start;
// the freshness check in Get makes pruning otherwise optional.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.ttl).Unix()

	result, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE fetched_at <= ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return result.RowsAffected()
}

// Len returns the number of entries currently stored, fresh or not.
func (s *Store) Len(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM responses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return count, nil
}

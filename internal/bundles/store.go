// Package bundles persists finished briefs so the CLI can show a brief after
// the run that produced it, and so feedback can be tied back to bundled items.
package bundles

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"daybrief/internal/brief"
	"daybrief/internal/config"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrNotFound indicates no bundle matched the query.
var ErrNotFound = errors.New("bundle not found")

// Store persists bundles as JSON rows in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the bundle database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "bundles.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
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

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete the bundle database to rebuild)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

// Save persists a finished bundle. Saving the same brief ID again replaces
// the stored payload.
func (s *Store) Save(ctx context.Context, bundle *brief.Bundle) error {
	if bundle == nil {
		return errors.New("bundle is nil")
	}
	if bundle.BriefID == "" || bundle.UserID == "" {
		return errors.New("bundle missing brief or user ID")
	}
	payload, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO bundles (brief_id, user_id, generated_at, status, payload)
         VALUES (?, ?, ?, ?, ?)`,
		bundle.BriefID,
		bundle.UserID,
		bundle.GeneratedAt.UTC().Format(time.RFC3339Nano),
		string(bundle.RunMetadata.Status),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert bundle: %w", err)
	}
	return nil
}

// Load fetches one bundle by brief ID.
func (s *Store) Load(ctx context.Context, briefID string) (*brief.Bundle, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM bundles WHERE brief_id = ?`, briefID,
	)
	return scanBundle(row)
}

// LoadLatest fetches a user's most recently generated bundle.
func (s *Store) LoadLatest(ctx context.Context, userID string) (*brief.Bundle, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM bundles WHERE user_id = ?
         ORDER BY generated_at DESC LIMIT 1`,
		userID,
	)
	return scanBundle(row)
}

// BundleSummary is the list-view projection of a stored bundle.
type BundleSummary struct {
	BriefID     string
	UserID      string
	GeneratedAt time.Time
	Status      brief.RunStatus
}

// ListRecent returns a user's bundle summaries, newest first.
func (s *Store) ListRecent(ctx context.Context, userID string, limit int) ([]BundleSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT brief_id, user_id, generated_at, status FROM bundles
         WHERE user_id = ? ORDER BY generated_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}
	defer rows.Close()

	var summaries []BundleSummary
	for rows.Next() {
		var (
			summary      BundleSummary
			generatedRaw string
			status       string
		)
		if err := rows.Scan(&summary.BriefID, &summary.UserID, &generatedRaw, &status); err != nil {
			return nil, err
		}
		summary.Status = brief.RunStatus(status)
		if generated, err := time.Parse(time.RFC3339Nano, generatedRaw); err == nil {
			summary.GeneratedAt = generated
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func scanBundle(row *sql.Row) (*brief.Bundle, error) {
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan bundle: %w", err)
	}
	var bundle brief.Bundle
	if err := json.Unmarshal([]byte(payload), &bundle); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return &bundle, nil
}

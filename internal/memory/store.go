package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"daybrief/internal/config"
)

// Store manages sighting persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string

	mu    sync.Mutex
	users map[string]*sync.Mutex
}

// Open initializes or connects to the memory database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "memory.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, users: make(map[string]*sync.Mutex)}
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

// LockUser acquires the per-user write lock and returns its release function.
// Novelty batches hold this for their full read-then-write loop so concurrent
// runs for one user serialize instead of losing updates.
func (s *Store) LockUser(userID string) func() {
	s.mu.Lock()
	lock, ok := s.users[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.users[userID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

const memoryColumns = "user_id, fingerprint, content_hash, first_seen, last_seen, seen_count, source, item_type, title"

// Get fetches the sighting record for a (user, fingerprint) pair, or nil when
// the item has never been seen.
func (s *Store) Get(ctx context.Context, userID, fingerprint string) (*ItemMemory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memoryColumns+` FROM item_memory WHERE user_id = ? AND fingerprint = ?`,
		userID, fingerprint,
	)
	record, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item memory: %w", err)
	}
	return record, nil
}

// Insert creates the first sighting record for a fingerprint.
func (s *Store) Insert(ctx context.Context, record *ItemMemory) error {
	if record == nil {
		return errors.New("record is nil")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO item_memory (`+memoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.UserID,
		record.Fingerprint,
		record.ContentHash,
		record.FirstSeen.UTC().Format(time.RFC3339Nano),
		record.LastSeen.UTC().Format(time.RFC3339Nano),
		record.SeenCount,
		record.Source,
		record.ItemType,
		record.Title,
	)
	if err != nil {
		return fmt.Errorf("insert item memory: %w", err)
	}
	return nil
}

// Update persists a subsequent sighting: content hash, last seen, and count.
func (s *Store) Update(ctx context.Context, record *ItemMemory) error {
	if record == nil {
		return errors.New("record is nil")
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE item_memory
         SET content_hash = ?, last_seen = ?, seen_count = ?, title = ?
         WHERE user_id = ? AND fingerprint = ?`,
		record.ContentHash,
		record.LastSeen.UTC().Format(time.RFC3339Nano),
		record.SeenCount,
		record.Title,
		record.UserID,
		record.Fingerprint,
	)
	if err != nil {
		return fmt.Errorf("update item memory: %w", err)
	}
	return nil
}

// Prune deletes records whose last sighting is older than the cutoff and
// returns the count removed.
func (s *Store) Prune(ctx context.Context, userID string, maxAgeDays int) (int64, error) {
	if maxAgeDays <= 0 {
		return 0, errors.New("max age must be positive")
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -maxAgeDays)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM item_memory WHERE user_id = ? AND last_seen < ?`,
		userID, cutoff.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune item memory: %w", err)
	}
	return res.RowsAffected()
}

// CountForUser returns the number of remembered items for a user.
func (s *Store) CountForUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM item_memory WHERE user_id = ?`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count item memory: %w", err)
	}
	return count, nil
}

func scanMemory(scanner interface{ Scan(dest ...any) error }) (*ItemMemory, error) {
	var (
		userID      string
		fingerprint string
		contentHash string
		firstRaw    string
		lastRaw     string
		seenCount   int
		source      sql.NullString
		itemType    sql.NullString
		title       sql.NullString
	)
	if err := scanner.Scan(
		&userID,
		&fingerprint,
		&contentHash,
		&firstRaw,
		&lastRaw,
		&seenCount,
		&source,
		&itemType,
		&title,
	); err != nil {
		return nil, err
	}

	record := &ItemMemory{
		UserID:      userID,
		Fingerprint: fingerprint,
		ContentHash: contentHash,
		SeenCount:   seenCount,
		Source:      source.String,
		ItemType:    itemType.String,
		Title:       title.String,
	}
	if first, err := parseTimeString(firstRaw); err == nil {
		record.FirstSeen = first
	}
	if last, err := parseTimeString(lastRaw); err == nil {
		record.LastSeen = last
	}
	return record, nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

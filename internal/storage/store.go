package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// CachedItem is one breakdown line of a cached estimate.
type CachedItem struct {
	Label     string `json:"label"`
	CostCents int64  `json:"cost_cents"`
}

// CachedEstimate is an estimate stored by image hash.
type CachedEstimate struct {
	TotalCents int64
	Items      []CachedItem
	CreatedAt  time.Time
}

// EstimateCache stores estimator responses keyed by image content hash.
type EstimateCache interface {
	GetEstimate(imageHash string) (*CachedEstimate, error)
	SetEstimate(imageHash string, entry *CachedEstimate) error
	Close() error
}

// SQLiteStore implements EstimateCache using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	mu  sync.RWMutex
}

var _ EstimateCache = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the cache database at dbPath. Entries
// older than ttl are treated as missing; a zero ttl keeps entries forever.
func NewSQLiteStore(dbPath string, ttl time.Duration) (*SQLiteStore, error) {
	// Configure SQLite with WAL mode and busy timeout for better concurrency
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		log.Debug().Err(err).Str("dbPath", dbPath).Msg("failed to restrict database permissions")
	}

	store := &SQLiteStore{db: db, ttl: ttl}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS estimate_cache (
		image_hash TEXT PRIMARY KEY,
		total_cents INTEGER NOT NULL,
		items TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create estimate_cache table: %w", err)
	}
	return nil
}

// GetEstimate retrieves a cached estimate by image hash.
// Returns nil, nil if no (fresh) cache entry exists.
func (s *SQLiteStore) GetEstimate(imageHash string) (*CachedEstimate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		entry     CachedEstimate
		itemsJSON string
	)
	err := s.db.QueryRow(
		"SELECT total_cents, items, created_at FROM estimate_cache WHERE image_hash = ?",
		imageHash,
	).Scan(&entry.TotalCents, &itemsJSON, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get estimate cache: %w", err)
	}

	if s.ttl > 0 && time.Since(entry.CreatedAt) > s.ttl {
		return nil, nil
	}

	if err := json.Unmarshal([]byte(itemsJSON), &entry.Items); err != nil {
		return nil, fmt.Errorf("failed to decode cached items: %w", err)
	}
	return &entry, nil
}

// SetEstimate stores an estimate by image hash, replacing any existing entry.
func (s *SQLiteStore) SetEstimate(imageHash string, entry *CachedEstimate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	itemsJSON, err := json.Marshal(entry.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.Exec(`
		INSERT INTO estimate_cache (image_hash, total_cents, items, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(image_hash) DO UPDATE SET
			total_cents = excluded.total_cents,
			items = excluded.items,
			created_at = excluded.created_at
	`, imageHash, entry.TotalCents, string(itemsJSON), createdAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to set estimate cache: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

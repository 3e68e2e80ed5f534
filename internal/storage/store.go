// Package storage persists product identification results and an analysis
// log in SQLite.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"dealcheck/internal/listing"
)

// ProductCacheEntry is a cached product identification, keyed by a hash of
// the listing's text fields.
type ProductCacheEntry struct {
	Name           string            `json:"name"`
	Brand          string            `json:"brand"`
	Model          string            `json:"model"`
	Category       string            `json:"category"`
	Specifications map[string]string `json:"specifications"`
	SearchQuery    string            `json:"searchQuery"`
	Confidence     string            `json:"confidence"`
}

// AnalysisRecord is one completed analysis, kept for later inspection.
type AnalysisRecord struct {
	ID        int64
	ListingID string
	URL       string
	Title     string
	Verdict   string
	Score     int
	RiskLevel string
	CreatedAt time.Time
}

// Store defines the persistence interface.
type Store interface {
	GetProductCache(hash string) (*ProductCacheEntry, error)
	SetProductCache(hash string, entry *ProductCacheEntry) error
	PruneProductCache(olderThan time.Duration) (int64, error)

	LogAnalysis(rec *AnalysisRecord) error
	RecentAnalyses(limit int) ([]AnalysisRecord, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the SQLite database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	cacheQuery := `
	CREATE TABLE IF NOT EXISTS product_cache (
		hash TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(cacheQuery); err != nil {
		return fmt.Errorf("failed to create product_cache table: %w", err)
	}

	analysesQuery := `
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		listing_id TEXT NOT NULL,
		url TEXT NOT NULL,
		title TEXT NOT NULL,
		verdict TEXT NOT NULL,
		score INTEGER NOT NULL,
		risk_level TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(analysesQuery); err != nil {
		return fmt.Errorf("failed to create analyses table: %w", err)
	}

	return nil
}

// GetProductCache retrieves a cached identification by hash.
// Returns nil, nil on a cache miss.
func (s *SQLiteStore) GetProductCache(hash string) (*ProductCacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRow("SELECT data FROM product_cache WHERE hash = ?", hash).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product cache: %w", err)
	}

	var entry ProductCacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return &entry, nil
}

// SetProductCache stores or refreshes a cached identification.
func (s *SQLiteStore) SetProductCache(hash string, entry *ProductCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO product_cache (hash, data, created_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(hash) DO UPDATE SET
			data = excluded.data,
			created_at = excluded.created_at
	`, hash, string(data))
	if err != nil {
		return fmt.Errorf("failed to save cache entry: %w", err)
	}
	return nil
}

// PruneProductCache removes cache entries older than the given age and
// returns how many were deleted.
func (s *SQLiteStore) PruneProductCache(olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Compare in SQLite's own datetime representation to match the
	// CURRENT_TIMESTAMP default.
	offset := fmt.Sprintf("%d seconds", -int64(olderThan.Seconds()))
	res, err := s.db.Exec("DELETE FROM product_cache WHERE created_at < datetime('now', ?)", offset)
	if err != nil {
		return 0, fmt.Errorf("failed to prune product cache: %w", err)
	}
	return res.RowsAffected()
}

// LogAnalysis appends a completed analysis to the log.
func (s *SQLiteStore) LogAnalysis(rec *AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.CreatedAt = time.Now()
	_, err := s.db.Exec(`
		INSERT INTO analyses (listing_id, url, title, verdict, score, risk_level, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ListingID, rec.URL, rec.Title, rec.Verdict, rec.Score, rec.RiskLevel, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to log analysis: %w", err)
	}
	return nil
}

// RecentAnalyses returns the most recent analyses, newest first.
func (s *SQLiteStore) RecentAnalyses(limit int) ([]AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, listing_id, url, title, verdict, score, risk_level, created_at
		FROM analyses ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var records []AnalysisRecord
	for rows.Next() {
		var rec AnalysisRecord
		if err := rows.Scan(&rec.ID, &rec.ListingID, &rec.URL, &rec.Title, &rec.Verdict, &rec.Score, &rec.RiskLevel, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis row: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordFromResult builds an AnalysisRecord from a completed analysis.
func RecordFromResult(l *listing.Listing, result *listing.AnalysisResult) *AnalysisRecord {
	rec := &AnalysisRecord{
		ListingID: l.ID,
		URL:       l.URL,
		Title:     l.Title,
		Verdict:   string(listing.VerdictUnknown),
	}
	if result.PriceComparison != nil {
		rec.Verdict = string(result.PriceComparison.Verdict)
	}
	if result.ScamAnalysis != nil {
		rec.Score = result.ScamAnalysis.Score
		rec.RiskLevel = string(result.ScamAnalysis.RiskLevel)
	}
	return rec
}

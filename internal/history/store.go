// Package history keeps a local log of completed scans so the app can show
// recent lookups without refetching.
package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/campuswell/nutriscan/internal/types"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

// Entry is one recorded scan.
type Entry struct {
	ID          int64     `json:"id"`
	Barcode     string    `json:"barcode"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand"`
	HealthScore int       `json:"health_score"`
	Tier        string    `json:"tier"`
	Status      string    `json:"status"`
	ScannedAt   time.Time `json:"scanned_at"`
}

// Store persists scan history in SQLite.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// NewStore opens (or creates) the history database at dbPath.
func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// WAL keeps reads from blocking the write path during lookups.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Debug("Scan history store ready", "path", dbPath)
	return &Store{db: db, log: logger}, nil
}

// Record appends one completed lookup to the history.
func (s *Store) Record(ctx context.Context, result *types.LookupResult) error {
	query := `
		INSERT INTO scans (barcode, name, brand, health_score, tier, status, scanned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		result.Barcode,
		result.Name,
		result.Brand,
		result.HealthScore,
		string(result.Tier.Tier),
		string(result.Status),
		result.FetchedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}
	return nil
}

// Recent returns the newest scans, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, barcode, name, brand, health_score, tier, status, scanned_at
		FROM scans
		ORDER BY scanned_at DESC, id DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Barcode, &e.Name, &e.Brand, &e.HealthScore, &e.Tier, &e.Status, &e.ScannedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows error: %w", err)
	}

	return entries, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

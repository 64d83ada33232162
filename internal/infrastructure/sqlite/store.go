// Package sqlite stores analysis records in a local SQLite file. It backs
// the CLI and single-node deployments that run without PostgreSQL.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"guardian-shield/internal/config"
	"guardian-shield/internal/domain/models"
)

// DBFileName is the database file created inside the configured directory
const DBFileName = "guardian.db"

// timeLayout has a fixed width so created_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store persists analysis records in SQLite
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the store under cfg.Dir
func Open(cfg config.SQLiteConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, DBFileName)
	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if cfg.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		content_type TEXT NOT NULL,
		verdict TEXT NOT NULL,
		score INTEGER NOT NULL,
		subject TEXT NOT NULL,
		payload TEXT NOT NULL,
		user_id INTEGER NOT NULL DEFAULT 0,
		client_id TEXT,
		source TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
	CREATE INDEX IF NOT EXISTS idx_analyses_verdict ON analyses(verdict);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Save inserts a record. The full result is kept as JSON in payload; the
// scalar columns exist for filtering.
func (s *Store) Save(ctx context.Context, rec models.AnalysisRecord) error {
	payload, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO analyses
			(id, content_type, verdict, score, subject, payload, user_id, client_id, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Result.ID.String(), string(rec.Result.ContentType), string(rec.Result.Verdict), rec.Result.Score,
		rec.Subject, string(payload), rec.Meta.UserID, rec.Meta.ClientID, rec.Meta.Source,
		rec.Result.Timestamp.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject, payload, user_id, client_id, source
		FROM analyses
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var records []models.AnalysisRecord
	for rows.Next() {
		var (
			rec              models.AnalysisRecord
			id, payload      string
			clientID, source sql.NullString
		)
		if err := rows.Scan(&id, &rec.Subject, &payload, &rec.Meta.UserID, &clientID, &source); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &rec.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis %s: %w", id, err)
		}
		if rec.Result.ID == uuid.Nil {
			rec.Result.ID, _ = uuid.Parse(id)
		}
		rec.Meta.ClientID = clientID.String
		rec.Meta.Source = source.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}

	return records, nil
}

// CountByVerdict returns how many analyses ended in each verdict
func (s *Store) CountByVerdict(ctx context.Context) (map[models.Verdict]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT verdict, COUNT(*) FROM analyses GROUP BY verdict`)
	if err != nil {
		return nil, fmt.Errorf("failed to count analyses: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Verdict]int64)
	for rows.Next() {
		var verdict string
		var n int64
		if err := rows.Scan(&verdict, &n); err != nil {
			return nil, fmt.Errorf("failed to scan verdict count: %w", err)
		}
		counts[models.Verdict(verdict)] = n
	}
	return counts, rows.Err()
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"guardian-shield/internal/domain/models"
)

const analysisSchema = `
	CREATE TABLE IF NOT EXISTS analyses (
		id                   UUID PRIMARY KEY,
		content_type         TEXT NOT NULL,
		verdict              TEXT NOT NULL,
		score                INTEGER NOT NULL CHECK (score BETWEEN 0 AND 100),
		subject              TEXT NOT NULL,
		details              TEXT[] NOT NULL,
		recommendations      TEXT[] NOT NULL,
		signals              JSONB,
		breakdown            JSONB,
		manipulation_markers INTEGER,
		user_id              INTEGER NOT NULL DEFAULT 0,
		client_id            TEXT,
		source               TEXT,
		created_at           TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses (created_at DESC);`

// AnalysisRepository persists analysis records in PostgreSQL
type AnalysisRepository struct {
	pool *pgxpool.Pool
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(pool *pgxpool.Pool) *AnalysisRepository {
	return &AnalysisRepository{pool: pool}
}

// EnsureSchema creates the analyses table if it does not exist
func (r *AnalysisRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, analysisSchema); err != nil {
		return fmt.Errorf("failed to create analyses schema: %w", err)
	}
	return nil
}

// Save inserts a record. Saving the same analysis twice is a no-op.
func (r *AnalysisRepository) Save(ctx context.Context, rec models.AnalysisRecord) error {
	signals, breakdown, err := encodeExtras(rec.Result)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO analyses (
			id, content_type, verdict, score, subject,
			details, recommendations, signals, breakdown, manipulation_markers,
			user_id, client_id, source, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		) ON CONFLICT (id) DO NOTHING`

	res := rec.Result
	_, err = r.pool.Exec(ctx, query,
		res.ID, string(res.ContentType), string(res.Verdict), res.Score, rec.Subject,
		res.Details, res.Recommendations, signals, breakdown, intOrNull(res.ManipulationMarkers),
		rec.Meta.UserID, textOrNull(rec.Meta.ClientID), textOrNull(rec.Meta.Source), timeToTimestamptz(res.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// Recent returns the latest records, newest first
func (r *AnalysisRepository) Recent(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	query := `
		SELECT id, content_type, verdict, score, subject,
			   details, recommendations, signals, breakdown, manipulation_markers,
			   user_id, client_id, source, created_at
		FROM analyses
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var records []models.AnalysisRecord
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}

	return records, nil
}

// CountByVerdict returns how many analyses ended in each verdict
func (r *AnalysisRepository) CountByVerdict(ctx context.Context) (map[models.Verdict]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT verdict, COUNT(*) FROM analyses GROUP BY verdict`)
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

func scanAnalysis(row pgx.Row) (models.AnalysisRecord, error) {
	var (
		rec                  models.AnalysisRecord
		contentType, verdict string
		signals, breakdown   []byte
		markers              pgtype.Int4
		clientID, source     pgtype.Text
		createdAt            pgtype.Timestamptz
	)

	err := row.Scan(
		&rec.Result.ID, &contentType, &verdict, &rec.Result.Score, &rec.Subject,
		&rec.Result.Details, &rec.Result.Recommendations, &signals, &breakdown, &markers,
		&rec.Meta.UserID, &clientID, &source, &createdAt,
	)
	if err != nil {
		return models.AnalysisRecord{}, fmt.Errorf("failed to scan analysis: %w", err)
	}

	rec.Result.ContentType = models.ContentType(contentType)
	rec.Result.Verdict = models.Verdict(verdict)
	rec.Result.Timestamp = timestamptzToTime(createdAt)
	rec.Meta.ClientID = nullTextToString(clientID)
	rec.Meta.Source = nullTextToString(source)
	rec.Result.ManipulationMarkers = int4ToIntPtr(markers)

	if err := decodeExtras(&rec.Result, signals, breakdown); err != nil {
		return models.AnalysisRecord{}, err
	}

	return rec, nil
}

// encodeExtras marshals the JSONB columns; nil means SQL NULL
func encodeExtras(res models.AnalysisResult) ([]byte, []byte, error) {
	var signals, breakdown []byte
	var err error

	if len(res.Signals) > 0 {
		if signals, err = json.Marshal(res.Signals); err != nil {
			return nil, nil, fmt.Errorf("failed to marshal signals: %w", err)
		}
	}
	if res.Breakdown != nil {
		if breakdown, err = json.Marshal(res.Breakdown); err != nil {
			return nil, nil, fmt.Errorf("failed to marshal breakdown: %w", err)
		}
	}
	return signals, breakdown, nil
}

func decodeExtras(res *models.AnalysisResult, signals, breakdown []byte) error {
	if len(signals) > 0 {
		if err := json.Unmarshal(signals, &res.Signals); err != nil {
			return fmt.Errorf("failed to unmarshal signals: %w", err)
		}
	}
	if len(breakdown) > 0 {
		var b models.EmailBreakdown
		if err := json.Unmarshal(breakdown, &b); err != nil {
			return fmt.Errorf("failed to unmarshal breakdown: %w", err)
		}
		res.Breakdown = &b
	}
	return nil
}

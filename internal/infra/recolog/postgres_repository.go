package recolog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/weatherwear/internal/domain/outfit"
)

const schema = `
CREATE TABLE IF NOT EXISTS recommendation_log (
	id          UUID PRIMARY KEY,
	location    TEXT NOT NULL,
	preferences JSONB NOT NULL,
	source      TEXT NOT NULL,
	confidence  TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS recommendation_log_created_at_idx ON recommendation_log (created_at DESC);
`

// PostgresRepository implements outfit.LogRepository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the log table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create recommendation_log: %w", err)
	}
	return nil
}

// Append implements outfit.LogRepository.
func (r *PostgresRepository) Append(ctx context.Context, entry outfit.LogEntry) error {
	prefs, err := json.Marshal(entry.Preferences)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO recommendation_log (id, location, preferences, source, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.Location, prefs, string(entry.Source), string(entry.Confidence), entry.CreatedAt)
	return err
}

// Recent implements outfit.LogRepository.
func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]outfit.LogEntry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, location, preferences, source, confidence, created_at
		FROM recommendation_log
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]outfit.LogEntry, 0, limit)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(row pgx.Row) (outfit.LogEntry, error) {
	var (
		entry      outfit.LogEntry
		prefs      []byte
		source     string
		confidence string
	)
	if err := row.Scan(&entry.ID, &entry.Location, &prefs, &source, &confidence, &entry.CreatedAt); err != nil {
		return outfit.LogEntry{}, err
	}
	if err := json.Unmarshal(prefs, &entry.Preferences); err != nil {
		return outfit.LogEntry{}, fmt.Errorf("decode preferences: %w", err)
	}
	entry.Source = outfit.Source(source)
	entry.Confidence = outfit.Confidence(confidence)
	return entry, nil
}

var _ outfit.LogRepository = (*PostgresRepository)(nil)

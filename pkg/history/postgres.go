package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// defaultOpTimeout bounds the context-free Store interface calls.
const defaultOpTimeout = 5 * time.Second

// PostgresStore persists predictions in PostgreSQL for deployments where
// several engine instances share one calibration log. The plain Store
// methods wrap the context-aware variants with a bounded background
// context, since the engine records fire-and-forget.
type PostgresStore struct {
	pool      *pgxpool.Pool
	opTimeout time.Duration
}

// NewPostgresStore connects to the database, verifies the connection, and
// creates the schema when it is missing.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := &PostgresStore{pool: pool, opTimeout: defaultOpTimeout}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS prediction_log (
		id TEXT PRIMARY KEY,
		service TEXT NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL,
		token_name TEXT NOT NULL,
		new_value TEXT NOT NULL,
		prediction JSONB,
		confidence DOUBLE PRECISION NOT NULL,
		validated_at TIMESTAMPTZ,
		actual_value TEXT NOT NULL DEFAULT '',
		accurate BOOLEAN
	);

	CREATE INDEX IF NOT EXISTS idx_prediction_log_service ON prediction_log(service);
	CREATE INDEX IF NOT EXISTS idx_prediction_log_token ON prediction_log(token_name);
	CREATE INDEX IF NOT EXISTS idx_prediction_log_recorded_at ON prediction_log(recorded_at);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// RecordContext appends a prediction entry.
func (s *PostgresStore) RecordContext(ctx context.Context, e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.ID == "" {
		e.ID = newEntryID()
	}

	var prediction []byte
	if len(e.Prediction) > 0 {
		prediction = []byte(e.Prediction)
	}

	query := `
		INSERT INTO prediction_log
			(id, service, recorded_at, token_name, new_value, prediction, confidence, validated_at, actual_value, accurate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.pool.Exec(ctx, query,
		e.ID, e.Service, e.Timestamp, e.TokenName, e.NewValue,
		prediction, e.Confidence, e.ValidatedAt, e.ActualValue, e.Accurate)
	if err != nil {
		return fmt.Errorf("record prediction: %w", err)
	}
	return nil
}

// EntriesContext retrieves entries matching the filter, oldest first.
func (s *PostgresStore) EntriesContext(ctx context.Context, f *Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f != nil {
		if f.Service != "" {
			where = append(where, "service = "+arg(f.Service))
		}
		if f.TokenName != "" {
			where = append(where, "token_name = "+arg(f.TokenName))
		}
		if f.OnlyValidated {
			where = append(where, "validated_at IS NOT NULL")
		}
		if f.StartTime != nil {
			where = append(where, "recorded_at >= "+arg(*f.StartTime))
		}
		if f.EndTime != nil {
			where = append(where, "recorded_at <= "+arg(*f.EndTime))
		}
	}

	query := `
		SELECT id, service, recorded_at, token_name, new_value, prediction, confidence, validated_at, actual_value, accurate
		FROM prediction_log
	`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY recorded_at ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var prediction []byte
		if err := rows.Scan(&e.ID, &e.Service, &e.Timestamp, &e.TokenName, &e.NewValue,
			&prediction, &e.Confidence, &e.ValidatedAt, &e.ActualValue, &e.Accurate); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		e.Prediction = prediction
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate predictions: %w", err)
	}
	return entries, nil
}

// MarkValidatedContext fills in the outcome of a recorded prediction.
func (s *PostgresStore) MarkValidatedContext(ctx context.Context, id, actualValue string, accurate bool) error {
	query := `
		UPDATE prediction_log
		SET validated_at = $2, actual_value = $3, accurate = $4
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query, id, time.Now(), actualValue, accurate)
	if err != nil {
		return fmt.Errorf("mark validated: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// StatsContext aggregates accuracy statistics in the database.
func (s *PostgresStore) StatsContext(ctx context.Context) (Stats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(validated_at),
		       COUNT(*) FILTER (WHERE accurate),
		       COALESCE(AVG(confidence), 0)
		FROM prediction_log
	`
	var stats Stats
	if err := s.pool.QueryRow(ctx, query).Scan(&stats.Total, &stats.Validated, &stats.Accurate, &stats.AvgConfidence); err != nil {
		return Stats{}, fmt.Errorf("aggregate stats: %w", err)
	}
	if stats.Validated > 0 {
		stats.AccuracyRate = float64(stats.Accurate) / float64(stats.Validated)
	}
	return stats, nil
}

// Record appends a prediction entry
func (s *PostgresStore) Record(e Entry) error {
	ctx, cancel := s.opContext()
	defer cancel()
	return s.RecordContext(ctx, e)
}

// Entries retrieves entries matching the filter, oldest first
func (s *PostgresStore) Entries(f *Filter) ([]Entry, error) {
	ctx, cancel := s.opContext()
	defer cancel()
	return s.EntriesContext(ctx, f)
}

// MarkValidated fills in the outcome of a recorded prediction
func (s *PostgresStore) MarkValidated(id, actualValue string, accurate bool) error {
	ctx, cancel := s.opContext()
	defer cancel()
	return s.MarkValidatedContext(ctx, id, actualValue, accurate)
}

// Stats aggregates accuracy statistics over the whole log
func (s *PostgresStore) Stats() (Stats, error) {
	ctx, cancel := s.opContext()
	defer cancel()
	return s.StatsContext(ctx)
}

func (s *PostgresStore) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.opTimeout)
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var _ Store = (*PostgresStore)(nil)

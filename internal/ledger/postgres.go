package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ddl = `
CREATE TABLE IF NOT EXISTS shadow_processed_files (
  bucket text NOT NULL,
  object_key text NOT NULL,
  size bigint NOT NULL,
  model text NOT NULL DEFAULT '',
  version_id bigint NOT NULL DEFAULT 0,
  processed integer NOT NULL DEFAULT 0,
  rejected integer NOT NULL DEFAULT 0,
  processed_at timestamptz NOT NULL DEFAULT now(),
  PRIMARY KEY (bucket, object_key, size)
);
`

// PostgresLedger stores entries in Postgres.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger connects to dsn and ensures the table exists.
func NewPostgresLedger(ctx context.Context, dsn string) (*PostgresLedger, error) {
	if dsn == "" {
		return nil, errors.New("ledger database url is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect ledger: %w", err)
	}
	l, err := NewPostgresLedgerWithPool(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return l, nil
}

// NewPostgresLedgerWithPool reuses an existing pool.
func NewPostgresLedgerWithPool(ctx context.Context, pool *pgxpool.Pool) (*PostgresLedger, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return nil, fmt.Errorf("ensure ledger table: %w", err)
	}
	return &PostgresLedger{db: pool}, nil
}

func (l *PostgresLedger) Seen(ctx context.Context, bucket, key string, size int64) (bool, error) {
	var one int
	err := l.db.QueryRow(ctx,
		`SELECT 1 FROM shadow_processed_files WHERE bucket=$1 AND object_key=$2 AND size=$3`,
		bucket, key, size).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger lookup %s/%s: %w", bucket, key, err)
	}
	return true, nil
}

func (l *PostgresLedger) Mark(ctx context.Context, entry Entry) error {
	if entry.ProcessedAt.IsZero() {
		entry.ProcessedAt = time.Now().UTC()
	}
	_, err := l.db.Exec(ctx, `
INSERT INTO shadow_processed_files (bucket, object_key, size, model, version_id, processed, rejected, processed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (bucket, object_key, size) DO UPDATE SET
  model = EXCLUDED.model,
  version_id = EXCLUDED.version_id,
  processed = EXCLUDED.processed,
  rejected = EXCLUDED.rejected,
  processed_at = EXCLUDED.processed_at`,
		entry.Bucket, entry.Key, entry.Size, entry.Model, entry.VersionID, entry.Processed, entry.Rejected, entry.ProcessedAt)
	if err != nil {
		return fmt.Errorf("ledger mark %s/%s: %w", entry.Bucket, entry.Key, err)
	}
	return nil
}

func (l *PostgresLedger) Close() error {
	l.db.Close()
	return nil
}

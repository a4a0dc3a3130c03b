package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/cohort/internal/core"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS cohort_imports (
	slot        TEXT PRIMARY KEY,
	import_id   TEXT NOT NULL,
	file_name   TEXT NOT NULL,
	imported_at TIMESTAMPTZ NOT NULL,
	payload     JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const postgresUpsert = `
INSERT INTO cohort_imports (slot, import_id, file_name, imported_at, payload, updated_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (slot) DO UPDATE SET
	import_id   = EXCLUDED.import_id,
	file_name   = EXCLUDED.file_name,
	imported_at = EXCLUDED.imported_at,
	payload     = EXCLUDED.payload,
	updated_at  = now()`

const postgresSelect = `SELECT payload FROM cohort_imports WHERE slot = $1`

// Postgres stores the last import as a JSONB row keyed by slot.
type Postgres struct {
	pool *pgxpool.Pool
	slot string
}

// OpenPostgres connects a pool and creates the table if needed.
func OpenPostgres(ctx context.Context, opts Options) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create cohort_imports: %w", err)
	}

	return NewPostgres(pool, opts.Slot), nil
}

// NewPostgres wraps an existing pool. The table must already exist.
func NewPostgres(pool *pgxpool.Pool, slot string) *Postgres {
	if slot == "" {
		slot = core.LastImportKey
	}
	return &Postgres{pool: pool, slot: slot}
}

func (p *Postgres) SaveLastImport(ctx context.Context, snap core.Snapshot) error {
	payload, err := core.EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	if _, err := p.pool.Exec(ctx, postgresUpsert,
		p.slot, snap.ID, snap.FileName, snap.ImportedAt, payload,
	); err != nil {
		return fmt.Errorf("upsert %s: %w", p.slot, err)
	}
	return nil
}

func (p *Postgres) LoadLastImport(ctx context.Context) (*core.Snapshot, error) {
	var payload []byte
	err := p.pool.QueryRow(ctx, postgresSelect, p.slot).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNoImport
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", p.slot, err)
	}
	return core.DecodeSnapshot(payload)
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

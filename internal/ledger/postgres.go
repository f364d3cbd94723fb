package ledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool used by the Postgres ledger. pgxmock
// satisfies it for tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresLedger persists processed ids in a Postgres table.
type PostgresLedger struct {
	pool Pool
	set  *memSet
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS processed_leads (
	lead_id      TEXT PRIMARY KEY,
	processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// NewPostgres creates a Postgres-backed ledger with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresLedger, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: postgres parse config")
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: postgres connect")
	}

	l := NewPostgresWithPool(pool)
	if err := l.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return l, nil
}

// NewPostgresWithPool wraps an existing pool without running the migration.
func NewPostgresWithPool(pool Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool, set: newMemSet()}
}

func (l *PostgresLedger) migrate(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "ledger: postgres migrate")
}

func (l *PostgresLedger) Load(ctx context.Context) error {
	rows, err := l.pool.Query(ctx, `SELECT lead_id FROM processed_leads`)
	if err != nil {
		return eris.Wrap(err, "ledger: postgres select")
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return eris.Wrap(err, "ledger: postgres scan")
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "ledger: postgres rows")
	}

	l.set.reset(ids)
	return nil
}

func (l *PostgresLedger) IsProcessed(leadID string) bool {
	return l.set.has(leadID)
}

func (l *PostgresLedger) MarkProcessed(ctx context.Context, leadID string) error {
	defer l.set.add(leadID)

	_, err := l.pool.Exec(ctx,
		`INSERT INTO processed_leads (lead_id) VALUES ($1) ON CONFLICT (lead_id) DO NOTHING`,
		leadID,
	)
	return eris.Wrapf(err, "ledger: postgres insert %s", leadID)
}

func (l *PostgresLedger) Count() int {
	return l.set.len()
}

func (l *PostgresLedger) Close() error {
	l.pool.Close()
	return nil
}

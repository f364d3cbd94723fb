package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteLedger persists processed ids in a SQLite database.
type SQLiteLedger struct {
	db  *sql.DB
	set *memSet
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS processed_leads (
	lead_id      TEXT PRIMARY KEY,
	processed_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// NewSQLite opens a SQLite-backed ledger at the given path and configures
// WAL mode.
func NewSQLite(dsn string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "ledger: sqlite exec %s", pragma)
		}
	}
	if _, err := db.Exec(sqliteMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "ledger: sqlite migrate")
	}
	return &SQLiteLedger{db: db, set: newMemSet()}, nil
}

func (l *SQLiteLedger) Load(ctx context.Context) error {
	rows, err := l.db.QueryContext(ctx, `SELECT lead_id FROM processed_leads`)
	if err != nil {
		return eris.Wrap(err, "ledger: sqlite select")
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return eris.Wrap(err, "ledger: sqlite scan")
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "ledger: sqlite rows")
	}

	l.set.reset(ids)
	return nil
}

func (l *SQLiteLedger) IsProcessed(leadID string) bool {
	return l.set.has(leadID)
}

func (l *SQLiteLedger) MarkProcessed(ctx context.Context, leadID string) error {
	defer l.set.add(leadID)

	_, err := l.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO processed_leads (lead_id, processed_at) VALUES (?, ?)`,
		leadID, time.Now().UTC(),
	)
	return eris.Wrapf(err, "ledger: sqlite insert %s", leadID)
}

func (l *SQLiteLedger) Count() int {
	return l.set.len()
}

func (l *SQLiteLedger) Close() error {
	return eris.Wrap(l.db.Close(), "ledger: sqlite close")
}

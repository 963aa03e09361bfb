package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// :memory: databases are per connection
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	log.Printf("[db] opened %s", dsn)
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Dashboard view-state, one row per browser session
CREATE TABLE IF NOT EXISTS view_sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL DEFAULT '',
  mode TEXT NOT NULL DEFAULT 'listing' CHECK (mode IN ('listing','search')),
  query TEXT NOT NULL DEFAULT '',
  sort_order TEXT NOT NULL DEFAULT 'relevance',
  page INTEGER NOT NULL DEFAULT 0 CHECK (page >= 0),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_view_sessions_updated ON view_sessions(updated_at);
CREATE INDEX IF NOT EXISTS idx_view_sessions_user    ON view_sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

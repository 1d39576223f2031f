package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/port-douala/meteomarine-api/pkg/config"
)

// Schema holds the DDL for the download request store. granted_at and token
// stay NULL until an admin accepts the request.
const Schema = `
CREATE TABLE IF NOT EXISTS demandes (
    id         TEXT PRIMARY KEY,
    nom        TEXT NOT NULL,
    structure  TEXT NOT NULL,
    email      TEXT NOT NULL,
    raison     TEXT NOT NULL,
    statut     TEXT NOT NULL,
    token      TEXT,
    granted_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_demandes_email ON demandes (email);
CREATE INDEX IF NOT EXISTS idx_demandes_statut ON demandes (statut);
`

// NewSQLite opens the embedded store and ensures the schema exists.
func NewSQLite(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	path := cfg.Path
	if path == "" {
		path = "demandes.db"
	}

	// busy_timeout keeps concurrent request/admin sessions from failing on
	// sqlite's writer lock; each UPDATE stays a single atomic statement.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return db, nil
}

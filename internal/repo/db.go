package repo

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	filename TEXT PRIMARY KEY,
	size INTEGER NOT NULL,
	uploaded_at INTEGER NOT NULL,
	index_name TEXT NOT NULL,
	provider TEXT NOT NULL,
	chunk_count INTEGER NOT NULL,
	mtime INTEGER NOT NULL
);
`

func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func ApplyMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

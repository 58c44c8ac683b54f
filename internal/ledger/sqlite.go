package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the ledger in a single-table SQLite database. Save
// keeps the full-rewrite contract by replacing the table contents in one
// transaction.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create ledger directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open ledger database: %w", err)
	}

	// Single connection: the ledger is only ever touched sequentially.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger migration failed: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS relayed (
		key       TEXT PRIMARY KEY,
		posted_at TIMESTAMP NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Load() ([]Record, error) {
	rows, err := s.db.Query(`SELECT key, posted_at FROM relayed ORDER BY posted_at`)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Key, &r.PostedAt); err != nil {
			return nil, fmt.Errorf("scan ledger record: %w", err)
		}
		r.PostedAt = r.PostedAt.UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Save(records []Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM relayed`); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	for _, r := range records {
		if _, err := tx.Exec(
			`INSERT INTO relayed (key, posted_at) VALUES (?, ?)`,
			r.Key, r.PostedAt.UTC(),
		); err != nil {
			return fmt.Errorf("save ledger record %s: %w", r.Key, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

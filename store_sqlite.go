package entrysource

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface on a two-column SQLite
// table.
type SQLiteStore struct {
	DB        *sql.DB
	TableName string
}

// NewSQLiteStore creates a SQLite store.
func NewSQLiteStore(db *sql.DB, tableName string) *SQLiteStore {
	if tableName == "" {
		tableName = "entrysource_tracking"
	}
	return &SQLiteStore{DB: db, TableName: tableName}
}

// Setup initializes pragmas and the table schema.
func (s *SQLiteStore) Setup() error {
	if s.DB == nil {
		return fmt.Errorf("sqlite store requires DB")
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := s.DB.Exec(p); err != nil {
			return err
		}
	}
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, value TEXT NOT NULL DEFAULT '');`, s.TableName)
	_, err := s.DB.Exec(query)
	return err
}

func (s *SQLiteStore) Description() string {
	return "SQLiteStore"
}

// Get reads a key, reporting absence without error.
func (s *SQLiteStore) Get(key string) (string, bool, error) {
	if s.DB == nil {
		return "", false, fmt.Errorf("sqlite store requires DB")
	}
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = ?;`, s.TableName)
	var value string
	err := s.DB.QueryRow(query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set upserts a key.
func (s *SQLiteStore) Set(key, value string) error {
	if s.DB == nil {
		return fmt.Errorf("sqlite store requires DB")
	}
	query := fmt.Sprintf(`INSERT INTO %s (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value;`, s.TableName)
	_, err := s.DB.Exec(query, key, value)
	return err
}

// Delete removes a key.
func (s *SQLiteStore) Delete(key string) error {
	if s.DB == nil {
		return fmt.Errorf("sqlite store requires DB")
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = ?;`, s.TableName)
	_, err := s.DB.Exec(query, key)
	return err
}

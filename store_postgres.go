package entrysource

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements the Store interface on a two-column
// PostgreSQL table.
type PostgresStore struct {
	DB        *sql.DB
	TableName string
}

// NewPostgresStore creates a PostgreSQL store.
func NewPostgresStore(db *sql.DB, tableName string) *PostgresStore {
	if tableName == "" {
		tableName = "entrysource_tracking"
	}
	return &PostgresStore{DB: db, TableName: tableName}
}

// Setup initializes the table schema.
func (s *PostgresStore) Setup() error {
	if s.DB == nil {
		return fmt.Errorf("postgres store requires DB")
	}
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key VARCHAR(255) PRIMARY KEY, value TEXT NOT NULL DEFAULT '');`, s.TableName)
	_, err := s.DB.Exec(query)
	return err
}

func (s *PostgresStore) Description() string {
	return "PostgresStore"
}

// Get reads a key, reporting absence without error.
func (s *PostgresStore) Get(key string) (string, bool, error) {
	if s.DB == nil {
		return "", false, fmt.Errorf("postgres store requires DB")
	}
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1;`, s.TableName)
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
func (s *PostgresStore) Set(key, value string) error {
	if s.DB == nil {
		return fmt.Errorf("postgres store requires DB")
	}
	query := fmt.Sprintf(`INSERT INTO %s (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value;`, s.TableName)
	_, err := s.DB.Exec(query, key, value)
	return err
}

// Delete removes a key.
func (s *PostgresStore) Delete(key string) error {
	if s.DB == nil {
		return fmt.Errorf("postgres store requires DB")
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1;`, s.TableName)
	_, err := s.DB.Exec(query, key)
	return err
}

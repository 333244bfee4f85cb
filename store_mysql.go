package entrysource

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore implements the Store interface on a two-column MySQL
// table.
type MySQLStore struct {
	DB        *sql.DB
	TableName string
}

// NewMySQLStore creates a MySQL store.
func NewMySQLStore(db *sql.DB, tableName string) *MySQLStore {
	if tableName == "" {
		tableName = "entrysource_tracking"
	}
	return &MySQLStore{DB: db, TableName: tableName}
}

// Setup initializes the table schema.
func (s *MySQLStore) Setup() error {
	if s.DB == nil {
		return fmt.Errorf("mysql store requires DB")
	}
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` (`key` VARCHAR(255) PRIMARY KEY, `value` TEXT NOT NULL);", s.TableName)
	_, err := s.DB.Exec(query)
	return err
}

func (s *MySQLStore) Description() string {
	return "MySQLStore"
}

// Get reads a key, reporting absence without error.
func (s *MySQLStore) Get(key string) (string, bool, error) {
	if s.DB == nil {
		return "", false, fmt.Errorf("mysql store requires DB")
	}
	query := fmt.Sprintf("SELECT `value` FROM `%s` WHERE `key` = ?;", s.TableName)
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
func (s *MySQLStore) Set(key, value string) error {
	if s.DB == nil {
		return fmt.Errorf("mysql store requires DB")
	}
	query := fmt.Sprintf("INSERT INTO `%s` (`key`, `value`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `value` = VALUES(`value`);", s.TableName)
	_, err := s.DB.Exec(query, key, value)
	return err
}

// Delete removes a key.
func (s *MySQLStore) Delete(key string) error {
	if s.DB == nil {
		return fmt.Errorf("mysql store requires DB")
	}
	query := fmt.Sprintf("DELETE FROM `%s` WHERE `key` = ?;", s.TableName)
	_, err := s.DB.Exec(query, key)
	return err
}

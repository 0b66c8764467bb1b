package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// NewSQLiteDB opens the sqlite file at dbPath in WAL mode with foreign keys on
func NewSQLiteDB(dbPath string) (*sql.DB, error) {
	// foreign keys are enabled per connection, so they go in the DSN
	database, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", dbPath))
	if err != nil {
		return nil, err
	}
	_, err = database.Exec(`
		pragma synchronous = normal;
		pragma journal_size_limit = 6144000;
	`)
	return database, err
}

// ReturnErrNotFound maps sql.ErrNoRows to ErrNotFound
func ReturnErrNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// ReturnErrAlreadyExists maps primary key and unique violations to ErrAlreadyExists
func ReturnErrAlreadyExists(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique) {
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	}
	return err
}

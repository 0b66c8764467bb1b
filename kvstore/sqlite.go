package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/perpx/explorer/db"
)

// SQLiteStore keeps the values in the key_value table
type SQLiteStore struct {
	db *sql.DB
}

var _ KeyValueStore = (*SQLiteStore)(nil)

func NewSQLiteStore(database *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: database}
}

func (s *SQLiteStore) FindByKey(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM key_value WHERE key = $1;`, key).Scan(&value)
	if errors.Is(db.ReturnErrNotFound(err), db.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("error reading key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) AddOrUpdate(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO key_value (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value;
	`, key, value)
	if err != nil {
		return fmt.Errorf("error writing key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM key_value WHERE key = $1;`, key); err != nil {
		return fmt.Errorf("error deleting key %s: %w", key, err)
	}
	return nil
}

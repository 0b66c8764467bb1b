package kvstore

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// KeyValueStore keeps small pieces of string state
type KeyValueStore interface {
	// FindByKey returns false when the key is not set
	FindByKey(ctx context.Context, key string) (string, bool, error)
	AddOrUpdate(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Config selects and configures the backend of the store
type Config struct {
	// Backend is either "sqlite" or "redis"
	Backend string `mapstructure:"Backend" jsonschema:"enum=sqlite,enum=redis"`
	// RedisURL is the redis connection url, e.g. redis://localhost:6379/0
	RedisURL string `mapstructure:"RedisURL"`
	// RedisPassword overrides the password of RedisURL when set
	RedisPassword string `mapstructure:"RedisPassword"`
	// KeyPrefix namespaces the keys stored in redis
	KeyPrefix string `mapstructure:"KeyPrefix"`
}

// New creates the store for the configured backend. database is only used by the sqlite backend.
func New(ctx context.Context, cfg Config, database *sql.DB) (KeyValueStore, error) {
	switch cfg.Backend {
	case BackendSQLite, "":
		return NewSQLiteStore(database), nil
	case BackendRedis:
		return NewRedisStoreFromURL(ctx, cfg.RedisURL, cfg.RedisPassword, cfg.KeyPrefix)
	default:
		return nil, fmt.Errorf("unknown key value store backend %q", cfg.Backend)
	}
}

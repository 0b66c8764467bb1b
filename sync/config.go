package sync

import (
	"time"

	"github.com/perpx/explorer/config/types"
)

// Config is the configuration of the sync scheduler
type Config struct {
	// EarliestBlock is the first block worth syncing, the watermark starts here
	EarliestBlock uint64 `mapstructure:"EarliestBlock"`
	// MaxBlockNumber stops syncing after this block. 0 means no limit
	MaxBlockNumber uint64 `mapstructure:"MaxBlockNumber"`
	// SyncBatchSize is the max amount of blocks synced by a single effect. 0 means no limit
	SyncBatchSize int `mapstructure:"SyncBatchSize"`
	// RetryAfterErrorPeriod is the pause before a failed effect is reported back to the state machine
	RetryAfterErrorPeriod types.Duration `mapstructure:"RetryAfterErrorPeriod"`
}

func (c Config) reducerConfig() ReducerConfig {
	return ReducerConfig{
		EarliestBlock:  c.EarliestBlock,
		MaxBlockNumber: c.MaxBlockNumber,
		SyncBatchSize:  c.SyncBatchSize,
	}
}

func (c Config) retryAfterErrorPeriod() time.Duration {
	return c.RetryAfterErrorPeriod.Duration
}

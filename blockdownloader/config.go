package blockdownloader

import (
	"time"

	"github.com/perpx/explorer/config/types"
)

const (
	defaultPollInterval  = 2 * time.Second
	defaultMaxReorgDepth = 1000
)

// Config is the configuration of the block downloader
type Config struct {
	// PollInterval is the time between two checks of the chain head
	PollInterval types.Duration `mapstructure:"PollInterval"`
	// SafeBlockDistance is the amount of blocks kept between the head of the chain and the last downloaded block
	SafeBlockDistance uint64 `mapstructure:"SafeBlockDistance"`
	// MaxReorgDepth is the deepest reorg the downloader walks back before giving up
	MaxReorgDepth uint64 `mapstructure:"MaxReorgDepth"`
}

func (c Config) pollInterval() time.Duration {
	if c.PollInterval.Duration <= 0 {
		return defaultPollInterval
	}
	return c.PollInterval.Duration
}

func (c Config) maxReorgDepth() uint64 {
	if c.MaxReorgDepth == 0 {
		return defaultMaxReorgDepth
	}
	return c.MaxReorgDepth
}

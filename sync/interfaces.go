package sync

import "context"

// BlockWatcher follows the L1 chain and reports new blocks and reorgs
type BlockWatcher interface {
	// GetKnownBlocks returns the blocks above sinceHeight the watcher already knows
	GetKnownBlocks(ctx context.Context, sinceHeight uint64) ([]Block, error)
	OnNewBlock(handler func(Block)) (unsubscribe func())
	OnReorg(handler func([]Block)) (unsubscribe func())
}

// DataSyncer stores the chain data of block ranges. Both calls must be safe to retry.
type DataSyncer interface {
	Sync(ctx context.Context, blocks BlockRange) error
	DiscardAfter(ctx context.Context, blockNumber uint64) error
}

// SyncStatusStorer persists the sync watermark
type SyncStatusStorer interface {
	GetLastSynced(ctx context.Context) (uint64, bool, error)
	SetLastSynced(ctx context.Context, blockNumber uint64) error
}

// Preprocessor rebuilds the derived tables after the raw data changed
type Preprocessor interface {
	Sync(ctx context.Context) error
}

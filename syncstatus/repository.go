package syncstatus

import (
	"context"
	"strconv"

	"github.com/perpx/explorer/kvstore"
	"github.com/perpx/explorer/log"
)

const lastBlockNumberSyncedKey = "lastBlockNumberSynced"

// Repository persists the sync watermark in a key value store
type Repository struct {
	store kvstore.KeyValueStore
	log   *log.Logger
}

func NewRepository(store kvstore.KeyValueStore) *Repository {
	return &Repository{
		store: store,
		log:   log.WithFields("module", "sync-status"),
	}
}

// GetLastSynced returns the watermark. A value that is not a block number is
// reported as absent so syncing starts over.
func (r *Repository) GetLastSynced(ctx context.Context) (uint64, bool, error) {
	value, found, err := r.store.FindByKey(ctx, lastBlockNumberSyncedKey)
	if err != nil || !found {
		return 0, false, err
	}
	blockNumber, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		r.log.Warnf("ignoring invalid %s value %q: %v", lastBlockNumberSyncedKey, value, err)
		return 0, false, nil
	}
	return blockNumber, true, nil
}

func (r *Repository) SetLastSynced(ctx context.Context, blockNumber uint64) error {
	return r.store.AddOrUpdate(ctx, lastBlockNumberSyncedKey, strconv.FormatUint(blockNumber, 10))
}

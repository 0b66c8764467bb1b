package statesync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/perpx/explorer/db"
	"github.com/perpx/explorer/log"
	"github.com/perpx/explorer/metrics"
	"github.com/perpx/explorer/sync"
)

var ErrBlockHashMismatch = errors.New("state update included in a block that is not part of the range")

// StateSync keeps the raw state updates table in line with the canonical
// blocks handed by the scheduler
type StateSync struct {
	db        *sql.DB
	storage   *Storage
	collector Collector
	metrics   *metrics.Metrics
	log       *log.Logger
}

func New(database *sql.DB, collector Collector, m *metrics.Metrics) *StateSync {
	return &StateSync{
		db:        database,
		storage:   NewStorage(),
		collector: collector,
		metrics:   m,
		log:       log.WithFields("module", "statesync"),
	}
}

// Storage exposes the raw state reads for the preprocessing stage
func (s *StateSync) Storage() *Storage {
	return s.storage
}

// Sync collects and stores the state updates included in the given blocks
func (s *StateSync) Sync(ctx context.Context, blocks sync.BlockRange) error {
	first, ok := blocks.First()
	if !ok {
		return nil
	}
	last, _ := blocks.Last()
	updates, err := s.collector.Collect(ctx, first.Number, last.Number)
	if err != nil {
		return err
	}
	if err := checkBlockHashes(blocks, updates); err != nil {
		return err
	}
	err = db.ExecInTx(ctx, s.db, func(tx *db.Tx) error {
		// leftovers of a previous attempt on the same range
		if first.Number > 0 {
			if _, err := s.storage.DeleteAfterBlock(tx, first.Number-1); err != nil {
				return err
			}
		}
		return s.storage.AddStateUpdates(tx, updates)
	})
	if err != nil {
		return err
	}
	s.metrics.AddStateUpdatesSynced(len(updates))
	if len(updates) > 0 {
		s.log.Infof("synced %d state updates (%d..%d) from blocks %s",
			len(updates), updates[0].Update.ID, updates[len(updates)-1].Update.ID, blocks)
	}
	return nil
}

// DiscardAfter removes every state update included after blockNumber
func (s *StateSync) DiscardAfter(ctx context.Context, blockNumber uint64) error {
	var deleted int64
	err := db.ExecInTx(ctx, s.db, func(tx *db.Tx) error {
		var err error
		deleted, err = s.storage.DeleteAfterBlock(tx, blockNumber)
		return err
	})
	if err != nil {
		return err
	}
	s.metrics.AddStateUpdatesDiscarded(deleted)
	if deleted > 0 {
		s.log.Infof("discarded %d state updates after block %d", deleted, blockNumber)
	}
	return nil
}

// checkBlockHashes makes sure the node answered from the same chain the
// blocks were taken from
func checkBlockHashes(blocks sync.BlockRange, updates []FullStateUpdate) error {
	for _, u := range updates {
		n := u.Update.BlockNumber
		b, ok := blocks.Get(n)
		if !ok {
			return fmt.Errorf("%w: block %d outside %s", ErrBlockHashMismatch, n, blocks)
		}
		if b.Hash != u.Update.BlockHash {
			return fmt.Errorf("%w: block %d expected hash %s, got %s",
				ErrBlockHashMismatch, n, b.Hash, u.Update.BlockHash)
		}
	}
	return nil
}

package preprocessing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/perpx/explorer/assets"
	"github.com/perpx/explorer/db"
	"github.com/perpx/explorer/log"
	"github.com/perpx/explorer/metrics"
	"github.com/perpx/explorer/statesync"
)

// StateUpdateReader gives access to the raw state updates
type StateUpdateReader interface {
	GetFirstStateUpdate(tx db.Querier) (*statesync.StateUpdate, error)
	GetLastStateUpdate(tx db.Querier) (*statesync.StateUpdate, error)
	GetStateUpdate(tx db.Querier, id uint64) (*statesync.StateUpdate, error)
	GetNextStateUpdate(tx db.Querier, afterID uint64) (*statesync.StateUpdate, error)
	GetEntityUpdates(tx db.Querier, stateUpdateID uint64) ([]statesync.EntityUpdate, error)
	GetAssetPrices(tx db.Querier, stateUpdateID uint64) ([]statesync.AssetPrice, error)
}

type direction int

const (
	directionNone direction = iota
	directionForward
	directionBackward
)

// Status is a snapshot of the preprocessing progress
type Status struct {
	LastStateUpdateID uint64 `json:"lastStateUpdateId"`
	LastBlockNumber   uint64 `json:"lastBlockNumber"`
	HistoryRecords    uint64 `json:"historyRecordsAdded"`
	RolledBack        uint64 `json:"stateUpdatesRolledBack"`
}

// Preprocessor folds the raw state updates into the asset history, one state
// update per transaction, and unwinds it when raw state updates are discarded
type Preprocessor[K assets.Key] struct {
	db           *sql.DB
	stateUpdates StateUpdateReader
	preprocessed *PreprocessedStorage
	history      *HistoryPreprocessor[K]
	metrics      *metrics.Metrics
	log          *log.Logger

	statusLock sync.RWMutex
	status     Status
}

func New[K assets.Key](
	database *sql.DB,
	stateUpdates StateUpdateReader,
	m *metrics.Metrics,
) *Preprocessor[K] {
	return &Preprocessor[K]{
		db:           database,
		stateUpdates: stateUpdates,
		preprocessed: NewPreprocessedStorage(),
		history:      NewHistoryPreprocessor[K](NewHistoryStorage[K]()),
		metrics:      m,
		log:          log.WithFields("module", "preprocessing"),
	}
}

func (p *Preprocessor[K]) GetStatus() Status {
	p.statusLock.RLock()
	defer p.statusLock.RUnlock()
	return p.status
}

// Sync moves the history forward or backward until it reflects exactly the
// stored raw state updates
func (p *Preprocessor[K]) Sync(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		dir, err := p.direction()
		if err != nil {
			return fmt.Errorf("failed to compare preprocessed and raw state updates: %w", err)
		}
		switch dir {
		case directionNone:
			return nil
		case directionForward:
			err = p.preprocessNext(ctx)
		case directionBackward:
			err = p.rollbackLast(ctx)
		}
		if err != nil {
			return err
		}
	}
}

func (p *Preprocessor[K]) direction() (direction, error) {
	last, err := p.preprocessed.GetLast(p.db)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return directionNone, err
	}
	if last != nil {
		p.setStatus(func(s *Status) {
			s.LastStateUpdateID = last.StateUpdateID
			s.LastBlockNumber = last.BlockNumber
		})
	}
	lastRaw, err := p.stateUpdates.GetLastStateUpdate(p.db)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return directionNone, err
	}
	switch {
	case last == nil && lastRaw == nil:
		return directionNone, nil
	case last == nil:
		return directionForward, nil
	case lastRaw == nil || last.StateUpdateID > lastRaw.ID:
		return directionBackward, nil
	}

	raw, err := p.stateUpdates.GetStateUpdate(p.db, last.StateUpdateID)
	if errors.Is(err, db.ErrNotFound) {
		return directionBackward, nil
	}
	if err != nil {
		return directionNone, err
	}
	// a reorg replaced the state update keeping its id
	if raw.StateTransitionHash != last.StateTransitionHash || raw.BlockNumber != last.BlockNumber {
		return directionBackward, nil
	}
	if last.StateUpdateID == lastRaw.ID {
		return directionNone, nil
	}
	return directionForward, nil
}

func (p *Preprocessor[K]) preprocessNext(ctx context.Context) error {
	return db.ExecInTx(ctx, p.db, func(tx *db.Tx) error {
		su, err := p.nextStateUpdate(tx)
		if err != nil {
			return err
		}
		entities, err := p.stateUpdates.GetEntityUpdates(tx, su.ID)
		if err != nil {
			return fmt.Errorf("failed to get entity updates of state update %d: %w", su.ID, err)
		}
		prices, err := p.prices(tx, su.ID)
		if err != nil {
			return err
		}

		added := 0
		for _, e := range entities {
			var n int
			if e.IsClosed() {
				n, err = p.history.ClosePositionOrVault(tx, e.PositionOrVaultID, su, prices)
			} else {
				n, err = p.history.UpdatePositionOrVault(tx, e, su, prices)
			}
			if err != nil {
				return fmt.Errorf("state update %d: %w", su.ID, err)
			}
			added += n
		}
		err = p.preprocessed.Add(tx, &PreprocessedStateUpdate{
			StateUpdateID:       su.ID,
			BlockNumber:         su.BlockNumber,
			StateTransitionHash: su.StateTransitionHash,
		})
		if err != nil {
			return err
		}

		tx.AddCommitCallback(func() {
			p.metrics.SetLastPreprocessed(su.ID)
			p.metrics.AddHistoryRecords(added)
			p.setStatus(func(s *Status) {
				s.LastStateUpdateID = su.ID
				s.LastBlockNumber = su.BlockNumber
				s.HistoryRecords += uint64(added)
			})
			p.log.Debugf("preprocessed state update %d (block %d), %d history records added",
				su.ID, su.BlockNumber, added)
		})
		return nil
	})
}

func (p *Preprocessor[K]) nextStateUpdate(tx db.Querier) (*statesync.StateUpdate, error) {
	last, err := p.preprocessed.GetLast(tx)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return p.stateUpdates.GetFirstStateUpdate(tx)
	case err != nil:
		return nil, err
	}
	return p.stateUpdates.GetNextStateUpdate(tx, last.StateUpdateID)
}

func (p *Preprocessor[K]) prices(tx db.Querier, stateUpdateID uint64) (map[K]*big.Int, error) {
	prices, err := p.stateUpdates.GetAssetPrices(tx, stateUpdateID)
	if err != nil {
		return nil, fmt.Errorf("failed to get asset prices of state update %d: %w", stateUpdateID, err)
	}
	res := make(map[K]*big.Int, len(prices))
	for _, price := range prices {
		asset, err := assets.Parse[K](price.Asset)
		if err != nil {
			return nil, fmt.Errorf("price of state update %d: %w", stateUpdateID, err)
		}
		res[asset] = price.Price
	}
	return res, nil
}

func (p *Preprocessor[K]) rollbackLast(ctx context.Context) error {
	return db.ExecInTx(ctx, p.db, func(tx *db.Tx) error {
		last, err := p.preprocessed.GetLast(tx)
		if err != nil {
			return err
		}
		if err := p.history.RollbackOneStateUpdate(tx, last.StateUpdateID); err != nil {
			return fmt.Errorf("failed to roll back state update %d: %w", last.StateUpdateID, err)
		}
		if err := p.preprocessed.Delete(tx, last.StateUpdateID); err != nil {
			return err
		}
		prev, err := p.preprocessed.GetLast(tx)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return err
		}

		tx.AddCommitCallback(func() {
			var prevID, prevBlock uint64
			if prev != nil {
				prevID, prevBlock = prev.StateUpdateID, prev.BlockNumber
			}
			p.metrics.IncRolledBack()
			p.metrics.SetLastPreprocessed(prevID)
			p.setStatus(func(s *Status) {
				s.LastStateUpdateID = prevID
				s.LastBlockNumber = prevBlock
				s.RolledBack++
			})
			p.log.Infof("rolled back preprocessed state update %d (block %d)", last.StateUpdateID, last.BlockNumber)
		})
		return nil
	})
}

func (p *Preprocessor[K]) setStatus(update func(s *Status)) {
	p.statusLock.Lock()
	defer p.statusLock.Unlock()
	update(&p.status)
}

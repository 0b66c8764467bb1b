package preprocessing

import (
	"fmt"
	"math/big"

	"github.com/perpx/explorer/assets"
	"github.com/perpx/explorer/db"
	"github.com/perpx/explorer/log"
	"github.com/perpx/explorer/statesync"
)

// HistoryStorer is the persistence used by HistoryPreprocessor
type HistoryStorer[K assets.Key] interface {
	Add(tx db.Querier, record *HistoryRecord[K]) error
	GetCurrentByPositionOrVaultID(tx db.Querier, positionOrVaultID uint64) ([]HistoryRecord[K], error)
	UnsetCurrentByPositionOrVaultIDAndAsset(tx db.Querier, positionOrVaultID uint64, asset K) (int64, error)
	GetPrevHistoryByStateUpdateID(tx db.Querier, stateUpdateID uint64) ([]HistoryLink, error)
	DeleteByHistoryID(tx db.Querier, historyID int64) error
	SetAsCurrentByHistoryID(tx db.Querier, historyID int64) error
}

// HistoryPreprocessor maintains the versioned asset history. Every method runs
// on the transaction it is given and any error must abort it.
type HistoryPreprocessor[K assets.Key] struct {
	storage HistoryStorer[K]
	log     *log.Logger
}

func NewHistoryPreprocessor[K assets.Key](storage HistoryStorer[K]) *HistoryPreprocessor[K] {
	return &HistoryPreprocessor[K]{
		storage: storage,
		log:     log.WithFields("module", "history-preprocessor"),
	}
}

// UpdatePositionOrVault adds a record for every balance carried by the entity
// update and returns how many were added. Prices missing from prices keep the
// value of the superseded record.
func (h *HistoryPreprocessor[K]) UpdatePositionOrVault(
	tx db.Querier,
	entity statesync.EntityUpdate,
	stateUpdate *statesync.StateUpdate,
	prices map[K]*big.Int,
) (int, error) {
	if len(entity.Balances) == 0 {
		return 0, nil
	}
	current, err := h.storage.GetCurrentByPositionOrVaultID(tx, entity.PositionOrVaultID)
	if err != nil {
		return 0, err
	}
	byAsset := make(map[K]HistoryRecord[K], len(current))
	for _, r := range current {
		byAsset[r.Asset] = r
	}

	records := make([]HistoryRecord[K], 0, len(entity.Balances))
	for _, b := range entity.Balances {
		asset, err := assets.Parse[K](b.Asset)
		if err != nil {
			return 0, fmt.Errorf("balance update of %d in state update %d: %w",
				entity.PositionOrVaultID, stateUpdate.ID, err)
		}
		record := HistoryRecord[K]{
			StateUpdateID:     stateUpdate.ID,
			BlockNumber:       stateUpdate.BlockNumber,
			Timestamp:         stateUpdate.Timestamp,
			StarkKey:          entity.StarkKey,
			PositionOrVaultID: entity.PositionOrVaultID,
			Asset:             asset,
			Balance:           b.Balance,
			PrevBalance:       new(big.Int),
			Price:             prices[asset],
		}
		if prev, ok := byAsset[asset]; ok {
			record.PrevBalance = prev.Balance
			record.PrevPrice = prev.Price
			record.PrevHistoryID = prev.HistoryID
			if record.Price == nil {
				record.Price = prev.Price
			}
		}
		records = append(records, record)
	}
	if err := h.AddNewRecordsAndUpdateIsCurrent(tx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// ClosePositionOrVault adds a zero balance record for every asset the entity
// currently holds and returns how many were added. Nothing is written when
// the entity holds nothing.
func (h *HistoryPreprocessor[K]) ClosePositionOrVault(
	tx db.Querier,
	positionOrVaultID uint64,
	stateUpdate *statesync.StateUpdate,
	finalPrices map[K]*big.Int,
) (int, error) {
	current, err := h.storage.GetCurrentByPositionOrVaultID(tx, positionOrVaultID)
	if err != nil {
		return 0, err
	}
	if len(current) == 0 {
		return 0, nil
	}
	records := make([]HistoryRecord[K], 0, len(current))
	for _, r := range current {
		records = append(records, HistoryRecord[K]{
			StateUpdateID:     stateUpdate.ID,
			BlockNumber:       stateUpdate.BlockNumber,
			Timestamp:         stateUpdate.Timestamp,
			StarkKey:          r.StarkKey,
			PositionOrVaultID: positionOrVaultID,
			Asset:             r.Asset,
			Balance:           new(big.Int),
			PrevBalance:       r.Balance,
			Price:             finalPrices[r.Asset],
			PrevPrice:         r.Price,
			PrevHistoryID:     r.HistoryID,
		})
	}
	if err := h.AddNewRecordsAndUpdateIsCurrent(tx, records); err != nil {
		return 0, err
	}
	h.log.Debugf("closed %d assets of %d in state update %d", len(records), positionOrVaultID, stateUpdate.ID)
	return len(records), nil
}

// AddNewRecordsAndUpdateIsCurrent supersedes the current record of each pair
// with the new one. Records with a zero balance are stored but never current.
// HistoryID and IsCurrent of the given records are set.
func (h *HistoryPreprocessor[K]) AddNewRecordsAndUpdateIsCurrent(tx db.Querier, records []HistoryRecord[K]) error {
	for i := range records {
		r := &records[i]
		if _, err := h.storage.UnsetCurrentByPositionOrVaultIDAndAsset(tx, r.PositionOrVaultID, r.Asset); err != nil {
			return fmt.Errorf("failed to unset current record of %d/%s: %w", r.PositionOrVaultID, r.Asset, err)
		}
		r.IsCurrent = r.Balance.Sign() != 0
		if err := h.storage.Add(tx, r); err != nil {
			return err
		}
	}
	return nil
}

// RollbackOneStateUpdate removes the records created by the state update and
// makes the records they superseded current again. Rolling back several state
// updates must go from the newest to the oldest.
func (h *HistoryPreprocessor[K]) RollbackOneStateUpdate(tx db.Querier, stateUpdateID uint64) error {
	links, err := h.storage.GetPrevHistoryByStateUpdateID(tx, stateUpdateID)
	if err != nil {
		return err
	}
	deleted := make(map[int64]struct{}, len(links))
	for _, l := range links {
		if err := h.storage.DeleteByHistoryID(tx, l.HistoryID); err != nil {
			return fmt.Errorf("failed to delete history record %d: %w", l.HistoryID, err)
		}
		deleted[l.HistoryID] = struct{}{}
	}
	for _, l := range links {
		if l.PrevHistoryID == 0 {
			continue
		}
		// superseded within the same state update
		if _, ok := deleted[l.PrevHistoryID]; ok {
			continue
		}
		if err := h.storage.SetAsCurrentByHistoryID(tx, l.PrevHistoryID); err != nil {
			return fmt.Errorf("failed to restore history record %d: %w", l.PrevHistoryID, err)
		}
	}
	h.log.Debugf("rolled back %d history records of state update %d", len(links), stateUpdateID)
	return nil
}

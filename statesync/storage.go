package statesync

import (
	"errors"
	"fmt"

	"github.com/perpx/explorer/db"
	"github.com/perpx/explorer/log"
	"github.com/russross/meddler"
)

var ErrNonSequentialStateUpdate = errors.New("state update id is not sequential")

// Storage reads and writes the raw state updates. Every method works on the
// querier it receives so callers decide the transaction boundaries.
type Storage struct {
	log *log.Logger
}

func NewStorage() *Storage {
	return &Storage{
		log: log.WithFields("module", "statesync-storage"),
	}
}

// AddStateUpdates stores the given state updates. Ids must continue the
// sequence already stored.
func (s *Storage) AddStateUpdates(tx db.Querier, updates []FullStateUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	last, err := s.GetLastStateUpdate(tx)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return err
	}
	expected := updates[0].Update.ID
	if last != nil {
		expected = last.ID + 1
	}
	for i := range updates {
		u := &updates[i]
		if u.Update.ID != expected {
			return fmt.Errorf("%w: expected %d, got %d", ErrNonSequentialStateUpdate, expected, u.Update.ID)
		}
		u.setID(u.Update.ID)
		if err := meddler.Insert(tx, "state_update", &u.Update); err != nil {
			return fmt.Errorf("failed to insert state update %d: %w", u.Update.ID, err)
		}
		for j := range u.Entities {
			if err := meddler.Insert(tx, "entity_update", &u.Entities[j]); err != nil {
				return fmt.Errorf("failed to insert entity update %d/%d: %w",
					u.Update.ID, u.Entities[j].PositionOrVaultID, err)
			}
			for k := range u.Entities[j].Balances {
				if err := meddler.Insert(tx, "balance_update", &u.Entities[j].Balances[k]); err != nil {
					return fmt.Errorf("failed to insert balance update: %w", err)
				}
			}
		}
		for j := range u.Prices {
			if err := meddler.Insert(tx, "asset_price", &u.Prices[j]); err != nil {
				return fmt.Errorf("failed to insert asset price: %w", err)
			}
		}
		expected++
	}
	return nil
}

// DeleteAfterBlock removes every state update included after the given block
// and returns how many were removed
func (s *Storage) DeleteAfterBlock(tx db.Querier, blockNumber uint64) (int64, error) {
	res, err := tx.Exec(`DELETE FROM state_update WHERE block_number > $1;`, blockNumber)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Storage) GetLastStateUpdate(tx db.Querier) (*StateUpdate, error) {
	update := &StateUpdate{}
	err := meddler.QueryRow(tx, update, `SELECT * FROM state_update ORDER BY id DESC LIMIT 1;`)
	if err != nil {
		return nil, db.ReturnErrNotFound(err)
	}
	return update, nil
}

func (s *Storage) GetFirstStateUpdate(tx db.Querier) (*StateUpdate, error) {
	update := &StateUpdate{}
	err := meddler.QueryRow(tx, update, `SELECT * FROM state_update ORDER BY id ASC LIMIT 1;`)
	if err != nil {
		return nil, db.ReturnErrNotFound(err)
	}
	return update, nil
}

func (s *Storage) GetStateUpdate(tx db.Querier, id uint64) (*StateUpdate, error) {
	update := &StateUpdate{}
	err := meddler.QueryRow(tx, update, `SELECT * FROM state_update WHERE id = $1;`, id)
	if err != nil {
		return nil, db.ReturnErrNotFound(err)
	}
	return update, nil
}

// GetNextStateUpdate returns the state update with the lowest id greater than afterID
func (s *Storage) GetNextStateUpdate(tx db.Querier, afterID uint64) (*StateUpdate, error) {
	update := &StateUpdate{}
	err := meddler.QueryRow(tx, update,
		`SELECT * FROM state_update WHERE id > $1 ORDER BY id ASC LIMIT 1;`, afterID)
	if err != nil {
		return nil, db.ReturnErrNotFound(err)
	}
	return update, nil
}

// GetEntityUpdates returns the entity updates of a state update, balances included
func (s *Storage) GetEntityUpdates(tx db.Querier, stateUpdateID uint64) ([]EntityUpdate, error) {
	entities := []*EntityUpdate{}
	err := meddler.QueryAll(tx, &entities, `
		SELECT * FROM entity_update WHERE state_update_id = $1 ORDER BY position_or_vault_id ASC;
	`, stateUpdateID)
	if err != nil {
		return nil, err
	}
	balances := []*BalanceUpdate{}
	err = meddler.QueryAll(tx, &balances, `
		SELECT * FROM balance_update WHERE state_update_id = $1 ORDER BY position_or_vault_id ASC, asset ASC;
	`, stateUpdateID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]*EntityUpdate, len(entities))
	for _, e := range entities {
		byID[e.PositionOrVaultID] = e
	}
	for _, b := range balances {
		e, ok := byID[b.PositionOrVaultID]
		if !ok {
			return nil, fmt.Errorf("balance update for unknown entity %d in state update %d",
				b.PositionOrVaultID, stateUpdateID)
		}
		e.Balances = append(e.Balances, *b)
	}
	return db.SlicePtrsToSlice(entities).([]EntityUpdate), nil
}

func (s *Storage) GetAssetPrices(tx db.Querier, stateUpdateID uint64) ([]AssetPrice, error) {
	prices := []*AssetPrice{}
	err := meddler.QueryAll(tx, &prices, `
		SELECT * FROM asset_price WHERE state_update_id = $1 ORDER BY asset ASC;
	`, stateUpdateID)
	if err != nil {
		return nil, err
	}
	return db.SlicePtrsToSlice(prices).([]AssetPrice), nil
}

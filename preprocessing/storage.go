package preprocessing

import (
	"errors"
	"fmt"

	"github.com/perpx/explorer/assets"
	"github.com/perpx/explorer/db"
	"github.com/russross/meddler"
)

const historyTable = "preprocessed_asset_history"

// HistoryStorage is the repository of the asset history table
type HistoryStorage[K assets.Key] struct{}

func NewHistoryStorage[K assets.Key]() *HistoryStorage[K] {
	return &HistoryStorage[K]{}
}

// Add inserts the record and sets its HistoryID
func (s *HistoryStorage[K]) Add(tx db.Querier, record *HistoryRecord[K]) error {
	if record.Balance == nil {
		return fmt.Errorf("history record of %d/%s has no balance", record.PositionOrVaultID, record.Asset)
	}
	row := newHistoryRow(record)
	row.HistoryID = 0
	if err := meddler.Insert(tx, historyTable, row); err != nil {
		return fmt.Errorf("failed to insert history record of %d/%s: %w",
			record.PositionOrVaultID, record.Asset, err)
	}
	record.HistoryID = row.HistoryID
	return nil
}

func (s *HistoryStorage[K]) GetByHistoryID(tx db.Querier, historyID int64) (*HistoryRecord[K], error) {
	row := &historyRow{}
	err := meddler.QueryRow(tx, row, `SELECT * FROM preprocessed_asset_history WHERE history_id = $1;`, historyID)
	if err != nil {
		return nil, db.ReturnErrNotFound(err)
	}
	record, err := historyRecordFromRow[K](row)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetCurrentByPositionOrVaultID returns the current record of every asset
// held by the entity, ordered by asset
func (s *HistoryStorage[K]) GetCurrentByPositionOrVaultID(
	tx db.Querier, positionOrVaultID uint64,
) ([]HistoryRecord[K], error) {
	return s.queryRecords(tx, `
		SELECT * FROM preprocessed_asset_history
		WHERE position_or_vault_id = $1 AND is_current = 1
		ORDER BY asset ASC;
	`, positionOrVaultID)
}

// GetByStateUpdateID returns the records created by a state update
func (s *HistoryStorage[K]) GetByStateUpdateID(tx db.Querier, stateUpdateID uint64) ([]HistoryRecord[K], error) {
	return s.queryRecords(tx, `
		SELECT * FROM preprocessed_asset_history
		WHERE state_update_id = $1
		ORDER BY history_id ASC;
	`, stateUpdateID)
}

// UnsetCurrentByPositionOrVaultIDAndAsset clears the current flag of the pair
// and returns the number of records updated
func (s *HistoryStorage[K]) UnsetCurrentByPositionOrVaultIDAndAsset(
	tx db.Querier, positionOrVaultID uint64, asset K,
) (int64, error) {
	res, err := tx.Exec(`
		UPDATE preprocessed_asset_history SET is_current = 0
		WHERE position_or_vault_id = $1 AND asset = $2 AND is_current = 1;
	`, positionOrVaultID, asset.String())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetPrevHistoryByStateUpdateID returns the chain links of the records created
// by a state update
func (s *HistoryStorage[K]) GetPrevHistoryByStateUpdateID(
	tx db.Querier, stateUpdateID uint64,
) ([]HistoryLink, error) {
	links := []*HistoryLink{}
	err := meddler.QueryAll(tx, &links, `
		SELECT history_id, prev_history_id FROM preprocessed_asset_history
		WHERE state_update_id = $1
		ORDER BY history_id DESC;
	`, stateUpdateID)
	if err != nil {
		return nil, err
	}
	return db.SlicePtrsToSlice(links).([]HistoryLink), nil
}

func (s *HistoryStorage[K]) DeleteByHistoryID(tx db.Querier, historyID int64) error {
	res, err := tx.Exec(`DELETE FROM preprocessed_asset_history WHERE history_id = $1;`, historyID)
	if err != nil {
		return err
	}
	return expectOneRow(res.RowsAffected())
}

func (s *HistoryStorage[K]) SetAsCurrentByHistoryID(tx db.Querier, historyID int64) error {
	res, err := tx.Exec(`UPDATE preprocessed_asset_history SET is_current = 1 WHERE history_id = $1;`, historyID)
	if err != nil {
		return err
	}
	return expectOneRow(res.RowsAffected())
}

func (s *HistoryStorage[K]) queryRecords(tx db.Querier, query string, args ...interface{}) ([]HistoryRecord[K], error) {
	rows := []*historyRow{}
	if err := meddler.QueryAll(tx, &rows, query, args...); err != nil {
		return nil, err
	}
	records := make([]HistoryRecord[K], 0, len(rows))
	for _, row := range rows {
		record, err := historyRecordFromRow[K](row)
		if err != nil {
			return nil, fmt.Errorf("history record %d: %w", row.HistoryID, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func expectOneRow(affected int64, err error) error {
	if err != nil {
		return err
	}
	if affected == 0 {
		return db.ErrNotFound
	}
	return nil
}

// PreprocessedStorage keeps track of the state updates folded into the history
type PreprocessedStorage struct{}

func NewPreprocessedStorage() *PreprocessedStorage {
	return &PreprocessedStorage{}
}

// Add marks a state update as preprocessed, db.ErrAlreadyExists if it already was
func (s *PreprocessedStorage) Add(tx db.Querier, p *PreprocessedStateUpdate) error {
	_, err := tx.Exec(`
		INSERT INTO preprocessed_state_update (state_update_id, block_number, state_transition_hash)
		VALUES ($1, $2, $3);
	`, p.StateUpdateID, p.BlockNumber, p.StateTransitionHash.Hex())
	if err != nil {
		return fmt.Errorf("failed to insert preprocessed state update %d: %w",
			p.StateUpdateID, db.ReturnErrAlreadyExists(err))
	}
	return nil
}

// GetLast returns the newest preprocessed state update, db.ErrNotFound if none
func (s *PreprocessedStorage) GetLast(tx db.Querier) (*PreprocessedStateUpdate, error) {
	p := &PreprocessedStateUpdate{}
	err := meddler.QueryRow(tx, p, `
		SELECT * FROM preprocessed_state_update ORDER BY state_update_id DESC LIMIT 1;
	`)
	if err != nil {
		return nil, db.ReturnErrNotFound(err)
	}
	return p, nil
}

func (s *PreprocessedStorage) Delete(tx db.Querier, stateUpdateID uint64) error {
	res, err := tx.Exec(`DELETE FROM preprocessed_state_update WHERE state_update_id = $1;`, stateUpdateID)
	if err != nil {
		return err
	}
	if err := expectOneRow(res.RowsAffected()); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("state update %d was not preprocessed: %w", stateUpdateID, err)
		}
		return err
	}
	return nil
}

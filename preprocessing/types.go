package preprocessing

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/perpx/explorer/assets"
)

// HistoryRecord is one version of the balance of an asset held by a position
// or vault. Records of the same pair are chained through PrevHistoryID, a zero
// PrevHistoryID meaning the record starts the chain.
type HistoryRecord[K assets.Key] struct {
	HistoryID         int64
	StateUpdateID     uint64
	BlockNumber       uint64
	Timestamp         uint64
	StarkKey          common.Hash
	PositionOrVaultID uint64
	Asset             K
	Balance           *big.Int
	PrevBalance       *big.Int
	Price             *big.Int
	PrevPrice         *big.Int
	IsCurrent         bool
	PrevHistoryID     int64
}

// HistoryLink ties a record to the one it superseded
type HistoryLink struct {
	HistoryID     int64 `meddler:"history_id"`
	PrevHistoryID int64 `meddler:"prev_history_id,zeroisnull"`
}

// PreprocessedStateUpdate marks a state update as folded into the history
type PreprocessedStateUpdate struct {
	StateUpdateID       uint64      `meddler:"state_update_id"`
	BlockNumber         uint64      `meddler:"block_number"`
	StateTransitionHash common.Hash `meddler:"state_transition_hash,hash"`
}

type historyRow struct {
	HistoryID         int64       `meddler:"history_id,pk"`
	StateUpdateID     uint64      `meddler:"state_update_id"`
	BlockNumber       uint64      `meddler:"block_number"`
	Timestamp         uint64      `meddler:"timestamp"`
	StarkKey          common.Hash `meddler:"stark_key,hash"`
	PositionOrVaultID uint64      `meddler:"position_or_vault_id"`
	Asset             string      `meddler:"asset"`
	Balance           *big.Int    `meddler:"balance,bigint"`
	PrevBalance       *big.Int    `meddler:"prev_balance,bigint"`
	Price             *big.Int    `meddler:"price,bigint"`
	PrevPrice         *big.Int    `meddler:"prev_price,bigint"`
	IsCurrent         bool        `meddler:"is_current"`
	PrevHistoryID     int64       `meddler:"prev_history_id,zeroisnull"`
}

func newHistoryRow[K assets.Key](r *HistoryRecord[K]) *historyRow {
	prevBalance := r.PrevBalance
	if prevBalance == nil {
		prevBalance = new(big.Int)
	}
	return &historyRow{
		HistoryID:         r.HistoryID,
		StateUpdateID:     r.StateUpdateID,
		BlockNumber:       r.BlockNumber,
		Timestamp:         r.Timestamp,
		StarkKey:          r.StarkKey,
		PositionOrVaultID: r.PositionOrVaultID,
		Asset:             r.Asset.String(),
		Balance:           r.Balance,
		PrevBalance:       prevBalance,
		Price:             r.Price,
		PrevPrice:         r.PrevPrice,
		IsCurrent:         r.IsCurrent,
		PrevHistoryID:     r.PrevHistoryID,
	}
}

func historyRecordFromRow[K assets.Key](row *historyRow) (HistoryRecord[K], error) {
	asset, err := assets.Parse[K](row.Asset)
	if err != nil {
		return HistoryRecord[K]{}, err
	}
	return HistoryRecord[K]{
		HistoryID:         row.HistoryID,
		StateUpdateID:     row.StateUpdateID,
		BlockNumber:       row.BlockNumber,
		Timestamp:         row.Timestamp,
		StarkKey:          row.StarkKey,
		PositionOrVaultID: row.PositionOrVaultID,
		Asset:             asset,
		Balance:           row.Balance,
		PrevBalance:       row.PrevBalance,
		Price:             row.Price,
		PrevPrice:         row.PrevPrice,
		IsCurrent:         row.IsCurrent,
		PrevHistoryID:     row.PrevHistoryID,
	}, nil
}

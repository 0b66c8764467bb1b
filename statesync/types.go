package statesync

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// StateUpdate is the header of a state update published on L1
type StateUpdate struct {
	ID                  uint64      `meddler:"id"`
	BlockNumber         uint64      `meddler:"block_number"`
	BlockHash           common.Hash `meddler:"block_hash,hash"`
	StateTransitionHash common.Hash `meddler:"state_transition_hash,hash"`
	RootHash            common.Hash `meddler:"root_hash,hash"`
	Timestamp           uint64      `meddler:"timestamp"`
}

// EntityUpdate is the new state of a position (perpetual) or vault (spot).
// A zero StarkKey means the entity has been emptied.
type EntityUpdate struct {
	StateUpdateID     uint64          `meddler:"state_update_id"`
	PositionOrVaultID uint64          `meddler:"position_or_vault_id"`
	StarkKey          common.Hash     `meddler:"stark_key,hash"`
	Balances          []BalanceUpdate `meddler:"-"`
}

func (e EntityUpdate) IsClosed() bool {
	return e.StarkKey == (common.Hash{})
}

type BalanceUpdate struct {
	StateUpdateID     uint64   `meddler:"state_update_id"`
	PositionOrVaultID uint64   `meddler:"position_or_vault_id"`
	Asset             string   `meddler:"asset"`
	Balance           *big.Int `meddler:"balance,bigint"`
}

type AssetPrice struct {
	StateUpdateID uint64   `meddler:"state_update_id"`
	Asset         string   `meddler:"asset"`
	Price         *big.Int `meddler:"price,bigint"`
}

// FullStateUpdate groups a state update with every change it carries
type FullStateUpdate struct {
	Update   StateUpdate
	Entities []EntityUpdate
	Prices   []AssetPrice
}

// setID propagates the state update id to every child row
func (f *FullStateUpdate) setID(id uint64) {
	f.Update.ID = id
	for i := range f.Entities {
		f.Entities[i].StateUpdateID = id
		for j := range f.Entities[i].Balances {
			f.Entities[i].Balances[j].StateUpdateID = id
			f.Entities[i].Balances[j].PositionOrVaultID = f.Entities[i].PositionOrVaultID
		}
	}
	for i := range f.Prices {
		f.Prices[i].StateUpdateID = id
	}
}

package statesync

import (
	"database/sql"
	"math/big"
	"path"
	"sort"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/perpx/explorer/db"
	"github.com/perpx/explorer/statesync/migrations"
	"github.com/stretchr/testify/require"
)

var contractAddr = common.HexToAddress("0xf00")

func blockHash(n uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(n*1000 + 7))
}

func word(s string) [32]byte {
	var w [32]byte
	copy(w[:], s)
	return w
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := path.Join(t.TempDir(), "statesync.sqlite")
	require.NoError(t, migrations.RunMigrations(dbPath))
	database, err := db.NewSQLiteDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

type logBuilder struct {
	t   *testing.T
	abi abi.ABI
}

func newLogBuilder(t *testing.T) *logBuilder {
	t.Helper()
	contractABI, err := parseStateUpdatesABI()
	require.NoError(t, err)
	return &logBuilder{t: t, abi: contractABI}
}

func (b *logBuilder) build(event string, seq, block uint64, args ...interface{}) types.Log {
	b.t.Helper()
	ev := b.abi.Events[event]
	data, err := ev.Inputs.NonIndexed().Pack(args...)
	require.NoError(b.t, err)
	return types.Log{
		Address:     contractAddr,
		Topics:      []common.Hash{ev.ID, common.BigToHash(new(big.Int).SetUint64(seq))},
		Data:        data,
		BlockNumber: block,
		BlockHash:   blockHash(block),
	}
}

func (b *logBuilder) stateUpdate(seq, block uint64, fact, root string, timestamp uint64) types.Log {
	return b.build(logStateUpdateEvent, seq, block,
		[32]byte(common.HexToHash(fact)), [32]byte(common.HexToHash(root)), new(big.Int).SetUint64(timestamp))
}

func (b *logBuilder) positionUpdate(seq, block, id uint64, starkKey string, balances map[string]int64) types.Log {
	words := make([][32]byte, 0, len(balances))
	values := make([]*big.Int, 0, len(balances))
	for _, asset := range sortedKeys(balances) {
		words = append(words, word(asset))
		values = append(values, big.NewInt(balances[asset]))
	}
	return b.build(logPositionUpdateEvent, seq, block,
		new(big.Int).SetUint64(id), [32]byte(common.HexToHash(starkKey)), words, values)
}

func (b *logBuilder) assetPrice(seq, block uint64, asset string, price int64) types.Log {
	return b.build(logAssetPriceEvent, seq, block, word(asset), big.NewInt(price))
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fullStateUpdate(id, block uint64, entities ...EntityUpdate) FullStateUpdate {
	u := FullStateUpdate{
		Update: StateUpdate{
			ID:                  id,
			BlockNumber:         block,
			BlockHash:           blockHash(block),
			StateTransitionHash: common.BigToHash(new(big.Int).SetUint64(id)),
			RootHash:            common.BigToHash(new(big.Int).SetUint64(id + 100)),
			Timestamp:           1_700_000_000 + id,
		},
		Entities: entities,
		Prices: []AssetPrice{
			{Asset: "ETH-9", Price: big.NewInt(int64(1500 + id))},
		},
	}
	u.setID(id)
	return u
}

package preprocessing

import (
	"database/sql"
	"math/big"
	"path"
	"sort"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/perpx/explorer/assets"
	"github.com/perpx/explorer/db"
	"github.com/perpx/explorer/preprocessing/migrations"
	"github.com/perpx/explorer/statesync"
	"github.com/stretchr/testify/require"
)

var starkKey = common.HexToHash("0x05a1")

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := path.Join(t.TempDir(), "preprocessing.sqlite")
	require.NoError(t, migrations.RunMigrations(dbPath))
	database, err := db.NewSQLiteDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func bi(n int64) *big.Int {
	return big.NewInt(n)
}

func stateUpdate(id, block uint64) *statesync.StateUpdate {
	return &statesync.StateUpdate{
		ID:                  id,
		BlockNumber:         block,
		BlockHash:           common.BigToHash(new(big.Int).SetUint64(block)),
		StateTransitionHash: common.BigToHash(new(big.Int).SetUint64(id*1_000 + block)),
		RootHash:            common.BigToHash(new(big.Int).SetUint64(id)),
		Timestamp:           1_700_000_000 + id,
	}
}

// entity builds an entity update, closed when key is the zero hash
func entity(id uint64, key common.Hash, balances map[string]int64) statesync.EntityUpdate {
	e := statesync.EntityUpdate{PositionOrVaultID: id, StarkKey: key}
	for _, asset := range sortedKeys(balances) {
		e.Balances = append(e.Balances, statesync.BalanceUpdate{Asset: asset, Balance: bi(balances[asset])})
	}
	return e
}

func rawStateUpdate(
	su *statesync.StateUpdate, prices map[string]int64, entities ...statesync.EntityUpdate,
) statesync.FullStateUpdate {
	f := statesync.FullStateUpdate{Update: *su, Entities: entities}
	for _, asset := range sortedKeys(prices) {
		f.Prices = append(f.Prices, statesync.AssetPrice{Asset: asset, Price: bi(prices[asset])})
	}
	return f
}

func addRaw(t *testing.T, database *sql.DB, updates ...statesync.FullStateUpdate) {
	t.Helper()
	require.NoError(t, statesync.NewStorage().AddStateUpdates(database, updates))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type pair struct {
	positionOrVaultID uint64
	asset             string
}

// currentRecords maps every pair with a current record to that record's id
func currentRecords(t *testing.T, q db.Querier) map[pair]int64 {
	t.Helper()
	rows, err := q.Query(`
		SELECT position_or_vault_id, asset, history_id FROM preprocessed_asset_history WHERE is_current = 1;
	`)
	require.NoError(t, err)
	defer rows.Close()
	res := map[pair]int64{}
	for rows.Next() {
		var (
			p  pair
			id int64
		)
		require.NoError(t, rows.Scan(&p.positionOrVaultID, &p.asset, &id))
		res[p] = id
	}
	require.NoError(t, rows.Err())
	return res
}

func countHistory(t *testing.T, q db.Querier) int {
	t.Helper()
	var n int
	require.NoError(t, q.QueryRow(`SELECT COUNT(*) FROM preprocessed_asset_history;`).Scan(&n))
	return n
}

// recordSummary is a comparable view of a history record
type recordSummary struct {
	StateUpdateID     uint64
	PositionOrVaultID uint64
	Asset             string
	Balance           string
	PrevBalance       string
	Price             string
	PrevPrice         string
	IsCurrent         bool
	PrevHistoryID     int64
}

func summarize[K assets.Key](records ...HistoryRecord[K]) []recordSummary {
	str := func(n *big.Int) string {
		if n == nil {
			return ""
		}
		return n.String()
	}
	res := make([]recordSummary, 0, len(records))
	for _, r := range records {
		res = append(res, recordSummary{
			StateUpdateID:     r.StateUpdateID,
			PositionOrVaultID: r.PositionOrVaultID,
			Asset:             r.Asset.String(),
			Balance:           str(r.Balance),
			PrevBalance:       str(r.PrevBalance),
			Price:             str(r.Price),
			PrevPrice:         str(r.PrevPrice),
			IsCurrent:         r.IsCurrent,
			PrevHistoryID:     r.PrevHistoryID,
		})
	}
	return res
}

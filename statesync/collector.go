package statesync

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/perpx/explorer/assets"
	"github.com/perpx/explorer/log"
)

const defaultBlockChunkSize = uint64(1000)

var (
	ErrIncompleteStateUpdate = errors.New("state update is missing its LogStateUpdate event")
	ErrMalformedLog          = errors.New("malformed log")
)

type EthClienter interface {
	ethereum.LogFilterer
}

// Collector fetches the state updates included in a block interval
type Collector interface {
	Collect(ctx context.Context, fromBlock, toBlock uint64) ([]FullStateUpdate, error)
}

type logAppenderMap map[common.Hash]func(acc *stateUpdateAccumulator, l types.Log) error

type logStateUpdate struct {
	StateTransitionFact [32]byte `abi:"stateTransitionFact"`
	RootHash            [32]byte `abi:"rootHash"`
	Timestamp           *big.Int `abi:"timestamp"`
}

type logPositionUpdate struct {
	PositionOrVaultID *big.Int   `abi:"positionOrVaultId"`
	StarkKey          [32]byte   `abi:"starkKey"`
	Assets            [][32]byte `abi:"assets"`
	Balances          []*big.Int `abi:"balances"`
}

type logAssetPrice struct {
	Asset [32]byte `abi:"asset"`
	Price *big.Int `abi:"price"`
}

// stateUpdateAccumulator gathers the events of a single sequence number
type stateUpdateAccumulator struct {
	sequenceNumber uint64
	hasHeader      bool
	update         FullStateUpdate
	entities       map[uint64]int
}

// EVMCollector reads state updates from the logs of the state updates contract
type EVMCollector struct {
	client      EthClienter
	address     common.Address
	chunkSize   uint64
	tradingMode string
	appender    logAppenderMap
	topics      []common.Hash
	log         *log.Logger
}

func NewEVMCollector(client EthClienter, cfg Config, tradingMode string) (*EVMCollector, error) {
	if tradingMode != assets.TradingModePerpetual && tradingMode != assets.TradingModeSpot {
		return nil, fmt.Errorf("unknown trading mode %q", tradingMode)
	}
	contractABI, err := parseStateUpdatesABI()
	if err != nil {
		return nil, err
	}
	chunkSize := cfg.BlockChunkSize
	if chunkSize == 0 {
		chunkSize = defaultBlockChunkSize
	}
	c := &EVMCollector{
		client:      client,
		address:     cfg.ContractAddress,
		chunkSize:   chunkSize,
		tradingMode: tradingMode,
		log:         log.WithFields("module", "statesync-collector"),
	}
	c.appender = c.buildAppender(contractABI)
	c.topics = make([]common.Hash, 0, len(c.appender))
	for topic := range c.appender {
		c.topics = append(c.topics, topic)
	}
	return c, nil
}

func (c *EVMCollector) buildAppender(contractABI abi.ABI) logAppenderMap {
	appender := make(logAppenderMap)

	appender[contractABI.Events[logStateUpdateEvent].ID] = func(acc *stateUpdateAccumulator, l types.Log) error {
		var ev logStateUpdate
		if err := contractABI.UnpackIntoInterface(&ev, logStateUpdateEvent, l.Data); err != nil {
			return fmt.Errorf("error unpacking %s: %w", logStateUpdateEvent, err)
		}
		if acc.hasHeader {
			return fmt.Errorf("%w: duplicated %s for sequence number %d",
				ErrMalformedLog, logStateUpdateEvent, acc.sequenceNumber)
		}
		acc.hasHeader = true
		acc.update.Update = StateUpdate{
			ID:                  acc.sequenceNumber,
			BlockNumber:         l.BlockNumber,
			BlockHash:           l.BlockHash,
			StateTransitionHash: ev.StateTransitionFact,
			RootHash:            ev.RootHash,
			Timestamp:           ev.Timestamp.Uint64(),
		}
		return nil
	}

	appender[contractABI.Events[logPositionUpdateEvent].ID] = func(acc *stateUpdateAccumulator, l types.Log) error {
		var ev logPositionUpdate
		if err := contractABI.UnpackIntoInterface(&ev, logPositionUpdateEvent, l.Data); err != nil {
			return fmt.Errorf("error unpacking %s: %w", logPositionUpdateEvent, err)
		}
		if len(ev.Assets) != len(ev.Balances) {
			return fmt.Errorf("%w: %d assets and %d balances", ErrMalformedLog, len(ev.Assets), len(ev.Balances))
		}
		if !ev.PositionOrVaultID.IsUint64() {
			return fmt.Errorf("%w: position or vault id %s overflows", ErrMalformedLog, ev.PositionOrVaultID)
		}
		id := ev.PositionOrVaultID.Uint64()
		balances := make([]BalanceUpdate, 0, len(ev.Assets))
		for i, word := range ev.Assets {
			asset, err := assets.DecodeWord(c.tradingMode, word)
			if err != nil {
				return err
			}
			balances = append(balances, BalanceUpdate{
				PositionOrVaultID: id,
				Asset:             asset,
				Balance:           ev.Balances[i],
			})
		}
		entity := EntityUpdate{
			PositionOrVaultID: id,
			StarkKey:          ev.StarkKey,
			Balances:          balances,
		}
		if idx, ok := acc.entities[id]; ok {
			acc.update.Entities[idx] = mergeEntityUpdate(acc.update.Entities[idx], entity)
			return nil
		}
		acc.entities[id] = len(acc.update.Entities)
		acc.update.Entities = append(acc.update.Entities, entity)
		return nil
	}

	appender[contractABI.Events[logAssetPriceEvent].ID] = func(acc *stateUpdateAccumulator, l types.Log) error {
		var ev logAssetPrice
		if err := contractABI.UnpackIntoInterface(&ev, logAssetPriceEvent, l.Data); err != nil {
			return fmt.Errorf("error unpacking %s: %w", logAssetPriceEvent, err)
		}
		asset, err := assets.DecodeWord(c.tradingMode, ev.Asset)
		if err != nil {
			return err
		}
		acc.update.Prices = append(acc.update.Prices, AssetPrice{
			Asset: asset,
			Price: ev.Price,
		})
		return nil
	}

	return appender
}

// mergeEntityUpdate applies a later update of the same entity on top of a previous one
func mergeEntityUpdate(prev, next EntityUpdate) EntityUpdate {
	merged := EntityUpdate{
		PositionOrVaultID: prev.PositionOrVaultID,
		StarkKey:          next.StarkKey,
	}
	seen := make(map[string]int, len(prev.Balances)+len(next.Balances))
	for _, b := range append(append([]BalanceUpdate{}, prev.Balances...), next.Balances...) {
		if idx, ok := seen[b.Asset]; ok {
			merged.Balances[idx] = b
			continue
		}
		seen[b.Asset] = len(merged.Balances)
		merged.Balances = append(merged.Balances, b)
	}
	return merged
}

// Collect returns the state updates included between fromBlock and toBlock,
// both included, sorted by id
func (c *EVMCollector) Collect(ctx context.Context, fromBlock, toBlock uint64) ([]FullStateUpdate, error) {
	if fromBlock > toBlock {
		return nil, nil
	}
	accs := map[uint64]*stateUpdateAccumulator{}
	for from := fromBlock; from <= toBlock; from += c.chunkSize {
		to := from + c.chunkSize - 1
		if to > toBlock {
			to = toBlock
		}
		logs, err := c.getLogs(ctx, from, to)
		if err != nil {
			return nil, err
		}
		for _, l := range logs {
			if err := c.appendLog(accs, l); err != nil {
				return nil, err
			}
		}
		if to == toBlock {
			break
		}
	}

	updates := make([]FullStateUpdate, 0, len(accs))
	for _, acc := range accs {
		if !acc.hasHeader {
			return nil, fmt.Errorf("%w: sequence number %d", ErrIncompleteStateUpdate, acc.sequenceNumber)
		}
		acc.update.setID(acc.sequenceNumber)
		updates = append(updates, acc.update)
	}
	sort.Slice(updates, func(i, j int) bool {
		return updates[i].Update.ID < updates[j].Update.ID
	})
	c.log.Debugf("collected %d state updates between blocks %d and %d", len(updates), fromBlock, toBlock)
	return updates, nil
}

func (c *EVMCollector) appendLog(accs map[uint64]*stateUpdateAccumulator, l types.Log) error {
	if l.Removed {
		return nil
	}
	if len(l.Topics) < 2 { //nolint:mnd
		return fmt.Errorf("%w: expected indexed sequence number on log %s/%d", ErrMalformedLog, l.TxHash, l.Index)
	}
	appendFn, ok := c.appender[l.Topics[0]]
	if !ok {
		return nil
	}
	seq := new(big.Int).SetBytes(l.Topics[1].Bytes())
	if !seq.IsUint64() {
		return fmt.Errorf("%w: sequence number %s overflows", ErrMalformedLog, seq)
	}
	acc, ok := accs[seq.Uint64()]
	if !ok {
		acc = &stateUpdateAccumulator{
			sequenceNumber: seq.Uint64(),
			entities:       map[uint64]int{},
		}
		accs[seq.Uint64()] = acc
	}
	return appendFn(acc, l)
}

func filterQueryToString(query ethereum.FilterQuery) string {
	return fmt.Sprintf("FromBlock: %s, ToBlock: %s, Addresses: %s, Topics: %s",
		query.FromBlock.String(), query.ToBlock.String(), query.Addresses, query.Topics)
}

func (c *EVMCollector) getLogs(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{c.address},
		Topics:    [][]common.Hash{c.topics},
	}
	logs, err := c.client.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error calling FilterLogs to eth client: filter: %s err: %w",
			filterQueryToString(query), err)
	}
	return logs, nil
}

package blockdownloader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/perpx/explorer/db"
	"github.com/perpx/explorer/log"
	"github.com/perpx/explorer/metrics"
	chainsync "github.com/perpx/explorer/sync"
)

var ErrReorgTooDeep = errors.New("no common ancestor found within the max reorg depth")

type EthClienter interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Status is a snapshot of the downloader progress
type Status struct {
	LastKnownBlock uint64 `json:"lastKnownBlock"`
	ChainHead      uint64 `json:"chainHead"`
}

// BlockDownloader follows the chain one block at a time, stores the hash of
// every block it accepts and detects reorgs by checking parent hashes
type BlockDownloader struct {
	client        EthClienter
	db            *sql.DB
	cfg           Config
	earliestBlock uint64
	metrics       *metrics.Metrics
	log           *log.Logger

	subsLock     sync.RWMutex
	nextSubID    int
	newBlockSubs map[int]func(chainsync.Block)
	reorgSubs    map[int]func([]chainsync.Block)

	statusLock sync.RWMutex
	status     Status
}

func New(
	client EthClienter,
	database *sql.DB,
	cfg Config,
	earliestBlock uint64,
	m *metrics.Metrics,
) *BlockDownloader {
	return &BlockDownloader{
		client:        client,
		db:            database,
		cfg:           cfg,
		earliestBlock: earliestBlock,
		metrics:       m,
		log:           log.WithFields("module", "blockdownloader"),
		newBlockSubs:  map[int]func(chainsync.Block){},
		reorgSubs:     map[int]func([]chainsync.Block){},
	}
}

// GetKnownBlocks returns the stored blocks above sinceHeight
func (d *BlockDownloader) GetKnownBlocks(ctx context.Context, sinceHeight uint64) ([]chainsync.Block, error) {
	return getKnownBlocksAfter(d.db, sinceHeight)
}

func (d *BlockDownloader) OnNewBlock(handler func(chainsync.Block)) func() {
	d.subsLock.Lock()
	defer d.subsLock.Unlock()
	id := d.nextSubID
	d.nextSubID++
	d.newBlockSubs[id] = handler
	return func() {
		d.subsLock.Lock()
		delete(d.newBlockSubs, id)
		d.subsLock.Unlock()
	}
}

func (d *BlockDownloader) OnReorg(handler func([]chainsync.Block)) func() {
	d.subsLock.Lock()
	defer d.subsLock.Unlock()
	id := d.nextSubID
	d.nextSubID++
	d.reorgSubs[id] = handler
	return func() {
		d.subsLock.Lock()
		delete(d.reorgSubs, id)
		d.subsLock.Unlock()
	}
}

func (d *BlockDownloader) GetStatus() Status {
	d.statusLock.RLock()
	defer d.statusLock.RUnlock()
	return d.status
}

// Start downloads blocks until ctx is done. Blocks are requested as fast as
// the node has them, the poll interval only applies once the downloader
// caught up with the head.
func (d *BlockDownloader) Start(ctx context.Context) {
	d.log.Infof("starting block downloader from block %d", d.earliestBlock)
	for {
		advanced, err := d.step(ctx)
		if err != nil && ctx.Err() == nil {
			d.log.Errorf("error downloading blocks: %v", err)
		}
		if advanced && err == nil {
			continue
		}
		select {
		case <-ctx.Done():
			d.log.Info("block downloader stopped")
			return
		case <-time.After(d.cfg.pollInterval()):
		}
	}
}

// step accepts the next block. It returns false when there is nothing new
// to accept.
func (d *BlockDownloader) step(ctx context.Context) (bool, error) {
	last, err := getLastKnownBlock(d.db)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return false, err
	}
	next := d.earliestBlock
	if last != nil {
		next = last.Number + 1
	}

	head, err := d.client.BlockNumber(ctx)
	if err != nil {
		return false, fmt.Errorf("error getting last block number: %w", err)
	}
	d.setStatus(func(s *Status) { s.ChainHead = head })
	if head < d.cfg.SafeBlockDistance || next > head-d.cfg.SafeBlockDistance {
		return false, nil
	}

	header, err := d.headerByNumber(ctx, next)
	if err != nil {
		return false, err
	}
	if last == nil || header.ParentHash == last.Hash {
		return true, d.acceptBlock(ctx, knownBlock{Number: next, Hash: header.Hash()})
	}

	d.log.Warnf("block %d parent hash %s does not match stored block %d hash %s",
		next, header.ParentHash, last.Number, last.Hash)
	return true, d.handleReorg(ctx, last.Number)
}

func (d *BlockDownloader) acceptBlock(ctx context.Context, b knownBlock) error {
	err := db.ExecInTx(ctx, d.db, func(tx *db.Tx) error {
		return insertKnownBlock(tx, b)
	})
	if err != nil {
		return fmt.Errorf("error storing block %d: %w", b.Number, err)
	}
	d.metrics.SetLastKnownBlock(b.Number)
	d.setStatus(func(s *Status) { s.LastKnownBlock = b.Number })
	d.log.Debugf("new block %d %s", b.Number, b.Hash)

	d.subsLock.RLock()
	defer d.subsLock.RUnlock()
	for _, handler := range d.newBlockSubs {
		handler(b.toBlock())
	}
	return nil
}

// handleReorg walks back from fromBlock until the stored hash matches the
// canonical one, replaces the stored blocks above that height and notifies
// the replacement
func (d *BlockDownloader) handleReorg(ctx context.Context, fromBlock uint64) error {
	replacement := []knownBlock{}
	ancestorFound := false
	n := fromBlock
	for {
		if fromBlock-n >= d.cfg.maxReorgDepth() {
			return fmt.Errorf("%w: walked back from %d to %d", ErrReorgTooDeep, fromBlock, n)
		}
		stored, err := getKnownBlock(d.db, n)
		if errors.Is(err, db.ErrNotFound) {
			break
		}
		if err != nil {
			return err
		}
		header, err := d.headerByNumber(ctx, n)
		if err != nil {
			return err
		}
		if header.Hash() == stored.Hash {
			ancestorFound = true
			break
		}
		replacement = append([]knownBlock{{Number: n, Hash: header.Hash()}}, replacement...)
		if n == d.earliestBlock {
			break
		}
		n--
	}
	if len(replacement) == 0 {
		// the chain moved back to the stored blocks before the walk started
		return nil
	}
	ancestor := replacement[0].Number - 1
	if !ancestorFound {
		d.log.Warnf("reorg reaches the first stored block %d", replacement[0].Number)
	}

	err := db.ExecInTx(ctx, d.db, func(tx *db.Tx) error {
		if err := deleteKnownBlocksAfter(tx, ancestor); err != nil {
			return err
		}
		for _, b := range replacement {
			if err := insertKnownBlock(tx, b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error replacing blocks after %d: %w", ancestor, err)
	}

	d.metrics.IncReorgsDetected()
	last := replacement[len(replacement)-1]
	d.metrics.SetLastKnownBlock(last.Number)
	d.setStatus(func(s *Status) { s.LastKnownBlock = last.Number })
	d.log.Infof("reorg detected, %d blocks replaced from block %d", len(replacement), replacement[0].Number)

	blocks := make([]chainsync.Block, 0, len(replacement))
	for _, b := range replacement {
		blocks = append(blocks, b.toBlock())
	}
	d.subsLock.RLock()
	defer d.subsLock.RUnlock()
	for _, handler := range d.reorgSubs {
		handler(blocks)
	}
	return nil
}

func (d *BlockDownloader) headerByNumber(ctx context.Context, n uint64) (*types.Header, error) {
	header, err := d.client.HeaderByNumber(ctx, new(big.Int).SetUint64(n))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			// blocks can disappear for a while during a reorg
			d.log.Warnf("block %d not found on the ethereum client", n)
		}
		return nil, fmt.Errorf("error getting header of block %d: %w", n, err)
	}
	return header, nil
}

func (d *BlockDownloader) setStatus(update func(s *Status)) {
	d.statusLock.Lock()
	update(&d.status)
	d.statusLock.Unlock()
}

package blockdownloader

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/perpx/explorer/db"
	chainsync "github.com/perpx/explorer/sync"
	"github.com/russross/meddler"
)

type knownBlock struct {
	Number uint64      `meddler:"number"`
	Hash   common.Hash `meddler:"hash,hash"`
}

func (b knownBlock) toBlock() chainsync.Block {
	return chainsync.Block{Number: b.Number, Hash: b.Hash}
}

func getLastKnownBlock(tx db.Querier) (*knownBlock, error) {
	b := &knownBlock{}
	if err := meddler.QueryRow(tx, b, `SELECT * FROM known_block ORDER BY number DESC LIMIT 1;`); err != nil {
		return nil, db.ReturnErrNotFound(err)
	}
	return b, nil
}

func getKnownBlock(tx db.Querier, number uint64) (*knownBlock, error) {
	b := &knownBlock{}
	if err := meddler.QueryRow(tx, b, `SELECT * FROM known_block WHERE number = $1;`, number); err != nil {
		return nil, db.ReturnErrNotFound(err)
	}
	return b, nil
}

func getKnownBlocksAfter(tx db.Querier, since uint64) ([]chainsync.Block, error) {
	rows := []*knownBlock{}
	err := meddler.QueryAll(tx, &rows, `SELECT * FROM known_block WHERE number > $1 ORDER BY number ASC;`, since)
	if err != nil {
		return nil, err
	}
	blocks := make([]chainsync.Block, 0, len(rows))
	for _, r := range rows {
		blocks = append(blocks, r.toBlock())
	}
	return blocks, nil
}

func insertKnownBlock(tx db.Querier, b knownBlock) error {
	return meddler.Insert(tx, "known_block", &b)
}

func deleteKnownBlocksAfter(tx db.Querier, number uint64) error {
	_, err := tx.Exec(`DELETE FROM known_block WHERE number > $1;`, number)
	return err
}

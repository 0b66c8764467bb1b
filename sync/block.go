package sync

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var ErrNonContiguousBlocks = errors.New("block numbers are not contiguous")

// Block is an L1 block as seen by the block watcher
type Block struct {
	Number uint64
	Hash   common.Hash
}

func (b Block) String() string {
	return fmt.Sprintf("%d (%s)", b.Number, b.Hash.Hex())
}

// BlockRange is an ordered run of blocks with consecutive numbers. An empty
// range still knows the number its first block would have, so appends to it
// can be checked for gaps.
type BlockRange struct {
	blocks []Block
	start  uint64
}

// NewBlockRange builds a range out of blocks, which must be sorted with
// consecutive numbers
func NewBlockRange(blocks []Block) (BlockRange, error) {
	if len(blocks) == 0 {
		return BlockRange{}, nil
	}
	if err := checkContiguous(blocks[0].Number, blocks); err != nil {
		return BlockRange{}, err
	}
	return BlockRange{blocks: cloneBlocks(blocks), start: blocks[0].Number}, nil
}

// EmptyBlockRange returns a range without blocks whose next block is start
func EmptyBlockRange(start uint64) BlockRange {
	return BlockRange{start: start}
}

func checkContiguous(start uint64, blocks []Block) error {
	for i, b := range blocks {
		if b.Number != start+uint64(i) {
			return fmt.Errorf("%w: expected block %d, got %d", ErrNonContiguousBlocks, start+uint64(i), b.Number)
		}
	}
	return nil
}

func cloneBlocks(blocks []Block) []Block {
	if len(blocks) == 0 {
		return nil
	}
	res := make([]Block, len(blocks))
	copy(res, blocks)
	return res
}

func (r BlockRange) IsEmpty() bool {
	return len(r.blocks) == 0
}

func (r BlockRange) Len() int {
	return len(r.blocks)
}

// Start is the number of the first block of the range
func (r BlockRange) Start() uint64 {
	return r.start
}

// End is the number right after the last block of the range. For empty ranges
// Start and End are equal.
func (r BlockRange) End() uint64 {
	return r.start + uint64(len(r.blocks))
}

func (r BlockRange) First() (Block, bool) {
	if r.IsEmpty() {
		return Block{}, false
	}
	return r.blocks[0], true
}

func (r BlockRange) Last() (Block, bool) {
	if r.IsEmpty() {
		return Block{}, false
	}
	return r.blocks[len(r.blocks)-1], true
}

// Blocks returns a copy of the blocks in the range
func (r BlockRange) Blocks() []Block {
	return cloneBlocks(r.blocks)
}

func (r BlockRange) Has(number uint64) bool {
	return !r.IsEmpty() && number >= r.start && number < r.End()
}

// Get returns the block with the given number if the range covers it
func (r BlockRange) Get(number uint64) (Block, bool) {
	if !r.Has(number) {
		return Block{}, false
	}
	return r.blocks[number-r.start], true
}

// Merge appends blocks at the end of the range. Blocks the range already
// covers are skipped, the remaining ones must continue the range.
func (r BlockRange) Merge(blocks []Block) (BlockRange, error) {
	end := r.End()
	fresh := blocks
	for len(fresh) > 0 && fresh[0].Number < end {
		fresh = fresh[1:]
	}
	if len(fresh) == 0 {
		return r, nil
	}
	if r.IsEmpty() && r.start == 0 {
		// zero value range, anchored on the first block received
		end = fresh[0].Number
	}
	if err := checkContiguous(end, fresh); err != nil {
		return r, err
	}
	merged := make([]Block, 0, len(r.blocks)+len(fresh))
	merged = append(merged, r.blocks...)
	merged = append(merged, fresh...)
	start := r.start
	if r.IsEmpty() {
		start = end
	}
	return BlockRange{blocks: merged, start: start}, nil
}

// TruncateFrom drops every block with number >= n
func (r BlockRange) TruncateFrom(n uint64) BlockRange {
	if n <= r.start {
		return EmptyBlockRange(min(n, r.start))
	}
	if n >= r.End() {
		return r
	}
	return BlockRange{blocks: cloneBlocks(r.blocks[:n-r.start]), start: r.start}
}

// SkipUntil drops every block with number <= n
func (r BlockRange) SkipUntil(n uint64) BlockRange {
	if n < r.start {
		return r
	}
	if n+1 >= r.End() {
		return EmptyBlockRange(max(n+1, r.End()))
	}
	return BlockRange{blocks: cloneBlocks(r.blocks[n+1-r.start:]), start: n + 1}
}

// Take returns the first n blocks of the range. n == 0 means all of them.
func (r BlockRange) Take(n int) BlockRange {
	if n <= 0 || n >= len(r.blocks) {
		return r
	}
	return BlockRange{blocks: cloneBlocks(r.blocks[:n]), start: r.start}
}

// Clip keeps the blocks inside [lowest, highest]. highest == 0 means no upper bound.
func Clip(blocks []Block, lowest, highest uint64) []Block {
	res := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if b.Number < lowest || (highest != 0 && b.Number > highest) {
			continue
		}
		res = append(res, b)
	}
	return res
}

func (r BlockRange) String() string {
	if r.IsEmpty() {
		return fmt.Sprintf("[empty from %d]", r.start)
	}
	return fmt.Sprintf("[%d, %d]", r.start, r.End()-1)
}

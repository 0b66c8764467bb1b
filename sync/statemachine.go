package sync

import "fmt"

// Phase of the sync state machine
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseIdle
	PhaseSyncing
	PhaseDiscarding
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseIdle:
		return "idle"
	case PhaseSyncing:
		return "syncing"
	case PhaseDiscarding:
		return "discarding"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Effect is the side effect the scheduler must run after a transition
type Effect int

const (
	EffectNone Effect = iota
	// EffectSync syncs SyncState.BlocksInFlight
	EffectSync
	// EffectDiscard discards everything after SyncState.DiscardAfterBlock
	EffectDiscard
)

func (e Effect) String() string {
	switch e {
	case EffectNone:
		return "none"
	case EffectSync:
		return "sync"
	case EffectDiscard:
		return "discard"
	default:
		return fmt.Sprintf("effect(%d)", int(e))
	}
}

// Action is an input of the state machine
type Action interface {
	ActionType() string
}

// InitAction carries the persisted watermark and the blocks the watcher knows above it
type InitAction struct {
	LastSynced  uint64
	KnownBlocks []Block
}

// NewBlocksAction is dispatched for blocks extending the canonical chain
type NewBlocksAction struct {
	Blocks []Block
}

// ReorgAction carries the blocks replacing the chain from Blocks[0].Number on
type ReorgAction struct {
	Blocks []Block
}

// SyncFinishedAction reports the completion of an EffectSync
type SyncFinishedAction struct {
	Success bool
}

// DiscardFinishedAction reports the completion of an EffectDiscard
type DiscardFinishedAction struct {
	Success bool
}

func (InitAction) ActionType() string            { return "init" }
func (NewBlocksAction) ActionType() string       { return "newBlocks" }
func (ReorgAction) ActionType() string           { return "reorg" }
func (SyncFinishedAction) ActionType() string    { return "syncFinished" }
func (DiscardFinishedAction) ActionType() string { return "discardFinished" }

// ReducerConfig bounds the blocks the state machine accepts
type ReducerConfig struct {
	EarliestBlock  uint64
	MaxBlockNumber uint64
	SyncBatchSize  int
}

// SyncState is the whole state of the sync state machine
type SyncState struct {
	Phase Phase
	// LatestBlockProcessed only moves forward once a sync is confirmed
	LatestBlockProcessed uint64
	// BlocksToProcess starts right after LatestBlockProcessed
	BlocksToProcess BlockRange
	// BlocksInFlight is the prefix of BlocksToProcess handed to the running sync
	BlocksInFlight BlockRange
	// Awaiting is the effect whose completion has not been received yet
	Awaiting Effect
	// DiscardRequested is set by a reorg until its discard is issued
	DiscardRequested bool
	// DiscardAfterBlock is the height the requested or running discard keeps
	DiscardAfterBlock uint64
}

// NewSyncState returns the state of a scheduler that has not read its watermark yet
func NewSyncState() SyncState {
	return SyncState{Phase: PhaseUninitialized}
}

// Reduce is the transition function of the sync state machine. It does no
// I/O: the returned effect is executed by the Scheduler, which reports back
// with SyncFinishedAction or DiscardFinishedAction.
func Reduce(cfg ReducerConfig, state SyncState, action Action) (SyncState, Effect) {
	switch a := action.(type) {
	case InitAction:
		return reduceInit(cfg, state, a)
	case NewBlocksAction:
		return reduceNewBlocks(cfg, state, a)
	case ReorgAction:
		return reduceReorg(cfg, state, a)
	case SyncFinishedAction:
		return reduceSyncFinished(cfg, state, a)
	case DiscardFinishedAction:
		return reduceDiscardFinished(cfg, state, a)
	default:
		return state, EffectNone
	}
}

func reduceInit(cfg ReducerConfig, state SyncState, a InitAction) (SyncState, Effect) {
	if state.Phase != PhaseUninitialized {
		return state, EffectNone
	}
	buffered := state.BlocksToProcess

	state.LatestBlockProcessed = a.LastSynced
	queue := EmptyBlockRange(a.LastSynced + 1)
	known := Clip(a.KnownBlocks, max(cfg.EarliestBlock, a.LastSynced+1), cfg.MaxBlockNumber)
	queue, err := queue.Merge(known)
	if err != nil {
		// known blocks not continuing the watermark are useless, wait for new ones
		queue = EmptyBlockRange(a.LastSynced + 1)
	}
	if merged, err := mergeReplacing(queue, buffered.Blocks()); err == nil {
		queue = merged
	}
	state.BlocksToProcess = queue
	state.Phase = PhaseIdle
	return schedule(cfg, state)
}

func reduceNewBlocks(cfg ReducerConfig, state SyncState, a NewBlocksAction) (SyncState, Effect) {
	blocks := Clip(a.Blocks, cfg.EarliestBlock, cfg.MaxBlockNumber)
	if len(blocks) == 0 {
		return state, EffectNone
	}
	queue, err := state.BlocksToProcess.Merge(blocks)
	if err != nil {
		return state, EffectNone
	}
	state.BlocksToProcess = queue
	if state.Phase == PhaseUninitialized {
		return state, EffectNone
	}
	return schedule(cfg, state)
}

func reduceReorg(cfg ReducerConfig, state SyncState, a ReorgAction) (SyncState, Effect) {
	blocks := Clip(a.Blocks, cfg.EarliestBlock, cfg.MaxBlockNumber)
	if len(blocks) == 0 || blocks[0].Number == 0 {
		return state, EffectNone
	}
	// replacements that do not continue the queue can't be synced, the
	// discard still goes ahead
	if queue, err := mergeReplacing(state.BlocksToProcess, blocks); err == nil {
		state.BlocksToProcess = queue
	}
	if state.Phase == PhaseUninitialized {
		return state, EffectNone
	}

	target := blocks[0].Number - 1
	if state.DiscardRequested {
		target = min(target, state.DiscardAfterBlock)
	}
	state.DiscardAfterBlock = target
	state.DiscardRequested = true
	state.BlocksInFlight = state.BlocksInFlight.TruncateFrom(target + 1)
	if target < state.LatestBlockProcessed {
		state.LatestBlockProcessed = target
	}
	state.Phase = PhaseDiscarding
	return schedule(cfg, state)
}

func reduceSyncFinished(cfg ReducerConfig, state SyncState, a SyncFinishedAction) (SyncState, Effect) {
	if state.Awaiting != EffectSync {
		return state, EffectNone
	}
	state.Awaiting = EffectNone
	if a.Success {
		// after a reorg only the blocks below the reorged height are still valid
		if last, ok := state.BlocksInFlight.Last(); ok && last.Number > state.LatestBlockProcessed {
			state.LatestBlockProcessed = last.Number
			state.BlocksToProcess = state.BlocksToProcess.SkipUntil(last.Number)
		}
	}
	state.BlocksInFlight = EmptyBlockRange(state.LatestBlockProcessed + 1)
	return schedule(cfg, state)
}

func reduceDiscardFinished(cfg ReducerConfig, state SyncState, a DiscardFinishedAction) (SyncState, Effect) {
	if state.Awaiting != EffectDiscard {
		return state, EffectNone
	}
	state.Awaiting = EffectNone
	if !a.Success {
		state.DiscardRequested = true
	}
	return schedule(cfg, state)
}

// schedule picks the next effect once nothing is outstanding. A requested
// discard always goes before syncing more blocks.
func schedule(cfg ReducerConfig, state SyncState) (SyncState, Effect) {
	if state.Awaiting != EffectNone {
		return state, EffectNone
	}
	if state.DiscardRequested {
		state.DiscardRequested = false
		state.Phase = PhaseDiscarding
		state.Awaiting = EffectDiscard
		state.BlocksInFlight = EmptyBlockRange(state.LatestBlockProcessed + 1)
		return state, EffectDiscard
	}
	if !state.BlocksToProcess.IsEmpty() {
		state.Phase = PhaseSyncing
		state.Awaiting = EffectSync
		state.BlocksInFlight = state.BlocksToProcess.Take(cfg.SyncBatchSize)
		return state, EffectSync
	}
	state.Phase = PhaseIdle
	state.BlocksInFlight = EmptyBlockRange(state.LatestBlockProcessed + 1)
	return state, EffectNone
}

// mergeReplacing drops the blocks of r from the first replacement height on
// and appends the replacement
func mergeReplacing(r BlockRange, replacement []Block) (BlockRange, error) {
	if len(replacement) == 0 {
		return r, nil
	}
	return r.TruncateFrom(replacement[0].Number).Merge(replacement)
}

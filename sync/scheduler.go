package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/perpx/explorer/log"
	"github.com/perpx/explorer/metrics"
)

// Status is a snapshot of the scheduler state
type Status struct {
	Phase                string `json:"phase"`
	LatestBlockProcessed uint64 `json:"latestBlockProcessed"`
	BlocksToProcess      string `json:"blocksToProcess"`
	BlocksInFlight       string `json:"blocksInFlight"`
	PendingActions       int    `json:"pendingActions"`
}

// Scheduler feeds the blocks reported by the BlockWatcher to the DataSyncer,
// one effect at a time, keeping the persisted watermark and the preprocessed
// tables in line with the canonical chain
type Scheduler struct {
	cfg          Config
	syncStatus   SyncStatusStorer
	watcher      BlockWatcher
	dataSyncer   DataSyncer
	preprocessor Preprocessor
	metrics      *metrics.Metrics
	log          *log.Logger

	jobQueue *JobQueue

	stateLock sync.RWMutex
	state     SyncState

	unsubscribers []func()
	cancel        context.CancelFunc
	done          chan struct{}
}

func NewScheduler(
	cfg Config,
	syncStatus SyncStatusStorer,
	watcher BlockWatcher,
	dataSyncer DataSyncer,
	preprocessor Preprocessor,
	m *metrics.Metrics,
) *Scheduler {
	logger := log.WithFields("module", "sync-scheduler")
	return &Scheduler{
		cfg:          cfg,
		syncStatus:   syncStatus,
		watcher:      watcher,
		dataSyncer:   dataSyncer,
		preprocessor: preprocessor,
		metrics:      m,
		log:          logger,
		jobQueue:     NewJobQueue(1, logger),
		state:        NewSyncState(),
		done:         make(chan struct{}),
	}
}

// Start undoes whatever was stored after the persisted watermark, hands the
// known blocks to the state machine and subscribes to the watcher. Effects run
// in the background until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	lastSynced, ok, err := s.syncStatus.GetLastSynced(ctx)
	if err != nil {
		return fmt.Errorf("error getting last synced block: %w", err)
	}
	if !ok {
		lastSynced = s.cfg.EarliestBlock
	}
	s.log.Infof("starting sync scheduler, last synced block: %d", lastSynced)

	if err := s.dataSyncer.DiscardAfter(ctx, lastSynced); err != nil {
		return fmt.Errorf("error discarding data after block %d: %w", lastSynced, err)
	}
	s.syncPreprocessor(ctx)

	knownBlocks, err := s.watcher.GetKnownBlocks(ctx, lastSynced)
	if err != nil {
		return fmt.Errorf("error getting known blocks since %d: %w", lastSynced, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go func() {
		s.jobQueue.Run(runCtx)
		close(s.done)
	}()

	s.Dispatch(InitAction{LastSynced: lastSynced, KnownBlocks: knownBlocks})
	s.unsubscribers = append(s.unsubscribers,
		s.watcher.OnNewBlock(func(b Block) {
			s.Dispatch(NewBlocksAction{Blocks: []Block{b}})
		}),
		s.watcher.OnReorg(func(blocks []Block) {
			s.Dispatch(ReorgAction{Blocks: blocks})
		}),
	)
	return nil
}

// Stop unsubscribes from the watcher and waits for the running effect
func (s *Scheduler) Stop() {
	for _, unsubscribe := range s.unsubscribers {
		unsubscribe()
	}
	s.unsubscribers = nil
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

// Dispatch enqueues an action. Actions are applied in order, each one after
// the effect of the previous one has finished.
func (s *Scheduler) Dispatch(action Action) {
	s.jobQueue.Add(Job{
		Name: action.ActionType(),
		Execute: func(ctx context.Context) error {
			s.apply(ctx, action)
			return nil
		},
	})
}

// GetState returns a copy of the current state
func (s *Scheduler) GetState() SyncState {
	s.stateLock.RLock()
	defer s.stateLock.RUnlock()
	return s.state
}

// GetStatus describes the current state
func (s *Scheduler) GetStatus() Status {
	state := s.GetState()
	return Status{
		Phase:                state.Phase.String(),
		LatestBlockProcessed: state.LatestBlockProcessed,
		BlocksToProcess:      state.BlocksToProcess.String(),
		BlocksInFlight:       state.BlocksInFlight.String(),
		PendingActions:       s.jobQueue.Len(),
	}
}

func (s *Scheduler) apply(ctx context.Context, action Action) {
	if ctx.Err() != nil {
		return
	}
	prev := s.GetState()
	next, effect := Reduce(s.cfg.reducerConfig(), prev, action)
	s.setState(next)
	s.logAction(action, next, effect)
	if _, ok := action.(ReorgAction); ok {
		s.metrics.IncReorgs()
	}

	switch effect {
	case EffectSync:
		success := s.handleSync(ctx, next)
		s.dispatchIfRunning(ctx, SyncFinishedAction{Success: success})
	case EffectDiscard:
		success := s.handleDiscardAfter(ctx, next)
		s.dispatchIfRunning(ctx, DiscardFinishedAction{Success: success})
	case EffectNone:
		if next.LatestBlockProcessed != prev.LatestBlockProcessed {
			if err := s.syncStatus.SetLastSynced(ctx, next.LatestBlockProcessed); err != nil {
				s.log.Errorf("error persisting last synced block %d: %v", next.LatestBlockProcessed, err)
			}
		}
	}
}

func (s *Scheduler) handleSync(ctx context.Context, state SyncState) bool {
	start := time.Now()
	blocks := state.BlocksInFlight
	err := s.syncStatus.SetLastSynced(ctx, state.LatestBlockProcessed)
	if err == nil {
		err = s.dataSyncer.Sync(ctx, blocks)
	}
	s.syncPreprocessor(ctx)
	s.metrics.ObserveEffect(EffectSync.String(), err == nil, time.Since(start))
	if err != nil {
		s.log.Errorf("error syncing blocks %s: %v", blocks, err)
		s.pauseAfterError(ctx)
		return false
	}
	s.log.Infof("synced blocks %s", blocks)
	return true
}

func (s *Scheduler) handleDiscardAfter(ctx context.Context, state SyncState) bool {
	start := time.Now()
	err := s.syncStatus.SetLastSynced(ctx, state.LatestBlockProcessed)
	if err == nil {
		err = s.dataSyncer.DiscardAfter(ctx, state.DiscardAfterBlock)
	}
	s.syncPreprocessor(ctx)
	s.metrics.ObserveEffect(EffectDiscard.String(), err == nil, time.Since(start))
	if err != nil {
		s.log.Errorf("error discarding data after block %d: %v", state.DiscardAfterBlock, err)
		s.pauseAfterError(ctx)
		return false
	}
	s.log.Infof("discarded data after block %d", state.DiscardAfterBlock)
	return true
}

func (s *Scheduler) syncPreprocessor(ctx context.Context) {
	if err := s.preprocessor.Sync(ctx); err != nil {
		s.log.Errorf("error syncing preprocessor: %v", err)
	}
}

func (s *Scheduler) pauseAfterError(ctx context.Context) {
	period := s.cfg.retryAfterErrorPeriod()
	if period <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(period):
	}
}

func (s *Scheduler) dispatchIfRunning(ctx context.Context, action Action) {
	if ctx.Err() != nil {
		return
	}
	s.Dispatch(action)
}

func (s *Scheduler) setState(state SyncState) {
	s.stateLock.Lock()
	s.state = state
	s.stateLock.Unlock()

	s.metrics.SetSyncState(state.Phase.String(), state.LatestBlockProcessed, state.BlocksToProcess.Len())
}

func (s *Scheduler) logAction(action Action, state SyncState, effect Effect) {
	fields := []interface{}{
		"action", action.ActionType(),
		"phase", state.Phase.String(),
		"effect", effect.String(),
		"latestBlockProcessed", state.LatestBlockProcessed,
	}
	switch a := action.(type) {
	case NewBlocksAction:
		fields = append(fields, "blocks", blocksRangeField(a.Blocks))
	case ReorgAction:
		fields = append(fields, "blocks", blocksRangeField(a.Blocks))
	case InitAction:
		fields = append(fields, "blocks", blocksRangeField(a.KnownBlocks))
	case SyncFinishedAction:
		fields = append(fields, "success", a.Success)
	case DiscardFinishedAction:
		fields = append(fields, "success", a.Success)
	}
	s.log.Debugw("action dispatched", fields...)
}

func blocksRangeField(blocks []Block) string {
	if len(blocks) == 0 {
		return "none"
	}
	return fmt.Sprintf("%d - %d", blocks[0].Number, blocks[len(blocks)-1].Number)
}

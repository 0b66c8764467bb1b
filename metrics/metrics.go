package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	Namespace = "explorer"

	StatusSuccess = "success"
	StatusError   = "error"

	subsystemSync          = "sync"
	subsystemBlocks        = "blocks"
	subsystemStateUpdates  = "state_updates"
	subsystemPreprocessing = "preprocessing"
)

var phases = []string{"uninitialized", "idle", "syncing", "discarding"}

// Metrics groups the collectors of every syncing component. All methods are
// no-ops on a nil *Metrics, so components can run without them.
type Metrics struct {
	watermark      prometheus.Gauge
	phase          *prometheus.GaugeVec
	queuedBlocks   prometheus.Gauge
	effects        *prometheus.CounterVec
	effectDuration *prometheus.HistogramVec
	reorgs         prometheus.Counter

	lastKnownBlock prometheus.Gauge
	reorgsDetected prometheus.Counter

	stateUpdatesSynced    prometheus.Counter
	stateUpdatesDiscarded prometheus.Counter

	lastPreprocessed  prometheus.Gauge
	historyRecords    prometheus.Counter
	rolledBackUpdates prometheus.Counter
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		watermark: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystemSync,
			Name:      "latest_block_processed",
			Help:      "Last block whose data has been synced",
		}),
		phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystemSync,
			Name:      "phase",
			Help:      "1 for the current phase of the sync scheduler, 0 for the rest",
		}, []string{"phase"}),
		queuedBlocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystemSync,
			Name:      "queued_blocks",
			Help:      "Blocks waiting to be synced",
		}),
		effects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemSync,
			Name:      "effects_total",
			Help:      "Sync and discard effects executed by status",
		}, []string{"effect", "status"}),
		effectDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: subsystemSync,
			Name:      "effect_duration_seconds",
			Help:      "Time spent executing an effect",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"effect"}),
		reorgs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemSync,
			Name:      "reorgs_total",
			Help:      "Reorgs handled by the sync scheduler",
		}),
		lastKnownBlock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystemBlocks,
			Name:      "last_known",
			Help:      "Highest block stored by the block downloader",
		}),
		reorgsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemBlocks,
			Name:      "reorgs_detected_total",
			Help:      "Reorgs detected by the block downloader",
		}),
		stateUpdatesSynced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemStateUpdates,
			Name:      "synced_total",
			Help:      "State updates stored",
		}),
		stateUpdatesDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemStateUpdates,
			Name:      "discarded_total",
			Help:      "State updates deleted because of reorgs",
		}),
		lastPreprocessed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: subsystemPreprocessing,
			Name:      "last_state_update",
			Help:      "Id of the last state update folded into the asset history",
		}),
		historyRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemPreprocessing,
			Name:      "history_records_total",
			Help:      "Asset history records written",
		}),
		rolledBackUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemPreprocessing,
			Name:      "rolled_back_total",
			Help:      "State updates removed from the asset history",
		}),
	}

	err := errors.Join(
		reg.Register(m.watermark),
		reg.Register(m.phase),
		reg.Register(m.queuedBlocks),
		reg.Register(m.effects),
		reg.Register(m.effectDuration),
		reg.Register(m.reorgs),
		reg.Register(m.lastKnownBlock),
		reg.Register(m.reorgsDetected),
		reg.Register(m.stateUpdatesSynced),
		reg.Register(m.stateUpdatesDiscarded),
		reg.Register(m.lastPreprocessed),
		reg.Register(m.historyRecords),
		reg.Register(m.rolledBackUpdates),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// SetSyncState records the phase, watermark and queue length of the scheduler
func (m *Metrics) SetSyncState(phase string, latestBlockProcessed uint64, queuedBlocks int) {
	if m == nil {
		return
	}
	m.watermark.Set(float64(latestBlockProcessed))
	m.queuedBlocks.Set(float64(queuedBlocks))
	for _, p := range phases {
		v := 0.0
		if p == phase {
			v = 1
		}
		m.phase.WithLabelValues(p).Set(v)
	}
}

// ObserveEffect records the outcome and duration of an effect
func (m *Metrics) ObserveEffect(effect string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if !success {
		status = StatusError
	}
	m.effects.WithLabelValues(effect, status).Inc()
	m.effectDuration.WithLabelValues(effect).Observe(duration.Seconds())
}

func (m *Metrics) IncReorgs() {
	if m == nil {
		return
	}
	m.reorgs.Inc()
}

func (m *Metrics) SetLastKnownBlock(number uint64) {
	if m == nil {
		return
	}
	m.lastKnownBlock.Set(float64(number))
}

func (m *Metrics) IncReorgsDetected() {
	if m == nil {
		return
	}
	m.reorgsDetected.Inc()
}

func (m *Metrics) AddStateUpdatesSynced(n int) {
	if m == nil {
		return
	}
	m.stateUpdatesSynced.Add(float64(n))
}

func (m *Metrics) AddStateUpdatesDiscarded(n int64) {
	if m == nil {
		return
	}
	m.stateUpdatesDiscarded.Add(float64(n))
}

func (m *Metrics) SetLastPreprocessed(stateUpdateID uint64) {
	if m == nil {
		return
	}
	m.lastPreprocessed.Set(float64(stateUpdateID))
}

func (m *Metrics) AddHistoryRecords(n int) {
	if m == nil {
		return
	}
	m.historyRecords.Add(float64(n))
}

func (m *Metrics) IncRolledBack() {
	if m == nil {
		return
	}
	m.rolledBackUpdates.Inc()
}

// Package scheduler runs the fixed-cadence loop that drains captured packets,
// aggregates them and hands snapshots to the display.
package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"netradar/internal/analysis"
	"netradar/internal/history"
	"netradar/internal/ingest"
	"netradar/internal/metrics"
	"netradar/internal/models"
)

const DefaultTickInterval = 100 * time.Millisecond

var (
	ErrAlreadyStarted = errors.New("scheduler already started")
	ErrNoQueue        = errors.New("scheduler requires an ingest queue")
	ErrNoDisplay      = errors.New("scheduler requires a display")
)

// State is the lifecycle state of a Scheduler.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Source is the running capture backend as seen by the scheduler.
type Source interface {
	Stop() error
	Done() <-chan struct{}
}

// Display renders snapshots. Render may be slow; it only delays the next tick.
type Display interface {
	Render(Snapshot) error
	Close() error
}

// Locator annotates an address, e.g. with its country code.
type Locator interface {
	Country(addr string) string
}

// Config wires a Scheduler. Queue and Display are required.
type Config struct {
	Interface       string
	TickInterval    time.Duration
	HistoryCapacity int
	WindowSize      int

	Queue   *ingest.Queue[models.PacketEvent]
	Source  Source
	Display Display
	Input   <-chan InputEvent
	Locator Locator
	Metrics *metrics.Collector
	Logger  zerolog.Logger
	Clock   func() time.Time

	// Detector thresholds; zero values use the defaults.
	Detector analysis.DetectorConfig
}

// Scheduler owns the history store and statistics. Everything except State
// is confined to the goroutine running Run (or to the caller of Tick in tests).
type Scheduler struct {
	iface    string
	interval time.Duration

	queue   *ingest.Queue[models.PacketEvent]
	source  Source
	display Display
	input   <-chan InputEvent
	locator Locator
	metrics *metrics.Collector
	logger  zerolog.Logger
	clock   func() time.Time

	store    *history.Store
	stats    *analysis.TrafficStats
	detector *analysis.AnomalyDetector
	state    atomic.Int32

	start       time.Time
	end         time.Time
	view        ViewMode
	inspecting  bool
	lastDropped uint64
}

// New creates an idle Scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Queue == nil {
		return nil, ErrNoQueue
	}
	if cfg.Display == nil {
		return nil, ErrNoDisplay
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	start := cfg.Clock()
	return &Scheduler{
		iface:    cfg.Interface,
		interval: cfg.TickInterval,
		queue:    cfg.Queue,
		source:   cfg.Source,
		display:  cfg.Display,
		input:    cfg.Input,
		locator:  cfg.Locator,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.With().Str("component", "scheduler").Logger(),
		clock:    cfg.Clock,
		store:    history.NewStore(cfg.HistoryCapacity, cfg.WindowSize),
		stats:    analysis.NewTrafficStats(start),
		detector: analysis.NewAnomalyDetector(cfg.Detector),
		start:    start,
	}, nil
}

// State returns the current lifecycle state. Safe for concurrent use.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Store exposes the history store, for inspection after Run returns.
func (s *Scheduler) Store() *history.Store {
	return s.store
}

// Stats exposes the aggregated statistics, for inspection after Run returns.
func (s *Scheduler) Stats() *analysis.TrafficStats {
	return s.stats
}

// Run ticks until ctx is cancelled or a Quit event arrives, then stops the
// capture source, closes the queue and the display. Aggregated statistics
// remain available through Summary.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return ErrAlreadyStarted
	}
	s.logger.Info().
		Str("interface", s.iface).
		Dur("tick", s.interval).
		Msg("render loop started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	input := s.input
	reason := "context done"
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case now := <-ticker.C:
			s.step(now)
		case ev, ok := <-input:
			if !ok {
				input = nil
				continue
			}
			if s.HandleInput(ev) {
				reason = "quit"
				break loop
			}
		}
	}

	s.shutdown(reason)
	return nil
}

// Tick drains the queue, classifies and records every drained packet, and
// builds the snapshot for now. It never waits on the capture side.
func (s *Scheduler) Tick(now time.Time) Snapshot {
	s.metrics.QueueDepth.Set(float64(s.queue.Len()))

	for _, ev := range s.queue.DrainAll() {
		c := analysis.Classify(ev)
		s.stats.RecordEvent(ev, c)
		s.store.Append(ev, c)
		s.metrics.PacketsTotal.WithLabelValues(c.String()).Inc()
		s.observe(ev)
	}

	if dropped := s.queue.Dropped(); dropped > s.lastDropped {
		s.metrics.DroppedTotal.Add(float64(dropped - s.lastDropped))
		s.lastDropped = dropped
	}
	s.metrics.HistoryLength.Set(float64(s.store.Len()))

	return s.snapshot(now)
}

// HandleInput applies one input event and reports whether it asks to quit.
func (s *Scheduler) HandleInput(ev InputEvent) bool {
	switch ev {
	case MoveUp:
		s.store.MoveSelection(-1)
	case MoveDown:
		s.store.MoveSelection(1)
	case MoveTop:
		s.store.SelectFirst()
	case MoveBottom:
		s.store.SelectLast()
	case SelectEnter:
		s.inspecting = !s.inspecting
	case SwitchView:
		if s.view == ViewPackets {
			s.view = ViewStatistics
		} else {
			s.view = ViewPackets
		}
	case Quit:
		return true
	default:
		s.logger.Debug().Int("event", int(ev)).Msg("ignoring unknown input event")
	}
	return false
}

func (s *Scheduler) observe(ev models.PacketEvent) {
	before := s.detector.Total()
	s.detector.Observe(ev)
	if n := s.detector.Total() - before; n > 0 {
		for _, a := range s.detector.RecentAlerts(int(n)) {
			s.metrics.AlertsTotal.WithLabelValues(string(a.Type)).Inc()
			s.logger.Warn().
				Str("type", string(a.Type)).
				Str("source", a.Source).
				Msg(a.Message)
		}
	}
}

func (s *Scheduler) step(now time.Time) {
	began := s.clock()
	snap := s.Tick(now)
	if err := s.display.Render(snap); err != nil {
		s.metrics.RenderErrors.Inc()
		s.logger.Warn().Err(err).Msg("render failed")
	}
	s.metrics.TickDuration.Observe(s.clock().Sub(began).Seconds())
}

func (s *Scheduler) shutdown(reason string) {
	s.state.Store(int32(StateStopping))
	s.logger.Info().Str("reason", reason).Msg("render loop stopping")

	if s.source != nil {
		if err := s.source.Stop(); err != nil {
			s.logger.Error().Err(err).Msg("stopping capture")
		}
	}
	s.queue.Close()
	if err := s.display.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("closing display")
	}

	s.end = s.clock()
	s.state.Store(int32(StateStopped))
	s.logger.Info().
		Uint64("packets", s.stats.Total()).
		Uint64("dropped", s.lastDropped).
		Msg("render loop stopped")
}

func (s *Scheduler) capturing() bool {
	if s.State() != StateRunning {
		return false
	}
	if s.source == nil {
		return true
	}
	select {
	case <-s.source.Done():
		return false
	default:
		return true
	}
}

func (s *Scheduler) snapshot(now time.Time) Snapshot {
	elapsed := now.Sub(s.start)
	pps, bps := s.stats.Rate(now)

	window := s.store.VisibleWindow()
	selected := s.store.SelectedIndex()
	rows := make([]Row, len(window))
	for i, e := range window {
		rows[i] = s.row(i, e, i == selected)
	}

	snap := Snapshot{
		Interface:  s.iface,
		Running:    s.capturing(),
		State:      s.State(),
		View:       s.view,
		Elapsed:    elapsed,
		Throughput: s.stats.Throughput(elapsed.Seconds()),
		RecentPPS:  pps,
		RecentBPS:  bps,
		Total:      s.stats.Total(),
		TotalBytes: s.stats.TotalBytes(),
		Dropped:    s.lastDropped,
		Counts:     s.stats.Counts(),
		Alerts:     s.detector.RecentAlerts(recentAlerts),
		AlertsSeen: s.detector.Total(),
		Rows:       rows,
		Help:       append([]HelpEntry(nil), Help...),
	}

	if s.inspecting {
		if e, ok := s.store.Selected(); ok {
			snap.Inspect = s.detail(selected, e)
		}
	}
	return snap
}

func (s *Scheduler) row(idx int, e history.Entry, selected bool) Row {
	rel := e.Event.Timestamp.Sub(s.start)
	if e.Event.Timestamp.IsZero() || rel < 0 {
		rel = 0
	}
	return Row{
		Index:    idx,
		Seq:      e.Seq,
		Elapsed:  rel,
		Source:   e.Event.SrcAddr,
		Dest:     e.Event.DstAddr,
		Category: e.Category,
		Summary:  e.Event.Summary,
		Selected: selected,
	}
}

func (s *Scheduler) detail(idx int, e history.Entry) *Detail {
	d := &Detail{
		Row:   s.row(idx, e, true),
		Event: e.Event,
	}
	if s.locator != nil {
		d.SrcCountry = s.locator.Country(e.Event.SrcAddr)
		d.DstCountry = s.locator.Country(e.Event.DstAddr)
	}
	return d
}

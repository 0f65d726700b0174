package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/crossing/internal/domain/intersection"
)

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the wall clock used by every signal.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithInterval sets the signal tick.
func WithInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithWindow sets the half-width of every schedule gate.
func WithWindow(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.window = d
		}
	}
}

// WithEdgeFunc registers a callback for gate edges.
func WithEdgeFunc(fn EdgeFunc) Option {
	return func(m *Manager) {
		m.onEdge = fn
	}
}

type running struct {
	signal *Signal
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager keeps one running Signal per registry record. It implements
// intersection.ChangeListener so the registry drives it directly.
type Manager struct {
	logger   *slog.Logger
	now      func() time.Time
	interval time.Duration
	window   time.Duration
	onEdge   EdgeFunc

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	order   []int64
	signals map[int64]*running
}

var _ intersection.ChangeListener = (*Manager)(nil)

// NewManager creates an idle manager. Signals start running after Start.
func NewManager(logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := &Manager{
		logger:   logger,
		now:      time.Now,
		interval: DefaultInterval,
		signals:  make(map[int64]*running),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches a signal for each record. Later registry changes are
// applied through IntersectionsChanged.
func (m *Manager) Start(ctx context.Context, items []intersection.Intersection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx != nil {
		return
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.reconcileLocked(items)
	m.logger.Info("scheduler started", "signals", len(m.signals), "interval", m.interval)
}

// IntersectionsChanged reconciles the running signals with the collection.
func (m *Manager) IntersectionsChanged(_ context.Context, change intersection.Change) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx == nil {
		return
	}
	m.reconcileLocked(change.All)
}

// Stop cancels every signal and waits for their goroutines to return.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel == nil {
		return
	}
	m.cancel()
	for id, r := range m.signals {
		<-r.done
		r.signal.Close()
		delete(m.signals, id)
	}
	m.order = nil
	m.logger.Info("scheduler stopped")
}

// Snapshots returns the state of every signal in registry order.
func (m *Manager) Snapshots() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Snapshot, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.signals[id].signal.Snapshot())
	}
	return out
}

// Snapshot returns the state of one signal.
func (m *Manager) Snapshot(id int64) (Snapshot, error) {
	sig, err := m.signal(id)
	if err != nil {
		return Snapshot{}, err
	}
	return sig.Snapshot(), nil
}

// Subscribe streams snapshots of one signal. The channel closes when the
// signal is removed or the manager stops.
func (m *Manager) Subscribe(id int64) (<-chan Snapshot, func(), error) {
	sig, err := m.signal(id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := sig.Subscribe()
	return ch, cancel, nil
}

func (m *Manager) signal(id int64) (*Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.signals[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSignal, id)
	}
	return r.signal, nil
}

func (m *Manager) reconcileLocked(items []intersection.Intersection) {
	seen := make(map[int64]bool, len(items))
	order := make([]int64, 0, len(items))
	for _, rec := range items {
		seen[rec.ID] = true
		order = append(order, rec.ID)
		if r, ok := m.signals[rec.ID]; ok {
			r.signal.Update(rec)
			continue
		}
		m.signals[rec.ID] = m.launchLocked(rec)
		m.logger.Debug("signal started", "intersection_id", rec.ID, "name", rec.Name)
	}
	for id, r := range m.signals {
		if seen[id] {
			continue
		}
		r.cancel()
		<-r.done
		r.signal.Close()
		delete(m.signals, id)
		m.logger.Debug("signal stopped", "intersection_id", id)
	}
	m.order = order
}

func (m *Manager) launchLocked(rec intersection.Intersection) *running {
	ctx, cancel := context.WithCancel(m.ctx)
	r := &running{
		signal: NewSignal(rec, m.window),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		r.signal.Run(ctx, m.interval, m.now, m.onEdge)
	}()
	return r
}

// Package scheduler runs one signal per intersection: a ticker that opens and
// closes the schedule gate and drives the countdown ring while it is open.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rpggio/crossing/internal/domain/cycle"
	"github.com/rpggio/crossing/internal/domain/intersection"
	"github.com/rpggio/crossing/internal/domain/schedule"
)

// DefaultInterval is the signal tick.
const DefaultInterval = time.Second

// Snapshot is what a dashboard renders for one intersection.
type Snapshot struct {
	IntersectionID int64       `json:"intersectionId"`
	Name           string      `json:"name"`
	Phase          cycle.Phase `json:"phase"`
	Light          cycle.Light `json:"light"`
	TimeLeft       int         `json:"timeLeft"`
	ScheduleTime   string      `json:"scheduleTime"`
	Window         string      `json:"window"`
	At             time.Time   `json:"at"`
}

// EdgeFunc is told about gate edges. It runs on the signal goroutine, outside
// the signal lock.
type EdgeFunc func(ctx context.Context, snap Snapshot, edge schedule.Edge)

// Signal owns the gate and cycle engine of one intersection.
type Signal struct {
	gate   *schedule.Gate
	engine *cycle.Engine

	mu      sync.Mutex
	rec     intersection.Intersection
	last    Snapshot
	subs    map[int]chan Snapshot
	nextSub int
	closed  bool
}

// NewSignal creates a signal in standby for rec.
func NewSignal(rec intersection.Intersection, window time.Duration) *Signal {
	s := &Signal{
		gate:   schedule.NewGate(window),
		engine: cycle.NewEngine(),
		rec:    rec,
		subs:   make(map[int]chan Snapshot),
	}
	s.last = s.snapshotLocked(time.Time{})
	return s
}

// Update swaps in the latest record. New durations take effect at the next
// light boundary; a new schedule time is seen by the next Step.
func (s *Signal) Update(rec intersection.Intersection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = rec
	s.last.Name = rec.Name
	s.last.ScheduleTime = rec.ScheduleTime.String()
	s.last.Window = schedule.FormatWindow(rec.ScheduleTime, s.gate.Window())
}

// Step performs one tick at now. A tick that opens the gate activates the
// ring without counting down; a tick that closes it returns to standby.
func (s *Signal) Step(now time.Time) (Snapshot, schedule.Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()

	edge := s.gate.Evaluate(s.rec.ScheduleTime, now)
	switch edge {
	case schedule.Opened:
		s.engine.Activate(s.rec.Durations)
	case schedule.Closed:
		s.engine.Reset()
	default:
		s.engine.Tick(s.rec.Durations)
	}

	s.last = s.snapshotLocked(now)
	s.publishLocked(s.last)
	return s.last, edge
}

// Snapshot returns the state after the most recent Step.
func (s *Signal) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Subscribe returns a channel carrying every later snapshot. The channel
// holds only the newest unread snapshot; a slow reader skips intermediate
// ones. It is closed by the returned cancel func or when the signal closes.
func (s *Signal) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Snapshot, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.last

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// Run steps the signal immediately and then every interval until ctx is done.
// Edges are reported to onEdge when it is non-nil.
func (s *Signal) Run(ctx context.Context, interval time.Duration, now func() time.Time, onEdge EdgeFunc) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if now == nil {
		now = time.Now
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	step := func() {
		snap, edge := s.Step(now())
		if edge != schedule.NoEdge && onEdge != nil {
			onEdge(ctx, snap, edge)
		}
	}

	step()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			step()
		}
	}
}

// Close closes every subscriber channel. Later subscriptions get a closed
// channel.
func (s *Signal) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Signal) snapshotLocked(now time.Time) Snapshot {
	st := s.engine.State()
	return Snapshot{
		IntersectionID: s.rec.ID,
		Name:           s.rec.Name,
		Phase:          st.Phase,
		Light:          st.Light,
		TimeLeft:       st.TimeLeft,
		ScheduleTime:   s.rec.ScheduleTime.String(),
		Window:         schedule.FormatWindow(s.rec.ScheduleTime, s.gate.Window()),
		At:             now,
	}
}

func (s *Signal) publishLocked(snap Snapshot) {
	for _, ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

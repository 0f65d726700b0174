// Package recorder captures green, yellow and red durations from three
// timed clicks.
package recorder

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rpggio/crossing/internal/domain/intersection"
)

// DefaultRefresh is the cadence of the elapsed-time readout.
const DefaultRefresh = 100 * time.Millisecond

// Step is the position in the four-click capture.
type Step int

const (
	StepNotStarted Step = iota
	StepGreen
	StepYellow
	StepRed
)

func (s Step) String() string {
	switch s {
	case StepGreen:
		return "green"
	case StepYellow:
		return "yellow"
	case StepRed:
		return "red"
	default:
		return "not_started"
	}
}

// Prompt is the label of the button that performs the next click.
func (s Step) Prompt() string {
	switch s {
	case StepGreen:
		return "click when the light turns yellow"
	case StepYellow:
		return "click when the light turns red"
	case StepRed:
		return "click when the light turns green to finish"
	default:
		return "click when the light turns green to start"
	}
}

// Progress reports the recorder after a click.
type Progress struct {
	Step      Step                    `json:"step"`
	StartedAt time.Time               `json:"startedAt"`
	Partial   intersection.Durations  `json:"partial"`
	Result    *intersection.Durations `json:"result,omitempty"`
}

// Done reports whether this click completed the capture.
func (p Progress) Done() bool {
	return p.Result != nil
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// WithStartHook registers a callback run on the first click with its instant.
// The creation flow uses it to snap the schedule time to "now".
func WithStartHook(hook func(time.Time)) Option {
	return func(r *Recorder) {
		r.onStart = hook
	}
}

// Recorder is the stopwatch state machine. Captured values are computed only
// at click boundaries; the readout is cosmetic.
type Recorder struct {
	now     func() time.Time
	onStart func(time.Time)

	mu        sync.Mutex
	step      Step
	firstAt   time.Time
	stepAt    time.Time
	partial   intersection.Durations
	finished  bool
	done      chan struct{}
	closeOnce sync.Once
}

// New returns a recorder waiting for its first click.
func New(opts ...Option) *Recorder {
	r := &Recorder{now: time.Now, done: make(chan struct{})}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Advance performs one click. The fourth click returns a Progress whose
// Result holds the full triple; the recorder is then finished.
func (r *Recorder) Advance() (Progress, error) {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return Progress{}, ErrFinished
	}

	now := r.now()
	var hook func(time.Time)
	switch r.step {
	case StepNotStarted:
		r.firstAt = now
		hook = r.onStart
	case StepGreen:
		r.partial.Green = elapsedSeconds(r.stepAt, now)
	case StepYellow:
		r.partial.Yellow = elapsedSeconds(r.stepAt, now)
	case StepRed:
		r.partial.Red = elapsedSeconds(r.stepAt, now)
		result := r.partial
		r.finishLocked()
		p := Progress{Step: r.step, StartedAt: r.firstAt, Partial: r.partial, Result: &result}
		r.mu.Unlock()
		return p, nil
	}
	r.step++
	r.stepAt = now
	p := Progress{Step: r.step, StartedAt: r.firstAt, Partial: r.partial}
	r.mu.Unlock()

	if hook != nil {
		hook(now)
	}
	return p, nil
}

// Cancel abandons the capture at any step. Nothing is emitted.
func (r *Recorder) Cancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return ErrFinished
	}
	r.finishLocked()
	return nil
}

// Step returns the current step.
func (r *Recorder) Step() Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.step
}

// Elapsed is the time spent in the current step; zero before the first click
// and after the recorder finished.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.step == StepNotStarted || r.finished {
		return 0
	}
	return r.now().Sub(r.stepAt)
}

// Finished is closed when the recorder completes or is cancelled.
func (r *Recorder) Finished() <-chan struct{} {
	return r.done
}

// Readout emits the elapsed seconds of the current step, to one decimal,
// every refresh interval until ctx is done or the recorder finishes. The
// channel is closed when the readout stops.
func (r *Recorder) Readout(ctx context.Context, refresh time.Duration) <-chan float64 {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	out := make(chan float64, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(refresh)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.done:
				return
			case <-ticker.C:
				v := RoundTenths(r.Elapsed())
				select {
				case out <- v:
				default:
				}
			}
		}
	}()
	return out
}

func (r *Recorder) finishLocked() {
	r.finished = true
	r.closeOnce.Do(func() { close(r.done) })
}

// elapsedSeconds rounds to the nearest second with a floor of one.
func elapsedSeconds(from, to time.Time) int {
	return max(1, int(math.Round(to.Sub(from).Seconds())))
}

// RoundTenths renders d in seconds with one decimal place.
func RoundTenths(d time.Duration) float64 {
	return math.Round(d.Seconds()*10) / 10
}

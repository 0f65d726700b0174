// Package cycle implements the green -> yellow -> red countdown ring that an
// intersection runs while its schedule window is open.
package cycle

import "github.com/rpggio/crossing/internal/domain/intersection"

// Phase is whether the ring is running.
type Phase string

const (
	PhaseStandby Phase = "standby"
	PhaseActive  Phase = "active"
)

// Light is the lit signal. LightStandby is reported while the phase is
// standby (a blinking yellow on the dashboard).
type Light string

const (
	LightStandby Light = "standby"
	LightGreen   Light = "green"
	LightYellow  Light = "yellow"
	LightRed     Light = "red"
)

// next is the transition table of the ring.
var next = map[Light]Light{
	LightGreen:  LightYellow,
	LightYellow: LightRed,
	LightRed:    LightGreen,
}

// Next returns the light that follows l, or LightStandby for LightStandby.
func (l Light) Next() Light {
	if n, ok := next[l]; ok {
		return n
	}
	return LightStandby
}

// Seconds returns how long l stays lit under d.
func (l Light) Seconds(d intersection.Durations) int {
	switch l {
	case LightGreen:
		return d.Green
	case LightYellow:
		return d.Yellow
	case LightRed:
		return d.Red
	default:
		return 0
	}
}

// State is the derived runtime state of one intersection.
type State struct {
	Phase    Phase `json:"phase"`
	Light    Light `json:"light"`
	TimeLeft int   `json:"timeLeft"`
}

// Standby is the resting state.
func Standby() State {
	return State{Phase: PhaseStandby, Light: LightStandby}
}

// Transition describes a light change produced by a tick.
type Transition struct {
	From Light
	To   Light
}

// Engine is the countdown state machine. It is not safe for concurrent use;
// one scheduler owns each engine.
type Engine struct {
	state State
}

// NewEngine returns an engine in standby.
func NewEngine() *Engine {
	return &Engine{state: Standby()}
}

// State returns the current state.
func (e *Engine) State() State {
	return e.state
}

// Active reports whether the ring is running.
func (e *Engine) Active() bool {
	return e.state.Phase == PhaseActive
}

// Activate enters the ring at green with the full green duration.
func (e *Engine) Activate(d intersection.Durations) State {
	d = d.Clamped()
	e.state = State{Phase: PhaseActive, Light: LightGreen, TimeLeft: d.Green}
	return e.state
}

// Reset returns to standby, clearing the light and the countdown.
func (e *Engine) Reset() State {
	e.state = Standby()
	return e.state
}

// Tick advances one second. When the countdown would reach zero the ring
// moves to the next light, seeded from d; d is read only at that boundary so
// an edit never rescales the light that is already running. Ticks in standby
// do nothing.
func (e *Engine) Tick(d intersection.Durations) (State, *Transition) {
	if e.state.Phase != PhaseActive {
		return e.state, nil
	}
	if e.state.TimeLeft > 1 {
		e.state.TimeLeft--
		return e.state, nil
	}

	from := e.state.Light
	to := from.Next()
	e.state.Light = to
	e.state.TimeLeft = to.Seconds(d.Clamped())
	return e.state, &Transition{From: from, To: to}
}

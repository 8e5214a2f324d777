package fsm

import (
	"context"
	"math"
	"time"

	"github.com/ayusman/chakra/internal/debounce"
	"github.com/ayusman/chakra/internal/gesture"
	"github.com/ayusman/chakra/internal/hand"
	"github.com/ayusman/chakra/internal/logger"
)

// Defaults for Config.
const (
	DefaultDebounceDuration  = 250 * time.Millisecond
	DefaultFullCircleDegrees = 360.0
)

// Actor receives the commands the machine issues for the pointed target.
// *interaction.Actor implements it.
type Actor interface {
	Point(id string, hit bool)
	TargetHovering() bool
	SetCursor(on bool)
	CancelDelayClear()
	ClearCurrentPointing()
	Activate(angle float64)
	Interact()
	EndInteraction()
	ThrowAction(direction hand.Vec3)
	Reset()
}

// Trace is the circular-motion detector as seen by the machine.
// *gesture.TraceMatcher implements it.
type Trace interface {
	SetEnabled(enabled bool)
	SetMode(mode gesture.CurveMode)
	ContinuousAngle() float64
}

// Timers schedules debounce callbacks. *debounce.Scheduler implements it.
type Timers interface {
	Start(key debounce.Key, d time.Duration, fn func())
	Cancel(key debounce.Key) bool
	CancelActor(actor string) int
}

// Input is what the machine reads each tick besides the trace.
type Input struct {
	Pose     gesture.Pose
	Position hand.Vec3
	// TargetID is the hit-test result; TargetHit is false when nothing is hit.
	TargetID  string
	TargetHit bool
}

// Config configures a Machine.
type Config struct {
	Hand              string
	Actor             Actor
	Trace             Trace
	Timers            Timers
	DebounceDuration  time.Duration
	FullCircleDegrees float64
	Logger            logger.Logger
}

// DefaultConfig returns a Config with the default timings. Hand, Actor,
// Trace and Timers must still be set.
func DefaultConfig() Config {
	return Config{
		DebounceDuration:  DefaultDebounceDuration,
		FullCircleDegrees: DefaultFullCircleDegrees,
	}
}

// Machine is the gesture state machine of one hand. It is ticked once per
// frame from a single goroutine; timer callbacks arrive through Timers on
// that same goroutine.
type Machine struct {
	config Config
	logger logger.Logger

	state      State
	generation uint64

	bufferFrom  State
	bufferKey   debounce.Key
	lastAngle   float64 // angle base of the last activation
	throwStart  hand.Vec3
	lastPos     hand.Vec3
	activations int

	listeners []func(Transition)
}

// New creates a Machine in Idle. It panics if Actor, Trace or Timers is nil.
func New(config Config) *Machine {
	if config.Actor == nil || config.Trace == nil || config.Timers == nil {
		panic("fsm: machine needs an actor, a trace and timers")
	}
	if config.DebounceDuration <= 0 {
		config.DebounceDuration = DefaultDebounceDuration
	}
	if config.FullCircleDegrees <= 0 {
		config.FullCircleDegrees = DefaultFullCircleDegrees
	}

	m := &Machine{
		config: config,
		logger: logger.OrNop(config.Logger),
		state:  Idle,
	}
	config.Trace.SetEnabled(false)
	config.Trace.SetMode(gesture.CurveCircle)
	return m
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Generation returns the number of transitions taken so far.
func (m *Machine) Generation() uint64 { return m.generation }

// BufferedFrom returns the state Buffer was entered from. It is only
// meaningful while in Buffer.
func (m *Machine) BufferedFrom() State { return m.bufferFrom }

// Activations returns how many times the machine activated a target.
func (m *Machine) Activations() int { return m.activations }

// OnTransition registers fn to be called after every transition.
func (m *Machine) OnTransition(fn func(Transition)) {
	m.listeners = append(m.listeners, fn)
}

// Tick advances the machine by one frame.
func (m *Machine) Tick(in Input) {
	m.lastPos = in.Position

	switch m.state {
	case Idle:
		if in.Pose.IndexPoint {
			m.transition(Point, "index_point", in)
		}

	case Point:
		switch {
		case in.Pose.PalmOpen && m.config.Actor.TargetHovering():
			m.transition(Activation, "palm_open", in)
		case !in.Pose.IndexPoint:
			m.transition(Buffer, "index_point_lost", in)
		default:
			m.config.Actor.Point(in.TargetID, in.TargetHit)
		}

	case Activation:
		switch {
		case m.config.Trace.ContinuousAngle() > m.config.FullCircleDegrees:
			m.transition(FinishActivation, "full_circle", in)
		case !in.Pose.PalmOpen:
			m.transition(Buffer, "palm_closed", in)
		}

	case FinishActivation:
		if in.Pose.Fist {
			m.transition(ThrowingAction, "fist", in)
			return
		}
		angle := m.config.Trace.ContinuousAngle()
		switch {
		case angle == 0:
			m.lastAngle = 0
		case angle-m.lastAngle > m.config.FullCircleDegrees:
			m.activate(angle)
		}

	case ThrowingAction:
		if !in.Pose.Fist {
			direction := in.Position.Sub(m.throwStart)
			m.config.Actor.ThrowAction(direction)
			m.logger.Info(context.Background(), "target thrown",
				logger.String("hand", m.config.Hand),
				logger.Any("direction", direction),
			)
			m.transition(Idle, "released", in)
		}

	case Buffer:
		// Point requires a hovered target to activate; a buffered hand only
		// needs the open palm.
		switch {
		case in.Pose.PalmOpen:
			m.transition(Activation, "palm_open", in)
		case m.bufferFrom == Point && in.Pose.IndexPoint:
			m.transition(Point, "index_point", in)
		}
	}
}

// Reset aborts the current gesture and returns to Idle, letting go of any
// held or hovered target.
func (m *Machine) Reset() {
	if m.state == ThrowingAction {
		m.config.Actor.EndInteraction()
	}
	if m.state != Idle {
		m.transition(Idle, "reset", Input{Position: m.lastPos})
	}
	m.config.Actor.Reset()
}

func (m *Machine) transition(to State, reason string, in Input) {
	from := m.state
	m.exit(from)

	m.generation++
	m.state = to
	m.enter(from, to, in)

	t := Transition{
		Hand:       m.config.Hand,
		From:       from,
		To:         to,
		Reason:     reason,
		Generation: m.generation,
		Angle:      m.config.Trace.ContinuousAngle(),
	}
	m.logger.Debug(context.Background(), "transition",
		logger.String("hand", t.Hand),
		logger.String("from", from.String()),
		logger.String("to", to.String()),
		logger.String("reason", reason),
	)
	for _, fn := range m.listeners {
		fn(t)
	}
}

func (m *Machine) exit(s State) {
	switch s {
	case Point:
		m.config.Actor.SetCursor(false)
		m.config.Actor.CancelDelayClear()
	case Buffer:
		m.config.Timers.Cancel(m.bufferKey)
	}
}

func (m *Machine) enter(from, to State, in Input) {
	switch to {
	case Idle:
		m.config.Trace.SetEnabled(false)
		m.config.Trace.SetMode(gesture.CurveCircle)
		m.config.Timers.CancelActor(m.config.Hand)

	case Point:
		m.config.Actor.SetCursor(true)
		m.config.Actor.Point(in.TargetID, in.TargetHit)

	case Activation:
		m.config.Trace.SetEnabled(true)
		m.config.Trace.SetMode(gesture.CurveCircle)

	case FinishActivation:
		if from == Activation {
			m.activate(m.config.Trace.ContinuousAngle())
		}

	case ThrowingAction:
		m.config.Actor.Interact()
		m.throwStart = in.Position
		m.config.Trace.SetMode(gesture.CurveNonCircle)

	case Buffer:
		m.bufferFrom = from
		m.bufferKey = debounce.Key{Actor: m.config.Hand, Purpose: "buffer:" + from.String()}
		gen := m.generation
		m.config.Timers.Start(m.bufferKey, m.config.DebounceDuration, func() {
			m.expireBuffer(gen)
		})
	}
}

// expireBuffer runs when the debounce timer fires. A timer from an earlier
// generation is ignored.
func (m *Machine) expireBuffer(gen uint64) {
	if gen != m.generation || m.state != Buffer {
		return
	}
	m.config.Actor.ClearCurrentPointing()
	m.config.Trace.SetEnabled(false)
	m.transition(Idle, "debounce_expired", Input{Position: m.lastPos})
}

func (m *Machine) activate(angle float64) {
	m.config.Actor.Activate(angle)
	m.activations++
	full := m.config.FullCircleDegrees
	m.lastAngle = full * math.Floor(angle/full)
	m.logger.Info(context.Background(), "target activated",
		logger.String("hand", m.config.Hand),
		logger.Float64("angle", angle),
	)
}

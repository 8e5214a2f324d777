package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/chakra/internal/debounce"
	"github.com/ayusman/chakra/internal/fsm"
	"github.com/ayusman/chakra/internal/gesture"
	"github.com/ayusman/chakra/internal/hand"
	"github.com/ayusman/chakra/internal/interaction"
	"github.com/ayusman/chakra/internal/logger"
	"github.com/ayusman/chakra/internal/metrics"
)

// ErrUnknownHand is returned for a side the engine does not track.
var ErrUnknownHand = errors.New("unknown hand")

// EngineConfig configures an Engine. Zero values select defaults.
type EngineConfig struct {
	// Sides lists the hands the engine drives; empty means both.
	Sides []hand.Side

	Thresholds        gesture.ThresholdTable
	PalmOpenThreshold float64
	Trace             gesture.TraceConfig
	DebounceDuration  time.Duration
	DelayClear        time.Duration
	FullCircleDegrees float64

	// Registry holds the scene; nil creates an empty one.
	Registry *interaction.Registry
	// Resolver picks the pointed target; nil uses the frame's PointedID.
	Resolver interaction.Resolver

	// Now is the initial clock of the per-hand schedulers.
	Now time.Time

	Metrics *metrics.Manager
	Logger  logger.Logger
}

// DefaultEngineConfig returns a config with the default thresholds and
// timings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Sides:             []hand.Side{hand.Left, hand.Right},
		Thresholds:        gesture.DefaultThresholds(),
		PalmOpenThreshold: gesture.DefaultPalmOpenThreshold,
		Trace:             gesture.DefaultTraceConfig(),
		DebounceDuration:  fsm.DefaultDebounceDuration,
		DelayClear:        interaction.DefaultDelayClear,
		FullCircleDegrees: fsm.DefaultFullCircleDegrees,
	}
}

// Hand bundles the per-hand pipeline: its timers, trace, actor and machine.
type Hand struct {
	Side      hand.Side
	Scheduler *debounce.Scheduler
	Trace     *gesture.TraceMatcher
	Actor     *interaction.Actor
	Machine   *fsm.Machine

	tracking    bool
	lastPose    gesture.Pose
	lastOutcome gesture.Outcome
	lastSeen    time.Time
}

// HandStatus is a point-in-time view of one hand.
type HandStatus struct {
	Side            hand.Side    `json:"side"`
	State           fsm.State    `json:"state"`
	Tracking        bool         `json:"tracking"`
	Target          string       `json:"target,omitempty"`
	Hovering        bool         `json:"hovering"`
	Pose            gesture.Pose `json:"pose"`
	ContinuousAngle float64      `json:"continuous_angle"`
	Mode            string       `json:"mode"`
	LastOutcome     string       `json:"last_outcome,omitempty"`
	Activations     int          `json:"activations"`
	Generation      uint64       `json:"generation"`
	LastSeen        time.Time    `json:"last_seen"`
}

// Engine owns one pipeline per hand and ticks them from tracker frames.
// All methods are safe for concurrent use; event sinks run under the engine
// lock and must not call back into the Engine.
type Engine struct {
	mu sync.Mutex

	config     EngineConfig
	session    string
	classifier *gesture.Classifier
	registry   *interaction.Registry
	resolver   interaction.Resolver
	bus        *interaction.Bus
	hands      map[hand.Side]*Hand
	order      []hand.Side
	enabled    bool

	metrics *metrics.Manager
	log     logger.Logger
}

// NewEngine creates an enabled Engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	def := DefaultEngineConfig()
	if len(cfg.Sides) == 0 {
		cfg.Sides = def.Sides
	}
	if cfg.Thresholds == (gesture.ThresholdTable{}) {
		cfg.Thresholds = def.Thresholds
	}
	if cfg.Trace == (gesture.TraceConfig{}) {
		cfg.Trace = def.Trace
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Trace.Validate(); err != nil {
		return nil, err
	}
	if cfg.Registry == nil {
		cfg.Registry = interaction.NewRegistry()
	}
	if cfg.Resolver == nil {
		cfg.Resolver = interaction.FrameResolver{Registry: cfg.Registry}
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewManager(metrics.WithMetricsEnabled(false))
	}

	e := &Engine{
		config:     cfg,
		session:    uuid.NewString(),
		classifier: gesture.NewClassifier(cfg.Thresholds, cfg.PalmOpenThreshold),
		registry:   cfg.Registry,
		resolver:   cfg.Resolver,
		bus:        interaction.NewBus(),
		hands:      make(map[hand.Side]*Hand),
		enabled:    true,
		metrics:    cfg.Metrics,
		log:        logger.OrNop(cfg.Logger).Named("engine"),
	}

	for _, side := range cfg.Sides {
		if _, ok := e.hands[side]; ok {
			continue
		}
		e.hands[side] = e.newHand(side)
		e.order = append(e.order, side)
	}
	return e, nil
}

func (e *Engine) newHand(side hand.Side) *Hand {
	id := string(side)
	sched := debounce.NewScheduler(e.config.Now)
	trace := gesture.NewTraceMatcher(e.config.Trace)
	actor := interaction.NewActor(interaction.ActorConfig{
		ID:         id,
		Registry:   e.registry,
		Scheduler:  sched,
		Sink:       interaction.SinkFunc(e.publish),
		Logger:     e.log,
		DelayClear: e.config.DelayClear,
	})
	machine := fsm.New(fsm.Config{
		Hand:              id,
		Actor:             actor,
		Trace:             trace,
		Timers:            sched,
		DebounceDuration:  e.config.DebounceDuration,
		FullCircleDegrees: e.config.FullCircleDegrees,
		Logger:            e.log,
	})

	h := &Hand{
		Side:      side,
		Scheduler: sched,
		Trace:     trace,
		Actor:     actor,
		Machine:   machine,
	}
	machine.OnTransition(func(t fsm.Transition) {
		e.metrics.RecordTransition(t.Hand, t.From.String(), t.To.String())
		e.bus.Publish(interaction.Event{
			Kind:  interaction.EventTransition,
			Hand:  t.Hand,
			From:  t.From.String(),
			To:    t.To.String(),
			Angle: t.Angle,
			At:    sched.Now(),
		})
	})
	return h
}

// publish records an actor event and fans it out.
func (e *Engine) publish(ev interaction.Event) {
	e.metrics.RecordEvent(string(ev.Kind))
	e.bus.Publish(ev)
}

// SessionID identifies this engine instance in events and logs.
func (e *Engine) SessionID() string { return e.session }

// Registry returns the scene registry. Add and remove interactables through
// the Engine so hovering hands are updated under its lock.
func (e *Engine) Registry() *interaction.Registry { return e.registry }

// Subscribe registers a sink for actor and transition events.
func (e *Engine) Subscribe(s interaction.Sink) (unsubscribe func()) {
	return e.bus.Subscribe(s)
}

// Process ticks every tracked hand with its frame for this instant.
// Hands without a frame, or whose frame is not tracking, are parked: their
// timers and machines do not advance.
func (e *Engine) Process(frames []hand.Frame, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.enabled {
		return
	}

	start := time.Now()
	tracked := 0
	for i := range frames {
		f := &frames[i]
		h, ok := e.hands[f.Side]
		if !ok {
			continue
		}
		e.metrics.RecordFrameIngested()
		h.tracking = f.IsTracking
		if !f.IsTracking {
			continue
		}
		tracked++
		e.tick(h, f, now)
	}

	e.metrics.SetHandsTracked(tracked)
	e.metrics.ObserveTick(time.Since(start).Seconds())
}

// tick runs one hand through timers, trace, classifier, resolver and
// machine, in that order.
func (e *Engine) tick(h *Hand, f *hand.Frame, now time.Time) {
	h.Scheduler.Advance(now)

	res := h.Trace.Tick(f.Position)
	h.lastOutcome = res.Outcome
	e.metrics.RecordTraceOutcome(string(res.Outcome))

	pose := e.classifier.Classify(f)
	h.lastPose = pose
	id, hit := e.resolver.Resolve(f)

	h.Machine.Tick(fsm.Input{
		Pose:      pose,
		Position:  f.Position,
		TargetID:  id,
		TargetHit: hit,
	})

	h.lastSeen = now
	e.metrics.SetContinuousAngle(string(h.Side), h.Trace.ContinuousAngle())
}

// SetEnabled turns gesture processing on or off. Disabling resets every
// hand to Idle.
func (e *Engine) SetEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.enabled == enabled {
		return
	}
	e.enabled = enabled
	if !enabled {
		e.resetLocked()
	}
	e.log.Info(context.Background(), "engine toggled", logger.Bool("enabled", enabled))
}

// IsEnabled reports whether frames are processed.
func (e *Engine) IsEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// Reset returns every hand to Idle, ending any interaction in progress.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *Engine) resetLocked() {
	for _, side := range e.order {
		h := e.hands[side]
		h.Machine.Reset()
		h.Trace.Reset()
	}
}

// SetThresholds swaps the classifier table, for example after calibration.
func (e *Engine) SetThresholds(table gesture.ThresholdTable, palmOpen float64) error {
	if err := table.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.classifier = gesture.NewClassifier(table, palmOpen)
	return nil
}

// Thresholds returns the active classifier table.
func (e *Engine) Thresholds() gesture.ThresholdTable {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.classifier.Thresholds()
}

// AddInteractable registers obj in the scene.
func (e *Engine) AddInteractable(obj interaction.Interactable) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Register(obj)
}

// PutInteractable registers obj, replacing any interactable with its ID.
func (e *Engine) PutInteractable(obj interaction.Interactable) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry.Replace(obj)
}

// RemoveInteractable unregisters id. A hand hovering it loses the target.
func (e *Engine) RemoveInteractable(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Unregister(id)
}

// Hands returns the status of every hand in configuration order.
func (e *Engine) Hands() []HandStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]HandStatus, 0, len(e.order))
	for _, side := range e.order {
		out = append(out, e.statusLocked(e.hands[side]))
	}
	return out
}

// HandStatus returns the status of one hand.
func (e *Engine) HandStatus(side hand.Side) (HandStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	h, ok := e.hands[side]
	if !ok {
		return HandStatus{}, fmt.Errorf("%w: %s", ErrUnknownHand, side)
	}
	return e.statusLocked(h), nil
}

func (e *Engine) statusLocked(h *Hand) HandStatus {
	target, _ := h.Actor.Target()
	return HandStatus{
		Side:            h.Side,
		State:           h.Machine.State(),
		Tracking:        h.tracking,
		Target:          target,
		Hovering:        h.Actor.TargetHovering(),
		Pose:            h.lastPose,
		ContinuousAngle: h.Trace.ContinuousAngle(),
		Mode:            h.Trace.Mode().String(),
		LastOutcome:     string(h.lastOutcome),
		Activations:     h.Machine.Activations(),
		Generation:      h.Machine.Generation(),
		LastSeen:        h.lastSeen,
	}
}

// Snapshot returns the trace window of one hand for visualisation.
func (e *Engine) Snapshot(side hand.Side) (gesture.TraceSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	h, ok := e.hands[side]
	if !ok {
		return gesture.TraceSnapshot{}, fmt.Errorf("%w: %s", ErrUnknownHand, side)
	}
	return h.Trace.Snapshot(), nil
}

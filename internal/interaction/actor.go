package interaction

import (
	"context"
	"time"

	"github.com/ayusman/chakra/internal/debounce"
	"github.com/ayusman/chakra/internal/hand"
	"github.com/ayusman/chakra/internal/logger"
)

// PurposeDelayClear keys the actor's pending clear of its pointing target.
const PurposeDelayClear = "delay-clear"

// DefaultDelayClear is how long a lost target stays hovered.
const DefaultDelayClear = 250 * time.Millisecond

// ActorConfig configures an Actor.
type ActorConfig struct {
	// ID names the actor, usually the hand side.
	ID        string
	Registry  *Registry
	Scheduler *debounce.Scheduler
	Sink      Sink
	Logger    logger.Logger
	// DelayClear is the grace period before a lost target is released.
	DelayClear time.Duration
}

// Actor is the per-hand side of an interaction: it owns the current
// pointing target and forwards commands to it. Actors are driven from a
// single tick loop and are not safe for concurrent use.
type Actor struct {
	id        string
	registry  *Registry
	scheduler *debounce.Scheduler
	sink      Sink
	logger    logger.Logger
	delay     time.Duration

	target      string
	interacting bool
	cursor      bool
}

// NewActor creates an Actor. Registry and Scheduler are required.
func NewActor(config ActorConfig) *Actor {
	if config.Registry == nil || config.Scheduler == nil {
		panic("interaction: actor needs a registry and a scheduler")
	}
	sink := config.Sink
	if sink == nil {
		sink = nopSink{}
	}
	delay := config.DelayClear
	if delay <= 0 {
		delay = DefaultDelayClear
	}
	return &Actor{
		id:        config.ID,
		registry:  config.Registry,
		scheduler: config.Scheduler,
		sink:      sink,
		logger:    logger.OrNop(config.Logger),
		delay:     delay,
	}
}

func (a *Actor) ID() string { return a.id }

// Target returns the current pointing target.
func (a *Actor) Target() (string, bool) {
	return a.target, a.target != ""
}

// TargetHovering reports whether the current target is hovered by this actor.
func (a *Actor) TargetHovering() bool {
	if a.target == "" {
		return false
	}
	obj, err := a.registry.Get(a.target)
	if err != nil {
		return false
	}
	return obj.Hoverer() == a.id
}

// Interacting reports whether the actor is holding its target.
func (a *Actor) Interacting() bool { return a.interacting }

// SetCursor shows or hides the index cursor.
func (a *Actor) SetCursor(on bool) { a.cursor = on }

// Cursor reports whether the index cursor is shown.
func (a *Actor) Cursor() bool { return a.cursor }

// Point updates the pointing target from a hit-test result: no hit schedules
// a delayed clear, a new hit moves the hover, and the same hit cancels any
// pending clear.
func (a *Actor) Point(id string, hit bool) {
	switch {
	case !hit || id == "":
		a.DelayClear()
	case id != a.target:
		a.CancelDelayClear()
		a.StartHovering(id)
	default:
		a.CancelDelayClear()
	}
}

// StartHovering releases the current target and hovers id. An unknown id
// leaves the actor without a target.
func (a *Actor) StartHovering(id string) bool {
	a.ClearCurrentPointing()

	if _, err := a.registry.claim(a, id); err != nil {
		a.logger.Debug(context.Background(), "hover target not registered",
			logger.String("hand", a.id),
			logger.String("target", id),
		)
		return false
	}
	a.target = id
	a.emit(Event{Kind: EventHoverStart, TargetID: id})
	return true
}

// ClearCurrentPointing stops hovering the current target, if any.
func (a *Actor) ClearCurrentPointing() {
	if a.target == "" {
		return
	}
	id := a.target
	a.target = ""
	a.interacting = false
	a.registry.release(a, id)
	a.emit(Event{Kind: EventHoverEnd, TargetID: id})
}

// DelayClear clears the current target after the grace period unless
// cancelled first. A pending clear is not restarted.
func (a *Actor) DelayClear() {
	if a.target == "" {
		return
	}
	key := a.delayKey()
	if a.scheduler.Pending(key) {
		return
	}
	a.scheduler.Start(key, a.delay, a.ClearCurrentPointing)
}

// CancelDelayClear cancels a pending delayed clear.
func (a *Actor) CancelDelayClear() {
	a.scheduler.Cancel(a.delayKey())
}

// ClearPending reports whether a delayed clear is scheduled.
func (a *Actor) ClearPending() bool {
	return a.scheduler.Pending(a.delayKey())
}

// Activate activates the current target.
func (a *Actor) Activate(angle float64) {
	obj := a.current()
	if obj == nil {
		return
	}
	obj.Activate()
	a.emit(Event{Kind: EventActivate, TargetID: obj.ID(), Angle: angle})
}

// Interact grabs the current target.
func (a *Actor) Interact() {
	obj := a.current()
	if obj == nil {
		return
	}
	obj.Interact()
	a.interacting = true
	a.emit(Event{Kind: EventInteract, TargetID: obj.ID()})
}

// EndInteraction lets go of a held target without throwing it.
func (a *Actor) EndInteraction() {
	if !a.interacting {
		return
	}
	a.interacting = false
	obj := a.current()
	if obj == nil {
		return
	}
	obj.EndInteraction()
	a.emit(Event{Kind: EventEndInteraction, TargetID: obj.ID()})
}

// ThrowAction throws the current target along direction and clears hover.
func (a *Actor) ThrowAction(direction hand.Vec3) {
	obj := a.current()
	if obj == nil {
		return
	}
	obj.Throw(direction)
	a.interacting = false
	dir := direction
	a.emit(Event{Kind: EventThrow, TargetID: obj.ID(), Direction: &dir})
	a.ClearCurrentPointing()
}

// Reset drops the target and any pending clear.
func (a *Actor) Reset() {
	a.CancelDelayClear()
	a.EndInteraction()
	a.ClearCurrentPointing()
	a.cursor = false
}

// forget is called by the registry when another actor takes the target.
func (a *Actor) forget(id string) {
	if a.target != id {
		return
	}
	a.target = ""
	a.interacting = false
	a.CancelDelayClear()
	a.emit(Event{Kind: EventHoverEnd, TargetID: id})
}

func (a *Actor) current() Interactable {
	if a.target == "" {
		return nil
	}
	obj, err := a.registry.Get(a.target)
	if err != nil {
		return nil
	}
	return obj
}

func (a *Actor) delayKey() debounce.Key {
	return debounce.Key{Actor: a.id, Purpose: PurposeDelayClear}
}

func (a *Actor) emit(e Event) {
	e.Hand = a.id
	e.At = a.scheduler.Now()
	a.sink.Publish(e)
}

// Package interaction connects hands to the objects they point at: the
// interactable contract, hover ownership, per-hand actors, hit-test
// resolvers, and the events emitted along the way.
package interaction

import (
	"sync"

	"github.com/ayusman/chakra/internal/hand"
)

// Interactable is an object a hand can hover, activate, grab and throw.
// Rendering and physics live behind this interface.
type Interactable interface {
	ID() string
	StartHovering(actor string)
	StopHovering()
	// Hoverer returns the actor currently hovering, "" when none.
	Hoverer() string
	Activate()
	Interact()
	EndInteraction()
	Throw(direction hand.Vec3)
}

// Placed is implemented by interactables with a position and hit radius,
// which lets RayResolver hit-test them.
type Placed interface {
	Position() hand.Vec3
	Radius() float64
}

// ObjectStats counts the commands an Object received.
type ObjectStats struct {
	HoverStarts  int       `json:"hover_starts"`
	HoverStops   int       `json:"hover_stops"`
	Activations  int       `json:"activations"`
	Interactions int       `json:"interactions"`
	Ends         int       `json:"ends"`
	Throws       int       `json:"throws"`
	LastThrow    hand.Vec3 `json:"last_throw"`
}

// Object is an in-memory Interactable that records what happened to it.
type Object struct {
	id       string
	name     string
	position hand.Vec3
	radius   float64

	mu          sync.RWMutex
	hoverer     string
	interacting bool
	stats       ObjectStats
}

// NewObject creates an Object at position with the given hit radius.
func NewObject(id, name string, position hand.Vec3, radius float64) *Object {
	return &Object{
		id:       id,
		name:     name,
		position: position,
		radius:   radius,
	}
}

func (o *Object) ID() string          { return o.id }
func (o *Object) Name() string        { return o.name }
func (o *Object) Position() hand.Vec3 { return o.position }
func (o *Object) Radius() float64     { return o.radius }

func (o *Object) StartHovering(actor string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hoverer = actor
	o.stats.HoverStarts++
}

func (o *Object) StopHovering() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.hoverer == "" {
		return
	}
	o.hoverer = ""
	o.stats.HoverStops++
}

func (o *Object) Hoverer() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.hoverer
}

func (o *Object) Activate() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stats.Activations++
}

func (o *Object) Interact() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.interacting = true
	o.stats.Interactions++
}

func (o *Object) EndInteraction() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.interacting = false
	o.stats.Ends++
}

func (o *Object) Throw(direction hand.Vec3) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.interacting = false
	o.stats.Throws++
	o.stats.LastThrow = direction
}

// Interacting reports whether the object is held.
func (o *Object) Interacting() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.interacting
}

// Stats returns a copy of the command counters.
func (o *Object) Stats() ObjectStats {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.stats
}

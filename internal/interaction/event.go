package interaction

import (
	"sync"
	"time"

	"github.com/ayusman/chakra/internal/hand"
)

// EventKind names what happened.
type EventKind string

const (
	EventHoverStart     EventKind = "hover_start"
	EventHoverEnd       EventKind = "hover_end"
	EventActivate       EventKind = "activate"
	EventInteract       EventKind = "interact"
	EventEndInteraction EventKind = "end_interaction"
	EventThrow          EventKind = "throw"
	EventTransition     EventKind = "transition"
)

// Event is emitted for every command sent to an interactable and for every
// gesture state change.
type Event struct {
	Kind      EventKind  `json:"kind"`
	Hand      string     `json:"hand"`
	TargetID  string     `json:"target_id,omitempty"`
	Direction *hand.Vec3 `json:"direction,omitempty"`
	From      string     `json:"from,omitempty"`
	To        string     `json:"to,omitempty"`
	Angle     float64    `json:"angle,omitempty"`
	At        time.Time  `json:"at"`
}

// Sink receives events.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }

type nopSink struct{}

func (nopSink) Publish(Event) {}

// Bus fans events out to subscribers in subscription order.
type Bus struct {
	mu    sync.RWMutex
	next  int
	sinks map[int]Sink
	order []int
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{sinks: make(map[int]Sink)}
}

// Subscribe adds s and returns a function that removes it.
func (b *Bus) Subscribe(s Sink) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	b.sinks[id] = s
	b.order = append(b.order, id)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.sinks, id)
		for i, o := range b.order {
			if o == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers e to every subscriber.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	sinks := make([]Sink, 0, len(b.order))
	for _, id := range b.order {
		sinks = append(sinks, b.sinks[id])
	}
	b.mu.RUnlock()

	for _, s := range sinks {
		s.Publish(e)
	}
}

// Recorder is a Sink that keeps every event, for tests and status pages.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Reset drops the recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

package gesture

import "github.com/ayusman/chakra/internal/hand"

// Ring is a fixed-capacity ring buffer of positions indexed modulo its
// capacity. The write index advances by one per Write and wraps.
type Ring struct {
	data []hand.Vec3
	pos  int // index of the most recent write
	n    int
}

// NewRing creates a Ring with the given capacity.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		panic("gesture: ring capacity must be positive")
	}
	return &Ring{
		data: make([]hand.Vec3, capacity),
		pos:  -1,
	}
}

// Write stores v at the next index and returns that index.
func (r *Ring) Write(v hand.Vec3) int {
	r.pos = (r.pos + 1) % len(r.data)
	r.data[r.pos] = v
	if r.n < len(r.data) {
		r.n++
	}
	return r.pos
}

// At returns the value at index i modulo the capacity. Negative indices wrap.
func (r *Ring) At(i int) hand.Vec3 {
	c := len(r.data)
	return r.data[((i%c)+c)%c]
}

// Index returns the index of the most recent write, -1 before the first.
func (r *Ring) Index() int { return r.pos }

// Cap returns the capacity.
func (r *Ring) Cap() int { return len(r.data) }

// Len returns the number of stored values.
func (r *Ring) Len() int { return r.n }

// Full reports whether every slot has been written at least once.
func (r *Ring) Full() bool { return r.n == len(r.data) }

// Values returns the raw slots in index order (not insertion order).
func (r *Ring) Values() []hand.Vec3 {
	out := make([]hand.Vec3, len(r.data))
	copy(out, r.data)
	return out
}

// Slice returns the stored values oldest first.
func (r *Ring) Slice() []hand.Vec3 {
	out := make([]hand.Vec3, 0, r.n)
	start := r.pos - r.n + 1
	for i := 0; i < r.n; i++ {
		out = append(out, r.At(start+i))
	}
	return out
}

// Reset empties the ring.
func (r *Ring) Reset() {
	for i := range r.data {
		r.data[i] = hand.Vec3{}
	}
	r.pos = -1
	r.n = 0
}

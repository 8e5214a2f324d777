package hand

import (
	"errors"
	"sync"
)

// ErrTrackerClosed is returned by Poll and Push after Close.
var ErrTrackerClosed = errors.New("tracker closed")

// DefaultTickRate is the tracker sample rate in Hz.
const DefaultTickRate = 30

// Tracker defines the interface for hand-tracking sources.
type Tracker interface {
	// Poll returns the frames captured since the previous call, at most one
	// per hand. Returns an empty slice if no hand produced a frame.
	Poll() ([]Frame, error)

	// Close releases any resources held by the tracker.
	Close() error
}

// Config holds configuration options for tracking sources.
type Config struct {
	// MaxHands is the maximum number of hands to accept (default: 2).
	MaxHands int

	// Sides restricts the accepted hands; empty accepts both.
	Sides []Side
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands: 2,
		Sides:    []Side{Left, Right},
	}
}

func (c Config) accepts(s Side) bool {
	if len(c.Sides) == 0 {
		return s == Left || s == Right
	}
	for _, side := range c.Sides {
		if side == s {
			return true
		}
	}
	return false
}

// StreamTracker is a Tracker fed by an external producer, such as a
// websocket connection. Only the latest frame per hand is kept between polls.
type StreamTracker struct {
	config Config
	latest map[Side]Frame
	order  []Side
	closed bool
	mu     sync.Mutex
}

// NewStreamTracker creates a new StreamTracker.
func NewStreamTracker(config Config) *StreamTracker {
	if config.MaxHands <= 0 {
		config.MaxHands = DefaultConfig().MaxHands
	}
	return &StreamTracker{
		config: config,
		latest: make(map[Side]Frame),
	}
}

// Push stores f as the latest frame for its hand. Frames for hands the
// tracker does not accept are dropped and Push reports false.
func (t *StreamTracker) Push(f Frame) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return false, ErrTrackerClosed
	}
	if !t.config.accepts(f.Side) {
		return false, nil
	}
	if _, ok := t.latest[f.Side]; !ok {
		if len(t.order) >= t.config.MaxHands {
			return false, nil
		}
		t.order = append(t.order, f.Side)
	}
	t.latest[f.Side] = f
	return true, nil
}

// Poll drains the latest frames in first-seen hand order.
func (t *StreamTracker) Poll() ([]Frame, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTrackerClosed
	}

	frames := make([]Frame, 0, len(t.order))
	for _, side := range t.order {
		frames = append(frames, t.latest[side])
	}
	t.latest = make(map[Side]Frame)
	t.order = t.order[:0]
	return frames, nil
}

// Close stops the tracker.
func (t *StreamTracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

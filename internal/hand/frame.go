// Package hand provides hand-tracking frame types and tracker interfaces.
package hand

import (
	"fmt"
	"math"
	"strings"
)

// Finger indices into Frame.Curls, thumb first.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers = 5
)

var fingerNames = [NumFingers]string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if f < 0 || int(f) >= NumFingers {
		return fmt.Sprintf("finger(%d)", int(f))
	}
	return fingerNames[f]
}

// Valid reports whether f indexes one of the five fingers.
func (f Finger) Valid() bool { return f >= 0 && int(f) < NumFingers }

// Side identifies a tracked hand.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// ParseSide parses "left"/"right" (case-insensitive).
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case Left:
		return Left, nil
	case Right:
		return Right, nil
	default:
		return "", fmt.Errorf("unknown hand side %q", s)
	}
}

// Frame is one hand-pose sample produced by the tracker each tick.
// It is read-only to the gesture core.
type Frame struct {
	Side       Side                `json:"side"`
	Position   Vec3                `json:"position"`
	Curls      [NumFingers]float64 `json:"curls"`
	WristEuler Vec3                `json:"wrist_euler"`
	IsTracking bool                `json:"tracking"`

	// PointerOrigin and PointerDirection describe the index-finger ray used
	// for hit-testing. A zero direction means Forward.
	PointerOrigin    Vec3 `json:"pointer_origin"`
	PointerDirection Vec3 `json:"pointer_direction"`

	// PointedID is the interactable already resolved by the tracker client,
	// empty when nothing is under the ray.
	PointedID string `json:"pointed_id,omitempty"`

	// TimestampMs is the capture time in Unix milliseconds, 0 if unknown.
	TimestampMs int64 `json:"timestamp_ms,omitempty"`
}

// Curl returns the curl value of finger f. It panics on an invalid finger.
func (f *Frame) Curl(finger Finger) float64 {
	if !finger.Valid() {
		panic(fmt.Sprintf("hand: invalid finger index %d", int(finger)))
	}
	return f.Curls[finger]
}

// SumCurls returns the sum of all five curl values.
func (f *Frame) SumCurls() float64 {
	var sum float64
	for _, c := range f.Curls {
		sum += c
	}
	return sum
}

// Ray returns the pointer ray, substituting the frame position and Forward
// for missing values.
func (f *Frame) Ray() (origin, direction Vec3) {
	origin = f.PointerOrigin
	if origin.IsZero() {
		origin = f.Position
	}
	direction = f.PointerDirection.Normalized()
	if direction.IsZero() {
		direction = Forward
	}
	return origin, direction
}

// Validate checks a frame received from an external tracker.
func (f *Frame) Validate() error {
	if _, err := ParseSide(string(f.Side)); err != nil {
		return err
	}
	for i, c := range f.Curls {
		if math.IsNaN(c) || c < 0 || c > 1 {
			return fmt.Errorf("%s curl %g outside [0,1]", Finger(i), c)
		}
	}
	return nil
}

// Package gesture classifies hand poses and detects circular hand motion.
package gesture

import (
	"errors"
	"fmt"

	"github.com/ayusman/chakra/internal/hand"
)

// ErrInvalidThreshold is returned when a finger threshold table is malformed.
var ErrInvalidThreshold = errors.New("invalid finger threshold")

// Default classifier settings.
const (
	// DefaultPalmOpenThreshold is the curl sum below which the palm counts as open.
	DefaultPalmOpenThreshold = 1.0

	palmForwardMinDegrees = 275.0
	palmForwardMaxDegrees = 295.0
)

// FingerThreshold holds the curl bounds for one finger. A curl below
// Straight is straight, a curl above Curl is curled; values in between are
// neither.
type FingerThreshold struct {
	Straight float64 `json:"straight" koanf:"straight"`
	Curl     float64 `json:"curl" koanf:"curl"`
}

// ThresholdTable holds one FingerThreshold per finger, thumb first.
type ThresholdTable [hand.NumFingers]FingerThreshold

// DefaultThresholds returns the table used when no profile is configured.
func DefaultThresholds() ThresholdTable {
	return ThresholdTable{
		hand.Thumb:  {Straight: 0.3, Curl: 0.5},
		hand.Index:  {Straight: 0.3, Curl: 0.6},
		hand.Middle: {Straight: 0.3, Curl: 0.6},
		hand.Ring:   {Straight: 0.3, Curl: 0.6},
		hand.Pinky:  {Straight: 0.3, Curl: 0.6},
	}
}

// Validate checks that every threshold lies in [0,1] and that no finger can
// be straight and curled at once.
func (t ThresholdTable) Validate() error {
	for i, ft := range t {
		finger := hand.Finger(i)
		if ft.Straight < 0 || ft.Straight > 1 || ft.Curl < 0 || ft.Curl > 1 {
			return fmt.Errorf("%w: %s thresholds must be within [0,1], got straight=%g curl=%g",
				ErrInvalidThreshold, finger, ft.Straight, ft.Curl)
		}
		if ft.Straight > ft.Curl {
			return fmt.Errorf("%w: %s straight threshold %g exceeds curl threshold %g",
				ErrInvalidThreshold, finger, ft.Straight, ft.Curl)
		}
	}
	return nil
}

// Pose is the set of predicates evaluated for one frame.
type Pose struct {
	IndexPoint  bool `json:"index_point"`
	PalmOpen    bool `json:"palm_open"`
	Fist        bool `json:"fist"`
	PalmForward bool `json:"palm_forward"`
}

// Classifier evaluates finger-pose predicates. It is stateless; a zero
// Classifier is not usable, use NewClassifier.
type Classifier struct {
	table             ThresholdTable
	palmOpenThreshold float64
}

// NewClassifier creates a Classifier. A non-positive palmOpenThreshold
// selects DefaultPalmOpenThreshold.
func NewClassifier(table ThresholdTable, palmOpenThreshold float64) *Classifier {
	if palmOpenThreshold <= 0 {
		palmOpenThreshold = DefaultPalmOpenThreshold
	}
	return &Classifier{
		table:             table,
		palmOpenThreshold: palmOpenThreshold,
	}
}

// Thresholds returns the classifier's table.
func (c *Classifier) Thresholds() ThresholdTable {
	return c.table
}

// IsCurled reports whether curl exceeds the finger's curl threshold.
// It panics on an invalid finger.
func (c *Classifier) IsCurled(curl float64, finger hand.Finger) bool {
	return curl > c.threshold(finger).Curl
}

// IsStraight reports whether curl is below the finger's straight threshold.
// It panics on an invalid finger.
func (c *Classifier) IsStraight(curl float64, finger hand.Finger) bool {
	return curl < c.threshold(finger).Straight
}

func (c *Classifier) threshold(finger hand.Finger) FingerThreshold {
	if !finger.Valid() {
		panic(fmt.Sprintf("gesture: invalid finger index %d", int(finger)))
	}
	return c.table[finger]
}

// PalmOpen reports whether the five curls sum below the palm-open threshold.
func (c *Classifier) PalmOpen(f *hand.Frame) bool {
	return f.SumCurls() < c.palmOpenThreshold
}

// IndexPoint reports an extended index finger with every other finger curled.
func (c *Classifier) IndexPoint(f *hand.Frame) bool {
	return c.IsStraight(f.Curls[hand.Index], hand.Index) &&
		c.IsCurled(f.Curls[hand.Thumb], hand.Thumb) &&
		c.IsCurled(f.Curls[hand.Middle], hand.Middle) &&
		c.IsCurled(f.Curls[hand.Ring], hand.Ring) &&
		c.IsCurled(f.Curls[hand.Pinky], hand.Pinky)
}

// Fist reports whether all five fingers are curled.
func (c *Classifier) Fist(f *hand.Frame) bool {
	for i := 0; i < hand.NumFingers; i++ {
		if !c.IsCurled(f.Curls[i], hand.Finger(i)) {
			return false
		}
	}
	return true
}

// PalmForward reports whether the wrist pitch faces the palm away from the user.
func (c *Classifier) PalmForward(f *hand.Frame) bool {
	return f.WristEuler.X > palmForwardMinDegrees && f.WristEuler.X < palmForwardMaxDegrees
}

// Classify evaluates every predicate for f.
func (c *Classifier) Classify(f *hand.Frame) Pose {
	return Pose{
		IndexPoint:  c.IndexPoint(f),
		PalmOpen:    c.PalmOpen(f),
		Fist:        c.Fist(f),
		PalmForward: c.PalmForward(f),
	}
}

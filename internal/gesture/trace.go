package gesture

import (
	"fmt"

	"github.com/ayusman/chakra/internal/hand"
)

// CurveMode selects how the trace matcher interprets recorded motion.
type CurveMode int

const (
	// CurveCircle fits circles and accumulates rotation.
	CurveCircle CurveMode = iota
	// CurveNonCircle only records positions.
	CurveNonCircle
)

func (m CurveMode) String() string {
	switch m {
	case CurveCircle:
		return "circle"
	case CurveNonCircle:
		return "non_circle"
	default:
		return fmt.Sprintf("curve(%d)", int(m))
	}
}

// Outcome classifies what a trace tick concluded about the window.
type Outcome string

const (
	OutcomeSkipped     Outcome = "skipped"
	OutcomeDegenerate  Outcome = "degenerate"
	OutcomeOutOfBounds Outcome = "out_of_bounds"
	OutcomeNoise       Outcome = "noise"
	OutcomeScattered   Outcome = "scattered"
	OutcomeCircular    Outcome = "circular"
)

// TraceConfig holds the trace-match parameters.
type TraceConfig struct {
	// Window is the ring capacity in samples.
	Window int `koanf:"window"`
	// SampleSpacing is the index distance between the three fitted samples.
	SampleSpacing int `koanf:"sample_spacing"`
	// MinRadius and MaxRadius bound an acceptable circle, in meters.
	MinRadius float64 `koanf:"min_radius"`
	MaxRadius float64 `koanf:"max_radius"`
	// RadiusThreshold is the band around the radius a sample must fall in,
	// and the center drift that breaks continuity.
	RadiusThreshold float64 `koanf:"radius_threshold"`
	// NumFramesAllowed is the count of in-band samples the window must exceed.
	NumFramesAllowed int `koanf:"num_frames_allowed"`
	// NoiseFloorDegrees is the per-sample rotation at or below which a tick is ignored.
	NoiseFloorDegrees float64 `koanf:"noise_floor_degrees"`
	// AccumulateStride is how many samples pass between continuity updates.
	AccumulateStride int `koanf:"accumulate_stride"`
}

// DefaultTraceConfig returns the parameters tuned for a 30 Hz tracker.
func DefaultTraceConfig() TraceConfig {
	return TraceConfig{
		Window:            30,
		SampleSpacing:     10,
		MinRadius:         0.05,
		MaxRadius:         0.25,
		RadiusThreshold:   0.01,
		NumFramesAllowed:  25,
		NoiseFloorDegrees: 5,
		AccumulateStride:  5,
	}
}

// Validate checks the parameters for consistency.
func (c TraceConfig) Validate() error {
	switch {
	case c.Window < 3:
		return fmt.Errorf("trace window must hold at least 3 samples, got %d", c.Window)
	case c.SampleSpacing <= 0 || 2*c.SampleSpacing >= c.Window:
		return fmt.Errorf("sample spacing %d does not fit a window of %d", c.SampleSpacing, c.Window)
	case c.MinRadius < 0 || c.MaxRadius <= c.MinRadius:
		return fmt.Errorf("radius bounds [%g, %g] are invalid", c.MinRadius, c.MaxRadius)
	case c.RadiusThreshold <= 0:
		return fmt.Errorf("radius threshold must be positive, got %g", c.RadiusThreshold)
	case c.NumFramesAllowed < 0 || c.NumFramesAllowed >= c.Window:
		return fmt.Errorf("frames allowed %d must be below the window size %d", c.NumFramesAllowed, c.Window)
	case c.AccumulateStride <= 0:
		return fmt.Errorf("accumulate stride must be positive, got %d", c.AccumulateStride)
	}
	return nil
}

// TraceResult reports what one Tick observed.
type TraceResult struct {
	Index           int
	Outcome         Outcome
	Circle          Circle
	AngleStep       float64
	Within          int
	ContinuousAngle float64
}

// TraceSnapshot is a copy of the matcher state for display.
type TraceSnapshot struct {
	Points          []hand.Vec3 `json:"points"`
	Circle          Circle      `json:"circle"`
	CircleValid     bool        `json:"circle_valid"`
	ContinuousAngle float64     `json:"continuous_angle"`
	Enabled         bool        `json:"enabled"`
	Mode            string      `json:"mode"`
}

// TraceMatcher detects sustained circular motion over a sliding window of
// positions and accumulates the rotation angle while the circle's center
// stays put. It is not safe for concurrent use.
type TraceMatcher struct {
	config  TraceConfig
	ring    *Ring
	enabled bool
	mode    CurveMode

	circle      Circle
	circleValid bool

	// continuous curve; anchorIndex < 0 means inactive
	anchorCenter    hand.Vec3
	anchorIndex     int
	lastFrameVector hand.Vec3
	angle           float64
}

// NewTraceMatcher creates a disabled TraceMatcher in circle mode.
func NewTraceMatcher(config TraceConfig) *TraceMatcher {
	return &TraceMatcher{
		config:      config,
		ring:        NewRing(config.Window),
		mode:        CurveCircle,
		anchorIndex: -1,
	}
}

// SetEnabled turns circle evaluation on or off. Disabling resets continuity.
func (m *TraceMatcher) SetEnabled(enabled bool) {
	m.enabled = enabled
	if !enabled {
		m.circleValid = false
		m.resetCurve()
	}
}

// Enabled reports whether circle evaluation is on.
func (m *TraceMatcher) Enabled() bool { return m.enabled }

// SetMode switches the curve mode. Leaving circle mode resets continuity.
func (m *TraceMatcher) SetMode(mode CurveMode) {
	if mode != CurveCircle {
		m.circleValid = false
		m.resetCurve()
	}
	m.mode = mode
}

// Mode returns the current curve mode.
func (m *TraceMatcher) Mode() CurveMode { return m.mode }

// ContinuousAngle returns the rotation in degrees accumulated around a stable
// center, 0 when no continuous curve is active.
func (m *TraceMatcher) ContinuousAngle() float64 { return m.angle }

// LastCircleDirection returns the vector from the anchor center to the most
// recent accumulated sample, zero when no curve is active.
func (m *TraceMatcher) LastCircleDirection() hand.Vec3 {
	if m.anchorIndex < 0 {
		return hand.Vec3{}
	}
	return m.lastFrameVector
}

// Circle returns the last accepted circle.
func (m *TraceMatcher) Circle() (Circle, bool) { return m.circle, m.circleValid }

// Tick records pos and, when enabled in circle mode over a full window,
// evaluates the window.
func (m *TraceMatcher) Tick(pos hand.Vec3) TraceResult {
	i := m.ring.Write(pos)
	res := TraceResult{Index: i, Outcome: OutcomeSkipped}

	if !m.enabled || m.mode != CurveCircle || !m.ring.Full() {
		res.ContinuousAngle = m.angle
		return res
	}

	res.Outcome = m.evaluate(i, &res)
	res.ContinuousAngle = m.angle
	return res
}

func (m *TraceMatcher) evaluate(i int, res *TraceResult) Outcome {
	s := m.config.SampleSpacing
	c, ok := FitCircle(m.ring.At(i), m.ring.At(i+s), m.ring.At(i+2*s))
	if !ok {
		m.circleValid = false
		return OutcomeDegenerate
	}
	res.Circle = c

	if c.Radius < m.config.MinRadius || c.Radius > m.config.MaxRadius {
		m.circleValid = false
		m.resetCurve()
		return OutcomeOutOfBounds
	}
	m.circle = c
	m.circleValid = true

	current := m.ring.At(i).Sub(c.Center)
	previous := m.ring.At(i - 1).Sub(c.Center)
	res.AngleStep = hand.Angle(current, previous)
	if res.AngleStep <= m.config.NoiseFloorDegrees {
		return OutcomeNoise
	}

	res.Within = CountWithin(m.ring.Values(), c, m.config.RadiusThreshold)
	if res.Within <= m.config.NumFramesAllowed {
		m.resetCurve()
		return OutcomeScattered
	}

	m.accumulate(i, c, res.AngleStep)
	return OutcomeCircular
}

func (m *TraceMatcher) accumulate(i int, c Circle, step float64) {
	if i%m.config.AccumulateStride != 0 {
		return
	}

	if m.anchorIndex < 0 {
		m.anchorCenter = c.Center
		m.anchorIndex = i
		m.lastFrameVector = m.ring.At(i).Sub(c.Center)
		m.angle = step
		return
	}

	if m.anchorCenter.Distance(c.Center) >= m.config.RadiusThreshold {
		m.resetCurve()
		return
	}

	v := m.ring.At(i).Sub(m.anchorCenter)
	m.angle += hand.Angle(m.lastFrameVector, v)
	m.lastFrameVector = v
}

func (m *TraceMatcher) resetCurve() {
	m.anchorIndex = -1
	m.anchorCenter = hand.Vec3{}
	m.lastFrameVector = hand.Vec3{}
	m.angle = 0
}

// Reset clears the window and continuity, keeping enable state and mode.
func (m *TraceMatcher) Reset() {
	m.ring.Reset()
	m.circleValid = false
	m.resetCurve()
}

// Snapshot copies the window (oldest first) and the current fit.
func (m *TraceMatcher) Snapshot() TraceSnapshot {
	return TraceSnapshot{
		Points:          m.ring.Slice(),
		Circle:          m.circle,
		CircleValid:     m.circleValid,
		ContinuousAngle: m.angle,
		Enabled:         m.enabled,
		Mode:            m.mode.String(),
	}
}

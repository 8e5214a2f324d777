package hand

import (
	"fmt"
	"math"
)

// Hand landmark indices following the MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	LandmarkWrist = iota
	LandmarkThumbCMC
	LandmarkThumbMCP
	LandmarkThumbIP
	LandmarkThumbTip
	LandmarkIndexMCP
	LandmarkIndexPIP
	LandmarkIndexDIP
	LandmarkIndexTip
	LandmarkMiddleMCP
	LandmarkMiddlePIP
	LandmarkMiddleDIP
	LandmarkMiddleTip
	LandmarkRingMCP
	LandmarkRingPIP
	LandmarkRingDIP
	LandmarkRingTip
	LandmarkPinkyMCP
	LandmarkPinkyPIP
	LandmarkPinkyDIP
	LandmarkPinkyTip
	NumLandmarks
)

// fingerChains lists, per finger, the landmarks whose consecutive segments
// bend when the finger curls. Bends are measured at the inner points.
var fingerChains = [NumFingers][]int{
	Thumb:  {LandmarkThumbCMC, LandmarkThumbMCP, LandmarkThumbIP, LandmarkThumbTip},
	Index:  {LandmarkWrist, LandmarkIndexMCP, LandmarkIndexPIP, LandmarkIndexDIP, LandmarkIndexTip},
	Middle: {LandmarkWrist, LandmarkMiddleMCP, LandmarkMiddlePIP, LandmarkMiddleDIP, LandmarkMiddleTip},
	Ring:   {LandmarkWrist, LandmarkRingMCP, LandmarkRingPIP, LandmarkRingDIP, LandmarkRingTip},
	Pinky:  {LandmarkWrist, LandmarkPinkyMCP, LandmarkPinkyPIP, LandmarkPinkyDIP, LandmarkPinkyTip},
}

// maxBend is the summed joint bend in degrees of a fully curled finger.
var maxBend = [NumFingers]float64{
	Thumb:  120,
	Index:  250,
	Middle: 250,
	Ring:   250,
	Pinky:  250,
}

// Landmarks is the 21-point hand skeleton reported by landmark detectors
// such as MediaPipe.
type Landmarks struct {
	Points     [NumLandmarks]Vec3 `json:"points"`
	Handedness string             `json:"handedness"` // "Left" or "Right"
	Score      float64            `json:"score"`

	TimestampMs int64 `json:"timestamp_ms,omitempty"`
}

// Normalize returns a copy translated so the wrist sits at the origin and
// scaled so the wrist to middle MCP distance is 1.
func (l *Landmarks) Normalize() *Landmarks {
	if l == nil {
		return nil
	}

	out := &Landmarks{Handedness: l.Handedness, Score: l.Score, TimestampMs: l.TimestampMs}
	wrist := l.Points[LandmarkWrist]
	for i := range l.Points {
		out.Points[i] = l.Points[i].Sub(wrist)
	}

	scale := out.Points[LandmarkMiddleMCP].Length()
	if scale < 1e-10 {
		return out
	}
	for i := range out.Points {
		out.Points[i] = out.Points[i].Scale(1 / scale)
	}
	return out
}

// FingerCurl returns how far finger f is curled in [0,1], from the summed
// bend angles along its joint chain.
func (l *Landmarks) FingerCurl(f Finger) float64 {
	chain := fingerChains[f]
	var bend float64
	for i := 1; i+1 < len(chain); i++ {
		a := l.Points[chain[i]].Sub(l.Points[chain[i-1]])
		b := l.Points[chain[i+1]].Sub(l.Points[chain[i]])
		bend += Angle(a, b)
	}
	return math.Min(1, bend/maxBend[f])
}

// PalmCenter returns the mean of the wrist and the four finger MCP joints.
func (l *Landmarks) PalmCenter() Vec3 {
	sum := l.Points[LandmarkWrist]
	for _, i := range []int{LandmarkIndexMCP, LandmarkMiddleMCP, LandmarkRingMCP, LandmarkPinkyMCP} {
		sum = sum.Add(l.Points[i])
	}
	return sum.Scale(1.0 / 5)
}

// Frame converts the skeleton into a tracking frame. Position is the palm
// center and the pointer ray runs from the index MCP through the index tip.
// WristEuler stays zero since landmarks carry no absolute wrist rotation.
func (l *Landmarks) Frame() (Frame, error) {
	side, err := ParseSide(l.Handedness)
	if err != nil {
		return Frame{}, err
	}
	for i, p := range l.Points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) {
			return Frame{}, fmt.Errorf("landmark %d is NaN", i)
		}
	}

	f := Frame{
		Side:             side,
		Position:         l.PalmCenter(),
		IsTracking:       true,
		PointerOrigin:    l.Points[LandmarkIndexTip],
		PointerDirection: l.Points[LandmarkIndexTip].Sub(l.Points[LandmarkIndexMCP]).Normalized(),
		TimestampMs:      l.TimestampMs,
	}
	for finger := Thumb; finger < NumFingers; finger++ {
		f.Curls[finger] = l.FingerCurl(finger)
	}
	return f, nil
}

package hand

import (
	"math"
	"testing"
)

var fingerX = [NumFingers]float64{Index: -0.15, Middle: 0, Ring: 0.15, Pinky: 0.3}

// skeleton builds a right hand in the XY plane with the given fingers
// curled 90° at the two outer joints.
func skeleton(curled ...Finger) Landmarks {
	l := Landmarks{Handedness: "Right", Score: 0.9}
	isCurled := map[Finger]bool{}
	for _, f := range curled {
		isCurled[f] = true
	}

	l.Points[LandmarkThumbCMC] = Vec3{-0.3, 0.3, 0}
	l.Points[LandmarkThumbMCP] = Vec3{-0.5, 0.5, 0}
	l.Points[LandmarkThumbIP] = Vec3{-0.7, 0.7, 0}
	if isCurled[Thumb] {
		l.Points[LandmarkThumbTip] = Vec3{-0.7, 0.7, -0.2}
	} else {
		l.Points[LandmarkThumbTip] = Vec3{-0.85, 0.85, 0}
	}

	for f := Index; f < NumFingers; f++ {
		base := fingerChains[f][1]
		x := fingerX[f]
		l.Points[base] = Vec3{x, 1, 0}
		l.Points[base+1] = Vec3{x, 1.4, 0}
		if isCurled[f] {
			l.Points[base+2] = Vec3{x, 1.4, -0.3}
			l.Points[base+3] = Vec3{x, 1.1, -0.3}
		} else {
			l.Points[base+2] = Vec3{x, 1.7, 0}
			l.Points[base+3] = Vec3{x, 1.9, 0}
		}
	}
	return l
}

func TestLandmarks_FingerCurl(t *testing.T) {
	open := skeleton()
	for f := Thumb; f < NumFingers; f++ {
		if c := open.FingerCurl(f); c > 0.1 {
			t.Errorf("open hand %s curl = %.3f, want < 0.1", f, c)
		}
	}

	fist := skeleton(Thumb, Index, Middle, Ring, Pinky)
	if c := fist.FingerCurl(Thumb); math.Abs(c-0.75) > 1e-9 {
		t.Errorf("thumb curl = %.3f, want 0.75", c)
	}
	for f := Index; f < NumFingers; f++ {
		if c := fist.FingerCurl(f); c < 0.7 || c > 1 {
			t.Errorf("fist %s curl = %.3f, want in [0.7, 1]", f, c)
		}
	}
}

func TestLandmarks_Frame(t *testing.T) {
	l := skeleton(Thumb, Middle, Ring, Pinky)
	l.TimestampMs = 42

	f, err := l.Frame()
	if err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	if f.Side != Right || !f.IsTracking || f.TimestampMs != 42 {
		t.Errorf("Frame() = %+v", f)
	}
	if f.Curls[Index] > 0.1 || f.Curls[Middle] < 0.7 {
		t.Errorf("curls = %v", f.Curls)
	}
	if f.PointerOrigin != l.Points[LandmarkIndexTip] {
		t.Errorf("PointerOrigin = %v, want index tip", f.PointerOrigin)
	}
	if d := f.PointerDirection; math.Abs(d.Y-1) > 1e-9 || d.X != 0 || d.Z != 0 {
		t.Errorf("PointerDirection = %v, want +Y", d)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("converted frame invalid: %v", err)
	}

	l.Handedness = "both"
	if _, err := l.Frame(); err == nil {
		t.Error("expected error for unknown handedness")
	}
	l.Handedness = "Left"
	l.Points[LandmarkPinkyTip].X = math.NaN()
	if _, err := l.Frame(); err == nil {
		t.Error("expected error for NaN landmark")
	}
}

func TestLandmarks_Normalize(t *testing.T) {
	l := skeleton()
	for i := range l.Points {
		l.Points[i] = l.Points[i].Scale(2).Add(Vec3{5, 5, 5})
	}

	n := l.Normalize()
	if !n.Points[LandmarkWrist].IsZero() {
		t.Errorf("wrist = %v, want origin", n.Points[LandmarkWrist])
	}
	if got := n.Points[LandmarkMiddleMCP].Length(); math.Abs(got-1) > 1e-9 {
		t.Errorf("middle MCP distance = %v, want 1", got)
	}
	if n.Handedness != "Right" {
		t.Errorf("Handedness = %q", n.Handedness)
	}

	var nilL *Landmarks
	if nilL.Normalize() != nil {
		t.Error("Normalize() on nil should return nil")
	}
}

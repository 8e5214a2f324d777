// Package handtest provides synthetic hand frames and motion traces for tests.
package handtest

import (
	"math"

	"github.com/ayusman/chakra/internal/hand"
)

// TickRate is the sample rate the fixtures assume, matching the tracker's 30 Hz.
const TickRate = 30

// Pose builds a tracked frame for side with the given curls at pos.
func Pose(side hand.Side, curls [hand.NumFingers]float64, pos hand.Vec3) hand.Frame {
	return hand.Frame{
		Side:       side,
		Position:   pos,
		Curls:      curls,
		IsTracking: true,
	}
}

// Pointing builds an index-point frame aimed at target.
func Pointing(side hand.Side, pos hand.Vec3, target string) hand.Frame {
	f := Pose(side, hand.PointCurls, pos)
	f.PointedID = target
	return f
}

// OpenPalm builds an open-palm frame. The pointed target is kept so the
// resolver still sees it.
func OpenPalm(side hand.Side, pos hand.Vec3, target string) hand.Frame {
	f := Pose(side, hand.OpenCurls, pos)
	f.PointedID = target
	return f
}

// Fist builds a closed-fist frame.
func Fist(side hand.Side, pos hand.Vec3) hand.Frame {
	return Pose(side, hand.FistCurls, pos)
}

// Untracked builds a frame for a hand the tracker lost.
func Untracked(side hand.Side) hand.Frame {
	return hand.Frame{Side: side}
}

// Circle returns n points on a circle of radius r around center in the XY
// plane, starting at startDeg and advancing stepDeg per point.
func Circle(center hand.Vec3, r, startDeg, stepDeg float64, n int) []hand.Vec3 {
	points := make([]hand.Vec3, n)
	for i := 0; i < n; i++ {
		theta := (startDeg + stepDeg*float64(i)) * math.Pi / 180
		points[i] = hand.Vec3{
			X: center.X + r*math.Cos(theta),
			Y: center.Y + r*math.Sin(theta),
			Z: center.Z,
		}
	}
	return points
}

// Line returns n points from start, advancing by step per point.
func Line(start, step hand.Vec3, n int) []hand.Vec3 {
	points := make([]hand.Vec3, n)
	for i := 0; i < n; i++ {
		points[i] = start.Add(step.Scale(float64(i)))
	}
	return points
}

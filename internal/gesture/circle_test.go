package gesture

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/chakra/internal/hand"
	"github.com/ayusman/chakra/internal/hand/handtest"
)

const epsilon = 1e-9

func TestFitCircle_UnitCircle(t *testing.T) {
	points := handtest.Circle(hand.Vec3{}, 1, 10, 120, 3)

	c, ok := FitCircle(points[0], points[1], points[2])
	require.True(t, ok)

	assert.InDelta(t, 0, c.Center.X, epsilon)
	assert.InDelta(t, 0, c.Center.Y, epsilon)
	assert.InDelta(t, 0, c.Center.Z, epsilon)
	assert.InDelta(t, 1, c.Radius, epsilon)
}

func TestFitCircle_OffsetTiltedCircle(t *testing.T) {
	center := hand.Vec3{X: 0.3, Y: 1.2, Z: -0.4}
	r := 0.12

	// circle in the XZ plane around center
	at := func(deg float64) hand.Vec3 {
		theta := deg * math.Pi / 180
		return hand.Vec3{
			X: center.X + r*math.Cos(theta),
			Y: center.Y,
			Z: center.Z + r*math.Sin(theta),
		}
	}

	c, ok := FitCircle(at(0), at(75), at(200))
	require.True(t, ok)

	assert.InDelta(t, center.X, c.Center.X, epsilon)
	assert.InDelta(t, center.Y, c.Center.Y, epsilon)
	assert.InDelta(t, center.Z, c.Center.Z, epsilon)
	assert.InDelta(t, r, c.Radius, epsilon)
}

func TestFitCircle_Degenerate(t *testing.T) {
	tests := []struct {
		name       string
		p1, p2, p3 hand.Vec3
	}{
		{"collinear x", hand.Vec3{}, hand.Vec3{X: 1}, hand.Vec3{X: 2}},
		{"collinear diagonal", hand.Vec3{X: 1, Y: 1, Z: 1}, hand.Vec3{X: 2, Y: 2, Z: 2}, hand.Vec3{X: -3, Y: -3, Z: -3}},
		{"coincident", hand.Vec3{X: 0.5}, hand.Vec3{X: 0.5}, hand.Vec3{X: 0.5}},
		{"two equal", hand.Vec3{}, hand.Vec3{}, hand.Vec3{Y: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := FitCircle(tt.p1, tt.p2, tt.p3)
			assert.False(t, ok)
		})
	}
}

func TestCountWithin(t *testing.T) {
	r := 0.1
	c := Circle{Radius: r}
	points := handtest.Circle(hand.Vec3{}, r, 0, 12, 30)

	assert.Equal(t, 30, CountWithin(points, c, 0.01))

	// push six points well outside the band
	for i := 0; i < 6; i++ {
		points[i*5] = points[i*5].Scale(1.5)
	}
	got := CountWithin(points, c, 0.01)
	assert.Equal(t, 24, got)
	assert.LessOrEqual(t, got, DefaultTraceConfig().NumFramesAllowed)
}

func TestCountWithin_StrictBounds(t *testing.T) {
	c := Circle{Radius: 1}
	points := []hand.Vec3{
		{X: 0.5},  // exactly on the lower bound
		{X: 1.5},  // exactly on the upper bound
		{X: 1.25}, // inside
	}
	assert.Equal(t, 1, CountWithin(points, c, 0.5))
}

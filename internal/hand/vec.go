package hand

import "math"

// Vec3 represents a point or direction in tracking space (meters).
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Forward is the world forward direction used when a frame carries no pointer ray.
var Forward = Vec3{Z: 1}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Cross returns the cross product v × o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// SqrLength returns the squared length of v.
func (v Vec3) SqrLength() float64 { return v.Dot(v) }

// Length returns the Euclidean length of v.
func (v Vec3) Length() float64 { return math.Sqrt(v.SqrLength()) }

// Distance returns the Euclidean distance between v and o.
func (v Vec3) Distance(o Vec3) float64 { return v.Sub(o).Length() }

// IsZero reports whether all components are zero.
func (v Vec3) IsZero() bool { return v.X == 0 && v.Y == 0 && v.Z == 0 }

// Normalized returns v scaled to unit length, or the zero vector if v is
// too short to normalize.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l < 1e-12 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Angle returns the unsigned angle between a and b in degrees, in [0, 180].
// Zero-length inputs yield 0.
func Angle(a, b Vec3) float64 {
	denom := math.Sqrt(a.SqrLength() * b.SqrLength())
	if denom < 1e-15 {
		return 0
	}
	cos := a.Dot(b) / denom
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}

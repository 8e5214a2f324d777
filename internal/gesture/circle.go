package gesture

import (
	"math"

	"github.com/ayusman/chakra/internal/hand"
)

// degenerateEpsilon bounds the squared triangle normal below which three
// points are treated as collinear.
const degenerateEpsilon = 1e-12

// Circle is a circle in 3D space.
type Circle struct {
	Center hand.Vec3 `json:"center"`
	Radius float64   `json:"radius"`
}

// FitCircle returns the circumscribed circle of the triangle (p1, p2, p3).
// It reports false when the points are (nearly) collinear.
func FitCircle(p1, p2, p3 hand.Vec3) (Circle, bool) {
	// triangle edges
	t := p2.Sub(p1)
	u := p3.Sub(p1)
	v := p3.Sub(p2)

	// triangle normal
	w := t.Cross(u)
	wsl := w.SqrLength()
	if wsl < degenerateEpsilon {
		return Circle{}, false
	}

	iwsl2 := 1.0 / (2.0 * wsl)
	tt := t.Dot(t)
	uu := u.Dot(u)
	vv := v.Dot(v)
	uv := u.Dot(v)
	tv := t.Dot(v)

	center := p1.Add(u.Scale(tt * uv).Sub(t.Scale(uu * tv)).Scale(iwsl2))
	radius := math.Sqrt(tt * uu * vv * iwsl2 * 0.5)

	return Circle{Center: center, Radius: radius}, true
}

// CountWithin counts the points whose distance from c.Center lies strictly
// inside (c.Radius-threshold, c.Radius+threshold).
func CountWithin(points []hand.Vec3, c Circle, threshold float64) int {
	lower := c.Radius - threshold
	upper := c.Radius + threshold

	n := 0
	for _, p := range points {
		d := p.Distance(c.Center)
		if d > lower && d < upper {
			n++
		}
	}
	return n
}

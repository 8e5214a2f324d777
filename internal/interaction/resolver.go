package interaction

import (
	"math"

	"github.com/ayusman/chakra/internal/hand"
)

// Resolver finds the interactable a hand is pointing at.
type Resolver interface {
	Resolve(f *hand.Frame) (id string, ok bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(f *hand.Frame) (string, bool)

func (fn ResolverFunc) Resolve(f *hand.Frame) (string, bool) { return fn(f) }

// FrameResolver trusts the tracker client's own hit test and returns the
// frame's PointedID when it names a registered interactable.
type FrameResolver struct {
	Registry *Registry
}

func (r FrameResolver) Resolve(f *hand.Frame) (string, bool) {
	if f.PointedID == "" {
		return "", false
	}
	if r.Registry != nil {
		if _, err := r.Registry.Get(f.PointedID); err != nil {
			return "", false
		}
	}
	return f.PointedID, true
}

// RayResolver casts the frame's pointer ray against the bounding spheres of
// registered interactables that implement Placed and returns the nearest hit.
type RayResolver struct {
	Registry *Registry
	// MaxDistance limits the ray length; zero means unlimited.
	MaxDistance float64
}

func (r RayResolver) Resolve(f *hand.Frame) (string, bool) {
	origin, dir := f.Ray()
	dir = dir.Normalized()
	if dir.IsZero() {
		return "", false
	}

	best := math.Inf(1)
	bestID := ""
	for _, obj := range r.Registry.List() {
		p, ok := obj.(Placed)
		if !ok {
			continue
		}
		d, hit := intersectSphere(origin, dir, p.Position(), p.Radius())
		if !hit || d >= best {
			continue
		}
		if r.MaxDistance > 0 && d > r.MaxDistance {
			continue
		}
		best = d
		bestID = obj.ID()
	}
	return bestID, bestID != ""
}

// intersectSphere returns the distance along the unit ray to the first
// intersection with the sphere. A ray starting inside hits at distance 0.
func intersectSphere(origin, dir, center hand.Vec3, radius float64) (float64, bool) {
	oc := origin.Sub(center)
	c := oc.Dot(oc) - radius*radius
	if c <= 0 {
		return 0, true
	}
	b := oc.Dot(dir)
	if b > 0 {
		return 0, false
	}
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	return -b - math.Sqrt(disc), true
}

// Package visual renders circular-motion traces as JPEG images for the
// debug stream.
package visual

import (
	"image"
	"math"

	"github.com/ayusman/chakra/internal/gesture"
	"github.com/ayusman/chakra/internal/hand"
)

// minSpan keeps a nearly still hand from being zoomed to a single pixel.
const minSpan = 0.1

// Viewport maps the X/Y plane of hand space onto image pixels. Y grows up in
// hand space and down in the image.
type Viewport struct {
	minX, minY float64
	scale      float64
	width      int
	height     int
	margin     int
}

// FitViewport returns a viewport of the given size that contains every
// trace point and, when valid, the fitted circle.
func FitViewport(snap gesture.TraceSnapshot, width, height, margin int) Viewport {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	grow := func(x, y float64) {
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	for _, p := range snap.Points {
		grow(p.X, p.Y)
	}
	if snap.CircleValid {
		c := snap.Circle
		grow(c.Center.X-c.Radius, c.Center.Y-c.Radius)
		grow(c.Center.X+c.Radius, c.Center.Y+c.Radius)
	}
	if math.IsInf(minX, 1) {
		minX, maxX, minY, maxY = 0, 0, 0, 0
	}

	span := math.Max(math.Max(maxX-minX, maxY-minY), minSpan)
	cx, cy := (minX+maxX)/2, (minY+maxY)/2

	usable := min(width, height) - 2*margin
	if usable < 1 {
		usable = 1
	}
	return Viewport{
		minX:   cx - span/2,
		minY:   cy - span/2,
		scale:  float64(usable) / span,
		width:  width,
		height: height,
		margin: margin,
	}
}

// Point projects v onto the image, dropping Z.
func (vp Viewport) Point(v hand.Vec3) image.Point {
	offX := (vp.width - vp.height) / 2
	if offX < 0 {
		offX = 0
	}
	offY := (vp.height - vp.width) / 2
	if offY < 0 {
		offY = 0
	}
	x := vp.margin + offX + int(math.Round((v.X-vp.minX)*vp.scale))
	y := vp.height - vp.margin - offY - int(math.Round((v.Y-vp.minY)*vp.scale))
	return image.Pt(x, y)
}

// Length converts a hand-space distance into pixels.
func (vp Viewport) Length(d float64) int {
	return int(math.Round(d * vp.scale))
}

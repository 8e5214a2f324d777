package visual

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ayusman/chakra/internal/gesture"
	"gocv.io/x/gocv"
)

// Default image settings
const (
	DefaultWidth  = 480
	DefaultHeight = 480
	DefaultMargin = 24
)

var (
	background = gocv.NewScalar(24, 24, 24, 0)
	pathColor  = color.RGBA{R: 80, G: 160, B: 255, A: 255}
	headColor  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	fitColor   = color.RGBA{R: 255, G: 180, B: 0, A: 255}
	idleColor  = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	textColor  = color.RGBA{R: 220, G: 220, B: 220, A: 255}
)

// Renderer draws trace snapshots: the sample window as a polyline ending in
// the newest position, the fitted circle and its center, and the accumulated
// angle.
type Renderer struct {
	width  int
	height int
	margin int
}

// NewRenderer creates a Renderer producing width x height images. Zero
// values fall back to the defaults.
func NewRenderer(width, height int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Renderer{width: width, height: height, margin: DefaultMargin}
}

// Draw renders snap into a new Mat. The caller must Close it.
func (r *Renderer) Draw(snap gesture.TraceSnapshot) gocv.Mat {
	img := gocv.NewMatWithSize(r.height, r.width, gocv.MatTypeCV8UC3)
	img.SetTo(background)

	vp := FitViewport(snap, r.width, r.height, r.margin)

	line := pathColor
	if !snap.Enabled {
		line = idleColor
	}
	for i := 1; i < len(snap.Points); i++ {
		gocv.Line(&img, vp.Point(snap.Points[i-1]), vp.Point(snap.Points[i]), line, 2)
	}
	if n := len(snap.Points); n > 0 {
		gocv.Circle(&img, vp.Point(snap.Points[n-1]), 5, headColor, -1)
	}

	if snap.CircleValid {
		center := vp.Point(snap.Circle.Center)
		gocv.Circle(&img, center, vp.Length(snap.Circle.Radius), fitColor, 1)
		gocv.Circle(&img, center, 3, fitColor, -1)
	}

	label := fmt.Sprintf("%s  %.0f deg", snap.Mode, snap.ContinuousAngle)
	gocv.PutText(&img, label, image.Pt(10, 20), gocv.FontHersheySimplex, 0.5, textColor, 1)

	return img
}

// RenderJPEG renders snap and encodes it as JPEG.
func (r *Renderer) RenderJPEG(snap gesture.TraceSnapshot) ([]byte, error) {
	img := r.Draw(snap)
	defer img.Close()

	buf, err := gocv.IMEncode(".jpg", img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trace: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases native memory released by Close
	return append([]byte(nil), buf.GetBytes()...), nil
}

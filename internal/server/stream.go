package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ayusman/chakra/internal/gesture"
	"github.com/ayusman/chakra/internal/hand"
	"github.com/ayusman/chakra/internal/visual"
)

// DefaultTraceInterval paces the trace stream at about 15 FPS.
const DefaultTraceInterval = 66 * time.Millisecond

// TraceSource returns the circular-motion window of one hand.
type TraceSource interface {
	Snapshot(side hand.Side) (gesture.TraceSnapshot, error)
}

// JPEGRenderer turns a snapshot into a JPEG image.
type JPEGRenderer interface {
	RenderJPEG(snap gesture.TraceSnapshot) ([]byte, error)
}

// TraceHandler serves the trace of one hand as an MJPEG stream. The hand is
// chosen with ?hand=left|right and defaults to right.
type TraceHandler struct {
	source   TraceSource
	renderer JPEGRenderer
	interval time.Duration
}

// NewTraceHandler creates a new TraceHandler. A nil renderer uses a
// visual.Renderer with default size.
func NewTraceHandler(source TraceSource, renderer JPEGRenderer, interval time.Duration) *TraceHandler {
	if renderer == nil {
		renderer = visual.NewRenderer(0, 0)
	}
	if interval <= 0 {
		interval = DefaultTraceInterval
	}
	return &TraceHandler{source: source, renderer: renderer, interval: interval}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *TraceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	side := hand.Right
	if q := r.URL.Query().Get("hand"); q != "" {
		s, err := hand.ParseSide(q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		side = s
	}
	if _, err := h.source.Snapshot(side); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		snap, err := h.source.Snapshot(side)
		if err != nil {
			return
		}
		buf, err := h.renderer.RenderJPEG(snap)
		if err != nil {
			return
		}

		// Write MJPEG frame
		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(buf))
		if _, err := w.Write(buf); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

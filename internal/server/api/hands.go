package api

import (
	"net/http"

	"github.com/ayusman/chakra/internal/app"
)

// HandSource reports the live state of every tracked hand.
type HandSource interface {
	Hands() []app.HandStatus
	IsEnabled() bool
}

// HandsHandler serves GET /api/hands.
type HandsHandler struct {
	source HandSource
}

// NewHandsHandler creates a new HandsHandler.
func NewHandsHandler(source HandSource) *HandsHandler {
	return &HandsHandler{source: source}
}

type handsResponse struct {
	Enabled bool             `json:"enabled"`
	Hands   []app.HandStatus `json:"hands"`
}

// ServeHTTP implements the http.Handler interface.
func (h *HandsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, handsResponse{
		Enabled: h.source.IsEnabled(),
		Hands:   h.source.Hands(),
	})
}

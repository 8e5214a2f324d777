package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/ayusman/chakra/internal/hand"
	"github.com/ayusman/chakra/internal/store"
)

// Scene receives catalog changes so the running engine matches the store.
type Scene interface {
	PutInteractable(it *store.Interactable)
	RemoveInteractable(id string)
}

// InteractableHandler handles HTTP requests for interactable resources.
type InteractableHandler struct {
	store *store.Store
	scene Scene
}

// NewInteractableHandler creates a new InteractableHandler. scene may be nil.
func NewInteractableHandler(s *store.Store, scene Scene) *InteractableHandler {
	return &InteractableHandler{store: s, scene: scene}
}

// ServeHTTP routes /api/interactables and /api/interactables/{id}.
func (h *InteractableHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/interactables")

	switch len(parts) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			methodNotAllowed(w)
		}
	case 1:
		id := parts[0]
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodPut:
			h.update(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			methodNotAllowed(w)
		}
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type interactableRequest struct {
	Name       *string         `json:"name"`
	PluginName *string         `json:"plugin_name"`
	Config     json.RawMessage `json:"config"`
	Position   *hand.Vec3      `json:"position"`
	Radius     *float64        `json:"radius"`
	Enabled    *bool           `json:"enabled"`
}

type interactableResponse struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	PluginName string          `json:"plugin_name"`
	Config     json.RawMessage `json:"config"`
	Position   hand.Vec3       `json:"position"`
	Radius     float64         `json:"radius"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

type listInteractablesResponse struct {
	Interactables []interactableResponse `json:"interactables"`
}

func toInteractableResponse(it *store.Interactable) interactableResponse {
	config := it.Config
	if len(config) == 0 {
		config = json.RawMessage("{}")
	}
	return interactableResponse{
		ID:         it.ID,
		Name:       it.Name,
		PluginName: it.PluginName,
		Config:     config,
		Position:   it.Position,
		Radius:     it.Radius,
		Enabled:    it.Enabled,
		CreatedAt:  it.CreatedAt.Format(timeFormat),
		UpdatedAt:  it.UpdatedAt.Format(timeFormat),
	}
}

// apply copies the fields present in req onto it.
func (req *interactableRequest) apply(it *store.Interactable) {
	if req.Name != nil {
		it.Name = *req.Name
	}
	if req.PluginName != nil {
		it.PluginName = *req.PluginName
	}
	if req.Config != nil {
		it.Config = req.Config
	}
	if req.Position != nil {
		it.Position = *req.Position
	}
	if req.Radius != nil {
		it.Radius = *req.Radius
	}
	if req.Enabled != nil {
		it.Enabled = *req.Enabled
	}
}

func validateInteractable(it *store.Interactable) string {
	if it.Name == "" {
		return "name is required"
	}
	if it.Radius <= 0 {
		return "radius must be positive"
	}
	if len(it.Config) > 0 && !json.Valid(it.Config) {
		return "config must be valid JSON"
	}
	return ""
}

// list handles GET /api/interactables.
func (h *InteractableHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.Interactables().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list interactables")
		return
	}

	response := listInteractablesResponse{
		Interactables: make([]interactableResponse, 0, len(items)),
	}
	for _, it := range items {
		response.Interactables = append(response.Interactables, toInteractableResponse(it))
	}
	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/interactables/{id}.
func (h *InteractableHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	it, err := h.store.Interactables().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Interactable not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get interactable")
		return
	}
	writeJSON(w, http.StatusOK, toInteractableResponse(it))
}

// create handles POST /api/interactables.
func (h *InteractableHandler) create(w http.ResponseWriter, r *http.Request) {
	var req interactableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	it := &store.Interactable{ID: uuid.New().String(), Enabled: true}
	req.apply(it)
	if msg := validateInteractable(it); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.Interactables().Create(it); err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "Interactable name already in use")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create interactable")
		return
	}

	if h.scene != nil {
		h.scene.PutInteractable(it)
	}
	writeJSON(w, http.StatusCreated, toInteractableResponse(it))
}

// update handles PUT /api/interactables/{id}. Absent fields keep their value.
func (h *InteractableHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	it, err := h.store.Interactables().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Interactable not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get interactable")
		return
	}

	var req interactableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.apply(it)
	if msg := validateInteractable(it); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.Interactables().Update(it); err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "Interactable name already in use")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update interactable")
		return
	}

	if h.scene != nil {
		h.scene.PutInteractable(it)
	}
	writeJSON(w, http.StatusOK, toInteractableResponse(it))
}

// delete handles DELETE /api/interactables/{id}.
func (h *InteractableHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Interactables().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Interactable not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete interactable")
		return
	}

	if h.scene != nil {
		h.scene.RemoveInteractable(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/ayusman/chakra/internal/gesture"
	"github.com/ayusman/chakra/internal/store"
)

// ProfileApplier switches the running classifier to a profile.
type ProfileApplier interface {
	ApplyProfile(p *store.Profile) error
}

// ProfileHandler handles finger profiles, their calibration samples and
// training.
type ProfileHandler struct {
	store   *store.Store
	applier ProfileApplier
}

// NewProfileHandler creates a new ProfileHandler. applier may be nil.
func NewProfileHandler(s *store.Store, applier ProfileApplier) *ProfileHandler {
	return &ProfileHandler{store: s, applier: applier}
}

// ServeHTTP routes /api/profiles, /api/profiles/{id} and the
// samples, train and activate sub-resources.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/profiles")

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
	case 2:
		id := parts[0]
		switch {
		case parts[1] == "samples" && r.Method == http.MethodGet:
			h.listSamples(w, r, id)
		case parts[1] == "samples" && r.Method == http.MethodPost:
			h.addSamples(w, r, id)
		case parts[1] == "samples" && r.Method == http.MethodDelete:
			h.clearSamples(w, r, id)
		case parts[1] == "train" && r.Method == http.MethodPost:
			h.train(w, r, id)
		case parts[1] == "activate" && r.Method == http.MethodPost:
			h.activate(w, r, id)
		case parts[1] == "samples" || parts[1] == "train" || parts[1] == "activate":
			methodNotAllowed(w)
		default:
			writeError(w, http.StatusNotFound, "Not found")
		}
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type profileRequest struct {
	Name              *string                 `json:"name"`
	Thresholds        *gesture.ThresholdTable `json:"thresholds"`
	PalmOpenThreshold *float64                `json:"palm_open_threshold"`
}

type profileResponse struct {
	ID                string                 `json:"id"`
	Name              string                 `json:"name"`
	Thresholds        gesture.ThresholdTable `json:"thresholds"`
	PalmOpenThreshold float64                `json:"palm_open_threshold"`
	Samples           int                    `json:"samples"`
	Trained           bool                   `json:"trained"`
	Active            bool                   `json:"active"`
	CreatedAt         string                 `json:"created_at"`
	UpdatedAt         string                 `json:"updated_at"`
}

type listProfilesResponse struct {
	Profiles []profileResponse `json:"profiles"`
}

type createSamplesRequest struct {
	Samples []json.RawMessage `json:"samples"`
}

type sampleResponse struct {
	ID          int64           `json:"id"`
	ProfileID   string          `json:"profile_id"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   string          `json:"created_at"`
}

type listSamplesResponse struct {
	Samples []sampleResponse `json:"samples"`
}

func toProfileResponse(p *store.Profile, activeID string) profileResponse {
	return profileResponse{
		ID:                p.ID,
		Name:              p.Name,
		Thresholds:        p.Thresholds,
		PalmOpenThreshold: p.PalmOpenThreshold,
		Samples:           p.Samples,
		Trained:           p.Trained,
		Active:            p.ID == activeID,
		CreatedAt:         p.CreatedAt.Format(timeFormat),
		UpdatedAt:         p.UpdatedAt.Format(timeFormat),
	}
}

func (req *profileRequest) apply(p *store.Profile) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Thresholds != nil {
		p.Thresholds = *req.Thresholds
	}
	if req.PalmOpenThreshold != nil {
		p.PalmOpenThreshold = *req.PalmOpenThreshold
	}
}

func validateProfile(p *store.Profile) error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.PalmOpenThreshold <= 0 {
		return errors.New("palm_open_threshold must be positive")
	}
	return p.Thresholds.Validate()
}

// activeID returns the active profile ID, or "" when none is set.
func (h *ProfileHandler) activeID() string {
	id, err := h.store.Settings().Get(store.SettingActiveProfile)
	if err != nil {
		return ""
	}
	return id
}

// lookup fetches a profile, writing the error response when it fails.
func (h *ProfileHandler) lookup(w http.ResponseWriter, id string) (*store.Profile, bool) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return nil, false
	}
	return p, true
}

// list handles GET /api/profiles.
func (h *ProfileHandler) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}

	active := h.activeID()
	response := listProfilesResponse{Profiles: make([]profileResponse, 0, len(profiles))}
	for _, p := range profiles {
		response.Profiles = append(response.Profiles, toProfileResponse(p, active))
	}
	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/profiles/{id}.
func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := h.lookup(w, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p, h.activeID()))
}

// create handles POST /api/profiles. Thresholds default to the built-in
// table until the profile is trained.
func (h *ProfileHandler) create(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	p := &store.Profile{
		ID:                uuid.New().String(),
		Thresholds:        gesture.DefaultThresholds(),
		PalmOpenThreshold: gesture.DefaultPalmOpenThreshold,
	}
	req.apply(p)
	if err := validateProfile(p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.store.Profiles().GetByName(p.Name); err == nil {
		writeError(w, http.StatusConflict, "Profile name already in use")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to check existing profile")
		return
	}

	if err := h.store.Profiles().Create(p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}
	writeJSON(w, http.StatusCreated, toProfileResponse(p, h.activeID()))
}

// update handles PUT /api/profiles/{id}. The active profile is re-applied.
func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := h.lookup(w, id)
	if !ok {
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.apply(p)
	if err := validateProfile(p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Profiles().Update(p); err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "Profile name already in use")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	active := h.activeID()
	if p.ID == active && h.applier != nil {
		if err := h.applier.ApplyProfile(p); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to apply profile")
			return
		}
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p, active))
}

// delete handles DELETE /api/profiles/{id}. Deleting the active profile
// clears the setting; the engine keeps its current thresholds.
func (h *ProfileHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Profiles().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete profile")
		return
	}

	if h.activeID() == id {
		if err := h.store.Settings().Delete(store.SettingActiveProfile); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to clear active profile")
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// listSamples handles GET /api/profiles/{id}/samples.
func (h *ProfileHandler) listSamples(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := h.lookup(w, id); !ok {
		return
	}

	samples, err := h.store.Samples().GetByProfileID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}

	response := listSamplesResponse{Samples: make([]sampleResponse, 0, len(samples))}
	for _, s := range samples {
		response.Samples = append(response.Samples, sampleResponse{
			ID:          s.ID,
			ProfileID:   s.ProfileID,
			SampleIndex: s.SampleIndex,
			Data:        s.Data,
			CreatedAt:   s.CreatedAt.Format(timeFormat),
		})
	}
	writeJSON(w, http.StatusOK, response)
}

// addSamples handles POST /api/profiles/{id}/samples.
func (h *ProfileHandler) addSamples(w http.ResponseWriter, r *http.Request, id string) {
	var req createSamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "At least one sample is required")
		return
	}
	for i, raw := range req.Samples {
		if _, err := gesture.ParseSample(raw); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("sample %d: %v", i, err))
			return
		}
	}

	count, err := h.store.Samples().Append(id, req.Samples)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save samples")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"samples": count})
}

// clearSamples handles DELETE /api/profiles/{id}/samples.
func (h *ProfileHandler) clearSamples(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := h.lookup(w, id); !ok {
		return
	}
	if err := h.store.Samples().DeleteByProfileID(id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete samples")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// train handles POST /api/profiles/{id}/train: it derives thresholds from
// the stored samples, saves them and makes the profile active.
func (h *ProfileHandler) train(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := h.lookup(w, id)
	if !ok {
		return
	}

	raw, err := h.store.Samples().RawByProfileID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load samples")
		return
	}

	table, err := gesture.Calibrate(raw)
	if err != nil {
		if errors.Is(err, gesture.ErrNoSamples) || errors.Is(err, gesture.ErrInvalidThreshold) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p.Thresholds = table
	p.Trained = true
	if err := h.store.Profiles().Update(p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save profile")
		return
	}

	h.makeActive(w, p)
}

// activate handles POST /api/profiles/{id}/activate.
func (h *ProfileHandler) activate(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := h.lookup(w, id)
	if !ok {
		return
	}
	h.makeActive(w, p)
}

func (h *ProfileHandler) makeActive(w http.ResponseWriter, p *store.Profile) {
	if h.applier != nil {
		if err := h.applier.ApplyProfile(p); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}
	if err := h.store.Settings().Set(store.SettingActiveProfile, p.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save active profile")
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p, p.ID))
}

// Package plugin discovers and runs out-of-process plugins that react to
// interaction events, such as activating or throwing an interactable.
package plugin

import (
	"encoding/json"
	"slices"

	"github.com/ayusman/chakra/internal/hand"
)

// Actions a plugin may declare. A manifest without actions handles
// ActionActivate and ActionThrow.
const (
	ActionActivate       = "activate"
	ActionInteract       = "interact"
	ActionEndInteraction = "end_interaction"
	ActionThrow          = "throw"
)

var defaultActions = []string{ActionActivate, ActionThrow}

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Handles reports whether the plugin wants requests for action.
func (m Manifest) Handles(action string) bool {
	if len(m.Actions) == 0 {
		return slices.Contains(defaultActions, action)
	}
	return slices.Contains(m.Actions, action)
}

// Request is written to the plugin's stdin as JSON.
type Request struct {
	Action string          `json:"action"`
	Target string          `json:"target"`
	Hand   string          `json:"hand"`
	Config json.RawMessage `json:"config"`
	Params json.RawMessage `json:"params"`
}

// Params carries the event details for a request.
type Params struct {
	Angle     float64    `json:"angle,omitempty"`
	Direction *hand.Vec3 `json:"direction,omitempty"`
	At        int64      `json:"at"`
}

// Response is read from the plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

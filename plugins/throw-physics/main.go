// Package main provides a throw plugin that computes a ballistic landing
// point for a thrown interactable.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Target string          `json:"target"`
	Hand   string          `json:"hand"`
	Config json.RawMessage `json:"config"`
	Params json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type throwParams struct {
	Direction *vec3 `json:"direction"`
}

func main() {
	resp := handle(os.Stdin)
	json.NewEncoder(os.Stdout).Encode(resp)
}

// handle decodes one request and returns the response to write.
func handle(r io.Reader) Response {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return errorResponse(fmt.Sprintf("failed to decode request: %v", err))
	}
	if req.Action != "throw" {
		return errorResponse(fmt.Sprintf("unknown action: %s", req.Action))
	}

	cfg := defaultConfig()
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return errorResponse(fmt.Sprintf("invalid config: %v", err))
		}
	}

	var params throwParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(fmt.Sprintf("invalid params: %v", err))
		}
	}
	if params.Direction == nil {
		return errorResponse("throw without direction")
	}

	landing, err := simulate(cfg, *params.Direction)
	if err != nil {
		return errorResponse(fmt.Sprintf("throw of %s failed: %v", req.Target, err))
	}

	data, err := json.Marshal(landing)
	if err != nil {
		return errorResponse(err.Error())
	}
	return Response{Success: true, Data: data}
}

func errorResponse(msg string) Response {
	return Response{Success: false, Error: msg}
}

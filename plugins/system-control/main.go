// Package main provides an activation plugin that runs a media or volume
// command when an interactable is activated. The command comes from the
// interactable's binding config, e.g. {"command": "media-play-pause"}.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
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

type bindingConfig struct {
	Command string `json:"command"`
}

// commands maps command names to argv per GOOS.
var commands = map[string]map[string][]string{
	"volume-up": {
		"darwin": osascript(`set volume output volume ((output volume of (get volume settings)) + 10)`),
		"linux":  {"pactl", "set-sink-volume", "@DEFAULT_SINK@", "+10%"},
	},
	"volume-down": {
		"darwin": osascript(`set volume output volume ((output volume of (get volume settings)) - 10)`),
		"linux":  {"pactl", "set-sink-volume", "@DEFAULT_SINK@", "-10%"},
	},
	"volume-mute": {
		"darwin": osascript(`set volume output muted (not (output muted of (get volume settings)))`),
		"linux":  {"pactl", "set-sink-mute", "@DEFAULT_SINK@", "toggle"},
	},
	"media-play-pause": {
		"darwin": osascript(`tell application "System Events" to key code 100`),
		"linux":  {"playerctl", "play-pause"},
	},
	"media-next": {
		"darwin": osascript(`tell application "System Events" to key code 101`),
		"linux":  {"playerctl", "next"},
	},
	"media-prev": {
		"darwin": osascript(`tell application "System Events" to key code 98`),
		"linux":  {"playerctl", "previous"},
	},
}

func osascript(script string) []string {
	return []string{"osascript", "-e", script}
}

// runner executes argv; replaced in tests.
var runner = func(argv []string) error {
	output, err := exec.Command(argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func main() {
	json.NewEncoder(os.Stdout).Encode(handle(os.Stdin, runtime.GOOS))
}

func handle(r io.Reader, goos string) Response {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return Response{Error: fmt.Sprintf("failed to decode request: %v", err)}
	}
	if req.Action != "activate" {
		return Response{Error: fmt.Sprintf("unknown action: %s", req.Action)}
	}

	var cfg bindingConfig
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return Response{Error: fmt.Sprintf("invalid config: %v", err)}
		}
	}

	byOS, ok := commands[cfg.Command]
	if !ok {
		return Response{Error: fmt.Sprintf("unknown command %q for %s", cfg.Command, req.Target)}
	}
	argv, ok := byOS[goos]
	if !ok {
		return Response{Error: fmt.Sprintf("command %s is not supported on %s", cfg.Command, goos)}
	}

	if err := runner(argv); err != nil {
		return Response{Error: fmt.Sprintf("command %s failed: %v", cfg.Command, err)}
	}
	return Response{Success: true}
}

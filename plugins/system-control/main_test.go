package main

import (
	"errors"
	"strings"
	"testing"
)

func TestHandle(t *testing.T) {
	var ran [][]string
	runner = func(argv []string) error {
		ran = append(ran, argv)
		if argv[0] == "fail" {
			return errors.New("boom")
		}
		return nil
	}
	commands["broken"] = map[string][]string{"linux": {"fail"}}
	t.Cleanup(func() { delete(commands, "broken") })

	tests := []struct {
		name    string
		input   string
		goos    string
		success bool
		errPart string
	}{
		{"linux play", `{"action":"activate","target":"radio","config":{"command":"media-play-pause"}}`, "linux", true, ""},
		{"darwin mute", `{"action":"activate","target":"radio","config":{"command":"volume-mute"}}`, "darwin", true, ""},
		{"unsupported os", `{"action":"activate","target":"radio","config":{"command":"media-next"}}`, "plan9", false, "not supported"},
		{"unknown command", `{"action":"activate","target":"radio","config":{"command":"eject"}}`, "linux", false, "unknown command"},
		{"throw ignored", `{"action":"throw","target":"radio"}`, "linux", false, "unknown action"},
		{"runner error", `{"action":"activate","target":"radio","config":{"command":"broken"}}`, "linux", false, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := handle(strings.NewReader(tt.input), tt.goos)
			if resp.Success != tt.success {
				t.Fatalf("Success = %v, error %q", resp.Success, resp.Error)
			}
			if !tt.success && !strings.Contains(resp.Error, tt.errPart) {
				t.Errorf("Error = %q, want it to contain %q", resp.Error, tt.errPart)
			}
		})
	}

	if len(ran) != 3 || ran[0][0] != "playerctl" || ran[1][0] != "osascript" {
		t.Errorf("ran = %v", ran)
	}
}

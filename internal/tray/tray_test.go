package tray

import (
	"testing"

	"github.com/ayusman/chakra/internal/interaction"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name   string
		event  interaction.Event
		want   string
		wantOK bool
	}{
		{"activate", interaction.Event{Kind: interaction.EventActivate, Hand: "right", TargetID: "lamp", Angle: 372.4}, "activated lamp (right hand, 372°)", true},
		{"throw", interaction.Event{Kind: interaction.EventThrow, Hand: "left", TargetID: "cube"}, "threw cube (left hand)", true},
		{"hover", interaction.Event{Kind: interaction.EventHoverStart, Hand: "left", TargetID: "cube"}, "", false},
		{"transition", interaction.Event{Kind: interaction.EventTransition, From: "idle", To: "point"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Describe(tt.event)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Describe() = %q, %v, want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestTray_Publish(t *testing.T) {
	tr := New(true)

	tr.Publish(interaction.Event{Kind: interaction.EventHoverStart, TargetID: "cube"})
	if got := tr.LastGesture(); got != "" {
		t.Errorf("LastGesture() after hover = %q, want empty", got)
	}

	// Publish must not block even when nobody drains the menu loop
	for i := 0; i < 3; i++ {
		tr.Publish(interaction.Event{Kind: interaction.EventThrow, Hand: "right", TargetID: "cube"})
	}
	if got := tr.LastGesture(); got != "threw cube (right hand)" {
		t.Errorf("LastGesture() = %q", got)
	}
}

func TestTray_Toggle(t *testing.T) {
	tr := New(true)

	var calls []bool
	tr.OnToggle(func(enabled bool) { calls = append(calls, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	if len(calls) != 2 || calls[0] != false || calls[1] != true {
		t.Errorf("toggle callbacks = %v, want [false true]", calls)
	}
	if !tr.IsEnabled() {
		t.Error("IsEnabled() = false after two toggles")
	}
}

func TestTray_Titles(t *testing.T) {
	if got := toggleTitle(false); got != "○ Disabled" {
		t.Errorf("toggleTitle(false) = %q", got)
	}
	if got := lastTitle(""); got != "Last: none" {
		t.Errorf("lastTitle(\"\") = %q", got)
	}
}

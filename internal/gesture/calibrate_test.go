package gesture

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/ayusman/chakra/internal/hand"
)

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalibrate(t *testing.T) {
	samples := []json.RawMessage{
		json.RawMessage(`{"kind": "straight", "curls": [0.1, 0.0, 0.1, 0.1, 0.1], "timestamp": 1000}`),
		json.RawMessage(`{"kind": "straight", "curls": [0.1, 0.2, 0.1, 0.1, 0.1], "timestamp": 1100}`),
		json.RawMessage(`{"kind": "curled", "curls": [0.7, 1.0, 0.7, 0.7, 0.7], "timestamp": 2000}`),
	}

	table, err := Calibrate(samples)
	if err != nil {
		t.Fatalf("Calibrate() error = %v", err)
	}

	// thumb: straight mean 0.1, curled mean 0.7
	if !floatEqual(table[hand.Thumb].Straight, 0.3) || !floatEqual(table[hand.Thumb].Curl, 0.5) {
		t.Errorf("thumb thresholds = %+v, want {0.3 0.5}", table[hand.Thumb])
	}

	// index: straight mean 0.1, curled mean 1.0
	if !floatEqual(table[hand.Index].Straight, 0.4) || !floatEqual(table[hand.Index].Curl, 0.7) {
		t.Errorf("index thresholds = %+v, want {0.4 0.7}", table[hand.Index])
	}

	c := NewClassifier(table, 0)
	f := hand.Frame{Curls: [hand.NumFingers]float64{0.9, 0.05, 0.9, 0.9, 0.9}}
	if !c.IndexPoint(&f) {
		t.Error("expected calibrated classifier to detect a point")
	}
}

func TestCalibrate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		samples []json.RawMessage
		wantErr error
	}{
		{
			name:    "empty",
			samples: nil,
			wantErr: ErrNoSamples,
		},
		{
			name: "only straight",
			samples: []json.RawMessage{
				json.RawMessage(`{"kind": "straight", "curls": [0.1, 0.1, 0.1, 0.1, 0.1]}`),
			},
			wantErr: ErrNoSamples,
		},
		{
			name: "curled below straight",
			samples: []json.RawMessage{
				json.RawMessage(`{"kind": "straight", "curls": [0.8, 0.1, 0.1, 0.1, 0.1]}`),
				json.RawMessage(`{"kind": "curled", "curls": [0.2, 0.9, 0.9, 0.9, 0.9]}`),
			},
			wantErr: ErrInvalidThreshold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Calibrate(tt.samples)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Calibrate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCalibrate_InvalidSample(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"invalid json", `{invalid json}`},
		{"unknown kind", `{"kind": "wiggle", "curls": [0, 0, 0, 0, 0]}`},
		{"curl out of range", `{"kind": "curled", "curls": [0, 1.5, 0, 0, 0]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Calibrate([]json.RawMessage{json.RawMessage(tt.raw)})
			if err == nil {
				t.Error("expected error")
			}
		})
	}
}

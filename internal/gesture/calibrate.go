package gesture

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/chakra/internal/hand"
)

// ErrNoSamples is returned when calibration has nothing to work with.
var ErrNoSamples = errors.New("no calibration samples")

// SampleKind tells whether a calibration sample was recorded with the
// fingers held straight or curled.
type SampleKind string

const (
	SampleStraight SampleKind = "straight"
	SampleCurled   SampleKind = "curled"
)

// CurlSample is one recorded calibration sample.
type CurlSample struct {
	Kind      SampleKind               `json:"kind"`
	Curls     [hand.NumFingers]float64 `json:"curls"`
	Timestamp int64                    `json:"timestamp"`
}

// ParseSample decodes and checks a stored sample.
func ParseSample(raw json.RawMessage) (CurlSample, error) {
	var s CurlSample
	if err := json.Unmarshal(raw, &s); err != nil {
		return CurlSample{}, err
	}
	if s.Kind != SampleStraight && s.Kind != SampleCurled {
		return CurlSample{}, fmt.Errorf("unknown sample kind %q", s.Kind)
	}
	for i, c := range s.Curls {
		if c < 0 || c > 1 {
			return CurlSample{}, fmt.Errorf("%s curl %g outside [0,1]", hand.Finger(i), c)
		}
	}
	return s, nil
}

// Calibrate derives a threshold table from straight and curled samples.
// For each finger the gap between the straight and curled means is split
// in thirds: the straight threshold sits one third in, the curl threshold
// two thirds in.
func Calibrate(samples []json.RawMessage) (ThresholdTable, error) {
	if len(samples) == 0 {
		return ThresholdTable{}, ErrNoSamples
	}

	var straightSum, curledSum [hand.NumFingers]float64
	var straightN, curledN int

	for i, raw := range samples {
		s, err := ParseSample(raw)
		if err != nil {
			return ThresholdTable{}, fmt.Errorf("failed to parse sample %d: %w", i, err)
		}

		switch s.Kind {
		case SampleStraight:
			for f, c := range s.Curls {
				straightSum[f] += c
			}
			straightN++
		case SampleCurled:
			for f, c := range s.Curls {
				curledSum[f] += c
			}
			curledN++
		}
	}

	if straightN == 0 || curledN == 0 {
		return ThresholdTable{}, fmt.Errorf("%w: need both straight and curled samples (got %d straight, %d curled)",
			ErrNoSamples, straightN, curledN)
	}

	var table ThresholdTable
	for f := 0; f < hand.NumFingers; f++ {
		straight := straightSum[f] / float64(straightN)
		curled := curledSum[f] / float64(curledN)
		gap := curled - straight
		if gap <= 0 {
			return ThresholdTable{}, fmt.Errorf("%w: %s curled mean %.3f is not above straight mean %.3f",
				ErrInvalidThreshold, hand.Finger(f), curled, straight)
		}
		table[f] = FingerThreshold{
			Straight: straight + gap/3,
			Curl:     straight + 2*gap/3,
		}
	}

	return table, table.Validate()
}

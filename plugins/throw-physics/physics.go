package main

import (
	"errors"
	"math"
)

// gravity in m/s², acting along -Y.
const gravity = 9.81

type vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v vec3) length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// config is read from the interactable's plugin binding. Speed is the launch
// speed of a 1 kg object; heavier objects leave proportionally slower.
type config struct {
	Speed  float64 `json:"speed"`
	Mass   float64 `json:"mass"`
	Height float64 `json:"height"`
}

func defaultConfig() config {
	return config{Speed: 3, Mass: 1, Height: 1}
}

// landing describes where the object comes down.
type landing struct {
	Distance   float64 `json:"distance"`
	FlightTime float64 `json:"flight_time"`
	Point      vec3    `json:"point"`
}

var (
	errZeroDirection = errors.New("direction has zero length")
	errBadConfig     = errors.New("speed and mass must be positive, height non-negative")
)

// simulate launches the object from (0, height, 0) along dir and returns
// where it meets the floor plane y = 0. Drag is ignored.
func simulate(cfg config, dir vec3) (landing, error) {
	if cfg.Speed <= 0 || cfg.Mass <= 0 || cfg.Height < 0 {
		return landing{}, errBadConfig
	}
	n := dir.length()
	if n == 0 || math.IsNaN(n) {
		return landing{}, errZeroDirection
	}

	v := cfg.Speed / cfg.Mass
	vy := v * dir.Y / n
	horiz := math.Hypot(dir.X, dir.Z) / n
	vh := v * horiz

	// h + vy·t - g·t²/2 = 0, positive root
	t := (vy + math.Sqrt(vy*vy+2*gravity*cfg.Height)) / gravity
	dist := vh * t

	var p vec3
	if horiz > 0 {
		hx := dir.X / n / horiz
		hz := dir.Z / n / horiz
		p = vec3{X: hx * dist, Z: hz * dist}
	}

	return landing{Distance: dist, FlightTime: t, Point: p}, nil
}

// Package config defines the chakra configuration and how it is loaded.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ayusman/chakra/internal/gesture"
	"github.com/ayusman/chakra/internal/hand"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Resolver names accepted by Config.Resolver.
const (
	ResolverFrame = "frame"
	ResolverRay   = "ray"
)

// Fingers holds the per-finger curl thresholds.
type Fingers struct {
	Thumb  gesture.FingerThreshold `koanf:"thumb"`
	Index  gesture.FingerThreshold `koanf:"index"`
	Middle gesture.FingerThreshold `koanf:"middle"`
	Ring   gesture.FingerThreshold `koanf:"ring"`
	Pinky  gesture.FingerThreshold `koanf:"pinky"`
}

// Table converts the thresholds to a classifier table.
func (f Fingers) Table() gesture.ThresholdTable {
	return gesture.ThresholdTable{
		hand.Thumb:  f.Thumb,
		hand.Index:  f.Index,
		hand.Middle: f.Middle,
		hand.Ring:   f.Ring,
		hand.Pinky:  f.Pinky,
	}
}

// FingersFromTable is the inverse of Fingers.Table.
func FingersFromTable(t gesture.ThresholdTable) Fingers {
	return Fingers{
		Thumb:  t[hand.Thumb],
		Index:  t[hand.Index],
		Middle: t[hand.Middle],
		Ring:   t[hand.Ring],
		Pinky:  t[hand.Pinky],
	}
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir holds the sqlite database.
	DataDir string `koanf:"data_dir"`

	// PluginDir is scanned for plugin manifests.
	PluginDir string `koanf:"plugin_dir"`

	// TickRate is how many times per second hands are ticked.
	TickRate int `koanf:"tick_rate"`

	// DebounceMS is how long the Buffer state waits before giving up.
	DebounceMS int `koanf:"debounce_ms"`

	// DelayClearMS is how long a lost target stays hovered while pointing.
	DelayClearMS int `koanf:"delay_clear_ms"`

	FullCircleDegrees float64 `koanf:"full_circle_degrees"`
	PalmOpenThreshold float64 `koanf:"palm_open_threshold"`

	Fingers Fingers             `koanf:"fingers"`
	Trace   gesture.TraceConfig `koanf:"trace"`

	// Resolver selects the hit test: "frame" trusts the tracker client's
	// pointed ID, "ray" casts against registered interactable positions.
	Resolver string `koanf:"resolver"`

	PluginTimeoutMS int `koanf:"plugin_timeout_ms"`
	PluginQueueSize int `koanf:"plugin_queue_size"`

	// Tray shows the system tray icon when running "chakra tray".
	Tray bool `koanf:"tray"`

	// Metrics exposes /metrics.
	Metrics bool `koanf:"metrics"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              "127.0.0.1:7777",
		DataDir:           defaultDataDir(),
		PluginDir:         "plugins",
		TickRate:          hand.DefaultTickRate,
		DebounceMS:        250,
		DelayClearMS:      250,
		FullCircleDegrees: 360,
		PalmOpenThreshold: gesture.DefaultPalmOpenThreshold,
		Fingers:           FingersFromTable(gesture.DefaultThresholds()),
		Trace:             gesture.DefaultTraceConfig(),
		Resolver:          ResolverFrame,
		PluginTimeoutMS:   5000,
		PluginQueueSize:   64,
		Tray:              true,
		Metrics:           true,
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chakra"
	}
	return filepath.Join(home, ".chakra")
}

// Validate checks the configuration. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.TickRate <= 0 || c.TickRate > 240 {
		return fmt.Errorf("%w: tick_rate must be in (0, 240], got %d", ErrInvalidConfig, c.TickRate)
	}
	if c.DebounceMS <= 0 {
		return fmt.Errorf("%w: debounce_ms must be positive, got %d", ErrInvalidConfig, c.DebounceMS)
	}
	if c.DelayClearMS <= 0 {
		return fmt.Errorf("%w: delay_clear_ms must be positive, got %d", ErrInvalidConfig, c.DelayClearMS)
	}
	if c.FullCircleDegrees <= 0 {
		return fmt.Errorf("%w: full_circle_degrees must be positive", ErrInvalidConfig)
	}
	if c.PalmOpenThreshold <= 0 || c.PalmOpenThreshold > hand.NumFingers {
		return fmt.Errorf("%w: palm_open_threshold must be in (0, %d]", ErrInvalidConfig, hand.NumFingers)
	}
	if err := c.Fingers.Table().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Trace.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Resolver != ResolverFrame && c.Resolver != ResolverRay {
		return fmt.Errorf("%w: resolver must be %q or %q, got %q", ErrInvalidConfig, ResolverFrame, ResolverRay, c.Resolver)
	}
	if c.PluginTimeoutMS <= 0 {
		return fmt.Errorf("%w: plugin_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.PluginQueueSize <= 0 {
		return fmt.Errorf("%w: plugin_queue_size must be positive", ErrInvalidConfig)
	}
	return nil
}

// DebounceDuration returns DebounceMS as a duration.
func (c *Config) DebounceDuration() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// DelayClearDuration returns DelayClearMS as a duration.
func (c *Config) DelayClearDuration() time.Duration {
	return time.Duration(c.DelayClearMS) * time.Millisecond
}

// PluginTimeout returns PluginTimeoutMS as a duration.
func (c *Config) PluginTimeout() time.Duration {
	return time.Duration(c.PluginTimeoutMS) * time.Millisecond
}

// DBPath returns the sqlite database path inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "chakra.db")
}

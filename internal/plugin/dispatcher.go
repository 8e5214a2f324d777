package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/ayusman/chakra/internal/interaction"
	"github.com/ayusman/chakra/internal/logger"
)

// DefaultQueueSize bounds the dispatcher queue when none is configured.
const DefaultQueueSize = 64

// Binding ties an interactable to the plugin run for its events.
type Binding struct {
	PluginName string
	Config     json.RawMessage
}

// Bindings looks up the plugin bound to a target.
type Bindings interface {
	Binding(targetID string) (Binding, bool)
}

// BindingsFunc adapts a function to Bindings.
type BindingsFunc func(targetID string) (Binding, bool)

func (f BindingsFunc) Binding(targetID string) (Binding, bool) { return f(targetID) }

// Lookup resolves a plugin by name. *Manager implements it.
type Lookup interface {
	Get(name string) (*Plugin, error)
}

// Recorder receives dispatch metrics.
type Recorder interface {
	RecordPluginRun(plugin, status string, seconds float64)
	RecordPluginDropped()
}

type nopRecorder struct{}

func (nopRecorder) RecordPluginRun(string, string, float64) {}
func (nopRecorder) RecordPluginDropped()                    {}

// Run statuses reported to the Recorder.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// DispatcherConfig configures a Dispatcher. Plugins, Runner and Bindings are
// required.
type DispatcherConfig struct {
	Plugins   Lookup
	Runner    Runner
	Bindings  Bindings
	QueueSize int
	Workers   int
	Metrics   Recorder
	Logger    logger.Logger
}

type job struct {
	plugin *Plugin
	req    *Request
}

// Dispatcher turns interaction events into plugin runs. Publish never
// blocks: requests go through a bounded queue and are dropped when it is
// full.
type Dispatcher struct {
	plugins  Lookup
	runner   Runner
	bindings Bindings
	workers  int
	metrics  Recorder
	log      logger.Logger

	queue chan job
	wg    sync.WaitGroup

	mu      sync.RWMutex
	started bool
	closed  bool
}

// NewDispatcher creates a Dispatcher. Call Start to begin running plugins.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Plugins == nil || cfg.Runner == nil || cfg.Bindings == nil {
		panic("plugin: dispatcher requires plugins, runner and bindings")
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopRecorder{}
	}
	return &Dispatcher{
		plugins:  cfg.Plugins,
		runner:   cfg.Runner,
		bindings: cfg.Bindings,
		workers:  cfg.Workers,
		metrics:  cfg.Metrics,
		log:      logger.OrNop(cfg.Logger),
		queue:    make(chan job, cfg.QueueSize),
	}
}

// Start launches the workers. They stop when ctx is done or Close is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(ctx)
	}
}

// Close stops accepting events and waits for queued runs to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

// Pending returns the number of queued runs.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

func actionFor(kind interaction.EventKind) (string, bool) {
	switch kind {
	case interaction.EventActivate:
		return ActionActivate, true
	case interaction.EventInteract:
		return ActionInteract, true
	case interaction.EventEndInteraction:
		return ActionEndInteraction, true
	case interaction.EventThrow:
		return ActionThrow, true
	default:
		return "", false
	}
}

// Publish implements interaction.Sink.
func (d *Dispatcher) Publish(e interaction.Event) {
	action, ok := actionFor(e.Kind)
	if !ok || e.TargetID == "" {
		return
	}

	binding, ok := d.bindings.Binding(e.TargetID)
	if !ok || binding.PluginName == "" {
		return
	}

	ctx := context.Background()
	p, err := d.plugins.Get(binding.PluginName)
	if err != nil {
		d.log.Warn(ctx, "bound plugin unavailable",
			logger.String("plugin", binding.PluginName),
			logger.String("target", e.TargetID),
			logger.Error(err))
		return
	}
	if !p.Manifest.Handles(action) {
		return
	}

	params, err := json.Marshal(Params{Angle: e.Angle, Direction: e.Direction, At: e.At.UnixMilli()})
	if err != nil {
		d.log.Error(ctx, "failed to encode plugin params", logger.Error(err))
		return
	}
	config := binding.Config
	if len(config) == 0 {
		config = json.RawMessage("{}")
	}

	j := job{plugin: p, req: &Request{
		Action: action,
		Target: e.TargetID,
		Hand:   e.Hand,
		Config: config,
		Params: params,
	}}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- j:
	default:
		d.metrics.RecordPluginDropped()
		d.log.Warn(ctx, "plugin queue full, dropping request",
			logger.String("plugin", p.Manifest.Name),
			logger.String("action", action))
	}
}

func (d *Dispatcher) work(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-d.queue:
			if !ok {
				return
			}
			d.run(ctx, j)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, j job) {
	name := j.plugin.Manifest.Name
	start := time.Now()
	resp, err := d.runner.Execute(ctx, j.plugin, j.req)
	elapsed := time.Since(start).Seconds()

	fields := []logger.Field{
		logger.String("plugin", name),
		logger.String("action", j.req.Action),
		logger.String("target", j.req.Target),
	}

	switch {
	case errors.Is(err, ErrTimeout):
		d.metrics.RecordPluginRun(name, StatusTimeout, elapsed)
		d.log.Error(ctx, "plugin timed out", append(fields, logger.Error(err))...)
	case err != nil:
		d.metrics.RecordPluginRun(name, StatusError, elapsed)
		d.log.Error(ctx, "plugin run failed", append(fields, logger.Error(err))...)
	case !resp.Success:
		d.metrics.RecordPluginRun(name, StatusFailed, elapsed)
		d.log.Error(ctx, "plugin reported failure", append(fields, logger.String("reason", resp.Error))...)
	default:
		d.metrics.RecordPluginRun(name, StatusOK, elapsed)
		d.log.Debug(ctx, "plugin run complete", fields...)
	}
}

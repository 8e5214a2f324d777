// Package app wires the chakra gesture engine to its tracker, storage,
// plugins and metrics.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ayusman/chakra/internal/config"
	"github.com/ayusman/chakra/internal/hand"
	"github.com/ayusman/chakra/internal/interaction"
	"github.com/ayusman/chakra/internal/logger"
	"github.com/ayusman/chakra/internal/metrics"
	"github.com/ayusman/chakra/internal/plugin"
	"github.com/ayusman/chakra/internal/store"
)

// Options holds the collaborators of an App. Config is required; the rest
// default to a fresh StreamTracker, a disabled metrics manager and no store.
type Options struct {
	Config  *config.Config
	Store   *store.Store
	Tracker hand.Tracker
	Metrics *metrics.Manager
	Logger  logger.Logger
}

// App is the main application: it feeds tracker frames to the engine and
// runs plugins for the resulting interaction events.
type App struct {
	cfg     *config.Config
	store   *store.Store
	tracker hand.Tracker
	engine  *Engine

	pluginMgr  *plugin.Manager
	pluginExec *plugin.Executor
	dispatcher *plugin.Dispatcher

	metrics *metrics.Manager
	log     logger.Logger

	bindingsMu sync.RWMutex
	bindings   map[string]plugin.Binding

	lastMu    sync.RWMutex
	lastEvent *interaction.Event

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a new App with the given options.
func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.OrNop(opts.Logger)
	m := opts.Metrics
	if m == nil {
		m = metrics.NewManager(metrics.WithMetricsEnabled(false))
	}
	tracker := opts.Tracker
	if tracker == nil {
		tracker = hand.NewStreamTracker(hand.DefaultConfig())
	}

	registry := interaction.NewRegistry()
	var resolver interaction.Resolver
	switch cfg.Resolver {
	case config.ResolverRay:
		resolver = interaction.RayResolver{Registry: registry}
	default:
		resolver = interaction.FrameResolver{Registry: registry}
	}

	engine, err := NewEngine(EngineConfig{
		Thresholds:        cfg.Fingers.Table(),
		PalmOpenThreshold: cfg.PalmOpenThreshold,
		Trace:             cfg.Trace,
		DebounceDuration:  cfg.DebounceDuration(),
		DelayClear:        cfg.DelayClearDuration(),
		FullCircleDegrees: cfg.FullCircleDegrees,
		Registry:          registry,
		Resolver:          resolver,
		Metrics:           m,
		Logger:            log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	a := &App{
		cfg:        cfg,
		store:      opts.Store,
		tracker:    tracker,
		engine:     engine,
		pluginMgr:  plugin.NewManager(cfg.PluginDir, log.Named("plugins")),
		pluginExec: plugin.NewExecutor(cfg.PluginTimeout()),
		metrics:    m,
		log:        log.Named("app"),
		bindings:   make(map[string]plugin.Binding),
	}

	a.dispatcher = plugin.NewDispatcher(plugin.DispatcherConfig{
		Plugins:   a.pluginMgr,
		Runner:    a.pluginExec,
		Bindings:  a,
		QueueSize: cfg.PluginQueueSize,
		Metrics:   m,
		Logger:    log.Named("dispatch"),
	})
	engine.Subscribe(a.dispatcher)
	engine.Subscribe(interaction.SinkFunc(a.remember))

	return a, nil
}

// remember keeps the latest activation or throw for status displays.
func (a *App) remember(e interaction.Event) {
	if e.Kind != interaction.EventActivate && e.Kind != interaction.EventThrow {
		return
	}
	a.lastMu.Lock()
	defer a.lastMu.Unlock()
	a.lastEvent = &e
}

// LastEvent returns the most recent activation or throw.
func (a *App) LastEvent() (interaction.Event, bool) {
	a.lastMu.RLock()
	defer a.lastMu.RUnlock()
	if a.lastEvent == nil {
		return interaction.Event{}, false
	}
	return *a.lastEvent, true
}

// Binding implements plugin.Bindings.
func (a *App) Binding(targetID string) (plugin.Binding, bool) {
	a.bindingsMu.RLock()
	defer a.bindingsMu.RUnlock()
	b, ok := a.bindings[targetID]
	return b, ok
}

// LoadInteractables registers the enabled interactables from the store.
func (a *App) LoadInteractables() error {
	if a.store == nil {
		return nil
	}

	items, err := a.store.Interactables().ListEnabled()
	if err != nil {
		return err
	}
	for _, it := range items {
		a.PutInteractable(it)
	}

	a.log.Info(context.Background(), "loaded interactables", logger.Int("count", len(items)))
	return nil
}

// PutInteractable registers or refreshes a stored interactable in the
// scene. A disabled interactable is removed instead.
func (a *App) PutInteractable(it *store.Interactable) {
	if !it.Enabled {
		a.RemoveInteractable(it.ID)
		return
	}

	a.bindingsMu.Lock()
	a.bindings[it.ID] = plugin.Binding{PluginName: it.PluginName, Config: it.Config}
	a.bindingsMu.Unlock()

	a.engine.PutInteractable(interaction.NewObject(it.ID, it.Name, it.Position, it.Radius))
}

// RemoveInteractable takes an interactable out of the scene.
func (a *App) RemoveInteractable(id string) {
	a.bindingsMu.Lock()
	delete(a.bindings, id)
	a.bindingsMu.Unlock()

	a.engine.RemoveInteractable(id)
}

// ApplyActiveProfile loads the finger profile named by the active_profile
// setting. Without a store or setting the configured thresholds stay.
func (a *App) ApplyActiveProfile() error {
	if a.store == nil {
		return nil
	}

	id, err := a.store.Settings().Get(store.SettingActiveProfile)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	p, err := a.store.Profiles().GetByID(id)
	if err != nil {
		return fmt.Errorf("active profile %s: %w", id, err)
	}
	return a.ApplyProfile(p)
}

// ApplyProfile switches the classifier to the thresholds of p.
func (a *App) ApplyProfile(p *store.Profile) error {
	if err := a.engine.SetThresholds(p.Thresholds, p.PalmOpenThreshold); err != nil {
		return fmt.Errorf("profile %s: %w", p.Name, err)
	}
	a.log.Info(context.Background(), "applied finger profile",
		logger.String("profile", p.Name), logger.Bool("trained", p.Trained))
	return nil
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// Start begins the tick loop and plugin dispatch. It is a no-op when
// already running.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})

	// queued plugin runs outlive the tick loop so Stop can drain them
	a.dispatcher.Start(context.WithoutCancel(ctx))
	go a.runPipeline(ctx, a.done)

	a.log.Info(ctx, "pipeline started",
		logger.Int("tick_rate", a.cfg.TickRate),
		logger.String("session", a.engine.SessionID()))
	return nil
}

// Stop halts the tick loop, drains queued plugin runs and closes the
// tracker. A stopped App cannot be started again.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	a.engine.Reset()
	a.dispatcher.Close()

	if err := a.tracker.Close(); err != nil {
		a.log.Error(context.Background(), "failed to close tracker", logger.Error(err))
	}
	a.log.Info(context.Background(), "pipeline stopped")
}

// SetEnabled enables or disables gesture processing.
func (a *App) SetEnabled(enabled bool) { a.engine.SetEnabled(enabled) }

// IsEnabled returns whether gesture processing is enabled.
func (a *App) IsEnabled() bool { return a.engine.IsEnabled() }

// Engine returns the gesture engine.
func (a *App) Engine() *Engine { return a.engine }

// Tracker returns the frame source.
func (a *App) Tracker() hand.Tracker { return a.tracker }

// Store returns the store, which may be nil.
func (a *App) Store() *store.Store { return a.store }

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager { return a.pluginMgr }

// Metrics returns the metrics manager.
func (a *App) Metrics() *metrics.Manager { return a.metrics }

// Config returns the configuration the app was built with.
func (a *App) Config() *config.Config { return a.cfg }

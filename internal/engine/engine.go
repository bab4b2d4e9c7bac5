// Package engine is the explicit engine context: it owns the entity world,
// the asset cache, the job scheduler and the scene manager, and gates scene
// starts behind a one-shot configuration handshake.
//
// Startup is two-phase. New builds the context synchronously; Boot then runs
// the registered OnLoad callback once, which must call configure. Start is
// rejected until configure has completed.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/novaengine/nova/internal/config"
	"github.com/novaengine/nova/internal/core/asset"
	"github.com/novaengine/nova/internal/core/ecs"
	"github.com/novaengine/nova/internal/core/errs"
	"github.com/novaengine/nova/internal/core/event"
	"github.com/novaengine/nova/internal/core/job"
	"github.com/novaengine/nova/internal/core/scene"
	coresys "github.com/novaengine/nova/internal/core/system"
	"github.com/novaengine/nova/internal/system"
	"github.com/novaengine/nova/internal/window"
)

// Configuration is what game code hands to configure. Nil sections keep the
// engine defaults.
type Configuration struct {
	Name      string
	Window    *config.WindowConfig
	JobSystem *config.JobSystemConfig
	Graphics  *config.GraphicsConfig
	Scenes    map[string]scene.Constructor
}

// ConfigureFunc applies a Configuration. The returned channel yields exactly
// one value, nil on success, and is then closed.
type ConfigureFunc func(cfg Configuration) <-chan error

// OnLoadCallback configures the engine. It is invoked exactly once by Boot
// and must call configure before returning.
type OnLoadCallback func(ctx context.Context, configure ConfigureFunc) error

// Option customises New.
type Option func(*Engine)

// WithDefaults supplies the values used for Configuration sections left nil
// and for the asset root.
func WithDefaults(cfg *config.Config) Option {
	return func(e *Engine) { e.defaults = cfg }
}

// WithWindow replaces the headless window.
func WithWindow(w window.Window) Option {
	return func(e *Engine) { e.window = w }
}

// WithAssetOptions passes options through to the asset cache.
func WithAssetOptions(opts ...asset.Option) Option {
	return func(e *Engine) { e.assetOpts = append(e.assetOpts, opts...) }
}

// Engine is the single engine context. Start, Tick and Shutdown belong to
// the main goroutine; Submit, Assets and Status are safe anywhere.
type Engine struct {
	log       *zap.Logger
	defaults  *config.Config
	assetOpts []asset.Option

	world  *ecs.World
	bus    *event.Bus
	assets *asset.Cache
	scenes *scene.Manager
	runner *coresys.Runner
	window window.Window

	mu       sync.Mutex
	onLoad   OnLoadCallback
	booted   bool
	jobs     *job.Scheduler
	name     string
	graphics config.GraphicsConfig
	showOnce sync.Once

	configured atomic.Bool
	ready      chan struct{}
	failed     chan struct{}
	failOnce   sync.Once
	failErr    error

	shutdown atomic.Bool
	frame    atomic.Pointer[frameStatus]
}

// New builds an unconfigured engine.
func New(log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		log:    log,
		world:  ecs.NewWorld(),
		bus:    event.NewBus(),
		runner: coresys.NewRunner(),
		ready:  make(chan struct{}),
		failed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.defaults == nil {
		e.defaults = config.Defaults()
	}
	if e.window == nil {
		e.window = window.NewHeadless(e.defaults.Window, log)
	}
	e.name = e.defaults.Engine.Name
	e.graphics = e.defaults.Graphics

	e.assets = asset.NewCache(e.defaults.Assets.Root, log.Named("assets"),
		append([]asset.Option{asset.WithSubmitter(decodeSubmitter{e})}, e.assetOpts...)...)
	e.scenes = scene.NewManager(scene.Deps{
		World:  e.world,
		Assets: e.assets,
		Jobs:   e,
		Bus:    e.bus,
		Log:    log.Named("scene"),
	})
	e.runner.Register(system.NewEventSystem(e.bus))
	e.runner.Register(system.NewCleanupSystem(e.world, e.bus))
	e.publishFrame()
	return e
}

func (e *Engine) World() *ecs.World         { return e.world }
func (e *Engine) Bus() *event.Bus           { return e.bus }
func (e *Engine) Assets() *asset.Cache      { return e.assets }
func (e *Engine) Scenes() *scene.Manager    { return e.scenes }
func (e *Engine) Window() window.Window     { return e.window }
func (e *Engine) Log() *zap.Logger          { return e.log }
func (e *Engine) Ready() <-chan struct{}    { return e.ready }
func (e *Engine) Configured() bool          { return e.configured.Load() }
func (e *Engine) Register(s coresys.System) { e.runner.Register(s) }

// Name returns the configured game name.
func (e *Engine) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.name
}

// ClearColor returns the configured background colour.
func (e *Engine) ClearColor() config.Color {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graphics.ClearColor
}

// Jobs returns the scheduler, nil before configuration.
func (e *Engine) Jobs() *job.Scheduler {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.jobs
}

// Submit schedules fn on the job pool. It fails before configuration.
func (e *Engine) Submit(name string, fn func(ctx context.Context) error) error {
	jobs := e.Jobs()
	if jobs == nil {
		return errs.Core("job.submit", "job system is not configured yet")
	}
	return jobs.Submit(name, fn)
}

// decodeSubmitter runs asset decodes on the job pool without drawing on the
// MaxJobs budget.
type decodeSubmitter struct{ e *Engine }

func (d decodeSubmitter) Submit(name string, fn func(ctx context.Context) error) error {
	jobs := d.e.Jobs()
	if jobs == nil {
		return errs.Core("job.submit", "job system is not configured yet")
	}
	return jobs.SubmitUncapped(name, fn)
}

// OnLoad registers the configuration callback. Only one may be registered.
func (e *Engine) OnLoad(cb OnLoadCallback) error {
	if cb == nil {
		return errs.Core("engine.on_load", "nil callback")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.onLoad != nil {
		return errs.Core("engine.on_load", "a load callback is already registered")
	}
	e.onLoad = cb
	return nil
}

// Boot runs the OnLoad callback on its own goroutine and returns at once.
// Use Ready or WaitReady for the outcome. Cancelling ctx abandons a
// configuration that has not completed.
func (e *Engine) Boot(ctx context.Context) error {
	e.mu.Lock()
	cb := e.onLoad
	if cb == nil {
		e.mu.Unlock()
		return errs.Core("engine.boot", "no load callback registered")
	}
	if e.booted {
		e.mu.Unlock()
		return errs.Core("engine.boot", "engine already booted")
	}
	e.booted = true
	e.mu.Unlock()

	go func() {
		err := e.runCallback(ctx, cb)
		if err == nil && !e.configured.Load() {
			err = errs.Core("engine.boot", "load callback returned without configuring the engine")
		}
		if err != nil {
			e.fail(err)
		}
	}()
	return nil
}

func (e *Engine) runCallback(ctx context.Context, cb OnLoadCallback) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("load callback panicked: %v", rec)
		}
	}()
	configure := func(cfg Configuration) <-chan error {
		res := make(chan error, 1)
		res <- e.configure(ctx, cfg)
		close(res)
		return res
	}
	return cb(ctx, configure)
}

func (e *Engine) fail(err error) {
	e.failOnce.Do(func() {
		e.failErr = err
		e.log.Error("engine configuration failed", zap.Error(err))
		close(e.failed)
	})
}

// WaitReady blocks until configuration completes, the callback fails, or
// ctx ends.
func (e *Engine) WaitReady(ctx context.Context) error {
	select {
	case <-e.ready:
		return nil
	case <-e.failed:
		return e.failErr
	case <-ctx.Done():
		return fmt.Errorf("wait for configuration: %w", ctx.Err())
	}
}

func (e *Engine) configure(ctx context.Context, cfg Configuration) error {
	const op = "engine.configure"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.configured.Load() {
		return errs.Core(op, "engine is already configured")
	}
	if e.shutdown.Load() {
		return errs.Core(op, "engine is shutting down")
	}

	merged := *e.defaults
	if cfg.Name != "" {
		merged.Engine.Name = cfg.Name
	}
	if merged.Engine.Name == "" {
		return errs.Core(op, "configuration has no name")
	}
	if cfg.Window != nil {
		merged.Window = *cfg.Window
	}
	if cfg.JobSystem != nil {
		merged.JobSystem = *cfg.JobSystem
	}
	if cfg.Graphics != nil {
		merged.Graphics = *cfg.Graphics
	}
	if err := merged.Validate(); err != nil {
		return errs.Core(op, "%v", err)
	}

	table := scene.NewTable()
	names := make([]string, 0, len(cfg.Scenes))
	for n := range cfg.Scenes {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if err := table.Register(n, cfg.Scenes[n]); err != nil {
			return errs.Core(op, "%v", err)
		}
	}

	e.name = merged.Engine.Name
	e.graphics = merged.Graphics
	e.jobs = job.NewScheduler(job.Config{
		ExecutionThreads: merged.JobSystem.ExecutionThreads,
		MaxJobs:          merged.JobSystem.MaxJobs,
	}, e.log.Named("jobs"))
	e.scenes.SetTable(table)

	var showErr error
	e.showOnce.Do(func() {
		e.window.Configure(merged.Window)
		showErr = e.window.Show()
	})
	if showErr != nil {
		e.log.Warn("window show failed", zap.Error(showErr))
	}

	e.log.Info("engine configured",
		zap.String("name", e.name),
		zap.Strings("scenes", names),
		zap.Int("threads", e.jobs.Threads()),
		zap.Int("max_jobs", merged.JobSystem.MaxJobs),
	)
	e.configured.Store(true)
	close(e.ready)
	return nil
}

// Start transitions to the scene registered as name.
func (e *Engine) Start(name string) error {
	if !e.configured.Load() {
		return errs.Core("engine.start", "start(%q) called before configuration completed", name)
	}
	err := e.scenes.Start(name)
	e.publishFrame()
	return err
}

// ActiveScene returns the active scene, or nil if none has started.
func (e *Engine) ActiveScene() scene.Scene {
	return e.scenes.ActiveScene()
}

// ActiveSceneName returns the active scene's registered name, or "".
func (e *Engine) ActiveSceneName() string {
	return e.scenes.ActiveSceneName()
}

// Tick advances one frame.
func (e *Engine) Tick(dt time.Duration) {
	e.runner.Tick(dt)
	e.publishFrame()
}

// Shutdown stops the active scene, drains the job queue and empties the
// asset cache. Every error is reported.
func (e *Engine) Shutdown(ctx context.Context) error {
	if !e.shutdown.CompareAndSwap(false, true) {
		return nil
	}
	var err error
	err = multierr.Append(err, e.scenes.Shutdown(ctx))
	released := e.world.Clear()
	e.bus.SwapBuffers()

	if jobs := e.Jobs(); jobs != nil {
		err = multierr.Append(err, jobs.Shutdown(ctx))
	}
	err = multierr.Append(err, e.assets.Close(ctx))
	err = multierr.Append(err, e.window.Close())
	e.publishFrame()
	e.log.Info("engine stopped", zap.Int("released", len(released)), zap.Error(err))
	return err
}

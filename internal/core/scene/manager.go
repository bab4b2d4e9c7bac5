package scene

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/novaengine/nova/internal/core/asset"
	"github.com/novaengine/nova/internal/core/ecs"
	"github.com/novaengine/nova/internal/core/errs"
	"github.com/novaengine/nova/internal/core/event"
)

// Deps are the collaborators a Manager drives.
type Deps struct {
	World  *ecs.World
	Assets *asset.Cache
	Jobs   Submitter
	Bus    *event.Bus
	Log    *zap.Logger
}

// Manager owns the active scene. Start and Shutdown are serialised; Active
// may be called from any goroutine.
type Manager struct {
	deps Deps
	log  *zap.Logger

	mu      sync.Mutex
	table   *Table
	pending *Instance // partially built scene left by a failed transition
	closed  bool

	// busy is set while a transition runs; a Start arriving then is parked
	// in next instead of taking mu.
	qmu  sync.Mutex
	busy bool
	next string

	active atomic.Pointer[Instance]

	ctx    context.Context
	cancel context.CancelFunc
}

func NewManager(deps Deps) *Manager {
	if deps.Bus == nil {
		deps.Bus = event.NewBus()
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		deps:   deps,
		log:    deps.Log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetTable installs the scene table. Until it is set every Start fails.
func (m *Manager) SetTable(t *Table) {
	m.mu.Lock()
	m.table = t
	m.mu.Unlock()
}

// Active returns the active instance, or nil before the first successful
// Start.
func (m *Manager) Active() *Instance {
	return m.active.Load()
}

// ActiveScene returns the active scene value, or nil.
func (m *Manager) ActiveScene() Scene {
	if inst := m.active.Load(); inst != nil {
		return inst.scene
	}
	return nil
}

// ActiveSceneName returns the active scene's registered name, or "".
func (m *Manager) ActiveSceneName() string {
	if inst := m.active.Load(); inst != nil {
		return inst.name
	}
	return ""
}

// Pending returns the scene left half-built by the last failed Start.
func (m *Manager) Pending() *Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// Start transitions to the scene registered as name.
//
// Unknown names fail without touching the active scene. Otherwise the new
// scene is constructed and loaded, the active scene (if any) is stopped and
// its entities released, and then the new scene is started. A failing hook
// aborts the transition with the error; nothing is rolled back, and the
// previous scene stays active only if the failure happened during loading.
//
// A Start issued while a transition is running, typically from inside a
// scene hook, returns nil at once and is carried out right after the
// running transition succeeds; if that transition fails the request is
// dropped. Only the latest such request is kept. The error returned is the
// one of the last transition run.
func (m *Manager) Start(name string) error {
	if m.deferStart(name) {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setBusy(true)

	err := m.transition(name)
	for {
		next, ok := m.takeNext(err)
		if !ok {
			return err
		}
		m.log.Info("running deferred scene start", zap.String("scene", next))
		err = m.transition(next)
	}
}

// deferStart parks name as the next transition if one is in progress.
func (m *Manager) deferStart(name string) bool {
	m.qmu.Lock()
	defer m.qmu.Unlock()
	if !m.busy {
		return false
	}
	if m.next != "" && m.next != name {
		m.log.Debug("deferred scene start replaced", zap.String("dropped", m.next))
	}
	m.next = name
	m.log.Debug("scene start deferred", zap.String("scene", name))
	return true
}

// takeNext pops the parked request. A failed transition drops it. The
// manager stops being busy once nothing is left.
func (m *Manager) takeNext(failed error) (string, bool) {
	m.qmu.Lock()
	defer m.qmu.Unlock()
	next := m.next
	m.next = ""
	if next != "" && failed != nil {
		m.log.Warn("deferred scene start dropped", zap.String("scene", next), zap.Error(failed))
		next = ""
	}
	if next == "" {
		m.busy = false
		return "", false
	}
	return next, true
}

func (m *Manager) setBusy(busy bool) {
	m.qmu.Lock()
	m.busy = busy
	if !busy {
		m.next = ""
	}
	m.qmu.Unlock()
}

// transition performs one scene change. mu must be held.
func (m *Manager) transition(name string) error {
	const op = "scene.start"
	if m.closed {
		return errs.Core(op, "engine is shutting down")
	}
	if m.table == nil {
		return errs.Core(op, "engine is not configured")
	}
	ctor, ok := m.table.Lookup(name)
	if !ok {
		return errs.Core(op, "no scene registered as %q", name)
	}
	if m.pending != nil {
		m.release(m.pending)
		m.pending = nil
	}

	inst := m.newInstance(name, ctor())
	log := m.log.With(zap.String("scene", name), zap.String("instance", inst.id))
	prev := m.active.Load()

	// load
	inst.setState(StateLoading)
	m.pending = inst
	if err := m.hook(inst, "load", inst.scene.Load); err != nil {
		m.restoreScope(prev)
		return err
	}
	if err := inst.ctx.await(); err != nil {
		m.restoreScope(prev)
		return fmt.Errorf("%s: await load of %q: %w", op, name, err)
	}
	event.Emit(m.deps.Bus, event.SceneLoaded{Scene: name, Instance: inst.id})
	log.Debug("scene loaded")

	// stop the previous scene strictly before the new one starts
	if prev != nil {
		m.active.Store(nil)
		stopErr := m.stop(prev)
		if stopErr != nil {
			m.restoreScope(nil)
			return stopErr
		}
	}

	if err := m.hook(inst, "start", inst.scene.Start); err != nil {
		m.restoreScope(nil)
		return err
	}
	inst.setState(StateActive)
	m.pending = nil
	m.active.Store(inst)
	m.deps.World.SetScope(inst.Scope())
	event.Emit(m.deps.Bus, event.SceneStarted{Scene: name, Instance: inst.id})
	log.Info("scene started", zap.Int("entities", len(m.deps.World.Owned(inst.Scope()))))
	return nil
}

func (m *Manager) newInstance(name string, s Scene) *Instance {
	inst := &Instance{
		id:    ulid.Make().String(),
		name:  name,
		scene: s,
	}
	inst.ctx = &Context{
		std:    m.ctx,
		inst:   inst,
		world:  m.deps.World,
		assets: m.deps.Assets,
		jobs:   m.deps.Jobs,
		bus:    m.deps.Bus,
		log:    m.log.With(zap.String("scene", name)),
	}
	return inst
}

// hook runs one lifecycle hook with inst's scope current, converting a
// panic into an error.
func (m *Manager) hook(inst *Instance, phase string, fn func(*Context) error) (err error) {
	prev := m.deps.World.SetScope(inst.Scope())
	defer func() {
		if rec := recover(); rec != nil {
			m.log.Error("scene hook panic recovered",
				zap.String("scene", inst.name),
				zap.String("hook", phase),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("scene %q %s hook panicked: %v", inst.name, phase, rec)
		}
		if err != nil {
			m.deps.World.SetScope(prev)
		}
	}()
	if err := fn(inst.ctx); err != nil {
		return fmt.Errorf("scene %q %s: %w", inst.name, phase, err)
	}
	return nil
}

// stop runs inst's stop hook and releases its entities. The entities are
// released even when the hook fails.
func (m *Manager) stop(inst *Instance) error {
	inst.setState(StateStopping)
	err := m.hook(inst, "stop", inst.scene.Stop)
	released := m.release(inst)
	event.Emit(m.deps.Bus, event.SceneStopped{Scene: inst.name, Instance: inst.id, Released: released})
	m.log.Info("scene stopped",
		zap.String("scene", inst.name),
		zap.String("instance", inst.id),
		zap.Int("released", released),
	)
	return err
}

func (m *Manager) release(inst *Instance) int {
	ids := m.deps.World.Release(inst.Scope())
	inst.setState(StateUnloaded)
	return len(ids)
}

func (m *Manager) restoreScope(active *Instance) {
	if active != nil {
		m.deps.World.SetScope(active.Scope())
		return
	}
	m.deps.World.SetScope(ecs.Unscoped)
}

// Shutdown cancels load work that has not started, stops the active scene
// and releases every scene-owned entity. Start fails afterwards.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.setBusy(true)
	defer m.setBusy(false)

	var err error
	if inst := m.active.Load(); inst != nil {
		m.active.Store(nil)
		err = multierr.Append(err, m.stop(inst))
	}
	if m.pending != nil {
		m.release(m.pending)
		m.pending = nil
	}
	m.deps.World.SetScope(ecs.Unscoped)
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = multierr.Append(err, ctxErr)
	}
	return err
}

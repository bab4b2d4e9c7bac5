package scene

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/novaengine/nova/internal/core/asset"
	"github.com/novaengine/nova/internal/core/ecs"
	"github.com/novaengine/nova/internal/core/errs"
	"github.com/novaengine/nova/internal/core/event"
)

// Submitter schedules background work. *job.Scheduler satisfies it.
type Submitter interface {
	Submit(name string, fn func(ctx context.Context) error) error
}

// Context is what a scene's hooks see of the engine. Spawn and the
// registry are main-goroutine only; Load and Submit may also be used from
// jobs the scene submitted.
type Context struct {
	std    context.Context
	inst   *Instance
	world  *ecs.World
	assets *asset.Cache
	jobs   Submitter
	bus    *event.Bus
	log    *zap.Logger

	mu      sync.Mutex
	handles []asset.Handle
	loaded  bool // set once the load phase has been awaited
	pending sync.WaitGroup
}

// Context returns the context cancelled when the engine shuts down.
func (c *Context) Context() context.Context { return c.std }

func (c *Context) Name() string         { return c.inst.name }
func (c *Context) Log() *zap.Logger     { return c.log }
func (c *Context) World() *ecs.World    { return c.world }
func (c *Context) Assets() *asset.Cache { return c.assets }

// Entities returns the live entities this scene owns.
func (c *Context) Entities() []*ecs.GameObject {
	return c.world.Owned(c.inst.Scope())
}

// Spawn creates an entity owned by this scene.
func (c *Context) Spawn(opts ...ecs.SpawnOption) *ecs.GameObject {
	prev := c.world.SetScope(c.inst.Scope())
	obj := c.world.Spawn(opts...)
	c.world.SetScope(prev)
	event.Emit(c.bus, event.EntitySpawned{ID: obj.ID(), Name: obj.Name(), Scope: obj.Scope()})
	return obj
}

// LoadKind loads an asset whose kind is only known at run time. Assets
// loaded during the load hook are awaited before the scene starts; later
// loads are not tracked.
func (c *Context) LoadKind(path string, kind asset.Kind) (asset.Handle, error) {
	h, err := asset.LoadKind(c.assets, path, kind)
	if err != nil {
		return nil, err
	}
	c.track(h)
	return h, nil
}

func (c *Context) track(h asset.Handle) {
	c.mu.Lock()
	if !c.loaded {
		c.handles = append(c.handles, h)
	}
	c.mu.Unlock()
}

// Load is the typed form of Context.LoadKind.
func Load[T asset.Data](c *Context, path string) (*asset.Asset[T], error) {
	a, err := asset.Load[T](c.assets, path)
	if err != nil {
		return nil, err
	}
	c.track(a)
	return a, nil
}

// Submit schedules fn on the job pool. Jobs submitted during the load hook
// are awaited before the scene starts. A job that has not begun when the
// engine shuts down is skipped.
func (c *Context) Submit(name string, fn func(ctx context.Context) error) error {
	if c.jobs == nil {
		return errs.Core("scene.submit", "no job scheduler configured")
	}
	c.pending.Add(1)
	err := c.jobs.Submit(name, func(ctx context.Context) error {
		defer c.pending.Done()
		if c.std.Err() != nil {
			return nil
		}
		return fn(ctx)
	})
	if err != nil {
		c.pending.Done()
	}
	return err
}

// await blocks until every tracked job has finished and every tracked asset
// has settled. Decode failures are left for Asset.Get to report.
func (c *Context) await() error {
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-c.std.Done():
		return c.std.Err()
	}

	c.mu.Lock()
	handles := c.handles
	c.handles = nil
	c.loaded = true
	c.mu.Unlock()

	g, gctx := errgroup.WithContext(c.std)
	for _, h := range handles {
		h := h
		g.Go(func() error { return h.Wait(gctx) })
	}
	return g.Wait()
}

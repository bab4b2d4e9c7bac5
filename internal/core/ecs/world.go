package ecs

import (
	"fmt"
	"sort"
)

// Scope names the owner of a group of entities, normally a scene instance.
// Entities spawned while a scope is current belong to it and are released
// together with it.
type Scope string

// Unscoped owns entities spawned while no scene is loading or active.
const Unscoped Scope = ""

// World is the entity-component registry. It owns the entity pool, the
// per-kind component stores, scene ownership scopes and a deferred
// destruction queue flushed by CleanupSystem each frame.
//
// World is not safe for concurrent use. Spawning and attaching or detaching
// components happen on the main goroutine only.
type World struct {
	pool         *EntityPool
	registry     *Registry
	objects      map[EntityID]*GameObject
	scopes       map[Scope]map[EntityID]struct{}
	scope        Scope
	destroyQueue []EntityID
	spawned      uint64
}

func NewWorld() *World {
	return &World{
		pool:         NewEntityPool(),
		registry:     NewRegistry(),
		objects:      make(map[EntityID]*GameObject, 256),
		scopes:       make(map[Scope]map[EntityID]struct{}),
		destroyQueue: make([]EntityID, 0, 64),
	}
}

func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

// SpawnOption customises Spawn.
type SpawnOption func(*spawnConfig)

type spawnConfig struct {
	name     string
	position Vec3
}

// WithName sets the entity name.
func WithName(name string) SpawnOption {
	return func(c *spawnConfig) { c.name = name }
}

// WithPosition sets the initial Transform position.
func WithPosition(p Vec3) SpawnOption {
	return func(c *spawnConfig) { c.position = p }
}

// Spawn creates an entity with its Transform in the current scope.
// Without WithName the entity is called "GameObject#<n>".
func (w *World) Spawn(opts ...SpawnOption) *GameObject {
	cfg := spawnConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	w.spawned++
	if cfg.name == "" {
		cfg.name = fmt.Sprintf("GameObject#%d", w.spawned)
	}

	id := w.pool.Create()
	obj := &GameObject{
		id:    id,
		name:  cfg.name,
		scope: w.scope,
		world: w,
	}
	t := newTransform(cfg.position)
	t.owner = obj
	w.registry.Store(KindTransform).Set(id, t)
	obj.transform = t

	w.objects[id] = obj
	owned, ok := w.scopes[w.scope]
	if !ok {
		owned = make(map[EntityID]struct{})
		w.scopes[w.scope] = owned
	}
	owned[id] = struct{}{}
	return obj
}

// SetScope makes s the owner of subsequently spawned entities and returns the
// previous scope.
func (w *World) SetScope(s Scope) Scope {
	prev := w.scope
	w.scope = s
	return prev
}

func (w *World) Scope() Scope { return w.scope }

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// Get returns the live entity for id.
func (w *World) Get(id EntityID) (*GameObject, bool) {
	obj, ok := w.objects[id]
	return obj, ok
}

// Len returns the number of live entities.
func (w *World) Len() int { return len(w.objects) }

// Owned returns the live entities of scope s in spawn-slot order.
func (w *World) Owned(s Scope) []*GameObject {
	ids := w.ownedIDs(s)
	out := make([]*GameObject, 0, len(ids))
	for _, id := range ids {
		out = append(out, w.objects[id])
	}
	return out
}

func (w *World) ownedIDs(s Scope) []EntityID {
	owned := w.scopes[s]
	ids := make([]EntityID, 0, len(owned))
	for id := range owned {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Each visits every component of kind in entity order.
func (w *World) Each(kind Kind, fn func(Component)) {
	s, ok := w.registry.Lookup(kind)
	if !ok {
		return
	}
	s.Each(func(_ EntityID, c Component) { fn(c) })
}

// Release destroys every entity owned by s immediately and returns their ids.
func (w *World) Release(s Scope) []EntityID {
	ids := w.ownedIDs(s)
	for _, id := range ids {
		w.destroy(id)
	}
	delete(w.scopes, s)
	return ids
}

// Clear destroys every entity in every scope.
func (w *World) Clear() []EntityID {
	var all []EntityID
	scopes := make([]Scope, 0, len(w.scopes))
	for s := range w.scopes {
		scopes = append(scopes, s)
	}
	sort.Slice(scopes, func(i, j int) bool { return scopes[i] < scopes[j] })
	for _, s := range scopes {
		all = append(all, w.Release(s)...)
	}
	w.destroyQueue = w.destroyQueue[:0]
	return all
}

// MarkForDestruction queues an entity for end-of-frame cleanup.
func (w *World) MarkForDestruction(id EntityID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// FlushDestroyQueue destroys all queued entities and returns the ids that
// were still alive. Called by CleanupSystem at the end of each frame.
func (w *World) FlushDestroyQueue() []EntityID {
	var destroyed []EntityID
	for _, id := range w.destroyQueue {
		if w.destroy(id) {
			destroyed = append(destroyed, id)
		}
	}
	w.destroyQueue = w.destroyQueue[:0]
	return destroyed
}

func (w *World) destroy(id EntityID) bool {
	obj, ok := w.objects[id]
	if !ok {
		return false
	}
	w.registry.Detach(id)
	w.pool.Destroy(id)
	delete(w.objects, id)
	if owned, ok := w.scopes[obj.scope]; ok {
		delete(owned, id)
	}
	return true
}

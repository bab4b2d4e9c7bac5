// Package scene drives the lifecycle of the single active scene.
//
// A transition to a new scene loads it (load hook, then every asset and
// job the hook started), stops the previously active scene, and only then
// starts the new one. Entities spawned by a scene are released when it
// stops.
package scene

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/novaengine/nova/internal/core/ecs"
)

// Scene is implemented by every game scene.
type Scene interface {
	// Load requests the assets the scene needs. It runs before the previous
	// scene is stopped.
	Load(ctx *Context) error
	// Start builds the scene's entities once loading has completed.
	Start(ctx *Context) error
	// Stop runs just before the next scene starts.
	Stop(ctx *Context) error
}

// Constructor builds a fresh scene value for one run.
type Constructor func() Scene

// State is the lifecycle state of a scene instance.
type State int32

const (
	StateUnloaded State = iota
	StateLoading
	StateActive
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "Unloaded"
	case StateLoading:
		return "Loading"
	case StateActive:
		return "Active"
	case StateStopping:
		return "Stopping"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Table maps scene names to constructors.
type Table struct {
	ctors map[string]Constructor
}

func NewTable() *Table {
	return &Table{ctors: make(map[string]Constructor)}
}

// Register adds name. Empty names, nil constructors and duplicates fail.
func (t *Table) Register(name string, ctor Constructor) error {
	if name == "" {
		return fmt.Errorf("scene name is empty")
	}
	if ctor == nil {
		return fmt.Errorf("scene %q has no constructor", name)
	}
	if _, dup := t.ctors[name]; dup {
		return fmt.Errorf("scene %q registered twice", name)
	}
	t.ctors[name] = ctor
	return nil
}

func (t *Table) Lookup(name string) (Constructor, bool) {
	c, ok := t.ctors[name]
	return c, ok
}

// Names returns the registered names sorted.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.ctors))
	for n := range t.ctors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (t *Table) Len() int { return len(t.ctors) }

// Instance is one run of a scene, from construction until it is stopped.
type Instance struct {
	id    string
	name  string
	scene Scene
	state atomic.Int32
	ctx   *Context
}

func (i *Instance) ID() string        { return i.id }
func (i *Instance) Name() string      { return i.name }
func (i *Instance) Scene() Scene      { return i.scene }
func (i *Instance) State() State      { return State(i.state.Load()) }
func (i *Instance) Scope() ecs.Scope  { return ecs.Scope(i.id) }
func (i *Instance) setState(s State)  { i.state.Store(int32(s)) }
func (i *Instance) Context() *Context { return i.ctx }

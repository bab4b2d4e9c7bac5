package ecs

import (
	"sort"

	"github.com/novaengine/nova/internal/core/errs"
)

// GameObject is an entity: an id, a name, a mandatory Transform and at most
// one component of every other kind.
type GameObject struct {
	id        EntityID
	name      string
	scope     Scope
	world     *World
	transform *Transform
}

func (o *GameObject) ID() EntityID          { return o.id }
func (o *GameObject) Name() string          { return o.name }
func (o *GameObject) Scope() Scope          { return o.scope }
func (o *GameObject) Transform() *Transform { return o.transform }

// Alive reports whether the entity is still registered.
func (o *GameObject) Alive() bool {
	cur, ok := o.world.objects[o.id]
	return ok && cur == o
}

// Destroy queues the entity for removal at the end of the frame.
func (o *GameObject) Destroy() {
	o.world.MarkForDestruction(o.id)
}

// AddComponent attaches c. It fails, leaving any existing component in
// place, when a component of the same kind is already attached.
func (o *GameObject) AddComponent(c Component) error {
	const op = "ecs.add_component"
	if c == nil {
		return errs.Component(op, "nil component")
	}
	if !o.Alive() {
		return errs.Component(op, "entity %q has been destroyed", o.name)
	}
	kind := c.Kind()
	if kind == KindInvalid {
		return errs.Component(op, "component has no kind")
	}
	store := o.world.registry.Store(kind)
	if store.Has(o.id) {
		return errs.Component(op, "entity %q already has a %s", o.name, kind)
	}
	if c.Owner() != nil {
		return errs.Component(op, "%s is already attached to %q", kind, c.Owner().name)
	}
	c.base().owner = o
	store.Set(o.id, c)
	return nil
}

// AddKind constructs a component of kind from its registered factory and
// attaches it.
func (o *GameObject) AddKind(kind Kind) (Component, error) {
	if o.HasComponent(kind) {
		return nil, errs.Component("ecs.add_component", "entity %q already has a %s", o.name, kind)
	}
	f := kind.factory()
	if f == nil {
		return nil, errs.Component("ecs.add_component", "kind %s cannot be constructed by name", kind)
	}
	c := f()
	if err := o.AddComponent(c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetComponent returns the component of kind, or false if none is attached.
func (o *GameObject) GetComponent(kind Kind) (Component, bool) {
	if !o.Alive() {
		return nil, false
	}
	s, ok := o.world.registry.Lookup(kind)
	if !ok {
		return nil, false
	}
	return s.Get(o.id)
}

func (o *GameObject) HasComponent(kind Kind) bool {
	_, ok := o.GetComponent(kind)
	return ok
}

// RemoveComponent detaches c from the entity. The Transform can never be
// removed, and c must be the instance currently attached to this entity.
func (o *GameObject) RemoveComponent(c Component) error {
	const op = "ecs.remove_component"
	if c == nil {
		return errs.Component(op, "nil component")
	}
	kind := c.Kind()
	if kind == KindTransform {
		return errs.Component(op, "the Transform of %q cannot be removed", o.name)
	}
	if c.Owner() != o {
		return errs.Component(op, "%s is not attached to %q", kind, o.name)
	}
	s, ok := o.world.registry.Lookup(kind)
	if !ok {
		return errs.Component(op, "%s is not attached to %q", kind, o.name)
	}
	if cur, ok := s.Get(o.id); !ok || cur != c {
		return errs.Component(op, "%s is not attached to %q", kind, o.name)
	}
	c.base().owner = nil
	s.Remove(o.id)
	return nil
}

// Components lists the attached components ordered by kind.
func (o *GameObject) Components() []Component {
	if !o.Alive() {
		return nil
	}
	var out []Component
	for _, s := range o.world.registry.stores {
		if c, ok := s.Get(o.id); ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind() < out[j].Kind() })
	return out
}

// Add constructs a T, attaches it to o and returns it.
func Add[T any, PT interface {
	*T
	Component
}](o *GameObject) (PT, error) {
	c := PT(new(T))
	if err := o.AddComponent(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns o's component of type T.
func Get[T any, PT interface {
	*T
	Component
}](o *GameObject) (PT, bool) {
	var zero T
	c, ok := o.GetComponent(PT(&zero).Kind())
	if !ok {
		return nil, false
	}
	pt, ok := c.(PT)
	return pt, ok
}

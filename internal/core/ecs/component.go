package ecs

import "sort"

// Component is a capability attached to exactly one GameObject. Implementations
// embed Base, which carries the owner back-reference:
//
//	type Health struct {
//		ecs.Base
//		HP int
//	}
//
//	func (*Health) Kind() ecs.Kind { return healthKind }
//
// Kind must not read the receiver; it is called on zero values.
type Component interface {
	Kind() Kind
	Owner() *GameObject
	base() *Base
}

// Base holds the non-owning back-reference to the owning entity.
type Base struct {
	owner *GameObject
}

// Owner returns the entity this component is attached to, or nil once detached.
func (b *Base) Owner() *GameObject { return b.owner }

func (b *Base) base() *Base { return b }

// Store holds the components of a single kind keyed by entity.
type Store struct {
	kind Kind
	data map[EntityID]Component
}

func newStore(kind Kind) *Store {
	return &Store{
		kind: kind,
		data: make(map[EntityID]Component, 64),
	}
}

func (s *Store) Kind() Kind { return s.kind }

func (s *Store) Set(id EntityID, c Component) {
	s.data[id] = c
}

func (s *Store) Get(id EntityID) (Component, bool) {
	c, ok := s.data[id]
	return c, ok
}

func (s *Store) Remove(id EntityID) {
	delete(s.data, id)
}

func (s *Store) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *Store) Len() int {
	return len(s.data)
}

// Each visits components in ascending entity order.
func (s *Store) Each(fn func(EntityID, Component)) {
	ids := make([]EntityID, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fn(id, s.data[id])
	}
}

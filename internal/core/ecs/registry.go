package ecs

// Registry owns one Store per component kind and removes an entity from all
// of them at once on destroy.
type Registry struct {
	stores map[Kind]*Store
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make(map[Kind]*Store, 16),
	}
}

// Store returns the store for kind, creating it on first use.
func (r *Registry) Store(kind Kind) *Store {
	s, ok := r.stores[kind]
	if !ok {
		s = newStore(kind)
		r.stores[kind] = s
	}
	return s
}

// Lookup returns the store for kind without creating it.
func (r *Registry) Lookup(kind Kind) (*Store, bool) {
	s, ok := r.stores[kind]
	return s, ok
}

// Detach clears the owner back-reference of every component id holds and
// removes them from their stores.
func (r *Registry) Detach(id EntityID) {
	for _, s := range r.stores {
		if c, ok := s.Get(id); ok {
			c.base().owner = nil
			s.Remove(id)
		}
	}
}

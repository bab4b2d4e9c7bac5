package ecs

import (
	"fmt"
	"sync"
)

// Kind is the stable identifier of a component type. An entity holds at most
// one component per Kind.
type Kind uint16

const (
	KindInvalid Kind = iota
	KindTransform
	KindSpriteRenderer
)

// Factory builds a fresh, unattached component of one kind.
type Factory func() Component

type kindInfo struct {
	name    string
	factory Factory
}

var (
	kindsMu sync.RWMutex
	kinds   = []kindInfo{
		KindInvalid:        {name: "Invalid"},
		KindTransform:      {name: "Transform"},
		KindSpriteRenderer: {name: "SpriteRenderer", factory: func() Component { return &SpriteRenderer{} }},
	}
	kindsByName = map[string]Kind{
		"Transform":      KindTransform,
		"SpriteRenderer": KindSpriteRenderer,
	}
)

// NewKind mints a Kind for a user component. The factory lets the kind be
// attached by name (scripts); it may be nil for kinds only added from Go.
// Registering a name twice panics: kinds are declared once at init time.
func NewKind(name string, factory Factory) Kind {
	kindsMu.Lock()
	defer kindsMu.Unlock()
	if _, dup := kindsByName[name]; dup {
		panic(fmt.Sprintf("ecs: component kind %q already registered", name))
	}
	k := Kind(len(kinds))
	kinds = append(kinds, kindInfo{name: name, factory: factory})
	kindsByName[name] = k
	return k
}

// KindByName resolves a registered kind name.
func KindByName(name string) (Kind, bool) {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	k, ok := kindsByName[name]
	return k, ok
}

func (k Kind) String() string {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	if int(k) < len(kinds) {
		return kinds[k].name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) factory() Factory {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	if int(k) < len(kinds) {
		return kinds[k].factory
	}
	return nil
}

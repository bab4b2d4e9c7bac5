package ecs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaengine/nova/internal/core/errs"
)

type health struct {
	Base
	HP int
}

var healthKind = NewKind("test.Health", func() Component { return &health{HP: 10} })

func (*health) Kind() Kind { return healthKind }

func TestEntityPool_RecyclesWithNewGeneration(t *testing.T) {
	p := NewEntityPool()

	a := p.Create()
	assert.False(t, a.IsZero())
	assert.Equal(t, uint32(1), a.Index())

	p.Destroy(a)
	assert.False(t, p.Alive(a))

	b := p.Create()
	assert.Equal(t, a.Index(), b.Index())
	assert.Equal(t, a.Generation()+1, b.Generation())
	assert.True(t, p.Alive(b))
	assert.False(t, p.Alive(a), "stale id must not resolve")
	assert.Equal(t, 1, p.Live())
}

func TestSpawn_HasTransform(t *testing.T) {
	w := NewWorld()

	obj := w.Spawn(WithName("Player"), WithPosition(Vec3{X: 1, Y: 2}))

	require.NotNil(t, obj.Transform())
	assert.Equal(t, "Player", obj.Name())
	assert.Equal(t, Vec3{X: 1, Y: 2}, obj.Transform().Position)
	assert.Equal(t, Vec3{X: 1, Y: 1, Z: 1}, obj.Transform().Scale)
	assert.Same(t, obj, obj.Transform().Owner())
	assert.True(t, obj.HasComponent(KindTransform))

	tr, ok := Get[Transform](obj)
	require.True(t, ok)
	assert.Same(t, obj.Transform(), tr)
}

func TestSpawn_DefaultNames(t *testing.T) {
	w := NewWorld()

	assert.Equal(t, "GameObject#1", w.Spawn().Name())
	assert.Equal(t, "GameObject#2", w.Spawn().Name())
}

func TestTransform_CannotBeRemoved(t *testing.T) {
	w := NewWorld()
	obj := w.Spawn()

	err := obj.RemoveComponent(obj.Transform())

	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrComponent))
	assert.True(t, obj.HasComponent(KindTransform))
}

func TestAddComponent_DuplicateKindRejected(t *testing.T) {
	w := NewWorld()
	obj := w.Spawn()

	first := &health{HP: 5}
	require.NoError(t, obj.AddComponent(first))

	second := &health{HP: 99}
	err := obj.AddComponent(second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrComponent))
	assert.Nil(t, second.Owner())

	got, ok := Get[health](obj)
	require.True(t, ok)
	assert.Same(t, first, got, "original component stays attached")
}

func TestAddComponent_SecondTransformRejected(t *testing.T) {
	w := NewWorld()
	obj := w.Spawn()

	_, err := Add[Transform](obj)
	assert.True(t, errors.Is(err, errs.ErrComponent))
}

func TestAddComponent_AlreadyOwnedElsewhere(t *testing.T) {
	w := NewWorld()
	a := w.Spawn()
	b := w.Spawn()

	h := &health{}
	require.NoError(t, a.AddComponent(h))

	err := b.AddComponent(h)
	assert.True(t, errors.Is(err, errs.ErrComponent))
	assert.Same(t, a, h.Owner())
	assert.False(t, b.HasComponent(healthKind))
}

func TestRemoveComponent(t *testing.T) {
	w := NewWorld()
	a := w.Spawn()
	b := w.Spawn()

	h, err := Add[health](a)
	require.NoError(t, err)

	assert.True(t, errors.Is(b.RemoveComponent(h), errs.ErrComponent), "wrong owner")

	require.NoError(t, a.RemoveComponent(h))
	assert.Nil(t, h.Owner())
	assert.False(t, a.HasComponent(healthKind))

	assert.True(t, errors.Is(a.RemoveComponent(h), errs.ErrComponent), "already removed")
}

func TestAddKind_UsesFactory(t *testing.T) {
	w := NewWorld()
	obj := w.Spawn()

	c, err := obj.AddKind(healthKind)
	require.NoError(t, err)
	assert.Equal(t, 10, c.(*health).HP)

	_, err = obj.AddKind(healthKind)
	assert.True(t, errors.Is(err, errs.ErrComponent))

	_, err = obj.AddKind(KindTransform)
	assert.True(t, errors.Is(err, errs.ErrComponent))
}

func TestKinds(t *testing.T) {
	k, ok := KindByName("SpriteRenderer")
	require.True(t, ok)
	assert.Equal(t, KindSpriteRenderer, k)
	assert.Equal(t, "test.Health", healthKind.String())

	assert.Panics(t, func() { NewKind("test.Health", nil) })
}

func TestComponents_OrderedByKind(t *testing.T) {
	w := NewWorld()
	obj := w.Spawn()
	_, err := Add[health](obj)
	require.NoError(t, err)
	_, err = Add[SpriteRenderer](obj)
	require.NoError(t, err)

	comps := obj.Components()
	require.Len(t, comps, 3)
	assert.Equal(t, KindTransform, comps[0].Kind())
	assert.Equal(t, KindSpriteRenderer, comps[1].Kind())
	assert.Equal(t, healthKind, comps[2].Kind())
}

func TestRelease_DestroysOnlyScope(t *testing.T) {
	w := NewWorld()

	w.SetScope("menu")
	m1 := w.Spawn()
	h, err := Add[health](m1)
	require.NoError(t, err)
	m2 := w.Spawn()

	prev := w.SetScope("game")
	assert.Equal(t, Scope("menu"), prev)
	g := w.Spawn()

	released := w.Release("menu")

	assert.ElementsMatch(t, []EntityID{m1.ID(), m2.ID()}, released)
	assert.False(t, m1.Alive())
	assert.False(t, m2.Alive())
	assert.Nil(t, h.Owner())
	assert.Nil(t, m1.Transform().Owner())
	assert.True(t, g.Alive())
	assert.Equal(t, 1, w.Len())
	assert.Empty(t, w.Owned("menu"))
	assert.Equal(t, []*GameObject{g}, w.Owned("game"))
}

func TestDestroyQueue(t *testing.T) {
	w := NewWorld()
	obj := w.Spawn()

	obj.Destroy()
	obj.Destroy()
	assert.True(t, obj.Alive(), "destroy is deferred")

	destroyed := w.FlushDestroyQueue()
	assert.Equal(t, []EntityID{obj.ID()}, destroyed)
	assert.False(t, obj.Alive())
	assert.False(t, w.Alive(obj.ID()))

	err := obj.AddComponent(&health{})
	assert.True(t, errors.Is(err, errs.ErrComponent))
	assert.Empty(t, w.FlushDestroyQueue())
}

func TestEach_VisitsKindInEntityOrder(t *testing.T) {
	w := NewWorld()
	a := w.Spawn()
	b := w.Spawn()

	var owners []*GameObject
	w.Each(KindTransform, func(c Component) { owners = append(owners, c.Owner()) })
	assert.Equal(t, []*GameObject{a, b}, owners)

	called := false
	w.Each(healthKind, func(Component) { called = true })
	assert.False(t, called)
}

func TestClear(t *testing.T) {
	w := NewWorld()
	w.Spawn()
	w.SetScope("s")
	w.Spawn()

	assert.Len(t, w.Clear(), 2)
	assert.Zero(t, w.Len())
	assert.Zero(t, w.Pool().Live())
}

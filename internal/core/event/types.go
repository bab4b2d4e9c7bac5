package event

import "github.com/novaengine/nova/internal/core/ecs"

// Scene lifecycle events. Instance is the unique id of one scene run.

type SceneLoaded struct {
	Scene    string
	Instance string
}

type SceneStarted struct {
	Scene    string
	Instance string
}

type SceneStopped struct {
	Scene    string
	Instance string
	Released int // entities released with the scene
}

type EntitySpawned struct {
	ID    ecs.EntityID
	Name  string
	Scope ecs.Scope
}

type EntityDestroyed struct {
	ID ecs.EntityID
}

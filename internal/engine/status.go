package engine

import (
	"github.com/novaengine/nova/internal/core/asset"
	"github.com/novaengine/nova/internal/core/job"
)

// frameStatus is the part of Status only the main goroutine may compute.
// It is republished after every Start and Tick.
type frameStatus struct {
	Scene      string
	Instance   string
	SceneState string
	Entities   int
	Frames     uint64
}

// Status is a snapshot of the engine for diagnostics.
type Status struct {
	Name       string      `json:"name"`
	Configured bool        `json:"configured"`
	ShutDown   bool        `json:"shut_down"`
	Scene      string      `json:"scene,omitempty"`
	Instance   string      `json:"instance,omitempty"`
	SceneState string      `json:"scene_state,omitempty"`
	Entities   int         `json:"entities"`
	Frames     uint64      `json:"frames"`
	Assets     asset.Stats `json:"assets"`
	Jobs       *job.Stats  `json:"jobs,omitempty"`
}

func (e *Engine) publishFrame() {
	fs := &frameStatus{
		Entities: e.world.Len(),
		Frames:   e.runner.Frames(),
	}
	if inst := e.scenes.Active(); inst != nil {
		fs.Scene = inst.Name()
		fs.Instance = inst.ID()
		fs.SceneState = inst.State().String()
	}
	e.frame.Store(fs)
}

// Status may be called from any goroutine.
func (e *Engine) Status() Status {
	fs := e.frame.Load()
	st := Status{
		Name:       e.Name(),
		Configured: e.configured.Load(),
		ShutDown:   e.shutdown.Load(),
		Scene:      fs.Scene,
		Instance:   fs.Instance,
		SceneState: fs.SceneState,
		Entities:   fs.Entities,
		Frames:     fs.Frames,
		Assets:     e.assets.Stats(),
	}
	if jobs := e.Jobs(); jobs != nil {
		js := jobs.Stats()
		st.Jobs = &js
	}
	return st
}

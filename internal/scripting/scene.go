package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/novaengine/nova/internal/core/asset"
	"github.com/novaengine/nova/internal/core/scene"
	"github.com/novaengine/nova/internal/data"
)

// LuaScene adapts a script module to scene.Scene.
type LuaScene struct {
	engine *Engine
	entry  *data.SceneEntry
	module *lua.LTable
}

func (s *LuaScene) Entry() *data.SceneEntry { return s.entry }

// Load requests the manifest's preload assets, then runs the script's load.
func (s *LuaScene) Load(ctx *scene.Context) error {
	for _, ref := range s.entry.Preload {
		kind, err := asset.ParseKind(ref.Kind)
		if err != nil {
			return err
		}
		if _, err := ctx.LoadKind(ref.Path, kind); err != nil {
			return err
		}
	}
	return s.engine.call(s.module, "load", ctx)
}

func (s *LuaScene) Start(ctx *scene.Context) error {
	return s.engine.call(s.module, "start", ctx)
}

func (s *LuaScene) Stop(ctx *scene.Context) error {
	return s.engine.call(s.module, "stop", ctx)
}

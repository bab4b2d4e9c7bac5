// Package scripting runs scenes written in Lua.
//
// Each script listed in the scene manifest returns a table with optional
// load, start and stop functions. Every hook receives a scene handle:
//
//	local menu = {}
//
//	function menu.load(s)
//	  menu.logo = s:load("ui/logo.png", "SPRITE")
//	end
//
//	function menu.start(s)
//	  local title = s:spawn("title", 0, 120, 0)
//	  title:set_sprite(menu.logo)
//	end
//
//	return menu
//
// Assets answer get() with (true, info) or (false, message). The global
// nova table offers log, start(name) and active_scene(); a start issued
// from a hook takes effect once the running transition has finished.
//
// The VM is single-goroutine: hooks only run on the main goroutine.
package scripting

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/novaengine/nova/internal/core/scene"
	"github.com/novaengine/nova/internal/data"
)

// Director is the engine side scripts drive through nova.start and
// nova.active_scene. *engine.Engine and *scene.Manager satisfy it.
type Director interface {
	Start(name string) error
	ActiveSceneName() string
}

var errNoDirector = errors.New("no engine attached to the script VM")

// Engine wraps a single gopher-lua VM holding every scene script.
type Engine struct {
	vm       *lua.LState
	log      *zap.Logger
	dir      string
	manifest *data.SceneManifest
	modules  map[string]*lua.LTable

	mu     sync.Mutex
	target Director
}

// NewEngine loads the script of every scene in manifest from scriptsDir.
func NewEngine(scriptsDir string, manifest *data.SceneManifest, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{
		vm:       vm,
		log:      log,
		dir:      scriptsDir,
		manifest: manifest,
		modules:  make(map[string]*lua.LTable, manifest.Count()),
	}
	e.registerTypes()

	for i := range manifest.Scenes {
		entry := &manifest.Scenes[i]
		if err := e.loadScene(entry); err != nil {
			vm.Close()
			return nil, err
		}
	}
	return e, nil
}

func (e *Engine) loadScene(entry *data.SceneEntry) error {
	path := filepath.Join(e.dir, filepath.FromSlash(entry.Script))
	fn, err := e.vm.LoadFile(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}); err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	mod, ok := ret.(*lua.LTable)
	if !ok {
		return fmt.Errorf("%s must return a table, got %s", path, ret.Type())
	}
	e.modules[entry.Name] = mod
	e.log.Debug("loaded lua scene", zap.String("scene", entry.Name), zap.String("file", path))
	return nil
}

// Table builds the scene table for every scripted scene.
func (e *Engine) Table() map[string]scene.Constructor {
	out := make(map[string]scene.Constructor, len(e.modules))
	for i := range e.manifest.Scenes {
		entry := &e.manifest.Scenes[i]
		out[entry.Name] = func() scene.Scene {
			return &LuaScene{engine: e, entry: entry, module: e.modules[entry.Name]}
		}
	}
	return out
}

// call invokes module[hook](sceneHandle) if the function exists.
func (e *Engine) call(mod *lua.LTable, hook string, ctx *scene.Context) error {
	fn := mod.RawGetString(hook)
	if fn == lua.LNil {
		return nil
	}
	if fn.Type() != lua.LTFunction {
		return fmt.Errorf("%s is a %s, not a function", hook, fn.Type())
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, e.newSceneHandle(ctx)); err != nil {
		return fmt.Errorf("lua %s: %w", hook, err)
	}
	return nil
}

// SetDirector attaches the engine that nova.start and nova.active_scene act
// on.
func (e *Engine) SetDirector(d Director) {
	e.mu.Lock()
	e.target = d
	e.mu.Unlock()
}

func (e *Engine) director() Director {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.target
}

func (e *Engine) Close() {
	e.vm.Close()
}

// logArgs joins Lua values the way print does.
func logArgs(L *lua.LState, from int) string {
	parts := make([]string, 0, L.GetTop())
	for i := from; i <= L.GetTop(); i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	return strings.Join(parts, " ")
}

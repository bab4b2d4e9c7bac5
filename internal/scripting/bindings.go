package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/novaengine/nova/internal/core/asset"
	"github.com/novaengine/nova/internal/core/ecs"
	"github.com/novaengine/nova/internal/core/scene"
)

const (
	sceneType  = "nova.scene"
	objectType = "nova.object"
	assetType  = "nova.asset"
)

func (e *Engine) registerTypes() {
	L := e.vm

	nova := L.NewTable()
	L.SetFuncs(nova, map[string]lua.LGFunction{
		"log": func(L *lua.LState) int {
			e.log.Info(logArgs(L, 1), zap.String("source", "lua"))
			return 0
		},
		"start":        e.novaStart,
		"active_scene": e.novaActiveScene,
	})
	L.SetGlobal("nova", nova)

	sceneMT := L.NewTypeMetatable(sceneType)
	L.SetField(sceneMT, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"name":     sceneName,
		"spawn":    sceneSpawn,
		"load":     sceneLoad,
		"log":      sceneLog,
		"find":     sceneFind,
		"entities": sceneEntities,
	}))

	objMT := L.NewTypeMetatable(objectType)
	L.SetField(objMT, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"name":             objName,
		"id":               objID,
		"alive":            objAlive,
		"add_component":    objAddComponent,
		"has_component":    objHasComponent,
		"remove_component": objRemoveComponent,
		"position":         objPosition,
		"set_position":     objSetPosition,
		"translate":        objTranslate,
		"set_sprite":       objSetSprite,
		"destroy":          objDestroy,
	}))

	assetMT := L.NewTypeMetatable(assetType)
	L.SetField(assetMT, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"path":  assetPath,
		"kind":  assetKind,
		"ready": assetReady,
		"get":   assetGet,
	}))
}

func (e *Engine) newSceneHandle(ctx *scene.Context) *lua.LUserData {
	ud := e.vm.NewUserData()
	ud.Value = ctx
	e.vm.SetMetatable(ud, e.vm.GetTypeMetatable(sceneType))
	return ud
}

func pushObject(L *lua.LState, obj *ecs.GameObject) {
	ud := L.NewUserData()
	ud.Value = obj
	L.SetMetatable(ud, L.GetTypeMetatable(objectType))
	L.Push(ud)
}

func pushAsset(L *lua.LState, h asset.Handle) {
	ud := L.NewUserData()
	ud.Value = h
	L.SetMetatable(ud, L.GetTypeMetatable(assetType))
	L.Push(ud)
}

// pushFail pushes the (false, message) pair scripts check for recoverable
// failures.
func pushFail(L *lua.LState, err error) int {
	L.Push(lua.LFalse)
	L.Push(lua.LString(err.Error()))
	return 2
}

func checkScene(L *lua.LState) *scene.Context {
	ud := L.CheckUserData(1)
	if ctx, ok := ud.Value.(*scene.Context); ok {
		return ctx
	}
	L.ArgError(1, "scene expected")
	return nil
}

func checkObject(L *lua.LState, n int) *ecs.GameObject {
	ud := L.CheckUserData(n)
	if obj, ok := ud.Value.(*ecs.GameObject); ok {
		return obj
	}
	L.ArgError(n, "game object expected")
	return nil
}

func checkAsset(L *lua.LState, n int) asset.Handle {
	ud := L.CheckUserData(n)
	if h, ok := ud.Value.(asset.Handle); ok {
		return h
	}
	L.ArgError(n, "asset expected")
	return nil
}

func checkKind(L *lua.LState, n int) ecs.Kind {
	name := L.CheckString(n)
	kind, ok := ecs.KindByName(name)
	if !ok {
		L.ArgError(n, "unknown component kind "+name)
	}
	return kind
}

// ── nova ──

// nova.start(name) requests a scene change. From inside a hook the change
// happens once the running transition has finished.
func (e *Engine) novaStart(L *lua.LState) int {
	name := L.CheckString(1)
	d := e.director()
	if d == nil {
		return pushFail(L, errNoDirector)
	}
	if err := d.Start(name); err != nil {
		return pushFail(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

// nova.active_scene() returns the active scene's name, or nil.
func (e *Engine) novaActiveScene(L *lua.LState) int {
	d := e.director()
	if d == nil {
		L.Push(lua.LNil)
		return 1
	}
	if name := d.ActiveSceneName(); name != "" {
		L.Push(lua.LString(name))
		return 1
	}
	L.Push(lua.LNil)
	return 1
}

// ── scene ──

func sceneName(L *lua.LState) int {
	L.Push(lua.LString(checkScene(L).Name()))
	return 1
}

// s:spawn([name], [x, y, z])
func sceneSpawn(L *lua.LState) int {
	ctx := checkScene(L)
	var opts []ecs.SpawnOption
	pos := 2
	if L.Get(2).Type() == lua.LTString {
		opts = append(opts, ecs.WithName(L.CheckString(2)))
		pos = 3
	}
	if L.GetTop() >= pos {
		opts = append(opts, ecs.WithPosition(ecs.Vec3{
			X: float32(L.OptNumber(pos, 0)),
			Y: float32(L.OptNumber(pos+1, 0)),
			Z: float32(L.OptNumber(pos+2, 0)),
		}))
	}
	pushObject(L, ctx.Spawn(opts...))
	return 1
}

// s:load(path, kind) returns an asset, or nil and a message.
func sceneLoad(L *lua.LState) int {
	ctx := checkScene(L)
	path := L.CheckString(2)
	kind, err := asset.ParseKind(L.CheckString(3))
	if err != nil {
		L.ArgError(3, err.Error())
		return 0
	}
	h, err := ctx.LoadKind(path, kind)
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	pushAsset(L, h)
	return 1
}

func sceneLog(L *lua.LState) int {
	ctx := checkScene(L)
	ctx.Log().Info(logArgs(L, 2), zap.String("source", "lua"))
	return 0
}

func sceneFind(L *lua.LState) int {
	ctx := checkScene(L)
	name := L.CheckString(2)
	for _, obj := range ctx.Entities() {
		if obj.Name() == name {
			pushObject(L, obj)
			return 1
		}
	}
	L.Push(lua.LNil)
	return 1
}

func sceneEntities(L *lua.LState) int {
	ctx := checkScene(L)
	L.Push(lua.LNumber(len(ctx.Entities())))
	return 1
}

// ── game object ──

func objName(L *lua.LState) int {
	L.Push(lua.LString(checkObject(L, 1).Name()))
	return 1
}

func objID(L *lua.LState) int {
	L.Push(lua.LNumber(checkObject(L, 1).ID()))
	return 1
}

func objAlive(L *lua.LState) int {
	L.Push(lua.LBool(checkObject(L, 1).Alive()))
	return 1
}

func objAddComponent(L *lua.LState) int {
	obj := checkObject(L, 1)
	if _, err := obj.AddKind(checkKind(L, 2)); err != nil {
		return pushFail(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

func objHasComponent(L *lua.LState) int {
	obj := checkObject(L, 1)
	L.Push(lua.LBool(obj.HasComponent(checkKind(L, 2))))
	return 1
}

func objRemoveComponent(L *lua.LState) int {
	obj := checkObject(L, 1)
	kind := checkKind(L, 2)
	c, ok := obj.GetComponent(kind)
	if !ok {
		L.Push(lua.LFalse)
		L.Push(lua.LString(kind.String() + " is not attached"))
		return 2
	}
	if err := obj.RemoveComponent(c); err != nil {
		return pushFail(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

func objPosition(L *lua.LState) int {
	p := checkObject(L, 1).Transform().Position
	L.Push(lua.LNumber(p.X))
	L.Push(lua.LNumber(p.Y))
	L.Push(lua.LNumber(p.Z))
	return 3
}

func objSetPosition(L *lua.LState) int {
	t := checkObject(L, 1).Transform()
	t.Position = ecs.Vec3{
		X: float32(L.CheckNumber(2)),
		Y: float32(L.CheckNumber(3)),
		Z: float32(L.OptNumber(4, 0)),
	}
	return 0
}

func objTranslate(L *lua.LState) int {
	checkObject(L, 1).Transform().Translate(ecs.Vec3{
		X: float32(L.OptNumber(2, 0)),
		Y: float32(L.OptNumber(3, 0)),
		Z: float32(L.OptNumber(4, 0)),
	})
	return 0
}

// obj:set_sprite(asset) attaches a SpriteRenderer if needed and sets it.
func objSetSprite(L *lua.LState) int {
	obj := checkObject(L, 1)
	sprite, ok := checkAsset(L, 2).(*asset.Asset[asset.SpriteData])
	if !ok {
		L.ArgError(2, "sprite asset expected")
		return 0
	}
	r, ok := ecs.Get[ecs.SpriteRenderer](obj)
	if !ok {
		var err error
		if r, err = ecs.Add[ecs.SpriteRenderer](obj); err != nil {
			return pushFail(L, err)
		}
	}
	r.SetSprite(sprite)
	L.Push(lua.LTrue)
	return 1
}

func objDestroy(L *lua.LState) int {
	checkObject(L, 1).Destroy()
	return 0
}

// ── asset ──

func assetPath(L *lua.LState) int {
	L.Push(lua.LString(checkAsset(L, 1).Path()))
	return 1
}

func assetKind(L *lua.LState) int {
	L.Push(lua.LString(checkAsset(L, 1).Kind().String()))
	return 1
}

func assetReady(L *lua.LState) int {
	L.Push(lua.LBool(checkAsset(L, 1).Ready()))
	return 1
}

// a:get() returns true and a table describing the decoded data, or false
// and the load error when decoding failed or produced another kind.
func assetGet(L *lua.LState) int {
	info := L.NewTable()
	switch a := checkAsset(L, 1).(type) {
	case *asset.Asset[asset.SpriteData]:
		d, err := a.Get()
		if err != nil {
			return pushFail(L, err)
		}
		info.RawSetString("width", lua.LNumber(d.Width))
		info.RawSetString("height", lua.LNumber(d.Height))
		info.RawSetString("words", lua.LNumber(len(d.Words())))
	case *asset.Asset[asset.AudioData]:
		d, err := a.Get()
		if err != nil {
			return pushFail(L, err)
		}
		info.RawSetString("sample_rate", lua.LNumber(d.SampleRate))
		info.RawSetString("channels", lua.LNumber(d.Channels))
		info.RawSetString("bit_depth", lua.LNumber(d.BitDepth))
		info.RawSetString("frames", lua.LNumber(d.Frames()))
		info.RawSetString("words", lua.LNumber(len(d.Words())))
	default:
		L.ArgError(1, "asset expected")
		return 0
	}
	L.Push(lua.LTrue)
	L.Push(info)
	return 2
}

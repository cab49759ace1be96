package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// DefaultGrowthChance is used when the growth script is missing or fails:
// the dry-farmland chance of 1/(floor(25/1)+1).
const DefaultGrowthChance = 1.0 / 26.0

// Engine wraps a single gopher-lua VM for world rule formulas.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	for _, sub := range []string{"core", "world"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// LoadString runs a chunk of Lua source, replacing any globals it defines.
func (e *Engine) LoadString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("load lua source: %w", err)
	}
	return nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) Close() {
	e.vm.Close()
}

// GrowthContext holds pre-packed data for one crop random tick.
type GrowthContext struct {
	Crop     string
	Age      int
	MaxAge   int
	Light    int
	MinLight int
	Hydrated bool // farmland under the crop is wet
	Crowded  bool // same crop on both axes next to it
}

// CropGrowthChance calls the Lua calc_crop_growth function and returns the
// probability in [0,1] that this random tick advances the crop one stage.
func (e *Engine) CropGrowthChance(ctx GrowthContext) float64 {
	fn := e.vm.GetGlobal("calc_crop_growth")
	if fn == lua.LNil {
		e.log.Error("lua function calc_crop_growth not found")
		return DefaultGrowthChance
	}

	t := e.vm.NewTable()
	t.RawSetString("crop", lua.LString(ctx.Crop))
	t.RawSetString("age", lua.LNumber(ctx.Age))
	t.RawSetString("max_age", lua.LNumber(ctx.MaxAge))
	t.RawSetString("light", lua.LNumber(ctx.Light))
	t.RawSetString("min_light", lua.LNumber(ctx.MinLight))
	t.RawSetString("hydrated", lua.LBool(ctx.Hydrated))
	t.RawSetString("crowded", lua.LBool(ctx.Crowded))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_crop_growth error", zap.Error(err))
		return DefaultGrowthChance
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua calc_crop_growth returned non-table")
		return DefaultGrowthChance
	}

	chance := float64(lua.LVAsNumber(rt.RawGetString("chance")))
	switch {
	case chance < 0:
		return 0
	case chance > 1:
		return 1
	}
	return chance
}

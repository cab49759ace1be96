package scripting

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func scriptsDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "scripts")
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(scriptsDir(t), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestCropGrowthChance(t *testing.T) {
	e := newEngine(t)
	base := GrowthContext{Crop: "wheat", Age: 0, MaxAge: 7, Light: 15, MinLight: 9}

	assert.InDelta(t, 1.0/26.0, e.CropGrowthChance(base), 1e-9)

	wet := base
	wet.Hydrated = true
	assert.InDelta(t, 1.0/9.0, e.CropGrowthChance(wet), 1e-9)

	crowded := wet
	crowded.Crowded = true
	assert.InDelta(t, 1.0/17.0, e.CropGrowthChance(crowded), 1e-9)
}

func TestCropGrowthChanceBlocked(t *testing.T) {
	e := newEngine(t)

	mature := GrowthContext{Crop: "wheat", Age: 7, MaxAge: 7, Light: 15, MinLight: 9}
	assert.Zero(t, e.CropGrowthChance(mature))

	dark := GrowthContext{Crop: "wheat", Age: 1, MaxAge: 7, Light: 3, MinLight: 9}
	assert.Zero(t, e.CropGrowthChance(dark))
}

func TestCropGrowthChanceFallbacks(t *testing.T) {
	e, err := NewEngine(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	ctx := GrowthContext{Crop: "wheat", MaxAge: 7, Light: 15, MinLight: 9}
	assert.Equal(t, DefaultGrowthChance, e.CropGrowthChance(ctx), "missing function")

	require.NoError(t, e.LoadString(`function calc_crop_growth(ctx) return 5 end`))
	assert.Equal(t, DefaultGrowthChance, e.CropGrowthChance(ctx), "non-table result")

	require.NoError(t, e.LoadString(`function calc_crop_growth(ctx) error("boom") end`))
	assert.Equal(t, DefaultGrowthChance, e.CropGrowthChance(ctx), "script error")

	require.NoError(t, e.LoadString(`function calc_crop_growth(ctx) return { chance = 4 } end`))
	assert.Equal(t, 1.0, e.CropGrowthChance(ctx), "clamped high")

	require.NoError(t, e.LoadString(`function calc_crop_growth(ctx) return { chance = -1 } end`))
	assert.Equal(t, 0.0, e.CropGrowthChance(ctx), "clamped low")
}

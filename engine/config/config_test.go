package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestParseTOMLOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
backend = "wgpu"

[shadow]
resolution = 1024

[profiling]
interval = "250ms"
`), ".toml")
	require.NoError(t, err)

	assert.Equal(t, BackendWGPU, cfg.Backend)
	assert.Equal(t, 1024, cfg.Shadow.Resolution)
	assert.Equal(t, float32(50), cfg.Shadow.DirectionalDistance)
	assert.Equal(t, 250*time.Millisecond, cfg.Profiling.Interval.Std())
	assert.Equal(t, Default().Window, cfg.Window)
}

func TestParseYAML(t *testing.T) {
	cfg, err := Parse([]byte(`
culling:
  radius_scale: 2.5
batching:
  epsilon: 0.01
window:
  width: 640
profiling:
  interval: 2s
`), "yml")
	require.NoError(t, err)

	assert.Equal(t, float32(2.5), cfg.Culling.RadiusScale)
	assert.Equal(t, float32(0.01), cfg.Batching.Epsilon)
	assert.Equal(t, 640, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, 2*time.Second, cfg.Profiling.Interval.Std())
}

func TestParseRejectsUnknownFormat(t *testing.T) {
	_, err := Parse([]byte(`{}`), ".json")
	assert.ErrorIs(t, err, ErrFormat)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Backend = "vulkan"
	cfg.Shadow.Resolution = 1000
	cfg.Culling.RadiusScale = 0

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, `backend "vulkan"`)
	assert.ErrorContains(t, err, "power of two")
	assert.ErrorContains(t, err, "radius_scale")
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.toml")
	require.NoError(t, os.WriteFile(path, []byte("tick_rate = 30\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.TickRate)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestWatchDeliversReloadedConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tick_rate: 30\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := Watch(ctx, path, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("tick_rate: 90\n"), 0o644))

	select {
	case cfg := <-ch:
		assert.Equal(t, 90, cfg.TickRate)
	case <-time.After(5 * time.Second):
		t.Fatal("no config delivered")
	}

	cancel()
	for range ch {
	}
}

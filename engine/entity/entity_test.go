package entity

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/mesh"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
)

func newMeshes(t *testing.T, dev gpu.Device, n int) []mesh.Mesh {
	t.Helper()
	out := make([]mesh.Mesh, n)
	for i := range out {
		m, err := mesh.New(dev, mesh.Cube(1))
		require.NoError(t, err)
		out[i] = m
	}
	return out
}

func threeLevels(t *testing.T) (Entity, []mesh.Mesh) {
	t.Helper()
	meshes := newMeshes(t, gpu.NewRecorder(), 3)
	e, err := New("tree", []LODLevel{
		{MaxDistance: 25, Meshes: meshes[0:1]},
		{MaxDistance: 50, Meshes: meshes[1:2]},
		{MaxDistance: Unbounded, Meshes: meshes[2:3]},
	})
	require.NoError(t, err)
	return e, meshes
}

func TestSelectLODThresholds(t *testing.T) {
	e, meshes := threeLevels(t)

	cases := []struct {
		distance float32
		level    int
	}{
		{10, 0},
		{25, 0},
		{30, 1},
		{60, 2},
		{1e9, 2},
	}
	for _, tc := range cases {
		lvl, got := e.SelectLOD(tc.distance)
		assert.Equal(t, tc.level, lvl, "distance %g", tc.distance)
		require.Len(t, got, 1)
		assert.Same(t, meshes[tc.level], got[0])
	}
}

func TestSelectLODBeyondLastFiniteThreshold(t *testing.T) {
	meshes := newMeshes(t, gpu.NewRecorder(), 2)
	e, err := New("rock", []LODLevel{
		{MaxDistance: 10, Meshes: meshes[0:1]},
		{MaxDistance: 20, Meshes: meshes[1:2]},
	})
	require.NoError(t, err)

	lvl, got := e.SelectLOD(500)
	assert.Equal(t, 1, lvl)
	assert.Same(t, meshes[1], got[0])
}

func TestSelectLODIsMonotonic(t *testing.T) {
	e, _ := threeLevels(t)
	prev := -1
	for d := float32(0); d < 200; d += 0.5 {
		lvl, _ := e.SelectLOD(d)
		require.GreaterOrEqual(t, lvl, prev, "distance %g", d)
		prev = lvl
	}
}

func TestSelectLODWithoutLevels(t *testing.T) {
	e, err := New("empty", nil)
	require.NoError(t, err)
	lvl, meshes := e.SelectLOD(1)
	assert.Equal(t, -1, lvl)
	assert.Nil(t, meshes)
}

func TestNewRejectsUnorderedLevels(t *testing.T) {
	for _, thresholds := range [][]float32{{50, 25}, {10, 10}} {
		lods := make([]LODLevel, len(thresholds))
		for i, d := range thresholds {
			lods[i].MaxDistance = d
		}
		_, err := New("bad", lods)
		assert.ErrorIs(t, err, ErrLODOrder)
	}
}

func TestNewDefaultsAndOptions(t *testing.T) {
	e, err := New("crate", nil,
		WithPosition(mgl32.Vec3{1, 2, 3}),
		WithScale(mgl32.Vec3{2, 2, 2}),
		WithCullModes(gpu.CullNone),
		WithLightVisual(),
	)
	require.NoError(t, err)
	assert.True(t, e.Active)
	assert.True(t, e.LightVisual)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, e.ModelMatrix().Col(3).Vec3())
	assert.InDelta(t, 2*1.7320508*DefaultRadiusScale, e.BoundingRadius(DefaultRadiusScale), 1e-4)

	d, err := New("plain", nil)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, d.Scale)
}

func TestEffectiveCull(t *testing.T) {
	meshes := newMeshes(t, gpu.NewRecorder(), 2)
	e, err := New("fence", []LODLevel{{MaxDistance: Unbounded, Meshes: meshes}}, WithCullModes(gpu.CullNone))
	require.NoError(t, err)

	assert.Equal(t, gpu.CullNone, e.EffectiveCull(0, meshes[0]))
	assert.Equal(t, gpu.CullBack, e.EffectiveCull(1, meshes[1]))
}

func TestDeactivate(t *testing.T) {
	e, _ := threeLevels(t)
	e.Deactivate()
	assert.False(t, e.Active)
	lvl, meshes := e.SelectLOD(10)
	assert.Equal(t, -1, lvl)
	assert.Nil(t, meshes)
}

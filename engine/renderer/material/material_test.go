package material

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/common"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
)

func TestNewMaterialDefaults(t *testing.T) {
	m := NewMaterial(WithName("bark"))
	assert.Equal(t, "bark", m.Name())
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, m.BaseColor())
	assert.Equal(t, float32(1), m.Roughness())
	assert.Equal(t, AlphaOpaque, m.AlphaMode())
	assert.Equal(t, float32(0.5), m.AlphaCutoff())
	assert.True(t, m.AlbedoMap().IsZero())
}

func TestSameBatch(t *testing.T) {
	a := NewMaterial(WithMaps(1, 2, 3, 0), WithMetallic(0.5), WithRoughness(0.25))

	cases := []struct {
		name  string
		other Material
		want  bool
	}{
		{"identical", NewMaterial(WithMaps(1, 2, 3, 0), WithMetallic(0.5), WithRoughness(0.25)), true},
		{"within epsilon", NewMaterial(WithMaps(1, 2, 3, 0), WithMetallic(0.5004), WithRoughness(0.2496)), true},
		{"base color ignored", NewMaterial(WithMaps(1, 2, 3, 0), WithMetallic(0.5), WithRoughness(0.25), WithBaseColor(mgl32.Vec4{1, 0, 0, 1})), true},
		{"alpha mode ignored", NewMaterial(WithMaps(1, 2, 3, 0), WithMetallic(0.5), WithRoughness(0.25), WithAlphaMode(AlphaMasked, 0.5)), true},
		{"metallic differs", NewMaterial(WithMaps(1, 2, 3, 0), WithMetallic(0.6), WithRoughness(0.25)), false},
		{"roughness differs", NewMaterial(WithMaps(1, 2, 3, 0), WithMetallic(0.5), WithRoughness(0.3)), false},
		{"albedo differs", NewMaterial(WithMaps(9, 2, 3, 0), WithMetallic(0.5), WithRoughness(0.25)), false},
		{"emissive differs", NewMaterial(WithMaps(1, 2, 3, 4), WithMetallic(0.5), WithRoughness(0.25)), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, a.SameBatch(tc.other, DefaultBatchEpsilon))
		})
	}
}

func TestReleaseFreesMaps(t *testing.T) {
	dev := gpu.NewRecorder()
	albedo, err := dev.CreateTexture(common.SolidTexture(255, 0, 0, 255))
	require.NoError(t, err)

	m := NewMaterial(WithAlbedoMap(albedo))
	m.Release(dev)
	assert.False(t, dev.Valid(albedo))
	assert.True(t, m.AlbedoMap().IsZero())
	m.Release(dev)
}

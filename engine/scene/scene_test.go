package scene

import (
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/entity"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/light"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/mesh"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
)

var white = mgl32.Vec3{1, 1, 1}

func cubeLOD(t *testing.T) []entity.LODLevel {
	t.Helper()
	m, err := mesh.New(gpu.NewRecorder(), mesh.Cube(1))
	require.NoError(t, err)
	return []entity.LODLevel{{MaxDistance: entity.Unbounded, Meshes: []mesh.Mesh{m}}}
}

func TestCreateEntityHandlesAreStable(t *testing.T) {
	s := NewScene("test")
	lods := cubeLOD(t)

	a, err := s.CreateEntity("a", lods, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{}, white)
	require.NoError(t, err)
	b, err := s.CreateEntity("b", lods, mgl32.Vec3{2, 0, 0}, mgl32.Vec3{}, white, gpu.CullNone)
	require.NoError(t, err)

	assert.Equal(t, EntityHandle(0), a)
	assert.Equal(t, EntityHandle(1), b)
	assert.Equal(t, []gpu.CullMode{gpu.CullNone}, s.Entity(b).CullModes)

	require.NoError(t, s.DeactivateEntity("a"))
	h, ok := s.EntityByName("b")
	require.True(t, ok)
	assert.Equal(t, b, h)
	assert.Len(t, s.Entities(), 2)
	assert.False(t, s.Entity(a).Active)
	assert.Nil(t, s.Entity(5))
}

func TestCreateEntityErrors(t *testing.T) {
	s := NewScene("test")
	_, err := s.CreateEntity("a", nil, mgl32.Vec3{}, mgl32.Vec3{}, white)
	require.NoError(t, err)

	_, err = s.CreateEntity("a", nil, mgl32.Vec3{}, mgl32.Vec3{}, white)
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = s.CreateEntity("b", []entity.LODLevel{{MaxDistance: 10}, {MaxDistance: 5}}, mgl32.Vec3{}, mgl32.Vec3{}, white)
	assert.ErrorIs(t, err, entity.ErrLODOrder)
	_, ok := s.EntityByName("b")
	assert.False(t, ok)
}

func TestUpdateEntityNoChange(t *testing.T) {
	s := NewScene("test")
	_, err := s.CreateEntity("a", nil, mgl32.Vec3{1, 2, 3}, mgl32.Vec3{10, 20, 30}, white)
	require.NoError(t, err)

	require.NoError(t, s.UpdateEntity("a", mgl32.Vec3{NoChange, 5, NoChange}, Keep, mgl32.Vec3{2, 2, 2}))
	e := s.Entity(0)
	assert.Equal(t, mgl32.Vec3{1, 5, 3}, e.Position)
	assert.Equal(t, mgl32.Vec3{10, 20, 30}, e.Rotation)
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, e.Scale)

	assert.ErrorIs(t, s.UpdateEntity("missing", Keep, Keep, Keep), ErrNotFound)
}

func TestLightLimit(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := NewScene("test", WithLogger(zap.New(core)))
	require.Equal(t, light.MaxLights, MaxLights)

	for i := 0; i < MaxLights; i++ {
		_, err := s.CreatePointLight(fmt.Sprintf("p%d", i), mgl32.Vec3{float32(i), 1, 0}, white, 1)
		require.NoError(t, err)
	}
	_, err := s.CreatePointLight("extra", mgl32.Vec3{}, white, 1)
	assert.ErrorIs(t, err, ErrLightLimit)
	assert.Equal(t, 1, logs.FilterMessage("light rejected").Len())
	assert.Equal(t, MaxLights, s.ActiveLights())
	assert.Len(t, s.Lights(), MaxLights)
	_, ok := s.LightByName("extra")
	assert.False(t, ok)

	require.NoError(t, s.DeactivateLight("p0"))
	_, err = s.CreateDirLight("sun", mgl32.Vec3{0, -1, 0}, white, 1)
	assert.NoError(t, err)
}

func TestCreateLightVariants(t *testing.T) {
	s := NewScene("test")
	sun, err := s.CreateDirLight("sun", mgl32.Vec3{0, -5, 0}, white, 2, light.WithShadows(false))
	require.NoError(t, err)
	spot, err := s.CreateSpotLight("spot", mgl32.Vec3{0, 5, 0}, mgl32.Vec3{0, -1, 0}, white, 3, 15, 25)
	require.NoError(t, err)

	assert.Equal(t, light.KindDirectional, s.Light(sun).Kind())
	assert.False(t, s.Light(sun).CastsShadows)
	d, _ := s.Light(sun).Direction()
	assert.Equal(t, mgl32.Vec3{0, -1, 0}, d)
	assert.Equal(t, light.KindSpot, s.Light(spot).Kind())

	_, err = s.CreateDirLight("sun", mgl32.Vec3{0, -1, 0}, white, 1)
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestLightVisualFollowsLight(t *testing.T) {
	s := NewScene("test")
	_, err := s.CreateEntity("bulb", cubeLOD(t), mgl32.Vec3{}, mgl32.Vec3{}, mgl32.Vec3{0.2, 0.2, 0.2})
	require.NoError(t, err)

	_, err = s.CreatePointLight("lamp", mgl32.Vec3{1, 2, 3}, white, 1, light.WithVisual("bulb"))
	require.NoError(t, err)
	bulb := s.Entity(0)
	assert.True(t, bulb.LightVisual)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, bulb.Position)

	u := KeepLight
	u.Position = mgl32.Vec3{NoChange, 7, NoChange}
	u.Intensity = 4
	require.NoError(t, s.UpdateLight("lamp", u))

	p, _ := s.Light(0).Position()
	assert.Equal(t, mgl32.Vec3{1, 7, 3}, p)
	assert.Equal(t, float32(4), s.Light(0).Intensity)
	assert.Equal(t, white, s.Light(0).Color)
	assert.Equal(t, mgl32.Vec3{1, 7, 3}, s.Entity(0).Position)

	_, err = s.CreatePointLight("lamp2", mgl32.Vec3{}, white, 1, light.WithVisual("bulb"))
	assert.ErrorIs(t, err, ErrVisualInUse)
	_, err = s.CreatePointLight("lamp3", mgl32.Vec3{}, white, 1, light.WithVisual("nope"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateLightDirection(t *testing.T) {
	s := NewScene("test")
	_, err := s.CreateDirLight("sun", mgl32.Vec3{0, -1, 0}, white, 1)
	require.NoError(t, err)

	u := KeepLight
	u.Direction = mgl32.Vec3{2, NoChange, 0}
	require.NoError(t, s.UpdateLight("sun", u))
	d, _ := s.Light(0).Direction()
	assert.InDelta(t, 1, d.Len(), 1e-6)
	assert.InDelta(t, 2/2.2360680, d.X(), 1e-5)

	assert.ErrorIs(t, s.UpdateLight("moon", KeepLight), ErrNotFound)
}

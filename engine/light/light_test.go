package light

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNormalizesDirections(t *testing.T) {
	sun := New("sun", Directional{Direction: mgl32.Vec3{0, -2, 0}}, mgl32.Vec3{1, 1, 1}, 3)
	dir, ok := sun.Direction()
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{0, -1, 0}, dir)
	_, ok = sun.Position()
	assert.False(t, ok)
	assert.True(t, sun.Active)
	assert.True(t, sun.CastsShadows)
	assert.Equal(t, KindDirectional, sun.Kind())
}

func TestNewSpotCutoffs(t *testing.T) {
	s := NewSpot(mgl32.Vec3{0, 5, 0}, mgl32.Vec3{0, -3, 0}, 30, 15)
	assert.InDelta(t, math32.Cos(mgl32.DegToRad(15)), s.InnerCutoff, 1e-6)
	assert.InDelta(t, math32.Cos(mgl32.DegToRad(30)), s.OuterCutoff, 1e-6)
	assert.GreaterOrEqual(t, s.InnerCutoff, s.OuterCutoff)
	assert.Equal(t, mgl32.Vec3{0, -1, 0}, s.Direction)
}

func TestSetPositionAndDirection(t *testing.T) {
	lamp := New("lamp", Point{Position: mgl32.Vec3{1, 2, 3}}, mgl32.Vec3{1, 1, 1}, 1, WithVisual("lamp_bulb"), WithShadows(false))
	lamp.SetPosition(mgl32.Vec3{4, 5, 6})
	p, ok := lamp.Position()
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{4, 5, 6}, p)
	assert.Equal(t, "lamp_bulb", lamp.Visual)
	assert.False(t, lamp.CastsShadows)

	lamp.SetDirection(mgl32.Vec3{1, 0, 0})
	_, ok = lamp.Direction()
	assert.False(t, ok)

	sun := New("sun", Directional{Direction: mgl32.Vec3{0, -1, 0}}, mgl32.Vec3{1, 1, 1}, 1)
	sun.SetDirection(mgl32.Vec3{3, 0, 0})
	d, _ := sun.Direction()
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, d)
}

func TestEncode(t *testing.T) {
	lights := []Light{
		New("sun", Directional{Direction: mgl32.Vec3{0, -1, 0}}, mgl32.Vec3{1, 0.9, 0.8}, 3),
		New("off", Point{}, mgl32.Vec3{1, 1, 1}, 1),
		New("spot", NewSpot(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 0, -1}, 10, 20), mgl32.Vec3{0, 1, 0}, 5),
	}
	lights[1].Active = false

	dst := make([]mgl32.Vec4, 8*Vec4sPerLight)
	dst[len(dst)-1] = mgl32.Vec4{9, 9, 9, 9}
	n := Encode(lights, dst)
	require.Equal(t, 2, n)

	assert.Equal(t, mgl32.Vec4{0, 0, 0, float32(KindDirectional)}, dst[0])
	assert.Equal(t, mgl32.Vec4{0, -1, 0, 0}, dst[1])
	assert.Equal(t, mgl32.Vec4{1, 0.9, 0.8, 3}, dst[2])

	assert.Equal(t, mgl32.Vec4{1, 2, 3, float32(KindSpot)}, dst[4])
	assert.InDelta(t, math32.Cos(mgl32.DegToRad(10)), dst[5].W(), 1e-6)
	assert.InDelta(t, math32.Cos(mgl32.DegToRad(20)), dst[7].X(), 1e-6)
	assert.Equal(t, mgl32.Vec4{}, dst[len(dst)-1], "unused slots are cleared")
}

func TestEncodeStopsAtCapacity(t *testing.T) {
	lights := make([]Light, 3)
	for i := range lights {
		lights[i] = New("p", Point{}, mgl32.Vec3{1, 1, 1}, 1)
	}
	dst := make([]mgl32.Vec4, 2*Vec4sPerLight)
	assert.Equal(t, 2, Encode(lights, dst))
}

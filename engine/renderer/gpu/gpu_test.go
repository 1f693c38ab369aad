package gpu

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/common"
)

func TestRegistryHandlesAreUniqueAndKindChecked(t *testing.T) {
	r := NewRegistry[string]()
	a := r.Add(KindBuffer, "a")
	b := r.Add(KindTexture, "b")
	assert.NotEqual(t, a, b)
	assert.False(t, a.IsZero())

	v, ok := r.Lookup(a, KindBuffer)
	require.True(t, ok)
	assert.Equal(t, "a", v)
	_, ok = r.Lookup(a, KindTexture)
	assert.False(t, ok)

	_, ok = r.Remove(a)
	assert.True(t, ok)
	_, ok = r.Get(a)
	assert.False(t, ok)

	c := r.Add(KindBuffer, "c")
	assert.Greater(t, c, b, "handles are not reused")
}

func TestRegistryDrainInCreationOrder(t *testing.T) {
	r := NewRegistry[int]()
	for i := 0; i < 5; i++ {
		r.Add(KindBuffer, i)
	}
	var seen []int
	r.Drain(func(_ Handle, _ ResourceKind, v int) { seen = append(seen, v) })
	assert.Equal(t, []int{0, 1, 2, 3, 4}, seen)
	assert.Zero(t, r.Len())
}

func TestLayoutUniformsFollowsWGSLRules(t *testing.T) {
	l := LayoutUniforms([]UniformDecl{
		{Name: "a", Type: UniformFloat},
		{Name: "b", Type: UniformVec3},
		{Name: "c", Type: UniformFloat},
		{Name: "m", Type: UniformMat4},
		{Name: "lights", Type: UniformVec4Array, Count: 4},
		{Name: "n", Type: UniformInt},
	})
	assert.Equal(t, 0, l.Offsets["a"])
	assert.Equal(t, 16, l.Offsets["b"])
	assert.Equal(t, 28, l.Offsets["c"], "scalar packs into the vec3 tail")
	assert.Equal(t, 32, l.Offsets["m"])
	assert.Equal(t, 96, l.Offsets["lights"])
	assert.Equal(t, 160, l.Offsets["n"])
	assert.Equal(t, 176, l.Size)
}

func TestEncodeUniform(t *testing.T) {
	buf := make([]byte, 96)
	require.NoError(t, EncodeUniform(buf, 4, UniformDecl{Name: "f", Type: UniformFloat}, float32(1.5)))
	assert.Equal(t, float32(1.5), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:])))

	require.NoError(t, EncodeUniform(buf, 8, UniformDecl{Name: "b", Type: UniformInt}, true))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[8:]))

	m := mgl32.Translate3D(1, 2, 3)
	require.NoError(t, EncodeUniform(buf, 16, UniformDecl{Name: "m", Type: UniformMat4}, m))
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(buf[16+14*4:])))

	err := EncodeUniform(buf, 0, UniformDecl{Name: "f", Type: UniformFloat}, 1.5)
	assert.True(t, errors.Is(err, ErrUniformType))

	err = EncodeUniform(buf, 0, UniformDecl{Name: "l", Type: UniformVec4Array, Count: 1}, []mgl32.Vec4{{}, {}})
	assert.True(t, errors.Is(err, ErrUniformType), "array longer than declared")
}

func TestRecorderBufferUpdatesAreBoundsChecked(t *testing.T) {
	r := NewRecorder()
	h, err := r.CreateBuffer(BufferInstance, nil, 128)
	require.NoError(t, err)

	require.NoError(t, r.UpdateBuffer(h, 64, make([]byte, 64)))
	assert.Error(t, r.UpdateBuffer(h, 65, make([]byte, 64)))

	r.Release(h)
	assert.False(t, r.Valid(h))
	assert.True(t, errors.Is(r.UpdateBuffer(h, 0, []byte{1}), ErrInvalidHandle))
}

func TestRecorderRecordsDrawState(t *testing.T) {
	r := NewRecorder()
	prog, err := r.CreateProgram(ProgramSource{
		Name:     "p",
		Uniforms: []UniformDecl{{Name: "u_model", Type: UniformMat4}},
	})
	require.NoError(t, err)
	tex, err := r.CreateTexture(common.SolidTexture(255, 255, 255, 255))
	require.NoError(t, err)

	require.NoError(t, r.BeginPass(PassDescriptor{Label: "main"}))
	r.UseProgram(prog)
	loc, ok := r.UniformLocation(prog, "u_model")
	require.True(t, ok)
	require.NoError(t, r.SetUniform(loc, mgl32.Ident4()))
	assert.Error(t, r.SetUniform(loc, float32(1)))
	r.BindTexture(SlotAlbedo, tex)
	r.SetState(RenderState{Cull: CullBack, DepthTest: true, DepthFunc: CompareEqual})
	r.DrawIndexedInstanced(36, 4)
	r.EndPass()

	draws := r.Draws("main")
	require.Len(t, draws, 1)
	assert.Equal(t, prog, draws[0].Program)
	assert.Equal(t, tex, draws[0].Textures[SlotAlbedo])
	assert.Equal(t, CompareEqual, draws[0].State.DepthFunc)
	assert.True(t, draws[0].Instanced)
	assert.Equal(t, 4, draws[0].Instances)
}

func TestRecorderProgramFailure(t *testing.T) {
	r := NewRecorder()
	r.FailPrograms["lit"] = errors.New("0:1: syntax error")
	_, err := r.CreateProgram(ProgramSource{Name: "lit"})
	assert.ErrorContains(t, err, "syntax error")
}

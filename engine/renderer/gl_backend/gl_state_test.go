package gl_backend

import (
	"testing"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/stretchr/testify/assert"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
)

func TestDepthFunc(t *testing.T) {
	assert.Equal(t, uint32(gl.LESS), depthFunc(gpu.CompareLess))
	assert.Equal(t, uint32(gl.LEQUAL), depthFunc(gpu.CompareLessEqual))
	assert.Equal(t, uint32(gl.EQUAL), depthFunc(gpu.CompareEqual))
	assert.Equal(t, uint32(gl.ALWAYS), depthFunc(gpu.CompareAlways))
}

func TestCullFace(t *testing.T) {
	assert.Equal(t, uint32(gl.BACK), cullFace(gpu.CullBack))
	assert.Equal(t, uint32(gl.FRONT), cullFace(gpu.CullFront))
}

// Package gl_backend implements gpu.Device on OpenGL 4.1 core.
//
// The device must be created and used on the thread that owns the current GL context. All
// meshes share one vertex array object whose attribute pointers are re-specified by BindMesh.
package gl_backend

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
)

// ErrNoContext is returned when the GL function pointers cannot be loaded.
var ErrNoContext = errors.New("no current OpenGL context")

// glResource is one GL object behind a gpu.Handle.
type glResource struct {
	id   uint32
	kind gpu.ResourceKind

	// buffers
	target uint32
	size   int

	// shadow maps
	fbo        uint32
	resolution int32

	// programs
	decls map[gpu.UniformLocation]gpu.UniformDecl
	names map[string]gpu.UniformLocation
}

// device is the OpenGL implementation of gpu.Device.
type device struct {
	mu        *sync.Mutex
	logger    *zap.Logger
	resources *gpu.Registry[*glResource]
	present   func()

	vao           uint32
	width, height int32

	program *glResource
	state   gpu.RenderState
	stateOK bool
}

var _ gpu.Device = &device{}

// New loads the GL function pointers for the current context and creates the device.
//
// Parameters:
//   - width: the initial framebuffer width
//   - height: the initial framebuffer height
//   - options: functional options (logger, present function)
//
// Returns:
//   - gpu.Device: the OpenGL device
//   - error: ErrNoContext if GL cannot be initialized
func New(width, height int, options ...GLBackendBuilderOption) (gpu.Device, error) {
	d := &device{
		mu:        &sync.Mutex{},
		logger:    zap.NewNop(),
		resources: gpu.NewRegistry[*glResource](),
		present:   func() {},
		width:     int32(width),
		height:    int32(height),
	}
	for _, opt := range options {
		opt(d)
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoContext, err)
	}
	d.logger.Info("opengl initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)
	gl.Viewport(0, 0, d.width, d.height)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	return d, nil
}

func (d *device) Resize(width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.width, d.height = int32(width), int32(height)
}

func (d *device) Present() error {
	d.present()
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("opengl error 0x%x", code)
	}
	return nil
}

func (d *device) Valid(h gpu.Handle) bool {
	_, ok := d.resources.Get(h)
	return ok
}

func (d *device) Release(h gpu.Handle) {
	res, ok := d.resources.Remove(h)
	if !ok {
		return
	}
	d.free(res)
}

func (d *device) Close() {
	d.resources.Drain(func(_ gpu.Handle, _ gpu.ResourceKind, res *glResource) {
		d.free(res)
	})
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
}

func (d *device) free(res *glResource) {
	switch res.kind {
	case gpu.KindBuffer:
		gl.DeleteBuffers(1, &res.id)
	case gpu.KindTexture:
		gl.DeleteTextures(1, &res.id)
	case gpu.KindShadowMap:
		gl.DeleteFramebuffers(1, &res.fbo)
		gl.DeleteTextures(1, &res.id)
	case gpu.KindProgram:
		if d.program == res {
			d.program = nil
		}
		gl.DeleteProgram(res.id)
	}
}

// Package renderer implements the per-frame draw submitter. Every frame it culls and LOD-resolves
// the scene's entities, plans the shadow view of one light, compiles the visible instances into
// batches and submits three ordered passes: shadow, depth pre-pass and color.
package renderer

import (
	"fmt"
	"sync"

	set "github.com/ErikKalkoken/go-set"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/common"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/camera"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/config"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/entity"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/light"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/mesh"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/profiler"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/batch"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/material"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/shader"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/scene"
)

// Pass labels.
const (
	PassShadow  = "shadow"
	PassPrepass = "prepass"
	PassColor   = "color"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	device gpu.Device
	logger *zap.Logger

	planner       light.Planner
	shadowEnabled bool
	radiusScale   float32
	epsilon       float32
	clearColor    mgl32.Vec4

	lit   shader.Program
	depth shader.Program
	unlit shader.Program

	white     gpu.Handle
	shadowMap gpu.Handle

	compiler batch.Compiler
	stats    profiler.RenderStats
	lights   []mgl32.Vec4
	warned   set.Set[mesh.Mesh]
}

// Renderer draws a scene through a gpu.Device.
//
// A Renderer is driven from the thread owning the GPU context. The scene must not be mutated while
// RenderFrame runs.
type Renderer interface {
	// RenderFrame draws one frame of the scene as seen by the camera and presents it.
	//
	// Parameters:
	//   - sc: the scene to draw
	//   - cam: the viewing camera
	//
	// Returns:
	//   - error: error if a pass cannot begin or the frame cannot be presented
	RenderFrame(sc scene.Scene, cam camera.Camera) error

	// Stats returns the counters of the last rendered frame.
	//
	// Returns:
	//   - profiler.RenderStats: a copy of the frame counters
	Stats() profiler.RenderStats

	// Resize updates the default framebuffer size.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// ApplyConfig updates shadow, culling, batching and clear settings between frames.
	// A new shadow resolution reallocates the shadow map.
	//
	// Parameters:
	//   - cfg: the new configuration
	//
	// Returns:
	//   - error: error if the shadow map cannot be reallocated
	ApplyConfig(cfg config.Config) error

	// Close releases the renderer's programs and textures. The device is left open.
	Close()
}

var _ Renderer = &renderer{}

// NewRenderer creates the renderer's programs, the fallback white texture and the shadow map.
// A program that fails to compile or link is fatal: the error is returned and nothing is leaked.
//
// Parameters:
//   - device: the GPU device
//   - options: functional options (logger, shadow planner, culling, batching, clear color)
//
// Returns:
//   - Renderer: the renderer
//   - error: the wrapped program or resource error
func NewRenderer(device gpu.Device, options ...RendererBuilderOption) (Renderer, error) {
	if device == nil {
		panic("renderer: nil device")
	}
	r := &renderer{
		mu:            &sync.Mutex{},
		device:        device,
		logger:        zap.NewNop(),
		planner:       light.DefaultPlanner(),
		shadowEnabled: true,
		radiusScale:   entity.DefaultRadiusScale,
		epsilon:       material.DefaultBatchEpsilon,
		clearColor:    mgl32.Vec4{0, 0, 0, 1},
		lights:        make([]mgl32.Vec4, light.MaxLights*light.Vec4sPerLight),
	}
	for _, opt := range options {
		opt(r)
	}
	r.compiler = batch.NewCompiler(batch.WithEpsilon(r.epsilon), batch.WithLogger(r.logger))

	if err := r.init(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *renderer) init() error {
	programs := []struct {
		load func() (gpu.ProgramSource, error)
		dst  *shader.Program
	}{
		{shader.LitSource, &r.lit},
		{shader.DepthSource, &r.depth},
		{shader.UnlitSource, &r.unlit},
	}
	for _, p := range programs {
		src, err := p.load()
		if err != nil {
			return fmt.Errorf("renderer: %w", err)
		}
		prog, err := shader.NewProgram(r.device, src, shader.WithLogger(r.logger))
		if err != nil {
			return fmt.Errorf("renderer: %w", err)
		}
		*p.dst = prog
	}

	white, err := r.device.CreateTexture(common.SolidTexture(255, 255, 255, 255))
	if err != nil {
		return fmt.Errorf("renderer: white texture: %w", err)
	}
	r.white = white

	shadowMap, err := r.device.CreateShadowMap(r.planner.Resolution)
	if err != nil {
		return fmt.Errorf("renderer: shadow map: %w", err)
	}
	r.shadowMap = shadowMap
	return nil
}

func (r *renderer) RenderFrame(sc scene.Scene, cam camera.Camera) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.Reset()
	r.compiler.Reset()

	shadow, shadowIndex, hasShadow := r.planShadow(sc, cam)
	r.collect(sc, cam, shadow, hasShadow)
	frame := r.compiler.Compile()
	r.stats.SkippedBatches = len(frame.Skipped)

	if hasShadow {
		if err := r.shadowPass(frame, shadow); err != nil {
			return err
		}
	}
	if err := r.prepass(frame, cam); err != nil {
		return err
	}
	lightCount := light.Encode(sc.Lights(), r.lights)
	if err := r.colorPass(frame, cam, shadow, shadowIndex, hasShadow, lightCount); err != nil {
		return err
	}
	if err := r.device.Present(); err != nil {
		return fmt.Errorf("renderer: present: %w", err)
	}
	return nil
}

func (r *renderer) Stats() profiler.RenderStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.device.Resize(width, height)
}

func (r *renderer) ApplyConfig(cfg config.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.shadowEnabled = cfg.Shadow.Enabled
	r.planner.DirectionalDistance = cfg.Shadow.DirectionalDistance
	r.planner.SpotNear = cfg.Shadow.SpotNear
	r.planner.SpotFar = cfg.Shadow.SpotFar
	r.radiusScale = cfg.Culling.RadiusScale
	r.clearColor = mgl32.Vec4(cfg.ClearColor)
	if cfg.Batching.Epsilon != r.epsilon {
		r.epsilon = cfg.Batching.Epsilon
		r.compiler = batch.NewCompiler(batch.WithEpsilon(r.epsilon), batch.WithLogger(r.logger))
	}

	if cfg.Shadow.Resolution == r.planner.Resolution {
		return nil
	}
	shadowMap, err := r.device.CreateShadowMap(cfg.Shadow.Resolution)
	if err != nil {
		return fmt.Errorf("renderer: shadow map: %w", err)
	}
	r.device.Release(r.shadowMap)
	r.shadowMap = shadowMap
	r.planner.Resolution = cfg.Shadow.Resolution
	return nil
}

func (r *renderer) Close() {
	for _, p := range []shader.Program{r.lit, r.depth, r.unlit} {
		if p != nil {
			p.Release()
		}
	}
	r.lit, r.depth, r.unlit = nil, nil, nil
	r.device.Release(r.white)
	r.device.Release(r.shadowMap)
	r.white, r.shadowMap = 0, 0
}

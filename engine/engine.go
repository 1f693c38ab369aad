package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/camera"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/config"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/profiler"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gl_backend"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/wgpu_backend"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/scene"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/window"
)

const (
	// maxFrameTime caps the simulated time of one iteration so a stall does not trigger a burst of ticks.
	maxFrameTime = 250 * time.Millisecond
	// maxTicksPerFrame bounds the fixed-step catch-up per iteration.
	maxTicksPerFrame = 8
)

// ErrNoWindow is returned when a windowed backend is selected without a window.
var ErrNoWindow = errors.New("backend requires a window")

// engine implements the Engine interface.
// Everything runs on the thread that created the window and the GPU device.
type engine struct {
	logger *zap.Logger
	cfg    config.Config

	window   window.Window
	device   gpu.Device
	renderer renderer.Renderer
	scene    scene.Scene
	camera   camera.Camera

	profiler         *profiler.Profiler
	profilingEnabled bool

	updates <-chan config.Config
	now     func() time.Time

	tickRate     time.Duration
	tickCallback func(deltaTime float32)
	frameCb      func(deltaTime float32)
	accumulator  time.Duration
	lastFrame    time.Time
	ticks        int
	frames       int
	maxFrames    int

	resized       bool
	width, height int

	quit    bool
	lastErr string
}

// Engine is the main entry point for the engine.
// It owns the window, the GPU device and the renderer, and drives a single-threaded loop:
// poll window events, run fixed-step ticks, apply pending configuration, render one frame and
// report profiling statistics.
type Engine interface {
	// Window returns the underlying window, or nil for the headless backend.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Device returns the GPU device. Meshes and textures for the scene are created on it.
	Device() gpu.Device

	// Renderer returns the renderer drawing the scene.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// Scene returns the rendered scene.
	Scene() scene.Scene

	// Camera returns the rendering camera.
	Camera() camera.Camera

	// Config returns the configuration currently applied.
	Config() config.Config

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the fixed simulation rate in ticks per second.
	//
	// Parameters:
	//   - hz: ticks per second (defaults to 60 if <= 0)
	SetTickRate(hz float64)

	// SetTickCallback registers the function called once per fixed simulation step.
	// Use this for game logic, input processing and scene updates.
	//
	// Parameters:
	//   - callback: function receiving the fixed step in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetFrameCallback registers the function called once per rendered frame, before rendering.
	//
	// Parameters:
	//   - callback: function receiving the measured frame time in seconds
	SetFrameCallback(callback func(deltaTime float32))

	// Step runs one loop iteration without polling window events.
	//
	// Returns:
	//   - error: the render error of the frame, if any
	Step() error

	// Run drives the loop until the window closes, ctx is cancelled, Quit is called, or the
	// configured frame limit is reached. With a window, the last three close the engine from
	// inside the message loop.
	//
	// Parameters:
	//   - ctx: cancels the loop
	//
	// Returns:
	//   - error: ctx.Err() when cancelled, otherwise nil
	Run(ctx context.Context) error

	// Quit stops the loop after the current iteration.
	Quit()

	// Close releases the renderer, the device and the window.
	Close()
}

var _ Engine = &engine{}

// NewEngine creates the window (unless one is supplied), the GPU device for the configured
// backend, and the renderer.
//
// Parameters:
//   - sc: the scene to render
//   - cam: the rendering camera
//   - options: functional options (config, logger, window, device, config updates, profiler)
//
// Returns:
//   - Engine: the newly created engine
//   - error: error if the backend, the device or the renderer cannot be created
func NewEngine(sc scene.Scene, cam camera.Camera, options ...EngineBuilderOption) (Engine, error) {
	if sc == nil || cam == nil {
		panic("engine: scene and camera must not be nil")
	}
	e := &engine{
		logger: zap.NewNop(),
		cfg:    config.Default(),
		scene:  sc,
		camera: cam,
		now:    time.Now,
	}
	for _, opt := range options {
		opt(e)
	}
	e.tickRate = tickInterval(float64(e.cfg.TickRate))
	e.profilingEnabled = e.cfg.Profiling.Enabled
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(
			profiler.WithLogger(e.logger),
			profiler.WithInterval(e.cfg.Profiling.Interval.Std()),
			profiler.WithClock(e.now),
		)
	}

	if err := e.init(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// init resolves the backend and creates the window, device and renderer it needs.
func (e *engine) init() error {
	backend, err := renderer.ParseBackendType(e.cfg.Backend)
	if err != nil {
		return err
	}

	if e.device == nil {
		if backend != renderer.BackendTypeHeadless && e.window == nil {
			api := window.APIOpenGL
			if backend == renderer.BackendTypeWGPU {
				api = window.APINone
			}
			e.window, err = window.NewWindow(
				window.WithTitle(e.cfg.Window.Title),
				window.WithSize(e.cfg.Window.Width, e.cfg.Window.Height),
				window.WithGraphicsAPI(api),
				window.WithVSync(e.cfg.Window.VSync),
			)
			if err != nil {
				return err
			}
		}
		e.device, err = e.newDevice(backend)
		if err != nil {
			return fmt.Errorf("%s backend: %w", backend, err)
		}
	}

	e.width, e.height = e.cfg.Window.Width, e.cfg.Window.Height
	if e.window != nil {
		e.width, e.height = e.window.Width(), e.window.Height()
		e.window.SetResizeCallback(func(width, height int) {
			e.width, e.height = width, height
			e.resized = true
		})
	}
	e.device.Resize(e.width, e.height)
	e.camera.SetAspect(aspect(e.width, e.height))

	e.renderer, err = renderer.NewRenderer(e.device,
		renderer.WithLogger(e.logger.Named("renderer")),
		renderer.WithConfig(e.cfg),
	)
	if err != nil {
		return err
	}
	e.logger.Info("engine initialized",
		zap.Stringer("backend", backend),
		zap.Int("width", e.width),
		zap.Int("height", e.height),
	)
	return nil
}

// newDevice creates the gpu.Device of a backend.
func (e *engine) newDevice(backend renderer.RendererBackendType) (gpu.Device, error) {
	switch backend {
	case renderer.BackendTypeGL:
		if e.window == nil || e.window.API() != window.APIOpenGL {
			return nil, ErrNoWindow
		}
		return gl_backend.New(e.window.Width(), e.window.Height(),
			gl_backend.WithLogger(e.logger.Named("gl")),
			gl_backend.WithPresentFunc(e.window.SwapBuffers),
		)
	case renderer.BackendTypeWGPU:
		if e.window == nil || e.window.API() != window.APINone {
			return nil, ErrNoWindow
		}
		return wgpu_backend.New(e.window.SurfaceDescriptor(), e.window.Width(), e.window.Height(),
			wgpu_backend.WithLogger(e.logger.Named("wgpu")),
			wgpu_backend.WithVSync(e.cfg.Window.VSync),
		)
	default:
		rec := gpu.NewRecorder()
		rec.Discard = true
		return rec, nil
	}
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Device() gpu.Device {
	return e.device
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Config() config.Config {
	return e.cfg
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetTickRate(hz float64) {
	e.tickRate = tickInterval(hz)
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetFrameCallback(callback func(deltaTime float32)) {
	e.frameCb = callback
}

func (e *engine) Step() error {
	now := e.now()
	var frame time.Duration
	if !e.lastFrame.IsZero() {
		frame = min(now.Sub(e.lastFrame), maxFrameTime)
	}
	e.lastFrame = now

	e.drainConfig()

	// Fixed-step simulation.
	e.accumulator += frame
	for steps := 0; e.accumulator >= e.tickRate; steps++ {
		if steps == maxTicksPerFrame {
			e.accumulator = 0
			break
		}
		if e.tickCallback != nil {
			e.tickCallback(float32(e.tickRate.Seconds()))
		}
		e.ticks++
		e.accumulator -= e.tickRate
	}

	if e.resized {
		e.resized = false
		e.renderer.Resize(e.width, e.height)
		e.camera.SetAspect(aspect(e.width, e.height))
	}
	if e.frameCb != nil {
		e.frameCb(float32(frame.Seconds()))
	}
	e.frames++

	// A minimized window has no drawable surface.
	if e.width <= 0 || e.height <= 0 {
		return nil
	}
	e.camera.Update()
	err := e.renderer.RenderFrame(e.scene, e.camera)
	if e.profilingEnabled {
		e.profiler.Tick(e.renderer.Stats())
	}
	return err
}

// drainConfig applies the most recent pending configuration, if any.
func (e *engine) drainConfig() {
	if e.updates == nil {
		return
	}
	var (
		next config.Config
		got  bool
	)
	for {
		select {
		case cfg, ok := <-e.updates:
			if !ok {
				e.updates = nil
			} else {
				next, got = cfg, true
				continue
			}
		default:
		}
		break
	}
	if got {
		e.applyConfig(next)
	}
}

func (e *engine) applyConfig(cfg config.Config) {
	if cfg.Backend != e.cfg.Backend {
		e.logger.Warn("backend change requires a restart",
			zap.String("current", e.cfg.Backend),
			zap.String("requested", cfg.Backend),
		)
		cfg.Backend = e.cfg.Backend
	}
	if err := e.renderer.ApplyConfig(cfg); err != nil {
		e.logger.Warn("config rejected by renderer", zap.Error(err))
		return
	}
	if cfg.TickRate != e.cfg.TickRate {
		e.SetTickRate(float64(cfg.TickRate))
	}
	if cfg.Window.VSync != e.cfg.Window.VSync && e.window != nil {
		e.window.SetVSync(cfg.Window.VSync)
	}
	if cfg.Profiling.Interval != e.cfg.Profiling.Interval {
		e.profiler = profiler.NewProfiler(
			profiler.WithLogger(e.logger),
			profiler.WithInterval(cfg.Profiling.Interval.Std()),
			profiler.WithClock(e.now),
		)
	}
	e.profilingEnabled = cfg.Profiling.Enabled
	e.cfg = cfg
	e.logger.Info("config applied")
}

func (e *engine) Run(ctx context.Context) error {
	stop := func() bool {
		return e.quit || ctx.Err() != nil || (e.maxFrames > 0 && e.frames >= e.maxFrames)
	}

	if e.window == nil {
		for !stop() {
			e.report(e.Step())
		}
		return ctx.Err()
	}

	e.window.SetUpdateCallback(func() {
		if stop() {
			// Release GPU resources while the window's context is still alive.
			e.Close()
			return
		}
		e.report(e.Step())
	})
	e.window.ProcessMessages()
	return ctx.Err()
}

// report logs a frame error once until a different error occurs.
func (e *engine) report(err error) {
	if err == nil {
		e.lastErr = ""
		return
	}
	if msg := err.Error(); msg != e.lastErr {
		e.lastErr = msg
		e.logger.Error("render frame failed", zap.Error(err))
	}
}

func (e *engine) Quit() {
	e.quit = true
}

func (e *engine) Close() {
	if e.renderer != nil {
		e.renderer.Close()
		e.renderer = nil
	}
	if e.device != nil {
		e.device.Close()
		e.device = nil
	}
	if e.window != nil {
		if err := e.window.Close(); err != nil {
			e.logger.Warn("close window", zap.Error(err))
		}
		e.window = nil
	}
}

func tickInterval(hz float64) time.Duration {
	if hz <= 0 {
		hz = 60
	}
	return time.Duration(float64(time.Second) / hz)
}

func aspect(width, height int) float32 {
	if width <= 0 || height <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}

package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/config"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/profiler"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithConfig sets the engine configuration. It selects the backend and seeds the window,
// the renderer, the tick rate and the profiler.
//
// Parameters:
//   - cfg: the configuration to apply at startup
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg config.Config) EngineBuilderOption {
	return func(e *engine) {
		e.cfg = cfg
	}
}

// WithLogger sets the logger used by the engine and passed to its subsystems.
func WithLogger(logger *zap.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithWindow sets a custom configured window for the engine to use rather than allowing the engine
// to create and manage one internally.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithDevice sets the GPU device directly, bypassing backend selection.
//
// Parameters:
//   - device: the device the renderer draws with
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDevice(device gpu.Device) EngineBuilderOption {
	return func(e *engine) {
		e.device = device
	}
}

// WithConfigUpdates sets a channel of configurations applied between frames, typically the
// result of config.Watch. Only the newest pending value is applied.
func WithConfigUpdates(updates <-chan config.Config) EngineBuilderOption {
	return func(e *engine) {
		e.updates = updates
	}
}

// WithProfiler replaces the profiler built from the configuration.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithClock sets the time source used for frame timing.
//
// Parameters:
//   - now: returns the current time
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithClock(now func() time.Time) EngineBuilderOption {
	return func(e *engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMaxFrames stops Run after the given number of frames. Pass 0 to run until closed (default).
func WithMaxFrames(n int) EngineBuilderOption {
	return func(e *engine) {
		e.maxFrames = max(n, 0)
	}
}

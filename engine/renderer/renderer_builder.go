package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/config"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/light"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithLogger sets the logger used by the renderer, its programs and its batch compiler.
//
// Parameters:
//   - logger: the zap logger; nil keeps the no-op logger
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(logger *zap.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithShadowPlanner replaces the shadow planner. Its Resolution sizes the shadow map.
//
// Parameters:
//   - planner: the shadow planner
//
// Returns:
//   - RendererBuilderOption: a function that applies the planner option to a renderer
func WithShadowPlanner(planner light.Planner) RendererBuilderOption {
	return func(r *renderer) {
		r.planner = planner
	}
}

// WithShadows enables or disables the shadow pass. The shadow map is allocated either way.
func WithShadows(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.shadowEnabled = enabled
	}
}

// WithRadiusScale sets the multiplier applied to the length of an entity's scale to obtain its
// culling radius.
func WithRadiusScale(scale float32) RendererBuilderOption {
	return func(r *renderer) {
		r.radiusScale = scale
	}
}

// WithBatchEpsilon sets the metallic/roughness tolerance of the material batching key.
func WithBatchEpsilon(epsilon float32) RendererBuilderOption {
	return func(r *renderer) {
		r.epsilon = epsilon
	}
}

// WithClearColor sets the color the pre-pass clears the framebuffer to.
func WithClearColor(c mgl32.Vec4) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = c
	}
}

// WithConfig applies the shadow, culling, batching and clear settings of cfg.
//
// Parameters:
//   - cfg: the engine configuration
//
// Returns:
//   - RendererBuilderOption: a function that applies the configuration to a renderer
func WithConfig(cfg config.Config) RendererBuilderOption {
	return func(r *renderer) {
		r.shadowEnabled = cfg.Shadow.Enabled
		r.planner = light.Planner{
			Resolution:          cfg.Shadow.Resolution,
			DirectionalDistance: cfg.Shadow.DirectionalDistance,
			SpotNear:            cfg.Shadow.SpotNear,
			SpotFar:             cfg.Shadow.SpotFar,
			PointFov:            light.DefaultPointFov,
		}
		r.radiusScale = cfg.Culling.RadiusScale
		r.epsilon = cfg.Batching.Epsilon
		r.clearColor = mgl32.Vec4(cfg.ClearColor)
	}
}

package scene

import "go.uber.org/zap"

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithLogger sets the logger used for rejected lights.
//
// Parameters:
//   - logger: the zap logger; nil keeps the no-op logger
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) SceneBuilderOption {
	return func(s *scene) {
		if logger != nil {
			s.logger = logger
		}
	}
}

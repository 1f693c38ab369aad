package batch

import "go.uber.org/zap"

// CompilerBuilderOption is a function that configures a Compiler during construction.
type CompilerBuilderOption func(*compiler)

// WithEpsilon sets the metallic/roughness tolerance under which materials share a batch.
//
// Parameters:
//   - epsilon: the tolerance; values <= 0 keep the default
//
// Returns:
//   - CompilerBuilderOption: a function that applies the epsilon option to a compiler
func WithEpsilon(epsilon float32) CompilerBuilderOption {
	return func(c *compiler) {
		if epsilon > 0 {
			c.epsilon = epsilon
		}
	}
}

// WithLogger sets the logger used for skipped batch warnings.
func WithLogger(logger *zap.Logger) CompilerBuilderOption {
	return func(c *compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

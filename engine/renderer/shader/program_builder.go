package shader

import "go.uber.org/zap"

// ProgramBuilderOption is a function that configures a program during construction.
type ProgramBuilderOption func(*program)

// WithLogger sets the logger used for uniform warnings.
//
// Parameters:
//   - logger: the zap logger; nil keeps the no-op logger
//
// Returns:
//   - ProgramBuilderOption: a function that applies the logger option to a program
func WithLogger(logger *zap.Logger) ProgramBuilderOption {
	return func(p *program) {
		if logger != nil {
			p.logger = logger
		}
	}
}

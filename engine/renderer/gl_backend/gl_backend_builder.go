package gl_backend

import "go.uber.org/zap"

// GLBackendBuilderOption is a functional option applied to the OpenGL device during construction via New.
type GLBackendBuilderOption func(*device)

// WithLogger sets the logger used for driver information and GL warnings.
//
// Parameters:
//   - logger: the zap logger; nil keeps the no-op logger
//
// Returns:
//   - GLBackendBuilderOption: a function that applies the logger option to the device
func WithLogger(logger *zap.Logger) GLBackendBuilderOption {
	return func(d *device) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithPresentFunc sets the function Present calls to display a finished frame, normally the
// window's buffer swap.
func WithPresentFunc(present func()) GLBackendBuilderOption {
	return func(d *device) {
		if present != nil {
			d.present = present
		}
	}
}

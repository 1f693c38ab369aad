package wgpu_backend

import "go.uber.org/zap"

// WGPUBackendBuilderOption is a functional option applied to the WebGPU device during construction via New.
type WGPUBackendBuilderOption func(*device)

// WithLogger sets the logger used for adapter information and draw warnings.
//
// Parameters:
//   - logger: the zap logger; nil keeps the no-op logger
//
// Returns:
//   - WGPUBackendBuilderOption: a function that applies the logger option to the device
func WithLogger(logger *zap.Logger) WGPUBackendBuilderOption {
	return func(d *device) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithVSync selects the fifo present mode instead of immediate presentation.
//
// Parameters:
//   - vsync: true to synchronize presentation with the display refresh
//
// Returns:
//   - WGPUBackendBuilderOption: a function that applies the present mode option to the device
func WithVSync(vsync bool) WGPUBackendBuilderOption {
	return func(d *device) {
		d.vsync = vsync
	}
}

// WithFallbackAdapter forces the software fallback adapter.
func WithFallbackAdapter(fallback bool) WGPUBackendBuilderOption {
	return func(d *device) {
		d.fallback = fallback
	}
}

// WithUniformRingSize sets the byte size of the per-submission uniform ring.
// Sizes below one aligned block are ignored.
func WithUniformRingSize(size int) WGPUBackendBuilderOption {
	return func(d *device) {
		if size >= uniformAlignment {
			d.ringSize = uniformStride(size)
		}
	}
}

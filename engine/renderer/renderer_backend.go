package renderer

import (
	"fmt"
	"strings"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeGL selects the OpenGL 4.1 core backend.
	BackendTypeGL RendererBackendType = iota

	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU

	// BackendTypeHeadless selects the in-memory recording device. Nothing is displayed.
	BackendTypeHeadless
)

// String returns the config name of the backend type.
func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeGL:
		return "gl"
	case BackendTypeWGPU:
		return "wgpu"
	case BackendTypeHeadless:
		return "headless"
	}
	return fmt.Sprintf("RendererBackendType(%d)", int(t))
}

// ParseBackendType converts a config backend name into a RendererBackendType.
//
// Parameters:
//   - name: "gl", "wgpu" or "headless", case-insensitive
//
// Returns:
//   - RendererBackendType: the backend type
//   - error: error for an unknown name
func ParseBackendType(name string) (RendererBackendType, error) {
	switch strings.ToLower(name) {
	case "gl", "opengl":
		return BackendTypeGL, nil
	case "wgpu", "webgpu":
		return BackendTypeWGPU, nil
	case "headless":
		return BackendTypeHeadless, nil
	}
	return 0, fmt.Errorf("unknown renderer backend %q", name)
}

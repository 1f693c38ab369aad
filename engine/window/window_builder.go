package window

// WindowBuilderOption is a functional option for configuring an engineWindow.
// Use the With* functions to create options.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial window size. Non-positive values keep the default.
//
// Parameters:
//   - width: initial width in pixels
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		if width > 0 {
			w.width = width
		}
		if height > 0 {
			w.height = height
		}
	}
}

// WithMinSize sets the minimum window size enforced during resize.
//
// Parameters:
//   - minWidth: minimum width in pixels
//   - minHeight: minimum height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithMinSize(minWidth, minHeight int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minWidth = minWidth
		w.minHeight = minHeight
	}
}

// WithGraphicsAPI selects the client API the window is created with.
//
// Parameters:
//   - api: APIOpenGL for the OpenGL backend, APINone for WebGPU
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithGraphicsAPI(api GraphicsAPI) WindowBuilderOption {
	return func(w *engineWindow) {
		w.api = api
	}
}

// WithVSync sets the initial swap interval of an OpenGL window.
func WithVSync(enabled bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.vsync = enabled
	}
}

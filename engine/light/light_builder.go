package light

// LightBuilderOption is a function that configures a Light during construction.
type LightBuilderOption func(*Light)

// WithShadows is an option builder that sets whether the light may be chosen as the shadow caster.
// Lights cast shadows by default.
//
// Parameters:
//   - enabled: true to allow shadow map generation for this light
//
// Returns:
//   - LightBuilderOption: a function that applies the shadow option to a light
func WithShadows(enabled bool) LightBuilderOption {
	return func(l *Light) {
		l.CastsShadows = enabled
	}
}

// WithVisual is an option builder that names the decorative entity that follows the light.
//
// Parameters:
//   - entity: the name of the visual entity
//
// Returns:
//   - LightBuilderOption: a function that applies the visual option to a light
func WithVisual(entity string) LightBuilderOption {
	return func(l *Light) {
		l.Visual = entity
	}
}

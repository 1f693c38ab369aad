// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// TextureData holds RGBA pixel data for a texture pending GPU upload.
type TextureData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
	// Linear marks data textures (normal, ORM) that must not be sampled as sRGB.
	Linear bool
}

// SolidTexture returns a 1x1 texture filled with a single RGBA color.
//
// Parameters:
//   - r, g, b, a: the color channels
//
// Returns:
//   - TextureData: the single-pixel texture
func SolidTexture(r, g, b, a uint8) TextureData {
	return TextureData{
		Pixels: []byte{r, g, b, a},
		Width:  1,
		Height: 1,
	}
}

// Valid reports whether the pixel buffer matches the declared dimensions.
func (t TextureData) Valid() bool {
	return t.Width > 0 && t.Height > 0 && len(t.Pixels) == int(t.Width*t.Height*4)
}

// LoadTextureData decodes a PNG or JPEG file into RGBA TextureData.
//
// Parameters:
//   - path: the image file path
//   - linear: true for data textures that must not be treated as sRGB
//
// Returns:
//   - TextureData: the decoded pixels
//   - error: error if the file cannot be opened or decoded
func LoadTextureData(path string, linear bool) (TextureData, error) {
	f, err := os.Open(path)
	if err != nil {
		return TextureData{}, fmt.Errorf("open texture %q: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return TextureData{}, fmt.Errorf("decode texture %q: %w", path, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return TextureData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Linear: linear,
	}, nil
}

package light

import "github.com/go-gl/mathgl/mgl32"

const (
	// MaxLights is the number of lights the lit program shades and a scene holds active.
	MaxLights = 8
	// Vec4sPerLight is the number of vec4 values Encode writes per light.
	Vec4sPerLight = 4
)

// Encode packs active lights into the lit program's light array, four vec4 values per light:
//
//	[0] xyz position, w kind
//	[1] xyz direction, w inner cutoff cosine
//	[2] rgb color, a intensity
//	[3] x outer cutoff cosine
//
// Lights are written in order until dst is full; inactive lights are skipped.
//
// Parameters:
//   - lights: the lights to encode
//   - dst: the destination array, a multiple of Vec4sPerLight long
//
// Returns:
//   - int: the number of lights written
func Encode(lights []Light, dst []mgl32.Vec4) int {
	capacity := len(dst) / Vec4sPerLight
	n := 0
	for i := range lights {
		l := &lights[i]
		if !l.Active || l.Source == nil {
			continue
		}
		if n == capacity {
			break
		}

		var pos, dir mgl32.Vec3
		var inner, outer float32
		switch s := l.Source.(type) {
		case Directional:
			dir = s.Direction
		case Point:
			pos = s.Position
		case Spot:
			pos, dir = s.Position, s.Direction
			inner, outer = s.InnerCutoff, s.OuterCutoff
		}

		o := n * Vec4sPerLight
		dst[o+0] = pos.Vec4(float32(l.Kind()))
		dst[o+1] = dir.Vec4(inner)
		dst[o+2] = l.Color.Vec4(l.Intensity)
		dst[o+3] = mgl32.Vec4{outer, 0, 0, 0}
		n++
	}
	for i := n * Vec4sPerLight; i < len(dst); i++ {
		dst[i] = mgl32.Vec4{}
	}
	return n
}

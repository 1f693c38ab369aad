// pre_processor.go implements the shader pre-processor. It scans GLSL and WGSL source for
// //@engine: annotations and replaces them with generated declarations or embedded chunks:
//
//   - //@engine:uniforms       emits the program's uniform declarations (GLSL uniforms or a WGSL struct)
//   - //@engine:textures       emits the program's texture and sampler declarations
//   - //@engine:include <name> injects the embedded chunk glsl/<name>.glsl or wgsl/<name>.wgsl
//
// Generating the WGSL uniform struct from the same declaration list that drives the Go-side
// block layout keeps both sides in agreement.
package shader

import (
	"embed"
	"fmt"
	"strings"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
)

//go:embed glsl/*.glsl glsl/*.vert glsl/*.frag wgsl/*.wgsl
var sources embed.FS

// annotationPrefix is the marker that identifies an annotation line.
const annotationPrefix = "//@engine:"

// Language selects the shading language a source is processed for.
type Language uint8

const (
	LanguageGLSL Language = iota
	LanguageWGSL
)

// PreProcessor expands annotations for a single program.
type PreProcessor struct {
	lang     Language
	uniforms []gpu.UniformDecl
	textures []gpu.TextureDecl
}

// NewPreProcessor creates a PreProcessor for the given language and program declarations.
//
// Parameters:
//   - lang: the target shading language
//   - uniforms: the program's uniform block in declaration order
//   - textures: the program's texture declarations
//
// Returns:
//   - *PreProcessor: a ready-to-use pre-processor
func NewPreProcessor(lang Language, uniforms []gpu.UniformDecl, textures []gpu.TextureDecl) *PreProcessor {
	return &PreProcessor{lang: lang, uniforms: uniforms, textures: textures}
}

// Process replaces every annotation line in source with its expansion.
//
// Parameters:
//   - source: the raw shader source
//
// Returns:
//   - string: the processed source
//   - error: error for unknown annotations or missing chunks
func (p *PreProcessor) Process(source string) (string, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		directive, ok := strings.CutPrefix(strings.TrimSpace(line), annotationPrefix)
		if !ok {
			out = append(out, line)
			continue
		}

		fields := strings.Fields(directive)
		if len(fields) == 0 {
			return "", fmt.Errorf("line %d: empty annotation", i+1)
		}
		switch fields[0] {
		case "uniforms":
			out = append(out, p.uniformBlock())
		case "textures":
			out = append(out, p.textureBlock())
		case "include":
			if len(fields) != 2 {
				return "", fmt.Errorf("line %d: include takes exactly one argument", i+1)
			}
			chunk, err := p.chunk(fields[1])
			if err != nil {
				return "", fmt.Errorf("line %d: %w", i+1, err)
			}
			out = append(out, chunk)
		default:
			return "", fmt.Errorf("line %d: unknown annotation %q", i+1, fields[0])
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *PreProcessor) chunk(name string) (string, error) {
	path := "glsl/" + name + ".glsl"
	if p.lang == LanguageWGSL {
		path = "wgsl/" + name + ".wgsl"
	}
	b, err := sources.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("unknown include %q: %w", name, err)
	}
	return string(b), nil
}

func (p *PreProcessor) uniformBlock() string {
	var sb strings.Builder
	if p.lang == LanguageGLSL {
		for _, u := range p.uniforms {
			switch u.Type {
			case gpu.UniformVec4Array:
				fmt.Fprintf(&sb, "uniform vec4 %s[%d];\n", u.Name, max(u.Count, 1))
			default:
				fmt.Fprintf(&sb, "uniform %s %s;\n", glslType(u.Type), u.Name)
			}
		}
		return sb.String()
	}

	sb.WriteString("struct Uniforms {\n")
	for _, u := range p.uniforms {
		switch u.Type {
		case gpu.UniformVec4Array:
			fmt.Fprintf(&sb, "    %s: array<vec4<f32>, %d>,\n", u.Name, max(u.Count, 1))
		default:
			fmt.Fprintf(&sb, "    %s: %s,\n", u.Name, wgslType(u.Type))
		}
	}
	sb.WriteString("};\n\n@group(0) @binding(0) var<uniform> u: Uniforms;\n")
	return sb.String()
}

func (p *PreProcessor) textureBlock() string {
	var sb strings.Builder
	for _, t := range p.textures {
		if p.lang == LanguageGLSL {
			if t.Depth {
				fmt.Fprintf(&sb, "uniform sampler2DShadow %s;\n", t.Name)
			} else {
				fmt.Fprintf(&sb, "uniform sampler2D %s;\n", t.Name)
			}
			continue
		}
		if t.Depth {
			fmt.Fprintf(&sb, "@group(1) @binding(%d) var %s: texture_depth_2d;\n", t.Slot, t.Name)
		} else {
			fmt.Fprintf(&sb, "@group(1) @binding(%d) var %s: texture_2d<f32>;\n", t.Slot, t.Name)
		}
	}
	if p.lang == LanguageWGSL {
		fmt.Fprintf(&sb, "@group(1) @binding(%d) var s_linear: sampler;\n", gpu.LinearSamplerBinding)
		fmt.Fprintf(&sb, "@group(1) @binding(%d) var s_shadow: sampler_comparison;\n", gpu.ShadowSamplerBinding)
	}
	return sb.String()
}

func glslType(t gpu.UniformType) string {
	switch t {
	case gpu.UniformFloat:
		return "float"
	case gpu.UniformInt:
		return "int"
	case gpu.UniformVec3:
		return "vec3"
	case gpu.UniformVec4:
		return "vec4"
	case gpu.UniformMat4:
		return "mat4"
	}
	return "float"
}

func wgslType(t gpu.UniformType) string {
	switch t {
	case gpu.UniformFloat:
		return "f32"
	case gpu.UniformInt:
		return "i32"
	case gpu.UniformVec3:
		return "vec3<f32>"
	case gpu.UniformVec4:
		return "vec4<f32>"
	case gpu.UniformMat4:
		return "mat4x4<f32>"
	}
	return "f32"
}

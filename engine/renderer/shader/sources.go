package shader

import (
	"fmt"

	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/light"
	"github.com/mu-gua-here/OpenGL-3D-Engine-sub000/engine/renderer/gpu"
)

// Program names.
const (
	ProgramLit   = "lit"
	ProgramDepth = "depth"
	ProgramUnlit = "unlit"
)

// Uniform names shared by the programs.
const (
	UViewProj      = "u_viewProj"
	UModel         = "u_model"
	ULightSpace    = "u_lightSpace"
	UCameraPos     = "u_cameraPos"
	UInstanced     = "u_instanced"
	UBaseColor     = "u_baseColor"
	UEmissive      = "u_emissive"
	UMetallic      = "u_metallic"
	URoughness     = "u_roughness"
	UAO            = "u_ao"
	UHeightScale   = "u_heightScale"
	UAlphaMode     = "u_alphaMode"
	UAlphaCutoff   = "u_alphaCutoff"
	UHasNormalMap  = "u_hasNormalMap"
	ULightCount    = "u_lightCount"
	UShadowEnabled = "u_shadowEnabled"
	UShadowLight   = "u_shadowLight"
	ULights        = "u_lights"
	UColor         = "u_color"
)

var litTextures = []gpu.TextureDecl{
	{Name: "u_albedoMap", Slot: gpu.SlotAlbedo},
	{Name: "u_normalMap", Slot: gpu.SlotNormal},
	{Name: "u_ormMap", Slot: gpu.SlotORM},
	{Name: "u_emissiveMap", Slot: gpu.SlotEmissive},
	{Name: "u_shadowMap", Slot: gpu.SlotShadow, Depth: true},
}

var litUniforms = []gpu.UniformDecl{
	{Name: UViewProj, Type: gpu.UniformMat4},
	{Name: UModel, Type: gpu.UniformMat4},
	{Name: ULightSpace, Type: gpu.UniformMat4},
	{Name: UBaseColor, Type: gpu.UniformVec4},
	{Name: UCameraPos, Type: gpu.UniformVec3},
	{Name: UMetallic, Type: gpu.UniformFloat},
	{Name: UEmissive, Type: gpu.UniformVec3},
	{Name: URoughness, Type: gpu.UniformFloat},
	{Name: UAO, Type: gpu.UniformFloat},
	{Name: UHeightScale, Type: gpu.UniformFloat},
	{Name: UAlphaCutoff, Type: gpu.UniformFloat},
	{Name: UInstanced, Type: gpu.UniformInt},
	{Name: UAlphaMode, Type: gpu.UniformInt},
	{Name: UHasNormalMap, Type: gpu.UniformInt},
	{Name: ULightCount, Type: gpu.UniformInt},
	{Name: UShadowEnabled, Type: gpu.UniformInt},
	{Name: UShadowLight, Type: gpu.UniformInt},
	{Name: ULights, Type: gpu.UniformVec4Array, Count: light.MaxLights * light.Vec4sPerLight},
}

var depthUniforms = []gpu.UniformDecl{
	{Name: UViewProj, Type: gpu.UniformMat4},
	{Name: UModel, Type: gpu.UniformMat4},
	{Name: UBaseColor, Type: gpu.UniformVec4},
	{Name: UInstanced, Type: gpu.UniformInt},
	{Name: UAlphaMode, Type: gpu.UniformInt},
	{Name: UAlphaCutoff, Type: gpu.UniformFloat},
}

var unlitUniforms = []gpu.UniformDecl{
	{Name: UViewProj, Type: gpu.UniformMat4},
	{Name: UModel, Type: gpu.UniformMat4},
	{Name: UColor, Type: gpu.UniformVec4},
	{Name: UInstanced, Type: gpu.UniformInt},
}

// LitSource returns the PBR color-pass program.
func LitSource() (gpu.ProgramSource, error) {
	return build(ProgramLit, litUniforms, litTextures)
}

// DepthSource returns the depth-only program used by the shadow pass and the depth pre-pass.
func DepthSource() (gpu.ProgramSource, error) {
	return build(ProgramDepth, depthUniforms, litTextures[:1])
}

// UnlitSource returns the emissive program used for light visuals.
func UnlitSource() (gpu.ProgramSource, error) {
	return build(ProgramUnlit, unlitUniforms, nil)
}

// build loads and pre-processes the GLSL stages and the WGSL module of a program.
func build(name string, uniforms []gpu.UniformDecl, textures []gpu.TextureDecl) (gpu.ProgramSource, error) {
	src := gpu.ProgramSource{
		Name:     name,
		Uniforms: uniforms,
		Textures: textures,
	}

	glsl := NewPreProcessor(LanguageGLSL, uniforms, textures)
	wgsl := NewPreProcessor(LanguageWGSL, uniforms, textures)

	stages := []struct {
		path string
		pp   *PreProcessor
		dst  *string
	}{
		{"glsl/" + name + ".vert", glsl, &src.Vertex},
		{"glsl/" + name + ".frag", glsl, &src.Fragment},
		{"wgsl/" + name + ".wgsl", wgsl, &src.WGSL},
	}
	for _, st := range stages {
		raw, err := sources.ReadFile(st.path)
		if err != nil {
			return gpu.ProgramSource{}, fmt.Errorf("program %q: %w", name, err)
		}
		out, err := st.pp.Process(string(raw))
		if err != nil {
			return gpu.ProgramSource{}, fmt.Errorf("program %q: %s: %w", name, st.path, err)
		}
		*st.dst = out
	}
	return src, nil
}

package material

import (
	"math"

	"github.com/Carmen-Shannon/oxy-glb/common"

	"github.com/go-gl/mathgl/mgl32"
)

// AlphaMode controls how the alpha channel of the base color is interpreted.
type AlphaMode int

const (
	// AlphaModeOpaque ignores alpha entirely.
	AlphaModeOpaque AlphaMode = iota
	// AlphaModeMask discards fragments whose alpha falls below the cutoff.
	AlphaModeMask
	// AlphaModeBlend blends the fragment with the framebuffer.
	AlphaModeBlend
)

func (a AlphaMode) String() string {
	switch a {
	case AlphaModeMask:
		return "MASK"
	case AlphaModeBlend:
		return "BLEND"
	default:
		return "OPAQUE"
	}
}

// TextureTransform is a UV offset, rotation and scale applied before sampling.
type TextureTransform struct {
	Offset   [2]float32
	Rotation float32
	Scale    [2]float32
	// TexCoord overrides the slot's UV set when non-nil.
	TexCoord *int
}

// Matrix returns the 3x3 UV transform: translation * rotation * scale.
//
// Returns:
//   - mgl32.Mat3: the column-major UV transform
func (t *TextureTransform) Matrix() mgl32.Mat3 {
	if t == nil {
		return mgl32.Ident3()
	}
	s, c := math.Sincos(float64(t.Rotation))
	sin, cos := float32(s), float32(c)

	translation := mgl32.Mat3{1, 0, 0, 0, 1, 0, t.Offset[0], t.Offset[1], 1}
	rotation := mgl32.Mat3{cos, -sin, 0, sin, cos, 0, 0, 0, 1}
	scale := mgl32.Mat3{t.Scale[0], 0, 0, 0, t.Scale[1], 0, 0, 0, 1}
	return translation.Mul3(rotation).Mul3(scale)
}

// TextureSlot binds one texture to one material input.
type TextureSlot struct {
	// Index is the texture index in the asset.
	Index int

	// Texture is the resolved texture. Its image may be unloaded when the asset was read
	// without resolving external resources.
	Texture *common.Texture

	// TexCoord is the UV set the slot samples.
	TexCoord int

	// Scale is the normal map scale or occlusion strength. One for other slots.
	Scale float32

	// Transform is the optional UV transform.
	Transform *TextureTransform
}

// UVSet returns the UV set to sample, honouring a transform override.
func (s *TextureSlot) UVSet() int {
	if s.Transform != nil && s.Transform.TexCoord != nil {
		return *s.Transform.TexCoord
	}
	return s.TexCoord
}

// Clearcoat is a second specular layer on top of the base material.
type Clearcoat struct {
	Factor           float32
	Texture          *TextureSlot
	Roughness        float32
	RoughnessTexture *TextureSlot
	NormalTexture    *TextureSlot
}

// Specular overrides the dielectric specular strength and tint.
type Specular struct {
	Factor       float32
	Texture      *TextureSlot
	ColorFactor  [3]float32
	ColorTexture *TextureSlot
}

// Sheen is a back-scattering layer for cloth-like surfaces.
type Sheen struct {
	ColorFactor      [3]float32
	ColorTexture     *TextureSlot
	RoughnessFactor  float32
	RoughnessTexture *TextureSlot
}

// Transmission makes the surface optically thin and transparent.
type Transmission struct {
	Factor  float32
	Texture *TextureSlot
}

// Volume gives a transmissive surface a thickness and attenuation.
type Volume struct {
	ThicknessFactor  float32
	ThicknessTexture *TextureSlot
	// AttenuationDistance is +Inf when light is not attenuated.
	AttenuationDistance float32
	AttenuationColor    [3]float32
}

// SpecularGlossiness is the legacy specular-glossiness workflow.
type SpecularGlossiness struct {
	DiffuseFactor             [4]float32
	DiffuseTexture            *TextureSlot
	SpecularFactor            [3]float32
	GlossinessFactor          float32
	SpecularGlossinessTexture *TextureSlot
}

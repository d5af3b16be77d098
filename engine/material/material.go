package material

// material is the implementation of the Material interface.
type material struct {
	name string

	baseColor                [4]float32
	baseColorTexture         *TextureSlot
	metallic                 float32
	roughness                float32
	metallicRoughnessTexture *TextureSlot
	normalTexture            *TextureSlot
	occlusionTexture         *TextureSlot
	emissive                 [3]float32
	emissiveTexture          *TextureSlot
	emissiveStrength         float32

	alphaMode   AlphaMode
	alphaCutoff float32
	doubleSided bool

	unlit              bool
	ior                float32
	clearcoat          *Clearcoat
	specular           *Specular
	sheen              *Sheen
	transmission       *Transmission
	volume             *Volume
	specularGlossiness *SpecularGlossiness

	extensions []string
}

// Material describes the surface of a mesh as imported from an asset.
//
// All colour factors are in display space. Extension blocks are nil when the asset does
// not declare the matching extension on this material. A Material is read-only once built.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the RGBA base color factor.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// BaseColorTexture retrieves the base color slot, or nil.
	//
	// Returns:
	//   - *TextureSlot: the slot or nil
	BaseColorTexture() *TextureSlot

	// Metallic retrieves the metallic factor of the material.
	// A value of 0.0 represents a dielectric surface, 1.0 represents a fully metallic surface.
	//
	// Returns:
	//   - float32: the metallic factor
	Metallic() float32

	// Roughness retrieves the roughness factor of the material.
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// MetallicRoughnessTexture retrieves the metallic-roughness slot, or nil.
	//
	// Returns:
	//   - *TextureSlot: the slot or nil
	MetallicRoughnessTexture() *TextureSlot

	// NormalTexture retrieves the tangent-space normal map slot, or nil.
	// The slot's Scale carries the normal scale.
	//
	// Returns:
	//   - *TextureSlot: the slot or nil
	NormalTexture() *TextureSlot

	// OcclusionTexture retrieves the ambient occlusion slot, or nil.
	// The slot's Scale carries the occlusion strength.
	//
	// Returns:
	//   - *TextureSlot: the slot or nil
	OcclusionTexture() *TextureSlot

	// Emissive retrieves the RGB emissive factor.
	//
	// Returns:
	//   - [3]float32: the emissive factor
	Emissive() [3]float32

	// EmissiveTexture retrieves the emissive slot, or nil.
	//
	// Returns:
	//   - *TextureSlot: the slot or nil
	EmissiveTexture() *TextureSlot

	// EmissiveStrength retrieves the emissive multiplier. One unless overridden by an extension.
	//
	// Returns:
	//   - float32: the multiplier
	EmissiveStrength() float32

	// AlphaMode retrieves how alpha is interpreted.
	//
	// Returns:
	//   - AlphaMode: the alpha mode
	AlphaMode() AlphaMode

	// AlphaCutoff retrieves the mask threshold. Only meaningful for AlphaModeMask.
	//
	// Returns:
	//   - float32: the cutoff
	AlphaCutoff() float32

	// DoubleSided reports whether back faces are rendered.
	//
	// Returns:
	//   - bool: true if double sided
	DoubleSided() bool

	// Unlit reports whether lighting should be skipped.
	Unlit() bool

	// IOR retrieves the index of refraction. 1.5 unless overridden.
	IOR() float32

	Clearcoat() *Clearcoat
	Specular() *Specular
	Sheen() *Sheen
	Transmission() *Transmission
	Volume() *Volume
	SpecularGlossiness() *SpecularGlossiness

	// Extensions lists the extension names that were applied to this material, in
	// application order.
	//
	// Returns:
	//   - []string: the applied extension names
	Extensions() []string

	// TextureSlots returns every non-nil slot, core slots first.
	//
	// Returns:
	//   - []*TextureSlot: the slots
	TextureSlots() []*TextureSlot
}

var _ Material = &material{}

// NewMaterial creates a new Material with asset-format defaults and the provided options applied.
//
// Parameters:
//   - options: a variadic list of MaterialBuilderOption functions
//
// Returns:
//   - Material: the new material
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor:        [4]float32{1, 1, 1, 1},
		metallic:         1,
		roughness:        1,
		emissiveStrength: 1,
		alphaCutoff:      0.5,
		ior:              1.5,
	}
	for _, option := range options {
		option(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) BaseColorTexture() *TextureSlot {
	return m.baseColorTexture
}

func (m *material) Metallic() float32 {
	return m.metallic
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) MetallicRoughnessTexture() *TextureSlot {
	return m.metallicRoughnessTexture
}

func (m *material) NormalTexture() *TextureSlot {
	return m.normalTexture
}

func (m *material) OcclusionTexture() *TextureSlot {
	return m.occlusionTexture
}

func (m *material) Emissive() [3]float32 {
	return m.emissive
}

func (m *material) EmissiveTexture() *TextureSlot {
	return m.emissiveTexture
}

func (m *material) EmissiveStrength() float32 {
	return m.emissiveStrength
}

func (m *material) AlphaMode() AlphaMode {
	return m.alphaMode
}

func (m *material) AlphaCutoff() float32 {
	return m.alphaCutoff
}

func (m *material) DoubleSided() bool {
	return m.doubleSided
}

func (m *material) Unlit() bool {
	return m.unlit
}

func (m *material) IOR() float32 {
	return m.ior
}

func (m *material) Clearcoat() *Clearcoat {
	return m.clearcoat
}

func (m *material) Specular() *Specular {
	return m.specular
}

func (m *material) Sheen() *Sheen {
	return m.sheen
}

func (m *material) Transmission() *Transmission {
	return m.transmission
}

func (m *material) Volume() *Volume {
	return m.volume
}

func (m *material) SpecularGlossiness() *SpecularGlossiness {
	return m.specularGlossiness
}

func (m *material) Extensions() []string {
	return m.extensions
}

func (m *material) TextureSlots() []*TextureSlot {
	candidates := []*TextureSlot{
		m.baseColorTexture, m.metallicRoughnessTexture, m.normalTexture, m.occlusionTexture, m.emissiveTexture,
	}
	if c := m.clearcoat; c != nil {
		candidates = append(candidates, c.Texture, c.RoughnessTexture, c.NormalTexture)
	}
	if s := m.specular; s != nil {
		candidates = append(candidates, s.Texture, s.ColorTexture)
	}
	if s := m.sheen; s != nil {
		candidates = append(candidates, s.ColorTexture, s.RoughnessTexture)
	}
	if t := m.transmission; t != nil {
		candidates = append(candidates, t.Texture)
	}
	if v := m.volume; v != nil {
		candidates = append(candidates, v.ThicknessTexture)
	}
	if sg := m.specularGlossiness; sg != nil {
		candidates = append(candidates, sg.DiffuseTexture, sg.SpecularGlossinessTexture)
	}

	var slots []*TextureSlot
	for _, s := range candidates {
		if s != nil {
			slots = append(slots, s)
		}
	}
	return slots
}

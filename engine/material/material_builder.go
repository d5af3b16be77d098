package material

// MaterialBuilderOption is a functional option for configuring a Material via NewMaterial.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the Material.
//
// Parameters:
//   - name: the material identifier
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the RGBA base color factor and its texture.
//
// Parameters:
//   - color: the RGBA factor in display space
//   - tex: the base color slot, or nil
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color [4]float32, tex *TextureSlot) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
		m.baseColorTexture = tex
	}
}

// WithMetallicRoughness is an option builder that sets the metallic and roughness factors and their packed texture.
//
// Parameters:
//   - metallic: the metallic factor
//   - roughness: the roughness factor
//   - tex: the metallic-roughness slot, or nil
//
// Returns:
//   - MaterialBuilderOption: a function that applies the option to a material
func WithMetallicRoughness(metallic, roughness float32, tex *TextureSlot) MaterialBuilderOption {
	return func(m *material) {
		m.metallic = metallic
		m.roughness = roughness
		m.metallicRoughnessTexture = tex
	}
}

// WithNormalTexture is an option builder that sets the normal map slot.
func WithNormalTexture(tex *TextureSlot) MaterialBuilderOption {
	return func(m *material) {
		m.normalTexture = tex
	}
}

// WithOcclusionTexture is an option builder that sets the occlusion slot.
func WithOcclusionTexture(tex *TextureSlot) MaterialBuilderOption {
	return func(m *material) {
		m.occlusionTexture = tex
	}
}

// WithEmissive is an option builder that sets the emissive factor and texture.
//
// Parameters:
//   - factor: the RGB emissive factor in display space
//   - tex: the emissive slot, or nil
//
// Returns:
//   - MaterialBuilderOption: a function that applies the emissive option to a material
func WithEmissive(factor [3]float32, tex *TextureSlot) MaterialBuilderOption {
	return func(m *material) {
		m.emissive = factor
		m.emissiveTexture = tex
	}
}

// WithEmissiveStrength is an option builder that sets the emissive multiplier.
func WithEmissiveStrength(strength float32) MaterialBuilderOption {
	return func(m *material) {
		m.emissiveStrength = strength
	}
}

// WithAlpha is an option builder that sets the alpha mode and mask cutoff.
//
// Parameters:
//   - mode: the alpha mode
//   - cutoff: the mask threshold
//
// Returns:
//   - MaterialBuilderOption: a function that applies the alpha option to a material
func WithAlpha(mode AlphaMode, cutoff float32) MaterialBuilderOption {
	return func(m *material) {
		m.alphaMode = mode
		m.alphaCutoff = cutoff
	}
}

// WithDoubleSided is an option builder that sets whether back faces are rendered.
func WithDoubleSided(doubleSided bool) MaterialBuilderOption {
	return func(m *material) {
		m.doubleSided = doubleSided
	}
}

// WithUnlit is an option builder that marks the material as unlit.
func WithUnlit() MaterialBuilderOption {
	return func(m *material) {
		m.unlit = true
	}
}

// WithIOR is an option builder that sets the index of refraction.
func WithIOR(ior float32) MaterialBuilderOption {
	return func(m *material) {
		m.ior = ior
	}
}

// WithClearcoat is an option builder that attaches a clearcoat layer.
func WithClearcoat(c *Clearcoat) MaterialBuilderOption {
	return func(m *material) {
		m.clearcoat = c
	}
}

// WithSpecular is an option builder that attaches a specular override.
func WithSpecular(s *Specular) MaterialBuilderOption {
	return func(m *material) {
		m.specular = s
	}
}

// WithSheen is an option builder that attaches a sheen layer.
func WithSheen(s *Sheen) MaterialBuilderOption {
	return func(m *material) {
		m.sheen = s
	}
}

// WithTransmission is an option builder that attaches transmission.
func WithTransmission(t *Transmission) MaterialBuilderOption {
	return func(m *material) {
		m.transmission = t
	}
}

// WithVolume is an option builder that attaches a volume.
func WithVolume(v *Volume) MaterialBuilderOption {
	return func(m *material) {
		m.volume = v
	}
}

// WithSpecularGlossiness is an option builder that attaches the specular-glossiness workflow.
// The diffuse factor and texture also become the base color so consumers that only read the
// metallic-roughness inputs still see the surface colour.
//
// Parameters:
//   - sg: the specular-glossiness block
//
// Returns:
//   - MaterialBuilderOption: a function that applies the option to a material
func WithSpecularGlossiness(sg *SpecularGlossiness) MaterialBuilderOption {
	return func(m *material) {
		m.specularGlossiness = sg
		m.baseColor = sg.DiffuseFactor
		m.baseColorTexture = sg.DiffuseTexture
	}
}

// WithExtension is an option builder that records an applied extension name.
func WithExtension(name string) MaterialBuilderOption {
	return func(m *material) {
		m.extensions = append(m.extensions, name)
	}
}

package loader

import (
	"encoding/json"
	"math"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/gltf"
	"github.com/Carmen-Shannon/oxy-glb/engine/material"
)

// ExtensionKind enumerates the material extensions the loader understands.
type ExtensionKind int

const (
	ExtensionClearcoat ExtensionKind = iota
	ExtensionSpecular
	ExtensionSheen
	ExtensionTransmission
	ExtensionVolume
	ExtensionUnlit
	ExtensionIOR
	ExtensionEmissiveStrength
	ExtensionSpecularGlossiness
)

var extensionNames = [...]string{
	ExtensionClearcoat:          gltf.ExtMaterialsClearcoat,
	ExtensionSpecular:           gltf.ExtMaterialsSpecular,
	ExtensionSheen:              gltf.ExtMaterialsSheen,
	ExtensionTransmission:       gltf.ExtMaterialsTransmission,
	ExtensionVolume:             gltf.ExtMaterialsVolume,
	ExtensionUnlit:              gltf.ExtMaterialsUnlit,
	ExtensionIOR:                gltf.ExtMaterialsIOR,
	ExtensionEmissiveStrength:   gltf.ExtMaterialsEmissiveStrength,
	ExtensionSpecularGlossiness: gltf.ExtMaterialsPBRSpecGloss,
}

// String returns the extension name as written in assets.
func (k ExtensionKind) String() string {
	if k < 0 || int(k) >= len(extensionNames) {
		return "unknown"
	}
	return extensionNames[k]
}

// extensionKindOf looks up an extension name. Unknown names report false.
func extensionKindOf(name string) (ExtensionKind, bool) {
	for k, n := range extensionNames {
		if n == name {
			return ExtensionKind(k), true
		}
	}
	return 0, false
}

// slotFunc resolves a texture reference into a material slot. scale is the normal scale or
// occlusion strength, one elsewhere.
type slotFunc func(info *gltf.TextureInfo, scale float32) *material.TextureSlot

// materialExtension converts one extension payload into material options.
type materialExtension interface {
	Kind() ExtensionKind

	// Options decodes raw and returns the options that apply it.
	Options(raw json.RawMessage, slot slotFunc) ([]material.MaterialBuilderOption, error)
}

// materialExtensions is indexed by ExtensionKind.
var materialExtensions = [...]materialExtension{
	ExtensionClearcoat:          clearcoatExtension{},
	ExtensionSpecular:           specularExtension{},
	ExtensionSheen:              sheenExtension{},
	ExtensionTransmission:       transmissionExtension{},
	ExtensionVolume:             volumeExtension{},
	ExtensionUnlit:              unlitExtension{},
	ExtensionIOR:                iorExtension{},
	ExtensionEmissiveStrength:   emissiveStrengthExtension{},
	ExtensionSpecularGlossiness: specularGlossinessExtension{},
}

// decodeExtension unmarshals raw into v, leaving v untouched when raw is empty.
func decodeExtension(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func valueOr(p *float32, def float32) float32 {
	if p == nil {
		return def
	}
	return *p
}

func colorOr(p *[3]float32, def [3]float32) [3]float32 {
	if p == nil {
		return def
	}
	return *p
}

type clearcoatExtension struct{}

func (clearcoatExtension) Kind() ExtensionKind { return ExtensionClearcoat }

func (clearcoatExtension) Options(raw json.RawMessage, slot slotFunc) ([]material.MaterialBuilderOption, error) {
	var ext struct {
		Factor           *float32                `json:"clearcoatFactor"`
		Texture          *gltf.TextureInfo       `json:"clearcoatTexture"`
		Roughness        *float32                `json:"clearcoatRoughnessFactor"`
		RoughnessTexture *gltf.TextureInfo       `json:"clearcoatRoughnessTexture"`
		NormalTexture    *gltf.NormalTextureInfo `json:"clearcoatNormalTexture"`
	}
	if err := decodeExtension(raw, &ext); err != nil {
		return nil, err
	}
	c := &material.Clearcoat{
		Factor:           valueOr(ext.Factor, 0),
		Texture:          slot(ext.Texture, 1),
		Roughness:        valueOr(ext.Roughness, 0),
		RoughnessTexture: slot(ext.RoughnessTexture, 1),
	}
	if n := ext.NormalTexture; n != nil {
		c.NormalTexture = slot(&n.TextureInfo, valueOr(n.Scale, 1))
	}
	return []material.MaterialBuilderOption{material.WithClearcoat(c)}, nil
}

type specularExtension struct{}

func (specularExtension) Kind() ExtensionKind { return ExtensionSpecular }

func (specularExtension) Options(raw json.RawMessage, slot slotFunc) ([]material.MaterialBuilderOption, error) {
	var ext struct {
		Factor       *float32          `json:"specularFactor"`
		Texture      *gltf.TextureInfo `json:"specularTexture"`
		ColorFactor  *[3]float32       `json:"specularColorFactor"`
		ColorTexture *gltf.TextureInfo `json:"specularColorTexture"`
	}
	if err := decodeExtension(raw, &ext); err != nil {
		return nil, err
	}
	return []material.MaterialBuilderOption{material.WithSpecular(&material.Specular{
		Factor:       valueOr(ext.Factor, 1),
		Texture:      slot(ext.Texture, 1),
		ColorFactor:  common.LinearToSRGB3(colorOr(ext.ColorFactor, [3]float32{1, 1, 1})),
		ColorTexture: slot(ext.ColorTexture, 1),
	})}, nil
}

type sheenExtension struct{}

func (sheenExtension) Kind() ExtensionKind { return ExtensionSheen }

func (sheenExtension) Options(raw json.RawMessage, slot slotFunc) ([]material.MaterialBuilderOption, error) {
	var ext struct {
		ColorFactor      *[3]float32       `json:"sheenColorFactor"`
		ColorTexture     *gltf.TextureInfo `json:"sheenColorTexture"`
		RoughnessFactor  *float32          `json:"sheenRoughnessFactor"`
		RoughnessTexture *gltf.TextureInfo `json:"sheenRoughnessTexture"`
	}
	if err := decodeExtension(raw, &ext); err != nil {
		return nil, err
	}
	return []material.MaterialBuilderOption{material.WithSheen(&material.Sheen{
		ColorFactor:      common.LinearToSRGB3(colorOr(ext.ColorFactor, [3]float32{})),
		ColorTexture:     slot(ext.ColorTexture, 1),
		RoughnessFactor:  valueOr(ext.RoughnessFactor, 0),
		RoughnessTexture: slot(ext.RoughnessTexture, 1),
	})}, nil
}

type transmissionExtension struct{}

func (transmissionExtension) Kind() ExtensionKind { return ExtensionTransmission }

func (transmissionExtension) Options(raw json.RawMessage, slot slotFunc) ([]material.MaterialBuilderOption, error) {
	var ext struct {
		Factor  *float32          `json:"transmissionFactor"`
		Texture *gltf.TextureInfo `json:"transmissionTexture"`
	}
	if err := decodeExtension(raw, &ext); err != nil {
		return nil, err
	}
	return []material.MaterialBuilderOption{material.WithTransmission(&material.Transmission{
		Factor:  valueOr(ext.Factor, 0),
		Texture: slot(ext.Texture, 1),
	})}, nil
}

type volumeExtension struct{}

func (volumeExtension) Kind() ExtensionKind { return ExtensionVolume }

func (volumeExtension) Options(raw json.RawMessage, slot slotFunc) ([]material.MaterialBuilderOption, error) {
	var ext struct {
		ThicknessFactor     *float32          `json:"thicknessFactor"`
		ThicknessTexture    *gltf.TextureInfo `json:"thicknessTexture"`
		AttenuationDistance *float32          `json:"attenuationDistance"`
		AttenuationColor    *[3]float32       `json:"attenuationColor"`
	}
	if err := decodeExtension(raw, &ext); err != nil {
		return nil, err
	}
	return []material.MaterialBuilderOption{material.WithVolume(&material.Volume{
		ThicknessFactor:     valueOr(ext.ThicknessFactor, 0),
		ThicknessTexture:    slot(ext.ThicknessTexture, 1),
		AttenuationDistance: valueOr(ext.AttenuationDistance, float32(math.Inf(1))),
		AttenuationColor:    colorOr(ext.AttenuationColor, [3]float32{1, 1, 1}),
	})}, nil
}

type unlitExtension struct{}

func (unlitExtension) Kind() ExtensionKind { return ExtensionUnlit }

func (unlitExtension) Options(json.RawMessage, slotFunc) ([]material.MaterialBuilderOption, error) {
	return []material.MaterialBuilderOption{material.WithUnlit()}, nil
}

type iorExtension struct{}

func (iorExtension) Kind() ExtensionKind { return ExtensionIOR }

func (iorExtension) Options(raw json.RawMessage, _ slotFunc) ([]material.MaterialBuilderOption, error) {
	var ext struct {
		IOR *float32 `json:"ior"`
	}
	if err := decodeExtension(raw, &ext); err != nil {
		return nil, err
	}
	return []material.MaterialBuilderOption{material.WithIOR(valueOr(ext.IOR, 1.5))}, nil
}

type emissiveStrengthExtension struct{}

func (emissiveStrengthExtension) Kind() ExtensionKind { return ExtensionEmissiveStrength }

func (emissiveStrengthExtension) Options(raw json.RawMessage, _ slotFunc) ([]material.MaterialBuilderOption, error) {
	var ext struct {
		Strength *float32 `json:"emissiveStrength"`
	}
	if err := decodeExtension(raw, &ext); err != nil {
		return nil, err
	}
	return []material.MaterialBuilderOption{material.WithEmissiveStrength(valueOr(ext.Strength, 1))}, nil
}

type specularGlossinessExtension struct{}

func (specularGlossinessExtension) Kind() ExtensionKind { return ExtensionSpecularGlossiness }

func (specularGlossinessExtension) Options(raw json.RawMessage, slot slotFunc) ([]material.MaterialBuilderOption, error) {
	var ext struct {
		DiffuseFactor             *[4]float32       `json:"diffuseFactor"`
		DiffuseTexture            *gltf.TextureInfo `json:"diffuseTexture"`
		SpecularFactor            *[3]float32       `json:"specularFactor"`
		GlossinessFactor          *float32          `json:"glossinessFactor"`
		SpecularGlossinessTexture *gltf.TextureInfo `json:"specularGlossinessTexture"`
	}
	if err := decodeExtension(raw, &ext); err != nil {
		return nil, err
	}
	diffuse := [4]float32{1, 1, 1, 1}
	if ext.DiffuseFactor != nil {
		diffuse = *ext.DiffuseFactor
	}
	return []material.MaterialBuilderOption{material.WithSpecularGlossiness(&material.SpecularGlossiness{
		DiffuseFactor:             common.LinearToSRGB4(diffuse),
		DiffuseTexture:            slot(ext.DiffuseTexture, 1),
		SpecularFactor:            common.LinearToSRGB3(colorOr(ext.SpecularFactor, [3]float32{1, 1, 1})),
		GlossinessFactor:          valueOr(ext.GlossinessFactor, 1),
		SpecularGlossinessTexture: slot(ext.SpecularGlossinessTexture, 1),
	})}, nil
}

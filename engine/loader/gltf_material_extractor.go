package loader

import (
	"context"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/gltf"
	"github.com/Carmen-Shannon/oxy-glb/engine/material"

	"go.uber.org/zap"
)

// gltfMaterialExtractorImpl is the implementation of the gltfMaterialExtractor interface.
type gltfMaterialExtractorImpl struct {
	asset    *gltfAsset
	textures []*common.Texture
}

// gltfMaterialExtractor defines the interface for building engine materials from document materials.
// Core fields are mapped directly with colour factors converted to display space. Known
// extensions are applied through their handlers; unknown extension names are skipped.
type gltfMaterialExtractor interface {
	// ExtractAllMaterials builds every material in document order.
	//
	// Parameters:
	//   - ctx: the import context
	//
	// Returns:
	//   - []material.Material: one material per document material
	//   - error: error if a material stage hook fails
	ExtractAllMaterials(ctx context.Context) ([]material.Material, error)
}

var _ gltfMaterialExtractor = &gltfMaterialExtractorImpl{}

// newGLTFMaterialExtractor creates a material extractor that binds slots to the given textures.
//
// Parameters:
//   - asset: the asset being imported
//   - textures: the built textures, indexed like the document textures
//
// Returns:
//   - gltfMaterialExtractor: the material extractor
func newGLTFMaterialExtractor(asset *gltfAsset, textures []*common.Texture) gltfMaterialExtractor {
	return &gltfMaterialExtractorImpl{asset: asset, textures: textures}
}

func (e *gltfMaterialExtractorImpl) ExtractAllMaterials(ctx context.Context) ([]material.Material, error) {
	doc := e.asset.doc
	materials := make([]material.Material, len(doc.Materials))
	for i := range doc.Materials {
		src := Source[gltf.Material]{Index: i, Value: &doc.Materials[i], Document: doc}
		m, err := e.asset.hooks.Material.run(ctx, src, e.buildMaterial)
		if err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		materials[i] = m
	}
	return materials, nil
}

// buildMaterial is the default material stage.
func (e *gltfMaterialExtractorImpl) buildMaterial(_ context.Context, src Source[gltf.Material]) (material.Material, error) {
	dm := src.Value
	name := common.IndexedName(dm.Name, "material", src.Index)

	opts := []material.MaterialBuilderOption{material.WithName(name)}

	if pbr := dm.PBRMetallicRoughness; pbr != nil {
		base := [4]float32{1, 1, 1, 1}
		if pbr.BaseColorFactor != nil {
			base = *pbr.BaseColorFactor
		}
		opts = append(opts,
			material.WithBaseColor(common.LinearToSRGB4(base), e.slot(pbr.BaseColorTexture, 1)),
			material.WithMetallicRoughness(valueOr(pbr.MetallicFactor, 1), valueOr(pbr.RoughnessFactor, 1), e.slot(pbr.MetallicRoughnessTexture, 1)),
		)
	}
	if n := dm.NormalTexture; n != nil {
		opts = append(opts, material.WithNormalTexture(e.slot(&n.TextureInfo, valueOr(n.Scale, 1))))
	}
	if o := dm.OcclusionTexture; o != nil {
		opts = append(opts, material.WithOcclusionTexture(e.slot(&o.TextureInfo, valueOr(o.Strength, 1))))
	}
	if dm.EmissiveFactor != nil || dm.EmissiveTexture != nil {
		opts = append(opts, material.WithEmissive(common.LinearToSRGB3(colorOr(dm.EmissiveFactor, [3]float32{})), e.slot(dm.EmissiveTexture, 1)))
	}

	mode := material.AlphaModeOpaque
	switch dm.AlphaMode {
	case gltf.AlphaMask:
		mode = material.AlphaModeMask
	case gltf.AlphaBlend:
		mode = material.AlphaModeBlend
	}
	opts = append(opts,
		material.WithAlpha(mode, valueOr(dm.AlphaCutoff, 0.5)),
		material.WithDoubleSided(dm.DoubleSided),
	)

	names := make([]string, 0, len(dm.Extensions))
	for n := range dm.Extensions {
		names = append(names, n)
	}
	slices.Sort(names)

	for _, n := range names {
		kind, ok := extensionKindOf(n)
		if !ok {
			e.asset.log.Debug("skipping unknown material extension", zap.String("material", name), zap.String("extension", n))
			continue
		}
		handler := materialExtensions[kind]
		extOpts, err := handler.Options(dm.Extensions[n], e.slot)
		if err != nil {
			e.asset.log.Warn("skipping malformed material extension",
				zap.String("material", name),
				zap.Stringer("extension", handler.Kind()),
				zap.Error(err),
			)
			continue
		}
		opts = append(opts, extOpts...)
		opts = append(opts, material.WithExtension(handler.Kind().String()))
	}

	return material.NewMaterial(opts...), nil
}

// slot resolves a texture reference against the built textures.
func (e *gltfMaterialExtractorImpl) slot(info *gltf.TextureInfo, scale float32) *material.TextureSlot {
	if info == nil {
		return nil
	}
	s := &material.TextureSlot{Index: info.Index, TexCoord: info.TexCoord, Scale: scale}
	if info.Index >= 0 && info.Index < len(e.textures) {
		s.Texture = e.textures[info.Index]
	}
	if info.Extensions != nil && info.Extensions.TextureTransform != nil {
		t := info.Extensions.TextureTransform
		tr := &material.TextureTransform{Rotation: t.Rotation, Scale: [2]float32{1, 1}, TexCoord: t.TexCoord}
		if t.Offset != nil {
			tr.Offset = *t.Offset
		}
		if t.Scale != nil {
			tr.Scale = *t.Scale
		}
		s.Transform = tr
	}
	return s
}

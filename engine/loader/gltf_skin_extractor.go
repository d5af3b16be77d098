package loader

import (
	"context"
	"fmt"
	"hash/fnv"
	"slices"

	"github.com/Carmen-Shannon/oxy-glb/engine/gltf"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"

	"github.com/go-gl/mathgl/mgl32"
)

// gltfSkinExtractorImpl is the implementation of the gltfSkinExtractor interface.
type gltfSkinExtractorImpl struct {
	asset *gltfAsset

	// built maps a joint-name signature hash to the skins already built with it.
	built map[uint64][]*model.Skin
}

// gltfSkinExtractor builds skins and merges skins that bind the same ordered joint names.
type gltfSkinExtractor interface {
	// ExtractAllSkins builds one skin per document skin. Entries whose joint name signatures
	// match point at the same *model.Skin.
	//
	// Parameters:
	//   - ctx: the import context
	//
	// Returns:
	//   - []*model.Skin: one entry per document skin
	//   - error: error if an inverse bind matrix accessor cannot be read
	ExtractAllSkins(ctx context.Context) ([]*model.Skin, error)
}

var _ gltfSkinExtractor = &gltfSkinExtractorImpl{}

// newGLTFSkinExtractor creates a skin extractor. Its dedup cache lives as long as the
// extractor, which is one import.
func newGLTFSkinExtractor(asset *gltfAsset) gltfSkinExtractor {
	return &gltfSkinExtractorImpl{
		asset: asset,
		built: make(map[uint64][]*model.Skin),
	}
}

func (e *gltfSkinExtractorImpl) ExtractAllSkins(ctx context.Context) ([]*model.Skin, error) {
	doc := e.asset.doc
	skins := make([]*model.Skin, len(doc.Skins))
	for i := range doc.Skins {
		src := Source[gltf.Skin]{Index: i, Value: &doc.Skins[i], Document: doc}
		s, err := e.asset.hooks.Skin.run(ctx, src, e.buildSkin)
		if err != nil {
			return nil, fmt.Errorf("skin %d: %w", i, err)
		}
		skins[i] = s
	}
	return skins, nil
}

// buildSkin is the default skin stage.
func (e *gltfSkinExtractorImpl) buildSkin(_ context.Context, src Source[gltf.Skin]) (*model.Skin, error) {
	sk := src.Value
	doc := e.asset.doc

	names := make([]string, len(sk.Joints))
	for j, node := range sk.Joints {
		if node < 0 || node >= len(doc.Nodes) {
			return nil, fmt.Errorf("joint %d references node %d out of range", j, node)
		}
		names[j] = doc.Nodes[node].Name
	}

	key := jointSignature(names)
	for _, existing := range e.built[key] {
		if slices.Equal(existing.JointNames, names) {
			return existing, nil
		}
	}

	ibms := make([]mgl32.Mat4, len(sk.Joints))
	for j := range ibms {
		ibms[j] = mgl32.Ident4()
	}
	if sk.InverseBindMatrices != nil {
		data, err := e.asset.readFloats(*sk.InverseBindMatrices, 16)
		if err != nil {
			return nil, fmt.Errorf("inverse bind matrices: %w", err)
		}
		for j := range ibms {
			if (j+1)*16 > len(data) {
				break
			}
			copy(ibms[j][:], data[j*16:(j+1)*16])
		}
	}

	skin := &model.Skin{
		Name:                sk.Name,
		InverseBindMatrices: ibms,
		Joints:              slices.Clone(sk.Joints),
		JointNames:          names,
	}
	e.built[key] = append(e.built[key], skin)
	return skin, nil
}

// jointSignature hashes an ordered list of joint names. Each name is length-prefixed so that
// different splits of the same characters hash differently.
func jointSignature(names []string) uint64 {
	h := fnv.New64a()
	var n [4]byte
	for _, name := range names {
		l := len(name)
		n[0], n[1], n[2], n[3] = byte(l), byte(l>>8), byte(l>>16), byte(l>>24)
		h.Write(n[:])
		h.Write([]byte(name))
	}
	return h.Sum64()
}

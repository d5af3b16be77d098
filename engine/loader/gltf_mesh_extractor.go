package loader

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/gltf"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// vertexKey identifies a vertex buffer by the accessors it was built from. Two primitives with
// equal keys share one buffer. indices is only set when normals are synthesized, since the
// generated normals then depend on the index data.
type vertexKey struct {
	attributes [model.NumSemantics]int32
	indices    int32
	topology   model.Topology
}

// extractMeshes builds one render per document mesh, in document order.
func (a *gltfAsset) extractMeshes(ctx context.Context) ([]*model.Render, error) {
	renders := make([]*model.Render, len(a.doc.Meshes))
	for i := range a.doc.Meshes {
		src := Source[gltf.Mesh]{Index: i, Value: &a.doc.Meshes[i], Document: a.doc}
		r, err := a.hooks.Mesh.run(ctx, src, a.buildRender)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		renders[i] = r
	}
	return renders, nil
}

// buildRender is the default mesh stage. Primitives whose compressed geometry cannot be
// decoded are dropped with a warning.
func (a *gltfAsset) buildRender(ctx context.Context, src Source[gltf.Mesh]) (*model.Render, error) {
	mesh := src.Value
	r := &model.Render{Name: mesh.Name}
	for p := range mesh.Primitives {
		m, err := a.buildPrimitive(ctx, mesh, &mesh.Primitives[p])
		if err != nil {
			var decodeErr *geometryDecodeError
			if errors.As(err, &decodeErr) {
				a.log.Warn("dropping primitive",
					zap.String("mesh", mesh.Name),
					zap.Int("primitive", p),
					zap.Error(err),
				)
				continue
			}
			return nil, fmt.Errorf("primitive %d: %w", p, err)
		}
		r.Meshes = append(r.Meshes, m)
	}
	return r, nil
}

// geometryDecodeError marks a failure that only affects one primitive.
type geometryDecodeError struct {
	err error
}

func (e *geometryDecodeError) Error() string {
	return "geometry decode: " + e.err.Error()
}

func (e *geometryDecodeError) Unwrap() error {
	return e.err
}

// topologyFor maps a primitive mode onto a topology, defaulting to triangles.
func topologyFor(mode *int) (model.Topology, error) {
	if mode == nil {
		return model.TopologyTriangles, nil
	}
	if *mode < gltf.PrimitivePoints || *mode > gltf.PrimitiveTriangleFan {
		return 0, fmt.Errorf("invalid primitive mode %d", *mode)
	}
	return model.Topology(*mode), nil
}

// buildPrimitive builds one mesh from a primitive, preferring the compressed stream when the
// primitive has one.
func (a *gltfAsset) buildPrimitive(ctx context.Context, mesh *gltf.Mesh, prim *gltf.Primitive) (*model.Mesh, error) {
	topology, err := topologyFor(prim.Mode)
	if err != nil {
		return nil, err
	}

	m := &model.Mesh{Name: mesh.Name, Topology: topology, Material: -1}
	if prim.Material != nil {
		m.Material = *prim.Material
	}

	var (
		indices       []uint32
		morphsAllowed = true
		ext           = compressionOf(prim)
		module        CodecModule
	)

	if ext != nil {
		var err error
		module, err = a.codec.Acquire(ctx)
		if err != nil {
			if !a.hasUncompressedFallback(prim) {
				return nil, &geometryDecodeError{err: err}
			}
			a.log.Debug("codec unavailable, using uncompressed fallback", zap.String("mesh", mesh.Name))
		}
	}

	if module != nil {
		dec, err := a.decodeCompressed(module, ext, prim)
		if err != nil {
			return nil, &geometryDecodeError{err: err}
		}
		morphsAllowed = false
		if dec.mesh {
			indices = dec.indices
		} else {
			m.Topology = model.TopologyPoints
		}
		m.VertexBuffer, _ = assembleVertices(dec.sources, indices, m.Topology, a.flipV)
	} else {
		if prim.Indices != nil {
			d, err := a.readAccessor(*prim.Indices, false)
			if err != nil {
				return nil, fmt.Errorf("indices: %w", err)
			}
			indices = d.uints()
		}
		vb, err := a.vertexBufferFor(prim, indices, topology)
		if err != nil {
			return nil, err
		}
		m.VertexBuffer = vb
	}

	if indices != nil {
		m.IndexBuffer = a.buildIndexBuffer(mesh.Name, indices, m.VertexBuffer.Count)
	}

	m.Bounds = a.primitiveBounds(prim, m.VertexBuffer)

	if morphsAllowed && len(prim.Targets) > 0 {
		morphs, err := a.buildMorphs(mesh, prim)
		if err != nil {
			return nil, err
		}
		m.Morphs = morphs
	}

	if ext := prim.Extensions; ext != nil && ext.MaterialsVariants != nil {
		m.Variants = make(map[string]int)
		for _, mapping := range ext.MaterialsVariants.Mappings {
			for _, v := range mapping.Variants {
				if v >= 0 && v < len(a.variantNames) {
					m.Variants[a.variantNames[v]] = mapping.Material
				}
			}
		}
	}
	return m, nil
}

func compressionOf(prim *gltf.Primitive) *gltf.DracoMeshCompression {
	if prim.Extensions == nil {
		return nil
	}
	return prim.Extensions.DracoMeshCompression
}

// hasUncompressedFallback reports whether a compressed primitive also carries plain position
// data, which happens when the compression extension is used but not required.
func (a *gltfAsset) hasUncompressedFallback(prim *gltf.Primitive) bool {
	idx, ok := prim.Attributes[gltf.AttributePosition]
	if !ok {
		return false
	}
	acc, err := a.accessor(idx)
	return err == nil && acc.BufferView != nil
}

// vertexBufferFor returns the interleaved buffer for an uncompressed primitive, reusing a
// buffer already built from the same accessors.
func (a *gltfAsset) vertexBufferFor(prim *gltf.Primitive, indices []uint32, topology model.Topology) (*model.VertexBuffer, error) {
	key := vertexKey{indices: -1, topology: topology}
	for s := range key.attributes {
		key.attributes[s] = -1
	}

	var sources []vertexSource
	for name, accIdx := range prim.Attributes {
		sem, ok := semanticFor(name)
		if !ok {
			continue
		}
		src, err := a.vertexSourceFor(accIdx, sem)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		key.attributes[sem] = int32(accIdx)
		sources = append(sources, src)
	}
	if key.attributes[model.SemanticNormal] < 0 && prim.Indices != nil {
		key.indices = int32(*prim.Indices)
	}

	if vb, ok := a.vertexCache[key]; ok {
		return vb, nil
	}
	vb, _ := assembleVertices(sources, indices, topology, a.flipV)
	a.vertexCache[key] = vb
	return vb, nil
}

// vertexSourceFor describes accessor idx as a vertex source. Plain accessors point straight
// at their buffer view so that interleaved views can be copied in bulk.
func (a *gltfAsset) vertexSourceFor(idx int, sem model.Semantic) (vertexSource, error) {
	acc, err := a.accessor(idx)
	if err != nil {
		return vertexSource{}, err
	}
	d, err := a.readAccessor(idx, false)
	if err != nil {
		return vertexSource{}, err
	}
	if d.components > 4 {
		return vertexSource{}, fmt.Errorf("accessor %d: %s is not a vertex attribute type", idx, acc.Type)
	}

	src := vertexSource{
		semantic:      sem,
		buffer:        d.data,
		elemSize:      d.elemSize,
		stride:        d.stride,
		count:         d.count,
		componentType: d.componentType,
		components:    d.components,
		normalized:    d.normalized,
	}
	if acc.BufferView != nil && acc.Sparse == nil {
		src.buffer = a.views[*acc.BufferView].data
		src.offset = acc.ByteOffset
	}
	return src, nil
}

// buildIndexBuffer encodes indices as 16 or 32 bit. More than 65535 vertices needs 32-bit
// indices; without device support they are truncated to 16 bits, which corrupts any index
// above 65535. The buffer may keep a view of indices.
func (a *gltfAsset) buildIndexBuffer(name string, indices []uint32, vertexCount int) *model.IndexBuffer {
	wide := vertexCount > 65535
	if wide && !a.uint32Indices {
		a.log.Warn("device lacks 32-bit indices, truncating to 16-bit",
			zap.String("mesh", name),
			zap.Int("vertices", vertexCount),
		)
		wide = false
	}

	ib := &model.IndexBuffer{Count: len(indices)}
	if wide {
		ib.Format = wgpu.IndexFormatUint32
		ib.Data = indexBytes(indices)
		return ib
	}

	narrow := make([]uint16, len(indices))
	for i, v := range indices {
		narrow[i] = uint16(v)
	}
	ib.Format = wgpu.IndexFormatUint16
	ib.Data = indexBytes(narrow)
	return ib
}

// indexBytes encodes values as little-endian bytes. On little-endian hosts the result views
// values directly, so the caller must not reuse them.
func indexBytes[T uint16 | uint32](values []T) []byte {
	if common.LittleEndianHost {
		return common.SliceToBytes(values)
	}
	// Fixed-size slices never fail to encode.
	out, _ := binary.Append(nil, binary.LittleEndian, values)
	return out
}

// primitiveBounds uses the position accessor's declared min/max, falling back to the
// assembled positions.
func (a *gltfAsset) primitiveBounds(prim *gltf.Primitive, vb *model.VertexBuffer) model.BoundingBox {
	if idx, ok := prim.Attributes[gltf.AttributePosition]; ok {
		if acc, err := a.accessor(idx); err == nil {
			if b, ok := accessorBounds(acc); ok {
				return b
			}
		}
	}

	e, ok := vb.Layout.Element(model.SemanticPosition)
	if !ok || vb.Count == 0 || e.Components < 3 {
		return model.BoundingBox{}
	}
	var pos []float32
	for i := range vb.Count {
		p := vb.Float32s(model.SemanticPosition, i)
		if e.Normalized {
			for c := range p {
				p[c] = dequantize(e.ComponentType, p[c])
			}
		}
		pos = append(pos, p[:3]...)
	}
	return boundsOf(pos)
}

// boundsOf computes the box around xyz triples.
func boundsOf(xyz []float32) model.BoundingBox {
	if len(xyz) < 3 {
		return model.BoundingBox{}
	}
	lo := mgl32.Vec3{xyz[0], xyz[1], xyz[2]}
	hi := lo
	for i := 3; i+2 < len(xyz); i += 3 {
		for c := range 3 {
			lo[c] = min(lo[c], xyz[i+c])
			hi[c] = max(hi[c], xyz[i+c])
		}
	}
	return model.BoundsFromMinMax(lo, hi)
}

// buildMorphs reads the position and normal deltas of every morph target.
func (a *gltfAsset) buildMorphs(mesh *gltf.Mesh, prim *gltf.Primitive) ([]model.MorphTarget, error) {
	names := mesh.TargetNames()
	morphs := make([]model.MorphTarget, len(prim.Targets))
	for t, target := range prim.Targets {
		mt := model.MorphTarget{Name: strconv.Itoa(t)}
		if t < len(names) && names[t] != "" {
			mt.Name = names[t]
		}
		if t < len(mesh.Weights) {
			mt.DefaultWeight = mesh.Weights[t]
		}

		if idx, ok := target[gltf.AttributePosition]; ok {
			pos, err := a.readFloats(idx, 3)
			if err != nil {
				return nil, fmt.Errorf("morph target %d positions: %w", t, err)
			}
			mt.Positions = pos
			acc, _ := a.accessor(idx)
			if b, ok := accessorBounds(acc); ok {
				mt.Bounds = b
			} else {
				mt.Bounds = boundsOf(pos)
			}
		}
		if idx, ok := target[gltf.AttributeNormal]; ok {
			nrm, err := a.readFloats(idx, 3)
			if err != nil {
				return nil, fmt.Errorf("morph target %d normals: %w", t, err)
			}
			mt.Normals = nrm
		}
		morphs[t] = mt
	}
	return morphs, nil
}

package loader

import (
	"encoding/binary"
	"math"
	"slices"
	"strconv"
	"strings"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-glb/engine/gltf"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"
)

// vertexSource describes where the values of one semantic live. buffer is the backing byte
// region; element i starts at offset + i*stride and is elemSize bytes long.
type vertexSource struct {
	semantic      model.Semantic
	buffer        []byte
	offset        int
	elemSize      int
	stride        int
	count         int
	componentType int
	components    int
	normalized    bool
}

// element returns the bytes of element i.
func (s vertexSource) element(i int) []byte {
	off := s.offset + i*s.stride
	return s.buffer[off : off+s.elemSize]
}

// floats reads every element as dequantized floats.
func (s vertexSource) floats() []float32 {
	size := gltf.ComponentSize(s.componentType)
	out := make([]float32, s.count*s.components)
	for i := range s.count {
		base := s.offset + i*s.stride
		for c := range s.components {
			v := readScalar(s.buffer, base+c*size, s.componentType)
			if s.normalized {
				v = dequantize(s.componentType, v)
			}
			out[i*s.components+c] = v
		}
	}
	return out
}

// semanticFor maps an attribute name onto a canonical semantic. Only the first colour,
// joint and weight sets are carried.
func semanticFor(name string) (model.Semantic, bool) {
	switch name {
	case gltf.AttributePosition:
		return model.SemanticPosition, true
	case gltf.AttributeNormal:
		return model.SemanticNormal, true
	case gltf.AttributeTangent:
		return model.SemanticTangent, true
	case gltf.AttributeColor0:
		return model.SemanticColor, true
	case gltf.AttributeJoints0:
		return model.SemanticJoints, true
	case gltf.AttributeWeights0:
		return model.SemanticWeights, true
	}
	if rest, ok := strings.CutPrefix(name, gltf.AttributeTexCoord); ok {
		n, err := strconv.Atoi(rest)
		if err == nil && n >= 0 && n < model.MaxTexCoords {
			return model.SemanticTexCoord(n), true
		}
	}
	return 0, false
}

// buildLayout orders sources canonically and lays them out in one interleaved vertex.
// sources is sorted in place.
func buildLayout(sources []vertexSource) model.VertexLayout {
	slices.SortFunc(sources, func(a, b vertexSource) int {
		return int(a.semantic) - int(b.semantic)
	})

	var layout model.VertexLayout
	for _, s := range sources {
		size := model.PaddedSize(s.componentType, s.components)
		layout.Elements = append(layout.Elements, model.VertexElement{
			Semantic:      s.semantic,
			Components:    s.components,
			ComponentType: s.componentType,
			Normalized:    s.normalized,
			Offset:        layout.Stride,
			Size:          size,
			Format:        model.VertexFormatFor(s.componentType, s.components, s.normalized),
		})
		layout.Stride += size
	}
	return layout
}

// sameBacking reports whether two slices start at the same address.
func sameBacking(a, b []byte) bool {
	return len(a) > 0 && len(b) > 0 && unsafe.SliceData(a) == unsafe.SliceData(b)
}

// bulkCopyBase reports whether the sources already form the target layout inside one
// buffer, and if so the offset of vertex 0.
func bulkCopyBase(sources []vertexSource, layout model.VertexLayout) (int, bool) {
	first := sources[0]
	base := first.offset - layout.Elements[0].Offset
	if base < 0 {
		return 0, false
	}
	for i, s := range sources {
		e := layout.Elements[i]
		if !sameBacking(s.buffer, first.buffer) || s.stride != layout.Stride || s.offset-base != e.Offset || s.count != first.count {
			return 0, false
		}
	}
	return base, true
}

// assembleVertices interleaves the sources into one vertex buffer in canonical order.
//
// When every source already sits in one buffer with the target stride and offsets, the
// region is copied in one piece. Otherwise each element is copied individually. Normals are
// synthesized for triangle topologies that lack them, and the V channel of every UV set is
// flipped when flipV is set.
//
// Parameters:
//   - sources: one source per semantic; reordered in place
//   - indices: the primitive's indices, or nil for non-indexed geometry
//   - topology: the primitive topology, used for normal synthesis
//   - flipV: whether to flip texture coordinates vertically
//
// Returns:
//   - *model.VertexBuffer: the interleaved buffer
//   - bool: true when the bulk copy path was taken
func assembleVertices(sources []vertexSource, indices []uint32, topology model.Topology, flipV bool) (*model.VertexBuffer, bool) {
	if len(sources) == 0 {
		return &model.VertexBuffer{}, false
	}

	sources = withSynthesizedNormals(sources, indices, topology)
	layout := buildLayout(sources)

	count := sources[0].count
	out := make([]byte, count*layout.Stride)

	base, fast := bulkCopyBase(sources, layout)
	if fast {
		copy(out, sources[0].buffer[base:])
	} else {
		for i, s := range sources {
			e := layout.Elements[i]
			for v := range min(count, s.count) {
				copy(out[v*layout.Stride+e.Offset:], s.element(v))
			}
		}
	}

	vb := &model.VertexBuffer{Layout: layout, Count: count, Data: out}
	if flipV {
		flipTexCoords(vb)
	}
	return vb, fast
}

// withSynthesizedNormals appends a generated normal source when positions exist, normals do
// not, and the topology is made of triangles.
func withSynthesizedNormals(sources []vertexSource, indices []uint32, topology model.Topology) []vertexSource {
	var pos *vertexSource
	for i := range sources {
		switch sources[i].semantic {
		case model.SemanticNormal:
			return sources
		case model.SemanticPosition:
			pos = &sources[i]
		}
	}
	if pos == nil || pos.components != 3 {
		return sources
	}

	tris := triangleList(topology, indices, pos.count)
	if tris == nil {
		return sources
	}
	normals := generateNormals(pos.floats(), tris, pos.count)

	data := make([]byte, len(normals)*4)
	for i, n := range normals {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(n))
	}
	return append(sources, vertexSource{
		semantic:      model.SemanticNormal,
		buffer:        data,
		elemSize:      12,
		stride:        12,
		count:         pos.count,
		componentType: gltf.ComponentFloat,
		components:    3,
	})
}

// triangleList expands indexed or sequential triangle, strip and fan primitives into a
// plain triangle list. It returns nil for non-triangle topologies.
func triangleList(topology model.Topology, indices []uint32, count int) []uint32 {
	if indices == nil {
		indices = make([]uint32, count)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	switch topology {
	case model.TopologyTriangles:
		return indices
	case model.TopologyTriangleStrip:
		var out []uint32
		for i := 0; i+2 < len(indices); i++ {
			if i%2 == 0 {
				out = append(out, indices[i], indices[i+1], indices[i+2])
			} else {
				out = append(out, indices[i+1], indices[i], indices[i+2])
			}
		}
		return out
	case model.TopologyTriangleFan:
		var out []uint32
		for i := 1; i+1 < len(indices); i++ {
			out = append(out, indices[0], indices[i], indices[i+1])
		}
		return out
	}
	return nil
}

// generateNormals computes area-weighted vertex normals: each triangle adds its unnormalized
// face normal to its three vertices, and the sums are normalized. Vertices touched only by
// degenerate triangles get +Y.
//
// Parameters:
//   - positions: xyz triples
//   - indices: a triangle list
//   - n: the vertex count
//
// Returns:
//   - []float32: xyz normals, one per vertex
func generateNormals(positions []float32, indices []uint32, n int) []float32 {
	accum := make([]float32, n*3)
	pos := func(i uint32) [3]float32 {
		return [3]float32{positions[i*3], positions[i*3+1], positions[i*3+2]}
	}

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= n || int(i1) >= n || int(i2) >= n {
			continue
		}
		p0, p1, p2 := pos(i0), pos(i1), pos(i2)
		e1 := [3]float32{p1[0] - p0[0], p1[1] - p0[1], p1[2] - p0[2]}
		e2 := [3]float32{p2[0] - p0[0], p2[1] - p0[1], p2[2] - p0[2]}
		face := [3]float32{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}
		for _, idx := range [3]uint32{i0, i1, i2} {
			accum[idx*3] += face[0]
			accum[idx*3+1] += face[1]
			accum[idx*3+2] += face[2]
		}
	}

	for i := range n {
		x, y, z := accum[i*3], accum[i*3+1], accum[i*3+2]
		length := float32(math.Sqrt(float64(x*x + y*y + z*z)))
		if length < 1e-6 {
			accum[i*3], accum[i*3+1], accum[i*3+2] = 0, 1, 0
			continue
		}
		inv := 1 / length
		accum[i*3], accum[i*3+1], accum[i*3+2] = x*inv, y*inv, z*inv
	}
	return accum
}

// flipTexCoords replaces v with 1-v in every UV set. Normalized integer channels flip
// against their maximum value.
func flipTexCoords(vb *model.VertexBuffer) {
	for _, e := range vb.Layout.Elements {
		if e.Semantic < model.SemanticTexCoord0 || e.Components < 2 {
			continue
		}
		size := model.ComponentSize(e.ComponentType)
		for i := range vb.Count {
			off := i*vb.Layout.Stride + e.Offset + size
			switch e.ComponentType {
			case model.ComponentFloat32:
				v := math.Float32frombits(binary.LittleEndian.Uint32(vb.Data[off:]))
				binary.LittleEndian.PutUint32(vb.Data[off:], math.Float32bits(1-v))
			case model.ComponentUint8:
				vb.Data[off] = 255 - vb.Data[off]
			case model.ComponentUint16:
				binary.LittleEndian.PutUint16(vb.Data[off:], 65535-binary.LittleEndian.Uint16(vb.Data[off:]))
			}
		}
	}
}

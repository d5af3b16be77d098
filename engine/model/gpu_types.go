package model

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
)

// Semantic identifies one per-vertex attribute. The declaration order is the canonical
// interleaving order of a vertex buffer.
type Semantic int

const (
	SemanticPosition Semantic = iota
	SemanticNormal
	SemanticTangent
	SemanticColor
	SemanticJoints
	SemanticWeights
	SemanticTexCoord0
	SemanticTexCoord1
	SemanticTexCoord2
	SemanticTexCoord3
	SemanticTexCoord4
	SemanticTexCoord5
	SemanticTexCoord6
	SemanticTexCoord7

	// NumSemantics is the number of canonical semantics.
	NumSemantics int = iota
)

// MaxTexCoords is the number of UV sets a vertex layout can carry.
const MaxTexCoords = 8

// SemanticTexCoord returns the semantic for UV set n.
func SemanticTexCoord(n int) Semantic {
	return SemanticTexCoord0 + Semantic(n)
}

func (s Semantic) String() string {
	switch s {
	case SemanticPosition:
		return "POSITION"
	case SemanticNormal:
		return "NORMAL"
	case SemanticTangent:
		return "TANGENT"
	case SemanticColor:
		return "COLOR_0"
	case SemanticJoints:
		return "JOINTS_0"
	case SemanticWeights:
		return "WEIGHTS_0"
	}
	if s >= SemanticTexCoord0 && s <= SemanticTexCoord7 {
		return fmt.Sprintf("TEXCOORD_%d", s-SemanticTexCoord0)
	}
	return fmt.Sprintf("Semantic(%d)", int(s))
}

// Component type codes shared with the asset format.
const (
	ComponentInt8    = 5120
	ComponentUint8   = 5121
	ComponentInt16   = 5122
	ComponentUint16  = 5123
	ComponentUint32  = 5125
	ComponentFloat32 = 5126
)

// VertexElement describes one attribute inside an interleaved vertex.
type VertexElement struct {
	Semantic Semantic

	// Components is the number of logical components (1 to 4).
	Components int

	// ComponentType is the storage type code of each component.
	ComponentType int

	// Normalized reports whether integer components map to [0, 1] or [-1, 1].
	Normalized bool

	// Offset is the byte offset of the element inside one vertex.
	Offset int

	// Size is the element size in bytes, padded to a multiple of four.
	Size int

	// Format is the matching GPU vertex format.
	Format wgpu.VertexFormat
}

// VertexLayout is the ordered list of elements of one interleaved vertex.
type VertexLayout struct {
	Elements []VertexElement
	Stride   int
}

// Element returns the element for a semantic.
//
// Parameters:
//   - s: the semantic to look up
//
// Returns:
//   - VertexElement: the element
//   - bool: false if the layout does not carry s
func (l VertexLayout) Element(s Semantic) (VertexElement, bool) {
	for _, e := range l.Elements {
		if e.Semantic == s {
			return e, true
		}
	}
	return VertexElement{}, false
}

// Has reports whether the layout carries s.
func (l VertexLayout) Has(s Semantic) bool {
	_, ok := l.Element(s)
	return ok
}

// WGPU converts the layout into a vertex buffer layout. Each element's shader location is
// its semantic index, so shaders can bind attributes without consulting the layout.
//
// Returns:
//   - wgpu.VertexBufferLayout: the GPU layout
func (l VertexLayout) WGPU() wgpu.VertexBufferLayout {
	attrs := make([]wgpu.VertexAttribute, 0, len(l.Elements))
	for _, e := range l.Elements {
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         e.Format,
			Offset:         uint64(e.Offset),
			ShaderLocation: uint32(e.Semantic),
		})
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(l.Stride),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}
}

// VertexBuffer is the data required to create one GPU vertex buffer.
type VertexBuffer struct {
	Layout VertexLayout
	Count  int
	Data   []byte
}

// Float32s reads element s of vertex i as floats. Integer components are returned as their
// numeric value, not normalized.
//
// Parameters:
//   - s: the semantic to read
//   - i: the vertex index
//
// Returns:
//   - []float32: the component values, or nil if the layout lacks s
func (b *VertexBuffer) Float32s(s Semantic, i int) []float32 {
	e, ok := b.Layout.Element(s)
	if !ok || i < 0 || i >= b.Count {
		return nil
	}
	base := i*b.Layout.Stride + e.Offset
	out := make([]float32, e.Components)
	for c := range out {
		out[c] = readComponent(b.Data, base, c, e.ComponentType)
	}
	return out
}

// IndexBuffer is the data required to create one GPU index buffer.
type IndexBuffer struct {
	Format wgpu.IndexFormat
	Count  int
	Data   []byte
}

// Index returns index i widened to uint32.
func (b *IndexBuffer) Index(i int) uint32 {
	if b.Format == wgpu.IndexFormatUint16 {
		return uint32(binary.LittleEndian.Uint16(b.Data[i*2:]))
	}
	return binary.LittleEndian.Uint32(b.Data[i*4:])
}

// Topology is the primitive assembly mode of a mesh.
type Topology int

const (
	TopologyPoints Topology = iota
	TopologyLines
	TopologyLineLoop
	TopologyLineStrip
	TopologyTriangles
	TopologyTriangleStrip
	TopologyTriangleFan
)

// WGPU returns the GPU topology. Line loops and triangle fans have no GPU equivalent and
// report false; callers must convert their indices first.
//
// Returns:
//   - wgpu.PrimitiveTopology: the GPU topology
//   - bool: false if the topology has no direct GPU equivalent
func (t Topology) WGPU() (wgpu.PrimitiveTopology, bool) {
	switch t {
	case TopologyPoints:
		return wgpu.PrimitiveTopologyPointList, true
	case TopologyLines:
		return wgpu.PrimitiveTopologyLineList, true
	case TopologyLineStrip:
		return wgpu.PrimitiveTopologyLineStrip, true
	case TopologyTriangles:
		return wgpu.PrimitiveTopologyTriangleList, true
	case TopologyTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip, true
	default:
		return wgpu.PrimitiveTopologyTriangleList, false
	}
}

// ComponentSize returns the byte size of a component type code, or 0 if unknown.
func ComponentSize(componentType int) int {
	switch componentType {
	case ComponentInt8, ComponentUint8:
		return 1
	case ComponentInt16, ComponentUint16:
		return 2
	case ComponentUint32, ComponentFloat32:
		return 4
	default:
		return 0
	}
}

// PaddedSize returns the size of an element of n components, rounded up to four bytes.
func PaddedSize(componentType, n int) int {
	return (ComponentSize(componentType)*n + 3) &^ 3
}

// VertexFormatFor picks the GPU vertex format for an element. Eight and sixteen bit
// elements use the padded component count, since the GPU has no three-component formats for them.
//
// Parameters:
//   - componentType: the component type code
//   - n: the logical component count
//   - normalized: whether integer components are normalized
//
// Returns:
//   - wgpu.VertexFormat: the format
func VertexFormatFor(componentType, n int, normalized bool) wgpu.VertexFormat {
	switch componentType {
	case ComponentFloat32:
		return [...]wgpu.VertexFormat{wgpu.VertexFormatFloat32, wgpu.VertexFormatFloat32x2, wgpu.VertexFormatFloat32x3, wgpu.VertexFormatFloat32x4}[n-1]
	case ComponentUint32:
		return [...]wgpu.VertexFormat{wgpu.VertexFormatUint32, wgpu.VertexFormatUint32x2, wgpu.VertexFormatUint32x3, wgpu.VertexFormatUint32x4}[n-1]
	case ComponentUint8:
		if normalized {
			return wgpu.VertexFormatUnorm8x4
		}
		return wgpu.VertexFormatUint8x4
	case ComponentInt8:
		if normalized {
			return wgpu.VertexFormatSnorm8x4
		}
		return wgpu.VertexFormatSint8x4
	case ComponentUint16:
		wide := n > 2
		switch {
		case normalized && wide:
			return wgpu.VertexFormatUnorm16x4
		case normalized:
			return wgpu.VertexFormatUnorm16x2
		case wide:
			return wgpu.VertexFormatUint16x4
		default:
			return wgpu.VertexFormatUint16x2
		}
	case ComponentInt16:
		wide := n > 2
		switch {
		case normalized && wide:
			return wgpu.VertexFormatSnorm16x4
		case normalized:
			return wgpu.VertexFormatSnorm16x2
		case wide:
			return wgpu.VertexFormatSint16x4
		default:
			return wgpu.VertexFormatSint16x2
		}
	}
	return wgpu.VertexFormatFloat32x4
}

func readComponent(data []byte, base, c, componentType int) float32 {
	off := base + c*ComponentSize(componentType)
	switch componentType {
	case ComponentInt8:
		return float32(int8(data[off]))
	case ComponentUint8:
		return float32(data[off])
	case ComponentInt16:
		return float32(int16(binary.LittleEndian.Uint16(data[off:])))
	case ComponentUint16:
		return float32(binary.LittleEndian.Uint16(data[off:]))
	case ComponentUint32:
		return float32(binary.LittleEndian.Uint32(data[off:]))
	default:
		return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
	}
}

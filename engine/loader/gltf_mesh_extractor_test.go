package loader

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-glb/engine/gltf"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"

	"github.com/cogentcore/webgpu/wgpu"
)

// compressedFixture declares one compressed triangle. When fallback is set the position
// accessor also carries plain data.
func compressedFixture(fallback bool) *fixture {
	f := newFixture()
	stream := f.view([]byte{0xD, 0xA, 0xC, 0x0}, 0)

	pos := gltf.Accessor{ComponentType: gltf.ComponentFloat, Count: 3, Type: gltf.AccessorVec3}
	if fallback {
		pos.BufferView = ptr(f.view(floatBytes(0, 0, 0, 2, 0, 0, 0, 2, 0), 0))
	}
	posIdx := f.accessor(pos)

	f.doc.ExtensionsUsed = []string{gltf.ExtDracoMeshCompression}
	f.doc.Meshes = []gltf.Mesh{{
		Name: "compressed",
		Primitives: []gltf.Primitive{{
			Attributes: map[string]int{gltf.AttributePosition: posIdx},
			Targets:    []map[string]int{{gltf.AttributePosition: posIdx}},
			Extensions: &gltf.PrimitiveExtensions{
				DracoMeshCompression: &gltf.DracoMeshCompression{
					BufferView: stream,
					Attributes: map[string]int{gltf.AttributePosition: 0},
				},
			},
		}},
	}}
	return f
}

func triangleGeometry() *fakeGeometry {
	return &fakeGeometry{
		kind:       GeometryTriangularMesh,
		points:     3,
		indices:    []uint32{0, 1, 2},
		attributes: map[int][]float32{0: {0, 0, 0, 1, 0, 0, 0, 1, 0}},
	}
}

func withCodec(a *gltfAsset, codec CodecModule) {
	a.codec = NewCodecContext(func(context.Context) (CodecModule, error) {
		return codec, nil
	})
}

func TestExtractMeshes_Compressed(t *testing.T) {
	a := compressedFixture(false).asset(t)
	geom := triangleGeometry()
	codec := newFakeCodec(geom)
	withCodec(a, codec)

	renders, err := a.extractMeshes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(renders[0].Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(renders[0].Meshes))
	}
	m := renders[0].Meshes[0]
	if m.VertexBuffer.Count != 3 {
		t.Errorf("expected 3 vertices, got %d", m.VertexBuffer.Count)
	}
	if m.IndexBuffer == nil || m.IndexBuffer.Count != 3 {
		t.Fatalf("expected 3 indices, got %+v", m.IndexBuffer)
	}
	if got := m.VertexBuffer.Float32s(model.SemanticPosition, 1); got[0] != 1 {
		t.Errorf("expected decoded position x=1, got %v", got)
	}
	if len(m.Morphs) != 0 {
		t.Errorf("expected morph targets to be skipped for compressed geometry, got %d", len(m.Morphs))
	}
	if len(codec.live) != 0 {
		t.Errorf("expected all codec memory freed, %d allocations live", len(codec.live))
	}
	if !geom.released {
		t.Error("expected the decoded geometry to be released")
	}
}

func TestExtractMeshes_PointCloud(t *testing.T) {
	a := compressedFixture(false).asset(t)
	geom := triangleGeometry()
	geom.kind = GeometryPointCloud
	geom.indices = nil
	withCodec(a, newFakeCodec(geom))

	renders, err := a.extractMeshes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := renders[0].Meshes[0]
	if m.Topology != model.TopologyPoints {
		t.Errorf("expected points topology, got %v", m.Topology)
	}
	if m.IndexBuffer != nil {
		t.Error("expected no index buffer for a point cloud")
	}
}

func TestExtractMeshes_DecodeFailureDropsPrimitive(t *testing.T) {
	a := compressedFixture(false).asset(t)
	geom := triangleGeometry()
	geom.extractErr = errors.New("corrupt attribute")
	codec := newFakeCodec(geom)
	withCodec(a, codec)

	renders, err := a.extractMeshes(context.Background())
	if err != nil {
		t.Fatalf("expected the primitive to be dropped, got error %v", err)
	}
	if len(renders[0].Meshes) != 0 {
		t.Errorf("expected no meshes, got %d", len(renders[0].Meshes))
	}
	if len(codec.live) != 0 {
		t.Errorf("expected allocations freed on the error path, %d live", len(codec.live))
	}
	if !geom.released {
		t.Error("expected the decoded geometry to be released on the error path")
	}
}

func TestExtractMeshes_UncompressedFallback(t *testing.T) {
	tests := []struct {
		name     string
		fallback bool
		meshes   int
	}{
		{"fallback data", true, 1},
		{"no fallback", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := compressedFixture(tt.fallback).asset(t)

			renders, err := a.extractMeshes(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(renders[0].Meshes) != tt.meshes {
				t.Fatalf("expected %d meshes, got %d", tt.meshes, len(renders[0].Meshes))
			}
			if tt.meshes == 1 {
				m := renders[0].Meshes[0]
				if got := m.VertexBuffer.Float32s(model.SemanticPosition, 1); got[0] != 2 {
					t.Errorf("expected fallback position x=2, got %v", got)
				}
				if len(m.Morphs) != 1 {
					t.Errorf("expected morphs on the fallback path, got %d", len(m.Morphs))
				}
			}
		})
	}
}

func TestBuildIndexBuffer_Width(t *testing.T) {
	indices := []uint32{0, 1, 69999}
	tests := []struct {
		name     string
		supports bool
		vertices int
		format   wgpu.IndexFormat
		size     int
		last     uint32
	}{
		{"small mesh", true, 300, wgpu.IndexFormatUint16, 6, 69999 & 0xFFFF},
		{"large mesh", true, 70000, wgpu.IndexFormatUint32, 12, 69999},
		{"large mesh without device support", false, 70000, wgpu.IndexFormatUint16, 6, 69999 & 0xFFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newFixture().asset(t)
			a.uint32Indices = tt.supports

			ib := a.buildIndexBuffer("m", indices, tt.vertices)
			if ib.Format != tt.format {
				t.Errorf("expected format %v, got %v", tt.format, ib.Format)
			}
			if ib.Count != 3 {
				t.Errorf("expected 3 indices, got %d", ib.Count)
			}
			if len(ib.Data) != tt.size {
				t.Errorf("expected %d bytes, got %d", tt.size, len(ib.Data))
			}
			if got := ib.Index(2); got != tt.last {
				t.Errorf("expected last index %d, got %d", tt.last, got)
			}
		})
	}
}

func TestExtractMeshes_SharesVertexBuffers(t *testing.T) {
	f := newFixture()
	f.triangle("a")
	prim := f.doc.Meshes[0].Primitives[0]
	f.doc.Meshes = append(f.doc.Meshes, gltf.Mesh{Name: "b", Primitives: []gltf.Primitive{prim}})
	a := f.asset(t)

	renders, err := a.extractMeshes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if renders[0].Meshes[0].VertexBuffer != renders[1].Meshes[0].VertexBuffer {
		t.Error("expected primitives with identical accessors to share a vertex buffer")
	}
	if renders[0].Meshes[0].Material != -1 {
		t.Errorf("expected no material, got %d", renders[0].Meshes[0].Material)
	}
}

func TestExtractMeshes_Morphs(t *testing.T) {
	f := newFixture()
	f.triangle("morphing")
	delta := f.floats(gltf.AccessorVec3, 0, 1, 0, 0, 1, 0, 0, 1, 0)
	mesh := &f.doc.Meshes[0]
	mesh.Primitives[0].Targets = []map[string]int{
		{gltf.AttributePosition: delta},
		{gltf.AttributeNormal: delta},
	}
	mesh.Weights = []float32{0.5, 0.25}
	mesh.Extras = json.RawMessage(`{"targetNames":["smile"]}`)
	a := f.asset(t)

	renders, err := a.extractMeshes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	morphs := renders[0].Meshes[0].Morphs
	if len(morphs) != 2 {
		t.Fatalf("expected 2 morph targets, got %d", len(morphs))
	}
	if morphs[0].Name != "smile" || morphs[1].Name != "1" {
		t.Errorf("expected names smile and 1, got %q and %q", morphs[0].Name, morphs[1].Name)
	}
	if morphs[0].DefaultWeight != 0.5 || morphs[1].DefaultWeight != 0.25 {
		t.Errorf("expected default weights 0.5 and 0.25, got %v and %v", morphs[0].DefaultWeight, morphs[1].DefaultWeight)
	}
	if len(morphs[0].Positions) != 9 || morphs[0].Normals != nil {
		t.Errorf("expected position deltas only on target 0")
	}
	if len(morphs[1].Normals) != 9 || morphs[1].Positions != nil {
		t.Errorf("expected normal deltas only on target 1")
	}
}

func TestExtractMeshes_InvalidMode(t *testing.T) {
	f := newFixture()
	f.triangle("bad")
	f.doc.Meshes[0].Primitives[0].Mode = ptr(9)
	a := f.asset(t)

	if _, err := a.extractMeshes(context.Background()); err == nil {
		t.Error("expected an error for an unknown primitive mode")
	}
}

func TestExtractMeshes_Variants(t *testing.T) {
	f := newFixture()
	f.triangle("shoe")
	f.doc.Meshes[0].Primitives[0].Material = ptr(0)
	f.doc.Meshes[0].Primitives[0].Extensions = &gltf.PrimitiveExtensions{
		MaterialsVariants: &gltf.PrimitiveVariants{Mappings: []gltf.VariantMapping{
			{Material: 1, Variants: []int{0}},
			{Material: 2, Variants: []int{1, 7}},
		}},
	}
	a := f.asset(t)
	a.variantNames = []string{"red", "blue"}

	renders, err := a.extractMeshes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := renders[0].Meshes[0]
	if got := m.MaterialFor("red"); got != 1 {
		t.Errorf("expected red to map to 1, got %d", got)
	}
	if got := m.MaterialFor("blue"); got != 2 {
		t.Errorf("expected blue to map to 2, got %d", got)
	}
	if got := m.MaterialFor("green"); got != 0 {
		t.Errorf("expected unknown variants to use the default material, got %d", got)
	}
	if len(m.Variants) != 2 {
		t.Errorf("expected out of range variants to be ignored, got %v", m.Variants)
	}
}

func TestExtractMeshes_Bounds(t *testing.T) {
	f := newFixture()
	f.triangle("bounded")
	a := f.asset(t)

	renders, err := a.extractMeshes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := renders[0].Meshes[0].Bounds
	if b.Min()[0] != 0 || b.Max()[0] != 1 || b.Max()[1] != 1 {
		t.Errorf("expected bounds [0,0,0]-[1,1,0], got %v-%v", b.Min(), b.Max())
	}
}

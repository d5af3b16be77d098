package loader

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-glb/engine/gltf"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"

	"go.uber.org/zap"
)

// fixture builds a document and its binary chunk by hand.
type fixture struct {
	doc gltf.Document
	bin []byte
}

func newFixture() *fixture {
	return &fixture{doc: gltf.Document{Asset: gltf.Asset{Version: "2.0"}}}
}

func ptr[T any](v T) *T {
	return &v
}

// view appends data to the binary chunk as a new 4-byte aligned buffer view.
func (f *fixture) view(data []byte, stride int) int {
	if len(f.doc.Buffers) == 0 {
		f.doc.Buffers = []gltf.Buffer{{}}
	}
	for len(f.bin)%4 != 0 {
		f.bin = append(f.bin, 0)
	}
	bv := gltf.BufferView{Buffer: 0, ByteOffset: len(f.bin), ByteLength: len(data)}
	if stride > 0 {
		bv.ByteStride = ptr(stride)
	}
	f.bin = append(f.bin, data...)
	f.doc.Buffers[0].ByteLength = len(f.bin)
	f.doc.BufferViews = append(f.doc.BufferViews, bv)
	return len(f.doc.BufferViews) - 1
}

func (f *fixture) accessor(acc gltf.Accessor) int {
	f.doc.Accessors = append(f.doc.Accessors, acc)
	return len(f.doc.Accessors) - 1
}

func floatBytes(values ...float32) []byte {
	out := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// floats adds a tightly packed float accessor of the given type.
func (f *fixture) floats(typ string, values ...float32) int {
	bv := f.view(floatBytes(values...), 0)
	return f.accessor(gltf.Accessor{
		BufferView:    ptr(bv),
		ComponentType: gltf.ComponentFloat,
		Count:         len(values) / gltf.ComponentCount(typ),
		Type:          typ,
	})
}

// indices16 adds an unsigned short scalar accessor.
func (f *fixture) indices16(values ...uint16) int {
	data := make([]byte, len(values)*2)
	for i, v := range values {
		binary.LittleEndian.PutUint16(data[i*2:], v)
	}
	bv := f.view(data, 0)
	return f.accessor(gltf.Accessor{
		BufferView:    ptr(bv),
		ComponentType: gltf.ComponentUnsignedShort,
		Count:         len(values),
		Type:          gltf.AccessorScalar,
	})
}

// triangle adds a one-triangle mesh and returns the mesh index.
func (f *fixture) triangle(name string) int {
	pos := f.floats(gltf.AccessorVec3, 0, 0, 0, 1, 0, 0, 0, 1, 0)
	f.doc.Accessors[pos].Min = []float32{0, 0, 0}
	f.doc.Accessors[pos].Max = []float32{1, 1, 0}
	idx := f.indices16(0, 1, 2)
	f.doc.Meshes = append(f.doc.Meshes, gltf.Mesh{
		Name: name,
		Primitives: []gltf.Primitive{{
			Attributes: map[string]int{gltf.AttributePosition: pos},
			Indices:    ptr(idx),
		}},
	})
	return len(f.doc.Meshes) - 1
}

func (f *fixture) node(n gltf.Node) int {
	f.doc.Nodes = append(f.doc.Nodes, n)
	return len(f.doc.Nodes) - 1
}

// glb encodes the fixture as a binary container.
func (f *fixture) glb(t *testing.T) []byte {
	t.Helper()
	j, err := json.Marshal(&f.doc)
	if err != nil {
		t.Fatalf("failed to marshal document: %v", err)
	}
	var bin []byte
	if len(f.bin) > 0 {
		bin = f.bin
	}
	return gltf.Encode(j, bin)
}

// asset returns an import state with buffers and views resolved, for testing single stages.
func (f *fixture) asset(t *testing.T) *gltfAsset {
	t.Helper()
	doc := f.doc
	a := &gltfAsset{
		name:          "fixture",
		doc:           &doc,
		bin:           f.bin,
		fetcher:       NewFetcher(0),
		hooks:         stageHooks(nil),
		log:           zap.NewNop(),
		uint32Indices: true,
		vertexCache:   make(map[vertexKey]*model.VertexBuffer),
	}
	ctx := context.Background()
	if err := a.resolveBuffers(ctx); err != nil {
		t.Fatalf("failed to resolve buffers: %v", err)
	}
	if err := a.resolveViews(ctx); err != nil {
		t.Fatalf("failed to resolve views: %v", err)
	}
	return a
}

// newTestLoader creates a loader with a silent logger.
func newTestLoader(t *testing.T, options ...LoaderBuilderOption) Loader {
	t.Helper()
	opts := append([]LoaderBuilderOption{WithLogger(zap.NewNop()), WithWorkers(2)}, options...)
	l := NewLoader(BackendTypeGLTF, opts...)
	t.Cleanup(l.Close)
	return l
}

// --- Fake codec ---

type fakeBuffer struct {
	id   int
	data []byte
}

func (b *fakeBuffer) Bytes() []byte {
	return b.data
}

// fakeCodec decodes a stream into a fixed geometry and tracks native memory.
type fakeCodec struct {
	geometry  *fakeGeometry
	decodeErr error

	next  int
	live  map[int]bool
	freed []int
}

func newFakeCodec(g *fakeGeometry) *fakeCodec {
	return &fakeCodec{geometry: g, live: make(map[int]bool)}
}

func (c *fakeCodec) Decode(data []byte) (DecodedGeometry, error) {
	if c.decodeErr != nil {
		return nil, c.decodeErr
	}
	c.geometry.released = false
	return c.geometry, nil
}

func (c *fakeCodec) Malloc(size int) (NativeBuffer, error) {
	c.next++
	c.live[c.next] = true
	return &fakeBuffer{id: c.next, data: make([]byte, size)}, nil
}

func (c *fakeCodec) Free(buf NativeBuffer) {
	fb := buf.(*fakeBuffer)
	delete(c.live, fb.id)
	c.freed = append(c.freed, fb.id)
}

// fakeGeometry serves float32 attributes and uint32 indices.
type fakeGeometry struct {
	kind       GeometryType
	points     int
	indices    []uint32
	attributes map[int][]float32
	extractErr error
	released   bool
}

func (g *fakeGeometry) Type() GeometryType { return g.kind }
func (g *fakeGeometry) NumPoints() int { return g.points }
func (g *fakeGeometry) NumFaces() int { return len(g.indices) / 3 }

func (g *fakeGeometry) ExtractIndices(dst NativeBuffer, wide bool) error {
	out := dst.Bytes()
	for i, v := range g.indices {
		if wide {
			binary.LittleEndian.PutUint32(out[i*4:], v)
		} else {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
		}
	}
	return nil
}

func (g *fakeGeometry) ExtractAttribute(id int, storage AttributeStorage, components int, dst NativeBuffer) error {
	if g.extractErr != nil {
		return g.extractErr
	}
	values, ok := g.attributes[id]
	if !ok {
		return errors.New("no such attribute")
	}
	if storage != StorageFloat32 {
		return errors.New("fake codec only serves floats")
	}
	copy(dst.Bytes(), floatBytes(values...))
	return nil
}

func (g *fakeGeometry) Release() {
	g.released = true
}

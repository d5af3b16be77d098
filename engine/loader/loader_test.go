package loader

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Carmen-Shannon/oxy-glb/engine/gltf"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/davecgh/go-spew/spew"
	qgltf "github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// sceneFixture is one triangle hung off a single scene root.
func sceneFixture() *fixture {
	f := newFixture()
	f.triangle("tri")
	f.node(gltf.Node{Name: "tri", Mesh: ptr(0), Translation: &[3]float32{0, 1, 0}})
	f.doc.Scenes = []gltf.Scene{{Name: "main", Nodes: []int{0}}}
	f.doc.Scene = ptr(0)
	return f
}

// writeSplit writes the fixture as scene.gltf plus an external scene.bin into dir.
func writeSplit(t *testing.T, f *fixture, dir string) map[string][]byte {
	t.Helper()
	f.doc.Buffers[0].URI = "scene.bin"
	doc, err := json.Marshal(&f.doc)
	if err != nil {
		t.Fatalf("failed to marshal document: %v", err)
	}
	files := map[string][]byte{"scene.gltf": doc, "scene.bin": f.bin}
	if dir != "" {
		for name, data := range files {
			if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
				t.Fatalf("failed to write %s: %v", name, err)
			}
		}
	}
	return files
}

func TestLoadBytes_Empty(t *testing.T) {
	l := newTestLoader(t)

	b, err := l.LoadBytes(context.Background(), "empty", newFixture().glb(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.Nodes()) != 0 || len(b.Renders()) != 0 || len(b.Animations()) != 0 {
		t.Errorf("expected an empty bundle, got %d nodes %d renders %d animations", len(b.Nodes()), len(b.Renders()), len(b.Animations()))
	}
	if b.Root() != -1 {
		t.Errorf("expected no root, got %d", b.Root())
	}
}

func TestLoadBytes_Scene(t *testing.T) {
	l := newTestLoader(t)

	b, err := l.LoadBytes(context.Background(), "scene", sceneFixture().glb(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Name() != "scene" {
		t.Errorf("expected name scene, got %q", b.Name())
	}
	if len(b.Renders()) != 1 || len(b.Renders()[0].Meshes) != 1 {
		t.Fatalf("expected 1 render with 1 mesh, got %s", spew.Sdump(b.Renders()))
	}
	if b.Root() != 0 || b.Nodes()[0].Name != "tri" {
		t.Errorf("expected the single scene node as root, got %d", b.Root())
	}
	if got := b.Nodes()[0].Render; got != 0 {
		t.Errorf("expected node 0 to draw render 0, got %d", got)
	}
}

func TestLoadBytes_BadMagic(t *testing.T) {
	l := newTestLoader(t)
	data := make([]byte, 20)
	binary.LittleEndian.PutUint32(data, 0xDEADBEEF)

	_, err := l.LoadBytes(context.Background(), "bad", data)
	if err == nil {
		t.Fatal("expected an error for a bad magic")
	}
	if !strings.Contains(err.Error(), "Expected 0x46546c67, found 0xdeadbeef") {
		t.Errorf("expected the observed magic in the message, got %q", err.Error())
	}
	var fe *gltf.FormatError
	if !errors.As(err, &fe) || fe.Field != "magic" {
		t.Errorf("expected a magic FormatError, got %v", err)
	}
}

func TestLoadBytes_ChunkOverflow(t *testing.T) {
	l := newTestLoader(t)
	data := sceneFixture().glb(t)
	binary.LittleEndian.PutUint32(data[12:], 1<<20)

	_, err := l.LoadBytes(context.Background(), "overflow", data)
	if !errors.Is(err, ErrHardFault) {
		t.Fatalf("expected a hard fault, got %v", err)
	}
	if l.Get("overflow") != nil {
		t.Error("expected a failed load to leave the cache untouched")
	}
}

func TestLoadBytes_HugeAccessorCount(t *testing.T) {
	l := newTestLoader(t)
	f := sceneFixture()
	f.doc.Accessors[0].Count = 1 << 62

	_, err := l.LoadBytes(context.Background(), "huge", f.glb(t))
	if !errors.Is(err, ErrAccessorBounds) {
		t.Fatalf("expected ErrAccessorBounds, got %v", err)
	}
}

func TestLoadBytes_ProfileLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := newTestLoader(t, WithLogger(zap.New(core)))

	if _, err := l.LoadBytes(context.Background(), "profiled", sceneFixture().glb(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := logs.FilterMessage("import profile").All()
	if len(entries) != 1 {
		t.Fatalf("expected one profile entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	for _, key := range []string{"asset", "parse", "meshes", "meshes_alloc", "nodes"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("expected field %q in %v", key, fields)
		}
	}
	if logs.FilterMessage("imported asset").Len() != 1 {
		t.Error("expected the import summary at info level")
	}
}

func TestLoadSync_Idempotent(t *testing.T) {
	l := newTestLoader(t)
	data := sceneFixture().glb(t)

	first, err := l.LoadSync("a", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := l.LoadSync("a", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first == second {
		t.Error("expected synchronous loads to build fresh bundles")
	}
	if !reflect.DeepEqual(first.Nodes(), second.Nodes()) {
		t.Errorf("expected identical nodes:\n%s\nvs\n%s", spew.Sdump(first.Nodes()), spew.Sdump(second.Nodes()))
	}
	v1 := first.Renders()[0].Meshes[0].VertexBuffer
	v2 := second.Renders()[0].Meshes[0].VertexBuffer
	if !bytes.Equal(v1.Data, v2.Data) || !reflect.DeepEqual(v1.Layout, v2.Layout) {
		t.Error("expected identical vertex buffers")
	}
	if l.Get("a") != nil {
		t.Error("expected synchronous loads not to be cached")
	}
}

// countingPool counts submitted tasks before running them on the wrapped pool.
type countingPool struct {
	worker.DynamicWorkerPool
	submitted atomic.Int32
}

func (p *countingPool) SubmitTask(task worker.Task) {
	p.submitted.Add(1)
	p.DynamicWorkerPool.SubmitTask(task)
}

func TestLoadSync_Inline(t *testing.T) {
	pool := &countingPool{DynamicWorkerPool: newTestPool(t, 2)}
	l := newTestLoader(t, WithWorkerPool(pool))
	data := sceneFixture().glb(t)

	if _, err := l.LoadSync("inline", data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := pool.submitted.Load(); n != 0 {
		t.Errorf("expected no pool tasks for a synchronous load, got %d", n)
	}

	if _, err := l.LoadBytes(context.Background(), "pooled", data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.submitted.Load() == 0 {
		t.Error("expected an asynchronous load to use the pool")
	}
}

func TestLoadSync_ExternalBuffer(t *testing.T) {
	l := newTestLoader(t)
	files := writeSplit(t, sceneFixture(), "")

	_, err := l.LoadSync("split", files["scene.gltf"])
	if !errors.Is(err, ErrExternalResource) {
		t.Fatalf("expected an external resource error, got %v", err)
	}
}

func TestLoader_Cache(t *testing.T) {
	l := newTestLoader(t)
	ctx := context.Background()
	data := sceneFixture().glb(t)

	b, err := l.LoadBytes(ctx, "cached", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	again, err := l.LoadReader(ctx, "cached", bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != b {
		t.Error("expected the cached bundle without reading")
	}
	if l.Get("cached") != b {
		t.Error("expected Get to return the cached bundle")
	}
	if len(l.Bundles()) != 1 {
		t.Errorf("expected 1 cached bundle, got %d", len(l.Bundles()))
	}

	if !l.Evict("cached") {
		t.Fatal("expected the bundle to be evicted")
	}
	if !b.Destroyed() {
		t.Error("expected eviction to destroy the bundle")
	}
	if l.Evict("cached") {
		t.Error("expected a second eviction to report false")
	}
}

func TestLoader_ConcurrentLoadsShareBundle(t *testing.T) {
	l := newTestLoader(t)
	data := sceneFixture().glb(t)

	const n = 8
	results := make([]model.ResourceBundle, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := l.LoadBytes(context.Background(), "shared", data)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results[i] = b
		}()
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatalf("expected every caller to get the same bundle, %d differs", i)
		}
	}
	if results[0].Destroyed() {
		t.Error("expected the winning bundle to stay alive")
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	writeSplit(t, sceneFixture(), dir)
	l := newTestLoader(t)

	b, err := l.Load(context.Background(), filepath.Join(dir, "scene.gltf"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.Renders()) != 1 {
		t.Errorf("expected the external buffer to resolve, got %d renders", len(b.Renders()))
	}
}

func TestLoad_BaseDir(t *testing.T) {
	dir := t.TempDir()
	writeSplit(t, sceneFixture(), dir)
	l := newTestLoader(t, WithBaseDir(dir))

	if _, err := l.Load(context.Background(), "scene.gltf"); err != nil {
		t.Fatalf("expected relative locations to resolve against the base dir, got %v", err)
	}
	if l.Get("scene.gltf") == nil {
		t.Error("expected the bundle cached under the requested location")
	}
}

func TestLoad_Remote(t *testing.T) {
	srv := newAssetServer(t, writeSplit(t, sceneFixture(), ""))
	l := newTestLoader(t)

	b, err := l.Load(context.Background(), srv.URL+"/assets/scene.gltf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.Renders()) != 1 {
		t.Errorf("expected the buffer fetched next to the document, got %d renders", len(b.Renders()))
	}
}

func TestLoad_Unsupported(t *testing.T) {
	l := newTestLoader(t)
	_, err := l.Load(context.Background(), "model.obj")
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected an unsupported format error, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	l := newTestLoader(t)
	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "gone.glb"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected a not exist error, got %v", err)
	}
}

func TestLoader_Hooks(t *testing.T) {
	f := sceneFixture()
	bin := f.bin
	files := writeSplit(t, f, "")

	var (
		sawDocument bool
		sawBundle   model.ResourceBundle
	)
	hooks := &Hooks{
		Document: func(doc *gltf.Document) {
			sawDocument = doc.Buffers[0].URI == "scene.bin"
		},
		Bundle: func(b model.ResourceBundle) {
			sawBundle = b
		},
		Buffer: &Stage[gltf.Buffer, []byte]{
			Process: func(_ context.Context, src Source[gltf.Buffer]) ([]byte, bool, error) {
				return bin, true, nil
			},
		},
	}
	l := newTestLoader(t, WithHooks(hooks))

	// The buffer hook serves the bytes, so nothing is fetched even in a synchronous load.
	b, err := l.LoadSync("hooked", files["scene.gltf"])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sawDocument {
		t.Error("expected the document hook to see the parsed document")
	}
	if sawBundle != b {
		t.Error("expected the bundle hook to see the returned bundle")
	}
}

func TestLoader_WithBundle(t *testing.T) {
	pre := model.NewBundle(model.WithName("pre"))
	l := newTestLoader(t, WithBundle("pre", pre))

	if l.Get("pre") != pre {
		t.Error("expected the preloaded bundle to be cached")
	}
	b, err := l.LoadBytes(context.Background(), "pre", []byte("not an asset"))
	if err != nil || b != pre {
		t.Errorf("expected the preloaded bundle without parsing, got %v", err)
	}
}

func TestLoadBytes_RequiredCompressionWithoutCodec(t *testing.T) {
	f := compressedFixture(true)
	f.doc.ExtensionsRequired = []string{gltf.ExtDracoMeshCompression}
	l := newTestLoader(t)

	_, err := l.LoadBytes(context.Background(), "draco", f.glb(t))
	if !errors.Is(err, ErrCodecUnavailable) {
		t.Fatalf("expected codec unavailable, got %v", err)
	}
}

func TestLoadBytes_RequiredCompressionWithCodec(t *testing.T) {
	f := compressedFixture(false)
	f.doc.ExtensionsRequired = []string{gltf.ExtDracoMeshCompression}
	codec := newFakeCodec(triangleGeometry())
	l := newTestLoader(t, WithWorkers(0), WithCodecContext(NewCodecContext(func(context.Context) (CodecModule, error) {
		return codec, nil
	})))

	b, err := l.LoadBytes(context.Background(), "draco", f.glb(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.Renders()[0].Meshes) != 1 {
		t.Errorf("expected the decoded mesh, got %d", len(b.Renders()[0].Meshes))
	}
}

func TestNeedsFlipV(t *testing.T) {
	im := newGLTFImporter(nil, nil, nil, nil, zap.NewNop(), importOptions{flipVGenerators: []string{"PlayCanvas", ""}}).(*gltfImporterImpl)

	tests := []struct {
		generator string
		want      bool
	}{
		{"PlayCanvas glb exporter 1.0", true},
		{"Khronos glTF Blender I/O", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := im.needsFlipV(tt.generator); got != tt.want {
			t.Errorf("needsFlipV(%q): expected %v, got %v", tt.generator, tt.want, got)
		}
	}
}

// TestLoadBytes_ThirdPartyEncoder loads a container written by an independent encoder.
func TestLoadBytes_ThirdPartyEncoder(t *testing.T) {
	doc := qgltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2, 2, 1, 3})
	doc.Meshes = append(doc.Meshes, &qgltf.Mesh{
		Name: "quad",
		Primitives: []*qgltf.Primitive{{
			Indices:    qgltf.Index(idx),
			Attributes: map[string]uint32{"POSITION": pos},
		}},
	})
	doc.Nodes = append(doc.Nodes, &qgltf.Node{Name: "quad", Mesh: qgltf.Index(0)})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	var buf bytes.Buffer
	enc := qgltf.NewEncoder(&buf)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	l := newTestLoader(t)
	b, err := l.LoadReader(context.Background(), "quad", &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.Renders()) != 1 {
		t.Fatalf("expected 1 render, got %d", len(b.Renders()))
	}
	m := b.Renders()[0].Meshes[0]
	if m.VertexBuffer.Count != 4 || m.IndexBuffer.Count != 6 {
		t.Errorf("expected 4 vertices and 6 indices, got %d and %d", m.VertexBuffer.Count, m.IndexBuffer.Count)
	}
	if got := m.IndexBuffer.Index(5); got != 3 {
		t.Errorf("expected last index 3, got %d", got)
	}
	if b.Nodes()[0].Name != "quad" {
		t.Errorf("expected node quad, got %q", b.Nodes()[0].Name)
	}
}

package loader

import (
	"context"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-glb/engine/camera"
	"github.com/Carmen-Shannon/oxy-glb/engine/gltf"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"

	"github.com/go-gl/mathgl/mgl32"
)

func extractScene(t *testing.T, f *fixture) ([]model.Node, []int, int) {
	t.Helper()
	e := newGLTFNodeExtractor(f.asset(t))
	nodes, err := e.ExtractNodes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return e.ExtractScenes(nodes)
}

func TestExtractNodes_Transforms(t *testing.T) {
	f := newFixture()
	m := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.Scale3D(2, 2, 2))
	f.node(gltf.Node{Name: "matrix", Matrix: (*[16]float32)(m[:])})
	f.node(gltf.Node{Name: "trs", Translation: &[3]float32{4, 5, 6}, Rotation: &[4]float32{0, 0, 0, 2}})
	f.node(gltf.Node{})

	nodes, _, _ := extractScene(t, f)

	if !nodes[0].Translation.ApproxEqual(mgl32.Vec3{1, 2, 3}) || !nodes[0].Scale.ApproxEqual(mgl32.Vec3{2, 2, 2}) {
		t.Errorf("expected decomposed matrix, got t=%v s=%v", nodes[0].Translation, nodes[0].Scale)
	}
	if nodes[1].Translation != (mgl32.Vec3{4, 5, 6}) {
		t.Errorf("expected translation (4, 5, 6), got %v", nodes[1].Translation)
	}
	if nodes[1].Rotation.W != 1 {
		t.Errorf("expected a normalized rotation, got %v", nodes[1].Rotation)
	}
	if nodes[2].Name != "node_2" {
		t.Errorf("expected generated name node_2, got %q", nodes[2].Name)
	}
	if nodes[2].Render != -1 || nodes[2].Skin != -1 || nodes[2].Camera != -1 || nodes[2].Light != -1 {
		t.Errorf("expected no attachments, got %+v", nodes[2])
	}
}

func TestExtractNodes_Hierarchy(t *testing.T) {
	f := newFixture()
	f.node(gltf.Node{Name: "root", Children: []int{1, 2, 3, 0, 9}})
	f.node(gltf.Node{Name: "arm"})
	f.node(gltf.Node{Name: "arm"})
	f.node(gltf.Node{Name: "arm_1", Children: []int{1}})

	nodes, _, _ := extractScene(t, f)

	if len(nodes[0].Children) != 3 {
		t.Errorf("expected self and out of range children to be ignored, got %v", nodes[0].Children)
	}
	if nodes[1].Parent != 0 || nodes[3].Parent != 0 {
		t.Errorf("expected parent 0, got %d and %d", nodes[1].Parent, nodes[3].Parent)
	}
	if len(nodes[3].Children) != 0 {
		t.Errorf("expected the second parent link to be ignored, got %v", nodes[3].Children)
	}

	names := map[string]bool{}
	for _, c := range nodes[0].Children {
		if names[nodes[c].Name] {
			t.Errorf("duplicate sibling name %q", nodes[c].Name)
		}
		names[nodes[c].Name] = true
	}
	if !names["arm"] || !names["arm_1"] || !names["arm_2"] {
		t.Errorf("expected arm, arm_1 and arm_2, got %v", names)
	}
}

func TestExtractScenes(t *testing.T) {
	t.Run("single root", func(t *testing.T) {
		f := newFixture()
		f.node(gltf.Node{Name: "only"})
		f.doc.Scenes = []gltf.Scene{{Nodes: []int{0}}}

		nodes, scenes, def := extractScene(t, f)
		if len(nodes) != 1 || len(scenes) != 1 || scenes[0] != 0 || def != 0 {
			t.Errorf("expected the single node as root, got nodes=%d scenes=%v def=%d", len(nodes), scenes, def)
		}
	})

	t.Run("synthetic roots", func(t *testing.T) {
		f := newFixture()
		f.node(gltf.Node{Name: "a"})
		f.node(gltf.Node{Name: "b"})
		f.doc.Scenes = []gltf.Scene{{Name: "first", Nodes: []int{0, 1}}, {Nodes: []int{1}}}
		f.doc.Scene = ptr(1)

		nodes, scenes, def := extractScene(t, f)
		if len(nodes) != 4 {
			t.Fatalf("expected 2 synthetic roots appended, got %d nodes", len(nodes))
		}
		if scenes[0] != 2 || scenes[1] != 3 || def != 1 {
			t.Errorf("expected scenes [2 3] default 1, got %v default %d", scenes, def)
		}
		if nodes[2].Name != "first" || nodes[3].Name != "scene_1" {
			t.Errorf("expected root names first and scene_1, got %q and %q", nodes[2].Name, nodes[3].Name)
		}
		if nodes[0].Parent != 2 {
			t.Errorf("expected a to hang off the first root, got parent %d", nodes[0].Parent)
		}
	})

	t.Run("no scenes", func(t *testing.T) {
		f := newFixture()
		f.node(gltf.Node{Name: "a", Children: []int{1}})
		f.node(gltf.Node{Name: "b"})
		f.node(gltf.Node{Name: "c"})

		nodes, scenes, def := extractScene(t, f)
		if len(scenes) != 1 || def != 0 {
			t.Fatalf("expected one implicit scene, got %v default %d", scenes, def)
		}
		root := nodes[scenes[0]]
		if len(root.Children) != 2 || root.Children[0] != 0 || root.Children[1] != 2 {
			t.Errorf("expected parentless nodes 0 and 2 as roots, got %v", root.Children)
		}
	})

	t.Run("empty", func(t *testing.T) {
		nodes, scenes, def := extractScene(t, newFixture())
		if len(nodes) != 0 || len(scenes) != 0 || def != -1 {
			t.Errorf("expected nothing, got nodes=%d scenes=%v def=%d", len(nodes), scenes, def)
		}
	})
}

func TestExtractCamerasAndLights(t *testing.T) {
	f := newFixture()
	f.doc.Cameras = []gltf.Camera{
		{Name: "persp", Type: gltf.CameraPerspective, Perspective: &gltf.Perspective{Yfov: 0.8, Znear: 0.1, AspectRatio: ptr(float32(1.5))}},
		{Name: "ortho", Type: gltf.CameraOrthographic, Orthographic: &gltf.Orthographic{Xmag: 2, Ymag: 3, Znear: 0.1, Zfar: 10}},
	}
	f.doc.Extensions = &gltf.DocumentExtensions{LightsPunctual: &gltf.LightsPunctual{Lights: []gltf.Light{
		{Name: "sun", Type: gltf.LightDirectional},
		{Name: "cone", Type: gltf.LightSpot, Spot: &gltf.Spot{}},
	}}}
	f.node(gltf.Node{Name: "holder", Camera: ptr(1), Extensions: &gltf.NodeExtensions{LightsPunctual: &gltf.NodeLight{Light: 1}}})
	a := f.asset(t)
	e := newGLTFNodeExtractor(a)

	cameras := e.ExtractCameras()
	if len(cameras) != 2 {
		t.Fatalf("expected 2 cameras, got %d", len(cameras))
	}
	if cameras[1].Type() != camera.ProjectionOrthographic {
		t.Errorf("expected an orthographic camera")
	}

	lights := e.ExtractLights()
	if len(lights) != 2 {
		t.Fatalf("expected 2 lights, got %d", len(lights))
	}
	outer := lights[1].OuterCone()
	if math.Abs(float64(outer)-math.Pi/4) > 1e-6 {
		t.Errorf("expected default outer cone pi/4, got %v", outer)
	}

	nodes, err := e.ExtractNodes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nodes[0].Camera != 1 || nodes[0].Light != 1 {
		t.Errorf("expected camera 1 and light 1, got %d and %d", nodes[0].Camera, nodes[0].Light)
	}
}

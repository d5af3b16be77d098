package model

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/camera"
	"github.com/Carmen-Shannon/oxy-glb/engine/light"
	"github.com/Carmen-Shannon/oxy-glb/engine/material"
)

// bundle is the implementation of the ResourceBundle interface.
type bundle struct {
	name       string
	nodes      []Node
	scenes     []int
	scene      int
	animations []*AnimationTrack
	textures   []*common.Texture
	materials  []material.Material
	renders    []*Render
	skins      []*Skin
	lights     []light.Light
	cameras    []camera.Camera
	variants   map[string]int

	destroyOnce sync.Once
	destroyed   bool
}

// ResourceBundle is everything built from one asset: the node hierarchy, its scenes, and
// the geometry, skins, animations, materials, textures, lights and cameras it references.
//
// Cross references are plain indices into the slices of the same bundle. The bundle is owned by
// the caller, who releases it with Destroy.
type ResourceBundle interface {
	// Name retrieves the bundle identifier, usually the asset path.
	//
	// Returns:
	//   - string: the bundle name
	Name() string

	// Nodes retrieves all nodes. Document nodes come first in document order, followed by any
	// synthetic scene roots.
	//
	// Returns:
	//   - []Node: the nodes
	Nodes() []Node

	// Scenes retrieves the root node index of each scene.
	//
	// Returns:
	//   - []int: one root node index per scene
	Scenes() []int

	// Scene retrieves the index into Scenes of the default scene, or -1 if there are none.
	//
	// Returns:
	//   - int: the default scene index
	Scene() int

	// Root retrieves the root node index of the default scene, or -1.
	//
	// Returns:
	//   - int: the root node index
	Root() int

	// Animations retrieves all animation tracks.
	//
	// Returns:
	//   - []*AnimationTrack: the tracks
	Animations() []*AnimationTrack

	// Textures retrieves all textures in document order.
	//
	// Returns:
	//   - []*common.Texture: the textures
	Textures() []*common.Texture

	// Materials retrieves all materials in document order.
	//
	// Returns:
	//   - []material.Material: the materials
	Materials() []material.Material

	// Renders retrieves one render per document mesh.
	//
	// Returns:
	//   - []*Render: the renders
	Renders() []*Render

	// Skins retrieves the deduplicated skins.
	//
	// Returns:
	//   - []*Skin: the skins
	Skins() []*Skin

	// Lights retrieves the punctual lights.
	//
	// Returns:
	//   - []light.Light: the lights
	Lights() []light.Light

	// Cameras retrieves the cameras.
	//
	// Returns:
	//   - []camera.Camera: the cameras
	Cameras() []camera.Camera

	// Variants retrieves the material variant name to variant index map.
	//
	// Returns:
	//   - map[string]int: the variants
	Variants() map[string]int

	// Destroy releases the bundle's resources. Render wrappers drop their mesh slices so
	// vertex data shared between meshes can be collected. Calling Destroy more than once is a no-op.
	Destroy()

	// Destroyed reports whether Destroy has been called.
	Destroyed() bool
}

var _ ResourceBundle = &bundle{}

// NewBundle creates a ResourceBundle with the provided options applied.
//
// Parameters:
//   - options: a variadic list of BundleBuilderOption functions
//
// Returns:
//   - ResourceBundle: the bundle
func NewBundle(options ...BundleBuilderOption) ResourceBundle {
	b := &bundle{
		scene:    -1,
		variants: map[string]int{},
	}
	for _, option := range options {
		option(b)
	}
	return b
}

func (b *bundle) Name() string {
	return b.name
}

func (b *bundle) Nodes() []Node {
	return b.nodes
}

func (b *bundle) Scenes() []int {
	return b.scenes
}

func (b *bundle) Scene() int {
	return b.scene
}

func (b *bundle) Root() int {
	if b.scene < 0 || b.scene >= len(b.scenes) {
		return -1
	}
	return b.scenes[b.scene]
}

func (b *bundle) Animations() []*AnimationTrack {
	return b.animations
}

func (b *bundle) Textures() []*common.Texture {
	return b.textures
}

func (b *bundle) Materials() []material.Material {
	return b.materials
}

func (b *bundle) Renders() []*Render {
	return b.renders
}

func (b *bundle) Skins() []*Skin {
	return b.skins
}

func (b *bundle) Lights() []light.Light {
	return b.lights
}

func (b *bundle) Cameras() []camera.Camera {
	return b.cameras
}

func (b *bundle) Variants() map[string]int {
	return b.variants
}

func (b *bundle) Destroy() {
	b.destroyOnce.Do(func() {
		for _, r := range b.renders {
			if r != nil {
				r.Meshes = nil
			}
		}
		b.renders = nil
		b.nodes = nil
		b.scenes = nil
		b.scene = -1
		b.animations = nil
		b.textures = nil
		b.materials = nil
		b.skins = nil
		b.lights = nil
		b.cameras = nil
		b.variants = nil
		b.destroyed = true
	})
}

func (b *bundle) Destroyed() bool {
	return b.destroyed
}

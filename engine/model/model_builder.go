package model

import (
	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/camera"
	"github.com/Carmen-Shannon/oxy-glb/engine/light"
	"github.com/Carmen-Shannon/oxy-glb/engine/material"
)

// BundleBuilderOption is a functional option for configuring a ResourceBundle via NewBundle.
type BundleBuilderOption func(*bundle)

// WithName is an option builder that sets the name of the bundle.
//
// Parameters:
//   - name: the bundle identifier
//
// Returns:
//   - BundleBuilderOption: a function that applies the name option to a bundle
func WithName(name string) BundleBuilderOption {
	return func(b *bundle) {
		b.name = name
	}
}

// WithNodes is an option builder that sets the node list.
//
// Parameters:
//   - nodes: the nodes, document nodes first
//
// Returns:
//   - BundleBuilderOption: a function that applies the nodes option to a bundle
func WithNodes(nodes []Node) BundleBuilderOption {
	return func(b *bundle) {
		b.nodes = nodes
	}
}

// WithScenes is an option builder that sets the scene roots and the default scene.
//
// Parameters:
//   - roots: the root node index of each scene
//   - defaultScene: the default scene index, or -1
//
// Returns:
//   - BundleBuilderOption: a function that applies the scenes option to a bundle
func WithScenes(roots []int, defaultScene int) BundleBuilderOption {
	return func(b *bundle) {
		b.scenes = roots
		b.scene = defaultScene
	}
}

// WithAnimations is an option builder that sets the animation tracks.
func WithAnimations(tracks []*AnimationTrack) BundleBuilderOption {
	return func(b *bundle) {
		b.animations = tracks
	}
}

// WithTextures is an option builder that sets the textures.
func WithTextures(textures []*common.Texture) BundleBuilderOption {
	return func(b *bundle) {
		b.textures = textures
	}
}

// WithMaterials is an option builder that sets the materials.
func WithMaterials(materials []material.Material) BundleBuilderOption {
	return func(b *bundle) {
		b.materials = materials
	}
}

// WithRenders is an option builder that sets the renders.
func WithRenders(renders []*Render) BundleBuilderOption {
	return func(b *bundle) {
		b.renders = renders
	}
}

// WithSkins is an option builder that sets the skins.
func WithSkins(skins []*Skin) BundleBuilderOption {
	return func(b *bundle) {
		b.skins = skins
	}
}

// WithLights is an option builder that sets the punctual lights.
func WithLights(lights []light.Light) BundleBuilderOption {
	return func(b *bundle) {
		b.lights = lights
	}
}

// WithCameras is an option builder that sets the cameras.
func WithCameras(cameras []camera.Camera) BundleBuilderOption {
	return func(b *bundle) {
		b.cameras = cameras
	}
}

// WithVariants is an option builder that sets the material variant map.
//
// Parameters:
//   - variants: variant name to variant index
//
// Returns:
//   - BundleBuilderOption: a function that applies the variants option to a bundle
func WithVariants(variants map[string]int) BundleBuilderOption {
	return func(b *bundle) {
		if variants != nil {
			b.variants = variants
		}
	}
}

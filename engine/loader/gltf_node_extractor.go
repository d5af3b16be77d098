package loader

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/camera"
	"github.com/Carmen-Shannon/oxy-glb/engine/gltf"
	"github.com/Carmen-Shannon/oxy-glb/engine/light"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// gltfNodeExtractorImpl is the implementation of the gltfNodeExtractor interface.
type gltfNodeExtractorImpl struct {
	asset *gltfAsset
}

// gltfNodeExtractor builds the scene graph: nodes, scene roots, cameras and lights.
type gltfNodeExtractor interface {
	// ExtractNodes builds one node per document node and links parents and children.
	// Sibling nodes that share a name are renamed name_1, name_2 and so on.
	//
	// Parameters:
	//   - ctx: the import context
	//
	// Returns:
	//   - []model.Node: the nodes in document order
	//   - error: error if a node stage hook fails
	ExtractNodes(ctx context.Context) ([]model.Node, error)

	// ExtractScenes returns the root node of every scene. A scene with several roots gets a
	// synthetic root appended to nodes. When the document has exactly one scene with
	// exactly one root, that node is the root.
	//
	// Parameters:
	//   - nodes: the nodes from ExtractNodes
	//
	// Returns:
	//   - []model.Node: nodes with any synthetic roots appended
	//   - []int: the root node of each scene
	//   - int: the default scene, or -1 when there are none
	ExtractScenes(nodes []model.Node) ([]model.Node, []int, int)

	// ExtractCameras builds the document cameras.
	ExtractCameras() []camera.Camera

	// ExtractLights builds the punctual lights declared by the document.
	ExtractLights() []light.Light
}

var _ gltfNodeExtractor = &gltfNodeExtractorImpl{}

func newGLTFNodeExtractor(asset *gltfAsset) gltfNodeExtractor {
	return &gltfNodeExtractorImpl{asset: asset}
}

func (e *gltfNodeExtractorImpl) ExtractNodes(ctx context.Context) ([]model.Node, error) {
	doc := e.asset.doc
	nodes := make([]model.Node, len(doc.Nodes))
	for i := range doc.Nodes {
		src := Source[gltf.Node]{Index: i, Value: &doc.Nodes[i], Document: doc}
		n, err := e.asset.hooks.Node.run(ctx, src, e.buildNode)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		nodes[i] = n
	}

	for i := range doc.Nodes {
		for _, c := range doc.Nodes[i].Children {
			if c < 0 || c >= len(nodes) || c == i {
				e.asset.log.Warn("ignoring invalid child", zap.Int("node", i), zap.Int("child", c))
				continue
			}
			if nodes[c].Parent >= 0 {
				e.asset.log.Warn("ignoring second parent", zap.Int("node", c), zap.Int("parent", i))
				continue
			}
			nodes[c].Parent = i
			nodes[i].Children = append(nodes[i].Children, c)
		}
		uniqueNames(nodes, nodes[i].Children)
	}
	return nodes, nil
}

// buildNode is the default node stage.
func (e *gltfNodeExtractorImpl) buildNode(_ context.Context, src Source[gltf.Node]) (model.Node, error) {
	dn := src.Value
	name := common.IndexedName(dn.Name, "node", src.Index)
	n := model.NewNode(name)

	if dn.Matrix != nil {
		n.Translation, n.Rotation, n.Scale = common.DecomposeMatrix(mgl32.Mat4(*dn.Matrix))
	} else {
		if t := dn.Translation; t != nil {
			n.Translation = mgl32.Vec3(*t)
		}
		if r := dn.Rotation; r != nil {
			n.Rotation = mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}.Normalize()
		}
		if s := dn.Scale; s != nil {
			n.Scale = mgl32.Vec3(*s)
		}
	}

	if dn.Mesh != nil {
		n.Render = *dn.Mesh
		n.Weights = dn.Weights
		if n.Weights == nil && *dn.Mesh >= 0 && *dn.Mesh < len(src.Document.Meshes) {
			n.Weights = src.Document.Meshes[*dn.Mesh].Weights
		}
	}
	if dn.Skin != nil {
		n.Skin = *dn.Skin
	}
	if dn.Camera != nil {
		n.Camera = *dn.Camera
	}
	if dn.Extensions != nil && dn.Extensions.LightsPunctual != nil {
		n.Light = dn.Extensions.LightsPunctual.Light
	}
	return n, nil
}

// uniqueNames renames repeated names among the given siblings. The first holder of a name
// keeps it; later ones get the lowest free numeric suffix.
func uniqueNames(nodes []model.Node, siblings []int) {
	taken := make(map[string]bool, len(siblings))
	for _, idx := range siblings {
		taken[nodes[idx].Name] = true
	}

	kept := make(map[string]bool, len(siblings))
	next := make(map[string]int)
	for _, idx := range siblings {
		name := nodes[idx].Name
		if !kept[name] {
			kept[name] = true
			continue
		}
		n := next[name]
		for {
			n++
			candidate := name + "_" + strconv.Itoa(n)
			if !taken[candidate] {
				nodes[idx].Name = candidate
				taken[candidate] = true
				kept[candidate] = true
				break
			}
		}
		next[name] = n
	}
}

func (e *gltfNodeExtractorImpl) ExtractScenes(nodes []model.Node) ([]model.Node, []int, int) {
	doc := e.asset.doc

	sceneRoots := make([][]int, 0, len(doc.Scenes))
	names := make([]string, 0, len(doc.Scenes))
	for i, s := range doc.Scenes {
		var roots []int
		for _, r := range s.Nodes {
			if r >= 0 && r < len(nodes) {
				roots = append(roots, r)
			}
		}
		sceneRoots = append(sceneRoots, roots)
		names = append(names, common.IndexedName(s.Name, "scene", i))
	}

	// No scenes declared: every parentless node is a root of one implicit scene.
	if len(sceneRoots) == 0 {
		var roots []int
		for i := range nodes {
			if nodes[i].Parent < 0 {
				roots = append(roots, i)
			}
		}
		if len(roots) == 0 {
			return nodes, nil, -1
		}
		sceneRoots = append(sceneRoots, roots)
		names = append(names, "scene_0")
	}

	if len(sceneRoots) == 1 && len(sceneRoots[0]) == 1 {
		return nodes, []int{sceneRoots[0][0]}, 0
	}

	scenes := make([]int, len(sceneRoots))
	for i, roots := range sceneRoots {
		root := model.NewNode(names[i])
		root.Children = roots
		idx := len(nodes)
		for _, r := range roots {
			if nodes[r].Parent < 0 {
				nodes[r].Parent = idx
			}
		}
		nodes = append(nodes, root)
		uniqueNames(nodes, roots)
		scenes[i] = idx
	}

	def := 0
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(scenes) {
		def = *doc.Scene
	}
	return nodes, scenes, def
}

func (e *gltfNodeExtractorImpl) ExtractCameras() []camera.Camera {
	doc := e.asset.doc
	cameras := make([]camera.Camera, 0, len(doc.Cameras))
	for _, c := range doc.Cameras {
		switch {
		case c.Type == gltf.CameraOrthographic && c.Orthographic != nil:
			o := c.Orthographic
			cameras = append(cameras, camera.NewCamera(camera.ProjectionOrthographic,
				camera.WithName(c.Name),
				camera.WithMagnification(o.Xmag, o.Ymag),
				camera.WithClip(o.Znear, o.Zfar),
			))
		case c.Perspective != nil:
			p := c.Perspective
			var far float32
			if p.Zfar != nil {
				far = *p.Zfar
			}
			opts := []camera.CameraBuilderOption{
				camera.WithName(c.Name),
				camera.WithFov(p.Yfov),
				camera.WithClip(p.Znear, far),
			}
			if p.AspectRatio != nil {
				opts = append(opts, camera.WithAspect(*p.AspectRatio))
			}
			cameras = append(cameras, camera.NewCamera(camera.ProjectionPerspective, opts...))
		default:
			e.asset.log.Warn("camera without projection, using defaults", zap.String("camera", c.Name))
			cameras = append(cameras, camera.NewCamera(camera.ProjectionPerspective, camera.WithName(c.Name)))
		}
	}
	return cameras
}

func (e *gltfNodeExtractorImpl) ExtractLights() []light.Light {
	declared := e.asset.doc.Lights()
	lights := make([]light.Light, 0, len(declared))
	for _, l := range declared {
		var kind light.LightType
		switch l.Type {
		case gltf.LightDirectional:
			kind = light.LightTypeDirectional
		case gltf.LightSpot:
			kind = light.LightTypeSpot
		default:
			kind = light.LightTypePoint
		}

		opts := []light.LightBuilderOption{light.WithName(l.Name)}
		if l.Color != nil {
			opts = append(opts, light.WithColor(l.Color[0], l.Color[1], l.Color[2]))
		}
		if l.Intensity != nil {
			opts = append(opts, light.WithIntensity(*l.Intensity))
		}
		if l.Range != nil {
			opts = append(opts, light.WithRange(*l.Range))
		}
		if kind == light.LightTypeSpot && l.Spot != nil {
			inner, outer := float32(0), float32(0.7853982)
			if l.Spot.InnerConeAngle != nil {
				inner = *l.Spot.InnerConeAngle
			}
			if l.Spot.OuterConeAngle != nil {
				outer = *l.Spot.OuterConeAngle
			}
			opts = append(opts, light.WithSpotCone(inner, outer))
		}
		lights = append(lights, light.NewLight(kind, opts...))
	}
	return lights
}

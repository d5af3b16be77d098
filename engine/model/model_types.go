package model

import (
	"github.com/go-gl/mathgl/mgl32"
)

// --- Geometry Types ---

// BoundingBox is an axis-aligned box in center/half-extent form.
type BoundingBox struct {
	Center      mgl32.Vec3
	HalfExtents mgl32.Vec3
}

// BoundsFromMinMax converts corner form into center/half-extent form.
//
// Parameters:
//   - lo: the minimum corner
//   - hi: the maximum corner
//
// Returns:
//   - BoundingBox: the box
func BoundsFromMinMax(lo, hi mgl32.Vec3) BoundingBox {
	return BoundingBox{
		Center:      lo.Add(hi).Mul(0.5),
		HalfExtents: hi.Sub(lo).Mul(0.5),
	}
}

// Min returns the minimum corner.
func (b BoundingBox) Min() mgl32.Vec3 {
	return b.Center.Sub(b.HalfExtents)
}

// Max returns the maximum corner.
func (b BoundingBox) Max() mgl32.Vec3 {
	return b.Center.Add(b.HalfExtents)
}

// MorphTarget holds per-vertex deltas blended at runtime by a weight.
type MorphTarget struct {
	// Name comes from the mesh's target names when present, otherwise the target ordinal.
	Name string

	// Positions holds xyz deltas, three floats per vertex. Nil when the target has none.
	Positions []float32

	// Normals holds xyz deltas, three floats per vertex. Nil when the target has none.
	Normals []float32

	// Bounds covers the position deltas.
	Bounds BoundingBox

	// DefaultWeight is the mesh's default weight for this target.
	DefaultWeight float32
}

// Mesh is one drawable primitive.
type Mesh struct {
	// Name is the owning mesh name.
	Name string

	// VertexBuffer may be shared with other meshes whose attribute accessors are identical.
	VertexBuffer *VertexBuffer

	// IndexBuffer is nil for non-indexed primitives.
	IndexBuffer *IndexBuffer

	Topology Topology

	// Bounds is derived from the position accessor's min and max.
	Bounds BoundingBox

	Morphs []MorphTarget

	// Material is the default material index, or -1.
	Material int

	// Variants maps material variant names to material indices.
	Variants map[string]int
}

// MaterialFor returns the material index for a variant, falling back to the default material.
func (m *Mesh) MaterialFor(variant string) int {
	if idx, ok := m.Variants[variant]; ok {
		return idx
	}
	return m.Material
}

// Render groups the meshes built from one document mesh.
type Render struct {
	Name   string
	Meshes []*Mesh
}

// --- Skin Types ---

// Skin binds vertices to a set of joint nodes.
type Skin struct {
	// Name is the skin name from the asset.
	Name string

	// InverseBindMatrices holds one matrix per joint. Identity when the asset has none.
	InverseBindMatrices []mgl32.Mat4

	// Joints are the joint node indices.
	Joints []int

	// JointNames are the joint node names in joint order.
	JointNames []string
}

// --- Animation Types ---

// Interpolation is how values are interpolated between keyframes.
type Interpolation int

const (
	InterpolationLinear Interpolation = iota
	InterpolationStep
	InterpolationCubicSpline
)

func (i Interpolation) String() string {
	switch i {
	case InterpolationStep:
		return "STEP"
	case InterpolationCubicSpline:
		return "CUBICSPLINE"
	default:
		return "LINEAR"
	}
}

// Animation target paths.
const (
	PathTranslation = "translation"
	PathRotation    = "rotation"
	PathScale       = "scale"
	PathWeights     = "weights"
)

// AnimationTarget names one animated property.
type AnimationTarget struct {
	// Node is the target node index.
	Node int

	// Path is the animated property: translation, rotation, scale, or weights.<target name>
	// for a single morph weight.
	Path string
}

// AnimationOutput is one keyframe value array.
type AnimationOutput struct {
	// Components is the number of floats per keyframe value.
	Components int
	Data       []float32
}

// AnimationCurve drives one or more targets from an input/output pair.
type AnimationCurve struct {
	Targets       []AnimationTarget
	Input         int
	Output        int
	Interpolation Interpolation
}

// AnimationTrack is one named animation.
type AnimationTrack struct {
	Name string

	// Duration is the largest keyframe time across all inputs, in seconds.
	Duration float32

	Inputs  [][]float32
	Outputs []AnimationOutput
	Curves  []AnimationCurve
}

// --- Scene Graph Types ---

// Node is one entry of the scene hierarchy. Index fields are -1 when unset.
type Node struct {
	Name string

	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3

	Parent   int
	Children []int

	Render int
	Skin   int
	Camera int
	Light  int

	// Weights are the default morph weights of the node's render.
	Weights []float32
}

// NewNode returns a node with an identity transform and no attachments.
func NewNode(name string) Node {
	return Node{
		Name:     name,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
		Parent:   -1,
		Render:   -1,
		Skin:     -1,
		Camera:   -1,
		Light:    -1,
	}
}

// LocalMatrix composes translation * rotation * scale.
func (n *Node) LocalMatrix() mgl32.Mat4 {
	t := mgl32.Translate3D(n.Translation[0], n.Translation[1], n.Translation[2])
	s := mgl32.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2])
	return t.Mul4(n.Rotation.Mat4()).Mul4(s)
}

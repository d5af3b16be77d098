// Package gltf contains the glTF 2.0 document schema, the binary container reader and the
// document parser. The types map directly onto the glTF 2.0 JSON schema plus the ratified
// extensions the loader understands.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html
package gltf

import "encoding/json"

// --- Root Structure ---

// Document represents the root of a glTF JSON document. It is treated as immutable once parsed.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-gltf
type Document struct {
	// Asset contains metadata about the glTF asset.
	Asset Asset `json:"asset"`

	// Scene is the index of the default scene.
	Scene *int `json:"scene,omitempty"`

	// Scenes is an array of scenes.
	Scenes []Scene `json:"scenes,omitempty"`

	// Nodes is an array of nodes (transform hierarchy).
	Nodes []Node `json:"nodes,omitempty"`

	// Meshes is an array of meshes.
	Meshes []Mesh `json:"meshes,omitempty"`

	// Accessors define how to interpret buffer data.
	Accessors []Accessor `json:"accessors,omitempty"`

	// BufferViews define portions of buffers.
	BufferViews []BufferView `json:"bufferViews,omitempty"`

	// Buffers are raw binary data containers.
	Buffers []Buffer `json:"buffers,omitempty"`

	// Materials is an array of materials.
	Materials []Material `json:"materials,omitempty"`

	// Textures is an array of textures.
	Textures []Texture `json:"textures,omitempty"`

	// Images is an array of images.
	Images []Image `json:"images,omitempty"`

	// Samplers define texture sampling parameters.
	Samplers []Sampler `json:"samplers,omitempty"`

	// Skins is an array of skins (skeletal animation binding).
	Skins []Skin `json:"skins,omitempty"`

	// Animations is an array of animations.
	Animations []Animation `json:"animations,omitempty"`

	// Cameras is an array of camera projections referenced by nodes.
	Cameras []Camera `json:"cameras,omitempty"`

	// ExtensionsUsed lists extensions used by this asset.
	ExtensionsUsed []string `json:"extensionsUsed,omitempty"`

	// ExtensionsRequired lists extensions required to load this asset.
	ExtensionsRequired []string `json:"extensionsRequired,omitempty"`

	// Extensions holds the document-level extension blocks the loader understands.
	Extensions *DocumentExtensions `json:"extensions,omitempty"`
}

// DocumentExtensions holds document-level extension payloads.
type DocumentExtensions struct {
	// LightsPunctual declares the lights referenced by nodes.
	LightsPunctual *LightsPunctual `json:"KHR_lights_punctual,omitempty"`

	// MaterialsVariants declares the material variant names.
	MaterialsVariants *MaterialsVariants `json:"KHR_materials_variants,omitempty"`
}

// Asset contains metadata about the glTF asset.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-asset
type Asset struct {
	// Version is the glTF version (required).
	Version string `json:"version"`

	// MinVersion is the minimum glTF version required.
	MinVersion string `json:"minVersion,omitempty"`

	// Generator is the tool that generated this asset.
	Generator string `json:"generator,omitempty"`

	// Copyright information.
	Copyright string `json:"copyright,omitempty"`
}

// --- Scene Graph ---

// Scene is a set of root nodes.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-scene
type Scene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

// Node is a node in the node hierarchy. A node carries either Matrix or any of the TRS fields.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-node
type Node struct {
	// Name is an optional name for this node.
	Name string `json:"name,omitempty"`

	// Children are indices of child nodes.
	Children []int `json:"children,omitempty"`

	// Mesh is the index of the mesh in this node.
	Mesh *int `json:"mesh,omitempty"`

	// Skin is the index of the skin for this node.
	Skin *int `json:"skin,omitempty"`

	// Camera is the index of the camera attached to this node.
	Camera *int `json:"camera,omitempty"`

	// Matrix is a 4x4 transformation matrix (column-major).
	Matrix *[16]float32 `json:"matrix,omitempty"`

	// Translation is the node's translation (x, y, z).
	Translation *[3]float32 `json:"translation,omitempty"`

	// Rotation is the node's rotation as a quaternion (x, y, z, w).
	Rotation *[4]float32 `json:"rotation,omitempty"`

	// Scale is the node's scale (x, y, z).
	Scale *[3]float32 `json:"scale,omitempty"`

	// Weights are morph target weights overriding the mesh defaults.
	Weights []float32 `json:"weights,omitempty"`

	// Extensions holds node-level extension payloads.
	Extensions *NodeExtensions `json:"extensions,omitempty"`
}

// NodeExtensions holds node-level extension payloads.
type NodeExtensions struct {
	LightsPunctual *NodeLight `json:"KHR_lights_punctual,omitempty"`
}

// NodeLight references a light declared in the document's KHR_lights_punctual block.
type NodeLight struct {
	Light int `json:"light"`
}

// --- Mesh Data ---

// Mesh is a set of primitives to be rendered.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-mesh
type Mesh struct {
	// Name is an optional name for this mesh.
	Name string `json:"name,omitempty"`

	// Primitives defines the geometry to render.
	Primitives []Primitive `json:"primitives"`

	// Weights are default morph target weights.
	Weights []float32 `json:"weights,omitempty"`

	// Extras is application-specific data. Exporters commonly store morph target names here.
	Extras json.RawMessage `json:"extras,omitempty"`
}

// TargetNames returns the morph target names stored in extras.targetNames, or nil when
// the extras block is absent or has a different shape.
//
// Returns:
//   - []string: the morph target names or nil
func (m *Mesh) TargetNames() []string {
	if len(m.Extras) == 0 {
		return nil
	}
	var extras struct {
		TargetNames []string `json:"targetNames"`
	}
	if err := json.Unmarshal(m.Extras, &extras); err != nil {
		return nil
	}
	return extras.TargetNames
}

// Primitive defines geometry for rendering.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-mesh-primitive
type Primitive struct {
	// Attributes is a map of attribute semantic to accessor index.
	Attributes map[string]int `json:"attributes"`

	// Indices is the accessor index for the index buffer.
	Indices *int `json:"indices,omitempty"`

	// Material is the material index.
	Material *int `json:"material,omitempty"`

	// Mode is the primitive topology. Defaults to PrimitiveTriangles.
	Mode *int `json:"mode,omitempty"`

	// Targets are morph targets for this primitive.
	Targets []map[string]int `json:"targets,omitempty"`

	// Extensions holds primitive-level extension payloads.
	Extensions *PrimitiveExtensions `json:"extensions,omitempty"`
}

// PrimitiveExtensions holds primitive-level extension payloads.
type PrimitiveExtensions struct {
	// DracoMeshCompression points at a compressed geometry stream.
	DracoMeshCompression *DracoMeshCompression `json:"KHR_draco_mesh_compression,omitempty"`

	// MaterialsVariants maps variant indices to materials for this primitive.
	MaterialsVariants *PrimitiveVariants `json:"KHR_materials_variants,omitempty"`
}

// DracoMeshCompression describes a compressed primitive.
// Reference: https://github.com/KhronosGroup/glTF/tree/main/extensions/2.0/Khronos/KHR_draco_mesh_compression
type DracoMeshCompression struct {
	// BufferView holds the compressed stream.
	BufferView int `json:"bufferView"`

	// Attributes maps attribute semantics to the codec's unique attribute ids.
	Attributes map[string]int `json:"attributes"`
}

// PrimitiveVariants lists the variant material mappings of a primitive.
type PrimitiveVariants struct {
	Mappings []VariantMapping `json:"mappings"`
}

// VariantMapping assigns a material to a set of variants.
type VariantMapping struct {
	Material int    `json:"material"`
	Variants []int  `json:"variants"`
	Name     string `json:"name,omitempty"`
}

// MaterialsVariants is the document-level variant declaration.
// Reference: https://github.com/KhronosGroup/glTF/tree/main/extensions/2.0/Khronos/KHR_materials_variants
type MaterialsVariants struct {
	Variants []Variant `json:"variants"`
}

// Variant names one material variant.
type Variant struct {
	Name string `json:"name"`
}

// Primitive topology constants.
const (
	PrimitivePoints        = 0
	PrimitiveLines         = 1
	PrimitiveLineLoop      = 2
	PrimitiveLineStrip     = 3
	PrimitiveTriangles     = 4
	PrimitiveTriangleStrip = 5
	PrimitiveTriangleFan   = 6
)

// Standard attribute semantics.
const (
	AttributePosition = "POSITION"
	AttributeNormal   = "NORMAL"
	AttributeTangent  = "TANGENT"
	AttributeColor0   = "COLOR_0"
	AttributeJoints0  = "JOINTS_0"
	AttributeWeights0 = "WEIGHTS_0"
	AttributeTexCoord = "TEXCOORD_"
)

// --- Buffer Data ---

// Accessor defines how to interpret buffer data.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-accessor
type Accessor struct {
	// Name is an optional name.
	Name string `json:"name,omitempty"`

	// BufferView is the index of the bufferView. When absent the accessor is zero-filled
	// (or sparse-only).
	BufferView *int `json:"bufferView,omitempty"`

	// ByteOffset is the offset within the bufferView.
	ByteOffset int `json:"byteOffset,omitempty"`

	// ComponentType is the data type of components.
	ComponentType int `json:"componentType"`

	// Normalized indicates if integer data should be normalized.
	Normalized bool `json:"normalized,omitempty"`

	// Count is the number of elements.
	Count int `json:"count"`

	// Type is the element type (SCALAR, VEC2, VEC3, VEC4, MAT2, MAT3, MAT4).
	Type string `json:"type"`

	// Max is the maximum value of each component.
	Max []float32 `json:"max,omitempty"`

	// Min is the minimum value of each component.
	Min []float32 `json:"min,omitempty"`

	// Sparse defines sparse storage of accessor values.
	Sparse *Sparse `json:"sparse,omitempty"`
}

// Sparse defines a set of index/value overrides applied on top of an accessor's base data.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-accessor-sparse
type Sparse struct {
	Count   int           `json:"count"`
	Indices SparseIndices `json:"indices"`
	Values  SparseValues  `json:"values"`
}

// SparseIndices locates the indices of the patched elements.
type SparseIndices struct {
	BufferView    int `json:"bufferView"`
	ByteOffset    int `json:"byteOffset,omitempty"`
	ComponentType int `json:"componentType"`
}

// SparseValues locates the replacement values of the patched elements.
type SparseValues struct {
	BufferView int `json:"bufferView"`
	ByteOffset int `json:"byteOffset,omitempty"`
}

// Component type constants.
const (
	ComponentByte          = 5120
	ComponentUnsignedByte  = 5121
	ComponentShort         = 5122
	ComponentUnsignedShort = 5123
	ComponentUnsignedInt   = 5125
	ComponentFloat         = 5126
)

// Accessor type constants.
const (
	AccessorScalar = "SCALAR"
	AccessorVec2   = "VEC2"
	AccessorVec3   = "VEC3"
	AccessorVec4   = "VEC4"
	AccessorMat2   = "MAT2"
	AccessorMat3   = "MAT3"
	AccessorMat4   = "MAT4"
)

// BufferView represents a subset of a buffer.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-bufferview
type BufferView struct {
	Name       string `json:"name,omitempty"`
	Buffer     int    `json:"buffer"`
	ByteOffset int    `json:"byteOffset,omitempty"`
	ByteLength int    `json:"byteLength"`

	// ByteStride is the stride for interleaved data. Zero or absent means tightly packed.
	ByteStride *int `json:"byteStride,omitempty"`

	// Target is the intended GPU buffer type (34962 ARRAY_BUFFER, 34963 ELEMENT_ARRAY_BUFFER).
	Target *int `json:"target,omitempty"`
}

// Buffer represents binary data. An absent URI refers to the container's binary chunk.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-buffer
type Buffer struct {
	Name       string `json:"name,omitempty"`
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`
}

// --- Materials and Textures ---

// Material defines the material appearance of a primitive. Extensions are kept raw so that
// unknown vendor extensions are carried without failing the parse.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-material
type Material struct {
	Name                 string                     `json:"name,omitempty"`
	PBRMetallicRoughness *PBRMetallicRoughness      `json:"pbrMetallicRoughness,omitempty"`
	NormalTexture        *NormalTextureInfo         `json:"normalTexture,omitempty"`
	OcclusionTexture     *OcclusionTextureInfo      `json:"occlusionTexture,omitempty"`
	EmissiveTexture      *TextureInfo               `json:"emissiveTexture,omitempty"`
	EmissiveFactor       *[3]float32                `json:"emissiveFactor,omitempty"`
	AlphaMode            string                     `json:"alphaMode,omitempty"`
	AlphaCutoff          *float32                   `json:"alphaCutoff,omitempty"`
	DoubleSided          bool                       `json:"doubleSided,omitempty"`
	Extensions           map[string]json.RawMessage `json:"extensions,omitempty"`
}

// Alpha mode constants.
const (
	AlphaOpaque = "OPAQUE"
	AlphaMask   = "MASK"
	AlphaBlend  = "BLEND"
)

// PBRMetallicRoughness is the metallic-roughness material model.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-material-pbrmetallicroughness
type PBRMetallicRoughness struct {
	BaseColorFactor          *[4]float32  `json:"baseColorFactor,omitempty"`
	BaseColorTexture         *TextureInfo `json:"baseColorTexture,omitempty"`
	MetallicFactor           *float32     `json:"metallicFactor,omitempty"`
	RoughnessFactor          *float32     `json:"roughnessFactor,omitempty"`
	MetallicRoughnessTexture *TextureInfo `json:"metallicRoughnessTexture,omitempty"`
}

// TextureInfo references a texture.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-textureinfo
type TextureInfo struct {
	// Index is the texture index.
	Index int `json:"index"`

	// TexCoord is the UV set to use (default 0).
	TexCoord int `json:"texCoord,omitempty"`

	// Extensions holds texture-info extension payloads.
	Extensions *TextureInfoExtensions `json:"extensions,omitempty"`
}

// TextureInfoExtensions holds texture-info extension payloads.
type TextureInfoExtensions struct {
	TextureTransform *TextureTransform `json:"KHR_texture_transform,omitempty"`
}

// TextureTransform offsets, rotates and scales the UVs of a texture slot.
// Reference: https://github.com/KhronosGroup/glTF/tree/main/extensions/2.0/Khronos/KHR_texture_transform
type TextureTransform struct {
	Offset   *[2]float32 `json:"offset,omitempty"`
	Rotation float32     `json:"rotation,omitempty"`
	Scale    *[2]float32 `json:"scale,omitempty"`
	TexCoord *int        `json:"texCoord,omitempty"`
}

// NormalTextureInfo references a normal map.
type NormalTextureInfo struct {
	TextureInfo

	// Scale is the normal scale factor.
	Scale *float32 `json:"scale,omitempty"`
}

// OcclusionTextureInfo references an occlusion map.
type OcclusionTextureInfo struct {
	TextureInfo

	// Strength is the occlusion strength.
	Strength *float32 `json:"strength,omitempty"`
}

// Texture combines an image and a sampler.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-texture
type Texture struct {
	Name       string             `json:"name,omitempty"`
	Sampler    *int               `json:"sampler,omitempty"`
	Source     *int               `json:"source,omitempty"`
	Extensions *TextureExtensions `json:"extensions,omitempty"`
}

// TextureExtensions holds alternative image sources.
type TextureExtensions struct {
	WebP *TextureSource `json:"EXT_texture_webp,omitempty"`
}

// TextureSource points a texture at an alternative image.
type TextureSource struct {
	Source int `json:"source"`
}

// ImageSource returns the image index the texture samples, preferring an alternative
// source declared by an extension.
//
// Returns:
//   - int: the image index
//   - bool: false when the texture references no image
func (t *Texture) ImageSource() (int, bool) {
	if t.Extensions != nil && t.Extensions.WebP != nil {
		return t.Extensions.WebP.Source, true
	}
	if t.Source == nil {
		return 0, false
	}
	return *t.Source, true
}

// Image is a texture image source: either a URI (data URI or external) or a bufferView.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-image
type Image struct {
	Name       string `json:"name,omitempty"`
	URI        string `json:"uri,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	BufferView *int   `json:"bufferView,omitempty"`
}

// Sampler defines texture sampling parameters.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-sampler
type Sampler struct {
	Name      string `json:"name,omitempty"`
	MagFilter *int   `json:"magFilter,omitempty"`
	MinFilter *int   `json:"minFilter,omitempty"`
	WrapS     *int   `json:"wrapS,omitempty"`
	WrapT     *int   `json:"wrapT,omitempty"`
}

// Sampler filter constants.
const (
	FilterNearest              = 9728
	FilterLinear               = 9729
	FilterNearestMipmapNearest = 9984
	FilterLinearMipmapNearest  = 9985
	FilterNearestMipmapLinear  = 9986
	FilterLinearMipmapLinear   = 9987
)

// Sampler wrap constants.
const (
	WrapClampToEdge    = 33071
	WrapMirroredRepeat = 33648
	WrapRepeat         = 10497
)

// --- Skins and Animation ---

// Skin defines how a mesh is deformed by a set of joints.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-skin
type Skin struct {
	Name                string `json:"name,omitempty"`
	InverseBindMatrices *int   `json:"inverseBindMatrices,omitempty"`
	Skeleton            *int   `json:"skeleton,omitempty"`
	Joints              []int  `json:"joints"`
}

// Animation defines keyframe animation.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-animation
type Animation struct {
	Name     string             `json:"name,omitempty"`
	Channels []AnimationChannel `json:"channels"`
	Samplers []AnimationSampler `json:"samplers"`
}

// AnimationChannel connects a sampler to a target.
type AnimationChannel struct {
	Sampler int             `json:"sampler"`
	Target  AnimationTarget `json:"target"`
}

// AnimationTarget specifies the animated property.
type AnimationTarget struct {
	Node *int   `json:"node,omitempty"`
	Path string `json:"path"`
}

// AnimationSampler defines animation keyframe data.
type AnimationSampler struct {
	// Input is the accessor index for keyframe times.
	Input int `json:"input"`

	// Output is the accessor index for keyframe values.
	Output int `json:"output"`

	// Interpolation is LINEAR (default), STEP or CUBICSPLINE.
	Interpolation string `json:"interpolation,omitempty"`
}

// Interpolation constants.
const (
	InterpolationLinear      = "LINEAR"
	InterpolationStep        = "STEP"
	InterpolationCubicSpline = "CUBICSPLINE"
)

// Animation path constants.
const (
	PathTranslation = "translation"
	PathRotation    = "rotation"
	PathScale       = "scale"
	PathWeights     = "weights"
)

// --- Cameras and Lights ---

// Camera is a projection attached to a node.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-camera
type Camera struct {
	Name         string        `json:"name,omitempty"`
	Type         string        `json:"type"`
	Perspective  *Perspective  `json:"perspective,omitempty"`
	Orthographic *Orthographic `json:"orthographic,omitempty"`
}

// Camera type constants.
const (
	CameraPerspective  = "perspective"
	CameraOrthographic = "orthographic"
)

// Perspective holds perspective projection parameters. A nil Zfar means an infinite projection.
type Perspective struct {
	AspectRatio *float32 `json:"aspectRatio,omitempty"`
	Yfov        float32  `json:"yfov"`
	Zfar        *float32 `json:"zfar,omitempty"`
	Znear       float32  `json:"znear"`
}

// Orthographic holds orthographic projection parameters.
type Orthographic struct {
	Xmag  float32 `json:"xmag"`
	Ymag  float32 `json:"ymag"`
	Zfar  float32 `json:"zfar"`
	Znear float32 `json:"znear"`
}

// LightsPunctual is the document-level KHR_lights_punctual block.
// Reference: https://github.com/KhronosGroup/glTF/tree/main/extensions/2.0/Khronos/KHR_lights_punctual
type LightsPunctual struct {
	Lights []Light `json:"lights"`
}

// Light is a punctual light source.
type Light struct {
	Name      string      `json:"name,omitempty"`
	Type      string      `json:"type"`
	Color     *[3]float32 `json:"color,omitempty"`
	Intensity *float32    `json:"intensity,omitempty"`
	Range     *float32    `json:"range,omitempty"`
	Spot      *Spot       `json:"spot,omitempty"`
}

// Spot holds the cone angles of a spot light.
type Spot struct {
	InnerConeAngle *float32 `json:"innerConeAngle,omitempty"`
	OuterConeAngle *float32 `json:"outerConeAngle,omitempty"`
}

// Light type constants.
const (
	LightDirectional = "directional"
	LightPoint       = "point"
	LightSpot        = "spot"
)

// --- Extension Names ---

const (
	ExtDracoMeshCompression      = "KHR_draco_mesh_compression"
	ExtLightsPunctual            = "KHR_lights_punctual"
	ExtMaterialsVariants         = "KHR_materials_variants"
	ExtTextureTransform          = "KHR_texture_transform"
	ExtTextureWebP               = "EXT_texture_webp"
	ExtMaterialsClearcoat        = "KHR_materials_clearcoat"
	ExtMaterialsSpecular         = "KHR_materials_specular"
	ExtMaterialsSheen            = "KHR_materials_sheen"
	ExtMaterialsTransmission     = "KHR_materials_transmission"
	ExtMaterialsVolume           = "KHR_materials_volume"
	ExtMaterialsUnlit            = "KHR_materials_unlit"
	ExtMaterialsIOR              = "KHR_materials_ior"
	ExtMaterialsEmissiveStrength = "KHR_materials_emissive_strength"
	ExtMaterialsPBRSpecGloss     = "KHR_materials_pbrSpecularGlossiness"
)

// --- Helper Functions ---

// ComponentSize returns the byte size of a component type, or 0 for an unknown type.
func ComponentSize(componentType int) int {
	switch componentType {
	case ComponentByte, ComponentUnsignedByte:
		return 1
	case ComponentShort, ComponentUnsignedShort:
		return 2
	case ComponentUnsignedInt, ComponentFloat:
		return 4
	default:
		return 0
	}
}

// ComponentCount returns the number of components of an accessor type, or 0 for an unknown type.
func ComponentCount(accessorType string) int {
	switch accessorType {
	case AccessorScalar:
		return 1
	case AccessorVec2:
		return 2
	case AccessorVec3:
		return 3
	case AccessorVec4, AccessorMat2:
		return 4
	case AccessorMat3:
		return 9
	case AccessorMat4:
		return 16
	default:
		return 0
	}
}

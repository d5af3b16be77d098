package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ProjectionType identifies how a camera projects the scene.
type ProjectionType int

const (
	// ProjectionPerspective is a pinhole projection defined by a vertical field of view.
	ProjectionPerspective ProjectionType = iota

	// ProjectionOrthographic is a parallel projection defined by half extents.
	ProjectionOrthographic
)

type cameraImpl struct {
	name       string
	projection ProjectionType

	fov    float32
	aspect float32
	near   float32
	far    float32

	xmag float32
	ymag float32
}

// Camera describes a camera imported from an asset. Its view transform comes from the node
// that references it; the camera itself only carries projection settings.
type Camera interface {
	// Name returns the camera name from the asset.
	//
	// Returns:
	//   - string: the camera name
	Name() string

	// Type returns the projection type.
	//
	// Returns:
	//   - ProjectionType: perspective or orthographic
	Type() ProjectionType

	// Fov returns the vertical field of view in radians. Zero for orthographic cameras.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the declared aspect ratio (width / height), or zero when the
	// viewport should decide.
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance. Zero means an infinite far plane.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// Magnification returns the orthographic half extents. Zero for perspective cameras.
	//
	// Returns:
	//   - float32: horizontal half extent
	//   - float32: vertical half extent
	Magnification() (float32, float32)

	// Projection computes the column-major projection matrix. The declared aspect ratio
	// wins over viewportAspect when the asset provides one.
	//
	// Parameters:
	//   - viewportAspect: the aspect ratio of the target viewport
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	Projection(viewportAspect float32) mgl32.Mat4
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with the given projection type and options applied.
//
// Parameters:
//   - projection: perspective or orthographic
//   - options: variadic list of CameraBuilderOption functions
//
// Returns:
//   - Camera: the new camera
func NewCamera(projection ProjectionType, options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		projection: projection,
		near:       0.01,
	}
	if projection == ProjectionPerspective {
		c.fov = math.Pi / 4
	} else {
		c.xmag, c.ymag = 1, 1
		c.far = 100
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *cameraImpl) Name() string {
	return c.name
}

func (c *cameraImpl) Type() ProjectionType {
	return c.projection
}

func (c *cameraImpl) Fov() float32 {
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	return c.near
}

func (c *cameraImpl) Far() float32 {
	return c.far
}

func (c *cameraImpl) Magnification() (float32, float32) {
	return c.xmag, c.ymag
}

func (c *cameraImpl) Projection(viewportAspect float32) mgl32.Mat4 {
	if c.projection == ProjectionOrthographic {
		return mgl32.Ortho(-c.xmag, c.xmag, -c.ymag, c.ymag, c.near, c.far)
	}

	aspect := c.aspect
	if aspect <= 0 {
		aspect = viewportAspect
	}
	if aspect <= 0 {
		aspect = 1
	}

	if c.far <= 0 {
		return infinitePerspective(c.fov, aspect, c.near)
	}
	return mgl32.Perspective(c.fov, aspect, c.near, c.far)
}

// infinitePerspective builds a perspective matrix whose far plane lies at infinity.
func infinitePerspective(fovY, aspect, near float32) mgl32.Mat4 {
	f := float32(1 / math.Tan(float64(fovY)/2))
	var m mgl32.Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = -1
	m[11] = -1
	m[14] = -2 * near
	return m
}

package light

import "math"

// LightType identifies the kind of punctual light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// It shines along the local -Z axis of the node it is attached to.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from the node origin.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone along the node's local -Z axis.
	// Attenuates with angle between the inner and outer cone angles.
	LightTypeSpot
)

// String returns the name used for the type in asset files.
func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	default:
		return "unknown"
	}
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	name       string
	lightType  LightType
	color      [3]float32
	intensity  float32
	lightRange float32
	innerCone  float32 // half-angle in radians
	outerCone  float32 // half-angle in radians
}

// Light describes a punctual light source imported from an asset.
//
// Lights carry no transform of their own. Position and direction come from the node
// that references the light.
type Light interface {
	// Name returns the light name from the asset.
	//
	// Returns:
	//   - string: the light name
	Name() string

	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional, point, or spot)
	Type() LightType

	// Color returns the RGB color of the light in display space.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Color() [3]float32

	// Intensity returns the scalar intensity. Candela for point and spot lights, lux for
	// directional lights.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Range returns the attenuation cutoff distance. Zero means the light has no cutoff.
	//
	// Returns:
	//   - float32: the range value
	Range() float32

	// InnerCone returns the inner cone half-angle in radians. Zero for non-spot lights.
	//
	// Returns:
	//   - float32: the inner half-angle
	InnerCone() float32

	// OuterCone returns the outer cone half-angle in radians. Zero for non-spot lights.
	//
	// Returns:
	//   - float32: the outer half-angle
	OuterCone() float32

	// ConeCosines returns the cosines of the inner and outer half-angles, the form most
	// shaders consume.
	//
	// Returns:
	//   - float32: cos(inner half-angle)
	//   - float32: cos(outer half-angle)
	ConeCosines() (float32, float32)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with asset-format defaults and
// any provided options applied.
//
// Parameters:
//   - lightType: the kind of light to create (directional, point, or spot)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType: lightType,
		color:     [3]float32{1, 1, 1},
		intensity: 1.0,
	}
	if lightType == LightTypeSpot {
		l.outerCone = math.Pi / 4
	}
	for _, opt := range opts {
		opt(l)
	}
	if lightType != LightTypeSpot {
		l.innerCone, l.outerCone = 0, 0
	}
	return l
}

func (l *lightImpl) Name() string {
	return l.name
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Color() [3]float32 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Range() float32 {
	return l.lightRange
}

func (l *lightImpl) InnerCone() float32 {
	return l.innerCone
}

func (l *lightImpl) OuterCone() float32 {
	return l.outerCone
}

func (l *lightImpl) ConeCosines() (float32, float32) {
	return float32(math.Cos(float64(l.innerCone))), float32(math.Cos(float64(l.outerCone)))
}

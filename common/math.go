package common

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// displayGamma is the exponent used when converting linear colour factors for display.
const displayGamma = 2.2

// LittleEndianHost reports whether the host byte order matches the little-endian layout of
// asset and GPU buffers.
var LittleEndianHost = binary.NativeEndian.Uint16([]byte{1, 0}) == 1

// SliceToBytes converts any slice to a byte slice for buffer payloads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// LinearToSRGB converts a single linear colour channel to display space.
// Values are clamped to [0, 1] first.
//
// Parameters:
//   - v: the linear channel value
//
// Returns:
//   - float32: the display-encoded value
func LinearToSRGB(v float32) float32 {
	v = mgl32.Clamp(v, 0, 1)
	return float32(math.Pow(float64(v), 1/displayGamma))
}

// LinearToSRGB3 converts an RGB triple to display space.
func LinearToSRGB3(c [3]float32) [3]float32 {
	return [3]float32{LinearToSRGB(c[0]), LinearToSRGB(c[1]), LinearToSRGB(c[2])}
}

// LinearToSRGB4 converts the RGB part of an RGBA colour to display space. Alpha is passed through.
func LinearToSRGB4(c [4]float32) [4]float32 {
	return [4]float32{LinearToSRGB(c[0]), LinearToSRGB(c[1]), LinearToSRGB(c[2]), c[3]}
}

// DecomposeMatrix splits a column-major affine transform into translation, rotation and scale.
// A negative determinant is folded into the X scale so the rotation stays proper.
//
// Parameters:
//   - m: the column-major transform
//
// Returns:
//   - mgl32.Vec3: translation
//   - mgl32.Quat: rotation
//   - mgl32.Vec3: scale
func DecomposeMatrix(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	translation := m.Col(3).Vec3()

	x := m.Col(0).Vec3()
	y := m.Col(1).Vec3()
	z := m.Col(2).Vec3()
	scale := mgl32.Vec3{x.Len(), y.Len(), z.Len()}
	if m.Mat3().Det() < 0 {
		scale[0] = -scale[0]
	}

	if scale[0] == 0 || scale[1] == 0 || scale[2] == 0 {
		return translation, mgl32.QuatIdent(), scale
	}

	rot := mgl32.Mat3FromCols(x.Mul(1/scale[0]), y.Mul(1/scale[1]), z.Mul(1/scale[2]))
	return translation, mgl32.Mat4ToQuat(rot.Mat4()).Normalize(), scale
}

package loader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-glb/engine/gltf"
	"github.com/Carmen-Shannon/oxy-glb/engine/model"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrAccessorBounds is returned when an accessor or buffer view reaches past its backing data.
var ErrAccessorBounds = errors.New("accessor exceeds its buffer view")

// maxSyntheticBytes caps accessors that have no buffer view backing them, since their size
// comes from the declared count alone.
const maxSyntheticBytes = 1 << 28

// accessorData is the raw element data of one accessor.
//
// data starts at element 0. Element i occupies data[i*stride : i*stride+elemSize]. When the
// accessor is a direct view, data aliases the asset's buffer and must not be written.
type accessorData struct {
	data          []byte
	stride        int
	elemSize      int
	count         int
	components    int
	componentType int
	normalized    bool
}

// tight reports whether elements are packed without gaps.
func (d accessorData) tight() bool {
	return d.stride == d.elemSize
}

// element returns the bytes of element i.
func (d accessorData) element(i int) []byte {
	off := i * d.stride
	return d.data[off : off+d.elemSize]
}

// raw returns component c of element i as a float without dequantization.
func (d accessorData) raw(i, c int) float32 {
	return readScalar(d.data, i*d.stride+c*gltf.ComponentSize(d.componentType), d.componentType)
}

// float returns component c of element i, dequantized when the accessor is normalized.
func (d accessorData) float(i, c int) float32 {
	v := d.raw(i, c)
	if d.normalized {
		return dequantize(d.componentType, v)
	}
	return v
}

// floats returns every component of every element as floats, dequantized when normalized.
func (d accessorData) floats() []float32 {
	out := make([]float32, d.count*d.components)
	for i := range d.count {
		for c := range d.components {
			out[i*d.components+c] = d.float(i, c)
		}
	}
	return out
}

// uints returns every component as an unsigned integer. Used for indices and joints.
func (d accessorData) uints() []uint32 {
	out := make([]uint32, d.count*d.components)
	size := gltf.ComponentSize(d.componentType)
	for i := range d.count {
		for c := range d.components {
			off := i*d.stride + c*size
			switch d.componentType {
			case gltf.ComponentUnsignedByte, gltf.ComponentByte:
				out[i*d.components+c] = uint32(d.data[off])
			case gltf.ComponentUnsignedShort, gltf.ComponentShort:
				out[i*d.components+c] = uint32(binary.LittleEndian.Uint16(d.data[off:]))
			case gltf.ComponentFloat:
				out[i*d.components+c] = uint32(math.Float32frombits(binary.LittleEndian.Uint32(d.data[off:])))
			default:
				out[i*d.components+c] = binary.LittleEndian.Uint32(d.data[off:])
			}
		}
	}
	return out
}

// dequantize maps a normalized integer component onto its float range. Signed types clamp at
// -1 so the most negative value does not fall below it. Other types pass through.
//
// Parameters:
//   - componentType: the component type code
//   - v: the raw integer value
//
// Returns:
//   - float32: the normalized value
func dequantize(componentType int, v float32) float32 {
	switch componentType {
	case gltf.ComponentByte:
		return max(v/127, -1)
	case gltf.ComponentUnsignedByte:
		return v / 255
	case gltf.ComponentShort:
		return max(v/32767, -1)
	case gltf.ComponentUnsignedShort:
		return v / 65535
	default:
		return v
	}
}

func readScalar(data []byte, off, componentType int) float32 {
	switch componentType {
	case gltf.ComponentByte:
		return float32(int8(data[off]))
	case gltf.ComponentUnsignedByte:
		return float32(data[off])
	case gltf.ComponentShort:
		return float32(int16(binary.LittleEndian.Uint16(data[off:])))
	case gltf.ComponentUnsignedShort:
		return float32(binary.LittleEndian.Uint16(data[off:]))
	case gltf.ComponentUnsignedInt:
		return float32(binary.LittleEndian.Uint32(data[off:]))
	default:
		return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
	}
}

// accessor returns the document accessor at index i.
func (a *gltfAsset) accessor(i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(a.doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", i)
	}
	return &a.doc.Accessors[i], nil
}

// readAccessor extracts the data of accessor i.
//
// Sparse accessors are materialized into a fresh buffer with the patches applied. Accessors
// without a buffer view are zero-filled. When flatten is set, strided views are copied into
// a tightly packed buffer; otherwise the result views the backing buffer directly.
//
// Parameters:
//   - i: the accessor index
//   - flatten: whether strided data must be packed
//
// Returns:
//   - accessorData: the element data
//   - error: error if the accessor is malformed or out of bounds
func (a *gltfAsset) readAccessor(i int, flatten bool) (accessorData, error) {
	acc, err := a.accessor(i)
	if err != nil {
		return accessorData{}, err
	}

	components := gltf.ComponentCount(acc.Type)
	size := gltf.ComponentSize(acc.ComponentType)
	if components == 0 || size == 0 {
		return accessorData{}, fmt.Errorf("accessor %d: unsupported type %s/%d", i, acc.Type, acc.ComponentType)
	}
	if acc.Count < 0 {
		return accessorData{}, fmt.Errorf("accessor %d: negative count", i)
	}

	d := accessorData{
		elemSize:      components * size,
		count:         acc.Count,
		components:    components,
		componentType: acc.ComponentType,
		normalized:    acc.Normalized,
	}
	d.stride = d.elemSize

	if acc.BufferView == nil {
		if d.count > maxSyntheticBytes/d.elemSize {
			return accessorData{}, fmt.Errorf("accessor %d: %w: %d elements of %d bytes without a buffer view",
				i, ErrAccessorBounds, d.count, d.elemSize)
		}
		d.data = make([]byte, d.count*d.elemSize)
	} else {
		view, err := a.view(*acc.BufferView)
		if err != nil {
			return accessorData{}, fmt.Errorf("accessor %d: %w", i, err)
		}
		if view.stride > 0 {
			d.stride = view.stride
		}
		if acc.ByteOffset < 0 || acc.ByteOffset > len(view.data) {
			return accessorData{}, fmt.Errorf("accessor %d: %w", i, ErrAccessorBounds)
		}
		if d.count > 0 && !fitsStrided(len(view.data)-acc.ByteOffset, d.count, d.stride, d.elemSize) {
			return accessorData{}, fmt.Errorf("accessor %d: %w: %d elements of %d bytes at stride %d from offset %d, view is %d bytes",
				i, ErrAccessorBounds, d.count, d.elemSize, d.stride, acc.ByteOffset, len(view.data))
		}
		d.data = view.data[acc.ByteOffset:]

		if acc.Sparse != nil || (flatten && !d.tight()) {
			d = d.pack()
		}
	}

	if acc.Sparse != nil {
		if err := a.applySparse(&d, acc.Sparse); err != nil {
			return accessorData{}, fmt.Errorf("accessor %d: sparse: %w", i, err)
		}
	}
	return d, nil
}

// fitsStrided reports whether count elements of elemSize bytes at the given stride fit in
// avail bytes. It divides rather than multiplies so a huge count cannot wrap.
func fitsStrided(avail, count, stride, elemSize int) bool {
	if avail < elemSize {
		return false
	}
	return count-1 <= (avail-elemSize)/stride
}

// pack copies d into a new tightly packed buffer.
func (d accessorData) pack() accessorData {
	out := make([]byte, d.count*d.elemSize)
	if d.tight() {
		copy(out, d.data[:len(out)])
	} else {
		for i := range d.count {
			copy(out[i*d.elemSize:], d.element(i))
		}
	}
	d.data = out
	d.stride = d.elemSize
	return d
}

// applySparse overwrites the patched elements of a tightly packed accessor in place.
func (a *gltfAsset) applySparse(d *accessorData, sp *gltf.Sparse) error {
	if sp.Count <= 0 {
		return nil
	}

	indexSize := gltf.ComponentSize(sp.Indices.ComponentType)
	if indexSize == 0 || sp.Indices.ComponentType == gltf.ComponentFloat {
		return fmt.Errorf("unsupported index component type %d", sp.Indices.ComponentType)
	}
	indexView, err := a.view(sp.Indices.BufferView)
	if err != nil {
		return err
	}
	valueView, err := a.view(sp.Values.BufferView)
	if err != nil {
		return err
	}

	indices := indexView.data[min(sp.Indices.ByteOffset, len(indexView.data)):]
	values := valueView.data[min(sp.Values.ByteOffset, len(valueView.data)):]
	if sp.Count > d.count || sp.Count > len(indices)/indexSize || sp.Count > len(values)/d.elemSize {
		return fmt.Errorf("%w: %d patches for %d elements", ErrAccessorBounds, sp.Count, d.count)
	}

	for k := range sp.Count {
		var target int
		switch indexSize {
		case 1:
			target = int(indices[k])
		case 2:
			target = int(binary.LittleEndian.Uint16(indices[k*2:]))
		default:
			target = int(binary.LittleEndian.Uint32(indices[k*4:]))
		}
		if target >= d.count {
			return fmt.Errorf("%w: patch index %d of %d elements", ErrAccessorBounds, target, d.count)
		}
		copy(d.data[target*d.elemSize:(target+1)*d.elemSize], values[k*d.elemSize:])
	}
	return nil
}

// readFloats is readAccessor followed by floats, with the component count checked.
func (a *gltfAsset) readFloats(i, components int) ([]float32, error) {
	d, err := a.readAccessor(i, false)
	if err != nil {
		return nil, err
	}
	if components > 0 && d.components != components {
		return nil, fmt.Errorf("accessor %d: expected %d components, got %d", i, components, d.components)
	}
	return d.floats(), nil
}

// accessorBounds returns the bounding box declared by a vec3 accessor's min and max,
// dequantized with the accessor's normalization.
//
// Parameters:
//   - acc: the accessor
//
// Returns:
//   - model.BoundingBox: the box in center/extent form
//   - bool: false when the accessor declares no usable bounds
func accessorBounds(acc *gltf.Accessor) (model.BoundingBox, bool) {
	if len(acc.Min) < 3 || len(acc.Max) < 3 {
		return model.BoundingBox{}, false
	}
	var lo, hi mgl32.Vec3
	for c := range 3 {
		lo[c], hi[c] = acc.Min[c], acc.Max[c]
		if acc.Normalized {
			lo[c] = dequantize(acc.ComponentType, lo[c])
			hi[c] = dequantize(acc.ComponentType, hi[c])
		}
	}
	return model.BoundsFromMinMax(lo, hi), true
}

package loader

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-glb/engine/gltf"
)

// ErrCodecUnavailable is returned when a primitive is compressed and no codec was configured.
var ErrCodecUnavailable = errors.New("geometry compression codec unavailable")

// GeometryType classifies a decoded compressed stream.
type GeometryType int

const (
	GeometryInvalid GeometryType = iota
	GeometryPointCloud
	GeometryTriangularMesh
)

// AttributeStorage is the element type an attribute is extracted as.
type AttributeStorage int

const (
	StorageFloat32 AttributeStorage = iota
	StorageUint8
	StorageUint16
)

// Size returns the byte size of one component.
func (s AttributeStorage) Size() int {
	switch s {
	case StorageUint8:
		return 1
	case StorageUint16:
		return 2
	default:
		return 4
	}
}

// NativeBuffer is a region of codec-owned memory. It is valid until freed.
type NativeBuffer interface {
	// Bytes returns a view of the region. The view must not be retained after Free.
	Bytes() []byte
}

// CodecModule is an initialized geometry compression codec.
type CodecModule interface {
	// Decode parses a compressed stream.
	//
	// Parameters:
	//   - data: the compressed bytes
	//
	// Returns:
	//   - DecodedGeometry: the decoded handle, released by the caller
	//   - error: error if the stream cannot be decoded
	Decode(data []byte) (DecodedGeometry, error)

	// Malloc allocates size bytes of codec memory.
	Malloc(size int) (NativeBuffer, error)

	// Free releases memory returned by Malloc.
	Free(buf NativeBuffer)
}

// DecodedGeometry is a decoded mesh or point cloud held in codec memory.
type DecodedGeometry interface {
	Type() GeometryType
	NumPoints() int
	NumFaces() int

	// ExtractIndices writes NumFaces()*3 indices into dst, as uint32 when wide is set and
	// as uint16 otherwise.
	ExtractIndices(dst NativeBuffer, wide bool) error

	// ExtractAttribute writes NumPoints() elements of the attribute with the given unique id
	// into dst using the requested storage and component count.
	ExtractAttribute(uniqueID int, storage AttributeStorage, components int, dst NativeBuffer) error

	// Release frees the decoded handle.
	Release()
}

// CodecFactory creates and initializes a codec module.
type CodecFactory func(ctx context.Context) (CodecModule, error)

// CodecContext lazily initializes one codec module and shares it between loads. Construct one
// per process and pass it to every loader that needs it.
type CodecContext struct {
	factory CodecFactory

	once   sync.Once
	module CodecModule
	err    error
}

// NewCodecContext creates a CodecContext that initializes its module on first use.
//
// Parameters:
//   - factory: the codec constructor, called at most once
//
// Returns:
//   - *CodecContext: the context
func NewCodecContext(factory CodecFactory) *CodecContext {
	return &CodecContext{factory: factory}
}

// Acquire returns the codec module, initializing it on the first call. An initialization
// error is sticky.
//
// Parameters:
//   - ctx: the context passed to the factory on the first call
//
// Returns:
//   - CodecModule: the module
//   - error: ErrCodecUnavailable-wrapped error if there is no factory or it failed
func (c *CodecContext) Acquire(ctx context.Context) (CodecModule, error) {
	if c == nil || c.factory == nil {
		return nil, ErrCodecUnavailable
	}
	c.once.Do(func() {
		c.module, c.err = c.factory(ctx)
		if c.err == nil && c.module == nil {
			c.err = errors.New("factory returned no module")
		}
	})
	if c.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodecUnavailable, c.err)
	}
	return c.module, nil
}

// nativeScope tracks codec allocations and decoded handles so that Close releases all of
// them on every exit path.
type nativeScope struct {
	module     CodecModule
	buffers    []NativeBuffer
	geometries []DecodedGeometry
}

func newNativeScope(module CodecModule) *nativeScope {
	return &nativeScope{module: module}
}

func (s *nativeScope) alloc(size int) (NativeBuffer, error) {
	buf, err := s.module.Malloc(size)
	if err != nil {
		return nil, err
	}
	s.buffers = append(s.buffers, buf)
	return buf, nil
}

func (s *nativeScope) decode(data []byte) (DecodedGeometry, error) {
	g, err := s.module.Decode(data)
	if err != nil {
		return nil, err
	}
	s.geometries = append(s.geometries, g)
	return g, nil
}

// Close frees allocations in reverse order, then releases decoded handles.
func (s *nativeScope) Close() {
	for i := len(s.buffers) - 1; i >= 0; i-- {
		s.module.Free(s.buffers[i])
	}
	for i := len(s.geometries) - 1; i >= 0; i-- {
		s.geometries[i].Release()
	}
	s.buffers, s.geometries = nil, nil
}

// decodedPrimitive is the result of decoding one compressed primitive. All data has been
// copied out of codec memory.
type decodedPrimitive struct {
	sources   []vertexSource
	indices   []uint32
	numPoints int
	mesh      bool
}

// storageFor picks the extraction storage for an attribute given its declared accessor.
// Integer accessors that fit in 8 or 16 bits keep their width; everything else is float.
func storageFor(acc *gltf.Accessor) (AttributeStorage, int) {
	switch acc.ComponentType {
	case gltf.ComponentUnsignedByte:
		return StorageUint8, gltf.ComponentUnsignedByte
	case gltf.ComponentUnsignedShort:
		return StorageUint16, gltf.ComponentUnsignedShort
	default:
		return StorageFloat32, gltf.ComponentFloat
	}
}

// decodeCompressed decodes a compressed primitive and copies its indices and attributes out
// of codec memory. Native memory is released before returning, including on error.
//
// Parameters:
//   - module: the codec
//   - ext: the primitive's compression block
//   - prim: the primitive, for the declared attribute accessors
//
// Returns:
//   - *decodedPrimitive: the decoded streams
//   - error: error if decoding fails or the geometry type is invalid
func (a *gltfAsset) decodeCompressed(module CodecModule, ext *gltf.DracoMeshCompression, prim *gltf.Primitive) (*decodedPrimitive, error) {
	view, err := a.view(ext.BufferView)
	if err != nil {
		return nil, err
	}

	scope := newNativeScope(module)
	defer scope.Close()

	geom, err := scope.decode(view.data)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	out := &decodedPrimitive{numPoints: geom.NumPoints()}
	switch geom.Type() {
	case GeometryTriangularMesh:
		out.mesh = true
		wide := out.numPoints > 65535
		n := geom.NumFaces() * 3
		size := 2
		if wide {
			size = 4
		}
		buf, err := scope.alloc(n * size)
		if err != nil {
			return nil, fmt.Errorf("allocate indices: %w", err)
		}
		if err := geom.ExtractIndices(buf, wide); err != nil {
			return nil, fmt.Errorf("extract indices: %w", err)
		}
		raw := buf.Bytes()
		out.indices = make([]uint32, n)
		for i := range out.indices {
			if wide {
				out.indices[i] = binary.LittleEndian.Uint32(raw[i*4:])
			} else {
				out.indices[i] = uint32(binary.LittleEndian.Uint16(raw[i*2:]))
			}
		}
	case GeometryPointCloud:
	default:
		return nil, fmt.Errorf("invalid geometry type %d", geom.Type())
	}

	for name, id := range ext.Attributes {
		sem, ok := semanticFor(name)
		if !ok {
			continue
		}
		accIdx, ok := prim.Attributes[name]
		if !ok {
			continue
		}
		acc, err := a.accessor(accIdx)
		if err != nil {
			return nil, err
		}
		components := gltf.ComponentCount(acc.Type)
		storage, componentType := storageFor(acc)

		size := out.numPoints * components * storage.Size()
		buf, err := scope.alloc(size)
		if err != nil {
			return nil, fmt.Errorf("allocate %s: %w", name, err)
		}
		if err := geom.ExtractAttribute(id, storage, components, buf); err != nil {
			return nil, fmt.Errorf("extract %s: %w", name, err)
		}

		data := make([]byte, size)
		copy(data, buf.Bytes())
		elemSize := components * storage.Size()
		out.sources = append(out.sources, vertexSource{
			semantic:      sem,
			buffer:        data,
			elemSize:      elemSize,
			stride:        elemSize,
			count:         out.numPoints,
			componentType: componentType,
			components:    components,
			normalized:    acc.Normalized && storage != StorageFloat32,
		})
	}
	return out, nil
}

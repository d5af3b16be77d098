package loader

import (
	"context"
	"fmt"

	"github.com/Carmen-Shannon/oxy-glb/engine/gltf"
)

// resolvedView is a buffer view sliced out of its buffer.
type resolvedView struct {
	data []byte

	// stride is the declared byte stride, or 0 when the view is tightly packed.
	stride int
}

// resolveBuffers resolves every document buffer into bytes, in document order.
func (a *gltfAsset) resolveBuffers(ctx context.Context) error {
	buffers, err := runIndexed(ctx, a.pool, len(a.doc.Buffers), func(i int) ([]byte, error) {
		src := Source[gltf.Buffer]{Index: i, Value: &a.doc.Buffers[i], Document: a.doc}
		data, err := a.hooks.Buffer.run(ctx, src, a.loadBuffer)
		if err != nil {
			return nil, fmt.Errorf("buffer %d: %w", i, err)
		}
		return data, nil
	})
	if err != nil {
		return err
	}
	a.buffers = buffers
	return nil
}

// loadBuffer is the default buffer stage. A buffer without a URI is the container's binary
// chunk, a data URI is decoded inline, anything else is fetched.
func (a *gltfAsset) loadBuffer(ctx context.Context, src Source[gltf.Buffer]) ([]byte, error) {
	buf := src.Value

	var data []byte
	switch {
	case buf.URI == "":
		if a.bin == nil {
			return nil, fmt.Errorf("no uri and the asset has no binary chunk")
		}
		data = a.bin
	case gltf.IsDataURI(buf.URI):
		decoded, _, err := gltf.DecodeDataURI(buf.URI)
		if err != nil {
			return nil, err
		}
		data = decoded
	default:
		if a.sync {
			return nil, fmt.Errorf("%w: %s (synchronous load)", ErrExternalResource, buf.URI)
		}
		fetched, err := a.fetcher.Fetch(ctx, a.base, buf.URI)
		if err != nil {
			return nil, err
		}
		data = fetched
	}

	if len(data) < buf.ByteLength {
		return nil, fmt.Errorf("declared %d bytes, got %d", buf.ByteLength, len(data))
	}
	return data[:buf.ByteLength:buf.ByteLength], nil
}

// resolveViews slices every buffer view out of the resolved buffers, in document order.
func (a *gltfAsset) resolveViews(ctx context.Context) error {
	data, err := runIndexed(ctx, a.pool, len(a.doc.BufferViews), func(i int) ([]byte, error) {
		src := Source[gltf.BufferView]{Index: i, Value: &a.doc.BufferViews[i], Document: a.doc}
		view, err := a.hooks.BufferView.run(ctx, src, a.loadView)
		if err != nil {
			return nil, fmt.Errorf("buffer view %d: %w", i, err)
		}
		return view, nil
	})
	if err != nil {
		return err
	}

	a.views = make([]resolvedView, len(data))
	for i, d := range data {
		v := resolvedView{data: d}
		if s := a.doc.BufferViews[i].ByteStride; s != nil {
			v.stride = *s
		}
		a.views[i] = v
	}
	return nil
}

// loadView is the default buffer view stage.
func (a *gltfAsset) loadView(_ context.Context, src Source[gltf.BufferView]) ([]byte, error) {
	bv := src.Value
	if bv.Buffer < 0 || bv.Buffer >= len(a.buffers) {
		return nil, fmt.Errorf("buffer index %d out of range", bv.Buffer)
	}
	buf := a.buffers[bv.Buffer]
	end := bv.ByteOffset + bv.ByteLength
	if bv.ByteOffset < 0 || end > len(buf) {
		return nil, fmt.Errorf("%w: bytes [%d, %d) of a %d byte buffer", ErrAccessorBounds, bv.ByteOffset, end, len(buf))
	}
	return buf[bv.ByteOffset:end:end], nil
}

// view returns a resolved buffer view.
func (a *gltfAsset) view(i int) (resolvedView, error) {
	if i < 0 || i >= len(a.views) {
		return resolvedView{}, fmt.Errorf("buffer view index %d out of range", i)
	}
	return a.views[i], nil
}

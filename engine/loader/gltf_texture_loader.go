package loader

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"slices"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/gltf"

	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// gltfTextureLoaderImpl is the implementation of the gltfTextureLoader interface.
type gltfTextureLoaderImpl struct {
	asset *gltfAsset
}

// gltfTextureLoader resolves images and pairs them with samplers.
type gltfTextureLoader interface {
	// LoadImages resolves every image referenced by a texture, each exactly once, on the
	// asset's worker pool. Unreferenced images are left nil.
	//
	// Parameters:
	//   - ctx: the import context
	//
	// Returns:
	//   - []*common.Image: one entry per document image
	//   - error: the first image that failed to resolve
	LoadImages(ctx context.Context) ([]*common.Image, error)

	// BuildTextures creates one texture per document texture. Textures that read the same
	// image share it; when their samplers differ the later texture gets a clone that shares
	// the decoded pixels.
	//
	// Parameters:
	//   - ctx: the import context
	//   - images: the result of LoadImages
	//
	// Returns:
	//   - []*common.Texture: one entry per document texture
	//   - error: error if a texture stage hook fails
	BuildTextures(ctx context.Context, images []*common.Image) ([]*common.Texture, error)
}

var _ gltfTextureLoader = &gltfTextureLoaderImpl{}

func newGLTFTextureLoader(asset *gltfAsset) gltfTextureLoader {
	return &gltfTextureLoaderImpl{asset: asset}
}

func (l *gltfTextureLoaderImpl) LoadImages(ctx context.Context) ([]*common.Image, error) {
	doc := l.asset.doc

	var referenced []int
	for i := range doc.Textures {
		if idx, ok := doc.Textures[i].ImageSource(); ok && idx >= 0 && idx < len(doc.Images) && !slices.Contains(referenced, idx) {
			referenced = append(referenced, idx)
		}
	}

	loaded, err := runIndexed(ctx, l.asset.pool, len(referenced), func(i int) (*common.Image, error) {
		idx := referenced[i]
		src := Source[gltf.Image]{Index: idx, Value: &doc.Images[idx], Document: doc}
		img, err := l.asset.hooks.Image.run(ctx, src, l.loadImage)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", idx, err)
		}
		return img, nil
	})
	if err != nil {
		return nil, err
	}

	images := make([]*common.Image, len(doc.Images))
	for i, idx := range referenced {
		images[idx] = loaded[i]
	}
	return images, nil
}

// loadImage is the default image stage. External images in a synchronous load are returned
// without pixels.
func (l *gltfTextureLoaderImpl) loadImage(ctx context.Context, src Source[gltf.Image]) (*common.Image, error) {
	di := src.Value
	img := &common.Image{Name: common.IndexedName(di.Name, "image", src.Index), MimeType: di.MimeType}

	var data []byte
	switch {
	case di.BufferView != nil:
		view, err := l.asset.view(*di.BufferView)
		if err != nil {
			return nil, err
		}
		data = view.data
	case gltf.IsDataURI(di.URI):
		decoded, mime, err := gltf.DecodeDataURI(di.URI)
		if err != nil {
			return nil, err
		}
		data = decoded
		if img.MimeType == "" {
			img.MimeType = mime
		}
	case di.URI != "":
		img.URI = di.URI
		if l.asset.sync {
			l.asset.log.Warn("omitting external image in synchronous load", zap.String("uri", di.URI))
			return img, nil
		}
		fetched, err := l.asset.fetcher.Fetch(ctx, l.asset.base, di.URI)
		if err != nil {
			return nil, err
		}
		data = fetched
	default:
		return nil, fmt.Errorf("no uri or buffer view")
	}

	if img.MimeType == "" {
		img.MimeType = http.DetectContentType(data)
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", img.MimeType, err)
	}
	rgba := toRGBA(decoded)

	img.Source = decoded
	img.Width, img.Height = rgba.Bounds().Dx(), rgba.Bounds().Dy()
	if l.asset.generateMips {
		img.Levels = mipChain(rgba)
	} else {
		img.Levels = [][]byte{rgba.Pix}
	}
	return img, nil
}

// toRGBA converts img to a zero-origin RGBA image.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*rgba.Rect.Dx() {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// mipChain returns level 0 followed by bilinear downsamples down to 1x1.
func mipChain(base *image.RGBA) [][]byte {
	levels := [][]byte{base.Pix}
	cur := base
	for cur.Rect.Dx() > 1 || cur.Rect.Dy() > 1 {
		next := image.NewRGBA(image.Rect(0, 0, max(1, cur.Rect.Dx()/2), max(1, cur.Rect.Dy()/2)))
		draw.BiLinear.Scale(next, next.Bounds(), cur, cur.Bounds(), draw.Src, nil)
		levels = append(levels, next.Pix)
		cur = next
	}
	return levels
}

func (l *gltfTextureLoaderImpl) BuildTextures(ctx context.Context, images []*common.Image) ([]*common.Texture, error) {
	doc := l.asset.doc
	textures := make([]*common.Texture, len(doc.Textures))

	// The sampler each image was first bound with.
	bound := make(map[int]common.SamplerStagingData)

	for i := range doc.Textures {
		src := Source[gltf.Texture]{Index: i, Value: &doc.Textures[i], Document: doc}
		tex, err := l.asset.hooks.Texture.run(ctx, src, func(_ context.Context, src Source[gltf.Texture]) (*common.Texture, error) {
			dt := src.Value
			tex := &common.Texture{Name: dt.Name, Sampler: common.DefaultSampler()}
			if dt.Sampler != nil && *dt.Sampler >= 0 && *dt.Sampler < len(doc.Samplers) {
				tex.Sampler = convertSampler(&doc.Samplers[*dt.Sampler])
			}

			idx, ok := dt.ImageSource()
			if !ok || idx < 0 || idx >= len(images) || images[idx] == nil {
				return tex, nil
			}

			img := images[idx]
			if first, seen := bound[idx]; !seen {
				bound[idx] = tex.Sampler
			} else if first != tex.Sampler {
				img = img.Clone()
			}
			tex.Image = img
			tex.Name = common.Coalesce(tex.Name, img.Name)
			return tex, nil
		})
		if err != nil {
			return nil, fmt.Errorf("texture %d: %w", i, err)
		}
		textures[i] = tex
	}
	return textures, nil
}

// convertSampler maps document filter and wrap codes onto GPU sampler state. Missing fields
// keep the default sampler's values.
func convertSampler(s *gltf.Sampler) common.SamplerStagingData {
	out := common.DefaultSampler()

	if s.MagFilter != nil && *s.MagFilter == gltf.FilterNearest {
		out.MagFilter = wgpu.FilterModeNearest
	}
	if s.MinFilter != nil {
		switch *s.MinFilter {
		case gltf.FilterNearest:
			out.MinFilter = wgpu.FilterModeNearest
			out.MipmapFilter = wgpu.MipmapFilterModeNearest
		case gltf.FilterLinear:
			out.MipmapFilter = wgpu.MipmapFilterModeNearest
		case gltf.FilterNearestMipmapNearest:
			out.MinFilter = wgpu.FilterModeNearest
			out.MipmapFilter = wgpu.MipmapFilterModeNearest
		case gltf.FilterLinearMipmapNearest:
			out.MipmapFilter = wgpu.MipmapFilterModeNearest
		case gltf.FilterNearestMipmapLinear:
			out.MinFilter = wgpu.FilterModeNearest
		}
	}
	if s.WrapS != nil {
		out.AddressModeU = addressMode(*s.WrapS)
	}
	if s.WrapT != nil {
		out.AddressModeV = addressMode(*s.WrapT)
	}
	return out
}

func addressMode(wrap int) wgpu.AddressMode {
	switch wrap {
	case gltf.WrapClampToEdge:
		return wgpu.AddressModeClampToEdge
	case gltf.WrapMirroredRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeRepeat
	}
}

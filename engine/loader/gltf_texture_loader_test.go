package loader

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"sync/atomic"
	"testing"

	"github.com/Carmen-Shannon/oxy-glb/common"
	"github.com/Carmen-Shannon/oxy-glb/engine/gltf"

	"github.com/cogentcore/webgpu/wgpu"
)

func pngBytes(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func base64PNG(t *testing.T) string {
	return base64.StdEncoding.EncodeToString(pngBytes(t, 2, 1, color.RGBA{G: 255, A: 255}))
}

// textureFixture has one embedded image read by three textures through two samplers.
func textureFixture(t *testing.T) *fixture {
	f := newFixture()
	bv := f.view(pngBytes(t, 4, 4, color.RGBA{R: 255, A: 255}), 0)
	f.doc.Images = []gltf.Image{
		{Name: "red", BufferView: ptr(bv), MimeType: "image/png"},
		{Name: "unused", URI: "missing.png"},
	}
	f.doc.Samplers = []gltf.Sampler{
		{MagFilter: ptr(gltf.FilterNearest), MinFilter: ptr(gltf.FilterNearest), WrapS: ptr(gltf.WrapClampToEdge)},
		{WrapT: ptr(gltf.WrapMirroredRepeat)},
	}
	f.doc.Textures = []gltf.Texture{
		{Source: ptr(0), Sampler: ptr(0)},
		{Source: ptr(0), Sampler: ptr(1)},
		{Name: "again", Source: ptr(0), Sampler: ptr(0)},
		{},
	}
	return f
}

func loadTextures(t *testing.T, a *gltfAsset) []*common.Texture {
	t.Helper()
	l := newGLTFTextureLoader(a)
	images, err := l.LoadImages(context.Background())
	if err != nil {
		t.Fatalf("failed to load images: %v", err)
	}
	textures, err := l.BuildTextures(context.Background(), images)
	if err != nil {
		t.Fatalf("failed to build textures: %v", err)
	}
	return textures
}

func TestLoadImages_OncePerImage(t *testing.T) {
	a := textureFixture(t).asset(t)
	var loads atomic.Int32
	a.hooks = &Hooks{Image: &Stage[gltf.Image, *common.Image]{
		Preprocess: func(src Source[gltf.Image]) {
			loads.Add(1)
		},
	}}

	images, err := newGLTFTextureLoader(a).LoadImages(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := loads.Load(); got != 1 {
		t.Errorf("expected the shared image to load once, got %d", got)
	}
	if images[1] != nil {
		t.Error("expected the unreferenced image to be skipped")
	}
	img := images[0]
	if img.Width != 4 || img.Height != 4 || len(img.Levels) != 1 {
		t.Fatalf("expected a 4x4 image with one level, got %dx%d with %d levels", img.Width, img.Height, len(img.Levels))
	}
	if img.Levels[0][0] != 255 || img.Levels[0][1] != 0 {
		t.Errorf("expected red RGBA pixels, got %v", img.Levels[0][:4])
	}
}

func TestBuildTextures_SharesImages(t *testing.T) {
	textures := loadTextures(t, textureFixture(t).asset(t))

	if len(textures) != 4 {
		t.Fatalf("expected 4 textures, got %d", len(textures))
	}
	if textures[0].Image != textures[2].Image {
		t.Error("expected textures with equal samplers to share the image")
	}
	if textures[0].Image == textures[1].Image {
		t.Error("expected a clone for a texture with a different sampler")
	}
	if textures[0].Image.Source != textures[1].Image.Source {
		t.Error("expected the clone to share the decoded source")
	}
	if textures[0].Name != "red" || textures[2].Name != "again" {
		t.Errorf("expected names red and again, got %q and %q", textures[0].Name, textures[2].Name)
	}
	if textures[3].Image != nil {
		t.Error("expected a texture without a source to have no image")
	}
}

func TestConvertSampler(t *testing.T) {
	textures := loadTextures(t, textureFixture(t).asset(t))

	s := textures[0].Sampler
	if s.MagFilter != wgpu.FilterModeNearest || s.MinFilter != wgpu.FilterModeNearest || s.MipmapFilter != wgpu.MipmapFilterModeNearest {
		t.Errorf("expected nearest filtering, got %+v", s)
	}
	if s.AddressModeU != wgpu.AddressModeClampToEdge || s.AddressModeV != wgpu.AddressModeRepeat {
		t.Errorf("expected clamp/repeat, got %v/%v", s.AddressModeU, s.AddressModeV)
	}
	if textures[1].Sampler.AddressModeV != wgpu.AddressModeMirrorRepeat {
		t.Errorf("expected mirrored repeat on V, got %v", textures[1].Sampler.AddressModeV)
	}
	if textures[3].Sampler != common.DefaultSampler() {
		t.Error("expected the default sampler when none is declared")
	}
}

func TestLoadImages_Mips(t *testing.T) {
	a := textureFixture(t).asset(t)
	a.generateMips = true

	images, err := newGLTFTextureLoader(a).LoadImages(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	staged := images[0].Staging()
	if len(staged) != 3 {
		t.Fatalf("expected 4x4, 2x2 and 1x1 levels, got %d", len(staged))
	}
	last := staged[2]
	if last.Width != 1 || last.Height != 1 || len(last.Pixels) != 4 {
		t.Errorf("expected a 1x1 level, got %dx%d with %d bytes", last.Width, last.Height, len(last.Pixels))
	}
}

func TestLoadImages_SyncSkipsExternal(t *testing.T) {
	f := textureFixture(t)
	f.doc.Textures = append(f.doc.Textures, gltf.Texture{Source: ptr(1)})
	a := f.asset(t)
	a.sync = true

	images, err := newGLTFTextureLoader(a).LoadImages(context.Background())
	if err != nil {
		t.Fatalf("expected the external image to be skipped, got %v", err)
	}
	if images[1] == nil || images[1].Loaded() {
		t.Error("expected an external image without pixels")
	}
	if images[1].URI != "missing.png" {
		t.Errorf("expected the uri to be kept, got %q", images[1].URI)
	}
}

func TestLoadImages_DataURI(t *testing.T) {
	f := newFixture()
	f.doc.Images = []gltf.Image{{URI: "data:image/png;base64," + base64PNG(t)}}
	f.doc.Textures = []gltf.Texture{{Source: ptr(0)}}
	a := f.asset(t)

	images, err := newGLTFTextureLoader(a).LoadImages(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if images[0].MimeType != "image/png" || images[0].Width != 2 {
		t.Errorf("expected a 2 pixel wide png, got %s %d", images[0].MimeType, images[0].Width)
	}
	if images[0].Name != "image_0" {
		t.Errorf("expected generated name image_0, got %q", images[0].Name)
	}
}

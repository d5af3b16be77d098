// package common contains common types that are used throughout this module. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"image"

	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds RGBA pixel data for one texture level pending GPU upload.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the level in pixels.
	Width uint32
	// Height is the height of the level in pixels.
	Height uint32
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers.
	Compare wgpu.CompareFunction
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// DefaultSampler returns the sampler used when a texture declares none: linear filtering and repeat wrapping.
//
// Returns:
//   - SamplerStagingData: the default sampler
func DefaultSampler() SamplerStagingData {
	return SamplerStagingData{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
}

// Image is a decoded pixel source. Several textures may point at the same Image, or at clones that share its
// Source and level data.
type Image struct {
	// Name is the image name from the asset, or a generated fallback.
	Name string

	// URI is the external location the image was loaded from, empty for embedded images.
	URI string

	// MimeType is the declared or sniffed encoding (e.g., "image/png").
	MimeType string

	// Width and Height are the dimensions of level 0 in pixels.
	Width, Height int

	// Levels holds RGBA pixel data for level 0 followed by any generated mip levels.
	// Nil when the image was not resolved (for example an external image in a synchronous load).
	Levels [][]byte

	// Source is the decoded image before RGBA conversion.
	Source image.Image
}

// Loaded reports whether pixel data is available.
func (i *Image) Loaded() bool {
	return i != nil && len(i.Levels) > 0
}

// Clone returns a new Image that shares the pixel source with i. The level slice itself is copied so callers can
// replace levels on the clone, but the level bytes are shared.
//
// Returns:
//   - *Image: the shallow clone
func (i *Image) Clone() *Image {
	if i == nil {
		return nil
	}
	c := *i
	if i.Levels != nil {
		c.Levels = make([][]byte, len(i.Levels))
		copy(c.Levels, i.Levels)
	}
	return &c
}

// Staging returns one TextureStagingData per level, halving the dimensions for every level after the first.
//
// Returns:
//   - []TextureStagingData: the staged levels, or nil when the image is not loaded
func (i *Image) Staging() []TextureStagingData {
	if !i.Loaded() {
		return nil
	}
	out := make([]TextureStagingData, len(i.Levels))
	w, h := i.Width, i.Height
	for lvl, pix := range i.Levels {
		out[lvl] = TextureStagingData{Pixels: pix, Width: uint32(w), Height: uint32(h)}
		w = max(1, w/2)
		h = max(1, h/2)
	}
	return out
}

// Texture pairs an Image with the sampler it is read through.
type Texture struct {
	// Name is the texture name from the asset, falling back to the image name.
	Name string

	// Image is the pixel source.
	Image *Image

	// Sampler holds the filter and wrap state.
	Sampler SamplerStagingData
}

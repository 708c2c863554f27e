// package common contains common types that are used throughout this module. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds RGBA pixel data for a single texture layer pending GPU upload.
// The material texture array stages one of these per material before writing it into its layer.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the layer. It must be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the layer in pixels.
	Width uint32
	// Height is the height of the layer in pixels.
	Height uint32
	// Layer is the destination array layer of the texture this data is written into.
	Layer uint32
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
// Zero values are replaced by the defaults of the creating device (linear filtering, repeat addressing).
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

// NewTextureStagingData converts a decoded image into tightly packed RGBA staging data for the given layer.
// The image must already have the dimensions the destination texture expects.
// Reference: https://pkg.go.dev/image/draw
//
// Parameters:
//   - img: the decoded image
//   - layer: the destination array layer
//
// Returns:
//   - TextureStagingData: the staged pixels
//   - error: error if the image is nil or empty
func NewTextureStagingData(img image.Image, layer uint32) (TextureStagingData, error) {
	if img == nil {
		return TextureStagingData{}, fmt.Errorf("image is nil")
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return TextureStagingData{}, fmt.Errorf("image has empty bounds %v", bounds)
	}

	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Layer:  layer,
	}, nil
}

package material

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/Carmen-Shannon/oxy-mesh/common"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageDecoder fetches and decodes the image behind a locator.
type ImageDecoder interface {
	// Decode returns the decoded bitmap of locator.
	//
	// Parameters:
	//   - ctx: cancels the fetch
	//   - locator: the image path or URL
	//
	// Returns:
	//   - image.Image: the decoded image
	//   - error: an error wrapping common.ErrSourceUnavailable on failure
	Decode(ctx context.Context, locator string) (image.Image, error)
}

// Opener opens a locator for reading. Any loader.Fetcher satisfies it.
type Opener interface {
	Open(ctx context.Context, locator string) (io.ReadCloser, error)
}

// FetchDecoder is the default ImageDecoder. It opens the locator with Opener and decodes
// PNG, JPEG, GIF, BMP, TIFF or WebP data.
type FetchDecoder struct {
	Opener Opener
}

var _ ImageDecoder = FetchDecoder{}

func (d FetchDecoder) Decode(ctx context.Context, locator string) (image.Image, error) {
	rc, err := d.Opener.Open(ctx, locator)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", common.ErrSourceUnavailable, locator, err)
	}
	return img, nil
}

// FileOpener opens locators as local file paths.
type FileOpener struct{}

func (FileOpener) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrSourceUnavailable, locator, err)
	}
	f, err := os.Open(locator)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSourceUnavailable, err)
	}
	return f, nil
}

// ResizeMode selects how an image whose size differs from the canonical layer size is fitted.
type ResizeMode int

const (
	// ResizeCenter draws the image unscaled, centered on a transparent canvas. Larger images are cropped.
	ResizeCenter ResizeMode = iota
	// ResizeStretch scales the image with bilinear filtering to cover the whole canvas, ignoring aspect ratio.
	ResizeStretch
)

func (m ResizeMode) String() string {
	switch m {
	case ResizeCenter:
		return "center"
	case ResizeStretch:
		return "stretch"
	default:
		return fmt.Sprintf("ResizeMode(%d)", int(m))
	}
}

// ParseResizeMode maps "center" or "stretch" to a ResizeMode.
//
// Parameters:
//   - s: the mode name
//
// Returns:
//   - ResizeMode: the parsed mode
//   - error: error for an unknown name
func ParseResizeMode(s string) (ResizeMode, error) {
	switch s {
	case "", "center":
		return ResizeCenter, nil
	case "stretch":
		return ResizeStretch, nil
	default:
		return ResizeCenter, fmt.Errorf("unknown resize mode %q", s)
	}
}

// Normalize returns img as a tightly packed RGBA image of exactly width x height.
// An image that already has the canonical size is only converted.
//
// Parameters:
//   - img: the decoded image
//   - width: the canonical width
//   - height: the canonical height
//   - mode: how to fit an image of a different size
//
// Returns:
//   - *image.RGBA: the canonical image
//   - bool: true if the image had to be resized
func Normalize(img image.Image, width, height int, mode ResizeMode) (*image.RGBA, bool) {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == width*4 {
			return rgba, false
		}
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
		return dst, false
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	switch mode {
	case ResizeStretch:
		xdraw.BiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	default:
		ox := (width - b.Dx()) / 2
		oy := (height - b.Dy()) / 2
		r := image.Rect(ox, oy, ox+b.Dx(), oy+b.Dy())
		xdraw.Draw(dst, r, img, b.Min, xdraw.Src)
	}
	return dst, true
}

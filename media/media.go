// Package media turns still images into the tightly packed 8-bit RGBA rows
// the compositor's texture cache uploads.
//
// Pixels are straight (non-premultiplied) alpha, row-major, 4 bytes per
// pixel with no row padding. Decoding supports PNG, JPEG and GIF from the
// standard library plus BMP, TIFF and WebP from golang.org/x/image.
package media

import (
	"errors"
	"fmt"
	"image"
	"io"

	// Registered image formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	xdraw "golang.org/x/image/draw"
)

// ErrEmptyImage is returned for images with no pixels.
var ErrEmptyImage = errors.New("media: empty image")

// Decode reads an image in any registered format and converts it to
// straight-alpha RGBA.
func Decode(r io.Reader) (*image.NRGBA, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("media: decode: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, format, ErrEmptyImage
	}
	return ToNRGBA(img), format, nil
}

// ToNRGBA converts img to an *image.NRGBA whose bounds start at the origin.
// An NRGBA already in that form is returned as is.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst
}

// Resize scales src to width x height with Catmull-Rom filtering.
func Resize(src image.Image, width, height int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// Fit scales src to fit inside maxWidth x maxHeight keeping its aspect ratio.
// Images that already fit are converted without scaling.
func Fit(src image.Image, maxWidth, maxHeight int) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxWidth && h <= maxHeight {
		return ToNRGBA(src)
	}
	// Compare w/maxWidth against h/maxHeight without floats.
	if w*maxHeight >= h*maxWidth {
		h = max(1, h*maxWidth/w)
		w = maxWidth
	} else {
		w = max(1, w*maxHeight/h)
		h = maxHeight
	}
	return Resize(src, w, h)
}

// Pack returns the pixels of img as tightly packed rows of width*4 bytes.
// When img has no row padding its backing slice is returned directly.
func Pack(img *image.NRGBA) []byte {
	b := img.Rect
	rowBytes := b.Dx() * 4
	if img.Stride == rowBytes {
		start := img.PixOffset(b.Min.X, b.Min.Y)
		return img.Pix[start : start+rowBytes*b.Dy()]
	}
	out := make([]byte, rowBytes*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(out[y*rowBytes:], img.Pix[off:off+rowBytes])
	}
	return out
}

// Size returns the pixel dimensions of img as unsigned values.
func Size(img image.Image) (width, height uint32) {
	b := img.Bounds()
	return uint32(b.Dx()), uint32(b.Dy()) //nolint:gosec // bounds are non-negative
}

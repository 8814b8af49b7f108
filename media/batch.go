package media

import (
	"fmt"
	"image"
	"os"
)

// Packed is an image ready for upload: tightly packed straight-alpha RGBA.
type Packed struct {
	Width, Height uint32
	Pixels        []byte
}

// PackImage converts img and packs its pixels.
func PackImage(img image.Image) Packed {
	n := ToNRGBA(img)
	w, h := Size(n)
	return Packed{Width: w, Height: h, Pixels: Pack(n)}
}

// PackAll converts and packs every image on p. The result has one entry per
// input, in input order.
func PackAll(p *Pool, imgs []image.Image) []Packed {
	out := make([]Packed, len(imgs))
	p.Each(len(imgs), func(i int) {
		out[i] = PackImage(imgs[i])
	})
	return out
}

// DecodeFile opens and decodes the image at path.
func DecodeFile(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("media: %w", err)
	}
	defer f.Close()
	img, _, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// DecodeFiles decodes every file on p. Images and errors are indexed like
// paths; a failed file leaves a nil image and a non-nil error.
func DecodeFiles(p *Pool, paths []string) ([]*image.NRGBA, []error) {
	imgs := make([]*image.NRGBA, len(paths))
	errs := make([]error, len(paths))
	p.Each(len(paths), func(i int) {
		imgs[i], errs[i] = DecodeFile(paths[i])
	})
	return imgs, errs
}

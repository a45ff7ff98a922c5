// Package raster decodes compressed structure images into 8-bit,
// non-premultiplied RGBA and repacks them in the BGRA order GDI expects.
package raster

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"chemclip/pkg/errors"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode decodes data with any registered decoder and returns a copy
// anchored at the origin. Zero-area images are rejected.
func Decode(data []byte) (*image.NRGBA, string, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.DecodeError(err)
	}
	img, err := ToNRGBA(src)
	if err != nil {
		return nil, format, err
	}
	return img, format, nil
}

// ToNRGBA converts src to a tightly packed *image.NRGBA whose bounds start
// at (0,0).
func ToNRGBA(src image.Image) (*image.NRGBA, error) {
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.InvalidImageError(b.Dx(), b.Dy())
	}
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
		return n, nil
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst, nil
}

// ToBGRA returns the pixels of img as B, G, R, A bytes, rows top-down.
func ToBGRA(img *image.NRGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := make([]byte, 0, w*h*4)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < len(row); x += 4 {
			out = append(out, row[x+2], row[x+1], row[x], row[x+3])
		}
	}
	return out
}

package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"chemclip/pkg/errors"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() failed: %v", err)
	}
	return buf.Bytes()
}

func TestDecode_PNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.SetNRGBA(1, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 128})

	img, format, err := Decode(encodePNG(t, src))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if format != "png" {
		t.Errorf("format = %q, want png", format)
	}
	if img.Rect.Dx() != 3 || img.Rect.Dy() != 2 {
		t.Errorf("size = %v, want 3x2", img.Rect)
	}
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{R: 10, G: 20, B: 30, A: 128}) {
		t.Errorf("pixel (1,0) = %v", got)
	}
}

func TestDecode_Garbage(t *testing.T) {
	_, _, err := Decode([]byte("definitely not an image"))
	if err == nil {
		t.Fatal("Decode() should fail on garbage")
	}
	if !errors.IsExitCode(err, errors.ExitCodeDecode) {
		t.Errorf("error code mismatch: %v", err)
	}
}

func TestToNRGBA_ZeroArea(t *testing.T) {
	tests := []struct {
		name string
		rect image.Rectangle
	}{
		{"zero width", image.Rect(0, 0, 0, 5)},
		{"zero height", image.Rect(0, 0, 5, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToNRGBA(image.NewNRGBA(tt.rect))
			if !errors.IsExitCode(err, errors.ExitCodeDecode) {
				t.Errorf("ToNRGBA() error = %v, want decode-class error", err)
			}
		})
	}
}

func TestToNRGBA_OffsetBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 7, 6))
	src.Set(6, 5, color.RGBA{R: 255, A: 255})

	img, err := ToNRGBA(src)
	if err != nil {
		t.Fatalf("ToNRGBA() failed: %v", err)
	}
	if img.Rect != image.Rect(0, 0, 2, 1) {
		t.Errorf("bounds = %v, want origin-anchored 2x1", img.Rect)
	}
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("pixel (1,0) = %v", got)
	}
}

func TestToBGRA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 4})
	img.SetNRGBA(1, 0, color.NRGBA{R: 255, G: 0, B: 0, A: 255})

	got := ToBGRA(img)
	want := []byte{3, 2, 1, 4, 0, 0, 255, 255}
	if !bytes.Equal(got, want) {
		t.Errorf("ToBGRA() = %v, want %v", got, want)
	}
}

func TestToBGRA_SubImageStride(t *testing.T) {
	parent := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	parent.SetNRGBA(2, 1, color.NRGBA{R: 9, G: 8, B: 7, A: 6})

	img, err := ToNRGBA(parent.SubImage(image.Rect(2, 1, 3, 2)))
	if err != nil {
		t.Fatalf("ToNRGBA() failed: %v", err)
	}
	if got := ToBGRA(img); !bytes.Equal(got, []byte{7, 8, 9, 6}) {
		t.Errorf("ToBGRA() = %v", got)
	}
}

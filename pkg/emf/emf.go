// Package emf turns a raster structure image into an Enhanced Metafile
// that records a single halftone StretchBlt of the image, sized in
// hundredths of a millimetre so receiving editors paste it at its natural
// 96 DPI size.
package emf

import (
	"fmt"
	"image"
	"math"

	"chemclip/pkg/errors"
	"chemclip/pkg/logger"
	"chemclip/pkg/native"
	"chemclip/pkg/raster"
)

var errNoPixelMemory = fmt.Errorf("null pixel pointer")

// ScreenDPI is the pixel density assumed when converting to physical units.
const ScreenDPI = 96.0

// HimetricBounds converts a pixel size into a metafile frame in 0.01 mm.
func HimetricBounds(width, height int) native.Rect {
	return native.Rect{
		Right:  int32(math.Round(float64(width) * 25.4 / ScreenDPI * 100)),
		Bottom: int32(math.Round(float64(height) * 25.4 / ScreenDPI * 100)),
	}
}

// Build decodes imageBytes and records it into a new metafile.
func Build(gdi native.GDI, imageBytes []byte) (*Metafile, error) {
	img, format, err := raster.Decode(imageBytes)
	if err != nil {
		return nil, err
	}
	log := logger.Component("emf")
	log.Debug().
		Str("format", format).
		Int("width", img.Rect.Dx()).
		Int("height", img.Rect.Dy()).
		Msg("decoded image")
	return BuildImage(gdi, img)
}

// BuildImage records img into a new metafile. Every GDI object acquired on
// the way is released before returning, whatever the outcome; only the
// returned Metafile outlives the call.
func BuildImage(gdi native.GDI, img *image.NRGBA) (*Metafile, error) {
	if img == nil {
		return nil, errors.InvalidImageError(0, 0)
	}
	width, height := img.Rect.Dx(), img.Rect.Dy()
	if width <= 0 || height <= 0 {
		return nil, errors.InvalidImageError(width, height)
	}
	pixels := raster.ToBGRA(img)

	hwnd := gdi.GetDesktopWindow()
	screen, err := gdi.GetDC(hwnd)
	if err != nil {
		return nil, errors.NativeResourceError("GetDC", err)
	}
	defer release("ReleaseDC", func() error { return gdi.ReleaseDC(hwnd, screen) })

	header := native.BitmapInfoHeader{
		Width:       int32(width),
		Height:      -int32(height),
		Planes:      1,
		BitCount:    32,
		Compression: native.BI_RGB,
	}
	bmp, bits, err := gdi.CreateDIBSection(screen, &header)
	if err != nil {
		return nil, errors.SurfaceCreationError(err)
	}
	defer release("DeleteObject", func() error { return gdi.DeleteObject(native.HGDIOBJ(bmp)) })
	if len(bits) < len(pixels) {
		return nil, errors.SurfaceCreationError(errNoPixelMemory)
	}
	copy(bits, pixels)

	mem, err := gdi.CreateCompatibleDC(screen)
	if err != nil {
		return nil, errors.NativeResourceError("CreateCompatibleDC", err)
	}
	defer release("DeleteDC", func() error { return gdi.DeleteDC(mem) })

	old, err := gdi.SelectObject(mem, native.HGDIOBJ(bmp))
	if err != nil {
		return nil, errors.NativeResourceError("SelectObject", err)
	}
	defer release("SelectObject", func() error {
		_, err := gdi.SelectObject(mem, old)
		return err
	})

	bounds := HimetricBounds(width, height)
	source := native.Rect{Right: int32(width), Bottom: int32(height)}

	rec, err := record(gdi, bounds, mem, source)
	if err != nil {
		return nil, err
	}

	return &Metafile{
		handle: rec,
		gdi:    gdi,
		Bounds: bounds,
		Source: source,
	}, nil
}

// record opens an in-memory recording context over bounds, blits the whole
// of src into it and closes it. On failure the half-built metafile is
// discarded.
func record(gdi native.GDI, bounds native.Rect, src native.HDC, srcRect native.Rect) (native.HENHMETAFILE, error) {
	dc, err := gdi.CreateEnhMetaFile(0, bounds)
	if err != nil {
		return 0, errors.MetafileCreationError(err)
	}

	drawErr := gdi.SetStretchBltMode(dc, native.STRETCH_HALFTONE)
	if drawErr == nil {
		drawErr = gdi.StretchBlt(dc, bounds, src, srcRect, native.SRCCOPY)
	}

	h, closeErr := gdi.CloseEnhMetaFile(dc)
	if closeErr != nil {
		return 0, errors.MetafileCreationError(closeErr)
	}
	if drawErr != nil {
		release("DeleteEnhMetaFile", func() error { return gdi.DeleteEnhMetaFile(h) })
		return 0, errors.MetafileCreationError(drawErr)
	}
	return h, nil
}

// release runs a cleanup call and logs, rather than returns, its failure:
// by the time cleanup runs the caller already has its result.
func release(call string, fn func() error) {
	if err := fn(); err != nil {
		log := logger.Component("emf")
		log.Warn().Err(err).Str("call", call).Msg("failed to release GDI resource")
	}
}

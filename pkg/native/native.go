// Package native declares the slice of the Win32 GDI, user32 and kernel32
// surface that the metafile builder and the clipboard publisher drive.
//
// The interfaces keep the builder and publisher free of build tags: the
// Windows binding in native_windows.go talks to the real system DLLs, and
// package nativetest provides an in-memory implementation for tests.
package native

type (
	HWND         uintptr
	HDC          uintptr
	HGDIOBJ      uintptr
	HBITMAP      uintptr
	HENHMETAFILE uintptr
	HGLOBAL      uintptr
)

// Standard clipboard formats and GDI constants.
const (
	CF_UNICODETEXT uint32 = 13
	CF_ENHMETAFILE uint32 = 14

	GMEM_MOVEABLE uint32 = 0x0002

	BI_RGB           uint32 = 0
	DIB_RGB_COLORS   uint32 = 0
	STRETCH_HALFTONE int32  = 4
	SRCCOPY          uint32 = 0x00CC0020
)

// Rect mirrors RECT.
type Rect struct {
	Left, Top, Right, Bottom int32
}

func (r Rect) Width() int32  { return r.Right - r.Left }
func (r Rect) Height() int32 { return r.Bottom - r.Top }

// BitmapInfoHeader mirrors BITMAPINFOHEADER. A negative Height selects a
// top-down DIB.
type BitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

// GDI is the drawing surface used to record a bitmap into an enhanced
// metafile.
type GDI interface {
	GetDesktopWindow() HWND
	GetDC(hwnd HWND) (HDC, error)
	ReleaseDC(hwnd HWND, hdc HDC) error

	// CreateDIBSection returns the bitmap and a view of its pixel memory.
	// bits is nil when the platform handed back no pixel pointer.
	CreateDIBSection(hdc HDC, header *BitmapInfoHeader) (bmp HBITMAP, bits []byte, err error)
	DeleteObject(obj HGDIOBJ) error
	CreateCompatibleDC(hdc HDC) (HDC, error)
	DeleteDC(hdc HDC) error
	SelectObject(hdc HDC, obj HGDIOBJ) (HGDIOBJ, error)

	// CreateEnhMetaFile opens an in-memory recording context. ref may be 0.
	CreateEnhMetaFile(ref HDC, bounds Rect) (HDC, error)
	SetStretchBltMode(hdc HDC, mode int32) error
	StretchBlt(dst HDC, dstRect Rect, src HDC, srcRect Rect, rop uint32) error
	CloseEnhMetaFile(hdc HDC) (HENHMETAFILE, error)
	DeleteEnhMetaFile(h HENHMETAFILE) error
}

// Clipboard covers the clipboard session and the movable global memory
// blocks it takes ownership of.
type Clipboard interface {
	OpenClipboard(owner HWND) error
	EmptyClipboard() error
	SetClipboardData(format uint32, data uintptr) error
	CloseClipboard() error
	RegisterClipboardFormat(name string) (uint32, error)

	GlobalAlloc(flags uint32, size int) (HGLOBAL, error)
	// GlobalLock returns a view of size bytes over the locked block.
	GlobalLock(h HGLOBAL, size int) ([]byte, error)
	GlobalUnlock(h HGLOBAL) error
	GlobalFree(h HGLOBAL) error
}

// API is everything a full multi-format copy needs.
type API interface {
	GDI
	Clipboard
}

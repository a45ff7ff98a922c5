//go:build windows

package native

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	gdi32    = windows.NewLazySystemDLL("gdi32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procGetDesktopWindow        = user32.NewProc("GetDesktopWindow")
	procGetDC                   = user32.NewProc("GetDC")
	procReleaseDC               = user32.NewProc("ReleaseDC")
	procOpenClipboard           = user32.NewProc("OpenClipboard")
	procEmptyClipboard          = user32.NewProc("EmptyClipboard")
	procSetClipboardData        = user32.NewProc("SetClipboardData")
	procCloseClipboard          = user32.NewProc("CloseClipboard")
	procRegisterClipboardFormat = user32.NewProc("RegisterClipboardFormatW")

	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procCreateEnhMetaFile  = gdi32.NewProc("CreateEnhMetaFileW")
	procSetStretchBltMode  = gdi32.NewProc("SetStretchBltMode")
	procStretchBlt         = gdi32.NewProc("StretchBlt")
	procCloseEnhMetaFile   = gdi32.NewProc("CloseEnhMetaFile")
	procDeleteEnhMetaFile  = gdi32.NewProc("DeleteEnhMetaFile")

	procGlobalAlloc  = kernel32.NewProc("GlobalAlloc")
	procGlobalLock   = kernel32.NewProc("GlobalLock")
	procGlobalUnlock = kernel32.NewProc("GlobalUnlock")
	procGlobalFree   = kernel32.NewProc("GlobalFree")
)

const hgdiError = ^uintptr(0)

// bitmapInfo mirrors BITMAPINFO with a single (unused) colour entry.
type bitmapInfo struct {
	Header BitmapInfoHeader
	Colors [1]uint32
}

// System calls straight into the Windows DLLs.
type System struct{}

var _ API = (*System)(nil)

func New() *System {
	return &System{}
}

func callError(name string, lastErr error) error {
	if errno, ok := lastErr.(windows.Errno); ok && errno != 0 {
		return fmt.Errorf("%s: %w", name, errno)
	}
	return fmt.Errorf("%s failed", name)
}

func (*System) GetDesktopWindow() HWND {
	r, _, _ := procGetDesktopWindow.Call()
	return HWND(r)
}

func (*System) GetDC(hwnd HWND) (HDC, error) {
	r, _, err := procGetDC.Call(uintptr(hwnd))
	if r == 0 {
		return 0, callError("GetDC", err)
	}
	return HDC(r), nil
}

func (*System) ReleaseDC(hwnd HWND, hdc HDC) error {
	r, _, err := procReleaseDC.Call(uintptr(hwnd), uintptr(hdc))
	if r == 0 {
		return callError("ReleaseDC", err)
	}
	return nil
}

func (*System) CreateDIBSection(hdc HDC, header *BitmapInfoHeader) (HBITMAP, []byte, error) {
	info := bitmapInfo{Header: *header}
	info.Header.Size = uint32(unsafe.Sizeof(info.Header))

	var bits unsafe.Pointer
	r, _, err := procCreateDIBSection.Call(
		uintptr(hdc),
		uintptr(unsafe.Pointer(&info)),
		uintptr(DIB_RGB_COLORS),
		uintptr(unsafe.Pointer(&bits)),
		0,
		0,
	)
	if r == 0 {
		return 0, nil, callError("CreateDIBSection", err)
	}
	if bits == nil {
		return HBITMAP(r), nil, nil
	}

	height := header.Height
	if height < 0 {
		height = -height
	}
	size := int(header.Width) * int(height) * int(header.BitCount) / 8
	return HBITMAP(r), unsafe.Slice((*byte)(bits), size), nil
}

func (*System) DeleteObject(obj HGDIOBJ) error {
	r, _, err := procDeleteObject.Call(uintptr(obj))
	if r == 0 {
		return callError("DeleteObject", err)
	}
	return nil
}

func (*System) CreateCompatibleDC(hdc HDC) (HDC, error) {
	r, _, err := procCreateCompatibleDC.Call(uintptr(hdc))
	if r == 0 {
		return 0, callError("CreateCompatibleDC", err)
	}
	return HDC(r), nil
}

func (*System) DeleteDC(hdc HDC) error {
	r, _, err := procDeleteDC.Call(uintptr(hdc))
	if r == 0 {
		return callError("DeleteDC", err)
	}
	return nil
}

func (*System) SelectObject(hdc HDC, obj HGDIOBJ) (HGDIOBJ, error) {
	r, _, err := procSelectObject.Call(uintptr(hdc), uintptr(obj))
	if r == 0 || r == hgdiError {
		return 0, callError("SelectObject", err)
	}
	return HGDIOBJ(r), nil
}

func (*System) CreateEnhMetaFile(ref HDC, bounds Rect) (HDC, error) {
	r, _, err := procCreateEnhMetaFile.Call(uintptr(ref), 0, uintptr(unsafe.Pointer(&bounds)), 0)
	if r == 0 {
		return 0, callError("CreateEnhMetaFileW", err)
	}
	return HDC(r), nil
}

func (*System) SetStretchBltMode(hdc HDC, mode int32) error {
	r, _, err := procSetStretchBltMode.Call(uintptr(hdc), uintptr(mode))
	if r == 0 {
		return callError("SetStretchBltMode", err)
	}
	return nil
}

func (*System) StretchBlt(dst HDC, dstRect Rect, src HDC, srcRect Rect, rop uint32) error {
	r, _, err := procStretchBlt.Call(
		uintptr(dst),
		uintptr(dstRect.Left), uintptr(dstRect.Top),
		uintptr(dstRect.Width()), uintptr(dstRect.Height()),
		uintptr(src),
		uintptr(srcRect.Left), uintptr(srcRect.Top),
		uintptr(srcRect.Width()), uintptr(srcRect.Height()),
		uintptr(rop),
	)
	if r == 0 {
		return callError("StretchBlt", err)
	}
	return nil
}

func (*System) CloseEnhMetaFile(hdc HDC) (HENHMETAFILE, error) {
	r, _, err := procCloseEnhMetaFile.Call(uintptr(hdc))
	if r == 0 {
		return 0, callError("CloseEnhMetaFile", err)
	}
	return HENHMETAFILE(r), nil
}

func (*System) DeleteEnhMetaFile(h HENHMETAFILE) error {
	r, _, err := procDeleteEnhMetaFile.Call(uintptr(h))
	if r == 0 {
		return callError("DeleteEnhMetaFile", err)
	}
	return nil
}

// OpenClipboard with owner 0 binds the clipboard to the calling task.
func (*System) OpenClipboard(owner HWND) error {
	r, _, err := procOpenClipboard.Call(uintptr(owner))
	if r == 0 {
		return callError("OpenClipboard", err)
	}
	return nil
}

func (*System) EmptyClipboard() error {
	r, _, err := procEmptyClipboard.Call()
	if r == 0 {
		return callError("EmptyClipboard", err)
	}
	return nil
}

func (*System) SetClipboardData(format uint32, data uintptr) error {
	r, _, err := procSetClipboardData.Call(uintptr(format), data)
	if r == 0 {
		return callError("SetClipboardData", err)
	}
	return nil
}

func (*System) CloseClipboard() error {
	r, _, err := procCloseClipboard.Call()
	if r == 0 {
		return callError("CloseClipboard", err)
	}
	return nil
}

func (*System) RegisterClipboardFormat(name string) (uint32, error) {
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, err
	}
	r, _, err := procRegisterClipboardFormat.Call(uintptr(unsafe.Pointer(p)))
	if r == 0 {
		return 0, callError("RegisterClipboardFormatW", err)
	}
	return uint32(r), nil
}

func (*System) GlobalAlloc(flags uint32, size int) (HGLOBAL, error) {
	r, _, err := procGlobalAlloc.Call(uintptr(flags), uintptr(size))
	if r == 0 {
		return 0, callError("GlobalAlloc", err)
	}
	return HGLOBAL(r), nil
}

func (*System) GlobalLock(h HGLOBAL, size int) ([]byte, error) {
	r, _, err := procGlobalLock.Call(uintptr(h))
	if r == 0 {
		return nil, callError("GlobalLock", err)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(r)), size), nil
}

// GlobalUnlock returns 0 both on failure and once the lock count drops to
// zero; only a non-zero last error marks a failure.
func (*System) GlobalUnlock(h HGLOBAL) error {
	r, _, err := procGlobalUnlock.Call(uintptr(h))
	if r == 0 {
		if errno, ok := err.(windows.Errno); ok && errno != 0 {
			return fmt.Errorf("GlobalUnlock: %w", errno)
		}
	}
	return nil
}

func (*System) GlobalFree(h HGLOBAL) error {
	r, _, err := procGlobalFree.Call(uintptr(h))
	if r != 0 {
		return callError("GlobalFree", err)
	}
	return nil
}

// Package nativetest provides an in-memory stand-in for the Win32 calls in
// package native. It records every call, tracks which handles are still
// alive, simulates the clipboard so tests can read formats back, and lets
// a test make any named call fail.
package nativetest

import (
	"errors"
	"fmt"

	"chemclip/pkg/native"
)

// ErrInjected is returned by calls configured to fail with FailOn.
var ErrInjected = errors.New("injected failure")

// Blit is one recorded StretchBlt.
type Blit struct {
	Dst, Src native.Rect
	Mode     int32
	Rop      uint32
	Pixels   []byte
}

// Recording is the content of a closed enhanced metafile.
type Recording struct {
	Bounds native.Rect
	Blits  []Blit
}

type dib struct {
	header native.BitmapInfoHeader
	bits   []byte
}

type memDC struct {
	selected native.HGDIOBJ
}

type recorder struct {
	bounds native.Rect
	mode   int32
	blits  []Blit
}

type block struct {
	data   []byte
	locked int
}

// API implements native.API.
type API struct {
	Calls []string

	// Busy makes OpenClipboard fail as if another owner held the clipboard.
	Busy bool
	// NullBits makes CreateDIBSection succeed without pixel memory.
	NullBits bool

	fail map[string]error

	next      uintptr
	screenDCs map[native.HDC]bool
	dibs      map[native.HBITMAP]*dib
	memDCs    map[native.HDC]*memDC
	recorders map[native.HDC]*recorder
	metafiles map[native.HENHMETAFILE]*Recording
	blocks    map[native.HGLOBAL]*block

	open      bool
	opens     int
	formats   map[string]uint32
	nextFmt   uint32
	clipboard map[uint32]uintptr
}

var _ native.API = (*API)(nil)

func New() *API {
	return &API{
		fail:      make(map[string]error),
		next:      0x1000,
		screenDCs: make(map[native.HDC]bool),
		dibs:      make(map[native.HBITMAP]*dib),
		memDCs:    make(map[native.HDC]*memDC),
		recorders: make(map[native.HDC]*recorder),
		metafiles: make(map[native.HENHMETAFILE]*Recording),
		blocks:    make(map[native.HGLOBAL]*block),
		formats:   make(map[string]uint32),
		nextFmt:   0xC000,
		clipboard: make(map[uint32]uintptr),
	}
}

// FailOn makes every later call named name return ErrInjected.
func (a *API) FailOn(names ...string) {
	for _, n := range names {
		a.fail[n] = ErrInjected
	}
}

func (a *API) call(name string) error {
	a.Calls = append(a.Calls, name)
	return a.fail[name]
}

func (a *API) handle() uintptr {
	a.next += 4
	return a.next
}

// Called reports whether name was invoked at least once.
func (a *API) Called(name string) bool {
	for _, c := range a.Calls {
		if c == name {
			return true
		}
	}
	return false
}

// Live lists every resource still held by the caller: DCs, bitmaps,
// recording contexts, metafiles and memory blocks not owned by the
// clipboard.
func (a *API) Live() []string {
	var live []string
	for h := range a.screenDCs {
		live = append(live, fmt.Sprintf("screen dc %#x", h))
	}
	for h := range a.dibs {
		live = append(live, fmt.Sprintf("dib %#x", h))
	}
	for h := range a.memDCs {
		live = append(live, fmt.Sprintf("memory dc %#x", h))
	}
	for h := range a.recorders {
		live = append(live, fmt.Sprintf("recording dc %#x", h))
	}
	owned := make(map[uintptr]bool, len(a.clipboard))
	for _, h := range a.clipboard {
		owned[h] = true
	}
	for h := range a.metafiles {
		if !owned[uintptr(h)] {
			live = append(live, fmt.Sprintf("metafile %#x", h))
		}
	}
	for h := range a.blocks {
		if !owned[uintptr(h)] {
			live = append(live, fmt.Sprintf("global %#x", h))
		}
	}
	return live
}

// Opens returns how many times OpenClipboard succeeded.
func (a *API) Opens() int { return a.opens }

// IsOpen reports whether the clipboard is still open.
func (a *API) IsOpen() bool { return a.open }

// Metafile returns the recording behind a metafile handle.
func (a *API) Metafile(h native.HENHMETAFILE) (*Recording, bool) {
	r, ok := a.metafiles[h]
	return r, ok
}

// ClipboardFormats returns the format ids currently on the clipboard.
func (a *API) ClipboardFormats() []uint32 {
	ids := make([]uint32, 0, len(a.clipboard))
	for id := range a.clipboard {
		ids = append(ids, id)
	}
	return ids
}

// ClipboardBytes reads a memory-block format back from the clipboard.
func (a *API) ClipboardBytes(format uint32) ([]byte, bool) {
	h, ok := a.clipboard[format]
	if !ok {
		return nil, false
	}
	b, ok := a.blocks[native.HGLOBAL(h)]
	if !ok {
		return nil, false
	}
	return b.data, true
}

// ClipboardMetafile reads the CF_ENHMETAFILE recording back.
func (a *API) ClipboardMetafile() (*Recording, bool) {
	h, ok := a.clipboard[native.CF_ENHMETAFILE]
	if !ok {
		return nil, false
	}
	return a.Metafile(native.HENHMETAFILE(h))
}

// Seed places data on the clipboard as if another application had
// published it.
func (a *API) Seed(format uint32, data []byte) {
	h := native.HGLOBAL(a.handle())
	a.blocks[h] = &block{data: append([]byte(nil), data...)}
	a.clipboard[format] = uintptr(h)
}

// FormatID returns the id registered for name, if any.
func (a *API) FormatID(name string) (uint32, bool) {
	id, ok := a.formats[name]
	return id, ok
}

func (a *API) GetDesktopWindow() native.HWND {
	a.Calls = append(a.Calls, "GetDesktopWindow")
	return native.HWND(0x10)
}

func (a *API) GetDC(hwnd native.HWND) (native.HDC, error) {
	if err := a.call("GetDC"); err != nil {
		return 0, err
	}
	h := native.HDC(a.handle())
	a.screenDCs[h] = true
	return h, nil
}

func (a *API) ReleaseDC(hwnd native.HWND, hdc native.HDC) error {
	if err := a.call("ReleaseDC"); err != nil {
		return err
	}
	if !a.screenDCs[hdc] {
		return fmt.Errorf("ReleaseDC: unknown dc %#x", hdc)
	}
	delete(a.screenDCs, hdc)
	return nil
}

func (a *API) CreateDIBSection(hdc native.HDC, header *native.BitmapInfoHeader) (native.HBITMAP, []byte, error) {
	if err := a.call("CreateDIBSection"); err != nil {
		return 0, nil, err
	}
	h := native.HBITMAP(a.handle())
	height := header.Height
	if height < 0 {
		height = -height
	}
	d := &dib{header: *header}
	if !a.NullBits {
		d.bits = make([]byte, int(header.Width)*int(height)*int(header.BitCount)/8)
	}
	a.dibs[h] = d
	return h, d.bits, nil
}

// Header returns the BITMAPINFOHEADER a DIB section was created with.
func (a *API) Header(h native.HBITMAP) (native.BitmapInfoHeader, bool) {
	d, ok := a.dibs[h]
	if !ok {
		return native.BitmapInfoHeader{}, false
	}
	return d.header, true
}

func (a *API) DeleteObject(obj native.HGDIOBJ) error {
	if err := a.call("DeleteObject"); err != nil {
		return err
	}
	h := native.HBITMAP(obj)
	if _, ok := a.dibs[h]; !ok {
		return fmt.Errorf("DeleteObject: unknown object %#x", obj)
	}
	for _, dc := range a.memDCs {
		if dc.selected == obj {
			return fmt.Errorf("DeleteObject: %#x still selected", obj)
		}
	}
	delete(a.dibs, h)
	return nil
}

func (a *API) CreateCompatibleDC(hdc native.HDC) (native.HDC, error) {
	if err := a.call("CreateCompatibleDC"); err != nil {
		return 0, err
	}
	h := native.HDC(a.handle())
	a.memDCs[h] = &memDC{selected: native.HGDIOBJ(0x1)}
	return h, nil
}

func (a *API) DeleteDC(hdc native.HDC) error {
	if err := a.call("DeleteDC"); err != nil {
		return err
	}
	if _, ok := a.memDCs[hdc]; !ok {
		return fmt.Errorf("DeleteDC: unknown dc %#x", hdc)
	}
	delete(a.memDCs, hdc)
	return nil
}

func (a *API) SelectObject(hdc native.HDC, obj native.HGDIOBJ) (native.HGDIOBJ, error) {
	if err := a.call("SelectObject"); err != nil {
		return 0, err
	}
	dc, ok := a.memDCs[hdc]
	if !ok {
		return 0, fmt.Errorf("SelectObject: unknown dc %#x", hdc)
	}
	prev := dc.selected
	dc.selected = obj
	return prev, nil
}

func (a *API) CreateEnhMetaFile(ref native.HDC, bounds native.Rect) (native.HDC, error) {
	if err := a.call("CreateEnhMetaFile"); err != nil {
		return 0, err
	}
	h := native.HDC(a.handle())
	a.recorders[h] = &recorder{bounds: bounds}
	return h, nil
}

func (a *API) SetStretchBltMode(hdc native.HDC, mode int32) error {
	if err := a.call("SetStretchBltMode"); err != nil {
		return err
	}
	r, ok := a.recorders[hdc]
	if !ok {
		return fmt.Errorf("SetStretchBltMode: unknown dc %#x", hdc)
	}
	r.mode = mode
	return nil
}

func (a *API) StretchBlt(dst native.HDC, dstRect native.Rect, src native.HDC, srcRect native.Rect, rop uint32) error {
	if err := a.call("StretchBlt"); err != nil {
		return err
	}
	r, ok := a.recorders[dst]
	if !ok {
		return fmt.Errorf("StretchBlt: unknown destination %#x", dst)
	}
	srcDC, ok := a.memDCs[src]
	if !ok {
		return fmt.Errorf("StretchBlt: unknown source %#x", src)
	}
	blit := Blit{Dst: dstRect, Src: srcRect, Mode: r.mode, Rop: rop}
	if d, ok := a.dibs[native.HBITMAP(srcDC.selected)]; ok {
		blit.Pixels = append([]byte(nil), d.bits...)
	}
	r.blits = append(r.blits, blit)
	return nil
}

func (a *API) CloseEnhMetaFile(hdc native.HDC) (native.HENHMETAFILE, error) {
	r, ok := a.recorders[hdc]
	if !ok {
		a.Calls = append(a.Calls, "CloseEnhMetaFile")
		return 0, fmt.Errorf("CloseEnhMetaFile: unknown dc %#x", hdc)
	}
	// The recording context is gone even when closing fails.
	delete(a.recorders, hdc)
	if err := a.call("CloseEnhMetaFile"); err != nil {
		return 0, err
	}
	h := native.HENHMETAFILE(a.handle())
	a.metafiles[h] = &Recording{Bounds: r.bounds, Blits: r.blits}
	return h, nil
}

func (a *API) DeleteEnhMetaFile(h native.HENHMETAFILE) error {
	if err := a.call("DeleteEnhMetaFile"); err != nil {
		return err
	}
	if _, ok := a.metafiles[h]; !ok {
		return fmt.Errorf("DeleteEnhMetaFile: unknown metafile %#x", h)
	}
	for _, owned := range a.clipboard {
		if owned == uintptr(h) {
			return fmt.Errorf("DeleteEnhMetaFile: %#x is owned by the clipboard", h)
		}
	}
	delete(a.metafiles, h)
	return nil
}

func (a *API) OpenClipboard(owner native.HWND) error {
	if err := a.call("OpenClipboard"); err != nil {
		return err
	}
	if a.Busy || a.open {
		return errors.New("clipboard is owned by another window")
	}
	a.open = true
	a.opens++
	return nil
}

func (a *API) EmptyClipboard() error {
	if err := a.call("EmptyClipboard"); err != nil {
		return err
	}
	if !a.open {
		return errors.New("EmptyClipboard: clipboard not open")
	}
	for format, h := range a.clipboard {
		delete(a.metafiles, native.HENHMETAFILE(h))
		delete(a.blocks, native.HGLOBAL(h))
		delete(a.clipboard, format)
	}
	return nil
}

func (a *API) SetClipboardData(format uint32, data uintptr) error {
	if err := a.call("SetClipboardData"); err != nil {
		return err
	}
	if !a.open {
		return errors.New("SetClipboardData: clipboard not open")
	}
	if format == native.CF_ENHMETAFILE {
		if _, ok := a.metafiles[native.HENHMETAFILE(data)]; !ok {
			return fmt.Errorf("SetClipboardData: unknown metafile %#x", data)
		}
	} else {
		b, ok := a.blocks[native.HGLOBAL(data)]
		if !ok {
			return fmt.Errorf("SetClipboardData: unknown block %#x", data)
		}
		if b.locked > 0 {
			return fmt.Errorf("SetClipboardData: block %#x still locked", data)
		}
	}
	a.clipboard[format] = data
	return nil
}

func (a *API) CloseClipboard() error {
	if err := a.call("CloseClipboard"); err != nil {
		return err
	}
	if !a.open {
		return errors.New("CloseClipboard: clipboard not open")
	}
	a.open = false
	return nil
}

func (a *API) RegisterClipboardFormat(name string) (uint32, error) {
	if err := a.call("RegisterClipboardFormat"); err != nil {
		return 0, err
	}
	if id, ok := a.formats[name]; ok {
		return id, nil
	}
	id := a.nextFmt
	a.nextFmt++
	a.formats[name] = id
	return id, nil
}

func (a *API) GlobalAlloc(flags uint32, size int) (native.HGLOBAL, error) {
	if err := a.call("GlobalAlloc"); err != nil {
		return 0, err
	}
	h := native.HGLOBAL(a.handle())
	a.blocks[h] = &block{data: make([]byte, size)}
	return h, nil
}

func (a *API) GlobalLock(h native.HGLOBAL, size int) ([]byte, error) {
	if err := a.call("GlobalLock"); err != nil {
		return nil, err
	}
	b, ok := a.blocks[h]
	if !ok {
		return nil, fmt.Errorf("GlobalLock: unknown block %#x", h)
	}
	b.locked++
	return b.data[:size], nil
}

func (a *API) GlobalUnlock(h native.HGLOBAL) error {
	if err := a.call("GlobalUnlock"); err != nil {
		return err
	}
	b, ok := a.blocks[h]
	if !ok || b.locked == 0 {
		return fmt.Errorf("GlobalUnlock: block %#x not locked", h)
	}
	b.locked--
	return nil
}

func (a *API) GlobalFree(h native.HGLOBAL) error {
	if err := a.call("GlobalFree"); err != nil {
		return err
	}
	if _, ok := a.blocks[h]; !ok {
		return fmt.Errorf("GlobalFree: unknown block %#x", h)
	}
	delete(a.blocks, h)
	return nil
}

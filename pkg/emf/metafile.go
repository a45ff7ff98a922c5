package emf

import (
	"chemclip/pkg/native"
)

// Metafile owns an enhanced metafile handle until it is either released or
// detached for hand-over to the clipboard. After Detach the platform owns
// the handle and Release becomes a no-op, so the handle is never freed
// twice.
type Metafile struct {
	handle native.HENHMETAFILE
	gdi    native.GDI

	// Bounds is the recorded target frame in 0.01 mm.
	Bounds native.Rect
	// Source is the pixel rectangle blitted into Bounds.
	Source native.Rect
}

// Handle returns the raw handle, or 0 once released or detached.
func (m *Metafile) Handle() native.HENHMETAFILE {
	if m == nil {
		return 0
	}
	return m.handle
}

// Detach gives up ownership and returns the handle. The caller must pass
// it to a call that takes ownership, or call Reattach if that call fails.
func (m *Metafile) Detach() native.HENHMETAFILE {
	h := m.handle
	m.handle = 0
	return h
}

// Reattach takes ownership of h back after a hand-over was refused.
func (m *Metafile) Reattach(h native.HENHMETAFILE) {
	m.handle = h
}

// Release deletes the metafile if this value still owns it.
func (m *Metafile) Release() error {
	if m == nil || m.handle == 0 {
		return nil
	}
	h := m.handle
	m.handle = 0
	return m.gdi.DeleteEnhMetaFile(h)
}

package emf

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"chemclip/pkg/errors"
	"chemclip/pkg/native"
	"chemclip/pkg/native/nativetest"
)

func redSquarePNG(t *testing.T, size int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() failed: %v", err)
	}
	return buf.Bytes()
}

func TestHimetricBounds(t *testing.T) {
	tests := []struct {
		w, h          int
		right, bottom int32
	}{
		{1, 1, 26, 26},
		{2, 2, 53, 53},
		{96, 96, 2540, 2540},
		{100, 50, 2646, 1323},
		{640, 480, 16933, 12700},
	}

	for _, tt := range tests {
		got := HimetricBounds(tt.w, tt.h)
		want := native.Rect{Right: tt.right, Bottom: tt.bottom}
		if got != want {
			t.Errorf("HimetricBounds(%d, %d) = %+v, want %+v", tt.w, tt.h, got, want)
		}
	}
}

func TestBuild_RedSquare(t *testing.T) {
	api := nativetest.New()

	mf, err := Build(api, redSquarePNG(t, 2))
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if mf.Bounds != (native.Rect{Right: 53, Bottom: 53}) {
		t.Errorf("Bounds = %+v, want (0,0)-(53,53)", mf.Bounds)
	}
	if mf.Source != (native.Rect{Right: 2, Bottom: 2}) {
		t.Errorf("Source = %+v, want (0,0)-(2,2)", mf.Source)
	}

	rec, ok := api.Metafile(mf.Handle())
	if !ok {
		t.Fatal("metafile handle unknown to the platform")
	}
	if rec.Bounds != mf.Bounds {
		t.Errorf("recorded frame = %+v, want %+v", rec.Bounds, mf.Bounds)
	}
	if len(rec.Blits) != 1 {
		t.Fatalf("recorded %d blits, want 1", len(rec.Blits))
	}
	blit := rec.Blits[0]
	if blit.Dst != mf.Bounds || blit.Src != mf.Source {
		t.Errorf("blit %+v -> %+v, want %+v -> %+v", blit.Src, blit.Dst, mf.Source, mf.Bounds)
	}
	if blit.Mode != native.STRETCH_HALFTONE {
		t.Errorf("stretch mode = %d, want STRETCH_HALFTONE", blit.Mode)
	}
	if blit.Rop != native.SRCCOPY {
		t.Errorf("rop = %#x, want SRCCOPY", blit.Rop)
	}
	wantPixels := bytes.Repeat([]byte{0, 0, 255, 255}, 4)
	if !bytes.Equal(blit.Pixels, wantPixels) {
		t.Errorf("surface pixels = %v, want %v", blit.Pixels, wantPixels)
	}

	live := api.Live()
	if len(live) != 1 {
		t.Errorf("live resources after Build() = %v, want only the metafile", live)
	}

	if err := mf.Release(); err != nil {
		t.Fatalf("Release() failed: %v", err)
	}
	if live := api.Live(); len(live) != 0 {
		t.Errorf("live resources after Release() = %v", live)
	}
}

func TestBuild_TopDownHeader(t *testing.T) {
	api := nativetest.New()
	var seen native.BitmapInfoHeader

	spy := &headerSpy{API: api, seen: &seen}
	mf, err := BuildImage(spy, image.NewNRGBA(image.Rect(0, 0, 3, 5)))
	if err != nil {
		t.Fatalf("BuildImage() failed: %v", err)
	}
	defer mf.Release()

	if seen.Width != 3 || seen.Height != -5 {
		t.Errorf("DIB size = %dx%d, want 3x-5", seen.Width, seen.Height)
	}
	if seen.BitCount != 32 || seen.Planes != 1 || seen.Compression != native.BI_RGB {
		t.Errorf("DIB header = %+v", seen)
	}
}

type headerSpy struct {
	*nativetest.API
	seen *native.BitmapInfoHeader
}

func (s *headerSpy) CreateDIBSection(hdc native.HDC, h *native.BitmapInfoHeader) (native.HBITMAP, []byte, error) {
	*s.seen = *h
	return s.API.CreateDIBSection(hdc, h)
}

func TestBuild_DecodeFailure(t *testing.T) {
	api := nativetest.New()

	_, err := Build(api, []byte{0x89, 'P', 'N', 'G'})
	if !errors.IsExitCode(err, errors.ExitCodeDecode) {
		t.Fatalf("Build() error = %v, want decode error", err)
	}
	if len(api.Calls) != 0 {
		t.Errorf("native calls made before decoding succeeded: %v", api.Calls)
	}
}

func TestBuildImage_ZeroArea(t *testing.T) {
	for _, rect := range []image.Rectangle{image.Rect(0, 0, 0, 4), image.Rect(0, 0, 4, 0)} {
		api := nativetest.New()

		_, err := BuildImage(api, image.NewNRGBA(rect))
		if !errors.IsExitCode(err, errors.ExitCodeDecode) {
			t.Errorf("BuildImage(%v) error = %v, want decode-class error", rect, err)
		}
		if len(api.Calls) != 0 {
			t.Errorf("BuildImage(%v) touched native resources: %v", rect, api.Calls)
		}
	}
}

func TestBuildImage_Nil(t *testing.T) {
	api := nativetest.New()

	mf, err := BuildImage(api, nil)
	if mf != nil || !errors.IsExitCode(err, errors.ExitCodeDecode) {
		t.Errorf("BuildImage(nil) = %v, %v, want decode-class error", mf, err)
	}
	if len(api.Calls) != 0 {
		t.Errorf("BuildImage(nil) touched native resources: %v", api.Calls)
	}
}

func TestBuild_ReleasesOnFailure(t *testing.T) {
	tests := []struct {
		name     string
		failOn   string
		nullBits bool
		wantMsg  string
	}{
		{name: "GetDC", failOn: "GetDC", wantMsg: "GetDC failed"},
		{name: "CreateDIBSection", failOn: "CreateDIBSection", wantMsg: errors.ErrMsgSurfaceCreation},
		{name: "null pixel memory", nullBits: true, wantMsg: errors.ErrMsgSurfaceCreation},
		{name: "CreateCompatibleDC", failOn: "CreateCompatibleDC", wantMsg: "CreateCompatibleDC failed"},
		{name: "SelectObject", failOn: "SelectObject", wantMsg: "SelectObject failed"},
		{name: "CreateEnhMetaFile", failOn: "CreateEnhMetaFile", wantMsg: errors.ErrMsgMetafileCreation},
		{name: "SetStretchBltMode", failOn: "SetStretchBltMode", wantMsg: errors.ErrMsgMetafileCreation},
		{name: "StretchBlt", failOn: "StretchBlt", wantMsg: errors.ErrMsgMetafileCreation},
		{name: "CloseEnhMetaFile", failOn: "CloseEnhMetaFile", wantMsg: errors.ErrMsgMetafileCreation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := nativetest.New()
			api.NullBits = tt.nullBits
			if tt.failOn != "" {
				api.FailOn(tt.failOn)
			}

			mf, err := Build(api, redSquarePNG(t, 4))
			if err == nil {
				t.Fatal("Build() should fail")
			}
			if mf != nil {
				t.Error("Build() returned a metafile alongside an error")
			}
			e, ok := err.(*errors.Error)
			if !ok {
				t.Fatalf("error type = %T, want *errors.Error", err)
			}
			if e.Code != errors.ExitCodeNativeResource {
				t.Errorf("Code = %d, want %d", e.Code, errors.ExitCodeNativeResource)
			}
			if e.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", e.Message, tt.wantMsg)
			}
			if live := api.Live(); len(live) != 0 {
				t.Errorf("leaked resources: %v", live)
			}
		})
	}
}

func TestBuild_ReleaseOrder(t *testing.T) {
	api := nativetest.New()

	mf, err := Build(api, redSquarePNG(t, 1))
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	defer mf.Release()

	var tail []string
	for i, c := range api.Calls {
		if c == "CloseEnhMetaFile" {
			tail = api.Calls[i:]
		}
	}
	want := []string{"CloseEnhMetaFile", "SelectObject", "DeleteDC", "DeleteObject", "ReleaseDC"}
	if len(tail) != len(want) {
		t.Fatalf("calls after recording = %v, want %v", tail, want)
	}
	for i := range want {
		if tail[i] != want[i] {
			t.Errorf("call %d = %s, want %s (all: %v)", i, tail[i], want[i], tail)
		}
	}
}

func TestMetafile_DetachAndRelease(t *testing.T) {
	api := nativetest.New()
	mf, err := Build(api, redSquarePNG(t, 2))
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	h := mf.Detach()
	if h == 0 {
		t.Fatal("Detach() returned a zero handle")
	}
	if mf.Handle() != 0 {
		t.Error("Handle() should be zero after Detach()")
	}
	if err := mf.Release(); err != nil {
		t.Fatalf("Release() after Detach() failed: %v", err)
	}
	if api.Called("DeleteEnhMetaFile") {
		t.Error("Release() after Detach() must not delete the handle")
	}

	mf.Reattach(h)
	if err := mf.Release(); err != nil {
		t.Fatalf("Release() failed: %v", err)
	}
	if err := mf.Release(); err != nil {
		t.Fatalf("second Release() failed: %v", err)
	}
	if live := api.Live(); len(live) != 0 {
		t.Errorf("leaked resources: %v", live)
	}
}

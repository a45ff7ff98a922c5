//go:build windows

package clipboard

import (
	"runtime"

	"chemclip/pkg/emf"
	"chemclip/pkg/native"
)

// The clipboard is opened for the calling thread, so every session stays
// on one OS thread from open to close.

// CopyImageAsVector publishes imageBytes as an enhanced metafile only.
func CopyImageAsVector(imageBytes []byte, opts ...Option) error {
	return CopyMultiFormat(imageBytes, "", nil, opts...)
}

// CopyBinary publishes binary under the "CDX" format only.
func CopyBinary(binary []byte, opts ...Option) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	return NewPublisher(native.New(), opts...).PublishBinary(binary)
}

// CopyMultiFormat publishes the metafile built from imageBytes together
// with text and binary in one clipboard session.
func CopyMultiFormat(imageBytes []byte, text string, binary []byte, opts ...Option) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	api := native.New()
	mf, err := emf.Build(api, imageBytes)
	if err != nil {
		return err
	}
	return NewPublisher(api, opts...).Publish(mf, text, binary)
}

// Supported reports whether the rich clipboard entry points work here.
func Supported() bool { return true }

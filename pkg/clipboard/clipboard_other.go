//go:build !windows

package clipboard

import (
	"chemclip/pkg/errors"
)

// CopyImageAsVector is only available on Windows.
func CopyImageAsVector(imageBytes []byte, opts ...Option) error {
	return errors.UnsupportedPlatformError()
}

// CopyBinary is only available on Windows.
func CopyBinary(binary []byte, opts ...Option) error {
	return errors.UnsupportedPlatformError()
}

// CopyMultiFormat is only available on Windows.
func CopyMultiFormat(imageBytes []byte, text string, binary []byte, opts ...Option) error {
	return errors.UnsupportedPlatformError()
}

// Supported reports whether the rich clipboard entry points work here.
func Supported() bool { return false }

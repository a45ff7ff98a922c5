// Package clipboard publishes chemical structures to the Windows clipboard
// the way structure-drawing editors expect them: an enhanced metafile
// picture, the MOL text, and the CDX binary under the registered "CDX"
// format, all set inside one open/empty/close session so a paste target
// picks whichever representation it understands best.
//
// The entry points CopyImageAsVector, CopyBinary and CopyMultiFormat have
// the same signatures on every platform. Outside Windows they fail with an
// UnsupportedPlatform error before decoding or allocating anything.
package clipboard

import (
	"chemclip/pkg/config"

	atotto "github.com/atotto/clipboard"
)

// FormatCDX is the registered clipboard format name for CDX binaries.
const FormatCDX = config.FormatCDX

type options struct {
	binaryFormats []string
	observer      Observer
}

// Option configures a copy.
type Option func(*options)

// WithBinaryFormats publishes the binary payload under additional registered
// names (for example "ChemDraw Interchange Format"). "CDX" is always
// published first.
func WithBinaryFormats(names ...string) Option {
	return func(o *options) {
		o.binaryFormats = append(o.binaryFormats, names...)
	}
}

// WithObserver receives one Outcome per attempted format.
func WithObserver(fn Observer) Option {
	return func(o *options) {
		o.observer = fn
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.binaryFormats = config.NormalizeFormats(o.binaryFormats)
	return o
}

// CopyText places plain text on the clipboard on any platform.
func CopyText(text string) error {
	return atotto.WriteAll(text)
}

package clipboard

import (
	"chemclip/pkg/emf"
	"chemclip/pkg/errors"
	"chemclip/pkg/logger"
	"chemclip/pkg/native"
)

// Outcome describes what happened to one clipboard format during a
// publish. Err is nil when the format was set.
type Outcome struct {
	Format string
	ID     uint32
	Size   int
	Err    error
}

// Published reports whether the format made it onto the clipboard.
func (o Outcome) Published() bool { return o.Err == nil }

// Observer is called once per attempted format. Optional formats that fail
// are only visible here; they never fail the publish itself.
type Observer func(Outcome)

// Format names reported to observers for the standard formats.
const (
	FormatNameMetafile = "CF_ENHMETAFILE"
	FormatNameText     = "CF_UNICODETEXT"
)

// Publisher runs clipboard transactions against a native.Clipboard.
type Publisher struct {
	api      native.Clipboard
	formats  []string
	observer Observer
}

// NewPublisher returns a Publisher that publishes binaries under "CDX" and
// any extra names given through WithBinaryFormats.
func NewPublisher(api native.Clipboard, opts ...Option) *Publisher {
	o := buildOptions(opts)
	return &Publisher{
		api:      api,
		formats:  o.binaryFormats,
		observer: o.observer,
	}
}

func (p *Publisher) report(out Outcome) {
	log := logger.Component("clipboard")
	if out.Err != nil {
		log.Warn().Err(out.Err).Str("format", out.Format).Int("size", out.Size).Msg("format omitted")
	} else {
		log.Debug().Str("format", out.Format).Uint32("id", out.ID).Int("size", out.Size).Msg("format published")
	}
	if p.observer != nil {
		p.observer(out)
	}
}

// Publish replaces the clipboard contents with the metafile, plus text when
// non-empty and the binary when non-empty. The metafile is mandatory: if
// the clipboard cannot be opened or emptied, or refuses the metafile, the
// call fails and mf is released. Once the clipboard accepts mf it owns the
// handle. Text and binary failures are reported to the observer only.
func (p *Publisher) Publish(mf *emf.Metafile, text string, binary []byte) error {
	if mf.Handle() == 0 {
		return errors.InvalidContentError("no metafile to publish")
	}

	if err := p.open(); err != nil {
		discard(mf)
		return err
	}
	defer p.close()

	if err := p.api.EmptyClipboard(); err != nil {
		discard(mf)
		return errors.ClipboardUnavailableError(errors.ErrMsgEmptyClipboard, err)
	}

	h := mf.Detach()
	if err := p.api.SetClipboardData(native.CF_ENHMETAFILE, uintptr(h)); err != nil {
		mf.Reattach(h)
		discard(mf)
		p.report(Outcome{Format: FormatNameMetafile, ID: native.CF_ENHMETAFILE, Err: err})
		return errors.NativeResourceError("SetClipboardData(CF_ENHMETAFILE)", err)
	}
	p.report(Outcome{Format: FormatNameMetafile, ID: native.CF_ENHMETAFILE})

	if text != "" {
		p.publishText(text)
	}
	if len(binary) > 0 {
		p.publishBinary(binary)
	}
	return nil
}

// PublishBinary replaces the clipboard contents with binary under every
// configured binary format. Here the binary is the mandatory payload: the
// call fails if it is empty (without opening the clipboard) or if "CDX"
// could not be set. Extra format names stay optional.
func (p *Publisher) PublishBinary(binary []byte) error {
	if len(binary) == 0 {
		return errors.InvalidContentError(errors.ErrMsgEmptyBinary)
	}

	formats, err := p.register()
	if err != nil {
		return err
	}

	if err := p.open(); err != nil {
		return err
	}
	defer p.close()

	if err := p.api.EmptyClipboard(); err != nil {
		return errors.ClipboardUnavailableError(errors.ErrMsgEmptyClipboard, err)
	}

	for i, f := range formats {
		err := p.setBlock(f.id, binary)
		p.report(Outcome{Format: f.name, ID: f.id, Size: len(binary), Err: err})
		if err != nil && i == 0 {
			return err
		}
	}
	return nil
}

type binaryFormat struct {
	name string
	id   uint32
}

// register resolves every configured binary format name. Failing to
// register "CDX" is an error; extra names that fail are skipped.
func (p *Publisher) register() ([]binaryFormat, error) {
	out := make([]binaryFormat, 0, len(p.formats))
	for i, name := range p.formats {
		id, err := p.api.RegisterClipboardFormat(name)
		if err != nil {
			if i == 0 {
				return nil, errors.NativeResourceError("RegisterClipboardFormat("+name+")", err)
			}
			p.report(Outcome{Format: name, Err: err})
			continue
		}
		out = append(out, binaryFormat{name: name, id: id})
	}
	return out, nil
}

func (p *Publisher) open() error {
	if err := p.api.OpenClipboard(0); err != nil {
		return errors.ClipboardUnavailableError(errors.ErrMsgClipboardBusy, err)
	}
	return nil
}

func (p *Publisher) close() {
	if err := p.api.CloseClipboard(); err != nil {
		log := logger.Component("clipboard")
		log.Warn().Err(err).Msg("CloseClipboard failed")
	}
}

func (p *Publisher) publishText(text string) {
	data, err := EncodeUnicodeText(text)
	if err == nil {
		err = p.setBlock(native.CF_UNICODETEXT, data)
	}
	p.report(Outcome{Format: FormatNameText, ID: native.CF_UNICODETEXT, Size: len(data), Err: err})
}

func (p *Publisher) publishBinary(binary []byte) {
	for _, name := range p.formats {
		id, err := p.api.RegisterClipboardFormat(name)
		if err == nil {
			err = p.setBlock(id, binary)
		}
		p.report(Outcome{Format: name, ID: id, Size: len(binary), Err: err})
	}
}

// setBlock copies data into a movable global block and hands it to the
// clipboard. The block is freed unless the clipboard took it.
func (p *Publisher) setBlock(format uint32, data []byte) error {
	h, err := p.api.GlobalAlloc(native.GMEM_MOVEABLE, len(data))
	if err != nil {
		return errors.NativeResourceError("GlobalAlloc", err)
	}

	mem, err := p.api.GlobalLock(h, len(data))
	if err != nil {
		p.free(h)
		return errors.NativeResourceError("GlobalLock", err)
	}
	copy(mem, data)
	if err := p.api.GlobalUnlock(h); err != nil {
		p.free(h)
		return errors.NativeResourceError("GlobalUnlock", err)
	}

	if err := p.api.SetClipboardData(format, uintptr(h)); err != nil {
		p.free(h)
		return errors.NativeResourceError("SetClipboardData", err)
	}
	return nil
}

func (p *Publisher) free(h native.HGLOBAL) {
	if err := p.api.GlobalFree(h); err != nil {
		log := logger.Component("clipboard")
		log.Warn().Err(err).Msg("GlobalFree failed")
	}
}

// discard releases a metafile the clipboard never took.
func discard(mf *emf.Metafile) {
	if err := mf.Release(); err != nil {
		log := logger.Component("clipboard")
		log.Warn().Err(err).Msg("DeleteEnhMetaFile failed")
	}
}

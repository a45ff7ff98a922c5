// Package nativehost speaks the browser native-messaging protocol so a web
// structure editor can hand a CDX (and optionally a rendered image and MOL
// text) to the local clipboard.
//
// Each message in either direction is a 4-byte length in native byte order
// followed by that many bytes of UTF-8 JSON.
package nativehost

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"chemclip/pkg/logger"
)

// MaxMessageSize bounds an incoming message. Browsers cap host-bound
// messages well below this.
const MaxMessageSize = 64 << 20

// Response messages understood by the browser extension.
const (
	ErrMsgNoInput       = "No input"
	ErrMsgMissingCDX    = "Missing cdx field"
	ErrMsgInvalidBase64 = "Invalid base64"
)

// Request is the JSON body sent by the extension. The CDX may arrive under
// either "cdx" or "cdxBase64".
type Request struct {
	Cdx       string `json:"cdx,omitempty"`
	CdxBase64 string `json:"cdxBase64,omitempty"`
	Png       string `json:"png,omitempty"`
	Mol       string `json:"mol,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Copier is the clipboard side of the host.
type Copier interface {
	CopyBinary(binary []byte) error
	CopyMultiFormat(imageBytes []byte, text string, binary []byte) error
}

// ReadMessage reads one framed message. It returns io.EOF when r is
// exhausted before a new frame starts.
func ReadMessage(r io.Reader) ([]byte, error) {
	var size uint32
	if err := binary.Read(r, binary.NativeEndian, &size); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read message length: %w", err)
	}
	if size > MaxMessageSize {
		return nil, fmt.Errorf("message of %d bytes exceeds limit of %d", size, MaxMessageSize)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("failed to read message body: %w", err)
	}
	return body, nil
}

// WriteMessage marshals v and writes it as one framed message.
func WriteMessage(w io.Writer, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	frame := make([]byte, 4+len(body))
	binary.NativeEndian.PutUint32(frame, uint32(len(body)))
	copy(frame[4:], body)

	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

type Host struct {
	copier Copier
}

func New(copier Copier) *Host {
	return &Host{copier: copier}
}

// Serve answers every message on r until r is exhausted. A stream that
// ends before any message gets a single "No input" response. The returned
// error covers transport failures only; clipboard failures are reported to
// the browser in the response.
func (h *Host) Serve(r io.Reader, w io.Writer) error {
	log := logger.Component("nativehost")
	handled := 0

	for {
		body, err := ReadMessage(r)
		if err == io.EOF {
			if handled == 0 {
				return WriteMessage(w, Response{Error: ErrMsgNoInput})
			}
			return nil
		}
		if err != nil {
			log.Error().Err(err).Msg("failed to read message")
			if werr := WriteMessage(w, Response{Error: err.Error()}); werr != nil {
				return werr
			}
			return err
		}

		handled++
		resp := h.HandleMessage(body)
		log.Debug().Int("size", len(body)).Bool("success", resp.Success).Str("error", resp.Error).Msg("message handled")
		if err := WriteMessage(w, resp); err != nil {
			return err
		}
	}
}

// HandleMessage decodes one JSON body and handles it.
func (h *Host) HandleMessage(body []byte) Response {
	if len(body) == 0 {
		return Response{Error: ErrMsgNoInput}
	}
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return Response{Error: err.Error()}
	}
	return h.Handle(req)
}

// Handle copies the request to the clipboard. A CDX alone goes out through
// the binary-only path. With an image, the metafile, MOL text and CDX are
// published together.
func (h *Host) Handle(req Request) Response {
	encodedCDX := req.Cdx
	if encodedCDX == "" {
		encodedCDX = req.CdxBase64
	}
	if encodedCDX == "" && req.Png == "" {
		return Response{Error: ErrMsgMissingCDX}
	}

	var cdx, img []byte
	var err error
	if encodedCDX != "" {
		if cdx, err = decodeBase64(encodedCDX); err != nil {
			return Response{Error: ErrMsgInvalidBase64}
		}
	}
	if req.Png != "" {
		if img, err = decodeBase64(req.Png); err != nil {
			return Response{Error: ErrMsgInvalidBase64}
		}
	}

	if img == nil {
		if req.Mol != "" {
			log := logger.Component("nativehost")
			log.Debug().Msg("mol text ignored without an image")
		}
		err = h.copier.CopyBinary(cdx)
	} else {
		err = h.copier.CopyMultiFormat(img, req.Mol, cdx)
	}
	if err != nil {
		return Response{Error: err.Error()}
	}
	return Response{Success: true}
}

// decodeBase64 accepts padded and unpadded input and rejects payloads that
// decode to nothing.
func decodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(s)
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	return data, nil
}

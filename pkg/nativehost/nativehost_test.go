package nativehost

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"chemclip/pkg/errors"
)

type copyCall struct {
	image  []byte
	text   string
	binary []byte
	multi  bool
}

type fakeCopier struct {
	calls []copyCall
	err   error
}

func (f *fakeCopier) CopyBinary(binary []byte) error {
	f.calls = append(f.calls, copyCall{binary: binary})
	return f.err
}

func (f *fakeCopier) CopyMultiFormat(imageBytes []byte, text string, binary []byte) error {
	f.calls = append(f.calls, copyCall{image: imageBytes, text: text, binary: binary, multi: true})
	return f.err
}

func frame(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.NativeEndian, uint32(len(body))); err != nil {
		t.Fatalf("binary.Write() failed: %v", err)
	}
	buf.WriteString(body)
	return buf.Bytes()
}

func readResponses(t *testing.T, r io.Reader) []Response {
	t.Helper()
	var out []Response
	for {
		body, err := ReadMessage(r)
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("ReadMessage() failed: %v", err)
		}
		var resp Response
		if err := json.Unmarshal(body, &resp); err != nil {
			t.Fatalf("response is not JSON: %v", err)
		}
		out = append(out, resp)
	}
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestWriteMessage_Framing(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, Response{Success: true}); err != nil {
		t.Fatalf("WriteMessage() failed: %v", err)
	}

	want := `{"success":true}`
	got := buf.Bytes()
	if binary.NativeEndian.Uint32(got[:4]) != uint32(len(want)) {
		t.Errorf("length prefix = %d, want %d", binary.NativeEndian.Uint32(got[:4]), len(want))
	}
	if string(got[4:]) != want {
		t.Errorf("body = %s, want %s", got[4:], want)
	}
}

func TestReadMessage_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		eof   bool
	}{
		{"empty stream", nil, true},
		{"short length", []byte{1, 0}, false},
		{"short body", frame(t, `{"cdx":"AAAA"}`)[:8], false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadMessage(bytes.NewReader(tt.input))
			if tt.eof {
				if err != io.EOF {
					t.Errorf("ReadMessage() error = %v, want io.EOF", err)
				}
				return
			}
			if err == nil || err == io.EOF {
				t.Errorf("ReadMessage() error = %v, want a framing error", err)
			}
		})
	}
}

func TestReadMessage_TooLarge(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.NativeEndian, uint32(MaxMessageSize+1))

	_, err := ReadMessage(&buf)
	if err == nil || !strings.Contains(err.Error(), "exceeds limit") {
		t.Errorf("ReadMessage() error = %v, want size limit error", err)
	}
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name      string
		req       Request
		copyErr   error
		wantResp  Response
		wantCalls int
		wantMulti bool
	}{
		{
			name:      "cdx field",
			req:       Request{Cdx: b64("VjCD")},
			wantResp:  Response{Success: true},
			wantCalls: 1,
		},
		{
			name:      "cdxBase64 field",
			req:       Request{CdxBase64: b64("VjCD")},
			wantResp:  Response{Success: true},
			wantCalls: 1,
		},
		{
			name:      "unpadded base64",
			req:       Request{Cdx: base64.RawStdEncoding.EncodeToString([]byte("VjCD0"))},
			wantResp:  Response{Success: true},
			wantCalls: 1,
		},
		{
			name:      "cdx with mol but no image",
			req:       Request{Cdx: b64("VjCD"), Mol: "mol text"},
			wantResp:  Response{Success: true},
			wantCalls: 1,
		},
		{
			name:      "image with mol and cdx",
			req:       Request{Cdx: b64("VjCD"), Png: b64("png-bytes"), Mol: "mol text"},
			wantResp:  Response{Success: true},
			wantCalls: 1,
			wantMulti: true,
		},
		{
			name:     "missing cdx",
			req:      Request{Mol: "mol text"},
			wantResp: Response{Error: ErrMsgMissingCDX},
		},
		{
			name:     "invalid base64",
			req:      Request{Cdx: "!!!not base64!!!"},
			wantResp: Response{Error: ErrMsgInvalidBase64},
		},
		{
			name:     "invalid image base64",
			req:      Request{Cdx: b64("VjCD"), Png: "%%%"},
			wantResp: Response{Error: ErrMsgInvalidBase64},
		},
		{
			name:      "clipboard failure",
			req:       Request{Cdx: b64("VjCD")},
			copyErr:   errors.UnsupportedPlatformError(),
			wantResp:  Response{Error: errors.ErrMsgUnsupportedPlatform},
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			copier := &fakeCopier{err: tt.copyErr}
			resp := New(copier).Handle(tt.req)

			if resp != tt.wantResp {
				t.Errorf("Handle() = %+v, want %+v", resp, tt.wantResp)
			}
			if len(copier.calls) != tt.wantCalls {
				t.Fatalf("copier called %d times, want %d", len(copier.calls), tt.wantCalls)
			}
			if tt.wantCalls > 0 && copier.calls[0].multi != tt.wantMulti {
				t.Errorf("multi-format = %v, want %v", copier.calls[0].multi, tt.wantMulti)
			}
		})
	}
}

func TestHandle_PassesDecodedPayloads(t *testing.T) {
	copier := &fakeCopier{}
	New(copier).Handle(Request{Cdx: b64("VjCD0100"), Png: b64("image"), Mol: "CCO"})

	call := copier.calls[0]
	if string(call.binary) != "VjCD0100" || string(call.image) != "image" || call.text != "CCO" {
		t.Errorf("copier got %+v", call)
	}
}

func TestServe(t *testing.T) {
	var in bytes.Buffer
	in.Write(frame(t, `{"cdx":"`+b64("VjCD")+`"}`))
	in.Write(frame(t, `{}`))
	in.Write(frame(t, `not json`))

	copier := &fakeCopier{}
	var out bytes.Buffer
	if err := New(copier).Serve(&in, &out); err != nil {
		t.Fatalf("Serve() failed: %v", err)
	}

	responses := readResponses(t, &out)
	if len(responses) != 3 {
		t.Fatalf("got %d responses, want 3", len(responses))
	}
	if !responses[0].Success {
		t.Errorf("first response = %+v, want success", responses[0])
	}
	if responses[1].Error != ErrMsgMissingCDX {
		t.Errorf("second response = %+v, want missing cdx", responses[1])
	}
	if responses[2].Success || responses[2].Error == "" {
		t.Errorf("third response = %+v, want JSON error", responses[2])
	}
}

func TestServe_NoInput(t *testing.T) {
	var out bytes.Buffer
	if err := New(&fakeCopier{}).Serve(bytes.NewReader(nil), &out); err != nil {
		t.Fatalf("Serve() failed: %v", err)
	}

	responses := readResponses(t, &out)
	if len(responses) != 1 || responses[0].Error != ErrMsgNoInput {
		t.Errorf("responses = %+v, want single No input", responses)
	}
}

func TestServe_TruncatedFrame(t *testing.T) {
	in := bytes.NewReader(frame(t, `{"cdx":"AAAA"}`)[:6])
	var out bytes.Buffer

	if err := New(&fakeCopier{}).Serve(in, &out); err == nil {
		t.Error("Serve() should fail on a truncated frame")
	}
	responses := readResponses(t, &out)
	if len(responses) != 1 || responses[0].Success {
		t.Errorf("responses = %+v, want one failure", responses)
	}
}

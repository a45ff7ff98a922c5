package cmd

import (
	"os"

	"chemclip/pkg/clipboard"
	"chemclip/pkg/config"
	"chemclip/pkg/history"
	"chemclip/pkg/logger"
	"chemclip/pkg/nativehost"

	"github.com/spf13/cobra"
)

// interchangeFormat is the binary format name browser based ELNs read.
const interchangeFormat = "ChemDraw Interchange Format"

var nativeHostCmd = &cobra.Command{
	Use:   "native-host [origin]",
	Short: "Run as a browser native-messaging host",
	Long: `Serve native-messaging requests from a browser extension on stdin/stdout.
Each request carries a base64 CDX ("cdx" or "cdxBase64") and optionally a base64
image ("png") and MOL text ("mol"). The CDX is published under "CDX" and
"` + interchangeFormat + `"; with an image the metafile and text are published
in the same clipboard session. Logs go to stderr; stdout carries only frames.

The browser passes the extension origin (and on Windows a parent window handle)
as arguments; they are logged and otherwise ignored.`,
	Args: cobra.ArbitraryArgs,
	FParseErrWhitelist: cobra.FParseErrWhitelist{
		UnknownFlags: true,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.Component("nativehost")
		log.Debug().Strs("args", args).Msg("native host started")

		s, err := newSession(cmd)
		if err != nil {
			// Still answer the browser so the extension can show the reason.
			_ = nativehost.WriteMessage(os.Stdout, nativehost.Response{Error: err.Error()})
			return err
		}
		defer s.Close()
		s.cfg.Clipboard.BinaryFormats = config.NormalizeFormats(append(s.cfg.Clipboard.BinaryFormats, interchangeFormat))

		return nativehost.New(hostCopier{s: s}).Serve(os.Stdin, os.Stdout)
	},
}

// hostCopier publishes host requests through the session so they are
// retried and journaled like CLI copies.
type hostCopier struct {
	s *session
}

func (c hostCopier) CopyBinary(binary []byte) error {
	_, err := c.s.publish(history.Entry{
		Operation:   history.OperationHost,
		BinaryBytes: len(binary),
	}, func(opts ...clipboard.Option) error {
		return clipboard.CopyBinary(binary, opts...)
	})
	return err
}

func (c hostCopier) CopyMultiFormat(imageBytes []byte, text string, binary []byte) error {
	_, err := c.s.publish(history.Entry{
		Operation:   history.OperationHost,
		ImageBytes:  len(imageBytes),
		TextBytes:   len(text),
		BinaryBytes: len(binary),
	}, func(opts ...clipboard.Option) error {
		return clipboard.CopyMultiFormat(imageBytes, text, binary, opts...)
	})
	return err
}

func init() {
	addPublishFlags(nativeHostCmd)
}

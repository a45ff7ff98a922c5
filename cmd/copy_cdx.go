package cmd

import (
	"strconv"
	"strings"

	"chemclip/pkg/clipboard"
	"chemclip/pkg/errors"
	"chemclip/pkg/history"

	"github.com/spf13/cobra"
)

var copyCDXCmd = &cobra.Command{
	Use:   "copy-cdx <file.cdx>",
	Short: "Copy a CDX binary to the clipboard",
	Long: `Place a CDX document on the Windows clipboard under the registered "CDX"
format, plus any extra names from the active profile or --binary-format.
Nothing else is published, so editors that only read CDX get exactly that.
Use "-" to read the document from stdin.`,
	Example: `  # Copy for ChemDraw
  chemclip copy-cdx caffeine.cdx

  # Also publish under the name browser based ELNs look for
  chemclip copy-cdx caffeine.cdx --binary-format "ChemDraw Interchange Format"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cdx, err := readInput(args[0])
		if err != nil {
			return err
		}
		if len(cdx) == 0 {
			return errors.InvalidContentError(errors.ErrMsgEmptyBinary)
		}

		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if IsDryRun() {
			PrintDryRunAction("publish binary", map[string]string{
				"file":    args[0],
				"size":    strconv.Itoa(len(cdx)),
				"formats": strings.Join(s.cfg.Clipboard.BinaryFormats, ", "),
			})
			return nil
		}

		entry, err := s.publish(history.Entry{
			Operation:   history.OperationCDX,
			BinaryBytes: len(cdx),
		}, func(opts ...clipboard.Option) error {
			return clipboard.CopyBinary(cdx, opts...)
		})
		if err != nil {
			return err
		}
		return NewOutputWriter(outputFormat).WritePublishResult(entry)
	},
}

func init() {
	addPublishFlags(copyCDXCmd)
}

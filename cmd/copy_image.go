package cmd

import (
	"strconv"

	"chemclip/pkg/clipboard"
	"chemclip/pkg/emf"
	"chemclip/pkg/history"
	"chemclip/pkg/raster"

	"github.com/spf13/cobra"
)

var copyImageCmd = &cobra.Command{
	Use:   "copy-image <image>",
	Short: "Copy an image to the clipboard as an enhanced metafile",
	Long: `Decode a raster image (PNG, JPEG, GIF, BMP, TIFF or WebP) and place it on the
Windows clipboard as an enhanced metafile only. Office documents and ELNs paste
it as a scalable picture. Use "-" to read the image from stdin.`,
	Example: `  # Copy a rendered structure
  chemclip copy-image benzene.png

  # Retry while another application holds the clipboard
  chemclip copy-image benzene.png --retries 5 --retry-delay 200ms`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := readInput(args[0])
		if err != nil {
			return err
		}

		if IsDryRun() {
			return dryRunImage(args[0], img, nil)
		}

		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		entry, err := s.publish(history.Entry{
			Operation:  history.OperationImage,
			ImageBytes: len(img),
		}, func(opts ...clipboard.Option) error {
			return clipboard.CopyImageAsVector(img, opts...)
		})
		if err != nil {
			return err
		}
		return NewOutputWriter(outputFormat).WritePublishResult(entry)
	},
}

// dryRunImage decodes the image so a bad file is still reported, then
// prints what would be published.
func dryRunImage(path string, img []byte, extra map[string]string) error {
	decoded, format, err := raster.Decode(img)
	if err != nil {
		return err
	}
	bounds := decoded.Bounds()
	frame := emf.HimetricBounds(bounds.Dx(), bounds.Dy())

	details := map[string]string{
		"image":    path,
		"format":   format,
		"pixels":   strconv.Itoa(bounds.Dx()) + "x" + strconv.Itoa(bounds.Dy()),
		"himetric": strconv.Itoa(int(frame.Right)) + "x" + strconv.Itoa(int(frame.Bottom)),
	}
	for k, v := range extra {
		details[k] = v
	}
	PrintDryRunAction("publish "+clipboard.FormatNameMetafile, details)
	return nil
}

func init() {
	addPublishFlags(copyImageCmd)
}

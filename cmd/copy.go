package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"chemclip/pkg/clipboard"
	"chemclip/pkg/errors"
	"chemclip/pkg/history"
	"chemclip/pkg/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	copyMolFile      string
	copyText         string
	copyCDXFile      string
	copyTextFallback bool
)

var copyCmd = &cobra.Command{
	Use:   "copy <image>",
	Short: "Copy a structure as metafile, text and CDX in one go",
	Long: `Publish a structure in every representation at once: the image as an
enhanced metafile, MOL (or other) text as Unicode text, and the CDX binary under
its registered names. The metafile is required; if the text or CDX cannot be
set they are reported as omitted and the picture is still pasted.`,
	Example: `  # Picture, molfile and CDX together
  chemclip copy benzene.png --mol benzene.mol --cdx benzene.cdx

  # Picture plus a SMILES string
  chemclip copy benzene.png --text "c1ccccc1"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if copyMolFile != "" && cmd.Flags().Changed("text") {
			return errors.ValidationError("use either --mol or --text, not both")
		}

		img, err := readInput(args[0])
		if err != nil {
			return err
		}

		text := copyText
		if copyMolFile != "" {
			data, err := readInput(copyMolFile)
			if err != nil {
				return err
			}
			text = string(data)
		}

		var cdx []byte
		if copyCDXFile != "" {
			if cdx, err = readInput(copyCDXFile); err != nil {
				return err
			}
		}

		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if IsDryRun() {
			extra := map[string]string{
				"text":   strconv.Itoa(len(text)) + " chars",
				"binary": strconv.Itoa(len(cdx)) + " bytes as " + strings.Join(s.cfg.Clipboard.BinaryFormats, ", "),
			}
			return dryRunImage(args[0], img, extra)
		}

		entry, err := s.publish(history.Entry{
			Operation:   history.OperationMulti,
			ImageBytes:  len(img),
			TextBytes:   len(text),
			BinaryBytes: len(cdx),
		}, func(opts ...clipboard.Option) error {
			return clipboard.CopyMultiFormat(img, text, cdx, opts...)
		})
		if err != nil && copyTextFallback && text != "" && errors.IsExitCode(err, errors.ExitCodeUnsupportedPlatform) {
			return fallbackToText(s, text)
		}
		if err != nil {
			return err
		}
		return NewOutputWriter(outputFormat).WritePublishResult(entry)
	},
}

// fallbackToText copies only the text where rich formats are unavailable.
func fallbackToText(s *session, text string) error {
	logger.Warn().Msg("rich clipboard formats unavailable, copying text only")
	if err := clipboard.CopyText(text); err != nil {
		return errors.ClipboardUnavailableError("failed to copy text", err)
	}
	entry := s.record(history.Entry{
		Operation: history.OperationMulti,
		Published: []string{"text/plain"},
		TextBytes: len(text),
	})
	return NewOutputWriter(outputFormat).WritePublishResult(entry)
}

var copyTextCmd = &cobra.Command{
	Use:   "copy-text <file>",
	Short: "Copy a text file (MOL, SMILES, ...) to the clipboard as plain text",
	Long: `Copy the contents of a text file to the clipboard as plain text. Works on
every platform the system clipboard is reachable from. Use "-" for stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args[0])
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return errors.InvalidContentError("nothing to copy")
		}

		if IsDryRun() {
			PrintDryRun("Would copy %d bytes of text from %s", len(data), args[0])
			return nil
		}

		if err := clipboard.CopyText(string(data)); err != nil {
			return errors.ClipboardUnavailableError("failed to copy text", err)
		}
		out := NewOutputWriter(outputFormat)
		if out.IsStructured() {
			return out.Write(map[string]any{"copied_bytes": len(data)})
		}
		_, _ = color.New(color.FgGreen).Print("✓ ")
		fmt.Printf("Copied %d bytes of text\n", len(data))
		return nil
	},
}

func init() {
	addPublishFlags(copyCmd)
	copyCmd.Flags().StringVar(&copyMolFile, "mol", "", "File whose contents are published as Unicode text (MOL, SDF, SMILES)")
	copyCmd.Flags().StringVar(&copyText, "text", "", "Text to publish as Unicode text")
	copyCmd.Flags().StringVar(&copyCDXFile, "cdx", "", "CDX file to publish under the registered binary formats")
	copyCmd.Flags().BoolVar(&copyTextFallback, "text-fallback", false, "Copy only the text when rich formats are unsupported on this platform")
}

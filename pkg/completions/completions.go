package completions

import (
	"fmt"
	"strings"

	"chemclip/pkg/config"

	"github.com/spf13/cobra"
)

// File extensions offered for each kind of input file.
var (
	ImageExtensions = []string{"png", "jpg", "jpeg", "gif", "bmp", "tif", "tiff", "webp"}
	CDXExtensions   = []string{"cdx"}
	TextExtensions  = []string{"mol", "sdf", "txt", "smi"}
)

type Completer struct {
	loadConfig func() (*config.Config, error)
}

func NewCompleter() *Completer {
	return &Completer{
		loadConfig: func() (*config.Config, error) { return config.Load() },
	}
}

func (c *Completer) CompleteProfileNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := c.loadConfig()
	if err != nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}

	results := []string{}
	for _, p := range cfg.Profiles {
		desc := strings.Join(p.Clipboard.BinaryFormats, ", ")
		if desc == "" {
			desc = config.FormatCDX
		}
		results = append(results, fmt.Sprintf("%s\t%s", p.Name, desc))
	}

	return c.filterPrefix(results, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteBinaryFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	formats := []string{
		"CDX\tRegistered ChemDraw binary format",
		"ChemDraw Interchange Format\tName used by browser based ELNs",
	}
	return c.filterPrefix(formats, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteLogLevel(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	levels := []string{"trace", "debug", "info", "warn", "error", "fatal", "panic"}
	return c.filterPrefix(levels, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteOutputFormat(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	formats := []string{"table", "json", "yaml"}
	results := c.filterPrefix(formats, toComplete)

	for i, format := range results {
		results[i] = fmt.Sprintf("%s\t%s", format, getFormatDescription(format))
	}

	return results, cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteOperation(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	operations := []string{
		"copy-image\tMetafile only",
		"copy-cdx\tBinary only",
		"copy\tMetafile, text and binary",
		"native-host\tBrowser extension requests",
	}
	return c.filterPrefix(operations, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// FileExtensions completes files with one of the given extensions.
func FileExtensions(exts []string) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return exts, cobra.ShellCompDirectiveFilterFileExt
	}
}

func (c *Completer) filterPrefix(items []string, prefix string) []string {
	var result []string
	for _, item := range items {
		itemName := strings.Split(item, "\t")[0]
		if strings.HasPrefix(strings.ToLower(itemName), strings.ToLower(prefix)) {
			result = append(result, item)
		}
	}
	return result
}

func getFormatDescription(format string) string {
	switch format {
	case "table":
		return "Human readable table"
	case "json":
		return "Indented JSON"
	case "yaml":
		return "YAML document"
	default:
		return ""
	}
}

func RegisterCompletions(rootCmd *cobra.Command) {
	completer := NewCompleter()

	rootCmd.RegisterFlagCompletionFunc("profile", completer.CompleteProfileNames)
	rootCmd.RegisterFlagCompletionFunc("log-level", completer.CompleteLogLevel)
	rootCmd.RegisterFlagCompletionFunc("format", completer.CompleteOutputFormat)

	copyImageCmd, _, _ := rootCmd.Find([]string{"copy-image"})
	if copyImageCmd != nil && copyImageCmd != rootCmd {
		copyImageCmd.ValidArgsFunction = FileExtensions(ImageExtensions)
	}

	copyCDXCmd, _, _ := rootCmd.Find([]string{"copy-cdx"})
	if copyCDXCmd != nil && copyCDXCmd != rootCmd {
		copyCDXCmd.ValidArgsFunction = FileExtensions(CDXExtensions)
		copyCDXCmd.RegisterFlagCompletionFunc("binary-format", completer.CompleteBinaryFormats)
	}

	copyCmd, _, _ := rootCmd.Find([]string{"copy"})
	if copyCmd != nil && copyCmd != rootCmd {
		copyCmd.ValidArgsFunction = FileExtensions(ImageExtensions)
		copyCmd.RegisterFlagCompletionFunc("cdx", FileExtensions(CDXExtensions))
		copyCmd.RegisterFlagCompletionFunc("mol", FileExtensions(TextExtensions))
		copyCmd.RegisterFlagCompletionFunc("binary-format", completer.CompleteBinaryFormats)
	}

	copyTextCmd, _, _ := rootCmd.Find([]string{"copy-text"})
	if copyTextCmd != nil && copyTextCmd != rootCmd {
		copyTextCmd.ValidArgsFunction = FileExtensions(TextExtensions)
	}

	historyCmd, _, _ := rootCmd.Find([]string{"history"})
	if historyCmd != nil && historyCmd != rootCmd {
		historyCmd.RegisterFlagCompletionFunc("operation", completer.CompleteOperation)
	}

	profilesUseCmd, _, _ := rootCmd.Find([]string{"config", "profiles", "use"})
	if profilesUseCmd != nil && profilesUseCmd != rootCmd {
		profilesUseCmd.RegisterFlagCompletionFunc("name", completer.CompleteProfileNames)
	}
}

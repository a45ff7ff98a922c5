package cmd

import (
	"fmt"
	"strings"
	"time"

	"chemclip/pkg/config"
	"chemclip/pkg/errors"
	"chemclip/pkg/history"
	"chemclip/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	historyLimit     int
	historyOperation string
	historyFailed    bool
	historySince     time.Duration
	historyOlderThan time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show what was published to the clipboard",
	Long: `Inspect the local journal of clipboard publishes. Each entry lists the formats
that were set and the optional formats that were omitted, so a paste target that
"did not get the CDX" can be checked after the fact.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyListCmd.RunE(cmd, args)
	},
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent entries",
	Example: `  # Last 20 entries
  chemclip history list

  # Failed native-host requests from the last hour
  chemclip history list --operation native-host --failed --since 1h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openHistory()
		if err != nil {
			return err
		}
		defer m.Close()

		filter := history.Filter{
			Operation:  historyOperation,
			FailedOnly: historyFailed,
			Limit:      historyLimit,
		}
		if historySince > 0 {
			filter.Since = time.Now().Add(-historySince)
		}

		entries, err := m.List(filter)
		if err != nil {
			return errors.Wrap(err, errors.ErrMsgHistoryFailed)
		}
		return NewOutputWriter(outputFormat).WriteEntries(entries)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openHistory()
		if err != nil {
			return err
		}
		defer m.Close()

		entry, err := findEntry(m, args[0])
		if err != nil {
			return err
		}

		out := NewOutputWriter(outputFormat)
		if out.IsStructured() {
			return out.Write(NewEntryView(*entry))
		}

		fmt.Printf("ID:        %s\n", entry.ID)
		fmt.Printf("Time:      %s\n", entry.CreatedAt.Local().Format(time.RFC3339))
		fmt.Printf("Operation: %s\n", entry.Operation)
		fmt.Printf("Published: %s\n", joinOrDash(entry.Published))
		fmt.Printf("Omitted:   %s\n", joinOrDash(entry.Omitted))
		fmt.Printf("Image:     %s\n", FormatSize(entry.ImageBytes))
		fmt.Printf("Text:      %s\n", FormatSize(entry.TextBytes))
		fmt.Printf("Binary:    %s\n", FormatSize(entry.BinaryBytes))
		if entry.Failed() {
			fmt.Printf("Error:     %s\n", entry.Error)
		}
		return nil
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyOlderThan <= 0 {
			return errors.ValidationError("--older-than must be positive")
		}

		m, err := openHistory()
		if err != nil {
			return err
		}
		defer m.Close()

		cutoff := time.Now().Add(-historyOlderThan)
		if err := RequireConfirmation("delete history entries", map[string]string{
			"older than": cutoff.Format(time.RFC3339),
		}); err != nil {
			return err
		}
		if IsDryRun() {
			return nil
		}

		removed, err := m.Prune(cutoff)
		if err != nil {
			return errors.Wrap(err, errors.ErrMsgHistoryFailed)
		}
		logger.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("history pruned")
		fmt.Printf("Removed %d entries.\n", removed)
		return nil
	},
}

var historyInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show journal location and counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(profileFlag)
		if err != nil {
			return err
		}
		m, err := openHistory()
		if err != nil {
			return err
		}
		defer m.Close()

		info, err := m.GetInfo()
		if err != nil {
			return errors.Wrap(err, errors.ErrMsgHistoryFailed)
		}
		info["path"] = cfg.History.Path
		info["enabled"] = cfg.History.IsEnabled()

		out := NewOutputWriter(outputFormat)
		if out.IsStructured() {
			return out.Write(info)
		}
		fmt.Printf("Path:    %s\n", cfg.History.Path)
		fmt.Printf("Enabled: %v\n", cfg.History.IsEnabled())
		fmt.Printf("Entries: %v (%v failed)\n", info["entries_count"], info["failed_count"])
		if oldest, ok := info["oldest_entry"].(time.Time); ok && !oldest.IsZero() {
			fmt.Printf("Oldest:  %s\n", oldest.Local().Format(time.RFC3339))
		}
		return nil
	},
}

func openHistory() (*history.Manager, error) {
	cfg, err := config.Load(profileFlag)
	if err != nil {
		return nil, err
	}
	m, err := history.NewManager(cfg.History.Path)
	if err != nil {
		return nil, historyOpenError(cfg.History.Path, err)
	}
	return m, nil
}

func historyOpenError(path string, err error) *errors.Error {
	e := errors.NewWithSuggestion(errors.ExitCodeFileOperation,
		fmt.Sprintf("%s: %s", errors.ErrMsgHistoryFailed, path),
		"Check history.path in the config file or set CHEMCLIP_HISTORY_PATH.\nSet CHEMCLIP_HISTORY_ENABLED=false to publish without a journal.")
	e.Underlying = err
	return e
}

// findEntry accepts a full id or the short prefix shown by list.
func findEntry(m *history.Manager, id string) (*history.Entry, error) {
	entry, err := m.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrMsgHistoryFailed)
	}
	if entry != nil {
		return entry, nil
	}

	entries, err := m.List(history.Filter{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrMsgHistoryFailed)
	}
	var match *history.Entry
	for i := range entries {
		if strings.HasPrefix(entries[i].ID, id) {
			if match != nil {
				return nil, errors.ValidationError(fmt.Sprintf("id prefix %q is ambiguous", id))
			}
			match = &entries[i]
		}
	}
	if match == nil {
		return nil, errors.ValidationError(fmt.Sprintf("no history entry %q", id))
	}
	return match, nil
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func init() {
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of entries (0 for all)")
	historyListCmd.Flags().StringVar(&historyOperation, "operation", "", "Only entries for this operation (copy-image, copy-cdx, copy, native-host)")
	historyListCmd.Flags().BoolVar(&historyFailed, "failed", false, "Only failed publishes")
	historyListCmd.Flags().DurationVar(&historySince, "since", 0, "Only entries newer than this (e.g., 1h, 24h)")
	historyCmd.Flags().AddFlagSet(historyListCmd.Flags())

	historyPruneCmd.Flags().DurationVar(&historyOlderThan, "older-than", 30*24*time.Hour, "Delete entries older than this")
}

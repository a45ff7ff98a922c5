package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"chemclip/pkg/history"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatTable is the default human-readable format
	FormatTable OutputFormat = "table"
	// FormatJSON outputs as JSON
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs as YAML
	FormatYAML OutputFormat = "yaml"
)

// OutputWriter handles structured output formatting
type OutputWriter struct {
	format OutputFormat
	writer io.Writer
}

// NewOutputWriter creates a new output writer with the specified format
func NewOutputWriter(format string) *OutputWriter {
	f := OutputFormat(format)
	if f != FormatJSON && f != FormatYAML {
		f = FormatTable // default
	}
	return &OutputWriter{
		format: f,
		writer: os.Stdout,
	}
}

// SetWriter sets a custom writer (used in tests)
func (w *OutputWriter) SetWriter(writer io.Writer) {
	w.writer = writer
}

// GetFormat returns the current format
func (w *OutputWriter) GetFormat() OutputFormat {
	return w.format
}

// IsStructured returns true if the format is JSON or YAML
func (w *OutputWriter) IsStructured() bool {
	return w.format == FormatJSON || w.format == FormatYAML
}

// Write outputs the data in the configured format
func (w *OutputWriter) Write(data interface{}) error {
	switch w.format {
	case FormatJSON:
		encoder := json.NewEncoder(w.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case FormatYAML:
		encoder := yaml.NewEncoder(w.writer)
		defer encoder.Close()
		return encoder.Encode(data)
	default:
		// Table format is handled by individual commands
		return nil
	}
}

// ValidFormats returns a list of valid output formats
func ValidFormats() []string {
	return []string{"table", "json", "yaml"}
}

func FormatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("02/01 15:04:05")
}

// FormatSize renders a byte count the way the history table shows it.
func FormatSize(n int) string {
	switch {
	case n <= 0:
		return "-"
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KiB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1024*1024))
	}
}

// EntryView is the structured form of a history entry.
type EntryView struct {
	ID          string    `json:"id" yaml:"id"`
	Operation   string    `json:"operation" yaml:"operation"`
	Published   []string  `json:"published" yaml:"published"`
	Omitted     []string  `json:"omitted,omitempty" yaml:"omitted,omitempty"`
	ImageBytes  int       `json:"image_bytes,omitempty" yaml:"image_bytes,omitempty"`
	TextBytes   int       `json:"text_bytes,omitempty" yaml:"text_bytes,omitempty"`
	BinaryBytes int       `json:"binary_bytes,omitempty" yaml:"binary_bytes,omitempty"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

func NewEntryView(e history.Entry) EntryView {
	published := e.Published
	if published == nil {
		published = []string{}
	}
	return EntryView{
		ID:          e.ID,
		Operation:   e.Operation,
		Published:   published,
		Omitted:     e.Omitted,
		ImageBytes:  e.ImageBytes,
		TextBytes:   e.TextBytes,
		BinaryBytes: e.BinaryBytes,
		Error:       e.Error,
		CreatedAt:   e.CreatedAt,
	}
}

// WritePublishResult reports a finished publish. Omitted formats are
// called out in yellow so a missing CDX is hard to overlook.
func (w *OutputWriter) WritePublishResult(e history.Entry) error {
	if w.IsStructured() {
		return w.Write(NewEntryView(e))
	}

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	_, _ = green.Fprint(w.writer, "✓ ")
	fmt.Fprintf(w.writer, "Published %s\n", strings.Join(e.Published, ", "))
	for _, name := range e.Omitted {
		_, _ = yellow.Fprint(w.writer, "! ")
		fmt.Fprintf(w.writer, "Omitted %s\n", name)
	}
	return nil
}

// WriteEntries renders history entries as a table or structured list.
func (w *OutputWriter) WriteEntries(entries []history.Entry) error {
	if w.IsStructured() {
		views := make([]EntryView, 0, len(entries))
		for _, e := range entries {
			views = append(views, NewEntryView(e))
		}
		return w.Write(views)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w.writer, "No history entries.")
		return nil
	}

	red := color.New(color.FgRed)
	fmt.Fprintf(w.writer, "%-8s  %-14s  %-11s  %-10s  %s\n", "ID", "TIME", "OPERATION", "SIZE", "FORMATS")
	for _, e := range entries {
		size := e.ImageBytes + e.TextBytes + e.BinaryBytes
		fmt.Fprintf(w.writer, "%-8s  %-14s  %-11s  %-10s  ", shortID(e.ID), FormatTimestamp(e.CreatedAt), e.Operation, FormatSize(size))
		if e.Failed() {
			_, _ = red.Fprintln(w.writer, e.Error)
			continue
		}
		fmt.Fprintln(w.writer, strings.Join(e.Published, ", "))
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

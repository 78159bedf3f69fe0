// Package cliout formats the results of the slotbox admin commands for
// terminals and for scripts.
package cliout

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sagarc03/slotbox"
)

// Formatter formats results for output.
type Formatter interface {
	FormatList(w io.Writer, result slotbox.ListResult) error
	FormatIndex(w io.Writer, indexed int) error
	FormatCheck(w io.Writer, report slotbox.CheckReport) error
	FormatError(w io.Writer, err error) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatList formats a ledger page as a table.
func (f *HumanFormatter) FormatList(w io.Writer, result slotbox.ListResult) error {
	if len(result.Items) == 0 {
		_, _ = fmt.Fprintln(w, "No uploads found")
		return nil
	}

	maxNameLen := 4 // "NAME"
	for i := range result.Items {
		if len(result.Items[i].Name) > maxNameLen {
			maxNameLen = len(result.Items[i].Name)
		}
	}
	if maxNameLen > 60 {
		maxNameLen = 60
	}

	_, _ = fmt.Fprintf(w, "%-*s  %10s  %-24s  %s\n", maxNameLen, "NAME", "SIZE", "TYPE", "UPLOADED")
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s\n",
		strings.Repeat("-", maxNameLen), strings.Repeat("-", 10), strings.Repeat("-", 24), strings.Repeat("-", 19))

	var total int64
	for i := range result.Items {
		item := &result.Items[i]
		total += item.SizeBytes

		name := item.Name
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}
		ct := item.ContentType
		if len(ct) > 24 {
			ct = ct[:21] + "..."
		}
		_, _ = fmt.Fprintf(w, "%-*s  %10s  %-24s  %s\n",
			maxNameLen,
			name,
			formatSize(item.SizeBytes),
			ct,
			item.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}

	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "\n%d upload(s) (%s total)\n", len(result.Items), formatSize(total))
	}

	if result.NextCursor != "" {
		_, _ = fmt.Fprintf(w, "Next page: use --cursor %q\n", result.NextCursor)
	}

	return nil
}

// FormatIndex reports how many objects were recorded in the ledger.
func (f *HumanFormatter) FormatIndex(w io.Writer, indexed int) error {
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "Indexed %d object(s)\n", indexed)
	}
	return nil
}

// FormatCheck lists every inconsistent entry, grouped by kind.
func (f *HumanFormatter) FormatCheck(w io.Writer, report slotbox.CheckReport) error {
	if report.Clean() {
		if !f.Quiet {
			_, _ = fmt.Fprintln(w, "Storage is consistent")
		}
		return nil
	}

	section := func(title string, names []string) {
		if len(names) == 0 {
			return
		}
		_, _ = fmt.Fprintf(w, "%s (%d):\n", title, len(names))
		for _, n := range names {
			_, _ = fmt.Fprintf(w, "  %s\n", n)
		}
	}

	section("Objects without metadata", report.MissingMetadata)
	section("Metadata without objects", report.OrphanSidecars)
	section("Stale staging files", report.StaleStaging)

	if report.Repaired > 0 {
		_, _ = fmt.Fprintf(w, "Removed %d entr%s\n", report.Repaired, plural(report.Repaired, "y", "ies"))
	}

	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatList formats a ledger page as JSON.
func (f *JSONFormatter) FormatList(w io.Writer, result slotbox.ListResult) error {
	if result.Items == nil {
		result.Items = []slotbox.Upload{}
	}
	return writeJSON(w, result)
}

// FormatIndex formats the index count as JSON.
func (f *JSONFormatter) FormatIndex(w io.Writer, indexed int) error {
	output := struct {
		Indexed int `json:"indexed"`
	}{
		Indexed: indexed,
	}
	return writeJSON(w, output)
}

// FormatCheck formats a check report as JSON.
func (f *JSONFormatter) FormatCheck(w io.Writer, report slotbox.CheckReport) error {
	output := struct {
		slotbox.CheckReport
		Clean bool `json:"clean"`
	}{
		CheckReport: report,
		Clean:       report.Clean(),
	}
	return writeJSON(w, output)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

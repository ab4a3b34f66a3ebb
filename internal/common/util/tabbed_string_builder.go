package util

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// TabbedStringBuilder wraps a *tabwriter.Writer for building tab-aligned strings.
// The underlying writer is a strings.Builder, which never errors, so callers get a
// simpler interface than tabwriter's without error handling.
type TabbedStringBuilder struct {
	sb     *strings.Builder
	writer *tabwriter.Writer
}

// NewTabbedStringBuilder creates a new TabbedStringBuilder. All parameters are equivalent to those defined in tabwriter.NewWriter
func NewTabbedStringBuilder(minwidth, tabwidth, padding int, padchar byte, flags uint) *TabbedStringBuilder {
	sb := &strings.Builder{}
	return &TabbedStringBuilder{
		sb:     sb,
		writer: tabwriter.NewWriter(sb, minwidth, tabwidth, padding, padchar, flags),
	}
}

// Writef formats according to a format specifier and writes to the underlying writer
func (t *TabbedStringBuilder) Writef(format string, a ...any) {
	// strings.Builder never errors
	_, _ = fmt.Fprintf(t.writer, format, a...)
}

// String returns the accumulated string, flushing the underlying writer first.
func (t *TabbedStringBuilder) String() string {
	_ = t.writer.Flush()
	return t.sb.String()
}

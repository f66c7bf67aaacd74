package output

import (
	"fmt"
	"io"
	"strings"
)

// Format represents the output format.
type Format string

const (
	FormatPlain Format = "plain"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatPlain, FormatJSON, FormatYAML, FormatTable}

// ParseFormat validates a format name, case-insensitively. Empty means
// plain.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatPlain, nil
	}
	f := Format(strings.ToLower(s))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (want plain, json, yaml or table)", s)
}

// Formatter formats data for output.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// Plainer is implemented by results that have a human-readable form.
type Plainer interface {
	Plain() string
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatTable:
		return &TableFormatter{}
	default:
		return &PlainFormatter{}
	}
}

// PlainFormatter writes the Plain form of a result, or its %v form.
type PlainFormatter struct{}

// Format writes data followed by a newline.
func (f *PlainFormatter) Format(w io.Writer, data any) error {
	var s string
	switch v := data.(type) {
	case nil:
		return nil
	case Plainer:
		s = v.Plain()
	case string:
		s = v
	default:
		s = fmt.Sprint(v)
	}
	_, err := fmt.Fprintln(w, s)
	return err
}

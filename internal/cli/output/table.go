package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Tabular is implemented by results that render as rows.
type Tabular interface {
	Headers() []string
	Rows() [][]string
}

// TableFormatter aligns Tabular results into columns. Other results are
// written in plain form.
type TableFormatter struct {
	NoHeaders bool
}

// Format renders data as a table.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	t, ok := data.(Tabular)
	if !ok {
		return (&PlainFormatter{}).Format(w, data)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !f.NoHeaders {
		fmt.Fprintln(tw, strings.Join(t.Headers(), "\t"))
	}
	for _, row := range t.Rows() {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

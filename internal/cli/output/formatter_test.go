package output

import (
	"bytes"
	"testing"
)

type health struct {
	Status string `json:"status" yaml:"status"`
	Keys   int    `json:"keys" yaml:"keys"`
}

func (h health) Plain() string { return "status: " + h.Status }

func (h health) Headers() []string { return []string{"STATUS", "KEYS"} }

func (h health) Rows() [][]string { return [][]string{{h.Status, "12"}} }

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatPlain, false},
		{"plain", FormatPlain, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"table", FormatTable, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatters(t *testing.T) {
	h := health{Status: "ok", Keys: 12}

	tests := []struct {
		format Format
		data   any
		want   string
	}{
		{FormatPlain, h, "status: ok\n"},
		{FormatPlain, "PONG", "PONG\n"},
		{FormatPlain, 42, "42\n"},
		{FormatPlain, nil, ""},
		{FormatJSON, h, "{\n  \"status\": \"ok\",\n  \"keys\": 12\n}\n"},
		{FormatYAML, h, "status: ok\nkeys: 12\n"},
		{FormatTable, h, "STATUS  KEYS\nok      12\n"},
		{FormatTable, "PONG", "PONG\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := NewFormatter(tt.format).Format(&buf, tt.data); err != nil {
			t.Fatalf("%s Format(%v) error = %v", tt.format, tt.data, err)
		}
		if buf.String() != tt.want {
			t.Errorf("%s Format(%v) = %q, want %q", tt.format, tt.data, buf.String(), tt.want)
		}
	}
}

func TestTableFormatter_NoHeaders(t *testing.T) {
	var buf bytes.Buffer
	f := &TableFormatter{NoHeaders: true}
	if err := f.Format(&buf, health{Status: "ok"}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "ok  12\n" {
		t.Errorf("Format() = %q", buf.String())
	}
}

func TestNewFormatter_UnknownIsPlain(t *testing.T) {
	if _, ok := NewFormatter("bogus").(*PlainFormatter); !ok {
		t.Error("unknown format should fall back to PlainFormatter")
	}
}

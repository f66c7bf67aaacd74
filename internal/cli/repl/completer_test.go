package repl

import (
	"reflect"
	"testing"
)

func TestCompleter_Complete(t *testing.T) {
	c := NewCompleter()

	tests := []struct {
		prefix string
		want   []string
	}{
		{"S", []string{"SET", "SAVE"}},
		{"ex", []string{"EXPIRE", "exit"}},
		{"inc", []string{"INCR"}},
		{"h", []string{"help", "history"}},
		{"zzz", nil},
	}
	for _, tt := range tests {
		if got := c.Complete(tt.prefix); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Complete(%q) = %v, want %v", tt.prefix, got, tt.want)
		}
	}

	if got := c.Complete(""); len(got) != len(c.commands) {
		t.Errorf("Complete(\"\") returned %d of %d commands", len(got), len(c.commands))
	}
}

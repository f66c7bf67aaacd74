package repl

import (
	"strings"

	"github.com/yndnr/minikv-go/internal/core/command"
)

// Local commands handled by the REPL itself.
var builtins = []string{"help", "history", "exit", "quit"}

// Completer provides command completion for the REPL.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over the server verbs and the REPL
// builtins.
func NewCompleter() *Completer {
	cmds := make([]string, 0, len(command.Verbs)+len(builtins))
	cmds = append(cmds, command.Verbs...)
	cmds = append(cmds, builtins...)
	return &Completer{commands: cmds}
}

// Complete returns the commands starting with prefix, ignoring case.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	p := strings.ToLower(prefix)
	for _, cmd := range c.commands {
		if strings.HasPrefix(strings.ToLower(cmd), p) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}

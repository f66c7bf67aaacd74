package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/yndnr/minikv-go/internal/cli/connection"
	"github.com/yndnr/minikv-go/internal/cli/output"
)

// Prompt is printed before each line is read.
const Prompt = "minikv> "

// Executor sends one command line and returns the reply.
type Executor interface {
	Execute(ctx context.Context, line string) (string, error)
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	exec      Executor
	input     io.Reader
	output    io.Writer
	formatter output.Formatter
	completer *Completer
	history   *History
}

// Option configures a REPL.
type Option func(*REPL)

// WithFormatter sets how replies are rendered. Default plain.
func WithFormatter(f output.Formatter) Option {
	return func(r *REPL) { r.formatter = f }
}

// WithHistory sets the history store. Default in-memory only.
func WithHistory(h *History) Option {
	return func(r *REPL) { r.history = h }
}

// New creates a new REPL reading from in and writing to out.
func New(exec Executor, in io.Reader, out io.Writer, opts ...Option) *REPL {
	r := &REPL{
		exec:      exec,
		input:     in,
		output:    out,
		formatter: output.NewFormatter(output.FormatPlain),
		completer: NewCompleter(),
		history:   NewHistory(""),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads lines until EOF, exit or quit. A transport error ends the
// loop and is returned; error replies do not.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "warning: load history: %v\n", err)
	}
	defer r.history.Save()

	reader := bufio.NewReader(r.input)

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(r.output, Prompt)

		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			fmt.Fprintln(r.output)
			if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.history.Add(line)

		done, err := r.handle(ctx, line)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (r *REPL) handle(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "exit", "quit":
		return true, nil
	case "help":
		prefix := ""
		if len(fields) > 1 {
			prefix = fields[1]
		}
		r.help(prefix)
		return false, nil
	case "history":
		for i, entry := range r.history.Entries() {
			fmt.Fprintf(r.output, "%4d  %s\n", i+1, entry)
		}
		return false, nil
	}

	reply, err := r.exec.Execute(ctx, line)
	if err != nil {
		return false, err
	}
	if err := r.formatter.Format(r.output, connection.NewResult(line, reply)); err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
	}
	return false, nil
}

func (r *REPL) help(prefix string) {
	matches := r.completer.Complete(prefix)
	if len(matches) == 0 {
		fmt.Fprintf(r.output, "no command matches %q\n", prefix)
		return
	}
	fmt.Fprintln(r.output, strings.Join(matches, " "))
}

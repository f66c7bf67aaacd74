package connection

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/yndnr/minikv-go/internal/core/command"
)

// greetingPrefix marks the banner some servers send on connect.
const greetingPrefix = "# minikv ready"

// TCPClient sends command lines over one TCP connection.
type TCPClient struct {
	conn    net.Conn
	br      *bufio.Reader
	timeout time.Duration

	greeting     string
	sawFirstLine bool
}

// unixPrefix selects a Unix socket, as in "unix:/var/run/minikv.sock".
const unixPrefix = "unix:"

// DialTCP connects to addr, a host:port or a unix: socket path. timeout
// bounds the dial and each command round trip.
func DialTCP(ctx context.Context, addr string, timeout time.Duration) (*TCPClient, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	network, target := "tcp", addr
	if strings.HasPrefix(addr, unixPrefix) {
		network, target = "unix", strings.TrimPrefix(addr, unixPrefix)
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, network, target)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	return &TCPClient{
		conn:    conn,
		br:      bufio.NewReader(conn),
		timeout: timeout,
	}, nil
}

// Execute sends one command line and returns the reply line.
func (c *TCPClient) Execute(ctx context.Context, line string) (string, error) {
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return "", err
	}

	if _, err := c.conn.Write([]byte(line + "\r\n")); err != nil {
		return "", fmt.Errorf("send: %w", err)
	}

	reply, err := c.readLine()
	if err != nil {
		return "", err
	}

	// The greeting, when enabled, is the first line the server sends.
	if !c.sawFirstLine {
		c.sawFirstLine = true
		if strings.HasPrefix(reply, greetingPrefix) {
			c.greeting = reply
			if reply, err = c.readLine(); err != nil {
				return "", err
			}
		}
	}
	return reply, nil
}

// Greeting returns the server banner, once the first command has run.
func (c *TCPClient) Greeting() string {
	return c.greeting
}

// RemoteAddr returns the server address.
func (c *TCPClient) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Close closes the connection.
func (c *TCPClient) Close() error {
	return c.conn.Close()
}

func (c *TCPClient) readLine() (string, error) {
	line, err := c.br.ReadString('\n')
	if err != nil {
		if line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", fmt.Errorf("receive: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// JoinArgs rebuilds a command line from shell words, quoting words that
// contain whitespace or are empty so the server splits them back the
// same way.
func JoinArgs(args []string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\r\n\v\f") {
			a = `"` + a + `"`
		}
		parts[i] = a
	}
	return strings.Join(parts, " ")
}

// Result pairs a command line with the server reply.
type Result struct {
	Command string        `json:"command" yaml:"command"`
	Reply   string        `json:"reply" yaml:"reply"`
	Parsed  command.Reply `json:"parsed" yaml:"parsed"`
}

// NewResult parses reply into a Result.
func NewResult(line, reply string) Result {
	return Result{Command: line, Reply: reply, Parsed: command.ParseReply(reply)}
}

// Plain returns the raw reply.
func (r Result) Plain() string {
	return r.Reply
}

// IsError reports whether the server answered with an error reply.
func (r Result) IsError() bool {
	return r.Parsed.Kind == command.KindError
}

package command

import (
	"errors"
	"strconv"
	"strings"

	"github.com/yndnr/minikv-go/internal/core/domain"
)

// Fixed replies.
const (
	ReplyOK    = "OK"
	ReplyPong  = "PONG"
	ReplyNil   = "(nil)"
	ReplyEmpty = "(empty)"

	integerPrefix = "(integer) "
	errorPrefix   = "(error) "
	savedPrefix   = "Saved "
	savedSuffix   = " keys"
)

// Integer formats an integer reply.
func Integer(n int64) string {
	return integerPrefix + strconv.FormatInt(n, 10)
}

// Bool formats a 1/0 integer reply.
func Bool(b bool) string {
	if b {
		return Integer(1)
	}
	return Integer(0)
}

// Error formats an error reply. Domain errors contribute only their
// message; other errors their full text.
func Error(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return errorPrefix + de.Message
	}
	return errorPrefix + err.Error()
}

// Saved formats the SAVE success reply.
func Saved(n int) string {
	return savedPrefix + strconv.Itoa(n) + savedSuffix
}

// IsError reports whether reply is an error reply.
func IsError(reply string) bool {
	return strings.HasPrefix(reply, errorPrefix)
}

// ReplyKind classifies a reply string.
type ReplyKind string

const (
	KindString  ReplyKind = "string"
	KindInteger ReplyKind = "integer"
	KindNil     ReplyKind = "nil"
	KindEmpty   ReplyKind = "empty"
	KindError   ReplyKind = "error"
	KindSaved   ReplyKind = "saved"
)

// Reply is a parsed reply, used by clients that render structured output.
type Reply struct {
	Kind    ReplyKind `json:"kind" yaml:"kind"`
	Text    string    `json:"text,omitempty" yaml:"text,omitempty"`
	Integer int64     `json:"integer,omitempty" yaml:"integer,omitempty"`
}

// ParseReply classifies a reply line. A bare value that happens to look
// like a reserved form is indistinguishable from it; the grammar has no
// escaping.
func ParseReply(line string) Reply {
	switch {
	case line == ReplyNil:
		return Reply{Kind: KindNil}
	case line == ReplyEmpty:
		return Reply{Kind: KindEmpty}
	case strings.HasPrefix(line, errorPrefix):
		return Reply{Kind: KindError, Text: strings.TrimPrefix(line, errorPrefix)}
	case strings.HasPrefix(line, integerPrefix):
		if n, err := strconv.ParseInt(strings.TrimPrefix(line, integerPrefix), 10, 64); err == nil {
			return Reply{Kind: KindInteger, Integer: n}
		}
	case strings.HasPrefix(line, savedPrefix) && strings.HasSuffix(line, savedSuffix):
		num := strings.TrimSuffix(strings.TrimPrefix(line, savedPrefix), savedSuffix)
		if n, err := strconv.ParseInt(num, 10, 64); err == nil {
			return Reply{Kind: KindSaved, Integer: n}
		}
	}
	return Reply{Kind: KindString, Text: line}
}

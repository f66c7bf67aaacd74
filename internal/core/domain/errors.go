package domain

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// DomainError is an error carrying a stable code.
//
// Codes look like "KV-<AREA>-<NNNN>"; the last four digits follow HTTP
// status semantics so transports can map them without a lookup table.
// Message is the human-readable text that appears after "(error) " in a
// reply.
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithMessage returns a copy of the error with a different message.
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: message,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   cause,
	}
}

// Error codes.
const (
	CodeBadRequest     = "KV-REQ-4000"
	CodeEmptyCommand   = "KV-CMD-4000"
	CodeUnknownCommand = "KV-CMD-4040"
	CodeWrongArity     = "KV-ARG-4001"
	CodeNotInt         = "KV-ARG-4002"
	CodeKeyNotFound    = "KV-KEY-4040"
	CodeNotInteger     = "KV-VAL-4220"
	CodeIncrOverflow   = "KV-VAL-4221"
	CodeRateLimited    = "KV-SYS-4290"
	CodeSaveFailed     = "KV-SYS-5001"
	CodeInternal       = "KV-SYS-5000"
)

var (
	// ErrBadRequest is returned by transports for a malformed request body.
	ErrBadRequest = NewDomainError(CodeBadRequest, "invalid request")

	// ErrEmptyCommand is returned for a command line with no tokens.
	ErrEmptyCommand = NewDomainError(CodeEmptyCommand, "empty")

	// ErrUnknownCommand is the template for unrecognized verbs; see UnknownCommand.
	ErrUnknownCommand = NewDomainError(CodeUnknownCommand, "unknown command")

	// ErrWrongArity is the template for arity errors; the message is the verb's usage line.
	ErrWrongArity = NewDomainError(CodeWrongArity, "wrong number of arguments")

	// ErrSecondsNotInt is returned when EXPIRE gets a non-integer duration.
	ErrSecondsNotInt = NewDomainError(CodeNotInt, "seconds must be int")

	// ErrKeyNotFound is returned by structured endpoints for a missing key.
	ErrKeyNotFound = NewDomainError(CodeKeyNotFound, "no such key")

	// ErrNotInteger is returned by INCR when the stored value is not a base-10 int64.
	ErrNotInteger = NewDomainError(CodeNotInteger, "value is not an integer")

	// ErrIncrOverflow is returned by INCR when the stored integer is already math.MaxInt64.
	ErrIncrOverflow = NewDomainError(CodeIncrOverflow, "increment would overflow")

	// ErrRateLimited is returned by transports when a client exceeds its budget.
	ErrRateLimited = NewDomainError(CodeRateLimited, "rate limit exceeded")

	// ErrSaveFailed is returned when the persister rejects a snapshot.
	ErrSaveFailed = NewDomainError(CodeSaveFailed, "save failed")

	// ErrInternal is a catch-all for unexpected failures.
	ErrInternal = NewDomainError(CodeInternal, "internal error")
)

// UnknownCommand builds the error for an unrecognized verb, already uppercased.
func UnknownCommand(verb string) *DomainError {
	return ErrUnknownCommand.WithMessage(fmt.Sprintf("unknown command '%s'", verb))
}

// WrongArity builds an arity error whose message is the verb's usage line.
func WrongArity(usage string) *DomainError {
	return ErrWrongArity.WithMessage(usage)
}

// HTTPStatus maps an error code to its HTTP status: the first three of
// the last four digits. Codes that do not fit map to 500.
func HTTPStatus(code string) int {
	i := strings.LastIndexByte(code, '-')
	if i < 0 || len(code)-i-1 != 4 {
		return http.StatusInternalServerError
	}
	n, err := strconv.Atoi(code[i+1:])
	if err != nil {
		return http.StatusInternalServerError
	}
	status := n / 10
	if status < 400 || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}

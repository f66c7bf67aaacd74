package command

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Split breaks a command line into tokens.
//
// Runs of whitespace separate tokens except inside double-quoted regions.
// Each '"' toggles quoting and is dropped from the output. Empty tokens
// are never produced, so `""` yields nothing. An unterminated quote
// protects everything up to the end of the line. Bytes that are not
// valid UTF-8 are kept as they are.
func Split(line string) []string {
	var (
		tokens   []string
		cur      strings.Builder
		inQuotes bool
	)

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case unicode.IsSpace(r) && !inQuotes:
			flush()
		default:
			cur.WriteString(line[i : i+size])
		}
		i += size
	}
	flush()

	return tokens
}

package textserver

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// ErrLineTooLong is returned when a command line exceeds the limit.
var ErrLineTooLong = errors.New("line too long")

// readLine reads one LF-terminated line of at most max bytes, without
// the trailing CR LF. A final unterminated line before EOF is returned
// as a normal line.
func readLine(br *bufio.Reader, max int) (string, error) {
	var buf []byte
	for {
		chunk, err := br.ReadSlice('\n')
		if len(buf)+len(chunk) > max+2 {
			return "", ErrLineTooLong
		}
		buf = append(buf, chunk...)

		switch {
		case err == nil:
			line := bytes.TrimSuffix(buf, []byte("\n"))
			line = bytes.TrimSuffix(line, []byte("\r"))
			if len(line) > max {
				return "", ErrLineTooLong
			}
			return string(line), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && len(buf) > 0:
			if len(buf) > max {
				return "", ErrLineTooLong
			}
			return string(bytes.TrimSuffix(buf, []byte("\r"))), nil
		default:
			return "", err
		}
	}
}

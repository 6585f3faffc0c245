// Package script splits console input into command lines.
package script

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// Scan calls fn for every line of r that is not blank or a comment. Lines
// may be terminated by "\n", "\r\n" or a single "\r". Line numbers start at 1.
// Scanning stops at the first error returned by fn.
func Scan(r io.Reader, fn func(lineno int, line string) error) error {
	s := bufio.NewScanner(r)
	s.Split(splitLines)

	lineno := 0
	for s.Scan() {
		lineno += 1
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := fn(lineno, line); err != nil {
			return err
		}
	}
	return s.Err()
}

// splitLines is a bufio.SplitFunc that ends lines at "\n", "\r\n" or a lone
// "\r". A "\r" at the end of the buffered data is held back until the next
// byte shows whether it starts a "\r\n".
func splitLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	i := bytes.IndexAny(data, "\r\n")
	switch {
	case i < 0 && atEOF && len(data) > 0:
		return len(data), data, nil
	case i < 0:
		return 0, nil, nil
	case data[i] == '\n':
		return i + 1, data[:i], nil
	case i+1 < len(data):
		if data[i+1] == '\n' {
			return i + 2, data[:i], nil
		}
		return i + 1, data[:i], nil
	case atEOF:
		return i + 1, data[:i], nil
	default:
		return 0, nil, nil
	}
}

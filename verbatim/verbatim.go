// Package verbatim escapes binary data so it survives the pipeline signature grammar.
//
// An escaped block looks like "<verbatim>BASE64</verbatim>". The base64 alphabet never
// contains the grammar's separators ("->", ",", "=", "(", ")"), and splitters skip
// everything between the markers.
package verbatim

import (
	"encoding/base64"
	"errors"
	"strings"
)

const (
	// Begin opens an escaped block.
	Begin = "<verbatim>"
	// End closes an escaped block.
	End = "</verbatim>"
)

// ErrMalformed is returned when a block is missing a marker or holds invalid base64.
var ErrMalformed = errors.New("verbatim: malformed block")

// Encode wraps data into a verbatim block.
func Encode(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(Begin) + base64.StdEncoding.EncodedLen(len(data)) + len(End))
	sb.WriteString(Begin)
	sb.WriteString(base64.StdEncoding.EncodeToString(data))
	sb.WriteString(End)
	return sb.String()
}

// EncodedLen returns the length of Encode's result for n bytes of data.
func EncodedLen(n int) int {
	return len(Begin) + base64.StdEncoding.EncodedLen(n) + len(End)
}

// Decode unwraps a verbatim block. Surrounding whitespace is ignored.
func Decode(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, Begin) || !strings.HasSuffix(s, End) || len(s) < len(Begin)+len(End) {
		return nil, ErrMalformed
	}
	body := s[len(Begin) : len(s)-len(End)]
	if strings.Contains(body, Begin) || strings.Contains(body, End) {
		return nil, ErrMalformed
	}
	out, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	return out, nil
}

// IsBlock reports whether s is a single verbatim block.
func IsBlock(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, Begin) && strings.HasSuffix(s, End)
}

// Mask returns a copy of s in which every byte inside a verbatim block, markers included,
// is replaced by fill. Splitters search the masked string and cut the original at the same
// positions. An unterminated block masks to the end of s.
func Mask(s string, fill byte) string {
	if !strings.Contains(s, Begin) {
		return s
	}
	b := []byte(s)
	pos := 0
	for {
		i := strings.Index(s[pos:], Begin)
		if i < 0 {
			break
		}
		start := pos + i
		j := strings.Index(s[start:], End)
		stop := len(s)
		if j >= 0 {
			stop = start + j + len(End)
		}
		for k := start; k < stop; k++ {
			b[k] = fill
		}
		pos = stop
		if pos >= len(s) {
			break
		}
	}
	return string(b)
}

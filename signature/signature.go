// Package signature parses and formats pipeline signatures.
//
// Grammar:
//
//	pipeline := stage ("->" stage)*
//	stage    := name ["(" param ("," param)* ")"]
//	param    := key "=" value
//
// Values may contain verbatim blocks (see package verbatim); separators inside a block
// are not interpreted.
package signature

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/voxpipe/verbatim"
)

// Separator joins stages in a pipeline signature.
const Separator = "->"

// ErrSyntax is the sentinel for malformed signatures.
var ErrSyntax = errors.New("signature: syntax error")

// ErrParse describes where a signature failed to parse.
type ErrParse struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ErrParse) Error() string {
	return fmt.Sprintf("signature: %s at offset %d in %q", e.Msg, e.Pos, e.Input)
}

// Is reports ErrSyntax as a match.
func (e *ErrParse) Is(target error) bool { return target == ErrSyntax }

// Param is one key=value pair of a stage configuration.
type Param struct {
	Key   string
	Value string
}

// Stage is one parsed element of a signature.
type Stage struct {
	Name   string
	Params []Param
}

// Get returns the value of key.
func (s Stage) Get(key string) (string, bool) {
	for _, p := range s.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Map returns the parameters as a map.
func (s Stage) Map() map[string]string {
	m := make(map[string]string, len(s.Params))
	for _, p := range s.Params {
		m[p.Key] = p.Value
	}
	return m
}

// Config returns the comma separated parameter list without parentheses.
func (s Stage) Config() string {
	return FormatParams(s.Params)
}

// String formats the stage as name or name(k=v,...).
func (s Stage) String() string {
	if len(s.Params) == 0 {
		return s.Name
	}
	return s.Name + "(" + s.Config() + ")"
}

// FormatParams joins params as k=v pairs separated by commas.
func FormatParams(params []Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Key + "=" + p.Value
	}
	return strings.Join(parts, ",")
}

// Format joins stages into a signature.
func Format(stages []Stage) string {
	parts := make([]string, len(stages))
	for i, s := range stages {
		parts[i] = s.String()
	}
	return strings.Join(parts, Separator)
}

// Join formats already rendered stage strings into a signature.
func Join(parts ...string) string {
	return strings.Join(parts, Separator)
}

const maskByte = '#'

// Split cuts a signature at every separator outside verbatim blocks.
func Split(sig string) ([]string, error) {
	if strings.TrimSpace(sig) == "" {
		return nil, &ErrParse{Input: sig, Pos: 0, Msg: "empty signature"}
	}
	masked := verbatim.Mask(sig, maskByte)

	var parts []string
	start := 0
	for {
		i := strings.Index(masked[start:], Separator)
		if i < 0 {
			parts = append(parts, sig[start:])
			break
		}
		parts = append(parts, sig[start:start+i])
		start += i + len(Separator)
	}
	for i, p := range parts {
		if strings.TrimSpace(p) == "" {
			return nil, &ErrParse{Input: sig, Pos: offsetOf(parts, i), Msg: "empty stage"}
		}
	}
	return parts, nil
}

func offsetOf(parts []string, idx int) int {
	off := 0
	for i := 0; i < idx; i++ {
		off += len(parts[i]) + len(Separator)
	}
	return off
}

// ParseStage parses a single stage expression.
func ParseStage(expr string) (Stage, error) {
	src := strings.TrimSpace(expr)
	masked := verbatim.Mask(src, maskByte)

	open := strings.IndexByte(masked, '(')
	if open < 0 {
		if strings.ContainsAny(masked, ")=,") {
			return Stage{}, &ErrParse{Input: expr, Pos: strings.IndexAny(masked, ")=,"), Msg: "unexpected character"}
		}
		if err := checkName(src, expr); err != nil {
			return Stage{}, err
		}
		return Stage{Name: src}, nil
	}

	if !strings.HasSuffix(masked, ")") {
		return Stage{}, &ErrParse{Input: expr, Pos: len(src), Msg: "missing ')'"}
	}
	if strings.Count(masked, "(") != 1 || strings.Count(masked, ")") != 1 {
		return Stage{}, &ErrParse{Input: expr, Pos: open, Msg: "unbalanced parentheses"}
	}

	name := strings.TrimSpace(src[:open])
	if err := checkName(name, expr); err != nil {
		return Stage{}, err
	}
	st := Stage{Name: name}

	body := src[open+1 : len(src)-1]
	maskedBody := masked[open+1 : len(masked)-1]
	if strings.TrimSpace(maskedBody) == "" {
		return st, nil
	}

	pos := 0
	for pos <= len(body) {
		next := strings.IndexByte(maskedBody[pos:], ',')
		end := len(body)
		if next >= 0 {
			end = pos + next
		}
		item, maskedItem := body[pos:end], maskedBody[pos:end]
		eq := strings.IndexByte(maskedItem, '=')
		if eq <= 0 {
			return Stage{}, &ErrParse{Input: expr, Pos: open + 1 + pos, Msg: "expected key=value"}
		}
		key := strings.TrimSpace(item[:eq])
		value := strings.TrimSpace(item[eq+1:])
		if key == "" || value == "" {
			return Stage{}, &ErrParse{Input: expr, Pos: open + 1 + pos, Msg: "empty key or value"}
		}
		if _, dup := st.Get(key); dup {
			return Stage{}, &ErrParse{Input: expr, Pos: open + 1 + pos, Msg: "duplicate key " + key}
		}
		st.Params = append(st.Params, Param{Key: key, Value: value})
		if next < 0 {
			break
		}
		pos = end + 1
	}
	return st, nil
}

func checkName(name, input string) error {
	if name == "" {
		return &ErrParse{Input: input, Pos: 0, Msg: "missing stage name"}
	}
	for i, r := range name {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return &ErrParse{Input: input, Pos: i, Msg: fmt.Sprintf("invalid character %q in stage name", r)}
		}
	}
	return nil
}

// Parse splits and parses a full signature.
func Parse(sig string) ([]Stage, error) {
	parts, err := Split(sig)
	if err != nil {
		return nil, err
	}
	stages := make([]Stage, 0, len(parts))
	for _, p := range parts {
		st, err := ParseStage(p)
		if err != nil {
			return nil, err
		}
		stages = append(stages, st)
	}
	return stages, nil
}

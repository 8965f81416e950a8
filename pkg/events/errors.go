package events

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	goyaml "github.com/goccy/go-yaml"
)

var (
	ErrUnknownBackend    = errors.New("unknown YAML backend")
	ErrRecursiveAlias    = errors.New("anchor value contains itself")
	ErrUnknownAlias      = errors.New("unknown anchor referenced")
	ErrExcessiveAliasing = errors.New("document contains excessive aliasing")
	ErrUnsupportedNode   = errors.New("unsupported YAML node")
	ErrTagMismatch       = errors.New("scalar does not match its tag")
)

// SyntaxError reports a document that the YAML library rejected. Line and
// Column are one-based and zero when the library did not attach a position.
type SyntaxError struct {
	Line   int
	Column int
	Err    error
}

func (e *SyntaxError) Error() string {
	return e.Err.Error()
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Format renders the error with goccy's source snippet when one is available.
func (e *SyntaxError) Format(colored bool) string {
	return goyaml.FormatError(e.Err, colored, true)
}

func aliasError(name string, line, column int, err error) *SyntaxError {
	return &SyntaxError{
		Line:   line,
		Column: column,
		Err:    fmt.Errorf("%w: %q", err, name),
	}
}

// yamlv3SyntaxError reads the position out of a gopkg.in/yaml.v3 message. The
// library reports positions only as text, in one of the shapes
//
//	yaml: line 3: mapping values are not allowed in this context
//	yaml: line 3: column 7: did not find expected key
//	yaml: unmarshal errors:\n  line 3: ...
func yamlv3SyntaxError(err error) *SyntaxError {
	line, column := extractYAMLv3Position(err.Error())
	return &SyntaxError{Line: line, Column: column, Err: err}
}

func extractYAMLv3Position(msg string) (line, column int) {
	_, rest, ok := strings.Cut(msg, "line ")
	if !ok {
		return 0, 0
	}
	num, rest, ok := strings.Cut(rest, ":")
	if !ok {
		return 0, 0
	}
	line, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return 0, 0
	}
	rest = strings.TrimSpace(rest)
	if col, ok := strings.CutPrefix(rest, "column "); ok {
		num, _, _ = strings.Cut(col, ":")
		if c, err := strconv.Atoi(strings.TrimSpace(num)); err == nil {
			column = c
		}
	}
	return line, column
}

// goccySyntaxError takes the position from the token goccy attaches to its
// errors.
func goccySyntaxError(err error) *SyntaxError {
	se := &SyntaxError{Err: err}
	var yamlErr goyaml.Error
	if errors.As(err, &yamlErr) {
		if tk := yamlErr.GetToken(); tk != nil && tk.Position != nil {
			se.Line = tk.Position.Line
			se.Column = tk.Position.Column
		}
	}
	return se
}

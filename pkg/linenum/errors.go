package linenum

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"

	"gopkg.in/yaml.v3"
)

var (
	ErrDuplicateKey    = errors.New("duplicate mapping key")
	ErrInvalidMapKey   = errors.New("invalid map key")
	ErrMergeNotMapping = errors.New("map merge requires map or sequence of maps as the value")
)

// FileError reports an input that could not be opened or read.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	err := e.Err
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		err = pathErr.Err
	}
	return fmt.Sprintf("cannot read %s: %v", e.Path, err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// DecodeError reports a node that the document's structure allows but that
// cannot be turned into a value, such as a scalar whose text does not match
// its tag. Line is the origin line of the offending node.
type DecodeError struct {
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, describe(e.Err))
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

var linePrefix = regexp.MustCompile(`^line \d+: `)

// describe drops the position gopkg.in/yaml.v3 bakes into single type errors;
// DecodeError already leads with the line.
func describe(err error) string {
	var te *yaml.TypeError
	if errors.As(err, &te) && len(te.Errors) == 1 {
		return linePrefix.ReplaceAllString(te.Errors[0], "")
	}
	return err.Error()
}

// duplicateKeyError mirrors the message gopkg.in/yaml.v3 uses for repeated keys.
type duplicateKeyError struct {
	key  string
	line int
}

func (e *duplicateKeyError) Error() string {
	return fmt.Sprintf("mapping key %q already defined at line %d", e.key, e.line)
}

func (e *duplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

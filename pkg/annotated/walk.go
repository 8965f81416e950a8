package annotated

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SkipChildren can be returned by a WalkFunc to skip the children of the
// current value.
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every value reached by Walk. key is the mapping key
// naming v, or nil for sequence items and the root.
type WalkFunc func(pointer string, key, v Value) error

// Walk visits v and everything below it depth first, in document order. The
// pointer passed to fn is the RFC 6901 JSON pointer of the value.
func Walk(v Value, fn WalkFunc) error {
	return walk("", nil, v, fn)
}

func walk(pointer string, key, v Value, fn WalkFunc) error {
	if err := fn(pointer, key, v); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	switch v := v.(type) {
	case *Mapping:
		for _, p := range v.Pairs {
			if err := walk(pointer+"/"+EscapeToken(KeyString(p.Key)), p.Key, p.Value, fn); err != nil {
				return err
			}
		}
	case *Sequence:
		for i, item := range v.Items {
			if err := walk(pointer+"/"+strconv.Itoa(i), nil, item, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// KeyString is the text a mapping key contributes to a JSON pointer.
func KeyString(k Value) string {
	if s, ok := k.(*Scalar); ok {
		if str, ok := s.Content.(string); ok {
			return str
		}
		return s.String()
	}
	return fmt.Sprint(Strip(k))
}

// EscapeToken escapes a pointer reference token per RFC 6901.
func EscapeToken(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}

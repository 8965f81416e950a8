// Package mapper resolves JSON pointers against annotated YAML values and
// picks the source line a JSON Schema error should be reported on.
package mapper

import (
	"errors"
	"fmt"

	"github.com/githubnext/yamlline/pkg/annotated"
)

var (
	ErrNotFound = errors.New("no value at pointer")
	ErrNoKey    = errors.New("pointer does not name a mapping key")
)

// Locate returns the value at an RFC6901 pointer.
func Locate(root annotated.Value, pointer string) (annotated.Value, error) {
	segments, err := decodeJSONPointer(pointer)
	if err != nil {
		return nil, err
	}
	node, _, _ := traverseBySegments(root, segments)
	if node == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, pointer)
	}
	return node, nil
}

// LocateKey returns the mapping key named by the last pointer segment.
func LocateKey(root annotated.Value, pointer string) (annotated.Value, error) {
	segments, err := decodeJSONPointer(pointer)
	if err != nil {
		return nil, err
	}
	node, _, key := traverseBySegments(root, segments)
	if node == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, pointer)
	}
	if key == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoKey, pointer)
	}
	return key, nil
}

// MapErrorToSpan returns the most likely line for a JSON Schema error.
func MapErrorToSpan(root annotated.Value, instancePath string, meta ErrorMeta) (Span, error) {
	spans, err := MapErrorToSpans(root, instancePath, meta)
	if err != nil {
		return Span{}, err
	}
	return spans[0], nil
}

// MapErrorToSpans maps a JSON Schema error (instancePath + meta) to candidate
// lines ordered by confidence. It always returns at least one span.
func MapErrorToSpans(root annotated.Value, instancePath string, meta ErrorMeta) ([]Span, error) {
	segments, err := decodeJSONPointer(instancePath)
	if err != nil {
		return nil, err
	}

	node, parent, key := traverseBySegments(root, segments)

	switch meta.Kind {
	case "type", "enum", "const", "format", "pattern", "minimum", "maximum", "minLength", "maxLength":
		if node != nil {
			return []Span{lineSpan(node, 0.95, meta.Kind+" mismatch: highlighting value")}, nil
		}

	case "additionalProperties":
		if meta.Property != "" {
			if k := findKeyInMapping(node, meta.Property); k != nil {
				return []Span{lineSpan(k, 0.98, "additional property key")}, nil
			}
			if k := findKeyInMapping(parent, meta.Property); k != nil {
				return []Span{lineSpan(k, 0.9, "additional property key in parent")}, nil
			}
		}
		if node != nil {
			return []Span{lineSpan(node, 0.6, "additionalProperties fallback")}, nil
		}

	case "required":
		// The instance location is the mapping that lacks the property.
		if m, ok := node.(*annotated.Mapping); ok {
			return []Span{insertionAnchor(m, meta.Property)}, nil
		}
		if m, ok := parent.(*annotated.Mapping); ok {
			return []Span{insertionAnchor(m, meta.Property)}, nil
		}

	default:
		if key != nil {
			return []Span{lineSpan(key, 0.8, "generic mapping: highlighting key")}, nil
		}
		if node != nil {
			return []Span{lineSpan(node, 0.8, "generic mapping")}, nil
		}
	}

	if candidates := fallbackHeuristics(root, segments, meta); len(candidates) > 0 {
		return candidates, nil
	}
	return []Span{documentFallbackSpan()}, nil
}

// traverseBySegments walks the value tree. It returns the value for the
// final segment, its parent container and, when the parent is a mapping, the
// key naming it. node is nil when a segment cannot be resolved; parent is then
// the last container reached.
func traverseBySegments(root annotated.Value, segments []string) (node, parent, key annotated.Value) {
	current := root
	for _, segment := range segments {
		parent = current
		key = nil

		switch v := current.(type) {
		case *annotated.Mapping:
			current = nil
			for _, p := range v.Pairs {
				if annotated.KeyString(p.Key) == segment {
					current, key = p.Value, p.Key
					break
				}
			}
		case *annotated.Sequence:
			current = v.Index(parseIndex(segment))
		default:
			current = nil
		}
		if current == nil {
			return nil, parent, nil
		}
	}
	return current, parent, key
}

func findKeyInMapping(v annotated.Value, name string) annotated.Value {
	m, ok := v.(*annotated.Mapping)
	if !ok {
		return nil
	}
	for _, p := range m.Pairs {
		if annotated.KeyString(p.Key) == name {
			return p.Key
		}
	}
	return nil
}

func lineSpan(v annotated.Value, confidence float64, reason string) Span {
	return Span{Line: annotated.Line(v), Confidence: confidence, Reason: reason}
}

// insertionAnchor points a missing property at the mapping that should hold
// it: its opening line, which for a nested block mapping is the line of the
// key that introduces it.
func insertionAnchor(m *annotated.Mapping, property string) Span {
	return Span{
		Line:       annotated.Line(m),
		Confidence: 0.75,
		Reason:     fmt.Sprintf("mapping missing property '%s'", property),
	}
}

// fallbackHeuristics looks for a key named like the property anywhere in the
// document, then for the deepest parent that does exist.
func fallbackHeuristics(root annotated.Value, segments []string, meta ErrorMeta) []Span {
	var candidates []Span

	if meta.Property != "" {
		_ = annotated.Walk(root, func(_ string, key, _ annotated.Value) error {
			if key != nil && annotated.KeyString(key) == meta.Property {
				candidates = append(candidates, lineSpan(key, 0.6, fmt.Sprintf("key search match for property '%s'", meta.Property)))
			}
			return nil
		})
	}

	for i := len(segments) - 1; i > 0; i-- {
		if node, _, _ := traverseBySegments(root, segments[:i]); node != nil {
			candidates = append(candidates, lineSpan(node, 0.4, fmt.Sprintf("parent context for missing segments at depth %d", i)))
			break
		}
	}
	return candidates
}

// documentFallbackSpan returns a low-confidence span at the top of the document.
func documentFallbackSpan() Span {
	return Span{Line: 1, Confidence: 0.2, Reason: "document-level fallback"}
}

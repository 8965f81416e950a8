// Package annotated holds decoded YAML values that remember where they came
// from. Every value carries a Metadata record with at least a "line" entry;
// the content itself compares and strips to exactly what a plain decode
// produces.
package annotated

import (
	"fmt"
	"reflect"
)

// LineKey is the metadata key holding the one-based origin line.
const LineKey = "line"

// Kind discriminates annotated values.
type Kind uint8

const (
	MappingKind Kind = iota + 1
	SequenceKind
	ScalarKind
)

func (k Kind) String() string {
	switch k {
	case MappingKind:
		return "mapping"
	case SequenceKind:
		return "sequence"
	case ScalarKind:
		return "scalar"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Metadata is the out-of-band record attached to a value.
type Metadata map[string]any

func newMetadata(line int) Metadata {
	return Metadata{LineKey: line}
}

// Value is a decoded mapping, sequence or scalar together with its metadata.
type Value interface {
	Kind() Kind
	Metadata() Metadata

	// Interface returns the plain content with all metadata stripped.
	Interface() any
}

// Pair is one mapping entry.
type Pair struct {
	Key   Value
	Value Value
}

// Mapping is an insertion-ordered mapping.
type Mapping struct {
	Pairs []Pair
	meta  Metadata
}

// NewMapping returns an empty mapping that began on line.
func NewMapping(line int) *Mapping {
	return &Mapping{meta: newMetadata(line)}
}

func (m *Mapping) Kind() Kind         { return MappingKind }
func (m *Mapping) Metadata() Metadata { return m.meta }

// Append adds an entry after the existing ones.
func (m *Mapping) Append(k, v Value) {
	m.Pairs = append(m.Pairs, Pair{Key: k, Value: v})
}

func (m *Mapping) Len() int {
	return len(m.Pairs)
}

// Keys returns the keys in document order.
func (m *Mapping) Keys() []Value {
	keys := make([]Value, len(m.Pairs))
	for i, p := range m.Pairs {
		keys[i] = p.Key
	}
	return keys
}

// Get returns the value stored under a key whose plain content equals key.
func (m *Mapping) Get(key any) (Value, bool) {
	if p, ok := m.Pair(key); ok {
		return p.Value, true
	}
	return nil, false
}

// Pair returns the entry whose key's plain content equals key.
func (m *Mapping) Pair(key any) (Pair, bool) {
	for _, p := range m.Pairs {
		if reflect.DeepEqual(p.Key.Interface(), key) {
			return p, true
		}
	}
	return Pair{}, false
}

// Interface returns map[string]any when every key is a string and
// map[any]any otherwise.
func (m *Mapping) Interface() any {
	if m.stringKeys() {
		out := make(map[string]any, len(m.Pairs))
		for _, p := range m.Pairs {
			out[p.Key.Interface().(string)] = p.Value.Interface()
		}
		return out
	}
	out := make(map[any]any, len(m.Pairs))
	for _, p := range m.Pairs {
		out[HashKey(p.Key.Interface())] = p.Value.Interface()
	}
	return out
}

// HashKey returns v when it can be a Go map key and a string standing in for
// it otherwise, such as for a []byte.
func HashKey(v any) any {
	if v == nil || reflect.TypeOf(v).Comparable() {
		return v
	}
	return fmt.Sprintf("%T:%#v", v, v)
}

func (m *Mapping) stringKeys() bool {
	for _, p := range m.Pairs {
		if _, ok := p.Key.Interface().(string); !ok {
			return false
		}
	}
	return true
}

// Sequence is an ordered list of values.
type Sequence struct {
	Items []Value
	meta  Metadata
}

// NewSequence returns an empty sequence that began on line.
func NewSequence(line int) *Sequence {
	return &Sequence{meta: newMetadata(line)}
}

func (s *Sequence) Kind() Kind         { return SequenceKind }
func (s *Sequence) Metadata() Metadata { return s.meta }

func (s *Sequence) Append(v Value) {
	s.Items = append(s.Items, v)
}

func (s *Sequence) Len() int {
	return len(s.Items)
}

// Index returns the i-th item, or nil when i is out of range.
func (s *Sequence) Index(i int) Value {
	if i < 0 || i >= len(s.Items) {
		return nil
	}
	return s.Items[i]
}

func (s *Sequence) Interface() any {
	out := make([]any, len(s.Items))
	for i, v := range s.Items {
		out[i] = v.Interface()
	}
	return out
}

// Scalar holds a resolved scalar: string, int, float64, bool, nil, or
// whatever else the YAML library resolves, such as time.Time.
type Scalar struct {
	Content any
	meta    Metadata
}

// NewScalar wraps content that began on line.
func NewScalar(content any, line int) *Scalar {
	return &Scalar{Content: content, meta: newMetadata(line)}
}

func (s *Scalar) Kind() Kind         { return ScalarKind }
func (s *Scalar) Metadata() Metadata { return s.meta }
func (s *Scalar) Interface() any     { return s.Content }

func (s *Scalar) String() string {
	if s.Content == nil {
		return "null"
	}
	return fmt.Sprint(s.Content)
}

// Strip returns the plain content of v with all metadata removed.
func Strip(v Value) any {
	if v == nil {
		return nil
	}
	return v.Interface()
}

// Equal compares the plain content of two values; metadata is ignored.
func Equal(a, b Value) bool {
	return reflect.DeepEqual(Strip(a), Strip(b))
}

// Line returns the origin line of v, or 0 when v is nil or carries none.
func Line(v Value) int {
	if v == nil {
		return 0
	}
	line, _ := v.Metadata()[LineKey].(int)
	return line
}

// SetLine overwrites the origin line of v.
func SetLine(v Value, line int) {
	v.Metadata()[LineKey] = line
}

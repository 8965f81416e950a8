// Package events drives a YAML library as a streaming event source.
//
// A Parser walks a single YAML document in depth-first order and reports its
// structure to a Handler:
//
//	YAML construct | Methods                       | Payload
//	-------------- | ----------------------------- | ---------------
//	document       | StartDocument, EndDocument    | DocumentEvent
//	mapping        | StartMapping, EndMapping      | CollectionEvent
//	sequence       | StartSequence, EndSequence    | CollectionEvent
//	scalar         | Scalar                        | ScalarEvent
//
// While a handler method runs, the parser's Mark reports the cursor position
// that belongs to the event. Lines are one-based. Collections are reported on
// the line that introduces them: a block collection that is the value of a
// mapping key sits on the key's line, anything else on its own line. A node in
// mapping-key position is reported on the line before its text, which is where
// a streaming scanner stands while it decides that the node is a key; keys on
// the first line are therefore reported on line 0.
//
// Aliases are replayed in place: the events of the anchored node are emitted
// again at the alias position.
package events

import "fmt"

// Mark is a cursor position in the source document.
type Mark struct {
	Line   int
	Column int
}

func (m Mark) String() string {
	return fmt.Sprintf("%d:%d", m.Line, m.Column)
}

// Style describes how a node was written.
type Style uint8

const (
	TaggedStyle Style = 1 << iota
	SingleQuotedStyle
	DoubleQuotedStyle
	LiteralStyle
	FoldedStyle
	FlowStyle
)

// Plain reports whether a scalar was written without quotes or block indicators.
func (s Style) Plain() bool {
	return s&(SingleQuotedStyle|DoubleQuotedStyle|LiteralStyle|FoldedStyle) == 0
}

// Quoted reports whether a scalar was single or double quoted.
func (s Style) Quoted() bool {
	return s&(SingleQuotedStyle|DoubleQuotedStyle) != 0
}

// MergeTag is the short tag of the "<<" merge key.
const MergeTag = "!!merge"

// DocumentEvent starts a document.
type DocumentEvent struct {
	// Implicit is true when the document has no "---" marker.
	Implicit bool
}

// CollectionEvent starts a mapping or a sequence.
type CollectionEvent struct {
	Anchor string
	Tag    string
	Style  Style
}

// ScalarEvent reports a scalar.
type ScalarEvent struct {
	Anchor string
	Tag    string // short tag as resolved by the library, e.g. "!!int"
	Value  string // raw text after unquoting and folding
	Style  Style

	// Resolve converts the scalar with the library's own resolution rules.
	Resolve func() (any, error)
}

// Handler receives the events of a document. A non-nil error stops the parse
// and is returned from Parse unchanged.
type Handler interface {
	StartDocument(DocumentEvent) error
	EndDocument() error
	StartMapping(CollectionEvent) error
	EndMapping() error
	StartSequence(CollectionEvent) error
	EndSequence() error
	Scalar(ScalarEvent) error
}

// Marker reports the current cursor position.
type Marker interface {
	Mark() Mark
}

// Parser streams the events of the first document in its source.
type Parser interface {
	Marker
	Parse(h Handler) error
}

// Backend is a YAML library that can be driven as an event source.
type Backend interface {
	Name() string
	NewParser(src []byte) Parser

	// Unmarshal is the library's plain decode of the first document.
	Unmarshal(src []byte, v *any) error

	// Keys is how Unmarshal builds mappings.
	Keys() KeyPolicy
}

// KeyPolicy is how a library's plain decode turns mapping entries into a Go
// map.
type KeyPolicy struct {
	// StringKeys renders every key as text: null as "null", anything else
	// the way fmt.Sprint prints it.
	StringKeys bool

	// LastWins applies entries in document order, a merged entry at the
	// position of its "<<" key, and a later entry replaces an earlier one
	// with the same key. Otherwise explicit keys always win and among merge
	// sources the earlier one wins.
	LastWins bool
}

var backends = map[string]Backend{
	YAMLv3.Name(): YAMLv3,
	Goccy.Name():  Goccy,
}

// DefaultBackend is used when no backend is configured.
var DefaultBackend Backend = YAMLv3

// Lookup returns the backend registered under name.
func Lookup(name string) (Backend, error) {
	if name == "" {
		return DefaultBackend, nil
	}
	b, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (want %q or %q)", ErrUnknownBackend, name, YAMLv3.Name(), Goccy.Name())
	}
	return b, nil
}

// cursor holds the position reported by Mark.
type cursor struct {
	mark Mark
}

func (c *cursor) Mark() Mark {
	return c.mark
}

// position is where the walker emits a node.
type position struct {
	line   int
	column int
	key    bool
}

// set moves the cursor for a node emitted at pos. Both backends read
// positions from a finished node tree, where a key knows its own line; the
// one-line-early key mark is what a streaming scanner reports, and handlers
// are written against that contract.
func (c *cursor) set(pos position) {
	line := pos.line
	if pos.key {
		line--
	}
	c.mark = Mark{Line: line, Column: pos.column}
}

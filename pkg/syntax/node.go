// Package syntax builds the intermediate node tree of a YAML document from the
// events of an events.Parser.
package syntax

import (
	"errors"
	"fmt"

	"github.com/githubnext/yamlline/pkg/events"
)

var (
	ErrAlreadyStamped = errors.New("node already has an origin line")
	ErrUnbalanced     = errors.New("unbalanced event stream")
)

// Kind discriminates syntax nodes.
type Kind uint8

const (
	DocumentNode Kind = iota + 1
	MappingNode
	SequenceNode
	ScalarNode
)

func (k Kind) String() string {
	switch k {
	case DocumentNode:
		return "document"
	case MappingNode:
		return "mapping"
	case SequenceNode:
		return "sequence"
	case ScalarNode:
		return "scalar"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Node is one document, mapping, sequence or scalar.
//
// Mapping children alternate key and value. A document has at most one child.
type Node struct {
	Kind     Kind
	Tag      string
	Anchor   string
	Value    string
	Style    events.Style
	Children []*Node

	// Resolve is the scalar resolution handed over by the event source.
	Resolve func() (any, error)

	line    int
	stamped bool
}

// Line is the origin line recorded for the node.
func (n *Node) Line() int {
	return n.line
}

// Stamped reports whether an origin line has been recorded.
func (n *Node) Stamped() bool {
	return n.stamped
}

// stamp records the origin line. A node is stamped at most once.
func (n *Node) stamp(line int) error {
	if n.stamped {
		return fmt.Errorf("%w: %s node at line %d", ErrAlreadyStamped, n.Kind, n.line)
	}
	n.line = line
	n.stamped = true
	return nil
}

// Stream is the root of a built tree.
type Stream struct {
	Documents []*Node
}

// Document returns the first document, or nil.
func (s *Stream) Document() *Node {
	if s == nil || len(s.Documents) == 0 {
		return nil
	}
	return s.Documents[0]
}

package syntax

import (
	"fmt"

	"github.com/githubnext/yamlline/pkg/events"
)

// TreeBuilder is the plain construction of a node tree from events. It keeps a
// stack of open documents and collections and leaves every node unstamped.
type TreeBuilder struct {
	root  Stream
	stack []*Node
}

var _ events.Handler = (*TreeBuilder)(nil)

// NewTreeBuilder returns an empty builder.
func NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{}
}

// Root returns the tree built so far.
func (b *TreeBuilder) Root() *Stream {
	return &b.root
}

// OpenDocument starts a document node.
func (b *TreeBuilder) OpenDocument(events.DocumentEvent) (*Node, error) {
	if len(b.stack) > 0 {
		return nil, fmt.Errorf("%w: document inside %s", ErrUnbalanced, b.top().Kind)
	}
	n := &Node{Kind: DocumentNode}
	b.root.Documents = append(b.root.Documents, n)
	b.stack = append(b.stack, n)
	return n, nil
}

// OpenMapping starts a mapping node under the current parent.
func (b *TreeBuilder) OpenMapping(e events.CollectionEvent) (*Node, error) {
	n := &Node{Kind: MappingNode, Tag: e.Tag, Anchor: e.Anchor, Style: e.Style}
	if err := b.add(n); err != nil {
		return nil, err
	}
	b.stack = append(b.stack, n)
	return n, nil
}

// OpenSequence starts a sequence node under the current parent.
func (b *TreeBuilder) OpenSequence(e events.CollectionEvent) (*Node, error) {
	n := &Node{Kind: SequenceNode, Tag: e.Tag, Anchor: e.Anchor, Style: e.Style}
	if err := b.add(n); err != nil {
		return nil, err
	}
	b.stack = append(b.stack, n)
	return n, nil
}

// AddScalar appends a scalar node to the current parent.
func (b *TreeBuilder) AddScalar(e events.ScalarEvent) (*Node, error) {
	n := &Node{
		Kind:    ScalarNode,
		Tag:     e.Tag,
		Anchor:  e.Anchor,
		Value:   e.Value,
		Style:   e.Style,
		Resolve: e.Resolve,
	}
	if err := b.add(n); err != nil {
		return nil, err
	}
	return n, nil
}

func (b *TreeBuilder) StartDocument(e events.DocumentEvent) error {
	_, err := b.OpenDocument(e)
	return err
}

func (b *TreeBuilder) StartMapping(e events.CollectionEvent) error {
	_, err := b.OpenMapping(e)
	return err
}

func (b *TreeBuilder) StartSequence(e events.CollectionEvent) error {
	_, err := b.OpenSequence(e)
	return err
}

func (b *TreeBuilder) Scalar(e events.ScalarEvent) error {
	_, err := b.AddScalar(e)
	return err
}

func (b *TreeBuilder) EndDocument() error { return b.close(DocumentNode) }
func (b *TreeBuilder) EndMapping() error  { return b.close(MappingNode) }
func (b *TreeBuilder) EndSequence() error { return b.close(SequenceNode) }

func (b *TreeBuilder) top() *Node {
	if len(b.stack) == 0 {
		return nil
	}
	return b.stack[len(b.stack)-1]
}

func (b *TreeBuilder) add(n *Node) error {
	parent := b.top()
	switch {
	case parent == nil:
		return fmt.Errorf("%w: %s outside a document", ErrUnbalanced, n.Kind)
	case parent.Kind == DocumentNode && len(parent.Children) > 0:
		return fmt.Errorf("%w: second root %s in document", ErrUnbalanced, n.Kind)
	case parent.Kind == ScalarNode:
		return fmt.Errorf("%w: %s inside scalar", ErrUnbalanced, n.Kind)
	}
	parent.Children = append(parent.Children, n)
	return nil
}

func (b *TreeBuilder) close(kind Kind) error {
	n := b.top()
	if n == nil {
		return fmt.Errorf("%w: end of %s with nothing open", ErrUnbalanced, kind)
	}
	if n.Kind != kind {
		return fmt.Errorf("%w: end of %s while %s is open", ErrUnbalanced, kind, n.Kind)
	}
	if kind == MappingNode && len(n.Children)%2 != 0 {
		return fmt.Errorf("%w: mapping key without value", ErrUnbalanced)
	}
	b.stack = b.stack[:len(b.stack)-1]
	return nil
}

// LineBuilder is a TreeBuilder that stamps every node it creates with the
// line the parser reports for the event. The line is read before the node is
// constructed and attached right after; end events are passed through.
type LineBuilder struct {
	*TreeBuilder
	marker events.Marker
}

var _ events.Handler = (*LineBuilder)(nil)

// NewLineBuilder returns a builder that reads positions from m.
func NewLineBuilder(m events.Marker) *LineBuilder {
	return &LineBuilder{TreeBuilder: NewTreeBuilder(), marker: m}
}

func (b *LineBuilder) StartDocument(e events.DocumentEvent) error {
	line := b.marker.Mark().Line
	n, err := b.OpenDocument(e)
	if err != nil {
		return err
	}
	return n.stamp(line)
}

func (b *LineBuilder) StartMapping(e events.CollectionEvent) error {
	line := b.marker.Mark().Line
	n, err := b.OpenMapping(e)
	if err != nil {
		return err
	}
	return n.stamp(line)
}

func (b *LineBuilder) StartSequence(e events.CollectionEvent) error {
	line := b.marker.Mark().Line
	n, err := b.OpenSequence(e)
	if err != nil {
		return err
	}
	return n.stamp(line)
}

func (b *LineBuilder) Scalar(e events.ScalarEvent) error {
	line := b.marker.Mark().Line
	n, err := b.AddScalar(e)
	if err != nil {
		return err
	}
	return n.stamp(line)
}

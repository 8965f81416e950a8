package syntax

import (
	"errors"
	"testing"

	"github.com/githubnext/yamlline/pkg/events"
)

// fakeMarker reports whatever line the test sets.
type fakeMarker struct {
	line int
}

func (m *fakeMarker) Mark() events.Mark {
	return events.Mark{Line: m.line}
}

func TestLineBuilderStampsAtEvent(t *testing.T) {
	m := &fakeMarker{}
	b := NewLineBuilder(m)

	steps := []struct {
		line int
		fire func() error
	}{
		{1, func() error { return b.StartDocument(events.DocumentEvent{}) }},
		{1, func() error { return b.StartMapping(events.CollectionEvent{Tag: "!!map"}) }},
		{0, func() error { return b.Scalar(events.ScalarEvent{Tag: "!!str", Value: "list"}) }},
		{1, func() error { return b.StartSequence(events.CollectionEvent{Tag: "!!seq"}) }},
		{2, func() error { return b.Scalar(events.ScalarEvent{Tag: "!!int", Value: "7"}) }},
		{9, func() error { return b.EndSequence() }},
		{9, func() error { return b.EndMapping() }},
		{9, func() error { return b.EndDocument() }},
	}
	for i, s := range steps {
		m.line = s.line
		if err := s.fire(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	doc := b.Root().Document()
	if doc == nil {
		t.Fatal("Expected a document")
	}
	mapping := doc.Children[0]
	key, seq := mapping.Children[0], mapping.Children[1]
	item := seq.Children[0]

	tests := []struct {
		name string
		node *Node
		kind Kind
		line int
	}{
		{"document", doc, DocumentNode, 1},
		{"mapping", mapping, MappingNode, 1},
		{"key", key, ScalarNode, 0},
		{"sequence", seq, SequenceNode, 1},
		{"item", item, ScalarNode, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.node.Kind != tt.kind {
				t.Errorf("Expected kind %s, got %s", tt.kind, tt.node.Kind)
			}
			if !tt.node.Stamped() {
				t.Fatal("Expected node to be stamped")
			}
			if tt.node.Line() != tt.line {
				t.Errorf("Expected line %d, got %d", tt.line, tt.node.Line())
			}
		})
	}
}

func TestTreeBuilderLeavesNodesUnstamped(t *testing.T) {
	p := events.YAMLv3.NewParser([]byte("a: [1, 2]\n"))
	b := NewTreeBuilder()
	if err := p.Parse(b); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	var visit func(n *Node)
	count := 0
	visit = func(n *Node) {
		count++
		if n.Stamped() {
			t.Errorf("Expected %s node to be unstamped", n.Kind)
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(b.Root().Document())
	if count != 6 {
		t.Errorf("Expected 6 nodes, got %d", count)
	}
}

func TestLineBuilderStampsEveryNode(t *testing.T) {
	src := "name: demo\nsteps:\n  - run: make\n    env: {CI: true}\n  - [a, b]\n"
	for _, backend := range []events.Backend{events.YAMLv3, events.Goccy} {
		t.Run(backend.Name(), func(t *testing.T) {
			p := backend.NewParser([]byte(src))
			b := NewLineBuilder(p)
			if err := p.Parse(b); err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			var visit func(parent, n *Node)
			visit = func(parent, n *Node) {
				if !n.Stamped() {
					t.Errorf("Expected %s %q to be stamped", n.Kind, n.Value)
				}
				if parent != nil && parent.Kind == DocumentNode && n.Line() < parent.Line() {
					t.Errorf("Root %s stamped before its document", n.Kind)
				}
				for _, c := range n.Children {
					visit(n, c)
				}
			}
			visit(nil, b.Root().Document())
		})
	}
}

func TestStampOnce(t *testing.T) {
	n := &Node{Kind: ScalarNode}
	if err := n.stamp(4); err != nil {
		t.Fatalf("First stamp failed: %v", err)
	}
	if err := n.stamp(5); !errors.Is(err, ErrAlreadyStamped) {
		t.Errorf("Expected ErrAlreadyStamped, got %v", err)
	}
	if n.Line() != 4 {
		t.Errorf("Expected line to stay 4, got %d", n.Line())
	}
}

func TestUnbalancedEvents(t *testing.T) {
	tests := []struct {
		name string
		run  func(b *TreeBuilder) error
	}{
		{
			name: "scalar outside document",
			run: func(b *TreeBuilder) error {
				return b.Scalar(events.ScalarEvent{Value: "x"})
			},
		},
		{
			name: "end mapping inside sequence",
			run: func(b *TreeBuilder) error {
				if err := b.StartDocument(events.DocumentEvent{}); err != nil {
					return err
				}
				if err := b.StartSequence(events.CollectionEvent{}); err != nil {
					return err
				}
				return b.EndMapping()
			},
		},
		{
			name: "mapping key without value",
			run: func(b *TreeBuilder) error {
				if err := b.StartDocument(events.DocumentEvent{}); err != nil {
					return err
				}
				if err := b.StartMapping(events.CollectionEvent{}); err != nil {
					return err
				}
				if err := b.Scalar(events.ScalarEvent{Value: "k"}); err != nil {
					return err
				}
				return b.EndMapping()
			},
		},
		{
			name: "two roots",
			run: func(b *TreeBuilder) error {
				if err := b.StartDocument(events.DocumentEvent{}); err != nil {
					return err
				}
				if err := b.Scalar(events.ScalarEvent{Value: "a"}); err != nil {
					return err
				}
				return b.Scalar(events.ScalarEvent{Value: "b"})
			},
		},
		{
			name: "end document with nothing open",
			run: func(b *TreeBuilder) error {
				return b.EndDocument()
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(NewTreeBuilder()); !errors.Is(err, ErrUnbalanced) {
				t.Errorf("Expected ErrUnbalanced, got %v", err)
			}
		})
	}
}

func TestConstructionErrorsPropagate(t *testing.T) {
	m := &fakeMarker{line: 3}
	b := NewLineBuilder(m)
	err := b.StartMapping(events.CollectionEvent{})
	if !errors.Is(err, ErrUnbalanced) {
		t.Errorf("Expected ErrUnbalanced from construction, got %v", err)
	}
	if len(b.Root().Documents) != 0 {
		t.Error("Expected no document to be built")
	}
}

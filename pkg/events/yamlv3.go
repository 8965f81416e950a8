package events

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

type yamlv3Backend struct{}

// YAMLv3 drives gopkg.in/yaml.v3. Its node tree is walked in document order
// and scalar resolution goes through (*yaml.Node).Decode.
var YAMLv3 Backend = yamlv3Backend{}

func (yamlv3Backend) Name() string { return "yamlv3" }

func (yamlv3Backend) NewParser(src []byte) Parser {
	return &yamlv3Parser{src: src}
}

func (yamlv3Backend) Unmarshal(src []byte, v *any) error {
	return yaml.Unmarshal(src, v)
}

func (yamlv3Backend) Keys() KeyPolicy { return KeyPolicy{} }

type yamlv3Parser struct {
	cursor
	src   []byte
	h     Handler
	guard *replayGuard[*yaml.Node]
}

func (p *yamlv3Parser) Parse(h Handler) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(p.src, &doc); err != nil {
		return yamlv3SyntaxError(err)
	}
	p.h = h
	p.guard = newReplayGuard[*yaml.Node]()

	if doc.Kind == 0 {
		// empty stream
		p.set(position{line: 1, column: 1})
		if err := h.StartDocument(DocumentEvent{Implicit: true}); err != nil {
			return err
		}
		return h.EndDocument()
	}

	p.set(position{line: doc.Line, column: doc.Column})
	if err := h.StartDocument(DocumentEvent{Implicit: !p.explicitStart(doc.Line)}); err != nil {
		return err
	}
	for _, n := range doc.Content {
		if err := p.walk(n, position{line: n.Line, column: n.Column}); err != nil {
			return err
		}
	}
	return h.EndDocument()
}

// explicitStart reports whether the given line opens with a "---" marker.
func (p *yamlv3Parser) explicitStart(line int) bool {
	lines := bytes.SplitN(p.src, []byte("\n"), line+1)
	if line < 1 || line > len(lines) {
		return false
	}
	return bytes.HasPrefix(lines[line-1], []byte("---"))
}

func (p *yamlv3Parser) walk(n *yaml.Node, pos position) error {
	if n.Kind != yaml.AliasNode {
		if err := p.guard.count(); err != nil {
			return &SyntaxError{Line: n.Line, Column: n.Column, Err: err}
		}
	}
	switch n.Kind {
	case yaml.MappingNode:
		return p.mapping(n, pos)
	case yaml.SequenceNode:
		return p.sequence(n, pos)
	case yaml.ScalarNode:
		p.set(pos)
		return p.h.Scalar(ScalarEvent{
			Anchor:  n.Anchor,
			Tag:     n.ShortTag(),
			Value:   n.Value,
			Style:   yamlv3Style(n.Style),
			Resolve: yamlv3Resolver(n),
		})
	case yaml.AliasNode:
		return p.alias(n, pos)
	default:
		return &SyntaxError{Line: n.Line, Column: n.Column, Err: fmt.Errorf("%w: kind %d", ErrUnsupportedNode, n.Kind)}
	}
}

func (p *yamlv3Parser) mapping(n *yaml.Node, pos position) error {
	p.guard.enter(n)
	defer p.guard.leave(n)

	p.set(pos)
	if err := p.h.StartMapping(CollectionEvent{Anchor: n.Anchor, Tag: n.ShortTag(), Style: yamlv3Style(n.Style)}); err != nil {
		return err
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if err := p.walk(k, position{line: k.Line, column: k.Column, key: true}); err != nil {
			return err
		}
		if err := p.walk(v, yamlv3ValuePosition(k, v)); err != nil {
			return err
		}
	}
	return p.h.EndMapping()
}

func (p *yamlv3Parser) sequence(n *yaml.Node, pos position) error {
	p.guard.enter(n)
	defer p.guard.leave(n)

	p.set(pos)
	if err := p.h.StartSequence(CollectionEvent{Anchor: n.Anchor, Tag: n.ShortTag(), Style: yamlv3Style(n.Style)}); err != nil {
		return err
	}
	for _, c := range n.Content {
		if err := p.walk(c, position{line: c.Line, column: c.Column}); err != nil {
			return err
		}
	}
	return p.h.EndSequence()
}

// alias replays the anchored node. The replayed node takes the alias
// position; its descendants keep the lines they have under the anchor.
func (p *yamlv3Parser) alias(n *yaml.Node, pos position) error {
	target := n.Alias
	if target == nil {
		return aliasError(n.Value, n.Line, n.Column, ErrUnknownAlias)
	}
	if p.guard.recursive(target) {
		return aliasError(n.Value, n.Line, n.Column, ErrRecursiveAlias)
	}
	p.guard.depth++
	defer func() { p.guard.depth-- }()
	return p.walk(target, pos)
}

// yamlv3ValuePosition places a mapping value. Block collections start on the
// line after their key, but belong to the key's line.
func yamlv3ValuePosition(k, v *yaml.Node) position {
	if (v.Kind == yaml.MappingNode || v.Kind == yaml.SequenceNode) && v.Style&yaml.FlowStyle == 0 {
		return position{line: k.Line, column: k.Column}
	}
	return position{line: v.Line, column: v.Column}
}

func yamlv3Resolver(n *yaml.Node) func() (any, error) {
	return func() (any, error) {
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func yamlv3Style(s yaml.Style) Style {
	var out Style
	if s&yaml.TaggedStyle != 0 {
		out |= TaggedStyle
	}
	if s&yaml.SingleQuotedStyle != 0 {
		out |= SingleQuotedStyle
	}
	if s&yaml.DoubleQuotedStyle != 0 {
		out |= DoubleQuotedStyle
	}
	if s&yaml.LiteralStyle != 0 {
		out |= LiteralStyle
	}
	if s&yaml.FoldedStyle != 0 {
		out |= FoldedStyle
	}
	if s&yaml.FlowStyle != 0 {
		out |= FlowStyle
	}
	return out
}

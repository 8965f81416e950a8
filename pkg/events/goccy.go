package events

import (
	"fmt"
	"strconv"
	"strings"

	goyaml "github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/token"
)

type goccyBackend struct{}

// Goccy drives github.com/goccy/go-yaml. Its AST is walked in document order
// and scalar resolution goes through goyaml.NodeToValue. A scalar tagged with
// a core type must hold text of that type; goccy on its own falls back to a
// zero value.
var Goccy Backend = goccyBackend{}

func (goccyBackend) Name() string { return "goccy" }

func (goccyBackend) NewParser(src []byte) Parser {
	return &goccyParser{src: src}
}

func (goccyBackend) Unmarshal(src []byte, v *any) error {
	return goyaml.Unmarshal(src, v)
}

func (goccyBackend) Keys() KeyPolicy {
	return KeyPolicy{StringKeys: true, LastWins: true}
}

type goccyParser struct {
	cursor
	src     []byte
	h       Handler
	anchors map[string]ast.Node
	guard   *replayGuard[ast.Node]
}

func (p *goccyParser) Parse(h Handler) error {
	// Duplicate keys are reported by the converter for every backend.
	file, err := parser.ParseBytes(p.src, 0, parser.AllowDuplicateMapKey())
	if err != nil {
		return goccySyntaxError(err)
	}
	p.h = h
	p.anchors = make(map[string]ast.Node)
	p.guard = newReplayGuard[ast.Node]()

	var doc *ast.DocumentNode
	if len(file.Docs) > 0 {
		doc = file.Docs[0]
	}
	if doc == nil || doc.Body == nil {
		pos := position{line: 1, column: 1}
		if doc != nil {
			pos = tokenPosition(doc.Start, pos)
		}
		p.set(pos)
		if err := h.StartDocument(DocumentEvent{Implicit: doc == nil || doc.Start == nil}); err != nil {
			return err
		}
		return h.EndDocument()
	}

	body := p.start(doc.Body)
	p.set(tokenPosition(doc.Start, body))
	if err := h.StartDocument(DocumentEvent{Implicit: doc.Start == nil}); err != nil {
		return err
	}
	if err := p.walk(doc.Body, body); err != nil {
		return err
	}
	return h.EndDocument()
}

// properties collects the anchor and tag wrapped around a node.
type properties struct {
	anchor string
	tag    string
}

func (p *goccyParser) walk(n ast.Node, pos position) error {
	var props properties
	for {
		switch w := n.(type) {
		case *ast.AnchorNode:
			props.anchor = scalarText(w.Name)
			p.anchors[props.anchor] = w.Value
			p.guard.enter(w.Value)
			defer p.guard.leave(w.Value)
			n = w.Value
			continue
		case *ast.TagNode:
			if w.Start != nil {
				props.tag = w.Start.Value
			}
			if w.Value == nil {
				// a tag with nothing after it, e.g. "key: !!str"
				p.set(pos)
				return p.h.Scalar(ScalarEvent{Anchor: props.anchor, Tag: props.tag, Style: TaggedStyle, Resolve: resolveEmpty(props.tag)})
			}
			if isScalar(w.Value) {
				p.set(pos)
				return p.scalar(w, props, scalarText(w.Value))
			}
			n = w.Value
			continue
		case *ast.MappingKeyNode:
			n = w.Value
			continue
		}
		break
	}

	if _, ok := n.(*ast.AliasNode); !ok {
		if err := p.guard.count(); err != nil {
			return &SyntaxError{Line: pos.line, Column: pos.column, Err: err}
		}
	}

	switch n := n.(type) {
	case *ast.MappingNode:
		return p.mapping(n.Values, n.IsFlowStyle, props, pos)
	case *ast.MappingValueNode:
		return p.mapping([]*ast.MappingValueNode{n}, false, props, pos)
	case *ast.SequenceNode:
		return p.sequence(n, props, pos)
	case *ast.AliasNode:
		return p.alias(n, pos)
	case nil:
		p.set(pos)
		return p.h.Scalar(ScalarEvent{Anchor: props.anchor, Tag: "!!null", Style: propsStyle(props), Resolve: resolveNull})
	default:
		if !isScalar(n) {
			return &SyntaxError{Line: pos.line, Column: pos.column, Err: fmt.Errorf("%w: %s", ErrUnsupportedNode, n.Type())}
		}
		p.set(pos)
		return p.scalar(n, props, scalarText(n))
	}
}

func (p *goccyParser) scalar(n ast.Node, props properties, value string) error {
	tag := props.tag
	if tag == "" {
		tag = goccyScalarTag(n)
	}
	return p.h.Scalar(ScalarEvent{
		Anchor:  props.anchor,
		Tag:     tag,
		Value:   value,
		Style:   propsStyle(props) | goccyScalarStyle(n),
		Resolve: goccyResolver(n, props.tag),
	})
}

func (p *goccyParser) mapping(values []*ast.MappingValueNode, flow bool, props properties, pos position) error {
	style := propsStyle(props)
	if flow {
		style |= FlowStyle
	}
	tag := props.tag
	if tag == "" {
		tag = "!!map"
	}
	p.set(pos)
	if err := p.h.StartMapping(CollectionEvent{Anchor: props.anchor, Tag: tag, Style: style}); err != nil {
		return err
	}
	for _, mv := range values {
		if mv == nil {
			continue
		}
		keyPos := p.start(mv.Key)
		keyPos.key = true
		if _, ok := unwrap(mv.Key).(*ast.MergeKeyNode); ok {
			p.set(keyPos)
			if err := p.h.Scalar(ScalarEvent{Tag: MergeTag, Value: "<<", Resolve: resolveMergeKey}); err != nil {
				return err
			}
		} else if err := p.walk(mv.Key, keyPos); err != nil {
			return err
		}

		valuePos := p.start(mv.Value)
		if isBlockCollection(mv.Value) {
			valuePos = p.start(mv.Key)
		} else if mv.Value == nil {
			valuePos = tokenPosition(mv.Start, keyPos)
			valuePos.key = false
		}
		if err := p.walk(mv.Value, valuePos); err != nil {
			return err
		}
	}
	return p.h.EndMapping()
}

func (p *goccyParser) sequence(n *ast.SequenceNode, props properties, pos position) error {
	style := propsStyle(props)
	if n.IsFlowStyle {
		style |= FlowStyle
	}
	tag := props.tag
	if tag == "" {
		tag = "!!seq"
	}
	p.set(pos)
	if err := p.h.StartSequence(CollectionEvent{Anchor: props.anchor, Tag: tag, Style: style}); err != nil {
		return err
	}
	for i, v := range n.Values {
		vpos := p.start(v)
		if v == nil && i < len(n.Entries) && n.Entries[i] != nil {
			vpos = tokenPosition(n.Entries[i].Start, pos)
		}
		if err := p.walk(v, vpos); err != nil {
			return err
		}
	}
	return p.h.EndSequence()
}

// alias replays the anchored node. The replayed node takes the alias
// position; its descendants keep the lines they have under the anchor.
func (p *goccyParser) alias(n *ast.AliasNode, pos position) error {
	name := scalarText(n.Value)
	target, ok := p.anchors[name]
	if !ok {
		return aliasError(name, pos.line, pos.column, ErrUnknownAlias)
	}
	if p.guard.recursive(target) {
		return aliasError(name, pos.line, pos.column, ErrRecursiveAlias)
	}
	p.guard.depth++
	defer func() { p.guard.depth-- }()
	return p.walk(target, pos)
}

// start returns where a node begins. Block mappings are anchored on their
// first key rather than the ':' token goccy records.
func (p *goccyParser) start(n ast.Node) position {
	switch v := n.(type) {
	case nil:
		return position{}
	case *ast.MappingNode:
		if !v.IsFlowStyle && len(v.Values) > 0 && v.Values[0] != nil {
			return p.start(v.Values[0].Key)
		}
	case *ast.MappingValueNode:
		return p.start(v.Key)
	}
	return tokenPosition(n.GetToken(), position{})
}

func tokenPosition(tk *token.Token, fallback position) position {
	if tk == nil || tk.Position == nil {
		return fallback
	}
	return position{line: tk.Position.Line, column: tk.Position.Column}
}

// unwrap strips anchors, tags and explicit key markers.
func unwrap(n ast.Node) ast.Node {
	for {
		switch w := n.(type) {
		case *ast.AnchorNode:
			n = w.Value
		case *ast.TagNode:
			n = w.Value
		case *ast.MappingKeyNode:
			n = w.Value
		default:
			return n
		}
	}
}

func isBlockCollection(n ast.Node) bool {
	switch v := unwrap(n).(type) {
	case *ast.MappingNode:
		return !v.IsFlowStyle
	case *ast.MappingValueNode:
		return true
	case *ast.SequenceNode:
		return !v.IsFlowStyle
	}
	return false
}

func isScalar(n ast.Node) bool {
	switch n.(type) {
	case *ast.StringNode, *ast.IntegerNode, *ast.FloatNode, *ast.BoolNode,
		*ast.NullNode, *ast.InfinityNode, *ast.NanNode, *ast.LiteralNode:
		return true
	}
	return false
}

// scalarText is the scalar's text after unquoting and folding.
func scalarText(n ast.Node) string {
	switch v := n.(type) {
	case nil:
		return ""
	case *ast.StringNode:
		return v.Value
	case *ast.LiteralNode:
		if v.Value != nil {
			return v.Value.Value
		}
		return ""
	}
	if tk := n.GetToken(); tk != nil {
		if tk.Type == token.ImplicitNullType {
			return ""
		}
		return tk.Value
	}
	return ""
}

func goccyScalarTag(n ast.Node) string {
	switch n.(type) {
	case *ast.IntegerNode:
		return "!!int"
	case *ast.FloatNode, *ast.InfinityNode, *ast.NanNode:
		return "!!float"
	case *ast.BoolNode:
		return "!!bool"
	case *ast.NullNode:
		return "!!null"
	}
	return "!!str"
}

func goccyScalarStyle(n ast.Node) Style {
	var tk *token.Token
	switch v := n.(type) {
	case *ast.TagNode:
		if v.Value == nil {
			return 0
		}
		return goccyScalarStyle(v.Value)
	case *ast.LiteralNode:
		tk = v.Start
	default:
		tk = n.GetToken()
	}
	if tk == nil {
		return 0
	}
	switch tk.Type {
	case token.SingleQuoteType:
		return SingleQuotedStyle
	case token.DoubleQuoteType:
		return DoubleQuotedStyle
	case token.LiteralType:
		return LiteralStyle
	case token.FoldedType:
		return FoldedStyle
	}
	return 0
}

func propsStyle(props properties) Style {
	if props.tag != "" {
		return TaggedStyle
	}
	return 0
}

func goccyResolver(n ast.Node, tag string) func() (any, error) {
	return func() (any, error) {
		if t, ok := n.(*ast.TagNode); ok && t.Value != nil {
			if err := checkCoreTag(t.Value, tag); err != nil {
				return nil, err
			}
		}
		var v any
		if err := goyaml.NodeToValue(n, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// checkCoreTag fails when the scalar n cannot be read as the core type tag
// names. The text is checked the way goccy converts it.
func checkCoreTag(n ast.Node, tag string) error {
	var v any
	if err := goyaml.NodeToValue(n, &v); err != nil {
		return err
	}
	text := fmt.Sprint(v)
	ok := true
	switch tag {
	case "!!int":
		_, err := strconv.Atoi(text)
		ok = err == nil
	case "!!float":
		if s, isString := v.(string); isString {
			_, err := strconv.ParseFloat(s, 64)
			ok = err == nil
		} else {
			switch v.(type) {
			case int, int64, uint64, float64:
			default:
				ok = false
			}
		}
	case "!!bool":
		if _, isBool := v.(bool); !isBool {
			switch strings.ToLower(text) {
			case "true", "false", "yes", "no", "1", "0", "t", "f":
			default:
				ok = false
			}
		}
	case "!!null":
		switch scalarText(n) {
		case "", "~", "null", "Null", "NULL":
		default:
			ok = false
		}
	}
	if !ok {
		return fmt.Errorf("%w: cannot decode %s `%s` as a %s", ErrTagMismatch, goccyScalarTag(n), scalarText(n), tag)
	}
	return nil
}

func resolveNull() (any, error) { return nil, nil }

func resolveEmpty(tag string) func() (any, error) {
	if tag == "!!str" {
		return func() (any, error) { return "", nil }
	}
	return resolveNull
}

func resolveMergeKey() (any, error) { return "<<", nil }

package linenum

import (
	"fmt"

	"github.com/githubnext/yamlline/pkg/annotated"
	"github.com/githubnext/yamlline/pkg/events"
	"github.com/githubnext/yamlline/pkg/syntax"
)

// converter turns stamped syntax nodes into annotated values. keys is the
// backend's mapping policy, so stripped values match the backend's plain
// decode.
type converter struct {
	keys events.KeyPolicy
}

func (c converter) convert(n *syntax.Node) (annotated.Value, error) {
	switch n.Kind {
	case syntax.DocumentNode:
		return c.convertDocument(n)
	case syntax.MappingNode:
		return c.convertMapping(n)
	case syntax.SequenceNode:
		return c.convertSequence(n)
	case syntax.ScalarNode:
		return convertScalar(n)
	}
	return nil, &DecodeError{Line: n.Line(), Err: fmt.Errorf("unexpected %s node", n.Kind)}
}

func (c converter) convertDocument(n *syntax.Node) (annotated.Value, error) {
	if len(n.Children) == 0 {
		return annotated.NewScalar(nil, max(n.Line(), 1)), nil
	}
	return c.convert(n.Children[0])
}

func convertScalar(n *syntax.Node) (annotated.Value, error) {
	v, err := resolve(n)
	if err != nil {
		return nil, &DecodeError{Line: n.Line(), Err: err}
	}
	return annotated.NewScalar(v, n.Line()), nil
}

func resolve(n *syntax.Node) (any, error) {
	if n.Resolve != nil {
		return n.Resolve()
	}
	if n.Tag == "!!null" {
		return nil, nil
	}
	return n.Value, nil
}

func (c converter) convertSequence(n *syntax.Node) (annotated.Value, error) {
	seq := annotated.NewSequence(n.Line())
	for _, child := range n.Children {
		v, err := c.convert(child)
		if err != nil {
			return nil, err
		}
		seq.Append(v)
	}
	return seq, nil
}

// keyID identifies a key the way gopkg.in/yaml.v3 does when it looks for
// duplicates: by node kind and raw text.
type keyID struct {
	kind  syntax.Kind
	value string
}

// pairSet holds the entries of one mapping, at most one per key content.
type pairSet struct {
	m     *annotated.Mapping
	index map[any]int
}

// put stores k and v. An entry with the same key is replaced in place when
// replace is set and kept otherwise.
func (s *pairSet) put(k, v annotated.Value, replace bool) {
	h := annotated.HashKey(k.Interface())
	if i, ok := s.index[h]; ok {
		if replace {
			s.m.Pairs[i] = annotated.Pair{Key: k, Value: v}
		}
		return
	}
	s.index[h] = len(s.m.Pairs)
	s.m.Append(k, v)
}

func (c converter) convertMapping(n *syntax.Node) (annotated.Value, error) {
	set := &pairSet{m: annotated.NewMapping(n.Line()), index: make(map[any]int)}
	defined := make(map[keyID]int)
	var merge *syntax.Node

	for i := 0; i+1 < len(n.Children); i += 2 {
		kn, vn := n.Children[i], n.Children[i+1]

		k, err := c.convert(kn)
		if err != nil {
			return nil, err
		}
		// Keys are stamped one line early; see events.Parser.
		annotated.SetLine(k, annotated.Line(k)+1)

		id := keyID{kind: kn.Kind, value: kn.Value}
		if first, ok := defined[id]; ok {
			return nil, &DecodeError{Line: annotated.Line(k), Err: &duplicateKeyError{key: kn.Value, line: first}}
		}
		defined[id] = annotated.Line(k)

		if isMerge(kn) {
			if c.keys.LastWins {
				if err := c.mergeInto(set, vn); err != nil {
					return nil, err
				}
			} else {
				merge = vn
			}
			continue
		}
		if k, err = c.mapKey(k); err != nil {
			return nil, err
		}

		v, err := c.convert(vn)
		if err != nil {
			return nil, err
		}
		set.put(k, v, true)
	}

	if merge != nil {
		if err := c.mergeInto(set, merge); err != nil {
			return nil, err
		}
	}
	return set.m, nil
}

// mapKey checks a converted key and applies the StringKeys policy.
func (c converter) mapKey(k annotated.Value) (annotated.Value, error) {
	if !c.keys.StringKeys {
		if k.Kind() != annotated.ScalarKind {
			return nil, &DecodeError{Line: annotated.Line(k), Err: fmt.Errorf("%w: %#v", ErrInvalidMapKey, k.Interface())}
		}
		return k, nil
	}
	text := "null"
	if v := k.Interface(); v != nil {
		text = fmt.Sprint(v)
	}
	return annotated.NewScalar(text, annotated.Line(k)), nil
}

func isMerge(n *syntax.Node) bool {
	return n.Kind == syntax.ScalarNode && n.Value == "<<" && n.Tag == events.MergeTag
}

// mergeInto adds the entries of a "<<" value to set. Merged entries keep the
// lines of the nodes they were copied from. Which entry wins a clash follows
// the LastWins policy.
func (c converter) mergeInto(set *pairSet, src *syntax.Node) error {
	var sources []*syntax.Node
	switch src.Kind {
	case syntax.MappingNode:
		sources = []*syntax.Node{src}
	case syntax.SequenceNode:
		for _, s := range src.Children {
			if s.Kind != syntax.MappingNode {
				return &DecodeError{Line: s.Line(), Err: ErrMergeNotMapping}
			}
		}
		sources = src.Children
	default:
		return &DecodeError{Line: src.Line(), Err: ErrMergeNotMapping}
	}

	for _, s := range sources {
		v, err := c.convertMapping(s)
		if err != nil {
			return err
		}
		for _, p := range v.(*annotated.Mapping).Pairs {
			set.put(p.Key, p.Value, c.keys.LastWins)
		}
	}
	return nil
}

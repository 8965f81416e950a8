package cli

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/githubnext/yamlline/pkg/annotated"
)

// DumpNode is the JSON form of an annotated value. A sequence's value is a
// list of nodes; a mapping's is a list of entries, so key order, key lines and
// non-string keys survive.
type DumpNode struct {
	Line  int    `json:"line"`
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

// DumpEntry is one mapping entry of a DumpNode.
type DumpEntry struct {
	Key   DumpNode `json:"key"`
	Value DumpNode `json:"value"`
}

// ToDump converts v to its JSON form.
func ToDump(v annotated.Value) DumpNode {
	node := DumpNode{Line: annotated.Line(v)}
	switch v := v.(type) {
	case *annotated.Mapping:
		pairs := make([]DumpEntry, 0, len(v.Pairs))
		for _, p := range v.Pairs {
			pairs = append(pairs, DumpEntry{Key: ToDump(p.Key), Value: ToDump(p.Value)})
		}
		node.Kind, node.Value = "mapping", pairs
	case *annotated.Sequence:
		items := make([]DumpNode, 0, len(v.Items))
		for _, item := range v.Items {
			items = append(items, ToDump(item))
		}
		node.Kind, node.Value = "sequence", items
	case *annotated.Scalar:
		node.Kind, node.Value = "scalar", jsonScalar(v.Content)
	}
	return node
}

// jsonScalar spells the floats JSON has no literal for the way YAML does.
func jsonScalar(content any) any {
	f, ok := content.(float64)
	switch {
	case !ok:
		return content
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	return f
}

// Dump prints the annotated tree of file as indented JSON.
func (r *Runner) Dump(file string) error {
	f := r.decodeFile(file)
	if f.err != nil {
		r.report(f)
		return failures(1, 1)
	}

	data, err := json.MarshalIndent(ToDump(f.value), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", file, err)
	}
	fmt.Fprintln(r.Out, string(data))
	return nil
}

package cli

import (
	"fmt"
	"strconv"

	"github.com/githubnext/yamlline/pkg/annotated"
	"github.com/githubnext/yamlline/pkg/console"
)

// maxValueWidth truncates long scalars in the lines table.
const maxValueWidth = 48

// LineEntry is one row of the lines table.
type LineEntry struct {
	Pointer string
	Role    string // "key" or "value"
	Line    int
	Text    string
}

// CollectLines lists every key and value of v in document order.
func CollectLines(v annotated.Value) []LineEntry {
	var entries []LineEntry
	_ = annotated.Walk(v, func(pointer string, key, v annotated.Value) error {
		if key != nil {
			entries = append(entries, LineEntry{Pointer: pointer, Role: "key", Line: annotated.Line(key), Text: describe(key)})
		}
		entries = append(entries, LineEntry{Pointer: pointer, Role: "value", Line: annotated.Line(v), Text: describe(v)})
		return nil
	})
	return entries
}

func describe(v annotated.Value) string {
	switch v := v.(type) {
	case *annotated.Mapping:
		return fmt.Sprintf("mapping (%d)", v.Len())
	case *annotated.Sequence:
		return fmt.Sprintf("sequence (%d)", v.Len())
	case *annotated.Scalar:
		text := v.String()
		if _, ok := v.Content.(string); ok {
			text = strconv.Quote(text)
		}
		if runes := []rune(text); len(runes) > maxValueWidth {
			text = string(runes[:maxValueWidth-3]) + "..."
		}
		return text
	}
	return ""
}

// Lines prints a table of the line of every key and value in each file.
func (r *Runner) Lines(files []string) error {
	failed := 0
	for _, f := range r.decodeAll(files, "Decoding files") {
		if f.err != nil {
			failed++
			r.report(f)
			continue
		}

		entries := CollectLines(f.value)
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			pointer := e.Pointer
			if pointer == "" {
				pointer = "/"
			}
			rows = append(rows, []string{pointer, e.Role, strconv.Itoa(e.Line), e.Text})
		}
		fmt.Fprint(r.Out, console.RenderTable(console.Table{
			Title:   console.ToRelativePath(f.path),
			Headers: []string{"POINTER", "ROLE", "LINE", "VALUE"},
			Rows:    rows,
		}))
	}
	return failures(failed, len(files))
}

package cli

import (
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/githubnext/yamlline/pkg/annotated"
	"github.com/githubnext/yamlline/pkg/console"
)

// VerifyResult summarizes how an annotated decode of one file compares with a
// plain decode by the same YAML library.
type VerifyResult struct {
	Values      int      // values and keys visited
	Unannotated []string // pointers of values without a line
	Diff        string   // stripped tree against the plain decode, empty when equal
}

// OK reports whether every value carries a line and nothing differs.
func (v VerifyResult) OK() bool {
	return len(v.Unannotated) == 0 && v.Diff == ""
}

// VerifyValue checks root against the plain decode of src.
func (r *Runner) VerifyValue(src []byte, root annotated.Value) (VerifyResult, error) {
	var res VerifyResult
	_ = annotated.Walk(root, func(pointer string, key, v annotated.Value) error {
		if key != nil {
			res.Values++
			if annotated.Line(key) < 1 {
				res.Unannotated = append(res.Unannotated, pointer+" (key)")
			}
		}
		res.Values++
		if annotated.Line(v) < 1 {
			res.Unannotated = append(res.Unannotated, pointer)
		}
		return nil
	})

	var plain any
	if err := r.backend.Unmarshal(src, &plain); err != nil {
		return res, fmt.Errorf("plain decode failed: %w", err)
	}
	res.Diff = cmp.Diff(plain, annotated.Strip(root))
	return res, nil
}

// Verify decodes each file with and without line annotations and reports any
// difference between the two, and any value left without a line.
func (r *Runner) Verify(files []string) error {
	failed := 0
	for _, f := range r.decodeAll(files, "Verifying files") {
		if f.err != nil {
			failed++
			r.report(f)
			continue
		}

		res, err := r.VerifyValue(f.src, f.value)
		if err != nil {
			failed++
			fmt.Fprintln(r.Err, console.FormatErrorMessage(fmt.Sprintf("%s: %v", f.path, err)))
			continue
		}

		name := console.ToRelativePath(f.path)
		if res.OK() {
			fmt.Fprintln(r.Out, console.FormatSuccessMessage(fmt.Sprintf("%s: %d values annotated, content matches %s", name, res.Values, r.backend.Name())))
			continue
		}

		failed++
		for _, p := range res.Unannotated {
			fmt.Fprintln(r.Err, console.FormatWarningMessage(fmt.Sprintf("%s: no line for %s", name, p)))
		}
		if res.Diff != "" {
			fmt.Fprintln(r.Err, console.FormatWarningMessage(fmt.Sprintf("%s: content differs from %s (-plain +annotated):", name, r.backend.Name())))
			fmt.Fprint(r.Err, res.Diff)
		}
	}
	return failures(failed, len(files))
}

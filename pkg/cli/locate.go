package cli

import (
	"fmt"

	"github.com/githubnext/yamlline/internal/mapper"
	"github.com/githubnext/yamlline/pkg/annotated"
	"github.com/githubnext/yamlline/pkg/console"
)

// Locate prints "file:line" for the value at pointer, or for the key naming
// it when key is set.
func (r *Runner) Locate(file, pointer string, key bool) error {
	f := r.decodeFile(file)
	if f.err != nil {
		r.report(f)
		return failures(1, 1)
	}

	var v annotated.Value
	var err error
	if key {
		v, err = mapper.LocateKey(f.value, pointer)
	} else {
		v, err = mapper.Locate(f.value, pointer)
	}
	if err != nil {
		return err
	}

	r.verbosef("%s resolves to %s", pointer, describe(v))
	fmt.Fprintf(r.Out, "%s:%d\n", console.ToRelativePath(file), annotated.Line(v))
	return nil
}

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"

	"github.com/githubnext/yamlline/pkg/annotated"
	"github.com/githubnext/yamlline/pkg/console"
	"github.com/githubnext/yamlline/pkg/events"
	"github.com/githubnext/yamlline/pkg/linenum"
)

// ErrFailed is returned by commands that reported at least one problem.
var ErrFailed = errors.New("command failed")

// Runner executes the commands against one configuration.
type Runner struct {
	cfg     Config
	backend events.Backend
	decoder *linenum.Decoder
	Out     io.Writer
	Err     io.Writer
}

// NewRunner validates cfg and returns a Runner writing to stdout and stderr.
func NewRunner(cfg Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend, _ := events.Lookup(cfg.Backend)
	return &Runner{
		cfg:     cfg,
		backend: backend,
		decoder: linenum.NewDecoder(linenum.WithBackend(backend)),
		Out:     os.Stdout,
		Err:     os.Stderr,
	}, nil
}

func (r *Runner) verbosef(format string, args ...any) {
	if r.cfg.Verbose {
		fmt.Fprintln(r.Err, console.FormatVerboseMessage(fmt.Sprintf(format, args...)))
	}
}

// decodedFile is the outcome of decoding one input.
type decodedFile struct {
	index int
	path  string
	src   []byte
	value annotated.Value
	err   error
}

func (r *Runner) decodeFile(path string) decodedFile {
	f := decodedFile{path: path}
	src, err := os.ReadFile(path)
	if err != nil {
		f.err = &linenum.FileError{Path: path, Err: err}
		return f
	}
	f.src = src
	f.value, f.err = r.decoder.DecodeBytes(src)
	return f
}

// decodeAll decodes files on a bounded pool and returns the results in
// argument order.
func (r *Runner) decodeAll(files []string, label string) []decodedFile {
	spin := console.NewSpinner(label)
	if len(files) > 1 && !r.cfg.Verbose {
		spin.Start()
		defer spin.Stop()
	}

	var done atomic.Int64
	p := pool.NewWithResults[decodedFile]().WithMaxGoroutines(r.cfg.Jobs)
	for i, path := range files {
		p.Go(func() decodedFile {
			r.verbosef("Decoding %s with %s", path, r.backend.Name())
			f := r.decodeFile(path)
			f.index = i
			spin.Progress(int(done.Add(1)), len(files))
			return f
		})
	}

	results := p.Wait()
	sort.Slice(results, func(i, j int) bool {
		return results[i].index < results[j].index
	})
	return results
}

// report writes a decode failure as a diagnostic pointing into the source.
func (r *Runner) report(f decodedFile) {
	d := console.Diagnostic{
		Position: console.Position{File: f.path},
		Message:  f.err.Error(),
		Source:   f.src,
	}

	var syntaxErr *events.SyntaxError
	var decodeErr *linenum.DecodeError
	var fileErr *linenum.FileError
	switch {
	case errors.As(f.err, &syntaxErr):
		d.Position.Line = syntaxErr.Line
		d.Position.Column = syntaxErr.Column
		r.verbosef("%s parser output:\n%s", f.path, syntaxErr.Format(false))
	case errors.As(f.err, &decodeErr):
		d.Position.Line = decodeErr.Line
	case errors.As(f.err, &fileErr):
		d.Position.File = ""
	}
	switch {
	case errors.Is(f.err, events.ErrRecursiveAlias):
		d.Hint = "an anchored node cannot contain an alias to itself"
	case errors.Is(f.err, linenum.ErrDuplicateKey):
		d.Hint = "remove or rename one of the keys"
	}
	fmt.Fprint(r.Err, console.FormatDiagnostic(d))
}

func failures(n, total int) error {
	if n == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d files had problems", ErrFailed, n, total)
}

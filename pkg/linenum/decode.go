// Package linenum decodes a YAML document into annotated values that carry the
// one-based line each mapping, sequence and scalar began on.
//
//	v, err := linenum.Decode("config.yaml")
//	if err != nil {
//		return err
//	}
//	m := v.(*annotated.Mapping)
//	for _, p := range m.Pairs {
//		fmt.Println(annotated.Line(p.Key), annotated.Strip(p.Key))
//	}
//
// Stripping the metadata with annotated.Strip yields the same value a plain
// gopkg.in/yaml.v3 decode into an any produces. Only the first document of a
// stream is decoded. Decoding is all or nothing: on error no value is returned.
package linenum

import (
	"io"
	"os"

	"github.com/githubnext/yamlline/pkg/annotated"
	"github.com/githubnext/yamlline/pkg/events"
	"github.com/githubnext/yamlline/pkg/syntax"
)

// Decoder decodes documents with a fixed configuration. A Decoder holds no
// per-call state and may be shared between goroutines.
type Decoder struct {
	backend  events.Backend
	annotate bool
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithBackend selects the YAML library that parses the document.
func WithBackend(b events.Backend) Option {
	return func(d *Decoder) {
		if b != nil {
			d.backend = b
		}
	}
}

// WithLineBuilder turns line stamping on or off. Without it every value
// reports line 0 and keys line 1.
func WithLineBuilder(on bool) Option {
	return func(d *Decoder) {
		d.annotate = on
	}
}

// NewDecoder returns a Decoder using events.DefaultBackend with line stamping.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{backend: events.DefaultBackend, annotate: true}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Backend returns the YAML library in use.
func (d *Decoder) Backend() events.Backend {
	return d.backend
}

// Decode reads and decodes the file at path.
func (d *Decoder) Decode(path string) (annotated.Value, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	return d.DecodeBytes(src)
}

// DecodeReader reads r to the end and decodes it. name identifies the input
// in a FileError.
func (d *Decoder) DecodeReader(name string, r io.Reader) (annotated.Value, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, &FileError{Path: name, Err: err}
	}
	return d.DecodeBytes(src)
}

// DecodeBytes decodes the first document in src. Syntax errors are returned
// as the backend reports them, an *events.SyntaxError.
func (d *Decoder) DecodeBytes(src []byte) (annotated.Value, error) {
	p := d.backend.NewParser(src)

	var root func() *syntax.Stream
	var h events.Handler
	if d.annotate {
		b := syntax.NewLineBuilder(p)
		h, root = b, b.Root
	} else {
		b := syntax.NewTreeBuilder()
		h, root = b, b.Root
	}
	if err := p.Parse(h); err != nil {
		return nil, err
	}

	doc := root().Document()
	if doc == nil {
		return annotated.NewScalar(nil, 1), nil
	}
	return converter{keys: d.backend.Keys()}.convert(doc)
}

var defaultDecoder = NewDecoder()

// Decode reads the file at path and decodes its first document with the
// default backend.
func Decode(path string) (annotated.Value, error) {
	return defaultDecoder.Decode(path)
}

// DecodeBytes decodes the first document in src with the default backend.
func DecodeBytes(src []byte) (annotated.Value, error) {
	return defaultDecoder.DecodeBytes(src)
}

// DecodeReader decodes the first document read from r with the default
// backend.
func DecodeReader(name string, r io.Reader) (annotated.Value, error) {
	return defaultDecoder.DecodeReader(name, r)
}

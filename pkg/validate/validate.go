// Package validate checks decoded YAML against a JSON schema and reports each
// violation on the source line it came from.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/githubnext/yamlline/internal/mapper"
	"github.com/githubnext/yamlline/pkg/annotated"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// schemaURL is the location the schema is registered under in the compiler.
const schemaURL = "http://contoso.com/schema.json"

var (
	ErrInvalidSchema = errors.New("invalid schema")
	ErrNotJSON       = errors.New("value cannot be represented as JSON")
)

// Issue is one schema violation.
type Issue struct {
	Pointer string // RFC 6901 pointer of the offending instance
	Line    int
	Kind    string // schema keyword, e.g. "type" or "required"
	Message string
}

func (i Issue) String() string {
	if i.Pointer == "" {
		return fmt.Sprintf("line %d: %s", i.Line, i.Message)
	}
	return fmt.Sprintf("line %d: at '%s': %s", i.Line, i.Pointer, i.Message)
}

// Schema is a compiled JSON schema.
type Schema struct {
	schema *jsonschema.Schema
}

// Compile parses and compiles a JSON schema document.
func Compile(schemaJSON []byte) (*Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse schema JSON: %w", ErrInvalidSchema, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("%w: failed to add schema resource: %w", ErrInvalidSchema, err)
	}

	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return &Schema{schema: schema}, nil
}

// Validate compiles schemaJSON and validates root against it.
func Validate(root annotated.Value, schemaJSON []byte) ([]Issue, error) {
	s, err := Compile(schemaJSON)
	if err != nil {
		return nil, err
	}
	return s.Validate(root)
}

// Validate returns the violations found in root, ordered by line. A nil slice
// means the document is valid.
func (s *Schema) Validate(root annotated.Value) ([]Issue, error) {
	instance, err := normalize(root)
	if err != nil {
		return nil, err
	}

	err = s.schema.Validate(instance)
	if err == nil {
		return nil, nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, err
	}

	printer := message.NewPrinter(language.English)
	var issues []Issue
	for _, leaf := range leaves(verr) {
		issues = append(issues, toIssues(root, leaf, printer)...)
	}
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Line < issues[j].Line
	})
	return issues, nil
}

// normalize converts the stripped tree into the value model the validator
// expects, by round-tripping through JSON with exact numbers.
func normalize(root annotated.Value) (any, error) {
	data, err := json.Marshal(jsonCompatible(annotated.Strip(root)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotJSON, err)
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}

// jsonCompatible rewrites maps with non-string keys to string-keyed maps.
func jsonCompatible(v any) any {
	switch v := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = jsonCompatible(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = jsonCompatible(val)
		}
		return out
	}
	return v
}

// leaves flattens the cause tree to the errors that carry no causes of their own.
func leaves(e *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(e.Causes) == 0 {
		return []*jsonschema.ValidationError{e}
	}
	var out []*jsonschema.ValidationError
	for _, c := range e.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}

func toIssues(root annotated.Value, e *jsonschema.ValidationError, p *message.Printer) []Issue {
	pointer := instancePointer(e.InstanceLocation)
	keyword := keywordOf(e.ErrorKind)
	msg := "schema violation"
	if e.ErrorKind != nil {
		msg = e.ErrorKind.LocalizedString(p)
	}

	// Missing and extra properties are reported one per property so each
	// lands on its own line.
	var properties []string
	var format string
	switch k := e.ErrorKind.(type) {
	case *kind.Required:
		properties, format = k.Missing, "missing property '%s'"
	case *kind.AdditionalProperties:
		properties, format = k.Properties, "additional property '%s' not allowed"
	}
	if len(properties) == 0 {
		properties = []string{""}
	}

	issues := make([]Issue, 0, len(properties))
	for _, prop := range properties {
		span, err := mapper.MapErrorToSpan(root, pointer, mapper.ErrorMeta{Kind: keyword, Property: prop})
		if err != nil {
			span = mapper.Span{Line: 1}
		}
		issue := Issue{Pointer: pointer, Line: span.Line, Kind: keyword, Message: msg}
		if prop != "" {
			issue.Message = p.Sprintf(format, prop)
		}
		issues = append(issues, issue)
	}
	return issues
}

func keywordOf(k jsonschema.ErrorKind) string {
	if k == nil {
		return ""
	}
	path := k.KeywordPath()
	if len(path) == 0 {
		return ""
	}
	return path[0]
}

func instancePointer(location []string) string {
	var sb strings.Builder
	for _, part := range location {
		sb.WriteString("/")
		sb.WriteString(annotated.EscapeToken(part))
	}
	return sb.String()
}

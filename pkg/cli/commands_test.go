package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/githubnext/yamlline/internal/mapper"
	"github.com/githubnext/yamlline/pkg/linenum"
)

const serviceYAML = `name: demo
ports:
  - 80
  - "http"
`

func newTestRunner(t *testing.T, cfg Config) (*Runner, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	if cfg.Jobs == 0 {
		cfg.Jobs = 2
	}
	r, err := NewRunner(cfg)
	if err != nil {
		t.Fatalf("Failed to create runner: %v", err)
	}
	var out, errOut bytes.Buffer
	r.Out, r.Err = &out, &errOut
	return r, &out, &errOut
}

func TestNewRunnerRejectsBadConfig(t *testing.T) {
	if _, err := NewRunner(Config{Backend: "nope", Jobs: 1}); err == nil {
		t.Error("Expected an error for an unknown backend")
	}
}

func TestCollectLines(t *testing.T) {
	root, err := linenum.DecodeBytes([]byte(serviceYAML))
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	expected := []LineEntry{
		{Pointer: "", Role: "value", Line: 1, Text: "mapping (2)"},
		{Pointer: "/name", Role: "key", Line: 1, Text: `"name"`},
		{Pointer: "/name", Role: "value", Line: 1, Text: `"demo"`},
		{Pointer: "/ports", Role: "key", Line: 2, Text: `"ports"`},
		{Pointer: "/ports", Role: "value", Line: 2, Text: "sequence (2)"},
		{Pointer: "/ports/0", Role: "value", Line: 3, Text: "80"},
		{Pointer: "/ports/1", Role: "value", Line: 4, Text: `"http"`},
	}
	if diff := cmp.Diff(expected, CollectLines(root)); diff != "" {
		t.Errorf("CollectLines mismatch (-want +got):\n%s", diff)
	}
}

func TestLines(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "service.yaml", serviceYAML)
	other := writeFile(t, dir, "other.yaml", "x: [1, 2]\n")

	r, out, errOut := newTestRunner(t, Config{})
	if err := r.Lines([]string{good, other}); err != nil {
		t.Fatalf("Unexpected error: %v\n%s", err, errOut)
	}

	output := out.String()
	for _, s := range []string{"POINTER", "/ports/1", `"http"`, "/x/1"} {
		if !strings.Contains(output, s) {
			t.Errorf("Expected output to contain %q, got:\n%s", s, output)
		}
	}
	if strings.Index(output, "service.yaml") > strings.Index(output, "other.yaml") {
		t.Errorf("Expected tables in argument order, got:\n%s", output)
	}
}

func TestLinesReportsFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", "a: 1\n")
	dup := writeFile(t, dir, "dup.yaml", "a: 1\nb: 2\na: 3\n")
	missing := dir + "/missing.yaml"

	r, out, errOut := newTestRunner(t, Config{})
	err := r.Lines([]string{good, dup, missing})
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("Expected ErrFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "2 of 3 files") {
		t.Errorf("Expected failure count in %q", err.Error())
	}

	stderr := errOut.String()
	for _, s := range []string{
		"dup.yaml:3:1:",
		`mapping key "a" already defined at line 1`,
		"3 | a: 3",
		"hint: remove or rename one of the keys",
		"cannot read",
	} {
		if !strings.Contains(stderr, s) {
			t.Errorf("Expected stderr to contain %q, got:\n%s", s, stderr)
		}
	}
	if !strings.Contains(out.String(), "good.yaml") {
		t.Errorf("Expected the good file to be printed, got:\n%s", out.String())
	}
}

func TestLinesSyntaxErrorPosition(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "a: 1\nb: [1, 2\n")

	r, _, errOut := newTestRunner(t, Config{})
	if err := r.Lines([]string{path}); !errors.Is(err, ErrFailed) {
		t.Fatalf("Expected ErrFailed, got %v", err)
	}
	if !strings.Contains(errOut.String(), "bad.yaml:") {
		t.Errorf("Expected a positioned diagnostic, got:\n%s", errOut.String())
	}
}

func TestToDump(t *testing.T) {
	root, err := linenum.DecodeBytes([]byte("a: 1\nb:\n  - .inf\n"))
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	expected := DumpNode{Line: 1, Kind: "mapping", Value: []DumpEntry{
		{
			Key:   DumpNode{Line: 1, Kind: "scalar", Value: "a"},
			Value: DumpNode{Line: 1, Kind: "scalar", Value: 1},
		},
		{
			Key: DumpNode{Line: 2, Kind: "scalar", Value: "b"},
			Value: DumpNode{Line: 2, Kind: "sequence", Value: []DumpNode{
				{Line: 3, Kind: "scalar", Value: ".inf"},
			}},
		},
	}}
	if diff := cmp.Diff(expected, ToDump(root)); diff != "" {
		t.Errorf("ToDump mismatch (-want +got):\n%s", diff)
	}
}

func TestDump(t *testing.T) {
	path := writeFile(t, t.TempDir(), "service.yaml", serviceYAML)

	r, out, _ := newTestRunner(t, Config{})
	if err := r.Dump(path); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var decoded struct {
		Line  int               `json:"line"`
		Kind  string            `json:"kind"`
		Value []json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not JSON: %v\n%s", err, out)
	}
	if decoded.Line != 1 || decoded.Kind != "mapping" || len(decoded.Value) != 2 {
		t.Errorf("Unexpected dump header: %+v", decoded)
	}
	if !strings.Contains(out.String(), `"line": 4`) {
		t.Errorf("Expected the last item on line 4, got:\n%s", out)
	}
}

func TestLocate(t *testing.T) {
	path := writeFile(t, t.TempDir(), "service.yaml", serviceYAML)

	tests := []struct {
		name    string
		pointer string
		key     bool
		suffix  string
		err     error
	}{
		{name: "sequence item", pointer: "/ports/1", suffix: "service.yaml:4\n"},
		{name: "block value", pointer: "/ports", suffix: "service.yaml:2\n"},
		{name: "key", pointer: "/name", key: true, suffix: "service.yaml:1\n"},
		{name: "missing", pointer: "/image", err: mapper.ErrNotFound},
		{name: "key of item", pointer: "/ports/0", key: true, err: mapper.ErrNoKey},
		{name: "bad pointer", pointer: "ports", err: mapper.ErrInvalidPointer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, out, _ := newTestRunner(t, Config{})
			err := r.Locate(path, tt.pointer, tt.key)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Errorf("Expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !strings.HasSuffix(out.String(), tt.suffix) {
				t.Errorf("Expected output ending in %q, got %q", tt.suffix, out.String())
			}
		})
	}
}

func TestLocateReportsDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	dup := writeFile(t, dir, "dup.yaml", "a: 1\nb: 2\na: 3\n")

	tests := []struct {
		name   string
		file   string
		stderr []string
	}{
		{
			name: "duplicate key",
			file: dup,
			stderr: []string{
				"dup.yaml:3:1:",
				`mapping key "a" already defined at line 1`,
				"hint: remove or rename one of the keys",
			},
		},
		{
			name:   "missing file",
			file:   dir + "/none.yaml",
			stderr: []string{"cannot read"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, out, errOut := newTestRunner(t, Config{})
			err := r.Locate(tt.file, "/a", false)
			if !errors.Is(err, ErrFailed) {
				t.Fatalf("Expected ErrFailed, got %v", err)
			}
			for _, s := range tt.stderr {
				if !strings.Contains(errOut.String(), s) {
					t.Errorf("Expected stderr to contain %q, got:\n%s", s, errOut.String())
				}
			}
			if out.Len() != 0 {
				t.Errorf("Expected no location output, got %q", out.String())
			}
		})
	}
}

const portsSchema = `{
  "type": "object",
  "required": ["name", "image"],
  "properties": {
    "ports": {"type": "array", "items": {"type": "integer"}}
  }
}`

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "schema.json", portsSchema)
	bad := writeFile(t, dir, "service.yaml", serviceYAML)
	good := writeFile(t, dir, "good.yaml", "name: a\nimage: b\nports: [1]\n")

	r, out, errOut := newTestRunner(t, Config{})
	err := r.Check(schema, []string{bad, good})
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("Expected ErrFailed, got %v", err)
	}

	stderr := errOut.String()
	for _, s := range []string{
		"service.yaml:1:1: error: missing property 'image'",
		"service.yaml:4:1: error: got string, want integer",
		`4 |   - "http"`,
		"'/ports/1' failed the 'type' keyword",
	} {
		if !strings.Contains(stderr, s) {
			t.Errorf("Expected stderr to contain %q, got:\n%s", s, stderr)
		}
	}
	if !strings.Contains(out.String(), "good.yaml is valid") {
		t.Errorf("Expected the valid file to be reported, got:\n%s", out.String())
	}
}

func TestCheckBadSchema(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "a.yaml", "a: 1\n")

	r, _, _ := newTestRunner(t, Config{})
	if err := r.Check(dir+"/missing.json", []string{doc}); err == nil {
		t.Error("Expected an error for a missing schema")
	}
	broken := writeFile(t, dir, "broken.json", `{"type": `)
	if err := r.Check(broken, []string{doc}); err == nil {
		t.Error("Expected an error for a broken schema")
	}
}

func TestVerify(t *testing.T) {
	path := writeFile(t, t.TempDir(), "doc.yaml", "a: 1\nb: [x, y]\nc:\n  d: true\n")

	for _, backend := range []string{"yamlv3", "goccy"} {
		t.Run(backend, func(t *testing.T) {
			r, out, errOut := newTestRunner(t, Config{Backend: backend})
			if err := r.Verify([]string{path}); err != nil {
				t.Fatalf("Unexpected error: %v\n%s", err, errOut)
			}
			if !strings.Contains(out.String(), "11 values annotated") {
				t.Errorf("Expected a value count, got:\n%s", out.String())
			}
		})
	}
}

func TestVerifyValueFindsUnannotated(t *testing.T) {
	src := []byte("a: 1\n")
	root, err := linenum.NewDecoder(linenum.WithLineBuilder(false)).DecodeBytes(src)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	r, _, _ := newTestRunner(t, Config{})
	res, err := r.VerifyValue(src, root)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.OK() {
		t.Fatal("Expected unannotated values to be reported")
	}
	if diff := cmp.Diff([]string{"", "/a"}, res.Unannotated); diff != "" {
		t.Errorf("Unannotated mismatch (-want +got):\n%s", diff)
	}
	if res.Diff != "" {
		t.Errorf("Expected identical content, got diff:\n%s", res.Diff)
	}
}

func TestLinesVerboseSyntaxError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "a: 1\nb: [1, 2\n")

	r, _, errOut := newTestRunner(t, Config{Backend: "goccy", Verbose: true})
	if err := r.Lines([]string{path}); !errors.Is(err, ErrFailed) {
		t.Fatalf("Expected ErrFailed, got %v", err)
	}
	for _, s := range []string{"Decoding", "parser output"} {
		if !strings.Contains(errOut.String(), s) {
			t.Errorf("Expected verbose output to contain %q, got:\n%s", s, errOut.String())
		}
	}
}

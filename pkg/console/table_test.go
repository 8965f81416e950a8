package console

import (
	"strings"
	"testing"
)

func TestRenderTable(t *testing.T) {
	output := RenderTable(Table{
		Title:   "service.yaml",
		Headers: []string{"POINTER", "LINE", "VALUE"},
		Rows: [][]string{
			{"/name", "1", "demo"},
			{"/ports/0", "5", "80"},
		},
		Footer: []string{"2 values", "", ""},
	})

	expected := "service.yaml\n" +
		"POINTER  | LINE | VALUE\n" +
		"-------- | ---- | -----\n" +
		"/name    | 1    | demo\n" +
		"/ports/0 | 5    | 80\n" +
		"-------- | ---- | -----\n" +
		"2 values |      | \n"
	if output != expected {
		t.Errorf("Unexpected table.\nExpected:\n%q\nGot:\n%q", expected, output)
	}
}

func TestRenderTableWideCells(t *testing.T) {
	output := RenderTable(Table{
		Headers: []string{"KEY", "VALUE"},
		Rows: [][]string{
			{"名前", "x"},
			{"ab", "y"},
		},
	})

	lines := strings.Split(strings.TrimSuffix(output, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected 4 lines, got %d:\n%s", len(lines), output)
	}
	// "名前" is four cells wide, so "ab" is padded by two.
	if lines[3] != "ab   | y" {
		t.Errorf("Expected padded row %q, got %q", "ab   | y", lines[3])
	}
}

func TestRenderTableShortRows(t *testing.T) {
	output := RenderTable(Table{
		Headers: []string{"A", "B"},
		Rows:    [][]string{{"only"}},
	})
	if !strings.Contains(output, "only | \n") {
		t.Errorf("Expected missing cells to render empty, got:\n%q", output)
	}
}

func TestRenderTableNoHeaders(t *testing.T) {
	if output := RenderTable(Table{Rows: [][]string{{"a"}}}); output != "" {
		t.Errorf("Expected empty output, got %q", output)
	}
}

package cli

import (
	"fmt"
	"os"

	"github.com/githubnext/yamlline/pkg/console"
	"github.com/githubnext/yamlline/pkg/validate"
)

// Check validates each file against the JSON schema at schemaPath and prints
// every violation with the source lines around it.
func (r *Runner) Check(schemaPath string, files []string) error {
	schemaJSON, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema %s: %w", schemaPath, err)
	}
	schema, err := validate.Compile(schemaJSON)
	if err != nil {
		return fmt.Errorf("%s: %w", schemaPath, err)
	}
	r.verbosef("Compiled schema %s", schemaPath)

	failed := 0
	for _, f := range r.decodeAll(files, "Checking files") {
		if f.err != nil {
			failed++
			r.report(f)
			continue
		}

		issues, err := schema.Validate(f.value)
		if err != nil {
			failed++
			fmt.Fprintln(r.Err, console.FormatErrorMessage(fmt.Sprintf("%s: %v", f.path, err)))
			continue
		}
		if len(issues) == 0 {
			fmt.Fprintln(r.Out, console.FormatSuccessMessage(fmt.Sprintf("%s is valid", console.ToRelativePath(f.path))))
			continue
		}

		failed++
		for _, issue := range issues {
			d := console.Diagnostic{
				Position: console.Position{File: f.path, Line: issue.Line},
				Message:  issue.Message,
				Source:   f.src,
			}
			if issue.Pointer != "" {
				d.Hint = fmt.Sprintf("'%s' failed the '%s' keyword", issue.Pointer, issue.Kind)
			}
			fmt.Fprint(r.Err, console.FormatDiagnostic(d))
		}
	}
	return failures(failed, len(files))
}

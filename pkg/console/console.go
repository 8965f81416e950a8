package console

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Position is a location in a YAML source file. Line and Column are 1-based;
// a zero Column means the whole line.
type Position struct {
	File   string
	Line   int
	Column int
}

// Diagnostic is a positioned message about a YAML document.
type Diagnostic struct {
	Position Position
	Severity string // "error", "warning", "info"
	Message  string
	Source   []byte // document text, used to render context lines
	Hint     string
}

// ContextRadius is the number of lines shown on each side of the reported line.
const ContextRadius = 2

var (
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5555"))

	warningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB86C"))

	infoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8BE9FD"))

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#50FA7B"))

	filePathStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#BD93F9"))

	lineNumberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))

	contextLineStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#F8F8F2"))

	highlightStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#FF5555")).
			Foreground(lipgloss.Color("#282A36"))

	hintStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#50FA7B"))

	verboseStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#6272A4"))
)

// isTTY checks if stdout is a terminal
func isTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func applyStyle(style lipgloss.Style, text string) string {
	if isTTY() {
		return style.Render(text)
	}
	return text
}

// ToRelativePath converts an absolute path to one relative to the working
// directory, returning the input unchanged when that is not possible.
func ToRelativePath(path string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil {
		return path
	}
	return rel
}

// FormatDiagnostic renders d as "file:line:col: severity: message", followed
// by the surrounding source lines with the reported line highlighted.
func FormatDiagnostic(d Diagnostic) string {
	var output strings.Builder

	var style lipgloss.Style
	severity := d.Severity
	switch severity {
	case "warning":
		style = warningStyle
	case "info":
		style = infoStyle
	default:
		style = errorStyle
		severity = "error"
	}

	if d.Position.File != "" {
		column := max(d.Position.Column, 1)
		location := fmt.Sprintf("%s:%d:%d:", ToRelativePath(d.Position.File), d.Position.Line, column)
		output.WriteString(applyStyle(filePathStyle, location))
		output.WriteString(" ")
	}

	output.WriteString(applyStyle(style, severity+":"))
	output.WriteString(" ")
	output.WriteString(d.Message)
	output.WriteString("\n")

	if len(d.Source) > 0 && d.Position.Line > 0 {
		output.WriteString(renderContext(d))
	}

	if d.Hint != "" {
		output.WriteString(applyStyle(hintStyle, "hint: "))
		output.WriteString(d.Hint)
		output.WriteString("\n")
	}

	return output.String()
}

// SourceLines splits document text into lines without their terminators.
func SourceLines(src []byte) []string {
	text := strings.ReplaceAll(string(src), "\r\n", "\n")
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func renderContext(d Diagnostic) string {
	lines := SourceLines(d.Source)
	target := d.Position.Line
	if target > len(lines) {
		return ""
	}

	first := max(target-ContextRadius, 1)
	last := min(target+ContextRadius, len(lines))
	width := len(fmt.Sprintf("%d", last))

	var output strings.Builder
	for n := first; n <= last; n++ {
		line := lines[n-1]
		output.WriteString(applyStyle(lineNumberStyle, fmt.Sprintf("%*d", width, n)))
		output.WriteString(" | ")

		if n != target {
			output.WriteString(applyStyle(contextLineStyle, line))
			output.WriteString("\n")
			continue
		}

		col := d.Position.Column
		if col > 0 && col <= len(line) {
			output.WriteString(applyStyle(contextLineStyle, line[:col-1]))
			output.WriteString(applyStyle(highlightStyle, line[col-1:col]))
			output.WriteString(applyStyle(contextLineStyle, line[col:]))
		} else {
			output.WriteString(applyStyle(highlightStyle, line))
		}
		output.WriteString("\n")

		if col > 0 {
			output.WriteString(strings.Repeat(" ", width+3+col-1))
			output.WriteString(applyStyle(errorStyle, "^"))
			output.WriteString("\n")
		}
	}
	return output.String()
}

// FormatSuccessMessage formats a success message with styling
func FormatSuccessMessage(message string) string {
	return applyStyle(successStyle, "✓ ") + message
}

// FormatInfoMessage formats an informational message
func FormatInfoMessage(message string) string {
	return applyStyle(infoStyle, "ℹ ") + message
}

// FormatWarningMessage formats a warning message
func FormatWarningMessage(message string) string {
	return applyStyle(warningStyle, "⚠ ") + message
}

// FormatErrorMessage formats a simple error message (for stderr output)
func FormatErrorMessage(message string) string {
	return applyStyle(errorStyle, "✗ ") + message
}

// FormatVerboseMessage formats verbose debugging output
func FormatVerboseMessage(message string) string {
	return applyStyle(verboseStyle, "🔍 ") + message
}

// FormatProgressMessage formats a progress/activity message
func FormatProgressMessage(message string) string {
	progressStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F1FA8C"))

	return applyStyle(progressStyle, "🔨 ") + message
}

// FormatLocationMessage formats a resolved source location
func FormatLocationMessage(message string) string {
	locationStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFB86C"))

	return applyStyle(locationStyle, "📍 ") + message
}

package mapper

// Span is the source line a validation error is reported on.
type Span struct {
	Line       int     // 1-based
	Confidence float64 // 0.0 - 1.0
	Reason     string  // short reason why this line was chosen
}

// ErrorMeta contains validator-provided metadata about the error.
type ErrorMeta struct {
	Kind     string // "type", "required", "additionalProperties", "enum", ...
	Property string // offending or missing property name, when the kind has one
}

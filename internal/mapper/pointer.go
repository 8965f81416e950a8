package mapper

import (
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidPointer = errors.New("invalid json pointer: must start with '/'")

// decodeJSONPointer decodes an RFC6901 pointer (e.g. "/jobs/build/steps/0/uses")
// into segments: ["jobs","build","steps","0","uses"].
// Returns empty slice for "" or "/".
func decodeJSONPointer(ptr string) ([]string, error) {
	if ptr == "" || ptr == "/" {
		return []string{}, nil
	}
	if !strings.HasPrefix(ptr, "/") {
		return nil, ErrInvalidPointer
	}
	parts := strings.Split(ptr[1:], "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		p = strings.ReplaceAll(p, "~0", "~")
		parts[i] = p
	}
	return parts, nil
}

// parseIndex returns the array index a segment names, or -1.
func parseIndex(segment string) int {
	if segment == "" || segment[0] == '-' || segment[0] == '+' {
		return -1
	}
	i, err := strconv.Atoi(segment)
	if err != nil {
		return -1
	}
	return i
}

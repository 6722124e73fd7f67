package check

import (
	"fmt"
	"strings"
)

// Diagnostic is a single message produced by the checker.
type Diagnostic struct {
	Line    int
	Message string
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("line %d: %s", d.Line, d.Message)
}

// Diagnostics is the ordered list of everything the checker reported. It is
// used as an error value when non-empty.
type Diagnostics []Diagnostic

func (ds Diagnostics) Error() string {
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = d.Error()
	}
	return strings.Join(lines, "\n")
}

// Contains reports whether any diagnostic message contains substr.
func (ds Diagnostics) Contains(substr string) bool {
	for _, d := range ds {
		if strings.Contains(d.Message, substr) {
			return true
		}
	}
	return false
}

package syntax

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error is a lexical or syntactic error at a source line. Incomplete marks
// errors caused by running out of input, which an interactive reader can
// cure by supplying more lines.
type Error struct {
	Line       int
	Msg        string
	Snippet    string
	Incomplete bool
}

func (e *Error) Error() string {
	if e.Snippet != "" {
		return fmt.Sprintf("line %d: %s\n  |> %s", e.Line, e.Msg, e.Snippet)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func errorf(line int, format string, args ...any) *Error {
	return &Error{Line: line, Msg: fmt.Sprintf(format, args...)}
}

func incompletef(line int, format string, args ...any) *Error {
	e := errorf(line, format, args...)
	e.Incomplete = true
	return e
}

// IsIncomplete reports whether err was caused by input ending early.
func IsIncomplete(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Incomplete
}

package formula

import "fmt"

// SyntaxError reports a formula that could not be compiled, carrying
// the source offset so a caller can point back at the offending text.
type SyntaxError struct {
	Pos     int
	Message string
}

func (e *SyntaxError) Error() string { return fmt.Sprintf("formula: %s (at %d)", e.Message, e.Pos) }

func newSyntaxError(pos int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

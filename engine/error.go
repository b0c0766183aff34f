package engine

import "fmt"

// ErrorCode discriminates a ModelError, mirroring the teacher's
// AppErrorCode split between application-level failures and in-cell
// formula errors (token.ErrorCode covers the latter).
type ErrorCode int

const (
	SheetNameConflict ErrorCode = iota
	InvalidNamedExpression
	FormulaCellNotRegistered
	UnknownSheet
	InvalidAddress
	FormulaCellNotFound
)

// ModelError is a programmer-error surfaced by a façade operation:
// sheet name conflicts, invalid named expressions, unregistering a
// cell that is not registered, unknown sheets, invalid addresses, and
// a missing formula cell where one is required. Overwriting a
// registered formula cell without unregistering it first is not
// detected and returns no error. Expected cell errors (#DIV/0!, #REF!, ...) never produce a
// ModelError — they are recorded as a formula cell's result and
// propagate through token.ErrorCode instead.
type ModelError struct {
	Code    ErrorCode
	Message string
}

func (e *ModelError) Error() string { return e.Message }

func newModelError(code ErrorCode, format string, args ...any) *ModelError {
	return &ModelError{Code: code, Message: fmt.Sprintf(format, args...)}
}

package expression

import (
	"errors"
	"fmt"
)

// ErrDivisionByZero is returned when a division or modulo has a zero divisor.
var ErrDivisionByZero = errors.New("division by zero")

// SyntaxError reports canonical text the parser could not read.
type SyntaxError struct {
	Text string // canonical text handed to the parser
	Pos  int    // byte offset of the offending token
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
}

// NameKind tells which namespace an unresolved name belongs to.
type NameKind string

const (
	NameFunction NameKind = "function"
	NameVariable NameKind = "variable"
)

// UnknownNameError reports a function or variable that does not resolve.
type UnknownNameError struct {
	Kind NameKind
	Name string
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Name)
}

// ArgumentError reports a call with the wrong number or kind of arguments,
// or arguments a function rejects.
type ArgumentError struct {
	Function string
	Msg      string
	Cause    error
}

func (e *ArgumentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Function, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Function, e.Msg)
}

func (e *ArgumentError) Unwrap() error {
	return e.Cause
}

package apperror

import (
	"errors"
	"fmt"
	"runtime/debug"
)

type Error struct {
	Kind    Kind   // coarse classification, stable across layers
	Op      string // <layer>.<domain>.<action>
	Err     error  // wrapped error
	Message string // client safe message
	Stack   []byte // captured for internal/dependency kinds
}

// Error implements the built-in error interface
func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Op != "":
		return e.Op
	default:
		return "unknown error"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

func New(kind Kind, op string, err error) *Error {
	e := &Error{
		Kind: kind,
		Op:   op,
		Err:  err,
	}

	if kind == Internal || kind == Dependency || kind == DatabaseErr {
		e.Stack = debug.Stack()
	}

	return e
}

func IsKind(err error, kind Kind) bool {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or Internal when err is not an *Error.
func KindOf(err error) Kind {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind
	}
	return Internal
}

package recipe

import (
	"errors"
	"fmt"
)

// Kind classifies recipe errors.
type Kind int

const (
	// KindInvalidFormat marks malformed or undecodable input.
	KindInvalidFormat Kind = iota + 1
	// KindEquation marks a missing, empty or unparseable equation.
	KindEquation
	// KindVariables marks a structural or referential problem with a variable.
	KindVariables
	// KindVectorTransform marks a vector that cannot be turned into a series.
	KindVectorTransform
)

func (k Kind) String() string {
	switch k {
	case KindInvalidFormat:
		return "invalid format"
	case KindEquation:
		return "equation error"
	case KindVariables:
		return "variables error"
	case KindVectorTransform:
		return "vector transform error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the error type returned for every rejected recipe.
type Error struct {
	Kind Kind
	Key  string // offending variable, when there is one
	Msg  string
	Err  error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrInvalidFormat   = &Error{Kind: KindInvalidFormat}
	ErrEquation        = &Error{Kind: KindEquation}
	ErrVariables       = &Error{Kind: KindVariables}
	ErrVectorTransform = &Error{Kind: KindVectorTransform}
)

// ErrDecode is wrapped by InvalidFormat errors caused by undecodable JSON, so
// callers can tell them apart from schema violations.
var ErrDecode = errors.New("input is not valid JSON")

// ErrNameExhausted is an internal-consistency failure: no free canonical
// variable name was found within the attempt limit.
var ErrNameExhausted = errors.New("canonical variable names exhausted")

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Key != "" {
		msg += fmt.Sprintf(": variable %q", e.Key)
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Key == "" && t.Msg == "" && t.Err == nil
}

func formatErr(err error, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidFormat, Msg: fmt.Sprintf(format, args...), Err: err}
}

func equationErr(err error, format string, args ...any) *Error {
	return &Error{Kind: KindEquation, Msg: fmt.Sprintf(format, args...), Err: err}
}

func variableErr(key string, format string, args ...any) *Error {
	return &Error{Kind: KindVariables, Key: key, Msg: fmt.Sprintf(format, args...)}
}

// EquationError wraps err (typically expression diagnostics) as an
// equation error. It is used by the evaluator for syntax failures.
func EquationError(err error, msg string) error {
	return equationErr(err, "%s", msg)
}

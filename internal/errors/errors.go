// Package errors defines the language's error taxonomy (spec.md §7) and
// the stack-trace substrate used to populate ErrorData objects. It is
// deliberately separate from Go's own error conventions: a LanguageError
// wraps a *language value* (so it can carry arbitrary throw payloads, not
// just strings) the same way the teacher's internal/interp/runtime/errors.go
// wraps structured failure context rather than a bare string.
package errors

import "fmt"

// Kind names one of the native error constructors spec.md §6 requires
// every realm to seed.
type Kind string

const (
	Error          Kind = "Error"
	EvalError      Kind = "EvalError"
	RangeError     Kind = "RangeError"
	ReferenceError Kind = "ReferenceError"
	SyntaxError    Kind = "SyntaxError"
	TypeError      Kind = "TypeError"
	URIError       Kind = "URIError"
	AggregateError Kind = "AggregateError"
)

// LanguageError is the Go-level carrier for a throw completion's payload
// when the evaluator itself raises the error (as opposed to user code
// executing an explicit `throw`). Host-facing APIs that need a Go `error`
// (e.g. a plugin's CreateIntrinsics failing) wrap one of these.
type LanguageError struct {
	Kind    Kind
	Message string
	// Value, when non-nil, is the actual language-level error object
	// (runtime.Value) that should be delivered as the throw completion's
	// payload instead of one freshly constructed from Kind/Message. The
	// type is `any` to avoid an import cycle with internal/runtime, which
	// itself needs to construct LanguageError instances.
	Value any
	Stack StackTrace
}

func (e *LanguageError) Error() string {
	if len(e.Stack) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s\n\nCall stack:\n%s", e.Kind, e.Message, e.Stack)
}

// New constructs a LanguageError of the given kind with a formatted
// message, analogous to the host API's `throw(errorKind, message)` entry
// point from spec.md §6.
func New(kind Kind, format string, args ...any) *LanguageError {
	return &LanguageError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewType(format string, args ...any) *LanguageError {
	return New(TypeError, format, args...)
}

func NewRange(format string, args ...any) *LanguageError {
	return New(RangeError, format, args...)
}

func NewReference(format string, args ...any) *LanguageError {
	return New(ReferenceError, format, args...)
}

func NewSyntax(format string, args ...any) *LanguageError {
	return New(SyntaxError, format, args...)
}

// WithStack returns a copy of e with the given stack trace attached,
// following the teacher's pattern of attaching call-stack context to an
// error at the point it is about to leave the evaluator rather than at
// construction (construction usually happens deep inside an abstract
// operation that has no CallStack handle).
func (e *LanguageError) WithStack(st StackTrace) *LanguageError {
	cp := *e
	cp.Stack = st
	return &cp
}

package errors

import (
	"fmt"
	"strings"

	"github.com/escore/escore/pkg/ast"
)

// StackFrame is a single frame captured for an error object's non-standard
// stack trace (spec.md §6, "captureStackTrace"), grounded on the teacher's
// internal/errors.StackFrame but keyed to this engine's ast.Position
// instead of a lexer position, since source positions here come from the
// host-provided AST rather than from an in-process lexer.
type StackFrame struct {
	Position     *ast.Position
	FunctionName string
	FileName     string
}

// NewStackFrame constructs a StackFrame. FunctionName may be "<anonymous>"
// or "<script>" for contexts with no associated function.
func NewStackFrame(functionName, fileName string, pos *ast.Position) StackFrame {
	return StackFrame{Position: pos, FunctionName: functionName, FileName: fileName}
}

func (sf StackFrame) String() string {
	loc := sf.FunctionName
	if sf.FileName != "" {
		loc = fmt.Sprintf("%s (%s)", loc, sf.FileName)
	}
	if sf.Position == nil {
		return loc
	}
	return fmt.Sprintf("%s:%d:%d", loc, sf.Position.Line, sf.Position.Column)
}

// StackTrace is an ordered sequence of frames, oldest call first.
type StackTrace []StackFrame

func NewStackTrace() StackTrace { return StackTrace{} }

func (st StackTrace) String() string {
	if len(st) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := len(st) - 1; i >= 0; i-- {
		sb.WriteString("    at ")
		sb.WriteString(st[i].String())
		if i > 0 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Top returns the most recently pushed frame, or the zero value and false
// if the trace is empty.
func (st StackTrace) Top() (StackFrame, bool) {
	if len(st) == 0 {
		return StackFrame{}, false
	}
	return st[len(st)-1], true
}

package engine

import (
	"testing"

	"github.com/escore/escore/internal/runtime"
	"github.com/escore/escore/pkg/ast"
)

func mustDecode(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := ast.DecodeProgram([]byte(src))
	if err != nil {
		t.Fatalf("ast.DecodeProgram: %v", err)
	}
	return prog
}

func TestEngineRunSimpleExpression(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	prog := mustDecode(t, `{
		"type": "Program",
		"body": [{
			"type": "ExpressionStatement",
			"expression": {
				"type": "BinaryExpression",
				"operator": "+",
				"left": {"type": "Literal", "kind": "number", "value": 1},
				"right": {"type": "Literal", "kind": "number", "value": 2}
			}
		}]
	}`)

	result, err := eng.Run(prog)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Success {
		t.Fatalf("Success = false, want true")
	}
	n, ok := result.Value.(runtime.Number)
	if !ok {
		t.Fatalf("Value = %T, want runtime.Number", result.Value)
	}
	if n != 3 {
		t.Errorf("Value = %v, want 3", n)
	}
}

func TestEngineRunThrowPropagatesAsError(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	prog := mustDecode(t, `{
		"type": "Program",
		"body": [{
			"type": "ThrowStatement",
			"argument": {"type": "Literal", "kind": "string", "value": "boom"}
		}]
	}`)

	_, err = eng.Run(prog)
	if err == nil {
		t.Fatalf("Run: expected an error from an uncaught throw")
	}
}

func TestEngineRegisterFunctionIsCallableFromScript(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.RegisterFunction("double", func(n float64) float64 { return n * 2 }); err != nil {
		t.Fatalf("RegisterFunction: %v", err)
	}

	prog := mustDecode(t, `{
		"type": "Program",
		"body": [{
			"type": "ExpressionStatement",
			"expression": {
				"type": "CallExpression",
				"callee": {"type": "Identifier", "name": "double"},
				"arguments": [{"type": "Literal", "kind": "number", "value": 21}]
			}
		}]
	}`)

	result, err := eng.Run(prog)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	n, ok := result.Value.(runtime.Number)
	if !ok {
		t.Fatalf("Value = %T, want runtime.Number", result.Value)
	}
	if n != 42 {
		t.Errorf("Value = %v, want 42", n)
	}
}

func TestEngineGlobalBindingIsVisibleToScript(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	eng.Global("answer", runtime.Number(42))

	prog := mustDecode(t, `{
		"type": "Program",
		"body": [{
			"type": "ExpressionStatement",
			"expression": {"type": "Identifier", "name": "answer"}
		}]
	}`)

	result, err := eng.Run(prog)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n, ok := result.Value.(runtime.Number); !ok || n != 42 {
		t.Errorf("Value = %v, want 42", result.Value)
	}
}

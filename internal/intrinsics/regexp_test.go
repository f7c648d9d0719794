package intrinsics_test

import (
	"testing"

	"github.com/escore/escore/internal/runtime"
	"github.com/escore/escore/pkg/ast"
	"github.com/escore/escore/pkg/engine"
)

func mustRun(t *testing.T, src string) runtime.Value {
	t.Helper()
	eng, err := engine.New()
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	program, err := ast.DecodeProgram([]byte(src))
	if err != nil {
		t.Fatalf("ast.DecodeProgram: %v", err)
	}
	result, err := eng.Run(program)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return result.Value
}

func TestRegExpTestMatchesAgainstString(t *testing.T) {
	v := mustRun(t, `{
		"type": "Program",
		"body": [{
			"type": "ExpressionStatement",
			"expression": {
				"type": "CallExpression",
				"callee": {
					"type": "MemberExpression",
					"object": {
						"type": "NewExpression",
						"callee": {"type": "Identifier", "name": "RegExp"},
						"arguments": [
							{"type": "Literal", "kind": "string", "value": "^[a-z]+$"},
							{"type": "Literal", "kind": "string", "value": "i"}
						]
					},
					"property": {"type": "Identifier", "name": "test"},
					"computed": false
				},
				"arguments": [{"type": "Literal", "kind": "string", "value": "Hello"}]
			}
		}]
	}`)

	b, ok := v.(runtime.Boolean)
	if !ok {
		t.Fatalf("result = %T, want runtime.Boolean", v)
	}
	if !bool(b) {
		t.Errorf("RegExp.test = false, want true (case-insensitive match)")
	}
}

func TestRegExpSourceAndFlagsProperties(t *testing.T) {
	v := mustRun(t, `{
		"type": "Program",
		"body": [{
			"type": "ExpressionStatement",
			"expression": {
				"type": "MemberExpression",
				"object": {
					"type": "NewExpression",
					"callee": {"type": "Identifier", "name": "RegExp"},
					"arguments": [{"type": "Literal", "kind": "string", "value": "abc"}]
				},
				"property": {"type": "Identifier", "name": "source"},
				"computed": false
			}
		}]
	}`)

	s, ok := v.(runtime.String)
	if !ok {
		t.Fatalf("result = %T, want runtime.String", v)
	}
	if s != "abc" {
		t.Errorf("source = %q, want %q", s, "abc")
	}
}

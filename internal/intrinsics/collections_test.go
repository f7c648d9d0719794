package intrinsics_test

import (
	"testing"

	"github.com/escore/escore/internal/runtime"
)

func TestMapSetGetHasChain(t *testing.T) {
	v := mustRun(t, `{
		"type": "Program",
		"body": [{
			"type": "ExpressionStatement",
			"expression": {
				"type": "CallExpression",
				"callee": {
					"type": "MemberExpression",
					"object": {
						"type": "CallExpression",
						"callee": {
							"type": "MemberExpression",
							"object": {
								"type": "NewExpression",
								"callee": {"type": "Identifier", "name": "Map"},
								"arguments": []
							},
							"property": {"type": "Identifier", "name": "set"},
							"computed": false
						},
						"arguments": [
							{"type": "Literal", "kind": "string", "value": "a"},
							{"type": "Literal", "kind": "number", "value": 1}
						]
					},
					"property": {"type": "Identifier", "name": "get"},
					"computed": false
				},
				"arguments": [{"type": "Literal", "kind": "string", "value": "a"}]
			}
		}]
	}`)

	n, ok := v.(runtime.Number)
	if !ok {
		t.Fatalf("result = %T, want runtime.Number", v)
	}
	if n != 1 {
		t.Errorf("Map.get after set = %v, want 1", n)
	}
}

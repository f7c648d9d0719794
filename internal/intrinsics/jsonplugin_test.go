package intrinsics_test

import (
	"testing"

	"github.com/escore/escore/internal/runtime"
)

func TestJSONStringifyThenParseRoundTrips(t *testing.T) {
	v := mustRun(t, `{
		"type": "Program",
		"body": [{
			"type": "ExpressionStatement",
			"expression": {
				"type": "CallExpression",
				"callee": {
					"type": "MemberExpression",
					"object": {"type": "Identifier", "name": "JSON"},
					"property": {"type": "Identifier", "name": "parse"},
					"computed": false
				},
				"arguments": [{
					"type": "CallExpression",
					"callee": {
						"type": "MemberExpression",
						"object": {"type": "Identifier", "name": "JSON"},
						"property": {"type": "Identifier", "name": "stringify"},
						"computed": false
					},
					"arguments": [{
						"type": "ObjectExpression",
						"properties": [{
							"type": "Property",
							"key": {"type": "Identifier", "name": "ok"},
							"value": {"type": "Literal", "kind": "boolean", "value": true},
							"computed": false,
							"shorthand": false,
							"kind": "init"
						}]
					}]
				}]
			}
		}]
	}`)

	o, ok := v.(*runtime.Object)
	if !ok {
		t.Fatalf("result = %T, want *runtime.Object", v)
	}
	agent := runtime.NewAgent(0)
	got, err := o.Get(agent, runtime.String("ok"), o)
	if err != nil {
		t.Fatalf("Get(ok): %v", err)
	}
	b, ok := got.(runtime.Boolean)
	if !ok || !bool(b) {
		t.Errorf("ok = %v, want true", got)
	}
}

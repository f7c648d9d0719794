package ast

import "testing"

func TestDecodeProgramEmptyBody(t *testing.T) {
	src := `{"type":"Program","sourceType":"script","body":[]}`
	prog, err := DecodeProgram([]byte(src))
	if err != nil {
		t.Fatalf("DecodeProgram: %v", err)
	}
	if prog.SourceType != "script" {
		t.Errorf("SourceType = %q, want %q", prog.SourceType, "script")
	}
	if len(prog.Body) != 0 {
		t.Errorf("Body = %v, want empty", prog.Body)
	}
}

func TestDecodeProgramRejectsNonProgramRoot(t *testing.T) {
	src := `{"type":"Identifier","name":"x"}`
	if _, err := DecodeProgram([]byte(src)); err == nil {
		t.Fatalf("DecodeProgram: expected error for non-Program root")
	}
}

func TestDecodeExpressionStatementLiteral(t *testing.T) {
	src := `{
		"type": "Program",
		"sourceType": "script",
		"body": [
			{
				"type": "ExpressionStatement",
				"expression": {"type": "Literal", "kind": "number", "value": 42}
			}
		]
	}`
	prog, err := DecodeProgram([]byte(src))
	if err != nil {
		t.Fatalf("DecodeProgram: %v", err)
	}
	if len(prog.Body) != 1 {
		t.Fatalf("Body len = %d, want 1", len(prog.Body))
	}
	stmt, ok := prog.Body[0].(*ExpressionStatement)
	if !ok {
		t.Fatalf("Body[0] = %T, want *ExpressionStatement", prog.Body[0])
	}
	lit, ok := stmt.Expr.(*Literal)
	if !ok {
		t.Fatalf("Expr = %T, want *Literal", stmt.Expr)
	}
	if lit.Kind != LiteralNumber {
		t.Errorf("Kind = %v, want LiteralNumber", lit.Kind)
	}
	if lit.Num != 42 {
		t.Errorf("Num = %v, want 42", lit.Num)
	}
}

func TestDecodeBigIntLiteralStripsTrailingN(t *testing.T) {
	src := `{
		"type": "Program",
		"body": [
			{
				"type": "ExpressionStatement",
				"expression": {"type": "Literal", "kind": "bigint", "raw": "9007199254740993n"}
			}
		]
	}`
	prog, err := DecodeProgram([]byte(src))
	if err != nil {
		t.Fatalf("DecodeProgram: %v", err)
	}
	lit := prog.Body[0].(*ExpressionStatement).Expr.(*Literal)
	if lit.Big == nil {
		t.Fatalf("Big = nil, want a parsed big.Int")
	}
	if lit.Big.String() != "9007199254740993" {
		t.Errorf("Big = %s, want 9007199254740993", lit.Big.String())
	}
}

func TestDecodeBinaryExpression(t *testing.T) {
	src := `{
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
	}`
	prog, err := DecodeProgram([]byte(src))
	if err != nil {
		t.Fatalf("DecodeProgram: %v", err)
	}
	bin := prog.Body[0].(*ExpressionStatement).Expr.(*BinaryExpression)
	if bin.Operator != "+" {
		t.Errorf("Operator = %q, want %q", bin.Operator, "+")
	}
	if bin.Left.(*Literal).Num != 1 {
		t.Errorf("Left.Num = %v, want 1", bin.Left.(*Literal).Num)
	}
	if bin.Right.(*Literal).Num != 2 {
		t.Errorf("Right.Num = %v, want 2", bin.Right.(*Literal).Num)
	}
}

func TestDecodeFunctionDeclarationWithParamsAndBody(t *testing.T) {
	src := `{
		"type": "Program",
		"body": [{
			"type": "FunctionDeclaration",
			"id": {"type": "Identifier", "name": "add"},
			"params": [
				{"type": "Identifier", "name": "a"},
				{"type": "Identifier", "name": "b"}
			],
			"generator": false,
			"async": false,
			"body": {
				"type": "BlockStatement",
				"body": [{
					"type": "ReturnStatement",
					"argument": {
						"type": "BinaryExpression",
						"operator": "+",
						"left": {"type": "Identifier", "name": "a"},
						"right": {"type": "Identifier", "name": "b"}
					}
				}]
			}
		}]
	}`
	prog, err := DecodeProgram([]byte(src))
	if err != nil {
		t.Fatalf("DecodeProgram: %v", err)
	}
	fn, ok := prog.Body[0].(*FunctionDeclaration)
	if !ok {
		t.Fatalf("Body[0] = %T, want *FunctionDeclaration", prog.Body[0])
	}
	if fn.ID == nil || fn.ID.Name != "add" {
		t.Fatalf("ID = %v, want Identifier(add)", fn.ID)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("Params len = %d, want 2", len(fn.Params))
	}
	if len(fn.Body.Body) != 1 {
		t.Fatalf("Body.Body len = %d, want 1", len(fn.Body.Body))
	}
	if _, ok := fn.Body.Body[0].(*ReturnStatement); !ok {
		t.Fatalf("Body.Body[0] = %T, want *ReturnStatement", fn.Body.Body[0])
	}
}

func TestDecodeArrayExpressionWithElision(t *testing.T) {
	src := `{
		"type": "Program",
		"body": [{
			"type": "ExpressionStatement",
			"expression": {
				"type": "ArrayExpression",
				"elements": [
					{"type": "Literal", "kind": "number", "value": 1},
					null,
					{"type": "Literal", "kind": "number", "value": 3}
				]
			}
		}]
	}`
	prog, err := DecodeProgram([]byte(src))
	if err != nil {
		t.Fatalf("DecodeProgram: %v", err)
	}
	arr := prog.Body[0].(*ExpressionStatement).Expr.(*ArrayExpression)
	if len(arr.Elements) != 3 {
		t.Fatalf("Elements len = %d, want 3", len(arr.Elements))
	}
	if arr.Elements[1] != nil {
		t.Errorf("Elements[1] = %v, want nil (elision)", arr.Elements[1])
	}
}

func TestFieldLookupIsCaseInsensitive(t *testing.T) {
	src := `{"Type":"Program","Body":[]}`
	prog, err := DecodeProgram([]byte(src))
	if err != nil {
		t.Fatalf("DecodeProgram: %v", err)
	}
	if prog.NodeType() != ProgramNode {
		t.Errorf("NodeType() = %v, want %v", prog.NodeType(), ProgramNode)
	}
}

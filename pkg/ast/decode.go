package ast

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// DecodeProgram parses a JSON-encoded AST (spec.md §6's documented node
// shape) into a *Program tree. This is the only place outside a host's
// own parser that constructs ast nodes from serialized data — the
// engine proper never parses source text, but cmd/escore needs to load
// a pre-parsed program from disk, and the wire format is JSON.
func DecodeProgram(data []byte) (*Program, error) {
	n, err := decodeNode(data)
	if err != nil {
		return nil, err
	}
	p, ok := n.(*Program)
	if !ok {
		return nil, fmt.Errorf("ast: root node is %T, want Program", n)
	}
	return p, nil
}

func isNullRaw(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// field looks a key up in a decoded JSON object case-insensitively,
// since a host's JSON emitter may use either the Go field name or a
// conventional lowerCamelCase key.
func field(obj map[string]json.RawMessage, name string) json.RawMessage {
	if v, ok := obj[name]; ok {
		return v
	}
	lower := strings.ToLower(name[:1]) + name[1:]
	if v, ok := obj[lower]; ok {
		return v
	}
	for k, v := range obj {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return nil
}

func header(obj map[string]json.RawMessage) (Type, Loc, Range, error) {
	var t Type
	if raw := field(obj, "type"); !isNullRaw(raw) {
		if err := json.Unmarshal(raw, &t); err != nil {
			return "", Loc{}, Range{}, err
		}
	}
	var loc Loc
	if raw := field(obj, "loc"); !isNullRaw(raw) {
		_ = json.Unmarshal(raw, &loc)
	}
	var rng Range
	if raw := field(obj, "range"); !isNullRaw(raw) {
		_ = json.Unmarshal(raw, &rng)
	}
	return t, loc, rng, nil
}

// decodeNode dispatches on the "type" tag to construct the right
// concrete node, recursively decoding every Node/Expression/Statement
// typed field it owns.
func decodeNode(raw json.RawMessage) (Node, error) {
	if isNullRaw(raw) {
		return nil, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("ast: decoding node: %w", err)
	}
	t, loc, rng, err := header(obj)
	if err != nil {
		return nil, err
	}
	b := base{Type_: t, Loc_: loc, Range_: rng}

	switch t {
	case ProgramNode:
		body, err := decodeStmtSlice(field(obj, "body"))
		if err != nil {
			return nil, err
		}
		var sourceType string
		_ = json.Unmarshal(field(obj, "sourceType"), &sourceType)
		return &Program{base: b, Body: body, SourceType: sourceType}, nil

	case ExpressionStatementNode:
		expr, err := decodeExpr(field(obj, "expression"))
		if err != nil {
			return nil, err
		}
		return &ExpressionStatement{base: b, Expr: expr}, nil

	case BlockStatementNode:
		body, err := decodeStmtSlice(field(obj, "body"))
		if err != nil {
			return nil, err
		}
		return &BlockStatement{base: b, Body: body}, nil

	case EmptyStatementNode:
		return &EmptyStatement{base: b}, nil

	case VariableDeclarationNode:
		var kind VariableKind
		_ = json.Unmarshal(field(obj, "kind"), &kind)
		var rawDecls []json.RawMessage
		if err := json.Unmarshal(field(obj, "declarations"), &rawDecls); err != nil && !isNullRaw(field(obj, "declarations")) {
			return nil, err
		}
		decls := make([]*VariableDeclarator, 0, len(rawDecls))
		for _, rd := range rawDecls {
			var dobj map[string]json.RawMessage
			if err := json.Unmarshal(rd, &dobj); err != nil {
				return nil, err
			}
			_, dloc, drng, _ := header(dobj)
			id, err := decodeExpr(field(dobj, "id"))
			if err != nil {
				return nil, err
			}
			init, err := decodeExpr(field(dobj, "init"))
			if err != nil {
				return nil, err
			}
			decls = append(decls, &VariableDeclarator{base: base{Type_: VariableDeclaratorNode, Loc_: dloc, Range_: drng}, ID: id, Init: init})
		}
		return &VariableDeclaration{base: b, Kind: kind, Declarations: decls}, nil

	case FunctionDeclarationNode, FunctionExpressionNode:
		id, err := decodeIdentifierPtr(field(obj, "id"))
		if err != nil {
			return nil, err
		}
		params, err := decodeExprSlice(field(obj, "params"))
		if err != nil {
			return nil, err
		}
		body, err := decodeBlockPtr(field(obj, "body"))
		if err != nil {
			return nil, err
		}
		var generator, async bool
		_ = json.Unmarshal(field(obj, "generator"), &generator)
		_ = json.Unmarshal(field(obj, "async"), &async)
		if t == FunctionDeclarationNode {
			return &FunctionDeclaration{base: b, ID: id, Params: params, Body: body, Generator: generator, Async: async}, nil
		}
		return &FunctionExpression{base: b, ID: id, Params: params, Body: body, Generator: generator, Async: async}, nil

	case ArrowFunctionExprNode:
		params, err := decodeExprSlice(field(obj, "params"))
		if err != nil {
			return nil, err
		}
		body, err := decodeBlockPtr(field(obj, "body"))
		if err != nil {
			return nil, err
		}
		exprBody, err := decodeExpr(field(obj, "expressionBody"))
		if err != nil {
			return nil, err
		}
		var async bool
		_ = json.Unmarshal(field(obj, "async"), &async)
		return &ArrowFunctionExpression{base: b, Params: params, Body: body, ExpressionBody: exprBody, Async: async}, nil

	case ClassDeclarationNode, ClassExpressionNode:
		id, err := decodeIdentifierPtr(field(obj, "id"))
		if err != nil {
			return nil, err
		}
		superClass, err := decodeExpr(field(obj, "superClass"))
		if err != nil {
			return nil, err
		}
		classBody, err := decodeClassBodyPtr(field(obj, "body"))
		if err != nil {
			return nil, err
		}
		if t == ClassDeclarationNode {
			return &ClassDeclaration{base: b, ID: id, SuperClass: superClass, Body: classBody}, nil
		}
		return &ClassExpression{base: b, ID: id, SuperClass: superClass, Body: classBody}, nil

	case ReturnStatementNode:
		arg, err := decodeExpr(field(obj, "argument"))
		if err != nil {
			return nil, err
		}
		return &ReturnStatement{base: b, Argument: arg}, nil

	case LabeledStatementNode:
		labelPtr, err := decodeIdentifierPtr(field(obj, "label"))
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(field(obj, "body"))
		if err != nil {
			return nil, err
		}
		var label Identifier
		if labelPtr != nil {
			label = *labelPtr
		}
		return &LabeledStatement{base: b, Label: label, Body: body}, nil

	case BreakStatementNode:
		label, err := decodeIdentifierPtr(field(obj, "label"))
		if err != nil {
			return nil, err
		}
		return &BreakStatement{base: b, Label: label}, nil

	case ContinueStatementNode:
		label, err := decodeIdentifierPtr(field(obj, "label"))
		if err != nil {
			return nil, err
		}
		return &ContinueStatement{base: b, Label: label}, nil

	case IfStatementNode:
		test, err := decodeExpr(field(obj, "test"))
		if err != nil {
			return nil, err
		}
		cons, err := decodeStmt(field(obj, "consequent"))
		if err != nil {
			return nil, err
		}
		alt, err := decodeStmt(field(obj, "alternate"))
		if err != nil {
			return nil, err
		}
		return &IfStatement{base: b, Test: test, Consequent: cons, Alternate: alt}, nil

	case WhileStatementNode:
		test, err := decodeExpr(field(obj, "test"))
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(field(obj, "body"))
		if err != nil {
			return nil, err
		}
		return &WhileStatement{base: b, Test: test, Body: body}, nil

	case DoWhileStatementNode:
		body, err := decodeStmt(field(obj, "body"))
		if err != nil {
			return nil, err
		}
		test, err := decodeExpr(field(obj, "test"))
		if err != nil {
			return nil, err
		}
		return &DoWhileStatement{base: b, Body: body, Test: test}, nil

	case ForStatementNode:
		init, err := decodeNode(field(obj, "init"))
		if err != nil {
			return nil, err
		}
		test, err := decodeExpr(field(obj, "test"))
		if err != nil {
			return nil, err
		}
		update, err := decodeExpr(field(obj, "update"))
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(field(obj, "body"))
		if err != nil {
			return nil, err
		}
		return &ForStatement{base: b, Init: init, Test: test, Update: update, Body: body}, nil

	case ForInStatementNode, ForOfStatementNode:
		left, err := decodeNode(field(obj, "left"))
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(field(obj, "right"))
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(field(obj, "body"))
		if err != nil {
			return nil, err
		}
		if t == ForInStatementNode {
			return &ForInStatement{base: b, Left: left, Right: right, Body: body}, nil
		}
		var isAwait bool
		_ = json.Unmarshal(field(obj, "isAwait"), &isAwait)
		return &ForOfStatement{base: b, Left: left, Right: right, Body: body, IsAwait: isAwait}, nil

	case SwitchStatementNode:
		disc, err := decodeExpr(field(obj, "discriminant"))
		if err != nil {
			return nil, err
		}
		var rawCases []json.RawMessage
		_ = json.Unmarshal(field(obj, "cases"), &rawCases)
		cases := make([]*SwitchCase, 0, len(rawCases))
		for _, rc := range rawCases {
			var cobj map[string]json.RawMessage
			if err := json.Unmarshal(rc, &cobj); err != nil {
				return nil, err
			}
			_, cloc, crng, _ := header(cobj)
			ctest, err := decodeExpr(field(cobj, "test"))
			if err != nil {
				return nil, err
			}
			consequent, err := decodeStmtSlice(field(cobj, "consequent"))
			if err != nil {
				return nil, err
			}
			cases = append(cases, &SwitchCase{base: base{Type_: SwitchCaseNode, Loc_: cloc, Range_: crng}, Test: ctest, Consequent: consequent})
		}
		return &SwitchStatement{base: b, Discriminant: disc, Cases: cases}, nil

	case ThrowStatementNode:
		arg, err := decodeExpr(field(obj, "argument"))
		if err != nil {
			return nil, err
		}
		return &ThrowStatement{base: b, Argument: arg}, nil

	case TryStatementNode:
		block, err := decodeBlockPtr(field(obj, "block"))
		if err != nil {
			return nil, err
		}
		handler, err := decodeCatchClausePtr(field(obj, "handler"))
		if err != nil {
			return nil, err
		}
		finalizer, err := decodeBlockPtr(field(obj, "finalizer"))
		if err != nil {
			return nil, err
		}
		return &TryStatement{base: b, Block: block, Handler: handler, Finalizer: finalizer}, nil

	case IdentifierNode:
		var name string
		_ = json.Unmarshal(field(obj, "name"), &name)
		return &Identifier{base: b, Name: name}, nil

	case PrivateNameNode:
		var name string
		_ = json.Unmarshal(field(obj, "name"), &name)
		return &PrivateName{base: b, Name: name}, nil

	case LiteralNode:
		return decodeLiteral(obj, b)

	case ThisExpressionNode:
		return &ThisExpression{base: b}, nil

	case SuperNode:
		return &Super{base: b}, nil

	case ArrayExpressionNode:
		elems, err := decodeExprSlice(field(obj, "elements"))
		if err != nil {
			return nil, err
		}
		return &ArrayExpression{base: b, Elements: elems}, nil

	case ObjectExpressionNode:
		props, err := decodeExprSlice(field(obj, "properties"))
		if err != nil {
			return nil, err
		}
		return &ObjectExpression{base: b, Properties: props}, nil

	case PropertyNode:
		key, err := decodeExpr(field(obj, "key"))
		if err != nil {
			return nil, err
		}
		value, err := decodeExpr(field(obj, "value"))
		if err != nil {
			return nil, err
		}
		var computed, shorthand bool
		_ = json.Unmarshal(field(obj, "computed"), &computed)
		_ = json.Unmarshal(field(obj, "shorthand"), &shorthand)
		var kind string
		_ = json.Unmarshal(field(obj, "kind"), &kind)
		return &Property{base: b, Key: key, Value: value, Computed: computed, Shorthand: shorthand, Kind: kind}, nil

	case SpreadElementNode:
		arg, err := decodeExpr(field(obj, "argument"))
		if err != nil {
			return nil, err
		}
		return &SpreadElement{base: b, Argument: arg}, nil

	case UnaryExpressionNode, UpdateExpressionNode:
		var op string
		_ = json.Unmarshal(field(obj, "operator"), &op)
		arg, err := decodeExpr(field(obj, "argument"))
		if err != nil {
			return nil, err
		}
		var prefix bool
		_ = json.Unmarshal(field(obj, "prefix"), &prefix)
		if t == UnaryExpressionNode {
			return &UnaryExpression{base: b, Operator: op, Argument: arg, Prefix: prefix}, nil
		}
		return &UpdateExpression{base: b, Operator: op, Argument: arg, Prefix: prefix}, nil

	case BinaryExpressionNode, LogicalExpressionNode, AssignmentExpressionNode:
		var op string
		_ = json.Unmarshal(field(obj, "operator"), &op)
		left, err := decodeExpr(field(obj, "left"))
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(field(obj, "right"))
		if err != nil {
			return nil, err
		}
		switch t {
		case BinaryExpressionNode:
			return &BinaryExpression{base: b, Operator: op, Left: left, Right: right}, nil
		case LogicalExpressionNode:
			return &LogicalExpression{base: b, Operator: op, Left: left, Right: right}, nil
		default:
			return &AssignmentExpression{base: b, Operator: op, Left: left, Right: right}, nil
		}

	case ConditionalExprNode:
		test, err := decodeExpr(field(obj, "test"))
		if err != nil {
			return nil, err
		}
		cons, err := decodeExpr(field(obj, "consequent"))
		if err != nil {
			return nil, err
		}
		alt, err := decodeExpr(field(obj, "alternate"))
		if err != nil {
			return nil, err
		}
		return &ConditionalExpression{base: b, Test: test, Consequent: cons, Alternate: alt}, nil

	case CallExpressionNode, NewExpressionNode:
		callee, err := decodeExpr(field(obj, "callee"))
		if err != nil {
			return nil, err
		}
		args, err := decodeExprSlice(field(obj, "arguments"))
		if err != nil {
			return nil, err
		}
		if t == NewExpressionNode {
			return &NewExpression{base: b, Callee: callee, Arguments: args}, nil
		}
		var optional bool
		_ = json.Unmarshal(field(obj, "optional"), &optional)
		return &CallExpression{base: b, Callee: callee, Arguments: args, Optional: optional}, nil

	case SequenceExpressionNode:
		exprs, err := decodeExprSlice(field(obj, "expressions"))
		if err != nil {
			return nil, err
		}
		return &SequenceExpression{base: b, Expressions: exprs}, nil

	case MemberExpressionNode:
		objExpr, err := decodeExpr(field(obj, "object"))
		if err != nil {
			return nil, err
		}
		prop, err := decodeExpr(field(obj, "property"))
		if err != nil {
			return nil, err
		}
		var computed, optional bool
		_ = json.Unmarshal(field(obj, "computed"), &computed)
		_ = json.Unmarshal(field(obj, "optional"), &optional)
		return &MemberExpression{base: b, Object: objExpr, Property: prop, Computed: computed, Optional: optional}, nil

	case YieldExpressionNode:
		arg, err := decodeExpr(field(obj, "argument"))
		if err != nil {
			return nil, err
		}
		var delegate bool
		_ = json.Unmarshal(field(obj, "delegate"), &delegate)
		return &YieldExpression{base: b, Argument: arg, Delegate: delegate}, nil

	case AwaitExpressionNode:
		arg, err := decodeExpr(field(obj, "argument"))
		if err != nil {
			return nil, err
		}
		return &AwaitExpression{base: b, Argument: arg}, nil

	case ArrayPatternNode:
		elems, err := decodeExprSlice(field(obj, "elements"))
		if err != nil {
			return nil, err
		}
		return &ArrayPattern{base: b, Elements: elems}, nil

	case ObjectPatternNode:
		props, err := decodeExprSlice(field(obj, "properties"))
		if err != nil {
			return nil, err
		}
		return &ObjectPattern{base: b, Properties: props}, nil

	case AssignmentPatternNode:
		left, err := decodeExpr(field(obj, "left"))
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(field(obj, "right"))
		if err != nil {
			return nil, err
		}
		return &AssignmentPattern{base: b, Left: left, Right: right}, nil

	case RestElementNode:
		arg, err := decodeExpr(field(obj, "argument"))
		if err != nil {
			return nil, err
		}
		return &RestElement{base: b, Argument: arg}, nil

	case TemplateElementNode:
		var raw, cooked string
		var tail bool
		_ = json.Unmarshal(field(obj, "raw"), &raw)
		_ = json.Unmarshal(field(obj, "cooked"), &cooked)
		_ = json.Unmarshal(field(obj, "tail"), &tail)
		return &TemplateElement{base: b, Raw: raw, Cooked: cooked, Tail: tail}, nil

	case TemplateLiteralNode:
		quasis, err := decodeTemplateElementSlice(field(obj, "quasis"))
		if err != nil {
			return nil, err
		}
		exprs, err := decodeExprSlice(field(obj, "expressions"))
		if err != nil {
			return nil, err
		}
		return &TemplateLiteral{base: b, Quasis: quasis, Expressions: exprs}, nil

	case TaggedTemplateExprNode:
		tag, err := decodeExpr(field(obj, "tag"))
		if err != nil {
			return nil, err
		}
		quasiNode, err := decodeNode(field(obj, "quasi"))
		if err != nil {
			return nil, err
		}
		quasi, _ := quasiNode.(*TemplateLiteral)
		return &TaggedTemplateExpression{base: b, Tag: tag, Quasi: quasi}, nil

	case MethodDefinitionNode:
		key, err := decodeExpr(field(obj, "key"))
		if err != nil {
			return nil, err
		}
		valueNode, err := decodeNode(field(obj, "value"))
		if err != nil {
			return nil, err
		}
		value, _ := valueNode.(*FunctionExpression)
		var kind MethodKind
		_ = json.Unmarshal(field(obj, "kind"), &kind)
		var static, computed bool
		_ = json.Unmarshal(field(obj, "static"), &static)
		_ = json.Unmarshal(field(obj, "computed"), &computed)
		return &MethodDefinition{base: b, Key: key, Value: value, Kind: kind, Static: static, Computed: computed}, nil

	case ClassBodyNode:
		var rawMembers []json.RawMessage
		_ = json.Unmarshal(field(obj, "body"), &rawMembers)
		members := make([]*MethodDefinition, 0, len(rawMembers))
		for _, rm := range rawMembers {
			n, err := decodeNode(rm)
			if err != nil {
				return nil, err
			}
			md, ok := n.(*MethodDefinition)
			if !ok {
				return nil, fmt.Errorf("ast: ClassBody member is %T, want MethodDefinition", n)
			}
			members = append(members, md)
		}
		return &ClassBody{base: b, Body: members}, nil

	default:
		return nil, fmt.Errorf("ast: unknown node type %q", t)
	}
}

func decodeLiteral(obj map[string]json.RawMessage, b base) (Node, error) {
	var kind LiteralKind
	_ = json.Unmarshal(field(obj, "kind"), &kind)
	lit := &Literal{base: b, Kind: kind}
	_ = json.Unmarshal(field(obj, "raw"), &lit.Raw)
	_ = json.Unmarshal(field(obj, "flags"), &lit.Flags)
	switch kind {
	case LiteralBoolean:
		_ = json.Unmarshal(field(obj, "value"), &lit.Bool)
	case LiteralString:
		_ = json.Unmarshal(field(obj, "value"), &lit.Str)
	case LiteralNumber:
		_ = json.Unmarshal(field(obj, "value"), &lit.Num)
	case LiteralBigInt:
		raw := lit.Raw
		if raw == "" {
			_ = json.Unmarshal(field(obj, "value"), &raw)
		}
		raw = strings.TrimSuffix(raw, "n")
		n := new(big.Int)
		if _, ok := n.SetString(raw, 0); ok {
			lit.Big = n
		}
	case LiteralRegExp:
		// Raw/Flags already populated above.
	}
	return lit, nil
}

func decodeExpr(raw json.RawMessage) (Expression, error) {
	n, err := decodeNode(raw)
	if err != nil || n == nil {
		return nil, err
	}
	expr, ok := n.(Expression)
	if !ok {
		return nil, fmt.Errorf("ast: node %T is not an Expression", n)
	}
	return expr, nil
}

func decodeStmt(raw json.RawMessage) (Statement, error) {
	n, err := decodeNode(raw)
	if err != nil || n == nil {
		return nil, err
	}
	stmt, ok := n.(Statement)
	if !ok {
		return nil, fmt.Errorf("ast: node %T is not a Statement", n)
	}
	return stmt, nil
}

func decodeExprSlice(raw json.RawMessage) ([]Expression, error) {
	if isNullRaw(raw) {
		return nil, nil
	}
	var rawItems []json.RawMessage
	if err := json.Unmarshal(raw, &rawItems); err != nil {
		return nil, err
	}
	out := make([]Expression, len(rawItems))
	for i, ri := range rawItems {
		e, err := decodeExpr(ri)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func decodeStmtSlice(raw json.RawMessage) ([]Statement, error) {
	if isNullRaw(raw) {
		return nil, nil
	}
	var rawItems []json.RawMessage
	if err := json.Unmarshal(raw, &rawItems); err != nil {
		return nil, err
	}
	out := make([]Statement, len(rawItems))
	for i, ri := range rawItems {
		s, err := decodeStmt(ri)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func decodeTemplateElementSlice(raw json.RawMessage) ([]*TemplateElement, error) {
	if isNullRaw(raw) {
		return nil, nil
	}
	var rawItems []json.RawMessage
	if err := json.Unmarshal(raw, &rawItems); err != nil {
		return nil, err
	}
	out := make([]*TemplateElement, 0, len(rawItems))
	for _, ri := range rawItems {
		n, err := decodeNode(ri)
		if err != nil {
			return nil, err
		}
		te, ok := n.(*TemplateElement)
		if !ok {
			return nil, fmt.Errorf("ast: quasis element is %T, want TemplateElement", n)
		}
		out = append(out, te)
	}
	return out, nil
}

func decodeIdentifierPtr(raw json.RawMessage) (*Identifier, error) {
	n, err := decodeNode(raw)
	if err != nil || n == nil {
		return nil, err
	}
	id, ok := n.(*Identifier)
	if !ok {
		return nil, fmt.Errorf("ast: node %T is not an Identifier", n)
	}
	return id, nil
}

func decodeBlockPtr(raw json.RawMessage) (*BlockStatement, error) {
	n, err := decodeNode(raw)
	if err != nil || n == nil {
		return nil, err
	}
	blk, ok := n.(*BlockStatement)
	if !ok {
		return nil, fmt.Errorf("ast: node %T is not a BlockStatement", n)
	}
	return blk, nil
}

func decodeCatchClausePtr(raw json.RawMessage) (*CatchClause, error) {
	if isNullRaw(raw) {
		return nil, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	_, loc, rng, _ := header(obj)
	param, err := decodeExpr(field(obj, "param"))
	if err != nil {
		return nil, err
	}
	body, err := decodeBlockPtr(field(obj, "body"))
	if err != nil {
		return nil, err
	}
	return &CatchClause{base: base{Type_: CatchClauseNode, Loc_: loc, Range_: rng}, Param: param, Body: body}, nil
}

func decodeClassBodyPtr(raw json.RawMessage) (*ClassBody, error) {
	n, err := decodeNode(raw)
	if err != nil || n == nil {
		return nil, err
	}
	cb, ok := n.(*ClassBody)
	if !ok {
		return nil, fmt.Errorf("ast: node %T is not a ClassBody", n)
	}
	return cb, nil
}

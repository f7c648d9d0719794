package ast

// MethodKind distinguishes ordinary methods from accessors and the
// constructor, mirroring Property.Kind for object literals.
type MethodKind string

const (
	MethodOrdinary    MethodKind = "method"
	MethodGetter      MethodKind = "get"
	MethodSetter      MethodKind = "set"
	MethodConstructor MethodKind = "constructor"
)

// MethodDefinition is one member of a ClassBody: a method, accessor, or
// constructor, static or not.
type MethodDefinition struct {
	base
	Key      Expression
	Value    *FunctionExpression
	Kind     MethodKind
	Static   bool
	Computed bool
}

func (m *MethodDefinition) expressionNode() {}

// ClassBody is the brace-delimited member list of a class.
type ClassBody struct {
	base
	Body []*MethodDefinition
}

// ClassDeclaration is a named class at statement level. SuperClass is
// nil for a base class; non-nil marks the class "derived" for the
// purposes of the constructor protocol in spec.md §4.4.
type ClassDeclaration struct {
	base
	ID         *Identifier
	SuperClass Expression
	Body       *ClassBody
}

func (c *ClassDeclaration) statementNode() {}

// ClassExpression is a class value in expression position.
type ClassExpression struct {
	base
	ID         *Identifier
	SuperClass Expression
	Body       *ClassBody
}

func (c *ClassExpression) expressionNode() {}

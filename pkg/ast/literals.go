package ast

import "math/big"

// LiteralKind distinguishes the primitive kind a Literal node denotes:
// the primitives of spec.md §3's value union that have a literal form
// (not undefined or symbol), plus regexp. Object literals are
// ObjectExpression, never a Literal.
type LiteralKind string

const (
	LiteralNull    LiteralKind = "null"
	LiteralBoolean LiteralKind = "boolean"
	LiteralString  LiteralKind = "string"
	LiteralNumber  LiteralKind = "number"
	LiteralBigInt  LiteralKind = "bigint"
	LiteralRegExp  LiteralKind = "regexp"
)

// Literal is a primitive literal expression.
type Literal struct {
	base
	Kind    LiteralKind
	Bool    bool
	Str     string
	Num     float64
	Big     *big.Int
	Raw     string // source text, e.g. "0x1F" or the regexp source
	Flags   string // regexp flags, only meaningful when Kind == LiteralRegExp
}

func (l *Literal) expressionNode() {}

// Identifier is a bare name reference.
type Identifier struct {
	base
	Name string
}

func (i *Identifier) expressionNode() {}

// PrivateName is a `#name` reference, used as a MemberExpression property
// or in `#name in obj` checks against private class fields.
type PrivateName struct {
	base
	Name string
}

func (p *PrivateName) expressionNode() {}

// ThisExpression is the `this` keyword.
type ThisExpression struct{ base }

func (t *ThisExpression) expressionNode() {}

// Super is the `super` keyword, valid only inside a derived class's
// constructor or a method with a home object.
type Super struct{ base }

func (s *Super) expressionNode() {}

// TemplateElement is one literal chunk of a TemplateLiteral.
type TemplateElement struct {
	base
	Raw    string
	Cooked string
	Tail   bool
}

// TemplateLiteral is a template string with interleaved expressions.
type TemplateLiteral struct {
	base
	Quasis      []*TemplateElement
	Expressions []Expression
}

func (t *TemplateLiteral) expressionNode() {}

// TaggedTemplateExpression is a tag function applied to a template literal.
type TaggedTemplateExpression struct {
	base
	Tag   Expression
	Quasi *TemplateLiteral
}

func (t *TaggedTemplateExpression) expressionNode() {}

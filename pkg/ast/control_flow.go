package ast

// IfStatement is `if (test) consequent else alternate`.
type IfStatement struct {
	base
	Test       Expression
	Consequent Statement
	Alternate  Statement // nil if no else branch
}

func (i *IfStatement) statementNode() {}

// WhileStatement is a pre-tested loop.
type WhileStatement struct {
	base
	Test Expression
	Body Statement
}

func (w *WhileStatement) statementNode() {}

// DoWhileStatement is a post-tested loop.
type DoWhileStatement struct {
	base
	Body Statement
	Test Expression
}

func (d *DoWhileStatement) statementNode() {}

// ForStatement is the classic three-clause C-style loop. Init may be a
// VariableDeclaration or an Expression; any clause may be nil.
type ForStatement struct {
	base
	Init   Node
	Test   Expression
	Update Expression
	Body   Statement
}

func (f *ForStatement) statementNode() {}

// ForInStatement enumerates an object's enumerable string keys
// (including inherited ones), per the for-in iteration protocol.
type ForInStatement struct {
	base
	Left  Node // VariableDeclaration or an assignment target Expression
	Right Expression
	Body  Statement
}

func (f *ForInStatement) statementNode() {}

// ForOfStatement drives an iterable through the iterator protocol
// (spec.md §4.8). IsAwait marks `for await (... of ...)`.
type ForOfStatement struct {
	base
	Left    Node
	Right   Expression
	Body    Statement
	IsAwait bool
}

func (f *ForOfStatement) statementNode() {}

// SwitchCase is one `case test:`/`default:` arm of a SwitchStatement.
type SwitchCase struct {
	base
	Test       Expression // nil for the default case
	Consequent []Statement
}

// SwitchStatement dispatches on strict-equality match against Discriminant.
type SwitchStatement struct {
	base
	Discriminant Expression
	Cases        []*SwitchCase
}

func (s *SwitchStatement) statementNode() {}

package ast

// ExpressionStatement wraps an expression evaluated for its side effects.
type ExpressionStatement struct {
	base
	Expr Expression
}

func (e *ExpressionStatement) statementNode() {}

// BlockStatement is a brace-delimited sequence of statements introducing
// its own lexical (but not variable) environment record.
type BlockStatement struct {
	base
	Body []Statement
}

func (b *BlockStatement) statementNode() {}

// EmptyStatement is a bare `;`.
type EmptyStatement struct{ base }

func (e *EmptyStatement) statementNode() {}

// VariableKind distinguishes var/let/const declaration semantics: var
// hoists to the nearest function/global scope as a binding initialized
// to undefined; let/const create a lexical binding in the current block,
// subject to temporal-dead-zone rules (spec.md §4.3).
type VariableKind string

const (
	VarKind   VariableKind = "var"
	LetKind   VariableKind = "let"
	ConstKind VariableKind = "const"
)

// VariableDeclarator pairs a binding pattern with an optional initializer.
type VariableDeclarator struct {
	base
	ID   Expression // Identifier, ArrayPattern, or ObjectPattern
	Init Expression // nil if omitted
}

// VariableDeclaration is one or more comma-separated declarators sharing
// a declaration kind.
type VariableDeclaration struct {
	base
	Kind         VariableKind
	Declarations []*VariableDeclarator
}

func (v *VariableDeclaration) statementNode() {}

// ReturnStatement produces a return completion (spec.md §3, Completion).
type ReturnStatement struct {
	base
	Argument Expression // nil for a bare `return`
}

func (r *ReturnStatement) statementNode() {}

// LabeledStatement attaches a label a `break`/`continue` may target.
type LabeledStatement struct {
	base
	Label Identifier
	Body  Statement
}

func (l *LabeledStatement) statementNode() {}

// BreakStatement produces a break completion, optionally targeting a
// label.
type BreakStatement struct {
	base
	Label *Identifier // nil for an unlabeled break
}

func (b *BreakStatement) statementNode() {}

// ContinueStatement produces a continue completion, optionally targeting
// a label.
type ContinueStatement struct {
	base
	Label *Identifier
}

func (c *ContinueStatement) statementNode() {}

// ThrowStatement produces a throw completion.
type ThrowStatement struct {
	base
	Argument Expression
}

func (t *ThrowStatement) statementNode() {}

// CatchClause is the `catch (param) { body }` part of a TryStatement.
type CatchClause struct {
	base
	Param Expression // nil for a parameterless `catch {}`
	Body  *BlockStatement
}

// TryStatement implements the completion semantics of spec.md §4.5: a
// finally block's own completion overrides the try/catch completion only
// when finally itself completes abruptly.
type TryStatement struct {
	base
	Block     *BlockStatement
	Handler   *CatchClause // nil if no catch
	Finalizer *BlockStatement
}

func (t *TryStatement) statementNode() {}

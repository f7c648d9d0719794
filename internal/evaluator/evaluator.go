package evaluator

import (
	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
	"github.com/escore/escore/pkg/ast"
)

// EvalProgram implements ScriptEvaluation/GlobalDeclarationInstantiation
// (spec.md §4.5): hoist the top-level var/function declarations onto the
// realm's global environment, then run the program body as a statement
// list, returning the completion value of its last ExpressionStatement
// (the REPL-friendly "last expression value" convention the host spec
// leaves implementation-defined for a bare script).
func EvalProgram(agent *runtime.Agent, realm *runtime.Realm, program *ast.Program) (runtime.Value, *errors.LanguageError) {
	env := realm.GlobalEnv
	ctx := &runtime.ExecutionContext{Realm: realm, LexicalEnvironment: env, VariableEnvironment: env, FunctionName: "<script>"}
	if err := agent.Stack.Push(ctx); err != nil {
		return nil, err
	}
	defer agent.Stack.Pop()

	if err := hoistDeclarations(agent, env, program.Body, false); err != nil {
		return nil, err
	}
	completion, err := evalStatementList(agent, env, program.Body)
	if err != nil {
		return nil, err
	}
	if completion.Kind == runtime.Throw {
		return nil, throwCompletionError(completion)
	}
	if completion.Value == nil {
		return runtime.Undefined, nil
	}
	return completion.Value, nil
}

// throwCompletionError adapts an uncaught Throw completion that escaped
// the top-level statement list into a *errors.LanguageError, the form
// pkg/engine's host-facing API surfaces to callers.
func throwCompletionError(c runtime.Completion) *errors.LanguageError {
	e := errors.New(errors.Error, "uncaught exception")
	e.Value = c.Value
	return e
}

// hoistDeclarations implements the var/function half of
// GlobalDeclarationInstantiation / FunctionDeclarationInstantiation
// (spec.md §4.5): every `var` name in stmts (recursing into nested
// blocks/ifs/loops but not into nested function bodies) gets a
// var-scoped binding initialized to undefined, and every top-level
// FunctionDeclaration is bound and initialized immediately (function
// hoisting takes priority over same-named var hoisting). Lexical
// (let/const/class) declarations at this level are pre-declared too,
// whatever isFunctionScope says: the flag is not consulted.
func hoistDeclarations(agent *runtime.Agent, env runtime.Environment, stmts []ast.Statement, isFunctionScope bool) *errors.LanguageError {
	varNames := map[string]bool{}
	collectVarNames(stmts, varNames)
	for name := range varNames {
		if !env.HasBinding(name) {
			if err := env.CreateMutableBinding(name, false); err != nil {
				return err
			}
			if err := env.InitializeBinding(name, runtime.Undefined); err != nil {
				return err
			}
		}
	}
	for _, s := range stmts {
		switch d := s.(type) {
		case *ast.FunctionDeclaration:
			if d.ID == nil {
				continue
			}
			realm := currentRealm(agent)
			fn := makeFunctionObject(d.Params, d.Body, nil, d.ID.Name, funcKindFor(d.Generator, d.Async), env, realm)
			if !env.HasBinding(d.ID.Name) {
				if err := env.CreateMutableBinding(d.ID.Name, false); err != nil {
					return err
				}
			}
			if err := env.InitializeBinding(d.ID.Name, fn); err != nil {
				return err
			}
		case *ast.ClassDeclaration:
			if d.ID == nil {
				continue
			}
			if ge, ok := env.(*runtime.GlobalEnvironment); ok {
				_ = ge.CreateLexicalBinding(d.ID.Name, true)
			} else if !env.HasBinding(d.ID.Name) {
				_ = env.CreateMutableBinding(d.ID.Name, false)
			}
		case *ast.VariableDeclaration:
			if d.Kind == ast.VarKind {
				continue
			}
			for _, decl := range d.Declarations {
				declareLexicalPattern(env, decl.ID, d.Kind == ast.ConstKind)
			}
		}
	}
	return nil
}

func funcKindFor(isGenerator, isAsync bool) functionKind {
	switch {
	case isGenerator && isAsync:
		return kindAsyncGenerator
	case isGenerator:
		return kindGenerator
	case isAsync:
		return kindAsync
	default:
		return kindNormal
	}
}

// declareLexicalPattern pre-declares (but does not initialize) every name
// a let/const binding pattern introduces, establishing the temporal dead
// zone a reference before the declaration's evaluation must observe
// (spec.md §4.3).
func declareLexicalPattern(env runtime.Environment, pattern ast.Expression, isConst bool) {
	for _, name := range patternNames(pattern) {
		if isConst {
			_ = env.CreateImmutableBinding(name, true)
		} else {
			_ = env.CreateMutableBinding(name, false)
		}
	}
}

func patternNames(p ast.Expression) []string {
	switch t := p.(type) {
	case *ast.Identifier:
		return []string{t.Name}
	case *ast.AssignmentPattern:
		return patternNames(t.Left)
	case *ast.RestElement:
		return patternNames(t.Argument)
	case *ast.ArrayPattern:
		var out []string
		for _, el := range t.Elements {
			if el == nil {
				continue
			}
			out = append(out, patternNames(el)...)
		}
		return out
	case *ast.ObjectPattern:
		var out []string
		for _, prop := range t.Properties {
			switch pp := prop.(type) {
			case *ast.Property:
				out = append(out, patternNames(pp.Value)...)
			case *ast.RestElement:
				out = append(out, patternNames(pp.Argument)...)
			}
		}
		return out
	default:
		return nil
	}
}

// collectVarNames walks stmts collecting every `var`-declared name and
// every FunctionDeclaration name, descending into nested block-shaped
// statements (spec.md §4.5's VarDeclaredNames) but never into a nested
// function/arrow body, whose own var names belong to its own scope.
func collectVarNames(stmts []ast.Statement, out map[string]bool) {
	for _, s := range stmts {
		collectVarNamesStmt(s, out)
	}
}

func collectVarNamesStmt(s ast.Statement, out map[string]bool) {
	switch t := s.(type) {
	case *ast.VariableDeclaration:
		if t.Kind != ast.VarKind {
			return
		}
		for _, d := range t.Declarations {
			for _, name := range patternNames(d.ID) {
				out[name] = true
			}
		}
	case *ast.FunctionDeclaration:
		if t.ID != nil {
			out[t.ID.Name] = true
		}
	case *ast.BlockStatement:
		collectVarNames(t.Body, out)
	case *ast.IfStatement:
		collectVarNamesStmt(t.Consequent, out)
		if t.Alternate != nil {
			collectVarNamesStmt(t.Alternate, out)
		}
	case *ast.LabeledStatement:
		collectVarNamesStmt(t.Body, out)
	case *ast.WhileStatement:
		collectVarNamesStmt(t.Body, out)
	case *ast.DoWhileStatement:
		collectVarNamesStmt(t.Body, out)
	case *ast.ForStatement:
		if vd, ok := t.Init.(*ast.VariableDeclaration); ok && vd.Kind == ast.VarKind {
			collectVarNamesStmt(vd, out)
		}
		collectVarNamesStmt(t.Body, out)
	case *ast.ForInStatement:
		if vd, ok := t.Left.(*ast.VariableDeclaration); ok && vd.Kind == ast.VarKind {
			collectVarNamesStmt(vd, out)
		}
		collectVarNamesStmt(t.Body, out)
	case *ast.ForOfStatement:
		if vd, ok := t.Left.(*ast.VariableDeclaration); ok && vd.Kind == ast.VarKind {
			collectVarNamesStmt(vd, out)
		}
		collectVarNamesStmt(t.Body, out)
	case *ast.TryStatement:
		collectVarNames(t.Block.Body, out)
		if t.Handler != nil {
			collectVarNames(t.Handler.Body.Body, out)
		}
		if t.Finalizer != nil {
			collectVarNames(t.Finalizer.Body, out)
		}
	case *ast.SwitchStatement:
		for _, c := range t.Cases {
			collectVarNames(c.Consequent, out)
		}
	}
}

package evaluator

import (
	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
	"github.com/escore/escore/pkg/ast"
)

// evalStatementList threads completions through stmts per spec.md §4.5's
// StatementList evaluation rule: an abrupt completion stops the list
// immediately; a Normal completion's value is carried forward so the
// list's overall completion reports the most recently produced value
// (the rule a bare script's "last expression value" relies on).
func evalStatementList(agent *runtime.Agent, env runtime.Environment, stmts []ast.Statement) (runtime.Completion, *errors.LanguageError) {
	var last runtime.Completion
	for _, s := range stmts {
		c, err := evalStatement(agent, env, s, "")
		if err != nil {
			return runtime.Completion{}, err
		}
		if c.Kind == runtime.Normal && c.Value == nil {
			c.Value = last.Value
		}
		last = c
		if last.IsAbrupt() {
			return last, nil
		}
	}
	return last, nil
}

// evalStatement dispatches on stmt's concrete type. label is the nearest
// enclosing LabeledStatement's name, "" if none; it is threaded through
// so a loop knows which label its own unlabeled break/continue requests
// satisfy (spec.md §4.5's LoopContinues/LabelledEvaluation).
func evalStatement(agent *runtime.Agent, env runtime.Environment, stmt ast.Statement, label string) (runtime.Completion, *errors.LanguageError) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		v, err := EvalExpression(agent, env, s.Expr)
		if err != nil {
			return runtime.Completion{}, err
		}
		return runtime.NormalCompletion(v), nil

	case *ast.EmptyStatement:
		return runtime.NormalCompletion(nil), nil

	case *ast.BlockStatement:
		return evalBlock(agent, env, s)

	case *ast.VariableDeclaration:
		return evalVariableDeclaration(agent, env, s)

	case *ast.FunctionDeclaration:
		return runtime.NormalCompletion(nil), nil // already hoisted

	case *ast.ClassDeclaration:
		if err := evalClassDeclaration(agent, env, s); err != nil {
			return runtime.Completion{}, err
		}
		return runtime.NormalCompletion(nil), nil

	case *ast.ReturnStatement:
		var v runtime.Value = runtime.Undefined
		if s.Argument != nil {
			vv, err := EvalExpression(agent, env, s.Argument)
			if err != nil {
				return runtime.Completion{}, err
			}
			v = vv
		}
		return runtime.ReturnCompletion(v), nil

	case *ast.ThrowStatement:
		v, err := EvalExpression(agent, env, s.Argument)
		if err != nil {
			return runtime.Completion{}, err
		}
		return runtime.ThrowCompletion(v), nil

	case *ast.BreakStatement:
		if s.Label != nil {
			return runtime.BreakCompletion(s.Label.Name), nil
		}
		return runtime.BreakCompletion(""), nil

	case *ast.ContinueStatement:
		if s.Label != nil {
			return runtime.ContinueCompletion(s.Label.Name), nil
		}
		return runtime.ContinueCompletion(""), nil

	case *ast.IfStatement:
		test, err := EvalExpression(agent, env, s.Test)
		if err != nil {
			return runtime.Completion{}, err
		}
		if runtime.ToBoolean(test) {
			return evalStatement(agent, env, s.Consequent, "")
		}
		if s.Alternate != nil {
			return evalStatement(agent, env, s.Alternate, "")
		}
		return runtime.NormalCompletion(nil), nil

	case *ast.LabeledStatement:
		return evalLabeled(agent, env, s)

	case *ast.WhileStatement:
		return evalWhile(agent, env, s, label)

	case *ast.DoWhileStatement:
		return evalDoWhile(agent, env, s, label)

	case *ast.ForStatement:
		return evalFor(agent, env, s, label)

	case *ast.ForInStatement:
		return evalForIn(agent, env, s, label)

	case *ast.ForOfStatement:
		return evalForOf(agent, env, s, label)

	case *ast.SwitchStatement:
		return evalSwitch(agent, env, s, label)

	case *ast.TryStatement:
		return evalTry(agent, env, s)

	default:
		return runtime.Completion{}, errors.NewSyntax("unsupported statement node %T", stmt)
	}
}

// evalBlock implements Block evaluation: a fresh declarative environment
// scopes the block's own let/const/function-in-block declarations
// without disturbing the enclosing var-scoped environment (spec.md
// §4.3/§4.5).
func evalBlock(agent *runtime.Agent, env runtime.Environment, s *ast.BlockStatement) (runtime.Completion, *errors.LanguageError) {
	blockEnv := runtime.NewDeclarativeEnvironment(env)
	if err := hoistBlockScopedDeclarations(agent, blockEnv, s.Body); err != nil {
		return runtime.Completion{}, err
	}
	return evalStatementList(agent, blockEnv, s.Body)
}

// hoistBlockScopedDeclarations pre-declares let/const and binds
// function declarations nested directly in a block (not the function's
// own top-level body, whose hoisting already ran via hoistDeclarations).
func hoistBlockScopedDeclarations(agent *runtime.Agent, env runtime.Environment, stmts []ast.Statement) *errors.LanguageError {
	for _, s := range stmts {
		switch d := s.(type) {
		case *ast.VariableDeclaration:
			if d.Kind == ast.VarKind {
				continue
			}
			for _, decl := range d.Declarations {
				declareLexicalPattern(env, decl.ID, d.Kind == ast.ConstKind)
			}
		case *ast.ClassDeclaration:
			if d.ID != nil {
				_ = env.CreateMutableBinding(d.ID.Name, false)
			}
		case *ast.FunctionDeclaration:
			if d.ID == nil {
				continue
			}
			fn := makeFunctionObject(d.Params, d.Body, nil, d.ID.Name, funcKindFor(d.Generator, d.Async), env, currentRealm(agent))
			_ = env.CreateMutableBinding(d.ID.Name, true)
			if err := env.InitializeBinding(d.ID.Name, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func evalVariableDeclaration(agent *runtime.Agent, env runtime.Environment, s *ast.VariableDeclaration) (runtime.Completion, *errors.LanguageError) {
	for _, decl := range s.Declarations {
		var v runtime.Value = runtime.Undefined
		if decl.Init != nil {
			vv, err := EvalExpression(agent, env, decl.Init)
			if err != nil {
				return runtime.Completion{}, err
			}
			v = vv
			if id, ok := decl.ID.(*ast.Identifier); ok {
				nameFunctionValue(v, id.Name)
			}
		} else if s.Kind != ast.VarKind {
			// let/const with no initializer still must transition out of
			// the temporal dead zone, observed as `undefined`.
		}
		if err := bindDeclaration(agent, env, decl.ID, v); err != nil {
			return runtime.Completion{}, err
		}
	}
	return runtime.NormalCompletion(nil), nil
}

// nameFunctionValue implements SetFunctionName for the common `const f =
// function() {}` / `const f = () => {}` anonymous-binding case (spec.md
// §4.4): an anonymous function/class expression assigned directly to a
// declarator takes the binding's name.
func nameFunctionValue(v runtime.Value, name string) {
	fn, ok := v.(*runtime.Object)
	if !ok || !fn.IsCallable() {
		return
	}
	nameDesc := fn.GetOwnProperty(runtime.String("name"))
	if nameDesc != nil && nameDesc.Value != nil {
		if s, ok := nameDesc.Value.(runtime.String); ok && s != "" {
			return
		}
	}
	fn.DefineOwnProperty(runtime.String("name"), runtime.DataProperty(runtime.String(name), false, false, true))
}

// evalLabeled implements LabelledEvaluation: a labeled loop passes its
// label down so an unlabeled-looking `continue label;` inside it is
// honored as this loop's own continue; any other labeled statement just
// catches a same-named Break completion.
func evalLabeled(agent *runtime.Agent, env runtime.Environment, s *ast.LabeledStatement) (runtime.Completion, *errors.LanguageError) {
	switch s.Body.(type) {
	case *ast.WhileStatement, *ast.DoWhileStatement, *ast.ForStatement, *ast.ForInStatement, *ast.ForOfStatement:
		c, err := evalStatement(agent, env, s.Body, s.Label.Name)
		if err != nil {
			return runtime.Completion{}, err
		}
		if c.Kind == runtime.Break && (c.Target == "" || c.Target == s.Label.Name) {
			return runtime.NormalCompletion(nil), nil
		}
		return c, nil
	default:
		c, err := evalStatement(agent, env, s.Body, "")
		if err != nil {
			return runtime.Completion{}, err
		}
		if c.Kind == runtime.Break && c.Target == s.Label.Name {
			return runtime.NormalCompletion(nil), nil
		}
		return c, nil
	}
}

// loopSignal interprets a loop body's completion against this loop's own
// label: (stop, result) — stop is true when the loop must end (a Break
// we own, or an abrupt completion that is none of ours to swallow), in
// which case result is what the loop itself should return to its caller.
func loopSignal(c runtime.Completion, label string) (stop bool, result runtime.Completion) {
	switch c.Kind {
	case runtime.Break:
		if c.Target == "" || c.Target == label {
			return true, runtime.NormalCompletion(nil)
		}
		return true, c
	case runtime.Continue:
		if c.Target == "" || c.Target == label {
			return false, runtime.Completion{}
		}
		return true, c
	case runtime.Throw, runtime.Return:
		return true, c
	default:
		return false, runtime.Completion{}
	}
}

func evalWhile(agent *runtime.Agent, env runtime.Environment, s *ast.WhileStatement, label string) (runtime.Completion, *errors.LanguageError) {
	var last runtime.Completion
	for {
		test, err := EvalExpression(agent, env, s.Test)
		if err != nil {
			return runtime.Completion{}, err
		}
		if !runtime.ToBoolean(test) {
			break
		}
		c, err := evalStatement(agent, env, s.Body, "")
		if err != nil {
			return runtime.Completion{}, err
		}
		if c.Kind == runtime.Normal {
			last = c
		}
		if stop, result := loopSignal(c, label); stop {
			return result, nil
		}
	}
	return runtime.NormalCompletion(last.Value), nil
}

func evalDoWhile(agent *runtime.Agent, env runtime.Environment, s *ast.DoWhileStatement, label string) (runtime.Completion, *errors.LanguageError) {
	var last runtime.Completion
	for {
		c, err := evalStatement(agent, env, s.Body, "")
		if err != nil {
			return runtime.Completion{}, err
		}
		if c.Kind == runtime.Normal {
			last = c
		}
		if stop, result := loopSignal(c, label); stop {
			return result, nil
		}
		test, err := EvalExpression(agent, env, s.Test)
		if err != nil {
			return runtime.Completion{}, err
		}
		if !runtime.ToBoolean(test) {
			break
		}
	}
	return runtime.NormalCompletion(last.Value), nil
}

func evalFor(agent *runtime.Agent, env runtime.Environment, s *ast.ForStatement, label string) (runtime.Completion, *errors.LanguageError) {
	loopEnv := runtime.NewDeclarativeEnvironment(env)
	if vd, ok := s.Init.(*ast.VariableDeclaration); ok {
		if vd.Kind != ast.VarKind {
			for _, decl := range vd.Declarations {
				declareLexicalPattern(loopEnv, decl.ID, vd.Kind == ast.ConstKind)
			}
		}
		if _, err := evalStatement(agent, loopEnv, vd, ""); err != nil {
			return runtime.Completion{}, err
		}
	} else if s.Init != nil {
		if expr, ok := s.Init.(ast.Expression); ok {
			if _, err := EvalExpression(agent, loopEnv, expr); err != nil {
				return runtime.Completion{}, err
			}
		}
	}
	var last runtime.Completion
	for {
		if s.Test != nil {
			test, err := EvalExpression(agent, loopEnv, s.Test)
			if err != nil {
				return runtime.Completion{}, err
			}
			if !runtime.ToBoolean(test) {
				break
			}
		}
		c, err := evalStatement(agent, loopEnv, s.Body, "")
		if err != nil {
			return runtime.Completion{}, err
		}
		if c.Kind == runtime.Normal {
			last = c
		}
		if stop, result := loopSignal(c, label); stop {
			return result, nil
		}
		if s.Update != nil {
			if _, err := EvalExpression(agent, loopEnv, s.Update); err != nil {
				return runtime.Completion{}, err
			}
		}
	}
	return runtime.NormalCompletion(last.Value), nil
}

func evalForIn(agent *runtime.Agent, env runtime.Environment, s *ast.ForInStatement, label string) (runtime.Completion, *errors.LanguageError) {
	rightV, err := EvalExpression(agent, env, s.Right)
	if err != nil {
		return runtime.Completion{}, err
	}
	if runtime.TypeOf(rightV) == "undefined" || rightV == runtime.Null {
		return runtime.NormalCompletion(nil), nil
	}
	obj, err := runtime.ToObject(agent, rightV, currentRealm(agent))
	if err != nil {
		return runtime.Completion{}, err
	}
	seen := map[string]bool{}
	var last runtime.Completion
	for o := obj; o != nil; {
		keys := o.OwnPropertyKeys()
		if trapErr := runtime.ProxyTrapError(o); trapErr != nil {
			return runtime.Completion{}, trapErr
		}
		for _, k := range keys {
			ks, ok := k.(runtime.String)
			if !ok || seen[string(ks)] {
				continue
			}
			seen[string(ks)] = true
			d := o.GetOwnProperty(k)
			if trapErr := runtime.ProxyTrapError(o); trapErr != nil {
				return runtime.Completion{}, trapErr
			}
			if d == nil || !d.IsEnumerable() {
				continue
			}
			iterEnv, err := bindForTarget(agent, env, s.Left, ks)
			if err != nil {
				return runtime.Completion{}, err
			}
			c, err := evalStatement(agent, iterEnv, s.Body, "")
			if err != nil {
				return runtime.Completion{}, err
			}
			if c.Kind == runtime.Normal {
				last = c
			}
			if stop, result := loopSignal(c, label); stop {
				return result, nil
			}
		}
		next := o.GetPrototypeOf()
		if trapErr := runtime.ProxyTrapError(o); trapErr != nil {
			return runtime.Completion{}, trapErr
		}
		o = next
	}
	return runtime.NormalCompletion(last.Value), nil
}

func evalForOf(agent *runtime.Agent, env runtime.Environment, s *ast.ForOfStatement, label string) (runtime.Completion, *errors.LanguageError) {
	rightV, err := EvalExpression(agent, env, s.Right)
	if err != nil {
		return runtime.Completion{}, err
	}
	iterRec, err := runtime.GetIterator(agent, rightV, s.IsAwait)
	if err != nil {
		return runtime.Completion{}, err
	}
	var last runtime.Completion
	for {
		v, has, err := nextIterValue(agent, iterRec)
		if err != nil {
			return runtime.Completion{}, err
		}
		if !has {
			break
		}
		if s.IsAwait {
			v, err = awaitValue(agent, env, v)
			if err != nil {
				_ = runtime.IteratorClose(agent, iterRec, nil)
				return runtime.Completion{}, err
			}
		}
		iterEnv, err := bindForTarget(agent, env, s.Left, v)
		if err != nil {
			_ = runtime.IteratorClose(agent, iterRec, err)
			return runtime.Completion{}, err
		}
		c, cerr := evalStatement(agent, iterEnv, s.Body, "")
		if cerr != nil {
			_ = runtime.IteratorClose(agent, iterRec, cerr)
			return runtime.Completion{}, cerr
		}
		if c.Kind == runtime.Normal {
			last = c
		}
		if stop, result := loopSignal(c, label); stop {
			if !iterRec.Done {
				_ = runtime.IteratorClose(agent, iterRec, nil)
			}
			return result, nil
		}
	}
	return runtime.NormalCompletion(last.Value), nil
}

// bindForTarget binds one iteration's value into a fresh per-iteration
// scope when Left is a declaration, or assigns into the existing target
// otherwise, returning the environment the loop body should run against.
func bindForTarget(agent *runtime.Agent, env runtime.Environment, left ast.Node, value runtime.Value) (runtime.Environment, *errors.LanguageError) {
	if vd, ok := left.(*ast.VariableDeclaration); ok {
		iterEnv := runtime.Environment(env)
		if vd.Kind != ast.VarKind {
			decl := runtime.NewDeclarativeEnvironment(env)
			iterEnv = decl
			declareLexicalPattern(decl, vd.Declarations[0].ID, vd.Kind == ast.ConstKind)
		}
		if err := bindDeclaration(agent, iterEnv, vd.Declarations[0].ID, value); err != nil {
			return nil, err
		}
		return iterEnv, nil
	}
	target, ok := left.(ast.Expression)
	if !ok {
		return nil, errors.NewSyntax("invalid for-in/for-of target")
	}
	if err := assignToTarget(agent, env, target, value); err != nil {
		return nil, err
	}
	return env, nil
}

func evalSwitch(agent *runtime.Agent, env runtime.Environment, s *ast.SwitchStatement, label string) (runtime.Completion, *errors.LanguageError) {
	disc, err := EvalExpression(agent, env, s.Discriminant)
	if err != nil {
		return runtime.Completion{}, err
	}
	switchEnv := runtime.NewDeclarativeEnvironment(env)
	for _, c := range s.Cases {
		if err := hoistBlockScopedDeclarations(agent, switchEnv, c.Consequent); err != nil {
			return runtime.Completion{}, err
		}
	}

	matchIdx := -1
	for i, c := range s.Cases {
		if c.Test == nil {
			continue
		}
		testV, err := EvalExpression(agent, switchEnv, c.Test)
		if err != nil {
			return runtime.Completion{}, err
		}
		if runtime.StrictEquals(disc, testV) {
			matchIdx = i
			break
		}
	}
	if matchIdx == -1 {
		for i, c := range s.Cases {
			if c.Test == nil {
				matchIdx = i
				break
			}
		}
	}
	if matchIdx == -1 {
		return runtime.NormalCompletion(nil), nil
	}

	var last runtime.Completion
	for i := matchIdx; i < len(s.Cases); i++ {
		c, err := evalStatementList(agent, switchEnv, s.Cases[i].Consequent)
		if err != nil {
			return runtime.Completion{}, err
		}
		if c.Kind == runtime.Normal {
			last = c
		}
		if c.Kind == runtime.Break && (c.Target == "" || c.Target == label) {
			return runtime.NormalCompletion(last.Value), nil
		}
		if c.IsAbrupt() {
			return c, nil
		}
	}
	return runtime.NormalCompletion(last.Value), nil
}

// evalTry implements TryStatement's completion-combination rule (spec.md
// §4.5): the finally block always runs; if it completes abruptly, that
// completion replaces whatever the try/catch produced, otherwise the
// try/catch completion is returned unchanged.
func evalTry(agent *runtime.Agent, env runtime.Environment, s *ast.TryStatement) (runtime.Completion, *errors.LanguageError) {
	blockC, blockErr := evalBlock(agent, env, s.Block)
	var result runtime.Completion
	var resultErr *errors.LanguageError

	// A throw can reach here two ways: a direct `throw` statement inside
	// the try block, which never left this Go call frame and so still
	// carries its value in blockC; or one raised by a call nested inside
	// the block, which already crossed a fn.Call boundary and so arrives
	// as blockErr instead (see throwCompletionError). Both are the same
	// language-level exception from the catch clause's point of view.
	thrown, isThrow := thrownValue(agent, blockC, blockErr)
	if isThrow && s.Handler != nil {
		catchEnv := runtime.NewDeclarativeEnvironment(env)
		if s.Handler.Param != nil {
			declareLexicalPattern(catchEnv, s.Handler.Param, false)
			if err := bindDeclaration(agent, catchEnv, s.Handler.Param, thrown); err != nil {
				result, resultErr = runtime.Completion{}, err
			}
		}
		if resultErr == nil {
			if err := hoistBlockScopedDeclarations(agent, catchEnv, s.Handler.Body.Body); err != nil {
				result, resultErr = runtime.Completion{}, err
			} else {
				result, resultErr = evalStatementList(agent, catchEnv, s.Handler.Body.Body)
			}
		}
	} else {
		result, resultErr = blockC, blockErr
	}

	if s.Finalizer == nil {
		return result, resultErr
	}
	finC, finErr := evalBlock(agent, env, s.Finalizer)
	if finErr != nil {
		return runtime.Completion{}, finErr
	}
	if finC.IsAbrupt() {
		return finC, nil
	}
	return result, resultErr
}

// thrownValue extracts the exception payload a try block's evaluation
// produced, whichever of the two channels (see evalTry) carried it.
func thrownValue(agent *runtime.Agent, c runtime.Completion, err *errors.LanguageError) (runtime.Value, bool) {
	if err != nil {
		if _, isForcedReturn := asGeneratorReturn(err); isForcedReturn {
			return nil, false
		}
		return errorToValue(agent, err), true
	}
	if c.Kind == runtime.Throw {
		return c.Value, true
	}
	return nil, false
}

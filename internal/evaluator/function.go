// Package evaluator walks the host-provided AST (pkg/ast) against the
// object/environment/completion substrate of internal/runtime,
// implementing the evaluator & syntax dispatch, function & call
// machinery, and declaration-instantiation algorithms of spec.md §4.4
// and §4.5. It is the one package allowed to import both pkg/ast and
// internal/runtime and wire them together; every other package only
// knows one side or the other.
package evaluator

import (
	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/generator"
	"github.com/escore/escore/internal/promise"
	"github.com/escore/escore/internal/runtime"
	"github.com/escore/escore/pkg/ast"
)

// functionKind distinguishes the calling convention a function object
// needs wired into its Call/Construct slots.
type functionKind uint8

const (
	kindNormal functionKind = iota
	kindArrow
	kindGenerator
	kindAsync
	kindAsyncGenerator
	kindClassConstructor
)

// functionData is the evaluator-owned internal slot stored on every
// function Object it creates (spec.md §3's open internal-slot bag),
// keyed by functionDataKey. It carries everything OrdinaryCallEvaluateBody
// (spec.md §4.4) needs: the AST body, the lexical closure it runs
// against, and metadata about its shape.
type functionData struct {
	params      []ast.Expression
	body        *ast.BlockStatement
	exprBody    ast.Expression // non-nil for a concise arrow body
	closure     runtime.Environment
	kind        functionKind
	name        string
	homeObject  *runtime.Object // for super property lookups in methods
	isDerived   bool            // derived-class constructor: must call super() before using `this`
	parentClass *runtime.Object // base-class constructor, resolved for this class's super() calls
}

const functionDataKey = "functionData"

func setFunctionData(o *runtime.Object, fd *functionData) { o.SetInternal(functionDataKey, fd) }

func getFunctionData(o *runtime.Object) *functionData {
	v, ok := o.GetInternal(functionDataKey)
	if !ok {
		return nil
	}
	return v.(*functionData)
}

// expectedArgumentCount implements ExpectedArgumentCount: the number of
// leading parameters before the first default-valued or rest parameter
// (spec.md §4.4's `length` computation).
func expectedArgumentCount(params []ast.Expression) int {
	n := 0
	for _, p := range params {
		switch p.(type) {
		case *ast.AssignmentPattern, *ast.RestElement:
			return n
		}
		n++
	}
	return n
}

// makeFunctionObject builds a function Object of the given kind,
// closing over env, with HostFunc Call/Construct slots that dispatch
// into callOrdinary/constructOrdinary below. The function object's own
// [[Prototype]] is realm.Intrinsics["%Function.prototype%"].
func makeFunctionObject(params []ast.Expression, body *ast.BlockStatement, exprBody ast.Expression, name string, kind functionKind, env runtime.Environment, realm *runtime.Realm) *runtime.Object {
	proto := realm.Intrinsics["%Function.prototype%"]
	fn := runtime.NewOrdinaryObject(proto)
	fn.Class = "Function"
	fn.Realm = realm
	fd := &functionData{params: params, body: body, exprBody: exprBody, closure: env, kind: kind, name: name}
	setFunctionData(fn, fd)

	fn.DefineOwnProperty(runtime.String("length"), runtime.DataProperty(runtime.Number(float64(expectedArgumentCount(params))), false, false, true))
	fn.DefineOwnProperty(runtime.String("name"), runtime.DataProperty(runtime.String(name), false, false, true))

	if kind != kindArrow {
		fn.Call = func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
			return callOrdinary(agent, fn, thisArg, newTarget, args)
		}
	} else {
		fn.Call = func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
			return callOrdinary(agent, fn, thisArg, newTarget, args)
		}
	}
	if kind == kindNormal || kind == kindClassConstructor {
		protoObj := runtime.NewOrdinaryObject(realm.Intrinsics["%Object.prototype%"])
		protoObj.DefineOwnProperty(runtime.String("constructor"), runtime.DataProperty(fn, true, false, true))
		fn.DefineOwnProperty(runtime.String("prototype"), runtime.DataProperty(protoObj, true, false, false))
		fn.Construct = func(agent *runtime.Agent, _ runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
			return constructOrdinary(agent, fn, newTarget, args)
		}
	}
	return fn
}

// callOrdinary implements the non-generator/non-async slice of
// OrdinaryCallEvaluateBody/PrepareForOrdinaryCall (spec.md §4.4): push a
// fresh execution context with a function environment bound to
// thisArg/newTarget, run parameter binding and declaration
// instantiation, evaluate the body, pop the context, and translate a
// Return completion into its value (a fall-off-the-end body returns
// undefined).
func callOrdinary(agent *runtime.Agent, fn *runtime.Object, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
	fd := getFunctionData(fn)
	switch fd.kind {
	case kindGenerator:
		return callGenerator(agent, fn, thisArg, args, false)
	case kindAsyncGenerator:
		return callGenerator(agent, fn, thisArg, args, true)
	case kindAsync:
		return callAsync(agent, fn, thisArg, args)
	}

	env := runtime.NewFunctionEnvironment(fn, newTarget, fd.closure, fd.kind == kindArrow, fd.isDerived)
	if fd.kind != kindArrow {
		env.InitializeThis(resolveThisArg(thisArg, fn))
		env.HomeObject = fd.homeObject
	}

	ctx := &runtime.ExecutionContext{
		Function:            fn,
		Realm:                fn.Realm,
		LexicalEnvironment:   env,
		VariableEnvironment:  env,
		FunctionName:         fd.name,
	}
	if err := agent.Stack.Push(ctx); err != nil {
		return nil, err
	}
	defer agent.Stack.Pop()

	if fd.kind != kindArrow {
		if err := bindParametersAndArguments(agent, env, fd, args, false); err != nil {
			return nil, err
		}
	} else {
		if err := bindParameters(agent, env, fd.params, args); err != nil {
			return nil, err
		}
	}

	if fd.exprBody != nil {
		v, err := EvalExpression(agent, env, fd.exprBody)
		if err != nil {
			return nil, err
		}
		return v, nil
	}

	if err := hoistDeclarations(agent, env, fd.body.Body, true); err != nil {
		return nil, err
	}
	completion, err := evalStatementList(agent, env, fd.body.Body)
	if err != nil {
		return nil, err
	}
	if completion.Kind == runtime.Throw {
		return nil, throwCompletionError(completion)
	}
	if completion.Kind == runtime.Return {
		return completion.Value, nil
	}
	return runtime.Undefined, nil
}

func resolveThisArg(thisArg runtime.Value, fn *runtime.Object) runtime.Value {
	if thisArg == nil {
		return runtime.Undefined
	}
	return thisArg
}

// constructOrdinary implements the construct side: allocate `this` from
// newTarget's prototype (base classes only — a derived class leaves
// `this` uninitialized until its body calls super()), run the body, and
// return the constructed object unless the body explicitly returns
// another object (spec.md §4.4's "a constructor returning an object
// overrides the implicitly allocated instance").
func constructOrdinary(agent *runtime.Agent, fn *runtime.Object, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
	fd := getFunctionData(fn)
	if newTarget == nil {
		newTarget = fn
	}

	var thisArg runtime.Value
	if !fd.isDerived {
		protoV, err := newTarget.Get(agent, runtime.String("prototype"), newTarget)
		if err != nil {
			return nil, err
		}
		proto, _ := protoV.(*runtime.Object)
		instance := runtime.NewOrdinaryObject(proto)
		instance.Realm = fn.Realm
		thisArg = instance
	}

	env := runtime.NewFunctionEnvironment(fn, newTarget, fd.closure, false, fd.isDerived)
	if !fd.isDerived {
		env.InitializeThis(thisArg)
	}
	env.HomeObject = fd.homeObject

	ctx := &runtime.ExecutionContext{Function: fn, Realm: fn.Realm, LexicalEnvironment: env, VariableEnvironment: env, FunctionName: fd.name}
	if err := agent.Stack.Push(ctx); err != nil {
		return nil, err
	}
	defer agent.Stack.Pop()

	if err := bindParametersAndArguments(agent, env, fd, args, true); err != nil {
		return nil, err
	}
	if err := hoistDeclarations(agent, env, fd.body.Body, true); err != nil {
		return nil, err
	}
	completion, err := evalStatementList(agent, env, fd.body.Body)
	if err != nil {
		return nil, err
	}
	if completion.Kind == runtime.Throw {
		return nil, throwCompletionError(completion)
	}
	finalThis, thisErr := env.GetThisBinding()
	if completion.Kind == runtime.Return {
		if obj, ok := completion.Value.(*runtime.Object); ok {
			return obj, nil
		}
	}
	if thisErr != nil {
		return nil, thisErr
	}
	return finalThis, nil
}

// callGenerator wires a generator-kind function's call into
// internal/generator: its body runs on a dedicated goroutine, with
// `yield` dispatched through the generator.Yield closure the evaluator's
// YieldExpression handling calls.
func callGenerator(agent *runtime.Agent, fn *runtime.Object, thisArg runtime.Value, args []runtime.Value, isAsync bool) (runtime.Value, *errors.LanguageError) {
	fd := getFunctionData(fn)
	env := runtime.NewFunctionEnvironment(fn, nil, fd.closure, false, false)
	env.InitializeThis(resolveThisArg(thisArg, fn))
	env.HomeObject = fd.homeObject
	if err := bindParameters(agent, env, fd.params, args); err != nil {
		return nil, err
	}

	g := generator.New(func(yield generator.Yield) (runtime.Value, *errors.LanguageError) {
		gctx := &genContext{yield: yield}
		ctx := &runtime.ExecutionContext{Function: fn, Realm: fn.Realm, LexicalEnvironment: env, VariableEnvironment: env, FunctionName: fd.name, Suspended: gctx}
		if err := agent.Stack.Push(ctx); err != nil {
			return nil, err
		}
		defer agent.Stack.Pop()
		if err := hoistDeclarations(agent, env, fd.body.Body, true); err != nil {
			return nil, err
		}
		completion, err := evalStatementList(agent, env, fd.body.Body)
		if err != nil {
			if v, ok := asGeneratorReturn(err); ok {
				return v, nil
			}
			return nil, err
		}
		if completion.Kind == runtime.Throw {
			return nil, throwCompletionError(completion)
		}
		if completion.Kind == runtime.Return {
			return completion.Value, nil
		}
		return runtime.Undefined, nil
	})

	proto := fn.Realm.Intrinsics["%GeneratorPrototype%"]
	genObj := runtime.NewOrdinaryObject(proto)
	genObj.Class = "Generator"
	genObj.SetInternal("generator", g)
	genObj.SetInternal("isAsync", isAsync)
	return genObj, nil
}

// genContext threads the active generator.Yield closure through nested
// statement evaluation so YieldExpression can reach it without every
// evalStatement/evalExpression call taking an extra parameter.
type genContext struct {
	yield generator.Yield
}

// callAsync runs an async function body to completion eagerly up to its
// first await, suspending the rest as promise reactions — implemented
// here by driving the whole body on a generator goroutine (one async
// function is just a generator whose yields are always `await`s) and
// wiring its steps into promise resolution, per spec.md §4.6's "async
// functions are generators under the hood" framing.
func callAsync(agent *runtime.Agent, fn *runtime.Object, thisArg runtime.Value, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
	fd := getFunctionData(fn)
	env := runtime.NewFunctionEnvironment(fn, nil, fd.closure, false, false)
	env.InitializeThis(resolveThisArg(thisArg, fn))
	env.HomeObject = fd.homeObject
	if err := bindParameters(agent, env, fd.params, args); err != nil {
		return nil, err
	}

	capRec := promise.NewCapability(agent, fn.Realm.Intrinsics["%Promise.prototype%"])

	g := generator.New(func(yield generator.Yield) (runtime.Value, *errors.LanguageError) {
		gctx := &genContext{yield: yield}
		ctx := &runtime.ExecutionContext{Function: fn, Realm: fn.Realm, LexicalEnvironment: env, VariableEnvironment: env, FunctionName: fd.name, Suspended: gctx}
		if err := agent.Stack.Push(ctx); err != nil {
			return nil, err
		}
		defer agent.Stack.Pop()
		if err := hoistDeclarations(agent, env, fd.body.Body, true); err != nil {
			return nil, err
		}
		completion, err := evalStatementList(agent, env, fd.body.Body)
		if err != nil {
			if v, ok := asGeneratorReturn(err); ok {
				return v, nil
			}
			return nil, err
		}
		if completion.Kind == runtime.Throw {
			return nil, throwCompletionError(completion)
		}
		if completion.Kind == runtime.Return {
			return completion.Value, nil
		}
		return runtime.Undefined, nil
	})

	driveAsyncGenerator(agent, g, runtime.Undefined, generator.ResumeNext, capRec)
	return capRec.Promise, nil
}

// driveAsyncGenerator resumes g, and for each yielded value (an awaited
// expression's value) attaches a `.then` that resumes the generator
// again once that value settles, eventually settling cap with the
// generator's own completion.
func driveAsyncGenerator(agent *runtime.Agent, g *generator.Generator, resumeValue runtime.Value, kind generator.ResumeKind, capRec *promise.Capability) {
	value, done, err := g.Resume(kind, resumeValue)
	if err != nil {
		_, _ = capRec.Reject.Call(agent, runtime.Undefined, nil, []runtime.Value{errorToValue(agent, err)})
		return
	}
	if done {
		promise.Resolve(agent, capRec.Promise, value)
		return
	}
	awaitedP := promise.NewPromise(nil)
	promise.Resolve(agent, awaitedP, value)
	onFulfilled := hostFuncObject(func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		var v runtime.Value = runtime.Undefined
		if len(args) > 0 {
			v = args[0]
		}
		driveAsyncGenerator(agent, g, v, generator.ResumeNext, capRec)
		return runtime.Undefined, nil
	})
	onRejected := hostFuncObject(func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		var v runtime.Value = runtime.Undefined
		if len(args) > 0 {
			v = args[0]
		}
		driveAsyncGenerator(agent, g, v, generator.ResumeThrow, capRec)
		return runtime.Undefined, nil
	})
	promise.Then(agent, awaitedP, onFulfilled, onRejected, nil)
}

func hostFuncObject(fn runtime.HostFunc) *runtime.Object {
	o := runtime.NewOrdinaryObject(nil)
	o.Class = "Function"
	o.Call = fn
	return o
}

// errorToValue converts an internal LanguageError into the value a catch
// clause or promise rejection should observe: the error's own Value
// payload when one was attached (a `throw` statement's thrown value, or
// a generator machinery sentinel), otherwise a freshly constructed
// instance of the matching native error constructor (%TypeError% etc.)
// so `catch (e) { e instanceof TypeError }` and `e.message` behave as
// intrinsics/errorctors.go's constructors promise. Falls back to a bare
// string only when no realm is available to construct from (agent has
// no current execution context, e.g. a bug surfaced before any call).
func errorToValue(agent *runtime.Agent, err *errors.LanguageError) runtime.Value {
	if v, ok := err.Value.(runtime.Value); ok {
		return v
	}
	realm := currentRealm(agent)
	if realm == nil {
		return runtime.String(err.Message)
	}
	ctorKey := "%" + string(err.Kind) + "%"
	ctor, ok := realm.Intrinsics[ctorKey]
	if !ok || !ctor.IsConstructor() {
		return runtime.String(err.Message)
	}
	v, cerr := ctor.Construct(agent, nil, ctor, []runtime.Value{runtime.String(err.Message)})
	if cerr != nil {
		return runtime.String(err.Message)
	}
	return v
}

// generatorReturn is the sentinel wrapped in a *errors.LanguageError to
// carry a forced `.return(v)` call (generator.ResumeReturn) back up
// through ordinary statement/expression propagation to the generator
// body closure that started it, without a catch clause along the way
// mistaking it for a thrown exception (see thrownValue in statements.go).
type generatorReturn struct{ value runtime.Value }

func newGeneratorReturn(v runtime.Value) *errors.LanguageError {
	e := errors.New(errors.Error, "generator return")
	e.Value = generatorReturn{value: v}
	return e
}

func newThrow(v runtime.Value) *errors.LanguageError {
	e := errors.New(errors.Error, "uncaught exception")
	e.Value = v
	return e
}

func asGeneratorReturn(err *errors.LanguageError) (runtime.Value, bool) {
	if err == nil {
		return nil, false
	}
	gr, ok := err.Value.(generatorReturn)
	if !ok {
		return nil, false
	}
	return gr.value, true
}

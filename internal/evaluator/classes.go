package evaluator

import (
	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
	"github.com/escore/escore/pkg/ast"
)

// evalClassDeclaration implements ClassDeclarationInstantiation (spec.md
// §4.4's class semantics, layered over the ordinary function-object
// machinery in function.go): build the class's constructor/prototype
// pair and bind it to its name in the innermost lexical environment,
// forward-referenced by statements.go's evalStatement dispatch.
func evalClassDeclaration(agent *runtime.Agent, env runtime.Environment, d *ast.ClassDeclaration) *errors.LanguageError {
	name := ""
	if d.ID != nil {
		name = d.ID.Name
	}
	ctor, err := buildClass(agent, env, name, d.SuperClass, d.Body)
	if err != nil {
		return err
	}
	if d.ID == nil {
		return nil
	}
	if !env.HasBinding(d.ID.Name) {
		if err := env.CreateMutableBinding(d.ID.Name, false); err != nil {
			return err
		}
	}
	return env.InitializeBinding(d.ID.Name, ctor)
}

func evalClassExpression(agent *runtime.Agent, env runtime.Environment, e *ast.ClassExpression) (runtime.Value, *errors.LanguageError) {
	name := ""
	if e.ID != nil {
		name = e.ID.Name
	}
	classEnv := env
	if e.ID != nil {
		// A named class expression binds its own name only within its
		// own scope, the same rule as a named function expression.
		classEnv = runtime.NewDeclarativeEnvironment(env)
		_ = classEnv.(*runtime.DeclarativeEnvironment).CreateImmutableBinding(e.ID.Name, false)
	}
	ctor, err := buildClass(agent, classEnv, name, e.SuperClass, e.Body)
	if err != nil {
		return nil, err
	}
	if e.ID != nil {
		_ = classEnv.(*runtime.DeclarativeEnvironment).InitializeBinding(e.ID.Name, ctor)
	}
	return ctor, nil
}

// buildClass implements ClassDefinitionEvaluation (spec.md §4.4): resolve
// the superclass (if any), construct the prototype chain, build the
// constructor function (explicit or synthesized default), and install
// every MethodDefinition onto the prototype (instance members) or the
// constructor object itself (static members).
func buildClass(agent *runtime.Agent, env runtime.Environment, name string, superExpr ast.Expression, body *ast.ClassBody) (*runtime.Object, *errors.LanguageError) {
	realm := currentRealm(agent)

	var parentCtor *runtime.Object
	var protoParent *runtime.Object
	isDerived := superExpr != nil
	if isDerived {
		superV, err := EvalExpression(agent, env, superExpr)
		if err != nil {
			return nil, err
		}
		if superV == runtime.Null {
			protoParent = nil
			parentCtor = nil
		} else {
			sc, ok := superV.(*runtime.Object)
			if !ok || !sc.IsConstructor() {
				return nil, errors.NewType("Class extends value is not a constructor")
			}
			parentCtor = sc
			protoV, err := sc.Get(agent, runtime.String("prototype"), sc)
			if err != nil {
				return nil, err
			}
			protoParent, _ = protoV.(*runtime.Object)
		}
	} else {
		protoParent = realm.Intrinsics["%Object.prototype%"]
	}

	proto := runtime.NewOrdinaryObject(protoParent)

	var ctorMethod *ast.MethodDefinition
	for _, m := range body.Body {
		if !m.Static && m.Kind == ast.MethodConstructor {
			ctorMethod = m
			break
		}
	}

	classEnv := runtime.NewDeclarativeEnvironment(env)
	if name != "" {
		_ = classEnv.CreateImmutableBinding(name, false)
	}

	var ctor *runtime.Object
	if ctorMethod != nil {
		ctor = makeFunctionObject(ctorMethod.Value.Params, ctorMethod.Value.Body, nil, name, kindClassConstructor, classEnv, realm)
	} else {
		ctor = makeDefaultConstructor(realm, classEnv, name, isDerived, protoParent)
	}
	fd := getFunctionData(ctor)
	fd.isDerived = isDerived
	fd.parentClass = parentCtor
	fd.homeObject = proto

	if parentCtor != nil {
		ctor.SetPrototypeOf(parentCtor)
	}
	ctor.DefineOwnProperty(runtime.String("prototype"), runtime.DataProperty(proto, false, false, false))
	proto.DefineOwnProperty(runtime.String("constructor"), runtime.DataProperty(ctor, true, false, true))
	ctor.DefineOwnProperty(runtime.String("name"), runtime.DataProperty(runtime.String(name), false, false, true))

	if name != "" {
		_ = classEnv.InitializeBinding(name, ctor)
	}

	for _, m := range body.Body {
		if m == ctorMethod {
			continue
		}
		target := proto
		if m.Static {
			target = ctor
		}
		key, err := methodKey(agent, classEnv, m)
		if err != nil {
			return nil, err
		}
		methodName := keyToMapKey(key)
		if m.Kind == ast.MethodGetter || m.Kind == ast.MethodSetter {
			methodName = string(m.Kind) + " " + methodName
		}
		fn := makeFunctionObject(m.Value.Params, m.Value.Body, nil, methodName, funcKindFor(m.Value.Generator, m.Value.Async), classEnv, realm)
		mfd := getFunctionData(fn)
		mfd.homeObject = target

		switch m.Kind {
		case ast.MethodGetter, ast.MethodSetter:
			existing := target.GetOwnProperty(key)
			var getObj, setObj *runtime.Object
			if existing != nil && existing.IsAccessorDescriptor() {
				getObj, setObj = existing.Get, existing.Set
			}
			if m.Kind == ast.MethodGetter {
				getObj = fn
			} else {
				setObj = fn
			}
			target.DefineOwnProperty(key, runtime.AccessorProperty(getObj, setObj, false, true))
		default:
			target.DefineOwnProperty(key, runtime.DataProperty(fn, true, false, true))
		}
	}

	return ctor, nil
}

// methodKey resolves a MethodDefinition's property key, mirroring
// propertyKeyOf (bindings.go) but operating on ast.MethodDefinition's Key
// field, which ast.Property's helper does not accept.
func methodKey(agent *runtime.Agent, env runtime.Environment, m *ast.MethodDefinition) (runtime.Value, *errors.LanguageError) {
	if priv, ok := m.Key.(*ast.PrivateName); ok {
		return runtime.String("#" + priv.Name), nil
	}
	if !m.Computed {
		switch k := m.Key.(type) {
		case *ast.Identifier:
			return runtime.String(k.Name), nil
		case *ast.Literal:
			return literalPropertyKey(k), nil
		}
	}
	v, err := EvalExpression(agent, env, m.Key)
	if err != nil {
		return nil, err
	}
	return runtime.ToPropertyKey(agent, v)
}

// makeDefaultConstructor synthesizes the implicit constructor a class
// body without an explicit `constructor` method receives (spec.md
// §4.4's "class with no constructor has a default one"): a base class's
// default constructor takes no action beyond the allocation
// constructOrdinary already performs; a derived class's forwards every
// argument into super(...).
func makeDefaultConstructor(realm *runtime.Realm, env runtime.Environment, name string, isDerived bool, protoParent *runtime.Object) *runtime.Object {
	proto := realm.Intrinsics["%Function.prototype%"]
	ctor := runtime.NewOrdinaryObject(proto)
	ctor.Class = "Function"
	ctor.Realm = realm
	var params []ast.Expression
	var body *ast.BlockStatement
	if isDerived {
		params = []ast.Expression{&ast.RestElement{Argument: &ast.Identifier{Name: "args"}}}
		body = &ast.BlockStatement{Body: []ast.Statement{
			&ast.ExpressionStatement{Expr: &ast.CallExpression{
				Callee:    &ast.Super{},
				Arguments: []ast.Expression{&ast.SpreadElement{Argument: &ast.Identifier{Name: "args"}}},
			}},
		}}
	} else {
		body = &ast.BlockStatement{Body: nil}
	}
	fd := &functionData{params: params, body: body, closure: env, kind: kindClassConstructor, name: name}
	setFunctionData(ctor, fd)
	ctor.DefineOwnProperty(runtime.String("length"), runtime.DataProperty(runtime.Number(0), false, false, true))
	ctor.DefineOwnProperty(runtime.String("name"), runtime.DataProperty(runtime.String(name), false, false, true))
	ctor.Call = func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return nil, errors.NewType("Class constructor %s cannot be invoked without 'new'", name)
	}
	ctor.Construct = func(agent *runtime.Agent, _ runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return constructOrdinary(agent, ctor, newTarget, args)
	}
	return ctor
}

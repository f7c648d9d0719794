package evaluator

import (
	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
	"github.com/escore/escore/pkg/ast"
)

// bindParameters implements FunctionDeclarationInstantiation's parameter
// half for arrow functions (no `arguments` object): each formal parameter
// becomes a mutable binding in env, initialized from args, with default
// values (AssignmentPattern) evaluated against env itself so later
// defaults can see earlier parameters (spec.md §4.4).
func bindParameters(agent *runtime.Agent, env runtime.Environment, params []ast.Expression, args []runtime.Value) *errors.LanguageError {
	for i, p := range params {
		if rest, ok := p.(*ast.RestElement); ok {
			var tail []runtime.Value
			if i < len(args) {
				tail = append(tail, args[i:]...)
			}
			arr := newArrayFromSlice(agent, tail)
			if err := bindDeclaration(agent, env, rest.Argument, arr); err != nil {
				return err
			}
			continue
		}
		var v runtime.Value = runtime.Undefined
		if i < len(args) {
			v = args[i]
		}
		if err := bindDeclaration(agent, env, p, v); err != nil {
			return err
		}
	}
	return nil
}

// bindParametersAndArguments implements the non-arrow half of
// FunctionDeclarationInstantiation: create an `arguments` object (mapped
// when every parameter is a simple identifier, per spec.md §4.2's
// mapped-arguments rule), bind it, then bind the formal parameters.
func bindParametersAndArguments(agent *runtime.Agent, env *runtime.FunctionEnvironment, fd *functionData, args []runtime.Value, isConstruct bool) *errors.LanguageError {
	simple := isSimpleParameterList(fd.params)
	var mappedBindings []*argBinding
	if simple {
		for i, p := range fd.params {
			if id, ok := p.(*ast.Identifier); ok && i < len(args) {
				mappedBindings = append(mappedBindings, &argBinding{name: id.Name})
			} else {
				mappedBindings = append(mappedBindings, nil)
			}
		}
	}
	var proto *runtime.Object
	if fd.closure != nil {
		proto = currentRealmObjectPrototype(agent)
	}
	argsObj := runtime.NewArgumentsObject(args, toRuntimeArgMap(env.DeclarativeEnvironment, mappedBindings), proto)
	_ = env.CreateMutableBinding("arguments", false)
	_ = env.InitializeBinding("arguments", argsObj)
	return bindParameters(agent, env, fd.params, args)
}

// argBinding names which function-scope variable a mapped arguments index
// mirrors; toRuntimeArgMap resolves it against env once the environment
// is known (runtime.NewArgumentsObject wants the resolved form).
type argBinding struct{ name string }

func toRuntimeArgMap(env *runtime.DeclarativeEnvironment, bindings []*argBinding) []*runtime.ArgumentBinding {
	if bindings == nil {
		return nil
	}
	out := make([]*runtime.ArgumentBinding, len(bindings))
	for i, b := range bindings {
		if b == nil {
			continue
		}
		out[i] = runtime.NewArgumentBinding(env, b.name)
	}
	return out
}

func isSimpleParameterList(params []ast.Expression) bool {
	for _, p := range params {
		if _, ok := p.(*ast.Identifier); !ok {
			return false
		}
	}
	return true
}

func currentRealmObjectPrototype(agent *runtime.Agent) *runtime.Object {
	ctx := agent.Stack.Current()
	if ctx == nil || ctx.Realm == nil {
		return nil
	}
	return ctx.Realm.Intrinsics["%Object.prototype%"]
}

// bindDeclaration creates (or reuses an already-hoisted) binding for
// target in env and initializes it to value, recursing through
// destructuring patterns. Used for parameters, `var`/`let`/`const`
// declarators, and catch-clause parameters alike.
func bindDeclaration(agent *runtime.Agent, env runtime.Environment, target ast.Expression, value runtime.Value) *errors.LanguageError {
	switch t := target.(type) {
	case *ast.Identifier:
		if !env.HasBinding(t.Name) {
			if err := env.CreateMutableBinding(t.Name, true); err != nil {
				return err
			}
		}
		return env.InitializeBinding(t.Name, value)

	case *ast.AssignmentPattern:
		v := value
		if runtime.TypeOf(value) == "undefined" {
			ev, err := EvalExpression(agent, env, t.Right)
			if err != nil {
				return err
			}
			v = ev
		}
		return bindDeclaration(agent, env, t.Left, v)

	case *ast.ArrayPattern:
		return bindArrayPattern(agent, env, t, value)

	case *ast.ObjectPattern:
		return bindObjectPattern(agent, env, t, value)

	case *ast.RestElement:
		return bindDeclaration(agent, env, t.Argument, value)

	default:
		return errors.NewSyntax("invalid binding target")
	}
}

// nextIterValue advances it by one step, reporting (value, hasValue,
// err). hasValue is false once the iterator has reported done, from
// which point on it stays false for every further call — so a caller
// stepping through more pattern elements than the iterable had simply
// keeps getting the "exhausted" signal rather than re-invoking `next`.
func nextIterValue(agent *runtime.Agent, it *runtime.IteratorRecord) (runtime.Value, bool, *errors.LanguageError) {
	if it.Done {
		return runtime.Undefined, false, nil
	}
	res, more, err := runtime.IteratorStep(agent, it)
	if err != nil {
		return nil, false, err
	}
	if !more {
		return runtime.Undefined, false, nil
	}
	v, err := runtime.IteratorValue(agent, res)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func bindArrayPattern(agent *runtime.Agent, env runtime.Environment, pattern *ast.ArrayPattern, value runtime.Value) *errors.LanguageError {
	iterRec, err := runtime.GetIterator(agent, value, false)
	if err != nil {
		return err
	}
	for _, el := range pattern.Elements {
		if rest, ok := el.(*ast.RestElement); ok {
			var tail []runtime.Value
			for {
				v, has, err := nextIterValue(agent, iterRec)
				if err != nil {
					return err
				}
				if !has {
					break
				}
				tail = append(tail, v)
			}
			arr := newArrayFromSlice(agent, tail)
			if err := bindDeclaration(agent, env, rest.Argument, arr); err != nil {
				return err
			}
			continue
		}
		v, _, err := nextIterValue(agent, iterRec)
		if err != nil {
			return err
		}
		if el == nil {
			continue // elision
		}
		if err := bindDeclaration(agent, env, el, v); err != nil {
			if !iterRec.Done {
				_ = runtime.IteratorClose(agent, iterRec, nil)
			}
			return err
		}
	}
	if !iterRec.Done {
		return runtime.IteratorClose(agent, iterRec, nil)
	}
	return nil
}

func bindObjectPattern(agent *runtime.Agent, env runtime.Environment, pattern *ast.ObjectPattern, value runtime.Value) *errors.LanguageError {
	obj, err := runtime.ToObject(agent, value, currentRealm(agent))
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, p := range pattern.Properties {
		if rest, ok := p.(*ast.RestElement); ok {
			restObj := runtime.NewOrdinaryObject(currentRealmObjectPrototype(agent))
			keys := obj.OwnPropertyKeys()
			if trapErr := runtime.ProxyTrapError(obj); trapErr != nil {
				return trapErr
			}
			for _, k := range keys {
				ks, ok := k.(runtime.String)
				if !ok || seen[string(ks)] {
					continue
				}
				d := obj.GetOwnProperty(k)
				if trapErr := runtime.ProxyTrapError(obj); trapErr != nil {
					return trapErr
				}
				if d == nil || !d.IsEnumerable() {
					continue
				}
				v, err := obj.Get(agent, k, obj)
				if err != nil {
					return err
				}
				restObj.DefineOwnProperty(k, runtime.DataProperty(v, true, true, true))
			}
			if err := bindDeclaration(agent, env, rest.Argument, restObj); err != nil {
				return err
			}
			continue
		}
		prop := p.(*ast.Property)
		key, err := propertyKeyOf(agent, env, prop)
		if err != nil {
			return err
		}
		seen[keyToMapKey(key)] = true
		v, err := obj.Get(agent, key, obj)
		if err != nil {
			return err
		}
		if err := bindDeclaration(agent, env, prop.Value, v); err != nil {
			return err
		}
	}
	return nil
}

func keyToMapKey(k runtime.Value) string {
	if s, ok := k.(runtime.String); ok {
		return string(s)
	}
	return k.DebugString()
}

func propertyKeyOf(agent *runtime.Agent, env runtime.Environment, prop *ast.Property) (runtime.Value, *errors.LanguageError) {
	if !prop.Computed {
		switch k := prop.Key.(type) {
		case *ast.Identifier:
			return runtime.String(k.Name), nil
		case *ast.Literal:
			return literalPropertyKey(k), nil
		}
	}
	kv, err := EvalExpression(agent, env, prop.Key)
	if err != nil {
		return nil, err
	}
	return runtime.ToPropertyKey(agent, kv)
}

func literalPropertyKey(l *ast.Literal) runtime.Value {
	switch l.Kind {
	case ast.LiteralString:
		return runtime.String(l.Str)
	case ast.LiteralNumber:
		return runtime.String(runtime.Number(l.Num).DebugString())
	default:
		return runtime.String(l.Raw)
	}
}

func newArrayFromSlice(agent *runtime.Agent, values []runtime.Value) *runtime.Object {
	var proto *runtime.Object
	if r := currentRealm(agent); r != nil {
		proto = r.Intrinsics["%Array.prototype%"]
	}
	arr := runtime.NewArrayObject(proto)
	for i, v := range values {
		arr.DefineOwnProperty(runtime.String(itoa(i)), runtime.DataProperty(v, true, true, true))
	}
	arr.DefineOwnProperty(runtime.String("length"), runtime.DataProperty(runtime.Number(float64(len(values))), true, false, false))
	return arr
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	p := len(buf)
	for i > 0 {
		p--
		buf[p] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		p--
		buf[p] = '-'
	}
	return string(buf[p:])
}

func currentRealm(agent *runtime.Agent) *runtime.Realm {
	ctx := agent.Stack.Current()
	if ctx == nil {
		return nil
	}
	return ctx.Realm
}

// assignToTarget implements the non-declaring destructuring-assignment
// path: write into an already-existing binding or property rather than
// creating a new one, for `[a, b] = arr` and plain identifier/member
// assignment targets (spec.md §4.5's DestructuringAssignmentEvaluation).
func assignToTarget(agent *runtime.Agent, env runtime.Environment, target ast.Expression, value runtime.Value) *errors.LanguageError {
	switch t := target.(type) {
	case *ast.Identifier:
		owner := runtime.ResolveBinding(env, t.Name)
		if owner == nil {
			return env.SetMutableBinding(t.Name, value, true)
		}
		return owner.SetMutableBinding(t.Name, value, true)

	case *ast.MemberExpression:
		objV, err := EvalExpression(agent, env, t.Object)
		if err != nil {
			return err
		}
		key, err := memberKey(agent, env, t)
		if err != nil {
			return err
		}
		obj, err := runtime.ToObject(agent, objV, currentRealm(agent))
		if err != nil {
			return err
		}
		_, err = obj.Set(agent, key, value, obj)
		return err

	case *ast.AssignmentPattern:
		v := value
		if runtime.TypeOf(value) == "undefined" {
			ev, err := EvalExpression(agent, env, t.Right)
			if err != nil {
				return err
			}
			v = ev
		}
		return assignToTarget(agent, env, t.Left, v)

	case *ast.ArrayPattern:
		return assignArrayPattern(agent, env, t, value)

	case *ast.ObjectPattern:
		return assignObjectPattern(agent, env, t, value)

	default:
		return errors.NewSyntax("invalid assignment target")
	}
}

func assignArrayPattern(agent *runtime.Agent, env runtime.Environment, pattern *ast.ArrayPattern, value runtime.Value) *errors.LanguageError {
	iterRec, err := runtime.GetIterator(agent, value, false)
	if err != nil {
		return err
	}
	for _, el := range pattern.Elements {
		if rest, ok := el.(*ast.RestElement); ok {
			var tail []runtime.Value
			for {
				v, has, err := nextIterValue(agent, iterRec)
				if err != nil {
					return err
				}
				if !has {
					break
				}
				tail = append(tail, v)
			}
			if err := assignToTarget(agent, env, rest.Argument, newArrayFromSlice(agent, tail)); err != nil {
				return err
			}
			continue
		}
		v, _, err := nextIterValue(agent, iterRec)
		if err != nil {
			return err
		}
		if el == nil {
			continue
		}
		if err := assignToTarget(agent, env, el, v); err != nil {
			return err
		}
	}
	if !iterRec.Done {
		return runtime.IteratorClose(agent, iterRec, nil)
	}
	return nil
}

func assignObjectPattern(agent *runtime.Agent, env runtime.Environment, pattern *ast.ObjectPattern, value runtime.Value) *errors.LanguageError {
	obj, err := runtime.ToObject(agent, value, currentRealm(agent))
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, p := range pattern.Properties {
		if rest, ok := p.(*ast.RestElement); ok {
			restObj := runtime.NewOrdinaryObject(currentRealmObjectPrototype(agent))
			keys := obj.OwnPropertyKeys()
			if trapErr := runtime.ProxyTrapError(obj); trapErr != nil {
				return trapErr
			}
			for _, k := range keys {
				ks, ok := k.(runtime.String)
				if !ok || seen[string(ks)] {
					continue
				}
				d := obj.GetOwnProperty(k)
				if trapErr := runtime.ProxyTrapError(obj); trapErr != nil {
					return trapErr
				}
				if d == nil || !d.IsEnumerable() {
					continue
				}
				v, err := obj.Get(agent, k, obj)
				if err != nil {
					return err
				}
				restObj.DefineOwnProperty(k, runtime.DataProperty(v, true, true, true))
			}
			if err := assignToTarget(agent, env, rest.Argument, restObj); err != nil {
				return err
			}
			continue
		}
		prop := p.(*ast.Property)
		key, err := propertyKeyOf(agent, env, prop)
		if err != nil {
			return err
		}
		seen[keyToMapKey(key)] = true
		v, err := obj.Get(agent, key, obj)
		if err != nil {
			return err
		}
		if err := assignToTarget(agent, env, prop.Value, v); err != nil {
			return err
		}
	}
	return nil
}

func memberKey(agent *runtime.Agent, env runtime.Environment, m *ast.MemberExpression) (runtime.Value, *errors.LanguageError) {
	if priv, ok := m.Property.(*ast.PrivateName); ok {
		return runtime.String("#" + priv.Name), nil
	}
	if !m.Computed {
		if id, ok := m.Property.(*ast.Identifier); ok {
			return runtime.String(id.Name), nil
		}
	}
	v, err := EvalExpression(agent, env, m.Property)
	if err != nil {
		return nil, err
	}
	return runtime.ToPropertyKey(agent, v)
}

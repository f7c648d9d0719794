package evaluator

import (
	"math"
	"math/big"
	"strings"

	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/generator"
	"github.com/escore/escore/internal/runtime"
	"github.com/escore/escore/pkg/ast"
)

// EvalExpression dispatches on expr's concrete type, implementing the
// value-producing half of spec.md §4.5's syntax-directed evaluation (the
// statement half lives in statements.go). Every case either returns a
// runtime.Value or a *errors.LanguageError describing a thrown/host
// exception; there is no third "abrupt completion" channel here, since
// only a handful of expression kinds (yield/await, short-circuiting
// logical/optional-chain operators) need anything beyond ordinary
// left-to-right evaluation, and those are handled locally.
func EvalExpression(agent *runtime.Agent, env runtime.Environment, expr ast.Expression) (runtime.Value, *errors.LanguageError) {
	switch e := expr.(type) {
	case *ast.Literal:
		return evalLiteral(agent, e)

	case *ast.Identifier:
		return resolveIdentifier(env, e.Name)

	case *ast.PrivateName:
		return nil, errors.NewSyntax("unexpected private name '#%s'", e.Name)

	case *ast.ThisExpression:
		return runtime.GetThisBinding(env)

	case *ast.Super:
		return nil, errors.NewSyntax("'super' keyword is only valid inside a class")

	case *ast.ArrayExpression:
		return evalArrayExpression(agent, env, e)

	case *ast.ObjectExpression:
		return evalObjectExpression(agent, env, e)

	case *ast.FunctionExpression:
		return evalFunctionExpression(agent, env, e)

	case *ast.ArrowFunctionExpression:
		return makeFunctionObject(e.Params, e.Body, e.ExpressionBody, "", kindArrow, env, currentRealm(agent)), nil

	case *ast.ClassExpression:
		return evalClassExpression(agent, env, e)

	case *ast.UnaryExpression:
		return evalUnary(agent, env, e)

	case *ast.UpdateExpression:
		return evalUpdate(agent, env, e)

	case *ast.BinaryExpression:
		return evalBinary(agent, env, e)

	case *ast.LogicalExpression:
		return evalLogical(agent, env, e)

	case *ast.AssignmentExpression:
		return evalAssignment(agent, env, e)

	case *ast.ConditionalExpression:
		t, err := EvalExpression(agent, env, e.Test)
		if err != nil {
			return nil, err
		}
		if runtime.ToBoolean(t) {
			return EvalExpression(agent, env, e.Consequent)
		}
		return EvalExpression(agent, env, e.Alternate)

	case *ast.CallExpression:
		return evalCall(agent, env, e)

	case *ast.NewExpression:
		return evalNew(agent, env, e)

	case *ast.SequenceExpression:
		var v runtime.Value = runtime.Undefined
		for _, sub := range e.Expressions {
			vv, err := EvalExpression(agent, env, sub)
			if err != nil {
				return nil, err
			}
			v = vv
		}
		return v, nil

	case *ast.MemberExpression:
		return evalMember(agent, env, e)

	case *ast.SpreadElement:
		return nil, errors.NewSyntax("unexpected spread element outside array/call context")

	case *ast.TemplateLiteral:
		return evalTemplateLiteral(agent, env, e)

	case *ast.TaggedTemplateExpression:
		return evalTaggedTemplate(agent, env, e)

	case *ast.YieldExpression:
		return evalYield(agent, env, e)

	case *ast.AwaitExpression:
		return evalAwait(agent, env, e)

	default:
		return nil, errors.NewSyntax("unsupported expression node %T", expr)
	}
}

func isNullish(v runtime.Value) bool {
	return v == runtime.Undefined || v == runtime.Null
}

func resolveIdentifier(env runtime.Environment, name string) (runtime.Value, *errors.LanguageError) {
	owner := runtime.ResolveBinding(env, name)
	if owner == nil {
		return nil, errors.NewReference("%s is not defined", name)
	}
	v, ok := owner.GetBindingValue(name)
	if !ok {
		return nil, errors.NewReference("Cannot access '%s' before initialization", name)
	}
	return v, nil
}

func evalLiteral(agent *runtime.Agent, l *ast.Literal) (runtime.Value, *errors.LanguageError) {
	switch l.Kind {
	case ast.LiteralNull:
		return runtime.Null, nil
	case ast.LiteralBoolean:
		return runtime.Boolean(l.Bool), nil
	case ast.LiteralString:
		return runtime.String(l.Str), nil
	case ast.LiteralNumber:
		return runtime.Number(l.Num), nil
	case ast.LiteralBigInt:
		return runtime.NewBigInt(l.Big), nil
	case ast.LiteralRegExp:
		return evalRegExpLiteral(agent, l)
	default:
		return runtime.Undefined, nil
	}
}

// evalRegExpLiteral builds a RegExp instance through the realm's
// %RegExp% constructor when one has been installed by the regexp
// plugin; otherwise it falls back to a plain object carrying the
// pattern's source/flags, since the core evaluator has no pattern
// matching engine of its own (spec.md's host-contract treatment of
// regular expressions).
func evalRegExpLiteral(agent *runtime.Agent, l *ast.Literal) (runtime.Value, *errors.LanguageError) {
	realm := currentRealm(agent)
	if realm != nil {
		if ctor, ok := realm.Intrinsics["%RegExp%"]; ok && ctor.IsConstructor() {
			return ctor.Construct(agent, nil, ctor, []runtime.Value{runtime.String(l.Raw), runtime.String(l.Flags)})
		}
	}
	obj := runtime.NewOrdinaryObject(currentRealmObjectPrototype(agent))
	obj.Class = "RegExp"
	obj.DefineOwnProperty(runtime.String("source"), runtime.DataProperty(runtime.String(l.Raw), false, false, false))
	obj.DefineOwnProperty(runtime.String("flags"), runtime.DataProperty(runtime.String(l.Flags), false, false, false))
	return obj, nil
}

func evalArrayExpression(agent *runtime.Agent, env runtime.Environment, ae *ast.ArrayExpression) (runtime.Value, *errors.LanguageError) {
	var proto *runtime.Object
	if r := currentRealm(agent); r != nil {
		proto = r.Intrinsics["%Array.prototype%"]
	}
	arr := runtime.NewArrayObject(proto)
	idx := 0
	for _, el := range ae.Elements {
		if el == nil {
			idx++
			continue
		}
		if spread, ok := el.(*ast.SpreadElement); ok {
			vals, err := spreadToSlice(agent, env, spread)
			if err != nil {
				return nil, err
			}
			for _, vv := range vals {
				arr.DefineOwnProperty(runtime.String(itoa(idx)), runtime.DataProperty(vv, true, true, true))
				idx++
			}
			continue
		}
		v, err := EvalExpression(agent, env, el)
		if err != nil {
			return nil, err
		}
		arr.DefineOwnProperty(runtime.String(itoa(idx)), runtime.DataProperty(v, true, true, true))
		idx++
	}
	return arr, nil
}

func spreadToSlice(agent *runtime.Agent, env runtime.Environment, spread *ast.SpreadElement) ([]runtime.Value, *errors.LanguageError) {
	v, err := EvalExpression(agent, env, spread.Argument)
	if err != nil {
		return nil, err
	}
	it, err := runtime.GetIterator(agent, v, false)
	if err != nil {
		return nil, err
	}
	return runtime.IteratorToSlice(agent, it)
}

func evalObjectExpression(agent *runtime.Agent, env runtime.Environment, oe *ast.ObjectExpression) (runtime.Value, *errors.LanguageError) {
	obj := runtime.NewOrdinaryObject(currentRealmObjectPrototype(agent))
	for _, p := range oe.Properties {
		switch prop := p.(type) {
		case *ast.SpreadElement:
			v, err := EvalExpression(agent, env, prop.Argument)
			if err != nil {
				return nil, err
			}
			vo, ok := v.(*runtime.Object)
			if !ok {
				continue // spreading a primitive contributes no own properties
			}
			keys := vo.OwnPropertyKeys()
			if trapErr := runtime.ProxyTrapError(vo); trapErr != nil {
				return nil, trapErr
			}
			for _, k := range keys {
				d := vo.GetOwnProperty(k)
				if trapErr := runtime.ProxyTrapError(vo); trapErr != nil {
					return nil, trapErr
				}
				if d == nil || !d.IsEnumerable() {
					continue
				}
				val, err := vo.Get(agent, k, vo)
				if err != nil {
					return nil, err
				}
				obj.DefineOwnProperty(k, runtime.DataProperty(val, true, true, true))
			}

		case *ast.Property:
			key, err := propertyKeyOf(agent, env, prop)
			if err != nil {
				return nil, err
			}
			switch prop.Kind {
			case "get", "set":
				fnExpr, ok := prop.Value.(*ast.FunctionExpression)
				if !ok {
					return nil, errors.NewSyntax("invalid accessor definition")
				}
				accName := prop.Kind + " " + keyToMapKey(key)
				fn := makeFunctionObject(fnExpr.Params, fnExpr.Body, nil, accName, kindNormal, env, currentRealm(agent))
				existing := obj.GetOwnProperty(key)
				var getObj, setObj *runtime.Object
				if existing != nil && existing.IsAccessorDescriptor() {
					getObj, setObj = existing.Get, existing.Set
				}
				if prop.Kind == "get" {
					getObj = fn
				} else {
					setObj = fn
				}
				obj.DefineOwnProperty(key, runtime.AccessorProperty(getObj, setObj, true, true))
			default:
				v, err := EvalExpression(agent, env, prop.Value)
				if err != nil {
					return nil, err
				}
				if id, ok := prop.Key.(*ast.Identifier); ok && !prop.Computed {
					nameFunctionValue(v, id.Name)
				}
				obj.DefineOwnProperty(key, runtime.DataProperty(v, true, true, true))
			}
		}
	}
	return obj, nil
}

func evalFunctionExpression(agent *runtime.Agent, env runtime.Environment, fe *ast.FunctionExpression) (runtime.Value, *errors.LanguageError) {
	realm := currentRealm(agent)
	kind := funcKindFor(fe.Generator, fe.Async)
	if fe.ID == nil {
		return makeFunctionObject(fe.Params, fe.Body, nil, "", kind, env, realm), nil
	}
	// A named function expression's name is bound inside its own closure
	// only (spec.md §4.4), letting the function refer to itself by name
	// without that name leaking into the surrounding scope.
	nameEnv := runtime.NewDeclarativeEnvironment(env)
	_ = nameEnv.CreateImmutableBinding(fe.ID.Name, false)
	fn := makeFunctionObject(fe.Params, fe.Body, nil, fe.ID.Name, kind, nameEnv, realm)
	_ = nameEnv.InitializeBinding(fe.ID.Name, fn)
	return fn, nil
}

// evalUnary implements the prefix unary operators. typeof on an
// unresolvable identifier returns "undefined" rather than throwing
// (spec.md's one exception to "referencing an undeclared name is a
// ReferenceError").
func evalUnary(agent *runtime.Agent, env runtime.Environment, u *ast.UnaryExpression) (runtime.Value, *errors.LanguageError) {
	switch u.Operator {
	case "typeof":
		if id, ok := u.Argument.(*ast.Identifier); ok {
			owner := runtime.ResolveBinding(env, id.Name)
			if owner == nil {
				return runtime.String("undefined"), nil
			}
			v, ok := owner.GetBindingValue(id.Name)
			if !ok {
				return nil, errors.NewReference("Cannot access '%s' before initialization", id.Name)
			}
			return runtime.String(runtime.TypeOf(v)), nil
		}
		v, err := EvalExpression(agent, env, u.Argument)
		if err != nil {
			return nil, err
		}
		return runtime.String(runtime.TypeOf(v)), nil

	case "void":
		if _, err := EvalExpression(agent, env, u.Argument); err != nil {
			return nil, err
		}
		return runtime.Undefined, nil

	case "delete":
		return evalDelete(agent, env, u.Argument)
	}

	v, err := EvalExpression(agent, env, u.Argument)
	if err != nil {
		return nil, err
	}
	switch u.Operator {
	case "!":
		return runtime.Boolean(!runtime.ToBoolean(v)), nil
	case "-":
		if bi, ok := v.(*runtime.BigInt); ok {
			return runtime.NewBigInt(new(big.Int).Neg(bi.Int)), nil
		}
		n, err := runtime.ToNumber(agent, v)
		if err != nil {
			return nil, err
		}
		return -n, nil
	case "+":
		n, err := runtime.ToNumber(agent, v)
		if err != nil {
			return nil, err
		}
		return n, nil
	case "~":
		if bi, ok := v.(*runtime.BigInt); ok {
			return runtime.NewBigInt(new(big.Int).Not(bi.Int)), nil
		}
		i32, err := runtime.ToInt32(agent, v)
		if err != nil {
			return nil, err
		}
		return runtime.Number(float64(^i32)), nil
	}
	return nil, errors.NewSyntax("unsupported unary operator %q", u.Operator)
}

func evalDelete(agent *runtime.Agent, env runtime.Environment, arg ast.Expression) (runtime.Value, *errors.LanguageError) {
	switch t := arg.(type) {
	case *ast.MemberExpression:
		objV, err := EvalExpression(agent, env, t.Object)
		if err != nil {
			return nil, err
		}
		key, err := memberKey(agent, env, t)
		if err != nil {
			return nil, err
		}
		obj, err := runtime.ToObject(agent, objV, currentRealm(agent))
		if err != nil {
			return nil, err
		}
		deleted := obj.Delete(key)
		if trapErr := runtime.ProxyTrapError(obj); trapErr != nil {
			return nil, trapErr
		}
		return runtime.Boolean(deleted), nil
	case *ast.Identifier:
		owner := runtime.ResolveBinding(env, t.Name)
		if owner == nil {
			return runtime.Boolean(true), nil
		}
		return runtime.Boolean(owner.DeleteBinding(t.Name)), nil
	default:
		if _, err := EvalExpression(agent, env, arg); err != nil {
			return nil, err
		}
		return runtime.Boolean(true), nil
	}
}

func evalUpdate(agent *runtime.Agent, env runtime.Environment, u *ast.UpdateExpression) (runtime.Value, *errors.LanguageError) {
	old, err := EvalExpression(agent, env, u.Argument)
	if err != nil {
		return nil, err
	}
	if bi, ok := old.(*runtime.BigInt); ok {
		one := big.NewInt(1)
		var n *big.Int
		if u.Operator == "++" {
			n = new(big.Int).Add(bi.Int, one)
		} else {
			n = new(big.Int).Sub(bi.Int, one)
		}
		nv := runtime.NewBigInt(n)
		if err := assignToTarget(agent, env, u.Argument, nv); err != nil {
			return nil, err
		}
		if u.Prefix {
			return nv, nil
		}
		return bi, nil
	}
	n, err := runtime.ToNumber(agent, old)
	if err != nil {
		return nil, err
	}
	var nv runtime.Number
	if u.Operator == "++" {
		nv = n + 1
	} else {
		nv = n - 1
	}
	if err := assignToTarget(agent, env, u.Argument, nv); err != nil {
		return nil, err
	}
	if u.Prefix {
		return nv, nil
	}
	return n, nil
}

func evalBinary(agent *runtime.Agent, env runtime.Environment, b *ast.BinaryExpression) (runtime.Value, *errors.LanguageError) {
	if b.Operator == "in" {
		if priv, ok := b.Left.(*ast.PrivateName); ok {
			rightV, err := EvalExpression(agent, env, b.Right)
			if err != nil {
				return nil, err
			}
			robj, ok := rightV.(*runtime.Object)
			if !ok {
				return nil, errors.NewType("Cannot use 'in' operator to search for '#%s' in a non-object", priv.Name)
			}
			has := robj.HasProperty(runtime.String("#" + priv.Name))
			if trapErr := runtime.ProxyTrapError(robj); trapErr != nil {
				return nil, trapErr
			}
			return runtime.Boolean(has), nil
		}
		leftV, err := EvalExpression(agent, env, b.Left)
		if err != nil {
			return nil, err
		}
		rightV, err := EvalExpression(agent, env, b.Right)
		if err != nil {
			return nil, err
		}
		robj, ok := rightV.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("Cannot use 'in' operator to search in a non-object")
		}
		key, err := runtime.ToPropertyKey(agent, leftV)
		if err != nil {
			return nil, err
		}
		has := robj.HasProperty(key)
		if trapErr := runtime.ProxyTrapError(robj); trapErr != nil {
			return nil, trapErr
		}
		return runtime.Boolean(has), nil
	}
	if b.Operator == "instanceof" {
		leftV, err := EvalExpression(agent, env, b.Left)
		if err != nil {
			return nil, err
		}
		rightV, err := EvalExpression(agent, env, b.Right)
		if err != nil {
			return nil, err
		}
		ok, err := instanceOf(agent, leftV, rightV)
		if err != nil {
			return nil, err
		}
		return runtime.Boolean(ok), nil
	}
	leftV, err := EvalExpression(agent, env, b.Left)
	if err != nil {
		return nil, err
	}
	rightV, err := EvalExpression(agent, env, b.Right)
	if err != nil {
		return nil, err
	}
	return applyBinaryOp(agent, b.Operator, leftV, rightV)
}

func instanceOf(agent *runtime.Agent, obj, ctor runtime.Value) (bool, *errors.LanguageError) {
	ctorObj, ok := ctor.(*runtime.Object)
	if !ok || !ctorObj.IsCallable() {
		return false, errors.NewType("Right-hand side of 'instanceof' is not callable")
	}
	target := ctorObj
	if ctorObj.BoundTarget != nil {
		target = ctorObj.BoundTarget
	}
	protoV, err := target.Get(agent, runtime.String("prototype"), target)
	if err != nil {
		return false, err
	}
	proto, ok := protoV.(*runtime.Object)
	if !ok {
		return false, errors.NewType("Function has non-object prototype property")
	}
	o, ok := obj.(*runtime.Object)
	if !ok {
		return false, nil
	}
	for p := o.GetPrototypeOf(); p != nil; p = p.GetPrototypeOf() {
		if p == proto {
			return true, nil
		}
	}
	return false, nil
}

// applyBinaryOp implements the arithmetic/bitwise/relational/equality
// operators shared between BinaryExpression and compound-assignment
// evaluation (spec.md's abstract operations for `+`, ApplyStringOrNumeric,
// etc.), dispatching to BigInt arithmetic when both operands are BigInt.
func applyBinaryOp(agent *runtime.Agent, op string, l, r runtime.Value) (runtime.Value, *errors.LanguageError) {
	switch op {
	case "+":
		lp, err := runtime.ToPrimitive(agent, l, "default")
		if err != nil {
			return nil, err
		}
		rp, err := runtime.ToPrimitive(agent, r, "default")
		if err != nil {
			return nil, err
		}
		if _, ok := lp.(runtime.String); ok {
			return concatString(agent, lp, rp)
		}
		if _, ok := rp.(runtime.String); ok {
			return concatString(agent, lp, rp)
		}
		if lb, ok := lp.(*runtime.BigInt); ok {
			rb, ok2 := rp.(*runtime.BigInt)
			if !ok2 {
				return nil, errors.NewType("Cannot mix BigInt and other types, use explicit conversions")
			}
			return runtime.NewBigInt(new(big.Int).Add(lb.Int, rb.Int)), nil
		}
		ln, err := runtime.ToNumber(agent, lp)
		if err != nil {
			return nil, err
		}
		rn, err := runtime.ToNumber(agent, rp)
		if err != nil {
			return nil, err
		}
		return ln + rn, nil
	case "-", "*", "/", "%", "**":
		return numericOp(agent, op, l, r)
	case "&", "|", "^", "<<", ">>":
		return intOp(agent, op, l, r)
	case ">>>":
		lu, err := runtime.ToUint32(agent, l)
		if err != nil {
			return nil, err
		}
		ru, err := runtime.ToUint32(agent, r)
		if err != nil {
			return nil, err
		}
		return runtime.Number(float64(lu >> (ru & 31))), nil
	case "<", ">", "<=", ">=":
		return relationalOp(agent, op, l, r)
	case "==":
		eq, err := runtime.LooseEquals(agent, l, r)
		return runtime.Boolean(eq), err
	case "!=":
		eq, err := runtime.LooseEquals(agent, l, r)
		return runtime.Boolean(!eq), err
	case "===":
		return runtime.Boolean(runtime.StrictEquals(l, r)), nil
	case "!==":
		return runtime.Boolean(!runtime.StrictEquals(l, r)), nil
	}
	return nil, errors.NewSyntax("unsupported binary operator %q", op)
}

func concatString(agent *runtime.Agent, lp, rp runtime.Value) (runtime.Value, *errors.LanguageError) {
	ls, err := runtime.ToStringValue(agent, lp)
	if err != nil {
		return nil, err
	}
	rs, err := runtime.ToStringValue(agent, rp)
	if err != nil {
		return nil, err
	}
	return ls + rs, nil
}

func numericOp(agent *runtime.Agent, op string, l, r runtime.Value) (runtime.Value, *errors.LanguageError) {
	lb, lIsBig := l.(*runtime.BigInt)
	rb, rIsBig := r.(*runtime.BigInt)
	if lIsBig || rIsBig {
		if !lIsBig || !rIsBig {
			return nil, errors.NewType("Cannot mix BigInt and other types, use explicit conversions")
		}
		return bigIntOp(op, lb, rb)
	}
	ln, err := runtime.ToNumber(agent, l)
	if err != nil {
		return nil, err
	}
	rn, err := runtime.ToNumber(agent, r)
	if err != nil {
		return nil, err
	}
	switch op {
	case "-":
		return ln - rn, nil
	case "*":
		return ln * rn, nil
	case "/":
		return runtime.Number(float64(ln) / float64(rn)), nil
	case "%":
		return runtime.Number(math.Mod(float64(ln), float64(rn))), nil
	case "**":
		return runtime.Number(math.Pow(float64(ln), float64(rn))), nil
	}
	return nil, errors.NewSyntax("unsupported numeric operator %q", op)
}

func bigIntOp(op string, l, r *runtime.BigInt) (runtime.Value, *errors.LanguageError) {
	switch op {
	case "-":
		return runtime.NewBigInt(new(big.Int).Sub(l.Int, r.Int)), nil
	case "*":
		return runtime.NewBigInt(new(big.Int).Mul(l.Int, r.Int)), nil
	case "/":
		if r.Int.Sign() == 0 {
			return nil, errors.NewRange("Division by zero")
		}
		return runtime.NewBigInt(new(big.Int).Quo(l.Int, r.Int)), nil
	case "%":
		if r.Int.Sign() == 0 {
			return nil, errors.NewRange("Division by zero")
		}
		return runtime.NewBigInt(new(big.Int).Rem(l.Int, r.Int)), nil
	case "**":
		if r.Int.Sign() < 0 {
			return nil, errors.NewRange("Exponent must be non-negative")
		}
		return runtime.NewBigInt(new(big.Int).Exp(l.Int, r.Int, nil)), nil
	}
	return nil, errors.NewSyntax("unsupported bigint operator %q", op)
}

func intOp(agent *runtime.Agent, op string, l, r runtime.Value) (runtime.Value, *errors.LanguageError) {
	if lb, ok := l.(*runtime.BigInt); ok {
		rb, ok2 := r.(*runtime.BigInt)
		if !ok2 {
			return nil, errors.NewType("Cannot mix BigInt and other types, use explicit conversions")
		}
		switch op {
		case "&":
			return runtime.NewBigInt(new(big.Int).And(lb.Int, rb.Int)), nil
		case "|":
			return runtime.NewBigInt(new(big.Int).Or(lb.Int, rb.Int)), nil
		case "^":
			return runtime.NewBigInt(new(big.Int).Xor(lb.Int, rb.Int)), nil
		case "<<":
			return runtime.NewBigInt(new(big.Int).Lsh(lb.Int, uint(rb.Int.Int64()))), nil
		case ">>":
			return runtime.NewBigInt(new(big.Int).Rsh(lb.Int, uint(rb.Int.Int64()))), nil
		}
	}
	li, err := runtime.ToInt32(agent, l)
	if err != nil {
		return nil, err
	}
	ri, err := runtime.ToUint32(agent, r)
	if err != nil {
		return nil, err
	}
	switch op {
	case "&":
		return runtime.Number(float64(li & int32(ri))), nil
	case "|":
		return runtime.Number(float64(li | int32(ri))), nil
	case "^":
		return runtime.Number(float64(li ^ int32(ri))), nil
	case "<<":
		return runtime.Number(float64(li << (ri & 31))), nil
	case ">>":
		return runtime.Number(float64(li >> (ri & 31))), nil
	}
	return nil, errors.NewSyntax("unsupported integer operator %q", op)
}

// relationalOp follows spec.md's IsLessThan-based definitions for the
// four relational operators, including the NaN-produces-false rule
// IsLessThan's isUndefined result captures.
func relationalOp(agent *runtime.Agent, op string, l, r runtime.Value) (runtime.Value, *errors.LanguageError) {
	switch op {
	case "<":
		res, isUndef, err := runtime.IsLessThan(agent, l, r, true)
		if err != nil {
			return nil, err
		}
		return runtime.Boolean(!isUndef && res), nil
	case ">":
		res, isUndef, err := runtime.IsLessThan(agent, r, l, false)
		if err != nil {
			return nil, err
		}
		return runtime.Boolean(!isUndef && res), nil
	case "<=":
		res, isUndef, err := runtime.IsLessThan(agent, r, l, false)
		if err != nil {
			return nil, err
		}
		if isUndef {
			return runtime.Boolean(false), nil
		}
		return runtime.Boolean(!res), nil
	case ">=":
		res, isUndef, err := runtime.IsLessThan(agent, l, r, true)
		if err != nil {
			return nil, err
		}
		if isUndef {
			return runtime.Boolean(false), nil
		}
		return runtime.Boolean(!res), nil
	}
	return nil, errors.NewSyntax("unsupported relational operator %q", op)
}

func evalLogical(agent *runtime.Agent, env runtime.Environment, e *ast.LogicalExpression) (runtime.Value, *errors.LanguageError) {
	l, err := EvalExpression(agent, env, e.Left)
	if err != nil {
		return nil, err
	}
	switch e.Operator {
	case "&&":
		if !runtime.ToBoolean(l) {
			return l, nil
		}
		return EvalExpression(agent, env, e.Right)
	case "||":
		if runtime.ToBoolean(l) {
			return l, nil
		}
		return EvalExpression(agent, env, e.Right)
	case "??":
		if !isNullish(l) {
			return l, nil
		}
		return EvalExpression(agent, env, e.Right)
	}
	return nil, errors.NewSyntax("unsupported logical operator %q", e.Operator)
}

func evalAssignment(agent *runtime.Agent, env runtime.Environment, e *ast.AssignmentExpression) (runtime.Value, *errors.LanguageError) {
	if e.Operator == "=" {
		rv, err := EvalExpression(agent, env, e.Right)
		if err != nil {
			return nil, err
		}
		if id, ok := e.Left.(*ast.Identifier); ok {
			nameFunctionValue(rv, id.Name)
		}
		if err := assignToTarget(agent, env, e.Left, rv); err != nil {
			return nil, err
		}
		return rv, nil
	}
	if e.Operator == "&&=" || e.Operator == "||=" || e.Operator == "??=" {
		return evalLogicalAssignment(agent, env, e)
	}
	baseOp := e.Operator[:len(e.Operator)-1]
	switch target := e.Left.(type) {
	case *ast.Identifier:
		owner := runtime.ResolveBinding(env, target.Name)
		if owner == nil {
			return nil, errors.NewReference("%s is not defined", target.Name)
		}
		old, ok := owner.GetBindingValue(target.Name)
		if !ok {
			return nil, errors.NewReference("Cannot access '%s' before initialization", target.Name)
		}
		rv, err := EvalExpression(agent, env, e.Right)
		if err != nil {
			return nil, err
		}
		result, err := applyBinaryOp(agent, baseOp, old, rv)
		if err != nil {
			return nil, err
		}
		if err := owner.SetMutableBinding(target.Name, result, true); err != nil {
			return nil, err
		}
		return result, nil

	case *ast.MemberExpression:
		objV, err := EvalExpression(agent, env, target.Object)
		if err != nil {
			return nil, err
		}
		key, err := memberKey(agent, env, target)
		if err != nil {
			return nil, err
		}
		obj, err := runtime.ToObject(agent, objV, currentRealm(agent))
		if err != nil {
			return nil, err
		}
		old, err := obj.Get(agent, key, objV)
		if err != nil {
			return nil, err
		}
		rv, err := EvalExpression(agent, env, e.Right)
		if err != nil {
			return nil, err
		}
		result, err := applyBinaryOp(agent, baseOp, old, rv)
		if err != nil {
			return nil, err
		}
		if _, err := obj.Set(agent, key, result, objV); err != nil {
			return nil, err
		}
		return result, nil

	default:
		return nil, errors.NewSyntax("invalid assignment target")
	}
}

// evalLogicalAssignment implements &&=/||=/??=: the right-hand side is
// only evaluated, and the assignment only performed, when the
// short-circuit condition passes. Re-reads Left as a plain expression
// first; for a MemberExpression target this evaluates Object twice, a
// known simplification over the single-evaluation the full spec
// algorithm guarantees.
func evalLogicalAssignment(agent *runtime.Agent, env runtime.Environment, e *ast.AssignmentExpression) (runtime.Value, *errors.LanguageError) {
	switch e.Left.(type) {
	case *ast.Identifier, *ast.MemberExpression:
		old, err := EvalExpression(agent, env, e.Left)
		if err != nil {
			return nil, err
		}
		var proceed bool
		switch e.Operator {
		case "&&=":
			proceed = runtime.ToBoolean(old)
		case "||=":
			proceed = !runtime.ToBoolean(old)
		case "??=":
			proceed = isNullish(old)
		}
		if !proceed {
			return old, nil
		}
		rv, err := EvalExpression(agent, env, e.Right)
		if err != nil {
			return nil, err
		}
		if err := assignToTarget(agent, env, e.Left, rv); err != nil {
			return nil, err
		}
		return rv, nil
	default:
		return nil, errors.NewSyntax("invalid assignment target")
	}
}

// evalCall implements CallExpression, including the simplified optional-
// chaining rule: an optional callee/member access short-circuits only
// its own immediate node to `undefined` rather than the entire remaining
// chain, a documented narrowing of the full per-spec short-circuit
// (see DESIGN.md).
func evalCall(agent *runtime.Agent, env runtime.Environment, c *ast.CallExpression) (runtime.Value, *errors.LanguageError) {
	if _, ok := c.Callee.(*ast.Super); ok {
		args, err := evalArguments(agent, env, c.Arguments)
		if err != nil {
			return nil, err
		}
		return evalSuperCall(agent, env, args)
	}

	var thisArg runtime.Value = runtime.Undefined
	var calleeV runtime.Value

	if me, ok := c.Callee.(*ast.MemberExpression); ok {
		if _, isSuper := me.Object.(*ast.Super); isSuper {
			v, err := evalSuperProperty(agent, env, me)
			if err != nil {
				return nil, err
			}
			tv, err := runtime.GetThisBinding(env)
			if err != nil {
				return nil, err
			}
			calleeV, thisArg = v, tv
		} else {
			objV, err := EvalExpression(agent, env, me.Object)
			if err != nil {
				return nil, err
			}
			if me.Optional && isNullish(objV) {
				return runtime.Undefined, nil
			}
			key, err := memberKey(agent, env, me)
			if err != nil {
				return nil, err
			}
			obj, err := runtime.ToObject(agent, objV, currentRealm(agent))
			if err != nil {
				return nil, err
			}
			v, err := obj.Get(agent, key, objV)
			if err != nil {
				return nil, err
			}
			calleeV, thisArg = v, objV
		}
	} else {
		v, err := EvalExpression(agent, env, c.Callee)
		if err != nil {
			return nil, err
		}
		calleeV = v
	}

	if c.Optional && isNullish(calleeV) {
		return runtime.Undefined, nil
	}
	fn, ok := calleeV.(*runtime.Object)
	if !ok || !fn.IsCallable() {
		return nil, errors.NewType("value is not a function")
	}
	args, err := evalArguments(agent, env, c.Arguments)
	if err != nil {
		return nil, err
	}
	return fn.Call(agent, thisArg, nil, args)
}

func evalArguments(agent *runtime.Agent, env runtime.Environment, args []ast.Expression) ([]runtime.Value, *errors.LanguageError) {
	var out []runtime.Value
	for _, a := range args {
		if spread, ok := a.(*ast.SpreadElement); ok {
			vals, err := spreadToSlice(agent, env, spread)
			if err != nil {
				return nil, err
			}
			out = append(out, vals...)
			continue
		}
		v, err := EvalExpression(agent, env, a)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func evalNew(agent *runtime.Agent, env runtime.Environment, n *ast.NewExpression) (runtime.Value, *errors.LanguageError) {
	calleeV, err := EvalExpression(agent, env, n.Callee)
	if err != nil {
		return nil, err
	}
	ctor, ok := calleeV.(*runtime.Object)
	if !ok || !ctor.IsConstructor() {
		return nil, errors.NewType("value is not a constructor")
	}
	args, err := evalArguments(agent, env, n.Arguments)
	if err != nil {
		return nil, err
	}
	return ctor.Construct(agent, nil, ctor, args)
}

func evalMember(agent *runtime.Agent, env runtime.Environment, m *ast.MemberExpression) (runtime.Value, *errors.LanguageError) {
	if _, ok := m.Object.(*ast.Super); ok {
		return evalSuperProperty(agent, env, m)
	}
	objV, err := EvalExpression(agent, env, m.Object)
	if err != nil {
		return nil, err
	}
	if m.Optional && isNullish(objV) {
		return runtime.Undefined, nil
	}
	key, err := memberKey(agent, env, m)
	if err != nil {
		return nil, err
	}
	obj, err := runtime.ToObject(agent, objV, currentRealm(agent))
	if err != nil {
		return nil, err
	}
	return obj.Get(agent, key, objV)
}

// nearestFunctionEnv walks env's outer chain to the innermost function
// environment, the scope `super` calls/property lookups resolve
// against (a block or loop's declarative environment is transparent to
// `super`, per spec.md §4.3).
func nearestFunctionEnv(env runtime.Environment) *runtime.FunctionEnvironment {
	for e := env; e != nil; e = e.Outer() {
		if fe, ok := e.(*runtime.FunctionEnvironment); ok {
			return fe
		}
	}
	return nil
}

func evalSuperCall(agent *runtime.Agent, env runtime.Environment, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
	ctx := agent.Stack.Current()
	if ctx == nil || ctx.Function == nil {
		return nil, errors.NewSyntax("'super' keyword is only valid inside a derived class constructor")
	}
	fd := getFunctionData(ctx.Function)
	if fd == nil || fd.parentClass == nil {
		return nil, errors.NewSyntax("'super' keyword is unexpected here")
	}
	fenv := nearestFunctionEnv(env)
	if fenv == nil {
		return nil, errors.NewSyntax("'super' keyword is unexpected here")
	}
	result, err := fd.parentClass.Construct(agent, nil, fenv.NewTarget, args)
	if err != nil {
		return nil, err
	}
	if err := fenv.BindThis(result); err != nil {
		return nil, err
	}
	fenv.HomeObject = fd.homeObject
	return runtime.Undefined, nil
}

func evalSuperProperty(agent *runtime.Agent, env runtime.Environment, m *ast.MemberExpression) (runtime.Value, *errors.LanguageError) {
	fenv := nearestFunctionEnv(env)
	if fenv == nil || fenv.HomeObject == nil {
		return nil, errors.NewSyntax("'super' keyword is only valid inside a method")
	}
	proto := fenv.HomeObject.GetPrototypeOf()
	if proto == nil {
		return runtime.Undefined, nil
	}
	key, err := memberKey(agent, env, m)
	if err != nil {
		return nil, err
	}
	thisV, err := runtime.GetThisBinding(env)
	if err != nil {
		return nil, err
	}
	return proto.Get(agent, key, thisV)
}

func evalTemplateLiteral(agent *runtime.Agent, env runtime.Environment, t *ast.TemplateLiteral) (runtime.Value, *errors.LanguageError) {
	var sb strings.Builder
	for i, q := range t.Quasis {
		sb.WriteString(q.Cooked)
		if i < len(t.Expressions) {
			v, err := EvalExpression(agent, env, t.Expressions[i])
			if err != nil {
				return nil, err
			}
			s, err := runtime.ToStringValue(agent, v)
			if err != nil {
				return nil, err
			}
			sb.WriteString(string(s))
		}
	}
	return runtime.String(sb.String()), nil
}

func evalTaggedTemplate(agent *runtime.Agent, env runtime.Environment, t *ast.TaggedTemplateExpression) (runtime.Value, *errors.LanguageError) {
	var thisArg runtime.Value = runtime.Undefined
	var tagV runtime.Value
	if me, ok := t.Tag.(*ast.MemberExpression); ok {
		objV, err := EvalExpression(agent, env, me.Object)
		if err != nil {
			return nil, err
		}
		key, err := memberKey(agent, env, me)
		if err != nil {
			return nil, err
		}
		obj, err := runtime.ToObject(agent, objV, currentRealm(agent))
		if err != nil {
			return nil, err
		}
		v, err := obj.Get(agent, key, objV)
		if err != nil {
			return nil, err
		}
		tagV, thisArg = v, objV
	} else {
		v, err := EvalExpression(agent, env, t.Tag)
		if err != nil {
			return nil, err
		}
		tagV = v
	}
	fn, ok := tagV.(*runtime.Object)
	if !ok || !fn.IsCallable() {
		return nil, errors.NewType("tag value is not a function")
	}

	var proto *runtime.Object
	if r := currentRealm(agent); r != nil {
		proto = r.Intrinsics["%Array.prototype%"]
	}
	strs := runtime.NewArrayObject(proto)
	raw := runtime.NewArrayObject(proto)
	for i, q := range t.Quasi.Quasis {
		strs.DefineOwnProperty(runtime.String(itoa(i)), runtime.DataProperty(runtime.String(q.Cooked), false, true, false))
		raw.DefineOwnProperty(runtime.String(itoa(i)), runtime.DataProperty(runtime.String(q.Raw), false, true, false))
	}
	strs.DefineOwnProperty(runtime.String("raw"), runtime.DataProperty(raw, false, false, false))

	args := []runtime.Value{strs}
	for _, ex := range t.Quasi.Expressions {
		v, err := EvalExpression(agent, env, ex)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return fn.Call(agent, thisArg, nil, args)
}

func currentGenContext(agent *runtime.Agent) *genContext {
	ctx := agent.Stack.Current()
	if ctx == nil {
		return nil
	}
	gctx, _ := ctx.Suspended.(*genContext)
	return gctx
}

// yieldOnce suspends at a single yield/await point, translating the
// resume kind the caller drove the generator with back into the
// appropriate evaluator-level signal: a plain resume value, a thrown
// exception (propagated through the ordinary error channel so an
// enclosing try/catch observes it), or a forced early return (wrapped
// as a generatorReturn sentinel the generator body closure unwraps).
func yieldOnce(gctx *genContext, v runtime.Value) (runtime.Value, *errors.LanguageError) {
	resumeValue, kind, err := gctx.yield(v)
	if err != nil {
		return nil, err
	}
	switch kind {
	case generator.ResumeThrow:
		return nil, newThrow(resumeValue)
	case generator.ResumeReturn:
		return nil, newGeneratorReturn(resumeValue)
	default:
		return resumeValue, nil
	}
}

func evalYield(agent *runtime.Agent, env runtime.Environment, y *ast.YieldExpression) (runtime.Value, *errors.LanguageError) {
	gctx := currentGenContext(agent)
	if gctx == nil {
		return nil, errors.NewSyntax("'yield' is only valid inside a generator function")
	}
	var v runtime.Value = runtime.Undefined
	if y.Argument != nil {
		vv, err := EvalExpression(agent, env, y.Argument)
		if err != nil {
			return nil, err
		}
		v = vv
	}
	if y.Delegate {
		return evalYieldStar(agent, gctx, v)
	}
	return yieldOnce(gctx, v)
}

// evalYieldStar implements `yield*`: drive iterable's iterator to
// completion, forwarding each value out through this generator's own
// yield and forwarding a `.throw()`/`.return()` sent back in to the
// inner iterator when it supports the corresponding method, per
// spec.md §4.6's yield-delegation protocol.
func evalYieldStar(agent *runtime.Agent, gctx *genContext, iterable runtime.Value) (runtime.Value, *errors.LanguageError) {
	it, err := runtime.GetIterator(agent, iterable, false)
	if err != nil {
		return nil, err
	}
	var resumeValue runtime.Value = runtime.Undefined
	kind := generator.ResumeNext
	for {
		var res *runtime.Object
		var more bool
		switch kind {
		case generator.ResumeThrow:
			throwV, err := it.Iterator.Get(agent, runtime.String("throw"), it.Iterator)
			if err != nil {
				return nil, err
			}
			throwFn, ok := throwV.(*runtime.Object)
			if !ok || !throwFn.IsCallable() {
				_ = runtime.IteratorClose(agent, it, nil)
				return nil, newThrow(resumeValue)
			}
			rv, err := throwFn.Call(agent, it.Iterator, nil, []runtime.Value{resumeValue})
			if err != nil {
				return nil, err
			}
			resObj, ok := rv.(*runtime.Object)
			if !ok {
				return nil, errors.NewType("Iterator result is not an object")
			}
			doneV, err := resObj.Get(agent, runtime.String("done"), resObj)
			if err != nil {
				return nil, err
			}
			res, more = resObj, !runtime.ToBoolean(doneV)
		default:
			res, more, err = runtime.IteratorStep(agent, it)
			if err != nil {
				return nil, err
			}
		}
		if !more {
			return runtime.IteratorValue(agent, res)
		}
		val, err := runtime.IteratorValue(agent, res)
		if err != nil {
			return nil, err
		}
		rv, k, yerr := gctx.yield(val)
		if yerr != nil {
			return nil, yerr
		}
		resumeValue, kind = rv, k
		if k == generator.ResumeReturn {
			_ = runtime.IteratorClose(agent, it, nil)
			return nil, newGeneratorReturn(resumeValue)
		}
	}
}

func evalAwait(agent *runtime.Agent, env runtime.Environment, a *ast.AwaitExpression) (runtime.Value, *errors.LanguageError) {
	gctx := currentGenContext(agent)
	if gctx == nil {
		return nil, errors.NewSyntax("'await' is only valid inside an async function")
	}
	v, err := EvalExpression(agent, env, a.Argument)
	if err != nil {
		return nil, err
	}
	return yieldOnce(gctx, v)
}

// awaitValue suspends the current async function on an already-computed
// value, used by `for await...of` (statements.go's evalForOf) between
// fetching a sequence element and binding it, the one case where an
// await needs to happen without its own AwaitExpression node.
func awaitValue(agent *runtime.Agent, env runtime.Environment, v runtime.Value) (runtime.Value, *errors.LanguageError) {
	gctx := currentGenContext(agent)
	if gctx == nil {
		return nil, errors.NewSyntax("'for await' is only valid inside an async function")
	}
	return yieldOnce(gctx, v)
}

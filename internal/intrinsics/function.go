package intrinsics

import (
	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
)

// FunctionPlugin installs %Function.prototype%'s call/apply/bind trio
// and the %Function% constructor, grounded on the teacher's FFI
// wrapper layer (internal/builtins' use of reflection to adapt host
// functions) generalized to the engine's own HostFunc convention.
var FunctionPlugin = newPlugin("function", []string{"core"}, func(realm *runtime.Realm) *errors.LanguageError {
	proto := realm.Intrinsics["%Function.prototype%"]

	method(realm, proto, "call", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		fn, ok := thisArg.(*runtime.Object)
		if !ok || !fn.IsCallable() {
			return nil, errors.NewType("Function.prototype.call called on non-callable value")
		}
		callThis := arg(args, 0)
		var rest []runtime.Value
		if len(args) > 1 {
			rest = args[1:]
		}
		return fn.Call(agent, callThis, nil, rest)
	})

	method(realm, proto, "apply", 2, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		fn, ok := thisArg.(*runtime.Object)
		if !ok || !fn.IsCallable() {
			return nil, errors.NewType("Function.prototype.apply called on non-callable value")
		}
		callThis := arg(args, 0)
		argArray := arg(args, 1)
		if argArray == runtime.Undefined || argArray == runtime.Null {
			return fn.Call(agent, callThis, nil, nil)
		}
		argsObj, ok := argArray.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("CreateListFromArrayLike called on non-object")
		}
		callArgs, err := arrayLikeToSlice(agent, argsObj)
		if err != nil {
			return nil, err
		}
		return fn.Call(agent, callThis, nil, callArgs)
	})

	method(realm, proto, "bind", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		fn, ok := thisArg.(*runtime.Object)
		if !ok || !fn.IsCallable() {
			return nil, errors.NewType("Function.prototype.bind called on non-callable value")
		}
		boundThis := arg(args, 0)
		var boundArgs []runtime.Value
		if len(args) > 1 {
			boundArgs = append(boundArgs, args[1:]...)
		}
		bound := runtime.NewBoundFunction(fn, boundThis, boundArgs, proto)
		bound.Realm = realm
		return bound, nil
	})

	method(realm, proto, "toString", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		fn, ok := thisArg.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("Function.prototype.toString called on non-object")
		}
		name := ""
		if nv, err := fn.Get(agent, runtime.String("name"), fn); err == nil {
			if s, ok := nv.(runtime.String); ok {
				name = string(s)
			}
		}
		return runtime.String("function " + name + "() { [native code] }"), nil
	})

	symbolMethod(realm, proto, runtime.SymbolHasInstance, "[Symbol.hasInstance]", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		ctor, ok := thisArg.(*runtime.Object)
		if !ok {
			return runtime.Boolean(false), nil
		}
		ok2, err := ordinaryHasInstance(agent, ctor, arg(args, 0))
		if err != nil {
			return nil, err
		}
		return runtime.Boolean(ok2), nil
	})

	ctor := newNativeFunction(realm, "Function", 1, func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return nil, errors.New(errors.EvalError, "dynamic Function construction from source text is not supported")
	})
	ctor.Construct = ctor.Call
	ctor.DefineOwnProperty(runtime.String("prototype"), runtime.DataProperty(proto, false, false, false))
	proto.DefineOwnProperty(runtime.String("constructor"), runtime.DataProperty(ctor, true, false, true))
	proto.DefineOwnProperty(runtime.String("length"), runtime.DataProperty(runtime.Number(0), false, false, true))
	proto.DefineOwnProperty(runtime.String("name"), runtime.DataProperty(runtime.String(""), false, false, true))

	realm.Intrinsics["%Function%"] = ctor
	realm.StageGlobal("Function", runtime.DataProperty(ctor, true, false, true))
	return nil
})

// ordinaryHasInstance implements OrdinaryHasInstance (spec.md's `instanceof`
// abstract operation) for Function.prototype[Symbol.hasInstance]. The
// `instanceof` operator (evaluator/expressions.go's instanceOf) does not
// call it; it carries its own copy of the same prototype-chain walk.
func ordinaryHasInstance(agent *runtime.Agent, ctor *runtime.Object, v runtime.Value) (bool, *errors.LanguageError) {
	target := ctor
	if target.BoundTarget != nil {
		target = target.BoundTarget
	}
	obj, ok := v.(*runtime.Object)
	if !ok {
		return false, nil
	}
	protoV, err := target.Get(agent, runtime.String("prototype"), target)
	if err != nil {
		return false, err
	}
	proto, ok := protoV.(*runtime.Object)
	if !ok {
		return false, errors.NewType("Function has non-object prototype in instanceof check")
	}
	for p := obj.GetPrototypeOf(); p != nil; p = p.GetPrototypeOf() {
		if p == proto {
			return true, nil
		}
	}
	return false, nil
}

// arrayLikeToSlice reads successive integer-indexed properties
// 0..length-1 off an array-like object, the CreateListFromArrayLike
// abstract operation used by Function.prototype.apply.
func arrayLikeToSlice(agent *runtime.Agent, o *runtime.Object) ([]runtime.Value, *errors.LanguageError) {
	lenV, err := o.Get(agent, runtime.String("length"), o)
	if err != nil {
		return nil, err
	}
	n, err := runtime.ToIntegerOrInfinity(agent, lenV)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	out := make([]runtime.Value, 0, int(n))
	for i := 0; i < int(n); i++ {
		v, err := o.Get(agent, runtime.String(itoa(i)), o)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

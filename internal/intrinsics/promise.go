package intrinsics

import (
	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/promise"
	"github.com/escore/escore/internal/runtime"
)

// PromisePlugin installs %Promise.prototype%'s then/catch/finally and
// the %Promise% constructor's static combinators, delegating all
// settlement/reaction bookkeeping to internal/promise — this file is
// the thin bridge between that package's Go API and language-level
// callable objects, grounded on the teacher's job-queue-backed async
// support layered the same way.
var PromisePlugin = newPlugin("promise", []string{"object", "function"}, func(realm *runtime.Realm) *errors.LanguageError {
	proto := runtime.NewOrdinaryObject(realm.Intrinsics["%Object.prototype%"])
	proto.Class = "Promise"
	realm.Intrinsics["%Promise.prototype%"] = proto

	method(realm, proto, "then", 2, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		p, ok := thisArg.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("Promise.prototype.then called on non-Promise")
		}
		onFulfilled, _ := arg(args, 0).(*runtime.Object)
		onRejected, _ := arg(args, 1).(*runtime.Object)
		capRec := promise.NewCapability(agent, proto)
		return promise.Then(agent, p, onFulfilled, onRejected, capRec), nil
	})

	method(realm, proto, "catch", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		thenV, err := thisObjectThen(agent, thisArg)
		if err != nil {
			return nil, err
		}
		return callFn(agent, thenV, thisArg, []runtime.Value{runtime.Undefined, arg(args, 0)})
	})

	method(realm, proto, "finally", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		onFinally, _ := arg(args, 0).(*runtime.Object)
		thenV, err := thisObjectThen(agent, thisArg)
		if err != nil {
			return nil, err
		}
		wrap := func(passthrough bool) *runtime.Object {
			return hostFunc(func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, cbArgs []runtime.Value) (runtime.Value, *errors.LanguageError) {
				v := arg(cbArgs, 0)
				if onFinally != nil && onFinally.IsCallable() {
					if _, err := onFinally.Call(agent, runtime.Undefined, nil, nil); err != nil {
						return nil, err
					}
				}
				if passthrough {
					return v, nil
				}
				return nil, &errors.LanguageError{Kind: errors.Error, Message: "promise rejected", Value: v}
			})
		}
		return callFn(agent, thenV, thisArg, []runtime.Value{wrap(true), wrap(false)})
	})

	ctor := newNativeFunction(realm, "Promise", 1, func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		if newTarget == nil {
			return nil, errors.NewType("Promise constructor cannot be invoked without 'new'")
		}
		executor, ok := arg(args, 0).(*runtime.Object)
		if !ok || !executor.IsCallable() {
			return nil, errors.NewType("Promise resolver is not a function")
		}
		capRec := promise.NewCapability(agent, proto)
		if _, err := executor.Call(agent, runtime.Undefined, nil, []runtime.Value{capRec.Resolve, capRec.Reject}); err != nil {
			if _, rerr := capRec.Reject.Call(agent, runtime.Undefined, nil, []runtime.Value{errorValueFrom(err)}); rerr != nil {
				return nil, rerr
			}
		}
		return capRec.Promise, nil
	})
	ctor.Construct = func(agent *runtime.Agent, _ runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return ctor.Call(agent, runtime.Undefined, newTarget, args)
	}
	ctor.DefineOwnProperty(runtime.String("prototype"), runtime.DataProperty(proto, false, false, false))
	proto.DefineOwnProperty(runtime.String("constructor"), runtime.DataProperty(ctor, true, false, true))

	method(realm, ctor, "resolve", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		v := arg(args, 0)
		if p, ok := v.(*runtime.Object); ok && p.Class == "Promise" {
			return p, nil
		}
		capRec := promise.NewCapability(agent, proto)
		promise.Resolve(agent, capRec.Promise, v)
		return capRec.Promise, nil
	})

	method(realm, ctor, "reject", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		capRec := promise.NewCapability(agent, proto)
		if _, err := capRec.Reject.Call(agent, runtime.Undefined, nil, []runtime.Value{arg(args, 0)}); err != nil {
			return nil, err
		}
		return capRec.Promise, nil
	})

	method(realm, ctor, "all", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		items, err := iterableToSlice(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		capRec := promise.NewCapability(agent, proto)
		results := make([]runtime.Value, len(items))
		remaining := len(items)
		if remaining == 0 {
			promise.Resolve(agent, capRec.Promise, newArray(realm))
			return capRec.Promise, nil
		}
		for i, item := range items {
			idx := i
			itemP := coerceToPromise(agent, realm, proto, item)
			onFulfilled := hostFunc(func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, cbArgs []runtime.Value) (runtime.Value, *errors.LanguageError) {
				results[idx] = arg(cbArgs, 0)
				remaining--
				if remaining == 0 {
					promise.Resolve(agent, capRec.Promise, newArray(realm, results...))
				}
				return runtime.Undefined, nil
			})
			onRejected := hostFunc(func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, cbArgs []runtime.Value) (runtime.Value, *errors.LanguageError) {
				_, _ = capRec.Reject.Call(agent, runtime.Undefined, nil, []runtime.Value{arg(cbArgs, 0)})
				return runtime.Undefined, nil
			})
			promise.Then(agent, itemP, onFulfilled, onRejected, nil)
		}
		return capRec.Promise, nil
	})

	method(realm, ctor, "allSettled", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		items, err := iterableToSlice(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		capRec := promise.NewCapability(agent, proto)
		results := make([]runtime.Value, len(items))
		remaining := len(items)
		if remaining == 0 {
			promise.Resolve(agent, capRec.Promise, newArray(realm))
			return capRec.Promise, nil
		}
		settledOne := func(idx int, status string, key string, v runtime.Value) {
			o := newPlainObject(realm)
			o.DefineOwnProperty(runtime.String("status"), runtime.DataProperty(runtime.String(status), true, true, true))
			o.DefineOwnProperty(runtime.String(key), runtime.DataProperty(v, true, true, true))
			results[idx] = o
			remaining--
			if remaining == 0 {
				promise.Resolve(agent, capRec.Promise, newArray(realm, results...))
			}
		}
		for i, item := range items {
			idx := i
			itemP := coerceToPromise(agent, realm, proto, item)
			onFulfilled := hostFunc(func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, cbArgs []runtime.Value) (runtime.Value, *errors.LanguageError) {
				settledOne(idx, "fulfilled", "value", arg(cbArgs, 0))
				return runtime.Undefined, nil
			})
			onRejected := hostFunc(func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, cbArgs []runtime.Value) (runtime.Value, *errors.LanguageError) {
				settledOne(idx, "rejected", "reason", arg(cbArgs, 0))
				return runtime.Undefined, nil
			})
			promise.Then(agent, itemP, onFulfilled, onRejected, nil)
		}
		return capRec.Promise, nil
	})

	method(realm, ctor, "race", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		items, err := iterableToSlice(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		capRec := promise.NewCapability(agent, proto)
		for _, item := range items {
			itemP := coerceToPromise(agent, realm, proto, item)
			onFulfilled := hostFunc(func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, cbArgs []runtime.Value) (runtime.Value, *errors.LanguageError) {
				_, _ = capRec.Resolve.Call(agent, runtime.Undefined, nil, []runtime.Value{arg(cbArgs, 0)})
				return runtime.Undefined, nil
			})
			onRejected := hostFunc(func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, cbArgs []runtime.Value) (runtime.Value, *errors.LanguageError) {
				_, _ = capRec.Reject.Call(agent, runtime.Undefined, nil, []runtime.Value{arg(cbArgs, 0)})
				return runtime.Undefined, nil
			})
			promise.Then(agent, itemP, onFulfilled, onRejected, nil)
		}
		return capRec.Promise, nil
	})

	method(realm, ctor, "any", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		items, err := iterableToSlice(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		capRec := promise.NewCapability(agent, proto)
		errorsOut := make([]runtime.Value, len(items))
		remaining := len(items)
		if remaining == 0 {
			_, _ = capRec.Reject.Call(agent, runtime.Undefined, nil, []runtime.Value{runtime.String("All promises were rejected")})
			return capRec.Promise, nil
		}
		for i, item := range items {
			idx := i
			itemP := coerceToPromise(agent, realm, proto, item)
			onFulfilled := hostFunc(func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, cbArgs []runtime.Value) (runtime.Value, *errors.LanguageError) {
				_, _ = capRec.Resolve.Call(agent, runtime.Undefined, nil, []runtime.Value{arg(cbArgs, 0)})
				return runtime.Undefined, nil
			})
			onRejected := hostFunc(func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, cbArgs []runtime.Value) (runtime.Value, *errors.LanguageError) {
				errorsOut[idx] = arg(cbArgs, 0)
				remaining--
				if remaining == 0 {
					_, _ = capRec.Reject.Call(agent, runtime.Undefined, nil, []runtime.Value{newArray(realm, errorsOut...)})
				}
				return runtime.Undefined, nil
			})
			promise.Then(agent, itemP, onFulfilled, onRejected, nil)
		}
		return capRec.Promise, nil
	})

	realm.Intrinsics["%Promise%"] = ctor
	realm.StageGlobal("Promise", runtime.DataProperty(ctor, true, false, true))
	return nil
})

func thisObjectThen(agent *runtime.Agent, thisArg runtime.Value) (runtime.Value, *errors.LanguageError) {
	p, ok := thisArg.(*runtime.Object)
	if !ok {
		return nil, errors.NewType("Promise method called on non-Promise")
	}
	return p.Get(agent, runtime.String("then"), p)
}

func coerceToPromise(agent *runtime.Agent, realm *runtime.Realm, proto *runtime.Object, v runtime.Value) *runtime.Object {
	if p, ok := v.(*runtime.Object); ok && p.Class == "Promise" {
		return p
	}
	p := promise.NewPromise(proto)
	promise.Resolve(agent, p, v)
	return p
}

func hostFunc(fn runtime.HostFunc) *runtime.Object {
	o := runtime.NewOrdinaryObject(nil)
	o.Class = "Function"
	o.Call = fn
	return o
}

func errorValueFrom(err *errors.LanguageError) runtime.Value {
	if v, ok := err.Value.(runtime.Value); ok {
		return v
	}
	return runtime.String(err.Message)
}

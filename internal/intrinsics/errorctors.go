package intrinsics

import (
	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
)

// errorKinds lists every native error constructor spec.md §6 (via
// internal/errors' Kind taxonomy) requires a realm to seed, in
// construction order: %Error% first since every other kind's prototype
// chains up to %Error.prototype%.
var errorKinds = []errors.Kind{
	errors.Error,
	errors.EvalError,
	errors.RangeError,
	errors.ReferenceError,
	errors.SyntaxError,
	errors.TypeError,
	errors.URIError,
	errors.AggregateError,
}

// ErrorPlugin installs the Error constructor family: %Error% plus one
// subclass constructor per errors.Kind, each instance carrying
// "name"/"message"/"stack" own properties. Grounded on the teacher's
// runtime error-value representation (internal/interp/runtime/errors.go),
// generalized from a single Go error type to the language's full native
// error hierarchy.
var ErrorPlugin = newPlugin("error", []string{"object", "function"}, func(realm *runtime.Realm) *errors.LanguageError {
	objectProto := realm.Intrinsics["%Object.prototype%"]

	baseProto := runtime.NewOrdinaryObject(objectProto)
	baseProto.Class = "Error"
	realm.Intrinsics["%Error.prototype%"] = baseProto

	constant(baseProto, "name", runtime.String("Error"))
	constant(baseProto, "message", runtime.String(""))
	method(realm, baseProto, "toString", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		nameV, err := o.Get(agent, runtime.String("name"), o)
		if err != nil {
			return nil, err
		}
		name, err := runtime.ToStringValue(agent, nameV)
		if err != nil {
			return nil, err
		}
		msgV, err := o.Get(agent, runtime.String("message"), o)
		if err != nil {
			return nil, err
		}
		msg, err := runtime.ToStringValue(agent, msgV)
		if err != nil {
			return nil, err
		}
		if msg == "" {
			return name, nil
		}
		if name == "" {
			return msg, nil
		}
		return runtime.String(string(name) + ": " + string(msg)), nil
	})

	baseCtor := buildErrorConstructor(realm, errors.Error, baseProto, baseProto)
	realm.Intrinsics["%Error%"] = baseCtor
	realm.StageGlobal("Error", runtime.DataProperty(baseCtor, true, false, true))

	for _, kind := range errorKinds {
		if kind == errors.Error {
			continue
		}
		proto := runtime.NewOrdinaryObject(baseProto)
		proto.Class = "Error"
		constant(proto, "name", runtime.String(string(kind)))
		constant(proto, "message", runtime.String(""))
		realm.Intrinsics["%"+string(kind)+".prototype%"] = proto

		ctor := buildErrorConstructor(realm, kind, proto, baseProto)
		ctor.SetPrototypeOf(baseCtor)
		realm.Intrinsics["%"+string(kind)+"%"] = ctor
		realm.StageGlobal(string(kind), runtime.DataProperty(ctor, true, false, true))
	}

	return nil
})

// buildErrorConstructor builds one native error constructor: allocates
// a fresh instance (its prototype is newTarget.prototype when a
// newTarget is supplied, proto otherwise; `this` is never reused), sets
// its "message" own property from the first argument, "cause" from an
// options object in the second, and "stack" from the current call
// stack. For AggregateError the first argument is the iterable that
// becomes the "errors" array, and message and options move one place
// to the right.
func buildErrorConstructor(realm *runtime.Realm, kind errors.Kind, proto, baseProto *runtime.Object) *runtime.Object {
	ctor := newNativeFunction(realm, string(kind), 1, func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		targetProto := proto
		if newTarget != nil {
			if pv, err := newTarget.Get(agent, runtime.String("prototype"), newTarget); err == nil {
				if p, ok := pv.(*runtime.Object); ok {
					targetProto = p
				}
			}
		}
		o := runtime.NewOrdinaryObject(targetProto)
		o.Class = "Error"
		errArgs := args
		if kind == errors.AggregateError {
			errorsV := arg(args, 0)
			errList, lerr := iterableToSlice(agent, errorsV)
			if lerr != nil {
				return nil, lerr
			}
			o.DefineOwnProperty(runtime.String("errors"), runtime.DataProperty(newArray(realm, errList...), true, false, true))
			errArgs = args[min(1, len(args)):]
		}
		if len(errArgs) > 0 && errArgs[0] != runtime.Undefined {
			msg, err := runtime.ToStringValue(agent, errArgs[0])
			if err != nil {
				return nil, err
			}
			o.DefineOwnProperty(runtime.String("message"), runtime.DataProperty(msg, true, false, true))
		}
		if opts, ok := arg(errArgs, 1).(*runtime.Object); ok {
			if causeV, err := opts.Get(agent, runtime.String("cause"), opts); err == nil && opts.HasProperty(runtime.String("cause")) {
				o.DefineOwnProperty(runtime.String("cause"), runtime.DataProperty(causeV, true, false, true))
			}
		}
		o.DefineOwnProperty(runtime.String("stack"), runtime.DataProperty(captureStackString(agent), true, false, true))
		return o, nil
	})
	ctor.Construct = func(agent *runtime.Agent, _ runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return ctor.Call(agent, runtime.Undefined, newTarget, args)
	}
	ctor.DefineOwnProperty(runtime.String("prototype"), runtime.DataProperty(proto, false, false, false))
	proto.DefineOwnProperty(runtime.String("constructor"), runtime.DataProperty(ctor, true, false, true))
	return ctor
}

// captureStackString renders the agent's current call stack, the
// informal "stack" property every native Error instance carries (not
// part of the evaluation model's invariants, but universal runtime
// practice the teacher's own error values follow).
func captureStackString(agent *runtime.Agent) runtime.String {
	trace := agent.Stack.Trace()
	return runtime.String(trace.String())
}

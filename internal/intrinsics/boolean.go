package intrinsics

import (
	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
)

// BooleanPlugin installs %Boolean.prototype% and the %Boolean%
// constructor — the smallest of the primitive-wrapper plugins, kept
// consistent with the teacher's one-file-per-type builtin layout.
var BooleanPlugin = newPlugin("boolean", []string{"object", "function"}, func(realm *runtime.Realm) *errors.LanguageError {
	proto := runtime.NewOrdinaryObject(realm.Intrinsics["%Object.prototype%"])
	proto.Class = "Boolean"
	proto.PrimitiveData = runtime.Boolean(false)
	realm.Intrinsics["%Boolean.prototype%"] = proto

	thisBoolean := func(thisArg runtime.Value) (bool, *errors.LanguageError) {
		if b, ok := thisArg.(runtime.Boolean); ok {
			return bool(b), nil
		}
		if o, ok := thisArg.(*runtime.Object); ok {
			if b, ok := o.PrimitiveData.(runtime.Boolean); ok {
				return bool(b), nil
			}
		}
		return false, errors.NewType("Boolean.prototype method called on incompatible receiver")
	}

	method(realm, proto, "toString", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		b, err := thisBoolean(thisArg)
		if err != nil {
			return nil, err
		}
		if b {
			return runtime.String("true"), nil
		}
		return runtime.String("false"), nil
	})
	method(realm, proto, "valueOf", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		b, err := thisBoolean(thisArg)
		if err != nil {
			return nil, err
		}
		return runtime.Boolean(b), nil
	})

	ctor := newNativeFunction(realm, "Boolean", 1, func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		b := runtime.Boolean(runtime.ToBoolean(arg(args, 0)))
		if newTarget == nil {
			return b, nil
		}
		o := runtime.NewOrdinaryObject(proto)
		o.Class = "Boolean"
		o.PrimitiveData = b
		return o, nil
	})
	ctor.Construct = func(agent *runtime.Agent, _ runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return ctor.Call(agent, runtime.Undefined, newTarget, args)
	}
	ctor.DefineOwnProperty(runtime.String("prototype"), runtime.DataProperty(proto, false, false, false))
	proto.DefineOwnProperty(runtime.String("constructor"), runtime.DataProperty(ctor, true, false, true))

	realm.Intrinsics["%Boolean%"] = ctor
	realm.StageGlobal("Boolean", runtime.DataProperty(ctor, true, false, true))
	return nil
})

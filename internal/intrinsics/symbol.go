package intrinsics

import (
	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
)

// SymbolPlugin installs %Symbol.prototype%, the well-known symbols as
// static properties of %Symbol%, and Symbol.for/keyFor backed by the
// realm's own SymbolRegistry (spec.md §4.1's per-realm symbol registry).
var SymbolPlugin = newPlugin("symbol", []string{"object", "function"}, func(realm *runtime.Realm) *errors.LanguageError {
	proto := runtime.NewOrdinaryObject(realm.Intrinsics["%Object.prototype%"])
	proto.Class = "Symbol"
	realm.Intrinsics["%Symbol.prototype%"] = proto

	thisSymbol := func(thisArg runtime.Value) (*runtime.Symbol, *errors.LanguageError) {
		if s, ok := thisArg.(*runtime.Symbol); ok {
			return s, nil
		}
		if o, ok := thisArg.(*runtime.Object); ok {
			if s, ok := o.PrimitiveData.(*runtime.Symbol); ok {
				return s, nil
			}
		}
		return nil, errors.NewType("Symbol.prototype method called on incompatible receiver")
	}

	method(realm, proto, "toString", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := thisSymbol(thisArg)
		if err != nil {
			return nil, err
		}
		return runtime.String("Symbol(" + s.Description + ")"), nil
	})

	accessor(realm, proto, "description", func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := thisSymbol(thisArg)
		if err != nil {
			return nil, err
		}
		return runtime.String(s.Description), nil
	}, nil)

	ctor := newNativeFunction(realm, "Symbol", 0, func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		if newTarget != nil {
			return nil, errors.NewType("Symbol is not a constructor")
		}
		desc := ""
		if d := arg(args, 0); d != runtime.Undefined {
			dv, err := runtime.ToStringValue(agent, d)
			if err != nil {
				return nil, err
			}
			desc = string(dv)
		}
		return runtime.NewSymbol(desc), nil
	})
	ctor.DefineOwnProperty(runtime.String("prototype"), runtime.DataProperty(proto, false, false, false))
	proto.DefineOwnProperty(runtime.String("constructor"), runtime.DataProperty(ctor, true, false, true))

	constant(ctor, "iterator", runtime.SymbolIterator)
	constant(ctor, "asyncIterator", runtime.SymbolAsyncIterator)
	constant(ctor, "toPrimitive", runtime.SymbolToPrimitive)
	constant(ctor, "toStringTag", runtime.SymbolToStringTag)
	constant(ctor, "hasInstance", runtime.SymbolHasInstance)

	method(realm, ctor, "for", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		key, err := runtime.ToStringValue(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		if s, ok := realm.SymbolRegistry[string(key)]; ok {
			return s, nil
		}
		s := runtime.NewSymbol(string(key))
		realm.SymbolRegistry[string(key)] = s
		return s, nil
	})

	method(realm, ctor, "keyFor", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		sym, ok := arg(args, 0).(*runtime.Symbol)
		if !ok {
			return nil, errors.NewType("Symbol.keyFor called on non-symbol value")
		}
		for k, v := range realm.SymbolRegistry {
			if v == sym {
				return runtime.String(k), nil
			}
		}
		return runtime.Undefined, nil
	})

	realm.Intrinsics["%Symbol%"] = ctor
	realm.StageGlobal("Symbol", runtime.DataProperty(ctor, true, false, true))
	return nil
})

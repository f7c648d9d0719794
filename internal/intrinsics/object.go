package intrinsics

import (
	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
)

// ObjectPlugin installs %Object.prototype%'s generic methods and the
// %Object% constructor, grounded on the teacher's internal/builtins
// object/reflection helpers. Depends on "core" for the bootstrap
// %Object.prototype%/%Function.prototype% pair (see core.go).
var ObjectPlugin = newPlugin("object", []string{"core"}, func(realm *runtime.Realm) *errors.LanguageError {
	proto := realm.Intrinsics["%Object.prototype%"]

	method(realm, proto, "hasOwnProperty", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		key, err := runtime.ToPropertyKey(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		d := o.GetOwnProperty(key)
		if trapErr := runtime.ProxyTrapError(o); trapErr != nil {
			return nil, trapErr
		}
		return runtime.Boolean(d != nil), nil
	})

	method(realm, proto, "isPrototypeOf", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		target, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return runtime.Boolean(false), nil
		}
		for p := target.GetPrototypeOf(); p != nil; p = p.GetPrototypeOf() {
			if p == o {
				return runtime.Boolean(true), nil
			}
		}
		return runtime.Boolean(false), nil
	})

	method(realm, proto, "propertyIsEnumerable", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		key, err := runtime.ToPropertyKey(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		d := o.GetOwnProperty(key)
		return runtime.Boolean(d != nil && d.IsEnumerable()), nil
	})

	method(realm, proto, "toString", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		if thisArg == runtime.Undefined {
			return runtime.String("[object Undefined]"), nil
		}
		if thisArg == runtime.Null {
			return runtime.String("[object Null]"), nil
		}
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		tag := o.Class
		if tagV, err := o.Get(agent, runtime.SymbolToStringTag, o); err == nil {
			if s, ok := tagV.(runtime.String); ok {
				tag = string(s)
			}
		}
		return runtime.String("[object " + tag + "]"), nil
	})

	method(realm, proto, "toLocaleString", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		toStr, err := o.Get(agent, runtime.String("toString"), o)
		if err != nil {
			return nil, err
		}
		return callFn(agent, toStr, thisArg, nil)
	})

	method(realm, proto, "valueOf", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return thisObject(agent, thisArg, realm)
	})

	ctor := newNativeFunction(realm, "Object", 1, func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		v := arg(args, 0)
		if v == runtime.Undefined || v == runtime.Null {
			return newPlainObject(realm), nil
		}
		return runtime.ToObject(agent, v, realm)
	})
	ctor.Construct = ctor.Call
	ctor.DefineOwnProperty(runtime.String("prototype"), runtime.DataProperty(proto, false, false, false))
	proto.DefineOwnProperty(runtime.String("constructor"), runtime.DataProperty(ctor, true, false, true))

	method(realm, ctor, "keys", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, arg(args, 0), realm)
		if err != nil {
			return nil, err
		}
		keys := o.OwnPropertyKeys()
		if trapErr := runtime.ProxyTrapError(o); trapErr != nil {
			return nil, trapErr
		}
		var out []runtime.Value
		for _, k := range keys {
			ks, ok := k.(runtime.String)
			if !ok {
				continue
			}
			d := o.GetOwnProperty(k)
			if trapErr := runtime.ProxyTrapError(o); trapErr != nil {
				return nil, trapErr
			}
			if d != nil && d.IsEnumerable() {
				out = append(out, ks)
			}
		}
		return newArray(realm, out...), nil
	})

	method(realm, ctor, "values", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, arg(args, 0), realm)
		if err != nil {
			return nil, err
		}
		keys := o.OwnPropertyKeys()
		if trapErr := runtime.ProxyTrapError(o); trapErr != nil {
			return nil, trapErr
		}
		var out []runtime.Value
		for _, k := range keys {
			if _, ok := k.(runtime.String); !ok {
				continue
			}
			d := o.GetOwnProperty(k)
			if trapErr := runtime.ProxyTrapError(o); trapErr != nil {
				return nil, trapErr
			}
			if d == nil || !d.IsEnumerable() {
				continue
			}
			v, err := o.Get(agent, k, o)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return newArray(realm, out...), nil
	})

	method(realm, ctor, "entries", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, arg(args, 0), realm)
		if err != nil {
			return nil, err
		}
		keys := o.OwnPropertyKeys()
		if trapErr := runtime.ProxyTrapError(o); trapErr != nil {
			return nil, trapErr
		}
		var out []runtime.Value
		for _, k := range keys {
			ks, ok := k.(runtime.String)
			if !ok {
				continue
			}
			d := o.GetOwnProperty(k)
			if trapErr := runtime.ProxyTrapError(o); trapErr != nil {
				return nil, trapErr
			}
			if d == nil || !d.IsEnumerable() {
				continue
			}
			v, err := o.Get(agent, k, o)
			if err != nil {
				return nil, err
			}
			out = append(out, newArray(realm, ks, v))
		}
		return newArray(realm, out...), nil
	})

	method(realm, ctor, "assign", 2, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		target, err := thisObject(agent, arg(args, 0), realm)
		if err != nil {
			return nil, err
		}
		for _, srcV := range args[1:] {
			if srcV == runtime.Undefined || srcV == runtime.Null {
				continue
			}
			src, err := runtime.ToObject(agent, srcV, realm)
			if err != nil {
				return nil, err
			}
			keys := src.OwnPropertyKeys()
			if trapErr := runtime.ProxyTrapError(src); trapErr != nil {
				return nil, trapErr
			}
			for _, k := range keys {
				d := src.GetOwnProperty(k)
				if trapErr := runtime.ProxyTrapError(src); trapErr != nil {
					return nil, trapErr
				}
				if d == nil || !d.IsEnumerable() {
					continue
				}
				v, err := src.Get(agent, k, src)
				if err != nil {
					return nil, err
				}
				if _, err := target.Set(agent, k, v, target); err != nil {
					return nil, err
				}
			}
		}
		return target, nil
	})

	method(realm, ctor, "freeze", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return arg(args, 0), nil
		}
		o.PreventExtensions()
		if trapErr := runtime.ProxyTrapError(o); trapErr != nil {
			return nil, trapErr
		}
		keys := o.OwnPropertyKeys()
		if trapErr := runtime.ProxyTrapError(o); trapErr != nil {
			return nil, trapErr
		}
		for _, k := range keys {
			d := o.GetOwnProperty(k)
			if trapErr := runtime.ProxyTrapError(o); trapErr != nil {
				return nil, trapErr
			}
			if d == nil {
				continue
			}
			patch := runtime.PropertyDescriptor{Configurable: boolPtr(false)}
			if d.IsDataDescriptor() {
				patch.Writable = boolPtr(false)
			}
			o.DefineOwnProperty(k, patch)
			if trapErr := runtime.ProxyTrapError(o); trapErr != nil {
				return nil, trapErr
			}
		}
		return o, nil
	})

	method(realm, ctor, "isFrozen", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return runtime.Boolean(true), nil
		}
		extensible := o.IsExtensible()
		if trapErr := runtime.ProxyTrapError(o); trapErr != nil {
			return nil, trapErr
		}
		if extensible {
			return runtime.Boolean(false), nil
		}
		keys := o.OwnPropertyKeys()
		if trapErr := runtime.ProxyTrapError(o); trapErr != nil {
			return nil, trapErr
		}
		for _, k := range keys {
			d := o.GetOwnProperty(k)
			if trapErr := runtime.ProxyTrapError(o); trapErr != nil {
				return nil, trapErr
			}
			if d == nil || d.IsConfigurable() {
				return runtime.Boolean(false), nil
			}
			if d.IsDataDescriptor() && d.IsWritable() {
				return runtime.Boolean(false), nil
			}
		}
		return runtime.Boolean(true), nil
	})

	method(realm, ctor, "getPrototypeOf", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, arg(args, 0), realm)
		if err != nil {
			return nil, err
		}
		p := o.GetPrototypeOf()
		if trapErr := runtime.ProxyTrapError(o); trapErr != nil {
			return nil, trapErr
		}
		if p != nil {
			return p, nil
		}
		return runtime.Null, nil
	})

	method(realm, ctor, "setPrototypeOf", 2, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return arg(args, 0), nil
		}
		var p *runtime.Object
		if pv, ok := arg(args, 1).(*runtime.Object); ok {
			p = pv
		}
		ok2 := o.SetPrototypeOf(p)
		if trapErr := runtime.ProxyTrapError(o); trapErr != nil {
			return nil, trapErr
		}
		if !ok2 {
			return nil, errors.NewType("#<Object> is not extensible")
		}
		return o, nil
	})

	method(realm, ctor, "create", 2, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		var p *runtime.Object
		switch pv := arg(args, 0).(type) {
		case *runtime.Object:
			p = pv
		case runtime.Value:
			if pv != runtime.Null {
				return nil, errors.NewType("Object prototype may only be an Object or null")
			}
		}
		o := runtime.NewOrdinaryObject(p)
		if props, ok := arg(args, 1).(*runtime.Object); ok {
			for _, k := range props.OwnPropertyKeys() {
				d := props.GetOwnProperty(k)
				if d == nil || !d.IsEnumerable() {
					continue
				}
				descV, err := props.Get(agent, k, props)
				if err != nil {
					return nil, err
				}
				descObj, ok := descV.(*runtime.Object)
				if !ok {
					continue
				}
				applyDescribedProperty(agent, o, k, descObj)
			}
		}
		return o, nil
	})

	method(realm, ctor, "defineProperty", 3, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return nil, errors.NewType("Object.defineProperty called on non-object")
		}
		key, err := runtime.ToPropertyKey(agent, arg(args, 1))
		if err != nil {
			return nil, err
		}
		descObj, ok := arg(args, 2).(*runtime.Object)
		if !ok {
			return nil, errors.NewType("Property description must be an object")
		}
		if err := applyDescribedProperty(agent, o, key, descObj); err != nil {
			return nil, err
		}
		return o, nil
	})

	method(realm, ctor, "getOwnPropertyNames", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, arg(args, 0), realm)
		if err != nil {
			return nil, err
		}
		keys := o.OwnPropertyKeys()
		if trapErr := runtime.ProxyTrapError(o); trapErr != nil {
			return nil, trapErr
		}
		var out []runtime.Value
		for _, k := range keys {
			if s, ok := k.(runtime.String); ok {
				out = append(out, s)
			}
		}
		return newArray(realm, out...), nil
	})

	method(realm, ctor, "fromEntries", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		it, err := runtime.GetIterator(agent, arg(args, 0), false)
		if err != nil {
			return nil, err
		}
		o := newPlainObject(realm)
		for {
			res, more, err := runtime.IteratorStep(agent, it)
			if err != nil {
				return nil, err
			}
			if !more {
				return o, nil
			}
			entryV, err := runtime.IteratorValue(agent, res)
			if err != nil {
				return nil, err
			}
			entry, ok := entryV.(*runtime.Object)
			if !ok {
				return nil, errors.NewType("iterator value is not an entry object")
			}
			kv, err := entry.Get(agent, runtime.String("0"), entry)
			if err != nil {
				return nil, err
			}
			vv, err := entry.Get(agent, runtime.String("1"), entry)
			if err != nil {
				return nil, err
			}
			key, err := runtime.ToPropertyKey(agent, kv)
			if err != nil {
				return nil, err
			}
			o.DefineOwnProperty(key, runtime.DataProperty(vv, true, true, true))
		}
	})

	realm.Intrinsics["%Object%"] = ctor
	realm.StageGlobal("Object", runtime.DataProperty(ctor, true, false, true))
	return nil
})

// applyDescribedProperty converts a {value, writable, get, set,
// enumerable, configurable} description object into a PropertyDescriptor
// and installs it, the shared engine behind Object.defineProperty and
// Object.create's second argument.
func applyDescribedProperty(agent *runtime.Agent, o *runtime.Object, key runtime.Value, descObj *runtime.Object) *errors.LanguageError {
	var desc runtime.PropertyDescriptor
	if descObj.HasProperty(runtime.String("value")) {
		v, err := descObj.Get(agent, runtime.String("value"), descObj)
		if err != nil {
			return err
		}
		desc.Value = v
	}
	if descObj.HasProperty(runtime.String("get")) {
		v, err := descObj.Get(agent, runtime.String("get"), descObj)
		if err != nil {
			return err
		}
		if fn, ok := v.(*runtime.Object); ok {
			desc.Get = fn
		}
	}
	if descObj.HasProperty(runtime.String("set")) {
		v, err := descObj.Get(agent, runtime.String("set"), descObj)
		if err != nil {
			return err
		}
		if fn, ok := v.(*runtime.Object); ok {
			desc.Set = fn
		}
	}
	for _, flag := range []string{"writable", "enumerable", "configurable"} {
		if !descObj.HasProperty(runtime.String(flag)) {
			continue
		}
		v, err := descObj.Get(agent, runtime.String(flag), descObj)
		if err != nil {
			return err
		}
		b := runtime.ToBoolean(v)
		switch flag {
		case "writable":
			desc.Writable = &b
		case "enumerable":
			desc.Enumerable = &b
		case "configurable":
			desc.Configurable = &b
		}
	}
	ok := o.DefineOwnProperty(key, desc)
	if trapErr := runtime.ProxyTrapError(o); trapErr != nil {
		return trapErr
	}
	if !ok {
		return errors.NewType("Cannot redefine property")
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }

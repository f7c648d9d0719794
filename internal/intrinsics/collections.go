package intrinsics

import (
	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
)

// mapEntry is one key/value pair in a Map's insertion-ordered backing
// store; kept as a slice rather than a Go map because object and NaN
// keys compare by SameValueZero, not by Go equality.
type mapEntry struct {
	key   runtime.Value
	value runtime.Value
}

type mapData struct {
	entries []mapEntry
}

func (d *mapData) find(key runtime.Value) int {
	for i, e := range d.entries {
		if sameValueZero(e.key, key) {
			return i
		}
	}
	return -1
}

type setData struct {
	values []runtime.Value
}

func (d *setData) find(v runtime.Value) int {
	for i, e := range d.values {
		if sameValueZero(e, v) {
			return i
		}
	}
	return -1
}

// CollectionsPlugin installs Map, Set, WeakMap and WeakSet. The "Weak"
// variants carry the same insertion-ordered backing store as their
// strong counterparts — this engine has no garbage collector hook to
// key genuine weak references off, so entries persist for the object's
// lifetime rather than being reclaimable independently, a simplification
// recorded as a deliberate scope decision.
var CollectionsPlugin = newPlugin("collections", []string{"object", "function"}, func(realm *runtime.Realm) *errors.LanguageError {
	installMapLike(realm)
	installSetLike(realm)
	return nil
})

func mapDataOf(o *runtime.Object) (*mapData, *errors.LanguageError) {
	v, ok := o.GetInternal("mapData")
	if !ok {
		return nil, errors.NewType("method called on incompatible receiver")
	}
	return v.(*mapData), nil
}

func setDataOf(o *runtime.Object) (*setData, *errors.LanguageError) {
	v, ok := o.GetInternal("setData")
	if !ok {
		return nil, errors.NewType("method called on incompatible receiver")
	}
	return v.(*setData), nil
}

func installMapOrWeakMap(realm *runtime.Realm, name string) (*runtime.Object, *runtime.Object) {
	proto := runtime.NewOrdinaryObject(realm.Intrinsics["%Object.prototype%"])
	proto.Class = name

	method(realm, proto, "get", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := thisArg.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("not a " + name)
		}
		d, err := mapDataOf(o)
		if err != nil {
			return nil, err
		}
		if i := d.find(arg(args, 0)); i >= 0 {
			return d.entries[i].value, nil
		}
		return runtime.Undefined, nil
	})

	method(realm, proto, "set", 2, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := thisArg.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("not a " + name)
		}
		d, err := mapDataOf(o)
		if err != nil {
			return nil, err
		}
		key, value := arg(args, 0), arg(args, 1)
		if i := d.find(key); i >= 0 {
			d.entries[i].value = value
		} else {
			d.entries = append(d.entries, mapEntry{key: key, value: value})
		}
		return o, nil
	})

	method(realm, proto, "has", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := thisArg.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("not a " + name)
		}
		d, err := mapDataOf(o)
		if err != nil {
			return nil, err
		}
		return runtime.Boolean(d.find(arg(args, 0)) >= 0), nil
	})

	method(realm, proto, "delete", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := thisArg.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("not a " + name)
		}
		d, err := mapDataOf(o)
		if err != nil {
			return nil, err
		}
		if i := d.find(arg(args, 0)); i >= 0 {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			return runtime.Boolean(true), nil
		}
		return runtime.Boolean(false), nil
	})

	ctor := newNativeFunction(realm, name, 0, func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		if newTarget == nil {
			return nil, errors.NewType(name + " constructor cannot be invoked without 'new'")
		}
		targetProto := proto
		if pv, perr := newTarget.Get(agent, runtime.String("prototype"), newTarget); perr == nil {
			if p, ok := pv.(*runtime.Object); ok {
				targetProto = p
			}
		}
		o := runtime.NewOrdinaryObject(targetProto)
		o.Class = name
		d := &mapData{}
		o.SetInternal("mapData", d)
		if iterable := arg(args, 0); iterable != runtime.Undefined && iterable != runtime.Null {
			pairs, ierr := iterableToSlice(agent, iterable)
			if ierr != nil {
				return nil, ierr
			}
			for _, pair := range pairs {
				pairObj, ok := pair.(*runtime.Object)
				if !ok {
					return nil, errors.NewType("iterable for %s must yield [key, value] pairs", name)
				}
				k, kerr := pairObj.Get(agent, runtime.String("0"), pairObj)
				if kerr != nil {
					return nil, kerr
				}
				v, verr := pairObj.Get(agent, runtime.String("1"), pairObj)
				if verr != nil {
					return nil, verr
				}
				d.entries = append(d.entries, mapEntry{key: k, value: v})
			}
		}
		return o, nil
	})
	ctor.Construct = func(agent *runtime.Agent, _ runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return ctor.Call(agent, runtime.Undefined, newTarget, args)
	}
	ctor.DefineOwnProperty(runtime.String("prototype"), runtime.DataProperty(proto, false, false, false))
	proto.DefineOwnProperty(runtime.String("constructor"), runtime.DataProperty(ctor, true, false, true))
	return proto, ctor
}

func installMapLike(realm *runtime.Realm) {
	proto, ctor := installMapOrWeakMap(realm, "Map")

	accessor(realm, proto, "size", func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := thisArg.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("not a Map")
		}
		d, err := mapDataOf(o)
		if err != nil {
			return nil, err
		}
		return runtime.Number(float64(len(d.entries))), nil
	}, nil)

	method(realm, proto, "clear", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := thisArg.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("not a Map")
		}
		d, err := mapDataOf(o)
		if err != nil {
			return nil, err
		}
		d.entries = nil
		return runtime.Undefined, nil
	})

	method(realm, proto, "forEach", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := thisArg.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("not a Map")
		}
		d, err := mapDataOf(o)
		if err != nil {
			return nil, err
		}
		cb, ok := arg(args, 0).(*runtime.Object)
		if !ok || !cb.IsCallable() {
			return nil, errors.NewType("callback is not a function")
		}
		thisCb := arg(args, 1)
		for _, e := range d.entries {
			if _, cerr := cb.Call(agent, thisCb, nil, []runtime.Value{e.value, e.key, o}); cerr != nil {
				return nil, cerr
			}
		}
		return runtime.Undefined, nil
	})

	method(realm, proto, "keys", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := thisArg.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("not a Map")
		}
		d, err := mapDataOf(o)
		if err != nil {
			return nil, err
		}
		keys := make([]runtime.Value, len(d.entries))
		for i, e := range d.entries {
			keys[i] = e.key
		}
		return newValueIterator(realm, keys), nil
	})

	method(realm, proto, "values", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := thisArg.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("not a Map")
		}
		d, err := mapDataOf(o)
		if err != nil {
			return nil, err
		}
		values := make([]runtime.Value, len(d.entries))
		for i, e := range d.entries {
			values[i] = e.value
		}
		return newValueIterator(realm, values), nil
	})

	method(realm, proto, "entries", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := thisArg.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("not a Map")
		}
		d, err := mapDataOf(o)
		if err != nil {
			return nil, err
		}
		pairs := make([]runtime.Value, len(d.entries))
		for i, e := range d.entries {
			pairs[i] = newArray(realm, e.key, e.value)
		}
		return newValueIterator(realm, pairs), nil
	})
	symbolMethod(realm, proto, runtime.SymbolIterator, "[Symbol.iterator]", 0, func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		entriesV, err := proto.Get(agent, runtime.String("entries"), proto)
		if err != nil {
			return nil, err
		}
		return callFn(agent, entriesV, thisArg, nil)
	})

	realm.Intrinsics["%Map.prototype%"] = proto
	realm.Intrinsics["%Map%"] = ctor
	realm.StageGlobal("Map", runtime.DataProperty(ctor, true, false, true))

	weakProto, weakCtor := installMapOrWeakMap(realm, "WeakMap")
	realm.Intrinsics["%WeakMap.prototype%"] = weakProto
	realm.Intrinsics["%WeakMap%"] = weakCtor
	realm.StageGlobal("WeakMap", runtime.DataProperty(weakCtor, true, false, true))
}

func installSetOrWeakSet(realm *runtime.Realm, name string) (*runtime.Object, *runtime.Object) {
	proto := runtime.NewOrdinaryObject(realm.Intrinsics["%Object.prototype%"])
	proto.Class = name

	method(realm, proto, "add", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := thisArg.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("not a " + name)
		}
		d, err := setDataOf(o)
		if err != nil {
			return nil, err
		}
		v := arg(args, 0)
		if d.find(v) < 0 {
			d.values = append(d.values, v)
		}
		return o, nil
	})

	method(realm, proto, "has", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := thisArg.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("not a " + name)
		}
		d, err := setDataOf(o)
		if err != nil {
			return nil, err
		}
		return runtime.Boolean(d.find(arg(args, 0)) >= 0), nil
	})

	method(realm, proto, "delete", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := thisArg.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("not a " + name)
		}
		d, err := setDataOf(o)
		if err != nil {
			return nil, err
		}
		if i := d.find(arg(args, 0)); i >= 0 {
			d.values = append(d.values[:i], d.values[i+1:]...)
			return runtime.Boolean(true), nil
		}
		return runtime.Boolean(false), nil
	})

	ctor := newNativeFunction(realm, name, 0, func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		if newTarget == nil {
			return nil, errors.NewType(name + " constructor cannot be invoked without 'new'")
		}
		targetProto := proto
		if pv, perr := newTarget.Get(agent, runtime.String("prototype"), newTarget); perr == nil {
			if p, ok := pv.(*runtime.Object); ok {
				targetProto = p
			}
		}
		o := runtime.NewOrdinaryObject(targetProto)
		o.Class = name
		d := &setData{}
		o.SetInternal("setData", d)
		if iterable := arg(args, 0); iterable != runtime.Undefined && iterable != runtime.Null {
			values, ierr := iterableToSlice(agent, iterable)
			if ierr != nil {
				return nil, ierr
			}
			for _, v := range values {
				if d.find(v) < 0 {
					d.values = append(d.values, v)
				}
			}
		}
		return o, nil
	})
	ctor.Construct = func(agent *runtime.Agent, _ runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return ctor.Call(agent, runtime.Undefined, newTarget, args)
	}
	ctor.DefineOwnProperty(runtime.String("prototype"), runtime.DataProperty(proto, false, false, false))
	proto.DefineOwnProperty(runtime.String("constructor"), runtime.DataProperty(ctor, true, false, true))
	return proto, ctor
}

func installSetLike(realm *runtime.Realm) {
	proto, ctor := installSetOrWeakSet(realm, "Set")

	accessor(realm, proto, "size", func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := thisArg.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("not a Set")
		}
		d, err := setDataOf(o)
		if err != nil {
			return nil, err
		}
		return runtime.Number(float64(len(d.values))), nil
	}, nil)

	method(realm, proto, "clear", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := thisArg.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("not a Set")
		}
		d, err := setDataOf(o)
		if err != nil {
			return nil, err
		}
		d.values = nil
		return runtime.Undefined, nil
	})

	method(realm, proto, "forEach", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := thisArg.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("not a Set")
		}
		d, err := setDataOf(o)
		if err != nil {
			return nil, err
		}
		cb, ok := arg(args, 0).(*runtime.Object)
		if !ok || !cb.IsCallable() {
			return nil, errors.NewType("callback is not a function")
		}
		thisCb := arg(args, 1)
		for _, v := range d.values {
			if _, cerr := cb.Call(agent, thisCb, nil, []runtime.Value{v, v, o}); cerr != nil {
				return nil, cerr
			}
		}
		return runtime.Undefined, nil
	})

	method(realm, proto, "values", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := thisArg.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("not a Set")
		}
		d, err := setDataOf(o)
		if err != nil {
			return nil, err
		}
		return newValueIterator(realm, append([]runtime.Value(nil), d.values...)), nil
	})
	proto.DefineOwnProperty(runtime.String("keys"), must(proto.GetOwnProperty(runtime.String("values"))))
	symbolMethod(realm, proto, runtime.SymbolIterator, "[Symbol.iterator]", 0, func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		valuesV, err := proto.Get(agent, runtime.String("values"), proto)
		if err != nil {
			return nil, err
		}
		return callFn(agent, valuesV, thisArg, nil)
	})

	realm.Intrinsics["%Set.prototype%"] = proto
	realm.Intrinsics["%Set%"] = ctor
	realm.StageGlobal("Set", runtime.DataProperty(ctor, true, false, true))

	weakProto, weakCtor := installSetOrWeakSet(realm, "WeakSet")
	realm.Intrinsics["%WeakSet.prototype%"] = weakProto
	realm.Intrinsics["%WeakSet%"] = weakCtor
	realm.StageGlobal("WeakSet", runtime.DataProperty(weakCtor, true, false, true))
}

// newValueIterator builds a one-shot iterator object over a fixed slice
// of values, the shape Map/Set's keys/values/entries methods all share.
func newValueIterator(realm *runtime.Realm, values []runtime.Value) *runtime.Object {
	it := newPlainObject(realm)
	idx := 0
	method(realm, it, "next", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		r := newPlainObject(realm)
		if idx >= len(values) {
			r.DefineOwnProperty(runtime.String("value"), runtime.DataProperty(runtime.Undefined, true, true, true))
			r.DefineOwnProperty(runtime.String("done"), runtime.DataProperty(runtime.Boolean(true), true, true, true))
			return r, nil
		}
		v := values[idx]
		idx++
		r.DefineOwnProperty(runtime.String("value"), runtime.DataProperty(v, true, true, true))
		r.DefineOwnProperty(runtime.String("done"), runtime.DataProperty(runtime.Boolean(false), true, true, true))
		return r, nil
	})
	symbolMethod(realm, it, runtime.SymbolIterator, "[Symbol.iterator]", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return thisArg, nil
	})
	return it
}

func must(d *runtime.PropertyDescriptor) runtime.PropertyDescriptor {
	if d == nil {
		return runtime.PropertyDescriptor{}
	}
	return *d
}

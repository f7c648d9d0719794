package intrinsics

import (
	"sort"

	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
)

// ArrayPlugin installs %Array.prototype%'s mutator/accessor/iteration
// methods and the %Array% constructor, grounded on the teacher's
// internal/builtins array-helper conventions (one native method per Go
// closure, sharing arg/thisObject helpers).
var ArrayPlugin = newPlugin("array", []string{"object", "function"}, func(realm *runtime.Realm) *errors.LanguageError {
	proto := runtime.NewArrayObject(realm.Intrinsics["%Object.prototype%"])
	realm.Intrinsics["%Array.prototype%"] = proto

	method(realm, proto, "push", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		n, err := arrLen(agent, o)
		if err != nil {
			return nil, err
		}
		for _, v := range args {
			if !o.DefineOwnProperty(runtime.String(itoa(n)), runtime.DataProperty(v, true, true, true)) {
				return nil, errors.NewType("cannot add property, array is not extensible")
			}
			n++
		}
		if _, err := o.Set(agent, runtime.String("length"), runtime.Number(float64(n)), o); err != nil {
			return nil, err
		}
		return runtime.Number(float64(n)), nil
	})

	method(realm, proto, "pop", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		n, err := arrLen(agent, o)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return runtime.Undefined, nil
		}
		key := runtime.String(itoa(n - 1))
		v, err := o.Get(agent, key, o)
		if err != nil {
			return nil, err
		}
		o.Delete(key)
		if _, err := o.Set(agent, runtime.String("length"), runtime.Number(float64(n-1)), o); err != nil {
			return nil, err
		}
		return v, nil
	})

	method(realm, proto, "shift", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		n, err := arrLen(agent, o)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return runtime.Undefined, nil
		}
		first, err := o.Get(agent, runtime.String("0"), o)
		if err != nil {
			return nil, err
		}
		for i := 1; i < n; i++ {
			v, err := o.Get(agent, runtime.String(itoa(i)), o)
			if err != nil {
				return nil, err
			}
			if _, err := o.Set(agent, runtime.String(itoa(i-1)), v, o); err != nil {
				return nil, err
			}
		}
		o.Delete(runtime.String(itoa(n - 1)))
		if _, err := o.Set(agent, runtime.String("length"), runtime.Number(float64(n-1)), o); err != nil {
			return nil, err
		}
		return first, nil
	})

	method(realm, proto, "unshift", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		n, err := arrLen(agent, o)
		if err != nil {
			return nil, err
		}
		k := len(args)
		for i := n - 1; i >= 0; i-- {
			v, err := o.Get(agent, runtime.String(itoa(i)), o)
			if err != nil {
				return nil, err
			}
			if _, err := o.Set(agent, runtime.String(itoa(i+k)), v, o); err != nil {
				return nil, err
			}
		}
		for i, v := range args {
			if _, err := o.Set(agent, runtime.String(itoa(i)), v, o); err != nil {
				return nil, err
			}
		}
		if _, err := o.Set(agent, runtime.String("length"), runtime.Number(float64(n+k)), o); err != nil {
			return nil, err
		}
		return runtime.Number(float64(n + k)), nil
	})

	method(realm, proto, "slice", 2, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		n, err := arrLen(agent, o)
		if err != nil {
			return nil, err
		}
		start, errS := relativeIndex(agent, arg(args, 0), n, 0)
		if errS != nil {
			return nil, errS
		}
		end, errE := relativeIndex(agent, arg(args, 1), n, n)
		if errE != nil {
			return nil, errE
		}
		var out []runtime.Value
		for i := start; i < end; i++ {
			v, err := o.Get(agent, runtime.String(itoa(i)), o)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return newArray(realm, out...), nil
	})

	method(realm, proto, "splice", 2, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		n, err := arrLen(agent, o)
		if err != nil {
			return nil, err
		}
		start, errS := relativeIndex(agent, arg(args, 0), n, 0)
		if errS != nil {
			return nil, errS
		}
		deleteCount := n - start
		if len(args) >= 2 {
			dc, err := runtime.ToIntegerOrInfinity(agent, args[1])
			if err != nil {
				return nil, err
			}
			if dc < 0 {
				dc = 0
			}
			if int(dc) < deleteCount {
				deleteCount = int(dc)
			}
		}
		var items []runtime.Value
		if len(args) > 2 {
			items = args[2:]
		}

		var removed []runtime.Value
		for i := 0; i < deleteCount; i++ {
			v, err := o.Get(agent, runtime.String(itoa(start+i)), o)
			if err != nil {
				return nil, err
			}
			removed = append(removed, v)
		}

		shift := len(items) - deleteCount
		if shift < 0 {
			for i := start + deleteCount; i < n; i++ {
				v, err := o.Get(agent, runtime.String(itoa(i)), o)
				if err != nil {
					return nil, err
				}
				if _, err := o.Set(agent, runtime.String(itoa(i+shift)), v, o); err != nil {
					return nil, err
				}
			}
			for i := n + shift; i < n; i++ {
				o.Delete(runtime.String(itoa(i)))
			}
		} else if shift > 0 {
			for i := n - 1; i >= start+deleteCount; i-- {
				v, err := o.Get(agent, runtime.String(itoa(i)), o)
				if err != nil {
					return nil, err
				}
				if _, err := o.Set(agent, runtime.String(itoa(i+shift)), v, o); err != nil {
					return nil, err
				}
			}
		}
		for i, v := range items {
			if _, err := o.Set(agent, runtime.String(itoa(start+i)), v, o); err != nil {
				return nil, err
			}
		}
		if _, err := o.Set(agent, runtime.String("length"), runtime.Number(float64(n+shift)), o); err != nil {
			return nil, err
		}
		return newArray(realm, removed...), nil
	})

	method(realm, proto, "concat", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		var out []runtime.Value
		items := append([]runtime.Value{o}, args...)
		for _, item := range items {
			if io, ok := item.(*runtime.Object); ok && io.Exotic == runtime.ExoticArray {
				n, err := arrLen(agent, io)
				if err != nil {
					return nil, err
				}
				for i := 0; i < n; i++ {
					v, err := io.Get(agent, runtime.String(itoa(i)), io)
					if err != nil {
						return nil, err
					}
					out = append(out, v)
				}
			} else {
				out = append(out, item)
			}
		}
		return newArray(realm, out...), nil
	})

	method(realm, proto, "join", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		sep := ","
		if s := arg(args, 0); s != runtime.Undefined {
			sv, err := runtime.ToStringValue(agent, s)
			if err != nil {
				return nil, err
			}
			sep = string(sv)
		}
		n, err := arrLen(agent, o)
		if err != nil {
			return nil, err
		}
		result := ""
		for i := 0; i < n; i++ {
			if i > 0 {
				result += sep
			}
			v, err := o.Get(agent, runtime.String(itoa(i)), o)
			if err != nil {
				return nil, err
			}
			if isNullishValue(v) {
				continue
			}
			sv, err := runtime.ToStringValue(agent, v)
			if err != nil {
				return nil, err
			}
			result += string(sv)
		}
		return runtime.String(result), nil
	})

	method(realm, proto, "reverse", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		n, err := arrLen(agent, o)
		if err != nil {
			return nil, err
		}
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			vi, err := o.Get(agent, runtime.String(itoa(i)), o)
			if err != nil {
				return nil, err
			}
			vj, err := o.Get(agent, runtime.String(itoa(j)), o)
			if err != nil {
				return nil, err
			}
			if _, err := o.Set(agent, runtime.String(itoa(i)), vj, o); err != nil {
				return nil, err
			}
			if _, err := o.Set(agent, runtime.String(itoa(j)), vi, o); err != nil {
				return nil, err
			}
		}
		return o, nil
	})

	method(realm, proto, "indexOf", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		n, err := arrLen(agent, o)
		if err != nil {
			return nil, err
		}
		target := arg(args, 0)
		for i := 0; i < n; i++ {
			v, err := o.Get(agent, runtime.String(itoa(i)), o)
			if err != nil {
				return nil, err
			}
			if runtime.StrictEquals(v, target) {
				return runtime.Number(float64(i)), nil
			}
		}
		return runtime.Number(-1), nil
	})

	method(realm, proto, "includes", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		n, err := arrLen(agent, o)
		if err != nil {
			return nil, err
		}
		target := arg(args, 0)
		for i := 0; i < n; i++ {
			v, err := o.Get(agent, runtime.String(itoa(i)), o)
			if err != nil {
				return nil, err
			}
			if sameValueZero(v, target) {
				return runtime.Boolean(true), nil
			}
		}
		return runtime.Boolean(false), nil
	})

	installIterationMethod(realm, proto, "forEach", func(agent *runtime.Agent, o *runtime.Object, i int, v runtime.Value, cb runtime.Value, cbThis runtime.Value, out *[]runtime.Value) *errors.LanguageError {
		_, err := callFn(agent, cb, cbThis, []runtime.Value{v, runtime.Number(float64(i)), o})
		return err
	})

	method(realm, proto, "map", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		n, err := arrLen(agent, o)
		if err != nil {
			return nil, err
		}
		cb := arg(args, 0)
		cbThis := arg(args, 1)
		out := make([]runtime.Value, n)
		for i := 0; i < n; i++ {
			v, err := o.Get(agent, runtime.String(itoa(i)), o)
			if err != nil {
				return nil, err
			}
			r, err := callFn(agent, cb, cbThis, []runtime.Value{v, runtime.Number(float64(i)), o})
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return newArray(realm, out...), nil
	})

	method(realm, proto, "filter", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		n, err := arrLen(agent, o)
		if err != nil {
			return nil, err
		}
		cb := arg(args, 0)
		cbThis := arg(args, 1)
		var out []runtime.Value
		for i := 0; i < n; i++ {
			v, err := o.Get(agent, runtime.String(itoa(i)), o)
			if err != nil {
				return nil, err
			}
			r, err := callFn(agent, cb, cbThis, []runtime.Value{v, runtime.Number(float64(i)), o})
			if err != nil {
				return nil, err
			}
			if runtime.ToBoolean(r) {
				out = append(out, v)
			}
		}
		return newArray(realm, out...), nil
	})

	method(realm, proto, "find", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		n, err := arrLen(agent, o)
		if err != nil {
			return nil, err
		}
		cb := arg(args, 0)
		cbThis := arg(args, 1)
		for i := 0; i < n; i++ {
			v, err := o.Get(agent, runtime.String(itoa(i)), o)
			if err != nil {
				return nil, err
			}
			r, err := callFn(agent, cb, cbThis, []runtime.Value{v, runtime.Number(float64(i)), o})
			if err != nil {
				return nil, err
			}
			if runtime.ToBoolean(r) {
				return v, nil
			}
		}
		return runtime.Undefined, nil
	})

	method(realm, proto, "findIndex", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		n, err := arrLen(agent, o)
		if err != nil {
			return nil, err
		}
		cb := arg(args, 0)
		cbThis := arg(args, 1)
		for i := 0; i < n; i++ {
			v, err := o.Get(agent, runtime.String(itoa(i)), o)
			if err != nil {
				return nil, err
			}
			r, err := callFn(agent, cb, cbThis, []runtime.Value{v, runtime.Number(float64(i)), o})
			if err != nil {
				return nil, err
			}
			if runtime.ToBoolean(r) {
				return runtime.Number(float64(i)), nil
			}
		}
		return runtime.Number(-1), nil
	})

	method(realm, proto, "some", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		n, err := arrLen(agent, o)
		if err != nil {
			return nil, err
		}
		cb := arg(args, 0)
		cbThis := arg(args, 1)
		for i := 0; i < n; i++ {
			v, err := o.Get(agent, runtime.String(itoa(i)), o)
			if err != nil {
				return nil, err
			}
			r, err := callFn(agent, cb, cbThis, []runtime.Value{v, runtime.Number(float64(i)), o})
			if err != nil {
				return nil, err
			}
			if runtime.ToBoolean(r) {
				return runtime.Boolean(true), nil
			}
		}
		return runtime.Boolean(false), nil
	})

	method(realm, proto, "every", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		n, err := arrLen(agent, o)
		if err != nil {
			return nil, err
		}
		cb := arg(args, 0)
		cbThis := arg(args, 1)
		for i := 0; i < n; i++ {
			v, err := o.Get(agent, runtime.String(itoa(i)), o)
			if err != nil {
				return nil, err
			}
			r, err := callFn(agent, cb, cbThis, []runtime.Value{v, runtime.Number(float64(i)), o})
			if err != nil {
				return nil, err
			}
			if !runtime.ToBoolean(r) {
				return runtime.Boolean(false), nil
			}
		}
		return runtime.Boolean(true), nil
	})

	method(realm, proto, "reduce", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		n, err := arrLen(agent, o)
		if err != nil {
			return nil, err
		}
		cb := arg(args, 0)
		i := 0
		var acc runtime.Value
		if len(args) > 1 {
			acc = args[1]
		} else {
			if n == 0 {
				return nil, errors.NewType("Reduce of empty array with no initial value")
			}
			acc, err = o.Get(agent, runtime.String("0"), o)
			if err != nil {
				return nil, err
			}
			i = 1
		}
		for ; i < n; i++ {
			v, err := o.Get(agent, runtime.String(itoa(i)), o)
			if err != nil {
				return nil, err
			}
			acc, err = callFn(agent, cb, runtime.Undefined, []runtime.Value{acc, v, runtime.Number(float64(i)), o})
			if err != nil {
				return nil, err
			}
		}
		return acc, nil
	})

	method(realm, proto, "sort", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		n, err := arrLen(agent, o)
		if err != nil {
			return nil, err
		}
		cmp := arg(args, 0)
		values := make([]runtime.Value, n)
		for i := 0; i < n; i++ {
			v, err := o.Get(agent, runtime.String(itoa(i)), o)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		var sortErr *errors.LanguageError
		sort.SliceStable(values, func(i, j int) bool {
			if sortErr != nil {
				return false
			}
			if cmp != runtime.Undefined {
				r, err := callFn(agent, cmp, runtime.Undefined, []runtime.Value{values[i], values[j]})
				if err != nil {
					sortErr = err
					return false
				}
				n, err := runtime.ToNumber(agent, r)
				if err != nil {
					sortErr = err
					return false
				}
				return float64(n) < 0
			}
			si, err := runtime.ToStringValue(agent, values[i])
			if err != nil {
				sortErr = err
				return false
			}
			sj, err := runtime.ToStringValue(agent, values[j])
			if err != nil {
				sortErr = err
				return false
			}
			return si < sj
		})
		if sortErr != nil {
			return nil, sortErr
		}
		for i, v := range values {
			if _, err := o.Set(agent, runtime.String(itoa(i)), v, o); err != nil {
				return nil, err
			}
		}
		return o, nil
	})

	method(realm, proto, "flat", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		depth := 1
		if d := arg(args, 0); d != runtime.Undefined {
			dv, err := runtime.ToIntegerOrInfinity(agent, d)
			if err != nil {
				return nil, err
			}
			depth = int(dv)
		}
		out, err := flattenInto(agent, o, depth)
		if err != nil {
			return nil, err
		}
		return newArray(realm, out...), nil
	})

	symbolMethod(realm, proto, runtime.SymbolIterator, "[Symbol.iterator]", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		return newArrayIterator(realm, o), nil
	})

	ctor := newNativeFunction(realm, "Array", 1, func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		if len(args) == 1 {
			if n, ok := args[0].(runtime.Number); ok {
				arr := runtime.NewArrayObject(proto)
				if _, err := arr.Set(agent, runtime.String("length"), n, arr); err != nil {
					return nil, err
				}
				return arr, nil
			}
		}
		return newArray(realm, args...), nil
	})
	ctor.Construct = ctor.Call
	ctor.DefineOwnProperty(runtime.String("prototype"), runtime.DataProperty(proto, false, false, false))
	proto.DefineOwnProperty(runtime.String("constructor"), runtime.DataProperty(ctor, true, false, true))

	method(realm, ctor, "isArray", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := arg(args, 0).(*runtime.Object)
		return runtime.Boolean(ok && o.Exotic == runtime.ExoticArray), nil
	})

	method(realm, ctor, "of", 0, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return newArray(realm, args...), nil
	})

	method(realm, ctor, "from", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		src := arg(args, 0)
		mapFn := arg(args, 1)
		if src == runtime.Undefined || src == runtime.Null {
			return nil, errors.NewType("Array.from called on null or undefined")
		}
		if o, ok := src.(*runtime.Object); ok {
			if iterV, err := o.Get(agent, runtime.SymbolIterator, o); err == nil && iterV != runtime.Undefined {
				values, err := iterableToSlice(agent, src)
				if err != nil {
					return nil, err
				}
				return applyFromMapFn(agent, realm, values, mapFn)
			}
			values, err := arrayLikeToSlice(agent, o)
			if err != nil {
				return nil, err
			}
			return applyFromMapFn(agent, realm, values, mapFn)
		}
		return newArray(realm), nil
	})

	realm.Intrinsics["%Array%"] = ctor
	realm.StageGlobal("Array", runtime.DataProperty(ctor, true, false, true))
	return nil
})

func arrLen(agent *runtime.Agent, o *runtime.Object) (int, *errors.LanguageError) {
	v, err := o.Get(agent, runtime.String("length"), o)
	if err != nil {
		return 0, err
	}
	n, err := runtime.ToIntegerOrInfinity(agent, v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		n = 0
	}
	return int(n), nil
}

func relativeIndex(agent *runtime.Agent, v runtime.Value, length int, def int) (int, *errors.LanguageError) {
	if v == runtime.Undefined {
		return def, nil
	}
	n, err := runtime.ToIntegerOrInfinity(agent, v)
	if err != nil {
		return 0, err
	}
	idx := int(n)
	if idx < 0 {
		idx += length
	}
	if idx < 0 {
		idx = 0
	}
	if idx > length {
		idx = length
	}
	return idx, nil
}

func isNullishValue(v runtime.Value) bool {
	return v == runtime.Undefined || v == runtime.Null
}

func sameValueZero(a, b runtime.Value) bool {
	if an, ok := a.(runtime.Number); ok {
		if bn, ok := b.(runtime.Number); ok {
			if an != an && bn != bn { // both NaN
				return true
			}
		}
	}
	return runtime.StrictEquals(a, b)
}

func flattenInto(agent *runtime.Agent, o *runtime.Object, depth int) ([]runtime.Value, *errors.LanguageError) {
	n, err := arrLen(agent, o)
	if err != nil {
		return nil, err
	}
	var out []runtime.Value
	for i := 0; i < n; i++ {
		v, err := o.Get(agent, runtime.String(itoa(i)), o)
		if err != nil {
			return nil, err
		}
		if inner, ok := v.(*runtime.Object); ok && inner.Exotic == runtime.ExoticArray && depth > 0 {
			flat, err := flattenInto(agent, inner, depth-1)
			if err != nil {
				return nil, err
			}
			out = append(out, flat...)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func iterableToSlice(agent *runtime.Agent, v runtime.Value) ([]runtime.Value, *errors.LanguageError) {
	it, err := runtime.GetIterator(agent, v, false)
	if err != nil {
		return nil, err
	}
	return runtime.IteratorToSlice(agent, it)
}

func applyFromMapFn(agent *runtime.Agent, realm *runtime.Realm, values []runtime.Value, mapFn runtime.Value) (runtime.Value, *errors.LanguageError) {
	if mapFn == runtime.Undefined {
		return newArray(realm, values...), nil
	}
	out := make([]runtime.Value, len(values))
	for i, v := range values {
		r, err := callFn(agent, mapFn, runtime.Undefined, []runtime.Value{v, runtime.Number(float64(i))})
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return newArray(realm, out...), nil
}

// installIterationMethod is a thin shim kept for forEach's callback
// signature parity with map/filter/etc.; forEach discards the callback's
// return value rather than collecting it.
func installIterationMethod(realm *runtime.Realm, proto *runtime.Object, name string, step func(agent *runtime.Agent, o *runtime.Object, i int, v runtime.Value, cb runtime.Value, cbThis runtime.Value, out *[]runtime.Value) *errors.LanguageError) {
	method(realm, proto, name, 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		n, err := arrLen(agent, o)
		if err != nil {
			return nil, err
		}
		cb := arg(args, 0)
		cbThis := arg(args, 1)
		for i := 0; i < n; i++ {
			v, err := o.Get(agent, runtime.String(itoa(i)), o)
			if err != nil {
				return nil, err
			}
			if err := step(agent, o, i, v, cb, cbThis, nil); err != nil {
				return nil, err
			}
		}
		return runtime.Undefined, nil
	})
}

// newArrayIterator builds a plain iterator object (a "next" method
// closing over an index) implementing the iterator result protocol,
// used by Array.prototype[Symbol.iterator].
func newArrayIterator(realm *runtime.Realm, o *runtime.Object) *runtime.Object {
	iter := newPlainObject(realm)
	i := 0
	method(realm, iter, "next", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		n, err := arrLen(agent, o)
		if err != nil {
			return nil, err
		}
		result := newPlainObject(realm)
		if i >= n {
			result.DefineOwnProperty(runtime.String("done"), runtime.DataProperty(runtime.Boolean(true), true, true, true))
			result.DefineOwnProperty(runtime.String("value"), runtime.DataProperty(runtime.Undefined, true, true, true))
			return result, nil
		}
		v, err := o.Get(agent, runtime.String(itoa(i)), o)
		if err != nil {
			return nil, err
		}
		i++
		result.DefineOwnProperty(runtime.String("done"), runtime.DataProperty(runtime.Boolean(false), true, true, true))
		result.DefineOwnProperty(runtime.String("value"), runtime.DataProperty(v, true, true, true))
		return result, nil
	})
	symbolMethod(realm, iter, runtime.SymbolIterator, "[Symbol.iterator]", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return iter, nil
	})
	return iter
}

package runtime

// toPropertyDescriptorObject implements FromPropertyDescriptor: it
// renders a PropertyDescriptor as a plain language object with the
// subset of {value, writable, get, set, enumerable, configurable} keys
// that apply to its kind, per spec.md §4.2 (used by the proxy
// `defineProperty` trap call, which must hand the descriptor to the
// trap as an object).
func toPropertyDescriptorObject(agent *Agent, realm *Realm, desc PropertyDescriptor) Value {
	var proto *Object
	if realm != nil {
		proto = realm.Intrinsics["%Object.prototype%"]
	}
	o := NewOrdinaryObject(proto)
	if desc.IsDataDescriptor() {
		v := desc.Value
		if v == nil {
			v = Undefined
		}
		o.DefineOwnProperty(String("value"), DataProperty(v, true, true, true))
		o.DefineOwnProperty(String("writable"), DataProperty(Bool(desc.IsWritable()), true, true, true))
	} else if desc.IsAccessorDescriptor() {
		var get, set Value = Undefined, Undefined
		if desc.Get != nil {
			get = desc.Get
		}
		if desc.Set != nil {
			set = desc.Set
		}
		o.DefineOwnProperty(String("get"), DataProperty(get, true, true, true))
		o.DefineOwnProperty(String("set"), DataProperty(set, true, true, true))
	}
	o.DefineOwnProperty(String("enumerable"), DataProperty(Bool(desc.IsEnumerable()), true, true, true))
	o.DefineOwnProperty(String("configurable"), DataProperty(Bool(desc.IsConfigurable()), true, true, true))
	return o
}

// fromPropertyDescriptorObject implements ToPropertyDescriptor: it reads
// a plain language object's {value, writable, get, set, enumerable,
// configurable} keys (any subset; absent keys stay nil/unset on the
// returned descriptor) back into a PropertyDescriptor, per spec.md §4.2.
// Malformed get/set (present but not callable-or-undefined) are ignored
// rather than erroring, leaving stricter validation to callers that
// route through Object.defineProperty's full abstract operation.
func fromPropertyDescriptorObject(agent *Agent, descObj *Object) PropertyDescriptor {
	var out PropertyDescriptor
	if descObj == nil {
		return out
	}
	if descObj.HasProperty(String("value")) {
		v, _ := descObj.Get(agent, String("value"), descObj)
		out.Value = v
	}
	if descObj.HasProperty(String("writable")) {
		v, _ := descObj.Get(agent, String("writable"), descObj)
		out.Writable = boolPtr(ToBoolean(v))
	}
	if descObj.HasProperty(String("get")) {
		v, _ := descObj.Get(agent, String("get"), descObj)
		if fn, ok := v.(*Object); ok && fn.IsCallable() {
			out.Get = fn
		}
	}
	if descObj.HasProperty(String("set")) {
		v, _ := descObj.Get(agent, String("set"), descObj)
		if fn, ok := v.(*Object); ok && fn.IsCallable() {
			out.Set = fn
		}
	}
	if descObj.HasProperty(String("enumerable")) {
		v, _ := descObj.Get(agent, String("enumerable"), descObj)
		out.Enumerable = boolPtr(ToBoolean(v))
	}
	if descObj.HasProperty(String("configurable")) {
		v, _ := descObj.Get(agent, String("configurable"), descObj)
		out.Configurable = boolPtr(ToBoolean(v))
	}
	return out
}

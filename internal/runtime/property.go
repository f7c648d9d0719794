package runtime

// PropertyDescriptor is the partial attribute-tuple record of spec.md §3.
// Fields are pointers so "absent" (not yet supplied) is distinguishable
// from "present but false/undefined", matching the spec's completion
// rule that fills absent attributes with defaults only once the
// descriptor is accepted, not before — callers that want the filled-in
// form should go through CompleteDescriptor.
type PropertyDescriptor struct {
	Value        Value
	Get          *Object
	Set          *Object
	Writable     *bool
	Enumerable   *bool
	Configurable *bool
}

// IsDataDescriptor reports whether d defines Value and/or Writable.
func (d *PropertyDescriptor) IsDataDescriptor() bool {
	if d == nil {
		return false
	}
	return d.Value != nil || d.Writable != nil
}

// IsAccessorDescriptor reports whether d defines Get and/or Set.
func (d *PropertyDescriptor) IsAccessorDescriptor() bool {
	if d == nil {
		return false
	}
	return d.Get != nil || d.Set != nil
}

// IsGenericDescriptor reports whether d defines neither data nor accessor
// fields (only enumerable/configurable), i.e. it only patches attributes.
func (d *PropertyDescriptor) IsGenericDescriptor() bool {
	return d != nil && !d.IsDataDescriptor() && !d.IsAccessorDescriptor()
}

func boolPtr(b bool) *bool { return &b }

// CompleteDescriptor fills every absent attribute with its default
// (value: undefined, writable/enumerable/configurable: false), per the
// "Completion of a descriptor" rule of spec.md §3. The returned
// descriptor is always fully populated and safe to store as an own
// property's descriptor.
func CompleteDescriptor(d PropertyDescriptor) PropertyDescriptor {
	out := d
	if out.IsAccessorDescriptor() {
		out.Value = nil
		out.Writable = nil
	} else {
		if out.Value == nil {
			out.Value = Undefined
		}
		if out.Writable == nil {
			out.Writable = boolPtr(false)
		}
	}
	if out.Enumerable == nil {
		out.Enumerable = boolPtr(false)
	}
	if out.Configurable == nil {
		out.Configurable = boolPtr(false)
	}
	return out
}

// DataProperty builds a completed data-property descriptor, the common
// case used by intrinsic setup code.
func DataProperty(v Value, writable, enumerable, configurable bool) PropertyDescriptor {
	return PropertyDescriptor{
		Value:        v,
		Writable:     boolPtr(writable),
		Enumerable:   boolPtr(enumerable),
		Configurable: boolPtr(configurable),
	}
}

// AccessorProperty builds a completed accessor-property descriptor.
func AccessorProperty(get, set *Object, enumerable, configurable bool) PropertyDescriptor {
	return PropertyDescriptor{
		Get:          get,
		Set:          set,
		Enumerable:   boolPtr(enumerable),
		Configurable: boolPtr(configurable),
	}
}

func boolVal(p *bool) bool { return p != nil && *p }

// IsWritable, IsEnumerable, IsConfigurable read an attribute with the
// "absent means false" default, for descriptors that have not gone
// through CompleteDescriptor (e.g. the argument to DefineOwnProperty
// before the compatibility table has been applied).
func (d *PropertyDescriptor) IsWritable() bool     { return d != nil && boolVal(d.Writable) }
func (d *PropertyDescriptor) IsEnumerable() bool   { return d != nil && boolVal(d.Enumerable) }
func (d *PropertyDescriptor) IsConfigurable() bool { return d != nil && boolVal(d.Configurable) }

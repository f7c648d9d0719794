package runtime

// ArgumentBinding links a mapped arguments index to the function-scope
// variable it mirrors (spec.md §4.2, "arguments mapped/unmapped"). A
// write through arguments[i] updates the bound variable and vice versa,
// for as long as the mapping is alive; `delete arguments[i]` or
// redefining the property severs the link (spec.md §4.2's "linked
// binding").
type ArgumentBinding struct {
	env  *DeclarativeEnvironment
	name string
}

// NewArgumentBinding links arguments index to the variable `name` inside
// env, for the evaluator's function-call setup to populate the mapped
// slice NewArgumentsObject expects.
func NewArgumentBinding(env *DeclarativeEnvironment, name string) *ArgumentBinding {
	return &ArgumentBinding{env: env, name: name}
}

// NewArgumentsObject allocates an arguments object. mapped is non-nil
// only for simple-parameter-list, non-strict functions (spec.md §4.4);
// its length matches the formal parameter count, with index i backed by
// mapped[i] when non-nil.
func NewArgumentsObject(args []Value, mapped []*ArgumentBinding, proto *Object) *Object {
	o := &Object{
		Proto:      proto,
		Extensible: true,
		Exotic:     ExoticArguments,
		Class:      "Arguments",
		props:      newOrderedProperties(),
	}
	for i, v := range args {
		o.props.set(itoaUint32(uint32(i)), descPtr(DataProperty(v, true, true, true)))
	}
	o.props.set("length", descPtr(DataProperty(Number(float64(len(args))), true, false, true)))
	if mapped != nil {
		o.SetInternal("argumentsMap", mapped)
	}
	return o
}

func argumentsMap(o *Object) []*ArgumentBinding {
	v, ok := o.GetInternal("argumentsMap")
	if !ok {
		return nil
	}
	return v.([]*ArgumentBinding)
}

// argumentsGetOwnProperty reflects the current value of a linked
// variable for a mapped index before returning the stored descriptor,
// since the function body may have reassigned the variable since the
// arguments object's own property was last synced.
func argumentsGetOwnProperty(o *Object, key Value) *PropertyDescriptor {
	keyStr, ok := key.(String)
	if !ok {
		return nil
	}
	idx, ok := IsArrayIndex(string(keyStr))
	if !ok {
		return nil
	}
	m := argumentsMap(o)
	if int(idx) >= len(m) || m[idx] == nil {
		return nil
	}
	v, ok := m[idx].env.GetBindingValue(m[idx].name)
	if !ok {
		return nil
	}
	d, has := o.props.get(string(keyStr))
	if !has {
		return nil
	}
	cp := *d
	cp.Value = v
	return &cp
}

// argumentsDelete severs a mapped index's link before the normal delete
// proceeds (the "poison" half of mapped-arguments semantics: once
// deleted, later writes to the linked variable no longer show through
// arguments[i], per spec.md §9(b)).
func argumentsDelete(o *Object, key Value) {
	keyStr, ok := key.(String)
	if !ok {
		return
	}
	idx, ok := IsArrayIndex(string(keyStr))
	if !ok {
		return
	}
	m := argumentsMap(o)
	if int(idx) < len(m) {
		m[idx] = nil
	}
}

// SyncMappedArgument writes value both to the arguments object's own
// property and through to the linked variable, keeping both views
// consistent the way an assignment to either one must per spec.md §4.2.
func SyncMappedArgument(o *Object, index uint32, value Value) {
	m := argumentsMap(o)
	if int(index) < len(m) && m[index] != nil {
		_ = m[index].env.SetMutableBinding(m[index].name, value, false)
	}
	o.props.set(itoaUint32(index), descPtr(DataProperty(value, true, true, true)))
}

// argumentsDefineOwnProperty implements the mapped-arguments half of
// [[DefineOwnProperty]] (spec.md §4.2): the ordinary algorithm decides
// whether the change is accepted at all, and on acceptance a mapped
// index either stays linked (a plain data write, synced through to the
// bound variable via SyncMappedArgument) or is severed (an accessor
// descriptor, or a write that turns the slot non-writable), the same
// "redefine to unmap" rule argumentsDelete applies for `delete`.
func argumentsDefineOwnProperty(o *Object, key Value, desc PropertyDescriptor) bool {
	keyStr, isStr := key.(String)
	var idx uint32
	var mapped bool
	if isStr {
		if i, ok := IsArrayIndex(string(keyStr)); ok {
			m := argumentsMap(o)
			mapped = int(i) < len(m) && m[i] != nil
			idx = i
		}
	}

	if !ordinaryDefineOwnProperty(o, key, desc) {
		return false
	}

	if !mapped {
		return true
	}
	switch {
	case desc.IsAccessorDescriptor():
		argumentsDelete(o, key)
	case desc.Writable != nil && !*desc.Writable:
		argumentsDelete(o, key)
	case desc.Value != nil:
		SyncMappedArgument(o, idx, desc.Value)
	}
	return true
}

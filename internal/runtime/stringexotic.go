package runtime

import "unicode/utf16"

// NewStringObject allocates an exotic String wrapper object (`new
// String("abc")` / the implicit boxing ToObject performs on a string
// primitive). Indices 0..len-1 are virtual read-only character
// properties and "length" is a non-writable own data property, per
// spec.md §4.2.
func NewStringObject(s String, proto *Object) *Object {
	o := &Object{
		Proto:         proto,
		Extensible:    true,
		Exotic:        ExoticStringObject,
		Class:         "String",
		props:         newOrderedProperties(),
		PrimitiveData: s,
	}
	units := utf16.Encode([]rune(string(s)))
	o.props.set("length", descPtr(DataProperty(Number(float64(len(units))), false, false, false)))
	return o
}

func stringUnits(o *Object) []uint16 {
	s, _ := o.PrimitiveData.(String)
	return utf16.Encode([]rune(string(s)))
}

// stringExoticGetOwnProperty synthesizes a virtual character-property
// descriptor for an in-range numeric index; real own properties (set by
// DefineOwnProperty elsewhere, e.g. user-added expando properties) take
// priority and are looked up by the caller before falling back here.
func stringExoticGetOwnProperty(o *Object, key Value) *PropertyDescriptor {
	keyStr, ok := key.(String)
	if !ok {
		return nil
	}
	idx, ok := IsArrayIndex(string(keyStr))
	if !ok {
		return nil
	}
	units := stringUnits(o)
	if int(idx) >= len(units) {
		return nil
	}
	ch := string(utf16.Decode(units[idx : idx+1]))
	return &PropertyDescriptor{
		Value:        String(ch),
		Writable:     boolPtr(false),
		Enumerable:   boolPtr(true),
		Configurable: boolPtr(false),
	}
}

// stringExoticDefineOwnProperty rejects any attempt to redefine an
// in-range virtual character property (handled==true, ok==false) and
// defers everything else to ordinary semantics (handled==false).
func stringExoticDefineOwnProperty(o *Object, key Value, desc PropertyDescriptor) (ok bool, handled bool) {
	if d := stringExoticGetOwnProperty(o, key); d != nil {
		return validateAndApplyDescriptor(nil, key, o.Extensible, desc, d), true
	}
	return false, false
}

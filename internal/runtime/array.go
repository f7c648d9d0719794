package runtime

// NewArrayObject allocates an exotic array object with its "length"
// property preinstalled (value 0, writable, non-enumerable,
// non-configurable), per spec.md §4.2.
func NewArrayObject(proto *Object) *Object {
	o := &Object{
		Proto:      proto,
		Extensible: true,
		Exotic:     ExoticArray,
		Class:      "Array",
		props:      newOrderedProperties(),
	}
	o.props.set("length", descPtr(DataProperty(Number(0), true, false, false)))
	return o
}

func arrayLength(o *Object) uint32 {
	d, _ := o.props.get("length")
	if d == nil || d.Value == nil {
		return 0
	}
	n, _ := d.Value.(Number)
	return uint32(n)
}

// arrayDefineOwnProperty is ArraySetLength/the array exotic
// DefineOwnProperty algorithm of spec.md §4.2: writing "length" truncates
// (deleting own properties at or past the new length, stopping early at
// the first non-configurable one being removed would require, which
// fails the whole operation); writing a numeric index beyond the current
// length extends it, when length is writable.
func arrayDefineOwnProperty(o *Object, key Value, desc PropertyDescriptor) bool {
	keyStr, isStr := key.(String)
	if isStr && string(keyStr) == "length" {
		return arraySetLength(o, desc)
	}
	if isStr {
		if idx, ok := IsArrayIndex(string(keyStr)); ok {
			oldLen := arrayLength(o)
			lengthDesc, _ := o.props.get("length")
			if uint64(idx) >= uint64(oldLen) && !lengthDesc.IsWritable() {
				return false
			}
			if !ordinaryDefineOwnProperty(o, key, desc) {
				return false
			}
			if uint64(idx) >= uint64(oldLen) {
				o.props.set("length", descPtr(DataProperty(Number(float64(idx)+1), lengthDesc.IsWritable(), false, false)))
			}
			return true
		}
	}
	return ordinaryDefineOwnProperty(o, key, desc)
}

func arraySetLength(o *Object, desc PropertyDescriptor) bool {
	if desc.Value == nil {
		return ordinaryDefineOwnProperty(o, String("length"), desc)
	}
	newLenNum, ok := desc.Value.(Number)
	newLen := uint32(newLenNum)
	if !ok || float64(newLen) != float64(newLenNum) {
		return false // RangeError at the caller's abstract-operation layer
	}
	current, _ := o.props.get("length")
	oldLen := arrayLength(o)
	patched := desc
	patched.Value = Number(float64(newLen))
	if newLen >= oldLen {
		return ordinaryDefineOwnProperty(o, String("length"), patched)
	}
	if !current.IsWritable() {
		return false
	}
	newWritable := true
	if patched.Writable != nil && !*patched.Writable {
		newWritable = false
		patched.Writable = boolPtr(true) // keep writable during truncation, fix up after
	}
	if !ordinaryDefineOwnProperty(o, String("length"), patched) {
		return false
	}
	for idx := oldLen; idx > newLen; idx-- {
		deleted := o.Delete(String(itoaUint32(idx - 1)))
		if !deleted {
			fixedLen := DataProperty(Number(float64(idx)), true, false, false)
			o.props.set("length", descPtr(fixedLen))
			if !newWritable {
				o.props.set("length", descPtr(DataProperty(Number(float64(idx)), false, false, false)))
			}
			return false
		}
	}
	if !newWritable {
		o.props.set("length", descPtr(DataProperty(Number(float64(newLen)), false, false, false)))
	}
	return true
}

func itoaUint32(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

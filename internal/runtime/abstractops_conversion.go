package runtime

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/escore/escore/internal/errors"
)

// ToBoolean implements the unconditional (never-failing) boolean
// coercion spec.md §4.1 groups with the other conversions: empty string,
// +0/-0, NaN, undefined, and null are falsy; every object is truthy.
func ToBoolean(v Value) bool {
	switch vv := v.(type) {
	case undefinedValue, nullValue:
		return false
	case Boolean:
		return bool(vv)
	case Number:
		return !vv.IsNaN() && float64(vv) != 0
	case String:
		return len(vv) != 0
	case *BigInt:
		return vv.Int.Sign() != 0
	case *Symbol:
		return true
	case *Object:
		return true
	default:
		return false
	}
}

// ToPrimitive implements OrdinaryToPrimitive/ToPrimitive: it honors a
// Symbol.toPrimitive method if present, else tries valueOf then toString
// (hint "number"/"default") or the reverse (hint "string").
func ToPrimitive(agent *Agent, v Value, hint string) (Value, *errors.LanguageError) {
	o, ok := v.(*Object)
	if !ok {
		return v, nil
	}
	if exotic, err := o.Get(agent, SymbolToPrimitive, o); err == nil {
		if fn, ok := exotic.(*Object); ok && fn.IsCallable() {
			res, err := fn.Call(agent, o, nil, []Value{String(hint)})
			if err != nil {
				return nil, err
			}
			if _, isObj := res.(*Object); isObj {
				return nil, errors.NewType("Cannot convert object to primitive value")
			}
			return res, nil
		}
	}
	methods := []string{"valueOf", "toString"}
	if hint == "string" {
		methods = []string{"toString", "valueOf"}
	}
	for _, name := range methods {
		m, err := o.Get(agent, String(name), o)
		if err != nil {
			return nil, err
		}
		fn, ok := m.(*Object)
		if !ok || !fn.IsCallable() {
			continue
		}
		res, err := fn.Call(agent, o, nil, nil)
		if err != nil {
			return nil, err
		}
		if _, isObj := res.(*Object); !isObj {
			return res, nil
		}
	}
	return nil, errors.NewType("Cannot convert object to primitive value")
}

// ToNumber implements the language's numeric coercion, including the
// `to-number` of spec.md §4.1. BigInt values are rejected (a TypeError,
// mirroring the host spec's refusal to implicitly mix BigInt and Number).
func ToNumber(agent *Agent, v Value) (Number, *errors.LanguageError) {
	switch vv := v.(type) {
	case undefinedValue:
		return NaN, nil
	case nullValue:
		return 0, nil
	case Boolean:
		if vv {
			return 1, nil
		}
		return 0, nil
	case Number:
		return vv, nil
	case String:
		return stringToNumber(string(vv)), nil
	case *BigInt:
		return 0, errors.NewType("Cannot convert a BigInt value to a number")
	case *Object:
		prim, err := ToPrimitive(agent, vv, "number")
		if err != nil {
			return 0, err
		}
		return ToNumber(agent, prim)
	default:
		return NaN, nil
	}
}

func stringToNumber(s string) Number {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0
	}
	if t == "Infinity" || t == "+Infinity" {
		return Number(math.Inf(1))
	}
	if t == "-Infinity" {
		return Number(math.Inf(-1))
	}
	if strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X") {
		n, err := strconv.ParseUint(t[2:], 16, 64)
		if err != nil {
			return NaN
		}
		return Number(n)
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return NaN
	}
	return Number(f)
}

// ToStringValue implements the language's `to-string` coercion
// (spec.md §4.1). Symbols reject with a TypeError (implicit
// string-coercion of a symbol is disallowed by the host spec).
func ToStringValue(agent *Agent, v Value) (String, *errors.LanguageError) {
	switch vv := v.(type) {
	case undefinedValue:
		return "undefined", nil
	case nullValue:
		return "null", nil
	case Boolean:
		return String(vv.DebugString()), nil
	case Number:
		return String(vv.DebugString()), nil
	case String:
		return vv, nil
	case *BigInt:
		return String(vv.Int.String()), nil
	case *Symbol:
		return "", errors.NewType("Cannot convert a Symbol value to a string")
	case *Object:
		prim, err := ToPrimitive(agent, vv, "string")
		if err != nil {
			return "", err
		}
		return ToStringValue(agent, prim)
	default:
		return "", nil
	}
}

// ToObject implements `to-object`: boxing a primitive, or returning an
// object unchanged. undefined/null have no object form (TypeError).
func ToObject(agent *Agent, v Value, realm *Realm) (*Object, *errors.LanguageError) {
	proto := func(name string) *Object {
		if realm == nil {
			return nil
		}
		return realm.Intrinsics[name]
	}
	switch vv := v.(type) {
	case undefinedValue, nullValue:
		return nil, errors.NewType("Cannot convert undefined or null to object")
	case Boolean:
		o := NewOrdinaryObject(proto("%Boolean.prototype%"))
		o.Class = "Boolean"
		o.PrimitiveData = vv
		return o, nil
	case Number:
		o := NewOrdinaryObject(proto("%Number.prototype%"))
		o.Class = "Number"
		o.PrimitiveData = vv
		return o, nil
	case String:
		return NewStringObject(vv, proto("%String.prototype%")), nil
	case *Symbol:
		o := NewOrdinaryObject(proto("%Symbol.prototype%"))
		o.Class = "Symbol"
		o.PrimitiveData = vv
		return o, nil
	case *BigInt:
		o := NewOrdinaryObject(proto("%BigInt.prototype%"))
		o.Class = "BigInt"
		o.PrimitiveData = vv
		return o, nil
	case *Object:
		return vv, nil
	default:
		return nil, errors.NewType("Cannot convert value to object")
	}
}

// ToInt32 / ToUint32 implement the bitwise-operator numeric conversions.
func ToInt32(agent *Agent, v Value) (int32, *errors.LanguageError) {
	n, err := ToNumber(agent, v)
	if err != nil {
		return 0, err
	}
	return numberToInt32(n), nil
}

func numberToInt32(n Number) int32 {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
		return 0
	}
	m := math.Mod(math.Trunc(f), 4294967296)
	if m < 0 {
		m += 4294967296
	}
	if m >= 2147483648 {
		m -= 4294967296
	}
	return int32(m)
}

func ToUint32(agent *Agent, v Value) (uint32, *errors.LanguageError) {
	n, err := ToNumber(agent, v)
	if err != nil {
		return 0, err
	}
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
		return 0, nil
	}
	m := math.Mod(math.Trunc(f), 4294967296)
	if m < 0 {
		m += 4294967296
	}
	return uint32(m), nil
}

// ToIntegerOrInfinity truncates toward zero, per the abstract operation
// used throughout array length/index clamping.
func ToIntegerOrInfinity(agent *Agent, v Value) (float64, *errors.LanguageError) {
	n, err := ToNumber(agent, v)
	if err != nil {
		return 0, err
	}
	f := float64(n)
	if math.IsNaN(f) {
		return 0, nil
	}
	if math.IsInf(f, 0) {
		return f, nil
	}
	return math.Trunc(f), nil
}

// ToBigInt converts a primitive to a BigInt, rejecting Number (the host
// spec requires an explicit BigInt() call to cross that boundary).
func ToBigInt(agent *Agent, v Value) (*BigInt, *errors.LanguageError) {
	switch vv := v.(type) {
	case *BigInt:
		return vv, nil
	case Boolean:
		if vv {
			return BigIntFromInt64(1), nil
		}
		return BigIntFromInt64(0), nil
	case String:
		i, ok := new(big.Int).SetString(strings.TrimSpace(string(vv)), 10)
		if !ok {
			return nil, errors.NewSyntax("Cannot convert %s to a BigInt", vv)
		}
		return NewBigInt(i), nil
	default:
		return nil, errors.NewType("Cannot convert value to a BigInt")
	}
}

// ToPropertyKey converts v to a valid property key: a Symbol is returned
// as-is, everything else is stringified via ToStringValue.
func ToPropertyKey(agent *Agent, v Value) (Value, *errors.LanguageError) {
	if s, ok := v.(*Symbol); ok {
		return s, nil
	}
	str, err := ToStringValue(agent, v)
	if err != nil {
		return nil, err
	}
	return str, nil
}

package runtime

import (
	"math/big"

	"github.com/escore/escore/internal/errors"
)

// SameValue implements the `same-value` abstract operation (spec.md
// §4.1): like strict equality except NaN equals NaN and +0 is distinct
// from -0. Used by the property-descriptor compatibility table and by
// Object.is.
func SameValue(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Number:
		bv := b.(Number)
		if av.IsNaN() && bv.IsNaN() {
			return true
		}
		if float64(av) == 0 && float64(bv) == 0 {
			return isNegZero(float64(av)) == isNegZero(float64(bv))
		}
		return av == bv
	default:
		return sameValueZeroNonNumber(a, b)
	}
}

// SameValueZero is SameValue except +0 and -0 compare equal (spec.md
// §4.1).
func SameValueZero(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	if av, ok := a.(Number); ok {
		bv := b.(Number)
		if av.IsNaN() && bv.IsNaN() {
			return true
		}
		return av == bv
	}
	return sameValueZeroNonNumber(a, b)
}

func sameValueZeroNonNumber(a, b Value) bool {
	switch av := a.(type) {
	case undefinedValue, nullValue:
		return true
	case Boolean:
		return av == b.(Boolean)
	case String:
		return av == b.(String)
	case *Symbol:
		return av == b.(*Symbol)
	case *BigInt:
		return av.Int.Cmp(b.(*BigInt).Int) == 0
	case *Object:
		return av == b.(*Object)
	default:
		return false
	}
}

func isNegZero(f float64) bool {
	return f == 0 && (1/f) < 0
}

// StrictEquals implements `===`: like SameValue but +0 == -0 and NaN !=
// NaN, per spec.md §4.1.
func StrictEquals(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	if av, ok := a.(Number); ok {
		bv := b.(Number)
		return float64(av) == float64(bv)
	}
	return sameValueZeroNonNumber(a, b)
}

// LooseEquals implements `==`, including the cross-type coercion ladder
// of spec.md §4.1: null and undefined are mutually loosely equal (and
// to nothing else); Number/String/Boolean/BigInt coerce toward Number
// comparison; an object compares loosely equal to a primitive via
// ToPrimitive.
func LooseEquals(agent *Agent, a, b Value) (bool, *errors.LanguageError) {
	if a.Kind() == b.Kind() {
		return StrictEquals(a, b), nil
	}
	_, aNil := a.(undefinedValue)
	_, aNull := a.(nullValue)
	_, bNil := b.(undefinedValue)
	_, bNull := b.(nullValue)
	if (aNil || aNull) && (bNil || bNull) {
		return true, nil
	}
	if aNil || aNull || bNil || bNull {
		return false, nil
	}
	an, aIsNum := a.(Number)
	bn, bIsNum := b.(Number)
	as, aIsStr := a.(String)
	bs, bIsStr := b.(String)
	abig, aIsBig := a.(*BigInt)
	bbig, bIsBig := b.(*BigInt)
	abool, aIsBool := a.(Boolean)
	bbool, bIsBool := b.(Boolean)
	_, aIsObj := a.(*Object)
	_, bIsObj := b.(*Object)

	switch {
	case aIsNum && bIsStr:
		return float64(an) == float64(stringToNumber(string(bs))), nil
	case aIsStr && bIsNum:
		return float64(stringToNumber(string(as))) == float64(bn), nil
	case aIsBig && bIsStr:
		bi, err := ToBigInt(agent, bs)
		if err != nil {
			return false, nil
		}
		return abig.Int.Cmp(bi.Int) == 0, nil
	case aIsStr && bIsBig:
		ai, err := ToBigInt(agent, as)
		if err != nil {
			return false, nil
		}
		return ai.Int.Cmp(bbig.Int) == 0, nil
	case aIsBool:
		n, _ := ToNumber(agent, abool)
		return LooseEquals(agent, n, b)
	case bIsBool:
		n, _ := ToNumber(agent, bbool)
		return LooseEquals(agent, a, n)
	case (aIsNum || aIsStr || aIsBig) && bIsObj:
		prim, err := ToPrimitive(agent, b, "default")
		if err != nil {
			return false, err
		}
		return LooseEquals(agent, a, prim)
	case aIsObj && (bIsNum || bIsStr || bIsBig):
		prim, err := ToPrimitive(agent, a, "default")
		if err != nil {
			return false, err
		}
		return LooseEquals(agent, prim, b)
	case aIsBig && bIsNum:
		return bigIntEqualsNumber(abig, bn), nil
	case aIsNum && bIsBig:
		return bigIntEqualsNumber(bbig, an), nil
	default:
		return false, nil
	}
}

func bigIntEqualsNumber(b *BigInt, n Number) bool {
	f := float64(n)
	if f != float64(int64(f)) {
		return false
	}
	return b.Int.IsInt64() && b.Int.Int64() == int64(f)
}

// bigIntCompareNumber compares a BigInt against a (non-NaN) Number,
// returning -1/0/1, by comparing the BigInt and the Number as
// big.Float values.
func bigIntCompareNumber(b *BigInt, n Number) int {
	bf := new(big.Float).SetInt(b.Int)
	nf := big.NewFloat(float64(n))
	return bf.Cmp(nf)
}

// IsLessThan implements the relational-comparison abstract operation
// backing `<`, `>`, `<=`, `>=` (spec.md §4.1): string operands compare
// with Go string order (UTF-8 bytes, i.e. code point order, not UTF-16
// code unit order), anything else coerces toward
// Number/BigInt. Returns (result, undefinedResult) where
// undefinedResult==true models the comparison yielding `undefined` (a
// NaN operand), which every relational operator treats as false.
func IsLessThan(agent *Agent, a, b Value, leftFirst bool) (result bool, isUndefined bool, err *errors.LanguageError) {
	var pa, pb Value
	if leftFirst {
		pa, err = ToPrimitive(agent, a, "number")
		if err != nil {
			return false, false, err
		}
		pb, err = ToPrimitive(agent, b, "number")
		if err != nil {
			return false, false, err
		}
	} else {
		pb, err = ToPrimitive(agent, b, "number")
		if err != nil {
			return false, false, err
		}
		pa, err = ToPrimitive(agent, a, "number")
		if err != nil {
			return false, false, err
		}
	}
	as, aIsStr := pa.(String)
	bs, bIsStr := pb.(String)
	if aIsStr && bIsStr {
		return as < bs, false, nil
	}
	abig, aIsBig := pa.(*BigInt)
	bbig, bIsBig := pb.(*BigInt)
	if aIsBig && bIsStr {
		bn := stringToNumber(string(bs))
		if bn.IsNaN() {
			return false, true, nil
		}
		return bigIntCompareNumber(abig, bn) < 0, false, nil
	}
	if bIsBig && aIsStr {
		an := stringToNumber(string(as))
		if an.IsNaN() {
			return false, true, nil
		}
		return bigIntCompareNumber(bbig, an) > 0, false, nil
	}
	if aIsBig && bIsBig {
		return abig.Int.Cmp(bbig.Int) < 0, false, nil
	}
	an, aerr := ToNumber(agent, pa)
	if aerr != nil {
		return false, false, aerr
	}
	bn, berr := ToNumber(agent, pb)
	if berr != nil {
		return false, false, berr
	}
	if an.IsNaN() || bn.IsNaN() {
		return false, true, nil
	}
	return float64(an) < float64(bn), false, nil
}

// Package runtime implements the value and object model, completion
// records, property descriptors, environment records, execution contexts,
// and realms described in spec.md §3-§4. It is the substrate every other
// package in this engine (evaluator, generator, promise, intrinsics)
// builds on, the same role the teacher's internal/interp/runtime package
// plays for the DWScript interpreter.
package runtime

import (
	"fmt"
	"math"
	"math/big"
)

// Kind is one of the seven primitive value kinds of spec.md §3 plus the
// object-ref kind, used by TypeOf and by dynamic dispatch over Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindString
	KindSymbol
	KindNumber
	KindBigInt
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindNumber:
		return "number"
	case KindBigInt:
		return "bigint"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the tagged union over {unit, null, boolean, string, symbol,
// double, bigint, object-ref} of spec.md §3. Every concrete type below
// implements it.
type Value interface {
	Kind() Kind
	// DebugString renders a diagnostic form of the value, grounding the
	// `DebugString` helper required by spec.md §6. It is not the
	// language-level `to-string` coercion (see abstractops.ToString),
	// which can invoke user code and fail; this never fails.
	DebugString() string
}

// Undefined is the "unit" primitive kind.
type undefinedValue struct{}

func (undefinedValue) Kind() Kind            { return KindUndefined }
func (undefinedValue) DebugString() string   { return "undefined" }

// Undefined is the single unit value.
var Undefined Value = undefinedValue{}

type nullValue struct{}

func (nullValue) Kind() Kind          { return KindNull }
func (nullValue) DebugString() string { return "null" }

// Null is the single null value.
var Null Value = nullValue{}

// Boolean is the boolean primitive kind.
type Boolean bool

func (Boolean) Kind() Kind { return KindBoolean }
func (b Boolean) DebugString() string {
	if b {
		return "true"
	}
	return "false"
}

// True and False are shared boolean values, used the way interned
// booleans are used throughout the teacher's runtime primitives to avoid
// needless allocation in hot comparison paths.
const (
	True  Boolean = true
	False Boolean = false
)

// Bool converts a Go bool to the engine's Boolean value.
func Bool(b bool) Boolean {
	if b {
		return True
	}
	return False
}

// String is the string primitive kind. The language's strings are UTF-16
// code-unit sequences per the host spec; this engine stores them as Go
// strings (UTF-8), the same simplification the teacher's StringValue
// makes relative to native Delphi strings.
type String string

func (String) Kind() Kind            { return KindString }
func (s String) DebugString() string { return string(s) }

// Symbol is a unique, non-string property key. Symbols compare by
// identity (pointer equality), never by Description, matching the
// language's same-value-zero rule for symbols: two symbols are only ever
// equal to themselves.
type Symbol struct {
	Description string
}

func (*Symbol) Kind() Kind { return KindSymbol }
func (s *Symbol) DebugString() string {
	return fmt.Sprintf("Symbol(%s)", s.Description)
}

// NewSymbol allocates a fresh, globally unique symbol.
func NewSymbol(description string) *Symbol {
	return &Symbol{Description: description}
}

// Well-known symbols, installed into every realm's intrinsic table and
// used as property keys by the exotic-object and iterator machinery.
var (
	SymbolIterator      = NewSymbol("Symbol.iterator")
	SymbolAsyncIterator = NewSymbol("Symbol.asyncIterator")
	SymbolToPrimitive   = NewSymbol("Symbol.toPrimitive")
	SymbolToStringTag   = NewSymbol("Symbol.toStringTag")
	SymbolHasInstance   = NewSymbol("Symbol.hasInstance")
)

// Number is the IEEE-754 double-precision primitive kind.
type Number float64

func (Number) Kind() Kind { return KindNumber }
func (n Number) DebugString() string {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return formatNumber(f)
	}
}

func formatNumber(f float64) string {
	if f == 0 {
		if math.Signbit(f) {
			return "0" // -0 prints as "0" per the language's Number::toString
		}
		return "0"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%g", f)
}

// IsNaN reports whether n is the NaN value.
func (n Number) IsNaN() bool { return math.IsNaN(float64(n)) }

// NaN is the canonical not-a-number value.
var NaN = Number(math.NaN())

// BigInt is the arbitrary-precision integer primitive kind.
type BigInt struct {
	Int *big.Int
}

func (*BigInt) Kind() Kind { return KindBigInt }
func (b *BigInt) DebugString() string {
	return b.Int.String() + "n"
}

// NewBigInt wraps a *big.Int as a language BigInt value.
func NewBigInt(i *big.Int) *BigInt { return &BigInt{Int: new(big.Int).Set(i)} }

// BigIntFromInt64 constructs a BigInt value from a Go int64.
func BigIntFromInt64(i int64) *BigInt { return &BigInt{Int: big.NewInt(i)} }

// TypeOf implements the `type-of` operation of spec.md §4.1, returning
// one of the seven language type tags (functions additionally report
// "function" rather than "object", per the host spec's typeof table).
func TypeOf(v Value) string {
	switch vv := v.(type) {
	case undefinedValue:
		return "undefined"
	case nullValue:
		return "object" // the host spec's long-standing `typeof null === "object"` quirk
	case Boolean:
		return "boolean"
	case String:
		return "string"
	case *Symbol:
		return "symbol"
	case Number:
		return "number"
	case *BigInt:
		return "bigint"
	case *Object:
		if vv.IsCallable() {
			return "function"
		}
		return "object"
	default:
		return "object"
	}
}

// IsCallable reports whether v is an object with a populated Call slot.
func IsCallable(v Value) bool {
	o, ok := v.(*Object)
	return ok && o.IsCallable()
}

// IsConstructor reports whether v is an object with a populated Construct
// slot.
func IsConstructor(v Value) bool {
	o, ok := v.(*Object)
	return ok && o.IsConstructor()
}

// IsPropertyKey reports whether v is a valid property key (string or
// symbol).
func IsPropertyKey(v Value) bool {
	switch v.(type) {
	case String, *Symbol:
		return true
	default:
		return false
	}
}

// IsArrayIndex reports whether key names a valid array index: a string
// that is the canonical decimal form of an integer in [0, 2^32-2].
func IsArrayIndex(key string) (uint32, bool) {
	if key == "" {
		return 0, false
	}
	if key == "0" {
		return 0, true
	}
	if key[0] == '0' {
		return 0, false
	}
	var n uint64
	for _, c := range key {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
		if n > math.MaxUint32-1 {
			return 0, false
		}
	}
	return uint32(n), true
}

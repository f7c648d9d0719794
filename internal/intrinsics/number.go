package intrinsics

import (
	"math"
	"strconv"

	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
)

// NumberPlugin installs %Number.prototype%, %Number%'s static constants,
// and the parseInt/parseFloat global helpers, grounded on the teacher's
// numeric builtin helpers (internal/builtins' math/formatting layer).
var NumberPlugin = newPlugin("number", []string{"object", "function"}, func(realm *runtime.Realm) *errors.LanguageError {
	proto := runtime.NewOrdinaryObject(realm.Intrinsics["%Object.prototype%"])
	proto.Class = "Number"
	proto.PrimitiveData = runtime.Number(0)
	realm.Intrinsics["%Number.prototype%"] = proto

	thisNumber := func(thisArg runtime.Value) (float64, *errors.LanguageError) {
		if n, ok := thisArg.(runtime.Number); ok {
			return float64(n), nil
		}
		if o, ok := thisArg.(*runtime.Object); ok {
			if n, ok := o.PrimitiveData.(runtime.Number); ok {
				return float64(n), nil
			}
		}
		return 0, errors.NewType("Number.prototype method called on incompatible receiver")
	}

	method(realm, proto, "toString", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		n, err := thisNumber(thisArg)
		if err != nil {
			return nil, err
		}
		radix := 10
		if r := arg(args, 0); r != runtime.Undefined {
			rv, err := runtime.ToIntegerOrInfinity(agent, r)
			if err != nil {
				return nil, err
			}
			radix = int(rv)
		}
		if radix == 10 {
			return runtime.String(formatJSNumber(n)), nil
		}
		if n != math.Trunc(n) {
			return runtime.String(strconv.FormatFloat(n, 'g', -1, 64)), nil
		}
		return runtime.String(strconv.FormatInt(int64(n), radix)), nil
	})

	method(realm, proto, "valueOf", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		n, err := thisNumber(thisArg)
		if err != nil {
			return nil, err
		}
		return runtime.Number(n), nil
	})

	method(realm, proto, "toFixed", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		n, err := thisNumber(thisArg)
		if err != nil {
			return nil, err
		}
		digits := 0
		if d := arg(args, 0); d != runtime.Undefined {
			dv, err := runtime.ToIntegerOrInfinity(agent, d)
			if err != nil {
				return nil, err
			}
			digits = int(dv)
		}
		if digits < 0 || digits > 100 {
			return nil, errors.New(errors.RangeError, "toFixed() digits argument must be between 0 and 100")
		}
		return runtime.String(strconv.FormatFloat(n, 'f', digits, 64)), nil
	})

	method(realm, proto, "toPrecision", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		n, err := thisNumber(thisArg)
		if err != nil {
			return nil, err
		}
		if arg(args, 0) == runtime.Undefined {
			return runtime.String(formatJSNumber(n)), nil
		}
		p, err := runtime.ToIntegerOrInfinity(agent, args[0])
		if err != nil {
			return nil, err
		}
		return runtime.String(strconv.FormatFloat(n, 'g', int(p), 64)), nil
	})

	ctor := newNativeFunction(realm, "Number", 1, func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		n := runtime.Number(0)
		if len(args) > 0 {
			nv, err := runtime.ToNumber(agent, args[0])
			if err != nil {
				return nil, err
			}
			n = nv
		}
		if newTarget == nil {
			return n, nil
		}
		o := runtime.NewOrdinaryObject(proto)
		o.Class = "Number"
		o.PrimitiveData = n
		return o, nil
	})
	ctor.Construct = func(agent *runtime.Agent, _ runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return ctor.Call(agent, runtime.Undefined, newTarget, args)
	}
	ctor.DefineOwnProperty(runtime.String("prototype"), runtime.DataProperty(proto, false, false, false))
	proto.DefineOwnProperty(runtime.String("constructor"), runtime.DataProperty(ctor, true, false, true))

	constant(ctor, "EPSILON", runtime.Number(2.220446049250313e-16))
	constant(ctor, "MAX_SAFE_INTEGER", runtime.Number(9007199254740991))
	constant(ctor, "MIN_SAFE_INTEGER", runtime.Number(-9007199254740991))
	constant(ctor, "MAX_VALUE", runtime.Number(math.MaxFloat64))
	constant(ctor, "MIN_VALUE", runtime.Number(5e-324))
	constant(ctor, "POSITIVE_INFINITY", runtime.Number(math.Inf(1)))
	constant(ctor, "NEGATIVE_INFINITY", runtime.Number(math.Inf(-1)))
	constant(ctor, "NaN", runtime.NaN)

	method(realm, ctor, "isInteger", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		n, ok := arg(args, 0).(runtime.Number)
		return runtime.Boolean(ok && float64(n) == math.Trunc(float64(n)) && !math.IsInf(float64(n), 0)), nil
	})
	method(realm, ctor, "isFinite", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		n, ok := arg(args, 0).(runtime.Number)
		return runtime.Boolean(ok && !math.IsNaN(float64(n)) && !math.IsInf(float64(n), 0)), nil
	})
	method(realm, ctor, "isNaN", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		n, ok := arg(args, 0).(runtime.Number)
		return runtime.Boolean(ok && math.IsNaN(float64(n))), nil
	})
	method(realm, ctor, "isSafeInteger", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		n, ok := arg(args, 0).(runtime.Number)
		if !ok || float64(n) != math.Trunc(float64(n)) {
			return runtime.Boolean(false), nil
		}
		return runtime.Boolean(math.Abs(float64(n)) <= 9007199254740991), nil
	})
	method(realm, ctor, "parseFloat", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return parseFloatValue(agent, arg(args, 0))
	})
	method(realm, ctor, "parseInt", 2, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return parseIntValue(agent, args)
	})

	realm.Intrinsics["%Number%"] = ctor
	realm.StageGlobal("Number", runtime.DataProperty(ctor, true, false, true))

	globalParseFloat := newNativeFunction(realm, "parseFloat", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return parseFloatValue(agent, arg(args, 0))
	})
	realm.StageGlobal("parseFloat", runtime.DataProperty(globalParseFloat, true, false, true))

	globalParseInt := newNativeFunction(realm, "parseInt", 2, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return parseIntValue(agent, args)
	})
	realm.StageGlobal("parseInt", runtime.DataProperty(globalParseInt, true, false, true))

	globalIsNaN := newNativeFunction(realm, "isNaN", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		n, err := runtime.ToNumber(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		return runtime.Boolean(math.IsNaN(float64(n))), nil
	})
	realm.StageGlobal("isNaN", runtime.DataProperty(globalIsNaN, true, false, true))

	globalIsFinite := newNativeFunction(realm, "isFinite", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		n, err := runtime.ToNumber(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		return runtime.Boolean(!math.IsNaN(float64(n)) && !math.IsInf(float64(n), 0)), nil
	})
	realm.StageGlobal("isFinite", runtime.DataProperty(globalIsFinite, true, false, true))

	realm.StageGlobal("NaN", runtime.DataProperty(runtime.NaN, false, false, false))
	realm.StageGlobal("Infinity", runtime.DataProperty(runtime.Number(math.Inf(1)), false, false, false))
	realm.StageGlobal("undefined", runtime.DataProperty(runtime.Undefined, false, false, false))
	return nil
})

func formatJSNumber(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func parseFloatValue(agent *runtime.Agent, v runtime.Value) (runtime.Value, *errors.LanguageError) {
	s, err := runtime.ToStringValue(agent, v)
	if err != nil {
		return nil, err
	}
	str := trimLeadingSpace(string(s))
	end := len(str)
	for end > 0 {
		if _, ferr := strconv.ParseFloat(str[:end], 64); ferr == nil {
			break
		}
		end--
	}
	if end == 0 {
		return runtime.NaN, nil
	}
	f, ferr := strconv.ParseFloat(str[:end], 64)
	if ferr != nil {
		return runtime.NaN, nil
	}
	return runtime.Number(f), nil
}

func parseIntValue(agent *runtime.Agent, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
	s, err := runtime.ToStringValue(agent, arg(args, 0))
	if err != nil {
		return nil, err
	}
	radix := 0
	if r := arg(args, 1); r != runtime.Undefined {
		rv, err := runtime.ToIntegerOrInfinity(agent, r)
		if err != nil {
			return nil, err
		}
		radix = int(rv)
	}
	str := trimLeadingSpace(string(s))
	neg := false
	if len(str) > 0 && (str[0] == '+' || str[0] == '-') {
		neg = str[0] == '-'
		str = str[1:]
	}
	if radix == 0 {
		if len(str) >= 2 && str[0] == '0' && (str[1] == 'x' || str[1] == 'X') {
			radix = 16
			str = str[2:]
		} else {
			radix = 10
		}
	} else if radix == 16 && len(str) >= 2 && str[0] == '0' && (str[1] == 'x' || str[1] == 'X') {
		str = str[2:]
	}
	end := 0
	for end < len(str) && digitValue(str[end]) < radix {
		end++
	}
	if end == 0 {
		return runtime.NaN, nil
	}
	n, perr := strconv.ParseInt(str[:end], radix, 64)
	if perr != nil {
		f, ferr := strconv.ParseFloat(str[:end], 64)
		if ferr != nil {
			return runtime.NaN, nil
		}
		if neg {
			f = -f
		}
		return runtime.Number(f), nil
	}
	if neg {
		n = -n
	}
	return runtime.Number(float64(n)), nil
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return 99
	}
}

func trimLeadingSpace(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return s[i:]
}

package intrinsics

import (
	"strings"
	"unicode/utf16"

	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
	"github.com/escore/escore/internal/runtime/stringops"
)

// StringPlugin installs %String.prototype%'s text methods and the
// %String% constructor, grounded on the teacher's internal/interp
// string builtins — including normalize/localeCompare, which delegate
// straight to internal/runtime/stringops rather than reimplementing
// Unicode normalization and collation by hand.
var StringPlugin = newPlugin("string", []string{"object", "function"}, func(realm *runtime.Realm) *errors.LanguageError {
	proto := runtime.NewStringObject("", realm.Intrinsics["%Object.prototype%"])
	realm.Intrinsics["%String.prototype%"] = proto

	thisString := func(agent *runtime.Agent, thisArg runtime.Value) (string, *errors.LanguageError) {
		if s, ok := thisArg.(runtime.String); ok {
			return string(s), nil
		}
		if o, ok := thisArg.(*runtime.Object); ok && o.Exotic == runtime.ExoticStringObject {
			if s, ok := o.PrimitiveData.(runtime.String); ok {
				return string(s), nil
			}
		}
		return "", errors.NewType("String.prototype method called on incompatible receiver")
	}

	method(realm, proto, "toString", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := thisString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		return runtime.String(s), nil
	})
	method(realm, proto, "valueOf", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := thisString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		return runtime.String(s), nil
	})

	method(realm, proto, "charAt", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		units := utf16.Encode([]rune(s))
		idx, err := toIndex(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(units) {
			return runtime.String(""), nil
		}
		return runtime.String(utf16.Decode(units[idx : idx+1])), nil
	})

	method(realm, proto, "charCodeAt", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		units := utf16.Encode([]rune(s))
		idx, err := toIndex(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(units) {
			return runtime.NaN, nil
		}
		return runtime.Number(float64(units[idx])), nil
	})

	method(realm, proto, "codePointAt", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		runes := []rune(s)
		idx, err := toIndex(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(runes) {
			return runtime.Undefined, nil
		}
		return runtime.Number(float64(runes[idx])), nil
	})

	method(realm, proto, "indexOf", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		search, err := runtime.ToStringValue(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		return runtime.Number(float64(utf16Index(s, string(search)))), nil
	})

	method(realm, proto, "includes", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		search, err := runtime.ToStringValue(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		return runtime.Boolean(strings.Contains(s, string(search))), nil
	})

	method(realm, proto, "startsWith", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		search, err := runtime.ToStringValue(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		return runtime.Boolean(strings.HasPrefix(s, string(search))), nil
	})

	method(realm, proto, "endsWith", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		search, err := runtime.ToStringValue(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		return runtime.Boolean(strings.HasSuffix(s, string(search))), nil
	})

	method(realm, proto, "slice", 2, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		units := utf16.Encode([]rune(s))
		n := len(units)
		start, errS := relativeIndex(agent, arg(args, 0), n, 0)
		if errS != nil {
			return nil, errS
		}
		end, errE := relativeIndex(agent, arg(args, 1), n, n)
		if errE != nil {
			return nil, errE
		}
		if start >= end {
			return runtime.String(""), nil
		}
		return runtime.String(utf16.Decode(units[start:end])), nil
	})

	method(realm, proto, "substring", 2, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		units := utf16.Encode([]rune(s))
		n := len(units)
		a, errA := clampIndex(agent, arg(args, 0), n, 0)
		if errA != nil {
			return nil, errA
		}
		b, errB := clampIndex(agent, arg(args, 1), n, n)
		if errB != nil {
			return nil, errB
		}
		if a > b {
			a, b = b, a
		}
		return runtime.String(utf16.Decode(units[a:b])), nil
	})

	method(realm, proto, "toUpperCase", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		return runtime.String(strings.ToUpper(s)), nil
	})

	method(realm, proto, "toLowerCase", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		return runtime.String(strings.ToLower(s)), nil
	})

	method(realm, proto, "trim", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		return runtime.String(strings.TrimSpace(s)), nil
	})

	method(realm, proto, "trimStart", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		return runtime.String(strings.TrimLeft(s, " \t\n\r\v\f")), nil
	})

	method(realm, proto, "trimEnd", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		return runtime.String(strings.TrimRight(s, " \t\n\r\v\f")), nil
	})

	method(realm, proto, "split", 2, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		sepArg := arg(args, 0)
		if sepArg == runtime.Undefined {
			return newArray(realm, runtime.String(s)), nil
		}
		sep, err := runtime.ToStringValue(agent, sepArg)
		if err != nil {
			return nil, err
		}
		var parts []string
		if sep == "" {
			for _, r := range s {
				parts = append(parts, string(r))
			}
		} else {
			parts = strings.Split(s, string(sep))
		}
		out := make([]runtime.Value, len(parts))
		for i, p := range parts {
			out[i] = runtime.String(p)
		}
		return newArray(realm, out...), nil
	})

	method(realm, proto, "replace", 2, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		search, err := runtime.ToStringValue(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		replacement := arg(args, 1)
		idx := strings.Index(s, string(search))
		if idx < 0 {
			return runtime.String(s), nil
		}
		repl, err := resolveReplacement(agent, replacement, string(search), s, idx)
		if err != nil {
			return nil, err
		}
		return runtime.String(s[:idx] + repl + s[idx+len(search):]), nil
	})

	method(realm, proto, "replaceAll", 2, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		search, err := runtime.ToStringValue(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		replacement := arg(args, 1)
		if fn, ok := replacement.(*runtime.Object); ok && fn.IsCallable() {
			var b strings.Builder
			rest := s
			offset := 0
			for {
				idx := strings.Index(rest, string(search))
				if idx < 0 {
					b.WriteString(rest)
					break
				}
				b.WriteString(rest[:idx])
				repl, err := resolveReplacement(agent, replacement, string(search), s, offset+idx)
				if err != nil {
					return nil, err
				}
				b.WriteString(repl)
				adv := idx + len(search)
				if len(search) == 0 {
					adv = idx + 1
				}
				if adv > len(rest) {
					break
				}
				rest = rest[adv:]
				offset += adv
			}
			return runtime.String(b.String()), nil
		}
		repl, err := runtime.ToStringValue(agent, replacement)
		if err != nil {
			return nil, err
		}
		return runtime.String(strings.ReplaceAll(s, string(search), string(repl))), nil
	})

	method(realm, proto, "repeat", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		n, err := runtime.ToIntegerOrInfinity(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, errors.New(errors.RangeError, "Invalid count value")
		}
		return runtime.String(strings.Repeat(s, int(n))), nil
	})

	method(realm, proto, "padStart", 2, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return padString(agent, thisArg, args, true)
	})
	method(realm, proto, "padEnd", 2, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return padString(agent, thisArg, args, false)
	})

	method(realm, proto, "concat", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		var b strings.Builder
		b.WriteString(s)
		for _, a := range args {
			sv, err := runtime.ToStringValue(agent, a)
			if err != nil {
				return nil, err
			}
			b.WriteString(string(sv))
		}
		return runtime.String(b.String()), nil
	})

	method(realm, proto, "normalize", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		form := stringops.NFC
		if f := arg(args, 0); f != runtime.Undefined {
			fv, err := runtime.ToStringValue(agent, f)
			if err != nil {
				return nil, err
			}
			switch stringops.Form(fv) {
			case stringops.NFD:
				form = stringops.NFD
			case stringops.NFKC:
				form = stringops.NFKC
			case stringops.NFKD:
				form = stringops.NFKD
			}
		}
		return runtime.String(stringops.Normalize(s, form)), nil
	})

	method(realm, proto, "localeCompare", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		other, err := runtime.ToStringValue(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		locale := "en"
		if l := arg(args, 1); l != runtime.Undefined {
			lv, err := runtime.ToStringValue(agent, l)
			if err != nil {
				return nil, err
			}
			locale = string(lv)
		}
		return runtime.Number(float64(stringops.LocaleCompare(s, string(other), locale, true))), nil
	})

	symbolMethod(realm, proto, runtime.SymbolIterator, "[Symbol.iterator]", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := requireCoercibleString(agent, thisArg)
		if err != nil {
			return nil, err
		}
		runes := []rune(s)
		iter := newPlainObject(realm)
		i := 0
		method(realm, iter, "next", 0, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, _ []runtime.Value) (runtime.Value, *errors.LanguageError) {
			result := newPlainObject(realm)
			if i >= len(runes) {
				result.DefineOwnProperty(runtime.String("done"), runtime.DataProperty(runtime.Boolean(true), true, true, true))
				result.DefineOwnProperty(runtime.String("value"), runtime.DataProperty(runtime.Undefined, true, true, true))
				return result, nil
			}
			v := runtime.String(string(runes[i]))
			i++
			result.DefineOwnProperty(runtime.String("done"), runtime.DataProperty(runtime.Boolean(false), true, true, true))
			result.DefineOwnProperty(runtime.String("value"), runtime.DataProperty(v, true, true, true))
			return result, nil
		})
		symbolMethod(realm, iter, runtime.SymbolIterator, "[Symbol.iterator]", 0, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, _ []runtime.Value) (runtime.Value, *errors.LanguageError) {
			return iter, nil
		})
		return iter, nil
	})

	ctor := newNativeFunction(realm, "String", 1, func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s := runtime.String("")
		if len(args) > 0 {
			sv, err := runtime.ToStringValue(agent, args[0])
			if err != nil {
				return nil, err
			}
			s = sv
		}
		if newTarget == nil {
			return s, nil
		}
		return runtime.NewStringObject(s, proto), nil
	})
	ctor.Construct = func(agent *runtime.Agent, _ runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return ctor.Call(agent, runtime.Undefined, newTarget, args)
	}
	ctor.DefineOwnProperty(runtime.String("prototype"), runtime.DataProperty(proto, false, false, false))
	proto.DefineOwnProperty(runtime.String("constructor"), runtime.DataProperty(ctor, true, false, true))

	method(realm, ctor, "fromCharCode", 1, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		units := make([]uint16, len(args))
		for i, a := range args {
			n, err := runtime.ToNumber(agent, a)
			if err != nil {
				return nil, err
			}
			units[i] = uint16(int64(n))
		}
		return runtime.String(utf16.Decode(units)), nil
	})

	realm.Intrinsics["%String%"] = ctor
	realm.StageGlobal("String", runtime.DataProperty(ctor, true, false, true))
	return nil
})

func requireCoercibleString(agent *runtime.Agent, thisArg runtime.Value) (string, *errors.LanguageError) {
	if thisArg == runtime.Undefined || thisArg == runtime.Null {
		return "", errors.NewType("String.prototype method called on null or undefined")
	}
	sv, err := runtime.ToStringValue(agent, thisArg)
	if err != nil {
		return "", err
	}
	return string(sv), nil
}

func toIndex(agent *runtime.Agent, v runtime.Value) (int, *errors.LanguageError) {
	n, err := runtime.ToIntegerOrInfinity(agent, v)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func clampIndex(agent *runtime.Agent, v runtime.Value, length int, def int) (int, *errors.LanguageError) {
	if v == runtime.Undefined {
		return def, nil
	}
	n, err := runtime.ToIntegerOrInfinity(agent, v)
	if err != nil {
		return 0, err
	}
	idx := int(n)
	if idx < 0 {
		idx = 0
	}
	if idx > length {
		idx = length
	}
	return idx, nil
}

func utf16Index(s, search string) int {
	byteIdx := strings.Index(s, search)
	if byteIdx < 0 {
		return -1
	}
	return len(utf16.Encode([]rune(s[:byteIdx])))
}

func resolveReplacement(agent *runtime.Agent, replacement runtime.Value, matched, whole string, index int) (string, *errors.LanguageError) {
	if fn, ok := replacement.(*runtime.Object); ok && fn.IsCallable() {
		r, err := callFn(agent, fn, runtime.Undefined, []runtime.Value{
			runtime.String(matched), runtime.Number(float64(index)), runtime.String(whole),
		})
		if err != nil {
			return "", err
		}
		sv, err := runtime.ToStringValue(agent, r)
		if err != nil {
			return "", err
		}
		return string(sv), nil
	}
	sv, err := runtime.ToStringValue(agent, replacement)
	if err != nil {
		return "", err
	}
	return string(sv), nil
}

func padString(agent *runtime.Agent, thisArg runtime.Value, args []runtime.Value, start bool) (runtime.Value, *errors.LanguageError) {
	s, err := requireCoercibleString(agent, thisArg)
	if err != nil {
		return nil, err
	}
	targetLen, err := runtime.ToIntegerOrInfinity(agent, arg(args, 0))
	if err != nil {
		return nil, err
	}
	pad := " "
	if p := arg(args, 1); p != runtime.Undefined {
		pv, err := runtime.ToStringValue(agent, p)
		if err != nil {
			return nil, err
		}
		pad = string(pv)
	}
	curLen := len(utf16.Encode([]rune(s)))
	need := int(targetLen) - curLen
	if need <= 0 || pad == "" {
		return runtime.String(s), nil
	}
	var b strings.Builder
	for b.Len() < need {
		b.WriteString(pad)
	}
	padding := string(utf16.Decode(utf16.Encode([]rune(b.String()))[:need]))
	if start {
		return runtime.String(padding + s), nil
	}
	return runtime.String(s + padding), nil
}

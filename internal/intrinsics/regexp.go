package intrinsics

import (
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
)

// RegExpPlugin installs %RegExp.prototype% and the %RegExp% constructor
// that evaluator/expressions.go's evalRegExpLiteral reaches for whenever
// a regexp plugin has been installed into the realm. Pattern matching is
// delegated to regexp2, since Go's stdlib regexp package implements RE2
// rather than the backtracking, capture-group-rich syntax regex literals
// use; regexp2's ECMAScript option is built for exactly that dialect.
var RegExpPlugin = newPlugin("regexp", []string{"object", "function"}, func(realm *runtime.Realm) *errors.LanguageError {
	proto := runtime.NewOrdinaryObject(realm.Intrinsics["%Object.prototype%"])
	proto.Class = "RegExp"
	realm.Intrinsics["%RegExp.prototype%"] = proto

	compiledOf := func(o *runtime.Object) (*regexp2.Regexp, bool) {
		v, ok := o.GetInternal("compiled")
		if !ok {
			return nil, false
		}
		re, ok := v.(*regexp2.Regexp)
		return re, ok
	}

	method(realm, proto, "test", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		re, ok := compiledOf(o)
		if !ok {
			return runtime.Boolean(false), nil
		}
		input, serr := runtime.ToStringValue(agent, arg(args, 0))
		if serr != nil {
			return nil, serr
		}
		m, merr := re.MatchString(string(input))
		if merr != nil {
			return nil, errors.NewSyntax("invalid regular expression: %s", merr)
		}
		return runtime.Boolean(m), nil
	})

	method(realm, proto, "exec", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		re, ok := compiledOf(o)
		if !ok {
			return runtime.Null, nil
		}
		input, serr := runtime.ToStringValue(agent, arg(args, 0))
		if serr != nil {
			return nil, serr
		}
		str := string(input)
		start := 0
		global := hasFlag(o, "global") || hasFlag(o, "sticky")
		if global {
			lastIndexV, _ := o.Get(agent, runtime.String("lastIndex"), o)
			if n, ok := lastIndexV.(runtime.Number); ok {
				start = int(n)
			}
			if start < 0 || start > len(str) {
				o.Set(agent, runtime.String("lastIndex"), runtime.Number(0), o)
				return runtime.Null, nil
			}
		}
		m, merr := re.FindStringMatchStartingAt(str, start)
		if merr != nil {
			return nil, errors.NewSyntax("invalid regular expression: %s", merr)
		}
		if m == nil {
			if global {
				o.Set(agent, runtime.String("lastIndex"), runtime.Number(0), o)
			}
			return runtime.Null, nil
		}
		if global {
			o.Set(agent, runtime.String("lastIndex"), runtime.Number(float64(m.Index+m.Length)), o)
		}
		groups := m.Groups()
		values := make([]runtime.Value, 0, len(groups))
		for _, g := range groups {
			if len(g.Captures) == 0 {
				values = append(values, runtime.Undefined)
				continue
			}
			values = append(values, runtime.String(g.String()))
		}
		result := newArray(realm, values...)
		result.DefineOwnProperty(runtime.String("index"), runtime.DataProperty(runtime.Number(float64(m.Index)), true, true, true))
		result.DefineOwnProperty(runtime.String("input"), runtime.DataProperty(input, true, true, true))
		return result, nil
	})

	method(realm, proto, "toString", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, err := thisObject(agent, thisArg, realm)
		if err != nil {
			return nil, err
		}
		source, _ := o.Get(agent, runtime.String("source"), o)
		flags, _ := o.Get(agent, runtime.String("flags"), o)
		return runtime.String("/" + string(source.(runtime.String)) + "/" + string(flags.(runtime.String))), nil
	})

	ctor := newNativeFunction(realm, "RegExp", 2, func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		source, serr := runtime.ToStringValue(agent, arg(args, 0))
		if serr != nil {
			return nil, serr
		}
		flagsV := arg(args, 1)
		var flags runtime.String
		if flagsV != runtime.Undefined {
			flags, serr = runtime.ToStringValue(agent, flagsV)
			if serr != nil {
				return nil, serr
			}
		}
		opts := regexp2.ECMAScript
		for _, f := range string(flags) {
			switch f {
			case 'i':
				opts |= regexp2.IgnoreCase
			case 's':
				opts |= regexp2.Singleline
			case 'm':
				opts |= regexp2.Multiline
			}
		}
		re, cerr := regexp2.Compile(string(source), opts)
		if cerr != nil {
			return nil, errors.NewSyntax("invalid regular expression: %s", cerr)
		}
		targetProto := proto
		if newTarget != nil {
			if pv, perr := newTarget.Get(agent, runtime.String("prototype"), newTarget); perr == nil {
				if p, ok := pv.(*runtime.Object); ok {
					targetProto = p
				}
			}
		}
		o := runtime.NewOrdinaryObject(targetProto)
		o.Class = "RegExp"
		o.SetInternal("compiled", re)
		o.DefineOwnProperty(runtime.String("source"), runtime.DataProperty(source, false, false, false))
		o.DefineOwnProperty(runtime.String("flags"), runtime.DataProperty(flags, false, false, false))
		o.DefineOwnProperty(runtime.String("global"), runtime.DataProperty(runtime.Boolean(strings.Contains(string(flags), "g")), false, false, false))
		o.DefineOwnProperty(runtime.String("ignoreCase"), runtime.DataProperty(runtime.Boolean(strings.Contains(string(flags), "i")), false, false, false))
		o.DefineOwnProperty(runtime.String("multiline"), runtime.DataProperty(runtime.Boolean(strings.Contains(string(flags), "m")), false, false, false))
		o.DefineOwnProperty(runtime.String("sticky"), runtime.DataProperty(runtime.Boolean(strings.Contains(string(flags), "y")), false, false, false))
		o.DefineOwnProperty(runtime.String("lastIndex"), runtime.DataProperty(runtime.Number(0), true, false, false))
		return o, nil
	})
	ctor.Construct = func(agent *runtime.Agent, _ runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return ctor.Call(agent, runtime.Undefined, newTarget, args)
	}
	ctor.DefineOwnProperty(runtime.String("prototype"), runtime.DataProperty(proto, false, false, false))
	proto.DefineOwnProperty(runtime.String("constructor"), runtime.DataProperty(ctor, true, false, true))

	realm.Intrinsics["%RegExp%"] = ctor
	realm.StageGlobal("RegExp", runtime.DataProperty(ctor, true, false, true))
	return nil
})

func hasFlag(o *runtime.Object, name string) bool {
	desc := o.GetOwnProperty(runtime.String(name))
	if desc == nil || desc.Value == nil {
		return false
	}
	b, ok := desc.Value.(runtime.Boolean)
	return ok && bool(b)
}

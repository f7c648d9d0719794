// Package intrinsics implements the built-in objects and prototypes of
// spec.md §6, each as an independent internal/plugin.Plugin contributed
// to a realm's assembly DAG (spec.md §4.9). Every file here is grounded
// on the teacher's internal/builtins package: one small Go file per
// concern, registered rather than hard-wired, so a host can swap one
// intrinsic plugin out without touching the others.
package intrinsics

import (
	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/plugin"
	"github.com/escore/escore/internal/runtime"
)

// newPlugin wraps an Install closure into a plugin.Plugin value, the
// shape every file in this package declares its package-level plugin
// variable with.
func newPlugin(name string, depends []string, install func(*runtime.Realm) *errors.LanguageError) plugin.Plugin {
	return plugin.Plugin{Name: name, Depends: depends, Install: install}
}

// newNativeFunction builds a callable Object for a builtin method or
// constructor: realm.Intrinsics["%Function.prototype%"] as its
// prototype (falling back to nil before that intrinsic exists, for the
// handful of bootstrap functions created before Function's own plugin
// has run), plus the conventional non-enumerable "length"/"name" own
// properties spec.md §4.4 requires of every function object.
func newNativeFunction(realm *runtime.Realm, name string, length int, fn runtime.HostFunc) *runtime.Object {
	o := runtime.NewOrdinaryObject(realm.Intrinsics["%Function.prototype%"])
	o.Class = "Function"
	o.Realm = realm
	o.Call = fn
	o.DefineOwnProperty(runtime.String("length"), runtime.DataProperty(runtime.Number(float64(length)), false, false, true))
	o.DefineOwnProperty(runtime.String("name"), runtime.DataProperty(runtime.String(name), false, false, true))
	return o
}

// method installs a non-enumerable, writable, configurable method on
// target — the attribute combination spec.md §6 specifies for every
// built-in prototype method.
func method(realm *runtime.Realm, target *runtime.Object, name string, length int, fn runtime.HostFunc) {
	target.DefineOwnProperty(runtime.String(name), runtime.DataProperty(newNativeFunction(realm, name, length, fn), true, false, true))
}

// symbolMethod is method but keyed by a well-known symbol, used for
// Symbol.iterator/Symbol.asyncIterator/Symbol.toPrimitive methods.
func symbolMethod(realm *runtime.Realm, target *runtime.Object, sym *runtime.Symbol, name string, length int, fn runtime.HostFunc) {
	target.DefineOwnProperty(sym, runtime.DataProperty(newNativeFunction(realm, name, length, fn), true, false, true))
}

// accessor installs a getter (and optional setter) accessor property,
// non-enumerable/configurable per spec.md §6.
func accessor(realm *runtime.Realm, target *runtime.Object, name string, get, set runtime.HostFunc) {
	var getObj, setObj *runtime.Object
	if get != nil {
		getObj = newNativeFunction(realm, "get "+name, 0, get)
	}
	if set != nil {
		setObj = newNativeFunction(realm, "set "+name, 1, set)
	}
	target.DefineOwnProperty(runtime.String(name), runtime.AccessorProperty(getObj, setObj, false, true))
}

// constant installs a non-enumerable, non-writable, non-configurable data
// property — the attributes for every well-known constant value
// (NaN, undefined globals, prototype links, ...).
func constant(target *runtime.Object, name string, v runtime.Value) {
	target.DefineOwnProperty(runtime.String(name), runtime.DataProperty(v, false, false, false))
}

// arg returns args[i], or Undefined if the call did not supply that
// many arguments — spec.md's "a missing parameter is bound to
// undefined" rule for both user and native functions.
func arg(args []runtime.Value, i int) runtime.Value {
	if i < 0 || i >= len(args) {
		return runtime.Undefined
	}
	return args[i]
}

// thisObject coerces thisArg to an Object, the common first step of
// nearly every prototype method's generic invocation (spec.md §6's
// "RequireObjectCoercible then ToObject" pattern).
func thisObject(agent *runtime.Agent, thisArg runtime.Value, realm *runtime.Realm) (*runtime.Object, *errors.LanguageError) {
	return runtime.ToObject(agent, thisArg, realm)
}

func newPlainObject(realm *runtime.Realm) *runtime.Object {
	return runtime.NewOrdinaryObject(realm.Intrinsics["%Object.prototype%"])
}

func newArray(realm *runtime.Realm, values ...runtime.Value) *runtime.Object {
	arr := runtime.NewArrayObject(realm.Intrinsics["%Array.prototype%"])
	for i, v := range values {
		arr.DefineOwnProperty(runtime.String(itoa(i)), runtime.DataProperty(v, true, true, true))
	}
	return arr
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	p := len(buf)
	for i > 0 {
		p--
		buf[p] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		p--
		buf[p] = '-'
	}
	return string(buf[p:])
}

func callFn(agent *runtime.Agent, v runtime.Value, thisArg runtime.Value, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
	fn, ok := v.(*runtime.Object)
	if !ok || !fn.IsCallable() {
		return nil, errors.NewType("value is not a function")
	}
	return fn.Call(agent, thisArg, nil, args)
}

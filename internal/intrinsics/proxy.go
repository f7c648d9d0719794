package intrinsics

import (
	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
)

// ProxyPlugin installs the %Proxy% constructor and Proxy.revocable,
// grounded on the teacher's internal/builtins registration style (a
// constructor-only global, no prototype object of its own) and on
// internal/runtime/proxy.go's pre-existing NewProxyObject, which this
// plugin is the first and only caller of — every non-revocable Proxy a
// script observes is one `new Proxy(target, handler)` call away from
// here. Depends on "object" for %Object.prototype% (the fallback proto a
// bootstrap function needs) and "function" for %Function.prototype%.
var ProxyPlugin = newPlugin("proxy", []string{"object", "function"}, func(realm *runtime.Realm) *errors.LanguageError {
	ctor := newNativeFunction(realm, "Proxy", 2, func(agent *runtime.Agent, _ runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		if newTarget == nil {
			return nil, errors.NewType("Constructor Proxy requires 'new'")
		}
		return newProxy(agent, arg(args, 0), arg(args, 1))
	})
	ctor.Construct = ctor.Call

	method(realm, ctor, "revocable", 2, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		p, err := newProxy(agent, arg(args, 0), arg(args, 1))
		if err != nil {
			return nil, err
		}
		proxyObj := p.(*runtime.Object)
		revoke := newNativeFunction(realm, "", 0, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, _ []runtime.Value) (runtime.Value, *errors.LanguageError) {
			proxyObj.ProxyRevoked = true
			proxyObj.ProxyTarget = nil
			proxyObj.ProxyHandler = nil
			return runtime.Undefined, nil
		})
		result := newPlainObject(realm)
		result.DefineOwnProperty(runtime.String("proxy"), runtime.DataProperty(proxyObj, true, true, true))
		result.DefineOwnProperty(runtime.String("revoke"), runtime.DataProperty(revoke, true, true, true))
		return result, nil
	})

	realm.Intrinsics["%Proxy%"] = ctor
	realm.StageGlobal("Proxy", runtime.DataProperty(ctor, true, false, true))
	return nil
})

// newProxy validates target/handler are both objects (spec.md §4.2's
// "a proxy's target and handler must both be objects" invariant,
// "proxy-invariant violation" being one of the listed TypeError causes)
// before delegating to NewProxyObject.
func newProxy(agent *runtime.Agent, target, handler runtime.Value) (runtime.Value, *errors.LanguageError) {
	targetObj, ok := target.(*runtime.Object)
	if !ok {
		return nil, errors.NewType("Cannot create proxy with a non-object as target")
	}
	handlerObj, ok := handler.(*runtime.Object)
	if !ok {
		return nil, errors.NewType("Cannot create proxy with a non-object as handler")
	}
	return runtime.NewProxyObject(agent, targetObj, handlerObj), nil
}

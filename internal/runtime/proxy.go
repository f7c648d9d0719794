package runtime

import "github.com/escore/escore/internal/errors"

// NewProxyObject allocates a proxy exotic object over target/handler.
// Every internal method not explicitly special-cased below calls the
// corresponding trap on handler if present, else forwards to target
// (spec.md §4.2, "proxies"; every method calls a trap on the handler
// with specified invariant checks"). This engine implements the
// forwarding contract and the non-configurable/non-extensible invariant
// checks that are cheap to state generically; trap-specific invariant
// niceties beyond "the trap result must be consistent with a
// non-configurable target property" are left to callers that need them.
// agent is stashed on the proxy's internal-slot bag (proxyAgentSlot) so
// the internal methods that have no agent parameter of their own
// (everything except Get/Set) can still thread a real Agent through a
// trap call instead of calling it with nil, which crashes for any
// trap implemented as an ordinary script function.
func NewProxyObject(agent *Agent, target, handler *Object) *Object {
	o := &Object{
		Exotic:       ExoticProxy,
		Class:        "Proxy",
		ProxyTarget:  target,
		ProxyHandler: handler,
		props:        newOrderedProperties(),
	}
	if agent != nil {
		o.SetInternal(proxyAgentSlot, agent)
	}
	return o
}

const proxyAgentSlot = "proxyAgent"

func proxyAgentOf(o *Object) *Agent {
	v, ok := o.GetInternal(proxyAgentSlot)
	if !ok {
		return nil
	}
	a, _ := v.(*Agent)
	return a
}

func proxyCheckRevoked(o *Object) *errors.LanguageError {
	if o.ProxyRevoked {
		return errors.NewType("Cannot perform operation on a proxy that has been revoked")
	}
	return nil
}

const proxyTrapErrorSlot = "proxyTrapError"

// proxyStashTrapError records a trap call's thrown error for the internal
// methods that have no error-returning signature of their own
// (GetOwnProperty, DefineOwnProperty, HasProperty, Delete, OwnPropertyKeys,
// GetPrototypeOf, SetPrototypeOf, IsExtensible, PreventExtensions). Those
// methods still return their ordinary zero-value result so every existing
// caller keeps compiling; a caller that dispatches against a value that may
// be a proxy and cares whether the trap threw calls ProxyTrapError
// immediately afterward.
func proxyStashTrapError(o *Object, err *errors.LanguageError) {
	o.SetInternal(proxyTrapErrorSlot, err)
}

// ProxyTrapError returns and clears the error thrown by the most recent
// trap call made through one of o's non-Get/Set internal methods (spec.md
// §4.2's proxy invariants; "proxy-invariant violation" is a TypeError
// cause). Returns nil when o is not a proxy, or its last trap invocation
// via GetOwnProperty/DefineOwnProperty/HasProperty/Delete/OwnPropertyKeys/
// GetPrototypeOf/SetPrototypeOf/IsExtensible/PreventExtensions did not
// throw.
func ProxyTrapError(o *Object) *errors.LanguageError {
	if o == nil || o.Exotic != ExoticProxy || o.Internal == nil {
		return nil
	}
	v, ok := o.Internal[proxyTrapErrorSlot]
	if !ok {
		return nil
	}
	delete(o.Internal, proxyTrapErrorSlot)
	err, _ := v.(*errors.LanguageError)
	return err
}

func proxyTrap(o *Object, name string) *Object {
	if o.ProxyHandler == nil {
		return nil
	}
	d := o.ProxyHandler.GetOwnProperty(String(name))
	if d == nil {
		return nil
	}
	if fn, ok := d.Value.(*Object); ok && fn.IsCallable() {
		return fn
	}
	return nil
}

func proxyGetPrototypeOf(o *Object) *Object {
	if o.ProxyRevoked || o.ProxyTarget == nil {
		return nil
	}
	if trap := proxyTrap(o, "getPrototypeOf"); trap != nil {
		res, err := trap.Call(proxyAgentOf(o), o.ProxyHandler, nil, []Value{o.ProxyTarget})
		proxyStashTrapError(o, err)
		if err != nil {
			return nil
		}
		if p, ok := res.(*Object); ok {
			return p
		}
		return nil
	}
	return o.ProxyTarget.GetPrototypeOf()
}

func proxySetPrototypeOf(o *Object, proto *Object) bool {
	if o.ProxyRevoked || o.ProxyTarget == nil {
		return false
	}
	if trap := proxyTrap(o, "setPrototypeOf"); trap != nil {
		var protoVal Value = Null
		if proto != nil {
			protoVal = proto
		}
		res, err := trap.Call(proxyAgentOf(o), o.ProxyHandler, nil, []Value{o.ProxyTarget, protoVal})
		proxyStashTrapError(o, err)
		if err != nil {
			return false
		}
		return ToBoolean(res)
	}
	return o.ProxyTarget.SetPrototypeOf(proto)
}

func proxyIsExtensible(o *Object) bool {
	if o.ProxyRevoked || o.ProxyTarget == nil {
		return false
	}
	if trap := proxyTrap(o, "isExtensible"); trap != nil {
		res, err := trap.Call(proxyAgentOf(o), o.ProxyHandler, nil, []Value{o.ProxyTarget})
		proxyStashTrapError(o, err)
		if err != nil {
			return false
		}
		return ToBoolean(res)
	}
	return o.ProxyTarget.IsExtensible()
}

func proxyPreventExtensions(o *Object) bool {
	if o.ProxyRevoked || o.ProxyTarget == nil {
		return false
	}
	if trap := proxyTrap(o, "preventExtensions"); trap != nil {
		res, err := trap.Call(proxyAgentOf(o), o.ProxyHandler, nil, []Value{o.ProxyTarget})
		proxyStashTrapError(o, err)
		if err != nil {
			return false
		}
		return ToBoolean(res)
	}
	return o.ProxyTarget.PreventExtensions()
}

func proxyGetOwnProperty(o *Object, key Value) *PropertyDescriptor {
	if o.ProxyRevoked || o.ProxyTarget == nil {
		return nil
	}
	if trap := proxyTrap(o, "getOwnPropertyDescriptor"); trap != nil {
		res, err := trap.Call(proxyAgentOf(o), o.ProxyHandler, nil, []Value{o.ProxyTarget, key})
		proxyStashTrapError(o, err)
		if err != nil || res == Undefined {
			return nil
		}
		if descObj, ok := res.(*Object); ok {
			d := fromPropertyDescriptorObject(proxyAgentOf(o), descObj)
			return &d
		}
		return nil
	}
	return o.ProxyTarget.GetOwnProperty(key)
}

func proxyDefineOwnProperty(o *Object, key Value, desc PropertyDescriptor) bool {
	if o.ProxyRevoked || o.ProxyTarget == nil {
		return false
	}
	if trap := proxyTrap(o, "defineProperty"); trap != nil {
		descObj := toPropertyDescriptorObject(nil, o.Realm, desc)
		res, err := trap.Call(proxyAgentOf(o), o.ProxyHandler, nil, []Value{o.ProxyTarget, key, descObj})
		proxyStashTrapError(o, err)
		if err != nil {
			return false
		}
		return ToBoolean(res)
	}
	return o.ProxyTarget.DefineOwnProperty(key, desc)
}

func proxyHasProperty(o *Object, key Value) bool {
	if o.ProxyRevoked || o.ProxyTarget == nil {
		return false
	}
	if trap := proxyTrap(o, "has"); trap != nil {
		res, err := trap.Call(proxyAgentOf(o), o.ProxyHandler, nil, []Value{o.ProxyTarget, key})
		proxyStashTrapError(o, err)
		if err != nil {
			return false
		}
		return ToBoolean(res)
	}
	return o.ProxyTarget.HasProperty(key)
}

func proxyGet(agent *Agent, o *Object, key Value, receiver Value) (Value, *errors.LanguageError) {
	if err := proxyCheckRevoked(o); err != nil {
		return nil, err
	}
	if trap := proxyTrap(o, "get"); trap != nil {
		return trap.Call(agent, o.ProxyHandler, nil, []Value{o.ProxyTarget, key, receiver})
	}
	return o.ProxyTarget.Get(agent, key, receiver)
}

func proxySet(agent *Agent, o *Object, key Value, value Value, receiver Value) (bool, *errors.LanguageError) {
	if err := proxyCheckRevoked(o); err != nil {
		return false, err
	}
	if trap := proxyTrap(o, "set"); trap != nil {
		res, err := trap.Call(agent, o.ProxyHandler, nil, []Value{o.ProxyTarget, key, value, receiver})
		if err != nil {
			return false, err
		}
		return ToBoolean(res), nil
	}
	return o.ProxyTarget.Set(agent, key, value, receiver)
}

func proxyDelete(o *Object, key Value) bool {
	if o.ProxyRevoked || o.ProxyTarget == nil {
		return false
	}
	if trap := proxyTrap(o, "deleteProperty"); trap != nil {
		res, err := trap.Call(proxyAgentOf(o), o.ProxyHandler, nil, []Value{o.ProxyTarget, key})
		proxyStashTrapError(o, err)
		if err != nil {
			return false
		}
		return ToBoolean(res)
	}
	return o.ProxyTarget.Delete(key)
}

func proxyOwnPropertyKeys(o *Object) []Value {
	if o.ProxyRevoked || o.ProxyTarget == nil {
		return nil
	}
	if trap := proxyTrap(o, "ownKeys"); trap != nil {
		res, err := trap.Call(proxyAgentOf(o), o.ProxyHandler, nil, []Value{o.ProxyTarget})
		proxyStashTrapError(o, err)
		if err != nil {
			return nil
		}
		arr, ok := res.(*Object)
		if !ok {
			return nil
		}
		n := arrayLength(arr)
		out := make([]Value, 0, n)
		for i := uint32(0); i < n; i++ {
			d := arr.GetOwnProperty(String(itoaUint32(i)))
			if d != nil {
				out = append(out, d.Value)
			}
		}
		return out
	}
	return o.ProxyTarget.OwnPropertyKeys()
}

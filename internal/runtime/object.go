package runtime

import "github.com/escore/escore/internal/errors"

// ExoticKind tags which internal-method overrides (spec.md §4.2) an
// Object uses. Per design note 9 ("avoid open-ended subclassing"), every
// object variant is one Object struct with a shared header of slots;
// exotic behavior is a switch over this tag rather than a type hierarchy.
type ExoticKind uint8

const (
	ExoticNone ExoticKind = iota
	ExoticArray
	ExoticStringObject
	ExoticArguments
	ExoticBoundFunction
	ExoticProxy
	ExoticModuleNamespace
)

// HostFunc is the calling convention shared by ordinary (user-defined)
// and builtin function objects alike (spec.md §4.4, "ordinary/builtin
// functions"): every callable Object's Call/Construct slot is one of
// these, whether it closes over an evaluator-owned AST+environment or a
// native Go implementation.
type HostFunc func(agent *Agent, thisArg Value, newTarget *Object, args []Value) (Value, *errors.LanguageError)

// Object is the single struct backing every object-ref value, ordinary
// or exotic (spec.md §3, "Object"). Exotic slots that do not apply to a
// given object are simply left zero.
type Object struct {
	Proto      *Object
	Extensible bool
	Exotic     ExoticKind
	Class      string // internal classification, e.g. "Object", "Array", "Error", "Promise"
	Realm      *Realm

	props *orderedProperties

	// PrimitiveData boxes a primitive for wrapper objects (new Boolean(),
	// new String(), new Number(), new Symbol() via Object(), boxed
	// BigInt): spec.md §3's StringData/BooleanData/NumberData slots.
	PrimitiveData Value

	Call      HostFunc
	Construct HostFunc

	// Bound-function slots (spec.md §4.2, "bound-functions").
	BoundTarget *Object
	BoundThis   Value
	BoundArgs   []Value

	// Proxy slots (spec.md §4.2, "proxies").
	ProxyTarget  *Object
	ProxyHandler *Object
	ProxyRevoked bool

	// ErrorData marks an Error-kind object, per spec.md §3's `ErrorData`
	// slot; Stack holds its captured trace.
	ErrorData bool
	Stack     errors.StackTrace

	// Internal is the open-ended bag of optional internal slots spec.md
	// §3 describes for exotic behavior not otherwise promoted to a typed
	// field above (GeneratorState, PromiseState, function closure data,
	// arguments parameter map, module namespace bindings, ...). Keys are
	// short constant names defined alongside the package that owns them
	// (e.g. internal/evaluator defines "functionData").
	Internal map[string]any
}

// NewOrdinaryObject allocates an extensible ordinary object with the
// given prototype (nil for a null-prototype object).
func NewOrdinaryObject(proto *Object) *Object {
	return &Object{
		Proto:      proto,
		Extensible: true,
		Class:      "Object",
		props:      newOrderedProperties(),
	}
}

func (o *Object) Kind() Kind          { return KindObject }
func (o *Object) DebugString() string { return "[object " + o.Class + "]" }

// IsCallable reports whether Call is populated.
func (o *Object) IsCallable() bool { return o != nil && o.Call != nil }

// IsConstructor reports whether Construct is populated.
func (o *Object) IsConstructor() bool { return o != nil && o.Construct != nil }

// SetInternal stores a value in the open-ended internal-slot bag.
func (o *Object) SetInternal(key string, v any) {
	if o.Internal == nil {
		o.Internal = make(map[string]any)
	}
	o.Internal[key] = v
}

// GetInternal reads a value from the open-ended internal-slot bag.
func (o *Object) GetInternal(key string) (any, bool) {
	if o.Internal == nil {
		return nil, false
	}
	v, ok := o.Internal[key]
	return v, ok
}

// ---- Internal methods (spec.md §4.2) ----

// GetPrototypeOf returns the object's prototype link.
func (o *Object) GetPrototypeOf() *Object {
	if o.Exotic == ExoticProxy {
		return proxyGetPrototypeOf(o)
	}
	return o.Proto
}

// SetPrototypeOf attempts to change the prototype link, rejected when
// the object is non-extensible or a prototype cycle would form
// (spec.md §4.2).
func (o *Object) SetPrototypeOf(proto *Object) bool {
	if o.Exotic == ExoticProxy {
		return proxySetPrototypeOf(o, proto)
	}
	if o.Proto == proto {
		return true
	}
	if !o.Extensible {
		return false
	}
	for p := proto; p != nil; p = p.Proto {
		if p == o {
			return false
		}
		if p.Exotic == ExoticProxy {
			break // cannot statically detect a cycle through a proxy
		}
	}
	o.Proto = proto
	return true
}

func (o *Object) IsExtensible() bool {
	if o.Exotic == ExoticProxy {
		return proxyIsExtensible(o)
	}
	return o.Extensible
}

func (o *Object) PreventExtensions() bool {
	if o.Exotic == ExoticProxy {
		return proxyPreventExtensions(o)
	}
	o.Extensible = false
	return true
}

// GetOwnProperty returns the own-property descriptor for key, or nil if
// there is none.
func (o *Object) GetOwnProperty(key Value) *PropertyDescriptor {
	switch o.Exotic {
	case ExoticStringObject:
		if d := stringExoticGetOwnProperty(o, key); d != nil {
			return d
		}
	case ExoticArguments:
		if d := argumentsGetOwnProperty(o, key); d != nil {
			return d
		}
	case ExoticProxy:
		return proxyGetOwnProperty(o, key)
	}
	d, ok := o.props.get(propKey(key))
	if !ok {
		return nil
	}
	cp := *d
	return &cp
}

// DefineOwnProperty implements the compatibility-table algorithm of
// spec.md §4.2: any change is accepted on a configurable property, only
// attribute-preserving changes are accepted on a non-configurable one,
// and the call otherwise fails (returns false) rather than erroring —
// callers that need a thrown TypeError (e.g. strict-mode assignment)
// check the bool themselves.
func (o *Object) DefineOwnProperty(key Value, desc PropertyDescriptor) bool {
	switch o.Exotic {
	case ExoticArray:
		return arrayDefineOwnProperty(o, key, desc)
	case ExoticStringObject:
		if ok, handled := stringExoticDefineOwnProperty(o, key, desc); handled {
			return ok
		}
	case ExoticArguments:
		return argumentsDefineOwnProperty(o, key, desc)
	case ExoticProxy:
		return proxyDefineOwnProperty(o, key, desc)
	}
	return ordinaryDefineOwnProperty(o, key, desc)
}

func ordinaryDefineOwnProperty(o *Object, key Value, desc PropertyDescriptor) bool {
	current := o.GetOwnProperty(key)
	return validateAndApplyDescriptor(o, key, o.Extensible, desc, current)
}

// validateAndApplyDescriptor is ValidateAndApplyPropertyDescriptor: the
// shared compatibility-table logic every ordinary and exotic object
// variant (except proxy, which defers to its handler trap) ultimately
// calls.
func validateAndApplyDescriptor(o *Object, key Value, extensible bool, desc PropertyDescriptor, current *PropertyDescriptor) bool {
	if current == nil {
		if !extensible {
			return false
		}
		if o == nil {
			return true // caller (e.g. descriptor validation without a backing object) only wants the compatibility check
		}
		o.props.set(propKey(key), descPtr(CompleteDescriptor(desc)))
		return true
	}
	if !desc.IsDataDescriptor() && !desc.IsAccessorDescriptor() && desc.Enumerable == nil && desc.Configurable == nil {
		return true // no-op descriptor (e.g. {} passed to re-affirm existence)
	}
	if !current.IsConfigurable() {
		if desc.Configurable != nil && *desc.Configurable {
			return false
		}
		if desc.Enumerable != nil && *desc.Enumerable != current.IsEnumerable() {
			return false
		}
		if !desc.IsGenericDescriptor() && current.IsDataDescriptor() != desc.IsDataDescriptor() {
			return false
		}
		if current.IsDataDescriptor() {
			if !current.IsWritable() {
				if desc.Writable != nil && *desc.Writable {
					return false
				}
				if desc.Value != nil && !SameValue(desc.Value, current.Value) {
					return false
				}
			}
		} else {
			if desc.Get != nil && desc.Get != current.Get {
				return false
			}
			if desc.Set != nil && desc.Set != current.Set {
				return false
			}
		}
	}
	if o != nil {
		merged := mergeDescriptor(*current, desc)
		o.props.set(propKey(key), descPtr(merged))
	}
	return true
}

func mergeDescriptor(current, patch PropertyDescriptor) PropertyDescriptor {
	out := current
	if patch.IsAccessorDescriptor() && current.IsDataDescriptor() {
		out = PropertyDescriptor{Enumerable: current.Enumerable, Configurable: current.Configurable}
	}
	if patch.IsDataDescriptor() && current.IsAccessorDescriptor() {
		out = PropertyDescriptor{Enumerable: current.Enumerable, Configurable: current.Configurable}
	}
	if patch.Value != nil {
		out.Value = patch.Value
	}
	if patch.Writable != nil {
		out.Writable = patch.Writable
	}
	if patch.Get != nil {
		out.Get = patch.Get
	}
	if patch.Set != nil {
		out.Set = patch.Set
	}
	if patch.Enumerable != nil {
		out.Enumerable = patch.Enumerable
	}
	if patch.Configurable != nil {
		out.Configurable = patch.Configurable
	}
	return CompleteDescriptor(out)
}

func descPtr(d PropertyDescriptor) *PropertyDescriptor { return &d }

// HasProperty walks the prototype chain.
func (o *Object) HasProperty(key Value) bool {
	if o.Exotic == ExoticProxy {
		return proxyHasProperty(o, key)
	}
	if o.GetOwnProperty(key) != nil {
		return true
	}
	parent := o.GetPrototypeOf()
	if parent == nil {
		return false
	}
	return parent.HasProperty(key)
}

// Get walks the prototype chain until a data property is found (whose
// value is returned) or an accessor is found (invoked with receiver as
// `this`), per spec.md §4.2.
func (o *Object) Get(agent *Agent, key Value, receiver Value) (Value, *errors.LanguageError) {
	if o.Exotic == ExoticProxy {
		return proxyGet(agent, o, key, receiver)
	}
	desc := o.GetOwnProperty(key)
	if desc == nil {
		parent := o.GetPrototypeOf()
		if parent == nil {
			return Undefined, nil
		}
		return parent.Get(agent, key, receiver)
	}
	if desc.IsAccessorDescriptor() {
		if desc.Get == nil {
			return Undefined, nil
		}
		return desc.Get.Call(agent, receiver, nil, nil)
	}
	return desc.Value, nil
}

// Set either writes a data property on the original receiver or invokes
// an inherited setter, creating a new own data property when the chain
// has no setter (spec.md §4.2).
func (o *Object) Set(agent *Agent, key Value, value Value, receiver Value) (bool, *errors.LanguageError) {
	if o.Exotic == ExoticProxy {
		return proxySet(agent, o, key, value, receiver)
	}
	own := o.GetOwnProperty(key)
	if own == nil {
		parent := o.GetPrototypeOf()
		if parent != nil {
			return parent.Set(agent, key, value, receiver)
		}
		own = &PropertyDescriptor{Value: Undefined, Writable: boolPtr(true), Enumerable: boolPtr(true), Configurable: boolPtr(true)}
	}
	if own.IsDataDescriptor() {
		if !own.IsWritable() {
			return false, nil
		}
		recvObj, ok := receiver.(*Object)
		if !ok {
			return false, nil
		}
		existing := recvObj.GetOwnProperty(key)
		if existing != nil {
			if existing.IsAccessorDescriptor() {
				return false, nil
			}
			if !existing.IsWritable() {
				return false, nil
			}
			return recvObj.DefineOwnProperty(key, PropertyDescriptor{Value: value}), nil
		}
		return recvObj.DefineOwnProperty(key, DataProperty(value, true, true, true)), nil
	}
	if own.Set == nil {
		return false, nil
	}
	if _, err := own.Set.Call(agent, receiver, nil, []Value{value}); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes an own property, honoring the configurable attribute.
func (o *Object) Delete(key Value) bool {
	if o.Exotic == ExoticProxy {
		return proxyDelete(o, key)
	}
	if o.Exotic == ExoticArguments {
		argumentsDelete(o, key)
	}
	desc := o.GetOwnProperty(key)
	if desc == nil {
		return true
	}
	if !desc.IsConfigurable() {
		return false
	}
	o.props.delete(propKey(key))
	return true
}

// OwnPropertyKeys returns own keys in the spec-mandated order: ascending
// integer indices, then strings in insertion order, then symbols in
// insertion order.
func (o *Object) OwnPropertyKeys() []Value {
	if o.Exotic == ExoticProxy {
		return proxyOwnPropertyKeys(o)
	}
	raw := o.props.orderedKeys()
	out := make([]Value, len(raw))
	for i, k := range raw {
		switch kk := k.(type) {
		case string:
			out[i] = String(kk)
		case *Symbol:
			out[i] = kk
		}
	}
	return out
}

func propKey(v Value) any {
	switch k := v.(type) {
	case String:
		return string(k)
	case *Symbol:
		return k
	default:
		return v.DebugString()
	}
}

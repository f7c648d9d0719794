package runtime

import "github.com/escore/escore/internal/errors"

// NewBoundFunction wraps target in a bound-function exotic object that
// delegates Call/Construct to target with boundArgs prepended and
// boundThis substituted for `this` on calls (never on construct, where
// `this` is the freshly allocated instance), per spec.md §4.2.
func NewBoundFunction(target *Object, boundThis Value, boundArgs []Value, proto *Object) *Object {
	o := &Object{
		Proto:       proto,
		Extensible:  true,
		Exotic:      ExoticBoundFunction,
		Class:       "Function",
		BoundTarget: target,
		BoundThis:   boundThis,
		BoundArgs:   boundArgs,
		props:       newOrderedProperties(),
	}
	o.Call = func(agent *Agent, thisArg Value, newTarget *Object, args []Value) (Value, *errors.LanguageError) {
		return target.Call(agent, boundThis, nil, append(append([]Value{}, boundArgs...), args...))
	}
	if target.IsConstructor() {
		o.Construct = func(agent *Agent, _ Value, newTarget *Object, args []Value) (Value, *errors.LanguageError) {
			if newTarget == o {
				newTarget = target
			}
			return target.Construct(agent, nil, newTarget, append(append([]Value{}, boundArgs...), args...))
		}
	}
	length := 0
	if ld, _ := target.props.get("length"); ld != nil {
		if n, ok := ld.Value.(Number); ok {
			length = int(n) - len(boundArgs)
			if length < 0 {
				length = 0
			}
		}
	}
	o.props.set("length", descPtr(DataProperty(Number(float64(length)), false, false, true)))
	name := "bound "
	if nd, _ := target.props.get("name"); nd != nil {
		if s, ok := nd.Value.(String); ok {
			name += string(s)
		}
	}
	o.props.set("name", descPtr(DataProperty(String(name), false, false, true)))
	return o
}

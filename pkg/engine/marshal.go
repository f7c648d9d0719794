package engine

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
)

// errorInterface is the reflect.Type for the builtin error interface,
// used to detect a wrapped Go function's optional trailing error
// return the way the teacher's FFI layer does.
var errorInterface = reflect.TypeOf((*error)(nil)).Elem()

// wrapHostFunction builds a callable Object around fn, following the
// teacher's MarshalToGo/MarshalToDWS round trip (internal/interp/marshal.go)
// generalized from DWScript's Value union to this engine's Value union:
// each positional argument is converted to the matching Go parameter
// type, fn is invoked via reflection, and its result(s) are converted
// back. A func value is the only accepted shape — RegisterFunction does
// not support registering non-func values.
func wrapHostFunction(realm *runtime.Realm, name string, fn any) (*runtime.Object, error) {
	fnVal := reflect.ValueOf(fn)
	fnType := fnVal.Type()
	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("escore/engine: RegisterFunction(%q): not a func, got %s", name, fnType.Kind())
	}
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("escore/engine: RegisterFunction(%q): variadic Go functions are not supported", name)
	}

	numOut := fnType.NumOut()
	hasErrOut := numOut > 0 && fnType.Out(numOut-1) == errorInterface
	valueOuts := numOut
	if hasErrOut {
		valueOuts--
	}
	if valueOuts > 1 {
		return nil, fmt.Errorf("escore/engine: RegisterFunction(%q): at most one non-error return value is supported", name)
	}

	call := func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		in := make([]reflect.Value, fnType.NumIn())
		for i := range in {
			var argVal runtime.Value = runtime.Undefined
			if i < len(args) {
				argVal = args[i]
			}
			gv, err := valueToGo(agent, argVal, fnType.In(i))
			if err != nil {
				return nil, errors.NewType("%s: argument %d: %s", name, i+1, err)
			}
			in[i] = gv
		}

		out := fnVal.Call(in)

		if hasErrOut {
			if errVal := out[len(out)-1]; !errVal.IsNil() {
				return nil, errors.New(errors.Error, "%s: %s", name, errVal.Interface().(error))
			}
		}
		if valueOuts == 0 {
			return runtime.Undefined, nil
		}
		result, err := valueFromGo(realm, out[0].Interface())
		if err != nil {
			return nil, errors.NewType("%s: return value: %s", name, err)
		}
		return result, nil
	}

	obj := runtime.NewOrdinaryObject(realm.Intrinsics["%Function.prototype%"])
	obj.Class = "Function"
	obj.Realm = realm
	obj.Call = call
	obj.DefineOwnProperty(runtime.String("length"), runtime.DataProperty(runtime.Number(float64(fnType.NumIn())), false, false, true))
	obj.DefineOwnProperty(runtime.String("name"), runtime.DataProperty(runtime.String(name), false, false, true))
	return obj, nil
}

// valueToGo converts a language Value into a reflect.Value assignable
// to targetType, the mirror of the teacher's MarshalToGo but keyed off
// this engine's eight-kind union instead of DWScript's typed Value
// hierarchy.
func valueToGo(agent *runtime.Agent, v runtime.Value, targetType reflect.Type) (reflect.Value, error) {
	switch targetType.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := runtime.ToNumber(agent, v)
		if err != nil {
			return reflect.Value{}, err
		}
		rv := reflect.New(targetType).Elem()
		rv.SetInt(int64(n))
		return rv, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := runtime.ToNumber(agent, v)
		if err != nil {
			return reflect.Value{}, err
		}
		rv := reflect.New(targetType).Elem()
		rv.SetUint(uint64(n))
		return rv, nil

	case reflect.Float32, reflect.Float64:
		n, err := runtime.ToNumber(agent, v)
		if err != nil {
			return reflect.Value{}, err
		}
		rv := reflect.New(targetType).Elem()
		rv.SetFloat(float64(n))
		return rv, nil

	case reflect.String:
		s, err := runtime.ToStringValue(agent, v)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(string(s)), nil

	case reflect.Bool:
		return reflect.ValueOf(runtime.ToBoolean(v)), nil

	case reflect.Slice:
		o, ok := v.(*runtime.Object)
		if !ok || o.Exotic != runtime.ExoticArray {
			return reflect.Value{}, fmt.Errorf("expected an array, got %s", runtime.TypeOf(v))
		}
		lengthV, err := o.Get(agent, runtime.String("length"), o)
		if err != nil {
			return reflect.Value{}, err
		}
		n, _ := lengthV.(runtime.Number)
		length := int(n)
		elemType := targetType.Elem()
		out := reflect.MakeSlice(targetType, length, length)
		for i := 0; i < length; i++ {
			elem, gerr := o.Get(agent, runtime.String(indexKey(i)), o)
			if gerr != nil {
				return reflect.Value{}, gerr
			}
			gv, cerr := valueToGo(agent, elem, elemType)
			if cerr != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, cerr)
			}
			out.Index(i).Set(gv)
		}
		return out, nil

	case reflect.Map:
		if targetType.Key().Kind() != reflect.String {
			return reflect.Value{}, fmt.Errorf("only map[string]T targets are supported")
		}
		o, ok := v.(*runtime.Object)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected an object, got %s", runtime.TypeOf(v))
		}
		elemType := targetType.Elem()
		out := reflect.MakeMap(targetType)
		for _, key := range o.OwnPropertyKeys() {
			s, ok := key.(runtime.String)
			if !ok {
				continue
			}
			desc := o.GetOwnProperty(key)
			if desc == nil || !desc.IsEnumerable() {
				continue
			}
			fv, gerr := o.Get(agent, key, o)
			if gerr != nil {
				return reflect.Value{}, gerr
			}
			gv, cerr := valueToGo(agent, fv, elemType)
			if cerr != nil {
				return reflect.Value{}, fmt.Errorf("field %q: %w", string(s), cerr)
			}
			out.SetMapIndex(reflect.ValueOf(string(s)), gv)
		}
		return out, nil

	case reflect.Interface:
		if targetType.NumMethod() == 0 {
			gv, err := anyFromValue(agent, v)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(gv), nil
		}
		return reflect.Value{}, fmt.Errorf("unsupported interface target %s", targetType)

	default:
		return reflect.Value{}, fmt.Errorf("unsupported target type %s", targetType)
	}
}

// anyFromValue is valueToGo's untyped counterpart, used for a Go
// parameter typed `any`/`interface{}`.
func anyFromValue(agent *runtime.Agent, v runtime.Value) (any, error) {
	switch t := v.(type) {
	case runtime.Boolean:
		return bool(t), nil
	case runtime.String:
		return string(t), nil
	case runtime.Number:
		return float64(t), nil
	case *runtime.BigInt:
		return new(big.Int).Set(t.Int), nil
	case *runtime.Object:
		if t.Exotic == runtime.ExoticArray {
			rv, err := valueToGo(agent, v, reflect.TypeOf([]any{}))
			if err != nil {
				return nil, err
			}
			return rv.Interface(), nil
		}
		rv, err := valueToGo(agent, v, reflect.TypeOf(map[string]any{}))
		if err != nil {
			return nil, err
		}
		return rv.Interface(), nil
	default:
		if v == runtime.Null || v == runtime.Undefined {
			return nil, nil
		}
		return nil, fmt.Errorf("unsupported value kind %s", runtime.TypeOf(v))
	}
}

// valueFromGo converts a Go value returned from a registered host
// function into a language Value, the mirror of the teacher's
// MarshalToDWS.
func valueFromGo(realm *runtime.Realm, goValue any) (runtime.Value, error) {
	if goValue == nil {
		return runtime.Null, nil
	}
	if ev, ok := goValue.(runtime.Value); ok {
		return ev, nil
	}

	rv := reflect.ValueOf(goValue)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return runtime.Number(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return runtime.Number(float64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return runtime.Number(rv.Float()), nil
	case reflect.String:
		return runtime.String(rv.String()), nil
	case reflect.Bool:
		return runtime.Bool(rv.Bool()), nil
	case reflect.Slice, reflect.Array:
		arr := runtime.NewArrayObject(realm.Intrinsics["%Array.prototype%"])
		for i := 0; i < rv.Len(); i++ {
			elem, err := valueFromGo(realm, rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			arr.DefineOwnProperty(runtime.String(indexKey(i)), runtime.DataProperty(elem, true, true, true))
		}
		return arr, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("only map[string]T sources are supported")
		}
		o := runtime.NewOrdinaryObject(realm.Intrinsics["%Object.prototype%"])
		iter := rv.MapRange()
		for iter.Next() {
			val, err := valueFromGo(realm, iter.Value().Interface())
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", iter.Key().String(), err)
			}
			o.DefineOwnProperty(runtime.String(iter.Key().String()), runtime.DataProperty(val, true, true, true))
		}
		return o, nil
	case reflect.Ptr:
		if rv.IsNil() {
			return runtime.Null, nil
		}
		return valueFromGo(realm, rv.Elem().Interface())
	default:
		return nil, fmt.Errorf("unsupported Go return type %T", goValue)
	}
}

func indexKey(i int) string {
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

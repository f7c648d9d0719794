package intrinsics

import (
	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/intrinsics/textenc"
	"github.com/escore/escore/internal/runtime"
)

// TextEncodingPlugin installs TextEncoder/TextDecoder, a leaf plugin
// with no state shared with any other intrinsic — it only needs
// %Object.prototype% as a prototype link.
var TextEncodingPlugin = newPlugin("textencoding", []string{"object", "function"}, func(realm *runtime.Realm) *errors.LanguageError {
	encoderProto := runtime.NewOrdinaryObject(realm.Intrinsics["%Object.prototype%"])
	encoderProto.Class = "TextEncoder"
	constant(encoderProto, "encoding", runtime.String("utf-8"))

	method(realm, encoderProto, "encode", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := runtime.ToStringValue(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		bytes := textenc.Encode(string(s))
		values := make([]runtime.Value, len(bytes))
		for i, b := range bytes {
			values[i] = runtime.Number(float64(b))
		}
		return newArray(realm, values...), nil
	})

	encoderCtor := newNativeFunction(realm, "TextEncoder", 0, func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		targetProto := encoderProto
		if newTarget != nil {
			if pv, perr := newTarget.Get(agent, runtime.String("prototype"), newTarget); perr == nil {
				if p, ok := pv.(*runtime.Object); ok {
					targetProto = p
				}
			}
		}
		o := runtime.NewOrdinaryObject(targetProto)
		o.Class = "TextEncoder"
		return o, nil
	})
	encoderCtor.Construct = func(agent *runtime.Agent, _ runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return encoderCtor.Call(agent, runtime.Undefined, newTarget, args)
	}
	encoderCtor.DefineOwnProperty(runtime.String("prototype"), runtime.DataProperty(encoderProto, false, false, false))
	encoderProto.DefineOwnProperty(runtime.String("constructor"), runtime.DataProperty(encoderCtor, true, false, true))
	realm.Intrinsics["%TextEncoder%"] = encoderCtor
	realm.StageGlobal("TextEncoder", runtime.DataProperty(encoderCtor, true, false, true))

	decoderProto := runtime.NewOrdinaryObject(realm.Intrinsics["%Object.prototype%"])
	decoderProto.Class = "TextDecoder"

	method(realm, decoderProto, "decode", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		o, ok := thisArg.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("not a TextDecoder")
		}
		encV, _ := o.Get(agent, runtime.String("encoding"), o)
		encName, _ := encV.(runtime.String)
		bytesArr, ok := arg(args, 0).(*runtime.Object)
		if !ok {
			return nil, errors.NewType("TextDecoder.decode expects an array of byte values")
		}
		length, lerr := arrLen(agent, bytesArr)
		if lerr != nil {
			return nil, lerr
		}
		data := make([]byte, length)
		for i := 0; i < length; i++ {
			v, gerr := bytesArr.Get(agent, runtime.String(itoa(i)), bytesArr)
			if gerr != nil {
				return nil, gerr
			}
			n, ok := v.(runtime.Number)
			if !ok {
				return nil, errors.NewType("TextDecoder.decode expects numeric byte values")
			}
			data[i] = byte(int(n))
		}
		s, derr := textenc.Decode(data, string(encName))
		if derr != nil {
			return nil, errors.New(errors.Error, "%s", derr)
		}
		return runtime.String(s), nil
	})

	decoderCtor := newNativeFunction(realm, "TextDecoder", 0, func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		label := "utf-8"
		if v := arg(args, 0); v != runtime.Undefined {
			s, serr := runtime.ToStringValue(agent, v)
			if serr != nil {
				return nil, serr
			}
			label = string(s)
		}
		targetProto := decoderProto
		if newTarget != nil {
			if pv, perr := newTarget.Get(agent, runtime.String("prototype"), newTarget); perr == nil {
				if p, ok := pv.(*runtime.Object); ok {
					targetProto = p
				}
			}
		}
		o := runtime.NewOrdinaryObject(targetProto)
		o.Class = "TextDecoder"
		o.DefineOwnProperty(runtime.String("encoding"), runtime.DataProperty(runtime.String(label), false, false, false))
		return o, nil
	})
	decoderCtor.Construct = func(agent *runtime.Agent, _ runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return decoderCtor.Call(agent, runtime.Undefined, newTarget, args)
	}
	decoderCtor.DefineOwnProperty(runtime.String("prototype"), runtime.DataProperty(decoderProto, false, false, false))
	decoderProto.DefineOwnProperty(runtime.String("constructor"), runtime.DataProperty(decoderCtor, true, false, true))
	realm.Intrinsics["%TextDecoder%"] = decoderCtor
	realm.StageGlobal("TextDecoder", runtime.DataProperty(decoderCtor, true, false, true))

	return nil
})

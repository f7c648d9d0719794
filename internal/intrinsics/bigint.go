package intrinsics

import (
	"math/big"

	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
)

// BigIntPlugin installs %BigInt.prototype% and the %BigInt% conversion
// function, grounded on the teacher's arbitrary-precision integer
// support (math/big is already the teacher's choice for this).
var BigIntPlugin = newPlugin("bigint", []string{"object", "function"}, func(realm *runtime.Realm) *errors.LanguageError {
	proto := runtime.NewOrdinaryObject(realm.Intrinsics["%Object.prototype%"])
	proto.Class = "BigInt"
	realm.Intrinsics["%BigInt.prototype%"] = proto

	thisBigInt := func(thisArg runtime.Value) (*runtime.BigInt, *errors.LanguageError) {
		if b, ok := thisArg.(*runtime.BigInt); ok {
			return b, nil
		}
		if o, ok := thisArg.(*runtime.Object); ok {
			if b, ok := o.PrimitiveData.(*runtime.BigInt); ok {
				return b, nil
			}
		}
		return nil, errors.NewType("BigInt.prototype method called on incompatible receiver")
	}

	method(realm, proto, "toString", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		b, err := thisBigInt(thisArg)
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
		return runtime.String(b.Int.Text(radix)), nil
	})

	method(realm, proto, "valueOf", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return thisBigInt(thisArg)
	})

	ctor := newNativeFunction(realm, "BigInt", 1, func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		if newTarget != nil {
			return nil, errors.NewType("BigInt is not a constructor")
		}
		return runtime.ToBigInt(agent, arg(args, 0))
	})
	ctor.DefineOwnProperty(runtime.String("prototype"), runtime.DataProperty(proto, false, false, false))
	proto.DefineOwnProperty(runtime.String("constructor"), runtime.DataProperty(ctor, true, false, true))

	method(realm, ctor, "asIntN", 2, func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		bits, err := runtime.ToIntegerOrInfinity(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		b, err := runtime.ToBigInt(agent, arg(args, 1))
		if err != nil {
			return nil, err
		}
		return wrapToSignedBits(b, int(bits)), nil
	})

	realm.Intrinsics["%BigInt%"] = ctor
	realm.StageGlobal("BigInt", runtime.DataProperty(ctor, true, false, true))
	return nil
})

func wrapToSignedBits(b *runtime.BigInt, bits int) *runtime.BigInt {
	if bits <= 0 {
		return runtime.BigIntFromInt64(0)
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	v := new(big.Int).Mod(b.Int, mod)
	if v.Sign() < 0 {
		v.Add(v, mod)
	}
	half := new(big.Int).Rsh(mod, 1)
	if v.Cmp(half) >= 0 {
		v.Sub(v, mod)
	}
	return runtime.NewBigInt(v)
}

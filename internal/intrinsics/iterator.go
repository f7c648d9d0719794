package intrinsics

import (
	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/generator"
	"github.com/escore/escore/internal/runtime"
)

// IteratorPlugin installs %IteratorPrototype% (whose only contract is
// `[Symbol.iterator]() { return this }`, the root every built-in
// iterator's prototype chain reaches) and %GeneratorPrototype%, whose
// next/return/throw drive an internal/generator.Generator — the object
// evaluator/function.go's callGenerator wraps every generator-function
// call result in.
var IteratorPlugin = newPlugin("iterator", []string{"object", "function"}, func(realm *runtime.Realm) *errors.LanguageError {
	iterProto := runtime.NewOrdinaryObject(realm.Intrinsics["%Object.prototype%"])
	realm.Intrinsics["%IteratorPrototype%"] = iterProto
	symbolMethod(realm, iterProto, runtime.SymbolIterator, "[Symbol.iterator]", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return thisArg, nil
	})

	genProto := runtime.NewOrdinaryObject(iterProto)
	genProto.Class = "Generator"
	realm.Intrinsics["%GeneratorPrototype%"] = genProto

	genOf := func(thisArg runtime.Value) (*generator.Generator, *errors.LanguageError) {
		o, ok := thisArg.(*runtime.Object)
		if !ok {
			return nil, errors.NewType("not a generator object")
		}
		gv, ok := o.GetInternal("generator")
		if !ok {
			return nil, errors.NewType("not a generator object")
		}
		g, ok := gv.(*generator.Generator)
		if !ok {
			return nil, errors.NewType("not a generator object")
		}
		return g, nil
	}

	iterResult := func(value runtime.Value, done bool) *runtime.Object {
		r := newPlainObject(realm)
		r.DefineOwnProperty(runtime.String("value"), runtime.DataProperty(value, true, true, true))
		r.DefineOwnProperty(runtime.String("done"), runtime.DataProperty(runtime.Boolean(done), true, true, true))
		return r
	}

	method(realm, genProto, "next", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		g, err := genOf(thisArg)
		if err != nil {
			return nil, err
		}
		v, done, rerr := g.Resume(generator.ResumeNext, arg(args, 0))
		if rerr != nil {
			return nil, rerr
		}
		return iterResult(v, done), nil
	})

	method(realm, genProto, "return", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		g, err := genOf(thisArg)
		if err != nil {
			return nil, err
		}
		v, done, rerr := g.Resume(generator.ResumeReturn, arg(args, 0))
		if rerr != nil {
			return nil, rerr
		}
		return iterResult(v, done), nil
	})

	method(realm, genProto, "throw", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		g, err := genOf(thisArg)
		if err != nil {
			return nil, err
		}
		v, done, rerr := g.Resume(generator.ResumeThrow, arg(args, 0))
		if rerr != nil {
			return nil, rerr
		}
		return iterResult(v, done), nil
	})

	symbolMethod(realm, genProto, runtime.SymbolIterator, "[Symbol.iterator]", 0, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return thisArg, nil
	})

	return nil
})

package intrinsics

import (
	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
)

// CorePlugin bootstraps the two intrinsics every other plugin in this
// package depends on transitively: %Object.prototype% and
// %Function.prototype%. Building them together here, rather than
// letting ObjectPlugin and FunctionPlugin each build their own, breaks
// the chicken-and-egg problem of an ordinary object method needing a
// function prototype that in turn needs an object prototype to extend.
var CorePlugin = newPlugin("core", nil, func(realm *runtime.Realm) *errors.LanguageError {
	objectProto := runtime.NewOrdinaryObject(nil)
	realm.Intrinsics["%Object.prototype%"] = objectProto

	functionProto := runtime.NewOrdinaryObject(objectProto)
	functionProto.Class = "Function"
	functionProto.Realm = realm
	functionProto.Call = func(agent *runtime.Agent, thisArg runtime.Value, newTarget *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		return runtime.Undefined, nil
	}
	realm.Intrinsics["%Function.prototype%"] = functionProto

	return nil
})

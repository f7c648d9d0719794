package intrinsics

import (
	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/intrinsics/jsonplugin"
	"github.com/escore/escore/internal/runtime"
)

// JSONPlugin installs the JSON namespace object: stringify/parse plus
// the non-standard toYAML debug helper, which renders a value as
// readable YAML instead of minified JSON.
var JSONPlugin = newPlugin("json", []string{"object", "function"}, func(realm *runtime.Realm) *errors.LanguageError {
	jsonObj := newPlainObject(realm)

	method(realm, jsonObj, "stringify", 3, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		indent, ierr := resolveIndent(agent, arg(args, 2))
		if ierr != nil {
			return nil, ierr
		}
		s, ok, err := jsonplugin.Stringify(agent, arg(args, 0), indent)
		if err != nil {
			return nil, err
		}
		if !ok {
			return runtime.Undefined, nil
		}
		return runtime.String(s), nil
	})

	method(realm, jsonObj, "parse", 2, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		text, err := runtime.ToStringValue(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		return jsonplugin.Parse(agent, realm, string(text))
	})

	method(realm, jsonObj, "toYAML", 1, func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		s, err := jsonplugin.ToYAML(agent, arg(args, 0))
		if err != nil {
			return nil, err
		}
		return runtime.String(s), nil
	})

	realm.Intrinsics["%JSON%"] = jsonObj
	realm.StageGlobal("JSON", runtime.DataProperty(jsonObj, true, false, true))
	return nil
})

// resolveIndent turns JSON.stringify's third argument into the literal
// indent string Stringify expects: a number N becomes N spaces (capped
// at 10 per the host contract), a string is used verbatim (truncated to
// 10 characters), anything else means no pretty-printing.
func resolveIndent(agent *runtime.Agent, v runtime.Value) (string, *errors.LanguageError) {
	switch t := v.(type) {
	case runtime.Number:
		n := int(t)
		if n > 10 {
			n = 10
		}
		if n <= 0 {
			return "", nil
		}
		out := make([]byte, n)
		for i := range out {
			out[i] = ' '
		}
		return string(out), nil
	case runtime.String:
		s := string(t)
		if len(s) > 10 {
			s = s[:10]
		}
		return s, nil
	default:
		return "", nil
	}
}

package intrinsics

import (
	"fmt"
	"os"
	"strings"

	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
)

// ConsolePlugin installs a minimal host console object: log/info/debug
// write to stdout, warn/error write to stderr. There is no inspector
// here — each argument is rendered through displayString, the same
// coercion %Error.prototype%.toString and Array.prototype.join rely on,
// rather than a structured object formatter, since escore has no notion
// of a REPL-quality inspector to ground one on.
var ConsolePlugin = newPlugin("console", []string{"object", "function"}, func(realm *runtime.Realm) *errors.LanguageError {
	console := newPlainObject(realm)

	logTo := func(w *os.File) runtime.HostFunc {
		return func(agent *runtime.Agent, thisArg runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
			parts := make([]string, len(args))
			for i, a := range args {
				s, err := displayString(agent, a)
				if err != nil {
					return nil, err
				}
				parts[i] = s
			}
			fmt.Fprintln(w, strings.Join(parts, " "))
			return runtime.Undefined, nil
		}
	}

	method(realm, console, "log", 0, logTo(os.Stdout))
	method(realm, console, "info", 0, logTo(os.Stdout))
	method(realm, console, "debug", 0, logTo(os.Stdout))
	method(realm, console, "warn", 0, logTo(os.Stderr))
	method(realm, console, "error", 0, logTo(os.Stderr))

	realm.Intrinsics["%console%"] = console
	realm.StageGlobal("console", runtime.DataProperty(console, true, false, true))
	return nil
})

// displayString renders a value the way console output shows it: plain
// strings unquoted, everything else through ToStringValue, falling back
// to the object's own toString/valueOf machinery.
func displayString(agent *runtime.Agent, v runtime.Value) (string, *errors.LanguageError) {
	if s, ok := v.(runtime.String); ok {
		return string(s), nil
	}
	s, err := runtime.ToStringValue(agent, v)
	if err != nil {
		return "", err
	}
	return string(s), nil
}

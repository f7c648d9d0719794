package runtime

// CompletionKind is the control-flow tag of a Completion record
// (spec.md §3).
type CompletionKind uint8

const (
	Normal CompletionKind = iota
	Throw
	Return
	Break
	Continue
)

func (k CompletionKind) String() string {
	switch k {
	case Normal:
		return "normal"
	case Throw:
		return "throw"
	case Return:
		return "return"
	case Break:
		return "break"
	case Continue:
		return "continue"
	default:
		return "unknown"
	}
}

// Completion is the result of any internal operation (spec.md §3). Every
// evaluator API returns one. Abruptness detection is the single-field
// IsAbrupt test the spec calls for; callers must not inspect Value/Target
// without checking Kind first, since a Break/Continue completion's Value
// is the empty sentinel, not a language Value.
type Completion struct {
	Kind   CompletionKind
	Value  Value  // meaningful for Normal, Return and Throw; nil ("empty") otherwise
	Target string // label for Break/Continue; "" means "nearest unlabeled"
}

// NormalCompletion wraps v as a normal completion.
func NormalCompletion(v Value) Completion { return Completion{Kind: Normal, Value: v} }

// ThrowCompletion wraps v (the thrown value) as a throw completion.
func ThrowCompletion(v Value) Completion { return Completion{Kind: Throw, Value: v} }

// ReturnCompletion wraps v as a return completion.
func ReturnCompletion(v Value) Completion { return Completion{Kind: Return, Value: v} }

// BreakCompletion produces a break completion, optionally targeting a
// label.
func BreakCompletion(target string) Completion { return Completion{Kind: Break, Target: target} }

// ContinueCompletion produces a continue completion, optionally
// targeting a label.
func ContinueCompletion(target string) Completion { return Completion{Kind: Continue, Target: target} }

// IsAbrupt reports whether c is anything other than Normal.
func (c Completion) IsAbrupt() bool { return c.Kind != Normal }

// UpdateValue returns a copy of c with Value replaced, used by callers
// that thread a completion through several steps and only want to change
// its carried value (e.g. unwrapping ExpressionStatement's completion
// semantics, where the empty completion of earlier statements is
// replaced by the value of the most recently evaluated one).
func (c Completion) UpdateValue(v Value) Completion {
	c.Value = v
	return c
}

package runtime

import "github.com/escore/escore/internal/errors"

// ExecutionContext is the per-activation record of spec.md §3: which
// function (if any) is running, under which realm, against which
// environment records. The VM (here, Agent) holds a stack of these; the
// topmost is "running".
type ExecutionContext struct {
	Function           *Object // nil for the top-level script context
	Realm              *Realm
	LexicalEnvironment Environment
	VariableEnvironment Environment
	PrivateEnvironment  *PrivateEnvironment
	// Suspended holds generator/async suspension state when this context
	// has been detached from the stack by a yield/await (spec.md §3,
	// "a generator's context is detached from the stack on yield").
	Suspended any
	// FunctionName is used for stack-trace rendering; ordinary functions
	// set it from their AST name, builtins from their registered name.
	FunctionName string
}

// PrivateEnvironment models the (currently minimal) private-field
// environment chain used by class private members (`#field`). It is kept
// as its own type per spec.md §3's execution-context record so private
// name resolution does not piggyback on the declarative environment
// record used for ordinary bindings.
type PrivateEnvironment struct {
	Names map[string]*Symbol
	Outer *PrivateEnvironment
}

func NewPrivateEnvironment(outer *PrivateEnvironment) *PrivateEnvironment {
	return &PrivateEnvironment{Names: make(map[string]*Symbol), Outer: outer}
}

func (pe *PrivateEnvironment) Resolve(name string) (*Symbol, bool) {
	for e := pe; e != nil; e = e.Outer {
		if s, ok := e.Names[name]; ok {
			return s, true
		}
	}
	return nil, false
}

// CallStack is the Agent's execution-context stack, grounded on the
// teacher's runtime.CallStack (stack-overflow detection + stack-trace
// rendering) but holding ExecutionContext frames instead of DWScript
// call frames.
type CallStack struct {
	frames   []*ExecutionContext
	maxDepth int
}

// NewCallStack creates a call stack bounded at maxDepth frames (0 or
// negative selects the default of 1024, matching the teacher's default
// recursion budget).
func NewCallStack(maxDepth int) *CallStack {
	if maxDepth <= 0 {
		maxDepth = 1024
	}
	return &CallStack{maxDepth: maxDepth}
}

// Push installs ctx as the running context. It fails with a RangeError
// ("stack overflow") once MaxDepth is reached, the host-visible form of
// unbounded recursion.
func (cs *CallStack) Push(ctx *ExecutionContext) *errors.LanguageError {
	if len(cs.frames) >= cs.maxDepth {
		return errors.NewRange("Maximum call stack size exceeded")
	}
	cs.frames = append(cs.frames, ctx)
	return nil
}

// Pop removes the running context.
func (cs *CallStack) Pop() {
	if len(cs.frames) > 0 {
		cs.frames = cs.frames[:len(cs.frames)-1]
	}
}

// Current returns the running context, or nil if the stack is empty
// (i.e. no script is currently executing — the condition the job queue
// (spec.md §4.7) waits for before running a job).
func (cs *CallStack) Current() *ExecutionContext {
	if len(cs.frames) == 0 {
		return nil
	}
	return cs.frames[len(cs.frames)-1]
}

func (cs *CallStack) Depth() int { return len(cs.frames) }

func (cs *CallStack) IsEmpty() bool { return len(cs.frames) == 0 }

// Trace renders the current stack as an errors.StackTrace for attaching
// to a freshly thrown error object (spec.md §6, captureStackTrace).
func (cs *CallStack) Trace() errors.StackTrace {
	st := make(errors.StackTrace, 0, len(cs.frames))
	for _, f := range cs.frames {
		name := f.FunctionName
		if name == "" {
			name = "<anonymous>"
		}
		st = append(st, errors.NewStackFrame(name, "", nil))
	}
	return st
}

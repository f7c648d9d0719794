// Package generator implements the cooperative-suspension machinery
// backing sync and async generators (spec.md §4.6): a generator body
// runs on its own goroutine, handing control back and forth with its
// caller over a pair of unbuffered channels so exactly one side ever
// runs at a time — a goroutine-based stand-in for the host spec's
// detach-the-execution-context-on-yield model, grounded on the same
// "one thing runs, the other blocks" shape the teacher's CallStack
// enforces for ordinary calls.
package generator

import (
	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
)

// ResumeKind tags how a suspended generator is being resumed: a plain
// `.next(v)`, a `.throw(v)` injecting an exception at the yield point, or
// a `.return(v)` forcing early completion (spec.md §4.6).
type ResumeKind uint8

const (
	ResumeNext ResumeKind = iota
	ResumeThrow
	ResumeReturn
)

// resumeMsg is sent from the caller into the generator goroutine.
type resumeMsg struct {
	kind  ResumeKind
	value runtime.Value
}

// yieldMsg is sent from the generator goroutine back to the caller:
// either a yielded value (done==false) or the body's final completion
// (done==true, with err set for an abrupt/throw completion).
type yieldMsg struct {
	value runtime.Value
	done  bool
	err   *errors.LanguageError
}

// Yield is the function a generator body calls at each `yield`/`await`
// point; it blocks until the caller resumes the generator, then returns
// the resume value or reports that the resume was a throw/return request
// the body must honor (by returning an error, or by returning normally
// with the forced return value).
type Yield func(value runtime.Value) (resumeValue runtime.Value, kind ResumeKind, err *errors.LanguageError)

// State machine for a Generator's lifecycle (spec.md §4.6's
// suspendedStart/suspendedYield/executing/completed states).
type State uint8

const (
	SuspendedStart State = iota
	SuspendedYield
	Executing
	Completed
)

// Generator drives one generator body's goroutine.
type Generator struct {
	state    State
	resumeCh chan resumeMsg
	yieldCh  chan yieldMsg
	started  bool
}

// Body is the generator function body, invoked on its own goroutine
// with a Yield closure it calls at every suspension point. Its final
// return value becomes the `{value, done: true}` the caller's terminal
// next() observes (spec.md §4.6, "a generator's return value becomes
// the final iteration result").
type Body func(yield Yield) (runtime.Value, *errors.LanguageError)

// New allocates a generator in the suspendedStart state; the body does
// not begin running until the first Resume call.
func New(body Body) *Generator {
	g := &Generator{
		state:    SuspendedStart,
		resumeCh: make(chan resumeMsg),
		yieldCh:  make(chan yieldMsg),
	}
	go g.run(body)
	return g
}

func (g *Generator) run(body Body) {
	// Block until the first Resume call before running any body code, so
	// a generator created but never iterated never executes side effects.
	first := <-g.resumeCh
	if first.kind == ResumeReturn {
		g.yieldCh <- yieldMsg{value: first.value, done: true}
		return
	}
	if first.kind == ResumeThrow {
		g.yieldCh <- yieldMsg{done: true, err: errors.New(errors.Error, "generator threw before starting")}
		return
	}

	yield := func(v runtime.Value) (runtime.Value, ResumeKind, *errors.LanguageError) {
		g.yieldCh <- yieldMsg{value: v, done: false}
		msg := <-g.resumeCh
		// ResumeThrow/ResumeReturn carry their payload as msg.value; the
		// body (via the evaluator's yield-expression handling) is
		// responsible for turning a ResumeThrow value into a throw
		// completion and a ResumeReturn value into a return completion.
		return msg.value, msg.kind, nil
	}

	result, err := body(yield)
	g.yieldCh <- yieldMsg{value: result, done: true, err: err}
}

// Resume sends a resumption message and blocks until the generator
// yields again or completes. Calling Resume on a Completed generator
// with ResumeNext returns {Undefined, true, nil} without re-entering the
// goroutine, matching the spec's "resuming a completed generator is a
// no-op returning {value: undefined, done: true}".
func (g *Generator) Resume(kind ResumeKind, value runtime.Value) (runtime.Value, bool, *errors.LanguageError) {
	if g.state == Completed {
		if kind == ResumeThrow {
			return nil, true, errors.New(errors.Error, "cannot throw into a completed generator")
		}
		if kind == ResumeReturn {
			return value, true, nil
		}
		return runtime.Undefined, true, nil
	}
	g.state = Executing
	g.resumeCh <- resumeMsg{kind: kind, value: value}
	msg := <-g.yieldCh
	if msg.done {
		g.state = Completed
	} else {
		g.state = SuspendedYield
	}
	return msg.value, msg.done, msg.err
}

// StateOf reports the generator's current lifecycle state.
func (g *Generator) StateOf() State { return g.state }

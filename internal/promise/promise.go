// Package promise implements the Promise capability/reaction/job-queue
// machinery of spec.md §4.7: a promise's state transitions exactly once
// (pending -> fulfilled or pending -> rejected), then every reaction
// registered via `then` runs as a later microtask off the Agent's FIFO
// job queue.
package promise

import (
	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/runtime"
)

// State is a promise's settlement state.
type State uint8

const (
	Pending State = iota
	Fulfilled
	Rejected
)

const internalKey = "promiseState"

// Data is the internal slot bag a Promise-class Object carries, stored
// under the Object's generic Internal map (spec.md §3's open internal-slot
// bag).
type Data struct {
	State      State
	Result     runtime.Value
	IsHandled  bool
	fulfillRxn []reaction
	rejectRxn  []reaction
}

// reaction is one registered `then` callback: handler is the
// onFulfilled function for a fulfill reaction or the onRejected function
// for a reject reaction (nil if the caller passed neither), and
// capability is the derived promise's capability to settle once handler
// runs.
type reaction struct {
	handler    *runtime.Object
	capability *Capability
	// isReject marks a reaction formed from the rejection path with no
	// onRejected handler supplied: its argument must propagate to the
	// derived promise's reject function rather than its resolve
	// function, per spec.md §4.7's "a missing handler passes the
	// settlement through unchanged".
	isReject bool
}

// Capability bundles a promise with its resolve/reject functions, the
// "promise capability record" of spec.md §4.7.
type Capability struct {
	Promise *runtime.Object
	Resolve *runtime.Object
	Reject  *runtime.Object
}

func dataOf(p *runtime.Object) *Data {
	v, ok := p.GetInternal(internalKey)
	if !ok {
		return nil
	}
	return v.(*Data)
}

// NewPromise allocates a pending promise object.
func NewPromise(proto *runtime.Object) *runtime.Object {
	p := runtime.NewOrdinaryObject(proto)
	p.Class = "Promise"
	p.SetInternal(internalKey, &Data{State: Pending})
	return p
}

// NewCapability allocates a fresh pending promise together with resolve
// and reject functions closing over it, per spec.md §4.7's
// NewPromiseCapability.
func NewCapability(agent *runtime.Agent, proto *runtime.Object) *Capability {
	p := NewPromise(proto)
	capRec := &Capability{Promise: p}
	resolved := false
	capRec.Resolve = makeHostFunc(func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		if resolved {
			return runtime.Undefined, nil
		}
		resolved = true
		var v runtime.Value = runtime.Undefined
		if len(args) > 0 {
			v = args[0]
		}
		Resolve(agent, p, v)
		return runtime.Undefined, nil
	})
	capRec.Reject = makeHostFunc(func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
		if resolved {
			return runtime.Undefined, nil
		}
		resolved = true
		var v runtime.Value = runtime.Undefined
		if len(args) > 0 {
			v = args[0]
		}
		settle(agent, p, Rejected, v)
		return runtime.Undefined, nil
	})
	return capRec
}

func makeHostFunc(fn runtime.HostFunc) *runtime.Object {
	o := runtime.NewOrdinaryObject(nil)
	o.Class = "Function"
	o.Call = fn
	return o
}

// Resolve implements the resolve-function algorithm: a thenable value
// resolves the promise by chaining onto it via a job; any other value
// fulfills immediately (spec.md §4.7).
func Resolve(agent *runtime.Agent, p *runtime.Object, value runtime.Value) {
	if thenObj, ok := value.(*runtime.Object); ok {
		if thenObj == p {
			settle(agent, p, Rejected, typeErrorValue(agent, "Chaining cycle detected for promise"))
			return
		}
		thenV, err := thenObj.Get(agent, runtime.String("then"), thenObj)
		if err == nil {
			if then, ok := thenV.(*runtime.Object); ok && then.IsCallable() {
				enqueueThenableJob(agent, p, thenObj, then)
				return
			}
		}
	}
	settle(agent, p, Fulfilled, value)
}

// typeErrorValue builds a real %TypeError% instance the way
// internal/evaluator/function.go's errorToValue does, so `catch (e) { e
// instanceof TypeError }` observes a proper error object rather than a
// bare string for the chaining-cycle rejection of spec.md §4.7. Falls
// back to a string only when no realm is reachable from agent's current
// execution context.
func typeErrorValue(agent *runtime.Agent, msg string) runtime.Value {
	ctx := agent.Stack.Current()
	if ctx == nil || ctx.Realm == nil {
		return runtime.String(msg)
	}
	ctor, ok := ctx.Realm.Intrinsics["%TypeError%"]
	if !ok || !ctor.IsConstructor() {
		return runtime.String(msg)
	}
	v, cerr := ctor.Construct(agent, nil, ctor, []runtime.Value{runtime.String(msg)})
	if cerr != nil {
		return runtime.String(msg)
	}
	return v
}

func enqueueThenableJob(agent *runtime.Agent, p *runtime.Object, thenable *runtime.Object, then *runtime.Object) {
	agent.EnqueueJob(&runtime.Job{
		Run: func(agent *runtime.Agent) *errors.LanguageError {
			capRec := &Capability{Promise: p}
			resolved := false
			capRec.Resolve = makeHostFunc(func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
				if resolved {
					return runtime.Undefined, nil
				}
				resolved = true
				var v runtime.Value = runtime.Undefined
				if len(args) > 0 {
					v = args[0]
				}
				Resolve(agent, p, v)
				return runtime.Undefined, nil
			})
			capRec.Reject = makeHostFunc(func(agent *runtime.Agent, _ runtime.Value, _ *runtime.Object, args []runtime.Value) (runtime.Value, *errors.LanguageError) {
				if resolved {
					return runtime.Undefined, nil
				}
				resolved = true
				var v runtime.Value = runtime.Undefined
				if len(args) > 0 {
					v = args[0]
				}
				settle(agent, p, Rejected, v)
				return runtime.Undefined, nil
			})
			_, err := then.Call(agent, thenable, nil, []runtime.Value{capRec.Resolve, capRec.Reject})
			if err != nil {
				if !resolved {
					settle(agent, p, Rejected, errValue(err))
				}
			}
			return nil
		},
	})
}

func errValue(err *errors.LanguageError) runtime.Value {
	if v, ok := err.Value.(runtime.Value); ok {
		return v
	}
	return runtime.String(err.Message)
}

func settle(agent *runtime.Agent, p *runtime.Object, state State, value runtime.Value) {
	d := dataOf(p)
	if d == nil || d.State != Pending {
		return
	}
	d.State = state
	d.Result = value
	var reactions []reaction
	if state == Fulfilled {
		reactions = d.fulfillRxn
	} else {
		reactions = d.rejectRxn
		if !d.IsHandled && agent.UnhandledRejectionTracker != nil && len(reactions) == 0 {
			agent.UnhandledRejectionTracker(p, value)
		}
	}
	d.fulfillRxn = nil
	d.rejectRxn = nil
	for _, r := range reactions {
		enqueueReactionJob(agent, r, value)
	}
}

func enqueueReactionJob(agent *runtime.Agent, r reaction, argument runtime.Value) {
	agent.EnqueueJob(&runtime.Job{
		Run: func(agent *runtime.Agent) *errors.LanguageError {
			handler := r.handler
			if handler == nil || !handler.IsCallable() {
				if r.capability == nil {
					return nil
				}
				if r.isReject {
					_, _ = r.capability.Reject.Call(agent, runtime.Undefined, nil, []runtime.Value{argument})
				} else {
					_, _ = r.capability.Resolve.Call(agent, runtime.Undefined, nil, []runtime.Value{argument})
				}
				return nil
			}
			result, callErr := handler.Call(agent, runtime.Undefined, nil, []runtime.Value{argument})
			if r.capability == nil {
				return nil
			}
			if callErr != nil {
				_, _ = r.capability.Reject.Call(agent, runtime.Undefined, nil, []runtime.Value{errValue(callErr)})
				return nil
			}
			_, _ = r.capability.Resolve.Call(agent, runtime.Undefined, nil, []runtime.Value{result})
			return nil
		},
	})
}

// Then implements PerformPromiseThen: registers onFulfilled/onRejected
// against p (either queuing immediately if already settled, or
// appending to the pending reaction lists), returning the derived
// promise of the capability the caller supplies (nil capability is valid
// for a `then` call whose result is discarded).
func Then(agent *runtime.Agent, p *runtime.Object, onFulfilled, onRejected *runtime.Object, resultCap *Capability) *runtime.Object {
	d := dataOf(p)
	d.IsHandled = true
	fulfillReaction := reaction{handler: onFulfilled, capability: resultCap}
	rejectReaction := reaction{handler: onRejected, capability: resultCap, isReject: true}
	switch d.State {
	case Pending:
		d.fulfillRxn = append(d.fulfillRxn, fulfillReaction)
		d.rejectRxn = append(d.rejectRxn, rejectReaction)
	case Fulfilled:
		enqueueReactionJob(agent, fulfillReaction, d.Result)
	case Rejected:
		enqueueReactionJob(agent, rejectReaction, d.Result)
	}
	if resultCap != nil {
		return resultCap.Promise
	}
	return nil
}

// StateValue exposes a promise's current settlement snapshot, used by
// diagnostics/debuggers and by the await abstract operation.
func StateValue(p *runtime.Object) (State, runtime.Value) {
	d := dataOf(p)
	if d == nil {
		return Pending, nil
	}
	return d.State, d.Result
}

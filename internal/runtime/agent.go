package runtime

import "github.com/escore/escore/internal/errors"

// Job is a microtask: a callable scheduled to run when the execution
// context stack is empty (spec.md §4.7, GLOSSARY "Job"). internal/promise
// constructs Jobs; Agent only knows how to queue and drain them, keeping
// the FIFO/empty-stack scheduling rule in one place shared by every job
// producer (promise reactions, resolve-thenable jobs, host-scheduled
// callbacks).
type Job struct {
	Realm *Realm
	Run   func(agent *Agent) *errors.LanguageError
}

// Agent is the running VM: the execution-context stack plus the pending
// microtask queue, mirroring spec.md §3's "The VM holds a stack of
// these" and §4.7's job-queue semantics. One Agent typically drives one
// or more realms sequentially (cross-realm references are permitted;
// spec.md §5).
type Agent struct {
	Stack *CallStack
	jobs  []*Job

	// UnhandledRejectionTracker is invoked when a promise is rejected
	// with is-handled still false at the time rejection settles — the
	// host rejection tracker hook of spec.md §4.7/§7.
	UnhandledRejectionTracker func(promise *Object, reason Value)
}

// NewAgent constructs an Agent with the given max call-stack depth (0
// selects the default).
func NewAgent(maxDepth int) *Agent {
	return &Agent{Stack: NewCallStack(maxDepth)}
}

// EnqueueJob appends j to the FIFO microtask queue.
func (a *Agent) EnqueueJob(j *Job) {
	a.jobs = append(a.jobs, j)
}

// HasPendingJobs reports whether any job remains queued.
func (a *Agent) HasPendingJobs() bool { return len(a.jobs) > 0 }

// RunJobs drains the microtask queue to empty, strictly FIFO, running
// each job to completion before starting the next (spec.md §4.7/§5). A
// job is only started when the context stack is empty; since jobs only
// run between top-level evaluator drives in this single-threaded engine,
// that invariant holds by construction as long as callers never invoke
// RunJobs while a script is mid-evaluation. A job that itself enqueues
// further jobs (e.g. a `.then` chain) has those run within the same
// drain, since new jobs are appended to the same slice being drained.
func (a *Agent) RunJobs() *errors.LanguageError {
	for len(a.jobs) > 0 {
		j := a.jobs[0]
		a.jobs = a.jobs[1:]
		if err := j.Run(a); err != nil {
			return err
		}
	}
	return nil
}

// RunOneJob drains exactly one pending job, if any, returning whether a
// job ran. This is the primitive an async step-budgeted runner
// (spec.md §6, "an async runner honours a step/time budget") uses to
// interleave job draining with bounded progress checks instead of
// draining the whole queue in one call.
func (a *Agent) RunOneJob() (bool, *errors.LanguageError) {
	if len(a.jobs) == 0 {
		return false, nil
	}
	j := a.jobs[0]
	a.jobs = a.jobs[1:]
	return true, j.Run(a)
}

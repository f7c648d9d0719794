// Package engine is the host-facing facade over the runtime/evaluator/
// intrinsics packages, the same role the teacher's pkg/dwscript plays
// over its internal/interp: a caller never touches internal/runtime or
// internal/evaluator directly, it builds an *Engine, loads a program,
// and reads back a *Result.
//
// This engine never parses source text itself (spec.md's parser is a
// declared non-goal) — a host supplies an already-parsed *ast.Program,
// typically decoded from JSON via ast.DecodeProgram.
package engine

import (
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/escore/escore/internal/errors"
	"github.com/escore/escore/internal/evaluator"
	"github.com/escore/escore/internal/intrinsics"
	"github.com/escore/escore/internal/plugin"
	"github.com/escore/escore/internal/runtime"
	"github.com/escore/escore/pkg/ast"
)

// Engine owns one Agent driving one Realm. A host wanting isolated
// globals per script creates a new Engine per script; an Agent (and
// thus its job queue) is never shared across Engines.
type Engine struct {
	agent    *runtime.Agent
	realm    *runtime.Realm
	registry *plugin.Registry
	stdout   io.Writer
	stderr   io.Writer
}

// Option configures an Engine at construction, mirroring the teacher's
// pkg/dwscript functional-option constructor (WithTypeCheck and
// friends).
type Option func(*config)

type config struct {
	maxCallDepth      int
	stdout            io.Writer
	stderr            io.Writer
	registry          *plugin.Registry
	unhandledRejected func(promise *runtime.Object, reason runtime.Value)
}

// WithMaxCallDepth overrides the default call-stack depth limit used to
// detect runaway recursion (spec.md §4.4's "stack overflow -> RangeError"
// requirement).
func WithMaxCallDepth(n int) Option {
	return func(c *config) { c.maxCallDepth = n }
}

// WithOutput records w as the Engine's standard output (default
// os.Stdout). The console plugin does not read it: console.log/info/debug
// always write to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.stdout = w }
}

// WithErrorOutput records w as the Engine's error output (default
// os.Stderr). The console plugin does not read it: console.warn/error
// always write to os.Stderr.
func WithErrorOutput(w io.Writer) Option {
	return func(c *config) { c.stderr = w }
}

// WithRegistry overrides the default intrinsic plugin set, letting a
// host install a trimmed or extended realm (spec.md §4.9's pluggable
// assembly). Most callers never need this — intrinsics.NewDefaultRegistry
// is used otherwise.
func WithRegistry(r *plugin.Registry) Option {
	return func(c *config) { c.registry = r }
}

// WithUnhandledRejectionHandler installs the host rejection tracker
// hook of spec.md §4.7/§7: invoked when a promise settles rejected with
// no handler attached at that point.
func WithUnhandledRejectionHandler(fn func(promise *runtime.Object, reason runtime.Value)) Option {
	return func(c *config) { c.unhandledRejected = fn }
}

// New constructs an Engine with a fresh realm and installs the intrinsic
// plugin set (or the caller's override).
func New(opts ...Option) (*Engine, error) {
	cfg := &config{stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.registry == nil {
		cfg.registry = intrinsics.NewDefaultRegistry()
	}

	realm := runtime.NewRealm(uuid.NewString())
	if lerr := cfg.registry.InstallAll(realm); lerr != nil {
		return nil, lerr
	}

	agent := runtime.NewAgent(cfg.maxCallDepth)
	if cfg.unhandledRejected != nil {
		agent.UnhandledRejectionTracker = cfg.unhandledRejected
	}

	return &Engine{
		agent:    agent,
		realm:    realm,
		registry: cfg.registry,
		stdout:   cfg.stdout,
		stderr:   cfg.stderr,
	}, nil
}

// Result is the outcome of running a program, mirroring the teacher's
// pkg/dwscript.Result (Success plus a printable value) adapted to this
// engine's Value union.
type Result struct {
	Value   runtime.Value
	Success bool
}

// Run evaluates program's top-level statement list against the
// engine's realm and drains the microtask queue once evaluation
// completes, so any promise reactions or resolve-thenable jobs
// scheduled during the run finish before Run returns.
func (e *Engine) Run(program *ast.Program) (*Result, error) {
	v, err := evaluator.EvalProgram(e.agent, e.realm, program)
	if err != nil {
		return &Result{Success: false}, err
	}
	if err := e.agent.RunJobs(); err != nil {
		return &Result{Success: false}, err
	}
	return &Result{Value: v, Success: true}, nil
}

// RunJobs drains the microtask queue without evaluating a program,
// useful after a host-triggered callback (e.g. a resolved FFI promise)
// schedules new reactions outside of Run.
func (e *Engine) RunJobs() error {
	if err := e.agent.RunJobs(); err != nil {
		return err
	}
	return nil
}

// Realm exposes the underlying realm for host code that needs direct
// access to intrinsics or the global object — registering a host
// function via RegisterFunction covers the common case, but a host
// embedding escore inside a larger runtime sometimes needs the raw
// realm (e.g. to stage additional globals before Run).
func (e *Engine) Realm() *runtime.Realm { return e.realm }

// Agent exposes the underlying agent, mainly so host code can call
// EnqueueJob directly when bridging an external async operation (a
// network response, a timer) into the engine's job queue.
func (e *Engine) Agent() *runtime.Agent { return e.agent }

// Global sets a global binding visible to scripts, the data-property
// half of spec.md §4.9's realm assembly a host performs after plugin
// installation (e.g. exposing a configuration object). It is an error
// to call Global after Run, since globals are installed directly on
// GlobalObject rather than staged.
func (e *Engine) Global(name string, v runtime.Value) {
	e.realm.GlobalObject.DefineOwnProperty(runtime.String(name), runtime.DataProperty(v, true, false, true))
}

// RegisterFunction exposes a Go function to scripts under name,
// wrapping it through reflection (see marshal.go) the way the
// teacher's pkg/dwscript.Engine.RegisterFunction bridges a Go func
// into DWScript's FFI layer. fn's parameters and return values are
// converted with valueToGo/valueFromGo; fn may optionally return a
// trailing error, which becomes a thrown Error.
func (e *Engine) RegisterFunction(name string, fn any) error {
	wrapped, err := wrapHostFunction(e.realm, name, fn)
	if err != nil {
		return &errors.LanguageError{Kind: errors.TypeError, Message: err.Error()}
	}
	e.Global(name, wrapped)
	return nil
}

// Throw constructs a LanguageError of the given native kind with a
// formatted message, the host-facing equivalent of spec.md §6's
// `throw(kind, message)` entry point. It builds no Error object: the
// result's Value is nil.
func (e *Engine) Throw(kind errors.Kind, format string, args ...any) *errors.LanguageError {
	return errors.New(kind, format, args...)
}

package runtime

// Realm is a unit of isolation (spec.md §3/§4.9): a table of intrinsics
// keyed by well-known name, a global object, a global environment, and
// the host bindings staged during plugin setup.
type Realm struct {
	ID string

	// Intrinsics maps a well-known name ("%Object.prototype%",
	// "%Array.prototype%", "%Promise%", ...) to the constructed object,
	// following the naming convention of the host spec's intrinsic table.
	Intrinsics map[string]*Object

	GlobalObject *Object
	GlobalEnv    *GlobalEnvironment

	// staged collects global-binding descriptors contributed by plugins
	// during installation; they are committed onto GlobalObject/GlobalEnv
	// only after every plugin has run (spec.md §4.9), so one plugin's
	// intrinsic can reference another's well-known object regardless of
	// install order within the same DAG layer.
	staged []stagedGlobal

	// SymbolRegistry is the realm's Symbol.for/Symbol.keyFor registry,
	// mapping each registry key to the symbol Symbol.for created for it.
	SymbolRegistry map[string]*Symbol
}

type stagedGlobal struct {
	name string
	desc PropertyDescriptor
	// lexical marks a `let`/`const`/`class` global declaration, which is
	// installed on GlobalEnv's declarative half instead of GlobalObject.
	lexical bool
}

// NewRealm allocates an empty realm. The caller (pkg/engine) is
// responsible for installing plugins to populate Intrinsics and globals.
func NewRealm(id string) *Realm {
	global := NewOrdinaryObject(nil)
	r := &Realm{
		ID:             id,
		Intrinsics:     make(map[string]*Object),
		GlobalObject:   global,
		SymbolRegistry: make(map[string]*Symbol),
	}
	r.GlobalEnv = NewGlobalEnvironment(global)
	return r
}

// StageGlobal records a global binding contributed by a plugin, to be
// committed by CommitGlobals once every plugin in the install DAG has run.
func (r *Realm) StageGlobal(name string, desc PropertyDescriptor) {
	r.staged = append(r.staged, stagedGlobal{name: name, desc: desc})
}

// StageLexicalGlobal records a lexical (let/const/class) global
// declaration.
func (r *Realm) StageLexicalGlobal(name string, desc PropertyDescriptor) {
	r.staged = append(r.staged, stagedGlobal{name: name, desc: desc, lexical: true})
}

// CommitGlobals installs every staged global binding onto the realm's
// global object (var-like bindings) or global declarative record
// (lexical bindings). It is idempotent-safe to call once at the end of
// plugin installation.
func (r *Realm) CommitGlobals() {
	for _, g := range r.staged {
		if g.lexical {
			_ = r.GlobalEnv.declarative.CreateMutableBinding(g.name, false)
			_ = r.GlobalEnv.declarative.InitializeBinding(g.name, g.desc.Value)
			continue
		}
		_ = r.GlobalObject.DefineOwnProperty(String(g.name), g.desc)
	}
	r.staged = nil
}

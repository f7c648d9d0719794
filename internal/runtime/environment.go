package runtime

import "github.com/escore/escore/internal/errors"

// Environment is the common interface every environment-record variant
// of spec.md §4.3 implements: declarative, object, function, and global.
// Each execution context's LexicalEnvironment/VariableEnvironment chains
// through these via Outer() to the global environment at the root.
type Environment interface {
	HasBinding(name string) bool
	CreateMutableBinding(name string, deletable bool) *errors.LanguageError
	CreateImmutableBinding(name string, strict bool) *errors.LanguageError
	InitializeBinding(name string, value Value) *errors.LanguageError
	SetMutableBinding(name string, value Value, strict bool) *errors.LanguageError
	GetBindingValue(name string) (Value, bool)
	DeleteBinding(name string) bool
	HasThisBinding() bool
	HasSuperBinding() bool
	WithBaseObject() *Object
	Outer() Environment
}

// binding is one slot of a declarative environment record: a name, its
// current value, and the mutable/initialized/strict state spec.md §4.3
// tracks per binding (the initialized flag backs the temporal-dead-zone
// check for let/const/class bindings declared but not yet reached).
type binding struct {
	value       Value
	mutable     bool
	deletable   bool
	initialized bool
	strict      bool
}

// DeclarativeEnvironment backs function scopes, block scopes, catch
// clauses, and the lexical half of the global environment (spec.md §4.3).
type DeclarativeEnvironment struct {
	bindings map[string]*binding
	outer    Environment
}

// NewDeclarativeEnvironment allocates an empty declarative record chained
// to outer (nil for none).
func NewDeclarativeEnvironment(outer Environment) *DeclarativeEnvironment {
	return &DeclarativeEnvironment{bindings: make(map[string]*binding), outer: outer}
}

func (e *DeclarativeEnvironment) HasBinding(name string) bool {
	_, ok := e.bindings[name]
	return ok
}

func (e *DeclarativeEnvironment) CreateMutableBinding(name string, deletable bool) *errors.LanguageError {
	e.bindings[name] = &binding{mutable: true, deletable: deletable}
	return nil
}

func (e *DeclarativeEnvironment) CreateImmutableBinding(name string, strict bool) *errors.LanguageError {
	e.bindings[name] = &binding{mutable: false, strict: strict}
	return nil
}

func (e *DeclarativeEnvironment) InitializeBinding(name string, value Value) *errors.LanguageError {
	b, ok := e.bindings[name]
	if !ok {
		return errors.NewReference("Cannot initialize undeclared binding '%s'", name)
	}
	b.value = value
	b.initialized = true
	return nil
}

func (e *DeclarativeEnvironment) SetMutableBinding(name string, value Value, strict bool) *errors.LanguageError {
	b, ok := e.bindings[name]
	if !ok {
		if strict {
			return errors.NewReference("%s is not defined", name)
		}
		e.bindings[name] = &binding{value: value, mutable: true, initialized: true, deletable: true}
		return nil
	}
	if !b.initialized {
		return errors.NewReference("Cannot access '%s' before initialization", name)
	}
	if !b.mutable {
		if strict || b.strict {
			return errors.NewType("Assignment to constant variable '%s'", name)
		}
		return nil
	}
	b.value = value
	return nil
}

func (e *DeclarativeEnvironment) GetBindingValue(name string) (Value, bool) {
	b, ok := e.bindings[name]
	if !ok || !b.initialized {
		return nil, false
	}
	return b.value, true
}

func (e *DeclarativeEnvironment) DeleteBinding(name string) bool {
	b, ok := e.bindings[name]
	if !ok {
		return true
	}
	if !b.deletable {
		return false
	}
	delete(e.bindings, name)
	return true
}

func (e *DeclarativeEnvironment) HasThisBinding() bool  { return false }
func (e *DeclarativeEnvironment) HasSuperBinding() bool { return false }
func (e *DeclarativeEnvironment) WithBaseObject() *Object { return nil }
func (e *DeclarativeEnvironment) Outer() Environment    { return e.outer }

// ObjectEnvironment backs `with` statements and module-namespace
// imports: bindings are properties of a backing object rather than
// private slots (spec.md §4.3).
type ObjectEnvironment struct {
	bindingObject *Object
	withBase      bool // IsWithEnvironment flag: scope lookups skip the unscopables check otherwise
	outer         Environment
}

// NewObjectEnvironment wraps obj as an environment record, withBase
// marking a `with` statement's environment (spec.md §4.3's
// IsWithEnvironment flag).
func NewObjectEnvironment(obj *Object, withBase bool, outer Environment) *ObjectEnvironment {
	return &ObjectEnvironment{bindingObject: obj, withBase: withBase, outer: outer}
}

func (e *ObjectEnvironment) HasBinding(name string) bool {
	return e.bindingObject.HasProperty(String(name))
}

func (e *ObjectEnvironment) CreateMutableBinding(name string, deletable bool) *errors.LanguageError {
	e.bindingObject.DefineOwnProperty(String(name), DataProperty(Undefined, true, true, deletable))
	return nil
}

func (e *ObjectEnvironment) CreateImmutableBinding(name string, strict bool) *errors.LanguageError {
	return errors.New(errors.Error, "Object environments do not support immutable bindings")
}

func (e *ObjectEnvironment) InitializeBinding(name string, value Value) *errors.LanguageError {
	_, err := e.bindingObject.Set(nil, String(name), value, e.bindingObject)
	return err
}

func (e *ObjectEnvironment) SetMutableBinding(name string, value Value, strict bool) *errors.LanguageError {
	has := e.bindingObject.HasProperty(String(name))
	if !has && strict {
		return errors.NewReference("%s is not defined", name)
	}
	ok, err := e.bindingObject.Set(nil, String(name), value, e.bindingObject)
	if err != nil {
		return err
	}
	if !ok && strict {
		return errors.NewType("Cannot assign to read only property '%s'", name)
	}
	return nil
}

func (e *ObjectEnvironment) GetBindingValue(name string) (Value, bool) {
	if !e.bindingObject.HasProperty(String(name)) {
		return nil, false
	}
	v, err := e.bindingObject.Get(nil, String(name), e.bindingObject)
	if err != nil {
		return nil, false
	}
	return v, true
}

func (e *ObjectEnvironment) DeleteBinding(name string) bool {
	return e.bindingObject.Delete(String(name))
}

func (e *ObjectEnvironment) HasThisBinding() bool  { return false }
func (e *ObjectEnvironment) HasSuperBinding() bool { return false }
func (e *ObjectEnvironment) WithBaseObject() *Object {
	if e.withBase {
		return e.bindingObject
	}
	return nil
}
func (e *ObjectEnvironment) Outer() Environment { return e.outer }

// thisBindingStatus is the three-state this-binding lifecycle spec.md
// §4.3 assigns a function environment: derived-class constructors start
// "uninitialized" until `super(...)` runs; ordinary functions start
// "initialized"; arrow functions have no this-binding of their own
// ("lexical", inherited via Outer()).
type thisBindingStatus uint8

const (
	thisLexical thisBindingStatus = iota
	thisUninitialized
	thisInitialized
)

// FunctionEnvironment extends a declarative record with the this-binding
// state machine, a home object for `super` property lookups, and the
// function's new-target (spec.md §4.3).
type FunctionEnvironment struct {
	*DeclarativeEnvironment
	thisStatus thisBindingStatus
	thisValue  Value
	HomeObject *Object
	NewTarget  *Object
	Function   *Object
}

// NewFunctionEnvironment allocates a function environment. isArrow marks
// a lexical-this function (arrows); isDerivedConstructor marks a
// derived-class constructor, which must call super() before `this` or a
// field/method referencing `this` may be used.
func NewFunctionEnvironment(fn *Object, newTarget *Object, outer Environment, isArrow, isDerivedConstructor bool) *FunctionEnvironment {
	status := thisInitialized
	switch {
	case isArrow:
		status = thisLexical
	case isDerivedConstructor:
		status = thisUninitialized
	}
	return &FunctionEnvironment{
		DeclarativeEnvironment: NewDeclarativeEnvironment(outer),
		thisStatus:             status,
		Function:               fn,
		NewTarget:              newTarget,
	}
}

// BindThis implements the derived-constructor's super()-call binding: it
// fails if `this` has already been bound (a super() call may only run
// once), matching spec.md §4.4's BindThisValue.
func (e *FunctionEnvironment) BindThis(v Value) *errors.LanguageError {
	if e.thisStatus == thisInitialized {
		return errors.NewReference("Super constructor may only be called once")
	}
	e.thisValue = v
	e.thisStatus = thisInitialized
	return nil
}

// InitializeThis sets `this` unconditionally, for the ordinary
// (non-derived) function/constructor call path where the environment is
// already created in the thisInitialized state and there is no super()
// call to guard against running twice.
func (e *FunctionEnvironment) InitializeThis(v Value) {
	e.thisValue = v
	e.thisStatus = thisInitialized
}

func (e *FunctionEnvironment) HasThisBinding() bool { return e.thisStatus != thisLexical }

func (e *FunctionEnvironment) HasSuperBinding() bool {
	return e.thisStatus != thisLexical && e.HomeObject != nil
}

// GetThisBinding returns the bound `this` value, failing with a
// ReferenceError if a derived constructor reads it before calling super().
func (e *FunctionEnvironment) GetThisBinding() (Value, *errors.LanguageError) {
	switch e.thisStatus {
	case thisLexical:
		if outer := e.Outer(); outer != nil {
			return GetThisBinding(outer)
		}
		return Undefined, nil
	case thisUninitialized:
		return nil, errors.NewReference("Must call super constructor before accessing 'this'")
	default:
		return e.thisValue, nil
	}
}

// GlobalEnvironment fuses an object environment (var declarations and
// the global object's own properties) with a declarative environment
// (let/const/class globals), per spec.md §4.3's global environment
// record. Lookups check the declarative half first.
type GlobalEnvironment struct {
	object       *ObjectEnvironment
	declarative  *DeclarativeEnvironment
	varNames     map[string]bool
}

// NewGlobalEnvironment allocates a global environment wrapping
// globalObject.
func NewGlobalEnvironment(globalObject *Object) *GlobalEnvironment {
	return &GlobalEnvironment{
		object:      NewObjectEnvironment(globalObject, false, nil),
		declarative: NewDeclarativeEnvironment(nil),
		varNames:    make(map[string]bool),
	}
}

func (e *GlobalEnvironment) HasBinding(name string) bool {
	return e.declarative.HasBinding(name) || e.object.HasBinding(name)
}

func (e *GlobalEnvironment) CreateMutableBinding(name string, deletable bool) *errors.LanguageError {
	if e.declarative.HasBinding(name) {
		return errors.NewSyntax("Identifier '%s' has already been declared", name)
	}
	e.varNames[name] = true
	return e.object.CreateMutableBinding(name, deletable)
}

func (e *GlobalEnvironment) CreateImmutableBinding(name string, strict bool) *errors.LanguageError {
	return e.declarative.CreateImmutableBinding(name, strict)
}

// CreateLexicalBinding declares a let/const/class global on the
// declarative half, rejecting a name already declared as var or lexical
// (spec.md §4.3, "global declaration collisions").
func (e *GlobalEnvironment) CreateLexicalBinding(name string, mutable bool) *errors.LanguageError {
	if e.HasBinding(name) {
		return errors.NewSyntax("Identifier '%s' has already been declared", name)
	}
	if mutable {
		return e.declarative.CreateMutableBinding(name, false)
	}
	return e.declarative.CreateImmutableBinding(name, true)
}

func (e *GlobalEnvironment) InitializeBinding(name string, value Value) *errors.LanguageError {
	if e.declarative.HasBinding(name) {
		return e.declarative.InitializeBinding(name, value)
	}
	return e.object.InitializeBinding(name, value)
}

func (e *GlobalEnvironment) SetMutableBinding(name string, value Value, strict bool) *errors.LanguageError {
	if e.declarative.HasBinding(name) {
		return e.declarative.SetMutableBinding(name, value, strict)
	}
	return e.object.SetMutableBinding(name, value, strict)
}

func (e *GlobalEnvironment) GetBindingValue(name string) (Value, bool) {
	if e.declarative.HasBinding(name) {
		return e.declarative.GetBindingValue(name)
	}
	return e.object.GetBindingValue(name)
}

func (e *GlobalEnvironment) DeleteBinding(name string) bool {
	if e.declarative.HasBinding(name) {
		return false
	}
	ok := e.object.DeleteBinding(name)
	if ok {
		delete(e.varNames, name)
	}
	return ok
}

func (e *GlobalEnvironment) HasThisBinding() bool    { return true }
func (e *GlobalEnvironment) HasSuperBinding() bool   { return false }
func (e *GlobalEnvironment) WithBaseObject() *Object { return nil }
func (e *GlobalEnvironment) Outer() Environment      { return nil }
func (e *GlobalEnvironment) GlobalObject() *Object    { return e.object.bindingObject }

// GetThisBinding walks to the nearest this-binding-capable environment
// (skipping lexical/arrow frames and declarative block scopes) and
// returns its `this` value, per spec.md §4.3's ResolveThisBinding.
func GetThisBinding(env Environment) (Value, *errors.LanguageError) {
	for e := env; e != nil; e = e.Outer() {
		switch ee := e.(type) {
		case *FunctionEnvironment:
			if ee.HasThisBinding() {
				return ee.GetThisBinding()
			}
		case *GlobalEnvironment:
			return ee.GlobalObject(), nil
		}
	}
	return Undefined, nil
}

// ResolveBinding walks env's chain looking for the environment that owns
// name, per spec.md §4.3's GetIdentifierReference. Returns nil if no
// environment in the chain declares it (an unresolvable reference).
func ResolveBinding(env Environment, name string) Environment {
	for e := env; e != nil; e = e.Outer() {
		if e.HasBinding(name) {
			return e
		}
	}
	return nil
}

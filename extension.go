package jsbind

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	v8 "github.com/tommie/v8go"
)

// Convention is the calling convention of a declared function.
type Convention int

const (
	// Closure functions are arbitrary Go funcs adapted through reflection.
	Closure Convention = iota
	// Static functions are typed adapters built with Static0..StaticState4.
	Static
	// Fastcall functions take and return only primitive machine types.
	Fastcall
)

func (c Convention) String() string {
	switch c {
	case Closure:
		return "closure"
	case Static:
		return "static"
	case Fastcall:
		return "fastcall"
	default:
		return fmt.Sprintf("convention(%d)", int(c))
	}
}

// callFunc is the single erased shape every declaration is reduced to. state
// is the borrowed *S for stateful declarations and nil otherwise. A nil
// result leaves the script-visible return value undefined.
type callFunc func(s *Scope, state any, args []*v8.Value) (*v8.Value, error)

type declaration struct {
	convention Convention
	stateful   bool
	call       callFunc
}

// Extension collects named functions before a runtime exists. Functions of
// an Extension with an empty namespace become globals; otherwise they are
// installed on the namespace object. A dotted namespace such as "a.b" nests
// objects.
//
// Registering a second function under the same name replaces the first.
//
// An Extension is consumed by the NewRuntime call it is passed to and cannot
// be installed again.
type Extension[S any] struct {
	namespace    string
	declarations map[string]declaration
	consumed     bool
}

// NewExtension returns an empty Extension. An empty namespace means global.
func NewExtension[S any](namespace string) *Extension[S] {
	return &Extension[S]{
		namespace:    namespace,
		declarations: make(map[string]declaration),
	}
}

// Namespace returns the namespace the functions are installed under.
func (e *Extension[S]) Namespace() string { return e.namespace }

// Len returns the number of declared functions.
func (e *Extension[S]) Len() int { return len(e.declarations) }

// Names returns the declared function names in sorted order.
func (e *Extension[S]) Names() []string {
	names := make([]string, 0, len(e.declarations))
	for name := range e.declarations {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Convention reports the calling convention of a declared function.
func (e *Extension[S]) Convention(name string) (Convention, bool) {
	d, ok := e.declarations[name]
	return d.convention, ok
}

// AddFunction declares fn under name using the closure convention. fn may
// take any parameters the conversion layer supports and return nothing, a
// value, an error, or a value and an error. A returned error is thrown to the
// script.
func (e *Extension[S]) AddFunction(name string, fn any) error {
	return e.addReflect(name, fn, false)
}

// AddFunctionWithState is AddFunction for funcs whose first parameter is *S,
// the runtime state borrowed for the duration of the call.
func (e *Extension[S]) AddFunctionWithState(name string, fn any) error {
	return e.addReflect(name, fn, true)
}

func (e *Extension[S]) addReflect(name string, fn any, stateful bool) error {
	var stateType reflect.Type
	if stateful {
		stateType = reflect.TypeFor[S]()
	}
	rf, err := newReflectFunc(fn, stateType)
	if err != nil {
		return registrationError(name, err)
	}
	return e.add(name, declaration{convention: Closure, stateful: stateful, call: rf.call})
}

// AddStaticFunction declares a function built by one of the Static adapters.
func (e *Extension[S]) AddStaticFunction(name string, fn StaticFunction) error {
	if err := fn.check(reflect.TypeFor[S]()); err != nil {
		return registrationError(name, err)
	}
	return e.add(name, declaration{convention: Static, stateful: fn.stateType != nil, call: fn.call})
}

// AddFastcallFunction declares a function built by one of the Fast adapters.
// Fastcall functions must not call back into the runtime.
func (e *Extension[S]) AddFastcallFunction(name string, fn FastcallFunction) error {
	if err := fn.check(reflect.TypeFor[S]()); err != nil {
		return registrationError(name, err)
	}
	return e.add(name, declaration{convention: Fastcall, stateful: fn.stateType != nil, call: fn.call})
}

func (e *Extension[S]) add(name string, d declaration) error {
	if e.consumed {
		return registrationError(name, fmt.Errorf("extension %q was already installed", e.namespace))
	}
	if name == "" {
		return registrationError(name, fmt.Errorf("empty function name"))
	}
	e.declarations[name] = d
	return nil
}

// drain hands the declarations to the runtime builder and marks e consumed.
func (e *Extension[S]) drain() (map[string]declaration, error) {
	if e.consumed {
		return nil, fmt.Errorf("extension %q was already installed", e.namespace)
	}
	if err := validateNamespace(e.namespace); err != nil {
		return nil, err
	}
	d := e.declarations
	e.declarations = make(map[string]declaration)
	e.consumed = true
	return d, nil
}

func validateNamespace(ns string) error {
	if ns == "" {
		return nil
	}
	for _, part := range strings.Split(ns, ".") {
		if part == "" {
			return fmt.Errorf("invalid namespace %q", ns)
		}
	}
	return nil
}

func registrationError(name string, err error) error {
	return &Error{Kind: KindRegistration, Message: fmt.Sprintf("declaring %q", name), Cause: err}
}

// typedFunc is the common form of the generic adapters.
type typedFunc struct {
	stateType reflect.Type // nil when the function takes no state
	call      callFunc
}

func (f typedFunc) check(stateType reflect.Type) error {
	if f.call == nil {
		return fmt.Errorf("zero function value")
	}
	if f.stateType != nil && f.stateType != stateType {
		return fmt.Errorf("function takes *%s, runtime state is %s", f.stateType, stateType)
	}
	return nil
}

// argAt returns the i-th argument, or undefined when the script passed fewer.
func argAt(s *Scope, args []*v8.Value, i int) *v8.Value {
	if i < len(args) {
		return args[i]
	}
	return v8.Undefined(s.isolate())
}

func argumentError(i int, err error) error {
	if te, ok := err.(*TypeError); ok {
		return &TypeError{Msg: fmt.Sprintf("argument %d: %s", i, te.Msg), Source: te.Source}
	}
	return fmt.Errorf("argument %d: %w", i, err)
}

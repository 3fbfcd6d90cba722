package jsbind

import (
	"fmt"
	"reflect"

	v8 "github.com/tommie/v8go"
)

var (
	errorType = reflect.TypeFor[error]()
	scopeType = reflect.TypeFor[*Scope]()
)

// reflectFunc adapts an arbitrary Go func to callFunc. The signature is
// validated once; each call only allocates the argument slots. A *Scope
// parameter receives the calling scope and consumes no script argument.
type reflectFunc struct {
	fn       reflect.Value
	params   []reflect.Type
	stateful bool
	result   bool // first result is a value
	err      bool // last result is an error
	skip     bool // value result is Undefined
}

// newReflectFunc validates fn. When stateType is non-nil the first parameter
// must be a pointer to it.
func newReflectFunc(fn any, stateType reflect.Type) (*reflectFunc, error) {
	if fn == nil {
		return nil, fmt.Errorf("nil function")
	}
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return nil, fmt.Errorf("expected function, got %T", fn)
	}
	if fv.IsNil() {
		return nil, fmt.Errorf("nil function")
	}
	if ft.IsVariadic() {
		return nil, fmt.Errorf("variadic functions are not supported")
	}

	f := &reflectFunc{fn: fv, stateful: stateType != nil}

	first := 0
	if f.stateful {
		want := reflect.PointerTo(stateType)
		if ft.NumIn() == 0 || ft.In(0) != want {
			return nil, fmt.Errorf("first parameter must be %s", want)
		}
		first = 1
	}
	for i := first; i < ft.NumIn(); i++ {
		t := ft.In(i)
		if err := checkConvertible(t); err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		f.params = append(f.params, t)
	}

	switch ft.NumOut() {
	case 0:
	case 1:
		if ft.Out(0) == errorType {
			f.err = true
		} else {
			f.result = true
		}
	case 2:
		if ft.Out(1) != errorType {
			return nil, fmt.Errorf("second result must be error, got %s", ft.Out(1))
		}
		f.result, f.err = true, true
	default:
		return nil, fmt.Errorf("too many results (%d)", ft.NumOut())
	}
	if f.result {
		if err := checkConvertible(ft.Out(0)); err != nil {
			return nil, fmt.Errorf("result: %w", err)
		}
		f.skip = ft.Out(0) == undefinedType
	}
	return f, nil
}

func checkConvertible(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return fmt.Errorf("unsupported type %s", t)
	case reflect.Interface:
		if t.NumMethod() > 0 {
			return fmt.Errorf("unsupported interface type %s", t)
		}
	}
	return nil
}

func (f *reflectFunc) call(s *Scope, state any, args []*v8.Value) (*v8.Value, error) {
	in := make([]reflect.Value, 0, len(f.params)+1)
	if f.stateful {
		in = append(in, reflect.ValueOf(state))
	}
	i := 0
	for _, t := range f.params {
		if t == scopeType {
			in = append(in, reflect.ValueOf(s))
			continue
		}
		arg := reflect.New(t)
		if err := fromValue(s, argAt(s, args, i), arg.Interface()); err != nil {
			return nil, argumentError(i, err)
		}
		in = append(in, arg.Elem())
		i++
	}

	out := f.fn.Call(in)

	if f.err {
		if e := out[len(out)-1]; !e.IsNil() {
			return nil, e.Interface().(error)
		}
	}
	if !f.result || f.skip {
		return nil, nil
	}
	v, err := toValue(s, out[0].Interface())
	if err != nil {
		return nil, err
	}
	return unsealValue(v), nil
}

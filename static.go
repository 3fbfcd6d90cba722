package jsbind

import (
	"reflect"

	v8 "github.com/tommie/v8go"
)

// StaticFunction is a typed function adapter. Build one with Static0..Static4
// for stateless functions or StaticState0..StaticState4 for functions taking
// the runtime state. Argument conversion is resolved at compile time; no
// reflection happens per call.
type StaticFunction struct {
	typedFunc
}

func staticArg[A any](s *Scope, args []*v8.Value, i int) (A, error) {
	var a A
	if err := fromValue(s, argAt(s, args, i), &a); err != nil {
		return a, argumentError(i, err)
	}
	return a, nil
}

func staticResult[R any](s *Scope, skip bool, r R, err error) (*v8.Value, error) {
	if err != nil || skip {
		return nil, err
	}
	v, err := toValue(s, any(r))
	if err != nil {
		return nil, err
	}
	return unsealValue(v), nil
}

// Static0 adapts a function taking no arguments.
func Static0[R any](fn func() (R, error)) StaticFunction {
	skip := isUndefinedType[R]()
	return StaticFunction{typedFunc{call: func(s *Scope, _ any, _ []*v8.Value) (*v8.Value, error) {
		r, err := fn()
		return staticResult(s, skip, r, err)
	}}}
}

// Static1 adapts a one-argument function.
func Static1[A, R any](fn func(A) (R, error)) StaticFunction {
	skip := isUndefinedType[R]()
	return StaticFunction{typedFunc{call: func(s *Scope, _ any, args []*v8.Value) (*v8.Value, error) {
		a, err := staticArg[A](s, args, 0)
		if err != nil {
			return nil, err
		}
		r, err := fn(a)
		return staticResult(s, skip, r, err)
	}}}
}

// Static2 adapts a two-argument function.
func Static2[A, B, R any](fn func(A, B) (R, error)) StaticFunction {
	skip := isUndefinedType[R]()
	return StaticFunction{typedFunc{call: func(s *Scope, _ any, args []*v8.Value) (*v8.Value, error) {
		a, err := staticArg[A](s, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := staticArg[B](s, args, 1)
		if err != nil {
			return nil, err
		}
		r, err := fn(a, b)
		return staticResult(s, skip, r, err)
	}}}
}

// Static3 adapts a three-argument function.
func Static3[A, B, C, R any](fn func(A, B, C) (R, error)) StaticFunction {
	skip := isUndefinedType[R]()
	return StaticFunction{typedFunc{call: func(s *Scope, _ any, args []*v8.Value) (*v8.Value, error) {
		a, err := staticArg[A](s, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := staticArg[B](s, args, 1)
		if err != nil {
			return nil, err
		}
		c, err := staticArg[C](s, args, 2)
		if err != nil {
			return nil, err
		}
		r, err := fn(a, b, c)
		return staticResult(s, skip, r, err)
	}}}
}

// Static4 adapts a four-argument function.
func Static4[A, B, C, D, R any](fn func(A, B, C, D) (R, error)) StaticFunction {
	skip := isUndefinedType[R]()
	return StaticFunction{typedFunc{call: func(s *Scope, _ any, args []*v8.Value) (*v8.Value, error) {
		a, err := staticArg[A](s, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := staticArg[B](s, args, 1)
		if err != nil {
			return nil, err
		}
		c, err := staticArg[C](s, args, 2)
		if err != nil {
			return nil, err
		}
		d, err := staticArg[D](s, args, 3)
		if err != nil {
			return nil, err
		}
		r, err := fn(a, b, c, d)
		return staticResult(s, skip, r, err)
	}}}
}

// StaticState0 adapts a function taking only the runtime state.
func StaticState0[S, R any](fn func(*S) (R, error)) StaticFunction {
	skip := isUndefinedType[R]()
	return StaticFunction{typedFunc{stateType: reflect.TypeFor[S](), call: func(s *Scope, state any, _ []*v8.Value) (*v8.Value, error) {
		r, err := fn(state.(*S))
		return staticResult(s, skip, r, err)
	}}}
}

// StaticState1 is Static1 with the runtime state as first parameter.
func StaticState1[S, A, R any](fn func(*S, A) (R, error)) StaticFunction {
	skip := isUndefinedType[R]()
	return StaticFunction{typedFunc{stateType: reflect.TypeFor[S](), call: func(s *Scope, state any, args []*v8.Value) (*v8.Value, error) {
		a, err := staticArg[A](s, args, 0)
		if err != nil {
			return nil, err
		}
		r, err := fn(state.(*S), a)
		return staticResult(s, skip, r, err)
	}}}
}

// StaticState2 is Static2 with the runtime state as first parameter.
func StaticState2[S, A, B, R any](fn func(*S, A, B) (R, error)) StaticFunction {
	skip := isUndefinedType[R]()
	return StaticFunction{typedFunc{stateType: reflect.TypeFor[S](), call: func(s *Scope, state any, args []*v8.Value) (*v8.Value, error) {
		a, err := staticArg[A](s, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := staticArg[B](s, args, 1)
		if err != nil {
			return nil, err
		}
		r, err := fn(state.(*S), a, b)
		return staticResult(s, skip, r, err)
	}}}
}

// StaticState3 is Static3 with the runtime state as first parameter.
func StaticState3[S, A, B, C, R any](fn func(*S, A, B, C) (R, error)) StaticFunction {
	skip := isUndefinedType[R]()
	return StaticFunction{typedFunc{stateType: reflect.TypeFor[S](), call: func(s *Scope, state any, args []*v8.Value) (*v8.Value, error) {
		a, err := staticArg[A](s, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := staticArg[B](s, args, 1)
		if err != nil {
			return nil, err
		}
		c, err := staticArg[C](s, args, 2)
		if err != nil {
			return nil, err
		}
		r, err := fn(state.(*S), a, b, c)
		return staticResult(s, skip, r, err)
	}}}
}

// StaticState4 is Static4 with the runtime state as first parameter.
func StaticState4[S, A, B, C, D, R any](fn func(*S, A, B, C, D) (R, error)) StaticFunction {
	skip := isUndefinedType[R]()
	return StaticFunction{typedFunc{stateType: reflect.TypeFor[S](), call: func(s *Scope, state any, args []*v8.Value) (*v8.Value, error) {
		a, err := staticArg[A](s, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := staticArg[B](s, args, 1)
		if err != nil {
			return nil, err
		}
		c, err := staticArg[C](s, args, 2)
		if err != nil {
			return nil, err
		}
		d, err := staticArg[D](s, args, 3)
		if err != nil {
			return nil, err
		}
		r, err := fn(state.(*S), a, b, c, d)
		return staticResult(s, skip, r, err)
	}}}
}

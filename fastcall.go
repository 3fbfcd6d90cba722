package jsbind

import (
	"math"
	"reflect"

	v8 "github.com/tommie/v8go"
)

// FastArg lists the argument types a fastcall function may take.
type FastArg interface {
	bool | int32 | uint32 | float32 | float64
}

// FastResult lists the result types a fastcall function may return.
type FastResult interface {
	FastArg | Undefined
}

// FastcallFunction is a function restricted to primitive machine types,
// built with Fast0..Fast4 or FastState0..FastState4. Arguments already held
// in the matching engine representation are read directly; anything else
// takes the general conversion path. Fastcall functions have no error
// result and must not call back into the runtime.
type FastcallFunction struct {
	typedFunc
}

func fastArg[A FastArg](s *Scope, args []*v8.Value, i int) (A, error) {
	var a A
	if i < len(args) {
		v := args[i]
		switch p := any(&a).(type) {
		case *bool:
			if v.IsBoolean() {
				*p = v.Boolean()
				return a, nil
			}
		case *int32:
			if v.IsInt32() {
				*p = v.Int32()
				return a, nil
			}
		case *uint32:
			if v.IsUint32() {
				*p = v.Uint32()
				return a, nil
			}
		case *float32:
			// out of float32 range takes the general path, which rejects it
			if v.IsNumber() {
				if f := v.Number(); math.IsInf(f, 0) || math.IsNaN(f) || math.Abs(f) <= math.MaxFloat32 {
					*p = float32(f)
					return a, nil
				}
			}
		case *float64:
			if v.IsNumber() {
				*p = v.Number()
				return a, nil
			}
		}
	}
	if err := fromValue(s, argAt(s, args, i), &a); err != nil {
		return a, argumentError(i, err)
	}
	return a, nil
}

func fastResult[R FastResult](s *Scope, r R) (*v8.Value, error) {
	var x any = r
	switch y := x.(type) {
	case Undefined:
		return nil, nil
	case float32:
		x = float64(y)
	}
	return v8.NewValue(s.isolate(), x)
}

// Fast0 adapts a primitive function taking no arguments.
func Fast0[R FastResult](fn func() R) FastcallFunction {
	return FastcallFunction{typedFunc{call: func(s *Scope, _ any, _ []*v8.Value) (*v8.Value, error) {
		return fastResult(s, fn())
	}}}
}

// Fast1 adapts a primitive one-argument function.
func Fast1[A FastArg, R FastResult](fn func(A) R) FastcallFunction {
	return FastcallFunction{typedFunc{call: func(s *Scope, _ any, args []*v8.Value) (*v8.Value, error) {
		a, err := fastArg[A](s, args, 0)
		if err != nil {
			return nil, err
		}
		return fastResult(s, fn(a))
	}}}
}

// Fast2 adapts a primitive two-argument function.
func Fast2[A, B FastArg, R FastResult](fn func(A, B) R) FastcallFunction {
	return FastcallFunction{typedFunc{call: func(s *Scope, _ any, args []*v8.Value) (*v8.Value, error) {
		a, err := fastArg[A](s, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := fastArg[B](s, args, 1)
		if err != nil {
			return nil, err
		}
		return fastResult(s, fn(a, b))
	}}}
}

// Fast3 adapts a primitive three-argument function.
func Fast3[A, B, C FastArg, R FastResult](fn func(A, B, C) R) FastcallFunction {
	return FastcallFunction{typedFunc{call: func(s *Scope, _ any, args []*v8.Value) (*v8.Value, error) {
		a, err := fastArg[A](s, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := fastArg[B](s, args, 1)
		if err != nil {
			return nil, err
		}
		c, err := fastArg[C](s, args, 2)
		if err != nil {
			return nil, err
		}
		return fastResult(s, fn(a, b, c))
	}}}
}

// Fast4 adapts a primitive four-argument function.
func Fast4[A, B, C, D FastArg, R FastResult](fn func(A, B, C, D) R) FastcallFunction {
	return FastcallFunction{typedFunc{call: func(s *Scope, _ any, args []*v8.Value) (*v8.Value, error) {
		a, err := fastArg[A](s, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := fastArg[B](s, args, 1)
		if err != nil {
			return nil, err
		}
		c, err := fastArg[C](s, args, 2)
		if err != nil {
			return nil, err
		}
		d, err := fastArg[D](s, args, 3)
		if err != nil {
			return nil, err
		}
		return fastResult(s, fn(a, b, c, d))
	}}}
}

// FastState0 adapts a primitive function taking only the runtime state.
func FastState0[S any, R FastResult](fn func(*S) R) FastcallFunction {
	return FastcallFunction{typedFunc{stateType: reflect.TypeFor[S](), call: func(s *Scope, state any, _ []*v8.Value) (*v8.Value, error) {
		return fastResult(s, fn(state.(*S)))
	}}}
}

// FastState1 is Fast1 with the runtime state as first parameter.
func FastState1[S any, A FastArg, R FastResult](fn func(*S, A) R) FastcallFunction {
	return FastcallFunction{typedFunc{stateType: reflect.TypeFor[S](), call: func(s *Scope, state any, args []*v8.Value) (*v8.Value, error) {
		a, err := fastArg[A](s, args, 0)
		if err != nil {
			return nil, err
		}
		return fastResult(s, fn(state.(*S), a))
	}}}
}

// FastState2 is Fast2 with the runtime state as first parameter.
func FastState2[S any, A, B FastArg, R FastResult](fn func(*S, A, B) R) FastcallFunction {
	return FastcallFunction{typedFunc{stateType: reflect.TypeFor[S](), call: func(s *Scope, state any, args []*v8.Value) (*v8.Value, error) {
		a, err := fastArg[A](s, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := fastArg[B](s, args, 1)
		if err != nil {
			return nil, err
		}
		return fastResult(s, fn(state.(*S), a, b))
	}}}
}

// FastState3 is Fast3 with the runtime state as first parameter.
func FastState3[S any, A, B, C FastArg, R FastResult](fn func(*S, A, B, C) R) FastcallFunction {
	return FastcallFunction{typedFunc{stateType: reflect.TypeFor[S](), call: func(s *Scope, state any, args []*v8.Value) (*v8.Value, error) {
		a, err := fastArg[A](s, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := fastArg[B](s, args, 1)
		if err != nil {
			return nil, err
		}
		c, err := fastArg[C](s, args, 2)
		if err != nil {
			return nil, err
		}
		return fastResult(s, fn(state.(*S), a, b, c))
	}}}
}

// FastState4 is Fast4 with the runtime state as first parameter.
func FastState4[S any, A, B, C, D FastArg, R FastResult](fn func(*S, A, B, C, D) R) FastcallFunction {
	return FastcallFunction{typedFunc{stateType: reflect.TypeFor[S](), call: func(s *Scope, state any, args []*v8.Value) (*v8.Value, error) {
		a, err := fastArg[A](s, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := fastArg[B](s, args, 1)
		if err != nil {
			return nil, err
		}
		c, err := fastArg[C](s, args, 2)
		if err != nil {
			return nil, err
		}
		d, err := fastArg[D](s, args, 3)
		if err != nil {
			return nil, err
		}
		return fastResult(s, fn(state.(*S), a, b, c, d))
	}}}
}

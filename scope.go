package jsbind

import (
	"math/big"

	v8 "github.com/tommie/v8go"
)

// Scope is a restricted view of an engine execution context. It exposes only
// value construction; the rest of the engine surface stays hidden.
//
// A *Scope and the *Value instances made through it are valid only while the
// call that handed out the scope is running.
type Scope v8.Context

// Value is a reference to an engine value. It is bound to the Scope it came
// from.
type Value v8.Value

// sealScope and unsealScope are the only conversions between Scope and the
// engine context. Both types share one underlying struct.
func sealScope(ctx *v8.Context) *Scope  { return (*Scope)(ctx) }
func unsealScope(s *Scope) *v8.Context { return (*v8.Context)(s) }

func sealValue(v *v8.Value) *Value  { return (*Value)(v) }
func unsealValue(v *Value) *v8.Value { return (*v8.Value)(v) }

func (s *Scope) isolate() *v8.Isolate {
	return unsealScope(s).Isolate()
}

// mustValue builds a primitive the engine constructor always accepts.
func (s *Scope) mustValue(x any) *Value {
	v, err := v8.NewValue(s.isolate(), x)
	if err != nil {
		panic(err)
	}
	return sealValue(v)
}

// NewString returns an engine string.
func (s *Scope) NewString(str string) *Value {
	return s.mustValue(str)
}

// NewNumber returns an engine number.
func (s *Scope) NewNumber(f float64) *Value {
	return s.mustValue(f)
}

// NewInt32 returns an engine small integer.
func (s *Scope) NewInt32(i int32) *Value {
	return s.mustValue(i)
}

// NewUint32 returns an engine number holding an unsigned 32-bit integer.
func (s *Scope) NewUint32(u uint32) *Value {
	return s.mustValue(u)
}

// NewBoolean returns an engine boolean.
func (s *Scope) NewBoolean(b bool) *Value {
	return s.mustValue(b)
}

// NewBigInt returns an engine big integer.
func (s *Scope) NewBigInt(i *big.Int) (*Value, error) {
	if i == nil {
		return nil, &TypeError{Msg: "nil big integer"}
	}
	v, err := v8.NewValue(s.isolate(), i)
	if err != nil {
		return nil, &TypeError{Msg: "big integer out of engine range", Source: i.String()}
	}
	return sealValue(v), nil
}

// Undefined returns the engine's undefined value.
func (s *Scope) Undefined() *Value {
	return sealValue(v8.Undefined(s.isolate()))
}

// Null returns the engine's null value.
func (s *Scope) Null() *Value {
	return sealValue(v8.Null(s.isolate()))
}

// Call invokes fn with an undefined receiver. An exception thrown by fn is
// returned as a KindScript error.
func (s *Scope) Call(fn *Value, args ...*Value) (*Value, error) {
	f, err := unsealValue(fn).AsFunction()
	if err != nil {
		return nil, newTypeError("value is not a function", unsealValue(fn))
	}
	vals := make([]v8.Valuer, len(args))
	for i, a := range args {
		vals[i] = unsealValue(a)
	}
	res, err := f.Call(v8.Undefined(s.isolate()), vals...)
	if err != nil {
		return nil, scriptFailure(err)
	}
	return sealValue(res), nil
}

// ValueKind names the engine representation of a Value.
type ValueKind string

const (
	KindUndefined ValueKind = "undefined"
	KindNull      ValueKind = "null"
	KindBoolean   ValueKind = "boolean"
	KindInt32     ValueKind = "int32"
	KindNumber    ValueKind = "number"
	KindBigInt    ValueKind = "bigint"
	KindString    ValueKind = "string"
	KindSymbol    ValueKind = "symbol"
	KindFunction  ValueKind = "function"
	KindObject    ValueKind = "object"
)

// Kind reports the engine representation of v. Integers that fit in 32 signed
// bits report KindInt32 even when stored as doubles.
func (v *Value) Kind() ValueKind {
	raw := unsealValue(v)
	switch {
	case raw.IsUndefined():
		return KindUndefined
	case raw.IsNull():
		return KindNull
	case raw.IsBoolean():
		return KindBoolean
	case raw.IsInt32():
		return KindInt32
	case raw.IsNumber():
		return KindNumber
	case raw.IsBigInt():
		return KindBigInt
	case raw.IsString():
		return KindString
	case raw.IsSymbol():
		return KindSymbol
	case raw.IsFunction():
		return KindFunction
	default:
		return KindObject
	}
}

func (v *Value) IsNull() bool            { return unsealValue(v).IsNull() }
func (v *Value) IsUndefined() bool       { return unsealValue(v).IsUndefined() }
func (v *Value) IsNullOrUndefined() bool { return unsealValue(v).IsNullOrUndefined() }

// StringRepresentation returns the engine's ToString of v.
func (v *Value) StringRepresentation() string {
	return unsealValue(v).String()
}

// BooleanRepresentation returns the truthiness of v.
func (v *Value) BooleanRepresentation() bool {
	return unsealValue(v).Boolean()
}

// String renders v for diagnostics.
func (v *Value) String() string {
	return unsealValue(v).DetailString()
}

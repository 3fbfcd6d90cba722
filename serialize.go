package jsbind

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"

	"github.com/cryguy/jsbind/internal/numeric"
	v8 "github.com/tommie/v8go"
)

// Serializer is implemented by Go types that build their own engine value.
type Serializer interface {
	ToJS(s *Scope) (*Value, error)
}

// Undefined is the unit marker. A function returning Undefined, or nothing at
// all, leaves the script-visible result as undefined without converting
// anything.
type Undefined struct{}

// ToValue converts v to an engine value.
//
// Integers use the cheapest exact representation: a 32-bit integer when the
// value fits in int32, a number within the safe-integer range, a bigint
// beyond it. Types not handled natively go through encoding/json.
func ToValue[T any](s *Scope, v T) (*Value, error) {
	return toValue(s, any(v))
}

func toValue(s *Scope, v any) (*Value, error) {
	switch x := v.(type) {
	case nil:
		return s.Null(), nil
	case Undefined:
		return s.Undefined(), nil
	case *Value:
		if x == nil {
			return s.Null(), nil
		}
		return x, nil
	case Serializer:
		return x.ToJS(s)
	case bool:
		return s.NewBoolean(x), nil
	case string:
		return s.NewString(x), nil
	case int8:
		return s.NewInt32(int32(x)), nil
	case int16:
		return s.NewInt32(int32(x)), nil
	case int32:
		return s.NewInt32(x), nil
	case uint8:
		return s.NewInt32(int32(x)), nil
	case uint16:
		return s.NewInt32(int32(x)), nil
	case uint32:
		if x <= math.MaxInt32 {
			return s.NewInt32(int32(x)), nil
		}
		return s.NewNumber(float64(x)), nil
	case int:
		return signedValue(s, int64(x))
	case int64:
		return signedValue(s, x)
	case uint:
		return unsignedValue(s, uint64(x))
	case uint64:
		return unsignedValue(s, x)
	case float32:
		return s.NewNumber(float64(x)), nil
	case float64:
		return s.NewNumber(x), nil
	case *big.Int:
		if x == nil {
			return s.Null(), nil
		}
		return s.NewBigInt(x)
	}
	return reflectValue(s, reflect.ValueOf(v))
}

func signedValue(s *Scope, i int64) (*Value, error) {
	switch numeric.ForSigned(i) {
	case numeric.ReprInt32:
		return s.NewInt32(int32(i)), nil
	case numeric.ReprNumber:
		return s.NewNumber(float64(i)), nil
	default:
		return s.NewBigInt(big.NewInt(i))
	}
}

func unsignedValue(s *Scope, u uint64) (*Value, error) {
	switch numeric.ForUnsigned(u) {
	case numeric.ReprInt32:
		return s.NewInt32(int32(u)), nil
	case numeric.ReprNumber:
		return s.NewNumber(float64(u)), nil
	default:
		return s.NewBigInt(new(big.Int).SetUint64(u))
	}
}

// reflectValue handles named types over basic kinds, then falls back to JSON.
func reflectValue(s *Scope, rv reflect.Value) (*Value, error) {
	switch rv.Kind() {
	case reflect.Bool:
		return s.NewBoolean(rv.Bool()), nil
	case reflect.String:
		return s.NewString(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return signedValue(s, rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return unsignedValue(s, rv.Uint())
	case reflect.Float32, reflect.Float64:
		return s.NewNumber(rv.Float()), nil
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return s.Null(), nil
		}
	case reflect.Chan, reflect.Func, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return nil, &TypeError{Msg: fmt.Sprintf("unsupported type %s", rv.Type())}
	}
	return jsonValue(s, rv.Interface())
}

func jsonValue(s *Scope, v any) (*Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &TypeError{Msg: fmt.Sprintf("marshaling %T", v), Source: err.Error()}
	}
	parsed, err := v8.JSONParse(unsealScope(s), string(data))
	if err != nil {
		return nil, &TypeError{Msg: fmt.Sprintf("parsing %T", v), Source: err.Error()}
	}
	return sealValue(parsed), nil
}

// isUndefinedType reports whether T is the unit marker, so callers can skip
// setting a return value.
func isUndefinedType[T any]() bool {
	return reflect.TypeFor[T]() == undefinedType
}

var undefinedType = reflect.TypeFor[Undefined]()

package jsbind

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"

	"github.com/cryguy/jsbind/internal/numeric"
	v8 "github.com/tommie/v8go"
	"golang.org/x/exp/constraints"
)

// Deserializer is implemented by pointer types that decode themselves from an
// engine value.
type Deserializer interface {
	FromJS(s *Scope, v *Value) error
}

// FromValue converts an engine value to T.
//
// Integer targets accept, in order, 32-bit integers, bigints that convert
// losslessly and integral numbers. A value outside T's range fails instead of
// wrapping. Strings use the engine's string conversion of any value; booleans
// must be engine booleans.
func FromValue[T any](s *Scope, v *Value) (T, error) {
	var out T
	if err := fromValue(s, unsealValue(v), &out); err != nil {
		return out, err
	}
	return out, nil
}

func fromValue(s *Scope, v *v8.Value, target any) error {
	var err error
	switch t := target.(type) {
	case *Undefined:
		return nil
	case **Value:
		*t = sealValue(v)
		return nil
	case Deserializer:
		return t.FromJS(s, sealValue(v))
	case *bool:
		if !v.IsBoolean() {
			return newTypeError("value can't be converted to bool", v)
		}
		*t = v.Boolean()
		return nil
	case *string:
		*t = v.String()
		return nil
	case *int8:
		*t, err = decodeSigned[int8](v)
	case *int16:
		*t, err = decodeSigned[int16](v)
	case *int32:
		*t, err = decodeSigned[int32](v)
	case *int64:
		*t, err = decodeSigned[int64](v)
	case *int:
		*t, err = decodeSigned[int](v)
	case *uint8:
		*t, err = decodeUnsigned[uint8](v)
	case *uint16:
		*t, err = decodeUnsigned[uint16](v)
	case *uint32:
		*t, err = decodeUnsigned[uint32](v)
	case *uint64:
		*t, err = decodeUnsigned[uint64](v)
	case *uint:
		*t, err = decodeUnsigned[uint](v)
	case *float64:
		*t, err = decodeFloat(v)
	case *float32:
		var f float64
		if f, err = decodeFloat(v); err == nil {
			if !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
				return newTypeError("value not in range for float32", v)
			}
			*t = float32(f)
		}
	case **big.Int:
		*t, err = decodeBig(v)
	case *any:
		*t, err = decodeAny(s, v)
	default:
		return reflectDecode(s, v, reflect.ValueOf(target).Elem())
	}
	return err
}

// exactSigned returns the integer held by v. ok is false when v holds no
// integer at all; inRange is false when it does but not within 64 bits.
func exactSigned(v *v8.Value) (x int64, ok, inRange bool) {
	switch {
	case v.IsInt32():
		return int64(v.Int32()), true, true
	case v.IsUint32():
		return int64(v.Uint32()), true, true
	case v.IsBigInt():
		x, inRange = numeric.SignedFromBig(v.BigInt())
		return x, true, inRange
	case v.IsNumber():
		f := v.Number()
		if !numeric.IsIntegral(f) {
			return 0, false, false
		}
		x, inRange = numeric.SignedFromFloat(f)
		return x, true, inRange
	}
	return 0, false, false
}

func exactUnsigned(v *v8.Value) (x uint64, ok, inRange bool) {
	switch {
	case v.IsInt32():
		i := v.Int32()
		return uint64(i), true, i >= 0
	case v.IsUint32():
		return uint64(v.Uint32()), true, true
	case v.IsBigInt():
		x, inRange = numeric.UnsignedFromBig(v.BigInt())
		return x, true, inRange
	case v.IsNumber():
		f := v.Number()
		if !numeric.IsIntegral(f) {
			return 0, false, false
		}
		x, inRange = numeric.UnsignedFromFloat(f)
		return x, true, inRange
	}
	return 0, false, false
}

func decodeSigned[T constraints.Signed](v *v8.Value) (T, error) {
	x, ok, inRange := exactSigned(v)
	if !ok {
		return 0, newTypeError("value can't be converted to "+typeName[T](), v)
	}
	t, fits := numeric.NarrowSigned[T](x)
	if !inRange || !fits {
		return 0, newTypeError("value not in range for "+typeName[T](), v)
	}
	return t, nil
}

func decodeUnsigned[T constraints.Unsigned](v *v8.Value) (T, error) {
	x, ok, inRange := exactUnsigned(v)
	if !ok {
		return 0, newTypeError("value can't be converted to "+typeName[T](), v)
	}
	t, fits := numeric.NarrowUnsigned[T](x)
	if !inRange || !fits {
		return 0, newTypeError("value not in range for "+typeName[T](), v)
	}
	return t, nil
}

func decodeFloat(v *v8.Value) (float64, error) {
	if !v.IsNumber() {
		return 0, newTypeError("value can't be converted to float", v)
	}
	return v.Number(), nil
}

func decodeBig(v *v8.Value) (*big.Int, error) {
	switch {
	case v.IsBigInt():
		return v.BigInt(), nil
	case v.IsNumber() && numeric.IsIntegral(v.Number()):
		b, _ := big.NewFloat(v.Number()).Int(nil)
		return b, nil
	}
	return nil, newTypeError("value can't be converted to big integer", v)
}

// decodeAny maps primitives to their natural Go type and objects through
// JSON.
func decodeAny(s *Scope, v *v8.Value) (any, error) {
	switch {
	case v.IsNullOrUndefined():
		return nil, nil
	case v.IsBoolean():
		return v.Boolean(), nil
	case v.IsString():
		return v.String(), nil
	case v.IsBigInt():
		return v.BigInt(), nil
	case v.IsNumber():
		return v.Number(), nil
	}
	var out any
	if err := jsonDecode(s, v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// reflectDecode handles named types over basic kinds, then falls back to JSON.
func reflectDecode(s *Scope, v *v8.Value, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Bool:
		var b bool
		if err := fromValue(s, v, &b); err != nil {
			return err
		}
		rv.SetBool(b)
		return nil
	case reflect.String:
		rv.SetString(v.String())
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		x, err := decodeSigned[int64](v)
		if err != nil {
			return err
		}
		if rv.OverflowInt(x) {
			return newTypeError("value not in range for "+rv.Type().String(), v)
		}
		rv.SetInt(x)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		x, err := decodeUnsigned[uint64](v)
		if err != nil {
			return err
		}
		if rv.OverflowUint(x) {
			return newTypeError("value not in range for "+rv.Type().String(), v)
		}
		rv.SetUint(x)
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := decodeFloat(v)
		if err != nil {
			return err
		}
		if rv.OverflowFloat(f) {
			return newTypeError("value not in range for "+rv.Type().String(), v)
		}
		rv.SetFloat(f)
		return nil
	case reflect.Chan, reflect.Func, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return &TypeError{Msg: fmt.Sprintf("unsupported type %s", rv.Type())}
	}
	return jsonDecode(s, v, rv.Addr().Interface())
}

func jsonDecode(s *Scope, v *v8.Value, target any) error {
	msg := "value can't be converted to " + reflect.TypeOf(target).Elem().String()
	if v.IsUndefined() || v.IsFunction() || v.IsSymbol() {
		return newTypeError(msg, v)
	}
	data, err := v8.JSONStringify(unsealScope(s), v)
	if err != nil {
		return newTypeError(msg, v)
	}
	if err := json.Unmarshal([]byte(data), target); err != nil {
		return &TypeError{Msg: err.Error(), Source: v.DetailString()}
	}
	return nil
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

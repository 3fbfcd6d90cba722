package jsbind

import (
	"errors"
	"math"
	"math/big"
	"strings"
	"testing"
	"unsafe"

	"github.com/cryguy/jsbind/internal/numeric"
	v8 "github.com/tommie/v8go"
)

// ---------------------------------------------------------------------------
// Scope and Value layout
// ---------------------------------------------------------------------------

func TestScope_LayoutMatchesContext(t *testing.T) {
	if unsafe.Sizeof(Scope{}) != unsafe.Sizeof(v8.Context{}) {
		t.Errorf("Sizeof(Scope) = %d, want %d", unsafe.Sizeof(Scope{}), unsafe.Sizeof(v8.Context{}))
	}
	if unsafe.Alignof(Scope{}) != unsafe.Alignof(v8.Context{}) {
		t.Errorf("Alignof(Scope) = %d, want %d", unsafe.Alignof(Scope{}), unsafe.Alignof(v8.Context{}))
	}
}

func TestValue_LayoutMatchesValue(t *testing.T) {
	if unsafe.Sizeof(Value{}) != unsafe.Sizeof(v8.Value{}) {
		t.Errorf("Sizeof(Value) = %d, want %d", unsafe.Sizeof(Value{}), unsafe.Sizeof(v8.Value{}))
	}
	if unsafe.Alignof(Value{}) != unsafe.Alignof(v8.Value{}) {
		t.Errorf("Alignof(Value) = %d, want %d", unsafe.Alignof(Value{}), unsafe.Alignof(v8.Value{}))
	}
}

// withScope runs fn inside a fresh runtime's scope.
func withScope(t *testing.T, fn func(s *Scope)) {
	t.Helper()
	rt := newTestRuntime[struct{}](t, struct{}{})
	if err := rt.WithScope(func(s *Scope) error {
		fn(s)
		return nil
	}); err != nil {
		t.Fatalf("WithScope: %v", err)
	}
}

func TestScope_Constructors(t *testing.T) {
	withScope(t, func(s *Scope) {
		tests := []struct {
			name string
			v    *Value
			kind ValueKind
		}{
			{"string", s.NewString("hi"), KindString},
			{"number", s.NewNumber(1.5), KindNumber},
			{"int32", s.NewInt32(-7), KindInt32},
			{"uint32", s.NewUint32(math.MaxUint32), KindNumber},
			{"boolean", s.NewBoolean(true), KindBoolean},
			{"undefined", s.Undefined(), KindUndefined},
			{"null", s.Null(), KindNull},
		}
		for _, tt := range tests {
			if got := tt.v.Kind(); got != tt.kind {
				t.Errorf("%s: Kind() = %s, want %s", tt.name, got, tt.kind)
			}
		}

		b, err := s.NewBigInt(new(big.Int).Lsh(big.NewInt(1), 100))
		if err != nil {
			t.Fatalf("NewBigInt: %v", err)
		}
		if b.Kind() != KindBigInt {
			t.Errorf("NewBigInt Kind() = %s", b.Kind())
		}
		if _, err := s.NewBigInt(nil); err == nil {
			t.Error("NewBigInt(nil) should fail")
		}
	})
}

func TestValue_Representations(t *testing.T) {
	withScope(t, func(s *Scope) {
		if got := s.NewInt32(42).StringRepresentation(); got != "42" {
			t.Errorf("StringRepresentation = %q", got)
		}
		if s.NewString("").BooleanRepresentation() {
			t.Error(`"" should be falsy`)
		}
		if !s.NewNumber(0.5).BooleanRepresentation() {
			t.Error("0.5 should be truthy")
		}
		if !s.Null().IsNullOrUndefined() || !s.Undefined().IsNullOrUndefined() {
			t.Error("IsNullOrUndefined")
		}
		if s.Null().IsUndefined() || s.Undefined().IsNull() {
			t.Error("null and undefined mixed up")
		}
	})
}

// ---------------------------------------------------------------------------
// Native to engine representation
// ---------------------------------------------------------------------------

func TestToValue_Representation(t *testing.T) {
	withScope(t, func(s *Scope) {
		tests := []struct {
			name string
			in   any
			kind ValueKind
		}{
			{"bool", true, KindBoolean},
			{"int8 min", int8(math.MinInt8), KindInt32},
			{"int16 max", int16(math.MaxInt16), KindInt32},
			{"uint8 max", uint8(math.MaxUint8), KindInt32},
			{"uint16 max", uint16(math.MaxUint16), KindInt32},
			{"uint32 at int32 max", uint32(math.MaxInt32), KindInt32},
			{"uint32 above int32 max", uint32(math.MaxInt32) + 1, KindNumber},
			{"int64 in int32", int64(-5), KindInt32},
			{"int64 above int32", int64(math.MaxInt32) + 1, KindNumber},
			{"int64 safe max", int64(numeric.MaxSafeInteger), KindNumber},
			{"int64 safe min", int64(numeric.MinSafeInteger), KindNumber},
			{"int64 above safe", int64(numeric.MaxSafeInteger) + 1, KindBigInt},
			{"int64 below safe", int64(numeric.MinSafeInteger) - 1, KindBigInt},
			{"int64 max", int64(math.MaxInt64), KindBigInt},
			{"uint64 safe max", uint64(numeric.MaxSafeInteger), KindNumber},
			{"uint64 max", uint64(math.MaxUint64), KindBigInt},
			{"int", 3, KindInt32},
			{"float32", float32(0.5), KindNumber},
			{"float64", 2.25, KindNumber},
			{"string", "x", KindString},
			{"undefined", Undefined{}, KindUndefined},
			{"nil", nil, KindNull},
			{"big", big.NewInt(1), KindBigInt},
			{"struct", struct{ A int }{1}, KindObject},
		}
		for _, tt := range tests {
			v, err := ToValue(s, tt.in)
			if err != nil {
				t.Errorf("%s: ToValue: %v", tt.name, err)
				continue
			}
			if got := v.Kind(); got != tt.kind {
				t.Errorf("%s: Kind() = %s, want %s", tt.name, got, tt.kind)
			}
		}
	})
}

func TestToValue_Unsupported(t *testing.T) {
	withScope(t, func(s *Scope) {
		for _, in := range []any{make(chan int), func() {}, complex(1, 2)} {
			_, err := ToValue(s, in)
			var te *TypeError
			if !errors.As(err, &te) {
				t.Errorf("ToValue(%T) err = %v, want *TypeError", in, err)
			}
		}
	})
}

// ---------------------------------------------------------------------------
// Round trips
// ---------------------------------------------------------------------------

func roundTrip[T comparable](t *testing.T, s *Scope, values ...T) {
	t.Helper()
	for _, x := range values {
		v, err := ToValue(s, x)
		if err != nil {
			t.Errorf("ToValue(%v): %v", x, err)
			continue
		}
		got, err := FromValue[T](s, v)
		if err != nil {
			t.Errorf("FromValue[%T](%v): %v", x, x, err)
			continue
		}
		if got != x {
			t.Errorf("round trip %T: got %v, want %v", x, got, x)
		}
	}
}

func TestRoundTrip_Integers(t *testing.T) {
	withScope(t, func(s *Scope) {
		roundTrip(t, s, int8(math.MinInt8), 0, int8(math.MaxInt8))
		roundTrip(t, s, int16(math.MinInt16), -1, int16(math.MaxInt16))
		roundTrip(t, s, int32(math.MinInt32), 1, int32(math.MaxInt32))
		roundTrip[int64](t, s, math.MinInt64, numeric.MinSafeInteger-1, numeric.MinSafeInteger,
			math.MinInt32-1, 0, math.MaxInt32+1, numeric.MaxSafeInteger, numeric.MaxSafeInteger+1, math.MaxInt64)
		roundTrip[int](t, s, math.MinInt, 0, math.MaxInt)
		roundTrip(t, s, uint8(0), uint8(math.MaxUint8))
		roundTrip(t, s, uint16(0), uint16(math.MaxUint16))
		roundTrip[uint32](t, s, 0, math.MaxInt32, math.MaxInt32+1, math.MaxUint32)
		roundTrip[uint64](t, s, 0, math.MaxUint32, numeric.MaxSafeInteger, numeric.MaxSafeInteger+1, math.MaxUint64)
		roundTrip[uint](t, s, 0, math.MaxUint)
	})
}

func TestRoundTrip_Others(t *testing.T) {
	withScope(t, func(s *Scope) {
		roundTrip(t, s, true, false)
		roundTrip(t, s, "", "héllo", "日本")
		roundTrip(t, s, 0.1, -2.5, math.MaxFloat64, math.SmallestNonzeroFloat64)
		roundTrip(t, s, float32(0.5), float32(math.MaxFloat32))

		type point struct {
			X int    `json:"x"`
			Y string `json:"y"`
		}
		roundTrip(t, s, point{X: 3, Y: "a"})

		type celsius float64
		roundTrip(t, s, celsius(21.5))

		big100 := new(big.Int).Lsh(big.NewInt(1), 100)
		v, err := ToValue(s, big100)
		if err != nil {
			t.Fatalf("ToValue(big): %v", err)
		}
		got, err := FromValue[*big.Int](s, v)
		if err != nil || got.Cmp(big100) != 0 {
			t.Errorf("big round trip = %v, %v", got, err)
		}
	})
}

func TestRoundTrip_NaN(t *testing.T) {
	withScope(t, func(s *Scope) {
		v, _ := ToValue(s, math.NaN())
		got, err := FromValue[float64](s, v)
		if err != nil || !math.IsNaN(got) {
			t.Errorf("NaN round trip = %v, %v", got, err)
		}
		if _, err := FromValue[int32](s, v); err == nil {
			t.Error("NaN should not convert to int32")
		}
	})
}

// ---------------------------------------------------------------------------
// Engine to native failures
// ---------------------------------------------------------------------------

func TestFromValue_BigIntToInt8(t *testing.T) {
	rt := newTestRuntime[struct{}](t, struct{}{})

	tests := []struct {
		src     string
		want    int8
		wantErr string
	}{
		{"127n", 127, ""},
		{"-128n", -128, ""},
		{"0n", 0, ""},
		{"128n", 0, "value not in range for int8"},
		{"-129n", 0, "value not in range for int8"},
		{"2n ** 80n", 0, "value not in range for int8"},
	}
	for _, tt := range tests {
		got, err := Execute[int8](rt, tt.src)
		if tt.wantErr != "" {
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("%s: err = %v, want %q", tt.src, err, tt.wantErr)
			}
			if !errors.Is(err, &Error{Kind: KindType}) {
				t.Errorf("%s: err kind is not type: %v", tt.src, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%s: got %d, %v; want %d", tt.src, got, err, tt.want)
		}
	}
}

func TestFromValue_Failures(t *testing.T) {
	withScope(t, func(s *Scope) {
		tests := []struct {
			name    string
			v       *Value
			decode  func(*Value) error
			wantMsg string
		}{
			{"fraction to int32", s.NewNumber(1.5), func(v *Value) error { _, err := FromValue[int32](s, v); return err }, "value can't be converted to int32"},
			{"string to int64", s.NewString("12"), func(v *Value) error { _, err := FromValue[int64](s, v); return err }, "value can't be converted to int64"},
			{"negative to uint8", s.NewInt32(-1), func(v *Value) error { _, err := FromValue[uint8](s, v); return err }, "value not in range for uint8"},
			{"300 to int8", s.NewInt32(300), func(v *Value) error { _, err := FromValue[int8](s, v); return err }, "value not in range for int8"},
			{"1e30 to int64", s.NewNumber(1e30), func(v *Value) error { _, err := FromValue[int64](s, v); return err }, "value not in range for int64"},
			{"number to bool", s.NewInt32(1), func(v *Value) error { _, err := FromValue[bool](s, v); return err }, "value can't be converted to bool"},
			{"string to float", s.NewString("1"), func(v *Value) error { _, err := FromValue[float64](s, v); return err }, "value can't be converted to float"},
			{"1e300 to float32", s.NewNumber(1e300), func(v *Value) error { _, err := FromValue[float32](s, v); return err }, "value not in range for float32"},
		}
		for _, tt := range tests {
			err := tt.decode(tt.v)
			var te *TypeError
			if !errors.As(err, &te) {
				t.Errorf("%s: err = %v, want *TypeError", tt.name, err)
				continue
			}
			if te.Msg != tt.wantMsg {
				t.Errorf("%s: Msg = %q, want %q", tt.name, te.Msg, tt.wantMsg)
			}
			if te.Source == "" {
				t.Errorf("%s: missing source rendering", tt.name)
			}
		}
	})
}

func TestFromValue_StringUsesEngineConversion(t *testing.T) {
	withScope(t, func(s *Scope) {
		got, err := FromValue[string](s, s.NewInt32(12))
		if err != nil || got != "12" {
			t.Errorf("FromValue[string](12) = %q, %v", got, err)
		}
	})
}

func TestFromValue_Any(t *testing.T) {
	rt := newTestRuntime[struct{}](t, struct{}{})
	got := mustExecute[any](t, rt, `({a: 1, b: [true, "x"]})`)
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("got %T, want map", got)
	}
	if m["a"] != 1.0 {
		t.Errorf("a = %v", m["a"])
	}
	if b, ok := m["b"].([]any); !ok || len(b) != 2 || b[0] != true || b[1] != "x" {
		t.Errorf("b = %v", m["b"])
	}
}

type pair struct{ a, b int32 }

func (p *pair) FromJS(s *Scope, v *Value) error {
	parts := strings.Split(v.StringRepresentation(), ",")
	if len(parts) != 2 {
		return &TypeError{Msg: "expected two elements", Source: v.String()}
	}
	p.a, p.b = int32(len(parts[0])), int32(len(parts[1]))
	return nil
}

func (p pair) ToJS(s *Scope) (*Value, error) {
	return s.NewInt32(p.a + p.b), nil
}

func TestCustomConversions(t *testing.T) {
	rt := newTestRuntime[struct{}](t, struct{}{})
	got := mustExecute[pair](t, rt, `["abc", "de"]`)
	if got.a != 3 || got.b != 2 {
		t.Errorf("pair = %+v", got)
	}

	err := rt.WithScope(func(s *Scope) error {
		v, err := ToValue(s, pair{a: 4, b: 5})
		if err != nil {
			return err
		}
		n, err := FromValue[int32](s, v)
		if err != nil {
			return err
		}
		if n != 9 {
			t.Errorf("ToJS result = %d, want 9", n)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestIsUndefinedType(t *testing.T) {
	if !isUndefinedType[Undefined]() {
		t.Error("Undefined not recognized")
	}
	if isUndefinedType[struct{}]() {
		t.Error("struct{} treated as Undefined")
	}
}

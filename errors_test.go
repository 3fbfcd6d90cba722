package jsbind

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Format(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: KindScript, Message: "boom"}, "[script] boom"},
		{&Error{Kind: KindScript, Message: "boom", Line: 3}, "[script] boom (line 3)"},
		{&Error{Kind: KindInternal, Message: "x", Cause: errors.New("y")}, "[internal] x (caused by: y)"},
		{&Error{Kind: KindClosed}, "[closed]"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Error{Kind: KindStateBorrowed, Message: "other text"})
	if !errors.Is(err, ErrStateBorrowed) {
		t.Error("errors.Is(err, ErrStateBorrowed) = false")
	}
	if errors.Is(err, ErrRuntimeClosed) {
		t.Error("errors.Is(err, ErrRuntimeClosed) = true")
	}
}

func TestError_Unwrap(t *testing.T) {
	te := &TypeError{Msg: "bad"}
	err := typeFailure(te)
	var got *TypeError
	if !errors.As(err, &got) || got != te {
		t.Fatalf("errors.As did not find the TypeError in %v", err)
	}
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindType {
		t.Errorf("err = %v, want kind %v", err, KindType)
	}
}

func TestTypeError_Format(t *testing.T) {
	if got := (&TypeError{Msg: "value not in range for int8", Source: "300"}).Error(); got != "value not in range for int8: 300" {
		t.Errorf("Error() = %q", got)
	}
	if got := (&TypeError{Msg: "nil big integer"}).Error(); got != "nil big integer" {
		t.Errorf("Error() = %q", got)
	}
}

func TestLineFromLocation(t *testing.T) {
	tests := []struct {
		loc  string
		want int
	}{
		{"script.js:3:7", 3},
		{"jsbind:errors.js:12:1", 12},
		{"script.js", 0},
		{"", 0},
		{"script.js:x:1", 0},
	}
	for _, tt := range tests {
		if got := lineFromLocation(tt.loc); got != tt.want {
			t.Errorf("lineFromLocation(%q) = %d, want %d", tt.loc, got, tt.want)
		}
	}
}

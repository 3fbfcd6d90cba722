package transpile

import (
	"errors"
	"strings"
	"testing"
)

func TestSource_JSPassthrough(t *testing.T) {
	src := "var x: number = 1"
	got, err := Source(src, JS)
	if err != nil {
		t.Fatal(err)
	}
	if got != src {
		t.Errorf("JS loader changed source: %q", got)
	}
}

func TestSource_TSStripsTypes(t *testing.T) {
	got, err := Source("const add = (a: number, b: number): number => a + b;\nadd(1, 2)", TS)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, ": number") {
		t.Errorf("type annotations not stripped: %q", got)
	}
	if !strings.Contains(got, "add(1, 2)") {
		t.Errorf("trailing expression lost: %q", got)
	}
}

func TestSource_TSInterfaceRemoved(t *testing.T) {
	got, err := Source("interface P { x: number }\nconst p: P = { x: 3 };\np.x", TS)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "interface") {
		t.Errorf("interface not removed: %q", got)
	}
}

func TestSource_TSSyntaxError(t *testing.T) {
	_, err := Source("const = ;", TS)
	if err == nil {
		t.Fatal("expected error")
	}
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if terr.Line != 1 {
		t.Errorf("Line = %d, want 1", terr.Line)
	}
	if len(terr.Messages) == 0 {
		t.Error("expected at least one message")
	}
}

func TestSource_UnknownLoader(t *testing.T) {
	if _, err := Source("1", Loader(42)); err == nil {
		t.Fatal("expected error for unknown loader")
	}
}

func TestLoader_String(t *testing.T) {
	tests := []struct {
		l    Loader
		want string
	}{
		{JS, "js"},
		{TS, "ts"},
		{Loader(9), "loader(9)"},
	}
	for _, tt := range tests {
		if got := tt.l.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

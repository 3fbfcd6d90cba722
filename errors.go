package jsbind

import (
	"errors"
	"strconv"
	"strings"

	v8 "github.com/tommie/v8go"
)

// ErrorKind categorizes an Error.
type ErrorKind string

const (
	KindType                 ErrorKind = "type"                   // value conversion failed
	KindEngineNotInitialized ErrorKind = "engine_not_initialized" // Initialize was not called
	KindScript               ErrorKind = "script"                 // compile or run failure, uncaught exception
	KindInternal             ErrorKind = "internal"               // binding layer invariant violated
	KindRegistration         ErrorKind = "registration"           // invalid function declaration
	KindStateBorrowed        ErrorKind = "state_borrowed"         // reentrant borrow of the runtime state
	KindCanceled             ErrorKind = "canceled"               // host context ended the script
	KindTerminated           ErrorKind = "terminated"             // runtime refused work after a termination
	KindClosed               ErrorKind = "closed"                 // runtime already closed
)

// Error is the structured error returned by runtime operations.
type Error struct {
	Cause   error
	Kind    ErrorKind
	Message string
	Stack   string
	Line    int // 1-based script line for KindScript, 0 when unknown
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Kind))
	b.WriteByte(']')

	if e.Message != "" {
		b.WriteByte(' ')
		b.WriteString(e.Message)
	}

	if e.Line > 0 {
		b.WriteString(" (line ")
		b.WriteString(strconv.Itoa(e.Line))
		b.WriteByte(')')
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

var (
	// ErrEngineNotInitialized is returned by NewRuntime before Initialize.
	ErrEngineNotInitialized = &Error{Kind: KindEngineNotInitialized, Message: "engine is not initialized"}
	// ErrStateBorrowed reports a second concurrent borrow of a StateSlot.
	ErrStateBorrowed = &Error{Kind: KindStateBorrowed, Message: "runtime state is already borrowed"}
	// ErrRuntimeClosed is returned by every Runtime method after Close.
	ErrRuntimeClosed = &Error{Kind: KindClosed, Message: "runtime is closed"}
	// ErrTerminated is returned after a script was terminated by a
	// cancellation or a reentrant state borrow. The runtime should be closed.
	ErrTerminated = &Error{Kind: KindTerminated, Message: "runtime execution was terminated"}
)

// TypeError is a failed conversion between a Go value and an engine value.
type TypeError struct {
	Msg    string
	Source string // rendering of the offending engine value, if any
}

func (e *TypeError) Error() string {
	if e.Source == "" {
		return e.Msg
	}
	return e.Msg + ": " + e.Source
}

func newTypeError(msg string, v *v8.Value) *TypeError {
	te := &TypeError{Msg: msg}
	if v != nil {
		te.Source = v.DetailString()
	}
	return te
}

// typeFailure lifts a conversion failure into an *Error of KindType.
func typeFailure(err error) error {
	var te *TypeError
	if errors.As(err, &te) {
		return &Error{Kind: KindType, Message: te.Error(), Cause: te}
	}
	return &Error{Kind: KindType, Message: err.Error(), Cause: err}
}

// scriptFailure turns an engine compile or run error into an *Error of
// KindScript carrying the engine's message and line number.
func scriptFailure(err error) error {
	var jsErr *v8.JSError
	if !errors.As(err, &jsErr) {
		return &Error{Kind: KindScript, Message: err.Error(), Cause: err}
	}
	return &Error{
		Kind:    KindScript,
		Message: jsErr.Message,
		Line:    lineFromLocation(jsErr.Location),
		Stack:   jsErr.StackTrace,
		Cause:   err,
	}
}

// lineFromLocation extracts the line from an engine "origin:line:column"
// location.
func lineFromLocation(loc string) int {
	parts := strings.Split(loc, ":")
	if len(parts) < 3 {
		return 0
	}
	n, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return 0
	}
	return n
}

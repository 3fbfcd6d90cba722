package jsbind

import (
	"github.com/cryguy/jsbind/internal/transpile"
	"go.uber.org/zap"
)

// Loader selects how Execute interprets source text.
type Loader = transpile.Loader

const (
	// LoaderJS runs sources as plain scripts.
	LoaderJS = transpile.JS
	// LoaderTS strips TypeScript annotations before running.
	LoaderTS = transpile.TS
)

const (
	defaultInitialHeapSize = 32 << 10
	defaultMaxHeapSize     = 512 << 20
)

// RuntimeOptions configures NewRuntime.
type RuntimeOptions[S any] struct {
	// InitialHeapSize and MaxHeapSize bound the isolate heap in bytes.
	// Zero selects 32 KiB and 512 MiB.
	InitialHeapSize uint64
	MaxHeapSize     uint64

	// StackTraceDepth sets Error.stackTraceLimit for uncaught exceptions when
	// positive. Zero keeps the engine default.
	StackTraceDepth int

	// Extensions are installed in order. Each is consumed by the runtime.
	Extensions []*Extension[S]

	Loader Loader

	// Logger overrides the package logger for this runtime.
	Logger *zap.Logger
}

// DefaultRuntimeOptions returns options with the default heap bounds.
func DefaultRuntimeOptions[S any]() RuntimeOptions[S] {
	return RuntimeOptions[S]{
		InitialHeapSize: defaultInitialHeapSize,
		MaxHeapSize:     defaultMaxHeapSize,
		Loader:          LoaderJS,
	}
}

func (o RuntimeOptions[S]) withDefaults() RuntimeOptions[S] {
	if o.InitialHeapSize == 0 {
		o.InitialHeapSize = defaultInitialHeapSize
	}
	if o.MaxHeapSize == 0 {
		o.MaxHeapSize = defaultMaxHeapSize
	}
	if o.InitialHeapSize > o.MaxHeapSize {
		o.InitialHeapSize = o.MaxHeapSize
	}
	if o.Logger == nil {
		o.Logger = Logger()
	}
	return o
}

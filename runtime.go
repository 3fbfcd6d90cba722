package jsbind

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/cryguy/jsbind/internal/transpile"
	v8 "github.com/tommie/v8go"
	"go.uber.org/zap"
)

// maxSourceLength is the engine's maximum string length on 64-bit hosts.
// Longer sources are cut to this many bytes.
const maxSourceLength = 1<<29 - 24

const scriptOrigin = "script.js"

var runtimeSeq atomic.Uint64

// Runtime is one isolate with a single execution context, the functions
// installed from its extensions and the shared state. Methods are serialized;
// a Runtime may be used from any goroutine but runs one script at a time.
//
// Close must not be called from inside a host function.
type Runtime[S any] struct {
	mu      sync.Mutex
	iso     *v8.Isolate
	ctx     *v8.Context
	state   *StateSlot[S]
	binding *binding[S]
	loader  Loader
	log     *zap.Logger

	closed     bool
	terminated bool
	closing    atomic.Bool
}

// NewRuntime builds a runtime. Global extensions are installed on the global
// object template before the context is created; namespaced extensions are
// installed on plain objects attached to the global object afterwards.
// Extensions sharing a namespace are merged into one object. A function whose
// name is also a namespace at the same level ("host" declaring fs next to a
// "host.fs" namespace, or a global host next to "host") is rejected with
// KindRegistration.
func NewRuntime[S any](opts RuntimeOptions[S], state S) (*Runtime[S], error) {
	if !Initialized() {
		return nil, ErrEngineNotInitialized
	}
	opts = opts.withDefaults()

	log := opts.Logger.With(zap.Uint64("runtime", runtimeSeq.Add(1)))
	iso := v8.NewIsolate(v8.WithResourceConstraints(opts.InitialHeapSize, opts.MaxHeapSize))

	r := &Runtime[S]{
		iso:    iso,
		state:  newStateSlot(state),
		loader: opts.Loader,
		log:    log,
	}
	r.binding = &binding[S]{iso: iso, state: r.state, log: log}

	if err := r.build(opts); err != nil {
		if r.ctx != nil {
			r.ctx.Close()
		}
		iso.Dispose()
		return nil, err
	}

	log.Debug("runtime ready",
		zap.Uint64("initial_heap", opts.InitialHeapSize),
		zap.Uint64("max_heap", opts.MaxHeapSize),
		zap.Stringer("loader", opts.Loader))
	return r, nil
}

type namespaceDecls struct {
	path  string
	decls map[string]declaration
}

func (r *Runtime[S]) build(opts RuntimeOptions[S]) error {
	globals := make(map[string]declaration)
	var namespaces []*namespaceDecls
	byPath := make(map[string]*namespaceDecls)

	for i, ext := range opts.Extensions {
		if ext == nil {
			continue
		}
		decls, err := ext.drain()
		if err != nil {
			return &Error{Kind: KindRegistration, Message: fmt.Sprintf("extension %d", i), Cause: err}
		}
		target := globals
		if ext.namespace != "" {
			ns, ok := byPath[ext.namespace]
			if !ok {
				ns = &namespaceDecls{path: ext.namespace, decls: make(map[string]declaration)}
				byPath[ext.namespace] = ns
				namespaces = append(namespaces, ns)
			}
			target = ns.decls
		}
		for name, d := range decls {
			target[name] = d
		}
	}

	if err := checkNamespaceCollisions(globals, byPath); err != nil {
		return err
	}

	global := v8.NewObjectTemplate(r.iso)
	for _, name := range sortedNames(globals) {
		tmpl := v8.NewFunctionTemplate(r.iso, r.binding.callback(name, globals[name]))
		if err := global.Set(name, tmpl); err != nil {
			return internalError("installing global "+name, err)
		}
	}
	r.log.Debug("globals installed", zap.Int("functions", len(globals)))

	r.ctx = v8.NewContext(r.iso, global)

	factory, err := r.ctx.RunScript(errorFactory, "jsbind:errors.js")
	if err != nil {
		return internalError("compiling error factory", err)
	}
	r.binding.newError, err = factory.AsFunction()
	if err != nil {
		return internalError("compiling error factory", err)
	}

	if opts.StackTraceDepth > 0 {
		src := fmt.Sprintf("Error.stackTraceLimit = %d", opts.StackTraceDepth)
		if _, err := r.ctx.RunScript(src, "jsbind:stack.js"); err != nil {
			return internalError("setting stack trace limit", err)
		}
	}

	objects := make(map[string]*v8.Object)
	for _, ns := range namespaces {
		obj, err := r.namespaceObject(objects, ns.path)
		if err != nil {
			return err
		}
		for _, name := range sortedNames(ns.decls) {
			tmpl := v8.NewFunctionTemplate(r.iso, r.binding.callback(ns.path+"."+name, ns.decls[name]))
			if err := obj.Set(name, tmpl.GetFunction(r.ctx)); err != nil {
				return internalError("installing "+ns.path+"."+name, err)
			}
		}
		r.log.Debug("namespace installed",
			zap.String("namespace", ns.path),
			zap.Int("functions", len(ns.decls)))
	}
	return nil
}

// namespaceObject returns the object for a dotted path, creating the missing
// links from the global object down.
func (r *Runtime[S]) namespaceObject(objects map[string]*v8.Object, path string) (*v8.Object, error) {
	if err := validateNamespace(path); err != nil {
		return nil, &Error{Kind: KindRegistration, Message: "installing namespace", Cause: err}
	}
	parent := r.ctx.Global()
	parts := strings.Split(path, ".")
	for i, part := range parts {
		prefix := strings.Join(parts[:i+1], ".")
		if obj, ok := objects[prefix]; ok {
			parent = obj
			continue
		}
		obj, err := v8.NewObjectTemplate(r.iso).NewInstance(r.ctx)
		if err != nil {
			return nil, internalError("creating namespace "+prefix, err)
		}
		if err := parent.Set(part, obj); err != nil {
			return nil, internalError("attaching namespace "+prefix, err)
		}
		objects[prefix] = obj
		parent = obj
	}
	return parent, nil
}

// checkNamespaceCollisions rejects a namespace segment that is also declared
// as a function on its parent.
func checkNamespaceCollisions(globals map[string]declaration, byPath map[string]*namespaceDecls) error {
	for path := range byPath {
		parts := strings.Split(path, ".")
		for i, part := range parts {
			parent := globals
			if i > 0 {
				ns, ok := byPath[strings.Join(parts[:i], ".")]
				if !ok {
					continue
				}
				parent = ns.decls
			}
			if _, ok := parent[part]; ok {
				return &Error{
					Kind:    KindRegistration,
					Message: fmt.Sprintf("namespace %q collides with function %q", path, part),
				}
			}
		}
	}
	return nil
}

func sortedNames(decls map[string]declaration) []string {
	names := make([]string, 0, len(decls))
	for name := range decls {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func internalError(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Cause: err}
}

// State returns the runtime's state slot.
func (r *Runtime[S]) State() *StateSlot[S] {
	return r.state
}

// Execute runs source in the runtime's context and converts the completion
// value to T.
func Execute[T, S any](r *Runtime[S], source string) (T, error) {
	return ExecuteContext[T](context.Background(), r, source)
}

// ExecuteContext is Execute with cancellation. When ctx ends while the script
// runs, the script is terminated and the runtime refuses further execution.
func ExecuteContext[T, S any](ctx context.Context, r *Runtime[S], source string) (T, error) {
	var zero T

	r.mu.Lock()
	defer r.mu.Unlock()

	v, err := r.run(ctx, source)
	if err != nil {
		return zero, err
	}
	out, err := FromValue[T](sealScope(r.ctx), sealValue(v))
	if err != nil {
		return zero, typeFailure(err)
	}
	return out, nil
}

// Run executes source and discards its completion value.
func (r *Runtime[S]) Run(source string) error {
	_, err := Execute[Undefined](r, source)
	return err
}

// WithScope runs fn with the runtime's scope. Values created through the
// scope must not be used after fn returns.
func (r *Runtime[S]) WithScope(fn func(s *Scope) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRuntimeClosed
	}
	return fn(sealScope(r.ctx))
}

func (r *Runtime[S]) run(ctx context.Context, source string) (*v8.Value, error) {
	if r.closed {
		return nil, ErrRuntimeClosed
	}
	if r.terminated {
		return nil, ErrTerminated
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: KindCanceled, Message: "execution canceled", Cause: err}
	}

	src, err := transpile.Source(source, r.loader)
	if err != nil {
		return nil, transpileFailure(err)
	}
	if cut, truncated := truncateSource(src, maxSourceLength); truncated {
		r.log.Warn("source exceeds engine string limit, truncating",
			zap.Int("length", len(src)),
			zap.Int("limit", maxSourceLength))
		src = cut
	}

	detach := watchContext(ctx, r.iso.TerminateExecution)
	val, err := r.runScript(src)
	canceled := detach()

	switch {
	case canceled:
		r.terminated = true
		r.log.Warn("script terminated by context", zap.Error(ctx.Err()))
		return nil, &Error{Kind: KindCanceled, Message: "execution canceled", Cause: ctx.Err()}
	case r.binding.violated.Load():
		r.terminated = true
		return nil, &Error{Kind: KindStateBorrowed, Message: ErrStateBorrowed.Message, Cause: err}
	case err != nil && r.closing.Load():
		r.terminated = true
		return nil, ErrRuntimeClosed
	case err != nil:
		return nil, scriptFailure(err)
	}
	return val, nil
}

// watchContext calls terminate when ctx ends. The returned func detaches the
// watch and reports whether terminate was started; when it returns true,
// terminate has completed and its request may still be pending on the
// isolate.
func watchContext(ctx context.Context, terminate func()) func() bool {
	done := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(done)
		terminate()
	})
	return func() bool {
		if stop() {
			return false
		}
		<-done
		return true
	}
}

func (r *Runtime[S]) runScript(src string) (*v8.Value, error) {
	script, err := r.iso.CompileUnboundScript(src, scriptOrigin, v8.CompileOptions{})
	if err != nil {
		return nil, err
	}
	val, err := script.Run(r.ctx)
	if err != nil {
		return nil, err
	}
	r.ctx.PerformMicrotaskCheckpoint()
	return val, nil
}

func transpileFailure(err error) error {
	var te *transpile.Error
	if errors.As(err, &te) {
		return &Error{Kind: KindScript, Message: strings.Join(te.Messages, "; "), Line: te.Line, Cause: err}
	}
	return &Error{Kind: KindScript, Message: err.Error(), Cause: err}
}

// truncateSource cuts src to at most limit bytes without splitting a UTF-8
// sequence.
func truncateSource(src string, limit int) (string, bool) {
	if len(src) <= limit {
		return src, false
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(src[cut]) {
		cut--
	}
	return src[:cut], true
}

// Close terminates any running script, then releases the context and the
// isolate. It is safe to call more than once.
func (r *Runtime[S]) Close() error {
	if !r.closing.CompareAndSwap(false, true) {
		return nil
	}
	r.iso.TerminateExecution()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.ctx.Close()
	r.iso.Dispose()
	r.log.Debug("runtime closed")
	return nil
}

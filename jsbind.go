// Package jsbind embeds the V8 JavaScript engine and lets Go code publish
// native functions to scripts.
//
// Functions are collected in an Extension before a Runtime exists. Three
// calling conventions are available: closures (any Go func, adapted through
// reflection once at registration), static functions (typed generic adapters,
// no reflection per call) and fastcall functions (fixed primitive signatures
// with a direct extraction path). Functions may take a *S pointing at the
// runtime's shared state; the state is borrowed for the duration of a call only
// and a reentrant borrow terminates the running script.
//
//	jsbind.InitializeWithDefaults()
//
//	ext := jsbind.NewExtension[int]("")
//	_ = ext.AddFunctionWithState("bump", func(n *int, by int32) int {
//		*n += int(by)
//		return *n
//	})
//
//	rt, err := jsbind.NewRuntime(jsbind.RuntimeOptions[int]{
//		Extensions: []*jsbind.Extension[int]{ext},
//	}, 55)
//	if err != nil {
//		return err
//	}
//	defer rt.Close()
//
//	n, err := jsbind.Execute[int32](rt, "bump(5)")
package jsbind

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	v8 "github.com/tommie/v8go"
	"go.uber.org/zap"
)

var (
	initOnce    sync.Once
	initialized atomic.Bool
)

// InitOptions configures process-wide engine initialization.
type InitOptions struct {
	// Flags are passed to V8 verbatim (e.g. "--expose-gc").
	Flags []string
}

// Initialize prepares the engine for use by this package. It must be called
// before NewRuntime; only the first call has any effect.
func Initialize(opts InitOptions) {
	initOnce.Do(func() {
		if len(opts.Flags) > 0 {
			v8.SetFlags(opts.Flags...)
		}
		initialized.Store(true)
		Logger().Debug("engine initialized",
			zap.String("version", v8.Version()),
			zap.Strings("flags", opts.Flags))
	})
}

// InitializeWithDefaults calls Initialize with zero options.
func InitializeWithDefaults() {
	Initialize(InitOptions{})
}

// Initialized reports whether Initialize has completed.
func Initialized() bool {
	return initialized.Load()
}

// Version is the engine version, following Chromium's numbering.
type Version struct {
	Major    uint32
	Minor    uint32
	Revision uint32
	Patch    uint32
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Revision, v.Patch)
}

// EngineVersion returns the version of the linked V8 engine.
func EngineVersion() (Version, error) {
	return parseVersion(v8.Version())
}

func parseVersion(s string) (Version, error) {
	// Embedders may append a suffix such as "-node.12".
	if i := strings.IndexAny(s, "- "); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, ".")
	if len(parts) < 3 || len(parts) > 4 {
		return Version{}, fmt.Errorf("unexpected engine version %q", s)
	}
	var nums [4]uint32
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return Version{}, fmt.Errorf("unexpected engine version %q: %w", s, err)
		}
		nums[i] = uint32(n)
	}
	return Version{Major: nums[0], Minor: nums[1], Revision: nums[2], Patch: nums[3]}, nil
}

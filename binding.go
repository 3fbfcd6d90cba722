package jsbind

import (
	"errors"
	"fmt"
	"sync/atomic"

	v8 "github.com/tommie/v8go"
	"go.uber.org/zap"
)

// errorFactory builds script-visible exceptions: a TypeError for conversion
// failures, a plain Error otherwise.
const errorFactory = `(function (T, E) {
	return function (isType, message) { return isType ? new T(message) : new E(message); };
})(TypeError, Error)`

// binding is what every installed callback of one runtime closes over. State,
// isolate and logger are captured when the function is installed.
type binding[S any] struct {
	iso      *v8.Isolate
	state    *StateSlot[S]
	log      *zap.Logger
	newError *v8.Function

	// violated is set when a callback found the state already borrowed.
	violated atomic.Bool
}

func (b *binding[S]) callback(name string, d declaration) v8.FunctionCallback {
	return func(info *v8.FunctionCallbackInfo) (result *v8.Value) {
		s := sealScope(info.Context())

		defer func() {
			if p := recover(); p != nil {
				b.log.Error("host function panicked",
					zap.String("function", name),
					zap.Any("panic", p),
					zap.Stack("stack"))
				result = b.throw(s, fmt.Errorf("%s: host function panicked: %v", name, p))
			}
		}()

		var state any
		if d.stateful {
			st, release, err := b.state.Borrow()
			if err != nil {
				b.log.Warn("reentrant state borrow, terminating script",
					zap.String("function", name),
					zap.Stringer("convention", d.convention))
				b.violated.Store(true)
				b.iso.TerminateExecution()
				return nil
			}
			defer release()
			state = st
		}

		v, err := d.call(s, state, info.Args())
		if err != nil {
			return b.throw(s, err)
		}
		return v
	}
}

func (b *binding[S]) throw(s *Scope, err error) *v8.Value {
	var te *TypeError
	isType := errors.As(err, &te)
	msg := s.NewString(err.Error())

	exc := unsealValue(msg)
	if b.newError != nil {
		flag := unsealValue(s.NewBoolean(isType))
		if v, callErr := b.newError.Call(v8.Undefined(b.iso), flag, exc); callErr == nil {
			exc = v
		}
	}
	return b.iso.ThrowException(exc)
}

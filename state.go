package jsbind

import "sync/atomic"

// StateSlot holds the host state shared by every stateful function of one
// runtime. At most one borrow is outstanding at a time.
type StateSlot[S any] struct {
	value    S
	borrowed atomic.Bool
}

func newStateSlot[S any](value S) *StateSlot[S] {
	return &StateSlot[S]{value: value}
}

// Borrow hands out exclusive access to the state. The returned release func
// must be called once the caller is done; the pointer must not be used after.
// A borrow while another is outstanding fails with ErrStateBorrowed.
func (s *StateSlot[S]) Borrow() (*S, func(), error) {
	if !s.borrowed.CompareAndSwap(false, true) {
		return nil, nil, ErrStateBorrowed
	}
	released := false
	return &s.value, func() {
		if !released {
			released = true
			s.borrowed.Store(false)
		}
	}, nil
}

// With runs fn with the state borrowed.
func (s *StateSlot[S]) With(fn func(*S)) error {
	v, release, err := s.Borrow()
	if err != nil {
		return err
	}
	defer release()
	fn(v)
	return nil
}

// Borrowed reports whether a borrow is outstanding.
func (s *StateSlot[S]) Borrowed() bool {
	return s.borrowed.Load()
}

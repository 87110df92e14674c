package materialize

import "errors"

// State is the lifecycle position of one invocation.
type State int

const (
	// StatePending is the state before the single remote call completes.
	StatePending State = iota

	// StateCompleted is the state after the remote call returned or failed.
	StateCompleted
)

// String returns the state name.
func (s State) String() string {
	if s == StateCompleted {
		return "completed"
	}
	return "pending"
}

// errFailureWithoutCause backs Failure(nil) so a failure always carries an error.
var errFailureWithoutCause = errors.New("materialize: failure without cause")

// Outcome is the result of one materialize-and-invoke cycle: exactly one of a
// success value or a failure error.
//
// The zero Outcome is pending; it is only observable when BuildAndInvoke rejected
// the invocation with a configuration error.
type Outcome[T any] struct {
	value T
	err   error
	done  bool
}

// Success returns a completed Outcome carrying v.
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{value: v, done: true}
}

// Failure returns a completed Outcome carrying err.
func Failure[T any](err error) Outcome[T] {
	if err == nil {
		err = errFailureWithoutCause
	}
	return Outcome[T]{err: err, done: true}
}

// State reports whether the invocation completed.
func (o Outcome[T]) State() State {
	if o.done {
		return StateCompleted
	}
	return StatePending
}

// Succeeded reports whether the Outcome is a Success.
func (o Outcome[T]) Succeeded() bool { return o.done && o.err == nil }

// Failed reports whether the Outcome is a Failure.
func (o Outcome[T]) Failed() bool { return o.done && o.err != nil }

// Value returns the projected value and whether the Outcome is a Success.
func (o Outcome[T]) Value() (T, bool) {
	if !o.Succeeded() {
		var zero T
		return zero, false
	}
	return o.value, true
}

// Err returns the failure error, or nil for a Success.
func (o Outcome[T]) Err() error { return o.err }

// Result returns the Outcome as a conventional (value, error) pair.
func (o Outcome[T]) Result() (T, error) {
	if o.err != nil {
		var zero T
		return zero, o.err
	}
	return o.value, nil
}

// Map projects a Success value through f. Failures pass through unchanged.
func Map[T, U any](o Outcome[T], f func(T) U) Outcome[U] {
	if !o.done {
		return Outcome[U]{}
	}
	if o.err != nil {
		return Failure[U](o.err)
	}
	return Success(f(o.value))
}

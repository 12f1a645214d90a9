package loadable

import (
	"encoding/json"
	"fmt"
)

// Kind identifies which variant a State holds.
type Kind int

const (
	// KindIdle indicates no fetch has been attempted yet.
	KindIdle Kind = iota
	// KindLoading indicates a fetch is in flight and content should be hidden.
	KindLoading
	// KindLoaded indicates the last applied fetch succeeded.
	KindLoaded
	// KindFailed indicates the last applied fetch failed.
	KindFailed
)

// Stable debug labels returned by TypeName.
const (
	typeNameIdle    = "idle"
	typeNameLoading = "loading"
	typeNameLoaded  = "dataLoaded"
	typeNameFailed  = "error"
)

// String returns the debug label for the kind.
func (k Kind) String() string {
	switch k {
	case KindIdle:
		return typeNameIdle
	case KindLoading:
		return typeNameLoading
	case KindLoaded:
		return typeNameLoaded
	case KindFailed:
		return typeNameFailed
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// State is an immutable lifecycle value. The zero value is Idle.
//
// Only Loaded carries a value and only Failed carries an error; the
// constructors are the only way to build those variants.
type State[T any] struct {
	kind  Kind
	value T
	err   error
}

// Idle returns the initial state.
func Idle[T any]() State[T] {
	return State[T]{kind: KindIdle}
}

// Loading returns the in-flight state.
func Loading[T any]() State[T] {
	return State[T]{kind: KindLoading}
}

// Loaded returns a state holding a successfully fetched value.
func Loaded[T any](value T) State[T] {
	return State[T]{kind: KindLoaded, value: value}
}

// Failed returns a state holding the error from a failed fetch.
// A nil error is replaced with ErrUnknown so that Err never returns nil for
// a Failed state.
func Failed[T any](err error) State[T] {
	if err == nil {
		err = ErrUnknown
	}
	return State[T]{kind: KindFailed, err: err}
}

// Kind returns the active variant.
func (s State[T]) Kind() Kind {
	return s.kind
}

// TypeName returns a stable label for logging and tests:
// "idle", "loading", "dataLoaded" or "error".
func (s State[T]) TypeName() string {
	return s.kind.String()
}

// Value returns the payload and true if the state is Loaded.
func (s State[T]) Value() (T, bool) {
	if s.kind != KindLoaded {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Err returns the payload if the state is Failed, otherwise nil.
func (s State[T]) Err() error {
	if s.kind != KindFailed {
		return nil
	}
	return s.err
}

// IsIdle reports whether the state is Idle.
func (s State[T]) IsIdle() bool { return s.kind == KindIdle }

// IsLoading reports whether the state is Loading.
func (s State[T]) IsLoading() bool { return s.kind == KindLoading }

// IsLoaded reports whether the state is Loaded.
func (s State[T]) IsLoaded() bool { return s.kind == KindLoaded }

// IsFailed reports whether the state is Failed.
func (s State[T]) IsFailed() bool { return s.kind == KindFailed }

// String renders the state for debug output, e.g. "dataLoaded([a b])".
func (s State[T]) String() string {
	switch s.kind {
	case KindLoaded:
		return fmt.Sprintf("%s(%v)", s.kind, s.value)
	case KindFailed:
		return fmt.Sprintf("%s(%s)", s.kind, ErrorKey(s.err))
	case KindIdle, KindLoading:
		return s.kind.String()
	default:
		return s.kind.String()
	}
}

// stateJSON is the wire form used by headless output.
type stateJSON[T any] struct {
	State string `json:"state"`
	Value *T     `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// MarshalJSON encodes the variant label and its payload, if any.
func (s State[T]) MarshalJSON() ([]byte, error) {
	out := stateJSON[T]{State: s.TypeName()}
	switch s.kind {
	case KindLoaded:
		v := s.value
		out.Value = &v
	case KindFailed:
		out.Error = ErrorKey(s.err)
	case KindIdle, KindLoading:
	}
	return json.Marshal(out)
}

// Equal reports whether two states are the same variant with equal payloads.
// Failed payloads are compared by their normalized ErrorKey.
func Equal[T comparable](a, b State[T]) bool {
	return EqualFunc(a, b, func(x, y T) bool { return x == y })
}

// EqualFunc is like Equal but compares Loaded payloads with eq. It serves
// payload types that are not comparable with ==, such as slices.
func EqualFunc[T any](a, b State[T], eq func(x, y T) bool) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindLoaded:
		return eq(a.value, b.value)
	case KindFailed:
		return ErrorKey(a.err) == ErrorKey(b.err)
	case KindIdle, KindLoading:
		return true
	default:
		return true
	}
}

package loadable

import (
	"context"
	"errors"
	"fmt"
)

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors, comparable with errors.Is.
var (
	// ErrUnknown stands in for a nil error passed to Failed.
	ErrUnknown = constError("unknown fetch error")

	// ErrFetchPanicked wraps a panic recovered from the fetch operation.
	ErrFetchPanicked = constError("fetch panicked")

	// ErrNilFetch is returned by New when no fetch operation is supplied.
	ErrNilFetch = constError("fetch function is nil")
)

// Coded is implemented by errors that carry a stable domain and code.
// ErrorKey uses it to normalize errors for comparison.
type Coded interface {
	error
	Domain() string
	Code() int
}

// ErrorKey returns the normalized representation of err used for equality.
//
// If any error in the chain implements Coded, the key is
// "domain:code:message" built from that error; otherwise it is err.Error().
// A nil error yields the empty string.
func ErrorKey(err error) string {
	if err == nil {
		return ""
	}
	var coded Coded
	if errors.As(err, &coded) {
		return fmt.Sprintf("%s:%d:%s", coded.Domain(), coded.Code(), coded.Error())
	}
	return err.Error()
}

// isCancellation reports whether a fetch outcome should be dropped as an
// intentional cancellation rather than applied. That is the case when the
// caller's context is done, whatever the fetch returned, or when the fetch
// itself reports context.Canceled.
func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}

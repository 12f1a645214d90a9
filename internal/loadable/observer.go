package loadable

import "time"

// Trigger identifies what started a fetch.
type Trigger int

const (
	// TriggerInitial is the first load when a view becomes active. It only
	// proceeds from Idle.
	TriggerInitial Trigger = iota
	// TriggerRetry re-runs the fetch and shows Loading first.
	TriggerRetry
	// TriggerRefresh re-runs the fetch and keeps the current state visible.
	TriggerRefresh
)

// String returns the trigger name used in logs and metric labels.
func (t Trigger) String() string {
	switch t {
	case TriggerInitial:
		return "initial"
	case TriggerRetry:
		return "retry"
	case TriggerRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// ShowsLoading reports whether the trigger moves the state to Loading before fetching.
func (t Trigger) ShowsLoading() bool {
	return t != TriggerRefresh
}

// Outcome describes how a fetch attempt ended.
type Outcome string

// Fetch outcomes. Only success and failure change the state.
const (
	OutcomeSuccess    Outcome = "success"
	OutcomeFailure    Outcome = "failure"
	OutcomeCancelled  Outcome = "cancelled"
	OutcomeSuperseded Outcome = "superseded"
	OutcomeClosed     Outcome = "closed"
)

// Observer receives loader lifecycle events. Implementations must be safe
// for concurrent use and must not call back into the Loader.
type Observer interface {
	FetchStarted(loader string, trigger Trigger)
	FetchFinished(loader string, trigger Trigger, outcome Outcome, elapsed time.Duration)
	Transitioned(loader string, from, to Kind)
}

// NopObserver discards all events.
type NopObserver struct{}

// FetchStarted implements Observer.
func (NopObserver) FetchStarted(string, Trigger) {}

// FetchFinished implements Observer.
func (NopObserver) FetchFinished(string, Trigger, Outcome, time.Duration) {}

// Transitioned implements Observer.
func (NopObserver) Transitioned(string, Kind, Kind) {}

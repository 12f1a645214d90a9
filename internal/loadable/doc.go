// Package loadable models the lifecycle of an asynchronous data fetch and
// drives its transitions.
//
// A State holds exactly one of four variants: Idle, Loading, Loaded (with a
// value) or Failed (with an error). A Loader owns the slot holding the current
// State and exposes the triggers a host view needs:
//   - InitialLoad: fetch once when the view first becomes active (Idle only)
//   - Retry: fetch again, showing the loading state first
//   - Refresh: fetch again while keeping the previous content visible
//
// Transitions are serialized by the Loader. Fetch errors are converted into
// the Failed state and never returned to callers. Cancelled fetches, fetches
// that complete after the Loader is closed, and fetches superseded by a newer
// trigger leave the slot untouched.
package loadable

// Package tui provides Bubble Tea views over loadable lifecycle state.
//
// A DetailModel starts its loader's initial load when the program starts and
// renders whichever state the loader is in:
//   - Idle: a hint
//   - Loading: a spinner
//   - Loaded: the value, through a ContentRenderer
//   - Failed: the error with an inline retry ('r' key)
//
// Refresh (ctrl+r or 'R') fetches again while the current value stays on
// screen. A Dashboard stacks several panels and moves focus with tab.
package tui

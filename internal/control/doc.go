// Package control implements the operator-facing run-control state machine.
//
// A Machine tracks the run mode (Paused, Running, Stopped) and two latches:
//   - auto-submit, which can be enabled but never disabled
//   - notified, which lets at most one user-visible notification through
//     per run and is cleared only by Reset
//
// Operator actions arrive as Commands so that any control surface (the
// terminal panel, a scripted simulation) drives the same transitions.
package control

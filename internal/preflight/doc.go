// Package preflight provides readiness checks for the paths and the player
// binary shuffler depends on.
//
// These checks run in two contexts:
//   - "shuffler run" calls RunAll before startup. Failed required checks
//     abort the run; a missing player binary is only warned about, because
//     each spawn failure is already handled by skipping ahead.
//   - "shuffler status" renders every result as a table.
package preflight

// Package daemon runs the shuffler playback process.
//
// New performs every fatal startup step in order: take the state lock, load
// the state and track list, open play history, and bind the control
// surface. Run then drives the Loop until the context is cancelled, after
// which the running player is stopped and reaped and the lock is released.
//
// The Loop is strictly single-threaded. Each iteration waits a bounded time
// for one control request, dispatches it, then ticks the player supervisor
// once, so the supervisor is polled at least every poll timeout even
// without traffic.
package daemon

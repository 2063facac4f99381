// Package logging assembles structured slog loggers and formatting helpers used
// across shuffler.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, tags every record with the run's session identifier, and exposes
// attribute helpers so the control loop, supervisor, and persistence layers
// emit warnings with the same event_type/error_hint/impact shape. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
package logging

// Package history records every track the daemon attempts to play in a
// SQLite database so operators can see what played, what was skipped, and
// which spawns failed.
//
// Rows are inserted with outcome "playing" when the player is started and
// finished with a terminal outcome once the supervisor observes the exit,
// a skip, or shutdown. Rows left "playing" by a crashed run are swept to
// "interrupted" when the next daemon starts.
package history

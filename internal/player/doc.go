// Package player supervises the external process that renders audio.
//
// Supervisor is a two-state machine (Idle, Running) driven by Tick. When
// Idle, Tick pulls the next pick from its Source and launches the player;
// when Running, Tick checks without blocking whether the process exited.
// Skip terminates the running player and waits for it to be reaped. At most
// one process exists at a time and the supervisor never spawns while it
// believes one is still alive.
//
// Supervisor is not safe for concurrent use. The control loop owns it.
package player

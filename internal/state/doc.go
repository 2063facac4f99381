// Package state persists the shuffle seed and playlist cursor across restarts.
//
// The state file is a small INI document with one [general] section holding
// seed and index as bare unsigned decimals:
//
//	[general]
//	seed  = 18446744073709551615
//	index = 3
//
// A missing file means a fresh start; a present but unparsable file is fatal
// for the caller, because regenerating the seed would silently reorder the
// playlist under a listener mid-way through it.
//
// Lock guards the file against a second instance using flock.
package state

// Package logs reads the daemon's run log for the "shuffler logs" command.
//
// LastLines returns the tail of a file together with the byte offset of its
// end; Follow then polls from that offset and emits lines as they are
// appended, reopening the path each time so it keeps working when the
// shuffler.log pointer is switched to a new run.
package logs

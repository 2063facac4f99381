// Package control exposes the HTTP control surface as a pollable request
// source.
//
// HTTP handlers never touch playback state. Each inbound request is handed
// over a channel to whoever calls Receive, which dispatches it on its own
// goroutine and answers through Request.Respond. This keeps all playback
// decisions on the single control loop while net/http handles connections.
//
// render.go builds the three response bodies: the status page, the skip
// redirect, and the catch-all.
package control

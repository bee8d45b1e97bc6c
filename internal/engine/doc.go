// Package engine contains the game loop and simulation logic.
// This is the heartbeat of "ColdFront".
//
// The core is single-threaded: one goroutine calls Engine.Step with the elapsed
// real time, and every component reacts synchronously to the notifications the
// Clock and the other components publish on the session's EventLog.
package engine

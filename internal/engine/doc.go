// Package engine implements the remote generation engine boundary: the
// HTTP calls for submission, history lookup, and interrupt, and the
// socket.io subscription that carries progress events back.
//
// Everything here is transport; the job package owns the state machine
// these calls and events feed.
package engine

// Package device manages monitoring devices and their credentials.
//
// Two kinds of device exist: PORTARIA (the gate RFID reader, never bound to
// a room) and SALA (a classroom unit with an environmental sensor and
// optionally an RFID reader, bound to at most one room).
//
// Every device carries a 256-bit random token it presents on each request.
// The IdentityManager issues tokens on create and on explicit regeneration.
// Uniqueness is enforced by the database; a collision is retried with a new
// token a bounded number of times before giving up with a conflict error.
//
// Tokens are secrets: log them only through logging.TokenPrefix and never
// return them from list endpoints.
package device

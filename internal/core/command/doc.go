// Package command turns text command lines into store operations.
//
// A line is tokenized by Split, the first token selects the verb
// (case-insensitively) and the Dispatcher produces exactly one reply
// string in the minikv reply grammar:
//
//	OK | PONG | <value> | (nil) | (integer) N | (empty) | Saved N keys | (error) <message>
//
// The Dispatcher keeps no per-call state; transports may share one
// instance across every connection.
package command

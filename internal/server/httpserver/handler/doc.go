// Package handler implements the minikv HTTP endpoints.
//
// Structured endpoints (/get/{key}, /set/{key}, ...) call the store
// directly and answer in JSON. /command and /ws carry raw command lines
// through the dispatcher and answer in the text reply grammar.
package handler

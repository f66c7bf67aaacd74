// Package repl provides the interactive mode of minikv-cli.
//
// Lines are sent to the server verbatim. A few words are handled
// locally: help [prefix], history, exit and quit.
package repl

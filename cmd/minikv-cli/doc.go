// Package main provides the entry point for minikv-cli.
//
// Usage:
//
//	minikv-cli                      # interactive mode
//	minikv-cli exec SET greeting "hello world" EX 60
//	minikv-cli -o json exec TTL greeting
//	minikv-cli health
//	minikv-cli keys
//
// Exit status is 1 for an error reply or usage error, 2 for a missing
// command and 3 when the server cannot be reached.
package main

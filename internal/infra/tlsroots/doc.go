// Package tlsroots manages TLS material for the HTTP API.
//
//   - roots.go: trusted CA pools for clients (minikv-cli --ca-file)
//   - watcher.go: server key pair that reloads when the files change
package tlsroots

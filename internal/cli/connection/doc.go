// Package connection provides the clients minikv-cli talks to the
// server with:
//
//   - tcp.go: line-protocol client over the text TCP port
//   - http.go: JSON client for the HTTP API
package connection

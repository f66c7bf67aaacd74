// Package httpserver provides the minikv HTTP server.
//
// The router is built on chi. Every request passes through RealIP,
// RequestID (a ULID echoed in X-Request-ID), panic recovery, access
// logging and request metrics before reaching the handler package.
package httpserver

// Package main provides the entry point for minikv-server.
//
// The server holds an in-memory key-value store and serves it over:
//
//   - a line-oriented text protocol on TCP (default 127.0.0.1:6380)
//   - an HTTP API with WebSocket and Prometheus endpoints (default 127.0.0.1:8080)
//
// Usage:
//
//	minikv-server [flags]
//	minikv-server -config /etc/minikv/server.yaml
//	MINIKV_STORAGE_BACKEND=badger minikv-server -tcp :6380
//
// Changing log.level in the config file takes effect without a restart.
package main

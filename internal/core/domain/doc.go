// Package domain defines the core value types of minikv.
//
// It holds no IO and no locking. This package contains:
//
//   - Entry: one stored value with its optional expiration
//   - IncrResult: the outcome of an INCR attempt
//   - TTL: the three-way answer of a TTL lookup
//   - Errors: coded error values shared by the dispatcher and transports
package domain

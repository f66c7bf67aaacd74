// Package memory provides the in-memory key/value store behind minikv.
//
// Entries live in a sharded concurrent map (pkg/cmap). Every operation
// touches at most one shard lock, so unrelated keys never contend.
//
// Expiration:
//
//   - Lazy: Get removes an entry it finds logically expired.
//   - Active: StartSweeper runs a background pass that removes expired
//     entries one key at a time.
//
// Both paths re-check expiry under the shard lock before removing, so a
// concurrent Set of a fresh value is never lost.
//
// Delete and Keys see every physically resident entry, expired or not.
// Get, TTL and Snapshot only see live entries.
package memory

// Package snapshot persists store snapshots and loads them back at startup.
//
// Three Persister implementations are provided:
//
//   - FilePersister writes one JSON document, atomically replaced on each save:
//
//     {"version":1,"created_at":<ms>,"encrypted":false,
//     "entries":{"k":{"value":"v","expires_at":<ms>}}}
//
//     With a cipher the entries object is sealed and stored base64 in
//     "sealed" instead.
//
//   - BadgerPersister keeps each entry under "e/<key>" in a Badger database
//     and lets Badger's own TTL drop entries once they expire.
//
//   - NopPersister refuses to save and loads nothing.
//
// A missing snapshot is not an error: Load returns an empty map.
package snapshot

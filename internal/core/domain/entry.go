package domain

import "time"

// Entry is one stored record.
//
// Entries are values: a mutation builds a new Entry and swaps it into the
// key's slot, it never edits a stored one in place.
type Entry struct {
	Value string
	// ExpiresAt is the expiration as Unix milliseconds (UTC). Zero means the
	// entry never expires.
	ExpiresAt int64
}

// NewEntry creates an entry that expires at the given instant.
// A zero time means no expiration.
func NewEntry(value string, expiresAt time.Time) Entry {
	e := Entry{Value: value}
	if !expiresAt.IsZero() {
		e.ExpiresAt = expiresAt.UnixMilli()
	}
	return e
}

// HasExpiry reports whether the entry carries an expiration.
func (e Entry) HasExpiry() bool {
	return e.ExpiresAt != 0
}

// ExpiryTime returns the expiration instant, or the zero time if none.
func (e Entry) ExpiryTime() time.Time {
	if e.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(e.ExpiresAt).UTC()
}

// IsExpiredAt reports whether the entry is logically expired at now.
// An entry expiring exactly at now counts as expired.
func (e Entry) IsExpiredAt(now time.Time) bool {
	return e.ExpiresAt != 0 && now.UnixMilli() >= e.ExpiresAt
}

// WithExpiry returns a copy of the entry with a new expiration.
func (e Entry) WithExpiry(expiresAt time.Time) Entry {
	return NewEntry(e.Value, expiresAt)
}

// IncrResult is the outcome of an increment attempt.
// Exactly one of Value (when Err is nil) or Err is meaningful.
type IncrResult struct {
	Value int64
	Err   *DomainError
}

// IncrOK builds a successful result.
func IncrOK(v int64) IncrResult {
	return IncrResult{Value: v}
}

// IncrFailed builds a failed result.
func IncrFailed(err *DomainError) IncrResult {
	return IncrResult{Err: err}
}

// OK reports whether the increment succeeded.
func (r IncrResult) OK() bool {
	return r.Err == nil
}

// TTLKind classifies a TTL lookup.
type TTLKind int

const (
	// TTLNoSuchKey means the key is absent or logically expired.
	TTLNoSuchKey TTLKind = iota
	// TTLNoExpiry means the key is live and never expires.
	TTLNoExpiry
	// TTLRemaining means the key is live and Remaining holds the time left.
	TTLRemaining
)

// TTL is the answer to a TTL lookup.
type TTL struct {
	Kind      TTLKind
	Remaining time.Duration
}

// Seconds renders the TTL in the protocol's integer convention:
// -2 for no such key, -1 for no expiry, otherwise the remaining time
// rounded up to whole seconds.
func (t TTL) Seconds() int64 {
	switch t.Kind {
	case TTLNoSuchKey:
		return -2
	case TTLNoExpiry:
		return -1
	}
	secs := int64(t.Remaining / time.Second)
	if t.Remaining%time.Second != 0 {
		secs++
	}
	return secs
}

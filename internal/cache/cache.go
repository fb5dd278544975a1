// Package cache provides response caching for the remote gateway.
//
// Entries are keyed by a canonical request fingerprint computed by the
// gateway. Two backends are provided: an in-memory [Memory] store and a
// SQLite-backed [SQLite] store. The gateway depends only on [Store].
package cache

import (
	"context"
	"time"
)

// Store is the capability interface the gateway depends on.
//
// A corrupt or unreadable entry is reported as a miss, never as an error;
// gateway correctness must not depend on cache integrity. Writes for the
// same fingerprint resolve last-writer-wins.
type Store interface {
	// Get returns the cached payload for fingerprint, or ok=false on a miss.
	Get(ctx context.Context, fingerprint string) (payload []byte, ok bool)

	// Put stores payload under fingerprint. A ttl of zero keeps the entry
	// until explicitly invalidated.
	Put(ctx context.Context, fingerprint string, payload []byte, ttl time.Duration) error

	// Invalidate removes every entry whose fingerprint satisfies pred.
	Invalidate(ctx context.Context, pred func(fingerprint string) bool) error
}

// expired reports whether an entry stored at storedAt with the given ttl
// is past its expiry. A zero ttl never expires.
func expired(storedAt time.Time, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.After(storedAt.Add(ttl))
}

package addrcache

import (
	"context"
	"net/netip"
	"time"
)

// Adder stores unique values.
type Adder[V comparable] interface {
	// Add stores value and returns false if an equal value is already cached.
	Add(ctx context.Context, value V) (bool, error)
}

// Remover removes values.
type Remover[V comparable] interface {
	// Remove deletes value and returns true if it was cached.
	// Absent (zero) value is never cached, so false is returned for it.
	Remove(ctx context.Context, value V) bool
}

// Peeker reads most recently added value.
type Peeker[V comparable] interface {
	// Peek returns most recently added value, false is returned for empty cache.
	Peek(ctx context.Context) (V, bool)
}

// Taker removes most recently added value.
type Taker[V comparable] interface {
	// Take waits for a value and removes it from cache.
	// If ctx is done before value is available, ErrInterrupted is returned.
	Take(ctx context.Context) (V, error)
}

// AdderTaker is a LIFO cache of unique values.
type AdderTaker[V comparable] interface {
	Adder[V]
	Remover[V]
	Peeker[V]
	Taker[V]
}

// Expirable has a deadline.
type Expirable interface {
	ExpireAt() time.Time
	IsExpired() bool
}

// AddressCache is a cache of IP addresses.
type AddressCache = Cache[netip.Addr]

// NewAddressCache creates a cache of IP addresses, invalid (zero) address is rejected by Add.
func NewAddressCache(maxAge time.Duration, cfg ...Config) (*AddressCache, error) {
	return New[netip.Addr](maxAge, cfg...)
}

var (
	_ AdderTaker[netip.Addr] = &AddressCache{}
	_ Expirable              = Entry[netip.Addr]{}
)

package addrcache

import (
	"fmt"
	"time"

	"github.com/swaggest/usecase/status"
)

// Entry is an immutable cached value with its expiration deadline.
//
// Only the value takes part in uniqueness checks, deadline is ignored.
type Entry[V comparable] struct {
	value    V
	deadline time.Time
}

// NewEntry wraps value with a deadline of now + maxAge.
//
// Zero value of V is treated as absent and rejected.
func NewEntry[V comparable](value V, maxAge time.Duration) (Entry[V], error) {
	if err := checkMaxAge(maxAge); err != nil {
		return Entry[V]{}, err
	}

	if err := checkValue(value); err != nil {
		return Entry[V]{}, err
	}

	return Entry[V]{value: value, deadline: time.Now().Add(maxAge)}, nil
}

func checkValue[V comparable](value V) error {
	var zero V
	if value == zero {
		return status.Wrap(fmt.Errorf("%w: value is absent", ErrInvalidArgument), status.InvalidArgument)
	}

	return nil
}

func checkMaxAge(maxAge time.Duration) error {
	if maxAge <= 0 {
		return status.Wrap(fmt.Errorf("%w: max age must be positive, %s given", ErrInvalidArgument, maxAge),
			status.InvalidArgument)
	}

	return nil
}

// Value returns cached value.
func (e Entry[V]) Value() V {
	return e.value
}

// ExpireAt returns entry deadline.
func (e Entry[V]) ExpireAt() time.Time {
	return e.deadline
}

// IsExpired is true when deadline is reached.
func (e Entry[V]) IsExpired() bool {
	return !time.Now().Before(e.deadline)
}

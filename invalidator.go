package addrcache

import (
	"fmt"
	"sync"
	"time"
)

// Invalidator is a registry of cache flush triggers, e.g. Cache.RemoveAll.
type Invalidator struct {
	sync.Mutex

	// SkipInterval defines minimal duration between two flushes (flood protection), default 15s.
	SkipInterval time.Duration

	// Callbacks contains a list of functions to call on invalidate.
	Callbacks []func()

	lastRun time.Time
}

// Register adds flush callbacks.
func (i *Invalidator) Register(callbacks ...func()) {
	i.Lock()
	defer i.Unlock()

	i.Callbacks = append(i.Callbacks, callbacks...)
}

// LastRun returns time of last successful flush, zero if there was none.
func (i *Invalidator) LastRun() time.Time {
	i.Lock()
	defer i.Unlock()

	return i.lastRun
}

// Invalidate calls all callbacks unless previous call happened less than SkipInterval ago.
func (i *Invalidator) Invalidate() error {
	i.Lock()
	defer i.Unlock()

	if len(i.Callbacks) == 0 {
		return ErrNothingToInvalidate
	}

	skip := i.SkipInterval
	if skip == 0 {
		skip = 15 * time.Second
	}

	if !i.lastRun.IsZero() && time.Since(i.lastRun) < skip {
		return fmt.Errorf("%w at %s, %s did not pass", ErrAlreadyInvalidated, i.lastRun, skip)
	}

	for _, cb := range i.Callbacks {
		cb()
	}

	i.lastRun = time.Now()

	return nil
}

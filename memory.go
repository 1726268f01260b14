package addrcache

import (
	"container/list"
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"github.com/puzpuzpuz/xsync"
)

// Config controls cache instance.
type Config struct {
	// Logger is an instance of contextualized logger, can be nil.
	Logger ctxd.Logger

	// Stats is metrics collector, can be nil.
	Stats stats.Tracker

	// Name is cache instance name, used in stats and logging.
	Name string

	// ItemsCountReportInterval is items count metric report interval, default 1m.
	ItemsCountReportInterval time.Duration
}

// Cache keeps unique values for a limited time and serves most recently added first.
//
// Please use New to create instance.
type Cache[V comparable] struct {
	*cache[V]
}

type cache[V comparable] struct {
	mu xsync.RBMutex

	// order keeps entries by insertion, front is the oldest.
	order *list.List
	index map[V]*list.Element

	// available has capacity of 1, it is signaled when entries may be available to Take.
	available chan struct{}
	closed    chan struct{}

	maxAge  time.Duration
	expirer *expirer

	config Config
	log    ctxd.Logger
	stat   stats.Tracker
}

// New creates a cache with entries expiring after maxAge.
//
// Optional configuration can be provided with Config (only first argument is used).
func New[V comparable](maxAge time.Duration, cfg ...Config) (*Cache[V], error) {
	if err := checkMaxAge(maxAge); err != nil {
		return nil, err
	}

	config := Config{}

	if len(cfg) >= 1 {
		config = cfg[0]
	}

	if config.ItemsCountReportInterval == 0 {
		config.ItemsCountReportInterval = time.Minute
	}

	c := &cache[V]{
		order:     list.New(),
		index:     make(map[V]*list.Element),
		available: make(chan struct{}, 1),
		closed:    make(chan struct{}),
		maxAge:    maxAge,
		expirer:   defaultExpirer(),
		config:    config,
		log:       config.Logger,
		stat:      config.Stats,
	}
	C := &Cache[V]{
		cache: c,
	}

	if c.stat != nil {
		go c.reportItemsCount()
	}

	runtime.SetFinalizer(C, func(m *Cache[V]) {
		close(c.closed)
	})

	return C, nil
}

// MaxAge returns entry lifetime.
func (c *Cache[V]) MaxAge() time.Duration {
	return c.maxAge
}

// Add stores value if it is not cached yet.
//
// Existing entry keeps its deadline, false is returned in that case.
// Entry becomes subject to removal after max age.
func (c *Cache[V]) Add(ctx context.Context, value V) (bool, error) {
	if err := checkValue(value); err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, found := c.index[value]; found {
		if c.log != nil {
			c.log.Debug(ctx, "address already cached", "name", c.config.Name, "address", value)
		}

		if c.stat != nil {
			c.stat.Add(ctx, MetricDuplicate, 1, "name", c.config.Name)
		}

		return false, nil
	}

	// Deadline is taken under lock to keep deadlines ordered as entries.
	e := Entry[V]{value: value, deadline: time.Now().Add(c.maxAge)}
	c.index[value] = c.order.PushBack(e)
	c.signal()

	inner := c.cache
	sweepCtx := context.WithoutCancel(ctx)

	c.expirer.schedule(c.maxAge, func() {
		inner.sweep(sweepCtx)
	})

	if c.log != nil {
		c.log.Debug(ctx, "added address", "name", c.config.Name, "address", value, "expireAt", e.deadline)
	}

	if c.stat != nil {
		c.stat.Add(ctx, MetricAdd, 1, "name", c.config.Name)
	}

	return true, nil
}

// Remove deletes value regardless of its position and expiration.
//
// Absent (zero) value is never cached, false is returned for it.
func (c *Cache[V]) Remove(ctx context.Context, value V) bool {
	var zero V
	if value == zero {
		if c.log != nil {
			c.log.Debug(ctx, "skipped removal of absent address", "name", c.config.Name)
		}

		return false
	}

	c.mu.Lock()
	el, found := c.index[value]

	if found {
		c.removeElement(el)
	}
	c.mu.Unlock()

	if !found {
		return false
	}

	if c.log != nil {
		c.log.Debug(ctx, "removed address", "name", c.config.Name, "address", value)
	}

	if c.stat != nil {
		c.stat.Add(ctx, MetricRemove, 1, "name", c.config.Name)
	}

	return true
}

// Peek returns most recently added value without removing it.
//
// Expired value can still be returned if it was not swept yet.
func (c *Cache[V]) Peek(ctx context.Context) (V, bool) {
	t := c.mu.RLock()
	back := c.order.Back()

	var e Entry[V]
	if back != nil {
		e = back.Value.(Entry[V])
	}
	c.mu.RUnlock(t)

	return e.value, back != nil
}

// Take removes and returns most recently added value, waiting for it if cache is empty.
//
// Available value is returned even if ctx is already done.
// If ctx is done while waiting, error matching both ErrInterrupted and ctx.Err() is returned
// and cache is left intact.
func (c *Cache[V]) Take(ctx context.Context) (V, error) {
	var zero V

	for {
		c.mu.Lock()

		if back := c.order.Back(); back != nil {
			e := c.removeElement(back)

			// Passing the signal to the next waiter.
			if c.order.Len() > 0 {
				c.signal()
			}
			c.mu.Unlock()

			if c.log != nil {
				c.log.Debug(ctx, "took address", "name", c.config.Name, "address", e.value)
			}

			if c.stat != nil {
				c.stat.Add(ctx, MetricTake, 1, "name", c.config.Name)
			}

			return e.value, nil
		}

		c.mu.Unlock()

		select {
		case <-c.available:
		case <-ctx.Done():
			return zero, c.interrupted(ctx, ctx.Err())
		}
	}
}

func (c *Cache[V]) interrupted(ctx context.Context, err error) error {
	return ctxd.WrapError(ctx, fmt.Errorf("%w: %w", ErrInterrupted, err), "failed to take address",
		"name", c.config.Name)
}

// Elements returns a snapshot of entries in insertion order.
func (c *Cache[V]) Elements() []Entry[V] {
	t := c.mu.RLock()
	defer c.mu.RUnlock(t)

	res := make([]Entry[V], 0, c.order.Len())

	for el := c.order.Front(); el != nil; el = el.Next() {
		res = append(res, el.Value.(Entry[V]))
	}

	return res
}

// Walk calls function for every entry from the oldest to the newest and fails on first error
// returned by that function.
//
// Count of processed entries is returned.
func (c *Cache[V]) Walk(walkFn func(e Entry[V]) error) (int, error) {
	n := 0

	for _, e := range c.Elements() {
		if err := walkFn(e); err != nil {
			return n, err
		}

		n++
	}

	return n, nil
}

// RemoveAll deletes all entries.
func (c *Cache[V]) RemoveAll() {
	c.mu.Lock()
	c.order.Init()
	c.index = make(map[V]*list.Element)
	c.mu.Unlock()
}

// Len returns number of entries in cache.
func (c *cache[V]) Len() int {
	t := c.mu.RLock()
	cnt := c.order.Len()
	c.mu.RUnlock(t)

	return cnt
}

// signal wakes up a waiting Take, must be called with write lock held.
func (c *cache[V]) signal() {
	select {
	case c.available <- struct{}{}:
	default:
	}
}

// removeElement must be called with write lock held.
func (c *cache[V]) removeElement(el *list.Element) Entry[V] {
	e := c.order.Remove(el).(Entry[V])

	if c.index[e.value] != el {
		panic(fmt.Sprintf("addrcache: index is out of sync with order for %v", e.value))
	}

	delete(c.index, e.value)

	return e
}

// sweep removes expired entries from the oldest end and stops on first live entry.
func (c *cache[V]) sweep(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		front := c.order.Front()
		if front == nil {
			return
		}

		if !front.Value.(Entry[V]).IsExpired() {
			return
		}

		e := c.removeElement(front)

		if c.log != nil {
			c.log.Debug(ctx, "address expired",
				"name", c.config.Name,
				"address", e.value,
				"maxAge", c.maxAge)
		}

		if c.stat != nil {
			c.stat.Add(ctx, MetricExpired, 1, "name", c.config.Name)
		}
	}
}

func (c *cache[V]) reportItemsCount() {
	for {
		interval := c.config.ItemsCountReportInterval

		select {
		case <-time.After(interval):
		case <-c.closed:
			return
		}

		count := c.Len()

		if c.log != nil {
			c.log.Debug(context.Background(), "cache items count",
				"name", c.config.Name,
				"count", count,
			)
		}

		c.stat.Set(context.Background(), MetricItems, float64(count), "name", c.config.Name)
	}
}

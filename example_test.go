package addrcache_test

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"github.com/vearutop/addrcache"
)

func ExampleNewAddressCache() {
	// Create cache instance.
	c, err := addrcache.NewAddressCache(time.Minute, addrcache.Config{
		Name:   "upstreams",
		Logger: &ctxd.LoggerMock{},
		Stats:  &stats.TrackerMock{},
	})
	if err != nil {
		panic(err)
	}

	// Use context if available.
	ctx := context.TODO()

	// Add observed addresses, duplicates are ignored.
	for _, s := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.1"} {
		added, _ := c.Add(ctx, netip.MustParseAddr(s))
		fmt.Println(s, added)
	}

	// Read the freshest address.
	addr, _ := c.Peek(ctx)
	fmt.Println("peek", addr)

	// Drain the freshest address.
	addr, _ = c.Take(ctx)
	fmt.Println("take", addr, c.Len())

	// Output:
	// 10.0.0.1 true
	// 10.0.0.2 true
	// 10.0.0.1 false
	// peek 10.0.0.2
	// take 10.0.0.2 1
}

func ExampleCache_Take() {
	c, _ := addrcache.New[string](time.Minute)

	go func() {
		time.Sleep(10 * time.Millisecond)

		_, _ = c.Add(context.Background(), "backend-1:8080")
	}()

	// Waiting for value with a deadline.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	v, err := c.Take(ctx)
	fmt.Println(v, err)

	// Output:
	// backend-1:8080 <nil>
}

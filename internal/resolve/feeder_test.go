package resolve_test

import (
	"context"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/addrcache"
	"github.com/vearutop/addrcache/internal/resolve"
)

var zone = map[string][]string{
	"a.example.": {"a.example. 60 IN A 10.0.0.1", "a.example. 60 IN A 10.0.0.2", "a.example. 60 IN AAAA 2001:db8::1"},
	"b.example.": {"b.example. 60 IN A 10.0.0.2", "b.example. 60 IN A 10.0.0.3"},
}

func startServer(t *testing.T) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	srv := &dns.Server{
		PacketConn:        pc,
		NotifyStartedFunc: func() { close(started) },
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
			m := new(dns.Msg)
			m.SetReply(r)

			q := r.Question[0]

			records, found := zone[q.Name]
			if !found {
				m.Rcode = dns.RcodeNameError
			}

			for _, s := range records {
				rr, err := dns.NewRR(s)
				if err != nil {
					panic(err)
				}

				if rr.Header().Rrtype == q.Qtype {
					m.Answer = append(m.Answer, rr)
				}
			}

			_ = w.WriteMsg(m)
		}),
	}

	go func() {
		_ = srv.ActivateAndServe()
	}()

	<-started

	t.Cleanup(func() {
		_ = srv.Shutdown()
	})

	return pc.LocalAddr().String()
}

func TestFeeder_Lookup(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()

	f, err := resolve.NewFeeder(nil, resolve.Config{Server: srv, IPv6: true, Timeout: time.Second})
	require.NoError(t, err)

	addrs, err := f.Lookup(ctx, "a.example")
	require.NoError(t, err)
	assert.Equal(t, []netip.Addr{
		netip.MustParseAddr("10.0.0.1"),
		netip.MustParseAddr("10.0.0.2"),
		netip.MustParseAddr("2001:db8::1"),
	}, addrs)

	_, err = f.Lookup(ctx, "missing.example")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dns query failed")
}

func TestFeeder_Feed(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()

	c, err := addrcache.NewAddressCache(time.Minute)
	require.NoError(t, err)

	f, err := resolve.NewFeeder(c, resolve.Config{Server: srv, Timeout: time.Second})
	require.NoError(t, err)

	added, err := f.Feed(ctx, []string{"a.example", "missing.example", "b.example"})
	assert.Error(t, err)
	assert.Equal(t, 3, added) // 10.0.0.2 is shared by both hosts.

	var got []netip.Addr
	for _, e := range c.Elements() {
		got = append(got, e.Value())
	}

	assert.Equal(t, []netip.Addr{
		netip.MustParseAddr("10.0.0.1"),
		netip.MustParseAddr("10.0.0.2"),
		netip.MustParseAddr("10.0.0.3"),
	}, got)

	// Known addresses are not added again.
	added, err = f.Feed(ctx, []string{"b.example"})
	assert.NoError(t, err)
	assert.Equal(t, 0, added)

	v, ok := c.Peek(ctx)
	assert.True(t, ok)
	assert.Equal(t, netip.MustParseAddr("10.0.0.3"), v)
}

func TestFeeder_Run(t *testing.T) {
	srv := startServer(t)

	c, err := addrcache.NewAddressCache(time.Minute)
	require.NoError(t, err)

	f, err := resolve.NewFeeder(c, resolve.Config{Server: srv, Timeout: time.Second})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)

		f.Run(ctx, []string{"b.example"}, time.Hour)
	}()

	assert.Eventually(t, func() bool { return c.Len() == 2 }, time.Second, time.Millisecond)

	v, err := c.Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("10.0.0.3"), v)

	cancel()
	<-done
}

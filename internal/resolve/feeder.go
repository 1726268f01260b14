// Package resolve feeds address cache with DNS lookup results.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/bool64/ctxd"
	"github.com/miekg/dns"
	"github.com/vearutop/addrcache"
)

// ResolvConf is a default source of DNS server.
const ResolvConf = "/etc/resolv.conf"

// Config controls Feeder.
type Config struct {
	// Server is a DNS server address (host:port), first nameserver of ResolvConf is used if empty.
	Server string

	// Timeout limits a single DNS exchange, default 2s.
	Timeout time.Duration

	// IPv6 enables AAAA lookups.
	IPv6 bool

	// Logger is an instance of contextualized logger, can be nil.
	Logger ctxd.Logger
}

// Feeder resolves host names and adds found addresses to cache.
type Feeder struct {
	cache  addrcache.Adder[netip.Addr]
	client *dns.Client
	server string
	qtypes []uint16
	log    ctxd.Logger
}

// NewFeeder creates an instance of Feeder.
func NewFeeder(cache addrcache.Adder[netip.Addr], cfg Config) (*Feeder, error) {
	if cfg.Server == "" {
		cc, err := dns.ClientConfigFromFile(ResolvConf)
		if err != nil {
			return nil, fmt.Errorf("failed to read resolver config: %w", err)
		}

		if len(cc.Servers) == 0 {
			return nil, errors.New("no nameservers in " + ResolvConf)
		}

		cfg.Server = net.JoinHostPort(cc.Servers[0], cc.Port)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Second
	}

	f := &Feeder{
		cache:  cache,
		client: &dns.Client{Timeout: cfg.Timeout},
		server: cfg.Server,
		qtypes: []uint16{dns.TypeA},
		log:    cfg.Logger,
	}

	if cfg.IPv6 {
		f.qtypes = append(f.qtypes, dns.TypeAAAA)
	}

	if f.log == nil {
		f.log = ctxd.NoOpLogger{}
	}

	return f, nil
}

// Lookup returns addresses of host.
func (f *Feeder) Lookup(ctx context.Context, host string) ([]netip.Addr, error) {
	var res []netip.Addr

	for _, qt := range f.qtypes {
		m := new(dns.Msg)
		m.SetQuestion(dns.Fqdn(host), qt)
		m.RecursionDesired = true

		r, _, err := f.client.ExchangeContext(ctx, m, f.server)
		if err != nil {
			return res, ctxd.WrapError(ctx, err, "dns exchange failed",
				"host", host, "type", dns.TypeToString[qt])
		}

		if r.Rcode != dns.RcodeSuccess {
			return res, ctxd.NewError(ctx, "dns query failed",
				"host", host, "type", dns.TypeToString[qt], "rcode", dns.RcodeToString[r.Rcode])
		}

		for _, rr := range r.Answer {
			var (
				addr netip.Addr
				ok   bool
			)

			switch v := rr.(type) {
			case *dns.A:
				addr, ok = netip.AddrFromSlice(v.A)
			case *dns.AAAA:
				addr, ok = netip.AddrFromSlice(v.AAAA)
			}

			if ok {
				res = append(res, addr.Unmap())
			}
		}
	}

	return res, nil
}

// Feed resolves hosts and adds their addresses to cache.
//
// Lookup failure of a host does not prevent other hosts from being resolved,
// number of newly added addresses and joined errors are returned.
func (f *Feeder) Feed(ctx context.Context, hosts []string) (int, error) {
	var (
		added int
		errs  []error
	)

	for _, host := range hosts {
		addrs, err := f.Lookup(ctx, host)
		if err != nil {
			f.log.Warn(ctx, "failed to resolve host", "host", host, "error", err)
			errs = append(errs, err)
		}

		for _, addr := range addrs {
			ok, err := f.cache.Add(ctx, addr)
			if err != nil {
				errs = append(errs, err)

				continue
			}

			if ok {
				added++
			}
		}
	}

	f.log.Debug(ctx, "fed addresses", "hosts", len(hosts), "added", added)

	return added, errors.Join(errs...)
}

// Run feeds addresses immediately and then every interval until ctx is done.
func (f *Feeder) Run(ctx context.Context, hosts []string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		// Errors are logged by Feed.
		_, _ = f.Feed(ctx, hosts)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Package resolver keeps the pool of addresses used to reach the feed endpoint.
package resolver

import (
	"context"
	"math/rand"
	"net"
	"sync/atomic"
	"time"

	"newsflash/internal/logger"
)

const lookupTimeout = 10 * time.Second

// LookupFunc resolves a host name to addresses, matching net.Resolver.LookupHost.
type LookupFunc func(ctx context.Context, host string) ([]string, error)

// Resolver hands out one address per request attempt. The fixed fallback set keeps the pool
// non-empty whether or not resolution has ever succeeded.
type Resolver struct {
	domain   string
	fallback []string
	lookup   LookupFunc
	log      logger.Logger

	pool atomic.Pointer[[]string]
}

// New builds a resolver. When fallback is empty the domain itself becomes the only fixed entry.
func New(domain string, fallback []string, lookup LookupFunc, log logger.Logger) *Resolver {
	if lookup == nil {
		lookup = net.DefaultResolver.LookupHost
	}
	if log == nil {
		log = logger.NewNop()
	}
	fixed := dedupe(fallback)
	if len(fixed) == 0 {
		fixed = dedupe([]string{domain})
	}
	r := &Resolver{domain: domain, fallback: fixed, lookup: lookup, log: log}
	initial := append([]string(nil), fixed...)
	r.pool.Store(&initial)
	return r
}

// Refresh resolves the domain once. On failure the current pool is kept.
func (r *Resolver) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	addrs, err := r.lookup(ctx, r.domain)
	if err != nil {
		r.log.Debug("address refresh failed, keeping current pool",
			logger.String("domain", r.domain), logger.Error(err))
		return err
	}
	next := dedupe(append(append([]string(nil), addrs...), r.fallback...))
	if len(next) == 0 {
		r.log.Debug("lookup returned no addresses, keeping current pool", logger.String("domain", r.domain))
		return nil
	}
	r.pool.Store(&next)
	r.log.Debug("address pool refreshed",
		logger.String("domain", r.domain), logger.Strings("addresses", next))
	return nil
}

// RefreshAsync runs Refresh in the background and does not wait for it.
func (r *Resolver) RefreshAsync() {
	go func() { _ = r.Refresh(context.Background()) }()
}

// Pick returns a uniformly random address from the current pool, or "" when nothing was ever
// configured or resolved.
func (r *Resolver) Pick() string {
	pool := *r.pool.Load()
	if len(pool) == 0 {
		return ""
	}
	return pool[rand.Intn(len(pool))]
}

// Addresses returns a copy of the current pool.
func (r *Resolver) Addresses() []string {
	return append([]string(nil), *r.pool.Load()...)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, a := range in {
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

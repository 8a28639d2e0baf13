package keyset

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultMinFetchInterval bounds how often a key miss may trigger a fetch.
const DefaultMinFetchInterval = 5 * time.Minute

// Resolve outcomes reported to an Observer.
const (
	OutcomeHit        = "hit"
	OutcomeRefreshed  = "refreshed"
	OutcomeThrottled  = "throttled"
	OutcomeNotFound   = "not_found"
	OutcomeFetchError = "fetch_error"
	OutcomeMiss       = "miss"
)

// Observer receives fetch and resolution events. Implementations must be safe
// for concurrent use and must not block.
type Observer interface {
	ObserveFetch(keys int, took time.Duration, err error)
	ObserveResolve(outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveFetch(int, time.Duration, error) {}
func (nopObserver) ObserveResolve(string)                  {}

// Resolver maps a kid to a key record, refreshing the cache from the Fetcher
// when a miss is old enough to warrant it.
//
// Concurrent misses are not coalesced: every caller that sees an expired
// throttle window issues its own fetch.
type Resolver struct {
	cache    *Cache
	fetcher  Fetcher
	now      func() time.Time
	observer Observer
	log      *zap.Logger

	minInterval atomic.Int64
}

func NewResolver(cache *Cache, fetcher Fetcher) *Resolver {
	r := &Resolver{
		cache:    cache,
		fetcher:  fetcher,
		now:      time.Now,
		observer: nopObserver{},
		log:      zap.NewNop(),
	}
	r.minInterval.Store(int64(DefaultMinFetchInterval))
	return r
}

func (r *Resolver) SetMinInterval(d time.Duration) {
	if d < 0 {
		d = 0
	}
	r.minInterval.Store(int64(d))
}

func (r *Resolver) MinInterval() time.Duration {
	return time.Duration(r.minInterval.Load())
}

func (r *Resolver) Cache() *Cache { return r.cache }

// Resolve serves kid from the cache, or refreshes once and retries.
// A hit is served regardless of how old the cache is.
func (r *Resolver) Resolve(ctx context.Context, kid string) (*KeyRecord, error) {
	if rec, ok := r.cache.Lookup(kid); ok {
		r.observer.ObserveResolve(OutcomeHit)
		return rec, nil
	}

	// A never-fetched cache is eligible for exactly one immediate fetch.
	interval := r.MinInterval()
	elapsed := interval
	if last, ok := r.cache.LastRefresh(); ok {
		elapsed = r.now().Sub(last)
	}
	if elapsed < interval {
		r.observer.ObserveResolve(OutcomeThrottled)
		return nil, networkError(ErrThrottled.Error(), ErrThrottled)
	}

	if err := r.Refresh(ctx); err != nil {
		r.observer.ObserveResolve(OutcomeFetchError)
		return nil, err
	}

	rec, ok := r.cache.Lookup(kid)
	if !ok {
		r.observer.ObserveResolve(OutcomeNotFound)
		return nil, networkError("Failed to get key set", ErrKeyNotFound)
	}
	r.observer.ObserveResolve(OutcomeRefreshed)
	return rec, nil
}

// TryResolve is the cache-only path: no I/O, no waiting, no refresh.
func (r *Resolver) TryResolve(kid string) (*KeyRecord, error) {
	if rec, ok := r.cache.Lookup(kid); ok {
		r.observer.ObserveResolve(OutcomeHit)
		return rec, nil
	}
	r.observer.ObserveResolve(OutcomeMiss)
	last, _ := r.cache.LastRefresh()
	return nil, &Error{Kind: KindCacheMiss, LastRefresh: last}
}

// Refresh fetches the key set and commits it, ignoring the throttle.
// The fetch happens outside the cache lock; a failed or cancelled fetch
// leaves the cache untouched.
func (r *Resolver) Refresh(ctx context.Context) error {
	start := r.now()
	records, err := r.fetcher.Fetch(ctx)
	r.observer.ObserveFetch(len(records), r.now().Sub(start), err)
	if err != nil {
		return networkError(err.Error(), err)
	}

	r.cache.ReplaceAll(records, r.now())
	r.log.Debug("key set refreshed",
		zap.Int("fetched", len(records)),
		zap.Int("cached", r.cache.Len()),
	)
	return nil
}

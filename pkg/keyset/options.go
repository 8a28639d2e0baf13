package keyset

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a KeySet at construction.
type Option func(*options)

type options struct {
	client      HTTPDoer
	fetcher     Fetcher
	jwksURL     string
	minInterval time.Duration
	log         *zap.Logger
	observer    Observer
	now         func() time.Time
}

// WithHTTPClient sets the client used by the default HTTP fetcher.
func WithHTTPClient(c HTTPDoer) Option { return func(o *options) { o.client = c } }

// WithFetcher replaces the HTTP fetcher entirely.
func WithFetcher(f Fetcher) Option { return func(o *options) { o.fetcher = f } }

// WithJWKSURL overrides the endpoint derived from region and pool id.
func WithJWKSURL(url string) Option { return func(o *options) { o.jwksURL = url } }

func WithMinFetchInterval(d time.Duration) Option {
	return func(o *options) { o.minInterval = d }
}

func WithLogger(l *zap.Logger) Option { return func(o *options) { o.log = l } }

func WithObserver(ob Observer) Option { return func(o *options) { o.observer = ob } }

// WithClock sets the time source used by the refresh throttle.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

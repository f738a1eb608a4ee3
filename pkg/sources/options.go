package sources

import (
	"time"

	"github.com/agentstation/agoraflux/internal/cache"
	"github.com/agentstation/agoraflux/pkg/constants"
)

// options holds registry configuration.
type options struct {
	descriptors []Descriptor
	fetcher     Fetcher
	cache       *cache.Cache
	concurrency int
	now         func() time.Time
}

// Option configures a Registry.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		descriptors: DefaultDescriptors(),
		concurrency: constants.MaxConcurrentFetches,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithDescriptors replaces the built-in source descriptors.
func WithDescriptors(descriptors ...Descriptor) Option {
	return func(o *options) {
		o.descriptors = descriptors
	}
}

// WithFetcher sets the fetcher used to retrieve payloads.
func WithFetcher(f Fetcher) Option {
	return func(o *options) {
		o.fetcher = f
	}
}

// WithHTTPConfig builds the default HTTP fetcher from cfg.
func WithHTTPConfig(cfg HTTPConfig) Option {
	return func(o *options) {
		o.fetcher = NewHTTPFetcher(cfg)
	}
}

// WithCache enables payload caching for ttl. A zero ttl disables caching.
func WithCache(ttl time.Duration) Option {
	return func(o *options) {
		if ttl <= 0 {
			o.cache = nil
			return
		}
		o.cache = cache.New(ttl, constants.CacheCleanupInterval)
	}
}

// WithConcurrency bounds the number of parallel fetches in FetchAll.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithClock sets the clock used for retrieval timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

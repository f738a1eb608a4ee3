package sources

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/agoraflux/internal/cache"
	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/errors"
	"github.com/agentstation/agoraflux/pkg/logging"
)

// Registry is a thread-safe set of source descriptors and the means to fetch them.
type Registry struct {
	mu      sync.RWMutex
	sources map[ID]*Descriptor
	order   []ID

	fetcher     Fetcher
	cache       *cache.Cache
	concurrency int
	now         func() time.Time
}

// NewRegistry creates a registry holding the built-in sources unless
// WithDescriptors says otherwise. Invalid descriptors are logged and skipped.
func NewRegistry(opts ...Option) *Registry {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.fetcher == nil {
		o.fetcher = NewHTTPFetcher(DefaultHTTPConfig())
	}

	r := &Registry{
		sources:     make(map[ID]*Descriptor, len(o.descriptors)),
		fetcher:     o.fetcher,
		cache:       o.cache,
		concurrency: o.concurrency,
		now:         o.now,
	}
	for _, d := range o.descriptors {
		if err := r.Register(d); err != nil {
			logging.Warn().Err(err).Str("source", d.ID.String()).Msg("Skipping invalid source descriptor")
		}
	}
	return r
}

// Register adds or replaces a source descriptor.
func (r *Registry) Register(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sources[d.ID]; !exists {
		r.order = append(r.order, d.ID)
	}
	desc := d
	r.sources[d.ID] = &desc
	return nil
}

// Get returns a copy of the descriptor for id.
func (r *Registry) Get(id ID) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.sources[id]
	if !ok {
		return Descriptor{}, false
	}
	return d.copy(), true
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

// IDs returns the registered source IDs in registration order.
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ID, len(r.order))
	copy(ids, r.order)
	return ids
}

// List returns copies of every descriptor in registration order.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sources[id].copy())
	}
	return out
}

// Resolve validates a subset of source IDs. An empty subset means every
// registered source. Duplicates are removed and order is preserved.
func (r *Registry) Resolve(ids []ID) ([]ID, error) {
	if len(ids) == 0 {
		return r.IDs(), nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[ID]struct{}, len(ids))
	out := make([]ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := r.sources[id]; !ok {
			return nil, errors.NewUnknownSourceError(id.String())
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// Fetch retrieves one source. An unknown id is the only error; network and
// parse failures come back as a payload whose Error field is set.
func (r *Registry) Fetch(ctx context.Context, id ID) (*dataset.Payload, error) {
	desc, ok := r.Get(id)
	if !ok {
		return nil, errors.NewUnknownSourceError(id.String())
	}
	logger := logging.FromContext(ctx).With().Str("source", id.String()).Logger()

	if r.cache != nil {
		if p, hit := r.cache.Get(id.String()); hit {
			logger.Debug().Msg("Using cached payload")
			return p, nil
		}
	}

	logger.Info().Str("name", desc.DisplayName).Msg("Fetching source")
	payload, err := r.fetcher.Fetch(ctx, desc)
	retrievedAt := r.now()
	if err != nil {
		logger.Warn().Err(err).Msg("Source fetch failed")
		return dataset.FailedPayload(id.String(), desc.Format, retrievedAt, err), nil
	}

	payload.SourceID = id.String()
	payload.RetrievedAt = retrievedAt
	if payload.Format == "" {
		payload.Format = desc.Format
	}
	r.markFetched(id, retrievedAt)
	if r.cache != nil {
		r.cache.Set(id.String(), payload)
	}

	logger.Info().
		Int("rows", payload.TotalRows).
		Int("kept", len(payload.Records)).
		Msg("Fetched source")
	return payload, nil
}

// FetchAll retrieves the given sources concurrently, or every registered
// source when ids is empty. Unknown ids fail before anything is fetched.
// Individual failures are recorded in the returned payloads.
func (r *Registry) FetchAll(ctx context.Context, ids ...ID) (map[ID]*dataset.Payload, error) {
	resolved, err := r.Resolve(ids)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		results = make(map[ID]*dataset.Payload, len(resolved))
	)

	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for _, id := range resolved {
		g.Go(func() error {
			p, err := r.Fetch(ctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			results[id] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	failed := 0
	for _, p := range results {
		if p.Failed() {
			failed++
		}
	}
	logging.FromContext(ctx).Info().
		Int("sources", len(results)).
		Int("failed", failed).
		Msg("Fetched sources")

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (r *Registry) markFetched(id ID, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.sources[id]; ok {
		t := at
		d.LastFetchedAt = &t
	}
}

func (d *Descriptor) copy() Descriptor {
	out := *d
	if d.LastFetchedAt != nil {
		t := *d.LastFetchedAt
		out.LastFetchedAt = &t
	}
	return out
}

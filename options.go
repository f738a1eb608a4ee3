package agoraflux

import (
	"time"

	"github.com/agentstation/agoraflux/pkg/docs"
	"github.com/agentstation/agoraflux/pkg/errors"
	"github.com/agentstation/agoraflux/pkg/fixtures"
	"github.com/agentstation/agoraflux/pkg/fusion"
	"github.com/agentstation/agoraflux/pkg/metrics"
	"github.com/agentstation/agoraflux/pkg/processor"
	"github.com/agentstation/agoraflux/pkg/sources"
	"github.com/agentstation/agoraflux/pkg/storage"
)

// options holds the components a Pipeline is assembled from.
// Components left nil are created with defaults in New.
type options struct {
	registry  *sources.Registry
	processor *processor.Processor
	fusion    *fusion.Engine
	docs      *docs.Generator
	sink      storage.Sink
	fixtures  fixtures.Provider
	metrics   *metrics.Metrics
	recipe    string
	now       func() time.Time
	newID     func() string
}

// Option is a function that configures a Pipeline.
type Option func(*options) error

func defaults() *options {
	return &options{
		sink:     storage.NewMemory(),
		fixtures: fixtures.Default,
		recipe:   fusion.RecipeCivicEngagement,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithRegistry sets the source registry.
func WithRegistry(r *sources.Registry) Option {
	return func(o *options) error {
		if r == nil {
			return &errors.ValidationError{Field: "registry", Message: "cannot be nil"}
		}
		o.registry = r
		return nil
	}
}

// WithProcessor sets the data processor.
func WithProcessor(p *processor.Processor) Option {
	return func(o *options) error {
		if p == nil {
			return &errors.ValidationError{Field: "processor", Message: "cannot be nil"}
		}
		o.processor = p
		return nil
	}
}

// WithFusionEngine sets the fusion engine.
func WithFusionEngine(e *fusion.Engine) Option {
	return func(o *options) error {
		if e == nil {
			return &errors.ValidationError{Field: "fusion", Message: "cannot be nil"}
		}
		o.fusion = e
		return nil
	}
}

// WithDocsGenerator sets the documentation generator.
func WithDocsGenerator(g *docs.Generator) Option {
	return func(o *options) error {
		if g == nil {
			return &errors.ValidationError{Field: "docs", Message: "cannot be nil"}
		}
		o.docs = g
		return nil
	}
}

// WithSink sets where processed datasets are persisted. A nil sink
// disables persistence.
func WithSink(s storage.Sink) Option {
	return func(o *options) error {
		o.sink = s
		return nil
	}
}

// WithFixtures sets the provider used when live acquisition is skipped or fails.
func WithFixtures(p fixtures.Provider) Option {
	return func(o *options) error {
		if p == nil {
			return &errors.ValidationError{Field: "fixtures", Message: "cannot be nil"}
		}
		o.fixtures = p
		return nil
	}
}

// WithMetrics sets the Prometheus collectors runs are recorded to.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) error {
		o.metrics = m
		return nil
	}
}

// WithRecipe sets the fusion recipe applied on every run.
func WithRecipe(name string) Option {
	return func(o *options) error {
		if name == "" {
			return &errors.ValidationError{Field: "recipe", Message: "cannot be empty"}
		}
		o.recipe = name
		return nil
	}
}

// WithClock sets the clock used for run timestamps and for default components.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return &errors.ValidationError{Field: "clock", Message: "cannot be nil"}
		}
		o.now = now
		return nil
	}
}

// WithRunIDFunc sets the generator of run identifiers.
func WithRunIDFunc(fn func() string) Option {
	return func(o *options) error {
		if fn == nil {
			return &errors.ValidationError{Field: "run_id", Message: "cannot be nil"}
		}
		o.newID = fn
		return nil
	}
}

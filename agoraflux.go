// Package agoraflux is the entry point of the civic data pipeline.
//
// A Pipeline sequences five stages over a set of public data sources:
// acquisition, processing, fusion, documentation and persistence. Each
// stage degrades instead of aborting: a failing source is excluded, a
// failing fusion or documentation step is reported as skipped, and when
// every source fails the run continues on fixture data.
//
// Only one run may be in progress at a time. A second request is rejected
// immediately with errors.ErrAlreadyRunning.
//
// Example usage:
//
//	p, err := agoraflux.New(agoraflux.WithRecipe(fusion.RecipeCivicEngagement))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	p.OnRunCompleted(func(run agoraflux.Run) {
//	    log.Printf("run %s: %s", run.ID, run.Status)
//	})
//
//	res, err := p.RunFull(ctx, false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Run.ProcessedRecords)
//
//	// Only some sources, on fixture data
//	res, err = p.RunPartial(ctx, []sources.ID{sources.ParisBudgetID}, true)
package agoraflux

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/agoraflux/pkg/docs"
	"github.com/agentstation/agoraflux/pkg/errors"
	"github.com/agentstation/agoraflux/pkg/fixtures"
	"github.com/agentstation/agoraflux/pkg/fusion"
	"github.com/agentstation/agoraflux/pkg/metrics"
	"github.com/agentstation/agoraflux/pkg/processor"
	"github.com/agentstation/agoraflux/pkg/sources"
	"github.com/agentstation/agoraflux/pkg/storage"
)

// Pipeline runs the civic data pipeline.
type Pipeline struct {
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

	// running is the only run-level concurrency control
	running atomic.Bool

	mu      sync.RWMutex
	lastRun *Run

	hooks *hooks
}

// New creates a pipeline. Components not provided through options are
// created with their defaults; the configured recipe must exist.
func New(opts ...Option) (*Pipeline, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	if o.registry == nil {
		o.registry = sources.NewRegistry(sources.WithClock(o.now))
	}
	if o.processor == nil {
		if o.processor, err = processor.New(processor.WithClock(o.now)); err != nil {
			return nil, errors.WrapResource("create", "processor", "", err)
		}
	}
	if o.fusion == nil {
		if o.fusion, err = fusion.New(fusion.WithClock(o.now)); err != nil {
			return nil, errors.WrapResource("create", "fusion engine", "", err)
		}
	}
	if o.docs == nil {
		if o.docs, err = docs.New(docs.WithClock(o.now)); err != nil {
			return nil, errors.WrapResource("create", "docs generator", "", err)
		}
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}
	if _, ok := o.fusion.Recipe(o.recipe); !ok {
		return nil, errors.NewUnknownRecipeError(o.recipe, o.fusion.Recipes())
	}

	return &Pipeline{
		registry:  o.registry,
		processor: o.processor,
		fusion:    o.fusion,
		docs:      o.docs,
		sink:      o.sink,
		fixtures:  o.fixtures,
		metrics:   o.metrics,
		recipe:    o.recipe,
		now:       o.now,
		newID:     o.newID,
		hooks:     newHooks(),
	}, nil
}

// Registry returns the source registry.
func (p *Pipeline) Registry() *sources.Registry {
	return p.registry
}

// Recipe returns the fusion recipe applied on every run.
func (p *Pipeline) Recipe() string {
	return p.recipe
}

// SourceInfo describes a configured source in a status report.
type SourceInfo struct {
	ID              sources.ID `json:"key" yaml:"key"`
	Name            string     `json:"name" yaml:"name"`
	Description     string     `json:"description" yaml:"description"`
	UpdateFrequency string     `json:"update_frequency" yaml:"update_frequency"`
	LastFetchedAt   *time.Time `json:"last_fetched_at,omitempty" yaml:"last_fetched_at,omitempty"`
}

// Status is a snapshot of the pipeline state.
type Status struct {
	IsRunning         bool         `json:"is_running" yaml:"is_running"`
	LastRun           *Run         `json:"last_run" yaml:"last_run"`
	ConfiguredSources int          `json:"sources_configured" yaml:"sources_configured"`
	Sources           []SourceInfo `json:"source_list" yaml:"source_list"`
}

// Status reports whether a run is in progress, the most recent run and
// the configured sources.
func (p *Pipeline) Status() Status {
	descs := p.registry.List()
	infos := make([]SourceInfo, 0, len(descs))
	for _, d := range descs {
		infos = append(infos, SourceInfo{
			ID:              d.ID,
			Name:            d.DisplayName,
			Description:     d.Description,
			UpdateFrequency: d.UpdateFrequency,
			LastFetchedAt:   d.LastFetchedAt,
		})
	}
	return Status{
		IsRunning:         p.running.Load(),
		LastRun:           p.LastRun(),
		ConfiguredSources: len(descs),
		Sources:           infos,
	}
}

// LastRun returns a copy of the most recent run summary, or nil.
func (p *Pipeline) LastRun() *Run {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastRun == nil {
		return nil
	}
	return p.lastRun.clone()
}

func (p *Pipeline) setLastRun(run *Run) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastRun = run.clone()
}

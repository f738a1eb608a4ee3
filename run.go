package agoraflux

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/docs"
	"github.com/agentstation/agoraflux/pkg/errors"
	"github.com/agentstation/agoraflux/pkg/fusion"
	"github.com/agentstation/agoraflux/pkg/logging"
	"github.com/agentstation/agoraflux/pkg/outcome"
	"github.com/agentstation/agoraflux/pkg/quality"
	"github.com/agentstation/agoraflux/pkg/sources"
	"github.com/agentstation/agoraflux/pkg/storage"
)

// Stage names a step of a pipeline run.
type Stage string

// String returns the string representation of a stage.
func (s Stage) String() string {
	return string(s)
}

// Pipeline stages, in execution order.
const (
	StageAcquire  Stage = "acquire"
	StageProcess  Stage = "process"
	StageFuse     Stage = "fuse"
	StageDocument Stage = "document"
	StagePersist  Stage = "persist"
)

// RunStatus is the terminal state of a run.
type RunStatus string

// Run statuses.
const (
	RunCompleted RunStatus = "completed"
	RunError     RunStatus = "error"
)

// StageSummaries records how each stage of a run ended.
type StageSummaries struct {
	Acquire  outcome.Summary `json:"acquire" yaml:"acquire"`
	Process  outcome.Summary `json:"process" yaml:"process"`
	Fuse     outcome.Summary `json:"fuse" yaml:"fuse"`
	Document outcome.Summary `json:"document" yaml:"document"`
	Persist  outcome.Summary `json:"persist" yaml:"persist"`
}

func (s *StageSummaries) set(stage Stage, summary outcome.Summary) {
	switch stage {
	case StageAcquire:
		s.Acquire = summary
	case StageProcess:
		s.Process = summary
	case StageFuse:
		s.Fuse = summary
	case StageDocument:
		s.Document = summary
	case StagePersist:
		s.Persist = summary
	}
}

// SourceSummary reports what happened to one source during a run.
type SourceSummary struct {
	ID               sources.ID    `json:"source" yaml:"source"`
	RawRecords       int           `json:"raw_records" yaml:"raw_records"`
	ProcessedRecords int           `json:"processed_records" yaml:"processed_records"`
	QualityScore     float64       `json:"quality_score" yaml:"quality_score"`
	QualityLevel     quality.Level `json:"quality_level,omitempty" yaml:"quality_level,omitempty"`
	Error            string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// FusionSummary reports the fusion stage of a run.
type FusionSummary struct {
	Recipe            string  `json:"recipe" yaml:"recipe"`
	Records           int     `json:"records" yaml:"records"`
	RecordsMerged     int     `json:"records_merged" yaml:"records_merged"`
	ConflictsResolved int     `json:"conflicts_resolved" yaml:"conflicts_resolved"`
	Coverage          float64 `json:"fusion_coverage" yaml:"fusion_coverage"`
}

// Run summarizes one pipeline execution.
type Run struct {
	ID        string        `json:"id" yaml:"id"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Status    RunStatus     `json:"status" yaml:"status"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`

	Sources      []sources.ID          `json:"sources" yaml:"sources"`
	UsedFixtures bool                  `json:"used_fixtures" yaml:"used_fixtures"`
	FetchErrors  map[sources.ID]string `json:"fetch_errors,omitempty" yaml:"fetch_errors,omitempty"`

	DataSources      int `json:"data_sources" yaml:"data_sources"`
	RawRecords       int `json:"raw_records" yaml:"raw_records"`
	ProcessedRecords int `json:"processed_records" yaml:"processed_records"`
	PersistedRecords int `json:"persisted_records" yaml:"persisted_records"`

	QualityScores map[sources.ID]float64 `json:"quality_scores" yaml:"quality_scores"`
	Stages        StageSummaries         `json:"stages" yaml:"stages"`
	SourceResults []SourceSummary        `json:"source_results" yaml:"source_results"`
	Fusion        *FusionSummary         `json:"fusion,omitempty" yaml:"fusion,omitempty"`
	Persisted     []storage.Receipt      `json:"persisted,omitempty" yaml:"persisted,omitempty"`
}

// clone returns a copy of the run sharing no maps or slices with r.
func (r *Run) clone() *Run {
	c := *r
	c.Sources = slices.Clone(r.Sources)
	c.FetchErrors = maps.Clone(r.FetchErrors)
	c.QualityScores = maps.Clone(r.QualityScores)
	c.SourceResults = slices.Clone(r.SourceResults)
	c.Persisted = slices.Clone(r.Persisted)
	if r.Fusion != nil {
		f := *r.Fusion
		c.Fusion = &f
	}
	return &c
}

// Result is everything a run produced.
type Result struct {
	Run           *Run                              `json:"run" yaml:"run"`
	Payloads      map[sources.ID]*dataset.Payload   `json:"-" yaml:"-"`
	Processed     map[sources.ID]*dataset.Processed `json:"processed" yaml:"processed"`
	Fusion        *fusion.Result                    `json:"fusion,omitempty" yaml:"fusion,omitempty"`
	Documentation *docs.Bundle                      `json:"documentation,omitempty" yaml:"documentation,omitempty"`
}

// RunFull runs the pipeline over every registered source. With useFixtures
// the sources are not fetched and fixture records are used instead.
//
// The returned error is non-nil when another run is in progress
// (errors.ErrAlreadyRunning) or when the run ended in the error state; in
// the latter case the partial Result is returned too.
func (p *Pipeline) RunFull(ctx context.Context, useFixtures bool) (*Result, error) {
	return p.run(ctx, p.registry.IDs(), useFixtures)
}

// RunPartial runs the pipeline over an explicit subset of sources. Unknown
// ids fail before anything runs. The registry is never modified.
func (p *Pipeline) RunPartial(ctx context.Context, ids []sources.ID, useFixtures bool) (*Result, error) {
	if len(ids) == 0 {
		return nil, errors.NewValidationError("sources", ids, "at least one source is required")
	}
	return p.run(ctx, ids, useFixtures)
}

func (p *Pipeline) run(ctx context.Context, ids []sources.ID, useFixtures bool) (*Result, error) {
	resolved, err := p.registry.Resolve(ids)
	if err != nil {
		return nil, err
	}

	if !p.running.CompareAndSwap(false, true) {
		p.metrics.RecordRejected()
		logging.FromContext(ctx).Warn().Msg("Pipeline run rejected, another run is in progress")
		return nil, errors.ErrAlreadyRunning
	}
	p.metrics.SetRunning(true)
	defer func() {
		p.metrics.SetRunning(false)
		p.running.Store(false)
	}()

	return p.execute(ctx, resolved, useFixtures)
}

func (p *Pipeline) execute(ctx context.Context, ids []sources.ID, useFixtures bool) (res *Result, err error) {
	start := p.now()
	run := &Run{
		ID:            p.newID(),
		StartedAt:     start,
		Sources:       ids,
		FetchErrors:   map[sources.ID]string{},
		QualityScores: make(map[sources.ID]float64, len(ids)),
		SourceResults: make([]SourceSummary, 0, len(ids)),
	}
	res = &Result{Run: run}

	ctx = logging.WithRunID(ctx, run.ID)
	ctx = logging.WithRecipe(ctx, p.recipe)
	logger := logging.FromContext(ctx)
	logger.Info().
		Int("sources", len(ids)).
		Bool("fixtures", useFixtures).
		Msg("Pipeline run started")

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
		run.Duration = p.now().Sub(start)
		run.Status = RunCompleted
		if err != nil {
			run.Status = RunError
			run.Error = err.Error()
			logger.Error().Err(err).Dur("duration", run.Duration).Msg("Pipeline run failed")
		} else {
			logger.Info().
				Dur("duration", run.Duration).
				Int("processed_records", run.ProcessedRecords).
				Int("persisted_records", run.PersistedRecords).
				Msg("Pipeline run completed")
		}
		p.setLastRun(run)
		p.metrics.RecordRun(string(run.Status), run.Duration)
		p.hooks.runCompleted(*run.clone())
	}()

	acquired := p.acquire(ctx, run, ids, useFixtures)
	p.finishStage(run, StageAcquire, acquired.Summary())
	res.Payloads = acquired.Value()
	if err := ctx.Err(); err != nil {
		return res, errors.NewStageError(StageAcquire.String(), "", err)
	}

	processed := p.process(ctx, run, ids, res.Payloads)
	p.finishStage(run, StageProcess, processed.Summary())
	res.Processed = processed.Value()
	if res.Processed == nil {
		res.Processed = map[sources.ID]*dataset.Processed{}
	}
	if err := ctx.Err(); err != nil {
		return res, errors.NewStageError(StageProcess.String(), "", err)
	}

	fused := p.fuse(ctx, res.Processed)
	p.finishStage(run, StageFuse, fused.Summary())
	if f, ok := fused.Get(); ok {
		res.Fusion = f
		run.Fusion = &FusionSummary{
			Recipe:            p.recipe,
			Records:           len(f.Records),
			RecordsMerged:     f.RecordsMerged,
			ConflictsResolved: f.ConflictsResolved,
			Coverage:          f.Quality.Coverage,
		}
	}

	documented := p.document(ctx, res.Processed, res.Fusion)
	p.finishStage(run, StageDocument, documented.Summary())
	res.Documentation = documented.Value()
	if err := ctx.Err(); err != nil {
		return res, errors.NewStageError(StageDocument.String(), "", err)
	}

	persisted := p.persist(ctx, run, ids, res.Processed, res.Documentation)
	p.finishStage(run, StagePersist, persisted.Summary())

	return res, nil
}

func (p *Pipeline) finishStage(run *Run, stage Stage, summary outcome.Summary) {
	run.Stages.set(stage, summary)
	p.metrics.RecordStage(stage.String(), summary.Status.String())
	p.hooks.stageCompleted(stage, summary)
}

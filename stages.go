package agoraflux

import (
	"context"
	"fmt"

	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/docs"
	"github.com/agentstation/agoraflux/pkg/errors"
	"github.com/agentstation/agoraflux/pkg/fusion"
	"github.com/agentstation/agoraflux/pkg/logging"
	"github.com/agentstation/agoraflux/pkg/outcome"
	"github.com/agentstation/agoraflux/pkg/sources"
	"github.com/agentstation/agoraflux/pkg/storage"
)

type payloads = map[sources.ID]*dataset.Payload

// acquire fetches the sources, or builds fixture payloads when requested or
// when no source could be fetched.
func (p *Pipeline) acquire(ctx context.Context, run *Run, ids []sources.ID, useFixtures bool) outcome.Outcome[payloads] {
	ctx = logging.WithStage(ctx, StageAcquire.String())
	logger := logging.FromContext(ctx)

	if len(ids) == 0 {
		return outcome.Skipped[payloads]("no sources configured")
	}
	if useFixtures {
		logger.Info().Msg("Using fixture data")
		run.UsedFixtures = true
		return outcome.OK(p.fixturePayloads(ids))
	}

	fetched, err := p.registry.FetchAll(ctx, ids...)
	for _, id := range ids {
		if pl, ok := fetched[id]; ok {
			p.metrics.RecordFetch(id.String(), pl.Failed())
		}
	}
	if err != nil {
		logger.Warn().Err(err).Msg("Acquisition failed, falling back to fixture data")
		run.UsedFixtures = true
		return outcome.OK(p.fixturePayloads(ids))
	}
	if allFailed(fetched) {
		for id, pl := range fetched {
			run.FetchErrors[id] = pl.Error
		}
		logger.Warn().Msg("Every source failed, falling back to fixture data")
		run.UsedFixtures = true
		return outcome.OK(p.fixturePayloads(ids))
	}
	return outcome.OK(fetched)
}

func allFailed(fetched payloads) bool {
	for _, pl := range fetched {
		if !pl.Failed() {
			return false
		}
	}
	return true
}

func (p *Pipeline) fixturePayloads(ids []sources.ID) payloads {
	out := make(payloads, len(ids))
	at := p.now()
	for _, id := range ids {
		desc, ok := p.registry.Get(id)
		if !ok {
			continue
		}
		records := p.fixtures.Records(desc.Type())
		out[id] = &dataset.Payload{
			SourceID:    id.String(),
			RetrievedAt: at,
			Format:      desc.Format,
			Records:     records,
			TotalRows:   len(records),
		}
	}
	return out
}

// process runs every acquired payload through the processor. A failing
// source is recorded and excluded; the others go on.
func (p *Pipeline) process(ctx context.Context, run *Run, ids []sources.ID, in payloads) outcome.Outcome[map[sources.ID]*dataset.Processed] {
	ctx = logging.WithStage(ctx, StageProcess.String())
	out := make(map[sources.ID]*dataset.Processed, len(in))

	for _, id := range ids {
		pl, ok := in[id]
		if !ok {
			continue
		}
		summary := SourceSummary{ID: id, RawRecords: len(pl.Records)}
		run.RawRecords += len(pl.Records)

		if pl.Failed() {
			summary.Error = pl.Error
			run.SourceResults = append(run.SourceResults, summary)
			continue
		}

		desc, _ := p.registry.Get(id)
		processed, err := p.processOne(logging.WithSource(ctx, id.String()), pl, desc.Type())
		if err != nil {
			logging.FromContext(ctx).Warn().Err(err).Str("source", id.String()).Msg("Source excluded")
			summary.Error = err.Error()
			run.SourceResults = append(run.SourceResults, summary)
			continue
		}

		out[id] = processed
		summary.ProcessedRecords = processed.Len()
		summary.QualityScore = processed.Quality.OverallScore
		summary.QualityLevel = processed.Quality.Level()
		run.SourceResults = append(run.SourceResults, summary)
		run.DataSources++
		run.ProcessedRecords += processed.Len()
		run.QualityScores[id] = processed.Quality.OverallScore
		p.metrics.RecordProcessed(id.String(), processed.Len(), processed.Quality.OverallScore)
	}

	if len(out) == 0 {
		return outcome.Skipped[map[sources.ID]*dataset.Processed]("no source could be processed")
	}
	return outcome.OK(out)
}

func (p *Pipeline) processOne(ctx context.Context, pl *dataset.Payload, t dataset.Type) (out *dataset.Processed, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewStageError(StageProcess.String(), pl.SourceID, fmt.Errorf("panic: %v", r))
		}
	}()
	return p.processor.Process(ctx, pl, t)
}

// fuse combines the processed sources with the configured recipe. Fusion
// needs at least two sources with records; any failure skips the stage.
func (p *Pipeline) fuse(ctx context.Context, processed map[sources.ID]*dataset.Processed) (o outcome.Outcome[*fusion.Result]) {
	ctx = logging.WithStage(ctx, StageFuse.String())
	logger := logging.FromContext(ctx)

	withRecords := 0
	for _, pr := range processed {
		if pr.Len() > 0 {
			withRecords++
		}
	}
	if withRecords < 2 {
		return outcome.Skipped[*fusion.Result]("fewer than two processed sources")
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Fusion panicked")
			o = outcome.Skipped[*fusion.Result](fmt.Sprintf("fusion panic: %v", r))
		}
	}()

	res, err := p.fusion.Fuse(ctx, processed, p.recipe)
	if err != nil {
		logger.Warn().Err(err).Msg("Fusion skipped")
		return outcome.Skipped[*fusion.Result](err.Error())
	}
	if res.Empty() {
		reason := ""
		if res != nil {
			reason = res.Metadata.Note
		}
		if reason == "" {
			reason = "fusion produced no records"
		}
		return outcome.Skipped[*fusion.Result](reason)
	}
	p.metrics.SetFusionCoverage(res.Quality.Coverage)
	return outcome.OK(res)
}

// document generates the documentation bundle. It is always attempted.
func (p *Pipeline) document(ctx context.Context, processed map[sources.ID]*dataset.Processed, res *fusion.Result) (o outcome.Outcome[*docs.Bundle]) {
	ctx = logging.WithStage(ctx, StageDocument.String())
	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx).Error().Interface("panic", r).Msg("Documentation panicked")
			o = outcome.Skipped[*docs.Bundle](fmt.Sprintf("documentation panic: %v", r))
		}
	}()
	return outcome.OK(p.docs.Generate(ctx, processed, res))
}

// persist saves each processed source with its documentation to the sink.
func (p *Pipeline) persist(ctx context.Context, run *Run, ids []sources.ID, processed map[sources.ID]*dataset.Processed, bundle *docs.Bundle) outcome.Outcome[[]storage.Receipt] {
	ctx = logging.WithStage(ctx, StagePersist.String())
	logger := logging.FromContext(ctx)

	if p.sink == nil {
		return outcome.Skipped[[]storage.Receipt]("no sink configured")
	}
	if len(processed) == 0 {
		return outcome.Skipped[[]storage.Receipt]("nothing to persist")
	}

	var errs []error
	receipts := make([]storage.Receipt, 0, len(processed))
	for _, id := range ids {
		pr, ok := processed[id]
		if !ok {
			continue
		}
		var doc *docs.SourceDoc
		if bundle != nil {
			doc = bundle.Sources[id]
		}
		receipt, err := p.saveOne(ctx, storage.FromProcessed(pr, doc))
		if err != nil {
			logger.Warn().Err(err).Str("source", id.String()).Msg("Persist failed")
			errs = append(errs, errors.NewStageError(StagePersist.String(), id.String(), err))
			continue
		}
		logger.Debug().
			Str("source", id.String()).
			Str("dataset", receipt.Name).
			Bool("created", receipt.Created).
			Msg("Dataset persisted")
		receipts = append(receipts, receipt)
		run.PersistedRecords += receipt.RecordsStored
	}
	run.Persisted = receipts

	if len(errs) > 0 {
		return outcome.Failed[[]storage.Receipt](errors.Join(errs...))
	}
	return outcome.OK(receipts)
}

func (p *Pipeline) saveOne(ctx context.Context, ds storage.Dataset) (r storage.Receipt, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("sink panic: %v", rec)
		}
	}()
	return p.sink.Save(ctx, ds)
}

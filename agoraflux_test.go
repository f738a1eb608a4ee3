package agoraflux_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/agoraflux"
	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/errors"
	"github.com/agentstation/agoraflux/pkg/fixtures"
	"github.com/agentstation/agoraflux/pkg/fusion"
	"github.com/agentstation/agoraflux/pkg/outcome"
	"github.com/agentstation/agoraflux/pkg/processor"
	"github.com/agentstation/agoraflux/pkg/quality"
	"github.com/agentstation/agoraflux/pkg/sources"
	"github.com/agentstation/agoraflux/pkg/storage"
)

var fixedNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// fixtureFetcher serves fixture records as if they came from the portals.
var fixtureFetcher = sources.FetcherFunc(func(_ context.Context, d sources.Descriptor) (*dataset.Payload, error) {
	records := fixtures.Default.Records(d.Type())
	return &dataset.Payload{Format: d.Format, Records: records, TotalRows: len(records)}, nil
})

var failingFetcher = sources.FetcherFunc(func(_ context.Context, d sources.Descriptor) (*dataset.Payload, error) {
	return nil, fmt.Errorf("%s: %w", d.ID, errors.ErrSourceUnavailable)
})

func newPipeline(t *testing.T, fetcher sources.Fetcher, opts ...agoraflux.Option) *agoraflux.Pipeline {
	t.Helper()
	registry := sources.NewRegistry(sources.WithFetcher(fetcher), sources.WithClock(clock))
	base := []agoraflux.Option{
		agoraflux.WithRegistry(registry),
		agoraflux.WithClock(clock),
		agoraflux.WithRunIDFunc(func() string { return "run-1" }),
	}
	p, err := agoraflux.New(append(base, opts...)...)
	require.NoError(t, err)
	return p
}

func TestNewRejectsUnknownRecipe(t *testing.T) {
	_, err := agoraflux.New(agoraflux.WithRecipe("nope"))
	require.Error(t, err)

	var recipeErr *errors.UnknownRecipeError
	require.ErrorAs(t, err, &recipeErr)
	assert.Contains(t, recipeErr.Available, fusion.RecipeCivicEngagement)
}

func TestNewRejectsNilComponents(t *testing.T) {
	tests := []struct {
		name string
		opt  agoraflux.Option
	}{
		{"registry", agoraflux.WithRegistry(nil)},
		{"processor", agoraflux.WithProcessor(nil)},
		{"fusion", agoraflux.WithFusionEngine(nil)},
		{"docs", agoraflux.WithDocsGenerator(nil)},
		{"fixtures", agoraflux.WithFixtures(nil)},
		{"clock", agoraflux.WithClock(nil)},
		{"recipe", agoraflux.WithRecipe("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := agoraflux.New(tt.opt)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func TestRunFullWithFixtures(t *testing.T) {
	sink := storage.NewMemory()
	p := newPipeline(t, failingFetcher, agoraflux.WithSink(sink))

	res, err := p.RunFull(context.Background(), true)
	require.NoError(t, err)

	run := res.Run
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, agoraflux.RunCompleted, run.Status)
	assert.True(t, run.UsedFixtures)
	assert.Empty(t, run.FetchErrors, "fixtures requested, nothing fetched")
	assert.Equal(t, 3, run.DataSources)
	assert.Equal(t, 15, run.RawRecords)
	assert.Equal(t, 15, run.ProcessedRecords)
	assert.Equal(t, 15, run.PersistedRecords)
	assert.Len(t, run.QualityScores, 3)
	for id, score := range run.QualityScores {
		assert.GreaterOrEqual(t, score, 0.0, id)
		assert.LessOrEqual(t, score, 100.0, id)
	}

	for _, s := range []outcome.Summary{run.Stages.Acquire, run.Stages.Process, run.Stages.Fuse, run.Stages.Document, run.Stages.Persist} {
		assert.Equal(t, outcome.StatusOK, s.Status, s.Reason)
	}

	require.NotNil(t, run.Fusion)
	assert.Equal(t, fusion.RecipeCivicEngagement, run.Fusion.Recipe)
	assert.Equal(t, 5, run.Fusion.Records)
	assert.Equal(t, 8, run.Fusion.RecordsMerged)
	assert.Greater(t, run.Fusion.Coverage, 0.0)

	require.NotNil(t, res.Documentation)
	assert.Len(t, res.Documentation.Sources, 3)
	assert.NotNil(t, res.Documentation.Fusion)
	assert.Contains(t, res.Documentation.GlobalSchema.Fields, "secteur")
	assert.Contains(t, res.Documentation.GlobalSchema.Fields, "arrondissement")

	assert.Equal(t, 3, sink.Len())
	ds, ok := sink.Get("data-budget-paris-budget", "dataset-budget-paris-budget")
	require.True(t, ok)
	assert.Len(t, ds.Records, 6)
	assert.Len(t, ds.Preview, 5)
	require.NotNil(t, ds.Documentation)
	for _, r := range run.Persisted {
		assert.True(t, r.Created, r.Name)
	}

	last := p.LastRun()
	require.NotNil(t, last)
	assert.Equal(t, run.ID, last.ID)
}

func TestRunFullFetchesSources(t *testing.T) {
	p := newPipeline(t, fixtureFetcher)

	res, err := p.RunFull(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, res.Run.UsedFixtures)
	assert.Equal(t, 15, res.Run.ProcessedRecords)

	for _, d := range p.Registry().List() {
		assert.NotNil(t, d.LastFetchedAt, d.ID)
	}
}

func TestRunFallsBackToFixtures(t *testing.T) {
	p := newPipeline(t, failingFetcher)

	res, err := p.RunFull(context.Background(), false)
	require.NoError(t, err)

	run := res.Run
	assert.True(t, run.UsedFixtures)
	assert.Len(t, run.FetchErrors, 3)
	assert.Contains(t, run.FetchErrors[sources.ParisBudgetID], "source unavailable")
	assert.Equal(t, 3, run.DataSources)
	assert.Equal(t, outcome.StatusOK, run.Stages.Fuse.Status)
}

func TestRunPartial(t *testing.T) {
	p := newPipeline(t, fixtureFetcher)
	before := p.Registry().Len()

	res, err := p.RunPartial(context.Background(), []sources.ID{sources.ParisBudgetID}, false)
	require.NoError(t, err)

	run := res.Run
	assert.Equal(t, []sources.ID{sources.ParisBudgetID}, run.Sources)
	assert.Equal(t, 1, run.DataSources)
	assert.Equal(t, 6, run.ProcessedRecords)
	assert.Equal(t, outcome.StatusSkipped, run.Stages.Fuse.Status)
	assert.Equal(t, "fewer than two processed sources", run.Stages.Fuse.Reason)
	assert.Nil(t, run.Fusion)
	assert.Equal(t, outcome.StatusOK, run.Stages.Document.Status)
	assert.Nil(t, res.Documentation.Fusion)

	assert.Equal(t, before, p.Registry().Len(), "partial runs never modify the registry")

	budget, _ := p.Registry().Get(sources.ParisBudgetID)
	participation, _ := p.Registry().Get(sources.ParisParticipationID)
	assert.NotNil(t, budget.LastFetchedAt)
	assert.Nil(t, participation.LastFetchedAt)
}

func TestRunPartialValidation(t *testing.T) {
	p := newPipeline(t, fixtureFetcher)

	t.Run("empty subset", func(t *testing.T) {
		_, err := p.RunPartial(context.Background(), nil, true)
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := p.RunPartial(context.Background(), []sources.ID{sources.ParisBudgetID, "nope"}, true)
		var unknown *errors.UnknownSourceError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "nope", unknown.Source)
	})

	assert.Nil(t, p.LastRun(), "rejected requests never record a run")
	assert.False(t, p.Status().IsRunning)
}

func TestConcurrentRunRejected(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	blocking := sources.FetcherFunc(func(ctx context.Context, d sources.Descriptor) (*dataset.Payload, error) {
		once.Do(func() { close(started) })
		<-release
		return fixtureFetcher(ctx, d)
	})
	var runs atomic.Int32
	p := newPipeline(t, blocking, agoraflux.WithRunIDFunc(func() string {
		return fmt.Sprintf("run-%d", runs.Add(1))
	}))

	// Fixture runs never reach the fetcher.
	_, err := p.RunFull(context.Background(), true)
	require.NoError(t, err)
	first := p.LastRun()
	require.NotNil(t, first)
	require.Equal(t, "run-1", first.ID)

	done := make(chan error, 1)
	go func() {
		_, err := p.RunFull(context.Background(), false)
		done <- err
	}()
	<-started

	assert.True(t, p.Status().IsRunning)
	res, err := p.RunPartial(context.Background(), []sources.ID{sources.ParisBudgetID}, true)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, errors.ErrAlreadyRunning)
	assert.True(t, errors.IsAlreadyRunning(err))

	last := p.LastRun()
	require.NotNil(t, last)
	assert.Equal(t, first.ID, last.ID)
	assert.Equal(t, first.Status, last.Status)
	assert.Equal(t, first.StartedAt, last.StartedAt)
	assert.EqualValues(t, 2, runs.Load(), "a rejected request is never assigned a run")

	close(release)
	require.NoError(t, <-done)
	assert.False(t, p.Status().IsRunning)
	require.NotNil(t, p.LastRun())
	assert.Equal(t, "run-2", p.LastRun().ID)
	assert.Equal(t, agoraflux.RunCompleted, p.LastRun().Status)
}

type panickingRules struct{}

func (panickingRules) Type() dataset.Type { return dataset.TypeTransport }
func (panickingRules) Validate(dataset.Record, time.Time) (dataset.Record, bool) {
	panic("broken rules")
}
func (panickingRules) Consistency([]dataset.Record) float64 { return 0 }
func (panickingRules) Validity([]dataset.Record) float64    { return 0 }
func (panickingRules) Enrich(dataset.Record)                {}
func (panickingRules) Transformations() []string            { return nil }

func TestProcessIsolatesFailingSource(t *testing.T) {
	proc, err := processor.New(processor.WithRules(panickingRules{}), processor.WithClock(clock))
	require.NoError(t, err)
	p := newPipeline(t, fixtureFetcher, agoraflux.WithProcessor(proc))

	res, err := p.RunFull(context.Background(), false)
	require.NoError(t, err)

	run := res.Run
	assert.Equal(t, agoraflux.RunCompleted, run.Status)
	assert.Equal(t, 2, run.DataSources)
	assert.NotContains(t, res.Processed, sources.TransportNationalID)

	var transport agoraflux.SourceSummary
	for _, s := range run.SourceResults {
		if s.ID == sources.TransportNationalID {
			transport = s
		}
	}
	assert.Contains(t, transport.Error, "broken rules")
	assert.Equal(t, outcome.StatusOK, run.Stages.Fuse.Status)
}

func TestPersistFailure(t *testing.T) {
	sink := storage.SinkFunc(func(_ context.Context, ds storage.Dataset) (storage.Receipt, error) {
		if ds.DataType == dataset.TypeBudget {
			return storage.Receipt{}, errors.New("disk full")
		}
		return storage.Receipt{GroupingKey: ds.GroupingKey, Name: ds.Name, RecordsStored: len(ds.Records), Created: true}, nil
	})
	p := newPipeline(t, fixtureFetcher, agoraflux.WithSink(sink))

	res, err := p.RunFull(context.Background(), true)
	require.NoError(t, err)

	run := res.Run
	assert.Equal(t, agoraflux.RunCompleted, run.Status)
	assert.Equal(t, outcome.StatusFailed, run.Stages.Persist.Status)
	assert.Contains(t, run.Stages.Persist.Reason, "disk full")
	assert.Len(t, run.Persisted, 2)
	assert.Equal(t, 9, run.PersistedRecords)
}

func TestPersistDisabled(t *testing.T) {
	p := newPipeline(t, fixtureFetcher, agoraflux.WithSink(nil))

	res, err := p.RunFull(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, outcome.StatusSkipped, res.Run.Stages.Persist.Status)
	assert.Zero(t, res.Run.PersistedRecords)
}

func TestCanceledRun(t *testing.T) {
	p := newPipeline(t, fixtureFetcher)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := p.RunFull(ctx, false)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, agoraflux.RunError, res.Run.Status)
	assert.NotEmpty(t, res.Run.Error)

	last := p.LastRun()
	require.NotNil(t, last)
	assert.Equal(t, agoraflux.RunError, last.Status)
	assert.False(t, p.Status().IsRunning)
}

func TestHooks(t *testing.T) {
	p := newPipeline(t, fixtureFetcher)

	var (
		stages []agoraflux.Stage
		runs   []agoraflux.Run
	)
	p.OnStageCompleted(func(stage agoraflux.Stage, _ outcome.Summary) {
		stages = append(stages, stage)
	})
	p.OnRunCompleted(func(run agoraflux.Run) {
		runs = append(runs, run)
	})

	_, err := p.RunFull(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, []agoraflux.Stage{
		agoraflux.StageAcquire,
		agoraflux.StageProcess,
		agoraflux.StageFuse,
		agoraflux.StageDocument,
		agoraflux.StagePersist,
	}, stages)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
}

func TestStatus(t *testing.T) {
	p := newPipeline(t, fixtureFetcher)

	status := p.Status()
	assert.False(t, status.IsRunning)
	assert.Nil(t, status.LastRun)
	assert.Equal(t, 3, status.ConfiguredSources)
	require.Len(t, status.Sources, 3)
	assert.Equal(t, sources.ParisBudgetID, status.Sources[0].ID)
	assert.Equal(t, "Budget Paris Open Data", status.Sources[0].Name)
	assert.Equal(t, sources.FrequencyYearly, status.Sources[0].UpdateFrequency)

	_, err := p.RunFull(context.Background(), true)
	require.NoError(t, err)

	status = p.Status()
	require.NotNil(t, status.LastRun)
	assert.Equal(t, agoraflux.RunCompleted, status.LastRun.Status)
	assert.Equal(t, fixedNow, status.LastRun.StartedAt)
	for _, s := range status.LastRun.SourceResults {
		assert.Equal(t, quality.LevelFor(s.QualityScore), s.QualityLevel, s.ID)
	}
}

func TestLastRunIsIsolated(t *testing.T) {
	p := newPipeline(t, fixtureFetcher)
	p.OnRunCompleted(func(run agoraflux.Run) {
		run.QualityScores[sources.ParisBudgetID] = -1
		run.SourceResults[0].Error = "changed by hook"
	})

	res, err := p.RunFull(context.Background(), true)
	require.NoError(t, err)
	res.Run.QualityScores[sources.ParisBudgetID] = -2
	res.Run.Persisted[0].Name = "changed by caller"

	got := p.LastRun()
	require.NotNil(t, got)
	require.NotNil(t, got.Fusion)
	got.FetchErrors["x"] = "changed by reader"
	got.Sources[0] = "changed"
	got.Fusion.Records = 0

	want := p.LastRun()
	assert.Positive(t, want.QualityScores[sources.ParisBudgetID])
	assert.Empty(t, want.SourceResults[0].Error)
	assert.NotEqual(t, "changed by caller", want.Persisted[0].Name)
	assert.Empty(t, want.FetchErrors)
	assert.Equal(t, sources.ParisBudgetID, want.Sources[0])
	assert.Equal(t, 5, want.Fusion.Records)
}

package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/errors"
	"github.com/agentstation/agoraflux/pkg/quality"
	"github.com/agentstation/agoraflux/pkg/storage"
)

func processed(n int) *dataset.Processed {
	records := make([]dataset.Record, n)
	for i := range records {
		records[i] = dataset.Record{"row": i}
	}
	return &dataset.Processed{
		SourceID:        "paris_budget",
		DataType:        dataset.TypeBudget,
		ProcessedAt:     time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC),
		RawRows:         n,
		Records:         records,
		Quality:         quality.New(100, 90, 80),
		Transformations: []string{"Null value cleaning"},
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, "data-budget-paris-budget", storage.ProjectKey(dataset.TypeBudget, "paris_budget"))
	assert.Equal(t, "dataset-participation-paris-participation", storage.DatasetName(dataset.TypeParticipation, "Paris_Participation"))
}

func TestFromProcessed(t *testing.T) {
	p := processed(150)
	ds := storage.FromProcessed(p, nil)

	assert.Equal(t, "data-budget-paris-budget", ds.GroupingKey)
	assert.Equal(t, "dataset-budget-paris-budget", ds.Name)
	assert.Equal(t, "Budget data - paris_budget", ds.Title)
	assert.Equal(t, 150, ds.TotalRecords)
	assert.Len(t, ds.Records, 100)
	assert.Len(t, ds.Preview, 5)
	assert.Equal(t, p.Quality, ds.Quality)

	ds.Records[0]["row"] = "changed"
	assert.Equal(t, 0, p.Records[0]["row"], "records are copied")
}

func TestMemorySaveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := storage.NewMemory()
	ds := storage.FromProcessed(processed(3), nil)

	r, err := m.Save(ctx, ds)
	require.NoError(t, err)
	assert.True(t, r.Created)
	assert.Equal(t, 3, r.RecordsStored)

	ds.TotalRecords = 2
	ds.Records = ds.Records[:2]
	r, err = m.Save(ctx, ds)
	require.NoError(t, err)
	assert.False(t, r.Created)

	assert.Equal(t, 1, m.Len())
	got, ok := m.Get(ds.GroupingKey, ds.Name)
	require.True(t, ok)
	assert.Equal(t, 2, got.TotalRecords)
	assert.Len(t, m.List(), 1)
}

func TestMemorySaveRejectsInvalid(t *testing.T) {
	_, err := storage.NewMemory().Save(context.Background(), storage.Dataset{Name: "x"})
	assert.True(t, errors.IsValidationError(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = storage.NewMemory().Save(ctx, storage.FromProcessed(processed(1), nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSinkFunc(t *testing.T) {
	var saved []string
	sink := storage.SinkFunc(func(_ context.Context, ds storage.Dataset) (storage.Receipt, error) {
		saved = append(saved, ds.Name)
		return storage.Receipt{Name: ds.Name}, nil
	})
	_, err := sink.Save(context.Background(), storage.FromProcessed(processed(1), nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"dataset-budget-paris-budget"}, saved)
}

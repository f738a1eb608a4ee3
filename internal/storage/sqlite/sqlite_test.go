package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/errors"
	"github.com/agentstation/agoraflux/pkg/quality"
	"github.com/agentstation/agoraflux/pkg/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "agoraflux.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func budgetDataset(rows int) storage.Dataset {
	records := make([]dataset.Record, rows)
	for i := range records {
		records[i] = dataset.Record{"secteur": "Logement", "montant": float64(1000 * (i + 1))}
	}
	return storage.FromProcessed(&dataset.Processed{
		SourceID:    "paris_budget",
		DataType:    dataset.TypeBudget,
		ProcessedAt: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC),
		Records:     records,
		Quality:     quality.New(100, 80, 90),
	}, nil)
}

func TestSaveCreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	r, err := s.Save(ctx, budgetDataset(3))
	require.NoError(t, err)
	assert.True(t, r.Created)
	assert.Equal(t, 3, r.RecordsStored)

	r, err = s.Save(ctx, budgetDataset(2))
	require.NoError(t, err)
	assert.False(t, r.Created)

	projects, datasets, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, projects)
	assert.EqualValues(t, 1, datasets)

	row, err := s.Dataset(ctx, "data-budget-paris-budget", "dataset-budget-paris-budget")
	require.NoError(t, err)
	assert.Equal(t, 2, row.RowsCount)
	assert.Equal(t, StatusProcessed, row.Status)
	assert.Equal(t, 89.0, row.OverallScore)
	assert.Equal(t, "good", row.QualityLevel)

	records, err := row.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Logement", records[0]["secteur"])
}

func TestDatasetNotFound(t *testing.T) {
	_, err := openTestStore(t).Dataset(context.Background(), "data-x", "dataset-x")
	assert.True(t, errors.IsNotFound(err))
}

func TestSaveRejectsInvalid(t *testing.T) {
	_, err := openTestStore(t).Save(context.Background(), storage.Dataset{})
	assert.True(t, errors.IsValidationError(err))
}

package files_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/agoraflux/internal/storage/files"
	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/errors"
	"github.com/agentstation/agoraflux/pkg/quality"
	"github.com/agentstation/agoraflux/pkg/storage"
)

func participationDataset(districts ...string) storage.Dataset {
	records := make([]dataset.Record, 0, len(districts))
	for _, d := range districts {
		records = append(records, dataset.Record{"arrondissement": d, "nom": d + " arrondissement"})
	}
	return storage.FromProcessed(&dataset.Processed{
		SourceID:        "paris_participation",
		DataType:        dataset.TypeParticipation,
		ProcessedAt:     time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC),
		Records:         records,
		Quality:         quality.New(100, 100, 100),
		Transformations: []string{"District code validation"},
	}, nil)
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s, err := files.New(t.TempDir())
	require.NoError(t, err)

	r, err := s.Save(ctx, participationDataset("75011", "75015"))
	require.NoError(t, err)
	assert.True(t, r.Created)
	assert.FileExists(t, s.Path("data-participation-paris-participation", "dataset-participation-paris-participation"))

	r, err = s.Save(ctx, participationDataset("75011"))
	require.NoError(t, err)
	assert.False(t, r.Created)
	assert.Equal(t, 1, r.RecordsStored)

	got, err := s.Load("data-participation-paris-participation", "dataset-participation-paris-participation")
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalRecords)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "75011", got.Records[0]["arrondissement"])
	assert.Equal(t, 100.0, got.Quality.OverallScore)
	assert.Equal(t, quality.LevelExcellent, got.Quality.Level())
	assert.Equal(t, []string{"District code validation"}, got.Transformations)

	raw, err := os.ReadFile(s.Path(got.GroupingKey, got.Name))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "quality_level: excellent")
}

func TestLoadMissing(t *testing.T) {
	s, err := files.New(t.TempDir())
	require.NoError(t, err)
	_, err = s.Load("data-x", "dataset-x")
	assert.True(t, errors.IsNotFound(err))
}

func TestNewRequiresDir(t *testing.T) {
	_, err := files.New("")
	assert.True(t, errors.IsValidationError(err))
}

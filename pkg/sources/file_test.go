package sources_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/errors"
	"github.com/agentstation/agoraflux/pkg/sources"
)

func TestLoadDescriptors(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "sources.yaml")
		content := `sources:
  - key: paris_budget
    name: Budget (mirror)
    url: https://mirror.example.org/budget.csv
    format: csv
    update_frequency: yearly
  - key: lyon_budget
    name: Budget Lyon
    url: https://data.example.org/lyon.json
    format: json
    data_type: budget
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		loaded, err := sources.LoadDescriptors(path)
		require.NoError(t, err)
		require.Len(t, loaded, 2)
		assert.Equal(t, dataset.TypeBudget, loaded[1].DataType)

		merged := sources.MergeDescriptors(sources.DefaultDescriptors(), loaded)
		require.Len(t, merged, 4)
		assert.Equal(t, "https://mirror.example.org/budget.csv", merged[0].Endpoint)
		assert.Equal(t, sources.ID("lyon_budget"), merged[3].ID)
	})

	t.Run("invalid descriptor", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("sources:\n  - key: x\n    format: csv\n"), 0o644))
		_, err := sources.LoadDescriptors(path)
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := sources.LoadDescriptors(filepath.Join(dir, "nope.yaml"))
		var ioErr *errors.IOError
		assert.ErrorAs(t, err, &ioErr)
	})
}

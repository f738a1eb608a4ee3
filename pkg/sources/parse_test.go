package sources_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/sources"
)

func TestParseCSV(t *testing.T) {
	t.Run("semicolon delimited with BOM", func(t *testing.T) {
		data := "\xEF\xBB\xBFsecteur;montant;pourcentage\nÉducation;1 240 000 000;31,2\nCulture;250000000;6,3\n"
		records, total, err := sources.ParseCSV([]byte(data), 100)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, records, 2)
		assert.Equal(t, dataset.Record{"secteur": "Éducation", "montant": "1 240 000 000", "pourcentage": "31,2"}, records[0])
	})

	t.Run("comma delimited with short rows", func(t *testing.T) {
		data := "arrondissement,participants,nom\n75011,634\n"
		records, total, err := sources.ParseCSV([]byte(data), 100)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, "", records[0]["nom"])
		assert.Equal(t, "634", records[0]["participants"])
	})

	t.Run("row cap keeps counting", func(t *testing.T) {
		var b strings.Builder
		b.WriteString("id,value\n")
		for i := range 250 {
			fmt.Fprintf(&b, "%d,%d\n", i, i*2)
		}
		records, total, err := sources.ParseCSV([]byte(b.String()), 100)
		require.NoError(t, err)
		assert.Len(t, records, 100)
		assert.Equal(t, 250, total)
	})

	t.Run("empty document", func(t *testing.T) {
		records, total, err := sources.ParseCSV([]byte("  \n"), 100)
		require.NoError(t, err)
		assert.Empty(t, records)
		assert.Zero(t, total)
	})
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		records int
		total   int
	}{
		{name: "array of objects", input: `[{"a":1},{"a":2}]`, records: 2, total: 2},
		{name: "wrapped results", input: `{"total_count":3,"results":[{"a":1},{"a":2},{"a":3}]}`, records: 3, total: 3},
		{name: "wrapped data", input: `{"data":[{"a":1}]}`, records: 1, total: 1},
		{name: "single object", input: `{"lines":328,"stops":12500}`, records: 1, total: 1},
		{name: "array of scalars", input: `[1,2,3]`, records: 3, total: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, total, err := sources.ParseJSON([]byte(tt.input), 100)
			require.NoError(t, err)
			assert.Len(t, records, tt.records)
			assert.Equal(t, tt.total, total)
		})
	}

	t.Run("row cap", func(t *testing.T) {
		records, total, err := sources.ParseJSON([]byte(`[{"a":1},{"a":2},{"a":3}]`), 2)
		require.NoError(t, err)
		assert.Len(t, records, 2)
		assert.Equal(t, 3, total)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, _, err := sources.ParseJSON([]byte(`{"a":`), 100)
		require.Error(t, err)
	})
}

func TestParseAPI(t *testing.T) {
	records, total, err := sources.ParseAPI([]byte("plain text body"), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "plain text body", records[0]["raw_content"])

	records, _, err = sources.ParseAPI([]byte(`[{"a":1}]`), 100)
	require.NoError(t, err)
	assert.Equal(t, 1.0, records[0]["a"])
}

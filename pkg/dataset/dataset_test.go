package dataset_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/agoraflux/pkg/dataset"
)

func TestTypeForSource(t *testing.T) {
	tests := map[string]dataset.Type{
		"paris_budget":        dataset.TypeBudget,
		"paris_participation": dataset.TypeParticipation,
		"transport_national":  dataset.TypeTransport,
		"air_quality":         dataset.TypeGeneral,
		"LYON_BUDGET":         dataset.TypeBudget,
	}
	for key, want := range tests {
		assert.Equal(t, want, dataset.TypeForSource(key), key)
	}
}

func TestParseType(t *testing.T) {
	assert.Equal(t, dataset.TypeBudget, dataset.ParseType(" Budget "))
	assert.Equal(t, dataset.TypeGeneral, dataset.ParseType("weather"))
	assert.True(t, dataset.TypeTransport.IsValid())
	assert.False(t, dataset.Type("weather").IsValid())
}

func TestRecordHelpers(t *testing.T) {
	r := dataset.Record{"b": 2, "a": "x", "empty": "", "nil": nil}

	assert.Equal(t, []string{"a", "b", "empty", "nil"}, r.Keys())
	assert.True(t, r.Has("a"))
	assert.False(t, r.Has("empty"))
	assert.False(t, r.Has("nil"))
	assert.False(t, r.Has("missing"))
	assert.Equal(t, "2", r.String("b"))

	c := r.Clone()
	c["a"] = "y"
	assert.Equal(t, "x", r["a"])
}

func TestToFloat(t *testing.T) {
	f, ok := dataset.ToFloat(" 12.5 ")
	assert.True(t, ok)
	assert.Equal(t, 12.5, f)

	f, ok = dataset.ToFloat(7)
	assert.True(t, ok)
	assert.Equal(t, 7.0, f)

	_, ok = dataset.ToFloat("abc")
	assert.False(t, ok)
	_, ok = dataset.ToFloat(true)
	assert.False(t, ok)
}

func TestFields(t *testing.T) {
	got := dataset.Fields([]dataset.Record{{"b": 1}, {"a": 1, "b": 2}})
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestPayloadFailed(t *testing.T) {
	var nilPayload *dataset.Payload
	assert.True(t, nilPayload.Failed())

	p := dataset.FailedPayload("paris_budget", dataset.FormatCSV, time.Now(), errors.New("timeout"))
	assert.True(t, p.Failed())
	assert.Equal(t, "timeout", p.Error)
	assert.Empty(t, p.Records)

	ok := &dataset.Payload{SourceID: "paris_budget"}
	assert.False(t, ok.Failed())
}

func TestProcessedSample(t *testing.T) {
	p := &dataset.Processed{Records: []dataset.Record{{"a": 1}, {"a": 2}, {"a": 3}}}
	assert.Len(t, p.Sample(2), 2)
	assert.Len(t, p.Sample(10), 3)
	assert.Equal(t, 3, p.Len())

	var nilProcessed *dataset.Processed
	assert.Equal(t, 0, nilProcessed.Len())
}

package processor

import (
	"time"

	"github.com/agentstation/agoraflux/pkg/dataset"
)

// Rules holds the validation, scoring and enrichment logic of one data type.
type Rules interface {
	// Type returns the data type these rules apply to
	Type() dataset.Type

	// Validate returns the normalized record, or false to reject it
	Validate(rec dataset.Record, now time.Time) (dataset.Record, bool)

	// Consistency scores cross-field coherence of validated records, in [0, 100]
	Consistency(records []dataset.Record) float64

	// Validity scores the share of validated records within expected ranges, in [0, 100]
	Validity(records []dataset.Record) float64

	// Enrich adds type-specific derived fields
	Enrich(rec dataset.Record)

	// Transformations lists the type-specific transformations applied
	Transformations() []string
}

// CommonTransformations are applied to every data type.
var CommonTransformations = []string{
	"Null value cleaning",
	"String normalization",
	"Data type validation",
	"Quality metrics calculation",
}

// DefaultRules returns the built-in rules for every data type.
func DefaultRules() []Rules {
	return []Rules{
		budgetRules{},
		participationRules{},
		passthroughRules{typ: dataset.TypeTransport},
		passthroughRules{typ: dataset.TypeGeneral},
	}
}

// passthroughRules accepts every cleaned record unchanged.
type passthroughRules struct {
	typ dataset.Type
}

func (r passthroughRules) Type() dataset.Type { return r.typ }

func (passthroughRules) Validate(rec dataset.Record, _ time.Time) (dataset.Record, bool) {
	return rec, true
}

func (passthroughRules) Consistency(records []dataset.Record) float64 {
	if len(records) == 0 {
		return 0
	}
	return 90
}

func (passthroughRules) Validity(records []dataset.Record) float64 {
	if len(records) == 0 {
		return 0
	}
	return 100
}

func (passthroughRules) Enrich(dataset.Record) {}

func (passthroughRules) Transformations() []string { return nil }

// share returns the percentage of records satisfying ok.
func share(records []dataset.Record, ok func(dataset.Record) bool) float64 {
	if len(records) == 0 {
		return 0
	}
	n := 0
	for _, r := range records {
		if ok(r) {
			n++
		}
	}
	return float64(n) / float64(len(records)) * 100
}

// num reads a numeric field, treating anything unparseable as 0.
func num(r dataset.Record, field string) float64 {
	return ParseNumeric(r[field])
}

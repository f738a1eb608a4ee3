// Package processor cleans, validates, scores and enriches raw source payloads.
//
// Every payload goes through the same four steps in order: clean, validate
// (with the Rules of its data type), score and transform. Rejected records
// are dropped silently; the loss shows up in the quality metrics.
package processor

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/errors"
	"github.com/agentstation/agoraflux/pkg/logging"
	"github.com/agentstation/agoraflux/pkg/quality"
)

// Processor turns raw payloads into processed datasets.
type Processor struct {
	rules map[dataset.Type]Rules
	now   func() time.Time
}

// New creates a processor with the built-in rules.
func New(opts ...Option) (*Processor, error) {
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	p := &Processor{
		rules: make(map[dataset.Type]Rules, len(o.rules)),
		now:   o.now,
	}
	for _, r := range o.rules {
		p.rules[r.Type()] = r
	}
	return p, nil
}

// Types returns the data types the processor has rules for.
func (p *Processor) Types() []dataset.Type {
	types := make([]dataset.Type, 0, len(p.rules))
	for t := range p.rules {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Process runs a payload through clean, validate, score and transform.
func (p *Processor) Process(ctx context.Context, payload *dataset.Payload, dataType dataset.Type) (*dataset.Processed, error) {
	if payload == nil {
		return nil, &errors.ValidationError{Field: "payload", Message: "cannot be nil"}
	}
	if payload.Failed() {
		return nil, errors.NewStageError("process", payload.SourceID, errors.New(payload.Error))
	}
	rules, ok := p.rules[dataType]
	if !ok {
		return nil, errors.NewValidationError("data_type", dataType, "no rules registered")
	}

	logger := logging.FromContext(ctx).With().
		Str("source", payload.SourceID).
		Str("data_type", dataType.String()).
		Logger()
	now := p.now()

	cleaned := Clean(payload.Records)

	validated := make([]dataset.Record, 0, len(cleaned))
	for _, rec := range cleaned {
		if v, ok := rules.Validate(rec, now); ok {
			validated = append(validated, v)
		}
	}

	metrics := p.score(rules, validated)

	stamp := now.Format(time.RFC3339)
	for _, rec := range validated {
		rec["data_type"] = dataType.String()
		rec["processed_at"] = stamp
		rec["quality_checked"] = true
		rules.Enrich(rec)
	}

	transformations := append(slices.Clone(CommonTransformations), rules.Transformations()...)

	logger.Info().
		Int("raw_rows", len(payload.Records)).
		Int("processed_rows", len(validated)).
		Float64("score", metrics.OverallScore).
		Str("quality", metrics.Level().String()).
		Msg("Processed source")

	return &dataset.Processed{
		SourceID:        payload.SourceID,
		DataType:        dataType,
		ProcessedAt:     now,
		RawRows:         len(payload.Records),
		Records:         validated,
		Quality:         metrics,
		Transformations: transformations,
	}, nil
}

func (p *Processor) score(rules Rules, records []dataset.Record) quality.Metrics {
	if len(records) == 0 {
		return quality.Empty()
	}
	return quality.New(Completeness(records), rules.Consistency(records), rules.Validity(records))
}

// Clean trims string values, drops nil and empty values and drops records
// left without any field.
func Clean(records []dataset.Record) []dataset.Record {
	cleaned := make([]dataset.Record, 0, len(records))
	for _, rec := range records {
		out := make(dataset.Record, len(rec))
		for k, v := range rec {
			if s, ok := v.(string); ok {
				v = strings.TrimSpace(s)
			}
			if dataset.IsEmpty(v) {
				continue
			}
			out[k] = v
		}
		if len(out) > 0 {
			cleaned = append(cleaned, out)
		}
	}
	return cleaned
}

// Completeness is the percentage of non-empty cells across records.
func Completeness(records []dataset.Record) float64 {
	total, filled := 0, 0
	for _, rec := range records {
		for _, v := range rec {
			total++
			if !dataset.IsEmpty(v) {
				filled++
			}
		}
	}
	return quality.Percent(filled, total)
}

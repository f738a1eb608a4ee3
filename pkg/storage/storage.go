// Package storage defines where processed datasets are persisted at the end
// of a pipeline run. Sinks are idempotent on (GroupingKey, Name): saving the
// same source twice updates one stored dataset.
package storage

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/agentstation/agoraflux/pkg/constants"
	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/docs"
	"github.com/agentstation/agoraflux/pkg/errors"
	"github.com/agentstation/agoraflux/pkg/quality"
)

// Sink persists datasets.
type Sink interface {
	Save(ctx context.Context, ds Dataset) (Receipt, error)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, ds Dataset) (Receipt, error)

// Save calls f.
func (f SinkFunc) Save(ctx context.Context, ds Dataset) (Receipt, error) {
	return f(ctx, ds)
}

// Dataset is what a run persists for one processed source.
type Dataset struct {
	// GroupingKey identifies the project the dataset belongs to
	GroupingKey     string           `json:"grouping_key" yaml:"grouping_key"`
	Name            string           `json:"name" yaml:"name"`
	Title           string           `json:"title" yaml:"title"`
	SourceID        string           `json:"source" yaml:"source"`
	DataType        dataset.Type     `json:"data_type" yaml:"data_type"`
	TotalRecords    int              `json:"total_records" yaml:"total_records"`
	Records         []dataset.Record `json:"records" yaml:"records"`
	Preview         []dataset.Record `json:"sample_data" yaml:"sample_data"`
	Quality         quality.Metrics  `json:"quality_metrics" yaml:"quality_metrics"`
	Transformations []string         `json:"transformations" yaml:"transformations"`
	Documentation   *docs.SourceDoc  `json:"documentation,omitempty" yaml:"documentation,omitempty"`
	ProcessedAt     time.Time        `json:"last_processed" yaml:"last_processed"`
}

// Validate checks the identity fields.
func (d Dataset) Validate() error {
	if d.GroupingKey == "" {
		return errors.NewValidationError("grouping_key", d.GroupingKey, "cannot be empty")
	}
	if d.Name == "" {
		return errors.NewValidationError("name", d.Name, "cannot be empty")
	}
	return nil
}

// Key returns the identity of the dataset within a sink.
func (d Dataset) Key() string {
	return d.GroupingKey + "/" + d.Name
}

// Receipt reports what a sink did with a dataset.
type Receipt struct {
	GroupingKey   string `json:"grouping_key" yaml:"grouping_key"`
	Name          string `json:"name" yaml:"name"`
	RecordsStored int    `json:"records_stored" yaml:"records_stored"`
	Created       bool   `json:"created" yaml:"created"`
}

// ProjectKey returns the grouping key for a source, e.g. data-budget-paris-budget.
func ProjectKey(t dataset.Type, sourceID string) string {
	return slug("data", t.String(), sourceID)
}

// DatasetName returns the dataset name for a source, e.g. dataset-budget-paris-budget.
func DatasetName(t dataset.Type, sourceID string) string {
	return slug("dataset", t.String(), sourceID)
}

func slug(parts ...string) string {
	return strings.ReplaceAll(strings.ToLower(strings.Join(parts, "-")), "_", "-")
}

// FromProcessed builds the dataset persisted for a processed source. At most
// 100 records are kept, and 5 as a preview.
func FromProcessed(p *dataset.Processed, doc *docs.SourceDoc) Dataset {
	return Dataset{
		GroupingKey:     ProjectKey(p.DataType, p.SourceID),
		Name:            DatasetName(p.DataType, p.SourceID),
		Title:           fmt.Sprintf("%s data - %s", docs.DisplayName(p.DataType.String()), p.SourceID),
		SourceID:        p.SourceID,
		DataType:        p.DataType,
		TotalRecords:    p.Len(),
		Records:         cloneRecords(p.Sample(constants.PersistSampleSize)),
		Preview:         cloneRecords(p.Sample(constants.PreviewSize)),
		Quality:         p.Quality,
		Transformations: slices.Clone(p.Transformations),
		Documentation:   doc,
		ProcessedAt:     p.ProcessedAt,
	}
}

func cloneRecords(records []dataset.Record) []dataset.Record {
	out := make([]dataset.Record, 0, len(records))
	for _, r := range records {
		out = append(out, r.Clone())
	}
	return out
}

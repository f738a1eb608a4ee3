package fusion

import (
	"time"

	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/sources"
)

// Notes attached to results that carry no records.
const (
	NoteNoValidSources = "no valid sources for fusion"
	NoteNotSupported   = "strategy not yet supported"
)

// Quality measures how well sources were combined, each in percent.
type Quality struct {
	// Coverage is fused records over input records; it can exceed 100 when
	// a primary source is expanded
	Coverage        float64 `json:"fusion_coverage" yaml:"fusion_coverage"`
	Completeness    float64 `json:"data_completeness" yaml:"data_completeness"`
	SourceDiversity float64 `json:"source_diversity" yaml:"source_diversity"`
}

// Metadata describes one fusion invocation.
type Metadata struct {
	Recipe             string                `json:"recipe,omitempty" yaml:"recipe,omitempty"`
	Strategy           Strategy              `json:"fusion_strategy,omitempty" yaml:"fusion_strategy,omitempty"`
	PrimarySource      sources.ID            `json:"primary_source,omitempty" yaml:"primary_source,omitempty"`
	SecondarySources   []sources.ID          `json:"secondary_sources,omitempty" yaml:"secondary_sources,omitempty"`
	SourcesUsed        []sources.ID          `json:"sources_used" yaml:"sources_used"`
	TotalSources       int                   `json:"total_sources" yaml:"total_sources"`
	RecordsBefore      int                   `json:"records_before_fusion" yaml:"records_before_fusion"`
	RecordsAfter       int                   `json:"records_after_fusion" yaml:"records_after_fusion"`
	Timestamp          time.Time             `json:"fusion_timestamp" yaml:"fusion_timestamp"`
	ConflictsResolved  int                   `json:"conflicts_resolved" yaml:"conflicts_resolved"`
	JoinKeys           map[sources.ID]string `json:"join_keys_used,omitempty" yaml:"join_keys_used,omitempty"`
	ConflictResolution string                `json:"conflict_resolution,omitempty" yaml:"conflict_resolution,omitempty"`
	Note               string                `json:"note,omitempty" yaml:"note,omitempty"`
}

// Result is the outcome of one fusion invocation.
type Result struct {
	Records           []dataset.Record        `json:"fused_data" yaml:"fused_data"`
	Metadata          Metadata                `json:"fusion_metadata" yaml:"fusion_metadata"`
	Quality           Quality                 `json:"quality_metrics" yaml:"quality_metrics"`
	SourceMapping     map[string][]sources.ID `json:"source_mapping" yaml:"source_mapping"`
	ConflictsResolved int                     `json:"conflicts_resolved" yaml:"conflicts_resolved"`
	RecordsMerged     int                     `json:"records_merged" yaml:"records_merged"`
}

// Empty reports whether the result carries no fused records.
func (r *Result) Empty() bool {
	return r == nil || len(r.Records) == 0
}

// emptyResult is returned when fusion cannot proceed.
func emptyResult(note string, at time.Time) *Result {
	return &Result{
		Records: []dataset.Record{},
		Metadata: Metadata{
			SourcesUsed: []sources.ID{},
			Timestamp:   at,
			Note:        note,
		},
		SourceMapping: map[string][]sources.ID{},
	}
}

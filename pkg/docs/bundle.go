package docs

import (
	"time"

	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/fusion"
	"github.com/agentstation/agoraflux/pkg/quality"
	"github.com/agentstation/agoraflux/pkg/sources"
)

// GeneratorVersion is stamped on every bundle.
const GeneratorVersion = "1.0.0"

// TransformationChain is the fixed order records move through.
const TransformationChain = "acquisition → processing → fusion → output"

// Bundle is the documentation produced for one pipeline run.
type Bundle struct {
	Metadata              Metadata                  `json:"generation_metadata" yaml:"generation_metadata"`
	Sources               map[sources.ID]*SourceDoc `json:"source_documentation" yaml:"source_documentation"`
	Fusion                *FusionDoc                `json:"fusion_documentation,omitempty" yaml:"fusion_documentation,omitempty"`
	GlobalSchema          GlobalSchema              `json:"global_schema" yaml:"global_schema"`
	TransformationSummary TransformationSummary     `json:"transformation_summary" yaml:"transformation_summary"`
}

// Metadata describes a bundle.
type Metadata struct {
	GeneratedAt    time.Time `json:"generated_at" yaml:"generated_at"`
	Version        string    `json:"generator_version" yaml:"generator_version"`
	TotalSources   int       `json:"total_sources" yaml:"total_sources"`
	IncludesFusion bool      `json:"includes_fusion" yaml:"includes_fusion"`
}

// SourceMetadata identifies a documented source.
type SourceMetadata struct {
	Name         string       `json:"source_name" yaml:"source_name"`
	RecordsCount int          `json:"records_count" yaml:"records_count"`
	RawRows      int          `json:"raw_rows" yaml:"raw_rows"`
	ProcessedAt  time.Time    `json:"processed_at" yaml:"processed_at"`
	DataType     dataset.Type `json:"data_type" yaml:"data_type"`
}

// Schema describes the fields of one source.
type Schema struct {
	Fields         []FieldAnalysis `json:"fields" yaml:"fields"`
	TotalFields    int             `json:"total_fields" yaml:"total_fields"`
	KeyFields      []string        `json:"key_fields" yaml:"key_fields"`
	NullableFields []string        `json:"nullable_fields" yaml:"nullable_fields"`
}

// SourceDoc is the documentation of one processed source.
type SourceDoc struct {
	Metadata        SourceMetadata      `json:"source_metadata" yaml:"source_metadata"`
	Schema          Schema              `json:"data_schema" yaml:"data_schema"`
	Quality         quality.Metrics     `json:"quality_assessment" yaml:"quality_assessment"`
	Transformations TransformationDoc   `json:"transformations" yaml:"transformations"`
	SampleData      []dataset.Record    `json:"sample_data" yaml:"sample_data"`
	Fields          map[string]FieldDoc `json:"field_documentation" yaml:"field_documentation"`
}

// DataFlow counts records going into and out of fusion.
type DataFlow struct {
	InputRecords  int     `json:"input_records" yaml:"input_records"`
	OutputRecords int     `json:"output_records" yaml:"output_records"`
	MergeRatio    float64 `json:"merge_ratio" yaml:"merge_ratio"`
}

// Lineage traces fused fields back to their sources.
type Lineage struct {
	Strategy         fusion.Strategy         `json:"fusion_strategy" yaml:"fusion_strategy"`
	PrimarySource    sources.ID              `json:"primary_source" yaml:"primary_source"`
	SecondarySources []sources.ID            `json:"secondary_sources" yaml:"secondary_sources"`
	FieldOrigins     map[string][]sources.ID `json:"field_origins" yaml:"field_origins"`
	Chain            string                  `json:"transformation_chain" yaml:"transformation_chain"`
	DataFlow         DataFlow                `json:"data_flow" yaml:"data_flow"`
}

// Rules documents how fusion combined records.
type Rules struct {
	Strategy           fusion.Strategy       `json:"fusion_strategy" yaml:"fusion_strategy"`
	JoinKeys           map[sources.ID]string `json:"join_keys" yaml:"join_keys"`
	ConflictResolution string                `json:"conflict_resolution" yaml:"conflict_resolution"`
	MergeCriteria      string                `json:"merge_criteria" yaml:"merge_criteria"`
	PostFusionCheck    string                `json:"data_validation" yaml:"data_validation"`
}

// FusionDoc is the documentation of a fusion result.
type FusionDoc struct {
	Metadata          fusion.Metadata         `json:"fusion_metadata" yaml:"fusion_metadata"`
	Strategy          fusion.Strategy         `json:"fusion_strategy" yaml:"fusion_strategy"`
	SourcesInvolved   []sources.ID            `json:"sources_involved" yaml:"sources_involved"`
	RecordsMerged     int                     `json:"records_merged" yaml:"records_merged"`
	ConflictsResolved int                     `json:"conflicts_resolved" yaml:"conflicts_resolved"`
	Quality           fusion.Quality          `json:"fusion_quality" yaml:"fusion_quality"`
	FieldMapping      map[string][]sources.ID `json:"source_field_mapping" yaml:"source_field_mapping"`
	Schema            []FieldAnalysis         `json:"fusion_schema" yaml:"fusion_schema"`
	Lineage           Lineage                 `json:"lineage_tracking" yaml:"lineage_tracking"`
	Rules             Rules                   `json:"fusion_rules" yaml:"fusion_rules"`
}

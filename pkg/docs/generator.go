// Package docs generates structured documentation for processed and fused
// datasets: inferred field types, key fields, validation rules,
// transformation lineage and a global schema. Bundles render as Markdown.
package docs

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/agentstation/agoraflux/pkg/constants"
	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/errors"
	"github.com/agentstation/agoraflux/pkg/fusion"
	"github.com/agentstation/agoraflux/pkg/logging"
	"github.com/agentstation/agoraflux/pkg/quality"
	"github.com/agentstation/agoraflux/pkg/sources"
)

// Generator builds documentation bundles. It holds no per-run state.
type Generator struct {
	descriptions map[string]string
	now          func() time.Time
}

type options struct {
	descriptions map[string]string
	now          func() time.Time
}

// Option configures a Generator.
type Option func(*options) error

// WithClock sets the clock used for the generation timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return &errors.ValidationError{Field: "clock", Message: "cannot be nil"}
		}
		o.now = now
		return nil
	}
}

// WithDescriptions adds curated field descriptions, overriding built-in ones.
func WithDescriptions(descriptions map[string]string) Option {
	return func(o *options) error {
		maps.Copy(o.descriptions, descriptions)
		return nil
	}
}

// New creates a documentation generator.
func New(opts ...Option) (*Generator, error) {
	o := &options{
		descriptions: maps.Clone(knownFields),
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return &Generator{descriptions: o.descriptions, now: o.now}, nil
}

// Generate documents every processed source and, when res is not nil, the
// fusion result. The output depends only on its inputs and the clock.
func (g *Generator) Generate(ctx context.Context, processed map[sources.ID]*dataset.Processed, res *fusion.Result) *Bundle {
	logger := logging.FromContext(ctx)
	ids := slices.Sorted(maps.Keys(processed))

	bundle := &Bundle{
		Metadata: Metadata{
			GeneratedAt:    g.now(),
			Version:        GeneratorVersion,
			TotalSources:   len(processed),
			IncludesFusion: res != nil,
		},
		Sources: make(map[sources.ID]*SourceDoc, len(processed)),
	}

	var all []string
	for _, id := range ids {
		p := processed[id]
		if p == nil {
			continue
		}
		logger.Debug().Str("source", id.String()).Msg("Documenting source")
		bundle.Sources[id] = g.sourceDoc(id, p)
		all = append(all, p.Transformations...)
	}

	if res != nil {
		logger.Debug().Str("recipe", res.Metadata.Recipe).Msg("Documenting fusion")
		bundle.Fusion = g.fusionDoc(res)
	}

	bundle.GlobalSchema = g.globalSchema(processed, ids, res)
	bundle.TransformationSummary = summarize(all, res != nil)

	logger.Info().
		Int("sources", len(bundle.Sources)).
		Int("fields", bundle.GlobalSchema.TotalUniqueFields).
		Bool("fusion", res != nil).
		Msg("Documentation generated")
	return bundle
}

func (g *Generator) sourceDoc(id sources.ID, p *dataset.Processed) *SourceDoc {
	analysis := g.analyzeFields(p.Records)
	samples := make([]dataset.Record, 0, constants.SampleRecordCount)
	for _, rec := range p.Sample(constants.SampleRecordCount) {
		samples = append(samples, rec.Clone())
	}

	return &SourceDoc{
		Metadata: SourceMetadata{
			Name:         id.String(),
			RecordsCount: p.Len(),
			RawRows:      p.RawRows,
			ProcessedAt:  p.ProcessedAt,
			DataType:     p.DataType,
		},
		Schema: Schema{
			Fields:         analysis,
			TotalFields:    len(analysis),
			KeyFields:      keyFields(analysis),
			NullableFields: nullableFields(analysis),
		},
		Quality:         p.Quality,
		Transformations: documentTransformations(p.Transformations),
		SampleData:      samples,
		Fields:          fieldDocs(analysis, id.String()),
	}
}

func (g *Generator) fusionDoc(res *fusion.Result) *FusionDoc {
	md := res.Metadata

	input := md.RecordsBefore
	if input == 0 {
		input = 1
	}
	criteria := "none"
	if md.Strategy.Supported() {
		criteria = "district_code"
	}

	return &FusionDoc{
		Metadata:          md,
		Strategy:          md.Strategy,
		SourcesInvolved:   md.SourcesUsed,
		RecordsMerged:     res.RecordsMerged,
		ConflictsResolved: res.ConflictsResolved,
		Quality:           res.Quality,
		FieldMapping:      res.SourceMapping,
		Schema:            g.analyzeFields(res.Records),
		Lineage: Lineage{
			Strategy:         md.Strategy,
			PrimarySource:    md.PrimarySource,
			SecondarySources: md.SecondarySources,
			FieldOrigins:     res.SourceMapping,
			Chain:            TransformationChain,
			DataFlow: DataFlow{
				InputRecords:  md.RecordsBefore,
				OutputRecords: res.RecordsMerged,
				MergeRatio:    quality.Round(float64(res.RecordsMerged)/float64(input), 2),
			},
		},
		Rules: Rules{
			Strategy:           md.Strategy,
			JoinKeys:           md.JoinKeys,
			ConflictResolution: md.ConflictResolution,
			MergeCriteria:      criteria,
			PostFusionCheck:    "post_fusion_quality_check",
		},
	}
}

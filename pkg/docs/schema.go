package docs

import (
	"maps"
	"slices"

	"github.com/agentstation/agoraflux/pkg/constants"
	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/fusion"
	"github.com/agentstation/agoraflux/pkg/sources"
)

// FusionOrigin marks schema fields that only exist in fused records.
const FusionOrigin = "fusion"

// SchemaField is one field of the global schema.
type SchemaField struct {
	Sources     []string  `json:"sources" yaml:"sources"`
	Type        FieldType `json:"type" yaml:"type"`
	Description string    `json:"description" yaml:"description"`
}

// GlobalSchema is the union of fields across sources and fusion output.
type GlobalSchema struct {
	Fields            map[string]SchemaField `json:"unified_schema" yaml:"unified_schema"`
	TotalUniqueFields int                    `json:"total_unique_fields" yaml:"total_unique_fields"`
	CrossSource       []string               `json:"cross_source_fields" yaml:"cross_source_fields"`
	FusionSpecific    []string               `json:"fusion_specific_fields" yaml:"fusion_specific_fields"`
}

// globalSchema probes the first records of each source, in sorted source
// order, then the first fused records for fields no source has. A field's
// type comes from the first value seen.
func (g *Generator) globalSchema(processed map[sources.ID]*dataset.Processed, ids []sources.ID, res *fusion.Result) GlobalSchema {
	fields := make(map[string]SchemaField)

	for _, id := range ids {
		records := processed[id].Sample(constants.SchemaProbeRecords)
		for _, rec := range records {
			for _, name := range rec.Keys() {
				f, ok := fields[name]
				if !ok {
					typ := inferOne(rec[name])
					f = SchemaField{Type: typ, Description: g.describe(name, typ)}
				}
				if !slices.Contains(f.Sources, id.String()) {
					f.Sources = append(f.Sources, id.String())
				}
				fields[name] = f
			}
		}
	}

	if res != nil {
		probe := res.Records
		if len(probe) > constants.SchemaProbeRecords {
			probe = probe[:constants.SchemaProbeRecords]
		}
		for _, rec := range probe {
			for _, name := range rec.Keys() {
				if _, ok := fields[name]; ok {
					continue
				}
				fields[name] = SchemaField{
					Sources:     []string{FusionOrigin},
					Type:        inferOne(rec[name]),
					Description: "Field produced by fusion: " + name,
				}
			}
		}
	}

	schema := GlobalSchema{
		Fields:            fields,
		TotalUniqueFields: len(fields),
		CrossSource:       []string{},
		FusionSpecific:    []string{},
	}
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		f := fields[name]
		if len(f.Sources) > 1 {
			schema.CrossSource = append(schema.CrossSource, name)
		}
		if slices.Contains(f.Sources, FusionOrigin) {
			schema.FusionSpecific = append(schema.FusionSpecific, name)
		}
	}
	return schema
}

func inferOne(v any) FieldType {
	if dataset.IsEmpty(v) {
		return TypeUnknown
	}
	return InferType([]any{v})
}

package docs

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/agoraflux/pkg/constants"
	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/quality"
)

// FieldAnalysis holds the statistics of one field across a record set.
type FieldAnalysis struct {
	Name           string    `json:"field_name" yaml:"field_name"`
	Type           FieldType `json:"inferred_type" yaml:"inferred_type"`
	TotalValues    int       `json:"total_values" yaml:"total_values"`
	NonNullValues  int       `json:"non_null_values" yaml:"non_null_values"`
	NullPercentage float64   `json:"null_percentage" yaml:"null_percentage"`
	UniqueCount    int       `json:"unique_values_count" yaml:"unique_values_count"`
	SampleValues   []string  `json:"sample_values" yaml:"sample_values"`
	IsKey          bool      `json:"is_key_field" yaml:"is_key_field"`
	Description    string    `json:"description" yaml:"description"`
}

// FieldQuality is the per-field completeness and uniqueness, in percent.
type FieldQuality struct {
	Completeness float64 `json:"completeness" yaml:"completeness"`
	Uniqueness   float64 `json:"uniqueness" yaml:"uniqueness"`
}

// FieldDoc is the human-facing documentation of one field.
type FieldDoc struct {
	TechnicalName   string       `json:"technical_name" yaml:"technical_name"`
	DisplayName     string       `json:"display_name" yaml:"display_name"`
	Description     string       `json:"description" yaml:"description"`
	DataType        FieldType    `json:"data_type" yaml:"data_type"`
	Required        bool         `json:"required" yaml:"required"`
	ValidationRules []string     `json:"validation_rules" yaml:"validation_rules"`
	SampleValues    []string     `json:"sample_values" yaml:"sample_values"`
	DataQuality     FieldQuality `json:"data_quality" yaml:"data_quality"`
	SourceSystem    string       `json:"source_system" yaml:"source_system"`
}

// knownFields describes the domain fields the pipeline knows about.
var knownFields = map[string]string{
	"arrondissement": "Paris district postal code (75XXX)",
	"participants":   "Number of citizens who took part in consultations",
	"projets_actifs": "Number of citizen projects in progress in the district",
	"satisfaction":   "Citizen satisfaction score (0-5)",
	"commentaires":   "Number of comments posted by citizens",
	"secteur":        "Budget sector (education, transport, health...)",
	"montant":        "Allocated budget amount in euros",
	"pourcentage":    "Share of the total budget in percent",
	"annee":          "Reference budget year",
	"nom":            "Name or descriptive label",
	"description":    "Detailed description of the item",
	"date":           "Date of the event or measurement",
	"created_at":     "Record creation date",
	"updated_at":     "Record last modification date",
}

var titleCaser = cases.Title(language.English)

// analyzeFields computes statistics for every field in records, sorted by name.
func (g *Generator) analyzeFields(records []dataset.Record) []FieldAnalysis {
	if len(records) == 0 {
		return []FieldAnalysis{}
	}

	fields := dataset.Fields(records)
	out := make([]FieldAnalysis, 0, len(fields))
	for _, name := range fields {
		var nonNull []any
		for _, rec := range records {
			if v := rec[name]; !dataset.IsEmpty(v) {
				nonNull = append(nonNull, v)
			}
		}

		distinct := make(map[string]struct{}, len(nonNull))
		var samples []string
		for _, v := range nonNull {
			s := dataset.ToString(v)
			if _, seen := distinct[s]; !seen && len(samples) < constants.SampleValueCount {
				samples = append(samples, s)
			}
			distinct[s] = struct{}{}
		}
		if samples == nil {
			samples = []string{}
		}

		typ := InferType(nonNull)
		total := len(records)
		out = append(out, FieldAnalysis{
			Name:           name,
			Type:           typ,
			TotalValues:    total,
			NonNullValues:  len(nonNull),
			NullPercentage: quality.Round(quality.Percent(total-len(nonNull), total), 2),
			UniqueCount:    len(distinct),
			SampleValues:   samples,
			IsKey:          IsKeyField(name, len(distinct), total),
			Description:    g.describe(name, typ),
		})
	}
	return out
}

// describe returns the curated description of a field, or a sentence
// built from its type.
func (g *Generator) describe(name string, typ FieldType) string {
	if d, ok := g.descriptions[name]; ok {
		return d
	}
	switch typ {
	case TypeNumeric:
		return fmt.Sprintf("Numeric value representing %s", name)
	case TypeText:
		return fmt.Sprintf("Text information about %s", name)
	case TypeDate:
		return fmt.Sprintf("Date related to %s", name)
	case TypeBoolean:
		return fmt.Sprintf("True/false flag for %s", name)
	default:
		return fmt.Sprintf("Field %s of type %s", name, typ)
	}
}

// fieldDocs builds documentation entries keyed by field name.
func fieldDocs(analysis []FieldAnalysis, source string) map[string]FieldDoc {
	out := make(map[string]FieldDoc, len(analysis))
	for _, f := range analysis {
		out[f.Name] = FieldDoc{
			TechnicalName:   f.Name,
			DisplayName:     DisplayName(f.Name),
			Description:     f.Description,
			DataType:        f.Type,
			Required:        f.NullPercentage < constants.RequiredNullThreshold,
			ValidationRules: ValidationRules(f),
			SampleValues:    f.SampleValues,
			DataQuality: FieldQuality{
				Completeness: quality.Round(100-f.NullPercentage, 2),
				Uniqueness:   quality.Round(quality.Percent(f.UniqueCount, f.TotalValues), 2),
			},
			SourceSystem: source,
		}
	}
	return out
}

// DisplayName turns a technical field name into a title-cased label.
func DisplayName(name string) string {
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}

// Validation rule labels.
const (
	RuleEmail         = "Valid email address"
	RulePhone         = "Valid French phone number"
	RuleDistrict      = "Valid Paris postal code (75001-75020)"
	RuleAmount        = "Positive amount in euros"
	RulePercentage    = "Value between 0 and 100"
	RuleNumeric       = "Numeric value"
	RuleDate          = "ISO date (YYYY-MM-DD)"
	RuleRequired      = "Required field"
	RuleNoSpecificity = "No specific validation"
)

// ValidationRules infers rules from a field's name, type and null rate.
func ValidationRules(f FieldAnalysis) []string {
	var rules []string
	name := strings.ToLower(f.Name)
	switch {
	case strings.Contains(name, "email"):
		rules = append(rules, RuleEmail)
	case strings.Contains(name, "phone"), strings.Contains(name, "telephone"):
		rules = append(rules, RulePhone)
	case strings.Contains(name, "arrondissement"):
		rules = append(rules, RuleDistrict)
	case strings.Contains(name, "montant"), strings.Contains(name, "budget"):
		rules = append(rules, RuleAmount)
	case strings.Contains(name, "pourcentage"):
		rules = append(rules, RulePercentage)
	}

	switch f.Type {
	case TypeNumeric:
		rules = append(rules, RuleNumeric)
	case TypeDate:
		rules = append(rules, RuleDate)
	}

	if f.NullPercentage < constants.RequiredNullThreshold {
		rules = append(rules, RuleRequired)
	}
	if len(rules) == 0 {
		return []string{RuleNoSpecificity}
	}
	return rules
}

// keyFields returns the names of fields flagged as keys.
func keyFields(analysis []FieldAnalysis) []string {
	out := []string{}
	for _, f := range analysis {
		if f.IsKey {
			out = append(out, f.Name)
		}
	}
	return out
}

// nullableFields returns the names of fields with at least one missing value.
func nullableFields(analysis []FieldAnalysis) []string {
	out := []string{}
	for _, f := range analysis {
		if f.NullPercentage > 0 {
			out = append(out, f.Name)
		}
	}
	return out
}

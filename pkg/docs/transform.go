package docs

import (
	"maps"
	"slices"
	"strings"
)

// Category groups transformations by what they do.
type Category string

// Transformation categories.
const (
	CategoryCleaning      Category = "cleaning"
	CategoryValidation    Category = "validation"
	CategoryFormatting    Category = "formatting"
	CategoryCalculation   Category = "calculation"
	CategoryNormalization Category = "normalization"
	CategoryOther         Category = "other"
)

// categoryKeywords is checked in order; the first match wins.
var categoryKeywords = []struct {
	category Category
	words    []string
}{
	{CategoryCleaning, []string{"clean", "removal", "drop"}},
	{CategoryValidation, []string{"validation", "verification", "check"}},
	{CategoryFormatting, []string{"format", "currency"}},
	{CategoryCalculation, []string{"calculation", "rate", "score"}},
	{CategoryNormalization, []string{"normaliz", "standard"}},
}

var transformationDescriptions = map[string]string{
	"Null value cleaning":            "Removes or handles missing values in the dataset",
	"String normalization":           "Standardizes text values (trimming, whitespace)",
	"Data type validation":           "Checks and converts values to their expected types",
	"Quality metrics calculation":    "Scores completeness, consistency and validity",
	"Budget amount validation":       "Checks that budget amounts are positive and plausible",
	"Currency formatting":            "Renders amounts in a standard currency notation",
	"Percentage consistency check":   "Checks that sector percentages sum to 100",
	"District code validation":       "Checks that district codes are Paris postal codes",
	"Participation rate calculation": "Computes participation relative to the reference population",
	"Satisfaction range validation":  "Checks that satisfaction scores lie between 0 and 5",
}

// CategoryOf classifies a transformation label.
func CategoryOf(transformation string) Category {
	lower := strings.ToLower(transformation)
	for _, ck := range categoryKeywords {
		for _, w := range ck.words {
			if strings.Contains(lower, w) {
				return ck.category
			}
		}
	}
	return CategoryOther
}

// DescribeTransformation returns a sentence describing a transformation label.
func DescribeTransformation(transformation string) string {
	if d, ok := transformationDescriptions[transformation]; ok {
		return d
	}
	return "Transformation: " + transformation
}

// TransformationDetail documents one applied transformation.
type TransformationDetail struct {
	Transformation string   `json:"transformation" yaml:"transformation"`
	Category       Category `json:"category" yaml:"category"`
	Description    string   `json:"description" yaml:"description"`
}

// TransformationDoc documents the transformations applied to one source.
type TransformationDoc struct {
	Applied    []string               `json:"transformations_applied" yaml:"transformations_applied"`
	Total      int                    `json:"total_transformations" yaml:"total_transformations"`
	Categories map[Category]int       `json:"transformation_categories" yaml:"transformation_categories"`
	Details    []TransformationDetail `json:"transformation_details" yaml:"transformation_details"`
}

func documentTransformations(applied []string) TransformationDoc {
	doc := TransformationDoc{
		Applied: slices.Clone(applied),
		Total:   len(applied),
		Categories: map[Category]int{
			CategoryCleaning:      0,
			CategoryValidation:    0,
			CategoryFormatting:    0,
			CategoryCalculation:   0,
			CategoryNormalization: 0,
		},
		Details: make([]TransformationDetail, 0, len(applied)),
	}
	if doc.Applied == nil {
		doc.Applied = []string{}
	}
	for _, t := range applied {
		c := CategoryOf(t)
		if _, tracked := doc.Categories[c]; tracked {
			doc.Categories[c]++
		}
		doc.Details = append(doc.Details, TransformationDetail{
			Transformation: t,
			Category:       c,
			Description:    DescribeTransformation(t),
		})
	}
	return doc
}

// TransformationSummary aggregates transformations across every source.
type TransformationSummary struct {
	Total         int            `json:"total_transformations" yaml:"total_transformations"`
	Unique        []string       `json:"unique_transformations" yaml:"unique_transformations"`
	Frequency     map[string]int `json:"transformation_frequency" yaml:"transformation_frequency"`
	MostCommon    string         `json:"most_common_transformation,omitempty" yaml:"most_common_transformation,omitempty"`
	FusionApplied bool           `json:"fusion_applied" yaml:"fusion_applied"`
}

// summarize counts transformations. Ties for the most common one go to the
// alphabetically first label.
func summarize(all []string, fusionApplied bool) TransformationSummary {
	freq := make(map[string]int)
	for _, t := range all {
		freq[t]++
	}
	unique := slices.Sorted(maps.Keys(freq))

	most, best := "", 0
	for _, t := range unique {
		if freq[t] > best {
			most, best = t, freq[t]
		}
	}
	return TransformationSummary{
		Total:         len(all),
		Unique:        unique,
		Frequency:     freq,
		MostCommon:    most,
		FusionApplied: fusionApplied,
	}
}

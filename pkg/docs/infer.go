package docs

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/agentstation/agoraflux/pkg/constants"
	"github.com/agentstation/agoraflux/pkg/dataset"
)

// FieldType is an inferred field type.
type FieldType string

// String returns the string representation of a field type.
func (t FieldType) String() string {
	return string(t)
}

// Inferred field types.
const (
	TypeNumeric FieldType = "numeric"
	TypeDate    FieldType = "date"
	TypeBoolean FieldType = "boolean"
	TypeText    FieldType = "text"
	TypeUnknown FieldType = "unknown"
)

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`),
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}`),
}

var booleanTokens = map[string]struct{}{
	"true": {}, "false": {}, "yes": {}, "no": {}, "1": {}, "0": {},
}

var keyIndicators = []string{"id", "code", "key", "identifier", "uuid"}

// InferType classifies non-null values. Each value is tested as numeric,
// then date, then boolean; a type wins when it matches at least 80% of
// the sample. Everything else is text, and an empty sample is unknown.
func InferType(values []any) FieldType {
	sample := values
	if len(sample) > constants.TypeInferenceSampleSize {
		sample = sample[:constants.TypeInferenceSampleSize]
	}
	if len(sample) == 0 {
		return TypeUnknown
	}

	var numeric, date, boolean int
	for _, v := range sample {
		s := strings.TrimSpace(dataset.ToString(v))
		switch {
		case isNumeric(v, s):
			numeric++
		case isDate(s):
			date++
		case isBoolean(s):
			boolean++
		}
	}

	n := float64(len(sample))
	switch {
	case float64(numeric)/n >= constants.TypeInferenceThreshold:
		return TypeNumeric
	case float64(date)/n >= constants.TypeInferenceThreshold:
		return TypeDate
	case float64(boolean)/n >= constants.TypeInferenceThreshold:
		return TypeBoolean
	default:
		return TypeText
	}
}

func isNumeric(v any, s string) bool {
	if _, ok := v.(bool); ok {
		return false
	}
	if _, ok := dataset.ToFloat(v); ok {
		return true
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isDate(s string) bool {
	for _, re := range datePatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func isBoolean(s string) bool {
	_, ok := booleanTokens[strings.ToLower(s)]
	return ok
}

// IsKeyField reports whether a field looks like a key, by name or by a
// uniqueness ratio above 0.95.
func IsKeyField(name string, unique, total int) bool {
	lower := strings.ToLower(name)
	for _, ind := range keyIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	if total == 0 {
		return false
	}
	return float64(unique)/float64(total) > constants.KeyUniquenessThreshold
}

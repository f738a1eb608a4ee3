package processor

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/agentstation/agoraflux/pkg/dataset"
)

// ParseNumeric converts a loosely formatted number to float64. Currency
// symbols and whitespace (non-breaking spaces included) are removed. When
// both ',' and '.' appear the last one is the decimal separator; a single
// ',' is a decimal separator; repeated separators are thousands separators.
// Anything unparseable yields 0.
func ParseNumeric(v any) float64 {
	if f, ok := numericValue(v); ok {
		return f
	}
	s, ok := v.(string)
	if !ok {
		return 0
	}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\u00a0' || r == '\u202f' || r == '€' || r == '$' {
			return -1
		}
		return r
	}, s)
	if cleaned == "" {
		return 0
	}

	commas := strings.Count(cleaned, ",")
	dots := strings.Count(cleaned, ".")
	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case commas == 1:
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case commas > 1:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case dots > 1:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func numericValue(v any) (float64, bool) {
	if _, isString := v.(string); isString {
		return 0, false
	}
	return dataset.ToFloat(v)
}

// FormatCurrency renders a euro amount with a k€, M€ or Md€ suffix.
func FormatCurrency(amount float64) string {
	switch {
	case amount >= 1e9:
		return fmt.Sprintf("%.1f Md€", amount/1e9)
	case amount >= 1e6:
		return fmt.Sprintf("%.1f M€", amount/1e6)
	case amount >= 1e3:
		return fmt.Sprintf("%.1f k€", amount/1e3)
	default:
		return fmt.Sprintf("%.0f €", amount)
	}
}

// Package quality defines dataset quality metrics and the derived quality level.
package quality

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/agentstation/agoraflux/pkg/constants"
)

// Level is the qualitative rating of a dataset.
type Level string

// Quality levels, from best to worst.
const (
	LevelExcellent  Level = "excellent"
	LevelGood       Level = "good"
	LevelAcceptable Level = "acceptable"
	LevelPoor       Level = "poor"
)

// String returns the string representation of a level.
func (l Level) String() string {
	return string(l)
}

// LevelFor maps an overall score to its level.
func LevelFor(score float64) Level {
	switch {
	case score >= constants.ExcellentThreshold:
		return LevelExcellent
	case score >= constants.GoodThreshold:
		return LevelGood
	case score >= constants.AcceptableThreshold:
		return LevelAcceptable
	default:
		return LevelPoor
	}
}

// Score weights for the overall score.
const (
	CompletenessWeight = 0.3
	ConsistencyWeight  = 0.4
	ValidityWeight     = 0.3
)

// Metrics holds the quality scores of a dataset, each in [0, 100].
// The level is not stored; it is always derived from OverallScore.
type Metrics struct {
	Completeness float64  `json:"completeness" yaml:"completeness"`
	Consistency  float64  `json:"consistency" yaml:"consistency"`
	Validity     float64  `json:"validity" yaml:"validity"`
	OverallScore float64  `json:"overall_score" yaml:"overall_score"`
	Issues       []string `json:"issues" yaml:"issues"`
}

// IssueNoRecords is the only issue reported for a dataset without records.
const IssueNoRecords = "no valid records"

// New builds metrics from the three component scores. Scores are clamped to
// [0, 100], the overall score is computed with the standard weights, every
// value is rounded to one decimal and threshold issues are attached.
func New(completeness, consistency, validity float64) Metrics {
	c := Round(Clamp(completeness), 1)
	co := Round(Clamp(consistency), 1)
	v := Round(Clamp(validity), 1)

	m := Metrics{
		Completeness: c,
		Consistency:  co,
		Validity:     v,
		OverallScore: Round(c*CompletenessWeight+co*ConsistencyWeight+v*ValidityWeight, 1),
		Issues:       []string{},
	}

	if c < constants.CompletenessIssueThreshold {
		m.Issues = append(m.Issues, fmt.Sprintf("low completeness: %.1f%%", c))
	}
	if co < constants.ConsistencyIssueThreshold {
		m.Issues = append(m.Issues, fmt.Sprintf("low consistency: %.1f%%", co))
	}
	if v < constants.ValidityIssueThreshold {
		m.Issues = append(m.Issues, fmt.Sprintf("low validity: %.1f%%", v))
	}
	return m
}

// Empty returns the metrics of a dataset without any valid record.
func Empty() Metrics {
	return Metrics{Issues: []string{IssueNoRecords}}
}

// Level returns the level derived from the overall score.
func (m Metrics) Level() Level {
	return LevelFor(m.OverallScore)
}

// metricsView is the serialized form of Metrics, level included.
type metricsView struct {
	Completeness float64  `json:"completeness" yaml:"completeness"`
	Consistency  float64  `json:"consistency" yaml:"consistency"`
	Validity     float64  `json:"validity" yaml:"validity"`
	OverallScore float64  `json:"overall_score" yaml:"overall_score"`
	Level        Level    `json:"quality_level" yaml:"quality_level"`
	Issues       []string `json:"issues" yaml:"issues"`
}

func (m Metrics) view() metricsView {
	issues := m.Issues
	if issues == nil {
		issues = []string{}
	}
	return metricsView{
		Completeness: m.Completeness,
		Consistency:  m.Consistency,
		Validity:     m.Validity,
		OverallScore: m.OverallScore,
		Level:        m.Level(),
		Issues:       issues,
	}
}

// MarshalJSON includes the derived level.
func (m Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.view())
}

// UnmarshalJSON ignores any serialized level; it is recomputed on read.
func (m *Metrics) UnmarshalJSON(data []byte) error {
	var v metricsView
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Metrics{
		Completeness: v.Completeness,
		Consistency:  v.Consistency,
		Validity:     v.Validity,
		OverallScore: v.OverallScore,
		Issues:       v.Issues,
	}
	return nil
}

// MarshalYAML includes the derived level.
func (m Metrics) MarshalYAML() (any, error) {
	return m.view(), nil
}

// Clamp bounds a score to [0, 100].
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// Percent returns part/total*100, or 0 when total is zero.
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

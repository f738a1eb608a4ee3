// Package table converts pipeline values into rows for tabular CLI output.
package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/agoraflux"
	"github.com/agentstation/agoraflux/pkg/docs"
	"github.com/agentstation/agoraflux/pkg/outcome"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// SourcesToTableData lists configured sources.
func SourcesToTableData(infos []agoraflux.SourceInfo) Data {
	rows := make([][]string, 0, len(infos))
	for _, s := range infos {
		rows = append(rows, []string{
			s.ID.String(),
			s.Name,
			s.UpdateFrequency,
			timestamp(s.LastFetchedAt),
			s.Description,
		})
	}
	return Data{
		Headers: []string{"Key", "Name", "Frequency", "Last Fetched", "Description"},
		Rows:    rows,
	}
}

// RunToTableData renders the stages and per-source results of a run.
func RunToTableData(run *agoraflux.Run) Data {
	if run == nil {
		return Data{Headers: []string{"Run"}, Rows: [][]string{{"no run yet"}}}
	}

	stages := []struct {
		stage   agoraflux.Stage
		summary outcome.Summary
	}{
		{agoraflux.StageAcquire, run.Stages.Acquire},
		{agoraflux.StageProcess, run.Stages.Process},
		{agoraflux.StageFuse, run.Stages.Fuse},
		{agoraflux.StageDocument, run.Stages.Document},
		{agoraflux.StagePersist, run.Stages.Persist},
	}

	rows := [][]string{
		{"run", string(run.Status), run.ID, run.Duration.Round(time.Millisecond).String()},
	}
	for _, s := range stages {
		rows = append(rows, []string{"stage", s.stage.String(), s.summary.Status.String(), s.summary.Reason})
	}
	for _, s := range run.SourceResults {
		detail := fmt.Sprintf("%d/%d records, score %s (%s)",
			s.ProcessedRecords, s.RawRecords, strconv.FormatFloat(s.QualityScore, 'f', 1, 64), s.QualityLevel)
		if s.Error != "" {
			detail = s.Error
		}
		rows = append(rows, []string{"source", s.ID.String(), status(s.Error), detail})
	}
	if run.Fusion != nil {
		rows = append(rows, []string{"fusion", run.Fusion.Recipe, "ok",
			fmt.Sprintf("%d records, %d merged, coverage %.2f%%", run.Fusion.Records, run.Fusion.RecordsMerged, run.Fusion.Coverage)})
	}
	if run.UsedFixtures {
		rows = append(rows, []string{"note", "fixtures", "", "fixture data was used"})
	}

	return Data{
		Headers:         []string{"Kind", "Name", "Status", "Detail"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignCenter, AlignLeft},
	}
}

// FieldsToTableData lists the fields of a documented source in schema order.
func FieldsToTableData(doc *docs.SourceDoc) Data {
	rows := make([][]string, 0, len(doc.Schema.Fields))
	for _, f := range doc.Schema.Fields {
		rows = append(rows, []string{
			f.Name,
			string(f.Type),
			strconv.FormatFloat(f.NullPercentage, 'f', 1, 64) + "%",
			strconv.FormatBool(f.IsKey),
			strings.Join(doc.Fields[f.Name].ValidationRules, ", "),
			f.Description,
		})
	}
	return Data{
		Headers:         []string{"Field", "Type", "Nulls", "Key", "Rules", "Description"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight, AlignCenter, AlignLeft, AlignLeft},
	}
}

func status(errMsg string) string {
	if errMsg != "" {
		return "failed"
	}
	return "ok"
}

func timestamp(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}

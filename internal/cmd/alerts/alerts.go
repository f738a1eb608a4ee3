// Package alerts turns a pipeline run into short status notices for the
// terminal: degraded stages, excluded sources and fixture fallbacks.
package alerts

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/agentstation/agoraflux"
	"github.com/agentstation/agoraflux/pkg/outcome"
)

// Level represents the severity of an alert.
type Level int

const (
	// LevelError indicates a failed run or stage.
	LevelError Level = iota
	// LevelWarning indicates a degraded but completed run.
	LevelWarning
	// LevelSuccess indicates a clean run.
	LevelSuccess
)

// String returns the string representation of the alert level.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelSuccess:
		return "success"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}

// Color returns the ANSI color code for the level.
func (l Level) Color() string {
	switch l {
	case LevelError:
		return "\033[31m"
	case LevelWarning:
		return "\033[33m"
	default:
		return "\033[32m"
	}
}

const reset = "\033[0m"

// Alert is one notice about a run.
type Alert struct {
	Level   Level
	Message string
	Details []string
}

// FromRun lists what went wrong in a run, or a single success alert.
func FromRun(run *agoraflux.Run) []Alert {
	if run == nil {
		return nil
	}
	var out []Alert

	if run.Status == agoraflux.RunError {
		out = append(out, Alert{Level: LevelError, Message: "run failed", Details: []string{run.Error}})
	}
	if run.UsedFixtures && len(run.FetchErrors) > 0 {
		details := make([]string, 0, len(run.FetchErrors))
		for _, id := range slices.Sorted(maps.Keys(run.FetchErrors)) {
			details = append(details, fmt.Sprintf("%s: %s", id, run.FetchErrors[id]))
		}
		out = append(out, Alert{Level: LevelWarning, Message: "every source failed, fixture data was used", Details: details})
	}
	for _, s := range run.SourceResults {
		if s.Error != "" {
			out = append(out, Alert{Level: LevelWarning, Message: "source excluded: " + s.ID.String(), Details: []string{s.Error}})
		}
	}

	stages := []struct {
		stage   agoraflux.Stage
		summary outcome.Summary
	}{
		{agoraflux.StageFuse, run.Stages.Fuse},
		{agoraflux.StageDocument, run.Stages.Document},
		{agoraflux.StagePersist, run.Stages.Persist},
	}
	for _, s := range stages {
		switch s.summary.Status {
		case outcome.StatusFailed:
			out = append(out, Alert{Level: LevelError, Message: s.stage.String() + " failed", Details: []string{s.summary.Reason}})
		case outcome.StatusSkipped:
			out = append(out, Alert{Level: LevelWarning, Message: s.stage.String() + " skipped", Details: []string{s.summary.Reason}})
		}
	}

	if len(out) == 0 {
		out = append(out, Alert{Level: LevelSuccess, Message: fmt.Sprintf("run completed, %d records processed", run.ProcessedRecords)})
	}
	return out
}

// Write prints alerts one per line, details indented below.
func Write(w io.Writer, alerts []Alert, color bool) error {
	for _, a := range alerts {
		label := a.Level.String()
		if color {
			label = a.Level.Color() + label + reset
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", label, a.Message); err != nil {
			return err
		}
		for _, d := range a.Details {
			if d == "" {
				continue
			}
			if _, err := fmt.Fprintf(w, "  %s\n", d); err != nil {
				return err
			}
		}
	}
	return nil
}

package alerts

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/agoraflux"
	"github.com/agentstation/agoraflux/pkg/outcome"
	"github.com/agentstation/agoraflux/pkg/sources"
)

func TestFromRunClean(t *testing.T) {
	run := &agoraflux.Run{
		Status:           agoraflux.RunCompleted,
		ProcessedRecords: 15,
		Stages: agoraflux.StageSummaries{
			Fuse:     outcome.Summary{Status: outcome.StatusOK},
			Document: outcome.Summary{Status: outcome.StatusOK},
			Persist:  outcome.Summary{Status: outcome.StatusOK},
		},
	}

	got := FromRun(run)
	require.Len(t, got, 1)
	assert.Equal(t, LevelSuccess, got[0].Level)
	assert.Equal(t, "run completed, 15 records processed", got[0].Message)
}

func TestFromRunDegraded(t *testing.T) {
	run := &agoraflux.Run{
		Status:       agoraflux.RunCompleted,
		UsedFixtures: true,
		FetchErrors: map[sources.ID]string{
			sources.TransportNationalID: "timeout",
			sources.ParisBudgetID:       "status 503",
		},
		SourceResults: []agoraflux.SourceSummary{
			{ID: sources.ParisParticipationID, Error: "no rules"},
		},
		Stages: agoraflux.StageSummaries{
			Fuse:     outcome.Summary{Status: outcome.StatusSkipped, Reason: "fewer than two processed sources"},
			Document: outcome.Summary{Status: outcome.StatusOK},
			Persist:  outcome.Summary{Status: outcome.StatusFailed, Reason: "disk full"},
		},
	}

	got := FromRun(run)
	require.Len(t, got, 4)
	assert.Equal(t, LevelWarning, got[0].Level)
	assert.Equal(t, []string{"paris_budget: status 503", "transport_national: timeout"}, got[0].Details)
	assert.Equal(t, "source excluded: paris_participation", got[1].Message)
	assert.Equal(t, "fuse skipped", got[2].Message)
	assert.Equal(t, LevelError, got[3].Level)
	assert.Equal(t, "persist failed", got[3].Message)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []Alert{
		{Level: LevelWarning, Message: "fuse skipped", Details: []string{"fewer than two processed sources"}},
		{Level: LevelError, Message: "run failed", Details: []string{""}},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, "warning: fuse skipped\n  fewer than two processed sources\nerror: run failed\n", buf.String())
}

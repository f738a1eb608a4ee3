package outcome_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/agoraflux/pkg/outcome"
)

func TestOK(t *testing.T) {
	o := outcome.OK(42)

	v, ok := o.Get()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, outcome.StatusOK, o.Status())
	assert.Equal(t, "ok", o.String())
	assert.NoError(t, o.Err())
}

func TestSkipped(t *testing.T) {
	o := outcome.Skipped[[]string]("fewer than two processed sources")

	v, ok := o.Get()
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, outcome.StatusSkipped, o.Status())
	assert.Equal(t, "skipped: fewer than two processed sources", o.String())
	assert.Equal(t, outcome.Summary{Status: outcome.StatusSkipped, Reason: "fewer than two processed sources"}, o.Summary())
}

func TestFailed(t *testing.T) {
	cause := errors.New("boom")
	o := outcome.Failed[int](cause)

	assert.False(t, o.IsOK())
	assert.Equal(t, outcome.StatusFailed, o.Status())
	assert.ErrorIs(t, o.Err(), cause)
	assert.Equal(t, "boom", o.Reason())
	assert.Zero(t, o.Value())

	assert.Equal(t, "unknown error", outcome.Failed[int](nil).Reason())
}

func TestZeroValueIsSkipped(t *testing.T) {
	var o outcome.Outcome[string]
	assert.Equal(t, outcome.StatusSkipped, o.Status())
	assert.False(t, o.IsOK())
}

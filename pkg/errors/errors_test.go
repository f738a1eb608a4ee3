package errors_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/agentstation/agoraflux/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "dataset",
			ID:       "dataset-budget-paris_budget",
		}
		assert.Equal(t, "dataset with ID dataset-budget-paris_budget not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("project", "data-budget-paris_budget")
		wrapped := errors.Join(errors.New("failed"), base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestUnknownSourceError(t *testing.T) {
	err := pkgerrors.NewUnknownSourceError("lyon_budget")
	assert.Equal(t, `unknown source "lyon_budget"`, err.Error())
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.True(t, pkgerrors.IsValidationError(err))

	var target *pkgerrors.UnknownSourceError
	wrapped := fmt.Errorf("fetch: %w", err)
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "lyon_budget", target.Source)
}

func TestUnknownRecipeError(t *testing.T) {
	t.Run("with available recipes", func(t *testing.T) {
		err := pkgerrors.NewUnknownRecipeError("mobility", []string{"civic_engagement", "urban_overview"})
		assert.Contains(t, err.Error(), "mobility")
		assert.Contains(t, err.Error(), "civic_engagement")
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("without available recipes", func(t *testing.T) {
		err := pkgerrors.NewUnknownRecipeError("mobility", nil)
		assert.Equal(t, `unknown fusion recipe "mobility"`, err.Error())
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Field:   "montant",
			Message: "must be positive",
		}
		assert.Equal(t, "validation failed for field montant: must be positive", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "empty record"}
		assert.Equal(t, "validation failed: empty record", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		rateLimited bool
		unavailable bool
	}{
		{name: "rate limited", status: 429, rateLimited: true},
		{name: "server error", status: 503, unavailable: true},
		{name: "client error", status: 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pkgerrors.NewAPIError("paris_budget", tt.status, "boom")
			assert.Contains(t, err.Error(), "paris_budget")
			assert.Contains(t, err.Error(), fmt.Sprint(tt.status))
			assert.Equal(t, tt.rateLimited, pkgerrors.IsRateLimited(err))
			assert.Equal(t, tt.unavailable, pkgerrors.IsSourceUnavailable(err))
		})
	}

	t.Run("with wrapped error", func(t *testing.T) {
		baseErr := errors.New("connection reset")
		err := &pkgerrors.APIError{Source: "transport_national", Message: "request failed", Err: baseErr}
		assert.Contains(t, err.Error(), "transport_national")
		assert.Equal(t, baseErr, err.Unwrap())
	})
}

func TestStageError(t *testing.T) {
	base := errors.New("boom")

	err := pkgerrors.NewStageError("process", "paris_budget", base)
	assert.Equal(t, "process stage failed for paris_budget: boom", err.Error())
	assert.ErrorIs(t, err, base)

	err = pkgerrors.NewStageError("fusion", "", base)
	assert.Equal(t, "fusion stage failed: boom", err.Error())
}

func TestConfigError(t *testing.T) {
	err := pkgerrors.NewConfigError("storage", "unknown driver postgres", nil)
	assert.Contains(t, err.Error(), "storage")
	assert.Contains(t, err.Error(), "postgres")
	assert.Nil(t, err.Unwrap())
}

func TestParseError(t *testing.T) {
	t.Run("with file and line", func(t *testing.T) {
		err := &pkgerrors.ParseError{Format: "csv", File: "budget.csv", Line: 12, Message: "wrong number of fields"}
		assert.Equal(t, "parse error in csv at budget.csv:12: wrong number of fields", err.Error())
	})

	t.Run("without file", func(t *testing.T) {
		err := pkgerrors.NewParseError("json", "", "unexpected end of input", nil)
		assert.Equal(t, "json parse error: unexpected end of input", err.Error())
	})
}

func TestIOError(t *testing.T) {
	base := errors.New("permission denied")
	err := pkgerrors.NewIOError("write", "/tmp/out.yaml", base)
	assert.Contains(t, err.Error(), "write")
	assert.Contains(t, err.Error(), "/tmp/out.yaml")
	assert.ErrorIs(t, err, base)
}

func TestTimeoutError(t *testing.T) {
	err := pkgerrors.NewTimeoutError("fetch", "30s", "portal did not answer")
	assert.Contains(t, err.Error(), "30s")
	assert.True(t, pkgerrors.IsTimeout(err))

	err.Err = context.DeadlineExceeded
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, pkgerrors.IsTimeout(err))
}

func TestWrapCanceled(t *testing.T) {
	err := pkgerrors.WrapCanceled("fetch paris_budget", context.Canceled)
	assert.True(t, pkgerrors.IsCanceled(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, pkgerrors.IsTimeout(err))
	assert.Contains(t, err.Error(), "fetch paris_budget")
}

func TestIsAlreadyRunning(t *testing.T) {
	wrapped := fmt.Errorf("run full: %w", pkgerrors.ErrAlreadyRunning)
	assert.True(t, pkgerrors.IsAlreadyRunning(wrapped))
	assert.False(t, pkgerrors.IsAlreadyRunning(pkgerrors.ErrTimeout))
}

func TestWrapHelpers(t *testing.T) {
	t.Run("nil passthrough", func(t *testing.T) {
		assert.Nil(t, pkgerrors.WrapValidation("x", nil))
		assert.Nil(t, pkgerrors.WrapIO("read", "x", nil))
		assert.Nil(t, pkgerrors.WrapResource("save", "dataset", "x", nil))
		assert.Nil(t, pkgerrors.WrapParse("csv", "x", nil))
		assert.Nil(t, pkgerrors.WrapAPI("x", 500, nil))
	})

	t.Run("wraps", func(t *testing.T) {
		base := errors.New("boom")

		var resErr *pkgerrors.ResourceError
		require.ErrorAs(t, pkgerrors.WrapResource("save", "dataset", "d1", base), &resErr)
		assert.Equal(t, "dataset", resErr.Resource)

		var apiErr *pkgerrors.APIError
		require.ErrorAs(t, pkgerrors.WrapAPI("paris_budget", 502, base), &apiErr)
		assert.Equal(t, 502, apiErr.StatusCode)
		assert.ErrorIs(t, apiErr, base)

		assert.True(t, pkgerrors.IsValidationError(pkgerrors.WrapValidation("secteur", base)))
	})
}

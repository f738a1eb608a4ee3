package sources_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/errors"
	"github.com/agentstation/agoraflux/pkg/sources"
)

func slowPortal(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte(`[{"a":1}]`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPFetcherTimeout(t *testing.T) {
	srv := slowPortal(t, 500*time.Millisecond)
	f := sources.NewHTTPFetcher(sources.HTTPConfig{Timeout: 20 * time.Millisecond})
	d := sources.Descriptor{ID: "slow", Endpoint: srv.URL, Format: dataset.FormatJSON}

	_, err := f.Fetch(context.Background(), d)
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err))
	assert.False(t, errors.IsCanceled(err))

	var timeout *errors.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "fetch slow", timeout.Operation)
	assert.Equal(t, "20ms", timeout.Duration)
}

func TestHTTPFetcherCanceled(t *testing.T) {
	srv := slowPortal(t, 500*time.Millisecond)
	f := sources.NewHTTPFetcher(sources.HTTPConfig{})
	d := sources.Descriptor{ID: "slow", Endpoint: srv.URL, Format: dataset.FormatJSON}

	t.Run("before the request", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.Fetch(ctx, d)
		require.Error(t, err)
		assert.True(t, errors.IsCanceled(err))
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, errors.IsTimeout(err))
	})

	t.Run("during the request", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(20*time.Millisecond, cancel)

		_, err := f.Fetch(ctx, d)
		require.Error(t, err)
		assert.True(t, errors.IsCanceled(err))
	})
}

func TestHTTPFetcherUpstreamError(t *testing.T) {
	srv, _ := newPortal(t)
	f := sources.NewHTTPFetcher(sources.HTTPConfig{})

	_, err := f.Fetch(context.Background(), sources.Descriptor{ID: "down", Endpoint: srv.URL + "/down", Format: dataset.FormatCSV})
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.False(t, errors.IsTimeout(err))
	assert.False(t, errors.IsCanceled(err))
}

func TestHTTPFetcherBodyLimit(t *testing.T) {
	body := "secteur;montant\n" + strings.Repeat("Transport;890000000\n", 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	d := sources.Descriptor{ID: "budget", Endpoint: srv.URL, Format: dataset.FormatCSV}

	t.Run("over the cap", func(t *testing.T) {
		f := sources.NewHTTPFetcher(sources.HTTPConfig{MaxBytes: 64})
		_, err := f.Fetch(context.Background(), d)
		var resErr *errors.ResourceError
		require.ErrorAs(t, err, &resErr)
		assert.Equal(t, "response body", resErr.Resource)
		assert.Contains(t, resErr.Message, "exceeds 64 bytes")
	})

	t.Run("exactly at the cap", func(t *testing.T) {
		f := sources.NewHTTPFetcher(sources.HTTPConfig{MaxBytes: int64(len(body))})
		p, err := f.Fetch(context.Background(), d)
		require.NoError(t, err)
		assert.Equal(t, 10, p.TotalRows)
	})
}

package sources

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/agentstation/agoraflux/pkg/constants"
	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/errors"
)

// Fetcher retrieves and parses the payload of one source.
type Fetcher interface {
	Fetch(ctx context.Context, d Descriptor) (*dataset.Payload, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, d Descriptor) (*dataset.Payload, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, d Descriptor) (*dataset.Payload, error) {
	return f(ctx, d)
}

// HTTPConfig configures the HTTP fetcher.
type HTTPConfig struct {
	// Timeout for individual requests
	Timeout time.Duration

	// RateLimit is the number of requests per second across all sources
	RateLimit float64

	// RateBurst is the maximum burst size
	RateBurst int

	// MaxRows is the number of records kept per payload
	MaxRows int

	// MaxBytes bounds the response body size
	MaxBytes int64

	// UserAgent sent with every request
	UserAgent string

	// Transport allows injecting a custom HTTP transport
	Transport http.RoundTripper
}

// DefaultHTTPConfig returns the default fetcher configuration.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout:   constants.DefaultHTTPTimeout,
		RateLimit: constants.DefaultRateLimit,
		RateBurst: constants.MaxConcurrentFetches,
		MaxRows:   constants.MaxPayloadRows,
		MaxBytes:  constants.MaxPayloadBytes,
		UserAgent: "agoraflux/1.0",
	}
}

// HTTPFetcher fetches sources over HTTP with a shared rate limiter.
type HTTPFetcher struct {
	cfg     HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPFetcher creates an HTTP fetcher. Zero config fields take defaults.
func NewHTTPFetcher(cfg HTTPConfig) *HTTPFetcher {
	def := DefaultHTTPConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = def.RateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = def.RateBurst
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = def.MaxRows
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = def.MaxBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}

	return &HTTPFetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}
}

// Fetch downloads the source endpoint and parses it according to its format.
func (f *HTTPFetcher) Fetch(ctx context.Context, d Descriptor) (*dataset.Payload, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, f.requestError(d, "wait", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.Endpoint, nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", d.Endpoint, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, f.requestError(d, "fetch", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &errors.APIError{
			Source:     d.ID.String(),
			Endpoint:   d.Endpoint,
			StatusCode: resp.StatusCode,
			Message:    "HTTP " + resp.Status,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBytes+1))
	if err != nil {
		return nil, errors.WrapIO("read", d.Endpoint, err)
	}
	if int64(len(body)) > f.cfg.MaxBytes {
		return nil, errors.NewResourceError("read", "response body", d.Endpoint,
			fmt.Errorf("exceeds %d bytes", f.cfg.MaxBytes))
	}

	var (
		records []dataset.Record
		total   int
	)
	switch d.Format {
	case dataset.FormatCSV:
		records, total, err = ParseCSV(body, f.cfg.MaxRows)
	case dataset.FormatJSON:
		records, total, err = ParseJSON(body, f.cfg.MaxRows)
	default:
		records, total, err = ParseAPI(body, f.cfg.MaxRows)
	}
	if err != nil {
		return nil, err
	}

	return &dataset.Payload{
		SourceID:  d.ID.String(),
		Format:    d.Format,
		Records:   records,
		TotalRows: total,
	}, nil
}

// requestError classifies a failed limiter wait or request. Cancellation
// and timeouts keep their own error kinds; anything else is an APIError.
func (f *HTTPFetcher) requestError(d Descriptor, op string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return errors.WrapCanceled(op+" "+d.ID.String(), err)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		te := errors.NewTimeoutError(op+" "+d.ID.String(), f.cfg.Timeout.String(), err.Error())
		te.Err = err
		return te
	default:
		return &errors.APIError{
			Source:   d.ID.String(),
			Endpoint: d.Endpoint,
			Message:  "request failed",
			Err:      err,
		}
	}
}

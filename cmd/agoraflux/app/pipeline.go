package app

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agentstation/agoraflux"
	"github.com/agentstation/agoraflux/internal/storage/files"
	"github.com/agentstation/agoraflux/internal/storage/sqlite"
	"github.com/agentstation/agoraflux/pkg/errors"
	"github.com/agentstation/agoraflux/pkg/metrics"
	"github.com/agentstation/agoraflux/pkg/sources"
	"github.com/agentstation/agoraflux/pkg/storage"
)

// buildPipeline assembles a pipeline from the configuration. The returned
// closers release the storage sink, then write the metrics file.
func buildPipeline(config *Config) (*agoraflux.Pipeline, []io.Closer, error) {
	registry, err := buildRegistry(config)
	if err != nil {
		return nil, nil, err
	}

	sink, closers, err := buildSink(config)
	if err != nil {
		return nil, nil, err
	}

	m, err := metrics.New(nil)
	if err != nil {
		closeAll(closers)
		return nil, nil, err
	}

	p, err := agoraflux.New(
		agoraflux.WithRegistry(registry),
		agoraflux.WithSink(sink),
		agoraflux.WithMetrics(m),
		agoraflux.WithRecipe(config.Recipe),
	)
	if err != nil {
		closeAll(closers)
		return nil, nil, err
	}
	if config.MetricsFile != "" {
		closers = append(closers, metricsFile{path: config.MetricsFile, registry: m.Registry()})
	}
	return p, closers, nil
}

// metricsFile writes the collected metrics in the Prometheus text format
// when closed.
type metricsFile struct {
	path     string
	registry *prometheus.Registry
}

func (f metricsFile) Close() error {
	if err := prometheus.WriteToTextfile(f.path, f.registry); err != nil {
		return errors.WrapIO("write", f.path, err)
	}
	return nil
}

func buildRegistry(config *Config) (*sources.Registry, error) {
	descriptors := sources.DefaultDescriptors()
	if config.SourcesFile != "" {
		overrides, err := sources.LoadDescriptors(config.SourcesFile)
		if err != nil {
			return nil, err
		}
		descriptors = sources.MergeDescriptors(descriptors, overrides)
	}

	httpConfig := sources.DefaultHTTPConfig()
	if config.HTTPTimeout > 0 {
		httpConfig.Timeout = config.HTTPTimeout
	}
	if config.RateLimit > 0 {
		httpConfig.RateLimit = config.RateLimit
	}

	return sources.NewRegistry(
		sources.WithDescriptors(descriptors...),
		sources.WithHTTPConfig(httpConfig),
		sources.WithCache(config.CacheTTL),
		sources.WithConcurrency(config.FetchConcurrency),
	), nil
}

func buildSink(config *Config) (storage.Sink, []io.Closer, error) {
	switch config.StorageDriver {
	case "", StorageMemory:
		return storage.NewMemory(), nil, nil
	case StorageNone:
		return nil, nil, nil
	case StorageFiles:
		store, err := files.New(config.StorageDir)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case StorageSQLite:
		store, err := sqlite.Open(config.StorageDSN)
		if err != nil {
			return nil, nil, err
		}
		return store, []io.Closer{store}, nil
	default:
		return nil, nil, errors.NewValidationError("storage.driver", config.StorageDriver, "must be memory, sqlite, files or none")
	}
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}

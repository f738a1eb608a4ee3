package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/agoraflux"
)

// Mock provides a mock implementation of Interface for testing.
// A nil function field yields a zero value.
type Mock struct {
	PipelineFunc     func() (*agoraflux.Pipeline, error)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
}

// Pipeline returns a pipeline using the mock function or a default pipeline.
func (m *Mock) Pipeline() (*agoraflux.Pipeline, error) {
	if m.PipelineFunc != nil {
		return m.PipelineFunc()
	}
	return agoraflux.New()
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the format using the mock function or "json".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Ensure Mock implements Interface.
var _ Interface = (*Mock)(nil)

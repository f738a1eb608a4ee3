// Package appcontext provides the application context interface shared by
// every CLI command.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/agoraflux"
)

// Interface defines what commands need from the application.
// The App struct from cmd/agoraflux/app implements it; tests use Mock.
type Interface interface {
	// Pipeline returns the pipeline instance, creating it lazily if needed.
	Pipeline() (*agoraflux.Pipeline, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml, markdown).
	OutputFormat() string

	// Version returns the application version string.
	Version() string
}

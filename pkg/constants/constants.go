// Package constants provides shared constants used throughout agoraflux.
// This includes timeouts, payload limits, quality thresholds, and file
// permissions that should be consistent across the pipeline.
package constants

import "time"

// Timeout constants
const (
	// DefaultHTTPTimeout is the per-request timeout when fetching from data portals
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultCacheTTL is how long a fetched payload stays in the response cache
	DefaultCacheTTL = 15 * time.Minute

	// CacheCleanupInterval is how often expired cache entries are purged
	CacheCleanupInterval = 30 * time.Minute

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute
)

// File permission constants
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants
const (
	// MaxPayloadRows is the maximum number of records kept from one source payload
	MaxPayloadRows = 100

	// MaxPayloadBytes bounds how much of a response body is read
	MaxPayloadBytes = 10 << 20

	// MaxConcurrentFetches is the default number of sources fetched in parallel
	MaxConcurrentFetches = 4

	// DefaultRateLimit is the default number of portal requests per second
	DefaultRateLimit = 5

	// PersistSampleSize is the maximum number of records persisted per dataset
	PersistSampleSize = 100

	// PreviewSize is the number of records shown in dataset previews
	PreviewSize = 5

	// TypeInferenceSampleSize is the number of non-null values inspected per field
	TypeInferenceSampleSize = 100

	// SampleValueCount is the number of sample values recorded per documented field
	SampleValueCount = 5

	// SampleRecordCount is the number of sample records included in source documentation
	SampleRecordCount = 3

	// SchemaProbeRecords is the number of records per source inspected for the global schema
	SchemaProbeRecords = 5
)

// Quality score thresholds
const (
	// ExcellentThreshold is the minimum overall score rated excellent
	ExcellentThreshold = 95.0

	// GoodThreshold is the minimum overall score rated good
	GoodThreshold = 80.0

	// AcceptableThreshold is the minimum overall score rated acceptable
	AcceptableThreshold = 60.0

	// CompletenessIssueThreshold flags completeness below this value
	CompletenessIssueThreshold = 90.0

	// ConsistencyIssueThreshold flags consistency below this value
	ConsistencyIssueThreshold = 85.0

	// ValidityIssueThreshold flags validity below this value
	ValidityIssueThreshold = 85.0

	// TypeInferenceThreshold is the share of samples a type must match to win
	TypeInferenceThreshold = 0.8

	// KeyUniquenessThreshold is the uniqueness ratio above which a field is treated as a key
	KeyUniquenessThreshold = 0.95

	// RequiredNullThreshold is the null percentage below which a field is documented as required
	RequiredNullThreshold = 5.0
)

// Domain constants
const (
	// ParisPopulationReference is the per-district reference population used for participation rates
	ParisPopulationReference = 110000.0
)

package dataset

import (
	"time"

	"github.com/agentstation/agoraflux/pkg/quality"
)

// Format is the wire format of a source.
type Format string

// Source formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatAPI  Format = "api"
)

// Payload is the raw result of acquiring one source.
// A non-empty Error marks a failed acquisition; Records is then empty.
type Payload struct {
	SourceID    string    `json:"source" yaml:"source"`
	RetrievedAt time.Time `json:"retrieved_at" yaml:"retrieved_at"`
	Format      Format    `json:"format" yaml:"format"`
	Records     []Record  `json:"records" yaml:"records"`
	TotalRows   int       `json:"total_rows" yaml:"total_rows"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the acquisition failed.
func (p *Payload) Failed() bool {
	return p == nil || p.Error != ""
}

// FailedPayload builds the payload recorded for a failed acquisition.
func FailedPayload(sourceID string, format Format, retrievedAt time.Time, err error) *Payload {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &Payload{
		SourceID:    sourceID,
		RetrievedAt: retrievedAt,
		Format:      format,
		Records:     []Record{},
		Error:       msg,
	}
}

// Processed is a cleaned, validated and scored dataset.
type Processed struct {
	SourceID        string          `json:"source" yaml:"source"`
	DataType        Type            `json:"data_type" yaml:"data_type"`
	ProcessedAt     time.Time       `json:"processed_at" yaml:"processed_at"`
	RawRows         int             `json:"raw_rows" yaml:"raw_rows"`
	Records         []Record        `json:"records" yaml:"records"`
	Quality         quality.Metrics `json:"quality" yaml:"quality"`
	Transformations []string        `json:"transformations" yaml:"transformations"`
}

// Len returns the number of processed records.
func (p *Processed) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Records)
}

// Sample returns at most n records.
func (p *Processed) Sample(n int) []Record {
	if p == nil {
		return nil
	}
	if n >= len(p.Records) {
		return p.Records
	}
	return p.Records[:n]
}

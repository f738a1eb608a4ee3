// Package sources holds the registry of public data sources and fetches
// their raw payloads.
//
// Example usage:
//
//	registry := sources.NewRegistry(sources.WithCache(15 * time.Minute))
//
//	// Fetch one source
//	payload, err := registry.Fetch(ctx, sources.ParisBudgetID)
//
//	// Fetch an explicit subset concurrently
//	payloads, err := registry.FetchAll(ctx, sources.ParisBudgetID, sources.TransportNationalID)
package sources

import (
	"slices"
	"time"

	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/errors"
)

// ID is the key of a registered data source.
type ID string

// String returns the string representation of a source ID.
func (id ID) String() string {
	return string(id)
}

// Built-in source IDs.
const (
	ParisBudgetID        ID = "paris_budget"
	ParisParticipationID ID = "paris_participation"
	TransportNationalID  ID = "transport_national"
)

// Update frequencies.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
)

// Descriptor describes a public data source.
type Descriptor struct {
	ID              ID             `json:"key" yaml:"key"`
	DisplayName     string         `json:"name" yaml:"name"`
	Endpoint        string         `json:"url" yaml:"url"`
	Format          dataset.Format `json:"format" yaml:"format"`
	Description     string         `json:"description" yaml:"description"`
	UpdateFrequency string         `json:"update_frequency" yaml:"update_frequency"`
	DataType        dataset.Type   `json:"data_type,omitempty" yaml:"data_type,omitempty"`
	LastFetchedAt   *time.Time     `json:"last_fetched_at,omitempty" yaml:"last_fetched_at,omitempty"`
}

// Type returns the data type of the source, inferred from its key when unset.
func (d Descriptor) Type() dataset.Type {
	if d.DataType.IsValid() {
		return d.DataType
	}
	return dataset.TypeForSource(string(d.ID))
}

// Validate checks that the descriptor can be fetched.
func (d Descriptor) Validate() error {
	if d.ID == "" {
		return errors.NewValidationError("key", d.ID, "cannot be empty")
	}
	if d.Endpoint == "" {
		return errors.NewValidationError("url", d.Endpoint, "cannot be empty")
	}
	if !slices.Contains([]dataset.Format{dataset.FormatCSV, dataset.FormatJSON, dataset.FormatAPI}, d.Format) {
		return errors.NewValidationError("format", d.Format, "must be csv, json or api")
	}
	return nil
}

// DefaultDescriptors returns the built-in Paris and national sources.
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{
			ID:              ParisBudgetID,
			DisplayName:     "Budget Paris Open Data",
			Endpoint:        "https://opendata.paris.fr/api/explore/v2.1/catalog/datasets/budget-de-la-ville-de-paris/exports/csv",
			Format:          dataset.FormatCSV,
			Description:     "Paris municipal budget by sector",
			UpdateFrequency: FrequencyYearly,
			DataType:        dataset.TypeBudget,
		},
		{
			ID:              ParisParticipationID,
			DisplayName:     "Participation Citoyenne Paris",
			Endpoint:        "https://opendata.paris.fr/api/explore/v2.1/catalog/datasets/les-donnees-des-urnes-elections-europeennes-2024/exports/csv",
			Format:          dataset.FormatCSV,
			Description:     "Civic participation by district",
			UpdateFrequency: FrequencyMonthly,
			DataType:        dataset.TypeParticipation,
		},
		{
			ID:              TransportNationalID,
			DisplayName:     "Transport Data France",
			Endpoint:        "https://transport.data.gouv.fr/api/stats",
			Format:          dataset.FormatJSON,
			Description:     "National public transport statistics",
			UpdateFrequency: FrequencyDaily,
			DataType:        dataset.TypeTransport,
		},
	}
}

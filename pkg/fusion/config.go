package fusion

import (
	"slices"

	"github.com/agentstation/agoraflux/pkg/errors"
	"github.com/agentstation/agoraflux/pkg/sources"
)

// Strategy is the way records from several sources are combined.
type Strategy string

// String returns the string representation of a strategy.
func (s Strategy) String() string {
	return string(s)
}

// Fusion strategies.
const (
	// StrategyGeographic joins sources on the Paris district code
	StrategyGeographic Strategy = "geographic"
	// StrategyTemporal is declared but not yet supported
	StrategyTemporal Strategy = "temporal"
	// StrategyThematic is declared but not yet supported
	StrategyThematic Strategy = "thematic"
	// StrategyHybrid layers strategies; only the geographic layer exists today
	StrategyHybrid Strategy = "hybrid"
)

// Strategies returns every declared strategy.
func Strategies() []Strategy {
	return []Strategy{StrategyGeographic, StrategyTemporal, StrategyThematic, StrategyHybrid}
}

// Supported reports whether the strategy produces records.
func (s Strategy) Supported() bool {
	return s == StrategyGeographic || s == StrategyHybrid
}

// ConflictPrimaryWins keeps the primary value whenever a field collides.
const ConflictPrimaryWins = "primary_wins"

// Recipe names.
const (
	RecipeCivicEngagement = "civic_engagement"
	RecipeUrbanOverview   = "urban_overview"
)

// Config is a named fusion recipe.
type Config struct {
	Name               string                `json:"name" yaml:"name"`
	Strategy           Strategy              `json:"strategy" yaml:"strategy"`
	PrimarySource      sources.ID            `json:"primary_source" yaml:"primary_source"`
	SecondarySources   []sources.ID          `json:"secondary_sources" yaml:"secondary_sources"`
	JoinKeys           map[sources.ID]string `json:"join_keys" yaml:"join_keys"`
	ConflictResolution string                `json:"conflict_resolution" yaml:"conflict_resolution"`
}

// Validate checks that the recipe is usable.
func (c Config) Validate() error {
	if c.Name == "" {
		return errors.NewValidationError("name", c.Name, "cannot be empty")
	}
	if !slices.Contains(Strategies(), c.Strategy) {
		return errors.NewValidationError("strategy", c.Strategy, "unknown strategy")
	}
	if c.PrimarySource == "" {
		return errors.NewValidationError("primary_source", c.PrimarySource, "cannot be empty")
	}
	if len(c.SecondarySources) == 0 {
		return errors.NewValidationError("secondary_sources", c.SecondarySources, "at least one secondary source is required")
	}
	if slices.Contains(c.SecondarySources, c.PrimarySource) {
		return errors.NewValidationError("secondary_sources", c.PrimarySource, "primary source cannot also be secondary")
	}
	return nil
}

// DefaultRecipes returns the built-in recipes.
func DefaultRecipes() []Config {
	return []Config{
		{
			Name:             RecipeCivicEngagement,
			Strategy:         StrategyGeographic,
			PrimarySource:    sources.ParisParticipationID,
			SecondarySources: []sources.ID{sources.ParisBudgetID},
			JoinKeys: map[sources.ID]string{
				sources.ParisParticipationID: "arrondissement",
				sources.ParisBudgetID:        "arrondissement",
			},
			ConflictResolution: ConflictPrimaryWins,
		},
		{
			Name:             RecipeUrbanOverview,
			Strategy:         StrategyHybrid,
			PrimarySource:    sources.ParisBudgetID,
			SecondarySources: []sources.ID{sources.ParisParticipationID, sources.TransportNationalID},
			JoinKeys: map[sources.ID]string{
				sources.ParisBudgetID:        "secteur",
				sources.ParisParticipationID: "arrondissement",
				sources.TransportNationalID:  "region",
			},
			ConflictResolution: ConflictPrimaryWins,
		},
	}
}

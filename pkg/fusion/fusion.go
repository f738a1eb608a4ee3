// Package fusion merges processed datasets into a single cross-source view
// keyed by Paris district.
//
// Recipes name a strategy, a primary source and secondary sources. The
// geographic strategy is a left outer join on the district code: every
// primary row is kept, and matching secondary rows contribute their fields
// under a {source}_{field} prefix. Budget data has no geography of its own
// and is spread over districts with a static sector table.
package fusion

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/errors"
	"github.com/agentstation/agoraflux/pkg/logging"
	"github.com/agentstation/agoraflux/pkg/quality"
	"github.com/agentstation/agoraflux/pkg/sources"
)

// Engine fuses processed datasets according to named recipes.
type Engine struct {
	recipes   map[string]Config
	districts SectorDistricts
	now       func() time.Time
}

// New creates a fusion engine with the built-in recipes.
func New(opts ...Option) (*Engine, error) {
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		recipes:   make(map[string]Config, len(o.recipes)),
		districts: o.districts,
		now:       o.now,
	}
	for _, r := range o.recipes {
		e.recipes[r.Name] = r
	}
	return e, nil
}

// Recipes returns the configured recipe names in sorted order.
func (e *Engine) Recipes() []string {
	return slices.Sorted(maps.Keys(e.recipes))
}

// Recipe returns the recipe named name.
func (e *Engine) Recipe(name string) (Config, bool) {
	r, ok := e.recipes[name]
	return r, ok
}

// Fuse combines processed datasets with the named recipe. An unknown recipe
// is an error; missing or empty sources yield an empty result.
func (e *Engine) Fuse(ctx context.Context, processed map[sources.ID]*dataset.Processed, recipe string) (*Result, error) {
	cfg, ok := e.recipes[recipe]
	if !ok {
		return nil, errors.NewUnknownRecipeError(recipe, e.Recipes())
	}
	logger := logging.FromContext(ctx).With().
		Str("recipe", recipe).
		Str("strategy", cfg.Strategy.String()).
		Logger()
	now := e.now()

	available := availableSources(cfg, processed)
	if len(available) == 0 {
		logger.Warn().Msg("No valid sources for fusion")
		return emptyResult(NoteNoValidSources, now), nil
	}

	prepared := make(map[sources.ID][]row, len(available))
	recordsBefore := 0
	for _, id := range available {
		prepared[id] = e.normalize(id, processed[id])
		recordsBefore += processed[id].Len()
		logger.Debug().
			Str("source", id.String()).
			Int("rows", len(prepared[id])).
			Msg("Prepared source for fusion")
	}

	var (
		records []dataset.Record
		stats   joinStats
		note    string
	)
	switch cfg.Strategy {
	case StrategyGeographic, StrategyHybrid:
		records, stats = fuseGeographic(cfg, prepared, now)
	default:
		records = []dataset.Record{}
		note = NoteNotSupported
		logger.Warn().Msg("Fusion strategy not yet supported")
	}

	result := &Result{
		Records: records,
		Metadata: Metadata{
			Recipe:             cfg.Name,
			Strategy:           cfg.Strategy,
			PrimarySource:      cfg.PrimarySource,
			SecondarySources:   slices.Clone(cfg.SecondarySources),
			SourcesUsed:        available,
			TotalSources:       len(available),
			RecordsBefore:      recordsBefore,
			RecordsAfter:       len(records),
			Timestamp:          now,
			ConflictsResolved:  stats.conflicts,
			JoinKeys:           maps.Clone(cfg.JoinKeys),
			ConflictResolution: cfg.ConflictResolution,
			Note:               note,
		},
		Quality:           measure(cfg, records, recordsBefore),
		SourceMapping:     sourceMapping(cfg, records),
		ConflictsResolved: stats.conflicts,
		RecordsMerged:     stats.merged,
	}

	logger.Info().
		Int("records", len(records)).
		Int("merged", stats.merged).
		Int("conflicts", stats.conflicts).
		Msg("Fusion complete")
	return result, nil
}

// availableSources returns the recipe sources with records, primary first.
// Nil means fusion cannot proceed: the primary source and at least one
// secondary source must have records.
func availableSources(cfg Config, processed map[sources.ID]*dataset.Processed) []sources.ID {
	if processed[cfg.PrimarySource].Len() == 0 {
		return nil
	}
	available := []sources.ID{cfg.PrimarySource}
	for _, id := range cfg.SecondarySources {
		if processed[id].Len() > 0 {
			available = append(available, id)
		}
	}
	if len(available) < 2 {
		return nil
	}
	return available
}

// measure computes coverage, completeness and diversity of fused records.
func measure(cfg Config, records []dataset.Record, recordsBefore int) Quality {
	if len(records) == 0 {
		return Quality{}
	}

	cells, filled := 0, 0
	for _, rec := range records {
		for _, v := range rec {
			cells++
			if !dataset.IsEmpty(v) {
				filled++
			}
		}
	}

	contributed := 0
	for _, id := range cfg.SecondarySources {
		if hasPrefixedField(records, id.String()+"_") {
			contributed++
		}
	}

	return Quality{
		Coverage:        quality.Round(quality.Percent(len(records), recordsBefore), 2),
		Completeness:    quality.Round(quality.Percent(filled, cells), 2),
		SourceDiversity: quality.Round(quality.Percent(contributed, len(cfg.SecondarySources)), 2),
	}
}

func hasPrefixedField(records []dataset.Record, prefix string) bool {
	for _, rec := range records {
		for k := range rec {
			if strings.HasPrefix(k, prefix) {
				return true
			}
		}
	}
	return false
}

// sourceMapping attributes every output field to the source it came from.
// Metadata fields starting with "_" are skipped.
func sourceMapping(cfg Config, records []dataset.Record) map[string][]sources.ID {
	mapping := make(map[string][]sources.ID)
	for _, rec := range records {
		for field := range rec {
			if strings.HasPrefix(field, "_") {
				continue
			}
			if _, done := mapping[field]; done {
				continue
			}
			origin := cfg.PrimarySource
			for _, id := range cfg.SecondarySources {
				if strings.HasPrefix(field, id.String()+"_") {
					origin = id
					break
				}
			}
			mapping[field] = []sources.ID{origin}
		}
	}
	return mapping
}

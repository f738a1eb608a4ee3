package fusion

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/sources"
)

// joinStats counts what a join did.
type joinStats struct {
	conflicts int
	merged    int
}

// originKey identifies one processed input record.
type originKey struct {
	source sources.ID
	index  int
}

// fuseGeographic left-outer-joins every secondary source onto the primary
// rows by district code. Districts are visited in order of first appearance
// in the primary source. Secondary fields are flattened as {source}_{field};
// a secondary field whose raw name already exists in the fused record is
// discarded in favor of the primary value.
func fuseGeographic(cfg Config, prepared map[sources.ID][]row, at time.Time) ([]dataset.Record, joinStats) {
	primary := prepared[cfg.PrimarySource]

	index := make(map[sources.ID]map[int][]row, len(cfg.SecondarySources))
	for _, id := range cfg.SecondarySources {
		rows, ok := prepared[id]
		if !ok {
			continue
		}
		byCode := make(map[int][]row)
		for _, r := range rows {
			byCode[r.code] = append(byCode[r.code], r)
		}
		index[id] = byCode
	}

	var order []int
	groups := make(map[int][]row)
	for _, r := range primary {
		if _, seen := groups[r.code]; !seen {
			order = append(order, r.code)
		}
		groups[r.code] = append(groups[r.code], r)
	}

	var (
		stats      joinStats
		contribute = make(map[originKey]struct{})
		fused      = make([]dataset.Record, 0, len(primary))
		stamp      = at.Format(time.RFC3339)
	)
	for _, code := range order {
		for _, p := range groups[code] {
			rec := p.rec.Clone()
			contribute[originKey{cfg.PrimarySource, p.origin}] = struct{}{}

			for _, id := range cfg.SecondarySources {
				prefix := id.String() + "_"
				for _, s := range index[id][code] {
					contribute[originKey{id, s.origin}] = struct{}{}
					for key, value := range s.rec {
						if strings.HasPrefix(key, "_") {
							continue
						}
						if existing, clash := rec[key]; clash {
							if !reflect.DeepEqual(existing, value) {
								stats.conflicts++
							}
							continue
						}
						name := prefix + key
						if existing, set := rec[name]; set && !reflect.DeepEqual(existing, value) {
							stats.conflicts++
						}
						rec[name] = value
					}
				}
			}

			rec[FieldType] = string(StrategyGeographic)
			rec[FieldKey] = fmt.Sprintf("arrondissement_%d", code)
			rec[FieldFusedAt] = stamp
			fused = append(fused, rec)
		}
	}
	stats.merged = len(contribute)
	return fused, stats
}

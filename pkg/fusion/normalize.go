package fusion

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/processor"
	"github.com/agentstation/agoraflux/pkg/sources"
)

// Normalized field names.
const (
	FieldZone     = "zone_geo"
	FieldCode     = "arrondissement_code"
	FieldSource   = "_source"
	FieldQuality  = "_source_quality"
	FieldType     = "_fusion_type"
	FieldKey      = "_fusion_key"
	FieldFusedAt  = "_fused_at"
	zoneWholeCity = "PARIS"
)

var districtDigits = regexp.MustCompile(`75(\d+)`)

// row is a normalized record with its join key and the index of the
// processed record it came from.
type row struct {
	rec    dataset.Record
	code   int
	origin int
}

// normalize reshapes a processed dataset around the district code.
// Rows whose code cannot be derived are dropped.
func (e *Engine) normalize(id sources.ID, p *dataset.Processed) []row {
	var rows []row
	for i, src := range p.Records {
		var out []row
		switch p.DataType {
		case dataset.TypeParticipation:
			out = normalizeParticipation(src, i)
		case dataset.TypeBudget:
			out = e.normalizeBudget(src, i)
		case dataset.TypeTransport:
			out = normalizeTransport(src, i)
		default:
			out = normalizeGeneral(src, i)
		}
		for _, r := range out {
			r.rec[FieldSource] = id.String()
			r.rec[FieldQuality] = p.Quality.OverallScore
			rows = append(rows, r)
		}
	}
	return rows
}

func normalizeParticipation(src dataset.Record, origin int) []row {
	rec := src.Clone()
	renames := [][2]string{
		{processor.FieldDistrict, FieldZone},
		{processor.FieldParticipants, "participation_count"},
		{processor.FieldActiveProjects, "active_projects"},
		{processor.FieldSatisfaction, "satisfaction_score"},
	}
	for _, rn := range renames {
		if v, ok := rec[rn[0]]; ok {
			rec[rn[1]] = v
		}
	}

	code, ok := parseDistrict(rec.String(FieldZone))
	if !ok {
		return nil
	}
	rec[FieldCode] = code

	if v, ok := rec["participation_count"]; ok {
		if level := ParticipationLevel(processor.ParseNumeric(v)); level != "" {
			rec["participation_level"] = level
		}
	}
	return []row{{rec: rec, code: code, origin: origin}}
}

func (e *Engine) normalizeBudget(src dataset.Record, origin int) []row {
	base := src.Clone()
	renames := [][2]string{
		{processor.FieldSector, "sector"},
		{processor.FieldAmount, "amount"},
		{processor.FieldPercentage, "percentage"},
	}
	for _, rn := range renames {
		if v, ok := base[rn[0]]; ok {
			base[rn[1]] = v
		}
	}

	districts := e.districts[base.String("sector")]
	if len(districts) == 0 {
		return nil
	}
	perDistrict := processor.ParseNumeric(base["amount"]) / float64(len(districts))

	rows := make([]row, 0, len(districts))
	for _, d := range districts {
		rec := base.Clone()
		rec[FieldCode] = d
		rec[FieldZone] = fmt.Sprintf("750%02d", d)
		rec["amount_per_district"] = perDistrict
		rows = append(rows, row{rec: rec, code: d, origin: origin})
	}
	return rows
}

func normalizeTransport(src dataset.Record, origin int) []row {
	rec := src.Clone()
	rec[FieldZone] = zoneWholeCity
	rec[FieldCode] = 0
	return []row{{rec: rec, code: 0, origin: origin}}
}

// normalizeGeneral looks for an existing district code or postal code.
func normalizeGeneral(src dataset.Record, origin int) []row {
	rec := src.Clone()
	if v, ok := rec[FieldCode]; ok {
		if f, ok := dataset.ToFloat(v); ok {
			code := int(f)
			rec[FieldCode] = code
			return []row{{rec: rec, code: code, origin: origin}}
		}
	}
	for _, field := range []string{processor.FieldDistrict, "code_postal", FieldZone} {
		if code, ok := parseDistrict(rec.String(field)); ok {
			if _, has := rec[FieldZone]; !has {
				rec[FieldZone] = rec.String(field)
			}
			rec[FieldCode] = code
			return []row{{rec: rec, code: code, origin: origin}}
		}
	}
	return nil
}

// parseDistrict extracts the digits following "75" in a postal-style code.
func parseDistrict(s string) (int, bool) {
	m := districtDigits.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return code, true
}

// ParticipationLevel bins a participant count. Counts of zero or less have no level.
func ParticipationLevel(count float64) string {
	switch {
	case count <= 0:
		return ""
	case count <= 100:
		return "Faible"
	case count <= 500:
		return "Modérée"
	case count <= 1000:
		return "Élevée"
	default:
		return "Très élevée"
	}
}

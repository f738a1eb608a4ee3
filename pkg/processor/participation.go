package processor

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/agentstation/agoraflux/pkg/constants"
	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/quality"
)

// Participation record fields.
const (
	FieldDistrict       = "arrondissement"
	FieldName           = "nom"
	FieldParticipants   = "participants"
	FieldActiveProjects = "projets_actifs"
	FieldComments       = "commentaires"
	FieldSatisfaction   = "satisfaction"
	FieldMonth          = "mois"
)

var districtCode = regexp.MustCompile(`^75\d{3}$`)

const (
	maxParticipants = 10000
	maxSatisfaction = 5
)

type participationRules struct{}

func (participationRules) Type() dataset.Type { return dataset.TypeParticipation }

func (participationRules) Validate(rec dataset.Record, now time.Time) (dataset.Record, bool) {
	if !rec.Has(FieldDistrict) || !rec.Has(FieldParticipants) {
		return nil, false
	}
	district := strings.TrimSpace(rec.String(FieldDistrict))
	if !districtCode.MatchString(district) {
		return nil, false
	}
	participants := num(rec, FieldParticipants)
	if participants < 0 {
		return nil, false
	}

	name := strings.TrimSpace(rec.String(FieldName))
	if name == "" {
		name = fmt.Sprintf("%s arrondissement", district)
	}
	month := strings.TrimSpace(rec.String(FieldMonth))
	if month == "" {
		month = now.Format("2006-01")
	}

	return dataset.Record{
		FieldDistrict:       district,
		FieldName:           name,
		FieldParticipants:   int(participants),
		FieldActiveProjects: int(num(rec, FieldActiveProjects)),
		FieldComments:       int(num(rec, FieldComments)),
		FieldSatisfaction:   quality.Round(num(rec, FieldSatisfaction), 1),
		FieldMonth:          month,
	}, true
}

// Consistency is the share of districts with at least as many participants as active projects.
func (participationRules) Consistency(records []dataset.Record) float64 {
	return share(records, func(r dataset.Record) bool {
		return num(r, FieldParticipants) >= num(r, FieldActiveProjects)
	})
}

func (participationRules) Validity(records []dataset.Record) float64 {
	return share(records, func(r dataset.Record) bool {
		p, s := num(r, FieldParticipants), num(r, FieldSatisfaction)
		return p >= 0 && p <= maxParticipants && s >= 0 && s <= maxSatisfaction
	})
}

func (participationRules) Enrich(rec dataset.Record) {
	rec["participation_rate"] = ParticipationRate(num(rec, FieldParticipants))
	rec["category"] = "civic_engagement"
}

func (participationRules) Transformations() []string {
	return []string{
		"District code validation",
		"Participation rate calculation",
		"Satisfaction range validation",
	}
}

// ParticipationRate is participants per reference district population, in percent.
func ParticipationRate(participants float64) float64 {
	return quality.Round(participants/constants.ParisPopulationReference*100, 2)
}

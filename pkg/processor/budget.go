package processor

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agentstation/agoraflux/pkg/dataset"
)

// Budget record fields.
const (
	FieldSector      = "secteur"
	FieldAmount      = "montant"
	FieldPercentage  = "pourcentage"
	FieldYear        = "annee"
	FieldDescription = "description"
)

// Budget amount bounds considered plausible.
const (
	minBudgetAmount = 1000
	maxBudgetAmount = 1e10
)

type budgetRules struct{}

func (budgetRules) Type() dataset.Type { return dataset.TypeBudget }

func (budgetRules) Validate(rec dataset.Record, now time.Time) (dataset.Record, bool) {
	if !rec.Has(FieldSector) || !rec.Has(FieldAmount) {
		return nil, false
	}
	amount := num(rec, FieldAmount)
	if amount <= 0 {
		return nil, false
	}
	sector := strings.TrimSpace(rec.String(FieldSector))
	if utf8.RuneCountInString(sector) < 2 {
		return nil, false
	}

	year := int(num(rec, FieldYear))
	if year <= 0 {
		year = now.Year()
	}

	return dataset.Record{
		FieldSector:      sector,
		FieldAmount:      amount,
		FieldPercentage:  num(rec, FieldPercentage),
		FieldYear:        year,
		FieldDescription: strings.TrimSpace(rec.String(FieldDescription)),
	}, true
}

// Consistency is 100 minus the distance of the percentage total from 100.
func (budgetRules) Consistency(records []dataset.Record) float64 {
	if len(records) == 0 {
		return 0
	}
	var total float64
	for _, r := range records {
		total += num(r, FieldPercentage)
	}
	if total <= 0 {
		return 0
	}
	return math.Max(0, math.Min(100, 100-math.Abs(100-total)))
}

func (budgetRules) Validity(records []dataset.Record) float64 {
	return share(records, func(r dataset.Record) bool {
		amount, pct := num(r, FieldAmount), num(r, FieldPercentage)
		return amount >= minBudgetAmount && amount <= maxBudgetAmount && pct >= 0 && pct <= 100
	})
}

func (budgetRules) Enrich(rec dataset.Record) {
	rec["montant_formatted"] = FormatCurrency(num(rec, FieldAmount))
	rec["category"] = "budget"
}

func (budgetRules) Transformations() []string {
	return []string{
		"Budget amount validation",
		"Currency formatting",
		"Percentage consistency check",
	}
}

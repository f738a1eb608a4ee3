package fusion

import (
	"time"

	"github.com/agentstation/agoraflux/pkg/errors"
)

type options struct {
	recipes   []Config
	districts SectorDistricts
	now       func() time.Time
}

func defaultOptions() *options {
	return &options{
		recipes:   DefaultRecipes(),
		districts: DefaultSectorDistricts(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Option configures an Engine.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithRecipes adds recipes, replacing built-in recipes of the same name.
func WithRecipes(recipes ...Config) Option {
	return func(o *options) error {
		for _, r := range recipes {
			if err := r.Validate(); err != nil {
				return err
			}
			if r.ConflictResolution == "" {
				r.ConflictResolution = ConflictPrimaryWins
			}
			o.recipes = append(o.recipes, r)
		}
		return nil
	}
}

// WithSectorDistricts replaces the sector to district table.
func WithSectorDistricts(table SectorDistricts) Option {
	return func(o *options) error {
		if len(table) == 0 {
			return &errors.ValidationError{Field: "sector_districts", Message: "cannot be empty"}
		}
		o.districts = table
		return nil
	}
}

// WithClock sets the clock used for fusion timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return &errors.ValidationError{Field: "clock", Message: "cannot be nil"}
		}
		o.now = now
		return nil
	}
}

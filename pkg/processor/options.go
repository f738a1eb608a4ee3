package processor

import (
	"time"

	"github.com/agentstation/agoraflux/pkg/errors"
)

type options struct {
	rules []Rules
	now   func() time.Time
}

func defaultOptions() *options {
	return &options{
		rules: DefaultRules(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Option configures a Processor.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithRules registers rules, replacing the built-in rules of the same type.
func WithRules(rules ...Rules) Option {
	return func(o *options) error {
		for _, r := range rules {
			if r == nil {
				return &errors.ValidationError{Field: "rules", Message: "cannot be nil"}
			}
			if !r.Type().IsValid() {
				return errors.NewValidationError("rules", r.Type(), "unknown data type")
			}
			o.rules = append(o.rules, r)
		}
		return nil
	}
}

// WithClock sets the clock used for processing timestamps and defaults.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return &errors.ValidationError{Field: "clock", Message: "cannot be nil"}
		}
		o.now = now
		return nil
	}
}

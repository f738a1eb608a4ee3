// Package outcome describes how a pipeline stage ended: with a value,
// skipped for a reason, or failed with an error.
package outcome

import (
	"fmt"
)

// Status is the way a stage ended.
type Status string

// String returns the string representation of a status.
func (s Status) String() string {
	return string(s)
}

// Stage statuses.
const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome is the result of one stage. Only an OK outcome carries a value.
type Outcome[T any] struct {
	status Status
	value  T
	reason string
	err    error
}

// OK returns a successful outcome holding v.
func OK[T any](v T) Outcome[T] {
	return Outcome[T]{status: StatusOK, value: v}
}

// Skipped returns an outcome for a stage that did not run or had nothing to do.
func Skipped[T any](reason string) Outcome[T] {
	return Outcome[T]{status: StatusSkipped, reason: reason}
}

// Failed returns an outcome for a stage that ran and errored.
func Failed[T any](err error) Outcome[T] {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return Outcome[T]{status: StatusFailed, reason: reason, err: err}
}

// Status returns how the stage ended. The zero Outcome is skipped.
func (o Outcome[T]) Status() Status {
	if o.status == "" {
		return StatusSkipped
	}
	return o.status
}

// IsOK reports whether the stage produced a value.
func (o Outcome[T]) IsOK() bool {
	return o.status == StatusOK
}

// Get returns the value and whether the stage produced one.
func (o Outcome[T]) Get() (T, bool) {
	return o.value, o.IsOK()
}

// Value returns the value, or the zero value unless the outcome is OK.
func (o Outcome[T]) Value() T {
	return o.value
}

// Reason explains a skipped or failed outcome.
func (o Outcome[T]) Reason() string {
	return o.reason
}

// Err returns the error of a failed outcome.
func (o Outcome[T]) Err() error {
	return o.err
}

// Summary returns the status and reason without the value.
func (o Outcome[T]) Summary() Summary {
	return Summary{Status: o.Status(), Reason: o.reason}
}

// String implements fmt.Stringer.
func (o Outcome[T]) String() string {
	if o.reason == "" {
		return o.Status().String()
	}
	return fmt.Sprintf("%s: %s", o.Status(), o.reason)
}

// Summary is the serializable form of an outcome.
type Summary struct {
	Status Status `json:"status" yaml:"status"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

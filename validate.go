package meterdb

import (
	"fmt"
	"time"
)

var (
	// MinReadingTime is the earliest accepted reading timestamp.
	MinReadingTime = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	// MaxReadingTime is the latest accepted reading timestamp.
	MaxReadingTime = time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// ValidationError reports a reading the ingestion pipeline would reject.
type ValidationError struct {
	// Field is the serialized name of the offending field.
	Field string
	// Message describes the violated rule.
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateMeterUsage checks that kwh is non-negative and ts lies within
// [MinReadingTime, MaxReadingTime].
func ValidateMeterUsage(m MeterUsage) error {
	if m.KWh < 0 {
		return &ValidationError{Field: "kwh", Message: "must be non-negative"}
	}
	return validateReadingTime(m.Ts)
}

// ValidateGenerationOutput checks that mw is non-negative and ts lies within
// [MinReadingTime, MaxReadingTime].
func ValidateGenerationOutput(g GenerationOutput) error {
	if g.MW < 0 {
		return &ValidationError{Field: "mw", Message: "must be non-negative"}
	}
	return validateReadingTime(g.Ts)
}

func validateReadingTime(ts time.Time) error {
	if ts.Before(MinReadingTime) || ts.After(MaxReadingTime) {
		return &ValidationError{Field: "ts", Message: "out of allowed range"}
	}
	return nil
}

/*
 * Copyright 2024 ScopeDB, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package meterdb

import (
	"fmt"
	"iter"
	"strings"
	"time"
)

// DefaultStart is the first instant used by the fixture producer when none is given.
const DefaultStart = "2024-01-01T00:00:00Z"

const timestampLayout = "2006-01-02T15:04:05Z"

// timestampBaseLayouts are the accepted forms of a timestamp once its Z suffix is removed.
// Fractional seconds are accepted after the seconds field by time.Parse.
var timestampBaseLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02T15",
	"2006-01-02 15",
	"2006-01-02",
	"20060102T150405",
	"20060102T1504",
	"20060102T15",
	"20060102",
}

// FormatError reports a timestamp that is not a UTC instant ending in a literal 'Z'.
type FormatError struct {
	// Value is the rejected input.
	Value string
	// Message describes why the input was rejected.
	Message string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid timestamp %q: %s", e.Value, e.Message)
}

// ParseTimestamp parses an RFC 3339 timestamp with a literal 'Z' suffix, e.g.
// 2024-01-01T00:00:00Z. The result is in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	base, ok := strings.CutSuffix(s, "Z")
	if !ok {
		return time.Time{}, &FormatError{Value: s, Message: "timestamp must end with 'Z'"}
	}
	for _, layout := range timestampBaseLayouts {
		if t, err := time.ParseInLocation(layout, base, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &FormatError{Value: s, Message: "not an ISO-8601 date-time"}
}

// FormatTimestamp renders t in UTC with whole-second precision and a 'Z' suffix.
// Fractional seconds are truncated.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(timestampLayout)
}

// TimeSpec describes an evenly spaced run of instants.
type TimeSpec struct {
	// Start is the first instant.
	Start time.Time
	// Step is added to produce each following instant. It may be zero or negative.
	Step time.Duration
}

// Times returns the first count instants of the spec: Start, Start+Step, ...
//
// The sequence is lazy and can be ranged over any number of times. A count of zero
// or less yields nothing.
func (s TimeSpec) Times(count int) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		t := s.Start
		for range max(count, 0) {
			if !yield(t) {
				return
			}
			t = t.Add(s.Step)
		}
	}
}

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

package meterdb_test

import (
	"errors"
	"testing"
	"time"

	meterdb "github.com/scopedb/meterdb-sdk/go"
	"github.com/stretchr/testify/require"
)

func TestValidateMeterUsage(t *testing.T) {
	ts := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, meterdb.ValidateMeterUsage(meterdb.MeterUsage{Ts: ts, MeterID: "m-1", KWh: 1.0}))
	require.NoError(t, meterdb.ValidateMeterUsage(meterdb.MeterUsage{Ts: ts, MeterID: "m-1"}))
	require.NoError(t, meterdb.ValidateMeterUsage(meterdb.MeterUsage{Ts: meterdb.MaxReadingTime, KWh: 1}))
	require.NoError(t, meterdb.ValidateMeterUsage(meterdb.MeterUsage{Ts: meterdb.MinReadingTime, KWh: 1}))

	var validationErr *meterdb.ValidationError
	err := meterdb.ValidateMeterUsage(meterdb.MeterUsage{Ts: ts, MeterID: "m-1", KWh: -0.1})
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, "kwh", validationErr.Field)
	require.EqualError(t, err, "kwh: must be non-negative")

	err = meterdb.ValidateMeterUsage(meterdb.MeterUsage{Ts: meterdb.MinReadingTime.Add(-time.Second), KWh: 1})
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, "ts", validationErr.Field)
}

func TestValidateGenerationOutput(t *testing.T) {
	ts := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, meterdb.ValidateGenerationOutput(meterdb.GenerationOutput{Ts: ts, PlantID: "plant-1", MW: 10}))

	var validationErr *meterdb.ValidationError
	err := meterdb.ValidateGenerationOutput(meterdb.GenerationOutput{Ts: ts, PlantID: "plant-1", MW: -1})
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, "mw", validationErr.Field)

	err = meterdb.ValidateGenerationOutput(meterdb.GenerationOutput{Ts: meterdb.MaxReadingTime.Add(time.Hour), MW: 1})
	require.EqualError(t, err, "ts: out of allowed range")
}

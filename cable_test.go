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
	"context"
	"errors"
	"net/http"
	"slices"
	"testing"
	"time"

	meterdb "github.com/scopedb/meterdb-sdk/go"
	"github.com/stretchr/testify/require"
)

func usageReadings(t *testing.T, n int) []meterdb.MeterUsage {
	return slices.Collect(meterdb.MeterUsageRecords(meterdb.MeterUsageParams{
		MeterID: "m-1",
		Count:   n,
		Times:   quarterHours(t),
		KWhBase: 1,
		KWhStep: 0.5,
	}))
}

func waitErr(t *testing.T, ch <-chan error) error {
	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the cable")
		return nil
	}
}

func TestIngestCableImmediateFlush(t *testing.T) {
	c, svc := newIngestClient(t, "")

	cable := meterdb.NewIngestCable[meterdb.MeterUsage](c, meterdb.MetricMeterUsage)
	// immediately flush
	cable.BatchSize = 0
	cable.Start(context.Background())

	for _, r := range usageReadings(t, 3) {
		require.NoError(t, waitErr(t, cable.Send(r)))
	}
	cable.Close()

	requests := svc.Requests()
	require.Len(t, requests, 3)
	for _, req := range requests {
		require.Len(t, req.Lines, 1)
		require.Equal(t, "/ingest/meter_usage/ndjson", req.Path)
	}
}

func TestIngestCableFlushesOnClose(t *testing.T) {
	c, svc := newIngestClient(t, "")

	cable := meterdb.NewIngestCable[meterdb.MeterUsage](c, meterdb.MetricMeterUsage)
	cable.BatchInterval = time.Hour
	cable.Start(context.Background())

	readings := usageReadings(t, 5)
	var results []<-chan error
	for _, r := range readings {
		results = append(results, cable.Send(r))
	}
	cable.Close()

	for _, ch := range results {
		require.NoError(t, waitErr(t, ch))
	}

	requests := svc.Requests()
	require.Len(t, requests, 1)
	require.Len(t, requests[0].Lines, 5)
	for i, line := range requests[0].Lines {
		want, err := readings[i].MarshalJSON()
		require.NoError(t, err)
		require.Equal(t, string(want), line)
	}
}

func TestIngestCableFlushesOnInterval(t *testing.T) {
	c, svc := newIngestClient(t, "")

	cable := meterdb.NewIngestCable[meterdb.MeterUsage](c, meterdb.MetricMeterUsage)
	cable.BatchInterval = 10 * time.Millisecond
	cable.Start(context.Background())
	defer cable.Close()

	require.NoError(t, waitErr(t, cable.Send(usageReadings(t, 1)[0])))
	require.Len(t, svc.Requests(), 1)
}

func TestIngestCableValidate(t *testing.T) {
	c, svc := newIngestClient(t, "")

	cable := meterdb.NewIngestCable[meterdb.MeterUsage](c, meterdb.MetricMeterUsage)
	cable.BatchSize = 0
	cable.Validate = meterdb.ValidateMeterUsage
	cable.Start(context.Background())

	bad := usageReadings(t, 1)[0]
	bad.KWh = -1
	var validationErr *meterdb.ValidationError
	require.True(t, errors.As(waitErr(t, cable.Send(bad)), &validationErr))
	require.NoError(t, waitErr(t, cable.Send(usageReadings(t, 1)[0])))
	cable.Close()

	requests := svc.Requests()
	require.Len(t, requests, 1)
	require.Len(t, requests[0].Lines, 1)
}

func TestIngestCableReportsFailures(t *testing.T) {
	c, svc := newIngestClient(t, "")
	svc.Fail(http.StatusServiceUnavailable)

	cable := meterdb.NewIngestCable[meterdb.MeterUsage](c, meterdb.MetricMeterUsage)
	cable.BatchSize = 0
	cable.Start(context.Background())
	defer cable.Close()

	err := waitErr(t, cable.Send(usageReadings(t, 1)[0]))
	require.ErrorContains(t, err, "503")
}

func TestIngestCableReportsParseErrors(t *testing.T) {
	c, svc := newIngestClient(t, "")
	svc.RejectLines(1)

	cable := meterdb.NewIngestCable[meterdb.MeterUsage](c, meterdb.MetricMeterUsage)
	cable.BatchInterval = time.Hour
	cable.Start(context.Background())

	var results []<-chan error
	for _, r := range usageReadings(t, 2) {
		results = append(results, cable.Send(r))
	}
	cable.Close()

	for _, ch := range results {
		var ingestErr *meterdb.IngestError
		require.True(t, errors.As(waitErr(t, ch), &ingestErr))
		require.EqualValues(t, 1, ingestErr.Accepted)
		require.EqualValues(t, 1, ingestErr.ParseErrors)
	}
}

func TestIngestCableCloseWithoutStart(t *testing.T) {
	c, _ := newIngestClient(t, "")
	cable := meterdb.NewIngestCable[meterdb.MeterUsage](c, meterdb.MetricMeterUsage)
	cable.Close()
}

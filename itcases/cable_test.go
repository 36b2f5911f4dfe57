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

package itcases

import (
	"context"
	"fmt"
	"testing"
	"time"

	meterdb "github.com/scopedb/meterdb-sdk/go"
	"github.com/stretchr/testify/require"
)

// createTables makes sure every known table exists; they are shared across runs.
func createTables(t *testing.T, ctx context.Context, c *meterdb.Client) {
	for _, name := range meterdb.TableNames() {
		require.NoError(t, c.Table(name).Create(ctx))
	}
}

func queryValues(ctx context.Context, c *meterdb.Client, sql string) ([][]meterdb.Value, error) {
	rs, err := c.Statement(sql).Execute(ctx)
	if err != nil {
		return nil, err
	}
	return rs.ToValues()
}

func TestLoadProfileQueries(t *testing.T) {
	c := NewClient(t)
	defer c.Close()

	ctx := context.Background()
	createTables(t, ctx, c)

	meterID := RandomName(t)
	for _, stmt := range []string{
		fmt.Sprintf(`INSERT INTO meter_usage (ts, meter_id, kwh) VALUES ('2024-01-01T00:00:00.000000Z', '%s', 1.5)`, meterID),
		fmt.Sprintf(`INSERT INTO meter_usage (ts, meter_id, kwh) VALUES ('2024-01-01T00:15:00.000000Z', '%s', 2.0)`, meterID),
		fmt.Sprintf(`INSERT INTO meter_scale_map (meter_id, from_ts, to_ts, kwh_multiplier) VALUES ('%s', '2024-01-01T00:10:00.000000Z', '2024-01-02T00:00:00.000000Z', 10.0)`, meterID),
	} {
		_, err := c.Statement(stmt).Execute(ctx)
		require.NoError(t, err)
	}

	day := meterdb.TimeRange{Start: "2024-01-01T00:00:00Z", End: "2024-01-02T00:00:00Z"}
	var unscaled, scaled [][]meterdb.Value
	require.Eventually(t, func() bool {
		var err error
		unscaled, err = queryValues(ctx, c, meterdb.LoadProfileQueryUnscaled(meterID, day))
		if err != nil || len(unscaled) != 2 {
			return false
		}
		scaled, err = queryValues(ctx, c, meterdb.LoadProfileQuery(meterID, day))
		return err == nil && len(scaled) == 2 && scaled[1][1] == 20.0
	}, 30*time.Second, 500*time.Millisecond)

	require.Equal(t, 1.5, unscaled[0][1])
	require.Equal(t, 2.0, unscaled[1][1])
	require.Equal(t, 1.5, scaled[0][1])
	require.Equal(t, time.Date(2024, time.January, 1, 0, 15, 0, 0, time.UTC), scaled[1][0])
}

func TestIngestCable(t *testing.T) {
	c := NewIngestClient(t)
	defer c.Close()

	ctx := context.Background()
	createTables(t, ctx, c)

	start, err := meterdb.ParseTimestamp("2024-02-01T00:00:00Z")
	require.NoError(t, err)
	meterID := RandomName(t)

	cable := meterdb.NewIngestCable[meterdb.MeterUsage](c, meterdb.MetricMeterUsage)
	// immediately flush
	cable.BatchSize = 0
	cable.Validate = meterdb.ValidateMeterUsage
	cable.Start(ctx)
	defer cable.Close()

	for r := range meterdb.MeterUsageRecords(meterdb.MeterUsageParams{
		MeterID: meterID,
		Count:   4,
		Times:   meterdb.TimeSpec{Start: start, Step: 15 * time.Minute},
		KWhBase: 1.0,
		KWhStep: 0.25,
	}) {
		require.NoError(t, <-cable.Send(r))
	}

	tr := meterdb.TimeRange{Start: "2024-02-01T00:00:00Z", End: "2024-02-02T00:00:00Z"}
	var values [][]meterdb.Value
	require.Eventually(t, func() bool {
		values, err = queryValues(ctx, c, meterdb.LoadProfileQueryUnscaled(meterID, tr))
		return err == nil && len(values) == 4
	}, 30*time.Second, 500*time.Millisecond)
	require.Equal(t, 1.75, values[3][1])
}

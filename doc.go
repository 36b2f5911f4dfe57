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

/*
Package meterdb synthesizes smart-meter readings and talks to the time-series
store that keeps them.

# Records

MeterUsageRecords and GenerationOutputRecords produce lazy, evenly spaced
reading sequences that can be written as NDJSON, line protocol or Arrow:

	start, err := meterdb.ParseTimestamp(meterdb.DefaultStart)
	if err != nil {
		return err
	}
	times := meterdb.TimeSpec{Start: start, Step: time.Hour}
	records := meterdb.MeterUsageRecords(meterdb.MeterUsageParams{
		MeterID: "MTR-1",
		Count:   24,
		Times:   times,
		KWhBase: 1.0,
		KWhStep: 0.1,
	})
	_, err = meterdb.WriteNDJSON(os.Stdout, records)

# Client

Use NewClient to create a client struct:

	client := meterdb.NewClient(&meterdb.Config{
		Endpoint:       "http://<store-host>:9000",
		IngestEndpoint: "http://<ingest-host>:8080",
	})

# Bulk Load

Build a CopyJob and run it against a table:

	job := meterdb.NewCopyJob("meter_usage", "meter_usage.csv")
	id, err := client.Table("meter_usage").Copy(ctx, job)

# Write Data via Cables

Use NewIngestCable to batch records to the ingestion service:

	cable := meterdb.NewIngestCable[meterdb.MeterUsage](client, meterdb.MetricMeterUsage)
	cable.Validate = meterdb.ValidateMeterUsage
	cable.Start(ctx)
	defer cable.Close()

	err := <-cable.Send(reading)

# Query Data

Render one of the query templates and execute it:

	s := client.Statement(meterdb.LoadProfileQuery("MTR-1", tr))
	result, err := s.Execute(ctx)
	if err != nil {
		return err
	}
	values, err := result.ToValues()

Feeder energy balance is recomputed in place from generation, scaled demand and the
feeder mappings:

	inserted, err := client.RecomputeFeederEnergyBalance(ctx, meterdb.DefaultLossAlertThreshold)
*/
package meterdb

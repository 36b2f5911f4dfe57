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
	"slices"
	"strings"
)

// Table names used by the queries and the ingestion pipeline.
const (
	TableMeterUsage       = "meter_usage"
	TableGenerationOutput = "generation_output"
	TableMeterScaleMap    = "meter_scale_map"
	TableMeters           = "meters"
	TableCustomers        = "customers"

	TableMeterFeederMap      = "meter_feeder_map"
	TablePlantFeederMap      = "plant_feeder_map"
	TableTopologyEvents      = "topology_events"
	TableMeterEvents         = "meter_events"
	TableFeederEnergyBalance = "feeder_energy_balance"
)

var createTableStatements = map[string]string{
	TableMeterUsage: `
CREATE TABLE IF NOT EXISTS meter_usage (
    ts            TIMESTAMP,
    event_id      SYMBOL,
    meter_id      SYMBOL,
    premise_id    SYMBOL,
    kwh           DOUBLE,
    kvarh         DOUBLE,
    kva_demand    DOUBLE,
    quality_flag  SYMBOL,
    source_system SYMBOL
) TIMESTAMP(ts) PARTITION BY DAY;
`,
	TableGenerationOutput: `
CREATE TABLE IF NOT EXISTS generation_output (
    ts        TIMESTAMP,
    event_id  SYMBOL,
    plant_id  SYMBOL,
    unit_id   SYMBOL,
    mw        DOUBLE,
    mvar      DOUBLE,
    status    SYMBOL,
    fuel_type SYMBOL
) TIMESTAMP(ts) PARTITION BY DAY;
`,
	// CT/PT or account multipliers, valid over [from_ts, to_ts).
	TableMeterScaleMap: `
CREATE TABLE IF NOT EXISTS meter_scale_map (
    meter_id         SYMBOL,
    account_id       SYMBOL,
    from_ts          TIMESTAMP,
    to_ts            TIMESTAMP,
    kwh_multiplier   DOUBLE,
    kw_multiplier    DOUBLE,
    kvarh_multiplier DOUBLE
) TIMESTAMP(from_ts) PARTITION BY YEAR;
`,
	TableMeters: `
CREATE TABLE IF NOT EXISTS meters (
    meter_id    SYMBOL,
    customer_id SYMBOL
);
`,
	TableCustomers: `
CREATE TABLE IF NOT EXISTS customers (
    customer_id SYMBOL,
    segment     SYMBOL
);
`,
	TableMeterFeederMap: `
CREATE TABLE IF NOT EXISTS meter_feeder_map (
    meter_id   SYMBOL,
    feeder_id  SYMBOL,
    from_ts    TIMESTAMP,
    to_ts      TIMESTAMP
) TIMESTAMP(from_ts) PARTITION BY YEAR;
`,
	// A NULL unit_id maps every unit of the plant.
	TablePlantFeederMap: `
CREATE TABLE IF NOT EXISTS plant_feeder_map (
    plant_id   SYMBOL,
    unit_id    SYMBOL,
    feeder_id  SYMBOL,
    from_ts    TIMESTAMP,
    to_ts      TIMESTAMP
) TIMESTAMP(from_ts) PARTITION BY YEAR;
`,
	TableTopologyEvents: `
CREATE TABLE IF NOT EXISTS topology_events (
    ts          TIMESTAMP,
    feeder_id   SYMBOL,
    event_type  SYMBOL,
    details     STRING
) TIMESTAMP(ts);
`,
	TableMeterEvents: `
CREATE TABLE IF NOT EXISTS meter_events (
    ts          TIMESTAMP,
    meter_id    SYMBOL,
    event_type  SYMBOL,
    details     STRING
) TIMESTAMP(ts);
`,
	TableFeederEnergyBalance: `
CREATE TABLE IF NOT EXISTS feeder_energy_balance (
    ts                  TIMESTAMP,
    feeder_id           SYMBOL,
    feeder_kwh_gen      DOUBLE,
    feeder_kwh_demand   DOUBLE,
    loss_kwh            DOUBLE,
    loss_pct            DOUBLE,
    meter_coverage_pct  DOUBLE,
    data_quality_score  DOUBLE,
    cause_hint          SYMBOL,
    alert               BOOLEAN
) TIMESTAMP(ts) PARTITION BY MONTH;
`,
}

// CreateTableStatement returns the idempotent DDL of a known table.
func CreateTableStatement(table string) (string, bool) {
	stmt, ok := createTableStatements[table]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(stmt), true
}

// TableNames returns the names of all tables with known DDL, sorted.
func TableNames() []string {
	names := make([]string, 0, len(createTableStatements))
	for name := range createTableStatements {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

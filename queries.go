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
	"strconv"
	"strings"
)

// DefaultSampleBy is the downsampling interval used when none is given.
const DefaultSampleBy = "1h"

// DefaultLossAlertThreshold is the |loss_pct| above which a feeder interval is flagged.
const DefaultLossAlertThreshold = 0.02

// TimeRange is a half-open [Start, End) window of ISO-8601 timestamp literals.
//
// Both bounds are interpolated verbatim; they are neither parsed nor validated.
type TimeRange struct {
	Start string
	End   string
}

// LoadProfileQuery returns the SQL for a time-ordered load profile of one meter.
//
// Readings are corrected by the meter_scale_map.kwh_multiplier in effect at each
// reading's timestamp, so the returned kWh reflect actual usage rather than raw
// register values. Meters without a multiplier use 1.0.
func LoadProfileQuery(meterID string, tr TimeRange) string {
	return strings.TrimSpace(fmt.Sprintf(`
SELECT
    mu.ts,
    mu.kwh * COALESCE(msm.kwh_multiplier, 1.0) AS kwh
FROM meter_usage mu
LEFT JOIN meter_scale_map msm
  ON msm.meter_id = mu.meter_id
 AND msm.from_ts <= mu.ts
 AND msm.to_ts   >  mu.ts
WHERE mu.meter_id = '%s'
  AND mu.ts >= '%s'
  AND mu.ts <  '%s'
ORDER BY mu.ts;
`, meterID, tr.Start, tr.End))
}

// LoadProfileQueryUnscaled returns the SQL for a time-ordered load profile of one
// meter using raw register values.
func LoadProfileQueryUnscaled(meterID string, tr TimeRange) string {
	return strings.TrimSpace(fmt.Sprintf(`
SELECT
    mu.ts,
    mu.kwh
FROM meter_usage mu
WHERE mu.meter_id = '%s'
  AND mu.ts >= '%s'
  AND mu.ts <  '%s'
ORDER BY mu.ts;
`, meterID, tr.Start, tr.End))
}

// AggregatedSegmentLoadQuery returns the SQL aggregating scaled kWh by customer
// segment, downsampled to sampleBy buckets aligned to the calendar. An empty
// sampleBy means DefaultSampleBy.
func AggregatedSegmentLoadQuery(segments []string, tr TimeRange, sampleBy string) string {
	return strings.TrimSpace(fmt.Sprintf(`
SELECT
    mu.ts,
    c.segment,
    SUM(mu.kwh * COALESCE(msm.kwh_multiplier, 1.0)) AS total_kwh
FROM meter_usage mu
JOIN meters m ON mu.meter_id = m.meter_id
JOIN customers c ON m.customer_id = c.customer_id
LEFT JOIN meter_scale_map msm
  ON msm.meter_id = mu.meter_id
 AND msm.from_ts <= mu.ts
 AND msm.to_ts   >  mu.ts
WHERE mu.ts >= '%s'
  AND mu.ts <  '%s'
  AND c.segment IN (%s)
SAMPLE BY %s ALIGN TO CALENDAR
GROUP BY segment, ts
ORDER BY ts, segment;
`, tr.Start, tr.End, segmentList(segments), sampleByOrDefault(sampleBy)))
}

// AggregatedSegmentLoadQueryUnscaled is AggregatedSegmentLoadQuery over raw register
// values, without the scale map join.
func AggregatedSegmentLoadQueryUnscaled(segments []string, tr TimeRange, sampleBy string) string {
	return strings.TrimSpace(fmt.Sprintf(`
SELECT
    mu.ts,
    c.segment,
    SUM(mu.kwh) AS total_kwh
FROM meter_usage mu
JOIN meters m ON mu.meter_id = m.meter_id
JOIN customers c ON m.customer_id = c.customer_id
WHERE mu.ts >= '%s'
  AND mu.ts <  '%s'
  AND c.segment IN (%s)
SAMPLE BY %s ALIGN TO CALENDAR
GROUP BY segment, ts
ORDER BY ts, segment;
`, tr.Start, tr.End, segmentList(segments), sampleByOrDefault(sampleBy)))
}

// FeederEnergyBalanceQuery returns the statement that fills feeder_energy_balance with
// one row per feeder and generation interval.
//
// Generation is mapped to feeders through plant_feeder_map, assuming 15-minute
// intervals (MW * 0.25 = kWh). Demand is scaled meter usage mapped through
// meter_feeder_map. loss_pct is NULL when generation is zero. alert is set when
// |loss_pct| exceeds threshold. cause_hint is the first match of: no generation
// (unknown), coverage below 90% (data), topology events (topology), theft-type meter
// events (theft), |loss_pct| within 5% (physics), otherwise unknown.
//
// The statement appends; run it against an empty table to recompute from scratch.
func FeederEnergyBalanceQuery(threshold float64) string {
	return strings.TrimSpace(strings.Replace(feederEnergyBalanceTemplate, "$1",
		strconv.FormatFloat(threshold, 'f', -1, 64), 1))
}

const feederEnergyBalanceTemplate = `
INSERT INTO feeder_energy_balance
SELECT
    g.ts,
    g.feeder_id,
    g.feeder_kwh_gen,
    COALESCE(d.feeder_kwh_demand, 0)                                       AS feeder_kwh_demand,
    g.feeder_kwh_gen - COALESCE(d.feeder_kwh_demand, 0)                   AS loss_kwh,
    CASE WHEN g.feeder_kwh_gen = 0 THEN NULL
         ELSE (g.feeder_kwh_gen - COALESCE(d.feeder_kwh_demand, 0)) / g.feeder_kwh_gen
    END                                                                   AS loss_pct,
    COALESCE(c.meter_coverage_pct, 1.0)                                   AS meter_coverage_pct,
    CASE
        WHEN c.meter_coverage_pct IS NULL THEN 1.0
        ELSE c.meter_coverage_pct
    END                                                                   AS data_quality_score,
    CASE
        WHEN g.feeder_kwh_gen = 0 THEN 'unknown'
        WHEN c.meter_coverage_pct IS NOT NULL AND c.meter_coverage_pct < 0.9 THEN 'data'
        WHEN t.topology_events > 0 THEN 'topology'
        WHEN th.theft_events > 0 AND (c.meter_coverage_pct IS NULL OR c.meter_coverage_pct >= 0.9) THEN 'theft'
        WHEN g.feeder_kwh_gen > 0
             AND ABS((g.feeder_kwh_gen - COALESCE(d.feeder_kwh_demand, 0)) / g.feeder_kwh_gen) <= 0.05
             THEN 'physics'
        ELSE 'unknown'
    END                                                                   AS cause_hint,
    CASE
        WHEN g.feeder_kwh_gen = 0 THEN FALSE
        WHEN ABS((g.feeder_kwh_gen - COALESCE(d.feeder_kwh_demand, 0)) / g.feeder_kwh_gen) > $1
            THEN TRUE
        ELSE FALSE
    END                                                                   AS alert
FROM (
    SELECT
        go.ts,
        pfm.feeder_id,
        SUM(go.mw) * 0.25 AS feeder_kwh_gen
    FROM generation_output go
    JOIN plant_feeder_map pfm
      ON pfm.plant_id = go.plant_id
     AND (pfm.unit_id IS NULL OR pfm.unit_id = go.unit_id)
     AND pfm.from_ts <= go.ts
     AND pfm.to_ts   >  go.ts
    GROUP BY go.ts, pfm.feeder_id
) g
LEFT JOIN (
    SELECT
        mu.ts,
        mfm.feeder_id,
        SUM(mu.kwh * COALESCE(msm.kwh_multiplier, 1.0)) AS feeder_kwh_demand
    FROM meter_usage mu
    JOIN meter_feeder_map mfm
      ON mfm.meter_id = mu.meter_id
     AND mfm.from_ts <= mu.ts
     AND mfm.to_ts   >  mu.ts
    LEFT JOIN meter_scale_map msm
      ON msm.meter_id = mu.meter_id
     AND msm.from_ts <= mu.ts
     AND msm.to_ts   >  mu.ts
    GROUP BY mu.ts, mfm.feeder_id
) d
  ON d.ts = g.ts
 AND d.feeder_id = g.feeder_id
LEFT JOIN (
    SELECT
        mfm.feeder_id,
        mu.ts,
        COUNT(DISTINCT mu.meter_id) * 1.0 / NULLIF(COUNT(DISTINCT mfm.meter_id), 0) AS meter_coverage_pct
    FROM meter_feeder_map mfm
    LEFT JOIN meter_usage mu
      ON mu.meter_id = mfm.meter_id
     AND mu.ts      >= mfm.from_ts
     AND mu.ts      <  mfm.to_ts
    GROUP BY mfm.feeder_id, mu.ts
) c
  ON c.ts = g.ts
 AND c.feeder_id = g.feeder_id
LEFT JOIN (
    SELECT
        feeder_id,
        ts,
        COUNT(*) AS topology_events
    FROM topology_events
    GROUP BY feeder_id, ts
) t
  ON t.ts = g.ts
 AND t.feeder_id = g.feeder_id
LEFT JOIN (
    SELECT
        mfm.feeder_id,
        me.ts,
        COUNT(*) AS theft_events
    FROM meter_events me
    JOIN meter_feeder_map mfm
      ON mfm.meter_id = me.meter_id
     AND mfm.from_ts <= me.ts
     AND mfm.to_ts   >  me.ts
    WHERE me.event_type IN ('tamper', 'reverse_run', 'magnetic', 'theft_suspect')
    GROUP BY mfm.feeder_id, me.ts
) th
  ON th.ts = g.ts
 AND th.feeder_id = g.feeder_id;
`

// segmentList renders 'a', 'b', ... preserving order and duplicates. Quotes inside a
// segment are not escaped.
func segmentList(segments []string) string {
	quoted := make([]string, 0, len(segments))
	for _, s := range segments {
		quoted = append(quoted, "'"+s+"'")
	}
	return strings.Join(quoted, ", ")
}

func sampleByOrDefault(sampleBy string) string {
	if sampleBy == "" {
		return DefaultSampleBy
	}
	return sampleBy
}

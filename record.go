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
	"iter"
	"time"
)

// valueDecimals is the number of decimal digits synthesized readings are rounded to.
const valueDecimals = 6

// MeterUsage is a periodic energy-consumption reading from a utility meter.
type MeterUsage struct {
	// Ts is the reading instant.
	Ts time.Time
	// MeterID identifies the meter.
	MeterID string
	// PremiseID identifies the served premise, if known.
	PremiseID *string
	// KWh is the consumed energy in kilowatt-hours.
	KWh float64
}

// MarshalJSON renders the reading as {"ts":...,"meter_id":...,"premise_id":...,"kwh":...}.
// premise_id is always present and null when unknown.
func (m MeterUsage) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, 96)
	b = append(b, `{"ts":`...)
	b = appendString(b, FormatTimestamp(m.Ts))
	b = append(b, `,"meter_id":`...)
	b = appendString(b, m.MeterID)
	b = append(b, `,"premise_id":`...)
	b = appendOptionalString(b, m.PremiseID)
	b = append(b, `,"kwh":`...)
	b = appendFloat(b, m.KWh)
	return append(b, '}'), nil
}

// GenerationOutput is a periodic power-output reading from a generation plant or unit.
type GenerationOutput struct {
	// Ts is the reading instant.
	Ts time.Time
	// PlantID identifies the plant.
	PlantID string
	// UnitID identifies the unit within the plant, if any.
	UnitID *string
	// MW is the output in megawatts.
	MW float64
}

// MarshalJSON renders the reading as {"ts":...,"plant_id":...,"mw":...,"unit_id":...}.
// unit_id is omitted when nil.
func (g GenerationOutput) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, 96)
	b = append(b, `{"ts":`...)
	b = appendString(b, FormatTimestamp(g.Ts))
	b = append(b, `,"plant_id":`...)
	b = appendString(b, g.PlantID)
	b = append(b, `,"mw":`...)
	b = appendFloat(b, g.MW)
	if g.UnitID != nil {
		b = append(b, `,"unit_id":`...)
		b = appendString(b, *g.UnitID)
	}
	return append(b, '}'), nil
}

// MeterUsageParams configures MeterUsageRecords.
type MeterUsageParams struct {
	MeterID   string
	PremiseID *string
	Count     int
	Times     TimeSpec
	KWhBase   float64
	KWhStep   float64
}

// MeterUsageRecords synthesizes Count readings at p.Times. Reading i has
// KWh = round(KWhBase + i*KWhStep, 6).
func MeterUsageRecords(p MeterUsageParams) iter.Seq[MeterUsage] {
	return func(yield func(MeterUsage) bool) {
		i := 0
		for ts := range p.Times.Times(p.Count) {
			rec := MeterUsage{
				Ts:        ts,
				MeterID:   p.MeterID,
				PremiseID: p.PremiseID,
				KWh:       roundDecimals(p.KWhBase+float64(i)*p.KWhStep, valueDecimals),
			}
			if !yield(rec) {
				return
			}
			i++
		}
	}
}

// GenerationOutputParams configures GenerationOutputRecords.
type GenerationOutputParams struct {
	PlantID string
	UnitID  *string
	Count   int
	Times   TimeSpec
	MWBase  float64
	MWStep  float64
}

// GenerationOutputRecords synthesizes Count readings at p.Times. Reading i has
// MW = round(MWBase + i*MWStep, 6).
func GenerationOutputRecords(p GenerationOutputParams) iter.Seq[GenerationOutput] {
	return func(yield func(GenerationOutput) bool) {
		i := 0
		for ts := range p.Times.Times(p.Count) {
			rec := GenerationOutput{
				Ts:      ts,
				PlantID: p.PlantID,
				UnitID:  p.UnitID,
				MW:      roundDecimals(p.MWBase+float64(i)*p.MWStep, valueDecimals),
			}
			if !yield(rec) {
				return
			}
			i++
		}
	}
}

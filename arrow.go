package meterdb

import (
	"bytes"
	"encoding/base64"
	"errors"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// MeterUsageSchema is the Arrow schema of MeterUsageBatch records.
var MeterUsageSchema = arrow.NewSchema([]arrow.Field{
	{Name: "ts", Type: arrow.FixedWidthTypes.Timestamp_us},
	{Name: "meter_id", Type: arrow.BinaryTypes.String},
	{Name: "premise_id", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "kwh", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// GenerationOutputSchema is the Arrow schema of GenerationOutputBatch records.
var GenerationOutputSchema = arrow.NewSchema([]arrow.Field{
	{Name: "ts", Type: arrow.FixedWidthTypes.Timestamp_us},
	{Name: "plant_id", Type: arrow.BinaryTypes.String},
	{Name: "unit_id", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "mw", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// MeterUsageBatch builds a record batch of the readings. The caller owns the
// returned record and must Release it.
func MeterUsageBatch(readings []MeterUsage) arrow.Record {
	b := array.NewRecordBuilder(memory.DefaultAllocator, MeterUsageSchema)
	defer b.Release()

	for _, m := range readings {
		b.Field(0).(*array.TimestampBuilder).Append(arrow.Timestamp(m.Ts.UnixMicro()))
		b.Field(1).(*array.StringBuilder).Append(m.MeterID)
		appendOptional(b.Field(2).(*array.StringBuilder), m.PremiseID)
		b.Field(3).(*array.Float64Builder).Append(m.KWh)
	}
	return b.NewRecord()
}

// GenerationOutputBatch builds a record batch of the readings. The caller owns the
// returned record and must Release it.
func GenerationOutputBatch(readings []GenerationOutput) arrow.Record {
	b := array.NewRecordBuilder(memory.DefaultAllocator, GenerationOutputSchema)
	defer b.Release()

	for _, g := range readings {
		b.Field(0).(*array.TimestampBuilder).Append(arrow.Timestamp(g.Ts.UnixMicro()))
		b.Field(1).(*array.StringBuilder).Append(g.PlantID)
		appendOptional(b.Field(2).(*array.StringBuilder), g.UnitID)
		b.Field(3).(*array.Float64Builder).Append(g.MW)
	}
	return b.NewRecord()
}

func appendOptional(b *array.StringBuilder, s *string) {
	if s == nil {
		b.AppendNull()
		return
	}
	b.Append(*s)
}

// EncodeArrowBatches encodes the given record batches as a base64 encoded Arrow IPC stream.
func EncodeArrowBatches(schema *arrow.Schema, batches []arrow.Record) (payload []byte, err error) {
	if len(batches) == 0 {
		return nil, errors.New("cannot encode empty batches")
	}

	var buf bytes.Buffer
	defer func() {
		if err == nil {
			payload = buf.Bytes()
		}
	}()

	encoder := base64.NewEncoder(base64.StdEncoding, &buf)
	defer func() {
		err = errors.Join(err, encoder.Close())
	}()

	writer := ipc.NewWriter(encoder, ipc.WithSchema(schema))
	defer func() {
		err = errors.Join(err, writer.Close())
	}()

	for _, batch := range batches {
		if err := writer.Write(batch); err != nil {
			return nil, err
		}
	}
	return
}

// DecodeArrowBatches decodes a base64 encoded Arrow IPC stream into record batches.
// The caller owns the returned records.
func DecodeArrowBatches(data []byte) ([]arrow.Record, error) {
	decoder := base64.NewDecoder(base64.StdEncoding, bytes.NewReader(data))
	reader, err := ipc.NewReader(decoder, ipc.WithDelayReadSchema(true))
	if err != nil {
		return nil, err
	}
	defer reader.Release()

	batches := make([]arrow.Record, 0)
	for reader.Next() {
		batch := reader.Record()
		batch.Retain()
		batches = append(batches, batch)
	}
	return batches, reader.Err()
}

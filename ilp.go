package meterdb

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"iter"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// eventNamespace scopes the name-based UUIDs used as event ids.
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://scopedb.io/meterdb/events"))

// eventHasher accumulates a length-prefixed canonical encoding of a reading.
type eventHasher struct {
	buf bytes.Buffer
}

func (h *eventHasher) time(t time.Time) {
	_ = binary.Write(&h.buf, binary.LittleEndian, t.UnixNano())
}

func (h *eventHasher) string(s string) {
	_ = binary.Write(&h.buf, binary.LittleEndian, uint32(len(s)))
	h.buf.WriteString(s)
}

func (h *eventHasher) optionalString(s *string) {
	if s == nil {
		h.buf.WriteByte(0)
		return
	}
	h.buf.WriteByte(1)
	h.string(*s)
}

func (h *eventHasher) float(v float64) {
	_ = binary.Write(&h.buf, binary.LittleEndian, math.Float64bits(v))
}

func (h *eventHasher) sum() uuid.UUID {
	return uuid.NewSHA1(eventNamespace, h.buf.Bytes())
}

// EventID returns a deterministic id of the reading's content. Replaying the same
// reading yields the same id.
func (m MeterUsage) EventID() uuid.UUID {
	var h eventHasher
	h.string(TableMeterUsage)
	h.time(m.Ts)
	h.string(m.MeterID)
	h.optionalString(m.PremiseID)
	h.float(m.KWh)
	return h.sum()
}

// EventID returns a deterministic id of the reading's content. Replaying the same
// reading yields the same id.
func (g GenerationOutput) EventID() uuid.UUID {
	var h eventHasher
	h.string(TableGenerationOutput)
	h.time(g.Ts)
	h.string(g.PlantID)
	h.optionalString(g.UnitID)
	h.float(g.MW)
	return h.sum()
}

// Point converts the reading to a line-protocol point: ids become tags (SYMBOL
// columns), kwh a field.
func (m MeterUsage) Point() *write.Point {
	p := write.NewPointWithMeasurement(TableMeterUsage).
		AddTag("event_id", m.EventID().String()).
		AddTag("meter_id", m.MeterID).
		AddField("kwh", m.KWh).
		SetTime(m.Ts)
	if m.PremiseID != nil {
		p.AddTag("premise_id", *m.PremiseID)
	}
	return p
}

// Point converts the reading to a line-protocol point: ids become tags (SYMBOL
// columns), mw a field.
func (g GenerationOutput) Point() *write.Point {
	p := write.NewPointWithMeasurement(TableGenerationOutput).
		AddTag("event_id", g.EventID().String()).
		AddTag("plant_id", g.PlantID).
		AddField("mw", g.MW).
		SetTime(g.Ts)
	if g.UnitID != nil {
		p.AddTag("unit_id", *g.UnitID)
	}
	return p
}

// LineProtocol encodes the reading as one newline-terminated ILP line with a
// nanosecond timestamp.
func (m MeterUsage) LineProtocol() string {
	return write.PointToLineProtocol(m.Point(), time.Nanosecond)
}

// LineProtocol encodes the reading as one newline-terminated ILP line with a
// nanosecond timestamp.
func (g GenerationOutput) LineProtocol() string {
	return write.PointToLineProtocol(g.Point(), time.Nanosecond)
}

// LineProtocolEncoder is implemented by readings that encode to ILP.
type LineProtocolEncoder interface {
	LineProtocol() string
}

// WriteLineProtocol writes one ILP line per reading, in sequence order, and returns
// the number of lines written.
func WriteLineProtocol[R LineProtocolEncoder](w io.Writer, records iter.Seq[R]) (int, error) {
	bw := bufio.NewWriter(w)
	n := 0
	for rec := range records {
		line := rec.LineProtocol()
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}
		if _, err := bw.WriteString(line); err != nil {
			return n, err
		}
		n++
	}
	return n, bw.Flush()
}

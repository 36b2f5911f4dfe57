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
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"iter"
	"math"
	"strconv"
	"strings"
)

// ContentTypeNDJSON is the media type of newline-delimited JSON bodies.
const ContentTypeNDJSON = "application/x-ndjson"

// WriteNDJSON writes each record as one compact JSON line, in sequence order.
// It returns the number of records written.
//
// Records are serialized with their own MarshalJSON; the output is not passed through
// encoding/json, which would rewrite '&', '<' and '>' inside strings.
func WriteNDJSON[R json.Marshaler](w io.Writer, records iter.Seq[R]) (int, error) {
	bw := bufio.NewWriter(w)
	n := 0
	for rec := range records {
		line, err := rec.MarshalJSON()
		if err != nil {
			return n, err
		}
		if _, err := bw.Write(line); err != nil {
			return n, err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return n, err
		}
		n++
	}
	return n, bw.Flush()
}

// MarshalNDJSON renders records as an NDJSON body.
func MarshalNDJSON[R json.Marshaler](records iter.Seq[R]) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := WriteNDJSON(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// roundDecimals rounds v to the given number of decimal digits, half to even on the
// exact binary value.
func roundDecimals(v float64, digits int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', digits, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// appendFloat appends v in its shortest round-trip form. Integral values keep a
// trailing ".0" and magnitudes outside [1e-4, 1e16) use exponent notation, so 1 is
// written as 1.0 and 0.00001 as 1e-05.
func appendFloat(b []byte, v float64) []byte {
	switch {
	case math.IsNaN(v):
		return append(b, "NaN"...)
	case math.IsInf(v, 1):
		return append(b, "Infinity"...)
	case math.IsInf(v, -1):
		return append(b, "-Infinity"...)
	case v == 0:
		if math.Signbit(v) {
			return append(b, "-0.0"...)
		}
		return append(b, "0.0"...)
	}

	sci := strconv.FormatFloat(v, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err != nil || exp < -4 || exp >= 16 {
		return append(b, sci...)
	}

	start := len(b)
	b = strconv.AppendFloat(b, v, 'f', -1, 64)
	if !strings.ContainsRune(string(b[start:]), '.') {
		b = append(b, ".0"...)
	}
	return b
}

// appendString appends s as a JSON string literal with every non-ASCII character
// escaped as \uXXXX.
func appendString(b []byte, s string) []byte {
	const hex = "0123456789abcdef"
	escape := func(b []byte, r rune) []byte {
		return append(b, '\\', 'u', hex[r>>12&0xf], hex[r>>8&0xf], hex[r>>4&0xf], hex[r&0xf])
	}

	b = append(b, '"')
	for _, r := range s {
		switch {
		case r == '"':
			b = append(b, '\\', '"')
		case r == '\\':
			b = append(b, '\\', '\\')
		case r == '\n':
			b = append(b, '\\', 'n')
		case r == '\r':
			b = append(b, '\\', 'r')
		case r == '\t':
			b = append(b, '\\', 't')
		case r == '\b':
			b = append(b, '\\', 'b')
		case r == '\f':
			b = append(b, '\\', 'f')
		case r >= 0x20 && r < 0x7f:
			b = append(b, byte(r))
		case r > 0xffff:
			r -= 0x10000
			b = escape(b, 0xd800+(r>>10)&0x3ff)
			b = escape(b, 0xdc00+r&0x3ff)
		default:
			b = escape(b, r)
		}
	}
	return append(b, '"')
}

func appendOptionalString(b []byte, s *string) []byte {
	if s == nil {
		return append(b, "null"...)
	}
	return appendString(b, *s)
}

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
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Value stores the contents of a single cell from a statement result.
type Value any

// ResultSet stores the result of a statement execution.
type ResultSet struct {
	// TotalRows is the total number of rows in the result set.
	TotalRows uint64
	// Schema is the schema of the result set.
	Schema Schema

	rows json.RawMessage
}

// ToValues reads the result set and returns the rows as a 2D array of values,
// i.e., rows of value lists.
func (rs *ResultSet) ToValues() ([][]Value, error) {
	if len(rs.rows) == 0 {
		return nil, nil
	}

	var rows [][]json.RawMessage
	if err := json.Unmarshal(rs.rows, &rows); err != nil {
		return nil, err
	}

	var valueLists [][]Value
	for _, r := range rows {
		if len(r) != len(rs.Schema) {
			return nil, errors.New("schema length does not match record length")
		}

		values := make([]Value, 0, len(r))
		for i, v := range r {
			val, err := convertValue(v, rs.Schema[i].Type)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", rs.Schema[i].Name, err)
			}
			values = append(values, val)
		}
		valueLists = append(valueLists, values)
	}
	return valueLists, nil
}

func convertValue(v json.RawMessage, typ DataType) (Value, error) {
	if string(v) == "null" {
		return nil, nil
	}

	switch typ.normalize() {
	case StringDataType, SymbolDataType, VarcharDataType, CharDataType:
		var s string
		err := json.Unmarshal(v, &s)
		return s, err
	case LongDataType, IntDataType, ShortDataType, ByteDataType:
		var i int64
		err := json.Unmarshal(v, &i)
		return i, err
	case DoubleDataType, FloatDataType:
		var f float64
		err := json.Unmarshal(v, &f)
		return f, err
	case BooleanDataType:
		var b bool
		err := json.Unmarshal(v, &b)
		return b, err
	case TimestampDataType, DateDataType:
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, err
		}
		return time.Parse(time.RFC3339Nano, s)
	case UUIDDataType:
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, err
		}
		return uuid.Parse(s)
	default:
		return nil, fmt.Errorf("unrecognized type: %s", typ)
	}
}

// Schema describes the fields in a table or query result.
type Schema []*FieldSchema

// FieldSchema describes a single field.
type FieldSchema struct {
	// Name is the field name.
	Name string `json:"name"`
	// Type is the field data type.
	Type DataType `json:"type"`
}

// DataType is the type of field, as the store names it.
type DataType string

const (
	// StringDataType is a string data type.
	StringDataType DataType = "STRING"
	// SymbolDataType is an interned string data type.
	SymbolDataType DataType = "SYMBOL"
	// VarcharDataType is a variable length string data type.
	VarcharDataType DataType = "VARCHAR"
	// CharDataType is a single character data type.
	CharDataType DataType = "CHAR"
	// LongDataType is a 64-bit integer data type.
	LongDataType DataType = "LONG"
	// IntDataType is a 32-bit integer data type.
	IntDataType DataType = "INT"
	// ShortDataType is a 16-bit integer data type.
	ShortDataType DataType = "SHORT"
	// ByteDataType is an 8-bit integer data type.
	ByteDataType DataType = "BYTE"
	// DoubleDataType is a 64-bit float data type.
	DoubleDataType DataType = "DOUBLE"
	// FloatDataType is a 32-bit float data type.
	FloatDataType DataType = "FLOAT"
	// BooleanDataType is a bool data type.
	BooleanDataType DataType = "BOOLEAN"
	// TimestampDataType is a microsecond timestamp data type.
	TimestampDataType DataType = "TIMESTAMP"
	// DateDataType is a millisecond date data type.
	DateDataType DataType = "DATE"
	// UUIDDataType is a UUID data type.
	UUIDDataType DataType = "UUID"
)

func (t DataType) normalize() DataType {
	return DataType(strings.ToUpper(string(t)))
}

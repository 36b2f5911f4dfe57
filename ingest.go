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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
)

const (
	// MetricMeterUsage is the ingestion route for MeterUsage records.
	MetricMeterUsage = "meter_usage"
	// MetricGenerationOutput is the ingestion route for GenerationOutput records.
	MetricGenerationOutput = "generation_output"
)

// IngestResponse is the ingestion service's summary of one request.
type IngestResponse struct {
	// Accepted is the number of records queued for storage.
	Accepted uint64 `json:"accepted"`
	// ParseErrors is the number of lines the service could not parse.
	ParseErrors uint64 `json:"parse_errors"`
}

// IngestError reports a request in which the ingestion service rejected some lines.
type IngestError struct {
	Accepted    uint64
	ParseErrors uint64
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest rejected %d of %d records", e.ParseErrors, e.Accepted+e.ParseErrors)
}

// Ingest posts an NDJSON body to the ingestion service under the given metric.
func (c *Client) Ingest(ctx context.Context, metric string, body []byte) (*IngestResponse, error) {
	u, err := c.endpointURL(c.config.IngestEndpoint, "ingest/"+metric+"/ndjson", nil)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Content-Type", ContentTypeNDJSON)
	if c.config.Token != "" {
		header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.http.Post(ctx, u, header, body)
	if err != nil {
		return nil, err
	}
	defer sneakyBodyClose(resp.Body)
	if err := checkStatusCodeOK(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var respData IngestResponse
	if err := json.Unmarshal(data, &respData); err != nil {
		return nil, err
	}
	return &respData, nil
}

// IngestRecords encodes the records as NDJSON and posts them in one request.
// An empty sequence sends nothing.
func IngestRecords[R json.Marshaler](ctx context.Context, c *Client, metric string, records iter.Seq[R]) (*IngestResponse, error) {
	body, err := MarshalNDJSON(records)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return &IngestResponse{}, nil
	}
	return c.Ingest(ctx, metric, body)
}

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

package meterdb_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"

	meterdb "github.com/scopedb/meterdb-sdk/go"
	"github.com/stretchr/testify/require"
)

type ingestRequest struct {
	Path          string
	ContentType   string
	Authorization string
	Lines         []string
}

// fakeIngestService accepts NDJSON posts and records them.
type fakeIngestService struct {
	mu          sync.Mutex
	requests    []ingestRequest
	status      int
	parseErrors int
}

func (s *fakeIngestService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var lines []string
	for _, line := range bytes.Split(bytes.TrimSuffix(body, []byte("\n")), []byte("\n")) {
		if len(line) > 0 {
			lines = append(lines, string(line))
		}
	}

	s.mu.Lock()
	s.requests = append(s.requests, ingestRequest{
		Path:          r.URL.Path,
		ContentType:   r.Header.Get("Content-Type"),
		Authorization: r.Header.Get("Authorization"),
		Lines:         lines,
	})
	status, parseErrors := s.status, s.parseErrors
	s.mu.Unlock()

	if status != 0 && status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}
	_, _ = fmt.Fprintf(w, `{"accepted":%d,"parse_errors":%d}`, len(lines)-parseErrors, parseErrors)
}

func (s *fakeIngestService) Fail(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *fakeIngestService) RejectLines(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parseErrors = n
}

func (s *fakeIngestService) Requests() []ingestRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

func newIngestClient(t *testing.T, token string) (*meterdb.Client, *fakeIngestService) {
	svc := &fakeIngestService{}
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)

	c := meterdb.NewClient(&meterdb.Config{IngestEndpoint: srv.URL, Token: token})
	t.Cleanup(c.Close)
	return c, svc
}

func TestIngest(t *testing.T) {
	c, svc := newIngestClient(t, "secret")

	body := []byte(`{"ts":"2024-01-01T00:00:00Z","meter_id":"m-1","premise_id":null,"kwh":1.0}` + "\n")
	resp, err := c.Ingest(context.Background(), meterdb.MetricMeterUsage, body)
	require.NoError(t, err)
	require.Equal(t, &meterdb.IngestResponse{Accepted: 1}, resp)

	require.Equal(t, []ingestRequest{{
		Path:          "/ingest/meter_usage/ndjson",
		ContentType:   "application/x-ndjson",
		Authorization: "Bearer secret",
		Lines:         []string{`{"ts":"2024-01-01T00:00:00Z","meter_id":"m-1","premise_id":null,"kwh":1.0}`},
	}}, svc.Requests())
}

func TestIngestWithoutToken(t *testing.T) {
	c, svc := newIngestClient(t, "")

	_, err := c.Ingest(context.Background(), meterdb.MetricGenerationOutput, []byte(`{}`+"\n"))
	require.NoError(t, err)
	requests := svc.Requests()
	require.Len(t, requests, 1)
	require.Equal(t, "/ingest/generation_output/ndjson", requests[0].Path)
	require.Empty(t, requests[0].Authorization)
}

func TestIngestRejected(t *testing.T) {
	c, svc := newIngestClient(t, "wrong")
	svc.Fail(http.StatusUnauthorized)

	_, err := c.Ingest(context.Background(), meterdb.MetricMeterUsage, []byte(`{}`+"\n"))
	require.ErrorContains(t, err, "401: Unauthorized")
}

func TestIngestRecords(t *testing.T) {
	c, svc := newIngestClient(t, "")
	ctx := context.Background()

	records := meterdb.GenerationOutputRecords(meterdb.GenerationOutputParams{
		PlantID: "plant-1",
		Count:   4,
		Times:   quarterHours(t),
		MWBase:  10,
	})
	resp, err := meterdb.IngestRecords(ctx, c, meterdb.MetricGenerationOutput, records)
	require.NoError(t, err)
	require.EqualValues(t, 4, resp.Accepted)

	requests := svc.Requests()
	require.Len(t, requests, 1)
	require.Len(t, requests[0].Lines, 4)
	require.Equal(t, `{"ts":"2024-01-01T00:45:00Z","plant_id":"plant-1","mw":10.0}`, requests[0].Lines[3])

	resp, err = meterdb.IngestRecords(ctx, c, meterdb.MetricGenerationOutput, slices.Values([]meterdb.GenerationOutput(nil)))
	require.NoError(t, err)
	require.Zero(t, resp.Accepted)
	require.Len(t, svc.Requests(), 1)
}

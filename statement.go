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
	"io"
	"net/url"
)

// Statement is a struct that represents a SQL statement to be executed on the store.
type Statement struct {
	c *Client

	stmt string

	// Limit restricts the rows returned, e.g. "10" or "10,20".
	//
	// This is optional and may be empty.
	Limit string
}

// Statement creates a new statement with the given SQL text.
func (c *Client) Statement(stmt string) *Statement {
	return &Statement{
		c:    c,
		stmt: stmt,
	}
}

type execResponse struct {
	Query   string          `json:"query"`
	Columns Schema          `json:"columns"`
	Dataset json.RawMessage `json:"dataset"`
	Count   uint64          `json:"count"`
	DDL     string          `json:"ddl"`
	DML     string          `json:"dml"`
	Updated uint64          `json:"updated"`
}

func (r *execResponse) toResultSet() *ResultSet {
	rs := &ResultSet{
		TotalRows: r.Count,
		Schema:    r.Columns,
		rows:      r.Dataset,
	}
	if r.DDL != "" || r.DML != "" {
		rs.TotalRows = r.Updated
		rs.rows = nil
	}
	return rs
}

// Execute sends the statement to the store and waits for its result.
//
// Statements without a result set, such as DDL, return an empty ResultSet. For DML
// its TotalRows is the number of rows the store reports as changed.
func (s *Statement) Execute(ctx context.Context) (*ResultSet, error) {
	query := url.Values{"query": []string{s.stmt}}
	if s.Limit != "" {
		query.Set("limit", s.Limit)
	}
	u, err := s.c.endpointURL(s.c.config.Endpoint, "exec", query)
	if err != nil {
		return nil, err
	}

	resp, err := s.c.http.Get(ctx, u)
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
	var respData execResponse
	if err := json.Unmarshal(data, &respData); err != nil {
		return nil, err
	}
	return respData.toResultSet(), nil
}

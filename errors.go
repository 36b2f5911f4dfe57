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
	"fmt"
	"io"
	"net/http"
)

// Error represents an error response from the store.
type Error struct {
	// Query is the statement the store rejected.
	Query string `json:"query"`
	// Message is the store's error message.
	Message string `json:"error"`
	// Position is the offset in Query the error points at.
	Position int `json:"position"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (position %d)", e.Message, e.Position)
}

func checkStatusCodeOK(resp *http.Response) error {
	return checkStatusCode(resp, http.StatusOK)
}

func checkStatusCode(resp *http.Response, expected int) error {
	if resp.StatusCode == expected {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	msg := string(data)
	if err != nil {
		return fmt.Errorf("%d: %s", resp.StatusCode, msg)
	}
	var errResp Error
	err = json.Unmarshal(data, &errResp)
	if err != nil || errResp.Message == "" {
		return fmt.Errorf("%d: %s", resp.StatusCode, msg)
	}
	return &errResp
}

// sneakyBodyClose closes the body and ignores the error.
// This is useful to close the HTTP response body when we don't care about the error.
func sneakyBodyClose(body io.ReadCloser) {
	if body != nil {
		_ = body.Close()
	}
}

// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cypher implements an EdgeRepository against an HTTP
// transactional statement endpoint (the protocol Neo4j and compatible
// graph stores expose). Each call posts auto-committed statements to
// {base}/db/{database}/tx/commit with basic auth.
package cypher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/poiesic/chunkd/core"
)

// Statement is one parameterized statement sent to the endpoint.
type Statement struct {
	Statement  string         `json:"statement"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Result holds the rows one statement produced.
type Result struct {
	Columns []string
	Rows    [][]any
}

// ClientConfig configures a statement-endpoint client.
type ClientConfig struct {
	// BaseURL is the server root, e.g. "http://localhost:7474".
	BaseURL string

	// Database is the target database name. Default: "neo4j"
	Database string

	// Username and Password are sent as basic auth when Username is set.
	Username string
	Password string

	// Timeout bounds each HTTP request. Default: 15s
	Timeout time.Duration
}

// Client is a minimal REST client to a transactional statement endpoint.
type Client struct {
	commitURL  string
	username   string
	password   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a statement-endpoint client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("cypher: BaseURL is required")
	}
	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	base := strings.TrimSuffix(cfg.BaseURL, "/")
	return &Client{
		commitURL:  fmt.Sprintf("%s/db/%s/tx/commit", base, database),
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default().With("component", "cypher-client"),
	}, nil
}

// commitRequest is the transactional endpoint request envelope.
type commitRequest struct {
	Statements []Statement `json:"statements"`
}

// commitResponse is the transactional endpoint response envelope.
type commitResponse struct {
	Results []struct {
		Columns []string `json:"columns"`
		Data    []struct {
			Row []any `json:"row"`
		} `json:"data"`
	} `json:"results"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Commit posts the statements for auto-commit execution and returns one
// Result per statement. Endpoint failures surface as core.ErrUpstream;
// timeouts as core.ErrUpstreamTimeout.
func (c *Client) Commit(ctx context.Context, statements ...Statement) ([]Result, error) {
	payload, err := json.Marshal(commitRequest{Statements: statements})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.commitURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, fmt.Errorf("%w: %w", core.ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("%w: %w", core.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("statement endpoint returned error status", "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", core.ErrUpstream, resp.StatusCode)
	}

	var decoded commitResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUpstream, err)
	}
	if len(decoded.Errors) > 0 {
		first := decoded.Errors[0]
		c.logger.Error("statement failed", "code", first.Code, "message", first.Message)
		return nil, fmt.Errorf("%w: %s: %s", core.ErrUpstream, first.Code, first.Message)
	}

	results := make([]Result, len(decoded.Results))
	for i, r := range decoded.Results {
		rows := make([][]any, len(r.Data))
		for j, d := range r.Data {
			rows[j] = d.Row
		}
		results[i] = Result{Columns: r.Columns, Rows: rows}
	}
	return results, nil
}

// isTimeout reports whether the error chain contains a network timeout.
func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

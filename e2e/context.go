// Package e2e runs the Gherkin features in features/ against a running
// pricing server. Start the server on the fixture export first:
//
//	PRICING_SOURCE=file PRICING_FILE=e2e/testdata/pricing.ndjson go run ./cmd/server
//
// then run `go test ./...` in this module with E2E_BASE_URL pointing at it.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext holds the last response of a scenario.
type TestContext struct {
	BaseURL string
	client  *http.Client

	status int
	header http.Header
	body   []byte
}

// NewTestContext targets baseURL.
func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Reset clears the previous response between scenarios.
func (tc *TestContext) Reset() {
	tc.status = 0
	tc.header = nil
	tc.body = nil
}

// GET requests path and records the response.
func (tc *TestContext) GET(path string) error {
	resp, err := tc.client.Get(tc.BaseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	tc.status = resp.StatusCode
	tc.header = resp.Header
	tc.body = body
	return nil
}

func (tc *TestContext) Status() int { return tc.status }

func (tc *TestContext) Header(name string) string { return tc.header.Get(name) }

func (tc *TestContext) Body() []byte { return tc.body }

// DecodeBody unmarshals the last response body into v.
func (tc *TestContext) DecodeBody(v any) error {
	if err := json.Unmarshal(tc.body, v); err != nil {
		return fmt.Errorf("decode response %q: %w", truncate(tc.body), err)
	}
	return nil
}

// GetResponseField returns a top-level field of a JSON object response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var obj map[string]any
	if err := tc.DecodeBody(&obj); err != nil {
		return nil, err
	}
	v, ok := obj[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response %s", field, truncate(tc.body))
	}
	return v, nil
}

func truncate(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) > 200 {
		return string(b[:200]) + "..."
	}
	return string(b)
}

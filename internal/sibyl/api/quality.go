package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// QualityService manages data-quality tests and their results.
type QualityService struct {
	c *Client
}

// Quality returns the data-quality service.
func (c *Client) Quality() *QualityService {
	return &QualityService{c: c}
}

// QualityTest is one data-quality check definition.
type QualityTest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Table       string `json:"table"`
	Column      string `json:"column,omitempty"`
	Kind        string `json:"kind"`
	Expression  string `json:"expression,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description,omitempty"`
}

// QualityResult is the outcome of one test run.
type QualityResult struct {
	TestID     string  `json:"test_id"`
	RunID      string  `json:"run_id"`
	Passed     bool    `json:"passed"`
	FailedRows int64   `json:"failed_rows"`
	TotalRows  int64   `json:"total_rows"`
	PassRate   float64 `json:"pass_rate"`
	RanAt      string  `json:"ran_at"`
	Message    string  `json:"message,omitempty"`
}

// List returns the defined tests, optionally filtered by table.
func (s *QualityService) List(ctx context.Context, table string) ([]QualityTest, error) {
	path := "/api/v1/quality/tests"
	if table != "" {
		path += "?table=" + url.QueryEscape(table)
	}
	var out struct {
		Tests []QualityTest `json:"tests"`
	}
	if err := s.c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Tests, nil
}

// Create stores a test definition.
func (s *QualityService) Create(ctx context.Context, test *QualityTest) (*QualityTest, error) {
	var out QualityTest
	if err := s.c.doJSON(ctx, http.MethodPost, "/api/v1/quality/tests", test, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a test.
func (s *QualityService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("test id must not be empty")
	}
	return s.c.doJSON(ctx, http.MethodDelete, "/api/v1/quality/tests/"+url.PathEscape(id), nil, nil)
}

// Run executes one test now and returns the result.
func (s *QualityService) Run(ctx context.Context, id string) (*QualityResult, error) {
	if id == "" {
		return nil, fmt.Errorf("test id must not be empty")
	}
	var out QualityResult
	if err := s.c.doJSON(ctx, http.MethodPost, "/api/v1/quality/tests/"+url.PathEscape(id)+"/run", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Results returns recent results for one test.
func (s *QualityService) Results(ctx context.Context, id string, limit int) ([]QualityResult, error) {
	if id == "" {
		return nil, fmt.Errorf("test id must not be empty")
	}
	path := "/api/v1/quality/tests/" + url.PathEscape(id) + "/results"
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var out struct {
		Results []QualityResult `json:"results"`
	}
	if err := s.c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

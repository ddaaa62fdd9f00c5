package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// OLAPService manages analysis cubes designed over the warehouse.
type OLAPService struct {
	c *Client
}

// OLAP returns the cube-design service.
func (c *Client) OLAP() *OLAPService {
	return &OLAPService{c: c}
}

// Cube is one OLAP cube definition.
type Cube struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	FactTable   string      `json:"fact_table"`
	Dimensions  []Dimension `json:"dimensions,omitempty"`
	Measures    []Measure   `json:"measures,omitempty"`
	CreatedAt   string      `json:"created_at,omitempty"`
}

// Dimension is one cube dimension bound to a column.
type Dimension struct {
	Name   string `json:"name"`
	Table  string `json:"table"`
	Column string `json:"column"`
}

// Measure is one cube measure with its aggregation.
type Measure struct {
	Name        string `json:"name"`
	Column      string `json:"column"`
	Aggregation string `json:"aggregation"`
}

// List returns all cubes.
func (s *OLAPService) List(ctx context.Context) ([]Cube, error) {
	var out struct {
		Cubes []Cube `json:"cubes"`
	}
	if err := s.c.doJSON(ctx, http.MethodGet, "/api/v1/olap/cubes", nil, &out); err != nil {
		return nil, err
	}
	return out.Cubes, nil
}

// Get returns one cube by id.
func (s *OLAPService) Get(ctx context.Context, id string) (*Cube, error) {
	if id == "" {
		return nil, fmt.Errorf("cube id must not be empty")
	}
	var out Cube
	if err := s.c.doJSON(ctx, http.MethodGet, "/api/v1/olap/cubes/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create stores a cube definition.
func (s *OLAPService) Create(ctx context.Context, cube *Cube) (*Cube, error) {
	var out Cube
	if err := s.c.doJSON(ctx, http.MethodPost, "/api/v1/olap/cubes", cube, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a cube.
func (s *OLAPService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("cube id must not be empty")
	}
	return s.c.doJSON(ctx, http.MethodDelete, "/api/v1/olap/cubes/"+url.PathEscape(id), nil, nil)
}

// Generate asks the backend to draft a cube from a natural-language
// description of the analysis need.
func (s *OLAPService) Generate(ctx context.Context, prompt string) (*Cube, error) {
	if prompt == "" {
		return nil, fmt.Errorf("prompt must not be empty")
	}
	body := map[string]string{"prompt": prompt}
	var out Cube
	if err := s.c.doJSON(ctx, http.MethodPost, "/api/v1/olap/cubes/generate", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

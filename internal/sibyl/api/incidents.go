package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// IncidentService tracks data incidents raised by failed quality runs and
// firing alert rules.
type IncidentService struct {
	c *Client
}

// Incidents returns the incident service.
func (c *Client) Incidents() *IncidentService {
	return &IncidentService{c: c}
}

// Incident lifecycle states.
const (
	IncidentOpen         = "open"
	IncidentAcknowledged = "acknowledged"
	IncidentResolved     = "resolved"
)

// Incident is one tracked data incident.
type Incident struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Severity   string `json:"severity"`
	Status     string `json:"status"`
	Source     string `json:"source,omitempty"`
	Table      string `json:"table,omitempty"`
	AssignedTo string `json:"assigned_to,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// List returns incidents, optionally filtered by status.
func (s *IncidentService) List(ctx context.Context, status string) ([]Incident, error) {
	path := "/api/v1/incidents"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var out struct {
		Incidents []Incident `json:"incidents"`
	}
	if err := s.c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Incidents, nil
}

// Get returns one incident by id.
func (s *IncidentService) Get(ctx context.Context, id string) (*Incident, error) {
	if id == "" {
		return nil, fmt.Errorf("incident id must not be empty")
	}
	var out Incident
	if err := s.c.doJSON(ctx, http.MethodGet, "/api/v1/incidents/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Acknowledge marks an incident as being worked on.
func (s *IncidentService) Acknowledge(ctx context.Context, id string) (*Incident, error) {
	return s.transition(ctx, id, "acknowledge", nil)
}

// Resolve closes an incident with an optional resolution note.
func (s *IncidentService) Resolve(ctx context.Context, id, note string) (*Incident, error) {
	var body map[string]string
	if note != "" {
		body = map[string]string{"note": note}
	}
	return s.transition(ctx, id, "resolve", body)
}

func (s *IncidentService) transition(ctx context.Context, id, action string, body interface{}) (*Incident, error) {
	if id == "" {
		return nil, fmt.Errorf("incident id must not be empty")
	}
	var out Incident
	path := "/api/v1/incidents/" + url.PathEscape(id) + "/" + action
	if err := s.c.doJSON(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

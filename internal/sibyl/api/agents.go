package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// AgentService manages watch agents, the scheduled pipelines that keep
// quality tests and alert rules running.
type AgentService struct {
	c *Client
}

// Agents returns the watch-agent service.
func (c *Client) Agents() *AgentService {
	return &AgentService{c: c}
}

// WatchAgent is one scheduled pipeline.
type WatchAgent struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Schedule  string `json:"schedule"`
	Enabled   bool   `json:"enabled"`
	LastRunAt string `json:"last_run_at,omitempty"`
	LastState string `json:"last_state,omitempty"`
}

// AgentRun is one execution of a watch agent.
type AgentRun struct {
	RunID      string `json:"run_id"`
	AgentID    string `json:"agent_id"`
	State      string `json:"state"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
	Message    string `json:"message,omitempty"`
}

// List returns all watch agents.
func (s *AgentService) List(ctx context.Context) ([]WatchAgent, error) {
	var out struct {
		Agents []WatchAgent `json:"agents"`
	}
	if err := s.c.doJSON(ctx, http.MethodGet, "/api/v1/agents", nil, &out); err != nil {
		return nil, err
	}
	return out.Agents, nil
}

// Trigger starts a run outside the schedule and returns it.
func (s *AgentService) Trigger(ctx context.Context, id string) (*AgentRun, error) {
	if id == "" {
		return nil, fmt.Errorf("agent id must not be empty")
	}
	var out AgentRun
	if err := s.c.doJSON(ctx, http.MethodPost, "/api/v1/agents/"+url.PathEscape(id)+"/trigger", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Runs returns recent executions of one agent.
func (s *AgentService) Runs(ctx context.Context, id string, limit int) ([]AgentRun, error) {
	if id == "" {
		return nil, fmt.Errorf("agent id must not be empty")
	}
	path := "/api/v1/agents/" + url.PathEscape(id) + "/runs"
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var out struct {
		Runs []AgentRun `json:"runs"`
	}
	if err := s.c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Runs, nil
}

// SetEnabled pauses or resumes an agent's schedule.
func (s *AgentService) SetEnabled(ctx context.Context, id string, enabled bool) (*WatchAgent, error) {
	if id == "" {
		return nil, fmt.Errorf("agent id must not be empty")
	}
	body := map[string]bool{"enabled": enabled}
	var out WatchAgent
	if err := s.c.doJSON(ctx, http.MethodPost, "/api/v1/agents/"+url.PathEscape(id)+"/enabled", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

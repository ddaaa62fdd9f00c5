package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// AlertService manages alert rules evaluated over quality results and
// warehouse metrics.
type AlertService struct {
	c *Client
}

// Alerts returns the alert-rule service.
func (c *Client) Alerts() *AlertService {
	return &AlertService{c: c}
}

// AlertRule is one alerting rule.
type AlertRule struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Severity   string `json:"severity,omitempty"`
	Channel    string `json:"channel,omitempty"`
	Enabled    bool   `json:"enabled"`
	MutedUntil string `json:"muted_until,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// List returns all alert rules.
func (s *AlertService) List(ctx context.Context) ([]AlertRule, error) {
	var out struct {
		Rules []AlertRule `json:"rules"`
	}
	if err := s.c.doJSON(ctx, http.MethodGet, "/api/v1/alerts/rules", nil, &out); err != nil {
		return nil, err
	}
	return out.Rules, nil
}

// Create stores an alert rule.
func (s *AlertService) Create(ctx context.Context, rule *AlertRule) (*AlertRule, error) {
	var out AlertRule
	if err := s.c.doJSON(ctx, http.MethodPost, "/api/v1/alerts/rules", rule, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an alert rule.
func (s *AlertService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("rule id must not be empty")
	}
	return s.c.doJSON(ctx, http.MethodDelete, "/api/v1/alerts/rules/"+url.PathEscape(id), nil, nil)
}

// SetEnabled toggles a rule on or off.
func (s *AlertService) SetEnabled(ctx context.Context, id string, enabled bool) (*AlertRule, error) {
	if id == "" {
		return nil, fmt.Errorf("rule id must not be empty")
	}
	body := map[string]bool{"enabled": enabled}
	var out AlertRule
	if err := s.c.doJSON(ctx, http.MethodPost, "/api/v1/alerts/rules/"+url.PathEscape(id)+"/enabled", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Mute silences a rule until the given RFC 3339 time.
func (s *AlertService) Mute(ctx context.Context, id, until string) (*AlertRule, error) {
	if id == "" {
		return nil, fmt.Errorf("rule id must not be empty")
	}
	body := map[string]string{"until": until}
	var out AlertRule
	if err := s.c.doJSON(ctx, http.MethodPost, "/api/v1/alerts/rules/"+url.PathEscape(id)+"/mute", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

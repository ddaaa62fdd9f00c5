package api

import (
	"context"
	"net/http"

	"github.com/vantle/sibyl/internal/sibyl/react"
	"github.com/vantle/sibyl/pkg/logger"
)

// Text2SQLService drives the ReAct natural-language-to-SQL agent. It
// implements react.Streamer, so a react.Session can be built directly on it.
type Text2SQLService struct {
	c *Client
}

// Text2SQL returns the text-to-SQL service.
func (c *Client) Text2SQL() *Text2SQLService {
	return &Text2SQLService{c: c}
}

// StreamTurn runs one agent turn, decoding the NDJSON stream into typed
// events. Undecodable lines are logged and dropped; a terminal event stops
// consumption even if the producer keeps writing.
func (s *Text2SQLService) StreamTurn(ctx context.Context, req *react.TurnRequest, onEvent func(*react.Event) bool) error {
	return s.c.streamLines(ctx, "/api/v1/text2sql/stream", req, func(line []byte) bool {
		ev, err := react.DecodeLine(line)
		if err != nil {
			logger.Warn("[api] dropping undecodable stream line: %v", err)
			return true
		}
		more := onEvent(ev)
		if ev.Terminal() {
			return false
		}
		return more
	})
}

// ExecuteRequest runs already-generated SQL against the warehouse.
type ExecuteRequest struct {
	SQL           string `json:"sql"`
	MaxSQLSeconds int    `json:"max_sql_seconds,omitempty"`
	MaxRows       int    `json:"max_rows,omitempty"`
}

// Execute runs SQL and returns the result set.
func (s *Text2SQLService) Execute(ctx context.Context, req *ExecuteRequest) (*react.ExecutionResult, error) {
	var result react.ExecutionResult
	if err := s.c.doJSON(ctx, http.MethodPost, "/api/v1/text2sql/execute", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AgentSession is a stored backend conversation with the agent.
type AgentSession struct {
	ID        string `json:"id"`
	Question  string `json:"question"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Sessions lists the caller's stored agent sessions.
func (s *Text2SQLService) Sessions(ctx context.Context) ([]AgentSession, error) {
	var out struct {
		Sessions []AgentSession `json:"sessions"`
	}
	if err := s.c.doJSON(ctx, http.MethodGet, "/api/v1/text2sql/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/vantle/sibyl/pkg/streaming"
)

// GraphService reads the knowledge graph built from parsed source and DDL.
type GraphService struct {
	c *Client
}

// Graph returns the knowledge-graph service.
func (c *Client) Graph() *GraphService {
	return &GraphService{c: c}
}

// GraphSummary is the size and composition of the graph.
type GraphSummary struct {
	NodeCount         int            `json:"node_count"`
	RelationshipCount int            `json:"relationship_count"`
	NodesByLabel      map[string]int `json:"nodes_by_label,omitempty"`
	UpdatedAt         string         `json:"updated_at,omitempty"`
}

// Summary returns graph-wide counts.
func (s *GraphService) Summary(ctx context.Context) (*GraphSummary, error) {
	var out GraphSummary
	if err := s.c.doJSON(ctx, http.MethodGet, "/api/v1/graph/summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search finds matching nodes with their immediate relationships.
func (s *GraphService) Search(ctx context.Context, query string, limit int) (*streaming.GraphPayload, error) {
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	path := "/api/v1/graph/search?q=" + url.QueryEscape(query)
	if limit > 0 {
		path += fmt.Sprintf("&limit=%d", limit)
	}
	var out streaming.GraphPayload
	if err := s.c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Neighborhood returns the subgraph around one node.
func (s *GraphService) Neighborhood(ctx context.Context, nodeID string, depth int) (*streaming.GraphPayload, error) {
	if nodeID == "" {
		return nil, fmt.Errorf("node id must not be empty")
	}
	path := "/api/v1/graph/nodes/" + url.PathEscape(nodeID) + "/neighborhood"
	if depth > 0 {
		path += fmt.Sprintf("?depth=%d", depth)
	}
	var out streaming.GraphPayload
	if err := s.c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FollowAnalysis streams graph-analysis progress for a task until a terminal
// event. Message events carry human-readable progress, graph events carry
// incremental node/relationship batches.
func (s *GraphService) FollowAnalysis(ctx context.Context, taskID string, onEvent streaming.EventFunc) error {
	if taskID == "" {
		return fmt.Errorf("task id must not be empty")
	}
	body := map[string]string{"task_id": taskID}
	return s.c.streamEvents(ctx, "/api/v1/graph/analysis/stream", body, onEvent)
}

package streaming

// Event is one decoded line of a generic NDJSON progress stream.
//
// Every line is an independent JSON object carrying at least a type
// discriminator. Types "complete" and "error" end the stream; everything else
// is incremental progress and is forwarded to the caller as-is.
type Event struct {
	Type    string        `json:"type"`
	Content string        `json:"content,omitempty"`
	Graph   *GraphPayload `json:"graph,omitempty"`
}

// Terminal reports whether the event ends the stream.
func (e *Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

// Generic stream event types.
const (
	EventMessage  = "message"
	EventComplete = "complete"
	EventError    = "error"
)

// GraphPayload carries a knowledge-graph fragment attached to a progress
// event, e.g. nodes discovered while an upload is being analyzed.
// The backend serializes the graph keys capitalized; the tags follow the
// wire, not Go convention.
type GraphPayload struct {
	Nodes         []GraphNode         `json:"Nodes"`
	Relationships []GraphRelationship `json:"Relationships"`
}

// GraphNode is one vertex of the knowledge graph.
type GraphNode struct {
	ID         string                 `json:"id"`
	Labels     []string               `json:"labels,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// GraphRelationship is one edge of the knowledge graph.
type GraphRelationship struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	StartID    string                 `json:"start_id"`
	EndID      string                 `json:"end_id"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

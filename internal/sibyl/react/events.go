// Package react implements the client side of the text2sql agent's
// turn-stream protocol: the wire events, the turn-state reducer, and the
// session that drives one streamed question-answering turn at a time.
package react

import (
	"fmt"

	"github.com/vantle/sibyl/pkg/utils/json"
)

// EventType identifies the kind of a turn-stream event.
type EventType string

const (
	// EventPhase is an informational phase-change hint.
	EventPhase EventType = "phase"

	// EventToken is a raw model token, emitted only when the caller opted
	// into verbose token streaming.
	EventToken EventType = "token"

	// EventSectionDelta appends a text fragment to a named section of the
	// iteration currently being streamed.
	EventSectionDelta EventType = "section_delta"

	// EventMetadataItem announces one discovered schema fact before the
	// owning step is finalized.
	EventMetadataItem EventType = "metadata_item"

	// EventFormatRepair marks the current iteration as being auto-corrected
	// after malformed structured output. Purely a display hint.
	EventFormatRepair EventType = "format_repair"

	// EventStep is the authoritative completion of one reasoning iteration.
	EventStep EventType = "step"

	// EventNeedsUserInput pauses the turn until the user answers a
	// clarifying question.
	EventNeedsUserInput EventType = "needs_user_input"

	// EventCompleted ends the turn with a final answer.
	EventCompleted EventType = "completed"

	// EventError ends the turn with a server-reported failure.
	EventError EventType = "error"
)

// Phase is the agent's reasoning-loop phase reported by phase events.
type Phase string

const (
	PhaseThinking  Phase = "thinking"
	PhaseReasoning Phase = "reasoning"
	PhaseActing    Phase = "acting"
	PhaseObserving Phase = "observing"
	PhaseIdle      Phase = "idle"
)

// Event is one decoded line of the turn stream, discriminated by the event
// field. Only the fields matching the event type are populated.
type Event struct {
	Event EventType `json:"event"`

	// phase
	Phase              Phase  `json:"phase,omitempty"`
	RemainingToolCalls *int   `json:"remaining_tool_calls,omitempty"`
	PartialSQL         string `json:"partial_sql,omitempty"`

	// token
	Token string `json:"token,omitempty"`

	// section_delta, metadata_item, format_repair, step
	Iteration int    `json:"iteration,omitempty"`
	Section   string `json:"section,omitempty"`
	Delta     string `json:"delta,omitempty"`

	// metadata_item
	Item *MetadataItem `json:"item,omitempty"`

	// step
	Step *StepModel `json:"step,omitempty"`

	// needs_user_input, completed
	Response *TurnResponse `json:"response,omitempty"`

	// error
	Message string `json:"message,omitempty"`
}

// Terminal reports whether the event ends stream consumption for this turn.
func (e *Event) Terminal() bool {
	switch e.Event {
	case EventNeedsUserInput, EventCompleted, EventError:
		return true
	}
	return false
}

// DecodeLine parses one NDJSON line into an Event. Events with no
// discriminator are rejected so blank objects don't masquerade as progress.
func DecodeLine(line []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil {
		return nil, err
	}
	if ev.Event == "" {
		return nil, fmt.Errorf("event discriminator missing")
	}
	return &ev, nil
}

// TurnRequest is the body POSTed to the turn-stream endpoint. SessionState
// and UserResponse are set only when resuming a paused turn.
type TurnRequest struct {
	Question            string `json:"question"`
	SessionState        string `json:"session_state,omitempty"`
	UserResponse        string `json:"user_response,omitempty"`
	MaxToolCalls        int    `json:"max_tool_calls,omitempty"`
	MaxSQLSeconds       int    `json:"max_sql_seconds,omitempty"`
	DebugStreamXMLToken bool   `json:"debug_stream_xml_tokens,omitempty"`
}

// TurnResponse is the full answer payload attached to needs_user_input and
// completed events.
type TurnResponse struct {
	Steps              []StepModel      `json:"steps,omitempty"`
	PartialSQL         string           `json:"partial_sql,omitempty"`
	FinalSQL           string           `json:"final_sql,omitempty"`
	ValidatedSQL       string           `json:"validated_sql,omitempty"`
	ExecutionResult    *ExecutionResult `json:"execution_result,omitempty"`
	CollectedMetadata  string           `json:"collected_metadata,omitempty"`
	SessionState       string           `json:"session_state,omitempty"`
	QuestionToUser     string           `json:"question_to_user,omitempty"`
	RemainingToolCalls *int             `json:"remaining_tool_calls,omitempty"`
}

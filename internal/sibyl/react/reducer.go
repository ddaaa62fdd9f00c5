package react

import (
	"sort"

	"github.com/vantle/sibyl/pkg/logger"
)

// Status is the lifecycle state of a turn.
//
// State machine: idle → running → needs_user_input | completed | error.
// needs_user_input resumes to running via ContinueWithResponse; completed and
// error only reset through a fresh Start. Cancellation returns to idle.
type Status string

const (
	StatusIdle           Status = "idle"
	StatusRunning        Status = "running"
	StatusNeedsUserInput Status = "needs_user_input"
	StatusCompleted      Status = "completed"
	StatusError          Status = "error"
)

// Terminal reports whether the status ends a turn.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// TurnState is the reducer's working set for one turn. Apply is the only
// mutation path during streaming; it performs no I/O and holds no locks, so
// it is the directly testable unit.
type TurnState struct {
	Question string `json:"question"`

	// Steps is ordered by iteration and unique per iteration;
	// last write wins on duplicates.
	Steps []StepModel `json:"steps"`

	PartialSQL      string           `json:"partial_sql,omitempty"`
	FinalSQL        string           `json:"final_sql,omitempty"`
	ValidatedSQL    string           `json:"validated_sql,omitempty"`
	ExecutionResult *ExecutionResult `json:"execution_result,omitempty"`

	// Metadata is the working collection of discovered schema facts,
	// rebuilt wholesale from each step's metadata_xml snapshot.
	Metadata MetadataSet `json:"-"`

	// CollectedMetadata is the raw snapshot text of the latest step.
	CollectedMetadata string `json:"collected_metadata,omitempty"`

	SessionState       string `json:"session_state,omitempty"`
	QuestionToUser     string `json:"question_to_user,omitempty"`
	Phase              Phase  `json:"phase,omitempty"`
	RemainingToolCalls int    `json:"remaining_tool_calls,omitempty"`
	Status             Status `json:"status"`
	Err                string `json:"error,omitempty"`

	// DebugTokens buffers raw token events when verbose streaming is on.
	DebugTokens []string `json:"-"`

	drafts map[int]*stepDraft
}

// NewTurnState returns an idle state for a fresh turn.
func NewTurnState(question string) *TurnState {
	return &TurnState{
		Question: question,
		Status:   StatusIdle,
		drafts:   map[int]*stepDraft{},
	}
}

// Draft returns the in-flight fragments for an iteration, creating the slot
// on first touch.
func (s *TurnState) Draft(iteration int) *stepDraft {
	if s.drafts == nil {
		s.drafts = map[int]*stepDraft{}
	}
	d, ok := s.drafts[iteration]
	if !ok {
		d = newStepDraft()
		s.drafts[iteration] = d
	}
	return d
}

// LatestStep returns the completed step with the highest iteration, or nil.
func (s *TurnState) LatestStep() *StepModel {
	if len(s.Steps) == 0 {
		return nil
	}
	return &s.Steps[len(s.Steps)-1]
}

// Apply folds one stream event into the state. Events arriving for an
// already-terminal state are ignored; a finished turn never resumes.
func (s *TurnState) Apply(ev *Event) {
	if s.Status.Terminal() && !ev.Terminal() {
		return
	}

	switch ev.Event {
	case EventPhase:
		s.Phase = ev.Phase
		if ev.RemainingToolCalls != nil {
			s.RemainingToolCalls = *ev.RemainingToolCalls
		}
		if ev.PartialSQL != "" {
			s.PartialSQL = ev.PartialSQL
		}

	case EventToken:
		s.DebugTokens = append(s.DebugTokens, ev.Token)

	case EventSectionDelta:
		s.Draft(ev.Iteration).append(ev.Section, ev.Delta)
		if ev.Section == SectionPartialSQL {
			s.PartialSQL = s.Draft(ev.Iteration).section(SectionPartialSQL)
		}

	case EventMetadataItem:
		if ev.Item != nil {
			s.Draft(ev.Iteration).Items = append(s.Draft(ev.Iteration).Items, *ev.Item)
			s.Metadata.Add(*ev.Item)
		}

	case EventFormatRepair:
		s.Draft(ev.Iteration).Repairing = true

	case EventStep:
		if ev.Step != nil {
			s.applyStep(*ev.Step)
		}

	case EventNeedsUserInput:
		s.applyResponse(ev.Response)
		s.Status = StatusNeedsUserInput

	case EventCompleted:
		s.applyResponse(ev.Response)
		s.Status = StatusCompleted
		s.SessionState = ""

	case EventError:
		s.Err = ev.Message
		s.Status = StatusError
		s.SessionState = ""

	default:
		logger.Debug("[react] ignoring unknown event type %q", ev.Event)
	}
}

// applyStep merges an authoritative step: reconcile streamed fragments, merge
// into the ordered list keyed by iteration, and rebuild the metadata
// collection from the step's snapshot.
func (s *TurnState) applyStep(step StepModel) {
	draft := s.Draft(step.Iteration)
	draft.reconcile(&step)

	s.mergeStep(step)

	if step.PartialSQL != "" {
		s.PartialSQL = step.PartialSQL
	}
	if step.MetadataXML != "" {
		items, err := ParseMetadataXML(step.MetadataXML)
		if err != nil {
			// Keep the incrementally streamed items; a broken snapshot
			// must not wipe what the user already sees.
			logger.Warn("[react] step %d metadata snapshot unusable: %v", step.Iteration, err)
		} else {
			s.Metadata.Replace(items)
			s.CollectedMetadata = step.MetadataXML
		}
	}
}

// mergeStep inserts or replaces the step keyed by iteration and keeps the
// list sorted by iteration regardless of wire arrival order.
func (s *TurnState) mergeStep(step StepModel) {
	for i := range s.Steps {
		if s.Steps[i].Iteration == step.Iteration {
			s.Steps[i] = step
			return
		}
	}
	s.Steps = append(s.Steps, step)
	sort.SliceStable(s.Steps, func(i, j int) bool {
		return s.Steps[i].Iteration < s.Steps[j].Iteration
	})
}

// applyResponse applies the full answer payload from needs_user_input or
// completed events over whatever streamed in before it.
func (s *TurnState) applyResponse(resp *TurnResponse) {
	if resp == nil {
		return
	}
	for _, step := range resp.Steps {
		s.applyStep(step)
	}
	if resp.PartialSQL != "" {
		s.PartialSQL = resp.PartialSQL
	}
	if resp.FinalSQL != "" {
		s.FinalSQL = resp.FinalSQL
	}
	if resp.ValidatedSQL != "" {
		s.ValidatedSQL = resp.ValidatedSQL
	}
	if resp.ExecutionResult != nil {
		s.ExecutionResult = resp.ExecutionResult
	}
	if resp.CollectedMetadata != "" {
		s.CollectedMetadata = resp.CollectedMetadata
	}
	if resp.RemainingToolCalls != nil {
		s.RemainingToolCalls = *resp.RemainingToolCalls
	}
	s.SessionState = resp.SessionState
	s.QuestionToUser = resp.QuestionToUser
}

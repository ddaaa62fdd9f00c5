package react

import (
	"testing"

	"github.com/bytedance/gg/gptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runningState(question string) *TurnState {
	s := NewTurnState(question)
	s.Status = StatusRunning
	return s
}

func stepEvent(iteration int, reasoning, sql string) *Event {
	return &Event{
		Event: EventStep,
		Step: &StepModel{
			Iteration:  iteration,
			Reasoning:  reasoning,
			PartialSQL: sql,
			ToolCall:   &ToolCall{Name: "explore_schema"},
		},
	}
}

func TestApplyStepMergeIdempotent(t *testing.T) {
	s := runningState("q")

	s.Apply(stepEvent(1, "first pass", "SELECT 1"))
	s.Apply(stepEvent(1, "second pass", "SELECT 2"))

	require.Len(t, s.Steps, 1)
	assert.Equal(t, 1, s.Steps[0].Iteration)
	assert.Equal(t, "second pass", s.Steps[0].Reasoning)
	assert.Equal(t, "SELECT 2", s.PartialSQL)
}

func TestApplyStepOutOfOrderArrival(t *testing.T) {
	s := runningState("q")

	for _, it := range []int{3, 1, 2} {
		s.Apply(stepEvent(it, "r", "s"))
	}

	require.Len(t, s.Steps, 3)
	for i, want := range []int{1, 2, 3} {
		assert.Equal(t, want, s.Steps[i].Iteration)
	}
	assert.Equal(t, 3, s.LatestStep().Iteration)
}

func TestApplySectionDeltaKeyedByIteration(t *testing.T) {
	s := runningState("q")

	// Interleaved fragments for two iterations must not mix.
	s.Apply(&Event{Event: EventSectionDelta, Iteration: 1, Section: SectionReasoning, Delta: "look at "})
	s.Apply(&Event{Event: EventSectionDelta, Iteration: 2, Section: SectionReasoning, Delta: "join "})
	s.Apply(&Event{Event: EventSectionDelta, Iteration: 1, Section: SectionReasoning, Delta: "customers"})
	s.Apply(&Event{Event: EventSectionDelta, Iteration: 2, Section: SectionReasoning, Delta: "orders"})

	assert.Equal(t, "look at customers", s.Draft(1).section(SectionReasoning))
	assert.Equal(t, "join orders", s.Draft(2).section(SectionReasoning))
}

func TestApplyStepKeepsStreamedTextWhenEquivalent(t *testing.T) {
	s := runningState("q")

	// Streamed text differs from the authoritative value only in
	// whitespace; the streamed rendering must survive reconciliation.
	s.Apply(&Event{Event: EventSectionDelta, Iteration: 1, Section: SectionReasoning, Delta: "need the  customers\ntable"})
	s.Apply(stepEvent(1, "need the customers table", "SELECT 1"))

	require.Len(t, s.Steps, 1)
	assert.Equal(t, "need the  customers\ntable", s.Steps[0].Reasoning)
}

func TestApplyStepOverwritesDivergentStreamedText(t *testing.T) {
	s := runningState("q")

	s.Apply(&Event{Event: EventSectionDelta, Iteration: 1, Section: SectionReasoning, Delta: "half-streamed rea"})
	s.Apply(stepEvent(1, "fully repaired reasoning", "SELECT 1"))

	require.Len(t, s.Steps, 1)
	assert.Equal(t, "fully repaired reasoning", s.Steps[0].Reasoning)
}

func TestApplyFormatRepairClearedByStep(t *testing.T) {
	s := runningState("q")

	s.Apply(&Event{Event: EventFormatRepair, Iteration: 1})
	assert.True(t, s.Draft(1).Repairing)

	s.Apply(stepEvent(1, "r", "s"))
	assert.False(t, s.Draft(1).Repairing)
	assert.False(t, s.Draft(1).Streaming)
}

func TestApplyMetadataItemsReplacedBySnapshot(t *testing.T) {
	s := runningState("q")

	s.Apply(&Event{Event: EventMetadataItem, Iteration: 1, Item: &MetadataItem{Kind: MetadataTable, Table: "custmers_typo"}})
	s.Apply(&Event{Event: EventMetadataItem, Iteration: 1, Item: &MetadataItem{Kind: MetadataColumn, Table: "custmers_typo", Column: "id"}})
	require.Equal(t, 2, s.Metadata.Len())

	snapshot := `<metadata>
	  <tables><table name="customers">customer master data</table></tables>
	  <columns><column table="customers" name="id" type="bigint"></column></columns>
	</metadata>`
	s.Apply(&Event{Event: EventStep, Step: &StepModel{Iteration: 1, Reasoning: "r", MetadataXML: snapshot}})

	require.Equal(t, 2, s.Metadata.Len())
	tables := s.Metadata.ByKind(MetadataTable)
	require.Len(t, tables, 1)
	assert.Equal(t, "customers", tables[0].Table)
	assert.Equal(t, snapshot, s.CollectedMetadata)
}

func TestApplyBrokenSnapshotKeepsStreamedItems(t *testing.T) {
	s := runningState("q")

	s.Apply(&Event{Event: EventMetadataItem, Iteration: 1, Item: &MetadataItem{Kind: MetadataTable, Table: "orders"}})
	s.Apply(&Event{Event: EventStep, Step: &StepModel{Iteration: 1, Reasoning: "r", MetadataXML: "<metadata><unclosed"}})

	assert.Equal(t, 1, s.Metadata.Len())
}

func TestApplyPhaseHints(t *testing.T) {
	s := runningState("q")

	s.Apply(&Event{Event: EventPhase, Phase: PhaseActing, RemainingToolCalls: gptr.Of(7), PartialSQL: "SELECT"})

	assert.Equal(t, PhaseActing, s.Phase)
	assert.Equal(t, 7, s.RemainingToolCalls)
	assert.Equal(t, "SELECT", s.PartialSQL)
	assert.Equal(t, StatusRunning, s.Status)
}

func TestApplyHappyPathScenario(t *testing.T) {
	s := runningState("show me top customers")

	s.Apply(&Event{Event: EventPhase, Phase: PhaseThinking})
	s.Apply(&Event{Event: EventSectionDelta, Iteration: 1, Section: SectionReasoning, Delta: "Need to query customers table"})
	s.Apply(&Event{Event: EventSectionDelta, Iteration: 1, Section: SectionPartialSQL, Delta: "SELECT * FROM customers"})
	s.Apply(&Event{Event: EventStep, Step: &StepModel{
		Iteration:  1,
		Reasoning:  "Need to query customers table",
		PartialSQL: "SELECT * FROM customers",
		ToolCall:   &ToolCall{Name: "run_sql", Parameters: map[string]interface{}{}},
	}})
	s.Apply(&Event{Event: EventCompleted, Response: &TurnResponse{
		FinalSQL:        "SELECT * FROM customers LIMIT 10",
		ValidatedSQL:    "SELECT * FROM customers LIMIT 10",
		ExecutionResult: &ExecutionResult{RowCount: 10},
	}})

	assert.Equal(t, StatusCompleted, s.Status)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, "SELECT * FROM customers LIMIT 10", s.FinalSQL)
	assert.Equal(t, "SELECT * FROM customers LIMIT 10", s.ValidatedSQL)
	assert.Equal(t, 10, s.ExecutionResult.RowCount)
	assert.Empty(t, s.SessionState)
}

func TestApplyErrorEvent(t *testing.T) {
	s := runningState("q")
	s.SessionState = "tok"

	s.Apply(&Event{Event: EventError, Message: "agent exploded"})

	assert.Equal(t, StatusError, s.Status)
	assert.Equal(t, "agent exploded", s.Err)
	assert.Empty(t, s.SessionState)
}

func TestApplyIgnoresProgressAfterTerminal(t *testing.T) {
	s := runningState("q")
	s.Apply(&Event{Event: EventCompleted, Response: &TurnResponse{FinalSQL: "SELECT 1"}})

	s.Apply(&Event{Event: EventPhase, Phase: PhaseThinking})
	s.Apply(stepEvent(9, "late", "late"))

	assert.Equal(t, StatusCompleted, s.Status)
	assert.Empty(t, s.Steps)
	assert.Empty(t, s.Phase)
}

func TestApplyNeedsUserInput(t *testing.T) {
	s := runningState("q")

	s.Apply(&Event{Event: EventNeedsUserInput, Response: &TurnResponse{
		SessionState:   "tok123",
		QuestionToUser: "Which date range?",
		PartialSQL:     "SELECT * FROM orders",
	}})

	assert.Equal(t, StatusNeedsUserInput, s.Status)
	assert.Equal(t, "tok123", s.SessionState)
	assert.Equal(t, "Which date range?", s.QuestionToUser)
	assert.Equal(t, "SELECT * FROM orders", s.PartialSQL)
}

func TestApplyTokenBuffering(t *testing.T) {
	s := runningState("q")
	s.Apply(&Event{Event: EventToken, Token: "<rea"})
	s.Apply(&Event{Event: EventToken, Token: "soning>"})
	assert.Equal(t, []string{"<rea", "soning>"}, s.DebugTokens)
}

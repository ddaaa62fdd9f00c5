package react

import (
	"strings"
)

// Section names used by section_delta events. Deltas for other sections are
// kept under their raw name so a newer server cannot corrupt known sections.
const (
	SectionReasoning      = "reasoning"
	SectionPartialSQL     = "partial_sql"
	SectionToolName       = "tool_name"
	SectionToolParameters = "tool_parameters"
	SectionMissingInfo    = "missing_info"
	SectionConfidence     = "confidence_level"
)

// StepModel is one completed reasoning iteration of a turn.
//
// Iteration numbers are unique within a turn and strictly increasing in
// emission order, but arrival order over the wire is not guaranteed; merging
// is always keyed by Iteration.
type StepModel struct {
	Iteration       int              `json:"iteration"`
	Reasoning       string           `json:"reasoning"`
	PartialSQL      string           `json:"partial_sql"`
	SQLCompleteness *SQLCompleteness `json:"sql_completeness,omitempty"`
	ToolCall        *ToolCall        `json:"tool_call,omitempty"`

	// MetadataXML is the serialized snapshot of every schema fact known
	// after this iteration. Parsed at step time to reconcile the
	// incrementally streamed metadata items.
	MetadataXML string `json:"metadata_xml,omitempty"`
}

// SQLCompleteness is the agent's structured judgment of its own SQL.
type SQLCompleteness struct {
	IsComplete      bool   `json:"is_complete"`
	MissingInfo     string `json:"missing_info,omitempty"`
	ConfidenceLevel string `json:"confidence_level,omitempty"`
}

// ToolCall is the action the agent chose for an iteration.
type ToolCall struct {
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// ExecutionResult is the outcome of running the validated SQL.
type ExecutionResult struct {
	Columns    []string        `json:"columns,omitempty"`
	Rows       [][]interface{} `json:"rows,omitempty"`
	RowCount   int             `json:"row_count"`
	DurationMs int64           `json:"duration_ms,omitempty"`
	Truncated  bool            `json:"truncated,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// stepDraft holds the in-flight state of one iteration while its fragments
// are still streaming, before the authoritative step event lands.
type stepDraft struct {
	Sections  map[string]*strings.Builder
	Items     []MetadataItem
	Repairing bool
	Streaming bool
}

func newStepDraft() *stepDraft {
	return &stepDraft{Sections: map[string]*strings.Builder{}}
}

func (d *stepDraft) append(section, delta string) {
	b, ok := d.Sections[section]
	if !ok {
		b = &strings.Builder{}
		d.Sections[section] = b
	}
	b.WriteString(delta)
	d.Streaming = true
}

func (d *stepDraft) section(name string) string {
	if b, ok := d.Sections[name]; ok {
		return b.String()
	}
	return ""
}

// reconcile folds the authoritative step values over the streamed draft text.
// When draft and authoritative value agree after whitespace normalization the
// draft rendering is kept, so already-displayed text doesn't flicker.
func (d *stepDraft) reconcile(step *StepModel) {
	step.Reasoning = d.pick(SectionReasoning, step.Reasoning)
	step.PartialSQL = d.pick(SectionPartialSQL, step.PartialSQL)
	if step.SQLCompleteness != nil {
		step.SQLCompleteness.MissingInfo = d.pick(SectionMissingInfo, step.SQLCompleteness.MissingInfo)
		step.SQLCompleteness.ConfidenceLevel = d.pick(SectionConfidence, step.SQLCompleteness.ConfidenceLevel)
	}
	if step.ToolCall != nil {
		step.ToolCall.Name = d.pick(SectionToolName, step.ToolCall.Name)
	}
	d.Repairing = false
	d.Streaming = false
}

func (d *stepDraft) pick(section, authoritative string) string {
	streamed := d.section(section)
	if streamed != "" && normalizeWhitespace(streamed) == normalizeWhitespace(authoritative) {
		return streamed
	}
	return authoritative
}

// normalizeWhitespace collapses runs of whitespace to single spaces and trims
// the ends, the equivalence used when comparing streamed text against the
// authoritative step fields.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

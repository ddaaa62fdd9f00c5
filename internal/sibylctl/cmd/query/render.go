package query

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/mitchellh/go-wordwrap"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/vantle/sibyl/internal/sibyl/react"
)

var (
	phaseColor   = color.New(color.FgCyan, color.Bold)
	sqlColor     = color.New(color.FgGreen)
	repairColor  = color.New(color.FgYellow)
	tokenColor   = color.New(color.Faint)
	headingColor = color.New(color.Bold)
)

// renderer writes the live turn stream to the terminal in event order.
type renderer struct {
	out       io.Writer
	width     uint
	phase     react.Phase
	iteration int
	inSQL     bool
}

func newRenderer(out io.Writer) *renderer {
	if termenv.EnvColorProfile() == termenv.Ascii {
		color.NoColor = true
	}
	width := uint(100)
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
			width = uint(w)
		}
	}
	return &renderer{out: out, width: width}
}

// observe renders one stream event. Called in event order, before the state
// reducer applies it.
func (r *renderer) observe(ev *react.Event) {
	switch ev.Event {
	case react.EventPhase:
		if ev.Phase == r.phase {
			return
		}
		r.phase = ev.Phase
		r.breakLine()
		phaseColor.Fprintf(r.out, "[%s]", ev.Phase)
		if ev.RemainingToolCalls != nil {
			fmt.Fprintf(r.out, " (%d tool calls left)", *ev.RemainingToolCalls)
		}
		fmt.Fprintln(r.out)

	case react.EventToken:
		tokenColor.Fprint(r.out, ev.Token)

	case react.EventSectionDelta:
		if ev.Iteration != r.iteration {
			r.iteration = ev.Iteration
			r.breakLine()
			headingColor.Fprintf(r.out, "step %d\n", ev.Iteration)
		}
		switch ev.Section {
		case react.SectionPartialSQL:
			sqlColor.Fprint(r.out, ev.Delta)
			r.inSQL = true
		case react.SectionReasoning:
			fmt.Fprint(r.out, ev.Delta)
			r.inSQL = false
		}

	case react.EventFormatRepair:
		r.breakLine()
		repairColor.Fprintln(r.out, "(repairing malformed agent output)")

	case react.EventMetadataItem:
		if ev.Item != nil {
			r.breakLine()
			fmt.Fprintf(r.out, "  + %s %s\n", ev.Item.Kind, metadataLabel(ev.Item))
		}

	case react.EventStep:
		if ev.Step != nil && ev.Step.ToolCall != nil {
			r.breakLine()
			fmt.Fprintf(r.out, "  -> %s\n", ev.Step.ToolCall.Name)
		}
	}
}

// renderFinal prints the completed turn: reasoning as markdown, the SQL, and
// the result table.
func (r *renderer) renderFinal(snap *react.TurnState) {
	r.breakLine()
	fmt.Fprintln(r.out)

	if last := snap.LatestStep(); last != nil && last.Reasoning != "" {
		r.renderMarkdown(last.Reasoning)
	}

	sql := snap.ValidatedSQL
	if sql == "" {
		sql = snap.FinalSQL
	}
	if sql != "" {
		headingColor.Fprintln(r.out, "SQL")
		sqlColor.Fprintln(r.out, sql)
		fmt.Fprintln(r.out)
	}

	if result := snap.ExecutionResult; result != nil {
		r.renderResult(result)
	}
}

func (r *renderer) renderMarkdown(text string) {
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(int(r.width)),
	)
	if err == nil {
		if rendered, err := tr.Render(text); err == nil {
			fmt.Fprint(r.out, rendered)
			return
		}
	}
	fmt.Fprintln(r.out, wordwrap.WrapString(text, r.width))
}

func (r *renderer) renderResult(result *react.ExecutionResult) {
	if result.Error != "" {
		repairColor.Fprintf(r.out, "execution failed: %s\n", result.Error)
		return
	}

	table := uitable.New()
	table.MaxColWidth = 48
	if len(result.Columns) > 0 {
		header := make([]interface{}, len(result.Columns))
		for i, c := range result.Columns {
			header[i] = strings.ToUpper(c)
		}
		table.AddRow(header...)
	}
	for _, row := range result.Rows {
		table.AddRow(row...)
	}
	fmt.Fprintln(r.out, table)

	suffix := ""
	if result.Truncated {
		suffix = " (truncated)"
	}
	fmt.Fprintf(r.out, "%d rows in %dms%s\n", result.RowCount, result.DurationMs, suffix)
}

// breakLine ends a partially streamed line before block output.
func (r *renderer) breakLine() {
	if r.inSQL {
		fmt.Fprintln(r.out)
		r.inSQL = false
	}
}

func metadataLabel(item *react.MetadataItem) string {
	switch item.Kind {
	case react.MetadataColumn:
		return item.Table + "." + item.Column
	case react.MetadataValue:
		return fmt.Sprintf("%s.%s = %s", item.Table, item.Column, item.Value)
	case react.MetadataRelationship:
		return fmt.Sprintf("%s.%s -> %s.%s", item.Table, item.Column, item.ToTable, item.ToColumn)
	default:
		return item.Table
	}
}

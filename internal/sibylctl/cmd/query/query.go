package query

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/vantle/sibyl/internal/sibyl/react"
	"github.com/vantle/sibyl/internal/sibyl/store/boltdb"
	"github.com/vantle/sibyl/internal/sibylctl/cmd/util"
	"github.com/vantle/sibyl/pkg/cli/genericclioptions"
	"github.com/vantle/sibyl/pkg/logger"
)

var queryExample = heredoc.Doc(`
		# Ask the agent a question
		sibylctl query "total revenue by region last quarter"

		# Bound the agent's exploration
		sibylctl query --max-tool-calls=5 --max-sql-seconds=30 "slowest orders"

		# Keep the turn out of the local archive and history
		sibylctl query --no-save "ad-hoc check"
`)

// QueryOptions holds the flags and dependencies of `sibylctl query`.
type QueryOptions struct {
	MaxToolCalls  int
	MaxSQLSeconds int
	DebugTokens   bool
	NoSave        bool

	factory util.Factory
	genericclioptions.IOStreams
}

// NewCmdQuery creates the `query` command.
func NewCmdQuery(f util.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := &QueryOptions{
		factory:   f,
		IOStreams: ioStreams,
	}

	cmd := &cobra.Command{
		Use:                   "query <question>",
		DisableFlagsInUseLine: true,
		Short:                 "Run a natural-language-to-SQL turn against the ReAct agent",
		Long: heredoc.Doc(`
			Ask the agent a question in natural language and follow its reasoning
			live: exploration steps, partial SQL and discovered schema facts stream
			to the terminal as they happen.

			When the agent needs a clarification it pauses the turn and prompts for
			an answer; the turn resumes with the same conversation state. Finished
			turns are archived locally and show up in 'sibylctl history'.`),
		Example: queryExample,
		Args:    cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Run(cmd.Context(), strings.Join(args, " ")))
		},
	}

	cmd.Flags().IntVar(&o.MaxToolCalls, "max-tool-calls", 0, "Maximum schema-exploration tool calls for the turn (0 = server default)")
	cmd.Flags().IntVar(&o.MaxSQLSeconds, "max-sql-seconds", 0, "Maximum seconds the generated SQL may run (0 = server default)")
	cmd.Flags().BoolVar(&o.DebugTokens, "debug-tokens", false, "Stream the raw model tokens for protocol debugging")
	cmd.Flags().BoolVar(&o.NoSave, "no-save", false, "Do not archive the turn or record history")

	return cmd
}

// Run drives one agent turn, prompting on clarifications until it reaches a
// terminal state.
func (o *QueryOptions) Run(ctx context.Context, question string) error {
	client, err := o.factory.Client()
	if err != nil {
		return err
	}

	renderer := newRenderer(o.Out)
	session := react.NewSession(&teeStreamer{
		inner:   client.Text2SQL(),
		observe: renderer.observe,
	})
	defer session.Clear()

	opts := react.Options{
		MaxToolCalls:  o.MaxToolCalls,
		MaxSQLSeconds: o.MaxSQLSeconds,
		DebugTokens:   o.DebugTokens,
	}
	if err := session.Start(ctx, question, opts); err != nil {
		return err
	}

	stdin := bufio.NewReader(o.In)
	for {
		status, err := session.Wait(ctx)
		if err != nil {
			session.Cancel()
			return err
		}

		switch status {
		case react.StatusNeedsUserInput:
			snap := session.Snapshot()
			answer, err := o.prompt(stdin, snap.QuestionToUser)
			if err != nil {
				session.Cancel()
				return err
			}
			if err := session.ContinueWithResponse(ctx, answer, opts); err != nil {
				return err
			}

		case react.StatusCompleted:
			snap := session.Snapshot()
			renderer.renderFinal(&snap)
			o.save(ctx, &snap)
			return nil

		case react.StatusError:
			snap := session.Snapshot()
			o.save(ctx, &snap)
			return fmt.Errorf("turn failed: %s", snap.Err)

		case react.StatusIdle:
			// Cancelled out from under us; nothing to report.
			return nil

		default:
			return fmt.Errorf("unexpected turn status %q", status)
		}
	}
}

func (o *QueryOptions) prompt(stdin *bufio.Reader, question string) (string, error) {
	fmt.Fprintf(o.Out, "\n%s\n> ", question)
	answer, err := stdin.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// save archives the finished turn. Failures are logged, not fatal: the
// answer already reached the user.
func (o *QueryOptions) save(ctx context.Context, snap *react.TurnState) {
	if o.NoSave {
		return
	}

	archive, err := o.factory.OpenArchive()
	if err != nil {
		logger.Warn("[query] skipping turn archive: %v", err)
	} else {
		defer archive.Close()
		if _, err := boltdb.NewTurnStore(archive).Archive(ctx, snap); err != nil {
			logger.Warn("[query] failed to archive turn: %v", err)
		}
	}

	historyStore, err := o.factory.OpenHistory()
	if err != nil {
		logger.Warn("[query] skipping history record: %v", err)
		return
	}
	defer historyStore.Close()
	if _, err := historyStore.Record(ctx, snap); err != nil {
		logger.Warn("[query] failed to record history: %v", err)
	}
}

// teeStreamer forwards stream events to an observer before the session
// reducer sees them, so rendering happens in event order.
type teeStreamer struct {
	inner   react.Streamer
	observe func(*react.Event)
}

func (t *teeStreamer) StreamTurn(ctx context.Context, req *react.TurnRequest, onEvent func(*react.Event) bool) error {
	return t.inner.StreamTurn(ctx, req, func(ev *react.Event) bool {
		t.observe(ev)
		return onEvent(ev)
	})
}

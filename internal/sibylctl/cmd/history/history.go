package history

import (
	"context"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/vantle/sibyl/internal/sibyl/store/boltdb"
	"github.com/vantle/sibyl/internal/sibylctl/cmd/util"
	"github.com/vantle/sibyl/pkg/cli/genericclioptions"
)

// HistoryOptions holds the flags and dependencies of `sibylctl history`.
type HistoryOptions struct {
	Limit  int
	Search string
	Turns  bool

	factory util.Factory
	genericclioptions.IOStreams
}

// NewCmdHistory creates the `history` command.
func NewCmdHistory(f util.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := &HistoryOptions{
		Limit:     20,
		factory:   f,
		IOStreams: ioStreams,
	}

	cmd := &cobra.Command{
		Use:                   "history",
		DisableFlagsInUseLine: true,
		Short:                 "Show local query history",
		Example: heredoc.Doc(`
			# Recent queries
			sibylctl history

			# Search past questions and SQL
			sibylctl history --search=orders

			# Archived turns with their full step traces
			sibylctl history --turns
		`),
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Run(cmd.Context()))
		},
	}

	cmd.Flags().IntVar(&o.Limit, "limit", o.Limit, "Maximum entries to show")
	cmd.Flags().StringVar(&o.Search, "search", "", "Filter by question or SQL substring")
	cmd.Flags().BoolVar(&o.Turns, "turns", false, "Show archived turns instead of flat history")

	return cmd
}

// Run prints local history, either the flat query log or the turn archive.
func (o *HistoryOptions) Run(ctx context.Context) error {
	if o.Turns {
		return o.runTurns(ctx)
	}

	store, err := o.factory.OpenHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Search(ctx, o.Search, o.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(o.Out, "no history")
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 56
	table.AddRow("WHEN", "STATUS", "QUESTION", "ROWS", "SQL")
	for _, e := range entries {
		table.AddRow(e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Status, e.Question, e.RowCount, e.FinalSQL)
	}
	fmt.Fprintln(o.Out, table)
	return nil
}

func (o *HistoryOptions) runTurns(ctx context.Context) error {
	db, err := o.factory.OpenArchive()
	if err != nil {
		return err
	}
	defer db.Close()

	turns, err := boltdb.NewTurnStore(db).List(ctx, o.Limit)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		fmt.Fprintln(o.Out, "no archived turns")
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 56
	table.AddRow("ID", "WHEN", "STATUS", "STEPS", "QUESTION")
	for _, turn := range turns {
		table.AddRow(turn.ID, turn.ArchivedAt.Local().Format("2006-01-02 15:04"), turn.Status, len(turn.State.Steps), turn.Question)
	}
	fmt.Fprintln(o.Out, table)
	return nil
}

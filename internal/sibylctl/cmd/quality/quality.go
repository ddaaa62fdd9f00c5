package quality

import (
	"context"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/vantle/sibyl/internal/sibylctl/cmd/util"
	"github.com/vantle/sibyl/pkg/cli/genericclioptions"
)

// QualityOptions holds the flags and dependencies of `sibylctl quality`.
type QualityOptions struct {
	Table string
	Limit int

	factory util.Factory
	genericclioptions.IOStreams
}

// NewCmdQuality creates the `quality` command with its subcommands.
func NewCmdQuality(f util.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := &QualityOptions{
		Limit:     10,
		factory:   f,
		IOStreams: ioStreams,
	}

	cmd := &cobra.Command{
		Use:   "quality",
		Short: "Manage data-quality tests",
		Example: heredoc.Doc(`
			# List tests for one table
			sibylctl quality list --table=orders

			# Run a test now
			sibylctl quality run orders-not-null

			# Recent results of a test
			sibylctl quality results orders-not-null
		`),
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List quality tests",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.RunList(cmd.Context()))
		},
	}
	list.Flags().StringVar(&o.Table, "table", "", "Only tests on this table")

	run := &cobra.Command{
		Use:   "run <id>",
		Short: "Run one test now",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.RunTest(cmd.Context(), args[0]))
		},
	}
	results := &cobra.Command{
		Use:   "results <id>",
		Short: "Show recent results of one test",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.RunResults(cmd.Context(), args[0]))
		},
	}
	results.Flags().IntVar(&o.Limit, "limit", o.Limit, "Maximum results to show")

	cmd.AddCommand(list, run, results)
	return cmd
}

// RunList prints the defined tests.
func (o *QualityOptions) RunList(ctx context.Context) error {
	client, err := o.factory.Client()
	if err != nil {
		return err
	}
	tests, err := client.Quality().List(ctx, o.Table)
	if err != nil {
		return err
	}
	if len(tests) == 0 {
		fmt.Fprintln(o.Out, "no quality tests defined")
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 48
	table.AddRow("ID", "NAME", "TABLE", "KIND", "SEVERITY", "ENABLED")
	for _, test := range tests {
		table.AddRow(test.ID, test.Name, test.Table, test.Kind, test.Severity, test.Enabled)
	}
	fmt.Fprintln(o.Out, table)
	return nil
}

// RunTest executes one test and prints the outcome.
func (o *QualityOptions) RunTest(ctx context.Context, id string) error {
	client, err := o.factory.Client()
	if err != nil {
		return err
	}
	result, err := client.Quality().Run(ctx, id)
	if err != nil {
		return err
	}

	if result.Passed {
		color.New(color.FgGreen).Fprintf(o.Out, "PASS")
	} else {
		color.New(color.FgRed).Fprintf(o.Out, "FAIL")
	}
	fmt.Fprintf(o.Out, " %d/%d rows (%.2f%%)\n", result.TotalRows-result.FailedRows, result.TotalRows, result.PassRate*100)
	if result.Message != "" {
		fmt.Fprintln(o.Out, result.Message)
	}
	return nil
}

// RunResults prints recent results of one test.
func (o *QualityOptions) RunResults(ctx context.Context, id string) error {
	client, err := o.factory.Client()
	if err != nil {
		return err
	}
	results, err := client.Quality().Results(ctx, id, o.Limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(o.Out, "no results recorded")
		return nil
	}

	table := uitable.New()
	table.AddRow("RUN", "PASSED", "FAILED ROWS", "PASS RATE", "RAN AT")
	for _, r := range results {
		table.AddRow(r.RunID, r.Passed, r.FailedRows, fmt.Sprintf("%.2f%%", r.PassRate*100), r.RanAt)
	}
	fmt.Fprintln(o.Out, table)
	return nil
}

package agent

import (
	"context"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/vantle/sibyl/internal/sibylctl/cmd/util"
	"github.com/vantle/sibyl/pkg/cli/genericclioptions"
)

// AgentOptions holds the flags and dependencies of `sibylctl agent`.
type AgentOptions struct {
	Limit int

	factory util.Factory
	genericclioptions.IOStreams
}

// NewCmdAgent creates the `agent` command with its subcommands.
func NewCmdAgent(f util.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := &AgentOptions{
		Limit:     10,
		factory:   f,
		IOStreams: ioStreams,
	}

	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage watch agents",
		Example: heredoc.Doc(`
			# List watch agents
			sibylctl agent list

			# Run one outside its schedule
			sibylctl agent trigger nightly-quality

			# Recent runs
			sibylctl agent runs nightly-quality --limit=5
		`),
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List watch agents",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.RunList(cmd.Context()))
		},
	}
	trigger := &cobra.Command{
		Use:   "trigger <id>",
		Short: "Start a run outside the schedule",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.RunTrigger(cmd.Context(), args[0]))
		},
	}
	runs := &cobra.Command{
		Use:   "runs <id>",
		Short: "Show recent runs of one agent",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.RunRuns(cmd.Context(), args[0]))
		},
	}
	runs.Flags().IntVar(&o.Limit, "limit", o.Limit, "Maximum runs to show")

	cmd.AddCommand(list, trigger, runs)
	return cmd
}

// RunList prints all watch agents.
func (o *AgentOptions) RunList(ctx context.Context) error {
	client, err := o.factory.Client()
	if err != nil {
		return err
	}
	agents, err := client.Agents().List(ctx)
	if err != nil {
		return err
	}
	if len(agents) == 0 {
		fmt.Fprintln(o.Out, "no watch agents defined")
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 48
	table.AddRow("ID", "NAME", "SCHEDULE", "ENABLED", "LAST RUN", "LAST STATE")
	for _, agent := range agents {
		table.AddRow(agent.ID, agent.Name, agent.Schedule, agent.Enabled, agent.LastRunAt, agent.LastState)
	}
	fmt.Fprintln(o.Out, table)
	return nil
}

// RunTrigger starts one agent run now.
func (o *AgentOptions) RunTrigger(ctx context.Context, id string) error {
	client, err := o.factory.Client()
	if err != nil {
		return err
	}
	run, err := client.Agents().Trigger(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(o.Out, "run %s started (%s)\n", run.RunID, run.State)
	return nil
}

// RunRuns prints recent runs of one agent.
func (o *AgentOptions) RunRuns(ctx context.Context, id string) error {
	client, err := o.factory.Client()
	if err != nil {
		return err
	}
	runs, err := client.Agents().Runs(ctx, id, o.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(o.Out, "no runs recorded")
		return nil
	}

	table := uitable.New()
	table.AddRow("RUN", "STATE", "STARTED", "FINISHED")
	for _, run := range runs {
		table.AddRow(run.RunID, run.State, run.StartedAt, run.FinishedAt)
	}
	fmt.Fprintln(o.Out, table)
	return nil
}
